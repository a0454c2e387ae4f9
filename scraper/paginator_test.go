package scraper

import (
	"context"
	"errors"
	"fmt"
	"net/url"
	"strconv"
	"strings"
	"testing"

	"github.com/stretchr/testify/require"

	"urbania_scraper/config"
	"urbania_scraper/logging"
	"urbania_scraper/models"
)

func searchPage(current int, hrefs ...string) string {
	var b strings.Builder
	b.WriteString("<html><body><div class=\"postings-container\">")
	for _, href := range hrefs {
		fmt.Fprintf(&b, `<div class="postingCard"><h3 class="postingCard-module__posting-description"><a href="%s">Depa</a></h3></div>`, href)
	}
	b.WriteString("</div><div class=\"paging\">")
	fmt.Fprintf(&b, `<a class="paging-module__page-item paging-module__page-item-current">%d</a>`, current)
	b.WriteString("</div></body></html>")
	return b.String()
}

func emptySearchPage(current int) string {
	return fmt.Sprintf(`<html><body><div class="postingsNoResults-module__container">No encontramos resultados</div>
	<a class="paging-module__page-item paging-module__page-item-current">%d</a></body></html>`, current)
}

// scriptedFetcher serves search pages by requested page number and detail
// pages by URL.
type scriptedFetcher struct {
	pages   map[int]string
	details map[string]string
	fail    map[string]bool

	searchCalls []url.Values
	detailCalls []string
}

func (f *scriptedFetcher) Fetch(ctx context.Context, rawURL string, headers map[string]string, query url.Values, maxRetries int) (string, error) {
	if query.Has("page") {
		f.searchCalls = append(f.searchCalls, query)
		page, _ := strconv.Atoi(query.Get("page"))
		body, ok := f.pages[page]
		if !ok {
			return "", errors.New("fetch failed")
		}
		return body, nil
	}

	f.detailCalls = append(f.detailCalls, rawURL)
	if f.fail[rawURL] {
		return "", errors.New("fetch failed")
	}
	body, ok := f.details[rawURL]
	if !ok {
		return "", errors.New("fetch failed")
	}
	return body, nil
}

func testSite() *config.SiteConfig {
	site, err := config.ParseSite([]byte(`
id: urbania
base_url: https://urbania.pe
listing_kind: alquiler-de-propiedades-en
max_retries: 0
search_query:
  priceMin: "1"
  currencyId: "6"
district_overrides:
  LIMA: LIMA CERCADO
`))
	if err != nil {
		panic(err)
	}
	return site
}

func testTarget(site *config.SiteConfig) SearchTarget {
	return NewSearchTarget(site, models.Location{Region: "LIMA", City: "LIMA", District: "MIRAFLORES"})
}

func newTestPaginator(t *testing.T, f PageFetcher, site *config.SiteConfig) *Paginator {
	t.Helper()
	p, err := NewPaginator(f, site, logging.Discard())
	require.NoError(t, err)
	return p
}

func TestCollect_StopsOnPageMismatch(t *testing.T) {
	site := testSite()
	f := &scriptedFetcher{pages: map[int]string{
		1: searchPage(1, "/inmueble/a"),
		2: searchPage(2, "/inmueble/b"),
		3: searchPage(2, "/inmueble/b"),
		4: searchPage(4, "/inmueble/never"),
	}}

	res, err := newTestPaginator(t, f, site).Collect(context.Background(), testTarget(site))
	require.NoError(t, err)
	require.Equal(t, StopMismatch, res.Stop)
	require.Len(t, f.searchCalls, 3)
	require.Equal(t, 3, res.Pages)
	require.Equal(t, []string{"https://urbania.pe/inmueble/a", "https://urbania.pe/inmueble/b"}, res.Links)
}

func TestCollect_DeduplicatesAcrossPages(t *testing.T) {
	site := testSite()
	f := &scriptedFetcher{pages: map[int]string{
		1: searchPage(1, "/inmueble/a", "/inmueble/b"),
		2: searchPage(2, "/inmueble/b", "/inmueble/c"),
		3: searchPage(2),
	}}

	res, err := newTestPaginator(t, f, site).Collect(context.Background(), testTarget(site))
	require.NoError(t, err)
	require.Equal(t, []string{
		"https://urbania.pe/inmueble/a",
		"https://urbania.pe/inmueble/b",
		"https://urbania.pe/inmueble/c",
	}, res.Links)
}

func TestCollect_FetchFailureKeepsLinks(t *testing.T) {
	site := testSite()
	f := &scriptedFetcher{pages: map[int]string{
		1: searchPage(1, "/inmueble/a", "/inmueble/b"),
	}}

	res, err := newTestPaginator(t, f, site).Collect(context.Background(), testTarget(site))
	require.NoError(t, err)
	require.Equal(t, StopFetchFailed, res.Stop)
	require.Len(t, f.searchCalls, 2)
	require.Len(t, res.Links, 2)
}

func TestCollect_NoResults(t *testing.T) {
	site := testSite()
	f := &scriptedFetcher{pages: map[int]string{
		1: searchPage(1, "/inmueble/a"),
		2: emptySearchPage(2),
	}}

	res, err := newTestPaginator(t, f, site).Collect(context.Background(), testTarget(site))
	require.NoError(t, err)
	require.Equal(t, StopEmpty, res.Stop)
	require.Equal(t, []string{"https://urbania.pe/inmueble/a"}, res.Links)
}

func TestCollect_MissingPagingMarkerMeansSinglePage(t *testing.T) {
	site := testSite()
	single := `<html><body><h3 class="postingCard-module__posting-description"><a href="/inmueble/only">x</a></h3></body></html>`
	f := &scriptedFetcher{pages: map[int]string{1: single, 2: single}}

	res, err := newTestPaginator(t, f, site).Collect(context.Background(), testTarget(site))
	require.NoError(t, err)
	require.Equal(t, StopMismatch, res.Stop)
	require.Len(t, f.searchCalls, 2)
	require.Equal(t, []string{"https://urbania.pe/inmueble/only"}, res.Links)
}

func TestCollect_MaxPagesIsFatal(t *testing.T) {
	site := testSite()
	site.MaxPages = 3
	f := &scriptedFetcher{pages: map[int]string{
		1: searchPage(1, "/inmueble/a"),
		2: searchPage(2, "/inmueble/b"),
		3: searchPage(3, "/inmueble/c"),
	}}

	_, err := newTestPaginator(t, f, site).Collect(context.Background(), testTarget(site))
	require.ErrorIs(t, err, ErrMaxPagesReached)
	require.Len(t, f.searchCalls, 3)
}

func TestCollect_SendsSearchQuery(t *testing.T) {
	site := testSite()
	f := &scriptedFetcher{pages: map[int]string{1: searchPage(1), 2: searchPage(1)}}

	_, err := newTestPaginator(t, f, site).Collect(context.Background(), testTarget(site))
	require.NoError(t, err)

	require.Equal(t, "1", f.searchCalls[0].Get("page"))
	require.Equal(t, "2", f.searchCalls[1].Get("page"))
	require.Equal(t, "1", f.searchCalls[0].Get("priceMin"))
	require.Equal(t, "6", f.searchCalls[0].Get("currencyId"))
}

func TestNewSearchTarget(t *testing.T) {
	site := testSite()
	site.DistrictOverrides["MAGDALENA DEL MAR"] = "MAGDALENA"

	target := NewSearchTarget(site, models.Location{Region: "LIMA", City: "LIMA", District: "LIMA"})
	require.Equal(t, "https://urbania.pe/buscar/alquiler-de-propiedades-en-lima-cercado--lima--lima", target.URL)
	require.Equal(t, "LIMA", target.Location.District, "records keep the directory name")

	target = NewSearchTarget(site, models.Location{Region: "LIMA", City: "LIMA", District: "MAGDALENA DEL MAR"})
	require.Equal(t, "https://urbania.pe/buscar/alquiler-de-propiedades-en-magdalena--lima--lima", target.URL)

	target = NewSearchTarget(site, models.Location{Region: "CALLAO", City: "CALLAO", District: "LA PERLA"})
	require.Equal(t, "https://urbania.pe/buscar/alquiler-de-propiedades-en-la-perla--callao--callao", target.URL)
}
