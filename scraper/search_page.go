package scraper

import (
	"fmt"
	"net/url"
	"strconv"
	"strings"

	"github.com/PuerkitoBio/goquery"

	"urbania_scraper/identity"
)

// SearchPage is what one result page says about itself.
type SearchPage struct {
	// CurrentPage is the page the site claims to be showing. The site clamps
	// out-of-range requests to the last page, so this is the end signal.
	CurrentPage int
	NoResults   bool
	Links       []string
}

// ParseSearchPage reads the paging marker, the empty-results container and
// the listing card links. Links are made absolute against base.
func ParseSearchPage(content string, base *url.URL) (*SearchPage, error) {
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(content))
	if err != nil {
		return nil, fmt.Errorf("parse html: %w", err)
	}

	page := &SearchPage{CurrentPage: 1}

	// A single page of results renders no paging widget.
	if marker := doc.Find(currentPageSelector).First(); marker.Length() > 0 {
		if n, err := strconv.Atoi(strings.TrimSpace(marker.Text())); err == nil {
			page.CurrentPage = n
		}
	}

	page.NoResults = doc.Find(noResultsSelector).Length() > 0

	doc.Find(listingLinkSelector).Each(func(_ int, s *goquery.Selection) {
		href, ok := s.Attr("href")
		if !ok {
			return
		}
		link, err := identity.CanonicalLink(base, href)
		if err != nil {
			return
		}
		page.Links = append(page.Links, link)
	})

	return page, nil
}
