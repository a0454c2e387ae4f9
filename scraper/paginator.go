package scraper

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/url"
	"strconv"

	"urbania_scraper/config"
)

// ErrMaxPagesReached means pagination ran to the hard cap without any stop
// condition firing. Stop detection is broken at that point, so the run must
// not continue.
var ErrMaxPagesReached = errors.New("reached max pages without a stop condition")

type StopReason string

const (
	StopMismatch    StopReason = "page_mismatch"
	StopEmpty       StopReason = "no_results"
	StopFetchFailed StopReason = "fetch_failed"
)

type PageFetcher interface {
	Fetch(ctx context.Context, rawURL string, headers map[string]string, query url.Values, maxRetries int) (string, error)
}

// LinkSet keeps links unique in first-seen order.
type LinkSet struct {
	links []string
	seen  map[string]struct{}
}

func NewLinkSet() *LinkSet {
	return &LinkSet{seen: make(map[string]struct{})}
}

func (s *LinkSet) Add(link string) bool {
	if _, ok := s.seen[link]; ok {
		return false
	}
	s.seen[link] = struct{}{}
	s.links = append(s.links, link)
	return true
}

func (s *LinkSet) Links() []string {
	out := make([]string, len(s.links))
	copy(out, s.links)
	return out
}

func (s *LinkSet) Len() int {
	return len(s.links)
}

// PaginationResult is the outcome of one target's search.
type PaginationResult struct {
	Links []string
	Stop  StopReason
	Pages int // page requests made
}

type Paginator struct {
	fetcher    PageFetcher
	base       *url.URL
	query      map[string]string
	headers    map[string]string
	maxPages   int
	maxRetries int
	log        *slog.Logger
}

func NewPaginator(fetcher PageFetcher, site *config.SiteConfig, logger *slog.Logger) (*Paginator, error) {
	base, err := url.Parse(site.BaseURL)
	if err != nil {
		return nil, fmt.Errorf("parse base url: %w", err)
	}
	maxPages := site.MaxPages
	if maxPages <= 0 {
		maxPages = 1000
	}
	return &Paginator{
		fetcher:    fetcher,
		base:       base,
		query:      site.SearchQuery,
		headers:    map[string]string{"User-Agent": site.UserAgent},
		maxPages:   maxPages,
		maxRetries: site.MaxRetries,
		log:        logger.With("component", "paginator"),
	}, nil
}

// Collect walks the result pages of target until a stop condition fires and
// returns the unique links seen. Links gathered before a stop are kept. Only
// ErrMaxPagesReached is returned as an error.
func (p *Paginator) Collect(ctx context.Context, target SearchTarget) (*PaginationResult, error) {
	set := NewLinkSet()
	log := p.log.With("url", target.URL)

	for page := 1; page <= p.maxPages; page++ {
		log.Info("fetching search page", "page", page)

		content, err := p.fetcher.Fetch(ctx, target.URL, p.headers, p.pageQuery(page), p.maxRetries)
		if err != nil {
			log.Error("search page fetch failed, stopping target", "page", page, "error", err)
			return p.result(set, StopFetchFailed, page), nil
		}

		parsed, err := ParseSearchPage(content, p.base)
		if err != nil {
			log.Error("search page unreadable, stopping target", "page", page, "error", err)
			return p.result(set, StopFetchFailed, page), nil
		}

		if parsed.CurrentPage != page {
			log.Info("reached end of results", "requested", page, "reported", parsed.CurrentPage)
			return p.result(set, StopMismatch, page), nil
		}

		if parsed.NoResults {
			log.Warn("no results on page", "page", page)
			return p.result(set, StopEmpty, page), nil
		}

		added := 0
		for _, link := range parsed.Links {
			if set.Add(link) {
				added++
			}
		}
		log.Info("links found", "page", page, "links", len(parsed.Links), "new", added, "total", set.Len())
	}

	return p.result(set, "", p.maxPages), fmt.Errorf("%s: %w (%d)", target.URL, ErrMaxPagesReached, p.maxPages)
}

func (p *Paginator) pageQuery(page int) url.Values {
	q := url.Values{}
	for k, v := range p.query {
		q.Set(k, v)
	}
	q.Set("page", strconv.Itoa(page))
	return q
}

func (p *Paginator) result(set *LinkSet, stop StopReason, pages int) *PaginationResult {
	return &PaginationResult{
		Links: set.Links(),
		Stop:  stop,
		Pages: pages,
	}
}
