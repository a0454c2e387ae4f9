package fetcher

import (
	"time"

	"urbania_scraper/config"
)

// NewTransport picks the transport named by the site's handler.
func NewTransport(site *config.SiteConfig, timeout time.Duration) Transport {
	switch site.Handler {
	case "browser":
		return NewBrowserTransport(site.UserAgent, timeout)
	case "http":
		return NewHTTPTransport(site.UserAgent, timeout, site.RateLimitMS)
	default:
		return NewHTTPTransport(site.UserAgent, timeout, site.RateLimitMS)
	}
}
