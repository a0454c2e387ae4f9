package fetcher

import (
	"context"
	"fmt"
	"net/url"
	"time"

	"github.com/go-resty/resty/v2"
	"golang.org/x/time/rate"

	"urbania_scraper/httputil"
)

// HTTPTransport issues requests through a browser-like resty client, paced
// by a limiter.
type HTTPTransport struct {
	client  *resty.Client
	limiter *rate.Limiter
}

func NewHTTPTransport(userAgent string, timeout time.Duration, rateLimitMS int) *HTTPTransport {
	return NewHTTPTransportWithClient(httputil.NewScrapingClient(userAgent, timeout), rateLimitMS)
}

func NewHTTPTransportWithClient(client *resty.Client, rateLimitMS int) *HTTPTransport {
	limit := rate.Inf
	if rateLimitMS > 0 {
		limit = rate.Every(time.Duration(rateLimitMS) * time.Millisecond)
	}
	return &HTTPTransport{
		client:  client,
		limiter: rate.NewLimiter(limit, 1),
	}
}

func (t *HTTPTransport) Get(ctx context.Context, rawURL string, headers map[string]string, query url.Values) (string, error) {
	if err := t.limiter.Wait(ctx); err != nil {
		return "", fmt.Errorf("rate limit: %w", err)
	}

	req := t.client.R().SetContext(ctx)
	if len(headers) > 0 {
		req.SetHeaders(headers)
	}
	if len(query) > 0 {
		req.SetQueryParamsFromValues(query)
	}

	resp, err := req.Get(rawURL)
	if err != nil {
		return "", err
	}
	if !resp.IsSuccess() {
		return "", &StatusError{URL: rawURL, Code: resp.StatusCode()}
	}
	return resp.String(), nil
}

func (t *HTTPTransport) Close() error {
	return nil
}
