package httputil

import (
	"time"

	cloudflarebp "github.com/DaRealFreak/cloudflare-bp-go"
	"github.com/go-resty/resty/v2"
)

// NewScrapingClient returns a resty client that presents itself as a desktop
// browser. The Cloudflare bypass round tripper aligns TLS and header order
// with a real Chrome so challenge pages are not served to it.
func NewScrapingClient(userAgent string, timeout time.Duration) *resty.Client {
	client := resty.New()
	client.GetClient().Transport = cloudflarebp.AddCloudFlareByPass(client.GetClient().Transport)

	client.SetHeader("User-Agent", userAgent)
	client.SetHeader("Accept", "text/html,application/xhtml+xml,application/xml;q=0.9,*/*;q=0.8")
	client.SetHeader("Accept-Language", "es-PE,es;q=0.9,en;q=0.8")
	client.SetRedirectPolicy(resty.FlexibleRedirectPolicy(10))

	if timeout > 0 {
		client.SetTimeout(timeout)
	}
	return client
}
