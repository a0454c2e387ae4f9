package fetcher

import (
	"context"
	"fmt"
	"net/url"
	"sync"
	"time"

	"github.com/playwright-community/playwright-go"
)

// BrowserTransport renders pages in headless Chromium. It is the fallback
// when the site starts serving JavaScript challenges the HTTP client cannot
// answer.
type BrowserTransport struct {
	userAgent string
	timeout   time.Duration

	mu          sync.Mutex
	pw          *playwright.Playwright
	browser     playwright.Browser
	context     playwright.BrowserContext
	initialized bool
}

func NewBrowserTransport(userAgent string, timeout time.Duration) *BrowserTransport {
	return &BrowserTransport{userAgent: userAgent, timeout: timeout}
}

func (t *BrowserTransport) ensureBrowser() error {
	t.mu.Lock()
	defer t.mu.Unlock()

	if t.initialized {
		return nil
	}

	var err error
	t.pw, err = playwright.Run()
	if err != nil {
		return fmt.Errorf("failed to start playwright: %w", err)
	}

	t.browser, err = t.pw.Chromium.Launch(playwright.BrowserTypeLaunchOptions{
		Headless: playwright.Bool(true),
		Args: []string{
			"--disable-blink-features=AutomationControlled",
			"--disable-dev-shm-usage",
			"--no-sandbox",
		},
	})
	if err != nil {
		t.pw.Stop()
		return fmt.Errorf("failed to launch browser: %w", err)
	}

	t.context, err = t.browser.NewContext(playwright.BrowserNewContextOptions{
		UserAgent: playwright.String(t.userAgent),
		Locale:    playwright.String("es-PE"),
	})
	if err != nil {
		t.browser.Close()
		t.pw.Stop()
		return fmt.Errorf("failed to create browser context: %w", err)
	}

	t.initialized = true
	return nil
}

func (t *BrowserTransport) Get(ctx context.Context, rawURL string, headers map[string]string, query url.Values) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}
	if err := t.ensureBrowser(); err != nil {
		return "", err
	}

	target := rawURL
	if len(query) > 0 {
		u, err := url.Parse(rawURL)
		if err != nil {
			return "", fmt.Errorf("parse url: %w", err)
		}
		q := u.Query()
		for k, vs := range query {
			for _, v := range vs {
				q.Add(k, v)
			}
		}
		u.RawQuery = q.Encode()
		target = u.String()
	}

	page, err := t.context.NewPage()
	if err != nil {
		return "", fmt.Errorf("failed to create page: %w", err)
	}
	defer page.Close()

	if len(headers) > 0 {
		if err := page.SetExtraHTTPHeaders(headers); err != nil {
			return "", fmt.Errorf("failed to set headers: %w", err)
		}
	}

	resp, err := page.Goto(target, playwright.PageGotoOptions{
		Timeout:   playwright.Float(float64(t.timeout.Milliseconds())),
		WaitUntil: playwright.WaitUntilStateDomcontentloaded,
	})
	if err != nil {
		return "", fmt.Errorf("navigate: %w", err)
	}
	if resp != nil && (resp.Status() < 200 || resp.Status() > 299) {
		return "", &StatusError{URL: target, Code: resp.Status()}
	}

	return page.Content()
}

func (t *BrowserTransport) Close() error {
	t.mu.Lock()
	defer t.mu.Unlock()

	if !t.initialized {
		return nil
	}
	if t.context != nil {
		t.context.Close()
	}
	if t.browser != nil {
		t.browser.Close()
	}
	t.initialized = false
	return t.pw.Stop()
}
