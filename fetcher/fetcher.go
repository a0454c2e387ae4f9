package fetcher

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/url"
	"time"
)

// ErrFetchFailed marks a fetch whose attempts are all used up. Callers
// decide whether that skips one item or stops a whole target.
var ErrFetchFailed = errors.New("fetch failed")

// Transport performs a single GET and returns the body of a 2xx response.
type Transport interface {
	Get(ctx context.Context, rawURL string, headers map[string]string, query url.Values) (string, error)
	Close() error
}

// StatusError is returned by transports for non-2xx responses.
type StatusError struct {
	URL  string
	Code int
}

func (e *StatusError) Error() string {
	return fmt.Sprintf("unexpected status %d from %s", e.Code, e.URL)
}

// FetchError carries the last attempt's cause.
type FetchError struct {
	URL      string
	Attempts int
	Err      error
}

func (e *FetchError) Error() string {
	return fmt.Sprintf("fetch %s failed after %d attempt(s): %v", e.URL, e.Attempts, e.Err)
}

func (e *FetchError) Unwrap() []error {
	return []error{ErrFetchFailed, e.Err}
}

// Policy controls retry pacing.
type Policy struct {
	Backoff func(attempt int) time.Duration
	Sleep   func(time.Duration)
}

// ExponentialBackoff waits 2^(attempt+1) seconds, attempt counting from 0.
func ExponentialBackoff(attempt int) time.Duration {
	return time.Duration(1<<uint(attempt+1)) * time.Second
}

func DefaultPolicy() Policy {
	return Policy{
		Backoff: ExponentialBackoff,
		Sleep:   time.Sleep,
	}
}

type Fetcher struct {
	transport Transport
	policy    Policy
	log       *slog.Logger
}

func New(transport Transport, policy Policy, logger *slog.Logger) *Fetcher {
	if policy.Backoff == nil {
		policy.Backoff = ExponentialBackoff
	}
	if policy.Sleep == nil {
		policy.Sleep = time.Sleep
	}
	return &Fetcher{
		transport: transport,
		policy:    policy,
		log:       logger.With("component", "fetcher"),
	}
}

// Fetch makes up to maxRetries+1 attempts, sleeping between failed ones but
// not after the last.
func (f *Fetcher) Fetch(ctx context.Context, rawURL string, headers map[string]string, query url.Values, maxRetries int) (string, error) {
	if maxRetries < 0 {
		maxRetries = 0
	}

	var lastErr error
	attempts := 0
	for i := 0; i <= maxRetries; i++ {
		if err := ctx.Err(); err != nil {
			lastErr = err
			break
		}

		attempts++
		f.log.Info("fetching", "url", rawURL, "attempt", i+1)

		body, err := f.transport.Get(ctx, rawURL, headers, query)
		if err == nil {
			return body, nil
		}

		lastErr = err
		f.log.Error("fetch attempt failed", "url", rawURL, "attempt", i+1, "error", err)

		if i < maxRetries {
			f.policy.Sleep(f.policy.Backoff(i))
		}
	}

	return "", &FetchError{URL: rawURL, Attempts: attempts, Err: lastErr}
}

func (f *Fetcher) Close() error {
	return f.transport.Close()
}
