package identity

import (
	"fmt"
	"net/url"
	"strings"

	"github.com/google/uuid"
)

// PropertyID derives the listing id from its canonical link. The namespace
// is fixed so the same link maps to the same id in every run.
func PropertyID(link string) string {
	return uuid.NewSHA1(uuid.NameSpaceURL, []byte(link)).String()
}

// NewBatchID returns a fresh random run identifier.
func NewBatchID() string {
	return uuid.NewString()
}

// CanonicalLink resolves href against base and drops any fragment, so card
// links like "/inmueble/abc#photos" and absolute links agree.
func CanonicalLink(base *url.URL, href string) (string, error) {
	href = strings.TrimSpace(href)
	if href == "" {
		return "", fmt.Errorf("empty link")
	}

	ref, err := url.Parse(href)
	if err != nil {
		return "", fmt.Errorf("parse link %q: %w", href, err)
	}

	abs := base.ResolveReference(ref)
	abs.Fragment = ""
	abs.RawFragment = ""
	return abs.String(), nil
}
