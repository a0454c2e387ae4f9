package scraper

import (
	"errors"
	"fmt"
	"log/slog"
	"regexp"
	"strconv"
	"strings"

	"github.com/PuerkitoBio/goquery"
	"golang.org/x/text/cases"
	"golang.org/x/text/language"

	"urbania_scraper/models"
)

// ErrSkip covers listings that are fine to leave out: they are business
// outcomes, not page breakage.
var ErrSkip = errors.New("listing skipped")

var (
	ErrInactive         = fmt.Errorf("%w: article not active", ErrSkip)
	ErrExcludedCategory = fmt.Errorf("%w: building listing", ErrSkip)
)

// ExtractionError means an element assumed to always exist was missing or
// unreadable, usually because the page layout changed.
type ExtractionError struct {
	Field string
	Err   error
}

func (e *ExtractionError) Error() string {
	return fmt.Sprintf("extract %s: %v", e.Field, e.Err)
}

func (e *ExtractionError) Unwrap() error {
	return e.Err
}

var errMissing = errors.New("element not found")

var amountRegex = regexp.MustCompile(`\d[\d,]*`)

type Extractor struct {
	log *slog.Logger
}

func NewExtractor(logger *slog.Logger) *Extractor {
	return &Extractor{log: logger.With("component", "extractor")}
}

// Extract turns a listing page into details. The error is either wrapped in
// ErrSkip or an *ExtractionError; details are only returned complete.
func (e *Extractor) Extract(content string) (*models.ListingDetails, error) {
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(content))
	if err != nil {
		return nil, &ExtractionError{Field: "document", Err: err}
	}

	article := doc.Find(articleSelector).First()
	if article.Length() == 0 {
		return nil, ErrInactive
	}

	propertyType, err := parsePropertyType(article)
	if err != nil {
		return nil, err
	}

	details := &models.ListingDetails{PropertyType: propertyType}

	if err := parsePrice(doc, details); err != nil {
		return nil, err
	}

	details.AdditionalExpense = e.parseExpense(doc)
	details.Address = parseAddress(doc)

	features, err := parseFeatures(doc)
	if err != nil {
		return nil, err
	}
	details.Features = features

	return details, nil
}

func parsePropertyType(article *goquery.Selection) (string, error) {
	header := article.Children().First()
	if header.Length() == 0 {
		return "", &ExtractionError{Field: "property_type", Err: errMissing}
	}

	text := strings.TrimSpace(header.Text())
	if strings.Contains(strings.ToLower(text), buildingCategoryToken) {
		return "", ErrExcludedCategory
	}

	kind, _, _ := strings.Cut(text, propertyTypeSeparator)
	kind = strings.TrimSpace(kind)
	if kind == "" {
		return "", &ExtractionError{Field: "property_type", Err: errMissing}
	}
	return titleCase(kind), nil
}

func parsePrice(doc *goquery.Document, details *models.ListingDetails) error {
	label := doc.Find(priceLabelSelector).First()
	if label.Length() == 0 {
		return &ExtractionError{Field: "price_type", Err: errMissing}
	}

	priceType := ownText(label)
	if priceType == "" {
		return &ExtractionError{Field: "price_type", Err: errMissing}
	}
	details.PriceType = titleCase(priceType)

	amounts := doc.Find(priceAmountsSelector)
	if amounts.Length() == 0 {
		return &ExtractionError{Field: "price_primary", Err: errMissing}
	}

	primary, err := ParseAmount(amounts.Eq(0).Text())
	if err != nil {
		return &ExtractionError{Field: "price_primary", Err: err}
	}
	details.PricePrimary = primary

	if amounts.Length() >= 3 {
		if text := strings.TrimSpace(amounts.Eq(2).Text()); text != "" {
			secondary, err := ParseAmount(text)
			if err != nil {
				return &ExtractionError{Field: "price_secondary", Err: err}
			}
			details.PriceSecondary = &secondary
		}
	}

	return nil
}

func (e *Extractor) parseExpense(doc *goquery.Document) *int {
	node := doc.Find(expenseSelector).First()
	if node.Length() == 0 {
		return nil
	}

	text := strings.ReplaceAll(node.Text(), expenseLabel, "")
	amount, err := ParseAmount(text)
	if err != nil {
		e.log.Debug("maintenance fee without amount", "text", strings.TrimSpace(node.Text()))
		return nil
	}
	return &amount
}

func parseAddress(doc *goquery.Document) *string {
	for _, sel := range []string{addressSelector, addressFallbackSelector} {
		node := doc.Find(sel).First()
		if node.Length() == 0 {
			continue
		}
		if text := strings.TrimSpace(node.Text()); text != "" {
			return &text
		}
	}
	return nil
}

type featureSetter func(f *models.Features, text string) error

func intFeature(set func(f *models.Features, v int)) featureSetter {
	return func(f *models.Features, text string) error {
		v, err := leadingInt(text)
		if err != nil {
			return err
		}
		set(f, v)
		return nil
	}
}

// featureSetters maps an icon class to the field it fills. Icons not listed
// here are ignored.
var featureSetters = map[string]featureSetter{
	"icon-stotal":     intFeature(func(f *models.Features, v int) { f.TotalSize = v }),
	"icon-scubierta":  intFeature(func(f *models.Features, v int) { f.CoveredSize = v }),
	"icon-dormitorio": intFeature(func(f *models.Features, v int) { f.Bedrooms = v }),
	"icon-bano":       intFeature(func(f *models.Features, v int) { f.Bathrooms = v }),
	"icon-toilete":    intFeature(func(f *models.Features, v int) { f.HalfBathrooms = v }),
	"icon-cochera":    intFeature(func(f *models.Features, v int) { f.ParkingSpaces = v }),
	"icon-antiguedad": func(f *models.Features, text string) error {
		age, err := ParseAge(text)
		if err != nil {
			return err
		}
		f.Age = age
		return nil
	},
}

func parseFeatures(doc *goquery.Document) (models.Features, error) {
	var features models.Features
	var firstErr error

	doc.Find(featureItemSelector).EachWithBreak(func(_ int, li *goquery.Selection) bool {
		icon := li.Find("i").First()
		if icon.Length() == 0 {
			return true
		}
		text := strings.Join(strings.Fields(li.Text()), " ")

		for _, class := range strings.Fields(icon.AttrOr("class", "")) {
			set, ok := featureSetters[class]
			if !ok {
				continue
			}
			if err := set(&features, text); err != nil {
				firstErr = &ExtractionError{Field: class, Err: err}
				return false
			}
			break
		}
		return true
	})

	return features, firstErr
}

// ParseAge maps the antiquity text to years, or to the newly-built and
// under-construction sentinels.
func ParseAge(text string) (int, error) {
	lower := strings.ToLower(text)
	for _, m := range newlyBuiltMarkers {
		if strings.Contains(lower, m) {
			return models.AgeNewlyBuilt, nil
		}
	}
	for _, m := range underConstructionMarkers {
		if strings.Contains(lower, m) {
			return models.AgeUnderConstruction, nil
		}
	}
	return leadingInt(text)
}

// ParseAmount reads the first number in a price text, dropping the currency
// prefix and thousands separators: "S/ 1,200" -> 1200.
func ParseAmount(text string) (int, error) {
	match := amountRegex.FindString(text)
	if match == "" {
		return 0, fmt.Errorf("no amount in %q", strings.TrimSpace(text))
	}
	return strconv.Atoi(strings.ReplaceAll(match, ",", ""))
}

// leadingInt parses the quantity that opens a feature text ("120 m² tot.").
func leadingInt(text string) (int, error) {
	fields := strings.Fields(text)
	if len(fields) == 0 {
		return 0, fmt.Errorf("empty feature text")
	}
	match := amountRegex.FindString(fields[0])
	if match == "" || !strings.HasPrefix(fields[0], match) {
		return 0, fmt.Errorf("no quantity in %q", text)
	}
	return strconv.Atoi(strings.ReplaceAll(match, ",", ""))
}

// ownText returns the first non-blank text node directly under s, ignoring
// text inside child elements.
func ownText(s *goquery.Selection) string {
	var text string
	s.Contents().EachWithBreak(func(_ int, c *goquery.Selection) bool {
		if goquery.NodeName(c) != "#text" {
			return true
		}
		text = strings.TrimSpace(c.Text())
		return text == ""
	})
	return text
}

func titleCase(s string) string {
	return cases.Title(language.Spanish).String(s)
}
