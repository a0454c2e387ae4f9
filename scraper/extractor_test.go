package scraper

import (
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"

	"urbania_scraper/logging"
	"urbania_scraper/models"
)

func loadFixture(t *testing.T, name string) string {
	t.Helper()
	path := filepath.Join("testdata", name)
	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("failed to read fixture %s: %v", name, err)
	}
	return string(data)
}

func TestExtract_FullListing(t *testing.T) {
	details, err := NewExtractor(logging.Discard()).Extract(loadFixture(t, "listing_full.html"))
	require.NoError(t, err)

	require.Equal(t, "Departamento", details.PropertyType)
	require.Equal(t, "Alquiler", details.PriceType)
	require.Equal(t, 1200, details.PricePrimary)
	require.NotNil(t, details.PriceSecondary)
	require.Equal(t, 330, *details.PriceSecondary)
	require.NotNil(t, details.AdditionalExpense)
	require.Equal(t, 350, *details.AdditionalExpense)
	require.NotNil(t, details.Address)
	require.Equal(t, "Av. José Pardo 620, Miraflores, Lima", *details.Address)

	require.Equal(t, models.Features{
		TotalSize:     120,
		CoveredSize:   110,
		Bedrooms:      3,
		Bathrooms:     2,
		HalfBathrooms: 1,
		ParkingSpaces: 1,
		Age:           5,
	}, details.Features)
}

func TestExtract_MinimalListingDefaults(t *testing.T) {
	details, err := NewExtractor(logging.Discard()).Extract(loadFixture(t, "listing_minimal.html"))
	require.NoError(t, err)

	require.Equal(t, "Casa", details.PropertyType)
	require.Equal(t, 3500, details.PricePrimary)
	require.Nil(t, details.PriceSecondary, "single price span has no secondary price")
	require.Nil(t, details.AdditionalExpense)
	require.NotNil(t, details.Address)
	require.Equal(t, "Bellavista, Callao", *details.Address)

	require.Equal(t, 200, details.Features.TotalSize)
	require.Equal(t, 4, details.Features.Bedrooms)
	require.Equal(t, 0, details.Features.ParkingSpaces, "missing parking icon means not listed")
	require.Equal(t, 0, details.Features.Bathrooms)
	require.Equal(t, models.AgeNewlyBuilt, details.Features.Age)
}

func TestExtract_BuildingIsSkipped(t *testing.T) {
	details, err := NewExtractor(logging.Discard()).Extract(loadFixture(t, "listing_building.html"))
	require.Nil(t, details)
	require.ErrorIs(t, err, ErrExcludedCategory)
	require.ErrorIs(t, err, ErrSkip)
}

func TestExtract_InactiveIsSkipped(t *testing.T) {
	details, err := NewExtractor(logging.Discard()).Extract(loadFixture(t, "listing_inactive.html"))
	require.Nil(t, details)
	require.ErrorIs(t, err, ErrInactive)
	require.ErrorIs(t, err, ErrSkip)
}

func TestExtract_MissingPriceIsExtractionFailure(t *testing.T) {
	details, err := NewExtractor(logging.Discard()).Extract(loadFixture(t, "listing_no_price.html"))
	require.Nil(t, details)
	require.False(t, errors.Is(err, ErrSkip))

	var extractErr *ExtractionError
	require.True(t, errors.As(err, &extractErr))
	require.Equal(t, "price_type", extractErr.Field)
}

func TestExtract_UnreadableFeatureIsExtractionFailure(t *testing.T) {
	page := `<div id="article-container"><h2>Departamento</h2>
	<div class="price-container"><div class="price-item-container"><div class="price-value"><span>Alquiler <span>S/ 900</span></span></div></div></div>
	<ul id="section-icon-features-property"><li><i class="icon-dormitorio"></i> varios</li></ul></div>`

	_, err := NewExtractor(logging.Discard()).Extract(page)

	var extractErr *ExtractionError
	require.True(t, errors.As(err, &extractErr))
	require.Equal(t, "icon-dormitorio", extractErr.Field)
}

func TestParseAmount(t *testing.T) {
	cases := map[string]int{
		"S/ 1,200":          1200,
		"USD 330":           330,
		"S/ 12,345,678":     12345678,
		"Mantenimiento 350": 350,
		"S/ 1,200.50":       1200,
	}
	for in, want := range cases {
		got, err := ParseAmount(in)
		require.NoError(t, err, in)
		require.Equal(t, want, got, in)
	}

	_, err := ParseAmount("Consultar precio")
	require.Error(t, err)
}

func TestParseAge(t *testing.T) {
	cases := map[string]int{
		"A estrenar":         models.AgeNewlyBuilt,
		"Newly built":        models.AgeNewlyBuilt,
		"En construcción":    models.AgeUnderConstruction,
		"Under construction": models.AgeUnderConstruction,
		"5 years":            5,
		"12 años":            12,
	}
	for in, want := range cases {
		got, err := ParseAge(in)
		require.NoError(t, err, in)
		require.Equal(t, want, got, in)
	}
}
