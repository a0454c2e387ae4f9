package scraper

import (
	"strings"

	"urbania_scraper/config"
	"urbania_scraper/models"
)

// SearchTarget is one district search, alive only while that district is
// being processed.
type SearchTarget struct {
	Location       models.Location
	SearchDistrict string
	URL            string
}

func NewSearchTarget(site *config.SiteConfig, loc models.Location) SearchTarget {
	district := loc.District
	if alias, ok := site.DistrictOverrides[district]; ok {
		district = alias
	} else if alias, ok := site.DistrictOverrides[strings.ToUpper(district)]; ok {
		district = alias
	}

	path := Slug(district) + "--" + Slug(loc.City) + "--" + Slug(loc.Region)
	if site.ListingKind != "" {
		path = site.ListingKind + "-" + path
	}

	return SearchTarget{
		Location:       loc,
		SearchDistrict: district,
		URL:            strings.TrimRight(site.BaseURL, "/") + "/" + strings.Trim(site.SearchPath, "/") + "/" + path,
	}
}

// Slug lower-cases a name and turns spaces into hyphens.
func Slug(name string) string {
	return strings.ReplaceAll(strings.ToLower(strings.TrimSpace(name)), " ", "-")
}
