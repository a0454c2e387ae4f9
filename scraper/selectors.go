package scraper

// Search result page
const (
	currentPageSelector = "a.paging-module__page-item.paging-module__page-item-current"
	noResultsSelector   = "div.postingsNoResults-module__container"
	listingLinkSelector = "h3.postingCard-module__posting-description > a"
)

// Listing detail page
const (
	articleSelector         = "div#article-container"
	priceLabelSelector      = "div.price-item-container:last-child > div.price-value > span"
	priceAmountsSelector    = "div.price-item-container:last-child > div.price-value > span:first-child > span"
	expenseSelector         = "div.price-item-container:last-child > div.price-extra > span"
	addressSelector         = "div.section-location-property.section-location-property-classified > h4"
	addressFallbackSelector = "div.section-location.no-location > b"
	featureItemSelector     = "ul#section-icon-features-property > li"
)

// Text markers
const (
	buildingCategoryToken = "edificio"
	propertyTypeSeparator = "·"
	expenseLabel          = "Mantenimiento"
)

var (
	newlyBuiltMarkers        = []string{"estrenar", "newly built"}
	underConstructionMarkers = []string{"construcci", "under construction"}
)
