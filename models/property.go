package models

import (
	"strconv"
	"time"
)

const TimestampLayout = "2006-01-02 15:04:05"

// Age sentinels for the antiquity feature.
const (
	AgeNewlyBuilt        = -1
	AgeUnderConstruction = -2
)

// ListingDetails holds what a listing page yields on its own, before the
// batch stamps identity and location onto it.
type ListingDetails struct {
	PropertyType      string
	PriceType         string
	PricePrimary      int
	PriceSecondary    *int
	AdditionalExpense *int
	Address           *string
	Features          Features
}

// Features are the icon-tagged numeric attributes. Zero means the listing
// does not show the feature.
type Features struct {
	TotalSize     int
	CoveredSize   int
	Bedrooms      int
	Bathrooms     int
	HalfBathrooms int
	ParkingSpaces int
	Age           int
}

// PropertyColumns is the output column order. It must stay in step with
// PropertyRecord.Row.
var PropertyColumns = []string{
	"batch_id",
	"batch_start_time",
	"property_id",
	"property_extraction_start_time",
	"property_type",
	"price_type",
	"price_primary",
	"price_secondary",
	"additional_expense",
	"address",
	"region",
	"city",
	"district",
	"total_size",
	"covered_size",
	"bedrooms",
	"bathrooms",
	"half_bathrooms",
	"parking_spaces",
	"age",
	"link",
}

type PropertyRecord struct {
	BatchID                     string    `json:"batch_id" db:"batch_id"`
	BatchStartTime              time.Time `json:"batch_start_time" db:"batch_start_time"`
	PropertyID                  string    `json:"property_id" db:"property_id"`
	PropertyExtractionStartTime time.Time `json:"property_extraction_start_time" db:"property_extraction_start_time"`
	PropertyType                string    `json:"property_type" db:"property_type"`
	PriceType                   string    `json:"price_type" db:"price_type"`
	PricePrimary                int       `json:"price_primary" db:"price_primary"`
	PriceSecondary              *int      `json:"price_secondary" db:"price_secondary"`
	AdditionalExpense           *int      `json:"additional_expense" db:"additional_expense"`
	Address                     *string   `json:"address" db:"address"`
	Region                      string    `json:"region" db:"region"`
	City                        string    `json:"city" db:"city"`
	District                    string    `json:"district" db:"district"`
	TotalSize                   int       `json:"total_size" db:"total_size"`
	CoveredSize                 int       `json:"covered_size" db:"covered_size"`
	Bedrooms                    int       `json:"bedrooms" db:"bedrooms"`
	Bathrooms                   int       `json:"bathrooms" db:"bathrooms"`
	HalfBathrooms               int       `json:"half_bathrooms" db:"half_bathrooms"`
	ParkingSpaces               int       `json:"parking_spaces" db:"parking_spaces"`
	Age                         int       `json:"age" db:"age"`
	Link                        string    `json:"link" db:"link"`
}

// Row renders the record in PropertyColumns order. Nil optionals become
// empty cells, which COPY ... CSV reads as NULL.
func (r PropertyRecord) Row() []string {
	return []string{
		r.BatchID,
		r.BatchStartTime.Format(TimestampLayout),
		r.PropertyID,
		r.PropertyExtractionStartTime.Format(TimestampLayout),
		r.PropertyType,
		r.PriceType,
		strconv.Itoa(r.PricePrimary),
		optionalInt(r.PriceSecondary),
		optionalInt(r.AdditionalExpense),
		optionalString(r.Address),
		r.Region,
		r.City,
		r.District,
		strconv.Itoa(r.TotalSize),
		strconv.Itoa(r.CoveredSize),
		strconv.Itoa(r.Bedrooms),
		strconv.Itoa(r.Bathrooms),
		strconv.Itoa(r.HalfBathrooms),
		strconv.Itoa(r.ParkingSpaces),
		strconv.Itoa(r.Age),
		r.Link,
	}
}

func optionalInt(v *int) string {
	if v == nil {
		return ""
	}
	return strconv.Itoa(*v)
}

func optionalString(v *string) string {
	if v == nil {
		return ""
	}
	return *v
}
