package batch

import (
	"time"

	"urbania_scraper/identity"
	"urbania_scraper/models"
)

// Assembler collects the records of one run. Every record it builds carries
// the same batch id and batch start time.
type Assembler struct {
	id        string
	startedAt time.Time
	now       func() time.Time
	records   []models.PropertyRecord
}

// New starts a batch. now defaults to time.Now.
func New(now func() time.Time) *Assembler {
	if now == nil {
		now = time.Now
	}
	return &Assembler{
		id:        identity.NewBatchID(),
		startedAt: now(),
		now:       now,
	}
}

func (a *Assembler) BatchID() string {
	return a.id
}

func (a *Assembler) StartedAt() time.Time {
	return a.startedAt
}

// Now stamps the start of a single listing's extraction.
func (a *Assembler) Now() time.Time {
	return a.now()
}

// Append completes details with batch identity, location and the property
// id derived from link, then stores the record.
func (a *Assembler) Append(details *models.ListingDetails, loc models.Location, link string, startedAt time.Time) models.PropertyRecord {
	f := details.Features
	rec := models.PropertyRecord{
		BatchID:                     a.id,
		BatchStartTime:              a.startedAt,
		PropertyID:                  identity.PropertyID(link),
		PropertyExtractionStartTime: startedAt,
		PropertyType:                details.PropertyType,
		PriceType:                   details.PriceType,
		PricePrimary:                details.PricePrimary,
		PriceSecondary:              details.PriceSecondary,
		AdditionalExpense:           details.AdditionalExpense,
		Address:                     details.Address,
		Region:                      loc.Region,
		City:                        loc.City,
		District:                    loc.District,
		TotalSize:                   f.TotalSize,
		CoveredSize:                 f.CoveredSize,
		Bedrooms:                    f.Bedrooms,
		Bathrooms:                   f.Bathrooms,
		HalfBathrooms:               f.HalfBathrooms,
		ParkingSpaces:               f.ParkingSpaces,
		Age:                         f.Age,
		Link:                        link,
	}
	a.records = append(a.records, rec)
	return rec
}

func (a *Assembler) Records() []models.PropertyRecord {
	out := make([]models.PropertyRecord, len(a.records))
	copy(out, a.records)
	return out
}

func (a *Assembler) Len() int {
	return len(a.records)
}
