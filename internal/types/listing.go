package types

import (
	"fmt"
	"math"
	"time"
)

// Listing represents one car advertisement tracked in the store.
// Link is the natural key: the same ad re-sighted on a later sweep
// updates the existing row instead of inserting a new one.
type Listing struct {
	ID    int64
	Link  string
	Brand string
	Model string
	Title string

	// Year, Mileage and CurrentPrice are nil when the listing card did
	// not expose them (missing node or garbled value).
	Year         *int
	Gearbox      string
	Mileage      *int
	CurrentPrice *int

	// OriginalPrice and FirstPublicationDate stay nil until the detail
	// backfill sweep has visited the listing page.
	OriginalPrice        *float64
	FirstPublicationDate *time.Time

	// UpdateDate is set on every write; rows sharing the most recent
	// UpdateDate form the current snapshot.
	UpdateDate time.Time

	// Derived values, recomputed by an explicit maintenance pass.
	DurationOnSite *int
	PriceVariation *float64
}

func (l *Listing) String() string {
	year, price, mileage := 0, 0, 0
	if l.Year != nil {
		year = *l.Year
	}
	if l.CurrentPrice != nil {
		price = *l.CurrentPrice
	}
	if l.Mileage != nil {
		mileage = *l.Mileage
	}
	return fmt.Sprintf("%s (%d) - %d€ - %d km - %s - %s", l.Title, year, price, mileage, l.Gearbox, l.Link)
}

// ComputePriceVariation returns the percentage change from original to
// current, rounded to 2 decimals. It returns nil when either price is
// missing or the original price is not a usable base (zero or negative).
func ComputePriceVariation(original *float64, current *int) *float64 {
	if original == nil || current == nil || *original <= 0 {
		return nil
	}
	v := math.Round((float64(*current)-*original)/(*original)*100*100) / 100
	return &v
}

// ComputeDurationOnSite returns the number of whole days between the
// first publication date and the last update, or nil when the
// publication date is unknown.
func ComputeDurationOnSite(update time.Time, firstPublication *time.Time) *int {
	if firstPublication == nil {
		return nil
	}
	days := int(update.Sub(*firstPublication).Hours() / 24)
	return &days
}
