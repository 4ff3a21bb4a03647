package stats

import (
	"fmt"
	"log/slog"
	"math"
	"sort"
	"time"

	"autoveille/internal/store"
	"autoveille/internal/types"
)

// GroupKey identifies one statistics group. Keying on all four parts
// avoids collisions between, say, two gearbox variants of the same
// model year.
type GroupKey struct {
	Brand   string
	Model   string
	Year    int
	Gearbox string
}

// Averages holds the rounded means of one group.
type Averages struct {
	Price   int
	Mileage int
}

// Compute groups the given listings by (brand, model, year, gearbox)
// and computes the rounded mean price and mileage per group. Only rows
// belonging to the latest snapshot (the maximum update date present)
// are considered; rows missing a value are left out of that average.
func Compute(listings []types.Listing) map[GroupKey]Averages {
	var latest time.Time
	for i := range listings {
		if listings[i].UpdateDate.After(latest) {
			latest = listings[i].UpdateDate
		}
	}

	type sums struct {
		price, priceN     int
		mileage, mileageN int
	}
	groups := make(map[GroupKey]*sums)

	for i := range listings {
		l := &listings[i]
		if !l.UpdateDate.Equal(latest) {
			continue
		}

		key := GroupKey{Brand: l.Brand, Model: l.Model, Gearbox: l.Gearbox}
		if l.Year != nil {
			key.Year = *l.Year
		}

		g, ok := groups[key]
		if !ok {
			g = &sums{}
			groups[key] = g
		}
		if l.CurrentPrice != nil {
			g.price += *l.CurrentPrice
			g.priceN++
		}
		if l.Mileage != nil {
			g.mileage += *l.Mileage
			g.mileageN++
		}
	}

	out := make(map[GroupKey]Averages, len(groups))
	for key, g := range groups {
		var avg Averages
		if g.priceN > 0 {
			avg.Price = int(math.Round(float64(g.price) / float64(g.priceN)))
		}
		if g.mileageN > 0 {
			avg.Mileage = int(math.Round(float64(g.mileage) / float64(g.mileageN)))
		}
		out[key] = avg
	}
	return out
}

// ComputeSnapshot computes statistics over the store's current
// snapshot.
func ComputeSnapshot(st *store.Store, logger *slog.Logger) (map[GroupKey]Averages, error) {
	listings, err := st.Snapshot()
	if err != nil {
		return nil, fmt.Errorf("load snapshot: %w", err)
	}
	statistics := Compute(listings)
	logger.Info("snapshot statistics computed", "rows", len(listings), "groups", len(statistics))
	return statistics, nil
}

// sortedKeys returns the group keys in a stable export order.
func sortedKeys(statistics map[GroupKey]Averages) []GroupKey {
	keys := make([]GroupKey, 0, len(statistics))
	for key := range statistics {
		keys = append(keys, key)
	}
	sort.Slice(keys, func(i, j int) bool {
		a, b := keys[i], keys[j]
		if a.Brand != b.Brand {
			return a.Brand < b.Brand
		}
		if a.Model != b.Model {
			return a.Model < b.Model
		}
		if a.Year != b.Year {
			return a.Year < b.Year
		}
		return a.Gearbox < b.Gearbox
	})
	return keys
}
