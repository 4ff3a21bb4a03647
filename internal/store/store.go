package store

import (
	"database/sql"
	"log/slog"
	"time"

	_ "github.com/mattn/go-sqlite3"

	"autoveille/internal/types"
)

const schema = `
CREATE TABLE IF NOT EXISTS cars (
    id INTEGER PRIMARY KEY AUTOINCREMENT,
    link TEXT NOT NULL UNIQUE,
    brand TEXT NOT NULL DEFAULT '',
    model TEXT NOT NULL DEFAULT '',
    title TEXT,
    year INTEGER,
    gearbox TEXT,
    mileage INTEGER,
    current_price INTEGER,
    original_price REAL,
    first_publication_date TIMESTAMP,
    update_date TIMESTAMP NOT NULL DEFAULT CURRENT_TIMESTAMP,
    duration_on_site INTEGER,
    price_variation REAL
);
CREATE INDEX IF NOT EXISTS idx_cars_update_date ON cars(update_date);
`

// Store is the reconciliation store for car listings, backed by a
// single SQLite file. Deduplication is a property of the store: link
// carries a unique constraint, so a re-sighted listing can only ever
// update its existing row.
type Store struct {
	db     *sql.DB
	logger *slog.Logger
}

// Open opens (and if needed creates) the store at path.
func Open(path string, logger *slog.Logger) (*Store, error) {
	db, err := sql.Open("sqlite3", path)
	if err != nil {
		return nil, &types.StorageError{Op: "open", Err: err}
	}

	// A single writer; avoids SQLITE_BUSY between the sweep's
	// transactions.
	db.SetMaxOpenConns(1)

	if _, err := db.Exec(schema); err != nil {
		db.Close()
		return nil, &types.StorageError{Op: "migrate", Err: err}
	}

	return &Store{
		db:     db,
		logger: logger.With("component", "store"),
	}, nil
}

// Close closes the underlying database.
func (s *Store) Close() error {
	return s.db.Close()
}

// UpsertSighting records one sighting of a listing. A new link inserts
// a full row (without original price or publication date); a known link
// updates only current_price and update_date, leaving every other
// column untouched. Each call runs in its own transaction. It reports
// whether a new row was inserted.
func (s *Store) UpsertSighting(l *types.Listing) (bool, error) {
	tx, err := s.db.Begin()
	if err != nil {
		return false, &types.StorageError{Op: "upsert", Err: err}
	}
	defer tx.Rollback()

	var exists bool
	if err := tx.QueryRow(`SELECT EXISTS(SELECT 1 FROM cars WHERE link = ?)`, l.Link).Scan(&exists); err != nil {
		return false, &types.StorageError{Op: "upsert", Err: err}
	}

	if exists {
		_, err = tx.Exec(`
            UPDATE cars SET current_price = ?, update_date = ?
            WHERE link = ?`,
			nullInt(l.CurrentPrice), l.UpdateDate, l.Link)
	} else {
		_, err = tx.Exec(`
            INSERT INTO cars (link, brand, model, title, year, gearbox, mileage, current_price, update_date)
            VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)`,
			l.Link, l.Brand, l.Model, l.Title,
			nullInt(l.Year), l.Gearbox, nullInt(l.Mileage), nullInt(l.CurrentPrice), l.UpdateDate)
	}
	if err != nil {
		return false, &types.StorageError{Op: "upsert", Err: err}
	}

	if err := tx.Commit(); err != nil {
		return false, &types.StorageError{Op: "upsert", Err: err}
	}
	return !exists, nil
}

// MissingOriginalPrice returns the listings whose original price has
// not been backfilled yet (null or zero).
func (s *Store) MissingOriginalPrice() ([]types.Listing, error) {
	rows, err := s.db.Query(selectColumns + `
        WHERE original_price IS NULL OR original_price <= 0
        ORDER BY id`)
	if err != nil {
		return nil, &types.StorageError{Op: "missing_original_price", Err: err}
	}
	defer rows.Close()
	return scanListings(rows)
}

// SetOriginalPrice persists backfilled detail-page values for a
// listing. The original price is written at most once: rows that
// already carry a usable original price are left alone. A nil
// firstPublication keeps whatever the row already has.
func (s *Store) SetOriginalPrice(link string, price float64, firstPublication *time.Time, now time.Time) error {
	tx, err := s.db.Begin()
	if err != nil {
		return &types.StorageError{Op: "set_original_price", Err: err}
	}
	defer tx.Rollback()

	_, err = tx.Exec(`
        UPDATE cars
        SET original_price = ?,
            first_publication_date = COALESCE(?, first_publication_date),
            update_date = ?
        WHERE link = ? AND (original_price IS NULL OR original_price <= 0)`,
		price, nullTime(firstPublication), now, link)
	if err != nil {
		return &types.StorageError{Op: "set_original_price", Err: err}
	}

	if err := tx.Commit(); err != nil {
		return &types.StorageError{Op: "set_original_price", Err: err}
	}
	return nil
}

// RecomputeDerivedFields recomputes duration_on_site and
// price_variation for every row whose first publication date is known.
// It returns the number of rows touched.
func (s *Store) RecomputeDerivedFields() (int, error) {
	listings, err := s.queryListings(selectColumns + ` WHERE first_publication_date IS NOT NULL`)
	if err != nil {
		return 0, err
	}

	tx, err := s.db.Begin()
	if err != nil {
		return 0, &types.StorageError{Op: "recompute", Err: err}
	}
	defer tx.Rollback()

	for i := range listings {
		l := &listings[i]
		duration := types.ComputeDurationOnSite(l.UpdateDate, l.FirstPublicationDate)
		variation := types.ComputePriceVariation(l.OriginalPrice, l.CurrentPrice)
		if _, err := tx.Exec(`
            UPDATE cars SET duration_on_site = ?, price_variation = ?
            WHERE id = ?`,
			nullInt(duration), nullFloat(variation), l.ID); err != nil {
			return 0, &types.StorageError{Op: "recompute", Err: err}
		}
	}

	if err := tx.Commit(); err != nil {
		return 0, &types.StorageError{Op: "recompute", Err: err}
	}
	return len(listings), nil
}

// Snapshot returns the rows belonging to the latest full run: those
// sharing the maximum update_date in the store.
func (s *Store) Snapshot() ([]types.Listing, error) {
	return s.queryListings(selectColumns + `
        WHERE update_date = (SELECT MAX(update_date) FROM cars)`)
}

// All returns every stored listing, ordered by id.
func (s *Store) All() ([]types.Listing, error) {
	return s.queryListings(selectColumns + ` ORDER BY id`)
}

// Get returns the listing with the given link, or nil when unknown.
func (s *Store) Get(link string) (*types.Listing, error) {
	listings, err := s.queryListings(selectColumns+` WHERE link = ?`, link)
	if err != nil {
		return nil, err
	}
	if len(listings) == 0 {
		return nil, nil
	}
	return &listings[0], nil
}

const selectColumns = `
    SELECT id, link, brand, model, title, year, gearbox, mileage,
           current_price, original_price, first_publication_date,
           update_date, duration_on_site, price_variation
    FROM cars`

func (s *Store) queryListings(query string, args ...any) ([]types.Listing, error) {
	rows, err := s.db.Query(query, args...)
	if err != nil {
		return nil, &types.StorageError{Op: "query", Err: err}
	}
	defer rows.Close()
	return scanListings(rows)
}

func scanListings(rows *sql.Rows) ([]types.Listing, error) {
	var listings []types.Listing
	for rows.Next() {
		var (
			l                    types.Listing
			title, gearbox       sql.NullString
			year, mileage, price sql.NullInt64
			originalPrice        sql.NullFloat64
			firstPublication     sql.NullTime
			durationOnSite       sql.NullInt64
			priceVariation       sql.NullFloat64
		)
		if err := rows.Scan(
			&l.ID, &l.Link, &l.Brand, &l.Model, &title, &year, &gearbox, &mileage,
			&price, &originalPrice, &firstPublication,
			&l.UpdateDate, &durationOnSite, &priceVariation,
		); err != nil {
			return nil, &types.StorageError{Op: "scan", Err: err}
		}

		if title.Valid {
			l.Title = title.String
		}
		if gearbox.Valid {
			l.Gearbox = gearbox.String
		}
		if year.Valid {
			y := int(year.Int64)
			l.Year = &y
		}
		if mileage.Valid {
			m := int(mileage.Int64)
			l.Mileage = &m
		}
		if price.Valid {
			p := int(price.Int64)
			l.CurrentPrice = &p
		}
		if originalPrice.Valid {
			l.OriginalPrice = &originalPrice.Float64
		}
		if firstPublication.Valid {
			t := firstPublication.Time
			l.FirstPublicationDate = &t
		}
		if durationOnSite.Valid {
			d := int(durationOnSite.Int64)
			l.DurationOnSite = &d
		}
		if priceVariation.Valid {
			l.PriceVariation = &priceVariation.Float64
		}
		listings = append(listings, l)
	}
	if err := rows.Err(); err != nil {
		return nil, &types.StorageError{Op: "scan", Err: err}
	}
	return listings, nil
}

func nullInt(v *int) any {
	if v == nil {
		return nil
	}
	return *v
}

func nullFloat(v *float64) any {
	if v == nil {
		return nil
	}
	return *v
}

func nullTime(v *time.Time) any {
	if v == nil {
		return nil
	}
	return *v
}

// Count returns the number of stored listings.
func (s *Store) Count() (int, error) {
	var n int
	if err := s.db.QueryRow(`SELECT COUNT(*) FROM cars`).Scan(&n); err != nil {
		return 0, &types.StorageError{Op: "count", Err: err}
	}
	return n, nil
}
