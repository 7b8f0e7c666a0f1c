// Package store owns the relational master record for listings.
package store

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	_ "github.com/jackc/pgx/v5/stdlib"
)

const (
	StatusActive             = "active"
	StatusPotentialDuplicate = "potential_duplicate"
	StatusMerged             = "merged"
	StatusInactive           = "inactive"
)

// Listing is the master record keyed by source_url. Optional columns are
// nil pointers so absent and zero stay distinct end to end.
type Listing struct {
	ID          int64
	SourceURL   string
	SourceName  string
	Title       string
	Description string
	Images      []string

	PriceAmount *float64 // price_original_numeric
	PriceText   string   // price_original_text
	Currency    *string  // currency_original
	PriceUSD    *float64 // normalized_price_usd

	AddressRaw      string
	LocationText    string
	Latitude        *float64
	Longitude       *float64
	GeocodedPayload json.RawMessage

	Bedrooms  *int
	Bathrooms *float64
	AreaValue *float64 // area_original_value
	AreaUnit  *string  // area_unit_original
	AreaSqft  *float64 // normalized_area_sqft

	PropertyType *string
	Amenities    []string

	DatePosted      *time.Time
	ScrapeTimestamp time.Time

	Status        string
	DuplicateOfID *int64

	CreatedAt time.Time
	UpdatedAt time.Time
}

type Store struct{ DB *sql.DB }

func Open(dsn string) (*Store, error) {
	db, err := sql.Open("pgx", dsn)
	if err != nil {
		return nil, err
	}
	db.SetMaxOpenConns(10)
	db.SetMaxIdleConns(5)
	db.SetConnMaxLifetime(30 * time.Minute)
	return &Store{DB: db}, nil
}

func (s *Store) Ping(ctx context.Context) error { return s.DB.PingContext(ctx) }

func (s *Store) Migrate(ctx context.Context) error {
	stmts := []string{
		`CREATE EXTENSION IF NOT EXISTS pg_trgm;`,
		`CREATE TABLE IF NOT EXISTS properties (
            id BIGSERIAL PRIMARY KEY,
            source_url              TEXT NOT NULL,
            source_name             TEXT NOT NULL DEFAULT '',
            title                   TEXT NOT NULL DEFAULT '',
            description             TEXT NOT NULL DEFAULT '',
            images                  JSONB,
            price_original_numeric  NUMERIC,
            price_original_text     TEXT NOT NULL DEFAULT '',
            currency_original       TEXT,
            normalized_price_usd    NUMERIC,
            address_raw             TEXT NOT NULL DEFAULT '',
            location_text           TEXT NOT NULL DEFAULT '',
            latitude                DOUBLE PRECISION,
            longitude               DOUBLE PRECISION,
            geocoded_payload        JSONB,
            bedrooms                INTEGER,
            bathrooms               NUMERIC,
            area_original_value     NUMERIC,
            area_unit_original      TEXT,
            normalized_area_sqft    NUMERIC,
            property_type           TEXT,
            amenities               JSONB,
            date_posted             TIMESTAMPTZ,
            scrape_timestamp        TIMESTAMPTZ NOT NULL DEFAULT now(),
            status                  TEXT NOT NULL DEFAULT 'active',
            duplicate_of_id         BIGINT REFERENCES properties(id),
            created_at              TIMESTAMPTZ NOT NULL DEFAULT now(),
            updated_at              TIMESTAMPTZ NOT NULL DEFAULT now()
        );`,
		`CREATE UNIQUE INDEX IF NOT EXISTS ux_properties_source_url ON properties(source_url);`,
		`CREATE INDEX IF NOT EXISTS idx_properties_date_posted ON properties(date_posted);`,
		`CREATE INDEX IF NOT EXISTS idx_properties_price_usd ON properties(normalized_price_usd);`,
		`CREATE INDEX IF NOT EXISTS idx_properties_bedrooms ON properties(bedrooms);`,
		`CREATE INDEX IF NOT EXISTS idx_properties_bathrooms ON properties(bathrooms);`,
		`CREATE INDEX IF NOT EXISTS idx_properties_area_sqft ON properties(normalized_area_sqft);`,
		`CREATE INDEX IF NOT EXISTS idx_properties_geo ON properties(latitude, longitude);`,
		`CREATE INDEX IF NOT EXISTS idx_properties_status ON properties(status);`,
		`CREATE INDEX IF NOT EXISTS idx_properties_title_trgm ON properties USING GIN (title gin_trgm_ops);`,
		`CREATE OR REPLACE FUNCTION properties_set_updated_at() RETURNS TRIGGER AS $$
         BEGIN
             NEW.updated_at = now();
             RETURN NEW;
         END;
         $$ LANGUAGE plpgsql;`,
		`DROP TRIGGER IF EXISTS trg_properties_updated_at ON properties;`,
		`CREATE TRIGGER trg_properties_updated_at
             BEFORE UPDATE ON properties
             FOR EACH ROW EXECUTE FUNCTION properties_set_updated_at();`,
	}
	for _, q := range stmts {
		if _, err := s.DB.ExecContext(ctx, q); err != nil {
			return err
		}
	}
	return nil
}

// Upsert inserts or updates the row for l.SourceURL and fills l.ID,
// l.CreatedAt, and l.UpdatedAt from the database. The source_url unique
// index is the idempotency anchor for the whole pipeline.
func (s *Store) Upsert(ctx context.Context, l *Listing) error {
	if s.DB == nil {
		return errors.New("nil db")
	}
	images, err := jsonArray(l.Images)
	if err != nil {
		return fmt.Errorf("encode images: %w", err)
	}
	amenities, err := jsonArray(l.Amenities)
	if err != nil {
		return fmt.Errorf("encode amenities: %w", err)
	}
	var payload any
	if len(l.GeocodedPayload) > 0 {
		payload = []byte(l.GeocodedPayload)
	}

	err = s.DB.QueryRowContext(ctx, `
        INSERT INTO properties (
            source_url, source_name, title, description, images,
            price_original_numeric, price_original_text, currency_original, normalized_price_usd,
            address_raw, location_text, latitude, longitude, geocoded_payload,
            bedrooms, bathrooms, area_original_value, area_unit_original, normalized_area_sqft,
            property_type, amenities, date_posted, scrape_timestamp, status, duplicate_of_id
        ) VALUES (
            $1,$2,$3,$4,$5,$6,$7,$8,$9,$10,$11,$12,$13,$14,$15,$16,$17,$18,$19,$20,$21,$22,$23,$24,$25
        )
        ON CONFLICT (source_url) DO UPDATE SET
            source_name            = EXCLUDED.source_name,
            title                  = EXCLUDED.title,
            description            = EXCLUDED.description,
            images                 = EXCLUDED.images,
            price_original_numeric = EXCLUDED.price_original_numeric,
            price_original_text    = EXCLUDED.price_original_text,
            currency_original      = EXCLUDED.currency_original,
            normalized_price_usd   = EXCLUDED.normalized_price_usd,
            address_raw            = EXCLUDED.address_raw,
            location_text          = EXCLUDED.location_text,
            latitude               = EXCLUDED.latitude,
            longitude              = EXCLUDED.longitude,
            geocoded_payload       = EXCLUDED.geocoded_payload,
            bedrooms               = EXCLUDED.bedrooms,
            bathrooms              = EXCLUDED.bathrooms,
            area_original_value    = EXCLUDED.area_original_value,
            area_unit_original     = EXCLUDED.area_unit_original,
            normalized_area_sqft   = EXCLUDED.normalized_area_sqft,
            property_type          = EXCLUDED.property_type,
            amenities              = EXCLUDED.amenities,
            date_posted            = EXCLUDED.date_posted,
            scrape_timestamp       = EXCLUDED.scrape_timestamp,
            status                 = EXCLUDED.status,
            duplicate_of_id        = EXCLUDED.duplicate_of_id,
            updated_at             = now()
        RETURNING id, created_at, updated_at`,
		l.SourceURL, l.SourceName, l.Title, l.Description, images,
		l.PriceAmount, l.PriceText, l.Currency, l.PriceUSD,
		l.AddressRaw, l.LocationText, l.Latitude, l.Longitude, payload,
		l.Bedrooms, l.Bathrooms, l.AreaValue, l.AreaUnit, l.AreaSqft,
		l.PropertyType, amenities, l.DatePosted, l.ScrapeTimestamp, l.Status, l.DuplicateOfID,
	).Scan(&l.ID, &l.CreatedAt, &l.UpdatedAt)
	if err != nil {
		return fmt.Errorf("upsert %s: %w", l.SourceURL, err)
	}
	return nil
}

type DuplicateQuery struct {
	Title      string
	SourceName string
	Latitude   float64
	Longitude  float64

	LatThreshold        float64
	LonThreshold        float64
	SimilarityThreshold float64
}

type DuplicateCandidate struct {
	ID              int64
	Title           string
	SourceName      string
	Similarity      float64
	ScrapeTimestamp time.Time
}

// FindDuplicateCandidates runs the coarse lat/lon band plus trigram title
// similarity filter over active listings from other sources. Best match
// first.
func (s *Store) FindDuplicateCandidates(ctx context.Context, q DuplicateQuery) ([]DuplicateCandidate, error) {
	if s.DB == nil {
		return nil, errors.New("nil db")
	}
	rows, err := s.DB.QueryContext(ctx, `
        SELECT id, title, source_name, similarity(title, $1) AS sim, scrape_timestamp
        FROM properties
        WHERE status = $2
          AND source_name <> $3
          AND latitude IS NOT NULL AND longitude IS NOT NULL
          AND abs(latitude - $4) <= $5
          AND abs(longitude - $6) <= $7
          AND similarity(title, $1) >= $8
        ORDER BY sim DESC, scrape_timestamp DESC`,
		q.Title, StatusActive, q.SourceName,
		q.Latitude, q.LatThreshold,
		q.Longitude, q.LonThreshold,
		q.SimilarityThreshold,
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []DuplicateCandidate
	for rows.Next() {
		var c DuplicateCandidate
		if err := rows.Scan(&c.ID, &c.Title, &c.SourceName, &c.Similarity, &c.ScrapeTimestamp); err != nil {
			return nil, err
		}
		out = append(out, c)
	}
	return out, rows.Err()
}

// ScanPage returns up to limit listings with id > afterID in id order.
// The reindexer walks the whole table with it.
func (s *Store) ScanPage(ctx context.Context, afterID int64, limit int) ([]Listing, error) {
	if s.DB == nil {
		return nil, errors.New("nil db")
	}
	if limit <= 0 {
		limit = 500
	}
	rows, err := s.DB.QueryContext(ctx, `
        SELECT id, source_url, source_name, title, description, images,
               price_original_numeric, price_original_text, currency_original, normalized_price_usd,
               address_raw, location_text, latitude, longitude, geocoded_payload,
               bedrooms, bathrooms, area_original_value, area_unit_original, normalized_area_sqft,
               property_type, amenities, date_posted, scrape_timestamp, status, duplicate_of_id,
               created_at, updated_at
        FROM properties
        WHERE id > $1
        ORDER BY id
        LIMIT $2`, afterID, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []Listing
	for rows.Next() {
		var l Listing
		var images, amenities, payload []byte
		var datePosted sql.NullTime
		if err := rows.Scan(
			&l.ID, &l.SourceURL, &l.SourceName, &l.Title, &l.Description, &images,
			&l.PriceAmount, &l.PriceText, &l.Currency, &l.PriceUSD,
			&l.AddressRaw, &l.LocationText, &l.Latitude, &l.Longitude, &payload,
			&l.Bedrooms, &l.Bathrooms, &l.AreaValue, &l.AreaUnit, &l.AreaSqft,
			&l.PropertyType, &amenities, &datePosted, &l.ScrapeTimestamp, &l.Status, &l.DuplicateOfID,
			&l.CreatedAt, &l.UpdatedAt,
		); err != nil {
			return nil, err
		}
		if len(images) > 0 {
			if err := json.Unmarshal(images, &l.Images); err != nil {
				return nil, fmt.Errorf("decode images for %s: %w", l.SourceURL, err)
			}
		}
		if len(amenities) > 0 {
			if err := json.Unmarshal(amenities, &l.Amenities); err != nil {
				return nil, fmt.Errorf("decode amenities for %s: %w", l.SourceURL, err)
			}
		}
		if len(payload) > 0 {
			l.GeocodedPayload = json.RawMessage(payload)
		}
		if datePosted.Valid {
			t := datePosted.Time
			l.DatePosted = &t
		}
		out = append(out, l)
	}
	return out, rows.Err()
}

func jsonArray(v []string) ([]byte, error) {
	if v == nil {
		v = []string{}
	}
	return json.Marshal(v)
}
