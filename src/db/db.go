// Package db is the persistent restaurant store, a Postgres table keyed by
// place_id. Every query degrades to an empty result for the caller; nothing
// here is fatal to a request.
package db

import (
	"context"
	"errors"
	"fmt"
	"math/rand"
	"sort"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"heyeat/src/geo"
	"heyeat/src/types"
)

const schema = `
CREATE TABLE IF NOT EXISTS restaurants (
	place_id           TEXT PRIMARY KEY,
	name               TEXT NOT NULL,
	address            TEXT NOT NULL DEFAULT '',
	rating             DOUBLE PRECISION NOT NULL DEFAULT 0,
	user_ratings_total INTEGER NOT NULL DEFAULT 0,
	lat                DOUBLE PRECISION NOT NULL,
	lng                DOUBLE PRECISION NOT NULL,
	photo_url          TEXT NOT NULL DEFAULT '',
	source             TEXT NOT NULL DEFAULT 'google',
	created_at         TIMESTAMPTZ NOT NULL DEFAULT now(),
	updated_at         TIMESTAMPTZ NOT NULL DEFAULT now()
)`

const restaurantColumns = "place_id, name, address, rating, user_ratings_total, lat, lng, photo_url, source"

type Store struct {
	pool *pgxpool.Pool
}

func New(ctx context.Context, databaseURL string) (*Store, error) {
	pool, err := pgxpool.New(ctx, databaseURL)
	if err != nil {
		return nil, fmt.Errorf("db: connecting: %w", err)
	}
	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("db: pinging: %w", err)
	}
	return &Store{pool: pool}, nil
}

// EnsureSchema creates the restaurants table when it does not exist yet.
func (s *Store) EnsureSchema(ctx context.Context) error {
	if _, err := s.pool.Exec(ctx, schema); err != nil {
		return fmt.Errorf("db: ensuring schema: %w", err)
	}
	return nil
}

func (s *Store) Close() {
	s.pool.Close()
}

// GetByID returns the restaurant with the exact place id, or nil when absent.
func (s *Store) GetByID(ctx context.Context, placeID string) (*types.Restaurant, error) {
	row := s.pool.QueryRow(ctx,
		"SELECT "+restaurantColumns+" FROM restaurants WHERE place_id = $1", placeID)
	r, err := scanRestaurant(row)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("db: get by id: %w", err)
	}
	return r, nil
}

// GetByName returns the first restaurant whose name contains the fragment,
// case-insensitively, or nil when nothing matches.
func (s *Store) GetByName(ctx context.Context, fragment string) (*types.Restaurant, error) {
	row := s.pool.QueryRow(ctx,
		"SELECT "+restaurantColumns+" FROM restaurants WHERE name ILIKE '%' || $1 || '%' LIMIT 1", fragment)
	r, err := scanRestaurant(row)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("db: get by name: %w", err)
	}
	return r, nil
}

// Upsert inserts or updates by place_id. The update path keeps created_at and
// bumps updated_at, so repeated saves of the same record stay one row.
func (s *Store) Upsert(ctx context.Context, r types.Restaurant) error {
	source := r.Source
	if source == "" {
		source = types.SourceGoogle
	}
	_, err := s.pool.Exec(ctx, `
		INSERT INTO restaurants (place_id, name, address, rating, user_ratings_total, lat, lng, photo_url, source)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
		ON CONFLICT (place_id) DO UPDATE SET
			name = EXCLUDED.name,
			address = EXCLUDED.address,
			rating = EXCLUDED.rating,
			user_ratings_total = EXCLUDED.user_ratings_total,
			lat = EXCLUDED.lat,
			lng = EXCLUDED.lng,
			photo_url = EXCLUDED.photo_url,
			source = EXCLUDED.source,
			updated_at = now()`,
		r.PlaceID, r.Name, r.Address, r.Rating, r.UserRatingsTotal, r.Lat, r.Lng, r.PhotoURL, string(source))
	if err != nil {
		return fmt.Errorf("db: upserting %s: %w", r.PlaceID, err)
	}
	return nil
}

// QueryNearby filters by an approximate bounding box in SQL, then refines
// with the great-circle distance: rows beyond the radius are dropped, the
// rest are sorted nearest-first and truncated to limit.
func (s *Store) QueryNearby(ctx context.Context, lat, lng, radiusMeters float64, limit int, excludeIDs []string) ([]types.Restaurant, error) {
	if limit <= 0 {
		return nil, nil
	}
	minLat, maxLat, minLng, maxLng := geo.BoundingBox(lat, lng, radiusMeters)

	rows, err := s.pool.Query(ctx, `
		SELECT `+restaurantColumns+`
		FROM restaurants
		WHERE lat BETWEEN $1 AND $2
		  AND lng BETWEEN $3 AND $4
		  AND NOT (place_id = ANY($5))
		ORDER BY created_at DESC
		LIMIT $6`,
		minLat, maxLat, minLng, maxLng, excludeList(excludeIDs), limit)
	if err != nil {
		return nil, fmt.Errorf("db: nearby query: %w", err)
	}
	defer rows.Close()

	var restaurants []types.Restaurant
	for rows.Next() {
		r, err := scanRestaurant(rows)
		if err != nil {
			return nil, fmt.Errorf("db: nearby scan: %w", err)
		}
		r.Distance = geo.Haversine(lat, lng, r.Lat, r.Lng)
		if r.Distance <= radiusMeters {
			restaurants = append(restaurants, *r)
		}
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("db: nearby rows: %w", err)
	}

	sort.Slice(restaurants, func(i, j int) bool {
		return restaurants[i].Distance < restaurants[j].Distance
	})
	if len(restaurants) > limit {
		restaurants = restaurants[:limit]
	}
	return restaurants, nil
}

// SampleRandom picks up to count random restaurants outside the exclusion
// list. When fewer than count are eligible, all of them are returned.
func (s *Store) SampleRandom(ctx context.Context, count int, excludeIDs []string) ([]types.Restaurant, error) {
	if count <= 0 {
		return nil, nil
	}

	rows, err := s.pool.Query(ctx,
		"SELECT place_id FROM restaurants WHERE NOT (place_id = ANY($1)) ORDER BY created_at DESC",
		excludeList(excludeIDs))
	if err != nil {
		return nil, fmt.Errorf("db: sampling ids: %w", err)
	}
	var ids []string
	for rows.Next() {
		var id string
		if err := rows.Scan(&id); err != nil {
			rows.Close()
			return nil, fmt.Errorf("db: sampling scan: %w", err)
		}
		ids = append(ids, id)
	}
	rows.Close()
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("db: sampling rows: %w", err)
	}
	if len(ids) == 0 {
		return nil, nil
	}

	if len(ids) > count {
		rand.Shuffle(len(ids), func(i, j int) { ids[i], ids[j] = ids[j], ids[i] })
		ids = ids[:count]
	}

	picked, err := s.pool.Query(ctx,
		"SELECT "+restaurantColumns+" FROM restaurants WHERE place_id = ANY($1)", ids)
	if err != nil {
		return nil, fmt.Errorf("db: fetching sample: %w", err)
	}
	defer picked.Close()

	var restaurants []types.Restaurant
	for picked.Next() {
		r, err := scanRestaurant(picked)
		if err != nil {
			return nil, fmt.Errorf("db: fetching sample scan: %w", err)
		}
		restaurants = append(restaurants, *r)
	}
	if err := picked.Err(); err != nil {
		return nil, fmt.Errorf("db: fetching sample rows: %w", err)
	}
	return restaurants, nil
}

func scanRestaurant(row pgx.Row) (*types.Restaurant, error) {
	var r types.Restaurant
	var source string
	if err := row.Scan(&r.PlaceID, &r.Name, &r.Address, &r.Rating, &r.UserRatingsTotal,
		&r.Lat, &r.Lng, &r.PhotoURL, &source); err != nil {
		return nil, err
	}
	r.Source = types.Source(source)
	return &r, nil
}

// excludeList keeps the SQL predicate valid when nothing is excluded.
func excludeList(ids []string) []string {
	if ids == nil {
		return []string{}
	}
	return ids
}
