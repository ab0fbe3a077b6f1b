package types

import "context"

// Source tags where a restaurant record (or a whole response) came from.
type Source string

const (
	SourceLocal    Source = "local"
	SourceGoogle   Source = "google"
	SourceSupabase Source = "supabase"
	SourceMixed    Source = "mixed"
	SourceMock     Source = "mock"
)

type OpeningHours struct {
	OpenNow     *bool    `json:"open_now,omitempty"`
	WeekdayText []string `json:"weekday_text,omitempty"`
}

// Restaurant is the canonical record every data source is normalized into.
// PlaceID is the deduplication and exclusion key.
type Restaurant struct {
	PlaceID          string        `json:"place_id"`
	Name             string        `json:"name"`
	Address          string        `json:"address,omitempty"`
	Vicinity         string        `json:"vicinity"`
	Rating           float64       `json:"rating,omitempty"`
	UserRatingsTotal int           `json:"user_ratings_total,omitempty"`
	Lat              float64       `json:"lat"`
	Lng              float64       `json:"lng"`
	PhotoURL         string        `json:"photo_url,omitempty"`
	PhotoReference   string        `json:"photo_reference,omitempty"`
	Source           Source        `json:"source,omitempty"`
	BusinessStatus   string        `json:"business_status,omitempty"`
	OpeningHours     *OpeningHours `json:"opening_hours,omitempty"`
	// Distance in meters from the query point, set only by proximity queries.
	Distance float64 `json:"distance,omitempty"`
}

// FillVicinity backs the display alias from the address. Records coming from
// the legacy provider schema may carry only a vicinity, which is kept as-is.
func (r *Restaurant) FillVicinity() {
	if r.Address != "" {
		r.Vicinity = r.Address
	} else if r.Vicinity != "" {
		r.Address = r.Vicinity
	}
}

// FillVicinities applies FillVicinity to a whole result list.
func FillVicinities(rs []Restaurant) {
	for i := range rs {
		rs[i].FillVicinity()
	}
}

// Store is the persistent restaurant table. All methods are safe to call with
// an empty exclusion list. Callers treat errors as "zero results from this
// source" and never fail a request on them.
type Store interface {
	GetByID(ctx context.Context, placeID string) (*Restaurant, error)
	GetByName(ctx context.Context, fragment string) (*Restaurant, error)
	Upsert(ctx context.Context, r Restaurant) error
	QueryNearby(ctx context.Context, lat, lng, radiusMeters float64, limit int, excludeIDs []string) ([]Restaurant, error)
	SampleRandom(ctx context.Context, count int, excludeIDs []string) ([]Restaurant, error)
}

// Places is the external place-search provider.
type Places interface {
	NearbySearch(ctx context.Context, lat, lng, radiusMeters float64, excludeIDs []string) ([]Restaurant, error)
	TextSearch(ctx context.Context, query string, lat, lng, radiusMeters float64) ([]Restaurant, error)
	FindPlaceIDByText(ctx context.Context, query string) (string, error)
	GetDetails(ctx context.Context, placeID string) (*Restaurant, error)
}
