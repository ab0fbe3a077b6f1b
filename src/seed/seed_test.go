package seed

import (
	"context"
	"errors"
	"strings"
	"testing"

	"heyeat/src/blend"
	"heyeat/src/mockdata"
	"heyeat/src/types"
)

type recordingStore struct {
	upserted []types.Restaurant
	failAt   int // 1-based call number that fails; 0 never fails
}

var errStore = errors.New("store down")

func (s *recordingStore) Upsert(ctx context.Context, r types.Restaurant) error {
	if s.failAt > 0 && len(s.upserted)+1 == s.failAt {
		return errStore
	}
	s.upserted = append(s.upserted, r)
	return nil
}

func (s *recordingStore) GetByID(ctx context.Context, placeID string) (*types.Restaurant, error) {
	return nil, nil
}

func (s *recordingStore) GetByName(ctx context.Context, fragment string) (*types.Restaurant, error) {
	return nil, nil
}

func (s *recordingStore) QueryNearby(ctx context.Context, lat, lng, radiusMeters float64, limit int, excludeIDs []string) ([]types.Restaurant, error) {
	return nil, nil
}

func (s *recordingStore) SampleRandom(ctx context.Context, count int, excludeIDs []string) ([]types.Restaurant, error) {
	return nil, nil
}

func TestRun(t *testing.T) {
	store := &recordingStore{}

	seeded, err := Run(context.Background(), store, 5)
	if err != nil {
		t.Fatalf("Run() error: %v", err)
	}
	want := len(mockdata.Restaurants) + 5
	if seeded != want {
		t.Errorf("seeded %d rows, want %d", seeded, want)
	}
	if len(store.upserted) != want {
		t.Errorf("store received %d rows, want %d", len(store.upserted), want)
	}
}

func TestRunStopsOnStoreError(t *testing.T) {
	store := &recordingStore{failAt: 3}

	seeded, err := Run(context.Background(), store, 0)
	if !errors.Is(err, errStore) {
		t.Fatalf("Run() error = %v, want the store error", err)
	}
	if seeded != 2 {
		t.Errorf("seeded %d rows before the failure, want 2", seeded)
	}
}

func TestGenerate(t *testing.T) {
	got := Generate(20)
	if len(got) != 20 {
		t.Fatalf("Generate(20) returned %d records", len(got))
	}

	seen := make(map[string]bool)
	latRange := blend.BaseRadiusMeters / 111000.0
	for _, r := range got {
		if !strings.HasPrefix(r.PlaceID, "seed-") {
			t.Errorf("place id %q missing the seed prefix", r.PlaceID)
		}
		if seen[r.PlaceID] {
			t.Errorf("duplicate place id %q", r.PlaceID)
		}
		seen[r.PlaceID] = true
		if r.Name == "" || r.Address == "" {
			t.Errorf("incomplete record: %+v", r)
		}
		if r.Rating < 1 || r.Rating > 5 {
			t.Errorf("rating %f out of range", r.Rating)
		}
		if r.Lat < blend.DefaultLat-latRange || r.Lat > blend.DefaultLat+latRange {
			t.Errorf("latitude %f outside the seeding box", r.Lat)
		}
		if r.Source != types.SourceLocal {
			t.Errorf("source = %q, want %q", r.Source, types.SourceLocal)
		}
	}

	if Generate(0) != nil {
		t.Error("Generate(0) should return nil")
	}
}
