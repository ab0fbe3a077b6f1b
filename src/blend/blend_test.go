package blend

import (
	"context"
	"strings"
	"sync"
	"testing"

	"heyeat/src/types"
)

type fakeStore struct {
	rows        []types.Restaurant
	minRadius   float64 // rows are only visible at or above this radius
	sampled     []types.Restaurant
	byName      map[string]*types.Restaurant
	byID        map[string]*types.Restaurant
	panicNearby bool
	failUpsert  bool

	mu       sync.Mutex
	upserted []types.Restaurant
}

func (f *fakeStore) GetByID(ctx context.Context, placeID string) (*types.Restaurant, error) {
	return f.byID[placeID], nil
}

func (f *fakeStore) GetByName(ctx context.Context, fragment string) (*types.Restaurant, error) {
	return f.byName[fragment], nil
}

func (f *fakeStore) Upsert(ctx context.Context, r types.Restaurant) error {
	if f.failUpsert {
		return context.DeadlineExceeded
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	f.upserted = append(f.upserted, r)
	return nil
}

func (f *fakeStore) QueryNearby(ctx context.Context, lat, lng, radiusMeters float64, limit int, excludeIDs []string) ([]types.Restaurant, error) {
	if f.panicNearby {
		panic("store exploded")
	}
	if radiusMeters < f.minRadius {
		return nil, nil
	}
	return pick(f.rows, limit, excludeIDs), nil
}

func (f *fakeStore) SampleRandom(ctx context.Context, count int, excludeIDs []string) ([]types.Restaurant, error) {
	return pick(f.sampled, count, excludeIDs), nil
}

func (f *fakeStore) saved() []types.Restaurant {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]types.Restaurant(nil), f.upserted...)
}

type fakePlaces struct {
	nearby      []types.Restaurant
	text        []types.Restaurant
	findID      string
	details     map[string]*types.Restaurant
	nearbyCalls int
	textCalls   int
	detailCalls []string
}

func (f *fakePlaces) NearbySearch(ctx context.Context, lat, lng, radiusMeters float64, excludeIDs []string) ([]types.Restaurant, error) {
	f.nearbyCalls++
	return pick(f.nearby, len(f.nearby), excludeIDs), nil
}

func (f *fakePlaces) TextSearch(ctx context.Context, query string, lat, lng, radiusMeters float64) ([]types.Restaurant, error) {
	f.textCalls++
	return append([]types.Restaurant(nil), f.text...), nil
}

func (f *fakePlaces) FindPlaceIDByText(ctx context.Context, query string) (string, error) {
	return f.findID, nil
}

func (f *fakePlaces) GetDetails(ctx context.Context, placeID string) (*types.Restaurant, error) {
	f.detailCalls = append(f.detailCalls, placeID)
	return f.details[placeID], nil
}

func pick(rs []types.Restaurant, limit int, excludeIDs []string) []types.Restaurant {
	excluded := make(map[string]bool, len(excludeIDs))
	for _, id := range excludeIDs {
		excluded[id] = true
	}
	var out []types.Restaurant
	for _, r := range rs {
		if excluded[r.PlaceID] || len(out) >= limit {
			continue
		}
		out = append(out, r)
	}
	return out
}

func rest(id string) types.Restaurant {
	return types.Restaurant{PlaceID: id, Name: "店 " + id, Address: "台北市 " + id, Lat: 25.03, Lng: 121.56}
}

func ids(rs []types.Restaurant) map[string]bool {
	out := make(map[string]bool, len(rs))
	for _, r := range rs {
		out[r.PlaceID] = true
	}
	return out
}

func assertWellFormed(t *testing.T, rs []types.Restaurant, count int) {
	t.Helper()
	if len(rs) != count {
		t.Fatalf("got %d restaurants, want %d", len(rs), count)
	}
	seen := make(map[string]bool)
	for _, r := range rs {
		if seen[r.PlaceID] {
			t.Errorf("duplicate place id %s", r.PlaceID)
		}
		seen[r.PlaceID] = true
		if r.Vicinity == "" && r.Address != "" {
			t.Errorf("vicinity not filled for %s", r.PlaceID)
		}
	}
}

func TestByLocationStoreSatisfied(t *testing.T) {
	store := &fakeStore{rows: []types.Restaurant{rest("s-1"), rest("s-2"), rest("s-3")}}
	provider := &fakePlaces{nearby: []types.Restaurant{rest("g-1")}}
	o := New(store, provider, nil, false)
	o.explore = func() bool { return false }

	res := o.ByLocation(context.Background(), 25.03, 121.56, 3, nil)

	assertWellFormed(t, res.Restaurants, 3)
	if res.Source != types.SourceSupabase {
		t.Errorf("Source = %q, want %q", res.Source, types.SourceSupabase)
	}
	if res.Err != nil {
		t.Errorf("unexpected error: %v", res.Err)
	}
	if provider.nearbyCalls != 0 {
		t.Errorf("provider consulted %d times on a satisfied store path", provider.nearbyCalls)
	}
}

func TestByLocationBlendsProviderAndStatic(t *testing.T) {
	store := &fakeStore{}
	provider := &fakePlaces{nearby: []types.Restaurant{rest("g-1"), rest("g-2")}}
	o := New(store, provider, nil, false)
	o.explore = func() bool { return false }

	res := o.ByLocation(context.Background(), 25.03, 121.56, 3, nil)

	assertWellFormed(t, res.Restaurants, 3)
	if res.Source != types.SourceMixed {
		t.Errorf("Source = %q, want %q", res.Source, types.SourceMixed)
	}
	got := ids(res.Restaurants)
	if !got["g-1"] || !got["g-2"] {
		t.Errorf("provider results missing from %v", got)
	}
	mocks := 0
	for id := range got {
		if strings.HasPrefix(id, "mock-place-") {
			mocks++
		}
	}
	if mocks != 1 {
		t.Errorf("got %d static records, want 1", mocks)
	}
}

func TestByLocationExploration(t *testing.T) {
	store := &fakeStore{rows: []types.Restaurant{rest("s-1"), rest("s-2"), rest("s-3")}}
	provider := &fakePlaces{nearby: []types.Restaurant{rest("g-1")}}
	o := New(store, provider, nil, false)
	o.explore = func() bool { return true }

	res := o.ByLocation(context.Background(), 25.03, 121.56, 3, nil)

	assertWellFormed(t, res.Restaurants, 3)
	if provider.nearbyCalls == 0 {
		t.Error("exploration did not consult the provider")
	}
	if res.Source != types.SourceMixed {
		t.Errorf("Source = %q, want %q", res.Source, types.SourceMixed)
	}
	if !ids(res.Restaurants)["g-1"] {
		t.Errorf("fresh provider record missing from %v", ids(res.Restaurants))
	}
}

func TestByLocationNoSourcesServesStatic(t *testing.T) {
	o := New(nil, nil, nil, false)
	o.explore = func() bool { return false }

	res := o.ByLocation(context.Background(), 25.03, 121.56, 3, nil)

	assertWellFormed(t, res.Restaurants, 3)
	if res.Source != types.SourceMock {
		t.Errorf("Source = %q, want %q", res.Source, types.SourceMock)
	}
}

func TestByLocationMockMode(t *testing.T) {
	o := New(nil, nil, nil, true)

	res := o.ByLocation(context.Background(), 25.03, 121.56, 4, []string{"mock-place-1"})

	assertWellFormed(t, res.Restaurants, 4)
	if res.Source != types.SourceMock {
		t.Errorf("Source = %q, want %q", res.Source, types.SourceMock)
	}
	if ids(res.Restaurants)["mock-place-1"] {
		t.Error("excluded id came back")
	}
}

func TestByLocationRecoversFromPanic(t *testing.T) {
	store := &fakeStore{panicNearby: true}
	o := New(store, nil, nil, false)
	o.explore = func() bool { return false }

	res := o.ByLocation(context.Background(), 25.03, 121.56, 3, nil)

	assertWellFormed(t, res.Restaurants, 3)
	if res.Err == nil {
		t.Error("expected the panic message as an error")
	}
	if res.Source != types.SourceMock {
		t.Errorf("Source = %q, want %q", res.Source, types.SourceMock)
	}
}

func TestByLocationHonorsCountAndExclusions(t *testing.T) {
	store := &fakeStore{rows: []types.Restaurant{rest("s-1"), rest("s-2")}}
	provider := &fakePlaces{nearby: []types.Restaurant{rest("g-1"), rest("g-2"), rest("g-3")}}

	for _, count := range []int{1, 2, 3, 5} {
		o := New(store, provider, nil, false)
		o.explore = func() bool { return false }
		res := o.ByLocation(context.Background(), 25.03, 121.56, count, []string{"s-1", "g-2"})
		assertWellFormed(t, res.Restaurants, count)
		got := ids(res.Restaurants)
		if got["s-1"] || got["g-2"] {
			t.Errorf("count %d: excluded ids came back: %v", count, got)
		}
	}
}

func TestByLocationRadiusEscalation(t *testing.T) {
	store := &fakeStore{
		rows:      []types.Restaurant{rest("s-1"), rest("s-2"), rest("s-3")},
		minRadius: EscalatedRadiusMeters,
	}
	o := New(store, nil, nil, false)
	o.explore = func() bool { return false }

	res := o.ByLocation(context.Background(), 25.03, 121.56, 3, nil)

	assertWellFormed(t, res.Restaurants, 3)
	got := ids(res.Restaurants)
	if !got["s-1"] || !got["s-2"] {
		t.Errorf("escalated store records missing from %v", got)
	}
}

func TestNearbyEnoughResults(t *testing.T) {
	openNow := true
	hours := &types.OpeningHours{OpenNow: &openNow, WeekdayText: []string{"星期一: 11:00 – 21:00"}}
	nearby := []types.Restaurant{rest("g-1"), rest("g-2"), rest("g-3")}
	for i := range nearby {
		nearby[i].OpeningHours = hours
	}
	provider := &fakePlaces{nearby: nearby, text: []types.Restaurant{rest("t-1")}}
	o := New(nil, provider, nil, false)

	got := o.Nearby(context.Background(), 25.03, 121.56, nil)

	assertWellFormed(t, got, 3)
	if provider.textCalls != 0 {
		t.Errorf("wide text search ran with %d nearby results", len(nearby))
	}
}

func TestNearbyWideFallbackDeduplicates(t *testing.T) {
	openNow := true
	hours := &types.OpeningHours{OpenNow: &openNow, WeekdayText: []string{"星期一: 11:00 – 21:00"}}
	one := rest("g-1")
	one.OpeningHours = hours
	provider := &fakePlaces{
		nearby: []types.Restaurant{one},
		text:   []types.Restaurant{rest("g-1"), rest("t-1"), rest("t-2")},
	}
	o := New(nil, provider, nil, false)

	got := o.Nearby(context.Background(), 25.03, 121.56, nil)

	assertWellFormed(t, got, 3)
	if provider.textCalls != 1 {
		t.Errorf("wide text search ran %d times, want 1", provider.textCalls)
	}
	want := ids(got)
	if !want["g-1"] || !want["t-1"] || !want["t-2"] {
		t.Errorf("unexpected result set %v", want)
	}
}

func TestNearbyBackfillsDetails(t *testing.T) {
	openNow := false
	provider := &fakePlaces{
		nearby: []types.Restaurant{rest("g-1")},
		details: map[string]*types.Restaurant{
			"g-1": {
				PlaceID:        "g-1",
				BusinessStatus: "OPERATIONAL",
				OpeningHours:   &types.OpeningHours{OpenNow: &openNow, WeekdayText: []string{"星期一: 公休"}},
			},
		},
	}
	o := New(nil, provider, nil, false)

	got := o.Nearby(context.Background(), 25.03, 121.56, nil)

	if len(got) == 0 {
		t.Fatal("no results")
	}
	if len(provider.detailCalls) == 0 || provider.detailCalls[0] != "g-1" {
		t.Fatalf("details not fetched, calls = %v", provider.detailCalls)
	}
	if got[0].OpeningHours == nil || len(got[0].OpeningHours.WeekdayText) == 0 {
		t.Errorf("opening hours not backfilled: %+v", got[0].OpeningHours)
	}
	if got[0].BusinessStatus != "OPERATIONAL" {
		t.Errorf("business status not backfilled: %q", got[0].BusinessStatus)
	}
}

func TestNearbyServesStaticWhenProviderEmpty(t *testing.T) {
	provider := &fakePlaces{}
	o := New(nil, provider, nil, false)

	got := o.Nearby(context.Background(), 25.03, 121.56, nil)

	assertWellFormed(t, got, DefaultCount)
	for _, r := range got {
		if !strings.HasPrefix(r.PlaceID, "mock-place-") {
			t.Errorf("unexpected non-static record %s", r.PlaceID)
		}
	}
}

func TestRandomFromStoreSample(t *testing.T) {
	store := &fakeStore{sampled: []types.Restaurant{rest("s-1"), rest("s-2"), rest("s-3")}}
	o := New(store, nil, nil, false)

	got := o.Random(context.Background(), 3, nil)

	assertWellFormed(t, got, 3)
	want := ids(got)
	if !want["s-1"] || !want["s-2"] || !want["s-3"] {
		t.Errorf("sample missing from %v", want)
	}
}

func TestRandomKeywordLookup(t *testing.T) {
	store := &fakeStore{sampled: []types.Restaurant{rest("s-1")}}
	found := rest("kw-1")
	provider := &fakePlaces{findID: "kw-1", details: map[string]*types.Restaurant{"kw-1": &found}}
	o := New(store, provider, nil, false)

	got := o.Random(context.Background(), 3, nil)

	assertWellFormed(t, got, 3)
	want := ids(got)
	if !want["s-1"] || !want["kw-1"] {
		t.Errorf("expected the sample and the keyword hit in %v", want)
	}
}

func TestRandomFallsBackToStatic(t *testing.T) {
	o := New(nil, nil, nil, false)

	got := o.Random(context.Background(), 3, []string{"mock-place-3"})

	assertWellFormed(t, got, 3)
	if ids(got)["mock-place-3"] {
		t.Error("excluded id came back")
	}
}

func TestRandomMockMode(t *testing.T) {
	o := New(nil, nil, nil, true)

	got := o.Random(context.Background(), 5, nil)

	assertWellFormed(t, got, 5)
}
