// Package blend decides, per request, how many restaurants to pull from the
// persistent store versus the places provider, escalates search radii when a
// source comes up short, and pads every response from the static fallback
// data so the caller always gets something to show.
package blend

import (
	"context"
	"fmt"
	"log"
	"math/rand"

	"heyeat/src/mockdata"
	"heyeat/src/types"
)

// Tunable policy. These four numbers are the only real policy in the system:
// the reserved fresh slot and the exploration probability keep recommendations
// from calcifying around whatever got cached first.
const (
	BaseRadiusMeters      = 2000.0
	EscalatedRadiusMeters = 3000.0
	WideRadiusMeters      = 5000.0
	ExploreProbability    = 0.2
	ReservedFreshSlots    = 1

	// MinProviderResults is the threshold below which nearby search falls
	// back to a wide free-text search.
	MinProviderResults = 3

	// WideSearchQuery is the generic food query for the wide fallback.
	WideSearchQuery = "餐廳 美食"

	DefaultCount = 3

	// Default location: the National Taichung Theater.
	DefaultLat = 24.1631
	DefaultLng = 120.6412
)

// Result is a finished recommendation response. Err carries a diagnostic
// message on the unrecoverable path; the restaurant list is still valid.
type Result struct {
	Restaurants []types.Restaurant
	Source      types.Source
	Err         error
}

type Orchestrator struct {
	store   types.Store  // nil when no store is configured
	places  types.Places // nil when no provider key is configured
	saver   *Saver
	useMock bool

	// explore rolls the exploration probability; swapped out in tests.
	explore func() bool
}

func New(store types.Store, places types.Places, saver *Saver, useMock bool) *Orchestrator {
	return &Orchestrator{
		store:   store,
		places:  places,
		saver:   saver,
		useMock: useMock,
		explore: func() bool { return rand.Float64() < ExploreProbability },
	}
}

// ByLocation runs the sourcing pipeline around a point. Whatever goes wrong,
// the caller gets count restaurants back; the worst case is all static data
// with the error message attached.
func (o *Orchestrator) ByLocation(ctx context.Context, lat, lng float64, count int, excludeIDs []string) (res Result) {
	defer func() {
		if p := recover(); p != nil {
			log.Printf("blend: recovered from panic in by-location pipeline: %v", p)
			rs := mockdata.Take(count)
			types.FillVicinities(rs)
			res = Result{Restaurants: rs, Source: types.SourceMock, Err: fmt.Errorf("%v", p)}
		}
	}()

	if o.useMock {
		return Result{Restaurants: finalize(mockdata.Sample(count, excludeIDs), count), Source: types.SourceMock}
	}

	var used contributions

	storeCount := count - ReservedFreshSlots
	if storeCount < 0 {
		storeCount = 0
	}

	storeResults := o.queryStore(ctx, lat, lng, BaseRadiusMeters, storeCount, excludeIDs)

	// Exploration: with a small probability keep going to the provider even
	// when the store already satisfied its share.
	if len(storeResults) >= storeCount && !o.explore() {
		combined := o.topUpFromStore(ctx, lat, lng, count, excludeIDs, storeResults, &used)
		used.store += len(storeResults)
		return o.finish(combined, count, used)
	}

	if len(storeResults) < storeCount {
		storeResults = o.queryStore(ctx, lat, lng, EscalatedRadiusMeters, storeCount, excludeIDs)
	}
	used.store += len(storeResults)

	googleCount := count - len(storeResults)
	if googleCount < 1 {
		googleCount = 1
	}

	if o.places == nil {
		// No provider: pad the store results from the static data.
		pad := mockdata.Sample(googleCount, unionIDs(excludeIDs, storeResults))
		used.mock += len(pad)
		return o.finish(append(storeResults, pad...), count, used)
	}

	providerExclude := unionIDs(excludeIDs, storeResults)
	googleResults := o.queryPlaces(ctx, lat, lng, BaseRadiusMeters, providerExclude)
	if len(googleResults) < googleCount {
		googleResults = o.queryPlaces(ctx, lat, lng, EscalatedRadiusMeters, providerExclude)
	}

	for _, r := range googleResults {
		o.saver.Enqueue(r)
	}

	if len(googleResults) == 0 {
		// Nothing fresh: serve the whole response from the store.
		used = contributions{}
		all := o.queryStore(ctx, lat, lng, EscalatedRadiusMeters, count, excludeIDs)
		used.store += len(all)
		if len(all) < count {
			pad := mockdata.Sample(count-len(all), unionIDs(excludeIDs, all))
			used.mock += len(pad)
			all = append(all, pad...)
		}
		return o.finish(all, count, used)
	}

	if len(googleResults) > googleCount {
		googleResults = googleResults[:googleCount]
	}
	used.google += len(googleResults)

	combined := append(storeResults, googleResults...)
	combined = o.topUpFromStore(ctx, lat, lng, count, excludeIDs, combined, &used)
	return o.finish(combined, count, used)
}

// topUpFromStore fills a short result list up to count, first from an
// escalated store query excluding everything already selected, then from the
// static fallback data.
func (o *Orchestrator) topUpFromStore(ctx context.Context, lat, lng float64, count int, excludeIDs []string, combined []types.Restaurant, used *contributions) []types.Restaurant {
	if len(combined) < count {
		more := o.queryStore(ctx, lat, lng, EscalatedRadiusMeters, count-len(combined), unionIDs(excludeIDs, combined))
		used.store += len(more)
		combined = append(combined, more...)
	}
	if len(combined) < count {
		pad := mockdata.Sample(count-len(combined), unionIDs(excludeIDs, combined))
		used.mock += len(pad)
		combined = append(combined, pad...)
	}
	return combined
}

// Nearby is the provider-driven flow: nearby search with details backfill for
// records missing opening hours, a wide text search when too few results
// survive exclusion, and the static data as the last resort.
func (o *Orchestrator) Nearby(ctx context.Context, lat, lng float64, excludeIDs []string) []types.Restaurant {
	if o.useMock || o.places == nil {
		return finalize(mockdata.Sample(DefaultCount, excludeIDs), DefaultCount)
	}

	restaurants, err := o.places.NearbySearch(ctx, lat, lng, BaseRadiusMeters, excludeIDs)
	if err != nil {
		log.Printf("blend: nearby search failed: %v", err)
	}
	o.backfillDetails(ctx, restaurants)

	if len(restaurants) < MinProviderResults {
		wide, err := o.places.TextSearch(ctx, WideSearchQuery, lat, lng, WideRadiusMeters)
		if err != nil {
			log.Printf("blend: wide text search failed: %v", err)
		}
		wide = withoutIDs(wide, unionIDs(excludeIDs, restaurants))
		restaurants = append(restaurants, wide...)
	}

	if len(restaurants) == 0 {
		restaurants = mockdata.Sample(DefaultCount, excludeIDs)
	}

	types.FillVicinities(restaurants)
	return dedupeByID(restaurants)
}

// backfillDetails fetches extended fields for records that came back without
// opening hours.
func (o *Orchestrator) backfillDetails(ctx context.Context, restaurants []types.Restaurant) {
	for i := range restaurants {
		if restaurants[i].OpeningHours != nil && len(restaurants[i].OpeningHours.WeekdayText) > 0 {
			continue
		}
		details, err := o.places.GetDetails(ctx, restaurants[i].PlaceID)
		if err != nil {
			log.Printf("blend: details backfill for %s failed: %v", restaurants[i].PlaceID, err)
			continue
		}
		if details == nil {
			continue
		}
		if details.OpeningHours != nil {
			restaurants[i].OpeningHours = details.OpeningHours
		}
		if details.BusinessStatus != "" {
			restaurants[i].BusinessStatus = details.BusinessStatus
		}
	}
}

func (o *Orchestrator) queryStore(ctx context.Context, lat, lng, radius float64, limit int, excludeIDs []string) []types.Restaurant {
	if o.store == nil || limit <= 0 {
		return nil
	}
	rs, err := o.store.QueryNearby(ctx, lat, lng, radius, limit, excludeIDs)
	if err != nil {
		log.Printf("blend: store nearby query failed: %v", err)
		return nil
	}
	return rs
}

func (o *Orchestrator) queryPlaces(ctx context.Context, lat, lng, radius float64, excludeIDs []string) []types.Restaurant {
	rs, err := o.places.NearbySearch(ctx, lat, lng, radius, excludeIDs)
	if err != nil {
		log.Printf("blend: provider nearby search failed: %v", err)
		return nil
	}
	return rs
}

func (o *Orchestrator) finish(combined []types.Restaurant, count int, used contributions) Result {
	return Result{
		Restaurants: finalize(combined, count),
		Source:      used.provenance(),
	}
}

// contributions counts how many records each source category put into a
// response; provenance is derived from it, not from the per-record tags,
// because a store row may itself record a google origin.
type contributions struct {
	store  int
	google int
	mock   int
}

func (c contributions) provenance() types.Source {
	switch {
	case c.store > 0 && c.google == 0 && c.mock == 0:
		return types.SourceSupabase
	case c.mock > 0 && c.store == 0 && c.google == 0:
		return types.SourceMock
	default:
		return types.SourceMixed
	}
}

// finalize enforces the response invariants: unique place ids, non-empty
// vicinity, at most count records.
func finalize(rs []types.Restaurant, count int) []types.Restaurant {
	rs = dedupeByID(rs)
	types.FillVicinities(rs)
	if len(rs) > count {
		rs = rs[:count]
	}
	return rs
}

func dedupeByID(rs []types.Restaurant) []types.Restaurant {
	seen := make(map[string]bool, len(rs))
	out := rs[:0]
	for _, r := range rs {
		if seen[r.PlaceID] {
			continue
		}
		seen[r.PlaceID] = true
		out = append(out, r)
	}
	return out
}

func withoutIDs(rs []types.Restaurant, ids []string) []types.Restaurant {
	excluded := make(map[string]bool, len(ids))
	for _, id := range ids {
		excluded[id] = true
	}
	out := rs[:0]
	for _, r := range rs {
		if !excluded[r.PlaceID] {
			out = append(out, r)
		}
	}
	return out
}

// unionIDs joins an id list with the ids of already-selected restaurants.
func unionIDs(ids []string, rs []types.Restaurant) []string {
	out := make([]string, 0, len(ids)+len(rs))
	out = append(out, ids...)
	for _, r := range rs {
		out = append(out, r.PlaceID)
	}
	return out
}
