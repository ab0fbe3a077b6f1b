// Package seed loads demo restaurants into the persistent store: the static
// fallback set, plus optionally generated records scattered around the
// default location.
package seed

import (
	"context"
	"fmt"
	"math"
	"math/rand"

	"github.com/google/uuid"
	"github.com/jaswdr/faker"

	"heyeat/src/blend"
	"heyeat/src/mockdata"
	"heyeat/src/types"
)

// Run upserts the static records and extra generated ones. It returns the
// number of rows written; a store error stops the run.
func Run(ctx context.Context, store types.Store, extra int) (int, error) {
	seeded := 0
	for _, r := range mockdata.Restaurants {
		if err := store.Upsert(ctx, r); err != nil {
			return seeded, fmt.Errorf("seed: %w", err)
		}
		seeded++
	}
	for _, r := range Generate(extra) {
		if err := store.Upsert(ctx, r); err != nil {
			return seeded, fmt.Errorf("seed: %w", err)
		}
		seeded++
	}
	return seeded, nil
}

// Generate builds n plausible restaurants with coordinates inside the base
// search radius of the default location.
func Generate(n int) []types.Restaurant {
	if n <= 0 {
		return nil
	}
	fake := faker.New()

	latRange := blend.BaseRadiusMeters / 111000.0
	lngRange := latRange / math.Cos(blend.DefaultLat*math.Pi/180.0)

	restaurants := make([]types.Restaurant, 0, n)
	for i := 0; i < n; i++ {
		restaurants = append(restaurants, types.Restaurant{
			PlaceID:          "seed-" + uuid.NewString(),
			Name:             fake.Company().Name(),
			Address:          fake.Address().StreetAddress() + ", " + fake.Address().City(),
			Rating:           fake.Float64(1, 1, 5),
			UserRatingsTotal: fake.IntBetween(10, 2000),
			Lat:              blend.DefaultLat + (rand.Float64()*2-1)*latRange,
			Lng:              blend.DefaultLng + (rand.Float64()*2-1)*lngRange,
			Source:           types.SourceLocal,
		})
	}
	return restaurants
}
