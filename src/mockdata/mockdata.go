// Package mockdata is the static fallback dataset: a fixed set of Taipei
// restaurants used whenever the live sources are unavailable or come up short.
package mockdata

import (
	"math/rand"

	"heyeat/src/types"
)

var Restaurants = []types.Restaurant{
	{
		PlaceID:          "mock-place-1",
		Name:             "鴨泰豐 (信義店)",
		Address:          "台北市信義區松高路11號",
		Rating:           4.7,
		UserRatingsTotal: 1245,
		PhotoURL:         "https://images.unsplash.com/photo-1565299624946-b28f40a0ae38?w=400&h=160&fit=crop&auto=format",
		Lat:              25.0393,
		Lng:              121.5677,
		Source:           types.SourceLocal,
	},
	{
		PlaceID:          "mock-place-2",
		Name:             "添好運點心專門店",
		Address:          "台北市信義區松壽路12號",
		Rating:           4.5,
		UserRatingsTotal: 987,
		PhotoURL:         "https://images.unsplash.com/photo-1565958011703-44f9829ba187?w=400&h=160&fit=crop&auto=format",
		Lat:              25.0359,
		Lng:              121.5672,
		Source:           types.SourceLocal,
	},
	{
		PlaceID:          "mock-place-3",
		Name:             "肉多多火鍋 (台北京站店)",
		Address:          "台北市大同區承德路一段1號",
		Rating:           4.3,
		UserRatingsTotal: 723,
		PhotoURL:         "https://images.unsplash.com/photo-1504674900247-0877df9cc836?w=400&h=160&fit=crop&auto=format",
		Lat:              25.0477,
		Lng:              121.5177,
		Source:           types.SourceLocal,
	},
	{
		PlaceID:          "mock-place-4",
		Name:             "金鋒滑肉飯",
		Address:          "台北市大安區師大路49巷5號",
		Rating:           4.4,
		UserRatingsTotal: 512,
		PhotoURL:         "https://images.unsplash.com/photo-1512621776951-a57141f2eefd?w=400&h=160&fit=crop&auto=format",
		Lat:              25.0246,
		Lng:              121.5286,
		Source:           types.SourceLocal,
	},
	{
		PlaceID:          "mock-place-5",
		Name:             "高記茶餐廳",
		Address:          "台北市大安區延吉街131巷1號",
		Rating:           4.2,
		UserRatingsTotal: 654,
		PhotoURL:         "https://images.unsplash.com/photo-1482049016688-2d3e1b311543?w=400&h=160&fit=crop&auto=format",
		Lat:              25.0267,
		Lng:              121.5329,
		Source:           types.SourceLocal,
	},
	{
		PlaceID:          "mock-place-6",
		Name:             "鬼鬼張鬆肉飯 (台北館前店)",
		Address:          "台北市中正區館前路8號",
		Rating:           4.1,
		UserRatingsTotal: 789,
		PhotoURL:         "https://images.unsplash.com/photo-1414235077428-338989a2e8c0?w=400&h=160&fit=crop&auto=format",
		Lat:              25.0453,
		Lng:              121.5151,
		Source:           types.SourceLocal,
	},
	{
		PlaceID:          "mock-place-7",
		Name:             "無老鍋 (台北信義店)",
		Address:          "台北市信義區松高路11號",
		Rating:           4.6,
		UserRatingsTotal: 932,
		PhotoURL:         "https://images.unsplash.com/photo-1555126634-323283e090fa?w=400&h=160&fit=crop&auto=format",
		Lat:              25.0394,
		Lng:              121.5678,
		Source:           types.SourceLocal,
	},
}

// Sample returns up to count random fallback restaurants whose place ids are
// not in excludeIDs. When every record is excluded the exclusion resets, so a
// caller can always be padded to the requested count.
func Sample(count int, excludeIDs []string) []types.Restaurant {
	excluded := make(map[string]bool, len(excludeIDs))
	for _, id := range excludeIDs {
		excluded[id] = true
	}

	var eligible []types.Restaurant
	for _, r := range Restaurants {
		if !excluded[r.PlaceID] {
			eligible = append(eligible, r)
		}
	}
	if len(eligible) == 0 {
		eligible = append(eligible, Restaurants...)
	}

	shuffled := make([]types.Restaurant, len(eligible))
	copy(shuffled, eligible)
	rand.Shuffle(len(shuffled), func(i, j int) {
		shuffled[i], shuffled[j] = shuffled[j], shuffled[i]
	})

	if count > len(shuffled) {
		count = len(shuffled)
	}
	return shuffled[:count]
}

// Take returns the first count records, used on the unrecoverable error path
// where a deterministic body is preferable to more moving parts.
func Take(count int) []types.Restaurant {
	if count > len(Restaurants) {
		count = len(Restaurants)
	}
	out := make([]types.Restaurant, count)
	copy(out, Restaurants[:count])
	return out
}
