package blend

import (
	"context"
	"log"

	"heyeat/src/mockdata"
	"heyeat/src/places"
	"heyeat/src/types"
)

// Random returns count restaurants without a location: a random store sample
// first, then generated keyword lookups against the provider for the
// shortfall, then static data. Newly discovered restaurants are saved in the
// background.
func (o *Orchestrator) Random(ctx context.Context, count int, excludeIDs []string) []types.Restaurant {
	if o.useMock {
		return finalize(mockdata.Sample(count, excludeIDs), count)
	}

	var sampled []types.Restaurant
	if o.store != nil {
		var err error
		sampled, err = o.store.SampleRandom(ctx, count, excludeIDs)
		if err != nil {
			log.Printf("blend: store random sample failed: %v", err)
			sampled = nil
		}
	}
	if len(sampled) >= count {
		return finalize(sampled, count)
	}

	combined := sampled
	remaining := count - len(combined)
	for _, keyword := range places.GenerateKeywords(remaining) {
		if r := o.lookupKeyword(ctx, keyword, unionIDs(excludeIDs, combined)); r != nil {
			combined = append(combined, *r)
		}
		if len(combined) >= count {
			break
		}
	}

	if len(combined) < count {
		combined = append(combined, mockdata.Sample(count-len(combined), unionIDs(excludeIDs, combined))...)
	}
	return finalize(combined, count)
}

// lookupKeyword resolves a generated phrase to a restaurant: the store by
// name first, then the provider (find place id, then store by id to avoid a
// details call, then a full details fetch saved for next time).
func (o *Orchestrator) lookupKeyword(ctx context.Context, keyword string, excludeIDs []string) *types.Restaurant {
	excluded := make(map[string]bool, len(excludeIDs))
	for _, id := range excludeIDs {
		excluded[id] = true
	}

	if o.store != nil {
		r, err := o.store.GetByName(ctx, keyword)
		if err != nil {
			log.Printf("blend: store name lookup %q failed: %v", keyword, err)
		} else if r != nil && !excluded[r.PlaceID] {
			return r
		}
	}

	if o.places == nil {
		return nil
	}
	placeID, err := o.places.FindPlaceIDByText(ctx, keyword)
	if err != nil {
		log.Printf("blend: find place %q failed: %v", keyword, err)
		return nil
	}
	if placeID == "" || excluded[placeID] {
		return nil
	}

	if o.store != nil {
		r, err := o.store.GetByID(ctx, placeID)
		if err != nil {
			log.Printf("blend: store id lookup %s failed: %v", placeID, err)
		} else if r != nil {
			return r
		}
	}

	details, err := o.places.GetDetails(ctx, placeID)
	if err != nil {
		log.Printf("blend: details for %s failed: %v", placeID, err)
		return nil
	}
	if details == nil {
		return nil
	}
	o.saver.Enqueue(*details)
	return details
}
