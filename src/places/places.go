// Package places wraps the Google Places API. Both the current (v1) and the
// legacy response schemas are normalized into types.Restaurant here, so the
// rest of the service never branches on schema version.
package places

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"time"

	"heyeat/src/types"
)

const (
	searchTextURL = "https://places.googleapis.com/v1/places:searchText"
	legacyBaseURL = "https://maps.googleapis.com/maps/api/place"

	language       = "zh-TW"
	requestTimeout = 10 * time.Second

	searchTextFieldMask = "places.id,places.displayName,places.formattedAddress," +
		"places.rating,places.userRatingCount,places.photos,places.location," +
		"places.businessStatus,places.currentOpeningHours"
)

type Client struct {
	apiKey     string
	httpClient *http.Client

	// Overridable in tests.
	searchTextURL string
	legacyBaseURL string
}

func NewClient(apiKey string) *Client {
	return &Client{
		apiKey:        apiKey,
		httpClient:    &http.Client{Timeout: requestTimeout},
		searchTextURL: searchTextURL,
		legacyBaseURL: legacyBaseURL,
	}
}

// legacyPlace is the maps.googleapis.com result shape.
type legacyPlace struct {
	PlaceID          string  `json:"place_id"`
	Name             string  `json:"name"`
	Vicinity         string  `json:"vicinity"`
	FormattedAddress string  `json:"formatted_address"`
	Rating           float64 `json:"rating"`
	UserRatingsTotal int     `json:"user_ratings_total"`
	Photos           []struct {
		PhotoReference string `json:"photo_reference"`
	} `json:"photos"`
	Geometry struct {
		Location struct {
			Lat float64 `json:"lat"`
			Lng float64 `json:"lng"`
		} `json:"location"`
	} `json:"geometry"`
	BusinessStatus string `json:"business_status"`
	OpeningHours   *struct {
		OpenNow     *bool    `json:"open_now"`
		WeekdayText []string `json:"weekday_text"`
	} `json:"opening_hours"`
}

// newPlace is the places.googleapis.com/v1 result shape.
type newPlace struct {
	ID          string `json:"id"`
	DisplayName struct {
		Text string `json:"text"`
	} `json:"displayName"`
	FormattedAddress string  `json:"formattedAddress"`
	Rating           float64 `json:"rating"`
	UserRatingCount  int     `json:"userRatingCount"`
	Photos           []struct {
		Name string `json:"name"`
	} `json:"photos"`
	Location *struct {
		Latitude  float64 `json:"latitude"`
		Longitude float64 `json:"longitude"`
	} `json:"location"`
	BusinessStatus      string `json:"businessStatus"`
	CurrentOpeningHours *struct {
		OpenNow     *bool    `json:"openNow"`
		WeekdayText []string `json:"weekdayText"`
	} `json:"currentOpeningHours"`
}

// searchResponse holds whichever schema the provider answered with. A legacy
// body always carries a top-level "status" field; that is the discriminator.
type searchResponse struct {
	Status  *string       `json:"status"`
	Results []legacyPlace `json:"results"`
	Places  []newPlace    `json:"places"`
}

func (sr *searchResponse) restaurants(apiKey string) ([]types.Restaurant, error) {
	if sr.Status != nil {
		if *sr.Status != "OK" && *sr.Status != "ZERO_RESULTS" {
			return nil, fmt.Errorf("places: legacy status %s", *sr.Status)
		}
		out := make([]types.Restaurant, 0, len(sr.Results))
		for _, p := range sr.Results {
			out = append(out, p.normalize(apiKey))
		}
		return out, nil
	}
	out := make([]types.Restaurant, 0, len(sr.Places))
	for _, p := range sr.Places {
		out = append(out, p.normalize())
	}
	return out, nil
}

func (p legacyPlace) normalize(apiKey string) types.Restaurant {
	r := types.Restaurant{
		PlaceID:          p.PlaceID,
		Name:             p.Name,
		Address:          p.FormattedAddress,
		Vicinity:         p.Vicinity,
		Rating:           p.Rating,
		UserRatingsTotal: p.UserRatingsTotal,
		Lat:              p.Geometry.Location.Lat,
		Lng:              p.Geometry.Location.Lng,
		Source:           types.SourceGoogle,
		BusinessStatus:   p.BusinessStatus,
	}
	if r.Address == "" {
		r.Address = p.Vicinity
	}
	if len(p.Photos) > 0 {
		r.PhotoReference = p.Photos[0].PhotoReference
		r.PhotoURL = photoURL(apiKey, p.Photos[0].PhotoReference, "400")
	}
	if p.OpeningHours != nil {
		r.OpeningHours = &types.OpeningHours{
			OpenNow:     p.OpeningHours.OpenNow,
			WeekdayText: p.OpeningHours.WeekdayText,
		}
	}
	return r
}

func (p newPlace) normalize() types.Restaurant {
	r := types.Restaurant{
		PlaceID:          p.ID,
		Name:             p.DisplayName.Text,
		Address:          p.FormattedAddress,
		Vicinity:         p.FormattedAddress,
		Rating:           p.Rating,
		UserRatingsTotal: p.UserRatingCount,
		Source:           types.SourceGoogle,
		BusinessStatus:   p.BusinessStatus,
	}
	if p.Location != nil {
		r.Lat = p.Location.Latitude
		r.Lng = p.Location.Longitude
	}
	if len(p.Photos) > 0 {
		r.PhotoReference = p.Photos[0].Name
	}
	if p.CurrentOpeningHours != nil {
		r.OpeningHours = &types.OpeningHours{
			OpenNow:     p.CurrentOpeningHours.OpenNow,
			WeekdayText: p.CurrentOpeningHours.WeekdayText,
		}
	}
	return r
}

// NearbySearch queries for restaurants around a point. The v1 endpoint is
// tried first; any transport error or non-2xx answer falls back to the legacy
// nearbysearch endpoint. Results matching excludeIDs are dropped.
func (c *Client) NearbySearch(ctx context.Context, lat, lng, radiusMeters float64, excludeIDs []string) ([]types.Restaurant, error) {
	body, err := c.searchTextRequest(ctx, lat, lng, radiusMeters)
	if err != nil {
		body, err = c.legacyNearbyRequest(ctx, lat, lng, radiusMeters)
		if err != nil {
			return nil, err
		}
	}

	var sr searchResponse
	if err := json.Unmarshal(body, &sr); err != nil {
		return nil, fmt.Errorf("places: decoding search response: %w", err)
	}
	restaurants, err := sr.restaurants(c.apiKey)
	if err != nil {
		return nil, err
	}
	return dropExcluded(restaurants, excludeIDs), nil
}

func (c *Client) searchTextRequest(ctx context.Context, lat, lng, radiusMeters float64) ([]byte, error) {
	payload := map[string]any{
		"textQuery":    fmt.Sprintf("餐廳 附近 %f,%f", lat, lng),
		"languageCode": language,
		"locationBias": map[string]any{
			"circle": map[string]any{
				"center": map[string]any{"latitude": lat, "longitude": lng},
				"radius": radiusMeters,
			},
		},
	}
	raw, err := json.Marshal(payload)
	if err != nil {
		return nil, err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.searchTextURL, bytes.NewReader(raw))
	if err != nil {
		return nil, err
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("X-Goog-Api-Key", c.apiKey)
	req.Header.Set("X-Goog-FieldMask", searchTextFieldMask)

	return c.do(req)
}

func (c *Client) legacyNearbyRequest(ctx context.Context, lat, lng, radiusMeters float64) ([]byte, error) {
	params := url.Values{}
	params.Set("location", fmt.Sprintf("%f,%f", lat, lng))
	params.Set("radius", fmt.Sprintf("%.0f", radiusMeters))
	params.Set("type", "restaurant")
	params.Set("language", language)
	params.Set("key", c.apiKey)

	req, err := http.NewRequestWithContext(ctx, http.MethodGet,
		c.legacyBaseURL+"/nearbysearch/json?"+params.Encode(), nil)
	if err != nil {
		return nil, err
	}
	return c.do(req)
}

// TextSearch is the wide-radius free-text fallback used when nearby search
// comes up short.
func (c *Client) TextSearch(ctx context.Context, query string, lat, lng, radiusMeters float64) ([]types.Restaurant, error) {
	params := url.Values{}
	params.Set("query", query)
	params.Set("location", fmt.Sprintf("%f,%f", lat, lng))
	params.Set("radius", fmt.Sprintf("%.0f", radiusMeters))
	params.Set("language", language)
	params.Set("key", c.apiKey)

	req, err := http.NewRequestWithContext(ctx, http.MethodGet,
		c.legacyBaseURL+"/textsearch/json?"+params.Encode(), nil)
	if err != nil {
		return nil, err
	}
	body, err := c.do(req)
	if err != nil {
		return nil, err
	}

	var sr searchResponse
	if err := json.Unmarshal(body, &sr); err != nil {
		return nil, fmt.Errorf("places: decoding text search response: %w", err)
	}
	return sr.restaurants(c.apiKey)
}

// FindPlaceIDByText resolves a free-text phrase to its best-match place id.
// An empty id with a nil error means no candidate matched.
func (c *Client) FindPlaceIDByText(ctx context.Context, query string) (string, error) {
	params := url.Values{}
	params.Set("input", query)
	params.Set("inputtype", "textquery")
	params.Set("fields", "place_id")
	params.Set("language", language)
	params.Set("key", c.apiKey)

	req, err := http.NewRequestWithContext(ctx, http.MethodGet,
		c.legacyBaseURL+"/findplacefromtext/json?"+params.Encode(), nil)
	if err != nil {
		return "", err
	}
	body, err := c.do(req)
	if err != nil {
		return "", err
	}

	var out struct {
		Status     string `json:"status"`
		Candidates []struct {
			PlaceID string `json:"place_id"`
		} `json:"candidates"`
	}
	if err := json.Unmarshal(body, &out); err != nil {
		return "", fmt.Errorf("places: decoding find place response: %w", err)
	}
	if out.Status != "OK" || len(out.Candidates) == 0 {
		return "", nil
	}
	return out.Candidates[0].PlaceID, nil
}

// GetDetails fetches extended fields for one place. A nil restaurant with a
// nil error means the provider has nothing for that id.
func (c *Client) GetDetails(ctx context.Context, placeID string) (*types.Restaurant, error) {
	params := url.Values{}
	params.Set("place_id", placeID)
	params.Set("fields", "place_id,name,vicinity,formatted_address,rating,user_ratings_total,photos,geometry,business_status,opening_hours")
	params.Set("language", language)
	params.Set("key", c.apiKey)

	req, err := http.NewRequestWithContext(ctx, http.MethodGet,
		c.legacyBaseURL+"/details/json?"+params.Encode(), nil)
	if err != nil {
		return nil, err
	}
	body, err := c.do(req)
	if err != nil {
		return nil, err
	}

	var out struct {
		Status string       `json:"status"`
		Result *legacyPlace `json:"result"`
	}
	if err := json.Unmarshal(body, &out); err != nil {
		return nil, fmt.Errorf("places: decoding details response: %w", err)
	}
	if out.Status != "OK" || out.Result == nil {
		return nil, nil
	}
	r := out.Result.normalize(c.apiKey)
	if r.PlaceID == "" {
		r.PlaceID = placeID
	}
	return &r, nil
}

// FetchPhoto proxies one photo from the provider. The caller owns the
// response body.
func (c *Client) FetchPhoto(ctx context.Context, photoReference, maxWidth string) (*http.Response, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet,
		photoURL(c.apiKey, photoReference, maxWidth), nil)
	if err != nil {
		return nil, err
	}
	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, err
	}
	if resp.StatusCode != http.StatusOK {
		resp.Body.Close()
		return nil, fmt.Errorf("places: photo request status %d", resp.StatusCode)
	}
	return resp, nil
}

func (c *Client) do(req *http.Request) ([]byte, error) {
	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("places: request to %s failed with status %d", req.URL.Path, resp.StatusCode)
	}

	var buf bytes.Buffer
	if _, err := buf.ReadFrom(resp.Body); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

func photoURL(apiKey, photoReference, maxWidth string) string {
	params := url.Values{}
	params.Set("photoreference", photoReference)
	params.Set("maxwidth", maxWidth)
	params.Set("key", apiKey)
	return legacyBaseURL + "/photo?" + params.Encode()
}

func dropExcluded(rs []types.Restaurant, excludeIDs []string) []types.Restaurant {
	if len(excludeIDs) == 0 {
		return rs
	}
	excluded := make(map[string]bool, len(excludeIDs))
	for _, id := range excludeIDs {
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
