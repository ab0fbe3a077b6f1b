package handlers

import (
	"context"
	"encoding/json"
	"log"
	"net/http"
	"strconv"
	"strings"

	"heyeat/src/blend"
	"heyeat/src/types"
)

// PhotoFetcher is the slice of the places client the photo proxy needs.
type PhotoFetcher interface {
	FetchPhoto(ctx context.Context, photoReference, maxWidth string) (*http.Response, error)
}

// API owns the HTTP surface. Places and Photos are nil when no provider key
// is configured; the handlers degrade accordingly.
type API struct {
	Blend   *blend.Orchestrator
	Places  types.Places
	Photos  PhotoFetcher
	UseMock bool
}

func New(orch *blend.Orchestrator, places types.Places, photos PhotoFetcher, useMock bool) *API {
	return &API{Blend: orch, Places: places, Photos: photos, UseMock: useMock}
}

type restaurantsResponse struct {
	Restaurants []types.Restaurant `json:"restaurants"`
	Source      types.Source       `json:"source,omitempty"`
	Error       string             `json:"error,omitempty"`
}

// ByLocation handles GET /restaurants/by-location?lat&lng&excludeIds&count.
func (a *API) ByLocation(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	lat := parseFloat(q.Get("lat"), blend.DefaultLat)
	lng := parseFloat(q.Get("lng"), blend.DefaultLng)
	count := parseCount(q.Get("count"))
	excludeIDs := parseExcludeIDs(q.Get("excludeIds"))

	res := a.Blend.ByLocation(r.Context(), lat, lng, count, excludeIDs)

	resp := restaurantsResponse{Restaurants: res.Restaurants, Source: res.Source}
	if res.Err != nil {
		resp.Error = res.Err.Error()
	}
	writeJSON(w, http.StatusOK, resp)
}

// Random handles GET /restaurants/random?excludeIds&count.
func (a *API) Random(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	count := parseCount(q.Get("count"))
	excludeIDs := parseExcludeIDs(q.Get("excludeIds"))

	restaurants := a.Blend.Random(r.Context(), count, excludeIDs)
	writeJSON(w, http.StatusOK, restaurantsResponse{Restaurants: restaurants})
}

// Nearby handles GET /restaurants/nearby?location=lat,lng&excludePlaceIds.
func (a *API) Nearby(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	location := q.Get("location")
	if location == "" {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "missing location parameter"})
		return
	}
	lat, lng, ok := parseLocation(location)
	if !ok {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid location parameter"})
		return
	}
	excludeIDs := parseExcludeIDs(q.Get("excludePlaceIds"))

	if !a.UseMock && a.Places == nil {
		// Misconfiguration: surface the error, still give the caller data.
		fallback := a.Blend.Nearby(r.Context(), lat, lng, excludeIDs)
		writeJSON(w, http.StatusInternalServerError, restaurantsResponse{
			Restaurants: fallback,
			Error:       "places provider API key is not configured",
		})
		return
	}

	restaurants := a.Blend.Nearby(r.Context(), lat, lng, excludeIDs)
	writeJSON(w, http.StatusOK, restaurantsResponse{Restaurants: restaurants})
}

// Details handles GET /restaurants/details?placeId.
func (a *API) Details(w http.ResponseWriter, r *http.Request) {
	placeID := r.URL.Query().Get("placeId")
	if placeID == "" {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "missing placeId parameter"})
		return
	}

	if a.UseMock || a.Places == nil {
		writeJSON(w, http.StatusOK, map[string]any{"details": mockDetails()})
		return
	}

	details, err := a.Places.GetDetails(r.Context(), placeID)
	if err != nil {
		log.Printf("handlers: details for %s failed: %v", placeID, err)
	}
	if details == nil {
		writeJSON(w, http.StatusNotFound, map[string]string{"error": "no details for this place"})
		return
	}
	details.FillVicinity()
	writeJSON(w, http.StatusOK, map[string]any{"details": details})
}

func mockDetails() *types.Restaurant {
	openNow := true
	return &types.Restaurant{
		BusinessStatus: "OPERATIONAL",
		OpeningHours: &types.OpeningHours{
			OpenNow: &openNow,
			WeekdayText: []string{
				"星期一: 11:00 – 21:30",
				"星期二: 11:00 – 21:30",
				"星期三: 11:00 – 21:30",
				"星期四: 11:00 – 21:30",
				"星期五: 11:00 – 22:00",
				"星期六: 10:00 – 22:00",
				"星期日: 10:00 – 21:30",
			},
		},
	}
}

func writeJSON(w http.ResponseWriter, status int, body any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(body); err != nil {
		log.Printf("handlers: encoding response: %v", err)
	}
}

func parseFloat(s string, fallback float64) float64 {
	if s == "" {
		return fallback
	}
	v, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return fallback
	}
	return v
}

func parseCount(s string) int {
	if s == "" {
		return blend.DefaultCount
	}
	n, err := strconv.Atoi(s)
	if err != nil || n < 1 {
		return blend.DefaultCount
	}
	return n
}

func parseLocation(s string) (lat, lng float64, ok bool) {
	parts := strings.SplitN(s, ",", 2)
	if len(parts) != 2 {
		return 0, 0, false
	}
	lat, err1 := strconv.ParseFloat(strings.TrimSpace(parts[0]), 64)
	lng, err2 := strconv.ParseFloat(strings.TrimSpace(parts[1]), 64)
	if err1 != nil || err2 != nil {
		return 0, 0, false
	}
	return lat, lng, true
}

// parseExcludeIDs accepts the JSON-array form the web client sends and a
// plain comma-separated list.
func parseExcludeIDs(s string) []string {
	if s == "" {
		return nil
	}
	var ids []string
	if err := json.Unmarshal([]byte(s), &ids); err == nil {
		return ids
	}
	for _, part := range strings.Split(s, ",") {
		if part = strings.TrimSpace(part); part != "" {
			ids = append(ids, part)
		}
	}
	return ids
}
