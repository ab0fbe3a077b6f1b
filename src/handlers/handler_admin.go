package handlers

import (
	"log"
	"net/http"
	"strconv"

	"heyeat/src/seed"
	"heyeat/src/types"
)

// adminAPI is the JWT-protected surface. Store may be nil when no database
// is configured.
type AdminAPI struct {
	Store types.Store
}

// Seed handles POST /api/admin/seed?generate=N: loads the static records and
// N generated ones into the store.
func (a *AdminAPI) Seed(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		writeJSON(w, http.StatusMethodNotAllowed, map[string]string{"error": "use POST"})
		return
	}
	if a.Store == nil {
		writeJSON(w, http.StatusServiceUnavailable, map[string]string{"error": "no store configured"})
		return
	}

	extra := 0
	if s := r.URL.Query().Get("generate"); s != "" {
		n, err := strconv.Atoi(s)
		if err != nil || n < 0 {
			writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid generate parameter"})
			return
		}
		extra = n
	}

	seeded, err := seed.Run(r.Context(), a.Store, extra)
	if err != nil {
		log.Printf("handlers: seeding failed after %d rows: %v", seeded, err)
		writeJSON(w, http.StatusInternalServerError, map[string]any{"error": err.Error(), "seeded": seeded})
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"seeded": seeded})
}
