package handlers

import (
	"io"
	"log"
	"net/http"
)

const (
	photoCacheControl   = "public, max-age=86400"
	placeholderPhotoURL = "https://via.placeholder.com/400x300?text=photo+unavailable"
	defaultPhotoWidth   = "800"
)

// Photo handles GET /photo?photo_reference&maxwidth: a passthrough proxy for
// provider photos with a day of client caching. When the provider is
// unavailable the client is redirected to a placeholder instead of erroring.
func (a *API) Photo(w http.ResponseWriter, r *http.Request) {
	photoRef := r.URL.Query().Get("photo_reference")
	if photoRef == "" {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "missing photo_reference parameter"})
		return
	}
	maxWidth := r.URL.Query().Get("maxwidth")
	if maxWidth == "" {
		maxWidth = defaultPhotoWidth
	}

	if a.Photos == nil {
		http.Redirect(w, r, placeholderPhotoURL, http.StatusFound)
		return
	}

	resp, err := a.Photos.FetchPhoto(r.Context(), photoRef, maxWidth)
	if err != nil {
		log.Printf("handlers: photo fetch failed: %v", err)
		http.Redirect(w, r, placeholderPhotoURL, http.StatusFound)
		return
	}
	defer resp.Body.Close()

	contentType := resp.Header.Get("Content-Type")
	if contentType == "" {
		contentType = "image/jpeg"
	}
	w.Header().Set("Content-Type", contentType)
	w.Header().Set("Cache-Control", photoCacheControl)
	w.Header().Set("Access-Control-Allow-Origin", "*")
	if _, err := io.Copy(w, resp.Body); err != nil {
		log.Printf("handlers: streaming photo: %v", err)
	}
}
