package main

import (
	"context"
	"errors"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"heyeat/src/blend"
	"heyeat/src/config"
	"heyeat/src/db"
	"heyeat/src/handlers"
	"heyeat/src/places"
	"heyeat/src/token"
	"heyeat/src/types"
)

func main() {
	cfg := config.Load()
	ctx := context.Background()

	var store types.Store
	var dbStore *db.Store
	if cfg.DatabaseURL != "" {
		var err error
		dbStore, err = db.New(ctx, cfg.DatabaseURL)
		if err != nil {
			log.Fatal(err)
		}
		defer dbStore.Close()
		if err := dbStore.EnsureSchema(ctx); err != nil {
			log.Fatal(err)
		}
		store = dbStore
	}

	var placesClient *places.Client
	var provider types.Places
	if cfg.GoogleAPIKey != "" {
		placesClient = places.NewClient(cfg.GoogleAPIKey)
		provider = placesClient
	}

	var saver *blend.Saver
	if store != nil {
		saver = blend.NewSaver(store, 64)
		defer saver.Close()
	}

	orch := blend.New(store, provider, saver, cfg.UseMockData)
	api := handlers.New(orch, provider, photoFetcher(placesClient), cfg.UseMockData)

	mux := http.NewServeMux()
	mux.HandleFunc("/restaurants/by-location", api.ByLocation)
	mux.HandleFunc("/restaurants/random", api.Random)
	mux.HandleFunc("/restaurants/nearby", api.Nearby)
	mux.HandleFunc("/restaurants/details", api.Details)
	mux.HandleFunc("/photo", api.Photo)

	auth := &token.Auth{
		SigningKey:   []byte(cfg.SigningKey),
		User:         cfg.AdminUser,
		PasswordHash: cfg.AdminPasswordHash,
	}
	if auth.Enabled() {
		admin := &handlers.AdminAPI{Store: store}
		mux.HandleFunc("/api/token", auth.GetToken)
		mux.Handle("/api/admin/seed", auth.Middleware(http.HandlerFunc(admin.Seed)))
	} else {
		log.Println("Admin auth not fully configured, admin endpoints disabled")
	}

	srv := &http.Server{
		Addr:              cfg.ListenAddr,
		Handler:           mux,
		ReadHeaderTimeout: 10 * time.Second,
		WriteTimeout:      30 * time.Second,
	}

	go func() {
		log.Printf("Server started at %s", cfg.ListenAddr)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatal(err)
		}
	}()

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)
	<-sigChan
	log.Println("Received termination signal, starting graceful shutdown...")

	shutdownCtx, cancel := context.WithTimeout(ctx, 15*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Printf("Shutdown error: %v", err)
	}
}

// photoFetcher keeps the handlers' photo dependency nil when no provider is
// configured; a typed nil pointer would otherwise look non-nil behind the
// interface.
func photoFetcher(c *places.Client) handlers.PhotoFetcher {
	if c == nil {
		return nil
	}
	return c
}
