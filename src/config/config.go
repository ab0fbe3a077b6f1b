package config

import (
	"log"
	"os"

	"github.com/joho/godotenv"
)

// Config holds everything read from the environment at startup.
type Config struct {
	ListenAddr string

	// GoogleAPIKey enables the places provider. Without it the service runs
	// on the store and the static fallback data only.
	GoogleAPIKey string

	// UseMockData forces static-data mode end to end.
	UseMockData bool

	// DatabaseURL is the Postgres connection string for the restaurant table.
	DatabaseURL string

	// Admin token endpoint. All three must be set for /api/token to work.
	SigningKey        string
	AdminUser         string
	AdminPasswordHash string
}

// Load reads the environment, picking up a .env file when one exists.
func Load() Config {
	if err := godotenv.Load(); err != nil {
		log.Println("No .env file found, assuming environment variables are set directly.")
	}

	cfg := Config{
		ListenAddr:        getenv("LISTEN_ADDR", ":8888"),
		GoogleAPIKey:      os.Getenv("GOOGLE_MAPS_API_KEY"),
		UseMockData:       os.Getenv("USE_MOCK_DATA") == "true",
		DatabaseURL:       os.Getenv("DATABASE_URL"),
		SigningKey:        os.Getenv("AUTH_SIGNING_KEY"),
		AdminUser:         os.Getenv("ADMIN_USER"),
		AdminPasswordHash: os.Getenv("ADMIN_PASSWORD_HASH"),
	}

	if cfg.GoogleAPIKey == "" {
		log.Println("GOOGLE_MAPS_API_KEY not set, places provider disabled")
	}
	if cfg.DatabaseURL == "" {
		log.Println("DATABASE_URL not set, persistent store disabled")
	}

	return cfg
}

func getenv(key, fallback string) string {
	if val, ok := os.LookupEnv(key); ok {
		return val
	}
	return fallback
}
