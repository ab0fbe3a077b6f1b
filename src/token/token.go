// Package token issues and verifies the JWTs protecting the admin surface.
package token

import (
	"context"
	"encoding/json"
	"log"
	"net/http"
	"strings"
	"time"

	"github.com/dgrijalva/jwt-go"
	"golang.org/x/crypto/bcrypt"
)

const tokenTTL = time.Hour

type Auth struct {
	SigningKey []byte
	// Single configured admin account; the hash is a bcrypt hash.
	User         string
	PasswordHash string
}

// Enabled reports whether the admin surface is configured at all.
func (a *Auth) Enabled() bool {
	return len(a.SigningKey) > 0 && a.User != "" && a.PasswordHash != ""
}

type credentials struct {
	Username string `json:"username"`
	Password string `json:"password"`
}

// GetToken handles POST /api/token: credentials in, signed token out.
func (a *Auth) GetToken(w http.ResponseWriter, r *http.Request) {
	var creds credentials
	if err := json.NewDecoder(r.Body).Decode(&creds); err != nil {
		http.Error(w, "Invalid request payload", http.StatusBadRequest)
		return
	}

	if creds.Username != a.User || !checkPasswordHash(creds.Password, a.PasswordHash) {
		http.Error(w, "Invalid username or password", http.StatusUnauthorized)
		return
	}

	claims := jwt.MapClaims{
		"username": creds.Username,
		"exp":      time.Now().Add(tokenTTL).Unix(),
	}
	tokenString, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(a.SigningKey)
	if err != nil {
		log.Printf("token: signing failed: %v", err)
		http.Error(w, "Could not sign token", http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(map[string]string{"token": tokenString})
}

func checkPasswordHash(password, hash string) bool {
	return bcrypt.CompareHashAndPassword([]byte(hash), []byte(password)) == nil
}

// Middleware rejects requests without a valid bearer token.
func (a *Auth) Middleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		authHeader := r.Header.Get("Authorization")
		if authHeader == "" {
			http.Error(w, "Forbidden", http.StatusUnauthorized)
			return
		}

		tokenString := strings.TrimPrefix(authHeader, "Bearer ")
		parsed, err := jwt.Parse(tokenString, func(t *jwt.Token) (interface{}, error) {
			return a.SigningKey, nil
		})
		if err != nil || !parsed.Valid {
			http.Error(w, "Forbidden", http.StatusUnauthorized)
			return
		}

		claims, ok := parsed.Claims.(jwt.MapClaims)
		if !ok {
			http.Error(w, "Forbidden", http.StatusUnauthorized)
			return
		}
		ctx := context.WithValue(r.Context(), userContextKey{}, claims["username"])
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

type userContextKey struct{}

// User returns the username stored by Middleware, if any.
func User(ctx context.Context) (string, bool) {
	u, ok := ctx.Value(userContextKey{}).(string)
	return u, ok
}
