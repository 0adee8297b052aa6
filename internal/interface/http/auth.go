package http

import (
	"context"
	"crypto/subtle"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"golang.org/x/crypto/bcrypt"

	"github.com/regen-hub/regenmon-hub/internal/interface/http/handlers"
)

// ══════════════════════════════════════════════════════════════════════════════
// ADMIN AUTHENTICATION
// A single admin account, configured by username + bcrypt password hash.
// Login issues a short-lived HS256 token, the admin routes require it.
// ══════════════════════════════════════════════════════════════════════════════

// adminConfigured reports whether the admin surface is enabled.
func (s *Server) adminConfigured() bool {
	return s.config.AdminJWTSecret != "" &&
		s.config.AdminUsername != "" &&
		s.config.AdminPasswordHash != ""
}

// handleAdminLogin handles POST /api/v1/admin/login.
func (s *Server) handleAdminLogin(w http.ResponseWriter, r *http.Request) {
	if !s.adminConfigured() {
		writeJSONError(w, http.StatusServiceUnavailable, "admin_disabled", "admin access is not configured")
		return
	}

	var req struct {
		Username string `json:"username"`
		Password string `json:"password"`
	}
	if err := decodeJSON(r, &req); err != nil {
		writeJSONError(w, http.StatusBadRequest, "invalid_body", err.Error())
		return
	}

	// Constant-time username compare, bcrypt handles the password side.
	usernameOK := subtle.ConstantTimeCompare([]byte(req.Username), []byte(s.config.AdminUsername)) == 1
	passwordErr := bcrypt.CompareHashAndPassword([]byte(s.config.AdminPasswordHash), []byte(req.Password))
	if !usernameOK || passwordErr != nil {
		s.logger.Warn("admin login rejected")
		writeJSONError(w, http.StatusUnauthorized, "invalid_credentials", "invalid username or password")
		return
	}

	now := time.Now()
	expiresAt := now.Add(s.config.AdminTokenTTL)

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.RegisteredClaims{
		Subject:   s.config.AdminUsername,
		IssuedAt:  jwt.NewNumericDate(now),
		ExpiresAt: jwt.NewNumericDate(expiresAt),
		Issuer:    "regenmon-hub",
	})

	signed, err := token.SignedString([]byte(s.config.AdminJWTSecret))
	if err != nil {
		writeJSONError(w, http.StatusInternalServerError, "internal_error", "failed to issue token")
		return
	}

	writeJSON(w, http.StatusOK, map[string]interface{}{
		"token":      signed,
		"expires_at": expiresAt.UTC(),
	})
}

// adminOnly wraps a handler with JWT verification. Admin responses are
// never cacheable.
func (s *Server) adminOnly(next http.HandlerFunc) http.Handler {
	return handlers.NoCache(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if !s.adminConfigured() {
			writeJSONError(w, http.StatusServiceUnavailable, "admin_disabled", "admin access is not configured")
			return
		}

		raw := bearerToken(r)
		if raw == "" {
			writeJSONError(w, http.StatusUnauthorized, "unauthorized", "missing bearer token")
			return
		}

		claims := &jwt.RegisteredClaims{}
		token, err := jwt.ParseWithClaims(raw, claims, func(t *jwt.Token) (interface{}, error) {
			if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
				return nil, fmt.Errorf("unexpected signing method: %v", t.Header["alg"])
			}
			return []byte(s.config.AdminJWTSecret), nil
		})
		if err != nil || !token.Valid {
			writeJSONError(w, http.StatusUnauthorized, "unauthorized", "invalid or expired token")
			return
		}

		ctx := context.WithValue(r.Context(), contextKeyAdmin, claims.Subject)
		next.ServeHTTP(w, r.WithContext(ctx))
	}))
}

// bearerToken extracts the token from the Authorization header.
func bearerToken(r *http.Request) string {
	auth := r.Header.Get("Authorization")
	const prefix = "Bearer "
	if len(auth) > len(prefix) && strings.EqualFold(auth[:len(prefix)], prefix) {
		return auth[len(prefix):]
	}
	return ""
}

// adminFromContext returns the authenticated admin name, empty when absent.
func adminFromContext(ctx context.Context) string {
	if name, ok := ctx.Value(contextKeyAdmin).(string); ok {
		return name
	}
	return ""
}
