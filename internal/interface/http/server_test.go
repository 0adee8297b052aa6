package http

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"

	"github.com/regen-hub/regenmon-hub/internal/domain/shared"
)

func newTestServer(t *testing.T, cfg Config) *Server {
	t.Helper()
	return NewServer(cfg, Dependencies{})
}

func doRequest(s *Server, req *http.Request) *httptest.ResponseRecorder {
	rec := httptest.NewRecorder()
	s.buildMiddlewareChain(s.router).ServeHTTP(rec, req)
	return rec
}

func decodeEnvelope(t *testing.T, rec *httptest.ResponseRecorder) JSONResponse {
	t.Helper()
	var resp JSONResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	return resp
}

// ══════════════════════════════════════════════════════════════════════════════
// HEALTH & ROOT
// ══════════════════════════════════════════════════════════════════════════════

func TestHealthEndpoint_NoChecker(t *testing.T) {
	s := newTestServer(t, DefaultConfig())

	rec := doRequest(s, httptest.NewRequest(http.MethodGet, "/health", nil))

	assert.Equal(t, http.StatusOK, rec.Code)
	resp := decodeEnvelope(t, rec)
	assert.True(t, resp.Success)
}

func TestLivenessEndpoint(t *testing.T) {
	s := newTestServer(t, DefaultConfig())

	rec := doRequest(s, httptest.NewRequest(http.MethodGet, "/live", nil))

	assert.Equal(t, http.StatusOK, rec.Code)
}

func TestRootEndpoint_UnknownPathIs404(t *testing.T) {
	s := newTestServer(t, DefaultConfig())

	rec := doRequest(s, httptest.NewRequest(http.MethodGet, "/nope", nil))

	assert.Equal(t, http.StatusNotFound, rec.Code)
	resp := decodeEnvelope(t, rec)
	assert.False(t, resp.Success)
	require.NotNil(t, resp.Error)
	assert.Equal(t, "not_found", resp.Error.Code)
}

func TestRequestIDPropagation(t *testing.T) {
	s := newTestServer(t, DefaultConfig())

	req := httptest.NewRequest(http.MethodGet, "/health", nil)
	req.Header.Set("X-Request-ID", "req-42")
	rec := doRequest(s, req)

	assert.Equal(t, "req-42", rec.Header().Get("X-Request-ID"))
}

// ══════════════════════════════════════════════════════════════════════════════
// DOMAIN ERROR MAPPING
// ══════════════════════════════════════════════════════════════════════════════

func TestWriteDomainError_StatusMapping(t *testing.T) {
	cases := []struct {
		name       string
		err        error
		wantStatus int
		wantCode   string
	}{
		{"validation", shared.NewDomainError("creature", "sync", shared.ErrValidation, "bad input"), http.StatusBadRequest, "validation_error"},
		{"insufficient balance", shared.NewDomainError("ledger", "gift", shared.ErrInsufficientBalance, "too poor"), http.StatusBadRequest, "insufficient_balance"},
		{"unauthorized", shared.NewDomainError("notification", "read", shared.ErrUnauthorized, "not yours"), http.StatusUnauthorized, "unauthorized"},
		{"dead creature", shared.NewDomainError("creature", "train", shared.ErrCreatureDead, "it died"), http.StatusForbidden, "creature_unavailable"},
		{"not found", shared.NewDomainError("creature", "get", shared.ErrNotFound, "missing"), http.StatusNotFound, "not_found"},
		{"already exists", shared.NewDomainError("creature", "register", shared.ErrAlreadyExists, "dup"), http.StatusConflict, "already_exists"},
		{"rate limited", shared.NewDomainError("training", "train", shared.ErrRateLimited, "slow down"), http.StatusTooManyRequests, "rate_limited"},
		{"upstream down", shared.NewDomainError("query", "stats", shared.ErrServiceUnavailable, "db gone"), http.StatusServiceUnavailable, "service_unavailable"},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			rec := httptest.NewRecorder()
			writeDomainError(rec, tc.err)

			assert.Equal(t, tc.wantStatus, rec.Code)
			var resp JSONResponse
			require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
			require.NotNil(t, resp.Error)
			assert.Equal(t, tc.wantCode, resp.Error.Code)
		})
	}
}

// ══════════════════════════════════════════════════════════════════════════════
// ADMIN AUTH
// ══════════════════════════════════════════════════════════════════════════════

func adminConfig(t *testing.T) Config {
	t.Helper()
	hash, err := bcrypt.GenerateFromPassword([]byte("hunter2"), bcrypt.MinCost)
	require.NoError(t, err)

	cfg := DefaultConfig()
	cfg.AdminJWTSecret = "test-secret"
	cfg.AdminUsername = "admin"
	cfg.AdminPasswordHash = string(hash)
	cfg.AdminTokenTTL = time.Hour
	return cfg
}

func loginAdmin(t *testing.T, s *Server, username, password string) *httptest.ResponseRecorder {
	t.Helper()
	body := strings.NewReader(`{"username":"` + username + `","password":"` + password + `"}`)
	req := httptest.NewRequest(http.MethodPost, "/api/v1/admin/login", body)
	return doRequest(s, req)
}

func TestAdminLogin_Success(t *testing.T) {
	s := newTestServer(t, adminConfig(t))

	rec := loginAdmin(t, s, "admin", "hunter2")

	require.Equal(t, http.StatusOK, rec.Code)
	resp := decodeEnvelope(t, rec)
	data, ok := resp.Data.(map[string]interface{})
	require.True(t, ok)
	token, _ := data["token"].(string)
	assert.NotEmpty(t, token)
	// compact JWS: header.payload.signature
	assert.Len(t, strings.Split(token, "."), 3)
}

func TestAdminLogin_WrongPassword(t *testing.T) {
	s := newTestServer(t, adminConfig(t))

	rec := loginAdmin(t, s, "admin", "wrong")

	assert.Equal(t, http.StatusUnauthorized, rec.Code)
}

func TestAdminLogin_WrongUsername(t *testing.T) {
	s := newTestServer(t, adminConfig(t))

	rec := loginAdmin(t, s, "root", "hunter2")

	assert.Equal(t, http.StatusUnauthorized, rec.Code)
}

func TestAdminLogin_NotConfigured(t *testing.T) {
	s := newTestServer(t, DefaultConfig())

	rec := loginAdmin(t, s, "admin", "hunter2")

	assert.Equal(t, http.StatusServiceUnavailable, rec.Code)
	resp := decodeEnvelope(t, rec)
	require.NotNil(t, resp.Error)
	assert.Equal(t, "admin_disabled", resp.Error.Code)
}

func TestAdminOnly_RejectsMissingToken(t *testing.T) {
	s := newTestServer(t, adminConfig(t))

	rec := doRequest(s, httptest.NewRequest(http.MethodGet, "/api/v1/admin/stats", nil))

	assert.Equal(t, http.StatusUnauthorized, rec.Code)
}

func TestAdminOnly_RejectsGarbageToken(t *testing.T) {
	s := newTestServer(t, adminConfig(t))

	req := httptest.NewRequest(http.MethodGet, "/api/v1/admin/stats", nil)
	req.Header.Set("Authorization", "Bearer not.a.jwt")
	rec := doRequest(s, req)

	assert.Equal(t, http.StatusUnauthorized, rec.Code)
}

func TestAdminOnly_AcceptsIssuedToken(t *testing.T) {
	s := newTestServer(t, adminConfig(t))

	loginRec := loginAdmin(t, s, "admin", "hunter2")
	require.Equal(t, http.StatusOK, loginRec.Code)
	resp := decodeEnvelope(t, loginRec)
	data := resp.Data.(map[string]interface{})
	token := data["token"].(string)

	req := httptest.NewRequest(http.MethodGet, "/api/v1/admin/stats", nil)
	req.Header.Set("Authorization", "Bearer "+token)
	rec := doRequest(s, req)

	// the token passes the gate; without a stats query wired the handler
	// fails further in, so anything but 401/503 means auth succeeded
	assert.NotEqual(t, http.StatusUnauthorized, rec.Code)
	assert.NotEqual(t, http.StatusServiceUnavailable, rec.Code)
}

func TestBearerToken(t *testing.T) {
	req := httptest.NewRequest(http.MethodGet, "/", nil)
	assert.Equal(t, "", bearerToken(req))

	req.Header.Set("Authorization", "Bearer abc123")
	assert.Equal(t, "abc123", bearerToken(req))

	req.Header.Set("Authorization", "bearer abc123")
	assert.Equal(t, "abc123", bearerToken(req))

	req.Header.Set("Authorization", "Basic abc123")
	assert.Equal(t, "", bearerToken(req))
}

// ══════════════════════════════════════════════════════════════════════════════
// RATE LIMITER
// ══════════════════════════════════════════════════════════════════════════════

func TestRateLimiter_BlocksOverLimit(t *testing.T) {
	rl := &rateLimiter{
		requests: make(map[string][]time.Time),
		limit:    3,
		window:   time.Minute,
	}

	assert.True(t, rl.Allow("1.2.3.4"))
	assert.True(t, rl.Allow("1.2.3.4"))
	assert.True(t, rl.Allow("1.2.3.4"))
	assert.False(t, rl.Allow("1.2.3.4"))

	// a different IP has its own budget
	assert.True(t, rl.Allow("5.6.7.8"))
}

func TestRateLimitMiddleware_Returns429(t *testing.T) {
	cfg := DefaultConfig()
	cfg.RateLimitPerMinute = 2
	s := NewServer(cfg, Dependencies{})

	var last *httptest.ResponseRecorder
	for i := 0; i < 3; i++ {
		req := httptest.NewRequest(http.MethodGet, "/health", nil)
		req.RemoteAddr = "9.9.9.9:1234"
		last = doRequest(s, req)
	}

	assert.Equal(t, http.StatusTooManyRequests, last.Code)
	assert.Equal(t, "60", last.Header().Get("Retry-After"))
}

// ══════════════════════════════════════════════════════════════════════════════
// HELPERS
// ══════════════════════════════════════════════════════════════════════════════

func TestGetClientIP(t *testing.T) {
	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.RemoteAddr = "10.0.0.1:5000"
	assert.Equal(t, "10.0.0.1", getClientIP(req))

	req.Header.Set("X-Real-IP", "2.2.2.2")
	assert.Equal(t, "2.2.2.2", getClientIP(req))

	req.Header.Set("X-Forwarded-For", "1.1.1.1, 3.3.3.3")
	assert.Equal(t, "1.1.1.1", getClientIP(req))
}

func TestGetQueryParamInt(t *testing.T) {
	req := httptest.NewRequest(http.MethodGet, "/?limit=25&bad=abc", nil)

	assert.Equal(t, 25, getQueryParamInt(req, "limit", 10))
	assert.Equal(t, 10, getQueryParamInt(req, "bad", 10))
	assert.Equal(t, 10, getQueryParamInt(req, "missing", 10))
}

func TestGetQueryParamBool(t *testing.T) {
	req := httptest.NewRequest(http.MethodGet, "/?a=true&b=1&c=yes&d=no&e=", nil)

	assert.True(t, getQueryParamBool(req, "a"))
	assert.True(t, getQueryParamBool(req, "b"))
	assert.True(t, getQueryParamBool(req, "c"))
	assert.False(t, getQueryParamBool(req, "d"))
	assert.False(t, getQueryParamBool(req, "e"))
}
