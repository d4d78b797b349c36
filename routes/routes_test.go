package routes

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"regexp"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/upb/property-listings/app"
	"github.com/upb/property-listings/config"
	"github.com/upb/property-listings/repositories/postgres"
	"github.com/upb/property-listings/utils"
	"go.uber.org/zap/zaptest"
)

var userRowColumns = []string{"id", "username", "full_name", "role", "avatar", "last_login_at", "last_logout_at", "created_at"}

func testConfig(t *testing.T) *config.Config {
	t.Helper()
	return &config.Config{
		Environment: "test",
		Server: config.ServerConfig{
			Host:               "127.0.0.1",
			Port:               3000,
			CORSAllowedOrigins: []string{"*"},
		},
		Auth: config.AuthConfig{
			JWTSecret:       "routes-test-secret-routes-test-secret",
			Issuer:          "property-listings",
			AccessTokenTTL:  time.Hour,
			RefreshTokenTTL: 24 * time.Hour,
			SessionGrace:    5 * time.Second,
			EmailDomain:     "yourapp.local",
			BcryptCost:      4,
		},
		Storage: config.StorageConfig{
			Dir:            t.TempDir(),
			Bucket:         "images",
			PublicBaseURL:  "http://localhost:3000/storage",
			MaxUploadBytes: 1 << 20,
		},
		RateLimit: config.RateLimitConfig{AuthPerMinute: 30, AuthBurst: 10},
		Observability: config.ObservabilityConfig{
			LogLevel:       "error",
			LogFormat:      "json",
			MetricsEnabled: true,
		},
	}
}

func newTestServer(t *testing.T) (*app.Dependencies, sqlmock.Sqlmock, *httptest.Server) {
	t.Helper()
	sqlDB, mock, err := sqlmock.New(sqlmock.MonitorPingsOption(true))
	require.NoError(t, err)
	t.Cleanup(func() { sqlDB.Close() })

	logger := zaptest.NewLogger(t)
	factory := postgres.NewRepositoryFactoryFromDB(postgres.WrapDB(sqlDB, logger), logger)

	deps, err := app.NewDependenciesWithFactory(t.Context(), testConfig(t), logger, factory)
	require.NoError(t, err)

	ts := httptest.NewServer(SetupRoutes(deps))
	t.Cleanup(ts.Close)
	return deps, mock, ts
}

func get(t *testing.T, url, token string) (*http.Response, utils.ErrorResponse) {
	t.Helper()
	req, err := http.NewRequest(http.MethodGet, url, nil)
	require.NoError(t, err)
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	resp, err := http.DefaultClient.Do(req)
	require.NoError(t, err)
	t.Cleanup(func() { resp.Body.Close() })

	var body utils.ErrorResponse
	if resp.Header.Get("Content-Type") == "application/json" {
		require.NoError(t, json.NewDecoder(resp.Body).Decode(&body))
	}
	return resp, body
}

func TestHealthEndpoints(t *testing.T) {
	_, mock, ts := newTestServer(t)

	t.Run("health check returns ok", func(t *testing.T) {
		resp, _ := get(t, ts.URL+"/healthz", "")
		assert.Equal(t, http.StatusOK, resp.StatusCode)
	})

	t.Run("readiness pings the database", func(t *testing.T) {
		mock.ExpectPing()
		mock.ExpectQuery("SELECT 1").WillReturnRows(sqlmock.NewRows([]string{"1"}).AddRow(1))

		resp, _ := get(t, ts.URL+"/readyz", "")
		assert.Equal(t, http.StatusOK, resp.StatusCode)
		assert.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("metrics are exposed", func(t *testing.T) {
		resp, _ := get(t, ts.URL+"/metrics", "")
		assert.Equal(t, http.StatusOK, resp.StatusCode)
	})

	t.Run("unknown route", func(t *testing.T) {
		resp, body := get(t, ts.URL+"/nope", "")
		assert.Equal(t, http.StatusNotFound, resp.StatusCode)
		assert.Equal(t, "not_found", body.Error)
	})
}

func TestSessionGuard(t *testing.T) {
	deps, mock, ts := newTestServer(t)
	userID := uuid.New()
	created := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)

	pair, err := deps.Tokens.IssuePair(userID, "alice@yourapp.local")
	require.NoError(t, err)

	t.Run("missing header", func(t *testing.T) {
		resp, body := get(t, ts.URL+"/api/listings", "")
		assert.Equal(t, http.StatusUnauthorized, resp.StatusCode)
		assert.Equal(t, "Unauthorized", body.Message)
	})

	t.Run("garbage token", func(t *testing.T) {
		resp, body := get(t, ts.URL+"/api/test", "not-a-jwt")
		assert.Equal(t, http.StatusUnauthorized, resp.StatusCode)
		assert.Equal(t, "Invalid token", body.Message)
	})

	t.Run("refresh token is not an access token", func(t *testing.T) {
		resp, body := get(t, ts.URL+"/api/test", pair.RefreshToken)
		assert.Equal(t, http.StatusUnauthorized, resp.StatusCode)
		assert.Equal(t, "Invalid token", body.Message)
	})

	t.Run("fresh token passes", func(t *testing.T) {
		mock.ExpectQuery(regexp.QuoteMeta("FROM users WHERE id = $1")).
			WillReturnRows(sqlmock.NewRows(userRowColumns).
				AddRow(userID.String(), "alice", "Alice", "user", nil, time.Now().UTC(), nil, created))

		resp, _ := get(t, ts.URL+"/api/test", pair.AccessToken)
		assert.Equal(t, http.StatusOK, resp.StatusCode)
		assert.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("token issued before logout is rejected", func(t *testing.T) {
		mock.ExpectQuery(regexp.QuoteMeta("FROM users WHERE id = $1")).
			WillReturnRows(sqlmock.NewRows(userRowColumns).
				AddRow(userID.String(), "alice", "Alice", "user", nil, nil, time.Now().UTC().Add(time.Minute), created))

		resp, body := get(t, ts.URL+"/api/test", pair.AccessToken)
		assert.Equal(t, http.StatusUnauthorized, resp.StatusCode)
		assert.Equal(t, "Token expired", body.Message)
	})

	t.Run("unknown subject", func(t *testing.T) {
		mock.ExpectQuery(regexp.QuoteMeta("FROM users WHERE id = $1")).
			WillReturnRows(sqlmock.NewRows(userRowColumns))

		resp, body := get(t, ts.URL+"/api/test", pair.AccessToken)
		assert.Equal(t, http.StatusUnauthorized, resp.StatusCode)
		assert.Equal(t, "User not found", body.Message)
	})

	t.Run("role outside the allow-list", func(t *testing.T) {
		mock.ExpectQuery(regexp.QuoteMeta("FROM users WHERE id = $1")).
			WillReturnRows(sqlmock.NewRows(userRowColumns).
				AddRow(userID.String(), "alice", "Alice", "guest", nil, nil, nil, created))

		resp, body := get(t, ts.URL+"/api/test", pair.AccessToken)
		assert.Equal(t, http.StatusForbidden, resp.StatusCode)
		assert.Equal(t, "Forbidden", body.Message)
	})
}

func TestStorageRoute(t *testing.T) {
	deps, _, ts := newTestServer(t)

	dir := filepath.Join(deps.Config.Storage.Dir, "images")
	require.NoError(t, os.MkdirAll(dir, 0o755))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "1_front.jpg"), []byte("jpeg"), 0o644))

	resp, _ := get(t, ts.URL+"/storage/images/1_front.jpg", "")
	assert.Equal(t, http.StatusOK, resp.StatusCode)

	resp, _ = get(t, ts.URL+"/storage/images/missing.jpg", "")
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)
}
