package config

import (
	"context"
	"os"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const testSecret = "test-secret-that-is-long-enough-for-prod"

func TestNew(t *testing.T) {
	tests := []struct {
		name    string
		envVars map[string]string
		wantErr bool
		check   func(*testing.T, *Config)
	}{
		{
			name: "default configuration",
			envVars: map[string]string{
				"ENVIRONMENT":     "development",
				"AUTH_JWT_SECRET": testSecret,
			},
			wantErr: false,
			check: func(t *testing.T, cfg *Config) {
				assert.Equal(t, "development", cfg.Environment)
				assert.Equal(t, "0.0.0.0", cfg.Server.Host)
				assert.Equal(t, 3000, cfg.Server.Port)
				assert.Equal(t, []string{"*"}, cfg.Server.CORSAllowedOrigins)
				assert.Equal(t, "localhost", cfg.Database.Host)
				assert.Equal(t, 5432, cfg.Database.Port)
				assert.Equal(t, "listings", cfg.Database.User)
				assert.Equal(t, time.Hour, cfg.Auth.AccessTokenTTL)
				assert.Equal(t, 5*time.Second, cfg.Auth.SessionGrace)
				assert.Equal(t, "yourapp.local", cfg.Auth.EmailDomain)
				assert.Equal(t, "images", cfg.Storage.Bucket)
				assert.Equal(t, "http://localhost:3000/storage", cfg.Storage.PublicBaseURL)
				assert.Empty(t, cfg.RateLimit.RedisAddr)
			},
		},
		{
			name: "missing jwt secret",
			envVars: map[string]string{
				"ENVIRONMENT": "development",
			},
			wantErr: true,
		},
		{
			name: "short secret rejected in production",
			envVars: map[string]string{
				"ENVIRONMENT":     "production",
				"AUTH_JWT_SECRET": "short",
			},
			wantErr: true,
		},
		{
			name: "production configuration",
			envVars: map[string]string{
				"ENVIRONMENT":     "production",
				"SERVER_PORT":     "9000",
				"DB_HOST":         "prod-db.example.com",
				"DB_PORT":         "5433",
				"AUTH_JWT_SECRET": testSecret,
			},
			wantErr: false,
			check: func(t *testing.T, cfg *Config) {
				assert.True(t, cfg.IsProduction())
				assert.False(t, cfg.IsDevelopment())
				assert.Equal(t, 9000, cfg.Server.Port)
				assert.Equal(t, "prod-db.example.com", cfg.Database.Host)
				assert.Equal(t, 5433, cfg.Database.Port)
			},
		},
		{
			name: "custom timeouts and pool settings",
			envVars: map[string]string{
				"AUTH_JWT_SECRET":      testSecret,
				"SERVER_READ_TIMEOUT":  "60s",
				"SERVER_WRITE_TIMEOUT": "90s",
				"DB_MAX_OPEN_CONNS":    "50",
				"DB_MAX_IDLE_CONNS":    "10",
			},
			wantErr: false,
			check: func(t *testing.T, cfg *Config) {
				assert.Equal(t, 60*time.Second, cfg.Server.ReadTimeout)
				assert.Equal(t, 90*time.Second, cfg.Server.WriteTimeout)
				assert.Equal(t, 50, cfg.Database.MaxOpenConns)
				assert.Equal(t, 10, cfg.Database.MaxIdleConns)
			},
		},
		{
			name: "auth overrides",
			envVars: map[string]string{
				"AUTH_JWT_SECRET":        testSecret,
				"AUTH_ACCESS_TOKEN_TTL":  "15m",
				"AUTH_REFRESH_TOKEN_TTL": "24h",
				"AUTH_SESSION_GRACE":     "2s",
				"IDENTITY_EMAIL_DOMAIN":  "listings.test",
			},
			wantErr: false,
			check: func(t *testing.T, cfg *Config) {
				assert.Equal(t, 15*time.Minute, cfg.Auth.AccessTokenTTL)
				assert.Equal(t, 24*time.Hour, cfg.Auth.RefreshTokenTTL)
				assert.Equal(t, 2*time.Second, cfg.Auth.SessionGrace)
				assert.Equal(t, "listings.test", cfg.Auth.EmailDomain)
			},
		},
		{
			name: "storage bucket falls back to SUPABASE_BUCKET",
			envVars: map[string]string{
				"AUTH_JWT_SECRET": testSecret,
				"SUPABASE_BUCKET": "listing-photos",
				"PORT":            "8080",
			},
			wantErr: false,
			check: func(t *testing.T, cfg *Config) {
				assert.Equal(t, "listing-photos", cfg.Storage.Bucket)
				assert.Equal(t, "http://localhost:8080/storage", cfg.Storage.PublicBaseURL)
			},
		},
		{
			name: "rate limit and cors",
			envVars: map[string]string{
				"AUTH_JWT_SECRET":            testSecret,
				"REDIS_ADDR":                 "redis:6379",
				"RATE_LIMIT_AUTH_PER_MINUTE": "5",
				"RATE_LIMIT_AUTH_BURST":      "2",
				"CORS_ALLOWED_ORIGINS":       "https://a.example.com, https://b.example.com,",
			},
			wantErr: false,
			check: func(t *testing.T, cfg *Config) {
				assert.Equal(t, "redis:6379", cfg.RateLimit.RedisAddr)
				assert.Equal(t, 5, cfg.RateLimit.AuthPerMinute)
				assert.Equal(t, 2, cfg.RateLimit.AuthBurst)
				assert.Equal(t, []string{"https://a.example.com", "https://b.example.com"}, cfg.Server.CORSAllowedOrigins)
			},
		},
		{
			name: "observability configuration",
			envVars: map[string]string{
				"AUTH_JWT_SECRET":     testSecret,
				"LOG_LEVEL":           "debug",
				"LOG_FORMAT":          "console",
				"METRICS_ENABLED":     "false",
				"TRACING_ENABLED":     "true",
				"TRACING_ENDPOINT":    "otel-collector:4317",
				"TRACING_SAMPLE_RATE": "0.5",
			},
			wantErr: false,
			check: func(t *testing.T, cfg *Config) {
				assert.Equal(t, "debug", cfg.Observability.LogLevel)
				assert.Equal(t, "console", cfg.Observability.LogFormat)
				assert.False(t, cfg.Observability.MetricsEnabled)
				assert.True(t, cfg.Observability.TracingEnabled)
				assert.Equal(t, "otel-collector:4317", cfg.Observability.TracingEndpoint)
				assert.Equal(t, 0.5, cfg.Observability.TracingSampleRate)
			},
		},
		{
			name: "PORT env var takes precedence over SERVER_PORT",
			envVars: map[string]string{
				"AUTH_JWT_SECRET": testSecret,
				"PORT":            "9443",
				"SERVER_PORT":     "9000",
			},
			wantErr: false,
			check: func(t *testing.T, cfg *Config) {
				assert.Equal(t, 9443, cfg.Server.Port)
			},
		},
		{
			name: "DATABASE_URL takes precedence",
			envVars: map[string]string{
				"AUTH_JWT_SECRET": testSecret,
				"DATABASE_URL":    "postgres://u:p@db.internal:6543/listings?sslmode=require",
			},
			wantErr: false,
			check: func(t *testing.T, cfg *Config) {
				assert.Equal(t, "postgres://u:p@db.internal:6543/listings?sslmode=require", cfg.Database.DSN())
				assert.Equal(t, "host=db.internal port=6543 database=listings", cfg.Database.LogString())
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			// Clear environment
			os.Clearenv()

			// Set test environment variables
			for k, v := range tt.envVars {
				os.Setenv(k, v)
			}

			cfg, err := New(context.Background())

			if tt.wantErr {
				assert.Error(t, err)
				return
			}

			require.NoError(t, err)
			require.NotNil(t, cfg)

			if tt.check != nil {
				tt.check(t, cfg)
			}
		})
	}
}

func validConfig() *Config {
	return &Config{
		Environment: "development",
		Database: DatabaseConfig{
			Host:     "localhost",
			User:     "user",
			Database: "db",
		},
		Auth: AuthConfig{
			JWTSecret:       testSecret,
			AccessTokenTTL:  time.Hour,
			RefreshTokenTTL: 24 * time.Hour,
			SessionGrace:    5 * time.Second,
		},
		Storage: StorageConfig{Bucket: "images"},
		Observability: ObservabilityConfig{
			LogLevel: "info",
		},
	}
}

func TestConfig_Validate(t *testing.T) {
	tests := []struct {
		name    string
		mutate  func(*Config)
		wantErr bool
		errMsg  string
	}{
		{
			name:    "valid development config",
			mutate:  func(*Config) {},
			wantErr: false,
		},
		{
			name:    "missing database host",
			mutate:  func(c *Config) { c.Database.Host = "" },
			wantErr: true,
			errMsg:  "database configuration required",
		},
		{
			name:    "missing database user",
			mutate:  func(c *Config) { c.Database.User = "" },
			wantErr: true,
			errMsg:  "database user is required",
		},
		{
			name:    "missing secret",
			mutate:  func(c *Config) { c.Auth.JWTSecret = "" },
			wantErr: true,
			errMsg:  "AUTH_JWT_SECRET",
		},
		{
			name:    "zero access ttl",
			mutate:  func(c *Config) { c.Auth.AccessTokenTTL = 0 },
			wantErr: true,
			errMsg:  "TTLs must be positive",
		},
		{
			name:    "negative grace",
			mutate:  func(c *Config) { c.Auth.SessionGrace = -time.Second },
			wantErr: true,
			errMsg:  "grace",
		},
		{
			name:    "missing bucket",
			mutate:  func(c *Config) { c.Storage.Bucket = "" },
			wantErr: true,
			errMsg:  "bucket",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := validConfig()
			tt.mutate(cfg)
			err := cfg.Validate()

			if tt.wantErr {
				assert.Error(t, err)
				if tt.errMsg != "" {
					assert.Contains(t, err.Error(), tt.errMsg)
				}
			} else {
				assert.NoError(t, err)
			}
		})
	}
}

func TestConfig_IsProduction(t *testing.T) {
	tests := []struct {
		name        string
		environment string
		want        bool
	}{
		{"production", "production", true},
		{"prod", "prod", true},
		{"development", "development", false},
		{"staging", "staging", false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := &Config{Environment: tt.environment}
			assert.Equal(t, tt.want, cfg.IsProduction())
		})
	}
}

func TestDatabaseConfig_DSN(t *testing.T) {
	cfg := DatabaseConfig{
		Host:     "localhost",
		Port:     5432,
		User:     "testuser",
		Password: "testpass",
		Database: "testdb",
		SSLMode:  "disable",
	}

	expected := "host=localhost port=5432 user=testuser password=testpass dbname=testdb sslmode=disable"
	assert.Equal(t, expected, cfg.DSN())
	assert.NotContains(t, cfg.LogString(), "testpass")
}

func TestServerConfig_Address(t *testing.T) {
	cfg := ServerConfig{
		Host: "0.0.0.0",
		Port: 3000,
	}

	assert.Equal(t, "0.0.0.0:3000", cfg.Address())
}

func TestGetEnvAsDuration(t *testing.T) {
	tests := []struct {
		name         string
		value        string
		defaultValue time.Duration
		want         time.Duration
	}{
		{"valid duration", "30s", 10 * time.Second, 30 * time.Second},
		{"empty value", "", 10 * time.Second, 10 * time.Second},
		{"invalid duration", "not-a-duration", 10 * time.Second, 10 * time.Second},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			os.Clearenv()
			if tt.value != "" {
				os.Setenv("TEST_DURATION", tt.value)
			}
			assert.Equal(t, tt.want, getEnvAsDuration("TEST_DURATION", tt.defaultValue))
		})
	}
}

func TestGetEnvAsList(t *testing.T) {
	os.Clearenv()
	assert.Equal(t, []string{"x"}, getEnvAsList("TEST_LIST", []string{"x"}))

	os.Setenv("TEST_LIST", " , ,")
	assert.Equal(t, []string{"x"}, getEnvAsList("TEST_LIST", []string{"x"}))

	os.Setenv("TEST_LIST", "a,b")
	assert.Equal(t, []string{"a", "b"}, getEnvAsList("TEST_LIST", nil))
}
