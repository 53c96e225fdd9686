package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var configEnv = []string{
	"STORE_DRIVER", "DATABASE_URL", "JWT_SECRET_KEY", "SERVER_PORT", "BRACKET_SEED", "OTP_TTL",
	"REDIS_URL", "CORS_ALLOWED_ORIGINS", "SMTP_HOST", "SMTP_PORT", "SMTP_USER", "SMTP_PASS", "SMTP_FROM",
	"R2_ACCOUNT_ID", "R2_ACCESS_KEY_ID", "R2_SECRET_ACCESS_KEY", "R2_BUCKET_NAME", "R2_PUBLIC_BASE_URL",
	"ADMIN_NAME", "ADMIN_EMAIL", "ADMIN_PASSWORD",
}

func clearEnv(t *testing.T) {
	t.Helper()
	for _, k := range configEnv {
		t.Setenv(k, "")
	}
}

func TestLoad_Defaults(t *testing.T) {
	clearEnv(t)
	t.Setenv("DATABASE_URL", "postgres://localhost/ladder")
	t.Setenv("JWT_SECRET_KEY", "secret")

	cfg, err := Load()
	require.NoError(t, err)
	assert.Equal(t, StoreDriverPostgres, cfg.StoreDriver)
	assert.Equal(t, 8080, cfg.ServerPort)
	assert.Equal(t, 5*time.Minute, cfg.OTPTTL)
	assert.Nil(t, cfg.BracketSeed)
	assert.Equal(t, []string{"*"}, cfg.CORSAllowedOrigins)
	assert.False(t, cfg.SMTP.Enabled())
	assert.Equal(t, 587, cfg.SMTP.Port)
	assert.False(t, cfg.R2.Enabled())
	assert.Equal(t, "admin", cfg.Admin.Name)
}

func TestLoad_MemoryDriverWithOverrides(t *testing.T) {
	clearEnv(t)
	t.Setenv("STORE_DRIVER", "Memory")
	t.Setenv("JWT_SECRET_KEY", "secret")
	t.Setenv("SERVER_PORT", "9090")
	t.Setenv("BRACKET_SEED", "42")
	t.Setenv("OTP_TTL", "90s")
	t.Setenv("CORS_ALLOWED_ORIGINS", "https://a.example.com, https://b.example.com,")

	cfg, err := Load()
	require.NoError(t, err)
	assert.Equal(t, StoreDriverMemory, cfg.StoreDriver)
	assert.Empty(t, cfg.DatabaseURL)
	assert.Equal(t, 9090, cfg.ServerPort)
	require.NotNil(t, cfg.BracketSeed)
	assert.Equal(t, int64(42), *cfg.BracketSeed)
	assert.Equal(t, 90*time.Second, cfg.OTPTTL)
	assert.Equal(t, []string{"https://a.example.com", "https://b.example.com"}, cfg.CORSAllowedOrigins)
}

func TestLoad_Rejects(t *testing.T) {
	tests := []struct {
		name string
		env  map[string]string
	}{
		{"unknown driver", map[string]string{"STORE_DRIVER": "sqlite", "JWT_SECRET_KEY": "s"}},
		{"postgres without url", map[string]string{"JWT_SECRET_KEY": "s"}},
		{"missing secret", map[string]string{"STORE_DRIVER": "memory"}},
		{"port out of range", map[string]string{"STORE_DRIVER": "memory", "JWT_SECRET_KEY": "s", "SERVER_PORT": "70000"}},
		{"bad seed", map[string]string{"STORE_DRIVER": "memory", "JWT_SECRET_KEY": "s", "BRACKET_SEED": "abc"}},
		{"non-positive ttl", map[string]string{"STORE_DRIVER": "memory", "JWT_SECRET_KEY": "s", "OTP_TTL": "0s"}},
		{"partial r2", map[string]string{"STORE_DRIVER": "memory", "JWT_SECRET_KEY": "s", "R2_BUCKET_NAME": "brackets"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			clearEnv(t)
			for k, v := range tt.env {
				t.Setenv(k, v)
			}
			_, err := Load()
			assert.Error(t, err)
		})
	}
}
