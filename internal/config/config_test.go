package config

import (
	"log/slog"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func setRequired(t *testing.T) {
	t.Setenv("DB_PASSWORD", "secret")
	t.Setenv("JWT_SECRET_KEY", "jwt-secret")
}

func TestLoad_Defaults(t *testing.T) {
	setRequired(t)

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, 5432, cfg.Database.Port)
	assert.Equal(t, 8080, cfg.App.Port)
	assert.Equal(t, 30*time.Minute, cfg.Attendance.GracePeriod)
	assert.Equal(t, 15*time.Minute, cfg.Attendance.SweepInterval)
	assert.Equal(t, "Asia/Ho_Chi_Minh", cfg.Attendance.Location.String())
	assert.Equal(t, []string{"http://localhost:3000"}, cfg.CORS.AllowedOrigins)
	assert.False(t, cfg.IPWhitelist.Enabled)
	assert.True(t, cfg.IPWhitelist.AllowLocalhost)
	assert.Equal(t, slog.LevelInfo, cfg.LogLevel())
}

func TestLoad_Overrides(t *testing.T) {
	setRequired(t)
	t.Setenv("APP_TIMEZONE", "UTC")
	t.Setenv("ATTENDANCE_GRACE_MINUTES", "45")
	t.Setenv("ATTENDANCE_SWEEP_INTERVAL", "5m")
	t.Setenv("IP_WHITELIST_ENABLED", "true")
	t.Setenv("IP_WHITELIST", "10.0.0.0/8, 192.168.1.*")
	t.Setenv("LOG_LEVEL", "debug")

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, time.UTC, cfg.Attendance.Location)
	assert.Equal(t, 45*time.Minute, cfg.Attendance.GracePeriod)
	assert.Equal(t, 5*time.Minute, cfg.Attendance.SweepInterval)
	assert.True(t, cfg.IPWhitelist.Enabled)
	assert.Equal(t, []string{"10.0.0.0/8", "192.168.1.*"}, cfg.IPWhitelist.Entries)
	assert.Equal(t, slog.LevelDebug, cfg.LogLevel())
}

func TestLoad_Invalid(t *testing.T) {
	cases := map[string]map[string]string{
		"missing password":   {"DB_PASSWORD": "", "JWT_SECRET_KEY": "x"},
		"missing jwt":        {"DB_PASSWORD": "x", "JWT_SECRET_KEY": ""},
		"bad timezone":       {"APP_TIMEZONE": "Mars/Olympus"},
		"bad grace":          {"ATTENDANCE_GRACE_MINUTES": "soon"},
		"bad port":           {"DB_PORT": "db"},
		"interval too short": {"ATTENDANCE_SWEEP_INTERVAL": "10s"},
	}
	for name, env := range cases {
		t.Run(name, func(t *testing.T) {
			setRequired(t)
			for k, v := range env {
				t.Setenv(k, v)
			}
			_, err := Load()
			assert.Error(t, err)
		})
	}
}

func TestDatabaseURL(t *testing.T) {
	cfg := &Config{Database: DatabaseConfig{
		Host: "db", Port: 5433, User: "app", Password: "p@ss", Name: "attendance", SSLMode: "require",
	}}
	assert.Equal(t, "postgres://app:p%40ss@db:5433/attendance?sslmode=require", cfg.DatabaseURL())
}
