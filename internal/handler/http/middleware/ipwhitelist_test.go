package middleware

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/cmlabs-hris/hris-attendance/internal/config"
	"github.com/stretchr/testify/assert"
)

func serveFrom(t *testing.T, cfg config.IPWhitelistConfig, remoteAddr string) int {
	t.Helper()

	handler := IPWhitelist(cfg)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNoContent)
	}))

	req := httptest.NewRequest(http.MethodPost, "/api/v1/attendance/check-in", nil)
	req.RemoteAddr = remoteAddr
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)
	return rec.Code
}

func TestIPWhitelist(t *testing.T) {
	cfg := config.IPWhitelistConfig{
		Enabled: true,
		Entries: []string{"203.0.113.7", "10.0.0.0/24", "192.168.1.*", "not-an-ip"},
	}

	tests := []struct {
		name       string
		cfg        config.IPWhitelistConfig
		remoteAddr string
		want       int
	}{
		{name: "disabled lets everything through", cfg: config.IPWhitelistConfig{}, remoteAddr: "198.51.100.1:5000", want: http.StatusNoContent},
		{name: "exact address", cfg: cfg, remoteAddr: "203.0.113.7:41234", want: http.StatusNoContent},
		{name: "bare address after RealIP", cfg: cfg, remoteAddr: "203.0.113.7", want: http.StatusNoContent},
		{name: "ipv4-mapped address", cfg: cfg, remoteAddr: "[::ffff:203.0.113.7]:80", want: http.StatusNoContent},
		{name: "inside cidr", cfg: cfg, remoteAddr: "10.0.0.200:80", want: http.StatusNoContent},
		{name: "outside cidr", cfg: cfg, remoteAddr: "10.0.1.1:80", want: http.StatusForbidden},
		{name: "wildcard octet", cfg: cfg, remoteAddr: "192.168.1.42:80", want: http.StatusNoContent},
		{name: "wildcard mismatch", cfg: cfg, remoteAddr: "192.168.2.42:80", want: http.StatusForbidden},
		{name: "unknown address", cfg: cfg, remoteAddr: "198.51.100.1:80", want: http.StatusForbidden},
		{name: "localhost denied by default", cfg: cfg, remoteAddr: "127.0.0.1:80", want: http.StatusForbidden},
		{
			name:       "localhost allowed when enabled",
			cfg:        config.IPWhitelistConfig{Enabled: true, AllowLocalhost: true},
			remoteAddr: "[::1]:80",
			want:       http.StatusNoContent,
		},
		{name: "garbage remote address", cfg: cfg, remoteAddr: "somewhere", want: http.StatusForbidden},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, serveFrom(t, tt.cfg, tt.remoteAddr))
		})
	}
}
