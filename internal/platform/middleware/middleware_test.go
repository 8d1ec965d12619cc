// Copyright (c) 2026 Yomira. All rights reserved.
// Author: tai.buivan.jp@gmail.com

package middleware

import (
	"bytes"
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"net/netip"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/taibuivan/yomira-auth/internal/platform/constants"
	"github.com/taibuivan/yomira-auth/internal/platform/sec"
)

var okHandler = http.HandlerFunc(func(writer http.ResponseWriter, _ *http.Request) {
	writer.WriteHeader(http.StatusOK)
})

type staticConfig struct {
	development bool
	origins     []string
}

func (cfg staticConfig) IsDevelopment() bool      { return cfg.development }
func (cfg staticConfig) AllowedOrigins() []string { return cfg.origins }

func newTokens(t *testing.T) *sec.TokenService {
	t.Helper()
	tokens, err := sec.NewTokenService("0123456789abcdef0123456789abcdef", "yomira-test", time.Minute, time.Hour)
	require.NoError(t, err)
	return tokens
}

func TestRateLimit(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	handler := RateLimit(ctx, 0.001, 2)(okHandler)

	codes := make([]int, 0, 3)
	for range 3 {
		request := httptest.NewRequest(http.MethodPost, "/signIn", nil)
		request.RemoteAddr = "203.0.113.7:40100"
		recorder := httptest.NewRecorder()
		handler.ServeHTTP(recorder, request)
		codes = append(codes, recorder.Code)
	}
	assert.Equal(t, []int{http.StatusOK, http.StatusOK, http.StatusTooManyRequests}, codes)

	// Another client has its own bucket
	request := httptest.NewRequest(http.MethodPost, "/signIn", nil)
	request.RemoteAddr = "203.0.113.8:40100"
	recorder := httptest.NewRecorder()
	handler.ServeHTTP(recorder, request)
	assert.Equal(t, http.StatusOK, recorder.Code)
}

func TestRateLimit_IgnoresForgedForwardingHeaders(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	handler := ClientAddress(nil)(RateLimit(ctx, 0.001, 1)(okHandler))

	limited := 0
	for i := range 50 {
		request := httptest.NewRequest(http.MethodPost, "/signIn", nil)
		request.RemoteAddr = "203.0.113.7:40100"
		request.Header.Set(constants.HeaderXForwardedFor, fmt.Sprintf("198.51.100.%d", i))
		request.Header.Set(constants.HeaderXRealIP, fmt.Sprintf("192.0.2.%d", i))
		recorder := httptest.NewRecorder()
		handler.ServeHTTP(recorder, request)
		if recorder.Code == http.StatusTooManyRequests {
			limited++
		}
	}
	assert.Equal(t, 49, limited)
}

func TestClientAddress(t *testing.T) {
	trusted := []netip.Prefix{netip.MustParsePrefix("10.0.0.0/8")}

	tests := []struct {
		name      string
		remote    string
		forwarded string
		realIP    string
		want      string
	}{
		{"untrusted_peer_ignores_headers", "203.0.113.7:1234", "198.51.100.1", "198.51.100.2", "203.0.113.7"},
		{"trusted_peer_forwarded", "10.0.0.5:1234", "198.51.100.1", "", "198.51.100.1"},
		{"rightmost_untrusted_hop_wins", "10.0.0.5:1234", "192.0.2.66, 198.51.100.1, 10.0.0.9", "", "198.51.100.1"},
		{"all_hops_trusted", "10.0.0.5:1234", "10.1.1.1, 10.0.0.9", "", "10.1.1.1"},
		{"garbage_hop_stops_walk", "10.0.0.5:1234", "not-an-ip, 10.0.0.9", "", "10.0.0.9"},
		{"trusted_peer_real_ip", "10.0.0.5:1234", "", "198.51.100.3", "198.51.100.3"},
		{"trusted_peer_no_headers", "10.0.0.5:1234", "", "", "10.0.0.5"},
		{"ipv4_mapped_peer", "[::ffff:10.0.0.5]:1234", "198.51.100.1", "", "198.51.100.1"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var got string
			handler := ClientAddress(trusted)(http.HandlerFunc(func(_ http.ResponseWriter, request *http.Request) {
				got = RealIP(request)
			}))

			request := httptest.NewRequest(http.MethodGet, "/", nil)
			request.RemoteAddr = tt.remote
			if tt.forwarded != "" {
				request.Header.Set(constants.HeaderXForwardedFor, tt.forwarded)
			}
			if tt.realIP != "" {
				request.Header.Set(constants.HeaderXRealIP, tt.realIP)
			}
			handler.ServeHTTP(httptest.NewRecorder(), request)

			assert.Equal(t, tt.want, got)
		})
	}
}

func TestRealIP_WithoutClientAddress(t *testing.T) {
	request := httptest.NewRequest(http.MethodGet, "/", nil)
	request.RemoteAddr = "203.0.113.7:1234"
	request.Header.Set(constants.HeaderXRealIP, "198.51.100.1")

	assert.Equal(t, "203.0.113.7", RealIP(request))
}

func TestCORS(t *testing.T) {
	cfg := staticConfig{origins: []string{"https://yomira.app/", ".yomira.dev"}}
	handler := CORS(cfg)(okHandler)

	tests := []struct {
		origin  string
		allowed bool
	}{
		{"https://yomira.app", true},
		{"https://preview.yomira.dev", true},
		{"https://evil.example", false},
		{"https://yomira.app.evil.example", false},
	}

	for _, tt := range tests {
		t.Run(tt.origin, func(t *testing.T) {
			request := httptest.NewRequest(http.MethodGet, "/", nil)
			request.Header.Set(constants.HeaderOrigin, tt.origin)
			recorder := httptest.NewRecorder()
			handler.ServeHTTP(recorder, request)

			if tt.allowed {
				assert.Equal(t, tt.origin, recorder.Header().Get("Access-Control-Allow-Origin"))
			} else {
				assert.Empty(t, recorder.Header().Get("Access-Control-Allow-Origin"))
			}
		})
	}

	t.Run("DevelopmentAllowsAny", func(t *testing.T) {
		request := httptest.NewRequest(http.MethodOptions, "/", nil)
		request.Header.Set(constants.HeaderOrigin, "http://localhost:5173")
		recorder := httptest.NewRecorder()
		CORS(staticConfig{development: true})(okHandler).ServeHTTP(recorder, request)

		assert.Equal(t, http.StatusNoContent, recorder.Code)
		assert.Equal(t, "http://localhost:5173", recorder.Header().Get("Access-Control-Allow-Origin"))
	})
}

func TestAuthenticate(t *testing.T) {
	tokens := newTokens(t)
	protected := Authenticate(tokens)(RequireAuth(okHandler))
	adminOnly := Authenticate(tokens)(RequireRole(sec.RoleAdmin)(okHandler))

	access, err := tokens.CreateAccessToken("member@example.com", sec.RoleUser)
	require.NoError(t, err)
	refresh, err := tokens.CreateRefreshToken("member@example.com", "key")
	require.NoError(t, err)

	tests := []struct {
		name    string
		handler http.Handler
		header  string
		want    int
	}{
		{"Anonymous", protected, "", http.StatusUnauthorized},
		{"MalformedHeader", protected, "Token " + access, http.StatusUnauthorized},
		{"RefreshTokenRejected", protected, "Bearer " + refresh, http.StatusUnauthorized},
		{"AccessToken", protected, "Bearer " + access, http.StatusOK},
		{"LowercaseScheme", protected, "bearer " + access, http.StatusOK},
		{"InsufficientRole", adminOnly, "Bearer " + access, http.StatusForbidden},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			request := httptest.NewRequest(http.MethodGet, "/", nil)
			if tt.header != "" {
				request.Header.Set(constants.HeaderAuthorization, tt.header)
			}
			recorder := httptest.NewRecorder()
			tt.handler.ServeHTTP(recorder, request)
			assert.Equal(t, tt.want, recorder.Code)
		})
	}
}

func TestStructuredLogger_RoleWithoutEmail(t *testing.T) {
	tokens := newTokens(t)
	access, err := tokens.CreateAccessToken("member@example.com", sec.RoleModerator)
	require.NoError(t, err)

	var logs bytes.Buffer
	logger := slog.New(slog.NewJSONHandler(&logs, nil))

	handler := RequestID()(StructuredLogger(logger)(Authenticate(tokens)(okHandler)))

	request := httptest.NewRequest(http.MethodGet, "/password-status", nil)
	request.Header.Set(constants.HeaderAuthorization, "Bearer "+access)
	recorder := httptest.NewRecorder()
	handler.ServeHTTP(recorder, request)

	assert.NotEmpty(t, recorder.Header().Get(constants.HeaderXRequestID))
	assert.Contains(t, logs.String(), "http_request_finished")
	assert.Contains(t, logs.String(), string(sec.RoleModerator))
	assert.NotContains(t, logs.String(), "member@example.com")
}
