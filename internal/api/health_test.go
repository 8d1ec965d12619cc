// Copyright (c) 2026 Yomira. All rights reserved.
// Author: tai.buivan.jp@gmail.com

package api_test

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/taibuivan/yomira-auth/internal/api"
)

func TestReadiness(t *testing.T) {
	logger := slog.New(slog.NewJSONHandler(&bytes.Buffer{}, nil))
	healthy := func(context.Context) error { return nil }

	tests := []struct {
		name   string
		checks []api.DependencyCheck
		want   int
		status string
	}{
		{
			name:   "AllHealthy",
			checks: []api.DependencyCheck{{Name: "postgres", Check: healthy}, {Name: "redis", Check: healthy}},
			want:   http.StatusOK,
			status: "ready",
		},
		{
			name: "RedisDown",
			checks: []api.DependencyCheck{
				{Name: "postgres", Check: healthy},
				{Name: "redis", Check: func(context.Context) error { return errors.New("connection refused") }},
			},
			want:   http.StatusServiceUnavailable,
			status: "degraded",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, readiness := api.NewHealthHandlers(tt.checks, logger)

			recorder := httptest.NewRecorder()
			readiness(recorder, httptest.NewRequest(http.MethodGet, "/ready", nil))

			assert.Equal(t, tt.want, recorder.Code)

			var body struct {
				Data struct {
					Status string `json:"status"`
					Checks []struct {
						Name string `json:"name"`
						OK   bool   `json:"ok"`
					} `json:"checks"`
				} `json:"data"`
			}
			require.NoError(t, json.Unmarshal(recorder.Body.Bytes(), &body))
			assert.Equal(t, tt.status, body.Data.Status)
			assert.Len(t, body.Data.Checks, len(tt.checks))
		})
	}
}

func TestLiveness(t *testing.T) {
	liveness, _ := api.NewHealthHandlers(nil, slog.Default())

	recorder := httptest.NewRecorder()
	liveness(recorder, httptest.NewRequest(http.MethodGet, "/health", nil))
	assert.Equal(t, http.StatusOK, recorder.Code)
}
