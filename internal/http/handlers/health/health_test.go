package health

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newNoopLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, &slog.HandlerOptions{}))
}

func TestHealthHandler(t *testing.T) {
	ok := func(context.Context) error { return nil }
	fail := func(context.Context) error { return errors.New("connection refused") }

	tests := []struct {
		name       string
		checks     map[string]Check
		wantStatus int
		wantData   map[string]any
	}{
		{
			name:       "no dependencies",
			wantStatus: http.StatusOK,
			wantData:   map[string]any{"status": "ok"},
		},
		{
			name:       "all ready",
			checks:     map[string]Check{"postgres": ok, "redis": ok},
			wantStatus: http.StatusOK,
			wantData:   map[string]any{"status": "ok", "postgres": "ok", "redis": "ok"},
		},
		{
			name:       "redis down",
			checks:     map[string]Check{"postgres": ok, "redis": fail},
			wantStatus: http.StatusServiceUnavailable,
			wantData:   map[string]any{"status": "degraded", "postgres": "ok", "redis": "unavailable"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := httptest.NewRecorder()
			New(newNoopLogger(), tt.checks).ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/health", nil))

			assert.Equal(t, tt.wantStatus, rec.Code)
			var got struct {
				Data map[string]any `json:"data"`
			}
			require.NoError(t, json.NewDecoder(rec.Body).Decode(&got))
			assert.Equal(t, tt.wantData, got.Data)
		})
	}
}
