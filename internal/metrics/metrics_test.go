package metrics

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/go-chi/chi"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCounters(t *testing.T) {
	m := New(prometheus.NewRegistry())

	m.Uploads.WithLabelValues("payment", ResultOK).Inc()
	m.Uploads.WithLabelValues("payment", ResultOK).Inc()
	m.OrphanedObjects.WithLabelValues("abstract").Inc()

	assert.Equal(t, 2.0, testutil.ToFloat64(m.Uploads.WithLabelValues("payment", ResultOK)))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.OrphanedObjects.WithLabelValues("abstract")))
	assert.Equal(t, 0.0, testutil.ToFloat64(m.Transitions.WithLabelValues("payment", "verified")))
}

func TestNew_DuplicateRegistrationPanics(t *testing.T) {
	reg := prometheus.NewRegistry()
	New(reg)
	assert.Panics(t, func() { New(reg) })
}

func TestMiddleware_UsesRoutePattern(t *testing.T) {
	reg := prometheus.NewRegistry()
	m := New(reg)

	r := chi.NewRouter()
	r.Use(m.Middleware)
	r.Post("/api/v1/admin/payments/{id}/verify", func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusConflict)
	})

	for _, id := range []string{"a", "b", "c"} {
		req := httptest.NewRequest(http.MethodPost, "/api/v1/admin/payments/"+id+"/verify", nil)
		r.ServeHTTP(httptest.NewRecorder(), req)
	}

	count, err := testutil.GatherAndCount(reg, "conference_http_request_duration_seconds")
	require.NoError(t, err)
	assert.Equal(t, 1, count, "one series for the route pattern")
}
