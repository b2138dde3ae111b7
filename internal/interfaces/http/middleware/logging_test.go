package middleware

import (
	"io"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/turtacn/MolFrag/internal/infrastructure/monitoring/logging"
	"github.com/turtacn/MolFrag/internal/infrastructure/monitoring/prometheus"
	"github.com/turtacn/MolFrag/internal/testutil"
)

func newLoggedRouter(t *testing.T, logger logging.Logger, config LoggingConfig) (http.Handler, prometheus.MetricsCollector) {
	t.Helper()
	collector, err := prometheus.NewMetricsCollector(prometheus.CollectorConfig{Namespace: "test", Subsystem: "unit"}, logging.NewNopLogger())
	require.NoError(t, err)

	r := chi.NewRouter()
	r.Use(chimw.RequestID)
	r.Use(NewLoggingMiddleware(logger, prometheus.NewAppMetrics(collector), config).Handler)
	r.Get("/healthz", func(w http.ResponseWriter, r *http.Request) { w.WriteHeader(http.StatusOK) })
	r.Get("/items/{id}", func(w http.ResponseWriter, r *http.Request) { _, _ = w.Write([]byte("item")) })
	r.Post("/bad", func(w http.ResponseWriter, r *http.Request) { w.WriteHeader(http.StatusUnprocessableEntity) })
	r.Get("/boom", func(w http.ResponseWriter, r *http.Request) { w.WriteHeader(http.StatusInternalServerError) })
	r.Get("/slow", func(w http.ResponseWriter, r *http.Request) {
		time.Sleep(20 * time.Millisecond)
		w.WriteHeader(http.StatusOK)
	})
	return r, collector
}

func serve(h http.Handler, method, path string) *httptest.ResponseRecorder {
	w := httptest.NewRecorder()
	h.ServeHTTP(w, httptest.NewRequest(method, path, nil))
	return w
}

func TestLoggingMiddleware_LevelsByStatus(t *testing.T) {
	logger := testutil.NewMockLogger()
	cfg := DefaultLoggingConfig()
	cfg.SlowThreshold = 10 * time.Millisecond
	h, _ := newLoggedRouter(t, logger, cfg)

	serve(h, http.MethodGet, "/items/7")
	serve(h, http.MethodPost, "/bad")
	serve(h, http.MethodGet, "/boom")
	serve(h, http.MethodGet, "/slow")

	msg, ok := logger.Find("info", "HTTP request completed")
	require.True(t, ok)
	status, _ := msg.Field("status")
	assert.EqualValues(t, 200, status)
	bytes, _ := msg.Field("bytes")
	assert.EqualValues(t, 4, bytes)
	reqID, _ := msg.Field("request_id")
	assert.NotEmpty(t, reqID)

	assert.True(t, logger.HasMessage("warn", "HTTP request completed with client error"))
	assert.True(t, logger.HasMessage("error", "HTTP request completed with server error"))
	assert.True(t, logger.HasMessage("warn", "HTTP request completed (slow)"))
}

func TestLoggingMiddleware_SkipsHealthChecks(t *testing.T) {
	logger := testutil.NewMockLogger()
	h, collector := newLoggedRouter(t, logger, DefaultLoggingConfig())

	serve(h, http.MethodGet, "/healthz")

	assert.Empty(t, logger.GetMessages())
	assert.NotContains(t, scrapeBody(t, collector), `path="/healthz"`)
}

func TestLoggingMiddleware_RecordsRoutePattern(t *testing.T) {
	h, collector := newLoggedRouter(t, logging.NewNopLogger(), DefaultLoggingConfig())

	serve(h, http.MethodGet, "/items/1")
	serve(h, http.MethodGet, "/items/2")
	serve(h, http.MethodGet, "/nowhere")

	body := scrapeBody(t, collector)
	assert.Contains(t, body, `test_unit_http_requests_total{method="GET",path="/items/{id}",status_code="200"} 2`)
	assert.Contains(t, body, `test_unit_http_requests_total{method="GET",path="unmatched",status_code="404"} 1`)
	assert.Contains(t, body, `test_unit_http_active_requests{method="GET"} 0`)
}

func scrapeBody(t *testing.T, c prometheus.MetricsCollector) string {
	t.Helper()
	w := serve(c.Handler(), http.MethodGet, "/metrics")
	body, err := io.ReadAll(w.Body)
	require.NoError(t, err)
	return string(body)
}

//Personal.AI order the ending
