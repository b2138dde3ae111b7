package http

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/turtacn/MolFrag/internal/infrastructure/monitoring/prometheus"
	"github.com/turtacn/MolFrag/internal/interfaces/http/handlers"
	"github.com/turtacn/MolFrag/internal/interfaces/http/middleware"
	"github.com/turtacn/MolFrag/internal/testutil"
	"github.com/turtacn/MolFrag/pkg/types/fragment"
)

// stubService answers every call with a fixed, empty result.
type stubService struct{}

func (stubService) Fragment(ctx context.Context, req *fragment.FragmentRequest) (*fragment.FragmentResponse, error) {
	return &fragment.FragmentResponse{ID: "stub", SMILES: req.SMILES}, nil
}

func (stubService) MaximumCuts(ctx context.Context, req *fragment.MaxCutsRequest) (*fragment.MaxCutsResponse, error) {
	return &fragment.MaxCutsResponse{SMILES: req.SMILES}, nil
}

func (stubService) EnumerateCombinations(ctx context.Context, req *fragment.CombinationsRequest) (*fragment.CombinationsResponse, error) {
	return &fragment.CombinationsResponse{SMILES: req.SMILES}, nil
}

func (stubService) FragmentBatch(ctx context.Context, req *fragment.BatchRequest) (*fragment.BatchResponse, error) {
	return &fragment.BatchResponse{}, nil
}

func newTestRouter(t *testing.T, mutate func(*RouterConfig)) http.Handler {
	t.Helper()
	collector, err := prometheus.NewMetricsCollector(prometheus.CollectorConfig{Namespace: "test", Subsystem: "router"}, nil)
	require.NoError(t, err)

	cfg := RouterConfig{
		FragmentationHandler: handlers.NewFragmentationHandler(stubService{}, nil, 0, 1<<20),
		HealthHandler:        handlers.NewHealthHandler("test", nil),
		MetricsCollector:     collector,
	}
	if mutate != nil {
		mutate(&cfg)
	}
	return NewRouter(cfg)
}

func do(h http.Handler, method, path, body string) *httptest.ResponseRecorder {
	w := httptest.NewRecorder()
	req := httptest.NewRequest(method, path, strings.NewReader(body))
	req.RemoteAddr = "10.0.0.1:1234"
	h.ServeHTTP(w, req)
	return w
}

func TestNewRouter_Routes(t *testing.T) {
	r := newTestRouter(t, nil)

	tests := []struct {
		method string
		path   string
		body   string
		want   int
	}{
		{http.MethodGet, "/healthz", "", http.StatusOK},
		{http.MethodGet, "/readyz", "", http.StatusOK},
		{http.MethodGet, "/metrics", "", http.StatusOK},
		{http.MethodPost, "/api/v1/fragmentations", `{"smiles":"CC"}`, http.StatusOK},
		{http.MethodPost, "/api/v1/fragmentations/batch", `{"requests":[{"smiles":"CC"}]}`, http.StatusOK},
		{http.MethodPost, "/api/v1/max-cuts", `{"smiles":"CC"}`, http.StatusOK},
		{http.MethodPost, "/api/v1/combinations", `{"smiles":"CC"}`, http.StatusOK},
		{http.MethodGet, "/api/v1/bond-patterns", "", http.StatusOK},
		{http.MethodGet, "/api/v1/fragmentations", "", http.StatusMethodNotAllowed},
		{http.MethodGet, "/api/v2/unknown", "", http.StatusNotFound},
	}
	for _, tt := range tests {
		t.Run(tt.method+" "+tt.path, func(t *testing.T) {
			w := do(r, tt.method, tt.path, tt.body)
			assert.Equal(t, tt.want, w.Code, w.Body.String())
		})
	}
}

func TestNewRouter_NotFoundIsJSON(t *testing.T) {
	w := do(newTestRouter(t, nil), http.MethodGet, "/nope", "")
	assert.Equal(t, "application/json", w.Header().Get("Content-Type"))
	assert.JSONEq(t, `{"code":"COMMON_005","message":"resource not found"}`, w.Body.String())
}

func TestNewRouter_NilHandlers_NoPanic(t *testing.T) {
	var r http.Handler
	require.NotPanics(t, func() { r = NewRouter(RouterConfig{}) })
	assert.Equal(t, http.StatusNotFound, do(r, http.MethodGet, "/healthz", "").Code)
	assert.Equal(t, http.StatusNotFound, do(r, http.MethodPost, "/api/v1/fragmentations", "{}").Code)
}

func TestNewRouter_RateLimitSkipsProbes(t *testing.T) {
	r := newTestRouter(t, func(c *RouterConfig) {
		rl := middleware.DefaultRateLimitConfig()
		rl.RequestsPerSecond = 0.001
		rl.BurstSize = 1
		c.RateLimitMiddleware = middleware.NewRateLimitMiddleware(rl)
	})

	assert.Equal(t, http.StatusOK, do(r, http.MethodGet, "/api/v1/bond-patterns", "").Code)
	assert.Equal(t, http.StatusTooManyRequests, do(r, http.MethodGet, "/api/v1/bond-patterns", "").Code)
	for i := 0; i < 3; i++ {
		assert.Equal(t, http.StatusOK, do(r, http.MethodGet, "/healthz", "").Code)
	}
}

func TestNewRouter_GlobalMiddleware_Applied(t *testing.T) {
	logger := testutil.NewMockLogger()
	r := newTestRouter(t, func(c *RouterConfig) {
		cors := middleware.DefaultCORSConfig()
		cors.AllowedOrigins = []string{"https://app.example.com"}
		c.CORSMiddleware = middleware.NewCORSMiddleware(cors)
		c.LoggingMiddleware = middleware.NewLoggingMiddleware(logger, nil, middleware.DefaultLoggingConfig())
	})

	req := httptest.NewRequest(http.MethodOptions, "/api/v1/fragmentations", nil)
	req.Header.Set("Origin", "https://app.example.com")
	req.Header.Set("Access-Control-Request-Method", http.MethodPost)
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	assert.Equal(t, http.StatusNoContent, w.Code)
	assert.Equal(t, "https://app.example.com", w.Header().Get("Access-Control-Allow-Origin"))

	do(r, http.MethodPost, "/api/v1/fragmentations", `{"smiles":"CC"}`)
	msg, ok := logger.Find("info", "HTTP request completed")
	require.True(t, ok)
	path, _ := msg.Field("path")
	assert.Equal(t, "/api/v1/fragmentations", path)
	reqID, ok := msg.Field("request_id")
	require.True(t, ok)
	assert.NotEmpty(t, reqID)
}

//Personal.AI order the ending
