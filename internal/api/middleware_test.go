package api

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"golang.org/x/time/rate"

	"github.com/banshee-data/kmeans-explorer/internal/config"
	"github.com/banshee-data/kmeans-explorer/internal/testutil"
)

func TestStatusCodeColor(t *testing.T) {
	tests := []struct {
		code int
		want string
	}{
		{200, colorBoldGreen + "200" + colorReset},
		{304, colorYellow + "304" + colorReset},
		{429, colorBoldRed + "429" + colorReset},
		{500, colorBoldRed + "500" + colorReset},
		{101, "101"},
	}
	for _, tt := range tests {
		if got := statusCodeColor(tt.code); got != tt.want {
			t.Errorf("statusCodeColor(%d) = %q, want %q", tt.code, got, tt.want)
		}
	}
}

func TestLoggingMiddleware_RecordsStatus(t *testing.T) {
	var seen int
	h := LoggingMiddleware(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusTeapot)
		seen = w.(*loggingResponseWriter).statusCode
	}))
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/", nil))
	assert.Equal(t, http.StatusTeapot, rec.Code)
	assert.Equal(t, http.StatusTeapot, seen)
}

func TestCORSMiddleware(t *testing.T) {
	h := setupTestServer(t, nil).Handler()

	req := httptest.NewRequest(http.MethodOptions, "/api/run_kmeans", nil)
	req.Header.Set("Origin", "http://localhost:3000")
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)

	testutil.AssertStatusCode(t, rec.Code, http.StatusNoContent)
	assert.Equal(t, "*", rec.Header().Get("Access-Control-Allow-Origin"))
	assert.Contains(t, rec.Header().Get("Access-Control-Allow-Methods"), "POST")
	assert.Contains(t, rec.Header().Get("Access-Control-Allow-Headers"), SessionHeader)

	rec = httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/health", nil))
	assert.Equal(t, "*", rec.Header().Get("Access-Control-Allow-Origin"))
}

func TestCORSMiddleware_SpecificOrigin(t *testing.T) {
	h := CORSMiddleware("http://explorer.local", http.NotFoundHandler())
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/", nil))
	assert.Equal(t, "http://explorer.local", rec.Header().Get("Access-Control-Allow-Origin"))
	assert.Equal(t, "true", rec.Header().Get("Access-Control-Allow-Credentials"))
}

func TestRateLimitMiddleware(t *testing.T) {
	limiter := rate.NewLimiter(rate.Limit(0.001), 1)
	h := RateLimitMiddleware(limiter, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	}))

	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/chart", nil))
	testutil.AssertStatusCode(t, rec.Code, http.StatusOK)

	rec = httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/chart", nil))
	testutil.AssertStatusCode(t, rec.Code, http.StatusTooManyRequests)
	assert.Equal(t, "1", rec.Header().Get("Retry-After"))

	for _, path := range []string{"/health", "/metrics"} {
		rec = httptest.NewRecorder()
		h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, path, nil))
		testutil.AssertStatusCode(t, rec.Code, http.StatusOK)
	}
}

func TestRateLimitMiddleware_FromConfig(t *testing.T) {
	s := setupTestServer(t, &config.ExplorerConfig{RateLimit: ptr(0.001), RateBurst: ptr(2)})
	h := s.Handler()

	codes := make([]int, 3)
	for i := range codes {
		rec := httptest.NewRecorder()
		h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/", nil))
		codes[i] = rec.Code
	}
	assert.Equal(t, []int{200, 200, 429}, codes)
}

func TestRateLimitMiddleware_NilLimiter(t *testing.T) {
	next := http.NotFoundHandler()
	h := RateLimitMiddleware(nil, next)
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/", nil))
	testutil.AssertStatusCode(t, rec.Code, http.StatusNotFound)
}

func TestCompressMiddleware(t *testing.T) {
	h := setupTestServer(t, nil).Handler()

	req := httptest.NewRequest(http.MethodGet, "/api/generate_data", nil)
	req.Header.Set("Accept-Encoding", "gzip")
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)

	testutil.AssertStatusCode(t, rec.Code, http.StatusOK)
	assert.Equal(t, "gzip", rec.Header().Get("Content-Encoding"))

	// Without Accept-Encoding the body stays plain JSON.
	rec = httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/generate_data", nil))
	assert.Empty(t, rec.Header().Get("Content-Encoding"))
	assert.Equal(t, byte('{'), rec.Body.Bytes()[0])
}

func TestRecoverMiddleware(t *testing.T) {
	h := RecoverMiddleware(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		panic("boom")
	}))
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/", nil))
	testutil.AssertStatusCode(t, rec.Code, http.StatusInternalServerError)
}
