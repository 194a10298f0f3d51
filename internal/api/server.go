// Package api serves the K-Means explorer over HTTP: dataset generation,
// step-recorded clustering runs, rendered charts and a replay stream.
package api

import (
	"net/http"
	"sync"
	"time"

	"github.com/gorilla/websocket"
	"golang.org/x/time/rate"

	"github.com/banshee-data/kmeans-explorer/internal/config"
	"github.com/banshee-data/kmeans-explorer/internal/httputil"
	"github.com/banshee-data/kmeans-explorer/internal/kmeans"
	"github.com/banshee-data/kmeans-explorer/internal/monitoring"
	"github.com/banshee-data/kmeans-explorer/internal/session"
	"github.com/banshee-data/kmeans-explorer/internal/version"
)

type Server struct {
	cfg       *config.ExplorerConfig
	sessions  *session.Store
	metrics   *monitoring.Metrics
	simulator *kmeans.Simulator
	limiter   *rate.Limiter
	upgrader  websocket.Upgrader
	startedAt time.Time

	closeOnce sync.Once
	closing   chan struct{}
}

// NewServer wires a server around a session store. A nil cfg uses the
// built-in defaults; a nil metrics gets a private registry.
func NewServer(cfg *config.ExplorerConfig, sessions *session.Store, metrics *monitoring.Metrics) *Server {
	if cfg == nil {
		cfg = &config.ExplorerConfig{}
	}
	if metrics == nil {
		metrics = monitoring.NewMetrics(func() float64 { return float64(sessions.Len()) })
	}

	s := &Server{
		cfg:       cfg,
		sessions:  sessions,
		metrics:   metrics,
		simulator: kmeans.NewSimulator(kmeans.SimulatorConfig{EmptyCluster: cfg.GetEmptyClusterPolicy()}),
		startedAt: time.Now(),
		closing:   make(chan struct{}),
	}
	if limit := cfg.GetRateLimit(); limit > 0 {
		s.limiter = rate.NewLimiter(rate.Limit(limit), cfg.GetRateBurst())
	}

	origin := cfg.GetAllowedOrigin()
	s.upgrader = websocket.Upgrader{
		CheckOrigin: func(r *http.Request) bool {
			return origin == "*" || r.Header.Get("Origin") == "" || r.Header.Get("Origin") == origin
		},
	}
	return s
}

// Close ends in-flight replay streams. http.Server.Shutdown does not wait for
// hijacked connections, so call Close before it.
func (s *Server) Close() {
	s.closeOnce.Do(func() { close(s.closing) })
}

// Metrics returns the collectors the server records into.
func (s *Server) Metrics() *monitoring.Metrics {
	return s.metrics
}

func (s *Server) ServeMux() *http.ServeMux {
	mux := http.NewServeMux()
	mux.HandleFunc("/", s.handleIndex)
	mux.HandleFunc("/health", s.handleHealth)
	mux.HandleFunc("/api/generate_data", s.handleGenerateData)
	mux.HandleFunc("/api/run_kmeans", s.handleRunKMeans)
	mux.HandleFunc("/api/chart", s.handleChart)
	mux.HandleFunc("/api/plot.png", s.handlePlotPNG)
	mux.HandleFunc("/api/replay", s.handleReplay)
	mux.Handle("/metrics", s.metrics.Handler())
	return mux
}

// Handler returns the mux wrapped in the full middleware chain.
func (s *Server) Handler() http.Handler {
	var h http.Handler = s.ServeMux()
	h = CompressMiddleware(h)
	h = RateLimitMiddleware(s.limiter, h)
	h = CORSMiddleware(s.cfg.GetAllowedOrigin(), h)
	h = RecoverMiddleware(h)
	return LoggingMiddleware(h)
}

var endpoints = []string{
	"GET /health",
	"GET|POST /api/generate_data",
	"POST /api/run_kmeans",
	"GET /api/chart",
	"GET /api/plot.png",
	"GET /api/replay",
	"GET /metrics",
}

func (s *Server) handleIndex(w http.ResponseWriter, r *http.Request) {
	if r.URL.Path != "/" {
		httputil.WriteJSONError(w, http.StatusNotFound, "not found")
		return
	}
	if r.Method != http.MethodGet {
		httputil.MethodNotAllowed(w)
		return
	}
	httputil.WriteJSONOK(w, map[string]interface{}{
		"service":   "kmeans-explorer",
		"build":     version.Get(),
		"endpoints": endpoints,
	})
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	httputil.WriteJSONOK(w, map[string]interface{}{
		"status":   "ok",
		"uptime":   time.Since(s.startedAt).Round(time.Second).String(),
		"sessions": s.sessions.Len(),
	})
}
