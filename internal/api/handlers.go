package api

import (
	"fmt"
	"net/http"
	"time"

	"github.com/banshee-data/kmeans-explorer/internal/dataset"
	"github.com/banshee-data/kmeans-explorer/internal/httputil"
	"github.com/banshee-data/kmeans-explorer/internal/kmeans"
	"github.com/banshee-data/kmeans-explorer/internal/monitoring"
	"github.com/banshee-data/kmeans-explorer/internal/session"
)

// GenerateResponse is the body returned by /api/generate_data.
type GenerateResponse struct {
	SessionID string         `json:"session_id"`
	Seed      uint64         `json:"seed"`
	Data      []kmeans.Point `json:"data"`
}

func requestSessionID(r *http.Request) string {
	if id := r.Header.Get(SessionHeader); id != "" {
		return id
	}
	if c, err := r.Cookie(SessionCookie); err == nil && c.Value != "" {
		return c.Value
	}
	return r.URL.Query().Get(sessionQuery)
}

// lookupSession returns the caller's session, or ErrDatasetNotReady when the
// caller has none (never generated, or expired).
func (s *Server) lookupSession(r *http.Request) (*session.Session, error) {
	sess, ok := s.sessions.Get(requestSessionID(r))
	if !ok {
		return nil, session.ErrDatasetNotReady
	}
	return sess, nil
}

func (s *Server) blobConfig(r *http.Request) (dataset.BlobConfig, error) {
	q := r.URL.Query()
	cfg := dataset.DefaultBlobConfig()
	cfg.Samples = s.cfg.GetSamples()
	cfg.Centers = s.cfg.GetCenters()
	cfg.ClusterStd = s.cfg.GetClusterStd()

	samples, err := intParam(q, "n_samples")
	if err != nil {
		return cfg, err
	}
	if samples != nil {
		cfg.Samples = *samples
	}
	centers, err := intParam(q, "centers")
	if err != nil {
		return cfg, err
	}
	if centers != nil {
		cfg.Centers = *centers
	}
	std, err := floatParam(q, "cluster_std")
	if err != nil {
		return cfg, err
	}
	if std != nil {
		cfg.ClusterStd = *std
	}
	if cfg.Seed, err = uintParam(q, "seed"); err != nil {
		return cfg, err
	}

	if limit := s.cfg.GetMaxSamples(); cfg.Samples > limit {
		return cfg, fmt.Errorf("%w: n_samples=%d exceeds limit %d", dataset.ErrInvalidConfig, cfg.Samples, limit)
	}
	return cfg, nil
}

func (s *Server) handleGenerateData(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet && r.Method != http.MethodPost {
		httputil.MethodNotAllowed(w)
		return
	}

	cfg, err := s.blobConfig(r)
	if err != nil {
		httputil.WriteError(w, asClientError(err))
		return
	}
	ds, err := dataset.Generate(cfg)
	if err != nil {
		httputil.WriteError(w, err)
		return
	}

	sess, created := s.sessions.GetOrCreate(requestSessionID(r))
	sess.SetDataset(ds)
	s.metrics.ObserveDataset()
	if created {
		monitoring.Debugf("session %s created", sess.ID)
	}
	monitoring.Debugf("session %s: generated %d points around %d centers (seed %d)", sess.ID, len(ds.Points), len(ds.Centers), ds.Seed)

	http.SetCookie(w, &http.Cookie{
		Name:     SessionCookie,
		Value:    sess.ID,
		Path:     "/",
		MaxAge:   int(s.sessions.TTL().Seconds()),
		HttpOnly: true,
		SameSite: http.SameSiteLaxMode,
	})
	w.Header().Set(SessionHeader, sess.ID)
	httputil.WriteJSONOK(w, GenerateResponse{SessionID: sess.ID, Seed: ds.Seed, Data: ds.Points})
}

func (s *Server) handleRunKMeans(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		httputil.MethodNotAllowed(w)
		return
	}

	req, err := decodeRunRequest(r)
	if err != nil {
		s.metrics.ObserveRejectedRun()
		httputil.BadRequest(w, err.Error())
		return
	}
	_, run, err := s.simulate(r, req)
	if err != nil {
		httputil.WriteError(w, err)
		return
	}
	httputil.WriteJSONOK(w, run)
}

// simulate runs the clustering for the caller's session and records the
// outcome.
func (s *Server) simulate(r *http.Request, req RunRequest) ([]kmeans.Point, *kmeans.Run, error) {
	params, err := s.resolveRun(req)
	if err != nil {
		s.metrics.ObserveRejectedRun()
		return nil, nil, err
	}
	sess, err := s.lookupSession(r)
	if err != nil {
		s.metrics.ObserveRejectedRun()
		return nil, nil, err
	}
	points, err := sess.Points()
	if err != nil {
		s.metrics.ObserveRejectedRun()
		return nil, nil, err
	}

	sim := s.simulator
	if params.seed != nil {
		sim = kmeans.NewSimulator(kmeans.SimulatorConfig{
			Seed:         params.seed,
			EmptyCluster: s.cfg.GetEmptyClusterPolicy(),
		})
	}

	start := time.Now()
	run, err := sim.Simulate(points, params.k, params.maxIterations)
	if err != nil {
		s.metrics.ObserveRejectedRun()
		return nil, nil, err
	}
	elapsed := time.Since(start)
	s.metrics.ObserveRun(run.Converged, run.Len(), elapsed)
	monitoring.Debugf("session %s: k=%d ran %d iterations in %v (converged=%v)",
		sess.ID, run.K, run.Len()-1, elapsed, run.Converged)
	return points, run, nil
}

// asClientError marks query parsing failures as bad input.
func asClientError(err error) error {
	if httputil.StatusForError(err) == http.StatusBadRequest {
		return err
	}
	return fmt.Errorf("%w: %v", dataset.ErrInvalidConfig, err)
}
