package api

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"

	"github.com/banshee-data/kmeans-explorer/internal/kmeans"
)

// Session identification. Browsers carry the cookie; scripted clients may
// send the header or, for the WebSocket replay, the query parameter.
const (
	SessionCookie = "kmeans_session"
	SessionHeader = "X-Session-ID"
	sessionQuery  = "session_id"
)

const maxRunBody = 64 * 1024

// RunRequest is the body of POST /api/run_kmeans. Omitted fields take the
// configured defaults.
type RunRequest struct {
	K             *int    `json:"k,omitempty"`
	MaxIterations *int    `json:"max_iter,omitempty"`
	Seed          *uint64 `json:"seed,omitempty"`
}

// UnmarshalJSON accepts k and max_iter as JSON integers or as strings holding
// an integer, so {"k": "3"} and {"k": 3} are the same request.
func (r *RunRequest) UnmarshalJSON(data []byte) error {
	var raw struct {
		K             json.RawMessage `json:"k"`
		MaxIterations json.RawMessage `json:"max_iter"`
		Seed          *uint64         `json:"seed"`
	}
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}
	k, err := lenientInt("k", raw.K)
	if err != nil {
		return err
	}
	maxIter, err := lenientInt("max_iter", raw.MaxIterations)
	if err != nil {
		return err
	}
	*r = RunRequest{K: k, MaxIterations: maxIter, Seed: raw.Seed}
	return nil
}

func lenientInt(name string, raw json.RawMessage) (*int, error) {
	if len(raw) == 0 || string(raw) == "null" {
		return nil, nil
	}
	var n int
	if err := json.Unmarshal(raw, &n); err == nil {
		return &n, nil
	}
	var s string
	if err := json.Unmarshal(raw, &s); err != nil {
		return nil, fmt.Errorf("%s must be an integer, got %s", name, raw)
	}
	n, err := strconv.Atoi(strings.TrimSpace(s))
	if err != nil {
		return nil, fmt.Errorf("%s must be an integer, got %q", name, s)
	}
	return &n, nil
}

type runParams struct {
	k             int
	maxIterations int
	seed          *uint64
}

func (s *Server) resolveRun(req RunRequest) (runParams, error) {
	p := runParams{
		k:             s.cfg.GetDefaultK(),
		maxIterations: s.cfg.GetMaxIterations(),
		seed:          req.Seed,
	}
	if req.K != nil {
		p.k = *req.K
	}
	if req.MaxIterations != nil {
		p.maxIterations = *req.MaxIterations
	}
	if limit := s.cfg.GetMaxIterationsLimit(); p.maxIterations > limit {
		return p, fmt.Errorf("%w: max_iter=%d exceeds limit %d", kmeans.ErrInvalidIterations, p.maxIterations, limit)
	}
	return p, nil
}

// decodeRunRequest reads the JSON body. An empty body means all defaults.
func decodeRunRequest(r *http.Request) (RunRequest, error) {
	var req RunRequest
	dec := json.NewDecoder(io.LimitReader(r.Body, maxRunBody))
	if err := dec.Decode(&req); err != nil && !errors.Is(err, io.EOF) {
		return req, fmt.Errorf("invalid JSON body: %w", err)
	}
	return req, nil
}

// runRequestFromQuery reads k, max_iter and seed from the query string.
func runRequestFromQuery(q url.Values) (RunRequest, error) {
	var req RunRequest
	var err error
	if req.K, err = intParam(q, "k"); err != nil {
		return req, err
	}
	if req.MaxIterations, err = intParam(q, "max_iter"); err != nil {
		return req, err
	}
	if req.Seed, err = uintParam(q, "seed"); err != nil {
		return req, err
	}
	return req, nil
}

func intParam(q url.Values, name string) (*int, error) {
	raw := q.Get(name)
	if raw == "" {
		return nil, nil
	}
	v, err := strconv.Atoi(raw)
	if err != nil {
		return nil, fmt.Errorf("invalid %s %q: must be an integer", name, raw)
	}
	return &v, nil
}

func uintParam(q url.Values, name string) (*uint64, error) {
	raw := q.Get(name)
	if raw == "" {
		return nil, nil
	}
	v, err := strconv.ParseUint(raw, 10, 64)
	if err != nil {
		return nil, fmt.Errorf("invalid %s %q: must be a non-negative integer", name, raw)
	}
	return &v, nil
}

func floatParam(q url.Values, name string) (*float64, error) {
	raw := q.Get(name)
	if raw == "" {
		return nil, nil
	}
	v, err := strconv.ParseFloat(raw, 64)
	if err != nil {
		return nil, fmt.Errorf("invalid %s %q: must be a number", name, raw)
	}
	return &v, nil
}
