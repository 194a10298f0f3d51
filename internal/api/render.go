package api

import (
	"bytes"
	"fmt"
	"net/http"
	"strconv"

	"gonum.org/v1/plot/vg"

	"github.com/banshee-data/kmeans-explorer/internal/httputil"
	"github.com/banshee-data/kmeans-explorer/internal/plot"
)

// handleChart renders every snapshot of a fresh run as an echarts page.
// Query params: k, max_iter, seed (all optional).
func (s *Server) handleChart(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		httputil.MethodNotAllowed(w)
		return
	}
	req, err := runRequestFromQuery(r.URL.Query())
	if err != nil {
		httputil.BadRequest(w, err.Error())
		return
	}
	points, run, err := s.simulate(r, req)
	if err != nil {
		httputil.WriteError(w, err)
		return
	}

	o := plot.DefaultChartOptions()
	o.Title = fmt.Sprintf("K-Means k=%d", run.K)
	var buf bytes.Buffer
	if err := plot.RenderPage(&buf, points, run, o); err != nil {
		httputil.WriteJSONError(w, http.StatusInternalServerError, fmt.Sprintf("failed to render chart: %v", err))
		return
	}

	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	_, _ = w.Write(buf.Bytes())
}

// handlePlotPNG renders one snapshot of a fresh run as a PNG.
// Query params: k, max_iter, seed, iteration (default: the last snapshot).
func (s *Server) handlePlotPNG(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		httputil.MethodNotAllowed(w)
		return
	}
	q := r.URL.Query()
	req, err := runRequestFromQuery(q)
	if err != nil {
		httputil.BadRequest(w, err.Error())
		return
	}
	iteration := -1
	if raw := q.Get("iteration"); raw != "" {
		if iteration, err = strconv.Atoi(raw); err != nil || iteration < 0 {
			httputil.BadRequest(w, fmt.Sprintf("invalid iteration %q", raw))
			return
		}
	}

	points, run, err := s.simulate(r, req)
	if err != nil {
		httputil.WriteError(w, err)
		return
	}
	if iteration < 0 {
		iteration = run.Len() - 1
	}
	if iteration >= run.Len() {
		httputil.BadRequest(w, fmt.Sprintf("iteration %d out of range: run has %d snapshots", iteration, run.Len()))
		return
	}

	var buf bytes.Buffer
	if err := plot.WritePNG(&buf, points, run.Snapshots[iteration], 6*vg.Inch, 6*vg.Inch); err != nil {
		httputil.WriteJSONError(w, http.StatusInternalServerError, fmt.Sprintf("failed to render plot: %v", err))
		return
	}

	w.Header().Set("Content-Type", "image/png")
	_, _ = w.Write(buf.Bytes())
}
