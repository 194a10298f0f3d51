package api

import (
	"errors"
	"net/http"
	"time"

	"github.com/gorilla/websocket"

	"github.com/banshee-data/kmeans-explorer/internal/httputil"
	"github.com/banshee-data/kmeans-explorer/internal/kmeans"
	"github.com/banshee-data/kmeans-explorer/internal/monitoring"
)

// ReplayDone is the final message of a replay stream.
type ReplayDone struct {
	Done      bool `json:"done"`
	Converged bool `json:"converged"`
	Steps     int  `json:"steps"`
}

const replayWriteTimeout = 5 * time.Second

var (
	errServerClosing = errors.New("server closing")
	errClientGone    = errors.New("client disconnected")
)

// handleReplay runs a simulation and streams its snapshots over a WebSocket,
// one per replay interval, so a client can animate the run as it arrives.
// Query params: k, max_iter, seed, session_id.
func (s *Server) handleReplay(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		httputil.MethodNotAllowed(w)
		return
	}
	req, err := runRequestFromQuery(r.URL.Query())
	if err != nil {
		httputil.BadRequest(w, err.Error())
		return
	}
	// Errors are reported as plain HTTP before the upgrade.
	_, run, err := s.simulate(r, req)
	if err != nil {
		httputil.WriteError(w, err)
		return
	}

	conn, err := s.upgrader.Upgrade(w, r, nil)
	if err != nil {
		monitoring.Logf("replay upgrade failed: %v", err)
		return
	}
	defer conn.Close()

	if err := s.streamRun(r, conn, run); err != nil {
		monitoring.Debugf("replay stopped: %v", err)
		return
	}
	_ = conn.WriteControl(websocket.CloseMessage,
		websocket.FormatCloseMessage(websocket.CloseNormalClosure, "done"),
		time.Now().Add(replayWriteTimeout))
}

func (s *Server) streamRun(r *http.Request, conn *websocket.Conn, run *kmeans.Run) error {
	ctx := r.Context()
	ticker := time.NewTicker(s.cfg.GetReplayInterval())
	defer ticker.Stop()

	// The client never sends data; reading only surfaces its close frame.
	gone := make(chan struct{})
	go func() {
		defer close(gone)
		for {
			if _, _, err := conn.NextReader(); err != nil {
				return
			}
		}
	}()

	for i, snap := range run.Snapshots {
		if i > 0 {
			select {
			case <-ctx.Done():
				return ctx.Err()
			case <-s.closing:
				return errServerClosing
			case <-gone:
				return errClientGone
			case <-ticker.C:
			}
		}
		if err := writeJSONMessage(conn, snap); err != nil {
			return err
		}
	}
	return writeJSONMessage(conn, ReplayDone{Done: true, Converged: run.Converged, Steps: run.Len()})
}

func writeJSONMessage(conn *websocket.Conn, v interface{}) error {
	if err := conn.SetWriteDeadline(time.Now().Add(replayWriteTimeout)); err != nil {
		return err
	}
	return conn.WriteJSON(v)
}
