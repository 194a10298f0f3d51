package httputil

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/banshee-data/kmeans-explorer/internal/dataset"
	"github.com/banshee-data/kmeans-explorer/internal/kmeans"
	"github.com/banshee-data/kmeans-explorer/internal/monitoring"
	"github.com/banshee-data/kmeans-explorer/internal/session"
)

func decodeError(t *testing.T, rec *httptest.ResponseRecorder) string {
	t.Helper()
	var resp map[string]string
	if err := json.NewDecoder(rec.Body).Decode(&resp); err != nil {
		t.Fatalf("failed to decode response: %v", err)
	}
	return resp["error"]
}

func TestWriteJSON(t *testing.T) {
	t.Parallel()

	rec := httptest.NewRecorder()
	WriteJSON(rec, http.StatusCreated, map[string]int{"k": 3})

	if rec.Code != http.StatusCreated {
		t.Errorf("status = %d, want %d", rec.Code, http.StatusCreated)
	}
	if ct := rec.Header().Get("Content-Type"); ct != "application/json" {
		t.Errorf("content-type = %s, want application/json", ct)
	}
	var resp map[string]int
	if err := json.NewDecoder(rec.Body).Decode(&resp); err != nil {
		t.Fatalf("failed to decode response: %v", err)
	}
	if resp["k"] != 3 {
		t.Errorf("k = %d, want 3", resp["k"])
	}
}

func TestWriteJSONOK(t *testing.T) {
	t.Parallel()

	rec := httptest.NewRecorder()
	WriteJSONOK(rec, []int{1, 2})
	if rec.Code != http.StatusOK {
		t.Errorf("status = %d, want 200", rec.Code)
	}
}

func TestErrorHelpers(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name   string
		write  func(w http.ResponseWriter)
		status int
		msg    string
	}{
		{"json error", func(w http.ResponseWriter) { WriteJSONError(w, http.StatusTeapot, "short and stout") }, http.StatusTeapot, "short and stout"},
		{"bad request", func(w http.ResponseWriter) { BadRequest(w, "invalid k") }, http.StatusBadRequest, "invalid k"},
		{"method not allowed", MethodNotAllowed, http.StatusMethodNotAllowed, "method not allowed"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := httptest.NewRecorder()
			tt.write(rec)
			if rec.Code != tt.status {
				t.Errorf("status = %d, want %d", rec.Code, tt.status)
			}
			if got := decodeError(t, rec); got != tt.msg {
				t.Errorf("error = %q, want %q", got, tt.msg)
			}
		})
	}
}

func TestStatusForError(t *testing.T) {
	t.Parallel()

	tests := []struct {
		err  error
		want int
	}{
		{nil, http.StatusOK},
		{session.ErrDatasetNotReady, http.StatusBadRequest},
		{kmeans.ErrEmptyDataset, http.StatusBadRequest},
		{fmt.Errorf("%w: k=0", kmeans.ErrInvalidClusterCount), http.StatusBadRequest},
		{kmeans.ErrInvalidIterations, http.StatusBadRequest},
		{kmeans.ErrInvalidPoint, http.StatusBadRequest},
		{fmt.Errorf("%w: centers", dataset.ErrInvalidConfig), http.StatusBadRequest},
		{errors.New("disk on fire"), http.StatusInternalServerError},
	}

	for _, tt := range tests {
		if got := StatusForError(tt.err); got != tt.want {
			t.Errorf("StatusForError(%v) = %d, want %d", tt.err, got, tt.want)
		}
	}
}

func TestWriteError(t *testing.T) {
	original := monitoring.Logf
	defer func() { monitoring.Logf = original }()
	monitoring.SetLogger(nil)

	rec := httptest.NewRecorder()
	WriteError(rec, fmt.Errorf("run: %w", session.ErrDatasetNotReady))
	if rec.Code != http.StatusBadRequest {
		t.Errorf("status = %d, want 400", rec.Code)
	}
	if got := decodeError(t, rec); got != NotReadyMessage {
		t.Errorf("error = %q, want %q", got, NotReadyMessage)
	}

	rec = httptest.NewRecorder()
	err := fmt.Errorf("%w: k=9 must be between 1 and 4", kmeans.ErrInvalidClusterCount)
	WriteError(rec, err)
	if got := decodeError(t, rec); got != err.Error() {
		t.Errorf("error = %q, want %q", got, err.Error())
	}

	rec = httptest.NewRecorder()
	WriteError(rec, errors.New("secret internals"))
	if rec.Code != http.StatusInternalServerError {
		t.Errorf("status = %d, want 500", rec.Code)
	}
	if got := decodeError(t, rec); got != "internal server error" {
		t.Errorf("error = %q, want generic message", got)
	}
}
