// Package httputil holds the JSON response helpers shared by the API handlers
// and the mapping from domain errors to HTTP status codes.
package httputil

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/banshee-data/kmeans-explorer/internal/dataset"
	"github.com/banshee-data/kmeans-explorer/internal/kmeans"
	"github.com/banshee-data/kmeans-explorer/internal/monitoring"
	"github.com/banshee-data/kmeans-explorer/internal/session"
)

// NotReadyMessage is the client-facing message for a run requested before
// any dataset exists.
const NotReadyMessage = "Data not generated. Call /api/generate_data first."

// WriteJSON writes data as JSON with the given status code.
func WriteJSON(w http.ResponseWriter, status int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(data); err != nil {
		monitoring.Logf("failed to encode json response: %v", err)
	}
}

// WriteJSONOK writes a 200 OK JSON response.
func WriteJSONOK(w http.ResponseWriter, data interface{}) {
	WriteJSON(w, http.StatusOK, data)
}

// WriteJSONError writes {"error": msg} with the given status code.
func WriteJSONError(w http.ResponseWriter, status int, msg string) {
	WriteJSON(w, status, map[string]string{"error": msg})
}

// BadRequest writes a 400 response.
func BadRequest(w http.ResponseWriter, msg string) {
	WriteJSONError(w, http.StatusBadRequest, msg)
}

// MethodNotAllowed writes a 405 response.
func MethodNotAllowed(w http.ResponseWriter) {
	WriteJSONError(w, http.StatusMethodNotAllowed, "method not allowed")
}

// StatusForError maps an error to the HTTP status the API reports for it.
// Input problems are client errors; anything unrecognised is a server error.
func StatusForError(err error) int {
	switch {
	case err == nil:
		return http.StatusOK
	case errors.Is(err, session.ErrDatasetNotReady),
		errors.Is(err, kmeans.ErrEmptyDataset),
		errors.Is(err, kmeans.ErrInvalidClusterCount),
		errors.Is(err, kmeans.ErrInvalidIterations),
		errors.Is(err, kmeans.ErrInvalidPoint),
		errors.Is(err, dataset.ErrInvalidConfig):
		return http.StatusBadRequest
	default:
		return http.StatusInternalServerError
	}
}

// WriteError writes err as a JSON error with the status from StatusForError.
// Server errors are logged and reported without internal detail.
func WriteError(w http.ResponseWriter, err error) {
	status := StatusForError(err)
	switch {
	case errors.Is(err, session.ErrDatasetNotReady):
		WriteJSONError(w, status, NotReadyMessage)
	case status >= http.StatusInternalServerError:
		monitoring.Logf("internal error: %v", err)
		WriteJSONError(w, status, "internal server error")
	default:
		WriteJSONError(w, status, err.Error())
	}
}
