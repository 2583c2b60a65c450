package api

import (
	"encoding/json"
	"errors"
	"net/http"

	"workbench/internal/config"
	"workbench/internal/containerizer"
	"workbench/internal/orchestrator"
	"workbench/pkg/logging"
)

// errBadRequest marks request decoding failures.
var errBadRequest = errors.New("bad request")

type envelope struct {
	Data  any    `json:"data,omitempty"`
	Error string `json:"error,omitempty"`
}

func writeJSON(w http.ResponseWriter, status int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(envelope{Data: data})
}

func writeError(w http.ResponseWriter, err error) {
	status := statusFor(err)
	if status == http.StatusInternalServerError {
		logging.Error("API", err, "Request failed")
	}
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(envelope{Error: err.Error()})
}

func statusFor(err error) int {
	switch {
	case errors.Is(err, orchestrator.ErrBusy):
		return http.StatusConflict
	case errors.Is(err, orchestrator.ErrPrerequisitesNotMet):
		return http.StatusPreconditionFailed
	case errors.Is(err, config.ErrInvalid), errors.Is(err, errBadRequest):
		return http.StatusBadRequest
	case errors.Is(err, containerizer.ErrUnknownService), errors.Is(err, orchestrator.ErrUnknownArtifact):
		return http.StatusNotFound
	default:
		return http.StatusInternalServerError
	}
}
