package api

import (
	"encoding/json"
	"fmt"
	"net/http"
	"strconv"

	"workbench/internal/config"
	"workbench/internal/containerizer"
	"workbench/internal/orchestrator"

	"github.com/go-chi/chi/v5"
)

// ConfigResponse is returned by both config routes. Warnings is only set on
// save.
type ConfigResponse struct {
	Config   config.StackConfig `json:"config"`
	Warnings []string           `json:"warnings,omitempty"`
}

// ArtifactResponse describes an installed artifact.
type ArtifactResponse struct {
	Name   string `json:"name"`
	Path   string `json:"path"`
	SHA256 string `json:"sha256"`
	Size   int64  `json:"size"`
}

// StartResponse is the outcome of a start sequence that reached readiness.
type StartResponse struct {
	State               orchestrator.State `json:"state"`
	Attempts            int                `json:"attempts"`
	RegistrationWarning string             `json:"registrationWarning,omitempty"`
}

// StateResponse carries the orchestrator state alone.
type StateResponse struct {
	State   orchestrator.State `json:"state"`
	Running bool               `json:"running"`
}

func (s *Server) getConfig(w http.ResponseWriter, r *http.Request) {
	cfg, err := s.orch.Config()
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, ConfigResponse{Config: cfg})
}

func (s *Server) putConfig(w http.ResponseWriter, r *http.Request) {
	var cfg config.StackConfig
	dec := json.NewDecoder(r.Body)
	dec.DisallowUnknownFields()
	if err := dec.Decode(&cfg); err != nil {
		writeError(w, fmt.Errorf("%w: %v", errBadRequest, err))
		return
	}

	warnings, err := s.orch.SaveConfig(cfg)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, ConfigResponse{Config: cfg, Warnings: warnings})
}

func (s *Server) checkPrerequisites(w http.ResponseWriter, r *http.Request) {
	p, err := s.orch.CheckPrerequisites(r.Context())
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, struct {
		containerizer.Prerequisites
		Ready       bool   `json:"ready"`
		DownloadURL string `json:"downloadUrl,omitempty"`
	}{
		Prerequisites: p,
		Ready:         p.Ready(),
		DownloadURL:   downloadURLFor(p),
	})
}

func downloadURLFor(p containerizer.Prerequisites) string {
	if p.Installed {
		return ""
	}
	return containerizer.RuntimeDownloadURL
}

func (s *Server) installArtifact(w http.ResponseWriter, r *http.Request) {
	spec, err := orchestrator.LookupArtifact(chi.URLParam(r, "name"))
	if err != nil {
		writeError(w, err)
		return
	}

	a, err := s.orch.InstallArtifact(r.Context(), spec, "")
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, ArtifactResponse{
		Name:   spec.Name,
		Path:   a.Path,
		SHA256: a.Hex(),
		Size:   a.Size,
	})
}

func (s *Server) pull(w http.ResponseWriter, r *http.Request) {
	if err := s.orch.PullImages(r.Context()); err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, StateResponse{State: s.orch.State(), Running: s.orch.State().Running()})
}

func (s *Server) start(w http.ResponseWriter, r *http.Request) {
	res, err := s.orch.StartStack(r.Context())
	if err != nil {
		writeError(w, err)
		return
	}
	out := StartResponse{State: s.orch.State(), Attempts: res.Probe.Attempts}
	if res.Warning != nil {
		out.RegistrationWarning = res.Warning.Error()
	}
	writeJSON(w, http.StatusOK, out)
}

func (s *Server) stop(w http.ResponseWriter, r *http.Request) {
	if err := s.orch.Stop(r.Context()); err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, StateResponse{State: s.orch.State()})
}

func (s *Server) logs(w http.ResponseWriter, r *http.Request) {
	service := chi.URLParam(r, "service")

	tail := containerizer.DefaultLogTail
	if raw := r.URL.Query().Get("tail"); raw != "" {
		v, err := strconv.Atoi(raw)
		if err != nil || v <= 0 {
			writeError(w, fmt.Errorf("%w: tail must be a positive integer", errBadRequest))
			return
		}
		tail = v
	}

	out, err := s.orch.Logs(r.Context(), service, tail)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"service": service, "logs": out})
}

func (s *Server) status(w http.ResponseWriter, r *http.Request) {
	st, err := s.orch.Status(r.Context())
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, st)
}

func (s *Server) containers(w http.ResponseWriter, r *http.Request) {
	list, err := s.orch.Containers(r.Context())
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, list)
}

func (s *Server) state(w http.ResponseWriter, r *http.Request) {
	st := s.orch.State()
	writeJSON(w, http.StatusOK, StateResponse{State: st, Running: st.Running()})
}

func (s *Server) webUIURL(w http.ResponseWriter, r *http.Request) {
	url, err := s.orch.WebUIURL()
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"url": url})
}
