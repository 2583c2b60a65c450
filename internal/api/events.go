package api

import (
	"encoding/json"
	"fmt"
	"net/http"
	"strings"

	"workbench/internal/reporting"
	"workbench/pkg/logging"
)

// events streams the event bus as server-sent events. The optional "types"
// query parameter is a comma-separated list of event types to keep.
func (s *Server) events(w http.ResponseWriter, r *http.Request) {
	flusher, ok := w.(http.Flusher)
	if !ok {
		http.Error(w, "Streaming not supported", http.StatusInternalServerError)
		return
	}

	var filter reporting.EventFilter
	if raw := r.URL.Query().Get("types"); raw != "" {
		var types []reporting.EventType
		for _, t := range strings.Split(raw, ",") {
			if t = strings.TrimSpace(t); t != "" {
				types = append(types, reporting.EventType(t))
			}
		}
		filter = reporting.FilterByType(types...)
	}

	sub := s.bus.Subscribe(eventBuffer, filter)
	defer func() {
		sub.Close()
		if n := sub.Dropped(); n > 0 {
			logging.Warn("API", "Event stream %s missed %d events because the client read too slowly", sub.ID, n)
		}
	}()

	w.Header().Set("Content-Type", "text/event-stream")
	w.Header().Set("Cache-Control", "no-cache")
	w.Header().Set("Connection", "keep-alive")
	w.Header().Set("X-Accel-Buffering", "no")
	w.WriteHeader(http.StatusOK)
	fmt.Fprint(w, ": connected\n\n")
	flusher.Flush()

	ctx := r.Context()
	for {
		select {
		case <-ctx.Done():
			return
		case ev, open := <-sub.C:
			if !open {
				return
			}
			payload, err := json.Marshal(ev)
			if err != nil {
				continue
			}
			fmt.Fprintf(w, "event: %s\ndata: %s\n\n", ev.Type, payload)
			flusher.Flush()
		}
	}
}
