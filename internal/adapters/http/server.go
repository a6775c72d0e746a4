package http

import (
	"encoding/json"
	"fmt"
	"net/http"
	"sort"
	"strconv"

	"github.com/aretw0/leash/pkg/observability"
	"github.com/aretw0/leash/pkg/ports"
	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// NewHandler builds the debug surface for a process embedding leash:
//
//	GET /workers  - running and leaked workers, as JSON
//	GET /events   - recent timeout events (?limit=n), as JSON
//	GET /metrics  - prometheus exposition (when a gatherer is supplied)
//
// sink and gatherer may be nil; the corresponding routes then answer 404.
func NewHandler(registry *observability.Registry, sink ports.EventSink, gatherer prometheus.Gatherer) http.Handler {
	r := chi.NewRouter()

	r.Get("/workers", func(w http.ResponseWriter, req *http.Request) {
		entries := registry.Snapshot()
		// Stable order for humans refreshing the page.
		sort.Slice(entries, func(i, j int) bool { return entries[i].ID < entries[j].ID })
		writeJSON(w, entries)
	})

	r.Get("/events", func(w http.ResponseWriter, req *http.Request) {
		if sink == nil {
			http.NotFound(w, req)
			return
		}
		limit := 50
		if raw := req.URL.Query().Get("limit"); raw != "" {
			n, err := strconv.Atoi(raw)
			if err != nil || n <= 0 {
				http.Error(w, "invalid limit", http.StatusBadRequest)
				return
			}
			limit = n
		}
		events, err := sink.Recent(req.Context(), limit)
		if err != nil {
			http.Error(w, fmt.Sprintf("failed to read events: %v", err), http.StatusInternalServerError)
			return
		}
		writeJSON(w, events)
	})

	if gatherer != nil {
		r.Handle("/metrics", promhttp.HandlerFor(gatherer, promhttp.HandlerOpts{}))
	}

	return r
}

func writeJSON(w http.ResponseWriter, v any) {
	w.Header().Set("Content-Type", "application/json")
	if err := json.NewEncoder(w).Encode(v); err != nil {
		// Headers are already out; nothing useful left to do.
		return
	}
}
