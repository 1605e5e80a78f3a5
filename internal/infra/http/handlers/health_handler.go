package handlers

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"github.com/xavierca1/beauty-leads/internal/usecase"
)

// Probe checks one dependency.
type Probe func(ctx context.Context) error

type HealthHandler struct {
	Probes    map[string]Probe
	Cache     *usecase.LeadCache
	StartTime time.Time
	Version   string
}

type HealthResponse struct {
	Status       string            `json:"status"`
	Version      string            `json:"version"`
	Uptime       string            `json:"uptime"`
	Dependencies map[string]string `json:"dependencies"`
	SnapshotAt   string            `json:"snapshotAt,omitempty"`
}

func NewHealthHandler(cache *usecase.LeadCache, probes map[string]Probe) *HealthHandler {
	if probes == nil {
		probes = map[string]Probe{}
	}
	return &HealthHandler{
		Probes:    probes,
		Cache:     cache,
		StartTime: time.Now(),
		Version:   "1.0.0",
	}
}

func (h *HealthHandler) Handle(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), 3*time.Second)
	defer cancel()

	deps := make(map[string]string)
	healthy := true
	for name, probe := range h.Probes {
		if probe == nil {
			deps[name] = "not configured"
			continue
		}
		if err := probe(ctx); err != nil {
			deps[name] = fmt.Sprintf("unhealthy: %v", err)
			healthy = false
			continue
		}
		deps[name] = "healthy"
	}

	if h.Cache != nil {
		_, loaded := h.Cache.Snapshot()
		switch err := h.Cache.Err(); {
		case err != nil:
			deps["live_sync"] = fmt.Sprintf("unhealthy: %v", err)
			healthy = false
		case !loaded:
			deps["live_sync"] = "loading"
		default:
			deps["live_sync"] = "healthy"
		}
	}

	status := "healthy"
	if !healthy {
		status = "degraded"
	}

	response := HealthResponse{
		Status:       status,
		Version:      h.Version,
		Uptime:       time.Since(h.StartTime).Round(time.Second).String(),
		Dependencies: deps,
	}
	if h.Cache != nil {
		if at := h.Cache.UpdatedAt(); !at.IsZero() {
			response.SnapshotAt = at.UTC().Format(time.RFC3339)
		}
	}

	w.Header().Set("Content-Type", "application/json")
	if !healthy {
		w.WriteHeader(http.StatusServiceUnavailable)
	} else {
		w.WriteHeader(http.StatusOK)
	}
	json.NewEncoder(w).Encode(response)
}
