package handlers

import (
	"net/http"
	"os"
	"runtime"

	"media-share/internal/startup"
)

const (
	statusHealthy  = "healthy"
	statusDegraded = "degraded"
)

// HealthResponse contains the health check response
type HealthResponse struct {
	Status  string `json:"status"`
	Ready   bool   `json:"ready"`
	Version string `json:"version"`

	// System info
	GoVersion    string `json:"goVersion"`
	NumCPU       int    `json:"numCpu"`
	NumGoroutine int    `json:"numGoroutine"`

	// Stats summary
	TotalFiles   int `json:"totalFiles"`
	PendingTasks int `json:"pendingTasks"`
}

// HealthCheck returns the health status of the service. The service
// is degraded when the metadata store or the artifact directory is
// unreachable.
func (h *Handlers) HealthCheck(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	response := HealthResponse{
		Status:       statusHealthy,
		Ready:        true,
		Version:      startup.Version,
		GoVersion:    runtime.Version(),
		NumCPU:       runtime.NumCPU(),
		NumGoroutine: runtime.NumGoroutine(),
	}

	if ids, err := h.db.ListFileIDs(ctx); err != nil {
		response.Status = statusDegraded
		response.Ready = false
	} else {
		response.TotalFiles = len(ids)
	}

	if tasks, err := h.db.ListTasks(ctx); err == nil {
		response.PendingTasks = len(tasks)
	}

	if _, err := os.Stat(h.store.Dir()); err != nil {
		response.Status = statusDegraded
		response.Ready = false
	}

	w.Header().Set("Content-Type", "application/json")
	if !response.Ready {
		w.WriteHeader(http.StatusServiceUnavailable)
	}
	writeJSON(w, response)
}

// LivenessCheck is a simple liveness probe (always returns 200 if server is running)
func (h *Handlers) LivenessCheck(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusOK)

	// For HEAD requests, only send headers (no body)
	if r.Method != http.MethodHead {
		writeJSON(w, map[string]string{
			"status": "alive",
		})
	}
}
