package handlers

import (
	"net/http"
	"runtime"
	"time"

	"github.com/pcslave/credential-phishing-detection/internal/config"
	"github.com/pcslave/credential-phishing-detection/internal/entity"
	"github.com/pcslave/credential-phishing-detection/internal/usecase/analysis"
	"github.com/pcslave/credential-phishing-detection/internal/usecase/lists"
)

var startTime = time.Now()

// HealthResponse represents the health check response
type HealthResponse struct {
	Status      string              `json:"status"`
	Uptime      string              `json:"uptime"`
	Environment string              `json:"environment"`
	Timestamp   time.Time           `json:"timestamp"`
	Cache       analysis.CacheStats `json:"cache"`
	Lists       entity.ListStats    `json:"lists"`
	System      SystemInfo          `json:"system"`
}

// SystemInfo represents system information
type SystemInfo struct {
	GoVersion    string `json:"go_version"`
	NumCPU       int    `json:"num_cpu"`
	NumGoroutine int    `json:"num_goroutine"`
	MemAllocMB   uint64 `json:"mem_alloc_mb"`
}

// HealthCheck returns a handler for the health check endpoint.
func HealthCheck(cfg *config.Config, svc *analysis.Service, listsSvc *lists.Service) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var m runtime.MemStats
		runtime.ReadMemStats(&m)

		// Counts are best-effort; a failed lookup reports zeros rather
		// than failing the probe.
		listStats, _ := listsSvc.Stats(r.Context())

		JSONResponse(w, http.StatusOK, HealthResponse{
			Status:      "healthy",
			Uptime:      time.Since(startTime).Round(time.Second).String(),
			Environment: cfg.App.Env,
			Timestamp:   time.Now(),
			Cache:       svc.CacheStats(),
			Lists:       listStats,
			System: SystemInfo{
				GoVersion:    runtime.Version(),
				NumCPU:       runtime.NumCPU(),
				NumGoroutine: runtime.NumGoroutine(),
				MemAllocMB:   m.Alloc / 1024 / 1024,
			},
		})
	}
}
