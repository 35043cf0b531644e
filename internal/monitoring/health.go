package monitoring

import (
	"encoding/json"
	"net/http"
	"sync"
	"time"
)

var startTime = time.Now()

// HealthChecker tracks the outcome of recent backtest runs for the health
// endpoint served alongside the metrics.
type HealthChecker struct {
	mu            sync.RWMutex
	completedRuns int
	lastRun       time.Time
	lastStrategy  string
	lastNAV       float64
	errors        []string
}

// HealthStatus is the JSON payload of the health endpoint.
type HealthStatus struct {
	Status        string    `json:"status"`
	Timestamp     time.Time `json:"timestamp"`
	Uptime        string    `json:"uptime"`
	CompletedRuns int       `json:"completed_runs"`
	LastRun       time.Time `json:"last_run,omitempty"`
	LastStrategy  string    `json:"last_strategy,omitempty"`
	LastNAV       float64   `json:"last_nav,omitempty"`
	Errors        []string  `json:"errors,omitempty"`
}

func NewHealthChecker() *HealthChecker {
	return &HealthChecker{
		errors: make([]string, 0),
	}
}

func (h *HealthChecker) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	h.mu.RLock()
	defer h.mu.RUnlock()

	status := "healthy"
	if len(h.errors) > 0 {
		status = "unhealthy"
		w.WriteHeader(http.StatusInternalServerError)
	}

	health := HealthStatus{
		Status:        status,
		Timestamp:     time.Now(),
		Uptime:        time.Since(startTime).String(),
		CompletedRuns: h.completedRuns,
		LastRun:       h.lastRun,
		LastStrategy:  h.lastStrategy,
		LastNAV:       h.lastNAV,
		Errors:        h.errors,
	}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(health)
}

func (h *HealthChecker) recordRun(strategy string, nav float64) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.completedRuns++
	h.lastRun = time.Now()
	h.lastStrategy = strategy
	h.lastNAV = nav
}

func (h *HealthChecker) recordError(message string) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.errors = append(h.errors, message)
	if len(h.errors) > 10 {
		h.errors = h.errors[len(h.errors)-10:]
	}
}

var defaultHealth = NewHealthChecker()

// NewHealthHandler returns the process-wide health endpoint handler.
func NewHealthHandler() *HealthChecker {
	return defaultHealth
}
