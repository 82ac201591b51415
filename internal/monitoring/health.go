package monitoring

import (
	"encoding/json"
	"net/http"
	"sync"
	"time"
)

var startTime = time.Now()

// HealthChecker tracks engine liveness for the /health endpoint.
type HealthChecker struct {
	mu               sync.RWMutex
	lastAnalysis     time.Time
	activeStrategy   string
	emergencyStopped bool
	errors           []string
}

// HealthStatus is the JSON body served by the health endpoint.
type HealthStatus struct {
	Status           string    `json:"status"`
	Timestamp        time.Time `json:"timestamp"`
	LastAnalysis     time.Time `json:"last_analysis"`
	ActiveStrategy   string    `json:"active_strategy"`
	EmergencyStopped bool      `json:"emergency_stopped"`
	Uptime           string    `json:"uptime"`
	Errors           []string  `json:"errors,omitempty"`
}

// NewHealthChecker creates a health checker with no recorded state.
func NewHealthChecker() *HealthChecker {
	return &HealthChecker{
		errors: make([]string, 0),
	}
}

func (h *HealthChecker) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	h.mu.RLock()
	defer h.mu.RUnlock()

	status := "healthy"
	if h.emergencyStopped {
		status = "halted"
		w.WriteHeader(http.StatusServiceUnavailable)
	} else if len(h.errors) > 0 {
		status = "degraded"
		w.WriteHeader(http.StatusInternalServerError)
	}

	health := HealthStatus{
		Status:           status,
		Timestamp:        time.Now(),
		LastAnalysis:     h.lastAnalysis,
		ActiveStrategy:   h.activeStrategy,
		EmergencyStopped: h.emergencyStopped,
		Uptime:           time.Since(startTime).String(),
		Errors:           h.errors,
	}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(health)
}

// RecordAnalysis notes a completed market analysis cycle.
func (h *HealthChecker) RecordAnalysis(strategyID string) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.lastAnalysis = time.Now()
	h.activeStrategy = strategyID
	h.errors = h.errors[:0]
}

// SetEmergencyStopped mirrors the risk manager's stop state.
func (h *HealthChecker) SetEmergencyStopped(stopped bool) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.emergencyStopped = stopped
}

// AddError records a non-fatal error surfaced by the host loop.
func (h *HealthChecker) AddError(msg string) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.errors = append(h.errors, msg)
	if len(h.errors) > 10 {
		h.errors = h.errors[len(h.errors)-10:]
	}
}
