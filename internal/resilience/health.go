package resilience

import (
	"sync"
	"time"

	"go.uber.org/zap"
)

// HealthTracker records consecutive failures per provider-backed stage.
// After Threshold consecutive failures a stage is marked unhealthy. This is
// a signal, not a gate: callers keep executing, but can short-circuit to a
// manual-review path instead of leaning on a failing dependency.
type HealthTracker struct {
	mu        sync.Mutex
	threshold int
	stages    map[string]*stageHealth
	nowFunc   func() time.Time
}

type stageHealth struct {
	consecutiveFailures int
	lastFailure         time.Time
	lastSuccess         time.Time
}

// StageStatus is a snapshot of one stage's health.
type StageStatus struct {
	Healthy             bool      `json:"healthy"`
	ConsecutiveFailures int       `json:"consecutive_failures"`
	LastFailure         time.Time `json:"last_failure,omitzero"`
	LastSuccess         time.Time `json:"last_success,omitzero"`
}

// NewHealthTracker creates a tracker that flags a stage unhealthy after
// threshold consecutive failures. A threshold <= 0 defaults to 3.
func NewHealthTracker(threshold int) *HealthTracker {
	if threshold <= 0 {
		threshold = 3
	}
	return &HealthTracker{
		threshold: threshold,
		stages:    make(map[string]*stageHealth),
		nowFunc:   time.Now,
	}
}

// Record notes the outcome of one call to the named stage.
func (h *HealthTracker) Record(stage string, err error) {
	h.mu.Lock()
	defer h.mu.Unlock()

	s := h.stages[stage]
	if s == nil {
		s = &stageHealth{}
		h.stages[stage] = s
	}

	if err == nil {
		s.consecutiveFailures = 0
		s.lastSuccess = h.nowFunc()
		return
	}

	s.consecutiveFailures++
	s.lastFailure = h.nowFunc()
	if s.consecutiveFailures == h.threshold {
		zap.L().Warn("stage marked unhealthy",
			zap.String("stage", stage),
			zap.Int("consecutive_failures", s.consecutiveFailures),
		)
	}
}

// Healthy reports whether the stage is below the failure threshold.
// Unknown stages are healthy.
func (h *HealthTracker) Healthy(stage string) bool {
	h.mu.Lock()
	defer h.mu.Unlock()
	s := h.stages[stage]
	return s == nil || s.consecutiveFailures < h.threshold
}

// Status returns a snapshot of every tracked stage.
func (h *HealthTracker) Status() map[string]StageStatus {
	h.mu.Lock()
	defer h.mu.Unlock()
	out := make(map[string]StageStatus, len(h.stages))
	for name, s := range h.stages {
		out[name] = StageStatus{
			Healthy:             s.consecutiveFailures < h.threshold,
			ConsecutiveFailures: s.consecutiveFailures,
			LastFailure:         s.lastFailure,
			LastSuccess:         s.lastSuccess,
		}
	}
	return out
}
