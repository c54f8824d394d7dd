package resilience

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestHealthTracker_UnknownStageIsHealthy(t *testing.T) {
	h := NewHealthTracker(3)
	assert.True(t, h.Healthy("embedding"))
}

func TestHealthTracker_FlagsAfterThreshold(t *testing.T) {
	h := NewHealthTracker(3)
	boom := errors.New("boom")

	h.Record("embedding", boom)
	h.Record("embedding", boom)
	assert.True(t, h.Healthy("embedding"))

	h.Record("embedding", boom)
	assert.False(t, h.Healthy("embedding"))
}

func TestHealthTracker_SuccessResetsCounter(t *testing.T) {
	h := NewHealthTracker(2)
	boom := errors.New("boom")

	h.Record("tiebreak", boom)
	h.Record("tiebreak", nil)
	h.Record("tiebreak", boom)

	assert.True(t, h.Healthy("tiebreak"), "non-consecutive failures never flag")
}

func TestHealthTracker_StagesAreIndependent(t *testing.T) {
	h := NewHealthTracker(1)

	h.Record("embedding", errors.New("boom"))

	assert.False(t, h.Healthy("embedding"))
	assert.True(t, h.Healthy("tiebreak"))
}

func TestHealthTracker_Status(t *testing.T) {
	h := NewHealthTracker(2)
	boom := errors.New("boom")

	h.Record("embedding", boom)
	h.Record("embedding", boom)
	h.Record("tiebreak", nil)

	status := h.Status()
	assert.False(t, status["embedding"].Healthy)
	assert.Equal(t, 2, status["embedding"].ConsecutiveFailures)
	assert.False(t, status["embedding"].LastFailure.IsZero())
	assert.True(t, status["tiebreak"].Healthy)
	assert.False(t, status["tiebreak"].LastSuccess.IsZero())
}

func TestHealthTracker_ThresholdDefault(t *testing.T) {
	h := NewHealthTracker(0)
	boom := errors.New("boom")

	h.Record("embedding", boom)
	h.Record("embedding", boom)
	assert.True(t, h.Healthy("embedding"))
	h.Record("embedding", boom)
	assert.False(t, h.Healthy("embedding"))
}
