package resilience

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestPollComputesOverallAsWorstOfComponents(t *testing.T) {
	h := NewHealthMonitor()
	h.Register("ASR", func() HealthStatus { return Healthy })
	h.Register("Translator", func() HealthStatus { return Degraded })

	require.Equal(t, Degraded, h.Poll())
}

func TestPollFiresAlertOnlyOnStatusChangeEdge(t *testing.T) {
	status := Healthy
	h := NewHealthMonitor()
	h.Register("Capture", func() HealthStatus { return status })

	var edges int
	h.OnAlert(func(component string, previous, current HealthStatus) {
		edges++
	})

	h.Poll() // Unknown -> Healthy, one edge
	require.Equal(t, 1, edges)

	h.Poll() // Healthy -> Healthy, no edge
	require.Equal(t, 1, edges)

	status = Unhealthy
	h.Poll() // Healthy -> Unhealthy, one edge
	require.Equal(t, 2, edges)
}

func TestStatusesSnapshotReflectsLastPoll(t *testing.T) {
	h := NewHealthMonitor()
	h.Register("GainProcessor", func() HealthStatus { return Healthy })
	h.Poll()

	statuses := h.Statuses()
	require.Equal(t, Healthy, statuses["GainProcessor"])
}
