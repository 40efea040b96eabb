package metrics_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dev-console/debugctl/internal/metrics"
	"github.com/dev-console/debugctl/internal/stopreason"
)

func TestRegistry_ObservesAndGathers(t *testing.T) {
	r := metrics.New()
	r.ObserveStopEvent(stopreason.BreakpointHit)
	r.ObserveStopEvent(stopreason.BreakpointHit)
	r.SetPendingBreakpoints("line", 3)
	r.IncCapturedEventsDropped()

	families, err := r.Gatherer().Gather()
	require.NoError(t, err)

	names := make(map[string]bool, len(families))
	for _, f := range families {
		names[f.GetName()] = true
	}
	assert.True(t, names["debugctl_stop_events_total"])
	assert.True(t, names["debugctl_pending_breakpoints"])
	assert.True(t, names["debugctl_captured_events_dropped_total"])
}
