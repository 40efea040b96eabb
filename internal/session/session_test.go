package session_test

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/dev-console/debugctl/internal/adapter"
	"github.com/dev-console/debugctl/internal/adapter/fake"
	"github.com/dev-console/debugctl/internal/session"
	"github.com/dev-console/debugctl/internal/stopreason"
)

func newTestSession(t *testing.T) (*session.Session, *fake.Adapter) {
	t.Helper()
	a := fake.New()
	s := session.New(zap.NewNop(), a, nil)
	return s, a
}

func TestSession_AttachSocketAndDisconnect(t *testing.T) {
	s, _ := newTestSession(t)
	require.NoError(t, s.AttachSocket(context.Background(), "127.0.0.1", 5005))

	st := s.State()
	assert.Equal(t, session.ConnAttachSocket, st.Connection)

	err := s.AttachSocket(context.Background(), "127.0.0.1", 5006)
	assert.Error(t, err, "double-attach must fail AlreadyConnected")

	s.Disconnect()
	assert.Equal(t, session.ConnNone, s.State().Connection)

	// Idempotent.
	s.Disconnect()
	assert.Equal(t, session.ConnNone, s.State().Connection)
}

func TestSession_WaitForStopTimesOutThenWakesOnEvent(t *testing.T) {
	s, a := newTestSession(t)
	require.NoError(t, s.AttachSocket(context.Background(), "127.0.0.1", 5005))

	start := time.Now()
	reason := s.WaitForStop(50)
	assert.True(t, time.Since(start) >= 50*time.Millisecond)
	assert.Equal(t, stopreason.None, reason.Kind)

	th := a.AddThread("main", 1).Suspend().Thread()
	a.PushEvent(adapter.EventSet{
		SuspendPolicy: adapter.SuspendAll,
		Events: []adapter.Event{
			{Kind: adapter.EventBreakpoint, Thread: th, HasLocation: true,
				Location: adapter.Location{TypeName: "pkg.Main", Line: 10}},
		},
	})

	reason = s.WaitForStop(2000)
	assert.Equal(t, stopreason.BreakpointHit, reason.Kind)
	s.Disconnect()
}

func TestSession_ResumeClearsBeforeResuming(t *testing.T) {
	s, a := newTestSession(t)
	require.NoError(t, s.AttachSocket(context.Background(), "127.0.0.1", 5005))

	th := a.AddThread("main", 1).Suspend().Thread()
	a.PushEvent(adapter.EventSet{Events: []adapter.Event{{Kind: adapter.EventBreakpoint, Thread: th}}})
	reason := s.WaitForStop(2000)
	require.Equal(t, stopreason.BreakpointHit, reason.Kind)

	require.NoError(t, s.Resume())
	assert.Equal(t, stopreason.None, s.State().LastStopReason.Kind)
	s.Disconnect()
}

func TestSession_NonStopEventsAreCaptured(t *testing.T) {
	s, a := newTestSession(t)
	require.NoError(t, s.AttachSocket(context.Background(), "127.0.0.1", 5005))

	a.LoadClass("pkg.Main")
	a.PushEvent(adapter.EventSet{Events: []adapter.Event{
		{Kind: adapter.EventClassPrepare, ClassName: "pkg.Main"},
	}})

	deadline := time.Now().Add(time.Second)
	for len(s.Events.PeekPending()) == 0 && time.Now().Before(deadline) {
		time.Sleep(10 * time.Millisecond)
	}
	pending := s.Events.PeekPending()
	require.Len(t, pending, 1)
	assert.Equal(t, "class_prepare", string(pending[0].Kind))
	s.Disconnect()
}

func TestSession_AsyncStackSummaryGroupsByPoolPrefix(t *testing.T) {
	s, a := newTestSession(t)
	require.NoError(t, s.AttachSocket(context.Background(), "127.0.0.1", 5005))

	a.AddThread("pool-1-thread-1", 1).Suspend()
	a.AddThread("pool-1-thread-2", 2).Suspend()
	a.AddThread("main", 3).Suspend()

	groups, err := s.AsyncStackSummary()
	require.NoError(t, err)
	var found bool
	for _, g := range groups {
		if g.Heuristic == "pool-prefix:pool-1-thread" {
			found = true
			assert.Len(t, g.Threads, 2)
		}
	}
	assert.True(t, found)
	s.Disconnect()
}
