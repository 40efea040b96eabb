package eventmon_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dev-console/debugctl/internal/adapter"
	"github.com/dev-console/debugctl/internal/adapter/fake"
	"github.com/dev-console/debugctl/internal/eventmon"
)

func TestStore_SubscribeIDsPerPrefix(t *testing.T) {
	a := fake.New()
	tgt, _ := a.ConnectLaunch(nil, "pkg.Main", nil, nil, false)
	s := eventmon.New()

	cp, err := s.SubscribeClassPrepare(a, tgt, "pkg.*")
	require.NoError(t, err)
	assert.Equal(t, "cp-1", cp)

	ts, err := s.SubscribeThreadStart(a, tgt)
	require.NoError(t, err)
	assert.Equal(t, "ts-1", ts)

	list := s.List()
	assert.Equal(t, eventmon.ClassPrepare, list[cp])
	assert.Equal(t, eventmon.ThreadStart, list[ts])
}

func TestStore_CaptureAndDrain(t *testing.T) {
	s := eventmon.New()
	th := fake.New().AddThread("main", 1).Thread()

	s.CaptureEvent(adapter.Event{Kind: adapter.EventThreadStart, Thread: th}, 100)
	s.CaptureEvent(adapter.Event{Kind: adapter.EventBreakpoint}, 200) // ignored, not monitored

	pending := s.GetPending()
	require.Len(t, pending, 1)
	assert.Equal(t, eventmon.ThreadStart, pending[0].Kind)
	assert.Equal(t, "main", pending[0].Detail["threadName"])

	// Drained: a second call sees nothing new.
	assert.Empty(t, s.GetPending())
}

func TestStore_PeekDoesNotDrain(t *testing.T) {
	s := eventmon.New()
	s.CaptureEvent(adapter.Event{Kind: adapter.EventClassUnload, ClassName: "pkg.Gone"}, 1)

	peeked := s.PeekPending()
	require.Len(t, peeked, 1)

	pending := s.GetPending()
	require.Len(t, pending, 1, "peek must not consume the drain cursor")
}

func TestStore_RemoveUnknown(t *testing.T) {
	s := eventmon.New()
	err := s.Remove("cp-99")
	require.Error(t, err)
}

func TestStore_ResetClearsEverything(t *testing.T) {
	a := fake.New()
	tgt, _ := a.ConnectLaunch(nil, "pkg.Main", nil, nil, false)
	s := eventmon.New()
	id, err := s.SubscribeClassPrepare(a, tgt, "")
	require.NoError(t, err)
	s.CaptureEvent(adapter.Event{Kind: adapter.EventClassPrepare, ClassName: "pkg.Main"}, 1)

	s.Reset()
	assert.Empty(t, s.List())
	assert.Empty(t, s.PeekPending())

	_, ok := s.List()[id]
	assert.False(t, ok)
}
