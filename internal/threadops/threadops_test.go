package threadops_test

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/dev-console/debugctl/internal/adapter"
	"github.com/dev-console/debugctl/internal/adapter/fake"
	"github.com/dev-console/debugctl/internal/session"
	"github.com/dev-console/debugctl/internal/threadops"
)

func newTestOps(t *testing.T) (*threadops.Ops, *session.Session, *fake.Adapter) {
	t.Helper()
	a := fake.New()
	s := session.New(zap.NewNop(), a, nil)
	require.NoError(t, s.AttachSocket(context.Background(), "127.0.0.1", 5005))
	t.Cleanup(s.Disconnect)
	return threadops.New(s, 100, 10), s, a
}

func TestOps_FramesRequireSuspended(t *testing.T) {
	ops, _, a := newTestOps(t)
	th := a.AddThread("main", 1).Thread()

	_, err := ops.Frames(th.ID())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "thread_not_suspended")

	a.AddThread("main", 1).Suspend()
	frames, err := ops.Frames(1)
	require.NoError(t, err)
	assert.Empty(t, frames)
}

func TestOps_LocalsAndThis(t *testing.T) {
	ops, _, a := newTestOps(t)
	this := &fake.Object{Type: "pkg.Foo", ID: 7, Fields: map[string]adapter.Value{"x": adapter.PrimitiveValue{Type: "int", Repr: "5"}}}
	locals := map[string]adapter.Value{"n": adapter.PrimitiveValue{Type: "int", Repr: "3"}}
	a.AddThread("main", 1).Suspend().PushFrame(adapter.Location{TypeName: "pkg.Foo", MethodName: "run", Line: 10}, locals, nil, this)

	frames, err := ops.Frames(1)
	require.NoError(t, err)
	require.Len(t, frames, 1)

	got, err := ops.Locals(frames[0])
	require.NoError(t, err)
	assert.Equal(t, "3", got["n"].Text())

	thisVal, err := ops.This(frames[0])
	require.NoError(t, err)
	assert.Equal(t, uint64(7), thisVal.(adapter.ObjectValue).ObjectID())

	fields, err := ops.ObjectFields(thisVal)
	require.NoError(t, err)
	assert.Equal(t, "5", fields["x"].Text())
}

func TestOps_SetVariableLiteralAndHandle(t *testing.T) {
	ops, _, a := newTestOps(t)
	a.AddThread("main", 1).Suspend().PushFrame(adapter.Location{TypeName: "pkg.Foo", Line: 10}, nil, nil, nil)
	frames, err := ops.Frames(1)
	require.NoError(t, err)

	require.NoError(t, ops.SetVariable(frames[0], "n", "42", nil))
	got, err := ops.Variable(frames[0], "n")
	require.NoError(t, err)
	assert.Equal(t, "42", got.Text())

	target := &fake.Object{Type: "pkg.Bar", ID: 99}
	lookup := func(id uint64) (adapter.Value, bool) {
		if id == 99 {
			return target, true
		}
		return nil, false
	}
	require.NoError(t, ops.SetVariable(frames[0], "ref", `"@99"`, lookup))
	got, err = ops.Variable(frames[0], "ref")
	require.NoError(t, err)
	assert.Equal(t, uint64(99), got.(adapter.ObjectValue).ObjectID())
}

func TestOps_StepRequiresNonNativeFrame(t *testing.T) {
	ops, _, a := newTestOps(t)
	a.AddThread("main", 1).Suspend().PushFrame(adapter.Location{TypeName: "pkg.Foo", Line: 0}, nil, nil, nil)

	err := ops.StepInto(1)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "native_frame")
}

func TestOps_RunToLineReportsLandedLocation(t *testing.T) {
	ops, s, a := newTestOps(t)
	a.LoadClass("pkg.Foo")
	a.AddLine("pkg.Foo", 42)
	th := a.AddThread("main", 1).Suspend().Thread()

	go func() {
		a.PushEvent(adapter.EventSet{Events: []adapter.Event{
			{Kind: adapter.EventBreakpoint, Thread: th, HasLocation: true,
				Location: adapter.Location{TypeName: "pkg.Foo", Line: 42}},
		}})
	}()

	result, err := ops.RunToLine("pkg.Foo", 42, 2000)
	require.NoError(t, err)
	assert.True(t, result.Landed)
	assert.Equal(t, "pkg.Foo", result.AtClassName)
	assert.Equal(t, 42, result.AtLine)
	assert.Empty(t, s.Lines.List())
}

func TestOps_InvokeSelectsOverloadAndCatchesThrown(t *testing.T) {
	ops, _, a := newTestOps(t)
	a.LoadClass("pkg.Foo")
	a.AddMethod("pkg.Foo", "explode", 0)
	a.AddThread("main", 1).Suspend().PushFrame(adapter.Location{TypeName: "pkg.Foo", Line: 10}, nil, nil,
		&fake.Object{Type: "pkg.Foo", ID: 1})

	a.Invoke = func(method string, args []adapter.Value) (adapter.Value, *adapter.ThrownException, error) {
		return nil, &adapter.ThrownException{TypeName: "java.lang.RuntimeException", ObjectID: 55}, nil
	}

	this := &fake.Object{Type: "pkg.Foo", ID: 1}
	_, err := ops.Invoke(1, this, "pkg.Foo", "explode", nil, nil)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "thrown_exception")
}

func TestOps_InvokeMethodNotFound(t *testing.T) {
	ops, _, a := newTestOps(t)
	a.LoadClass("pkg.Foo")
	a.AddThread("main", 1).Suspend().PushFrame(adapter.Location{TypeName: "pkg.Foo", Line: 10}, nil, nil, nil)

	this := &fake.Object{Type: "pkg.Foo", ID: 1}
	_, err := ops.Invoke(1, this, "pkg.Foo", "missing", nil, nil)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "method_not_found")
}

func TestOps_ObjectByIDScansSuspendedFrames(t *testing.T) {
	ops, _, a := newTestOps(t)
	target := &fake.Object{Type: "pkg.Bar", ID: 123}
	a.AddThread("main", 1).Suspend().PushFrame(adapter.Location{TypeName: "pkg.Foo", Line: 10},
		map[string]adapter.Value{"ref": target}, nil, nil)

	v, ok := ops.ObjectByID(123)
	require.True(t, ok)
	assert.Equal(t, uint64(123), v.(adapter.ObjectValue).ObjectID())

	_, ok = ops.ObjectByID(999)
	assert.False(t, ok)
}
