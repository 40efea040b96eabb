package breakpoints_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dev-console/debugctl/internal/adapter"
	"github.com/dev-console/debugctl/internal/adapter/fake"
	"github.com/dev-console/debugctl/internal/breakpoints"
	"github.com/dev-console/debugctl/internal/errs"
	"github.com/dev-console/debugctl/internal/resolvecache"
)

func TestLineRegistry_SetActiveClass(t *testing.T) {
	a := fake.New()
	a.LoadClass("pkg.Main")
	a.AddLine("pkg.Main", 42)
	tgt, err := a.ConnectLaunch(nil, "pkg.Main", nil, nil, false)
	require.NoError(t, err)

	reg := breakpoints.NewLineRegistry(resolvecache.New())
	rec, err := reg.Set(a, tgt, "pkg.Main", 42)
	require.NoError(t, err)
	assert.Equal(t, "bp-1", rec.ID)
	assert.False(t, rec.Pending)
	assert.True(t, rec.Enabled)

	// Idempotent: same location returns the same record.
	rec2, err := reg.Set(a, tgt, "pkg.Main", 42)
	require.NoError(t, err)
	assert.Equal(t, rec.ID, rec2.ID)
}

func TestLineRegistry_NoCodeAtLine(t *testing.T) {
	a := fake.New()
	a.LoadClass("pkg.Main")
	tgt, _ := a.ConnectLaunch(nil, "pkg.Main", nil, nil, false)

	reg := breakpoints.NewLineRegistry(resolvecache.New())
	_, err := reg.Set(a, tgt, "pkg.Main", 7)
	require.Error(t, err)
	assert.Equal(t, errs.NoCodeAtLine, errs.KindOf(err))
}

func TestLineRegistry_PendingThenResolved(t *testing.T) {
	a := fake.New()
	tgt, _ := a.ConnectLaunch(nil, "pkg.Main", nil, nil, false)

	armed := false
	reg := breakpoints.NewLineRegistry(resolvecache.New())
	reg.ArmClassPrepare = func() error { armed = true; return nil }

	rec, err := reg.Set(a, tgt, "pkg.NotYetLoaded", 10)
	require.NoError(t, err)
	assert.True(t, rec.Pending)
	assert.Nil(t, rec.Handle)
	assert.True(t, armed)

	a.LoadClass("pkg.NotYetLoaded")
	a.AddLine("pkg.NotYetLoaded", 10)
	reg.OnClassPrepare(a, tgt, "pkg.NotYetLoaded")

	got, ok := reg.Get(rec.ID)
	require.True(t, ok)
	assert.False(t, got.Pending)
	assert.NotNil(t, got.Handle)
}

func TestLineRegistry_RemoveAndEnable(t *testing.T) {
	a := fake.New()
	a.LoadClass("pkg.Main")
	a.AddLine("pkg.Main", 1)
	tgt, _ := a.ConnectLaunch(nil, "pkg.Main", nil, nil, false)

	reg := breakpoints.NewLineRegistry(resolvecache.New())
	rec, err := reg.Set(a, tgt, "pkg.Main", 1)
	require.NoError(t, err)

	require.NoError(t, reg.SetEnabled(rec.ID, false))
	got, _ := reg.Get(rec.ID)
	assert.False(t, got.Enabled)

	require.NoError(t, reg.Remove(rec.ID))
	_, ok := reg.Get(rec.ID)
	assert.False(t, ok)

	err = reg.Remove(rec.ID)
	assert.Equal(t, errs.NotFound, errs.KindOf(err))
}

func TestWatchpointRegistry_AccessAndModifyShareClass(t *testing.T) {
	a := fake.New()
	a.LoadClass("pkg.Counter")
	a.AddField("pkg.Counter", "value")
	tgt, _ := a.ConnectLaunch(nil, "pkg.Counter", nil, nil, false)

	reg := breakpoints.NewWatchpointRegistry(resolvecache.New())
	access, err := reg.Set(a, tgt, breakpoints.WatchAccess, "pkg.Counter", "value")
	require.NoError(t, err)
	assert.Equal(t, "wa-1", access.ID)

	modify, err := reg.Set(a, tgt, breakpoints.WatchModify, "pkg.Counter", "value")
	require.NoError(t, err)
	assert.Equal(t, "wm-1", modify.ID)

	list := reg.List()
	assert.Len(t, list, 2)
}

func TestWatchpointRegistry_FieldNotFound(t *testing.T) {
	a := fake.New()
	a.LoadClass("pkg.Counter")
	tgt, _ := a.ConnectLaunch(nil, "pkg.Counter", nil, nil, false)

	reg := breakpoints.NewWatchpointRegistry(resolvecache.New())
	_, err := reg.Set(a, tgt, breakpoints.WatchAccess, "pkg.Counter", "missing")
	require.Error(t, err)
	assert.Equal(t, errs.FieldNotFound, errs.KindOf(err))
}

func TestWatchpointRegistry_CapabilityMissing(t *testing.T) {
	a := fake.New()
	a.SetCapabilities(0)
	tgt, _ := a.ConnectLaunch(nil, "pkg.Counter", nil, nil, false)

	reg := breakpoints.NewWatchpointRegistry(resolvecache.New())
	_, err := reg.Set(a, tgt, breakpoints.WatchAccess, "pkg.Counter", "value")
	require.Error(t, err)
	assert.Equal(t, errs.CapabilityMissing, errs.KindOf(err))
}

func TestMethodBreakRegistry_EntryAndExit(t *testing.T) {
	a := fake.New()
	a.LoadClass("pkg.Service")
	tgt, _ := a.ConnectLaunch(nil, "pkg.Service", nil, nil, false)

	reg := breakpoints.NewMethodBreakRegistry(resolvecache.New())
	entry, err := reg.Set(a, tgt, breakpoints.MethodEntry, "pkg.Service")
	require.NoError(t, err)
	assert.Equal(t, "me-1", entry.ID)

	exit, err := reg.Set(a, tgt, breakpoints.MethodExit, "pkg.Service")
	require.NoError(t, err)
	assert.Equal(t, "mx-1", exit.ID)

	require.NoError(t, reg.Remove(entry.ID))
	assert.Len(t, reg.List(), 1)
}

func TestExceptionRegistry_ClassNotFoundIsImmediate(t *testing.T) {
	a := fake.New()
	tgt, _ := a.ConnectLaunch(nil, "pkg.Main", nil, nil, false)

	reg := breakpoints.NewExceptionRegistry(resolvecache.New())
	_, err := reg.Set(a, tgt, "pkg.MyException", true, true)
	require.Error(t, err)
	assert.Equal(t, errs.ClassNotFound, errs.KindOf(err))
}

func TestExceptionRegistry_SetAndDedup(t *testing.T) {
	a := fake.New()
	a.LoadClass("pkg.MyException")
	tgt, _ := a.ConnectLaunch(nil, "pkg.MyException", nil, nil, false)

	reg := breakpoints.NewExceptionRegistry(resolvecache.New())
	rec, err := reg.Set(a, tgt, "pkg.MyException", true, false)
	require.NoError(t, err)
	assert.Equal(t, "ex-1", rec.ID)

	rec2, err := reg.Set(a, tgt, "pkg.MyException", true, false)
	require.NoError(t, err)
	assert.Equal(t, rec.ID, rec2.ID)

	// Different catch policy is a distinct record.
	rec3, err := reg.Set(a, tgt, "pkg.MyException", false, true)
	require.NoError(t, err)
	assert.NotEqual(t, rec.ID, rec3.ID)
}

var _ adapter.Adapter = (*fake.Adapter)(nil)
