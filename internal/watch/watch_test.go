package watch_test

import (
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/google/go-cmp/cmp/cmpopts"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dev-console/debugctl/internal/errs"
	"github.com/dev-console/debugctl/internal/watch"
)

func TestStore_AddAndEvaluateRoundTrip(t *testing.T) {
	s := watch.New()
	id := s.Add("this.counter")
	assert.Equal(t, "w-1", id)

	require.NoError(t, s.SetValue(id, "42", 1000))
	rec, ok := s.Get(id)
	require.True(t, ok)
	assert.True(t, rec.HasLastValue)
	assert.False(t, rec.HasLastError)
	assert.Equal(t, "42", rec.LastValueText)

	require.NoError(t, s.SetError(id, "null dereference", 2000))
	rec, _ = s.Get(id)
	assert.False(t, rec.HasLastValue)
	assert.True(t, rec.HasLastError)
	assert.Equal(t, "", rec.LastValueText)
}

func TestStore_RemoveUnknown(t *testing.T) {
	s := watch.New()
	err := s.Remove("w-99")
	assert.Equal(t, errs.NotFound, errs.KindOf(err))
}

func TestStore_AddRemoveAddRoundTrip(t *testing.T) {
	s := watch.New()
	id := s.Add("x")
	require.NoError(t, s.Remove(id))
	id2 := s.Add("y")
	assert.NotEqual(t, id, id2)
	assert.Len(t, s.List(), 1)
}

func TestStore_ListIsInsertionOrderedAndIgnoresRemoved(t *testing.T) {
	s := watch.New()
	a := s.Add("a")
	b := s.Add("b")
	require.NoError(t, s.Remove(a))
	c := s.Add("c")
	require.NoError(t, s.SetValue(b, "1", 10))
	require.NoError(t, s.SetValue(c, "2", 20))

	want := []watch.Expression{
		{ID: b, Source: "b", HasLastValue: true, LastValueText: "1", LastEvaluatedAtMs: 10},
		{ID: c, Source: "c", HasLastValue: true, LastValueText: "2", LastEvaluatedAtMs: 20},
	}
	got := s.List()
	if diff := cmp.Diff(want, got, cmpopts.EquateEmpty()); diff != "" {
		t.Errorf("List() mismatch (-want +got):\n%s", diff)
	}
}
