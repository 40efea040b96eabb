package bpspec_test

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/dev-console/debugctl/internal/bpspec"
)

type fakeSetter struct {
	nextID int
	live   map[string]string // id -> "class:line"
}

func newFakeSetter() *fakeSetter { return &fakeSetter{live: make(map[string]string)} }

func (f *fakeSetter) Set(className string, line int) (string, error) {
	f.nextID++
	id := "bp-" + itoa(f.nextID)
	f.live[id] = className
	return id, nil
}

func (f *fakeSetter) Remove(id string) error {
	delete(f.live, id)
	return nil
}

func itoa(n int) string {
	if n == 0 {
		return "0"
	}
	var buf [20]byte
	i := len(buf)
	for n > 0 {
		i--
		buf[i] = byte('0' + n%10)
		n /= 10
	}
	return string(buf[i:])
}

func writeSpec(t *testing.T, path, body string) {
	t.Helper()
	require.NoError(t, os.WriteFile(path, []byte(body), 0o644))
}

func TestWatcher_ApplyInitial(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "bps.json")
	writeSpec(t, path, `[{"className":"pkg.Foo","lineNumber":10},{"className":"pkg.Bar","lineNumber":20}]`)

	setter := newFakeSetter()
	w := bpspec.New(zap.NewNop(), path, setter)
	require.NoError(t, w.ApplyInitial())
	assert.Len(t, setter.live, 2)
}

func TestWatcher_ReconcileAddsAndRemoves(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "bps.json")
	writeSpec(t, path, `[{"className":"pkg.Foo","lineNumber":10}]`)

	setter := newFakeSetter()
	w := bpspec.New(zap.NewNop(), path, setter)
	require.NoError(t, w.ApplyInitial())
	require.Len(t, setter.live, 1)

	stop, err := w.Start()
	require.NoError(t, err)
	defer stop()

	writeSpec(t, path, `[{"className":"pkg.Baz","lineNumber":99}]`)

	deadline := time.Now().Add(2 * time.Second)
	for len(setter.live) != 1 || !containsClass(setter.live, "pkg.Baz") {
		if time.Now().After(deadline) {
			t.Fatal("timed out waiting for reconcile")
		}
		time.Sleep(20 * time.Millisecond)
	}
}

func containsClass(live map[string]string, class string) bool {
	for _, c := range live {
		if c == class {
			return true
		}
	}
	return false
}
