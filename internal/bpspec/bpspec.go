// Package bpspec implements the breakpoint-spec file loader/watcher: a
// declarative starting set of line breakpoints, diffed and re-applied on
// every write via an fsnotify event loop over a single watched path,
// diffing a small {className, lineNumber} entry list against the
// session's line registry.
package bpspec

import (
	"encoding/json"
	"fmt"
	"os"

	"github.com/fsnotify/fsnotify"
	"go.uber.org/zap"
)

// Entry is one declared starting breakpoint.
type Entry struct {
	ClassName  string `json:"className"`
	LineNumber int    `json:"lineNumber"`
}

func (e Entry) key() string { return fmt.Sprintf("%s:%d", e.ClassName, e.LineNumber) }

// Load reads and parses a breakpoint-spec file.
func Load(path string) ([]Entry, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	var entries []Entry
	if err := json.Unmarshal(data, &entries); err != nil {
		return nil, fmt.Errorf("bpspec: parse %s: %w", path, err)
	}
	return entries, nil
}

// Setter is the subset of the session's line-breakpoint machinery the
// watcher drives — a thin adapter/target-bound closure pair over
// breakpoints.LineRegistry.Set/Remove, so this package depends on neither
// the adapter nor session packages directly.
type Setter interface {
	Set(className string, line int) (id string, err error)
	Remove(id string) error
}

// Watcher applies a breakpoint-spec file at connect time and re-diffs it
// against the live set on every write.
type Watcher struct {
	log     *zap.Logger
	path    string
	setter  Setter
	current map[string]string // entry key -> breakpoint id
}

// New builds a watcher bound to setter, which performs the actual
// breakpoint_set/remove calls against the session's line registry.
func New(log *zap.Logger, path string, setter Setter) *Watcher {
	return &Watcher{log: log, path: path, setter: setter, current: make(map[string]string)}
}

// ApplyInitial loads the spec file and sets every entry. It is called after
// a successful launch/attach, when the session's event pump is already running.
func (w *Watcher) ApplyInitial() error {
	entries, err := Load(w.path)
	if err != nil {
		return err
	}
	return w.reconcile(entries)
}

// Start arms an fsnotify watch on the spec file's directory-resident path
// and re-diffs on every write, added entries are set, removed ones are
// removed by id, unchanged ones are left alone.
func (w *Watcher) Start() (func() error, error) {
	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, err
	}
	if err := watcher.Add(w.path); err != nil {
		_ = watcher.Close()
		return nil, err
	}

	go func() {
		for evt := range watcher.Events {
			if evt.Op&(fsnotify.Write|fsnotify.Create) == 0 {
				continue
			}
			entries, err := Load(w.path)
			if err != nil {
				w.log.Warn("bpspec: reload failed", zap.String("path", w.path), zap.Error(err))
				continue
			}
			if err := w.reconcile(entries); err != nil {
				w.log.Warn("bpspec: reconcile failed", zap.Error(err))
			}
		}
	}()

	return watcher.Close, nil
}

func (w *Watcher) reconcile(entries []Entry) error {
	wanted := make(map[string]Entry, len(entries))
	for _, e := range entries {
		wanted[e.key()] = e
	}

	for key, id := range w.current {
		if _, ok := wanted[key]; !ok {
			if err := w.setter.Remove(id); err != nil {
				w.log.Warn("bpspec: remove stale breakpoint failed", zap.String("id", id), zap.Error(err))
			}
			delete(w.current, key)
		}
	}

	for key, e := range wanted {
		if _, ok := w.current[key]; ok {
			continue
		}
		id, err := w.setter.Set(e.ClassName, e.LineNumber)
		if err != nil {
			w.log.Warn("bpspec: set failed", zap.String("className", e.ClassName), zap.Int("line", e.LineNumber), zap.Error(err))
			continue
		}
		w.current[key] = id
	}
	return nil
}
