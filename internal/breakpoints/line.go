package breakpoints

import (
	"sync"

	"github.com/dev-console/debugctl/internal/adapter"
	"github.com/dev-console/debugctl/internal/errs"
	"github.com/dev-console/debugctl/internal/resolvecache"
)

// LineRecord is a line breakpoint (BreakpointRecord). Invariant:
// Handle == nil iff Pending.
type LineRecord struct {
	ID        string
	ClassName string
	Line      int
	Handle    adapter.RequestHandle
	Enabled   bool
	Pending   bool
	// HitCount is reported by breakpoint_list but never incremented: the
	// adapter's breakpoint events are not counted per record.
	HitCount  int
}

func (r *LineRecord) clone() LineRecord { c := *r; return c }

// LineRegistry is the registry for line breakpoints.
type LineRegistry struct {
	mu       sync.Mutex
	ids      idCounter
	records  map[string]*LineRecord
	deferred map[string][]*LineRecord // class name -> pending records
	byHandle map[adapter.RequestHandle]string
	cache    *resolvecache.Cache

	// ArmClassPrepare is called at most once (idempotently) to ensure a
	// class-prepare watch exists so onClassPrepare will be invoked later.
	// Left nil in tests that drive onClassPrepare directly.
	ArmClassPrepare func() error
	armed           bool
}

// NewLineRegistry builds an empty registry.
func NewLineRegistry(cache *resolvecache.Cache) *LineRegistry {
	return &LineRegistry{
		ids:      idCounter{prefix: "bp-"},
		records:  make(map[string]*LineRecord),
		deferred: make(map[string][]*LineRecord),
		byHandle: make(map[adapter.RequestHandle]string),
		cache:    cache,
	}
}

// Set creates or resolves a line breakpoint at className:line.
func (r *LineRegistry) Set(a adapter.Adapter, t adapter.Target, className string, line int) (*LineRecord, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	typ, err := resolveClass(a, t, r.cache, className)
	if err != nil {
		return nil, err
	}
	if typ == nil {
		return r.createPending(className, line), nil
	}

	locs, err := a.LocationsAtLine(t, typ, line)
	if err != nil {
		return nil, err
	}
	if len(locs) == 0 {
		return nil, errs.New(errs.NoCodeAtLine, "no executable code at %s:%d", className, line)
	}
	loc := locs[0]

	if existing := r.findByLocationLocked(loc); existing != nil {
		return existing, nil
	}

	handle, err := a.CreateBreakpoint(t, loc)
	if err != nil {
		return nil, err
	}
	_ = handle.SetSuspendPolicy(adapter.SuspendAll)
	_ = handle.Enable()

	rec := &LineRecord{ID: r.ids.next(), ClassName: className, Line: line, Handle: handle, Enabled: true}
	handle.AttachTag("id", rec.ID)
	r.records[rec.ID] = rec
	r.byHandle[handle] = rec.ID
	return rec, nil
}

func (r *LineRegistry) createPending(className string, line int) *LineRecord {
	rec := &LineRecord{ID: r.ids.next(), ClassName: className, Line: line, Pending: true}
	r.records[rec.ID] = rec
	r.deferred[className] = append(r.deferred[className], rec)
	if r.ArmClassPrepare != nil && !r.armed {
		_ = r.ArmClassPrepare()
		r.armed = true
	}
	return rec
}

// findByLocationLocked returns an existing non-pending record at loc, if any.
func (r *LineRegistry) findByLocationLocked(loc adapter.Location) *LineRecord {
	for _, rec := range r.records {
		if rec.Pending {
			continue
		}
		if rec.ClassName == loc.TypeName && rec.Line == loc.Line {
			return rec
		}
	}
	return nil
}

// FindByLocation is used by StopReason construction.
func (r *LineRegistry) FindByLocation(loc adapter.Location) (string, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if rec := r.findByLocationLocked(loc); rec != nil {
		return rec.ID, true
	}
	return "", false
}

// IDByHandle recovers a record id from the handle that fired an event
// (handle->id map, not adapter-side tags).
func (r *LineRegistry) IDByHandle(h adapter.RequestHandle) (string, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	id, ok := r.byHandle[h]
	return id, ok
}

// OnClassPrepare resolves every deferred record for the prepared class.
func (r *LineRegistry) OnClassPrepare(a adapter.Adapter, t adapter.Target, className string) {
	r.mu.Lock()
	pending := r.deferred[className]
	delete(r.deferred, className)
	r.mu.Unlock()

	for _, rec := range pending {
		r.mu.Lock()
		typ, err := resolveClass(a, t, r.cache, className)
		if err != nil || typ == nil {
			// Stays pending: open question, preserved per 
			r.mu.Unlock()
			continue
		}
		locs, err := a.LocationsAtLine(t, typ, rec.Line)
		if err != nil || len(locs) == 0 {
			r.mu.Unlock()
			continue
		}
		loc := locs[0]
		if existing := r.findByLocationLocked(loc); existing != nil && existing != rec {
			// De-duplicate: drop this pending record in favor of the
			// already-active one it now coincides with.
			delete(r.records, rec.ID)
			r.mu.Unlock()
			continue
		}
		handle, err := a.CreateBreakpoint(t, loc)
		if err != nil {
			r.mu.Unlock()
			continue
		}
		_ = handle.SetSuspendPolicy(adapter.SuspendAll)
		if rec.Enabled {
			_ = handle.Enable()
		} else {
			_ = handle.Disable()
		}
		handle.AttachTag("id", rec.ID)
		rec.Handle = handle
		rec.Pending = false
		r.byHandle[handle] = rec.ID
		r.mu.Unlock()
	}
}

// Remove deletes a record (and its adapter handle, if any).
func (r *LineRegistry) Remove(id string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	rec, ok := r.records[id]
	if !ok {
		return errs.New(errs.NotFound, "no line breakpoint %q", id)
	}
	if rec.Handle != nil {
		_ = rec.Handle.Delete()
		delete(r.byHandle, rec.Handle)
	}
	delete(r.records, id)
	for cls, list := range r.deferred {
		r.deferred[cls] = removeRecord(list, rec)
	}
	return nil
}

func removeRecord(list []*LineRecord, rec *LineRecord) []*LineRecord {
	out := list[:0]
	for _, r := range list {
		if r != rec {
			out = append(out, r)
		}
	}
	return out
}

// SetEnabled enables/disables a record, idempotently.
func (r *LineRegistry) SetEnabled(id string, enabled bool) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	rec, ok := r.records[id]
	if !ok {
		return errs.New(errs.NotFound, "no line breakpoint %q", id)
	}
	rec.Enabled = enabled
	if rec.Handle != nil {
		if enabled {
			return rec.Handle.Enable()
		}
		return rec.Handle.Disable()
	}
	return nil
}

// Get returns a copy of a record by id.
func (r *LineRegistry) Get(id string) (LineRecord, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	rec, ok := r.records[id]
	if !ok {
		return LineRecord{}, false
	}
	return rec.clone(), true
}

// List returns a snapshot of every record.
func (r *LineRegistry) List() []LineRecord {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]LineRecord, 0, len(r.records))
	for _, rec := range r.records {
		out = append(out, rec.clone())
	}
	return out
}

// ClearAll deletes every handle (best-effort) and clears the registry.
func (r *LineRegistry) ClearAll() {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, rec := range r.records {
		if rec.Handle != nil {
			_ = rec.Handle.Delete()
		}
	}
	r.records = make(map[string]*LineRecord)
	r.deferred = make(map[string][]*LineRecord)
	r.byHandle = make(map[adapter.RequestHandle]string)
	r.armed = false
}
