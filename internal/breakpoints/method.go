package breakpoints

import (
	"sync"

	"github.com/dev-console/debugctl/internal/adapter"
	"github.com/dev-console/debugctl/internal/errs"
	"github.com/dev-console/debugctl/internal/resolvecache"
)

// MethodEventKind distinguishes method-entry from method-exit breakpoints.
type MethodEventKind string

const (
	MethodEntry MethodEventKind = "ENTRY"
	MethodExit  MethodEventKind = "EXIT"
)

// MethodBreakRecord is a method-entry or method-exit breakpoint, scoped to
// a declaring type (these fire for every method of the type,
// not a single overload).
type MethodBreakRecord struct {
	ID        string
	Kind      MethodEventKind
	ClassName string
	Handle    adapter.RequestHandle
	Enabled   bool
	Pending   bool
}

func (r *MethodBreakRecord) clone() MethodBreakRecord { return *r }

// MethodBreakRegistry manages both ENTRY (me-N) and EXIT (mx-N) records.
type MethodBreakRegistry struct {
	mu       sync.Mutex
	entryIDs idCounter
	exitIDs  idCounter
	records  map[string]*MethodBreakRecord
	deferred map[string][]*MethodBreakRecord
	byHandle map[adapter.RequestHandle]string
	cache    *resolvecache.Cache

	ArmClassPrepare func() error
	armed           bool
}

// NewMethodBreakRegistry builds an empty registry.
func NewMethodBreakRegistry(cache *resolvecache.Cache) *MethodBreakRegistry {
	return &MethodBreakRegistry{
		entryIDs: idCounter{prefix: "me-"},
		exitIDs:  idCounter{prefix: "mx-"},
		records:  make(map[string]*MethodBreakRecord),
		deferred: make(map[string][]*MethodBreakRecord),
		byHandle: make(map[adapter.RequestHandle]string),
		cache:    cache,
	}
}

// Set creates or resolves a type-scoped method breakpoint.
func (r *MethodBreakRegistry) Set(a adapter.Adapter, t adapter.Target, kind MethodEventKind, className string) (*MethodBreakRecord, error) {
	if !a.Capabilities().Has(adapter.CapMethodBreakpoints) {
		return nil, errs.New(errs.CapabilityMissing, "adapter does not support method breakpoints")
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	typ, err := resolveClass(a, t, r.cache, className)
	if err != nil {
		return nil, err
	}
	if typ == nil {
		return r.createPending(kind, className), nil
	}

	if existing := r.findActiveLocked(kind, className); existing != nil {
		return existing, nil
	}

	handle, err := r.createHandle(a, t, kind, typ)
	if err != nil {
		return nil, err
	}
	_ = handle.SetSuspendPolicy(adapter.SuspendAll)
	_ = handle.Enable()

	rec := &MethodBreakRecord{ID: r.nextID(kind), Kind: kind, ClassName: className, Handle: handle, Enabled: true}
	r.records[rec.ID] = rec
	r.byHandle[handle] = rec.ID
	return rec, nil
}

func (r *MethodBreakRegistry) createHandle(a adapter.Adapter, t adapter.Target, kind MethodEventKind, typ adapter.TypeRef) (adapter.RequestHandle, error) {
	if kind == MethodEntry {
		return a.CreateMethodEntry(t, typ)
	}
	return a.CreateMethodExit(t, typ)
}

func (r *MethodBreakRegistry) nextID(kind MethodEventKind) string {
	if kind == MethodEntry {
		return r.entryIDs.next()
	}
	return r.exitIDs.next()
}

func (r *MethodBreakRegistry) createPending(kind MethodEventKind, className string) *MethodBreakRecord {
	rec := &MethodBreakRecord{ID: r.nextID(kind), Kind: kind, ClassName: className, Pending: true}
	r.records[rec.ID] = rec
	r.deferred[className] = append(r.deferred[className], rec)
	if r.ArmClassPrepare != nil && !r.armed {
		_ = r.ArmClassPrepare()
		r.armed = true
	}
	return rec
}

func (r *MethodBreakRegistry) findActiveLocked(kind MethodEventKind, className string) *MethodBreakRecord {
	for _, rec := range r.records {
		if rec.Pending || rec.Kind != kind {
			continue
		}
		if rec.ClassName == className {
			return rec
		}
	}
	return nil
}

// OnClassPrepare resolves every deferred method breakpoint for the class.
func (r *MethodBreakRegistry) OnClassPrepare(a adapter.Adapter, t adapter.Target, className string) {
	r.mu.Lock()
	pending := r.deferred[className]
	delete(r.deferred, className)
	r.mu.Unlock()

	for _, rec := range pending {
		r.mu.Lock()
		typ, err := resolveClass(a, t, r.cache, className)
		if err != nil || typ == nil {
			r.mu.Unlock()
			continue
		}
		if existing := r.findActiveLocked(rec.Kind, className); existing != nil && existing != rec {
			delete(r.records, rec.ID)
			r.mu.Unlock()
			continue
		}
		handle, err := r.createHandle(a, t, rec.Kind, typ)
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
		rec.Handle = handle
		rec.Pending = false
		r.byHandle[handle] = rec.ID
		r.mu.Unlock()
	}
}

// IDByHandle recovers a record id from its firing handle.
func (r *MethodBreakRegistry) IDByHandle(h adapter.RequestHandle) (string, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	id, ok := r.byHandle[h]
	return id, ok
}

// Remove deletes a method-breakpoint record by id, regardless of kind.
func (r *MethodBreakRegistry) Remove(id string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	rec, ok := r.records[id]
	if !ok {
		return errs.New(errs.NotFound, "no method breakpoint %q", id)
	}
	if rec.Handle != nil {
		_ = rec.Handle.Delete()
		delete(r.byHandle, rec.Handle)
	}
	delete(r.records, id)
	for cls, list := range r.deferred {
		r.deferred[cls] = removeMethodRecord(list, rec)
	}
	return nil
}

func removeMethodRecord(list []*MethodBreakRecord, rec *MethodBreakRecord) []*MethodBreakRecord {
	out := list[:0]
	for _, r := range list {
		if r != rec {
			out = append(out, r)
		}
	}
	return out
}

// SetEnabled enables/disables a method breakpoint by id.
func (r *MethodBreakRegistry) SetEnabled(id string, enabled bool) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	rec, ok := r.records[id]
	if !ok {
		return errs.New(errs.NotFound, "no method breakpoint %q", id)
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

// List returns a snapshot of every record, both kinds.
func (r *MethodBreakRegistry) List() []MethodBreakRecord {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]MethodBreakRecord, 0, len(r.records))
	for _, rec := range r.records {
		out = append(out, rec.clone())
	}
	return out
}

// ClearAll deletes every handle (best-effort) and clears the registry.
func (r *MethodBreakRegistry) ClearAll() {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, rec := range r.records {
		if rec.Handle != nil {
			_ = rec.Handle.Delete()
		}
	}
	r.records = make(map[string]*MethodBreakRecord)
	r.deferred = make(map[string][]*MethodBreakRecord)
	r.byHandle = make(map[adapter.RequestHandle]string)
	r.armed = false
}
