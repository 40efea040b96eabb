package breakpoints

import (
	"sync"

	"github.com/dev-console/debugctl/internal/adapter"
	"github.com/dev-console/debugctl/internal/errs"
	"github.com/dev-console/debugctl/internal/resolvecache"
)

// WatchKind distinguishes field-access from field-modify watchpoints; both
// share one registry and one WatchpointRecord shape.
type WatchKind string

const (
	WatchAccess WatchKind = "ACCESS"
	WatchModify WatchKind = "MODIFY"
)

// WatchpointRecord is a field watchpoint, either kind.
type WatchpointRecord struct {
	ID        string
	Kind      WatchKind
	ClassName string
	Field     string
	Handle    adapter.RequestHandle
	Enabled   bool
	Pending   bool
}

func (r *WatchpointRecord) clone() WatchpointRecord { return *r }

// WatchpointRegistry manages both ACCESS and MODIFY field watchpoints. Ids
// are prefixed per kind (wa-N / wm-N) so one counter pair never collides.
type WatchpointRegistry struct {
	mu         sync.Mutex
	accessIDs  idCounter
	modifyIDs  idCounter
	records    map[string]*WatchpointRecord
	deferred   map[string][]*WatchpointRecord
	byHandle   map[adapter.RequestHandle]string
	cache      *resolvecache.Cache

	ArmClassPrepare func() error
	armed           bool
}

// NewWatchpointRegistry builds an empty registry.
func NewWatchpointRegistry(cache *resolvecache.Cache) *WatchpointRegistry {
	return &WatchpointRegistry{
		accessIDs: idCounter{prefix: "wa-"},
		modifyIDs: idCounter{prefix: "wm-"},
		records:   make(map[string]*WatchpointRecord),
		deferred:  make(map[string][]*WatchpointRecord),
		byHandle:  make(map[adapter.RequestHandle]string),
		cache:     cache,
	}
}

// Set creates or resolves a field watchpoint of the given kind.
func (r *WatchpointRegistry) Set(a adapter.Adapter, t adapter.Target, kind WatchKind, className, field string) (*WatchpointRecord, error) {
	if !a.Capabilities().Has(adapter.CapWatchpoints) {
		return nil, errs.New(errs.CapabilityMissing, "adapter does not support watchpoints")
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	typ, err := resolveClass(a, t, r.cache, className)
	if err != nil {
		return nil, err
	}
	if typ == nil {
		return r.createPending(kind, className, field), nil
	}

	fref, err := a.FieldByName(t, typ, field)
	if err != nil {
		return nil, err
	}
	if fref == nil {
		return nil, errs.New(errs.FieldNotFound, "no field %s on %s", field, className)
	}

	if existing := r.findActiveLocked(kind, className, field); existing != nil {
		return existing, nil
	}

	handle, err := r.createHandle(a, t, kind, fref)
	if err != nil {
		return nil, err
	}
	_ = handle.SetSuspendPolicy(adapter.SuspendAll)
	_ = handle.Enable()

	rec := &WatchpointRecord{ID: r.nextID(kind), Kind: kind, ClassName: className, Field: field, Handle: handle, Enabled: true}
	r.records[rec.ID] = rec
	r.byHandle[handle] = rec.ID
	return rec, nil
}

func (r *WatchpointRegistry) createHandle(a adapter.Adapter, t adapter.Target, kind WatchKind, f adapter.FieldRef) (adapter.RequestHandle, error) {
	if kind == WatchAccess {
		return a.CreateAccessWatch(t, f)
	}
	return a.CreateModifyWatch(t, f)
}

func (r *WatchpointRegistry) nextID(kind WatchKind) string {
	if kind == WatchAccess {
		return r.accessIDs.next()
	}
	return r.modifyIDs.next()
}

func (r *WatchpointRegistry) createPending(kind WatchKind, className, field string) *WatchpointRecord {
	rec := &WatchpointRecord{ID: r.nextID(kind), Kind: kind, ClassName: className, Field: field, Pending: true}
	r.records[rec.ID] = rec
	r.deferred[className] = append(r.deferred[className], rec)
	if r.ArmClassPrepare != nil && !r.armed {
		_ = r.ArmClassPrepare()
		r.armed = true
	}
	return rec
}

func (r *WatchpointRegistry) findActiveLocked(kind WatchKind, className, field string) *WatchpointRecord {
	for _, rec := range r.records {
		if rec.Pending || rec.Kind != kind {
			continue
		}
		if rec.ClassName == className && rec.Field == field {
			return rec
		}
	}
	return nil
}

// OnClassPrepare resolves every deferred watchpoint for the prepared class.
func (r *WatchpointRegistry) OnClassPrepare(a adapter.Adapter, t adapter.Target, className string) {
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
		fref, err := a.FieldByName(t, typ, rec.Field)
		if err != nil || fref == nil {
			r.mu.Unlock()
			continue
		}
		if existing := r.findActiveLocked(rec.Kind, className, rec.Field); existing != nil && existing != rec {
			delete(r.records, rec.ID)
			r.mu.Unlock()
			continue
		}
		handle, err := r.createHandle(a, t, rec.Kind, fref)
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
func (r *WatchpointRegistry) IDByHandle(h adapter.RequestHandle) (string, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	id, ok := r.byHandle[h]
	return id, ok
}

// Remove deletes a watchpoint record by id, regardless of kind.
func (r *WatchpointRegistry) Remove(id string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	rec, ok := r.records[id]
	if !ok {
		return errs.New(errs.NotFound, "no watchpoint %q", id)
	}
	if rec.Handle != nil {
		_ = rec.Handle.Delete()
		delete(r.byHandle, rec.Handle)
	}
	delete(r.records, id)
	for cls, list := range r.deferred {
		r.deferred[cls] = removeWatchRecord(list, rec)
	}
	return nil
}

func removeWatchRecord(list []*WatchpointRecord, rec *WatchpointRecord) []*WatchpointRecord {
	out := list[:0]
	for _, r := range list {
		if r != rec {
			out = append(out, r)
		}
	}
	return out
}

// SetEnabled enables/disables a watchpoint by id.
func (r *WatchpointRegistry) SetEnabled(id string, enabled bool) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	rec, ok := r.records[id]
	if !ok {
		return errs.New(errs.NotFound, "no watchpoint %q", id)
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
func (r *WatchpointRegistry) List() []WatchpointRecord {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]WatchpointRecord, 0, len(r.records))
	for _, rec := range r.records {
		out = append(out, rec.clone())
	}
	return out
}

// ClearAll deletes every handle (best-effort) and clears the registry.
func (r *WatchpointRegistry) ClearAll() {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, rec := range r.records {
		if rec.Handle != nil {
			_ = rec.Handle.Delete()
		}
	}
	r.records = make(map[string]*WatchpointRecord)
	r.deferred = make(map[string][]*WatchpointRecord)
	r.byHandle = make(map[adapter.RequestHandle]string)
	r.armed = false
}
