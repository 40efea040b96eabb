package breakpoints

import (
	"sync"

	"github.com/dev-console/debugctl/internal/adapter"
	"github.com/dev-console/debugctl/internal/errs"
	"github.com/dev-console/debugctl/internal/resolvecache"
)

// ExceptionRecord is an exception breakpoint. Unlike the other four
// registries it never defers: java.lang.Throwable and its subclasses are
// always loaded by the time a target can throw them, so ClassNotFound is a
// genuine error here rather than a pending state.
type ExceptionRecord struct {
	ID            string
	ClassName     string
	CatchCaught   bool
	CatchUncaught bool
	Handle        adapter.RequestHandle
	Enabled       bool
}

func (r *ExceptionRecord) clone() ExceptionRecord { return *r }

// ExceptionRegistry manages exception breakpoints (ex-N).
type ExceptionRegistry struct {
	mu       sync.Mutex
	ids      idCounter
	records  map[string]*ExceptionRecord
	byHandle map[adapter.RequestHandle]string
	cache    *resolvecache.Cache
}

// NewExceptionRegistry builds an empty registry.
func NewExceptionRegistry(cache *resolvecache.Cache) *ExceptionRegistry {
	return &ExceptionRegistry{
		ids:      idCounter{prefix: "ex-"},
		records:  make(map[string]*ExceptionRecord),
		byHandle: make(map[adapter.RequestHandle]string),
		cache:    cache,
	}
}

// Set creates an exception breakpoint on className (typically a Throwable
// subclass). catchCaught/catchUncaught select which occurrences trigger it.
func (r *ExceptionRegistry) Set(a adapter.Adapter, t adapter.Target, className string, catchCaught, catchUncaught bool) (*ExceptionRecord, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	typ, err := resolveClass(a, t, r.cache, className)
	if err != nil {
		return nil, err
	}
	if typ == nil {
		return nil, errs.New(errs.ClassNotFound, "class %s is not loaded", className)
	}

	for _, rec := range r.records {
		if rec.ClassName == className && rec.CatchCaught == catchCaught && rec.CatchUncaught == catchUncaught {
			return rec, nil
		}
	}

	handle, err := a.CreateException(t, typ, catchCaught, catchUncaught)
	if err != nil {
		return nil, err
	}
	_ = handle.SetSuspendPolicy(adapter.SuspendAll)
	_ = handle.Enable()

	rec := &ExceptionRecord{
		ID: r.ids.next(), ClassName: className,
		CatchCaught: catchCaught, CatchUncaught: catchUncaught,
		Handle: handle, Enabled: true,
	}
	r.records[rec.ID] = rec
	r.byHandle[handle] = rec.ID
	return rec, nil
}

// IDByHandle recovers a record id from its firing handle.
func (r *ExceptionRegistry) IDByHandle(h adapter.RequestHandle) (string, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	id, ok := r.byHandle[h]
	return id, ok
}

// Get returns a copy of a record by id.
func (r *ExceptionRegistry) Get(id string) (ExceptionRecord, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	rec, ok := r.records[id]
	if !ok {
		return ExceptionRecord{}, false
	}
	return rec.clone(), true
}

// Remove deletes a record by id.
func (r *ExceptionRegistry) Remove(id string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	rec, ok := r.records[id]
	if !ok {
		return errs.New(errs.NotFound, "no exception breakpoint %q", id)
	}
	_ = rec.Handle.Delete()
	delete(r.byHandle, rec.Handle)
	delete(r.records, id)
	return nil
}

// SetEnabled enables/disables a record by id.
func (r *ExceptionRegistry) SetEnabled(id string, enabled bool) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	rec, ok := r.records[id]
	if !ok {
		return errs.New(errs.NotFound, "no exception breakpoint %q", id)
	}
	rec.Enabled = enabled
	if enabled {
		return rec.Handle.Enable()
	}
	return rec.Handle.Disable()
}

// List returns a snapshot of every record.
func (r *ExceptionRegistry) List() []ExceptionRecord {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]ExceptionRecord, 0, len(r.records))
	for _, rec := range r.records {
		out = append(out, rec.clone())
	}
	return out
}

// ClearAll deletes every handle (best-effort) and clears the registry.
func (r *ExceptionRegistry) ClearAll() {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, rec := range r.records {
		_ = rec.Handle.Delete()
	}
	r.records = make(map[string]*ExceptionRecord)
	r.byHandle = make(map[adapter.RequestHandle]string)
}
