// Package fake provides an in-memory, scriptable implementation of
// adapter.Adapter. The concrete debug-wire protocol is an interchangeable
// external collaborator, so this in-process double stands in for it both
// in tests and as the shipped default — exercising the session/registries/
// evaluator logic deterministically without a real debuggee attached.
package fake

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/dev-console/debugctl/internal/adapter"
)

// Adapter is a single-target fake debug adapter. Not safe for use by more
// than one Target at a time — a broker session only ever drives one live
// debuggee.
type Adapter struct {
	mu sync.Mutex

	caps adapter.Capability

	classes map[string][]*typeRef            // class name -> resolved types
	fields  map[string]map[string]*fieldRef   // class name -> field name -> field
	methods map[string]map[string][]*methodRef // class name -> method name -> overloads
	locs    map[string]map[int][]adapter.Location // class name -> line -> locations

	threads map[uint64]*threadRef

	events    chan adapter.EventSet
	connected bool

	nextHandle uint64
	handles    map[uint64]*handle

	// FailConnect, when non-nil, is returned by the next Connect* call.
	FailConnect error

	// Invoke, when set, scripts the result of InvokeInstance/InvokeStatic.
	Invoke InvocationHook
}

// New builds an empty fake adapter with every capability enabled.
func New() *Adapter {
	return &Adapter{
		caps:    adapter.CapMonitorEvents | adapter.CapMethodBreakpoints | adapter.CapWatchpoints | adapter.CapInvocation,
		classes: make(map[string][]*typeRef),
		fields:  make(map[string]map[string]*fieldRef),
		methods: make(map[string]map[string][]*methodRef),
		locs:    make(map[string]map[int][]adapter.Location),
		threads: make(map[uint64]*threadRef),
		events:  make(chan adapter.EventSet, 64),
		handles: make(map[uint64]*handle),
	}
}

func (a *Adapter) Capabilities() adapter.Capability { return a.caps }

// SetCapabilities overrides the capability bitset, for CapabilityMissing tests.
func (a *Adapter) SetCapabilities(c adapter.Capability) { a.caps = c }

// --- target ---

type target struct{ desc string }

func (t *target) String() string { return t.desc }

func (a *Adapter) ConnectLaunch(_ context.Context, main string, _ []string, _ []string, _ bool) (adapter.Target, error) {
	if a.FailConnect != nil {
		return nil, a.FailConnect
	}
	a.mu.Lock()
	a.connected = true
	a.mu.Unlock()
	return &target{desc: "launch:" + main}, nil
}

func (a *Adapter) ConnectSocket(_ context.Context, host string, port int) (adapter.Target, error) {
	if a.FailConnect != nil {
		return nil, a.FailConnect
	}
	a.mu.Lock()
	a.connected = true
	a.mu.Unlock()
	return &target{desc: fmt.Sprintf("socket:%s:%d", host, port)}, nil
}

func (a *Adapter) ConnectPid(_ context.Context, pid int) (adapter.Target, error) {
	if a.FailConnect != nil {
		return nil, a.FailConnect
	}
	a.mu.Lock()
	a.connected = true
	a.mu.Unlock()
	return &target{desc: fmt.Sprintf("pid:%d", pid)}, nil
}

func (a *Adapter) Disconnect(adapter.Target) {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.connected = false
}

// --- symbols ---

type typeRef struct{ name string }

func (t *typeRef) Name() string { return t.name }

// LoadClass registers a class as resolvable, simulating class-prepare
// visibility. Tests call this, then feed a class-prepare Event, to model
// the deferred-resolution flow.
func (a *Adapter) LoadClass(name string) {
	a.mu.Lock()
	defer a.mu.Unlock()
	if _, ok := a.classes[name]; !ok {
		a.classes[name] = []*typeRef{{name: name}}
	}
}

func (a *Adapter) ClassesByName(_ adapter.Target, name string) ([]adapter.TypeRef, error) {
	a.mu.Lock()
	defer a.mu.Unlock()
	types := a.classes[name]
	out := make([]adapter.TypeRef, 0, len(types))
	for _, t := range types {
		out = append(out, t)
	}
	return out, nil
}

type fieldRef struct {
	name string
	typ  adapter.TypeRef
}

func (f *fieldRef) Name() string                  { return f.name }
func (f *fieldRef) DeclaringType() adapter.TypeRef { return f.typ }

// AddField registers a field on a (already-loaded) class.
func (a *Adapter) AddField(className, fieldName string) {
	a.mu.Lock()
	defer a.mu.Unlock()
	if a.fields[className] == nil {
		a.fields[className] = make(map[string]*fieldRef)
	}
	var typ adapter.TypeRef
	if ts := a.classes[className]; len(ts) > 0 {
		typ = ts[0]
	}
	a.fields[className][fieldName] = &fieldRef{name: fieldName, typ: typ}
}

func (a *Adapter) FieldByName(_ adapter.Target, typ adapter.TypeRef, name string) (adapter.FieldRef, error) {
	a.mu.Lock()
	defer a.mu.Unlock()
	if fs, ok := a.fields[typ.Name()]; ok {
		if f, ok := fs[name]; ok {
			return f, nil
		}
	}
	return nil, nil
}

type methodRef struct {
	name  string
	sig   string
	arity int
	typ   adapter.TypeRef
}

func (m *methodRef) Name() string                  { return m.name }
func (m *methodRef) Signature() string              { return m.sig }
func (m *methodRef) Arity() int                     { return m.arity }
func (m *methodRef) DeclaringType() adapter.TypeRef { return m.typ }

// AddMethod registers a method overload on a class.
func (a *Adapter) AddMethod(className, methodName string, arity int) {
	a.mu.Lock()
	defer a.mu.Unlock()
	if a.methods[className] == nil {
		a.methods[className] = make(map[string][]*methodRef)
	}
	var typ adapter.TypeRef
	if ts := a.classes[className]; len(ts) > 0 {
		typ = ts[0]
	}
	sig := fmt.Sprintf("(%d)", arity)
	a.methods[className][methodName] = append(a.methods[className][methodName], &methodRef{
		name: methodName, sig: sig, arity: arity, typ: typ,
	})
}

func (a *Adapter) MethodsByName(_ adapter.Target, typ adapter.TypeRef, name string) ([]adapter.MethodRef, error) {
	a.mu.Lock()
	defer a.mu.Unlock()
	ms := a.methods[typ.Name()][name]
	out := make([]adapter.MethodRef, 0, len(ms))
	for _, m := range ms {
		out = append(out, m)
	}
	return out, nil
}

// AddLine registers an executable location at className:line.
func (a *Adapter) AddLine(className string, line int) {
	a.mu.Lock()
	defer a.mu.Unlock()
	if a.locs[className] == nil {
		a.locs[className] = make(map[int][]adapter.Location)
	}
	a.locs[className][line] = append(a.locs[className][line], adapter.Location{
		TypeName: className, MethodName: "run", MethodSig: "()V", Line: line,
	})
}

func (a *Adapter) LocationsAtLine(_ adapter.Target, typ adapter.TypeRef, line int) ([]adapter.Location, error) {
	a.mu.Lock()
	defer a.mu.Unlock()
	return append([]adapter.Location(nil), a.locs[typ.Name()][line]...), nil
}

func (a *Adapter) FrameLocation(_ adapter.Target, fr adapter.FrameRef) (adapter.Location, error) {
	f := fr.(*frameRef)
	return f.loc, nil
}

// --- request handles ---

type handle struct {
	id       uint64
	enabled  bool
	deleted  bool
	policy   adapter.SuspendPolicy
	tags     map[string]string
	mu       sync.Mutex
}

func (h *handle) Enable() error  { h.mu.Lock(); defer h.mu.Unlock(); h.enabled = true; return nil }
func (h *handle) Disable() error { h.mu.Lock(); defer h.mu.Unlock(); h.enabled = false; return nil }
func (h *handle) Delete() error  { h.mu.Lock(); defer h.mu.Unlock(); h.deleted = true; return nil }
func (h *handle) SetSuspendPolicy(p adapter.SuspendPolicy) error {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.policy = p
	return nil
}
func (h *handle) AttachTag(key, value string) {
	h.mu.Lock()
	defer h.mu.Unlock()
	if h.tags == nil {
		h.tags = make(map[string]string)
	}
	h.tags[key] = value
}
func (h *handle) GetTag(key string) (string, bool) {
	h.mu.Lock()
	defer h.mu.Unlock()
	v, ok := h.tags[key]
	return v, ok
}

func (a *Adapter) newHandle() *handle {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.nextHandle++
	h := &handle{id: a.nextHandle, enabled: true}
	a.handles[h.id] = h
	return h
}

func (a *Adapter) CreateBreakpoint(adapter.Target, adapter.Location) (adapter.RequestHandle, error) {
	return a.newHandle(), nil
}
func (a *Adapter) CreateAccessWatch(adapter.Target, adapter.FieldRef) (adapter.RequestHandle, error) {
	return a.newHandle(), nil
}
func (a *Adapter) CreateModifyWatch(adapter.Target, adapter.FieldRef) (adapter.RequestHandle, error) {
	return a.newHandle(), nil
}
func (a *Adapter) CreateMethodEntry(adapter.Target, adapter.TypeRef) (adapter.RequestHandle, error) {
	return a.newHandle(), nil
}
func (a *Adapter) CreateMethodExit(adapter.Target, adapter.TypeRef) (adapter.RequestHandle, error) {
	return a.newHandle(), nil
}
func (a *Adapter) CreateException(adapter.Target, adapter.TypeRef, bool, bool) (adapter.RequestHandle, error) {
	return a.newHandle(), nil
}
func (a *Adapter) CreateClassPrepareWatch(adapter.Target, string) (adapter.RequestHandle, error) {
	return a.newHandle(), nil
}
func (a *Adapter) CreateClassUnloadWatch(adapter.Target, string) (adapter.RequestHandle, error) {
	return a.newHandle(), nil
}
func (a *Adapter) CreateThreadStartWatch(adapter.Target) (adapter.RequestHandle, error) {
	return a.newHandle(), nil
}
func (a *Adapter) CreateThreadDeathWatch(adapter.Target) (adapter.RequestHandle, error) {
	return a.newHandle(), nil
}
func (a *Adapter) CreateMonitorContendWatch(adapter.Target) (adapter.RequestHandle, error) {
	return a.newHandle(), nil
}
func (a *Adapter) CreateMonitorWaitWatch(adapter.Target) (adapter.RequestHandle, error) {
	return a.newHandle(), nil
}
func (a *Adapter) CreateStep(adapter.Target, adapter.ThreadRef, adapter.StepDirection) (adapter.RequestHandle, error) {
	return a.newHandle(), nil
}

// --- values ---

func (a *Adapter) MirrorPrimitive(_ adapter.Target, v any) (adapter.Value, error) {
	return adapter.PrimitiveValue{Type: fmt.Sprintf("%T", v), Repr: fmt.Sprintf("%v", v)}, nil
}

func (a *Adapter) MirrorString(_ adapter.Target, s string) (adapter.Value, error) {
	return adapter.StringValue{S: s}, nil
}

// --- threads / frames ---

type threadRef struct {
	id        uint64
	name      string
	suspended bool
	frames    []*frameRef
}

func (t *threadRef) ID() uint64     { return t.id }
func (t *threadRef) Name() string   { return t.name }

type frameRef struct {
	thread *threadRef
	index  int
	loc    adapter.Location
	locals map[string]adapter.Value
	args   map[string]adapter.Value
	this   adapter.Value
}

func (f *frameRef) Thread() adapter.ThreadRef { return f.thread }
func (f *frameRef) Index() int                { return f.index }

// AddThread registers a thread. frames should be supplied top-first.
func (a *Adapter) AddThread(name string, id uint64) *ThreadBuilder {
	a.mu.Lock()
	defer a.mu.Unlock()
	t := &threadRef{id: id, name: name}
	a.threads[id] = t
	return &ThreadBuilder{a: a, t: t}
}

// ThreadBuilder is a small fluent helper for constructing fake thread state.
type ThreadBuilder struct {
	a *Adapter
	t *threadRef
}

func (b *ThreadBuilder) Suspend() *ThreadBuilder {
	b.a.mu.Lock()
	defer b.a.mu.Unlock()
	b.t.suspended = true
	return b
}

func (b *ThreadBuilder) Resume() *ThreadBuilder {
	b.a.mu.Lock()
	defer b.a.mu.Unlock()
	b.t.suspended = false
	return b
}

// PushFrame appends a frame (top of stack is index 0; call in top-to-bottom order).
func (b *ThreadBuilder) PushFrame(loc adapter.Location, locals, args map[string]adapter.Value, this adapter.Value) *ThreadBuilder {
	b.a.mu.Lock()
	defer b.a.mu.Unlock()
	fr := &frameRef{thread: b.t, index: len(b.t.frames), loc: loc, locals: locals, args: args, this: this}
	b.t.frames = append(b.t.frames, fr)
	return b
}

func (b *ThreadBuilder) Thread() adapter.ThreadRef { return b.t }

func (a *Adapter) AllThreads(adapter.Target) ([]adapter.ThreadRef, error) {
	a.mu.Lock()
	defer a.mu.Unlock()
	out := make([]adapter.ThreadRef, 0, len(a.threads))
	for _, t := range a.threads {
		out = append(out, t)
	}
	return out, nil
}

func (a *Adapter) ResumeTarget(adapter.Target) error {
	a.mu.Lock()
	defer a.mu.Unlock()
	for _, t := range a.threads {
		t.suspended = false
	}
	return nil
}

func (a *Adapter) ResumeThread(_ adapter.Target, th adapter.ThreadRef) error {
	a.mu.Lock()
	defer a.mu.Unlock()
	if t, ok := a.threads[th.ID()]; ok {
		t.suspended = false
	}
	return nil
}

func (a *Adapter) SuspendTarget(adapter.Target) error {
	a.mu.Lock()
	defer a.mu.Unlock()
	for _, t := range a.threads {
		t.suspended = true
	}
	return nil
}

func (a *Adapter) SuspendThread(_ adapter.Target, th adapter.ThreadRef) error {
	a.mu.Lock()
	defer a.mu.Unlock()
	if t, ok := a.threads[th.ID()]; ok {
		t.suspended = true
	}
	return nil
}

func (a *Adapter) IsSuspended(_ adapter.Target, th adapter.ThreadRef) (bool, error) {
	a.mu.Lock()
	defer a.mu.Unlock()
	if t, ok := a.threads[th.ID()]; ok {
		return t.suspended, nil
	}
	return false, fmt.Errorf("unknown thread %d", th.ID())
}

func (a *Adapter) Frames(_ adapter.Target, th adapter.ThreadRef) ([]adapter.FrameRef, error) {
	a.mu.Lock()
	defer a.mu.Unlock()
	t, ok := a.threads[th.ID()]
	if !ok {
		return nil, fmt.Errorf("unknown thread %d", th.ID())
	}
	out := make([]adapter.FrameRef, 0, len(t.frames))
	for _, f := range t.frames {
		out = append(out, f)
	}
	return out, nil
}

func (a *Adapter) VisibleLocals(_ adapter.Target, fr adapter.FrameRef) (map[string]adapter.Value, error) {
	f := fr.(*frameRef)
	return f.locals, nil
}

func (a *Adapter) Arguments(_ adapter.Target, fr adapter.FrameRef) (map[string]adapter.Value, error) {
	f := fr.(*frameRef)
	return f.args, nil
}

func (a *Adapter) ThisObject(_ adapter.Target, fr adapter.FrameRef) (adapter.Value, error) {
	f := fr.(*frameRef)
	if f.this == nil {
		return adapter.NullValue{}, nil
	}
	return f.this, nil
}

func (a *Adapter) GetLocal(_ adapter.Target, fr adapter.FrameRef, name string) (adapter.Value, error) {
	f := fr.(*frameRef)
	if v, ok := f.locals[name]; ok {
		return v, nil
	}
	return nil, fmt.Errorf("no local %q", name)
}

func (a *Adapter) SetLocal(_ adapter.Target, fr adapter.FrameRef, name string, v adapter.Value) error {
	f := fr.(*frameRef)
	if f.locals == nil {
		f.locals = make(map[string]adapter.Value)
	}
	f.locals[name] = v
	return nil
}

func (a *Adapter) GetField(_ adapter.Target, obj adapter.Value, field adapter.FieldRef) (adapter.Value, error) {
	o, ok := obj.(adapter.ObjectValue)
	if !ok {
		return nil, fmt.Errorf("not an object")
	}
	v, ok := o.Field(field.Name())
	if !ok {
		return adapter.NullValue{}, nil
	}
	return v, nil
}

func (a *Adapter) GetStaticField(adapter.Target, adapter.TypeRef, adapter.FieldRef) (adapter.Value, error) {
	return adapter.NullValue{}, nil
}

func (a *Adapter) ArrayLength(_ adapter.Target, arr adapter.Value) (int, error) {
	av, ok := arr.(adapter.ArrayValue)
	if !ok {
		return 0, fmt.Errorf("not an array")
	}
	return av.Length(), nil
}

func (a *Adapter) ArraySlice(_ adapter.Target, arr adapter.Value, start, count int) ([]adapter.Value, error) {
	av, ok := arr.(adapter.ArrayValue)
	if !ok {
		return nil, fmt.Errorf("not an array")
	}
	out := make([]adapter.Value, 0, count)
	for i := start; i < start+count && i < av.Length(); i++ {
		out = append(out, av.ElementAt(i))
	}
	return out, nil
}

// InvocationHook, when set, computes the result of the next invoke call;
// tests use it to script a thrown exception or a return value.
type InvocationHook func(method string, args []adapter.Value) (adapter.Value, *adapter.ThrownException, error)

func (a *Adapter) InvokeInstance(_ adapter.Target, _ adapter.ThreadRef, _ adapter.Value, m adapter.MethodRef, args []adapter.Value) (adapter.Value, *adapter.ThrownException, error) {
	if a.Invoke != nil {
		return a.Invoke(m.Name(), args)
	}
	return adapter.NullValue{}, nil, nil
}

func (a *Adapter) InvokeStatic(_ adapter.Target, _ adapter.ThreadRef, _ adapter.TypeRef, m adapter.MethodRef, args []adapter.Value) (adapter.Value, *adapter.ThrownException, error) {
	if a.Invoke != nil {
		return a.Invoke(m.Name(), args)
	}
	return adapter.NullValue{}, nil, nil
}

// --- events ---

// PushEvent enqueues an event set for the next PullEvents to return.
func (a *Adapter) PushEvent(es adapter.EventSet) {
	a.events <- es
}

func (a *Adapter) PullEvents(_ adapter.Target, timeout time.Duration) (adapter.EventSet, error) {
	select {
	case es := <-a.events:
		return es, nil
	case <-time.After(timeout):
		return adapter.EventSet{}, nil
	}
}
