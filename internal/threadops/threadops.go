// Package threadops implements the pending-thread operations:
// frame walking, local/argument/this inspection, array slicing, variable
// assignment, stepping, run-to-line, and instance/static invocation — all
// against an already-suspended thread.
package threadops

import (
	"time"

	"github.com/tidwall/gjson"
	"golang.org/x/time/rate"

	"github.com/dev-console/debugctl/internal/adapter"
	"github.com/dev-console/debugctl/internal/errs"
	"github.com/dev-console/debugctl/internal/session"
)

// Ops is the pending-thread-operations surface, bound to one session.
type Ops struct {
	sess    *session.Session
	limiter *rate.Limiter
}

// New builds an Ops bound to sess. The invocation limiter allows burst
// invocations up to burst, refilling at perSecond tokens/sec — a
// token-bucket guard on invokeInstance/invokeStatic traffic.
func New(sess *session.Session, perSecond float64, burst int) *Ops {
	return &Ops{sess: sess, limiter: rate.NewLimiter(rate.Limit(perSecond), burst)}
}

func (o *Ops) resolveThread(threadID uint64) (adapter.Target, adapter.ThreadRef, error) {
	target, err := o.sess.Target()
	if err != nil {
		return nil, nil, err
	}
	threads, err := o.sess.Adapter().AllThreads(target)
	if err != nil {
		return nil, nil, err
	}
	for _, th := range threads {
		if th.ID() == threadID {
			return target, th, nil
		}
	}
	return nil, nil, errs.New(errs.ThreadNotFound, "no thread with id %d", threadID)
}

func (o *Ops) requireSuspended(target adapter.Target, th adapter.ThreadRef) error {
	suspended, err := o.sess.Adapter().IsSuspended(target, th)
	if err != nil {
		return err
	}
	if !suspended {
		return errs.New(errs.ThreadNotSuspended, "thread %q is not suspended", th.Name())
	}
	return nil
}

// ResolveThread recovers a ThreadRef by id, for callers (the dispatcher)
// that need the ref itself rather than one of this package's operations.
func (o *Ops) ResolveThread(threadID uint64) (adapter.ThreadRef, error) {
	_, th, err := o.resolveThread(threadID)
	return th, err
}

// Threads lists every known thread and its suspend state.
func (o *Ops) Threads() ([]adapter.ThreadRef, error) {
	target, err := o.sess.Target()
	if err != nil {
		return nil, err
	}
	return o.sess.Adapter().AllThreads(target)
}

// SuspendThread/ResumeThread act on a single thread by id.
func (o *Ops) SuspendThread(threadID uint64) error {
	target, th, err := o.resolveThread(threadID)
	if err != nil {
		return err
	}
	return o.sess.Adapter().SuspendThread(target, th)
}

func (o *Ops) ResumeThread(threadID uint64) error {
	target, th, err := o.resolveThread(threadID)
	if err != nil {
		return err
	}
	return o.sess.Adapter().ResumeThread(target, th)
}

// Frames returns every frame of threadID, requiring it be suspended.
func (o *Ops) Frames(threadID uint64) ([]adapter.FrameRef, error) {
	target, th, err := o.resolveThread(threadID)
	if err != nil {
		return nil, err
	}
	if err := o.requireSuspended(target, th); err != nil {
		return nil, err
	}
	return o.sess.Adapter().Frames(target, th)
}

// FrameByIndex returns a single frame, bounds-checked.
func (o *Ops) FrameByIndex(threadID uint64, index int) (adapter.FrameRef, error) {
	frames, err := o.Frames(threadID)
	if err != nil {
		return nil, err
	}
	if index < 0 || index >= len(frames) {
		return nil, errs.New(errs.FrameOutOfRange, "frame index %d out of range [0,%d)", index, len(frames))
	}
	return frames[index], nil
}

// Locals/Arguments/This inspect one frame's variable state.
func (o *Ops) Locals(fr adapter.FrameRef) (map[string]adapter.Value, error) {
	target, err := o.sess.Target()
	if err != nil {
		return nil, err
	}
	return o.sess.Adapter().VisibleLocals(target, fr)
}

func (o *Ops) Arguments(fr adapter.FrameRef) (map[string]adapter.Value, error) {
	target, err := o.sess.Target()
	if err != nil {
		return nil, err
	}
	return o.sess.Adapter().Arguments(target, fr)
}

func (o *Ops) This(fr adapter.FrameRef) (adapter.Value, error) {
	target, err := o.sess.Target()
	if err != nil {
		return nil, err
	}
	return o.sess.Adapter().ThisObject(target, fr)
}

// Variable inspects a single named local.
func (o *Ops) Variable(fr adapter.FrameRef, name string) (adapter.Value, error) {
	target, err := o.sess.Target()
	if err != nil {
		return nil, err
	}
	return o.sess.Adapter().GetLocal(target, fr, name)
}

// ObjectFields lists every field on obj.
func (o *Ops) ObjectFields(obj adapter.Value) (map[string]adapter.Value, error) {
	ov, ok := obj.(adapter.ObjectValue)
	if !ok {
		return nil, errs.New(errs.TypeMismatch, "%s is not an object", obj.TypeName())
	}
	out := make(map[string]adapter.Value)
	for _, name := range ov.FieldNames() {
		if v, ok := ov.Field(name); ok {
			out[name] = v
		}
	}
	return out, nil
}

// ArrayElements slices an array value.
func (o *Ops) ArrayElements(arr adapter.Value, start, count int) ([]adapter.Value, error) {
	target, err := o.sess.Target()
	if err != nil {
		return nil, err
	}
	return o.sess.Adapter().ArraySlice(target, arr, start, count)
}

// SetVariable assigns a local from a text literal, a string literal, or an
// @id object reference; lookup resolves @id references.
func (o *Ops) SetVariable(fr adapter.FrameRef, name, valueText string, lookup func(uint64) (adapter.Value, bool)) error {
	target, err := o.sess.Target()
	if err != nil {
		return err
	}
	v, err := decodeLiteral(valueText, lookup)
	if err != nil {
		return err
	}
	return o.sess.Adapter().SetLocal(target, fr, name, v)
}

// decodeLiteral decodes a text value using gjson's scanner: @id-prefixed
// strings resolve to object references, other JSON-shaped text becomes a
// primitive/string/null value directly.
func decodeLiteral(text string, lookup func(uint64) (adapter.Value, bool)) (adapter.Value, error) {
	res := gjson.Parse(text)
	switch res.Type {
	case gjson.Null:
		return adapter.NullValue{}, nil
	case gjson.True:
		return adapter.PrimitiveValue{Type: "boolean", Repr: "true"}, nil
	case gjson.False:
		return adapter.PrimitiveValue{Type: "boolean", Repr: "false"}, nil
	case gjson.Number:
		return adapter.PrimitiveValue{Type: "double", Repr: res.Raw}, nil
	case gjson.String:
		if len(res.Str) > 1 && res.Str[0] == '@' {
			if lookup != nil {
				if id, ok := parseHandle(res.Str); ok {
					if v, ok := lookup(id); ok {
						return v, nil
					}
					return nil, errs.New(errs.ObjectNotFound, "no live object with id %s", res.Str[1:])
				}
			}
		}
		return adapter.StringValue{S: res.Str}, nil
	default:
		return nil, errs.New(errs.TypeMismatch, "cannot decode %q as a value literal", text)
	}
}

func parseHandle(s string) (uint64, bool) {
	if len(s) < 2 || s[0] != '@' {
		return 0, false
	}
	var id uint64
	for _, c := range s[1:] {
		if c < '0' || c > '9' {
			return 0, false
		}
		id = id*10 + uint64(c-'0')
	}
	return id, true
}

// --- Stepping ---

func (o *Ops) requireJavaFrame(target adapter.Target, th adapter.ThreadRef) error {
	frames, err := o.sess.Adapter().Frames(target, th)
	if err != nil {
		return err
	}
	if len(frames) == 0 {
		return errs.New(errs.FrameOutOfRange, "thread has no frames")
	}
	loc, err := o.sess.Adapter().FrameLocation(target, frames[0])
	if err != nil {
		return err
	}
	if loc.Line <= 0 {
		return errs.New(errs.NativeFrame, "top frame is native code")
	}
	return nil
}

func (o *Ops) step(threadID uint64, dir adapter.StepDirection) error {
	target, th, err := o.resolveThread(threadID)
	if err != nil {
		return err
	}
	if err := o.requireSuspended(target, th); err != nil {
		return err
	}
	if err := o.requireJavaFrame(target, th); err != nil {
		return err
	}
	handle, err := o.sess.Adapter().CreateStep(target, th, dir)
	if err != nil {
		return err
	}
	_ = handle.SetSuspendPolicy(adapter.SuspendAll)
	_ = handle.Enable()
	o.sess.ClearStopReasonForStep()
	return o.sess.Adapter().ResumeThread(target, th)
}

func (o *Ops) StepInto(threadID uint64) error { return o.step(threadID, adapter.StepInto) }
func (o *Ops) StepOver(threadID uint64) error { return o.step(threadID, adapter.StepOver) }
func (o *Ops) StepOut(threadID uint64) error  { return o.step(threadID, adapter.StepOut) }

// RunToLineResult reports whether the resumed target actually landed at
// the requested location.
type RunToLineResult struct {
	Landed      bool
	StopKind    string
	AtClassName string
	AtLine      int
}

// RunToLine is the composite op: set a breakpoint, clear, resume, wait,
// then remove the breakpoint regardless of outcome.
func (o *Ops) RunToLine(className string, line int, timeoutMs int) (RunToLineResult, error) {
	target, err := o.sess.Target()
	if err != nil {
		return RunToLineResult{}, err
	}
	rec, err := o.sess.Lines.Set(o.sess.Adapter(), target, className, line)
	if err != nil {
		return RunToLineResult{}, err
	}
	defer func() { _ = o.sess.Lines.Remove(rec.ID) }()

	if err := o.sess.Resume(); err != nil {
		return RunToLineResult{}, err
	}
	reason := o.sess.WaitForStop(timeoutMs)

	result := RunToLineResult{StopKind: string(reason.Kind)}
	if reason.HasLocation {
		result.AtClassName = reason.Location.TypeName
		result.AtLine = reason.Location.Line
		result.Landed = reason.Location.TypeName == className && reason.Location.Line == line
	}
	return result, nil
}

// --- Invocation ---

// Invoke calls a named instance or static method, rate-limited against
// the invoke token bucket. obj is nil for a static call.
func (o *Ops) Invoke(threadID uint64, obj adapter.Value, typeName, methodName string, argTexts []string, lookup func(uint64) (adapter.Value, bool)) (adapter.Value, error) {
	if !o.limiter.AllowN(time.Now(), 1) {
		return nil, errs.New(errs.RateLimited, "invocation rate limit exceeded, try again shortly")
	}

	target, th, err := o.resolveThread(threadID)
	if err != nil {
		return nil, err
	}
	if err := o.requireSuspended(target, th); err != nil {
		return nil, err
	}

	args := make([]adapter.Value, 0, len(argTexts))
	for _, text := range argTexts {
		v, err := decodeLiteral(text, lookup)
		if err != nil {
			return nil, err
		}
		args = append(args, v)
	}

	types, err := o.sess.Cache.Resolve(o.sess.Adapter(), target, typeName)
	if err != nil {
		return nil, err
	}
	if len(types) == 0 {
		return nil, errs.New(errs.ClassNotFound, "class %s is not loaded", typeName)
	}
	methods, err := o.sess.Adapter().MethodsByName(target, types[0], methodName)
	if err != nil {
		return nil, err
	}
	method := selectOverload(methods, len(args))
	if method == nil {
		return nil, errs.New(errs.MethodNotFound, "no overload of %q with %d argument(s) on %s", methodName, len(args), typeName)
	}

	var result adapter.Value
	var thrown *adapter.ThrownException
	if obj != nil {
		result, thrown, err = o.sess.Adapter().InvokeInstance(target, th, obj, method, args)
	} else {
		result, thrown, err = o.sess.Adapter().InvokeStatic(target, th, types[0], method, args)
	}
	if err != nil {
		return nil, err
	}
	if thrown != nil {
		return nil, errs.New(errs.ThrownException, "%s.%s threw %s", typeName, methodName, thrown.TypeName).
			WithDetail("exceptionClass", thrown.TypeName)
	}
	return result, nil
}

func selectOverload(methods []adapter.MethodRef, argc int) adapter.MethodRef {
	for _, m := range methods {
		if m.Arity() == argc {
			return m
		}
	}
	return nil
}

// ObjectByID scans every suspended thread's frames for an object/array
// with the given id: O(frames × locals) per lookup, since the adapter
// exposes no global object index.
func (o *Ops) ObjectByID(id uint64) (adapter.Value, bool) {
	target, err := o.sess.Target()
	if err != nil {
		return nil, false
	}
	threads, err := o.sess.Adapter().AllThreads(target)
	if err != nil {
		return nil, false
	}
	for _, th := range threads {
		suspended, err := o.sess.Adapter().IsSuspended(target, th)
		if err != nil || !suspended {
			continue
		}
		frames, err := o.sess.Adapter().Frames(target, th)
		if err != nil {
			continue
		}
		for _, fr := range frames {
			if v, ok := matchObject(o.sess.Adapter(), target, fr, id); ok {
				return v, true
			}
		}
	}
	return nil, false
}

func matchObject(a adapter.Adapter, t adapter.Target, fr adapter.FrameRef, id uint64) (adapter.Value, bool) {
	if this, err := a.ThisObject(t, fr); err == nil {
		if matchesID(this, id) {
			return this, true
		}
	}
	locals, err := a.VisibleLocals(t, fr)
	if err != nil {
		return nil, false
	}
	for _, v := range locals {
		if matchesID(v, id) {
			return v, true
		}
	}
	return nil, false
}

func matchesID(v adapter.Value, id uint64) bool {
	if ov, ok := v.(adapter.ObjectValue); ok {
		return ov.ObjectID() == id
	}
	return false
}
