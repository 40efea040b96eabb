package eval_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dev-console/debugctl/internal/adapter"
	"github.com/dev-console/debugctl/internal/adapter/fake"
	"github.com/dev-console/debugctl/internal/errs"
	"github.com/dev-console/debugctl/internal/eval"
	"github.com/dev-console/debugctl/internal/resolvecache"
)

func newFrame(a *fake.Adapter, this adapter.Value, locals map[string]adapter.Value) adapter.FrameRef {
	tb := a.AddThread("main", 1).Suspend()
	loc := adapter.Location{TypeName: "pkg.Main", MethodName: "run", MethodSig: "()V", Line: 10}
	tb.PushFrame(loc, locals, nil, this)
	frames, _ := a.Frames(nil, tb.Thread())
	return frames[0]
}

func TestEval_Literals(t *testing.T) {
	a := fake.New()
	fr := newFrame(a, nil, nil)
	ev := eval.New(a, nil, resolvecache.New(), nil)

	v, err := ev.Eval(fr, "null")
	require.NoError(t, err)
	assert.Equal(t, adapter.KindNull, v.Kind())

	v, err = ev.Eval(fr, "true")
	require.NoError(t, err)
	assert.Equal(t, "true", v.Text())

	v, err = ev.Eval(fr, `"hello"`)
	require.NoError(t, err)
	assert.Equal(t, "hello", v.Text())

	v, err = ev.Eval(fr, "42")
	require.NoError(t, err)
	assert.Equal(t, "42", v.Text())
}

func TestEval_LocalThenFieldFallback(t *testing.T) {
	a := fake.New()
	this := &fake.Object{Type: "pkg.Main", ID: 1, Fields: map[string]adapter.Value{
		"counter": adapter.PrimitiveValue{Type: "int", Repr: "7"},
	}}
	fr := newFrame(a, this, map[string]adapter.Value{
		"x": adapter.PrimitiveValue{Type: "int", Repr: "99"},
	})
	ev := eval.New(a, nil, resolvecache.New(), nil)

	v, err := ev.Eval(fr, "x")
	require.NoError(t, err)
	assert.Equal(t, "99", v.Text())

	v, err = ev.Eval(fr, "counter")
	require.NoError(t, err)
	assert.Equal(t, "7", v.Text())

	_, err = ev.Eval(fr, "nope")
	assert.Equal(t, errs.InvalidExpression, errs.KindOf(err))
}

func TestEval_ChainFieldAccess(t *testing.T) {
	a := fake.New()
	inner := &fake.Object{Type: "pkg.Inner", ID: 2, Fields: map[string]adapter.Value{
		"value": adapter.PrimitiveValue{Type: "int", Repr: "5"},
	}}
	this := &fake.Object{Type: "pkg.Main", ID: 1, Fields: map[string]adapter.Value{
		"inner": inner,
	}}
	fr := newFrame(a, this, nil)
	ev := eval.New(a, nil, resolvecache.New(), nil)

	v, err := ev.Eval(fr, "this.inner.value")
	require.NoError(t, err)
	assert.Equal(t, "5", v.Text())
}

func TestEval_NullDereference(t *testing.T) {
	a := fake.New()
	this := &fake.Object{Type: "pkg.Main", ID: 1, Fields: map[string]adapter.Value{
		"inner": adapter.NullValue{},
	}}
	fr := newFrame(a, this, nil)
	ev := eval.New(a, nil, resolvecache.New(), nil)

	_, err := ev.Eval(fr, "this.inner.value")
	assert.Equal(t, errs.NullDereference, errs.KindOf(err))
}

func TestEval_MethodCallAndOverloadResolution(t *testing.T) {
	a := fake.New()
	a.LoadClass("pkg.Main")
	a.AddMethod("pkg.Main", "getValue", 0)
	a.AddMethod("pkg.Main", "getValue", 1)
	a.Invoke = func(method string, args []adapter.Value) (adapter.Value, *adapter.ThrownException, error) {
		return adapter.PrimitiveValue{Type: "int", Repr: "123"}, nil, nil
	}
	this := &fake.Object{Type: "pkg.Main", ID: 1}
	fr := newFrame(a, this, nil)
	ev := eval.New(a, nil, resolvecache.New(), nil)

	v, err := ev.Eval(fr, "this.getValue()")
	require.NoError(t, err)
	assert.Equal(t, "123", v.Text())
}

func TestEval_MethodNotFound(t *testing.T) {
	a := fake.New()
	a.LoadClass("pkg.Main")
	this := &fake.Object{Type: "pkg.Main", ID: 1}
	fr := newFrame(a, this, nil)
	ev := eval.New(a, nil, resolvecache.New(), nil)

	_, err := ev.Eval(fr, "this.missing()")
	assert.Equal(t, errs.MethodNotFound, errs.KindOf(err))
}

func TestEval_ThrownExceptionPropagates(t *testing.T) {
	a := fake.New()
	a.LoadClass("pkg.Main")
	a.AddMethod("pkg.Main", "boom", 0)
	a.Invoke = func(method string, args []adapter.Value) (adapter.Value, *adapter.ThrownException, error) {
		return nil, &adapter.ThrownException{TypeName: "java.lang.RuntimeException", ObjectID: 9}, nil
	}
	this := &fake.Object{Type: "pkg.Main", ID: 1}
	fr := newFrame(a, this, nil)
	ev := eval.New(a, nil, resolvecache.New(), nil)

	_, err := ev.Eval(fr, "this.boom()")
	assert.Equal(t, errs.ThrownException, errs.KindOf(err))
}

func TestEval_ObjectHandleLiteralArgument(t *testing.T) {
	a := fake.New()
	a.LoadClass("pkg.Main")
	a.AddMethod("pkg.Main", "accept", 1)
	target := &fake.Object{Type: "pkg.Other", ID: 42}
	var seenArg adapter.Value
	a.Invoke = func(method string, args []adapter.Value) (adapter.Value, *adapter.ThrownException, error) {
		seenArg = args[0]
		return adapter.NullValue{}, nil, nil
	}
	this := &fake.Object{Type: "pkg.Main", ID: 1}
	fr := newFrame(a, this, nil)
	ev := eval.New(a, nil, resolvecache.New(), func(id uint64) (adapter.Value, bool) {
		if id == 42 {
			return target, true
		}
		return nil, false
	})

	_, err := ev.Eval(fr, `this.accept("@42")`)
	require.NoError(t, err)
	require.NotNil(t, seenArg)
	assert.Equal(t, uint64(42), seenArg.(adapter.ObjectValue).ObjectID())
}

func TestEval_ExpressionTooLong(t *testing.T) {
	a := fake.New()
	fr := newFrame(a, nil, nil)
	ev := eval.New(a, nil, resolvecache.New(), nil)

	long := make([]byte, 2000)
	for i := range long {
		long[i] = 'a'
	}
	_, err := ev.Eval(fr, string(long))
	assert.Equal(t, errs.InvalidExpression, errs.KindOf(err))
}
