// Package eval implements the narrow-grammar expression evaluator, shared
// by the evaluate_expression tool and watch-expression re-evaluation.
package eval

import (
	"strconv"

	"github.com/dev-console/debugctl/internal/adapter"
	"github.com/dev-console/debugctl/internal/errs"
	"github.com/dev-console/debugctl/internal/resolvecache"
)

// ObjectLookup resolves an @id object-handle literal to a live value,
// backed by the session's suspended-object table.
type ObjectLookup func(id uint64) (adapter.Value, bool)

// Evaluator evaluates expressions against a suspended frame.
type Evaluator struct {
	adapter adapter.Adapter
	target  adapter.Target
	cache   *resolvecache.Cache
	lookup  ObjectLookup
}

// New builds an Evaluator bound to one target.
func New(a adapter.Adapter, t adapter.Target, cache *resolvecache.Cache, lookup ObjectLookup) *Evaluator {
	return &Evaluator{adapter: a, target: t, cache: cache, lookup: lookup}
}

// Eval parses and evaluates source against fr.
func (e *Evaluator) Eval(fr adapter.FrameRef, source string) (adapter.Value, error) {
	expr, err := Parse(source)
	if err != nil {
		return nil, err
	}
	return e.evalExpr(fr, expr)
}

func (e *Evaluator) evalExpr(fr adapter.FrameRef, expr Expr) (adapter.Value, error) {
	switch x := expr.(type) {
	case Literal:
		return e.evalLiteral(x)
	case This:
		return e.adapter.ThisObject(e.target, fr)
	case Name:
		return e.resolveName(fr, x.Ident)
	case Chain:
		return e.evalChain(fr, x)
	default:
		return nil, errs.New(errs.InvalidExpression, "unrecognized expression form")
	}
}

func (e *Evaluator) evalLiteral(lit Literal) (adapter.Value, error) {
	switch lit.Kind {
	case tokNull:
		return adapter.NullValue{}, nil
	case tokTrue:
		return adapter.PrimitiveValue{Type: "boolean", Repr: "true"}, nil
	case tokFalse:
		return adapter.PrimitiveValue{Type: "boolean", Repr: "false"}, nil
	case tokInt:
		return adapter.PrimitiveValue{Type: "int", Repr: lit.Text}, nil
	case tokDecimal:
		return adapter.PrimitiveValue{Type: "double", Repr: lit.Text}, nil
	case tokChar:
		return adapter.PrimitiveValue{Type: "char", Repr: lit.Text}, nil
	case tokString:
		if v, ok := e.resolveHandleLiteral(lit.Text); ok {
			return v, nil
		}
		return adapter.StringValue{S: lit.Text}, nil
	default:
		return nil, errs.New(errs.InvalidExpression, "unrecognized literal")
	}
}

// resolveHandleLiteral interprets a string literal beginning with '@' as an
// object-handle reference ; ok is false for an ordinary string.
func (e *Evaluator) resolveHandleLiteral(text string) (adapter.Value, bool) {
	if len(text) < 2 || text[0] != '@' {
		return nil, false
	}
	id, err := strconv.ParseUint(text[1:], 10, 64)
	if err != nil || e.lookup == nil {
		return nil, false
	}
	v, ok := e.lookup(id)
	if !ok {
		return nil, false
	}
	return v, true
}

func (e *Evaluator) resolveName(fr adapter.FrameRef, name string) (adapter.Value, error) {
	locals, err := e.adapter.VisibleLocals(e.target, fr)
	if err != nil {
		return nil, err
	}
	if v, ok := locals[name]; ok {
		return v, nil
	}

	this, err := e.adapter.ThisObject(e.target, fr)
	if err == nil && this != nil && this.Kind() == adapter.KindObject {
		if obj, ok := this.(adapter.ObjectValue); ok {
			if v, ok := obj.Field(name); ok {
				return v, nil
			}
		}
	}
	return nil, errs.New(errs.InvalidExpression, "unresolved name %q", name)
}

func (e *Evaluator) evalChain(fr adapter.FrameRef, ch Chain) (adapter.Value, error) {
	cur, err := e.evalExpr(fr, ch.Base)
	if err != nil {
		return nil, err
	}
	for _, op := range ch.Ops {
		switch o := op.(type) {
		case fieldOp:
			cur, err = e.applyField(cur, o.name)
		case callOp:
			cur, err = e.applyCall(fr, cur, o.name, o.args)
		}
		if err != nil {
			return nil, err
		}
	}
	return cur, nil
}

func (e *Evaluator) applyField(cur adapter.Value, name string) (adapter.Value, error) {
	if cur == nil || cur.Kind() == adapter.KindNull {
		return nil, errs.New(errs.NullDereference, "dereferenced null accessing field %q", name)
	}
	obj, ok := cur.(adapter.ObjectValue)
	if !ok {
		return nil, errs.New(errs.TypeMismatch, "%s is not an object, cannot read field %q", cur.TypeName(), name)
	}
	v, ok := obj.Field(name)
	if !ok {
		return nil, errs.New(errs.FieldNotFound, "no field %q on %s", name, obj.TypeName())
	}
	return v, nil
}

func (e *Evaluator) applyCall(fr adapter.FrameRef, cur adapter.Value, name string, argExprs []Expr) (adapter.Value, error) {
	if cur == nil || cur.Kind() == adapter.KindNull {
		return nil, errs.New(errs.NullDereference, "dereferenced null invoking %q", name)
	}
	obj, ok := cur.(adapter.ObjectValue)
	if !ok {
		return nil, errs.New(errs.TypeMismatch, "%s is not an object, cannot invoke %q", cur.TypeName(), name)
	}

	args := make([]adapter.Value, 0, len(argExprs))
	for _, ae := range argExprs {
		v, err := e.evalExpr(fr, ae)
		if err != nil {
			return nil, err
		}
		args = append(args, v)
	}

	types, err := e.cache.Resolve(e.adapter, e.target, obj.TypeName())
	if err != nil {
		return nil, err
	}
	if len(types) == 0 {
		return nil, errs.New(errs.MethodNotFound, "type %s not resolvable", obj.TypeName())
	}
	methods, err := e.adapter.MethodsByName(e.target, types[0], name)
	if err != nil {
		return nil, err
	}
	method := selectOverload(methods, len(args))
	if method == nil {
		return nil, errs.New(errs.MethodNotFound, "no overload of %q with %d argument(s) on %s", name, len(args), obj.TypeName())
	}

	result, thrown, err := e.adapter.InvokeInstance(e.target, fr.Thread(), cur, method, args)
	if err != nil {
		return nil, err
	}
	if thrown != nil {
		return nil, errs.New(errs.ThrownException, "%s invocation threw %s", name, thrown.TypeName).
			WithDetail("exceptionClass", thrown.TypeName)
	}
	return result, nil
}

// selectOverload picks the first method whose arity matches argc, ties
// broken by declaration order ("coarse" resolution).
func selectOverload(methods []adapter.MethodRef, argc int) adapter.MethodRef {
	for _, m := range methods {
		if m.Arity() == argc {
			return m
		}
	}
	return nil
}
