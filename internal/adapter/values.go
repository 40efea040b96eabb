package adapter

// ThreadRef identifies a target thread. Threads carry a stable 64-bit id
// (stable for the thread's lifetime) and a name.
type ThreadRef interface {
	ID() uint64
	Name() string
}

// FrameRef identifies one stack frame of a suspended thread.
type FrameRef interface {
	Thread() ThreadRef
	Index() int
}

// TypeRef identifies a resolved class/type.
type TypeRef interface {
	Name() string
}

// FieldRef identifies a field of a type.
type FieldRef interface {
	Name() string
	DeclaringType() TypeRef
}

// MethodRef identifies a method of a type.
type MethodRef interface {
	Name() string
	Signature() string
	Arity() int
	DeclaringType() TypeRef
}

// Location is a declaring-type + method + line triple. Line <= 0 means
// native code (no source line available).
type Location struct {
	TypeName   string
	MethodName string
	MethodSig  string
	Line       int
}

// Equal compares two locations by the adapter's location-equality
// semantics: same declaring type, method, and line.
func (l Location) Equal(o Location) bool {
	return l.TypeName == o.TypeName && l.MethodName == o.MethodName && l.MethodSig == o.MethodSig && l.Line == o.Line
}

// ValueKind classifies a Value.
type ValueKind int

const (
	KindNull ValueKind = iota
	KindPrimitive
	KindString
	KindArray
	KindObject
)

// Value is one of {null, primitive, string, array, object} per 
// Concrete field access depends on Kind(): Primitive()/AsString() for
// scalars, Length()/ElementAt() for arrays, TypeName()/ObjectID()/Field()
// for objects.
type Value interface {
	Kind() ValueKind
	// TypeName is the static/dynamic type name; empty for null.
	TypeName() string
	// Text renders a short human-readable form, used by evaluate/inspect
	// tool output and by StopReason detail maps (e.g. a watchpoint's
	// "value-to-be").
	Text() string
}

// PrimitiveValue wraps a scalar (boolean, numeric, char) value.
type PrimitiveValue struct {
	Type string // e.g. "int", "boolean", "double", "char"
	Repr string // textual representation
}

func (v PrimitiveValue) Kind() ValueKind { return KindPrimitive }
func (v PrimitiveValue) TypeName() string { return v.Type }
func (v PrimitiveValue) Text() string     { return v.Repr }

// StringValue wraps a mirrored/inspected string.
type StringValue struct {
	S string
}

func (v StringValue) Kind() ValueKind  { return KindString }
func (v StringValue) TypeName() string { return "java.lang.String" }
func (v StringValue) Text() string     { return v.S }

// NullValue is the singleton null value.
type NullValue struct{}

func (v NullValue) Kind() ValueKind  { return KindNull }
func (v NullValue) TypeName() string { return "" }
func (v NullValue) Text() string     { return "null" }

// ArrayValue exposes length and element access without eagerly reading
// every element (arrays may be large).
type ArrayValue interface {
	Value
	Length() int
	ElementAt(i int) Value
}

// ObjectValue exposes identity and field access on a heap object.
type ObjectValue interface {
	Value
	ObjectID() uint64
	Field(name string) (Value, bool)
	// FieldNames lists every declared field, for the object_fields
	// operation, which enumerates rather than looking up by name.
	FieldNames() []string
}
