package fake

import (
	"sort"

	"github.com/dev-console/debugctl/internal/adapter"
)

// Object is a test-friendly adapter.ObjectValue backed by a plain map.
type Object struct {
	Type   string
	ID     uint64
	Fields map[string]adapter.Value
}

func (o *Object) Kind() adapter.ValueKind { return adapter.KindObject }
func (o *Object) TypeName() string        { return o.Type }
func (o *Object) Text() string            { return o.Type + "@" + itoa(o.ID) }
func (o *Object) ObjectID() uint64         { return o.ID }
func (o *Object) Field(name string) (adapter.Value, bool) {
	v, ok := o.Fields[name]
	return v, ok
}
func (o *Object) FieldNames() []string {
	names := make([]string, 0, len(o.Fields))
	for name := range o.Fields {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// Array is a test-friendly adapter.ArrayValue backed by a plain slice.
type Array struct {
	Type string
	Elem []adapter.Value
}

func (a *Array) Kind() adapter.ValueKind { return adapter.KindArray }
func (a *Array) TypeName() string        { return a.Type }
func (a *Array) Text() string            { return a.Type }
func (a *Array) Length() int             { return len(a.Elem) }
func (a *Array) ElementAt(i int) adapter.Value {
	if i < 0 || i >= len(a.Elem) {
		return adapter.NullValue{}
	}
	return a.Elem[i]
}

func itoa(v uint64) string {
	if v == 0 {
		return "0"
	}
	var buf [20]byte
	i := len(buf)
	for v > 0 {
		i--
		buf[i] = byte('0' + v%10)
		v /= 10
	}
	return string(buf[i:])
}
