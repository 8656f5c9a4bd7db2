// Package value implements the dynamically-tagged runtime value model: the
// Value union, the heap object variants (string, array, user object) that
// share a common header, and the string interning table.
package value

import (
	"bytes"
	"fmt"
)

// Kind tags a Value's active variant.
type Kind uint8

const (
	// Void marks an uninitialised local/global. Reading one is a runtime
	// error (spec.md §3).
	Void Kind = iota
	Bool
	Int
	Real
	Obj
)

// Value is the tagged union the VM pushes/pops/stores. Booleans and
// integers and reals are stored inline; everything else lives on the heap
// behind Object.
type Value struct {
	kind Kind
	b    bool
	i    int32
	r    float32
	obj  Object
}

// VoidValue is the zero Value: an uninitialised slot.
func VoidValue() Value { return Value{kind: Void} }

func BoolValue(b bool) Value    { return Value{kind: Bool, b: b} }
func IntValue(i int32) Value    { return Value{kind: Int, i: i} }
func RealValue(r float32) Value { return Value{kind: Real, r: r} }
func ObjValue(o Object) Value   { return Value{kind: Obj, obj: o} }

func (v Value) Kind() Kind   { return v.kind }
func (v Value) IsVoid() bool { return v.kind == Void }

func (v Value) AsBool() bool      { return v.b }
func (v Value) AsInt() int32      { return v.i }
func (v Value) AsReal() float32   { return v.r }
func (v Value) AsObject() Object  { return v.obj }
func (v Value) AsString() *StringObj {
	if s, ok := v.obj.(*StringObj); ok {
		return s
	}
	return nil
}

// TypeName reports the primitive type name of v, the same spelling used by
// spec.md's type descriptors (VOID/BOOLEAN/INTEGER/REAL/STRING/ARRAY), for
// use in type-mismatch diagnostics.
func (v Value) TypeName() string {
	switch v.kind {
	case Void:
		return "VOID"
	case Bool:
		return "BOOLEAN"
	case Int:
		return "INTEGER"
	case Real:
		return "REAL"
	case Obj:
		switch o := v.obj.(type) {
		case *StringObj:
			return "STRING"
		case *ArrayObj:
			return "ARRAY"
		case *UserObj:
			return o.TypeName
		}
	}
	return "VOID"
}

func (v Value) String() string {
	switch v.kind {
	case Void:
		return "<void>"
	case Bool:
		if v.b {
			return "TRUE"
		}
		return "FALSE"
	case Int:
		return fmt.Sprintf("%d", v.i)
	case Real:
		return fmt.Sprintf("%g", v.r)
	case Obj:
		return v.obj.goString()
	}
	return "<?>"
}

// ObjKind tags a heap Object's concrete variant.
type ObjKind uint8

const (
	ObjStringKind ObjKind = iota
	ObjArrayKind
	ObjUserKind
)

// Header is the common layout every heap object shares: its kind (so the
// interpreter/GC can recover the concrete type without a Go type switch
// everywhere), a mark bit for a future mark-and-sweep collector (spec.md §1
// — GC is an external collaborator; this repo only carries the hook), and a
// Next pointer threading every live object into one allocation list, which
// is the collector's root-sweep traversal order.
type Header struct {
	Kind   ObjKind
	Marked bool
	Next   Object
}

// Object is implemented by every heap-allocated value variant.
type Object interface {
	header() *Header
	goString() string
}

// StringObj is an interned, immutable byte string.
type StringObj struct {
	Head Header
	Hash uint32
	Data []byte

	// hashNext chains StringObj entries within one InternTable bucket. It
	// is unrelated to Head.Next, which threads the GC's allocation list.
	hashNext *StringObj
}

func (s *StringObj) header() *Header  { return &s.Head }
func (s *StringObj) goString() string { return string(s.Data) }

// Len returns the string's length in bytes.
func (s *StringObj) Len() int { return len(s.Data) }

// ArrayObj is a fixed-capacity, length-tracked slot array.
type ArrayObj struct {
	Head  Header
	Elems []Value
}

func (a *ArrayObj) header() *Header { return &a.Head }
func (a *ArrayObj) goString() string {
	return fmt.Sprintf("ARRAY[%d]", len(a.Elems))
}

// NewArray allocates an ArrayObj of the given length, all slots Void.
func NewArray(length int) *ArrayObj {
	return &ArrayObj{Head: Header{Kind: ObjArrayKind}, Elems: make([]Value, length)}
}

// UserObj is an instance of a declared record type: one value slot per
// field, in declaration order.
type UserObj struct {
	Head     Header
	TypeName string
	Fields   []Value
}

func (u *UserObj) header() *Header  { return &u.Head }
func (u *UserObj) goString() string { return fmt.Sprintf("%s{}", u.TypeName) }

// InternTable is a chaining hash table from byte content to the single
// StringObj representing that content. Every string literal and every
// STRING value produced by @add (concatenation) goes through Intern, so two
// equal strings are always pointer-identical and @eq can compare strings
// with a pointer comparison instead of a byte comparison.
type InternTable struct {
	buckets []*StringObj
	count   int
}

const internInitialBuckets = 16
const internLoadFactor = 0.75

// NewInternTable creates an empty interning table.
func NewInternTable() *InternTable {
	return &InternTable{buckets: make([]*StringObj, internInitialBuckets)}
}

// djb2 is Bernstein's hash: h = h*33 + c, seeded at 5381.
func djb2(data []byte) uint32 {
	h := uint32(5381)
	for _, c := range data {
		h = h*33 + uint32(c)
	}
	return h
}

// Intern returns the StringObj for s, allocating a new one on first sight
// and reusing the existing one on every subsequent call with equal content.
func (t *InternTable) Intern(s string) *StringObj {
	return t.InternBytes([]byte(s))
}

// InternBytes is Intern for callers that already have the content as bytes
// (e.g. @add's concatenation buffer), avoiding a redundant copy.
func (t *InternTable) InternBytes(data []byte) *StringObj {
	h := djb2(data)
	idx := h % uint32(len(t.buckets))
	for cur := t.buckets[idx]; cur != nil; cur = cur.hashNext {
		if cur.Hash == h && bytes.Equal(cur.Data, data) {
			return cur
		}
	}
	obj := &StringObj{
		Head: Header{Kind: ObjStringKind},
		Hash: h,
		Data: append([]byte(nil), data...),
	}
	t.insert(obj)
	return obj
}

func (t *InternTable) insert(obj *StringObj) {
	if float64(t.count+1) > internLoadFactor*float64(len(t.buckets)) {
		t.grow()
	}
	idx := obj.Hash % uint32(len(t.buckets))
	obj.hashNext = t.buckets[idx]
	t.buckets[idx] = obj
	t.count++
}

func (t *InternTable) grow() {
	old := t.buckets
	t.buckets = make([]*StringObj, len(old)*2)
	t.count = 0
	for _, head := range old {
		for cur := head; cur != nil; {
			next := cur.hashNext
			cur.hashNext = nil
			t.insert(cur)
			cur = next
		}
	}
}

// Len reports the number of distinct interned strings.
func (t *InternTable) Len() int { return t.count }
