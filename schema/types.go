package schema

import (
	"encoding/binary"
	"strconv"
)

// Kind discriminates the closed set of type graph nodes.
type Kind uint8

const (
	KindPrimitive Kind = iota
	KindPointer
	KindArray
	KindStruct
	KindUnion
)

var kindNames = [...]string{
	KindPrimitive: "primitive",
	KindPointer:   "pointer",
	KindArray:     "array",
	KindStruct:    "struct",
	KindUnion:     "union",
}

func (k Kind) String() string {
	if int(k) < len(kindNames) {
		return kindNames[k]
	}
	return "unknown"
}

// Type is the closed variant over all type graph nodes. Layout and codec
// logic switch exhaustively over the concrete types.
type Type interface {
	Kind() Kind
	String() string
}

// Primitive is a fixed-width integer type. Natural alignment equals the
// byte width. Instances are shared by every field of that type.
type Primitive struct {
	Name   string
	Size   int
	Signed bool
	Order  binary.ByteOrder // nil means little-endian
}

func (p *Primitive) Kind() Kind     { return KindPrimitive }
func (p *Primitive) String() string { return p.Name }

// ByteOrder returns the primitive's byte order, defaulting to little-endian.
func (p *Primitive) ByteOrder() binary.ByteOrder {
	if p.Order == nil {
		return binary.LittleEndian
	}
	return p.Order
}

// Builtin returns the standard integer primitives keyed by name, all using
// the given byte order. A nil order means little-endian.
func Builtin(order binary.ByteOrder) map[string]*Primitive {
	m := make(map[string]*Primitive, 8)
	for _, def := range []struct {
		name   string
		size   int
		signed bool
	}{
		{"int8", 1, true},
		{"uint8", 1, false},
		{"int16", 2, true},
		{"uint16", 2, false},
		{"int32", 4, true},
		{"uint32", 4, false},
		{"int64", 8, true},
		{"uint64", 8, false},
	} {
		m[def.name] = &Primitive{Name: def.name, Size: def.size, Signed: def.signed, Order: order}
	}
	return m
}

// Pointer wraps a target type. Its own width and alignment come from the
// registry's configured pointer primitive, not from the target.
type Pointer struct {
	Target Type
}

func (p *Pointer) Kind() Kind     { return KindPointer }
func (p *Pointer) String() string { return "*" + p.Target.String() }

// Array is a sequence of elements with either a fixed count or a count read
// from a previously declared sibling field at decode time.
type Array struct {
	Elem     Type
	Count    int
	CountRef string
}

func (a *Array) Kind() Kind { return KindArray }

func (a *Array) String() string {
	if a.CountRef != "" {
		return a.Elem.String() + "[" + a.CountRef + "]"
	}
	return a.Elem.String() + "[" + strconv.Itoa(a.Count) + "]"
}

// Field is one declared member of a record. Declaration order is the only
// source of truth for storage order and bit packing order.
type Field struct {
	Name  string
	Type  Type
	Bits  int // 0 when not a bitfield
	Index int // declaration index within the owning record
}

// IsBitfield reports whether the field carries a bit width.
func (f *Field) IsBitfield() bool { return f.Bits > 0 }

// Base returns the field's primitive type when it has one, nil otherwise.
// Bitfields always have a primitive base.
func (f *Field) Base() *Primitive {
	p, _ := f.Type.(*Primitive)
	return p
}

// Record is an ordered sequence of fields, either a struct or a union.
// Packed records never receive implicit padding and have alignment 1
// regardless of the registry's align setting.
type Record struct {
	Name   string
	Union  bool
	Packed bool
	Fields []*Field
}

func (r *Record) Kind() Kind {
	if r.Union {
		return KindUnion
	}
	return KindStruct
}

func (r *Record) String() string {
	if r.Name != "" {
		return r.Name
	}
	if r.Union {
		return "union <anonymous>"
	}
	return "struct <anonymous>"
}

// Field returns the named field, or nil.
func (r *Record) Field(name string) *Field {
	for _, f := range r.Fields {
		if f.Name == name {
			return f
		}
	}
	return nil
}

// NewStruct builds a struct record and assigns declaration indices.
func NewStruct(name string, fields ...*Field) *Record {
	return newRecord(name, false, fields)
}

// NewUnion builds a union record and assigns declaration indices.
func NewUnion(name string, fields ...*Field) *Record {
	return newRecord(name, true, fields)
}

func newRecord(name string, union bool, fields []*Field) *Record {
	for i, f := range fields {
		f.Index = i
	}
	return &Record{Name: name, Union: union, Fields: fields}
}

// Dynamic reports whether a type's size depends on decoded data: an array
// with a sibling length reference, or anything containing one. Pointer
// targets do not count; a pointer is always pointer-sized.
func Dynamic(t Type) bool {
	switch v := t.(type) {
	case *Primitive, *Pointer:
		return false
	case *Array:
		return v.CountRef != "" || Dynamic(v.Elem)
	case *Record:
		for _, f := range v.Fields {
			if Dynamic(f.Type) {
				return true
			}
		}
		return false
	default:
		return false
	}
}
