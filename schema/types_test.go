package schema

import (
	"encoding/binary"
	"testing"
)

func TestBuiltin(t *testing.T) {
	prims := Builtin(nil)

	tests := []struct {
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
	}
	for _, tc := range tests {
		p, ok := prims[tc.name]
		if !ok {
			t.Errorf("%s missing", tc.name)
			continue
		}
		if p.Size != tc.size || p.Signed != tc.signed {
			t.Errorf("%s: got size %d signed %v, want %d %v", tc.name, p.Size, p.Signed, tc.size, tc.signed)
		}
		if p.ByteOrder() != binary.LittleEndian {
			t.Errorf("%s: default order not little-endian", tc.name)
		}
	}

	be := Builtin(binary.BigEndian)
	if be["uint32"].ByteOrder() != binary.BigEndian {
		t.Error("big-endian order not propagated")
	}
}

func TestTypeStrings(t *testing.T) {
	prims := Builtin(nil)

	tests := []struct {
		typ  Type
		want string
	}{
		{prims["uint32"], "uint32"},
		{&Pointer{Target: prims["uint32"]}, "*uint32"},
		{&Array{Elem: prims["uint16"], Count: 4}, "uint16[4]"},
		{&Array{Elem: prims["uint16"], CountRef: "n"}, "uint16[n]"},
		{NewStruct("header"), "header"},
		{NewStruct(""), "struct <anonymous>"},
		{NewUnion(""), "union <anonymous>"},
	}
	for _, tc := range tests {
		if got := tc.typ.String(); got != tc.want {
			t.Errorf("String: got %q, want %q", got, tc.want)
		}
	}
}

func TestKinds(t *testing.T) {
	prims := Builtin(nil)

	tests := []struct {
		typ  Type
		kind Kind
	}{
		{prims["uint8"], KindPrimitive},
		{&Pointer{Target: prims["uint8"]}, KindPointer},
		{&Array{Elem: prims["uint8"], Count: 1}, KindArray},
		{NewStruct("s"), KindStruct},
		{NewUnion("u"), KindUnion},
	}
	for _, tc := range tests {
		if tc.typ.Kind() != tc.kind {
			t.Errorf("%s: got kind %s, want %s", tc.typ, tc.typ.Kind(), tc.kind)
		}
	}
}

func TestDynamic(t *testing.T) {
	prims := Builtin(nil)

	dynRec := NewStruct("dyn",
		&Field{Name: "n", Type: prims["uint8"]},
		&Field{Name: "d", Type: &Array{Elem: prims["uint8"], CountRef: "n"}},
	)

	tests := []struct {
		name string
		typ  Type
		want bool
	}{
		{"primitive", prims["uint32"], false},
		{"fixed_array", &Array{Elem: prims["uint8"], Count: 4}, false},
		{"ref_array", &Array{Elem: prims["uint8"], CountRef: "n"}, true},
		{"dynamic_record", dynRec, true},
		{"fixed_array_of_dynamic", &Array{Elem: dynRec, Count: 2}, true},
		{"pointer_to_dynamic", &Pointer{Target: dynRec}, false},
		{"containing_record", NewStruct("outer", &Field{Name: "inner", Type: dynRec}), true},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			if got := Dynamic(tc.typ); got != tc.want {
				t.Errorf("Dynamic: got %v, want %v", got, tc.want)
			}
		})
	}
}

func TestRecordFieldLookup(t *testing.T) {
	prims := Builtin(nil)
	rec := NewStruct("s",
		&Field{Name: "a", Type: prims["uint8"]},
		&Field{Name: "b", Type: prims["uint16"]},
	)
	if f := rec.Field("b"); f == nil || f.Index != 1 {
		t.Errorf("Field(b): got %+v", f)
	}
	if rec.Field("missing") != nil {
		t.Error("Field(missing): expected nil")
	}
}
