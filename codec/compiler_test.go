package codec

import (
	"bytes"
	"reflect"
	"testing"

	"github.com/bindat/cstruct/errors"
	"github.com/bindat/cstruct/schema"
)

func TestCompileUnsupported(t *testing.T) {
	prims := schema.Builtin(nil)

	union := schema.NewUnion("u",
		&schema.Field{Name: "a", Type: prims["uint32"]},
		&schema.Field{Name: "b", Type: prims["uint16"]},
	)

	tests := []struct {
		name string
		rec  *schema.Record
	}{
		{"union", union},
		{
			"struct_with_union_field",
			schema.NewStruct("s",
				&schema.Field{Name: "pre", Type: prims["uint8"]},
				&schema.Field{Name: "u", Type: union},
			),
		},
		{
			"struct_with_union_array",
			schema.NewStruct("s",
				&schema.Field{Name: "us", Type: &schema.Array{Elem: union, Count: 2}},
			),
		},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			_, err := Compile(tc.rec, Options{})
			if !errors.Is(err, errors.PhaseCompile, errors.KindUnsupported) {
				t.Errorf("got %v, want unsupported", err)
			}
		})
	}
}

func TestCompileSupported(t *testing.T) {
	prims := schema.Builtin(nil)

	rec := schema.NewStruct("s",
		&schema.Field{Name: "n", Type: prims["uint8"]},
		&schema.Field{Name: "items", Type: &schema.Array{Elem: prims["uint16"], CountRef: "n"}},
		&schema.Field{Name: "p", Type: &schema.Pointer{Target: prims["uint32"]}},
	)
	c, err := Compile(rec, Options{Aligned: true})
	if err != nil {
		t.Fatalf("compile: %v", err)
	}
	if !c.Compiled() {
		t.Error("Compiled() should report true")
	}
}

func TestCompiledMarksInstances(t *testing.T) {
	prims := schema.Builtin(nil)
	rec := schema.NewStruct("s",
		&schema.Field{Name: "a", Type: prims["uint32"]},
	)

	compiled, err := Compile(rec, Options{})
	if err != nil {
		t.Fatalf("compile: %v", err)
	}
	inst, err := compiled.Decode(bytes.NewReader([]byte{1, 0, 0, 0}))
	if err != nil {
		t.Fatalf("decode: %v", err)
	}
	if !inst.Compiled() {
		t.Error("compiled decode should mark the instance")
	}

	interp := NewInterpreted(rec, Options{})
	inst, err = interp.Decode(bytes.NewReader([]byte{1, 0, 0, 0}))
	if err != nil {
		t.Fatalf("decode: %v", err)
	}
	if inst.Compiled() {
		t.Error("interpreted decode should not mark the instance")
	}
}

// TestCodecParity decodes and re-encodes the same inputs through both
// strategies and requires identical values and identical bytes.
func TestCodecParity(t *testing.T) {
	prims := schema.Builtin(nil)

	tests := []struct {
		name string
		rec  *schema.Record
		opts Options
		data []byte
	}{
		{
			name: "aligned_mixed",
			rec:  mixedStruct(prims),
			opts: Options{Aligned: true},
			data: mixedStructBytes(),
		},
		{
			name: "packed_mixed",
			rec:  mixedStruct(prims),
			opts: Options{},
			data: func() []byte {
				b := make([]byte, 21)
				for i := range b {
					b[i] = byte(i + 1)
				}
				return b
			}(),
		},
		{
			name: "dynamic_aligned",
			rec:  dynStruct(prims),
			opts: Options{Aligned: true},
			data: dynStructBytes(),
		},
		{
			name: "bitfields",
			rec: schema.NewStruct("bits",
				&schema.Field{Name: "a", Type: prims["uint16"], Bits: 4},
				&schema.Field{Name: "b", Type: prims["uint16"], Bits: 4},
				&schema.Field{Name: "c", Type: prims["uint64"], Bits: 4},
				&schema.Field{Name: "d", Type: prims["uint64"], Bits: 4},
				&schema.Field{Name: "e", Type: prims["uint16"]},
				&schema.Field{Name: "f", Type: prims["uint32"], Bits: 4},
				&schema.Field{Name: "g", Type: prims["uint64"]},
			),
			opts: Options{Aligned: true},
			data: func() []byte {
				b := make([]byte, 32)
				b[0] = 0x21    // a=1, b=2
				b[8] = 0x43    // c=3, d=4
				b[16] = 0x22   // e low byte
				b[17] = 0x11   // e high byte
				b[20] = 0x05   // f=5
				b[24] = 0x99   // g low byte
				return b
			}(),
		},
		{
			name: "nested_records",
			rec: schema.NewStruct("outer",
				&schema.Field{Name: "pre", Type: prims["uint16"]},
				&schema.Field{Name: "in", Type: schema.NewStruct("inner",
					&schema.Field{Name: "x", Type: prims["uint8"]},
					&schema.Field{Name: "y", Type: prims["uint32"]},
				)},
			),
			opts: Options{Aligned: true},
			data: []byte{1, 0, 0, 0, 2, 0, 0, 0, 3, 0, 0, 0},
		},
		{
			name: "fixed_record_array",
			rec: schema.NewStruct("rows",
				&schema.Field{Name: "r", Type: &schema.Array{
					Elem: schema.NewStruct("row",
						&schema.Field{Name: "a", Type: prims["uint32"]},
						&schema.Field{Name: "b", Type: prims["uint64"]},
					),
					Count: 2,
				}},
			),
			opts: Options{Aligned: true},
			data: func() []byte {
				b := make([]byte, 32)
				b[0] = 1
				b[8] = 2
				b[16] = 3
				b[24] = 4
				return b
			}(),
		},
		{
			name: "signed_values",
			rec: schema.NewStruct("sv",
				&schema.Field{Name: "a", Type: prims["int8"]},
				&schema.Field{Name: "b", Type: &schema.Array{Elem: prims["int16"], Count: 2}},
			),
			opts: Options{},
			data: []byte{0xFF, 0xFE, 0xFF, 0x01, 0x00},
		},
		{
			name: "pointers",
			rec: schema.NewStruct("ptrs",
				&schema.Field{Name: "a", Type: prims["uint32"]},
				&schema.Field{Name: "p", Type: &schema.Pointer{Target: prims["uint32"]}},
			),
			opts: Options{Aligned: true},
			data: func() []byte {
				b := make([]byte, 16)
				b[0] = 7
				b[8] = 16
				return b
			}(),
		},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			compiled, err := Compile(tc.rec, tc.opts)
			if err != nil {
				t.Fatalf("compile: %v", err)
			}
			interp := NewInterpreted(tc.rec, tc.opts)

			ci, err := compiled.Decode(bytes.NewReader(tc.data))
			if err != nil {
				t.Fatalf("compiled decode: %v", err)
			}
			ii, err := interp.Decode(bytes.NewReader(tc.data))
			if err != nil {
				t.Fatalf("interpreted decode: %v", err)
			}

			if !reflect.DeepEqual(ci.Map(), ii.Map()) {
				t.Errorf("values differ:\ncompiled    %v\ninterpreted %v", ci.Map(), ii.Map())
			}

			cb, err := compiled.Encode(ci)
			if err != nil {
				t.Fatalf("compiled encode: %v", err)
			}
			ib, err := interp.Encode(ii)
			if err != nil {
				t.Fatalf("interpreted encode: %v", err)
			}
			if !bytes.Equal(cb, ib) {
				t.Errorf("bytes differ:\ncompiled    %x\ninterpreted %x", cb, ib)
			}
			if !bytes.Equal(cb, tc.data) {
				t.Errorf("round trip:\n got %x\nwant %x", cb, tc.data)
			}
		})
	}
}

func TestCompiledErrorsMatchInterpreted(t *testing.T) {
	prims := schema.Builtin(nil)
	rec := schema.NewStruct("s",
		&schema.Field{Name: "n", Type: prims["uint8"]},
		&schema.Field{Name: "items", Type: &schema.Array{Elem: prims["uint16"], CountRef: "n"}},
	)

	compiled, err := Compile(rec, Options{})
	if err != nil {
		t.Fatalf("compile: %v", err)
	}
	interp := NewInterpreted(rec, Options{})

	// Length claims more data than the source holds.
	short := []byte{4, 1, 0}
	_, cerr := compiled.Decode(bytes.NewReader(short))
	_, ierr := interp.Decode(bytes.NewReader(short))
	if !errors.Is(cerr, errors.PhaseDecode, errors.KindOutOfBounds) {
		t.Errorf("compiled: got %v, want out_of_bounds", cerr)
	}
	if !errors.Is(ierr, errors.PhaseDecode, errors.KindOutOfBounds) {
		t.Errorf("interpreted: got %v, want out_of_bounds", ierr)
	}

	// Encode-side length mismatch fails the same way in both.
	inst := NewInstance(rec)
	inst.Set("n", uint64(1))
	inst.Set("items", []uint64{1, 2})
	if _, err := compiled.Encode(inst); !errors.Is(err, errors.PhaseEncode, errors.KindSizeMismatch) {
		t.Errorf("compiled encode: got %v, want size_mismatch", err)
	}
	if _, err := interp.Encode(inst); !errors.Is(err, errors.PhaseEncode, errors.KindSizeMismatch) {
		t.Errorf("interpreted encode: got %v, want size_mismatch", err)
	}
}
