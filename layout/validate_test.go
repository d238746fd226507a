package layout

import (
	"testing"

	"github.com/bindat/cstruct/errors"
	"github.com/bindat/cstruct/schema"
)

func TestValidate(t *testing.T) {
	prims := schema.Builtin(nil)

	tests := []struct {
		name string
		rec  *schema.Record
		kind errors.Kind // "" means valid
	}{
		{
			name: "valid",
			rec: schema.NewStruct("ok",
				&schema.Field{Name: "n", Type: prims["uint8"]},
				&schema.Field{Name: "items", Type: &schema.Array{Elem: prims["uint16"], CountRef: "n"}},
			),
		},
		{
			name: "duplicate_field",
			rec: schema.NewStruct("dup",
				&schema.Field{Name: "x", Type: prims["uint8"]},
				&schema.Field{Name: "x", Type: prims["uint16"]},
			),
			kind: errors.KindDuplicate,
		},
		{
			name: "unnamed_field",
			rec: schema.NewStruct("anon",
				&schema.Field{Name: "", Type: prims["uint8"]},
			),
			kind: errors.KindInvalidData,
		},
		{
			name: "ref_to_later_sibling",
			rec: schema.NewStruct("fwd",
				&schema.Field{Name: "items", Type: &schema.Array{Elem: prims["uint16"], CountRef: "n"}},
				&schema.Field{Name: "n", Type: prims["uint8"]},
			),
			kind: errors.KindBadReference,
		},
		{
			name: "ref_to_unknown",
			rec: schema.NewStruct("missing",
				&schema.Field{Name: "items", Type: &schema.Array{Elem: prims["uint16"], CountRef: "nope"}},
			),
			kind: errors.KindBadReference,
		},
		{
			name: "ref_to_non_integer",
			rec: schema.NewStruct("badref",
				&schema.Field{Name: "n", Type: schema.NewStruct("", &schema.Field{Name: "v", Type: prims["uint8"]})},
				&schema.Field{Name: "items", Type: &schema.Array{Elem: prims["uint16"], CountRef: "n"}},
			),
			kind: errors.KindInvalidData,
		},
		{
			name: "bitfield_too_wide",
			rec: schema.NewStruct("wide",
				&schema.Field{Name: "x", Type: prims["uint16"], Bits: 17},
			),
			kind: errors.KindBitWidth,
		},
		{
			name: "bitfield_non_integer_base",
			rec: schema.NewStruct("badbase",
				&schema.Field{Name: "x", Type: &schema.Pointer{Target: prims["uint8"]}, Bits: 4},
			),
			kind: errors.KindInvalidData,
		},
		{
			name: "negative_count",
			rec: schema.NewStruct("neg",
				&schema.Field{Name: "x", Type: &schema.Array{Elem: prims["uint8"], Count: -1}},
			),
			kind: errors.KindInvalidData,
		},
		{
			name: "nested_duplicate",
			rec: schema.NewStruct("outer",
				&schema.Field{Name: "inner", Type: schema.NewStruct("",
					&schema.Field{Name: "x", Type: prims["uint8"]},
					&schema.Field{Name: "x", Type: prims["uint8"]},
				)},
			),
			kind: errors.KindDuplicate,
		},
		{
			name: "self_referential_pointer",
			rec: func() *schema.Record {
				rec := &schema.Record{Name: "node"}
				rec.Fields = []*schema.Field{
					{Name: "value", Type: prims["uint8"], Index: 0},
					{Name: "next", Type: &schema.Pointer{Target: rec}, Index: 1},
				}
				return rec
			}(),
		},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			err := Validate(tc.rec)
			if tc.kind == "" {
				if err != nil {
					t.Errorf("unexpected error: %v", err)
				}
				return
			}
			if err == nil {
				t.Fatal("expected error, got nil")
			}
			if !errors.Is(err, errors.PhaseRegister, tc.kind) {
				t.Errorf("got %v, want kind %s", err, tc.kind)
			}
		})
	}
}
