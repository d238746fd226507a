package errors

import (
	stderrors "errors"
	"fmt"
	"testing"
)

func TestErrorFormat(t *testing.T) {
	tests := []struct {
		name string
		err  *Error
		want string
	}{
		{
			name: "minimal",
			err:  New(PhaseDecode, KindOutOfBounds).Build(),
			want: "[decode] out_of_bounds",
		},
		{
			name: "with_path",
			err:  New(PhaseEncode, KindFieldMissing).Path("outer", "inner").Build(),
			want: "[encode] field_missing at outer.inner",
		},
		{
			name: "with_offset",
			err:  New(PhaseDecode, KindOutOfBounds).Path("x").Offset(24).Build(),
			want: "[decode] out_of_bounds at x (offset 24)",
		},
		{
			name: "with_detail",
			err:  New(PhaseRegister, KindDuplicate).Detail("duplicate type %q", "header").Build(),
			want: `[register] duplicate: duplicate type "header"`,
		},
		{
			name: "with_type_and_detail",
			err:  New(PhaseEncode, KindTypeMismatch).Type("uint32").Detail("got string").Build(),
			want: "[encode] type_mismatch: type uint32 - got string",
		},
		{
			name: "with_cause",
			err:  New(PhaseDecode, KindOutOfBounds).Cause(fmt.Errorf("EOF")).Build(),
			want: "[decode] out_of_bounds (caused by: EOF)",
		},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			if got := tc.err.Error(); got != tc.want {
				t.Errorf("got %q, want %q", got, tc.want)
			}
		})
	}
}

func TestIs(t *testing.T) {
	err := OutOfBounds(PhaseDecode, []string{"a", "b"}, 16, 4)

	if !Is(err, PhaseDecode, KindOutOfBounds) {
		t.Error("Is: expected match")
	}
	if Is(err, PhaseEncode, KindOutOfBounds) {
		t.Error("Is: phase should not match")
	}
	if Is(err, PhaseDecode, KindFieldMissing) {
		t.Error("Is: kind should not match")
	}
	if Is(nil, PhaseDecode, KindOutOfBounds) {
		t.Error("Is(nil): expected false")
	}
	if Is(fmt.Errorf("plain"), PhaseDecode, KindOutOfBounds) {
		t.Error("Is(plain error): expected false")
	}
}

func TestIsWrapped(t *testing.T) {
	inner := Duplicate("header")
	wrapped := fmt.Errorf("register: %w", inner)

	if !Is(wrapped, PhaseRegister, KindDuplicate) {
		t.Error("Is should see through fmt.Errorf wrapping")
	}
	if !stderrors.Is(wrapped, New(PhaseRegister, KindDuplicate).Build()) {
		t.Error("stderrors.Is should match on phase and kind")
	}
}

func TestUnwrap(t *testing.T) {
	cause := fmt.Errorf("short read")
	err := Wrap(PhaseDecode, KindOutOfBounds, cause, "reading header")
	if !stderrors.Is(err, cause) {
		t.Error("Unwrap chain should reach the cause")
	}
}

func TestConstructors(t *testing.T) {
	tests := []struct {
		name  string
		err   *Error
		phase Phase
		kind  Kind
	}{
		{"out_of_bounds", OutOfBounds(PhaseDecode, nil, 0, 4), PhaseDecode, KindOutOfBounds},
		{"unsupported", Unsupported(PhaseCompile, "union"), PhaseCompile, KindUnsupported},
		{"bad_reference", BadReference([]string{"f"}, "n"), PhaseRegister, KindBadReference},
		{"size_mismatch", SizeMismatch(PhaseEncode, nil, 3, 4), PhaseEncode, KindSizeMismatch},
		{"field_missing", FieldMissing(PhaseEncode, nil, "x"), PhaseEncode, KindFieldMissing},
		{"field_unknown", FieldUnknown(PhaseEncode, nil, "x"), PhaseEncode, KindFieldUnknown},
		{"duplicate", Duplicate("t"), PhaseRegister, KindDuplicate},
		{"bit_width", BitWidth([]string{"f"}, 17, 16), PhaseRegister, KindBitWidth},
		{"not_seekable", NotSeekable(PhaseDecode, "deref"), PhaseDecode, KindNotSeekable},
		{"type_mismatch", TypeMismatch(PhaseEncode, nil, "uint8", "str"), PhaseEncode, KindTypeMismatch},
		{"invalid_data", InvalidData(PhaseRegister, nil, "bad"), PhaseRegister, KindInvalidData},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			if tc.err.Phase != tc.phase || tc.err.Kind != tc.kind {
				t.Errorf("got %s/%s, want %s/%s", tc.err.Phase, tc.err.Kind, tc.phase, tc.kind)
			}
		})
	}
}
