package errors

import (
	stderrors "errors"
	"fmt"
	"strconv"
	"strings"
)

// Phase indicates where in processing the error occurred
type Phase string

const (
	PhaseRegister Phase = "register" // type registration
	PhaseLayout   Phase = "layout"   // offset/size computation
	PhaseCompile  Phase = "compile"  // compiled codec construction
	PhaseDecode   Phase = "decode"   // bytes to value
	PhaseEncode   Phase = "encode"   // value to bytes
)

// Kind categorizes the error
type Kind string

const (
	KindOutOfBounds  Kind = "out_of_bounds"
	KindUnsupported  Kind = "unsupported"
	KindBadReference Kind = "bad_reference"
	KindSizeMismatch Kind = "size_mismatch"
	KindFieldMissing Kind = "field_missing"
	KindFieldUnknown Kind = "field_unknown"
	KindDuplicate    Kind = "duplicate"
	KindInvalidData  Kind = "invalid_data"
	KindNotSeekable  Kind = "not_seekable"
	KindBitWidth     Kind = "bit_width"
	KindTypeMismatch Kind = "type_mismatch"
)

// Error is the structured error type used throughout the library
type Error struct {
	Value    any
	Cause    error
	Phase    Phase
	Kind     Kind
	TypeName string
	Detail   string
	Path     []string
	Offset   int64 // stream offset where the error occurred, -1 when unknown
}

// Error implements the error interface
func (e *Error) Error() string {
	var b strings.Builder

	b.WriteByte('[')
	b.WriteString(string(e.Phase))
	b.WriteString("] ")
	b.WriteString(string(e.Kind))

	if len(e.Path) > 0 {
		b.WriteString(" at ")
		b.WriteString(strings.Join(e.Path, "."))
	}

	if e.Offset > 0 {
		b.WriteString(" (offset ")
		b.WriteString(strconv.FormatInt(e.Offset, 10))
		b.WriteByte(')')
	}

	if e.TypeName != "" {
		b.WriteString(": type ")
		b.WriteString(e.TypeName)
	}

	if e.Detail != "" {
		if e.TypeName != "" {
			b.WriteString(" - ")
		} else {
			b.WriteString(": ")
		}
		b.WriteString(e.Detail)
	}

	if e.Cause != nil {
		b.WriteString(" (caused by: ")
		b.WriteString(e.Cause.Error())
		b.WriteByte(')')
	}

	return b.String()
}

// Unwrap returns the underlying error
func (e *Error) Unwrap() error {
	return e.Cause
}

// Is reports whether target matches this error
func (e *Error) Is(target error) bool {
	if t, ok := target.(*Error); ok {
		return e.Phase == t.Phase && e.Kind == t.Kind
	}
	return false
}

// Is reports whether err is (or wraps) an Error with the given phase and
// kind.
func Is(err error, phase Phase, kind Kind) bool {
	var e *Error
	if !stderrors.As(err, &e) {
		return false
	}
	return e.Phase == phase && e.Kind == kind
}

// Builder provides structured error construction
type Builder struct {
	err Error
}

// New creates a new error builder
func New(phase Phase, kind Kind) *Builder {
	return &Builder{
		err: Error{
			Phase:  phase,
			Kind:   kind,
			Offset: -1,
		},
	}
}

// Path sets the field path
func (b *Builder) Path(path ...string) *Builder {
	b.err.Path = path
	return b
}

// Type sets the type name
func (b *Builder) Type(t string) *Builder {
	b.err.TypeName = t
	return b
}

// Offset sets the stream offset
func (b *Builder) Offset(off int64) *Builder {
	b.err.Offset = off
	return b
}

// Value sets the offending value
func (b *Builder) Value(v any) *Builder {
	b.err.Value = v
	return b
}

// Cause sets the underlying error
func (b *Builder) Cause(err error) *Builder {
	b.err.Cause = err
	return b
}

// Detail sets the human-readable detail message
func (b *Builder) Detail(msg string, args ...any) *Builder {
	if len(args) > 0 {
		b.err.Detail = fmt.Sprintf(msg, args...)
	} else {
		b.err.Detail = msg
	}
	return b
}

// Build returns the constructed error
func (b *Builder) Build() *Error {
	return &b.err
}

// Convenience constructors for common error patterns

// OutOfBounds creates a source exhaustion error
func OutOfBounds(phase Phase, path []string, offset int64, need int) *Error {
	return &Error{
		Phase:  phase,
		Kind:   KindOutOfBounds,
		Path:   path,
		Offset: offset,
		Detail: fmt.Sprintf("source exhausted reading %d bytes", need),
	}
}

// Unsupported creates an unsupported operation error
func Unsupported(phase Phase, what string) *Error {
	return &Error{
		Phase:  phase,
		Kind:   KindUnsupported,
		Offset: -1,
		Detail: what,
	}
}

// BadReference creates an error for a length reference naming an undeclared
// or not-yet-declared sibling field
func BadReference(path []string, ref string) *Error {
	return &Error{
		Phase:  PhaseRegister,
		Kind:   KindBadReference,
		Path:   path,
		Offset: -1,
		Detail: fmt.Sprintf("length reference %q does not name an earlier sibling field", ref),
	}
}

// SizeMismatch creates an error for a supplied array whose length disagrees
// with its declared count or its length field's value
func SizeMismatch(phase Phase, path []string, got, want int) *Error {
	return &Error{
		Phase:  phase,
		Kind:   KindSizeMismatch,
		Path:   path,
		Offset: -1,
		Detail: fmt.Sprintf("array has %d elements, expected %d", got, want),
		Value:  got,
	}
}

// FieldMissing creates a missing field value error
func FieldMissing(phase Phase, path []string, fieldName string) *Error {
	return &Error{
		Phase:  phase,
		Kind:   KindFieldMissing,
		Path:   path,
		Offset: -1,
		Detail: fmt.Sprintf("no value for field %q", fieldName),
	}
}

// FieldUnknown creates an unknown field error
func FieldUnknown(phase Phase, path []string, fieldName string) *Error {
	return &Error{
		Phase:  phase,
		Kind:   KindFieldUnknown,
		Path:   path,
		Offset: -1,
		Detail: fmt.Sprintf("unknown field %q", fieldName),
	}
}

// Duplicate creates a duplicate type name error
func Duplicate(name string) *Error {
	return &Error{
		Phase:  PhaseRegister,
		Kind:   KindDuplicate,
		Offset: -1,
		Detail: fmt.Sprintf("duplicate type %q", name),
	}
}

// BitWidth creates an invalid bitfield width error
func BitWidth(path []string, bits, max int) *Error {
	return &Error{
		Phase:  PhaseRegister,
		Kind:   KindBitWidth,
		Path:   path,
		Offset: -1,
		Detail: fmt.Sprintf("bit width %d outside 1..%d", bits, max),
		Value:  bits,
	}
}

// NotSeekable creates an error for operations requiring a seekable source
func NotSeekable(phase Phase, what string) *Error {
	return &Error{
		Phase:  phase,
		Kind:   KindNotSeekable,
		Offset: -1,
		Detail: fmt.Sprintf("%s requires a seekable source", what),
	}
}

// TypeMismatch creates an error for a value whose Go shape does not match
// the declared field type
func TypeMismatch(phase Phase, path []string, typeName string, value any) *Error {
	return &Error{
		Phase:    phase,
		Kind:     KindTypeMismatch,
		Path:     path,
		Offset:   -1,
		TypeName: typeName,
		Detail:   fmt.Sprintf("value %T does not match field type", value),
		Value:    value,
	}
}

// InvalidData creates an invalid data error
func InvalidData(phase Phase, path []string, detail string) *Error {
	return &Error{
		Phase:  phase,
		Kind:   KindInvalidData,
		Path:   path,
		Offset: -1,
		Detail: detail,
	}
}

// Wrap wraps an existing error with additional context
func Wrap(phase Phase, kind Kind, cause error, detail string) *Error {
	return &Error{
		Phase:  phase,
		Kind:   kind,
		Offset: -1,
		Detail: detail,
		Cause:  cause,
	}
}
