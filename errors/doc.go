// Package errors provides structured error types for the cstruct library.
//
// Errors are categorized by Phase (where the error occurred) and Kind (error
// category). The Error type includes rich context: field path, type name,
// stream offset, and cause chain.
//
// Use the Builder for structured error construction:
//
//	err := errors.New(errors.PhaseDecode, errors.KindOutOfBounds).
//		Path("header", "entries").
//		Type("uint32[count]").
//		Offset(128).
//		Detail("source exhausted").
//		Build()
//
// Or use convenience constructors for common patterns:
//
//	err := errors.SizeMismatch(errors.PhaseEncode, path, 3, 2)
//	err := errors.BadReference(path, "count")
//
// All errors implement the standard error interface and support errors.Is/As;
// Is matches on Phase and Kind.
package errors
