// Package codec decodes byte streams into structured values and encodes
// them back, byte for byte, following the layout computed by the layout
// package.
//
// # Execution strategies
//
// Two implementations sit behind the Codec interface:
//
//   - Interpreted: walks the type graph field by field on every call,
//     re-deriving dynamic lengths from already-decoded sibling values.
//   - Compiled: a specialized step program built once per record at
//     registration time, behaviorally identical to the interpreted codec.
//     Compile refuses shapes it cannot specialize (unions, and anything
//     transitively containing one); callers fall back to Interpreted.
//
// # Values
//
// A decode produces an Instance: a field-to-value mapping owned exclusively
// by the caller. Unsigned primitives decode to uint64, signed to int64
// (bitfields sign-extend from their declared width), arrays to []uint64,
// []int64, or []any, nested records to *Instance, and pointers to *Pointer,
// which dereferences lazily against the originating seekable source.
//
// Padding bytes are skipped during decode and written as zero during encode;
// defined fields round-trip exactly.
//
// Codec values returned by NewInterpreted and Compile are immutable after
// construction and safe for concurrent use; every call owns its own source
// and Instance.
package codec
