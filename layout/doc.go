// Package layout computes memory layout for type graph nodes.
//
// The Calculator assigns per-field byte offsets, natural alignment, and total
// size to records, following C ABI style rules in aligned mode and plain
// concatenation in packed mode. Fields whose size depends on decoded data
// (arrays with a sibling length reference) make their own size and every
// later offset unresolvable; such entries carry NoOffset and the record's
// size is NoSize.
//
// # Layout Rules
//
//   - Primitives: alignment equals byte width, capped by Options.MaxAlign
//   - Pointers: sized and aligned like the configured pointer primitive
//   - Arrays: element alignment; fixed count times element size
//   - Structs: cursor rounded up to each field's alignment, tail padding to
//     the record's alignment
//   - Unions: every member at offset 0, size is the max member size rounded
//     up to the union's alignment
//   - Bitfields: consecutive fields with the same base type share a storage
//     unit (see PackRun); only the unit's first field has an offset
//
// # Usage
//
//	calc := layout.NewCalculator(layout.Options{Aligned: true})
//	info := calc.Record(rec)
//	// info.Size, info.Align, info.FieldOffsets available
//
// Validate checks a record graph for registration-time errors (bad length
// references, invalid bit widths) before any layout is computed.
package layout
