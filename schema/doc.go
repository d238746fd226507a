// Package schema defines the type graph consumed by the layout engine and
// the codecs.
//
// A definition parser (out of scope for this library) produces a graph of
// Type nodes: Primitive, Pointer, Array, and Record (struct or union), with
// Record fields optionally carrying a bit width. The graph is pure data;
// layout computation and codec behavior live in the layout and codec
// packages.
//
// # Key Types
//
//   - Type: closed variant over *Primitive, *Pointer, *Array, *Record
//   - Field: one declared member of a record, in declaration order
//   - Record: ordered field list, struct or union, optionally packed
//
// Type graphs are built once and must not be mutated after registration.
package schema
