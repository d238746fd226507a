// Package cstruct computes C-like binary record layouts and decodes and
// encodes byte streams against them.
//
// A caller builds a type graph out of the schema package's nodes, registers
// records with a Registry, and gets back RecordType handles that expose the
// computed layout (offsets, alignment, size) and decode/encode entry points.
//
// # Architecture Overview
//
// The library is organized into several packages with distinct responsibilities:
//
//	cstruct/             Root package with Registry, Config, and RecordType
//	├── schema/          Type graph data model (primitives, arrays, records)
//	├── layout/          Offset, alignment, and size computation
//	├── codec/           Interpreted and compiled decode/encode strategies
//	├── errors/          Structured error types with a phase/kind taxonomy
//	└── cmd/inspect/     CLI for inspecting layouts and decoding binaries
//
// # Quick Start
//
// Register a struct and decode a buffer:
//
//	reg := cstruct.New(cstruct.Config{Align: true})
//	u32, _ := reg.Primitive("uint32")
//	u64, _ := reg.Primitive("uint64")
//
//	t, err := reg.Register(schema.NewStruct("header",
//	    &schema.Field{Name: "magic", Type: u32},
//	    &schema.Field{Name: "offset", Type: u64},
//	))
//	if err != nil {
//	    log.Fatal(err)
//	}
//
//	inst, err := t.DecodeBytes(data)
//	magic := inst.Get("magic").(uint64)
//
// # Layout Modes
//
// The default layout is packed: fields are laid out back to back with no
// padding. Config.Align enables natural alignment in the manner of common
// C ABIs: each field aligns to its primitive's width (capped by
// Config.MaxAlign), records align to their widest member, and total size
// rounds up to the record alignment.
//
// Fields whose size depends on decoded data (arrays whose length comes from
// an earlier sibling field) have no static offset; the codecs compute their
// placement at decode time from the live cursor.
//
// # Codec Strategies
//
// Registration builds a compiled codec where possible: a precomputed step
// program with padding and field handling resolved up front. Records the
// compiler does not specialize fall back to the generic interpreted codec
// transparently; both strategies produce identical bytes and values.
// RecordType.Compiled reports which strategy is in effect.
//
// # Thread Safety
//
// Registry and RecordType are safe for concurrent use. An Instance is owned
// by a single caller and is not safe for concurrent mutation.
package cstruct
