package main

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"

	"github.com/bindat/cstruct"
	"github.com/bindat/cstruct/schema"
)

// schemaFile is the YAML description of a type graph. Types are defined in
// order; a field's type may name a builtin primitive or any previously
// defined record. Pointer fields may additionally name the record being
// defined, for self-referential structures.
type schemaFile struct {
	Types []typeDef `yaml:"types"`
}

type typeDef struct {
	Name   string     `yaml:"name"`
	Union  bool       `yaml:"union"`
	Packed bool       `yaml:"packed"`
	Fields []fieldDef `yaml:"fields"`
}

type fieldDef struct {
	Name     string     `yaml:"name"`
	Type     string     `yaml:"type"`
	Bits     int        `yaml:"bits"`
	Count    *int       `yaml:"count"`     // fixed array length
	CountRef string     `yaml:"count_ref"` // sibling length field
	Pointer  bool       `yaml:"pointer"`
	Struct   []fieldDef `yaml:"struct"` // nested anonymous struct
	UnionOf  []fieldDef `yaml:"union"`  // nested anonymous union
}

// loadSchema reads the YAML file and registers every type in order,
// returning the registered handles by definition order.
func loadSchema(path string, reg *cstruct.Registry) ([]*cstruct.RecordType, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read schema: %w", err)
	}

	var sf schemaFile
	if err := yaml.Unmarshal(data, &sf); err != nil {
		return nil, fmt.Errorf("parse schema: %w", err)
	}

	defined := make(map[string]*schema.Record)
	var out []*cstruct.RecordType

	for _, td := range sf.Types {
		rec, err := buildRecord(td, reg, defined)
		if err != nil {
			return nil, err
		}
		t, err := reg.Register(rec)
		if err != nil {
			return nil, fmt.Errorf("register %s: %w", td.Name, err)
		}
		defined[td.Name] = rec
		out = append(out, t)
	}
	return out, nil
}

func buildRecord(td typeDef, reg *cstruct.Registry, defined map[string]*schema.Record) (*schema.Record, error) {
	// Self-referential pointers resolve against the record under
	// construction, so it goes into the map before its fields.
	rec := &schema.Record{Name: td.Name, Union: td.Union, Packed: td.Packed}
	scope := map[string]*schema.Record{td.Name: rec}
	for k, v := range defined {
		scope[k] = v
	}

	fields, err := buildFields(td.Fields, reg, scope)
	if err != nil {
		return nil, fmt.Errorf("type %s: %w", td.Name, err)
	}
	rec.Fields = fields
	for i, f := range rec.Fields {
		f.Index = i
	}
	return rec, nil
}

func buildFields(defs []fieldDef, reg *cstruct.Registry, scope map[string]*schema.Record) ([]*schema.Field, error) {
	var fields []*schema.Field
	for _, fd := range defs {
		t, err := buildType(fd, reg, scope)
		if err != nil {
			return nil, fmt.Errorf("field %s: %w", fd.Name, err)
		}
		fields = append(fields, &schema.Field{Name: fd.Name, Type: t, Bits: fd.Bits})
	}
	return fields, nil
}

func buildType(fd fieldDef, reg *cstruct.Registry, scope map[string]*schema.Record) (schema.Type, error) {
	var base schema.Type
	switch {
	case len(fd.Struct) > 0:
		nested, err := buildFields(fd.Struct, reg, scope)
		if err != nil {
			return nil, err
		}
		base = schema.NewStruct("", nested...)
	case len(fd.UnionOf) > 0:
		nested, err := buildFields(fd.UnionOf, reg, scope)
		if err != nil {
			return nil, err
		}
		base = schema.NewUnion("", nested...)
	case fd.Type != "":
		if p, ok := reg.Primitive(fd.Type); ok {
			base = p
		} else if r, ok := scope[fd.Type]; ok {
			base = r
		} else {
			return nil, fmt.Errorf("unknown type %q", fd.Type)
		}
	default:
		return nil, fmt.Errorf("no type given")
	}

	if fd.Pointer {
		base = &schema.Pointer{Target: base}
	}
	switch {
	case fd.CountRef != "":
		base = &schema.Array{Elem: base, CountRef: fd.CountRef}
	case fd.Count != nil:
		base = &schema.Array{Elem: base, Count: *fd.Count}
	}
	return base, nil
}
