package layout

import (
	"github.com/bindat/cstruct/errors"
	"github.com/bindat/cstruct/schema"
)

// Validate checks a record graph for shapes that must be rejected at
// registration time: duplicate field names, invalid bitfield declarations,
// negative array counts, and length references that do not name an earlier
// integer sibling. Pointer targets are not descended into; they are decoded
// lazily and may legally be self-referential.
func Validate(r *schema.Record) error {
	return validateRecord(r, nil)
}

func validateRecord(r *schema.Record, path []string) error {
	seen := make(map[string]*schema.Field, len(r.Fields))

	for _, f := range r.Fields {
		fieldPath := append(append([]string{}, path...), f.Name)

		if f.Name == "" {
			return errors.InvalidData(errors.PhaseRegister, path, "field without a name")
		}
		if _, dup := seen[f.Name]; dup {
			return errors.New(errors.PhaseRegister, errors.KindDuplicate).
				Path(fieldPath...).
				Detail("duplicate field %q", f.Name).
				Build()
		}

		if f.Bits > 0 {
			base := f.Base()
			if base == nil {
				return errors.InvalidData(errors.PhaseRegister, fieldPath,
					"bitfield requires an integer base type, got "+f.Type.String())
			}
			if f.Bits > 8*base.Size {
				return errors.BitWidth(fieldPath, f.Bits, 8*base.Size)
			}
		}

		if err := validateType(f.Type, seen, fieldPath); err != nil {
			return err
		}

		seen[f.Name] = f
	}
	return nil
}

func validateType(t schema.Type, siblings map[string]*schema.Field, path []string) error {
	switch v := t.(type) {
	case *schema.Primitive:
		return nil
	case *schema.Pointer:
		if v.Target == nil {
			return errors.InvalidData(errors.PhaseRegister, path, "pointer without a target type")
		}
		return nil
	case *schema.Array:
		if v.CountRef != "" {
			ref, ok := siblings[v.CountRef]
			if !ok {
				return errors.BadReference(path, v.CountRef)
			}
			if ref.Base() == nil {
				return errors.InvalidData(errors.PhaseRegister, path,
					"length reference "+v.CountRef+" is not an integer field")
			}
		} else if v.Count < 0 {
			return errors.InvalidData(errors.PhaseRegister, path, "negative array length")
		}
		return validateType(v.Elem, siblings, path)
	case *schema.Record:
		return validateRecord(v, path)
	default:
		return errors.Unsupported(errors.PhaseRegister, "unknown type node")
	}
}
