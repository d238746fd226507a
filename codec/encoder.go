package codec

import (
	"github.com/bindat/cstruct/errors"
	"github.com/bindat/cstruct/layout"
	"github.com/bindat/cstruct/schema"
)

func (c *Interpreted) Encode(inst *Instance) ([]byte, error) {
	if inst == nil || inst.record != c.rec {
		return nil, errors.InvalidData(errors.PhaseEncode, nil, "instance does not belong to this record type")
	}
	w := &writer{}
	calc := layout.NewCalculator(c.opts.layoutOptions())
	if err := encodeRecord(w, calc, c.opts, inst, nil); err != nil {
		return nil, err
	}
	return w.buf, nil
}

// writer accumulates the output buffer. Padding is always zero bytes.
type writer struct {
	buf []byte
}

func (w *writer) pad(n int) {
	w.buf = append(w.buf, make([]byte, n)...)
}

// padTo inserts zero bytes so the cursor, relative to start, reaches a
// multiple of align.
func (w *writer) padTo(start, align int) {
	rel := len(w.buf) - start
	w.pad(layout.AlignTo(rel, align) - rel)
}

func (w *writer) writeUint(p *schema.Primitive, u uint64) {
	var scratch [8]byte
	putUint(p, scratch[:p.Size], u)
	w.buf = append(w.buf, scratch[:p.Size]...)
}

func encodeRecord(w *writer, calc *layout.Calculator, opts Options, inst *Instance, path []string) error {
	rec := inst.record
	if rec.Union {
		return encodeUnion(w, calc, opts, inst, path)
	}

	aligned := opts.aligned(rec)
	info := calc.Record(rec)
	start := len(w.buf)

	for i := 0; i < len(rec.Fields); {
		f := rec.Fields[i]

		if f.IsBitfield() {
			run, next := layout.PackRun(rec.Fields, i)
			if aligned {
				w.padTo(start, calc.Calculate(run.Base).Align)
			}
			if err := encodeRun(w, run, inst, path); err != nil {
				return err
			}
			i = next
			continue
		}

		fp := fieldPath(path, f.Name)
		v, ok := inst.values[f.Name]
		if !ok {
			return errors.FieldMissing(errors.PhaseEncode, path, f.Name)
		}
		if aligned {
			w.padTo(start, calc.Calculate(f.Type).Align)
		}
		if err := encodeType(w, calc, opts, f.Type, v, inst, fp); err != nil {
			return err
		}
		i++
	}

	if aligned {
		w.padTo(start, info.Align)
	}
	return nil
}

// encodeRun ORs each member's value, masked to its declared width, into a
// zero-initialized unit and writes the unit once.
func encodeRun(w *writer, run layout.Run, inst *Instance, path []string) error {
	unit := uint64(0)
	shift := 0
	for _, m := range run.Members {
		v, ok := inst.values[m.Name]
		if !ok {
			return errors.FieldMissing(errors.PhaseEncode, path, m.Name)
		}
		bits, ok := valueBits(v)
		if !ok {
			return errors.TypeMismatch(errors.PhaseEncode, fieldPath(path, m.Name), run.Base.Name, v)
		}
		mask := uint64(1)<<m.Bits - 1
		unit |= (bits & mask) << shift
		shift += m.Bits
	}
	w.writeUint(run.Base, unit)
	return nil
}

func encodeType(w *writer, calc *layout.Calculator, opts Options, t schema.Type, v any, owner *Instance, path []string) error {
	switch typ := t.(type) {
	case *schema.Primitive:
		bits, ok := valueBits(v)
		if !ok {
			return errors.TypeMismatch(errors.PhaseEncode, path, typ.Name, v)
		}
		w.writeUint(typ, bits)
		return nil

	case *schema.Pointer:
		p := opts.pointer()
		switch ptr := v.(type) {
		case *Pointer:
			w.writeUint(p, ptr.Addr)
		default:
			bits, ok := valueBits(v)
			if !ok {
				return errors.TypeMismatch(errors.PhaseEncode, path, typ.String(), v)
			}
			w.writeUint(p, bits)
		}
		return nil

	case *schema.Array:
		return encodeArray(w, calc, opts, typ, v, owner, path)

	case *schema.Record:
		sub, ok := v.(*Instance)
		if !ok || sub.record != typ {
			return errors.TypeMismatch(errors.PhaseEncode, path, typ.String(), v)
		}
		return encodeRecord(w, calc, opts, sub, path)

	default:
		return errors.Unsupported(errors.PhaseEncode, "type kind: "+t.Kind().String())
	}
}

func encodeArray(w *writer, calc *layout.Calculator, opts Options, a *schema.Array, v any, owner *Instance, path []string) error {
	length, err := arrayLen(v, path)
	if err != nil {
		return err
	}

	want := a.Count
	if a.CountRef != "" {
		// The supplied length field and the actual array length must agree.
		ref, ok := owner.values[a.CountRef]
		if !ok {
			return errors.FieldMissing(errors.PhaseEncode, path, a.CountRef)
		}
		want, ok = asCount(ref)
		if !ok {
			return errors.InvalidData(errors.PhaseEncode, path,
				"length field "+a.CountRef+" has no integer value")
		}
	}
	if length != want {
		return errors.SizeMismatch(errors.PhaseEncode, path, length, want)
	}

	switch vals := v.(type) {
	case []uint64:
		prim, ok := a.Elem.(*schema.Primitive)
		if !ok {
			return errors.TypeMismatch(errors.PhaseEncode, path, a.String(), v)
		}
		for _, u := range vals {
			w.writeUint(prim, u)
		}
	case []int64:
		prim, ok := a.Elem.(*schema.Primitive)
		if !ok {
			return errors.TypeMismatch(errors.PhaseEncode, path, a.String(), v)
		}
		for _, u := range vals {
			w.writeUint(prim, uint64(u))
		}
	case []any:
		for _, e := range vals {
			if err := encodeType(w, calc, opts, a.Elem, e, owner, path); err != nil {
				return err
			}
		}
	}
	return nil
}

func arrayLen(v any, path []string) (int, error) {
	switch vals := v.(type) {
	case []uint64:
		return len(vals), nil
	case []int64:
		return len(vals), nil
	case []any:
		return len(vals), nil
	default:
		return 0, errors.TypeMismatch(errors.PhaseEncode, path, "array", v)
	}
}

// encodeUnion writes members in declaration order into a zero-initialized
// buffer of the union's size; overlapping bytes are overwritten by later
// members, which agree with earlier ones for any consistently populated
// instance.
func encodeUnion(w *writer, calc *layout.Calculator, opts Options, inst *Instance, path []string) error {
	rec := inst.record
	info := calc.Record(rec)

	members := make([][]byte, len(rec.Fields))
	maxLen := 0
	for i, f := range rec.Fields {
		sub := &writer{}
		if err := encodeUnionMember(sub, calc, opts, f, inst, path); err != nil {
			return err
		}
		members[i] = sub.buf
		if len(sub.buf) > maxLen {
			maxLen = len(sub.buf)
		}
	}

	size := layout.AlignTo(maxLen, info.Align)
	if !info.Dynamic {
		size = info.Size
	}

	buf := make([]byte, size)
	for _, m := range members {
		copy(buf, m)
	}
	w.buf = append(w.buf, buf...)
	return nil
}

func encodeUnionMember(sub *writer, calc *layout.Calculator, opts Options, f *schema.Field, inst *Instance, path []string) error {
	v, ok := inst.values[f.Name]
	if !ok {
		return errors.FieldMissing(errors.PhaseEncode, path, f.Name)
	}
	if f.IsBitfield() {
		run := layout.Run{Base: f.Base(), Members: []*schema.Field{f}}
		return encodeRun(sub, run, inst, path)
	}
	return encodeType(sub, calc, opts, f.Type, v, inst, fieldPath(path, f.Name))
}
