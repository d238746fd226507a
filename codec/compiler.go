package codec

import (
	"io"

	"github.com/bindat/cstruct/errors"
	"github.com/bindat/cstruct/layout"
	"github.com/bindat/cstruct/schema"
)

// Compiled is the specialized codec: a step program constructed once per
// record at registration time. Each step is a closure with its padding,
// offsets, and field handling resolved at construction, so decoding never
// walks the type graph. Behavior is identical to the Interpreted codec for
// every record Compile accepts.
type Compiled struct {
	rec  *schema.Record
	opts Options
	dec  []decodeStep
	enc  []encodeStep
}

// Steps receive the frame start so alignment after a dynamic field can be
// computed against the owning record's first byte.
type decodeStep func(st *state, inst *Instance, start int) error
type encodeStep func(w *writer, inst *Instance, start int) error

// Per-type codecs built once; owner carries already-decoded sibling values
// for dynamic lengths.
type valueDecoder func(st *state, owner *Instance) (any, error)
type valueEncoder func(w *writer, v any, owner *Instance) error

// Compile builds the specialized codec for a record. It fails with an
// unsupported error for shapes it does not specialize - unions, and any
// record transitively containing one - in which case callers fall back to
// the Interpreted codec.
func Compile(rec *schema.Record, opts Options) (*Compiled, error) {
	b := &builder{
		calc: layout.NewCalculator(opts.layoutOptions()),
		opts: opts,
	}
	dec, enc, err := b.record(rec, nil)
	if err != nil {
		return nil, err
	}
	return &Compiled{rec: rec, opts: opts, dec: dec, enc: enc}, nil
}

func (c *Compiled) Compiled() bool { return true }

func (c *Compiled) Decode(src io.Reader) (*Instance, error) {
	st := newState(src, c.opts)
	inst := NewInstance(c.rec)
	inst.compiled = true
	start := st.pos
	for _, step := range c.dec {
		if err := step(st, inst, start); err != nil {
			return nil, err
		}
	}
	return inst, nil
}

func (c *Compiled) Encode(inst *Instance) ([]byte, error) {
	if inst == nil || inst.record != c.rec {
		return nil, errors.InvalidData(errors.PhaseEncode, nil, "instance does not belong to this record type")
	}
	w := &writer{}
	start := 0
	for _, step := range c.enc {
		if err := step(w, inst, start); err != nil {
			return nil, err
		}
	}
	return w.buf, nil
}

// builder walks the type graph once at construction. Its layout calculator
// is used only here; the emitted closures carry plain constants and are
// safe for concurrent use.
type builder struct {
	calc *layout.Calculator
	opts Options
}

func (b *builder) record(rec *schema.Record, path []string) ([]decodeStep, []encodeStep, error) {
	if rec.Union {
		return nil, nil, errors.Unsupported(errors.PhaseCompile, "union layout: "+rec.String())
	}

	aligned := b.opts.aligned(rec)
	info := b.calc.Record(rec)

	var dec []decodeStep
	var enc []encodeStep

	static := true
	cursor := 0

	pad := func(align int, fp []string) {
		if !aligned || align <= 1 {
			return
		}
		if static {
			n := layout.AlignTo(cursor, align) - cursor
			cursor += n
			if n == 0 {
				return
			}
			dec = append(dec, func(st *state, _ *Instance, _ int) error {
				return st.skip(n, fp)
			})
			enc = append(enc, func(w *writer, _ *Instance, _ int) error {
				w.pad(n)
				return nil
			})
			return
		}
		dec = append(dec, func(st *state, _ *Instance, start int) error {
			return st.pad(start, align, fp)
		})
		enc = append(enc, func(w *writer, _ *Instance, start int) error {
			w.padTo(start, align)
			return nil
		})
	}

	for i := 0; i < len(rec.Fields); {
		f := rec.Fields[i]
		fp := fieldPath(path, f.Name)

		if f.IsBitfield() {
			run, next := layout.PackRun(rec.Fields, i)
			pad(b.calc.Calculate(run.Base).Align, fp)
			dec = append(dec, func(st *state, inst *Instance, _ int) error {
				return decodeRun(st, run, inst, path)
			})
			enc = append(enc, func(w *writer, inst *Instance, _ int) error {
				return encodeRun(w, run, inst, path)
			})
			if static {
				cursor += run.Base.Size
			}
			i = next
			continue
		}

		fi := b.calc.Calculate(f.Type)
		pad(fi.Align, fp)

		vdec, venc, err := b.typeCodec(f.Type, fp)
		if err != nil {
			return nil, nil, err
		}

		name := f.Name
		dec = append(dec, func(st *state, inst *Instance, _ int) error {
			v, err := vdec(st, inst)
			if err != nil {
				return err
			}
			inst.Set(name, v)
			return nil
		})
		enc = append(enc, func(w *writer, inst *Instance, _ int) error {
			v, ok := inst.values[name]
			if !ok {
				return errors.FieldMissing(errors.PhaseEncode, path, name)
			}
			return venc(w, v, inst)
		})

		if fi.Dynamic {
			static = false
		} else if static {
			cursor += fi.Size
		}
		i++
	}

	pad(info.Align, path)

	return dec, enc, nil
}

func (b *builder) typeCodec(t schema.Type, path []string) (valueDecoder, valueEncoder, error) {
	switch typ := t.(type) {
	case *schema.Primitive:
		prim := typ
		dec := func(st *state, _ *Instance) (any, error) {
			buf, err := st.read(prim.Size, path)
			if err != nil {
				return nil, err
			}
			return primValue(prim, getUint(prim, buf)), nil
		}
		enc := func(w *writer, v any, _ *Instance) error {
			bits, ok := valueBits(v)
			if !ok {
				return errors.TypeMismatch(errors.PhaseEncode, path, prim.Name, v)
			}
			w.writeUint(prim, bits)
			return nil
		}
		return dec, enc, nil

	case *schema.Pointer:
		p := b.opts.pointer()
		target := typ.Target
		opts := b.opts
		dec := func(st *state, _ *Instance) (any, error) {
			buf, err := st.read(p.Size, path)
			if err != nil {
				return nil, err
			}
			return &Pointer{Addr: getUint(p, buf), target: target, src: st.seek, opts: opts}, nil
		}
		enc := func(w *writer, v any, _ *Instance) error {
			if ptr, ok := v.(*Pointer); ok {
				w.writeUint(p, ptr.Addr)
				return nil
			}
			bits, ok := valueBits(v)
			if !ok {
				return errors.TypeMismatch(errors.PhaseEncode, path, typ.String(), v)
			}
			w.writeUint(p, bits)
			return nil
		}
		return dec, enc, nil

	case *schema.Array:
		return b.arrayCodec(typ, path)

	case *schema.Record:
		sub := typ
		decSteps, encSteps, err := b.record(sub, path)
		if err != nil {
			return nil, nil, err
		}
		dec := func(st *state, _ *Instance) (any, error) {
			inst := NewInstance(sub)
			inst.compiled = true
			start := st.pos
			for _, step := range decSteps {
				if err := step(st, inst, start); err != nil {
					return nil, err
				}
			}
			return inst, nil
		}
		enc := func(w *writer, v any, _ *Instance) error {
			inst, ok := v.(*Instance)
			if !ok || inst.record != sub {
				return errors.TypeMismatch(errors.PhaseEncode, path, sub.String(), v)
			}
			start := len(w.buf)
			for _, step := range encSteps {
				if err := step(w, inst, start); err != nil {
					return err
				}
			}
			return nil
		}
		return dec, enc, nil

	default:
		return nil, nil, errors.Unsupported(errors.PhaseCompile, "type kind: "+t.Kind().String())
	}
}

func (b *builder) arrayCodec(a *schema.Array, path []string) (valueDecoder, valueEncoder, error) {
	count := func(owner *Instance, phase errors.Phase) (int, error) {
		if a.CountRef == "" {
			return a.Count, nil
		}
		v, ok := owner.values[a.CountRef]
		if !ok {
			return 0, errors.FieldMissing(phase, path, a.CountRef)
		}
		n, ok := asCount(v)
		if !ok {
			return 0, errors.InvalidData(phase, path,
				"length field "+a.CountRef+" has no integer value")
		}
		return n, nil
	}

	if prim, ok := a.Elem.(*schema.Primitive); ok {
		dec := func(st *state, owner *Instance) (any, error) {
			n, err := count(owner, errors.PhaseDecode)
			if err != nil {
				return nil, err
			}
			return decodePrimArray(st, prim, n, path)
		}
		enc := func(w *writer, v any, owner *Instance) error {
			return b.encodeArrayValue(a, v, w, owner, count, func(w *writer, e any) error {
				bits, ok := valueBits(e)
				if !ok {
					return errors.TypeMismatch(errors.PhaseEncode, path, prim.Name, e)
				}
				w.writeUint(prim, bits)
				return nil
			}, path)
		}
		return dec, enc, nil
	}

	elemDec, elemEnc, err := b.typeCodec(a.Elem, path)
	if err != nil {
		return nil, nil, err
	}
	dec := func(st *state, owner *Instance) (any, error) {
		n, err := count(owner, errors.PhaseDecode)
		if err != nil {
			return nil, err
		}
		out := make([]any, 0, min(n, maxPrealloc))
		for i := 0; i < n; i++ {
			v, err := elemDec(st, owner)
			if err != nil {
				return nil, err
			}
			out = append(out, v)
		}
		return out, nil
	}
	enc := func(w *writer, v any, owner *Instance) error {
		return b.encodeArrayValue(a, v, w, owner, count, func(w *writer, e any) error {
			return elemEnc(w, e, owner)
		}, path)
	}
	return dec, enc, nil
}

func (b *builder) encodeArrayValue(
	a *schema.Array,
	v any,
	w *writer,
	owner *Instance,
	count func(*Instance, errors.Phase) (int, error),
	elem func(*writer, any) error,
	path []string,
) error {
	length, err := arrayLen(v, path)
	if err != nil {
		return err
	}
	want, err := count(owner, errors.PhaseEncode)
	if err != nil {
		return err
	}
	if length != want {
		return errors.SizeMismatch(errors.PhaseEncode, path, length, want)
	}

	switch vals := v.(type) {
	case []uint64:
		for _, u := range vals {
			if err := elem(w, u); err != nil {
				return err
			}
		}
	case []int64:
		for _, u := range vals {
			if err := elem(w, u); err != nil {
				return err
			}
		}
	case []any:
		for _, e := range vals {
			if err := elem(w, e); err != nil {
				return err
			}
		}
	}
	return nil
}
