package codec

import (
	"bytes"
	"io"

	"github.com/bindat/cstruct/errors"
	"github.com/bindat/cstruct/layout"
	"github.com/bindat/cstruct/schema"
)

// maxPrealloc caps slice preallocation for decoded arrays so corrupt length
// fields cannot force huge allocations before the read fails.
const maxPrealloc = 4096

// Interpreted is the generic codec: decode and encode walk the type graph
// field by field on every call, re-deriving dynamic lengths from already
// decoded sibling values.
type Interpreted struct {
	rec  *schema.Record
	opts Options
}

func NewInterpreted(rec *schema.Record, opts Options) *Interpreted {
	return &Interpreted{rec: rec, opts: opts}
}

func (c *Interpreted) Compiled() bool { return false }

func (c *Interpreted) Decode(src io.Reader) (*Instance, error) {
	st := newState(src, c.opts)
	calc := layout.NewCalculator(c.opts.layoutOptions())
	return decodeRecord(st, calc, c.rec, nil)
}

// state tracks one decode call's cursor over the source. pos is relative to
// the outermost record's start; pointer addresses are absolute stream
// positions and resolve through seek.
type state struct {
	r    io.Reader
	seek io.ReadSeeker
	opts Options
	pos  int
}

func newState(r io.Reader, opts Options) *state {
	st := &state{r: r, opts: opts}
	if rs, ok := r.(io.ReadSeeker); ok {
		st.seek = rs
	}
	return st
}

func (st *state) read(n int, path []string) ([]byte, error) {
	buf := make([]byte, n)
	if _, err := io.ReadFull(st.r, buf); err != nil {
		return nil, errors.New(errors.PhaseDecode, errors.KindOutOfBounds).
			Path(path...).
			Offset(int64(st.pos)).
			Cause(err).
			Detail("source exhausted reading %d bytes", n).
			Build()
	}
	st.pos += n
	return buf, nil
}

func (st *state) skip(n int, path []string) error {
	if n == 0 {
		return nil
	}
	_, err := st.read(n, path)
	return err
}

// pad consumes alignment padding so the cursor, relative to start, reaches
// a multiple of align.
func (st *state) pad(start, align int, path []string) error {
	rel := st.pos - start
	return st.skip(layout.AlignTo(rel, align)-rel, path)
}

func fieldPath(path []string, name string) []string {
	return append(append([]string{}, path...), name)
}

func decodeRecord(st *state, calc *layout.Calculator, rec *schema.Record, path []string) (*Instance, error) {
	if rec.Union {
		return decodeUnion(st, calc, rec, path)
	}

	aligned := st.opts.aligned(rec)
	info := calc.Record(rec)
	inst := NewInstance(rec)
	start := st.pos

	for i := 0; i < len(rec.Fields); {
		f := rec.Fields[i]
		fp := fieldPath(path, f.Name)

		if f.IsBitfield() {
			run, next := layout.PackRun(rec.Fields, i)
			if aligned {
				if err := st.pad(start, calc.Calculate(run.Base).Align, fp); err != nil {
					return nil, err
				}
			}
			if err := decodeRun(st, run, inst, path); err != nil {
				return nil, err
			}
			i = next
			continue
		}

		if aligned {
			if err := st.pad(start, calc.Calculate(f.Type).Align, fp); err != nil {
				return nil, err
			}
		}
		v, err := decodeType(st, calc, f.Type, inst, fp)
		if err != nil {
			return nil, err
		}
		inst.Set(f.Name, v)
		i++
	}

	if aligned {
		if err := st.pad(start, info.Align, path); err != nil {
			return nil, err
		}
	}
	return inst, nil
}

// decodeRun reads one storage unit and extracts every member by shift and
// mask, advancing the source once regardless of member count.
func decodeRun(st *state, run layout.Run, inst *Instance, path []string) error {
	buf, err := st.read(run.Base.Size, fieldPath(path, run.Members[0].Name))
	if err != nil {
		return err
	}
	unit := getUint(run.Base, buf)

	shift := 0
	for _, m := range run.Members {
		mask := uint64(1)<<m.Bits - 1
		inst.Set(m.Name, bitValue(run.Base, (unit>>shift)&mask, m.Bits))
		shift += m.Bits
	}
	return nil
}

func decodeType(st *state, calc *layout.Calculator, t schema.Type, owner *Instance, path []string) (any, error) {
	switch typ := t.(type) {
	case *schema.Primitive:
		buf, err := st.read(typ.Size, path)
		if err != nil {
			return nil, err
		}
		return primValue(typ, getUint(typ, buf)), nil

	case *schema.Pointer:
		p := st.opts.pointer()
		buf, err := st.read(p.Size, path)
		if err != nil {
			return nil, err
		}
		return &Pointer{
			Addr:   getUint(p, buf),
			target: typ.Target,
			src:    st.seek,
			opts:   st.opts,
		}, nil

	case *schema.Array:
		return decodeArray(st, calc, typ, owner, path)

	case *schema.Record:
		return decodeRecord(st, calc, typ, path)

	default:
		return nil, errors.Unsupported(errors.PhaseDecode, "type kind: "+t.Kind().String())
	}
}

func decodeArray(st *state, calc *layout.Calculator, a *schema.Array, owner *Instance, path []string) (any, error) {
	n := a.Count
	if a.CountRef != "" {
		if owner == nil {
			return nil, errors.InvalidData(errors.PhaseDecode, path,
				"length reference "+a.CountRef+" outside a record")
		}
		c, ok := asCount(owner.Get(a.CountRef))
		if !ok {
			return nil, errors.InvalidData(errors.PhaseDecode, path,
				"length field "+a.CountRef+" has no integer value")
		}
		n = c
	}

	if prim, ok := a.Elem.(*schema.Primitive); ok {
		return decodePrimArray(st, prim, n, path)
	}

	out := make([]any, 0, min(n, maxPrealloc))
	for i := 0; i < n; i++ {
		v, err := decodeType(st, calc, a.Elem, owner, path)
		if err != nil {
			return nil, err
		}
		out = append(out, v)
	}
	return out, nil
}

func decodePrimArray(st *state, prim *schema.Primitive, n int, path []string) (any, error) {
	buf, err := st.read(n*prim.Size, path)
	if err != nil {
		return nil, err
	}
	if prim.Signed {
		out := make([]int64, n)
		for i := range out {
			out[i] = signExtend(getUint(prim, buf[i*prim.Size:]), 8*prim.Size)
		}
		return out, nil
	}
	out := make([]uint64, n)
	for i := range out {
		out[i] = getUint(prim, buf[i*prim.Size:])
	}
	return out, nil
}

// decodeUnion reads every member from the same starting bytes. Static
// unions consume exactly the union size from the source; dynamic unions
// re-read each member from the union's start and therefore need a seekable
// source.
func decodeUnion(st *state, calc *layout.Calculator, rec *schema.Record, path []string) (*Instance, error) {
	info := calc.Record(rec)
	inst := NewInstance(rec)

	if !info.Dynamic {
		buf, err := st.read(info.Size, path)
		if err != nil {
			return nil, err
		}
		for _, f := range rec.Fields {
			sub := newState(bytes.NewReader(buf), st.opts)
			sub.seek = st.seek // pointers resolve against the original source
			if err := decodeUnionMember(sub, calc, f, inst, path); err != nil {
				return nil, err
			}
		}
		return inst, nil
	}

	if st.seek == nil {
		return nil, errors.NotSeekable(errors.PhaseDecode, "dynamic union decode")
	}
	start, err := st.seek.Seek(0, io.SeekCurrent)
	if err != nil {
		return nil, errors.Wrap(errors.PhaseDecode, errors.KindOutOfBounds, err, "seek union start")
	}

	maxConsumed := 0
	for _, f := range rec.Fields {
		if _, err := st.seek.Seek(start, io.SeekStart); err != nil {
			return nil, errors.Wrap(errors.PhaseDecode, errors.KindOutOfBounds, err, "seek union start")
		}
		sub := newState(st.seek, st.opts)
		if err := decodeUnionMember(sub, calc, f, inst, path); err != nil {
			return nil, err
		}
		if sub.pos > maxConsumed {
			maxConsumed = sub.pos
		}
	}

	size := layout.AlignTo(maxConsumed, info.Align)
	if _, err := st.seek.Seek(start+int64(size), io.SeekStart); err != nil {
		return nil, errors.Wrap(errors.PhaseDecode, errors.KindOutOfBounds, err, "seek past union")
	}
	st.pos += size
	return inst, nil
}

func decodeUnionMember(sub *state, calc *layout.Calculator, f *schema.Field, inst *Instance, path []string) error {
	if f.IsBitfield() {
		// Every union member starts its own storage unit at offset 0.
		run := layout.Run{Base: f.Base(), Members: []*schema.Field{f}}
		return decodeRun(sub, run, inst, path)
	}
	v, err := decodeType(sub, calc, f.Type, inst, fieldPath(path, f.Name))
	if err != nil {
		return err
	}
	inst.Set(f.Name, v)
	return nil
}
