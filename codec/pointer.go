package codec

import (
	"io"

	"github.com/bindat/cstruct/errors"
	"github.com/bindat/cstruct/layout"
	"github.com/bindat/cstruct/schema"
)

// Pointer is a decoded pointer field: the raw unsigned integer read from
// the stream plus a shared, read-only reference to the originating source.
// The address is not rebased or validated against any address space.
//
// Dereference is lazy; the value stays valid only while the source remains
// accessible, and nothing is cached between calls.
type Pointer struct {
	Addr   uint64
	target schema.Type
	src    io.ReadSeeker
	opts   Options
}

// Target returns the pointed-to type.
func (p *Pointer) Target() schema.Type { return p.target }

// Dereference seeks the originating source to the pointer's absolute
// position and decodes one instance of the target type. The source's
// position is restored afterwards. Repeated calls re-seek and re-decode.
//
// Dereferencing fails when the source does not support seeking or when the
// target lies past the end of the source.
func (p *Pointer) Dereference() (any, error) {
	if p.src == nil {
		return nil, errors.NotSeekable(errors.PhaseDecode, "pointer dereference")
	}

	restore, err := p.src.Seek(0, io.SeekCurrent)
	if err != nil {
		return nil, errors.Wrap(errors.PhaseDecode, errors.KindOutOfBounds, err, "pointer dereference")
	}
	defer p.src.Seek(restore, io.SeekStart)

	if _, err := p.src.Seek(int64(p.Addr), io.SeekStart); err != nil {
		return nil, errors.New(errors.PhaseDecode, errors.KindOutOfBounds).
			Offset(int64(p.Addr)).
			Cause(err).
			Detail("pointer target out of range").
			Build()
	}

	st := newState(p.src, p.opts)
	st.pos = int(p.Addr)
	calc := layout.NewCalculator(p.opts.layoutOptions())
	return decodeType(st, calc, p.target, nil, []string{"*" + p.target.String()})
}
