package layout

import (
	"github.com/bindat/cstruct/schema"
)

const (
	// NoOffset marks a field whose offset cannot be computed without
	// decoded data, or a bitfield that continues an earlier storage unit.
	NoOffset = -1

	// NoSize marks a record whose total size depends on decoded data.
	NoSize = -1
)

// DefaultPointer is the pointer primitive used when Options.Pointer is nil.
var DefaultPointer = &schema.Primitive{Name: "uint64", Size: 8}

// Options configure layout computation. The zero value means packed layout
// with an 8-byte pointer and uncapped alignment.
type Options struct {
	Pointer  *schema.Primitive
	MaxAlign int // cap on every field's alignment, 0 = uncapped
	Aligned  bool
}

func (o Options) pointer() *schema.Primitive {
	if o.Pointer == nil {
		return DefaultPointer
	}
	return o.Pointer
}

// Info is the computed layout of one type.
type Info struct {
	// FieldOffsets holds one entry per declared field, by declaration
	// index, for records only. Entries are NoOffset where no static
	// offset exists.
	FieldOffsets []int
	Size         int // NoSize when Dynamic
	Align        int
	Dynamic      bool
	Aligned      bool // aligned layout rules were applied
}

// Calculator computes and caches layout for one option set. Record results
// are cached by identity; the calculator is not safe for concurrent use,
// but the Info values it returns are immutable.
type Calculator struct {
	opts  Options
	cache map[*schema.Record]Info
}

func NewCalculator(opts Options) *Calculator {
	return &Calculator{
		opts:  opts,
		cache: make(map[*schema.Record]Info),
	}
}

// AlignTo rounds off up to the next multiple of align.
func AlignTo(off, align int) int {
	if align <= 1 {
		return off
	}
	rem := off % align
	if rem == 0 {
		return off
	}
	return off + align - rem
}

func (c *Calculator) alignOf(natural int) int {
	if c.opts.MaxAlign > 0 && natural > c.opts.MaxAlign {
		return c.opts.MaxAlign
	}
	return natural
}

// Calculate returns the layout of any type graph node.
func (c *Calculator) Calculate(t schema.Type) Info {
	switch typ := t.(type) {
	case *schema.Primitive:
		return Info{Size: typ.Size, Align: c.alignOf(typ.Size)}
	case *schema.Pointer:
		p := c.opts.pointer()
		return Info{Size: p.Size, Align: c.alignOf(p.Size)}
	case *schema.Array:
		return c.calculateArray(typ)
	case *schema.Record:
		return c.Record(typ)
	default:
		return Info{Size: 0, Align: 1}
	}
}

func (c *Calculator) calculateArray(a *schema.Array) Info {
	elem := c.Calculate(a.Elem)
	if a.CountRef != "" || elem.Dynamic {
		return Info{Size: NoSize, Align: elem.Align, Dynamic: true}
	}
	return Info{Size: a.Count * elem.Size, Align: elem.Align}
}

// Record returns the full record layout including per-field offsets.
func (c *Calculator) Record(r *schema.Record) Info {
	if cached, ok := c.cache[r]; ok {
		return cached
	}

	var info Info
	if r.Union {
		info = c.calculateUnion(r)
	} else {
		info = c.calculateStruct(r)
	}

	c.cache[r] = info
	return info
}

func (c *Calculator) calculateStruct(r *schema.Record) Info {
	aligned := c.opts.Aligned && !r.Packed

	offsets := make([]int, len(r.Fields))
	cursor := 0
	align := 1
	dynamic := false

	for i := 0; i < len(r.Fields); {
		f := r.Fields[i]

		if f.IsBitfield() {
			run, next := PackRun(r.Fields, i)
			unitAlign := 1
			if aligned {
				unitAlign = c.alignOf(run.Base.Size)
				if unitAlign > align {
					align = unitAlign
				}
			}
			if dynamic {
				for j := i; j < next; j++ {
					offsets[j] = NoOffset
				}
			} else {
				cursor = AlignTo(cursor, unitAlign)
				offsets[i] = cursor
				for j := i + 1; j < next; j++ {
					offsets[j] = NoOffset
				}
				cursor += run.Base.Size
			}
			i = next
			continue
		}

		fi := c.Calculate(f.Type)
		fieldAlign := 1
		if aligned {
			fieldAlign = fi.Align
			if fieldAlign > align {
				align = fieldAlign
			}
		}

		if dynamic {
			offsets[i] = NoOffset
			i++
			continue
		}

		cursor = AlignTo(cursor, fieldAlign)
		offsets[i] = cursor

		if fi.Dynamic {
			// The dynamic field itself still starts at a known offset;
			// everything after it does not.
			dynamic = true
		} else {
			cursor += fi.Size
		}
		i++
	}

	size := NoSize
	if !dynamic {
		size = AlignTo(cursor, align)
	}

	return Info{
		FieldOffsets: offsets,
		Size:         size,
		Align:        align,
		Dynamic:      dynamic,
		Aligned:      aligned,
	}
}

func (c *Calculator) calculateUnion(r *schema.Record) Info {
	aligned := c.opts.Aligned && !r.Packed

	offsets := make([]int, len(r.Fields))
	align := 1
	maxSize := 0
	dynamic := false

	for i, f := range r.Fields {
		offsets[i] = 0

		var fi Info
		if f.IsBitfield() {
			// Each union member starts its own storage unit at offset 0.
			fi = Info{Size: f.Base().Size, Align: c.alignOf(f.Base().Size)}
		} else {
			fi = c.Calculate(f.Type)
		}

		if aligned && fi.Align > align {
			align = fi.Align
		}
		if fi.Dynamic {
			dynamic = true
			continue
		}
		if fi.Size > maxSize {
			maxSize = fi.Size
		}
	}

	size := NoSize
	if !dynamic {
		size = AlignTo(maxSize, align)
	}

	return Info{
		FieldOffsets: offsets,
		Size:         size,
		Align:        align,
		Dynamic:      dynamic,
		Aligned:      aligned,
	}
}
