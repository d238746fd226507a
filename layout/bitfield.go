package layout

import (
	"github.com/bindat/cstruct/schema"
)

// Run is the group of consecutive bitfields backed by one storage unit.
// Members occupy bits starting at bit 0 of the unit, in declaration order;
// leftover high bits are unused.
type Run struct {
	Base    *schema.Primitive
	Members []*schema.Field
}

// Capacity returns the unit's capacity in bits.
func (r Run) Capacity() int { return 8 * r.Base.Size }

// Bits returns the total declared width of the run's members.
func (r Run) Bits() int {
	total := 0
	for _, f := range r.Members {
		total += f.Bits
	}
	return total
}

// PackRun groups the bitfields of one storage unit, starting at fields[i]
// which must be a bitfield. Members are appended in declaration order until
// the next field is not a bitfield, has a different base type, or would
// exceed the unit's capacity. Returns the run and the index of the first
// field after it.
//
// Primitive types are shared instances, so base identity is pointer
// identity.
func PackRun(fields []*schema.Field, i int) (Run, int) {
	base := fields[i].Base()
	capacity := 8 * base.Size

	bits := 0
	j := i
	for ; j < len(fields); j++ {
		f := fields[j]
		if !f.IsBitfield() || f.Base() != base {
			break
		}
		if bits+f.Bits > capacity {
			break
		}
		bits += f.Bits
	}

	return Run{Base: base, Members: fields[i:j]}, j
}
