package codec

import (
	"github.com/bindat/cstruct/layout"
	"github.com/bindat/cstruct/schema"
)

func (o Options) layoutOptions() layout.Options {
	return layout.Options{
		Pointer:  o.Pointer,
		MaxAlign: o.MaxAlign,
		Aligned:  o.Aligned,
	}
}

func (o Options) pointer() *schema.Primitive {
	if o.Pointer == nil {
		return layout.DefaultPointer
	}
	return o.Pointer
}

func (o Options) aligned(r *schema.Record) bool {
	return o.Aligned && !r.Packed
}

// getUint reads a primitive-width unsigned integer from buf using the
// primitive's byte order. Primitive sizes are validated at registration to
// be 1, 2, 4, or 8.
func getUint(p *schema.Primitive, buf []byte) uint64 {
	order := p.ByteOrder()
	switch p.Size {
	case 1:
		return uint64(buf[0])
	case 2:
		return uint64(order.Uint16(buf))
	case 4:
		return uint64(order.Uint32(buf))
	default:
		return order.Uint64(buf)
	}
}

// putUint writes a primitive-width unsigned integer into buf using the
// primitive's byte order.
func putUint(p *schema.Primitive, buf []byte, u uint64) {
	order := p.ByteOrder()
	switch p.Size {
	case 1:
		buf[0] = byte(u)
	case 2:
		order.PutUint16(buf, uint16(u))
	case 4:
		order.PutUint32(buf, uint32(u))
	default:
		order.PutUint64(buf, u)
	}
}

// signExtend interprets the low `bits` bits of u as a two's complement
// value of that width.
func signExtend(u uint64, bits int) int64 {
	shift := 64 - bits
	return int64(u<<shift) >> shift
}

// primValue converts raw bits into the value representation for a
// primitive: int64 for signed types, uint64 for unsigned.
func primValue(p *schema.Primitive, u uint64) any {
	if p.Signed {
		return signExtend(u, 8*p.Size)
	}
	return u
}

// bitValue converts the extracted bits of one bitfield member into its
// value representation, sign-extending signed members from their declared
// width.
func bitValue(base *schema.Primitive, u uint64, bits int) any {
	if base.Signed {
		return signExtend(u, bits)
	}
	return u
}

// valueBits converts a supplied integer value of any Go integer type into
// its raw bit pattern. Reports false for non-integer values.
func valueBits(v any) (uint64, bool) {
	switch t := v.(type) {
	case uint64:
		return t, true
	case int64:
		return uint64(t), true
	case int:
		return uint64(t), true
	case uint:
		return uint64(t), true
	case int8:
		return uint64(t), true
	case int16:
		return uint64(t), true
	case int32:
		return uint64(t), true
	case uint8:
		return uint64(t), true
	case uint16:
		return uint64(t), true
	case uint32:
		return uint64(t), true
	default:
		return 0, false
	}
}

// asCount converts a decoded or supplied length value to an element count.
func asCount(v any) (int, bool) {
	u, ok := valueBits(v)
	if !ok {
		return 0, false
	}
	n := int(u)
	if n < 0 {
		return 0, false
	}
	return n, true
}
