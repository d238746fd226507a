package codec

import (
	"io"

	"github.com/bindat/cstruct/schema"
)

// Options configure codec behavior. They are the layout options: byte
// placement during decode/encode must agree exactly with the computed
// layout.
type Options struct {
	Pointer  *schema.Primitive
	MaxAlign int
	Aligned  bool
}

// Codec decodes and encodes one record type. Implementations are immutable
// after construction and safe for concurrent use.
type Codec interface {
	// Decode reads one record instance from the source, consuming exactly
	// the record's extent including padding.
	Decode(src io.Reader) (*Instance, error)

	// Encode serializes the instance to a contiguous buffer, writing
	// padding as zero bytes.
	Encode(inst *Instance) ([]byte, error)

	// Compiled reports whether this codec is the specialized compiled
	// strategy rather than the generic interpreted one.
	Compiled() bool
}

// Instance is one decoded (or to-be-encoded) record value: a field-to-value
// mapping plus the record metadata needed to re-encode. Instances are owned
// by a single caller and are not safe for concurrent mutation.
type Instance struct {
	record   *schema.Record
	values   map[string]any
	compiled bool
}

// NewInstance returns an empty instance for the record, ready for Set and
// Encode.
func NewInstance(rec *schema.Record) *Instance {
	return &Instance{
		record: rec,
		values: make(map[string]any, len(rec.Fields)),
	}
}

// Record returns the record type this instance belongs to.
func (in *Instance) Record() *schema.Record { return in.record }

// Get returns the value decoded or set for the named field, or nil.
func (in *Instance) Get(name string) any { return in.values[name] }

// Set stores a field value. Unknown names are tolerated here and rejected
// at encode time.
func (in *Instance) Set(name string, v any) { in.values[name] = v }

// Compiled reports whether this instance was produced by the compiled
// codec.
func (in *Instance) Compiled() bool { return in.compiled }

// Map returns a plain nested map rendering of the instance, in no
// particular field order. Nested instances become maps, pointers become
// their raw address values.
func (in *Instance) Map() map[string]any {
	out := make(map[string]any, len(in.values))
	for k, v := range in.values {
		out[k] = plainValue(v)
	}
	return out
}

func plainValue(v any) any {
	switch t := v.(type) {
	case *Instance:
		return t.Map()
	case *Pointer:
		return t.Addr
	case []any:
		out := make([]any, len(t))
		for i, e := range t {
			out[i] = plainValue(e)
		}
		return out
	default:
		return v
	}
}
