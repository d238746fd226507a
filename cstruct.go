package cstruct

import (
	"bytes"
	"encoding/binary"
	"io"
	"sort"
	"sync"

	"go.uber.org/zap"

	"github.com/bindat/cstruct/codec"
	"github.com/bindat/cstruct/errors"
	"github.com/bindat/cstruct/layout"
	"github.com/bindat/cstruct/schema"
)

// Config holds the registry-wide knobs consumed at registration time. The
// zero value means packed layout, little-endian, an 8-byte pointer, no
// alignment cap, and compiled codecs enabled.
type Config struct {
	// Order is the byte order for the registry's builtin primitives and,
	// when Pointer is nil, the default pointer primitive. Nil means
	// little-endian.
	Order binary.ByteOrder

	// Pointer is the primitive used for every pointer field's width and
	// byte order. Nil means uint64 in the registry's byte order.
	Pointer *schema.Primitive

	// MaxAlign caps every field's effective alignment. 0 means uncapped.
	MaxAlign int

	// Align enables natural-alignment layout. The default is packed.
	Align bool

	// NoCompile disables the compiled codec entirely; every registered
	// record decodes through the interpreted codec.
	NoCompile bool
}

// Registry holds registered record types sharing one configuration.
// Registration produces immutable metadata; the returned RecordType handles
// are safe for concurrent Decode and Encode.
type Registry struct {
	cfg      Config
	opts     codec.Options
	builtins map[string]*schema.Primitive

	mu    sync.RWMutex
	types map[string]*RecordType
}

// New builds a registry from the configuration.
func New(cfg Config) *Registry {
	if cfg.Pointer == nil {
		cfg.Pointer = &schema.Primitive{Name: "uint64", Size: 8, Order: cfg.Order}
	}
	return &Registry{
		cfg: cfg,
		opts: codec.Options{
			Pointer:  cfg.Pointer,
			MaxAlign: cfg.MaxAlign,
			Aligned:  cfg.Align,
		},
		builtins: schema.Builtin(cfg.Order),
		types:    make(map[string]*RecordType),
	}
}

// Primitive returns the registry's builtin primitive with the given name
// (int8 through uint64), in the registry's byte order.
func (r *Registry) Primitive(name string) (*schema.Primitive, bool) {
	p, ok := r.builtins[name]
	return p, ok
}

// Register validates the record, computes its layout, and constructs its
// codec. The compiled codec is attempted first unless disabled; shapes it
// does not support fall back to the interpreted codec.
func (r *Registry) Register(rec *schema.Record) (*RecordType, error) {
	if rec == nil || rec.Name == "" {
		return nil, errors.InvalidData(errors.PhaseRegister, nil, "record must have a name")
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	if _, ok := r.types[rec.Name]; ok {
		return nil, errors.Duplicate(rec.Name)
	}
	if err := layout.Validate(rec); err != nil {
		return nil, err
	}

	calc := layout.NewCalculator(layout.Options{
		Pointer:  r.opts.Pointer,
		MaxAlign: r.opts.MaxAlign,
		Aligned:  r.opts.Aligned,
	})
	info := calc.Record(rec)

	var c codec.Codec = codec.NewInterpreted(rec, r.opts)
	if !r.cfg.NoCompile {
		compiled, err := codec.Compile(rec, r.opts)
		switch {
		case err == nil:
			c = compiled
		case errors.Is(err, errors.PhaseCompile, errors.KindUnsupported):
			Logger().Debug("compiled codec fallback",
				zap.String("type", rec.Name),
				zap.Error(err))
		default:
			return nil, err
		}
	}

	t := &RecordType{rec: rec, info: info, codec: c}
	r.types[rec.Name] = t

	Logger().Debug("registered record type",
		zap.String("type", rec.Name),
		zap.Int("align", info.Align),
		zap.Bool("dynamic", info.Dynamic),
		zap.Bool("compiled", c.Compiled()))
	return t, nil
}

// Lookup returns a previously registered record type by name.
func (r *Registry) Lookup(name string) (*RecordType, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	t, ok := r.types[name]
	return t, ok
}

// Names returns the registered type names in sorted order.
func (r *Registry) Names() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()
	names := make([]string, 0, len(r.types))
	for name := range r.types {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// RecordType is the handle for one registered record: layout introspection
// plus decode and encode entry points. Immutable after registration.
type RecordType struct {
	rec   *schema.Record
	info  layout.Info
	codec codec.Codec
}

// Name returns the record's registered name.
func (t *RecordType) Name() string { return t.rec.Name }

// Record returns the underlying type graph node.
func (t *RecordType) Record() *schema.Record { return t.rec }

// Size returns the record's total byte size. The second result is false
// when the size depends on decoded data.
func (t *RecordType) Size() (int, bool) {
	if t.info.Size == layout.NoSize {
		return 0, false
	}
	return t.info.Size, true
}

// Alignment returns the record's alignment. Packed records align to 1.
func (t *RecordType) Alignment() int { return t.info.Align }

// Aligned reports whether natural-alignment layout rules apply to this
// record.
func (t *RecordType) Aligned() bool { return t.info.Aligned }

// Dynamic reports whether the record's size depends on decoded data.
func (t *RecordType) Dynamic() bool { return t.info.Dynamic }

// Compiled reports whether this record decodes through the compiled codec.
func (t *RecordType) Compiled() bool { return t.codec.Compiled() }

// Offset returns the named field's byte offset from the record start. The
// second result is false for unknown fields and for fields with no static
// offset (past a dynamic field, or bitfields continuing a storage unit).
func (t *RecordType) Offset(field string) (int, bool) {
	f := t.rec.Field(field)
	if f == nil || f.Index >= len(t.info.FieldOffsets) {
		return 0, false
	}
	off := t.info.FieldOffsets[f.Index]
	if off == layout.NoOffset {
		return 0, false
	}
	return off, true
}

// Decode reads one instance from the source. Sources implementing
// io.ReadSeeker additionally support pointer dereference and dynamic union
// members.
func (t *RecordType) Decode(src io.Reader) (*codec.Instance, error) {
	return t.codec.Decode(src)
}

// DecodeBytes decodes one instance from an in-memory buffer. The buffer is
// seekable, so pointers decoded from it can be dereferenced.
func (t *RecordType) DecodeBytes(b []byte) (*codec.Instance, error) {
	return t.codec.Decode(bytes.NewReader(b))
}

// Encode serializes the instance to a contiguous buffer, padding included.
func (t *RecordType) Encode(inst *codec.Instance) ([]byte, error) {
	return t.codec.Encode(inst)
}

// NewInstance returns an empty instance of this record for encoding.
func (t *RecordType) NewInstance() *codec.Instance {
	return codec.NewInstance(t.rec)
}
