package main

import (
	"encoding/binary"
	"encoding/json"
	"fmt"
	"os"
	"strings"

	"github.com/charmbracelet/lipgloss"
	"github.com/fxamacker/cbor/v2"
	"github.com/spf13/pflag"
	"go.uber.org/zap"

	"github.com/bindat/cstruct"
)

func main() {
	var (
		schemaPath  = pflag.StringP("schema", "s", "", "Path to YAML type definitions")
		dataPath    = pflag.StringP("data", "d", "", "Binary file to decode")
		typeName    = pflag.StringP("type", "t", "", "Type to decode (default: last defined)")
		format      = pflag.StringP("format", "f", "json", "Decoded output format: json or cbor")
		outPath     = pflag.StringP("out", "o", "", "Write decoded output to file instead of stdout")
		align       = pflag.Bool("align", false, "Natural-alignment layout instead of packed")
		bigEndian   = pflag.Bool("big-endian", false, "Big-endian byte order")
		pointerType = pflag.String("pointer", "uint64", "Pointer primitive (uint16, uint32, uint64)")
		maxAlign    = pflag.Int("max-align", 0, "Cap field alignment (0 = uncapped)")
		noCompile   = pflag.Bool("no-compile", false, "Disable the compiled codec")
		verbose     = pflag.BoolP("verbose", "v", false, "Log registration and codec selection")
		interactive = pflag.BoolP("interactive", "i", false, "Interactive TUI browser")
	)
	pflag.Parse()

	if *schemaPath == "" {
		fmt.Fprintln(os.Stderr, "Usage: inspect -s <types.yaml>                 (show layouts)")
		fmt.Fprintln(os.Stderr, "       inspect -s <types.yaml> -d <file.bin> -t <type>")
		fmt.Fprintln(os.Stderr, "       inspect -s <types.yaml> -d <file.bin> -i")
		os.Exit(1)
	}

	if *verbose {
		logger, err := zap.NewDevelopment()
		if err != nil {
			fmt.Fprintf(os.Stderr, "Error: %v\n", err)
			os.Exit(1)
		}
		defer logger.Sync()
		cstruct.SetLogger(logger)
	}

	cfg := cstruct.Config{
		Align:     *align,
		MaxAlign:  *maxAlign,
		NoCompile: *noCompile,
	}
	if *bigEndian {
		cfg.Order = binary.BigEndian
	}
	reg := cstruct.New(cfg)
	if p, ok := reg.Primitive(*pointerType); ok {
		cfg.Pointer = p
		reg = cstruct.New(cfg)
	} else {
		fmt.Fprintf(os.Stderr, "Error: unknown pointer primitive %q\n", *pointerType)
		os.Exit(1)
	}

	types, err := loadSchema(*schemaPath, reg)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
	if len(types) == 0 {
		fmt.Fprintln(os.Stderr, "Error: schema defines no types")
		os.Exit(1)
	}

	if *interactive {
		if err := runInteractive(reg, *dataPath); err != nil {
			fmt.Fprintf(os.Stderr, "Error: %v\n", err)
			os.Exit(1)
		}
		return
	}

	if err := run(reg, types, *dataPath, *typeName, *format, *outPath); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

func run(reg *cstruct.Registry, types []*cstruct.RecordType, dataPath, typeName, format, outPath string) error {
	// Layout tables for every defined type.
	for _, t := range types {
		fmt.Println(renderLayout(t))
		fmt.Println()
	}

	if dataPath == "" {
		return nil
	}

	target := types[len(types)-1]
	if typeName != "" {
		t, ok := reg.Lookup(typeName)
		if !ok {
			return fmt.Errorf("unknown type %q", typeName)
		}
		target = t
	}

	data, err := os.ReadFile(dataPath)
	if err != nil {
		return fmt.Errorf("read data: %w", err)
	}

	inst, err := target.DecodeBytes(data)
	if err != nil {
		return fmt.Errorf("decode %s: %w", target.Name(), err)
	}

	var out []byte
	switch format {
	case "json":
		out, err = json.MarshalIndent(inst.Map(), "", "  ")
		if err == nil {
			out = append(out, '\n')
		}
	case "cbor":
		out, err = cbor.Marshal(inst.Map())
	default:
		return fmt.Errorf("unknown format %q", format)
	}
	if err != nil {
		return fmt.Errorf("marshal: %w", err)
	}

	if outPath != "" {
		return os.WriteFile(outPath, out, 0o644)
	}
	_, err = os.Stdout.Write(out)
	return err
}

var (
	headerStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(lipgloss.Color("#FAFAFA")).
			Background(lipgloss.Color("#7D56F4")).
			Padding(0, 1)

	nameStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#98FB98"))

	typeStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#87CEEB"))

	dimStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#666666"))
)

// renderLayout formats one record's layout as a table: per-field offset,
// type, and bit width, then the record totals.
func renderLayout(t *cstruct.RecordType) string {
	var b strings.Builder

	kind := "struct"
	if t.Record().Union {
		kind = "union"
	}
	b.WriteString(headerStyle.Render(kind + " " + t.Name()))
	b.WriteString("\n")

	for _, f := range t.Record().Fields {
		off := dimStyle.Render("  ----")
		if o, ok := t.Offset(f.Name); ok {
			off = fmt.Sprintf("0x%04x", o)
		}
		line := fmt.Sprintf("  %s  %-16s %s", off, nameStyle.Render(f.Name), typeStyle.Render(f.Type.String()))
		if f.IsBitfield() {
			line += dimStyle.Render(fmt.Sprintf(" : %d", f.Bits))
		}
		b.WriteString(line)
		b.WriteString("\n")
	}

	size := "dynamic"
	if n, ok := t.Size(); ok {
		size = fmt.Sprintf("%d bytes", n)
	}
	mode := "packed"
	if t.Aligned() {
		mode = "aligned"
	}
	strategy := "interpreted"
	if t.Compiled() {
		strategy = "compiled"
	}
	b.WriteString(dimStyle.Render(fmt.Sprintf("  size %s, align %d, %s, %s codec",
		size, t.Alignment(), mode, strategy)))
	return b.String()
}
