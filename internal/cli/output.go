package cli

import (
	"fmt"
	"io"
	"os"

	"github.com/fatih/color"
	"github.com/goccy/go-json"
	"github.com/olekukonko/tablewriter"
	"github.com/olekukonko/tablewriter/tw"
)

// ColorMode picks when the printer colours its output
type ColorMode string

const (
	ColorAuto   ColorMode = "auto"
	ColorAlways ColorMode = "always"
	ColorNever  ColorMode = "never"
)

// ParseColorMode accepts auto, always or never
func ParseColorMode(s string) (ColorMode, error) {
	switch m := ColorMode(s); m {
	case ColorAuto, ColorAlways, ColorNever:
		return m, nil
	}
	return ColorAuto, fmt.Errorf("invalid color mode %q: must be auto, always or never", s)
}

// resolveColors honours NO_COLOR and dumb terminals in auto mode
func resolveColors(m ColorMode) bool {
	switch m {
	case ColorAlways:
		return true
	case ColorNever:
		return false
	}
	if _, ok := os.LookupEnv("NO_COLOR"); ok {
		return false
	}
	return os.Getenv("TERM") != "dumb" && !color.NoColor
}

// Printer writes command results as tables or JSON
type Printer struct {
	out    io.Writer
	err    io.Writer
	colors bool
	json   bool
}

func newPrinter(out, errw io.Writer, mode ColorMode, asJSON bool) *Printer {
	return &Printer{out: out, err: errw, colors: resolveColors(mode), json: asJSON}
}

// JSON reports whether results go out as JSON
func (p *Printer) JSON() bool { return p.json }

// Encode writes v as indented JSON
func (p *Printer) Encode(v any) error {
	b, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return err
	}
	_, err = fmt.Fprintf(p.out, "%s\n", b)
	return err
}

// Header prints a bold section title
func (p *Printer) Header(format string, args ...any) {
	if p.colors {
		color.New(color.Bold).Fprintf(p.out, format+"\n", args...)
		return
	}
	fmt.Fprintf(p.out, format+"\n", args...)
}

// Success prints a confirmation line
func (p *Printer) Success(format string, args ...any) {
	if p.colors {
		color.New(color.FgGreen).Fprintf(p.out, "✓ "+format+"\n", args...)
		return
	}
	fmt.Fprintf(p.out, "[OK] "+format+"\n", args...)
}

// Warning prints to the error stream
func (p *Printer) Warning(format string, args ...any) {
	if p.colors {
		color.New(color.FgYellow).Fprintf(p.err, "⚠ "+format+"\n", args...)
		return
	}
	fmt.Fprintf(p.err, "[WARN] "+format+"\n", args...)
}

// Hot highlights a value that crossed a threshold
func (p *Printer) Hot(s string) string {
	if p.colors {
		return color.New(color.FgRed, color.Bold).Sprint(s)
	}
	return s
}

// Dim greys out secondary values
func (p *Printer) Dim(s string) string {
	if p.colors {
		return color.New(color.Faint).Sprint(s)
	}
	return s
}

// Table renders rows under header without borders
func (p *Printer) Table(header []string, rows [][]string) error {
	t := tablewriter.NewTable(p.out,
		tablewriter.WithConfig(tablewriter.Config{
			Row: tw.CellConfig{
				Formatting: tw.CellFormatting{AutoWrap: tw.WrapNone},
				Alignment:  tw.CellAlignment{Global: tw.AlignLeft},
			},
			Header: tw.CellConfig{
				Formatting: tw.CellFormatting{AutoFormat: tw.On},
				Alignment:  tw.CellAlignment{Global: tw.AlignLeft},
			},
		}),
		tablewriter.WithRendition(tw.Rendition{
			Borders: tw.BorderNone,
			Settings: tw.Settings{
				Separators: tw.Separators{ShowHeader: tw.Off},
			},
		}),
	)
	t.Header(header)
	if err := t.Bulk(rows); err != nil {
		return err
	}
	return t.Render()
}
