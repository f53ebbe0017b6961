// Package output renders analysis results for the CLI: a human summary on a
// terminal, plain text when piped, JSON on request.
package output

import (
	"encoding/json"
	"fmt"
	"io"
	"os"

	"github.com/fatih/color"
	"golang.org/x/term"

	systree "github.com/systree/systree-go"
)

// Format selects how results are rendered.
type Format int

const (
	FormatText Format = iota // human summary, colored on a TTY
	FormatJSON               // machine-readable
)

// Formatter writes results to w.
type Formatter struct {
	w      io.Writer
	format Format
	color  bool
}

// NewFormatter builds a formatter. Color is enabled only for text output on
// an interactive terminal.
func NewFormatter(w io.Writer, format Format) *Formatter {
	useColor := false
	if format == FormatText {
		if f, ok := w.(*os.File); ok {
			useColor = term.IsTerminal(int(f.Fd()))
		}
	}
	return &Formatter{w: w, format: format, color: useColor}
}

// Analysis renders an AnalysisResult.
func (f *Formatter) Analysis(res *systree.AnalysisResult) error {
	if f.format == FormatJSON {
		return f.writeJSON(res)
	}

	check := "✓"
	if res.ErrorCount > 0 {
		check = "✗"
	}
	if f.color {
		if res.ErrorCount > 0 {
			check = color.RedString(check)
		} else {
			check = color.GreenString(check)
		}
	}
	fmt.Fprintf(f.w, "%s Analyzed %d %s: %d %s, %d %s\n",
		check,
		res.FileCount, plural(res.FileCount, "file"),
		res.SymbolCount, plural(res.SymbolCount, "symbol"),
		res.WarningCount, plural(res.WarningCount, "warning"))

	for _, d := range res.Diagnostics {
		f.diagnostic(d)
	}
	return nil
}

// Symbols renders a symbol listing grouped by file.
func (f *Formatter) Symbols(files []systree.FileSymbols) error {
	if f.format == FormatJSON {
		return f.writeJSON(files)
	}

	for _, file := range files {
		fmt.Fprintf(f.w, "%s (%d %s)\n",
			file.Path, len(file.Symbols), plural(len(file.Symbols), "symbol"))
		for _, sym := range file.Symbols {
			loc := ""
			if sym.StartLine > 0 {
				loc = fmt.Sprintf(" [%d:%d]", sym.StartLine, sym.StartCol)
			}
			fmt.Fprintf(f.w, "  %-14s %s%s\n", sym.Kind, sym.QualifiedName, loc)
		}
	}
	return nil
}

func (f *Formatter) diagnostic(d systree.Diagnostic) {
	severity := d.Severity
	if f.color {
		switch d.Severity {
		case "error":
			severity = color.RedString(d.Severity)
		case "warning":
			severity = color.YellowString(d.Severity)
		}
	}
	if d.File != "" && d.Line > 0 {
		fmt.Fprintf(f.w, "  %s: %s:%d:%d: %s\n", severity, d.File, d.Line, d.Column, d.Message)
		return
	}
	fmt.Fprintf(f.w, "  %s: %s\n", severity, d.Message)
}

func (f *Formatter) writeJSON(v any) error {
	enc := json.NewEncoder(f.w)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

func plural(n int, word string) string {
	if n == 1 {
		return word
	}
	return word + "s"
}
