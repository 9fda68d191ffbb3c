package diagfmt

import (
	"fmt"
	"io"
	"path/filepath"
	"strings"

	"github.com/fatih/color"
	"github.com/mattn/go-runewidth"

	"zen/internal/diag"
	"zen/internal/source"
)

var (
	errColor  = color.New(color.FgRed, color.Bold)
	warnColor = color.New(color.FgYellow, color.Bold)
	infoColor = color.New(color.FgCyan, color.Bold)
	noteColor = color.New(color.FgBlue)
	caretLine = color.New(color.FgGreen)
)

// Pretty форматирует диагностики в человекочитаемый вид.
// Идёт по bag.Items() (ожидается bag.Sort() заранее).
// Для каждого diag печатает:
// <path>:<line>:<col>: <SEV> <CODE>: <Message>
// затем контекст строки с подчёркиванием ^~~~ по Span, затем Notes.
func Pretty(w io.Writer, bag *diag.Bag, fs *source.FileSet, opts PrettyOpts) {
	for _, d := range bag.Items() {
		printOne(w, d, fs, opts)
	}
}

func printOne(w io.Writer, d diag.Diagnostic, fs *source.FileSet, opts PrettyOpts) {
	loc := formatLoc(fs, d.Primary, opts.PathMode)
	sev := severityText(d.Severity, opts.Color)
	fmt.Fprintf(w, "%s: %s %s: %s\n", loc, sev, d.Code, d.Message)

	printContext(w, fs, d.Primary, opts)

	if !opts.ShowNotes {
		return
	}
	for _, n := range d.Notes {
		label := "note"
		if opts.Color {
			label = noteColor.Sprint(label)
		}
		fmt.Fprintf(w, "  %s: %s: %s\n", formatLoc(fs, n.Span, opts.PathMode), label, n.Msg)
		printContext(w, fs, n.Span, opts)
	}
}

// printContext shows the offending source line with a caret underline.
// Spans without a file (synthetic trees) render nothing.
func printContext(w io.Writer, fs *source.FileSet, sp source.Span, opts PrettyOpts) {
	if fs == nil || sp.Empty() || int(sp.File) >= fs.Len() {
		return
	}
	start, end := fs.Resolve(sp)
	line := fs.Get(sp.File).GetLine(start.Line)
	if line == "" {
		return
	}
	if opts.Width > 0 && runewidth.StringWidth(line) > opts.Width {
		line = runewidth.Truncate(line, opts.Width, "…")
	}

	fmt.Fprintf(w, "  %s\n", line)

	// Ширина подчёркивания измеряется в экранных колонках, не байтах.
	colStart := int(start.Col) - 1
	if colStart > len(line) {
		colStart = len(line)
	}
	prefix := runewidth.StringWidth(line[:colStart])
	width := 1
	if end.Line == start.Line && end.Col > start.Col {
		colEnd := int(end.Col) - 1
		if colEnd > len(line) {
			colEnd = len(line)
		}
		width = runewidth.StringWidth(line[colStart:colEnd])
		if width < 1 {
			width = 1
		}
	}
	marker := "^" + strings.Repeat("~", width-1)
	if opts.Color {
		marker = caretLine.Sprint(marker)
	}
	fmt.Fprintf(w, "  %s%s\n", strings.Repeat(" ", prefix), marker)
}

func formatLoc(fs *source.FileSet, sp source.Span, mode PathMode) string {
	if fs == nil || int(sp.File) >= fs.Len() {
		return "<unknown>"
	}
	path := fs.Get(sp.File).Path
	if mode == PathModeBasename {
		path = filepath.Base(path)
	}
	start, _ := fs.Resolve(sp)
	return fmt.Sprintf("%s:%d:%d", path, start.Line, start.Col)
}

func severityText(s diag.Severity, colored bool) string {
	if !colored {
		return s.String()
	}
	switch s {
	case diag.SevError:
		return errColor.Sprint(s.String())
	case diag.SevWarning:
		return warnColor.Sprint(s.String())
	default:
		return infoColor.Sprint(s.String())
	}
}
