package diag

import (
	"fmt"
	"strings"

	"github.com/fatih/color"

	"sable/internal/ast"
	"sable/internal/borrow"
)

// Level represents the severity of a diagnostic
type Level string

const (
	Error   Level = "error"
	Warning Level = "warning"
	Note    Level = "note"
)

// Entry is a structured diagnostic ready for rendering
type Entry struct {
	Level    Level
	Code     string       // Error code like E0100
	Message  string       // Primary message
	Function string       // Enclosing function name
	Position ast.Position // Location in source
	Length   int          // Length of the problematic region
	Notes    []SpanNote   // Secondary locations with context
	HelpText string       // Help text for the diagnostic
}

// SpanNote points at an earlier location the diagnostic blames
type SpanNote struct {
	Position ast.Position
	Message  string
}

// FromBorrow converts a borrow-check failure into a renderable entry.
func FromBorrow(d *borrow.Diagnostic) Entry {
	e := Entry{
		Level:    Error,
		Message:  d.Msg,
		Function: d.Fn,
		Position: d.Span.Start,
		Length:   spanLength(d.Span),
	}
	switch d.Kind {
	case borrow.UseAfterMove:
		e.Code = ErrorUseAfterMove
		e.HelpText = "a value can only be used while it still owns its contents"
	case borrow.BorrowConflict:
		e.Code = ErrorBorrowConflict
		e.HelpText = "end the earlier borrow before this access, or reorder the uses"
	case borrow.DanglingReference:
		e.Code = ErrorDanglingReference
		e.HelpText = "the reference must not outlive the value it points at"
	}
	for _, rel := range d.Related {
		e.Notes = append(e.Notes, SpanNote{Position: rel.Span.Start, Message: rel.Note})
	}
	return e
}

func spanLength(sp ast.Span) int {
	if sp.End.Line == sp.Start.Line && sp.End.Column > sp.Start.Column {
		return sp.End.Column - sp.Start.Column
	}
	return 1
}

// Reporter handles consistent diagnostic formatting for one source file
type Reporter struct {
	filename string
	lines    []string
}

// NewReporter creates a reporter for a file
func NewReporter(filename, source string) *Reporter {
	return &Reporter{
		filename: filename,
		lines:    strings.Split(source, "\n"),
	}
}

// Format renders a diagnostic with Rust-like styling
func (r *Reporter) Format(e Entry) string {
	var result strings.Builder

	levelColor := r.getLevelColor(e.Level)
	bold := color.New(color.Bold).SprintFunc()
	dim := color.New(color.Faint).SprintFunc()

	// Header: error[E0100]: message
	if e.Code != "" {
		result.WriteString(fmt.Sprintf("%s[%s]: %s\n",
			levelColor(string(e.Level)), e.Code, e.Message))
	} else {
		result.WriteString(fmt.Sprintf("%s: %s\n",
			levelColor(string(e.Level)), e.Message))
	}

	// Location line: --> filename:line:column
	lineNumberWidth := r.getLineNumberWidth(e.Position.Line)
	indent := strings.Repeat(" ", lineNumberWidth)

	result.WriteString(fmt.Sprintf("%s %s %s:%d:%d\n",
		indent, dim("-->"), r.filename, e.Position.Line, e.Position.Column))

	if e.Function != "" {
		result.WriteString(fmt.Sprintf("%s %s in function `%s`\n",
			indent, dim("│"), e.Function))
	}

	// Main error line with marker
	if e.Position.Line <= len(r.lines) && e.Position.Line > 0 {
		result.WriteString(fmt.Sprintf("%s %s\n", indent, dim("│")))
		result.WriteString(fmt.Sprintf("%s %s %s\n",
			bold(fmt.Sprintf("%*d", lineNumberWidth, e.Position.Line)),
			dim("│"),
			r.lines[e.Position.Line-1]))
		result.WriteString(fmt.Sprintf("%s %s %s\n",
			indent, dim("│"), r.createMarker(e.Position.Column, e.Length, e.Level)))
	}

	// Secondary locations
	noteColor := color.New(color.FgBlue).SprintFunc()
	for _, note := range e.Notes {
		if note.Position.Line > 0 && note.Position.Line <= len(r.lines) {
			result.WriteString(fmt.Sprintf("%s %s %s %s\n",
				indent, dim("│"), noteColor("note:"),
				fmt.Sprintf("%s (%s:%d:%d)", note.Message, r.filename, note.Position.Line, note.Position.Column)))
			result.WriteString(fmt.Sprintf("%s %s %s\n",
				dim(fmt.Sprintf("%*d", lineNumberWidth, note.Position.Line)),
				dim("│"),
				r.lines[note.Position.Line-1]))
		} else {
			result.WriteString(fmt.Sprintf("%s %s %s %s\n",
				indent, dim("│"), noteColor("note:"), note.Message))
		}
	}

	// Help text
	if e.HelpText != "" {
		helpColor := color.New(color.FgGreen).SprintFunc()
		result.WriteString(fmt.Sprintf("%s %s %s %s\n",
			indent, dim("│"), helpColor("help:"), e.HelpText))
	}

	result.WriteString("\n")
	return result.String()
}

// getLevelColor returns the color function for a severity level
func (r *Reporter) getLevelColor(level Level) func(...interface{}) string {
	switch level {
	case Warning:
		return color.New(color.FgYellow, color.Bold).SprintFunc()
	case Note:
		return color.New(color.FgBlue, color.Bold).SprintFunc()
	default:
		return color.New(color.FgRed, color.Bold).SprintFunc()
	}
}

// createMarker creates the underline marker for a diagnostic
func (r *Reporter) createMarker(column, length int, level Level) string {
	if length <= 0 {
		length = 1
	}
	spaces := strings.Repeat(" ", maxInt(0, column-1))
	markerColor := r.getLevelColor(level)
	return spaces + markerColor(strings.Repeat("^", length))
}

// getLineNumberWidth calculates the width needed for line numbers
func (r *Reporter) getLineNumberWidth(line int) int {
	width := len(fmt.Sprintf("%d", line))
	if width < 3 {
		width = 3 // minimum width for visual alignment
	}
	return width
}

func maxInt(a, b int) int {
	if a > b {
		return a
	}
	return b
}
