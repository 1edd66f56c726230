// Package diag implements the diagnostic sink shared by the scanner,
// parser, and arithmetic evaluator (spec.md §6, §7).
package diag

import (
	"fmt"
	"strings"

	"github.com/berrym/lusush/internal/token"
)

// Severity classifies a Diagnostic per spec.md §6.
type Severity int

const (
	Info Severity = iota
	Warning
	Error
	Fatal
)

func (s Severity) String() string {
	switch s {
	case Info:
		return "info"
	case Warning:
		return "warning"
	case Error:
		return "error"
	case Fatal:
		return "fatal"
	default:
		return "unknown"
	}
}

// Kind names the error taxonomy of spec.md §7. It is informational only;
// callers branch on it to decide recovery strategy, never on a type switch.
type Kind string

const (
	Lex              Kind = "LEX"
	Syntax           Kind = "SYNTAX"
	RecursionLimit   Kind = "RECURSION_LIMIT"
	Resource         Kind = "RESOURCE"
	ReadonlyViolation Kind = "READONLY_VIOLATION"
	Arith            Kind = "ARITH"
	Cancelled        Kind = "CANCELLED"
	Internal         Kind = "INTERNAL"
)

// Diagnostic is one entry in the output surface described by spec.md §6(b).
type Diagnostic struct {
	Severity Severity
	Kind     Kind
	Message  string
	Pos      token.Position
	Expected []string // optional: what would have been valid here
	Got      string   // optional: what was found instead
}

func (d Diagnostic) Error() string { return d.Message }

// Sink collects diagnostics produced during one parse. It is not
// safe for concurrent use — the core is single-threaded (spec.md §5).
type Sink struct {
	source string // full accepted line, for snippet rendering
	items  []Diagnostic
}

// NewSink creates a sink over the given source text.
func NewSink(source string) *Sink {
	return &Sink{source: source}
}

// Add appends a diagnostic to the sink.
func (s *Sink) Add(d Diagnostic) {
	s.items = append(s.items, d)
}

// Errorf is a convenience that builds and adds an Error-severity diagnostic.
func (s *Sink) Errorf(kind Kind, pos token.Position, format string, args ...interface{}) {
	s.Add(Diagnostic{Severity: Error, Kind: kind, Message: fmt.Sprintf(format, args...), Pos: pos})
}

// Diagnostics returns all diagnostics recorded so far, in emission order.
func (s *Sink) Diagnostics() []Diagnostic { return s.items }

// HasErrors reports whether any Error or Fatal diagnostic was recorded.
func (s *Sink) HasErrors() bool {
	for _, d := range s.items {
		if d.Severity >= Error {
			return true
		}
	}
	return false
}

// Render formats a diagnostic as a Rust/Clang-style two-line snippet with a
// caret pointer, grounded on the teacher's ParseError.createCodeSnippet.
func (s *Sink) Render(d Diagnostic) string {
	var b strings.Builder
	fmt.Fprintf(&b, "%s: %s\n", d.Severity, d.Message)

	lines := strings.Split(s.source, "\n")
	if d.Pos.Line < 1 || d.Pos.Line > len(lines) {
		return b.String()
	}
	line := lines[d.Pos.Line-1]

	fmt.Fprintf(&b, "  --> %d:%d\n", d.Pos.Line, d.Pos.Column)
	b.WriteString("   |\n")
	fmt.Fprintf(&b, "%2d | %s\n", d.Pos.Line, line)
	b.WriteString("   | ")
	if d.Pos.Column > 0 && d.Pos.Column <= len(line)+1 {
		b.WriteString(strings.Repeat(" ", d.Pos.Column-1) + "^")
	}
	return b.String()
}
