// Package alias implements textual alias expansion (spec.md §4.4): when
// the parser meets a WORD in command position, the expander checks the
// alias map and, on a hit, returns the replacement text. The parser
// splits that text into words on whitespace; it is not re-scanned, so
// operators and quotes inside an alias value stay part of plain words.
package alias

import "strings"

// Table stores alias definitions in insertion order, so that listing
// aliases (an interactive collaborator concern) is deterministic.
type Table struct {
	order []string
	defs  map[string]string
}

// New creates an empty alias table.
func New() *Table {
	return &Table{defs: make(map[string]string)}
}

// Set defines or redefines an alias. Redefining an existing name does
// not change its position in iteration order.
func (t *Table) Set(name, value string) {
	if _, ok := t.defs[name]; !ok {
		t.order = append(t.order, name)
	}
	t.defs[name] = value
}

// Unset removes an alias definition.
func (t *Table) Unset(name string) {
	if _, ok := t.defs[name]; !ok {
		return
	}
	delete(t.defs, name)
	for i, n := range t.order {
		if n == name {
			t.order = append(t.order[:i], t.order[i+1:]...)
			break
		}
	}
}

// Get returns an alias's replacement text and whether it is defined.
func (t *Table) Get(name string) (string, bool) {
	v, ok := t.defs[name]
	return v, ok
}

// Names returns all defined alias names in insertion order.
func (t *Table) Names() []string {
	out := make([]string, len(t.order))
	copy(out, t.order)
	return out
}

// Expander drives one-line alias substitution with recursion protection.
// A single Expander is meant to live for the duration of expanding one
// command word chain; its blacklist resets per top-level call to Expand.
type Expander struct {
	table *Table
}

// NewExpander binds an Expander to a Table.
func NewExpander(table *Table) *Expander {
	return &Expander{table: table}
}

// Expand performs alias substitution on word, which must be the next
// WORD token in command position. It returns the fully expanded text
// (possibly word itself, unchanged) and whether the replacement text
// ends in whitespace — per rule (b) in spec.md §4.4, callers use this to
// decide whether the *next* word should also be considered for command
// position expansion.
//
// Rule (a): a name currently being expanded is blacklisted against
// recursive self-substitution. Rule (c): callers must not invoke Expand
// on words that originated inside a quoted string — the parser's
// expandAliasWord skips any word containing a quote character before
// calling here.
func (e *Expander) Expand(word string) (expanded string, trailingSpace bool) {
	seen := make(map[string]bool)
	return e.expand(word, seen)
}

func (e *Expander) expand(word string, seen map[string]bool) (string, bool) {
	if seen[word] {
		return word, false
	}
	value, ok := e.table.Get(word)
	if !ok {
		return word, false
	}
	seen[word] = true
	trailingSpace := strings.HasSuffix(value, " ") || strings.HasSuffix(value, "\t")

	fields := strings.Fields(value)
	if len(fields) == 0 {
		return "", trailingSpace
	}
	// Only the first replacement word is itself eligible for further
	// expansion (it occupies the same command position the original
	// word did); the remainder is returned verbatim.
	first, rest := fields[0], fields[1:]
	expandedFirst, _ := e.expand(first, seen)
	parts := append([]string{expandedFirst}, rest...)
	return strings.Join(parts, " "), trailingSpace
}

// InsideDisallowedContext reports whether alias expansion should be
// suppressed for the given syntactic context name. Per the Open Question
// decision recorded in DESIGN.md, expansion is suppressed inside
// arithmetic commands and extended test expressions, but allowed inside
// command substitutions.
func InsideDisallowedContext(context string) bool {
	switch context {
	case "arith_cmd", "extended_test":
		return true
	default:
		return false
	}
}
