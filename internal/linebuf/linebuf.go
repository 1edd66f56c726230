// Package linebuf implements the line-edit buffer described in spec.md
// §4.1: the single source of truth for the text being edited and the
// cursor that addresses it, offering grapheme-correct primitives. Unicode
// segmentation is delegated to github.com/rivo/uniseg (the same
// generation-class library tcell itself moved to, per aretext's
// cellwidth.go comment), and cell-width math to
// github.com/mattn/go-runewidth, matching the libraries the retrieval
// pack's aretext snapshot wires for the same concern.
package linebuf

import (
	"fmt"
	"unicode/utf8"

	"github.com/mattn/go-runewidth"
	"github.com/rivo/uniseg"
	"golang.org/x/text/unicode/norm"
)

// Limits on buffer capacity (spec.md §4.1: "capacity clamped to [MIN, MAX]").
const (
	MinCapacity = 16
	MaxCapacity = 1 << 24
)

// Flag is a bitmask of buffer-level status flags.
type Flag int

const (
	None             Flag = 0
	ValidationFailed Flag = 1 << iota
)

// Error reports a buffer operation failure using the kinds spec.md §4.1
// names explicitly.
type Error struct {
	Kind    string // "INVALID_UTF8", "OUT_OF_RANGE", "OOM", "INVALID_PARAMETER"
	Message string
}

func (e *Error) Error() string { return fmt.Sprintf("%s: %s", e.Kind, e.Message) }

// lineSpan describes one logical line within the buffer (spec.md §4.1's
// rebuild_line_structure).
type lineSpan struct {
	startByte, endByte         int
	startCodepoint, endCodepoint int
	graphemeCount              int
}

// Buffer owns the text of the line being edited. It is not safe for
// concurrent use.
type Buffer struct {
	text     []byte
	capacity int
	flags    Flag

	codepointCount int
	graphemeCount  int

	lines     []lineSpan
	linesDirty bool

	Cursor Cursor
}

// Cursor addresses a position in a Buffer with every coordinate system
// spec.md §4.1 names, kept synchronized by MoveByGraphemes and by any
// buffer mutation (spec.md §5's synchronization rule).
type Cursor struct {
	ByteOffset      int
	CodepointIndex  int
	GraphemeIndex   int
	StickyColumn    bool
	PreferredVisualColumn int
}

// Create allocates a buffer with length 0 and a valid cursor at 0.
// Capacity is clamped to [MinCapacity, MaxCapacity].
func Create(initialCapacity int) (*Buffer, error) {
	if initialCapacity < 0 {
		return nil, &Error{Kind: "INVALID_PARAMETER", Message: "negative initial capacity"}
	}
	cap := initialCapacity
	if cap < MinCapacity {
		cap = MinCapacity
	}
	if cap > MaxCapacity {
		cap = MaxCapacity
	}
	return &Buffer{
		text:     make([]byte, 0, cap),
		capacity: cap,
	}, nil
}

// Clear retains capacity; resets length, counts, cursor, and flags.
func (b *Buffer) Clear() {
	b.text = b.text[:0]
	b.codepointCount = 0
	b.graphemeCount = 0
	b.flags = None
	b.Cursor = Cursor{}
	b.lines = nil
	b.linesDirty = false
}

// Len returns the buffer's length in bytes.
func (b *Buffer) Len() int { return len(b.text) }

// Text returns the buffer's contents as a string.
func (b *Buffer) Text() string { return string(b.text) }

// CodepointCount returns the number of Unicode codepoints in the buffer.
func (b *Buffer) CodepointCount() int { return b.codepointCount }

// GraphemeCount returns the number of grapheme clusters in the buffer.
func (b *Buffer) GraphemeCount() int { return b.graphemeCount }

// Insert requires position <= length and text to be valid UTF-8. It
// grows capacity if needed, shifts the tail, and updates codepoint and
// grapheme counts. Per spec.md §4.1 the inserted text is NFC-normalized
// on the way in, matching the aretext/golang.org/x/text pairing the
// retrieval pack uses for text insertion.
func (b *Buffer) Insert(position int, text string) error {
	if position < 0 || position > len(b.text) {
		return &Error{Kind: "OUT_OF_RANGE", Message: "insert position out of range"}
	}
	if !utf8.ValidString(text) {
		return &Error{Kind: "INVALID_UTF8", Message: "insert text is not valid UTF-8"}
	}
	normalized := norm.NFC.String(text)

	needed := len(b.text) + len(normalized)
	if needed > MaxCapacity {
		return &Error{Kind: "OOM", Message: "insert would exceed maximum buffer capacity"}
	}
	if needed > b.capacity {
		b.capacity = needed * 2
		if b.capacity > MaxCapacity {
			b.capacity = MaxCapacity
		}
	}

	grown := make([]byte, 0, b.capacity)
	grown = append(grown, b.text[:position]...)
	grown = append(grown, normalized...)
	grown = append(grown, b.text[position:]...)
	b.text = grown

	b.codepointCount += utf8.RuneCountInString(normalized)
	b.graphemeCount += countGraphemes(normalized)
	b.linesDirty = true

	if b.Cursor.ByteOffset >= position {
		b.Cursor.ByteOffset += len(normalized)
	}
	b.syncCursorFromByteOffset()
	return nil
}

// Delete removes length bytes starting at position. The slice must sit
// on grapheme boundaries; callers that derive length from MoveByGraphemes
// satisfy this automatically.
func (b *Buffer) Delete(position, length int) error {
	if position < 0 || length < 0 || position+length > len(b.text) {
		return &Error{Kind: "OUT_OF_RANGE", Message: "delete range out of range"}
	}
	removed := string(b.text[position : position+length])
	b.text = append(b.text[:position], b.text[position+length:]...)

	b.codepointCount -= utf8.RuneCountInString(removed)
	b.graphemeCount -= countGraphemes(removed)
	b.linesDirty = true

	switch {
	case b.Cursor.ByteOffset >= position+length:
		b.Cursor.ByteOffset -= length
	case b.Cursor.ByteOffset > position:
		b.Cursor.ByteOffset = position
	}
	b.syncCursorFromByteOffset()
	return nil
}

// Validate checks buffer invariants (UTF-8 validity, count consistency)
// and sets or clears ValidationFailed accordingly. It returns the first
// violation found, if any.
func (b *Buffer) Validate() error {
	if !utf8.Valid(b.text) {
		b.flags |= ValidationFailed
		return &Error{Kind: "INVALID_UTF8", Message: "buffer contains invalid UTF-8"}
	}
	if n := utf8.RuneCount(b.text); n != b.codepointCount {
		b.flags |= ValidationFailed
		return &Error{Kind: "INVALID_PARAMETER", Message: "codepoint count out of sync with contents"}
	}
	b.flags &^= ValidationFailed
	return nil
}

// RebuildLineStructure recomputes the per-logical-line spans (start/end
// byte offsets and codepoint/grapheme counts) in O(length), used when the
// buffer contains embedded newlines (multi-line compound-command input).
func (b *Buffer) RebuildLineStructure() {
	b.lines = b.lines[:0]
	start := 0
	startCP := 0
	cp := 0
	for i := 0; i < len(b.text); {
		r, size := utf8.DecodeRune(b.text[i:])
		if r == '\n' {
			line := b.text[start:i]
			b.lines = append(b.lines, lineSpan{
				startByte: start, endByte: i,
				startCodepoint: startCP, endCodepoint: cp,
				graphemeCount: countGraphemes(string(line)),
			})
			start = i + size
			startCP = cp + 1
		}
		cp++
		i += size
	}
	line := b.text[start:]
	b.lines = append(b.lines, lineSpan{
		startByte: start, endByte: len(b.text),
		startCodepoint: startCP, endCodepoint: cp,
		graphemeCount: countGraphemes(string(line)),
	})
	b.linesDirty = false
}

func countGraphemes(s string) int {
	n := 0
	gr := uniseg.NewGraphemes(s)
	for gr.Next() {
		n++
	}
	return n
}

// VisualWidth returns the terminal cell width of s using the same
// grapheme-cluster-aware algorithm as aretext's cellwidth.Sizer: tabs
// expand to the next stop of tabSize, everything else is measured with
// go-runewidth on a per-grapheme-cluster basis.
func VisualWidth(s string, tabSize, offsetInLine int) int {
	total := 0
	gr := uniseg.NewGraphemes(s)
	col := offsetInLine
	for gr.Next() {
		cluster := gr.Str()
		if cluster == "\t" {
			next := ((col / tabSize) + 1) * tabSize
			total += next - col
			col = next
			continue
		}
		w := runewidth.StringWidth(cluster)
		total += w
		col += w
	}
	return total
}
