package linebuf

import "github.com/rivo/uniseg"

// graphemeBoundaries returns the byte offset of the start of each
// grapheme cluster in b.text, plus a final sentinel at len(text).
func (b *Buffer) graphemeBoundaries() []int {
	bounds := []int{0}
	gr := uniseg.NewGraphemes(string(b.text))
	offset := 0
	for gr.Next() {
		offset += len(gr.Str())
		bounds = append(bounds, offset)
	}
	return bounds
}

// MoveByGraphemes advances (n > 0) or retreats (n < 0) the cursor by
// |n| grapheme clusters, clamped to [0, GraphemeCount], recomputing
// ByteOffset/CodepointIndex/GraphemeIndex atomically. Horizontal moves
// clear StickyColumn (spec.md §4.1).
func (b *Buffer) MoveByGraphemes(n int) {
	target := b.Cursor.GraphemeIndex + n
	if target < 0 {
		target = 0
	}
	if target > b.graphemeCount {
		target = b.graphemeCount
	}
	b.setCursorByGraphemeIndex(target)
	b.Cursor.StickyColumn = false
}

// MoveToLine moves the cursor vertically to the logical line at
// lineDelta relative to the current line, preserving
// PreferredVisualColumn across short lines — a vertical move sets
// StickyColumn (spec.md §4.1).
func (b *Buffer) MoveToLine(lineDelta int, tabSize int) {
	if b.linesDirty || b.lines == nil {
		b.RebuildLineStructure()
	}
	curLine := b.lineIndexForByteOffset(b.Cursor.ByteOffset)
	targetLine := curLine + lineDelta
	if targetLine < 0 {
		targetLine = 0
	}
	if targetLine >= len(b.lines) {
		targetLine = len(b.lines) - 1
	}

	if !b.Cursor.StickyColumn {
		b.Cursor.PreferredVisualColumn = b.visualColumnInLine(curLine, tabSize)
	}

	line := b.lines[targetLine]
	lineText := string(b.text[line.startByte:line.endByte])
	byteInLine := 0
	col := 0
	gr := uniseg.NewGraphemes(lineText)
	for gr.Next() {
		w := VisualWidth(gr.Str(), tabSize, col)
		if col+w > b.Cursor.PreferredVisualColumn {
			break
		}
		col += w
		byteInLine += len(gr.Str())
	}
	b.setCursorByByteOffset(line.startByte + byteInLine)
	b.Cursor.StickyColumn = true
}

func (b *Buffer) lineIndexForByteOffset(offset int) int {
	for i, l := range b.lines {
		if offset >= l.startByte && offset <= l.endByte {
			return i
		}
	}
	return len(b.lines) - 1
}

func (b *Buffer) visualColumnInLine(lineIdx int, tabSize int) int {
	line := b.lines[lineIdx]
	prefix := string(b.text[line.startByte:b.Cursor.ByteOffset])
	return VisualWidth(prefix, tabSize, 0)
}

func (b *Buffer) setCursorByGraphemeIndex(idx int) {
	bounds := b.graphemeBoundaries()
	if idx >= len(bounds) {
		idx = len(bounds) - 1
	}
	b.Cursor.GraphemeIndex = idx
	b.Cursor.ByteOffset = bounds[idx]
	b.Cursor.CodepointIndex = codepointIndexForByteOffset(b.text, bounds[idx])
}

func (b *Buffer) setCursorByByteOffset(offset int) {
	bounds := b.graphemeBoundaries()
	gi := 0
	for i, bo := range bounds {
		if bo <= offset {
			gi = i
		} else {
			break
		}
	}
	b.Cursor.GraphemeIndex = gi
	b.Cursor.ByteOffset = offset
	b.Cursor.CodepointIndex = codepointIndexForByteOffset(b.text, offset)
}

// syncCursorFromByteOffset recomputes CodepointIndex/GraphemeIndex from
// the cursor's ByteOffset, satisfying the synchronization rule in
// spec.md §5: "After any buffer-text mutation, the cursor-manager's
// internal position MUST be synchronized to the buffer's cursor."
func (b *Buffer) syncCursorFromByteOffset() {
	if b.Cursor.ByteOffset < 0 {
		b.Cursor.ByteOffset = 0
	}
	if b.Cursor.ByteOffset > len(b.text) {
		b.Cursor.ByteOffset = len(b.text)
	}
	b.Cursor.CodepointIndex = codepointIndexForByteOffset(b.text, b.Cursor.ByteOffset)
	b.Cursor.GraphemeIndex = graphemeIndexForByteOffset(b.text, b.Cursor.ByteOffset)
}

func codepointIndexForByteOffset(text []byte, offset int) int {
	n := 0
	for i := 0; i < offset && i < len(text); {
		_, size := decodeRuneSize(text[i:])
		i += size
		n++
	}
	return n
}

func graphemeIndexForByteOffset(text []byte, offset int) int {
	n := 0
	pos := 0
	gr := uniseg.NewGraphemes(string(text))
	for gr.Next() {
		if pos >= offset {
			break
		}
		pos += len(gr.Str())
		n++
	}
	return n
}

func decodeRuneSize(b []byte) (rune, int) {
	if len(b) == 0 {
		return 0, 0
	}
	c := b[0]
	switch {
	case c&0x80 == 0:
		return rune(c), 1
	case c&0xE0 == 0xC0:
		return rune(c), minInt(2, len(b))
	case c&0xF0 == 0xE0:
		return rune(c), minInt(3, len(b))
	case c&0xF8 == 0xF0:
		return rune(c), minInt(4, len(b))
	default:
		return rune(c), 1
	}
}

func minInt(a, b int) int {
	if a < b {
		return a
	}
	return b
}
