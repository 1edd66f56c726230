package token_test

import (
	"testing"

	"github.com/berrym/lusush/internal/token"
	"github.com/stretchr/testify/assert"
)

func TestIsReservedWord(t *testing.T) {
	k, ok := token.IsReservedWord("while")
	assert.True(t, ok)
	assert.Equal(t, token.WHILE, k)

	_, ok = token.IsReservedWord("notakeyword")
	assert.False(t, ok)
}

func TestEOFTokenIsStableSentinel(t *testing.T) {
	pos := token.Position{Line: 3, Column: 4}
	a := token.EOFToken(pos)
	b := token.EOFToken(pos)
	assert.Equal(t, a, b)
	assert.Equal(t, token.EOF, a.Kind)
}

func TestKindStringFallsBackForUnknown(t *testing.T) {
	var k token.Kind = 9999
	assert.Contains(t, k.String(), "Kind(9999)")
}

func TestOperatorsAreLongestMatchFirst(t *testing.T) {
	// Every single-character prefix of a multi-character operator must
	// appear later in the table, so a naive first-match scan never picks
	// the short form over the long one.
	seen := map[string]int{}
	for i, op := range token.Operators {
		seen[op.Text] = i
	}
	idxDoubleAmp := seen["&&"]
	idxSingleAmp := seen["&"]
	assert.Less(t, idxDoubleAmp, idxSingleAmp)
}
