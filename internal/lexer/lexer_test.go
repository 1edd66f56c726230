package lexer_test

import (
	"testing"

	"github.com/berrym/lusush/internal/diag"
	"github.com/berrym/lusush/internal/lexer"
	"github.com/berrym/lusush/internal/token"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func tokenize(t *testing.T, src string) []token.Token {
	t.Helper()
	sink := diag.NewSink(src)
	lx := lexer.New(src, sink)
	var toks []token.Token
	for {
		tok := lx.Next()
		toks = append(toks, tok)
		if tok.Kind == token.EOF {
			break
		}
	}
	return toks
}

func kinds(toks []token.Token) []token.Kind {
	out := make([]token.Kind, len(toks))
	for i, t := range toks {
		out[i] = t.Kind
	}
	return out
}

func TestSimpleCommandWords(t *testing.T) {
	toks := tokenize(t, "echo hello world\n")
	assert.Equal(t, []token.Kind{token.WORD, token.WORD, token.WORD, token.NEWLINE, token.EOF}, kinds(toks))
	assert.Equal(t, "echo", toks[0].Lexeme)
	assert.Equal(t, "hello", toks[1].Lexeme)
}

func TestLongestMatchOperators(t *testing.T) {
	toks := tokenize(t, "a && b || c ;; d\n")
	got := kinds(toks)
	want := []token.Kind{
		token.WORD, token.AND_AND, token.WORD, token.OR_OR, token.WORD,
		token.SEMI_SEMI, token.WORD, token.NEWLINE, token.EOF,
	}
	assert.Equal(t, want, got)
}

func TestIONumberDetection(t *testing.T) {
	toks := tokenize(t, "2>&1\n")
	require.GreaterOrEqual(t, len(toks), 2)
	assert.Equal(t, token.IO_NUMBER, toks[0].Kind)
	assert.Equal(t, 2, toks[0].IONumber)
	assert.Equal(t, token.GREATAMP, toks[1].Kind)
}

func TestReservedWordsOnlyInCommandPosition(t *testing.T) {
	toks := tokenize(t, "if true; then echo if; fi\n")
	got := kinds(toks)
	// The first "if" is reserved; the argument "if" to echo is not.
	assert.Equal(t, token.IF, got[0])
	// Find the WORD "if" passed as an echo argument.
	found := false
	for i, tok := range toks {
		if tok.Lexeme == "if" && tok.Kind == token.WORD {
			found = true
			_ = i
		}
	}
	assert.True(t, found, "the argument \"if\" must scan as WORD, not IF")
}

func TestSingleQuotedStringIsLiteral(t *testing.T) {
	toks := tokenize(t, `echo 'a b $x'` + "\n")
	require.Len(t, toks, 4) // echo, 'a b $x', NEWLINE, EOF
	assert.Equal(t, token.WORD, toks[1].Kind)
	assert.Equal(t, "a b $x", toks[1].Lexeme)
}

func TestUnterminatedSingleQuoteIsError(t *testing.T) {
	sink := diag.NewSink("echo 'abc")
	lx := lexer.New("echo 'abc", sink)
	lx.Next() // echo
	tok := lx.Next()
	assert.Equal(t, token.ERROR, tok.Kind)
	assert.True(t, sink.HasErrors())
}

func TestAssignmentWordDetection(t *testing.T) {
	toks := tokenize(t, "FOO=bar echo hi\n")
	assert.Equal(t, token.ASSIGNMENT_WORD, toks[0].Kind)
	assert.Equal(t, "FOO=bar", toks[0].Lexeme)
}

func TestCompoundAssignmentOperator(t *testing.T) {
	toks := tokenize(t, "arr+=val\n")
	assert.Equal(t, token.ASSIGNMENT_WORD, toks[0].Kind)
	assert.Equal(t, "arr+=val", toks[0].Lexeme)
}

// TestEOFSentinelStable is Testable Property 3 (spec.md §8).
func TestEOFSentinelStable(t *testing.T) {
	sink := diag.NewSink("")
	lx := lexer.New("", sink)
	first := lx.Next()
	second := lx.Next()
	assert.Equal(t, token.EOF, first.Kind)
	assert.Equal(t, first, second)
}

func TestHeredocHarvesting(t *testing.T) {
	src := "cat <<EOF\nline one\nline two\nEOF\necho after\n"
	sink := diag.NewSink(src)
	lx := lexer.New(src, sink)

	var toks []token.Token
	for {
		tk := lx.Next()
		toks = append(toks, tk)
		if tk.Kind == token.DLESS {
			delim := lx.Next() // the delimiter word
			toks = append(toks, delim)
			lx.MarkHeredocDelimiter(delim.Lexeme, false, false)
			continue
		}
		if tk.Kind == token.EOF {
			break
		}
	}

	body, ok := lx.PopHeredocBody()
	require.True(t, ok)
	assert.Equal(t, "line one\nline two\n", body.Text)
}
