package diag_test

import (
	"testing"

	"github.com/berrym/lusush/internal/diag"
	"github.com/berrym/lusush/internal/token"
	"github.com/stretchr/testify/assert"
)

func TestHasErrorsOnlyForErrorAndFatal(t *testing.T) {
	sink := diag.NewSink("")
	assert.False(t, sink.HasErrors())

	sink.Add(diag.Diagnostic{Severity: diag.Warning, Message: "careful"})
	assert.False(t, sink.HasErrors())

	sink.Add(diag.Diagnostic{Severity: diag.Error, Message: "bad"})
	assert.True(t, sink.HasErrors())
}

func TestErrorfBuildsErrorDiagnostic(t *testing.T) {
	sink := diag.NewSink("")
	sink.Errorf(diag.Syntax, token.Position{Line: 1, Column: 1}, "unexpected %s", "EOF")
	items := sink.Diagnostics()
	assert.Len(t, items, 1)
	assert.Equal(t, diag.Error, items[0].Severity)
	assert.Equal(t, "unexpected EOF", items[0].Message)
}

func TestRenderIncludesCaretAtColumn(t *testing.T) {
	sink := diag.NewSink("echo hi")
	d := diag.Diagnostic{Severity: diag.Error, Kind: diag.Syntax, Message: "oops", Pos: token.Position{Line: 1, Column: 6}}
	out := sink.Render(d)
	assert.Contains(t, out, "echo hi")
	assert.Contains(t, out, "1:6")
}

func TestSeverityString(t *testing.T) {
	assert.Equal(t, "error", diag.Error.String())
	assert.Equal(t, "warning", diag.Warning.String())
}
