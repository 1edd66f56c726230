package ast_test

import (
	"testing"

	"github.com/berrym/lusush/internal/ast"
	"github.com/berrym/lusush/internal/token"
	"github.com/stretchr/testify/assert"
)

func TestEqualIgnoresPosition(t *testing.T) {
	a := ast.New(ast.COMMAND, token.Position{Line: 1, Column: 1}, ast.New(ast.STRING_EXPANDABLE, token.Position{Line: 1, Column: 1}).WithValue("echo"))
	b := ast.New(ast.COMMAND, token.Position{Line: 9, Column: 9}, ast.New(ast.STRING_EXPANDABLE, token.Position{Line: 2, Column: 2}).WithValue("echo"))
	assert.True(t, ast.Equal(a, b))
}

func TestEqualDetectsDifference(t *testing.T) {
	a := ast.New(ast.STRING_LITERAL, token.Position{}).WithValue("x")
	b := ast.New(ast.STRING_LITERAL, token.Position{}).WithValue("y")
	assert.False(t, ast.Equal(a, b))
}

func TestKindString(t *testing.T) {
	assert.Equal(t, "PIPELINE", ast.PIPELINE.String())
}

func TestUnparseSimpleCommand(t *testing.T) {
	cmd := ast.New(ast.COMMAND, token.Position{},
		ast.New(ast.STRING_EXPANDABLE, token.Position{}).WithValue("echo"),
		ast.New(ast.STRING_LITERAL, token.Position{}).WithValue("hi"),
	)
	assert.Equal(t, "echo 'hi'", ast.Unparse(cmd))
}

func TestUnparseLogicalAnd(t *testing.T) {
	left := ast.New(ast.COMMAND, token.Position{}, ast.New(ast.STRING_EXPANDABLE, token.Position{}).WithValue("a"))
	right := ast.New(ast.COMMAND, token.Position{}, ast.New(ast.STRING_EXPANDABLE, token.Position{}).WithValue("b"))
	node := ast.New(ast.LOGICAL_AND, token.Position{}, left, right)
	assert.Equal(t, "a && b", ast.Unparse(node))
}
