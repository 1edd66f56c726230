package alias_test

import (
	"testing"

	"github.com/berrym/lusush/internal/alias"
	"github.com/stretchr/testify/assert"
)

func TestExpandSimpleAlias(t *testing.T) {
	tab := alias.New()
	tab.Set("ll", "ls -la")
	exp := alias.NewExpander(tab)
	got, trailing := exp.Expand("ll")
	assert.Equal(t, "ls -la", got)
	assert.False(t, trailing)
}

func TestUndefinedAliasReturnsWordUnchanged(t *testing.T) {
	tab := alias.New()
	exp := alias.NewExpander(tab)
	got, _ := exp.Expand("nope")
	assert.Equal(t, "nope", got)
}

func TestRecursiveAliasDoesNotLoop(t *testing.T) {
	tab := alias.New()
	tab.Set("foo", "foo bar")
	exp := alias.NewExpander(tab)
	got, _ := exp.Expand("foo")
	assert.Equal(t, "foo bar", got, "self-referential alias expands exactly once, not infinitely")
}

func TestTrailingWhitespaceTriggersNextWordExpansion(t *testing.T) {
	tab := alias.New()
	tab.Set("sudo", "sudo ")
	exp := alias.NewExpander(tab)
	_, trailing := exp.Expand("sudo")
	assert.True(t, trailing, "an alias whose replacement ends in whitespace marks the next word eligible too")
}

func TestUnset(t *testing.T) {
	tab := alias.New()
	tab.Set("ll", "ls -la")
	tab.Unset("ll")
	_, ok := tab.Get("ll")
	assert.False(t, ok)
}

func TestNamesPreservesInsertionOrder(t *testing.T) {
	tab := alias.New()
	tab.Set("b", "2")
	tab.Set("a", "1")
	assert.Equal(t, []string{"b", "a"}, tab.Names())
}

func TestInsideDisallowedContext(t *testing.T) {
	assert.True(t, alias.InsideDisallowedContext("arith_cmd"))
	assert.True(t, alias.InsideDisallowedContext("extended_test"))
	assert.False(t, alias.InsideDisallowedContext("command_sub"))
}
