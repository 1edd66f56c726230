package symtab_test

import (
	"testing"

	"github.com/berrym/lusush/internal/symtab"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSetAndGet(t *testing.T) {
	tab := symtab.New()
	require.NoError(t, tab.Set("FOO", "bar", symtab.None))
	v, ok := tab.Get("FOO")
	assert.True(t, ok)
	assert.Equal(t, "bar", v)
}

func TestUndefinedLookupMisses(t *testing.T) {
	tab := symtab.New()
	_, ok := tab.Get("NOPE")
	assert.False(t, ok)
	assert.False(t, tab.Exists("NOPE"))
}

func TestSetUpdatesParentScope(t *testing.T) {
	tab := symtab.New()
	require.NoError(t, tab.Set("X", "1", symtab.None))
	tab.PushScope(symtab.FUNCTION, "f")
	require.NoError(t, tab.Set("X", "2", symtab.None))
	tab.PopScope()
	v, ok := tab.Get("X")
	require.True(t, ok)
	assert.Equal(t, "2", v, "Set on a name defined in a parent scope updates that parent binding")
}

func TestSetLocalAlwaysCreatesInCurrentScope(t *testing.T) {
	tab := symtab.New()
	require.NoError(t, tab.Set("X", "1", symtab.None))
	tab.PushScope(symtab.FUNCTION, "f")
	require.NoError(t, tab.SetLocal("X", "local"))
	v, _ := tab.Get("X")
	assert.Equal(t, "local", v)
	tab.PopScope()
	v, _ = tab.Get("X")
	assert.Equal(t, "1", v, "set_local must not leak into the parent scope")
}

// TestLookupMonotonicity is Testable Property 6 (spec.md §8): get(name)
// before push_scope and after the matching pop_scope return the same
// value.
func TestLookupMonotonicity(t *testing.T) {
	tab := symtab.New()
	require.NoError(t, tab.Set("X", "before", symtab.None))
	before, _ := tab.Get("X")

	tab.PushScope(symtab.SUBSHELL, "")
	tab.PushScope(symtab.LOOP, "")
	tab.PopScope()
	tab.PopScope()

	after, _ := tab.Get("X")
	assert.Equal(t, before, after)
}

func TestReadonlyViolation(t *testing.T) {
	tab := symtab.New()
	require.NoError(t, tab.Set("RO", "1", symtab.Readonly))
	err := tab.Set("RO", "2", symtab.None)
	require.Error(t, err)
	var roErr *symtab.ReadonlyError
	assert.ErrorAs(t, err, &roErr)
	v, _ := tab.Get("RO")
	assert.Equal(t, "1", v, "failed assignment to a readonly variable must be a no-op")
}

func TestUnsetTreatedAsMiss(t *testing.T) {
	tab := symtab.New()
	require.NoError(t, tab.Set("X", "1", symtab.None))
	require.NoError(t, tab.Unset("X"))
	_, ok := tab.Get("X")
	assert.False(t, ok)
}

func TestExportDoesNotChangeValue(t *testing.T) {
	tab := symtab.New()
	require.NoError(t, tab.Set("X", "1", symtab.None))
	require.NoError(t, tab.Export("X"))
	v, _ := tab.Get("X")
	assert.Equal(t, "1", v)
	assert.Contains(t, tab.Environ(), "X=1")
}

func TestAutoVivify(t *testing.T) {
	tab := symtab.New()
	v := tab.AutoVivify("UNSEEN")
	assert.Equal(t, "0", v)
	got, ok := tab.Get("UNSEEN")
	require.True(t, ok)
	assert.Equal(t, "0", got)
}
