package core

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseYAML_Flattens(t *testing.T) {
	doc := []byte(`
menu:
  file:
    open: Open
    recent: [one, two]
  count: 3
  enabled: true
released: 2024-01-15
empty: ~
quoted: "null"
`)
	got, err := parseYAML(doc)
	require.NoError(t, err)

	assert.Equal(t, map[string]any{
		"menu.file.open":   "Open",
		"menu.file.recent": []string{"one", "two"},
		"menu.count":       "3",
		"menu.enabled":     "true",
		"released":         "2024-01-15",
		"empty":            nil,
		"quoted":           "null",
	}, got)
}

func TestParseYAML_Aliases(t *testing.T) {
	got, err := parseYAML([]byte("base: &b Hello\ncopy: *b\n"))
	require.NoError(t, err)
	assert.Equal(t, "Hello", got["copy"])
}

func TestParseYAML_Errors(t *testing.T) {
	tests := map[string]string{
		"empty":            "",
		"scalar root":      "just text",
		"sequence root":    "- a\n- b\n",
		"map in sequence":  "items:\n  - name: x\n",
		"null in list":     "items: [a, ~]\n",
		"malformed":        "a: [unclosed",
		"dotted collision": "a.b: flat\na:\n  b: nested\n",
	}
	for name, doc := range tests {
		t.Run(name, func(t *testing.T) {
			_, err := parseYAML([]byte(doc))
			assert.ErrorIs(t, err, ErrInvalid)
		})
	}
}

func TestFlatten(t *testing.T) {
	got, err := Flatten(map[string]any{
		"a": map[string]any{
			"b": map[string]any{"c": "v"},
			"l": []any{"x", "y"},
		},
		"top": "t",
		"nil": nil,
	})
	require.NoError(t, err)
	assert.Equal(t, map[string]any{
		"a.b.c": "v",
		"a.l":   []any{"x", "y"},
		"top":   "t",
		"nil":   nil,
	}, got)

	_, err = Flatten(map[string]any{"l": []any{map[string]any{"k": "v"}}})
	assert.ErrorIs(t, err, ErrInvalid)
}

func TestFlatten_DuplicatePath(t *testing.T) {
	doc := map[string]any{
		"a":   map[string]any{"b": "nested"},
		"a.b": "flat",
	}
	// Map order is random, so repeat until both walk orders have been seen.
	for i := 0; i < 50; i++ {
		_, err := Flatten(doc)
		require.ErrorIs(t, err, ErrInvalid)
		assert.Contains(t, err.Error(), `"a.b" is defined more than once`)
	}

	_, err := Flatten(map[string]any{
		"a":   map[string]any{"b": map[string]any{"c": "1"}},
		"a.b": map[string]any{"c": "2"},
	})
	assert.ErrorIs(t, err, ErrInvalid)
}

func TestParseYAML_DuplicatePath(t *testing.T) {
	_, err := parseYAML([]byte("a:\n  b: nested\na.b: flat\n"))
	require.ErrorIs(t, err, ErrInvalid)
	assert.Contains(t, err.Error(), "defined more than once")

	got, err := parseYAML([]byte("a:\n  b: one\na.c: two\n"))
	require.NoError(t, err)
	assert.Equal(t, map[string]any{"a.b": "one", "a.c": "two"}, got)
}

func TestRawToValue(t *testing.T) {
	v, skip, err := rawToValue("k", "hello")
	require.NoError(t, err)
	assert.False(t, skip)
	assert.Equal(t, StringValue("hello"), v)

	v, _, err = rawToValue("k", []any{"a", "b"})
	require.NoError(t, err)
	assert.Equal(t, []string{"a", "b"}, v.Items())

	_, skip, err = rawToValue("k", nil)
	require.NoError(t, err)
	assert.True(t, skip)

	_, _, err = rawToValue("k", []any{"a", 2.0})
	assert.ErrorIs(t, err, ErrInvalid)

	_, _, err = rawToValue("k", 12.5)
	assert.ErrorIs(t, err, ErrInvalid)
}

func TestSortedKeys(t *testing.T) {
	assert.Equal(t, []string{"a", "a.b", "b"}, sortedKeys(map[string]any{"b": 1, "a.b": 1, "a": 1}))
}
