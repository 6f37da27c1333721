package compose

import (
	"testing"

	gyaml "github.com/goccy/go-yaml"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseEnvList(t *testing.T) {
	block, err := ParseEnv([]any{"A=1", "B=2"})
	require.NoError(t, err)

	assert.Equal(t, ShapeList, block.Shape())
	assert.Equal(t, 2, block.Len())

	v, ok := block.Get("A")
	assert.True(t, ok)
	assert.Equal(t, "1", v)
}

func TestParseEnvListDropsNonAssignments(t *testing.T) {
	// Entries without '=' (or with an empty key) are not assignments;
	// they are dropped from the canonical view and do not come back.
	block, err := ParseEnv([]any{"A=1", "bare-flag", "=orphan", "B=2"})
	require.NoError(t, err)

	assert.Equal(t, 2, block.Len())
	assert.Equal(t, []any{"A=1", "B=2"}, block.Node())
}

func TestParseEnvListValueWithEquals(t *testing.T) {
	block, err := ParseEnv([]any{"OPTS=-Xms128m -Xmx128m", "CHAIN=a=b=c"})
	require.NoError(t, err)

	v, ok := block.Get("CHAIN")
	assert.True(t, ok)
	assert.Equal(t, "a=b=c", v)
	assert.Equal(t, []any{"OPTS=-Xms128m -Xmx128m", "CHAIN=a=b=c"}, block.Node())
}

func TestParseEnvMapping(t *testing.T) {
	node := gyaml.MapSlice{
		{Key: "A", Value: "1"},
		{Key: "PORT", Value: uint64(8080)},
	}
	block, err := ParseEnv(node)
	require.NoError(t, err)

	assert.Equal(t, ShapeMapping, block.Shape())
	assert.Equal(t, 2, block.Len())

	v, ok := block.Get("PORT")
	assert.True(t, ok)
	assert.Equal(t, "8080", v)
}

func TestParseEnvNil(t *testing.T) {
	// A service without an environment gets a mapping-shaped block.
	block, err := ParseEnv(nil)
	require.NoError(t, err)
	assert.Equal(t, ShapeMapping, block.Shape())
	assert.Equal(t, 0, block.Len())
}

func TestParseEnvScalar(t *testing.T) {
	_, err := ParseEnv("FOO=bar")
	require.ErrorIs(t, err, ErrTypeConflict)
}

func TestEnvRoundTrip(t *testing.T) {
	tests := []struct {
		name string
		node any
	}{
		{
			name: "list shape",
			node: []any{"A=1", "B=2", "C=3"},
		},
		{
			name: "mapping shape",
			node: gyaml.MapSlice{
				{Key: "A", Value: "1"},
				{Key: "B", Value: uint64(2)},
			},
		},
		{
			name: "empty list",
			node: []any{},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			block, err := ParseEnv(tt.node)
			require.NoError(t, err)
			assert.Equal(t, tt.node, block.Node())
		})
	}
}

func TestEnvSetUpdatesInPlace(t *testing.T) {
	block, err := ParseEnv([]any{"A=1", "B=2"})
	require.NoError(t, err)

	old, existed := block.Set("B", "9")
	assert.True(t, existed)
	assert.Equal(t, "2", old)

	old, existed = block.Set("C", "3")
	assert.False(t, existed)
	assert.Nil(t, old)

	// B keeps its position, C appends at the end
	assert.Equal(t, []any{"A=1", "B=9", "C=3"}, block.Node())
}

func TestEnvSetMappingKeepsUntouchedTypes(t *testing.T) {
	node := gyaml.MapSlice{
		{Key: "PORT", Value: uint64(8080)},
		{Key: "MODE", Value: "fast"},
	}
	block, err := ParseEnv(node)
	require.NoError(t, err)

	block.Set("MODE", "slow")

	want := gyaml.MapSlice{
		{Key: "PORT", Value: uint64(8080)},
		{Key: "MODE", Value: "slow"},
	}
	assert.Equal(t, want, block.Node())
}
