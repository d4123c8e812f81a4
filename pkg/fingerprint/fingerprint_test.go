package fingerprint

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestBytes(t *testing.T) {
	a := Bytes([]byte("hello"))
	b := Bytes([]byte("hello"))
	c := Bytes([]byte("hello!"))

	assert.Equal(t, a, b)
	assert.NotEqual(t, a, c)
	assert.Len(t, a, 64)
}

func TestJSONKeyOrderIndependent(t *testing.T) {
	a, err := JSON(map[string]any{"name": "Portal", "appid": 400})
	require.NoError(t, err)
	b, err := JSON(map[string]any{"appid": 400, "name": "Portal"})
	require.NoError(t, err)

	assert.Equal(t, a, b)
}

func TestJSONDistinguishesValues(t *testing.T) {
	a, err := JSON(map[string]any{"appid": 400})
	require.NoError(t, err)
	b, err := JSON(map[string]any{"appid": 620})
	require.NoError(t, err)

	assert.NotEqual(t, a, b)
}

func TestJSONNested(t *testing.T) {
	a, err := JSON(map[string]any{"outer": map[string]any{"b": 2, "a": 1}, "list": []int{1, 2}})
	require.NoError(t, err)
	b, err := JSON(map[string]any{"list": []int{1, 2}, "outer": map[string]any{"a": 1, "b": 2}})
	require.NoError(t, err)

	assert.Equal(t, a, b)
}
