// FILE: lixenwraith/spice/memory_test.go
package spice

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMapLayer(t *testing.T) {
	t.Run("BasicOperations", func(t *testing.T) {
		l := NewMapLayer("memory", PriorityFile)
		assert.Equal(t, "memory", l.Name())
		assert.Equal(t, PriorityFile, l.Priority())

		_, ok, err := l.Get("a")
		require.NoError(t, err)
		assert.False(t, ok)

		l.Set("b", Int(2))
		l.Set("a", String("one"))
		l.Set("a", String("uno"))

		v, ok, err := l.Get("a")
		require.NoError(t, err)
		assert.True(t, ok)
		assert.Equal(t, "uno", v.String())
		assert.Equal(t, []string{"a", "b"}, l.Keys())
		assert.Equal(t, 2, l.Len())

		assert.True(t, l.Delete("a"))
		assert.False(t, l.Delete("a"))
		assert.Equal(t, []string{"b"}, l.Keys())

		l.Clear()
		assert.Empty(t, l.Keys())
	})

	t.Run("SetAll", func(t *testing.T) {
		l := NewMapLayer("memory", PriorityDefaults)
		l.Set("keep", Bool(true))
		l.SetAll(map[string]Value{"x": Int(1), "y": Int(2)})
		assert.Equal(t, []string{"keep", "x", "y"}, l.Keys())
	})

	t.Run("FromNestedData", func(t *testing.T) {
		l, err := NewMapLayerFrom("seed", PriorityFile, map[string]any{
			"Database": map[string]any{"port": 5432},
		})
		require.NoError(t, err)

		v, ok, err := l.Get("database.port")
		require.NoError(t, err)
		require.True(t, ok)
		assert.True(t, Int(5432).Equal(v))

		_, err = NewMapLayerFrom("bad", PriorityFile, map[string]any{"f": func() {}})
		assert.ErrorIs(t, err, ErrTypeMismatch)
	})
}
