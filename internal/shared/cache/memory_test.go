package cache

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMemoryGetSet(t *testing.T) {
	c := NewMemory()

	var v []string
	require.NoError(t, c.Get("missing", &v))
	assert.Nil(t, v)

	require.NoError(t, c.Set("k", time.Minute, []string{"a", "b"}))
	require.NoError(t, c.Get("k", &v))
	assert.Equal(t, []string{"a", "b"}, v)
}

func TestMemoryExpiry(t *testing.T) {
	c := NewMemory()

	require.NoError(t, c.Set("k", time.Nanosecond, "value"))
	time.Sleep(time.Millisecond)

	var v string
	require.NoError(t, c.Get("k", &v))
	assert.Empty(t, v)
}
