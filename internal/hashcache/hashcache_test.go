package hashcache

import (
	"errors"
	"fmt"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDigestDeterministic(t *testing.T) {
	a := Digest("template", "rules", "context")
	b := Digest("template", "rules", "context")
	assert.Equal(t, a, b)
	assert.Len(t, a, 64)
}

func TestDigestPartBoundaries(t *testing.T) {
	// Concatenation across part boundaries must not collide.
	assert.NotEqual(t, Digest("ab", "c"), Digest("a", "bc"))
	assert.NotEqual(t, Digest("abc"), Digest("abc", ""))
	assert.NotEqual(t, Digest("a\x00", "b"), Digest("a", "\x00b"))
}

func TestGetOrCompute(t *testing.T) {
	c := New()
	calls := 0

	v, err := c.GetOrCompute("k", func() (string, error) {
		calls++
		return "value", nil
	})
	require.NoError(t, err)
	assert.Equal(t, "value", v)
	assert.Equal(t, 1, c.Size())

	v, err = c.GetOrCompute("k", func() (string, error) {
		calls++
		return "other", nil
	})
	require.NoError(t, err)
	assert.Equal(t, "value", v)
	assert.Equal(t, 1, calls)
	assert.Equal(t, 1, c.Size())
}

func TestGetOrComputeError(t *testing.T) {
	c := New()
	boom := errors.New("boom")

	_, err := c.GetOrCompute("k", func() (string, error) {
		return "", boom
	})
	require.ErrorIs(t, err, boom)

	// Failed computes are not cached.
	_, ok := c.Get("k")
	assert.False(t, ok)
	assert.Equal(t, 0, c.Size())
}

func TestClear(t *testing.T) {
	c := New()
	c.Put("a", "1")
	c.Put("b", "2")
	require.Equal(t, 2, c.Size())

	c.Clear()
	assert.Equal(t, 0, c.Size())
	_, ok := c.Get("a")
	assert.False(t, ok)
}

func TestConcurrentGetOrCompute(t *testing.T) {
	c := New()
	var wg sync.WaitGroup

	for i := 0; i < 32; i++ {
		wg.Add(1)
		go func(n int) {
			defer wg.Done()
			key := fmt.Sprintf("key%d", n%4)
			v, err := c.GetOrCompute(key, func() (string, error) {
				return "v:" + key, nil
			})
			assert.NoError(t, err)
			assert.Equal(t, "v:"+key, v)
		}(i)
	}
	wg.Wait()

	// At most one retained value per key.
	assert.Equal(t, 4, c.Size())
}
