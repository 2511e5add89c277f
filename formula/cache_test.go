package formula

import (
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCache_ReusesNodes(t *testing.T) {
	c := NewCache()
	a, err := c.Parse("A1+1")
	require.NoError(t, err)
	b, err := c.Parse("A1+1")
	require.NoError(t, err)
	assert.Same(t, a, b)
	assert.Equal(t, 1, c.Len())

	_, err = c.Parse("A1 + 1")
	require.NoError(t, err)
	assert.Equal(t, 2, c.Len())
}

func TestCache_CachesErrors(t *testing.T) {
	c := NewCache()
	_, err1 := c.Parse("1+")
	_, err2 := c.Parse("1+")
	require.Error(t, err1)
	assert.Same(t, err1, err2)
}

func TestCache_Concurrent(t *testing.T) {
	c := NewCache()
	var wg sync.WaitGroup
	for i := 0; i < 16; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, err := c.Parse("SUM(A1:B2)*2")
			assert.NoError(t, err)
		}()
	}
	wg.Wait()
	assert.Equal(t, 1, c.Len())
}
