package regexdev

import (
	"fmt"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/magnetde/regexdev/regex"
)

func TestCache(t *testing.T) {
	c := NewCache(2)

	p1, perr := c.Compile("a", regex.FlagSet{}, regex.Options{})
	require.Nil(t, perr)
	require.NotNil(t, p1)

	p2, _ := c.Compile("a", regex.FlagSet{}, regex.Options{})
	assert.Same(t, p1, p2)

	// flags and options are part of the key
	p3, _ := c.Compile("a", regex.NewFlagSet(regex.FlagCaseInsensitive), regex.Options{})
	assert.NotSame(t, p1, p3)
	assert.Equal(t, 2, c.Len())

	// "a" was used least recently and is purged
	_, _ = c.Compile("a", regex.FlagSet{}, regex.Options{Backend: regex.BackendRE2})
	assert.Equal(t, 2, c.Len())

	p4, _ := c.Compile("a", regex.FlagSet{}, regex.Options{})
	assert.NotSame(t, p1, p4)

	c.Purge()
	assert.Equal(t, 0, c.Len())
}

func TestCacheErrors(t *testing.T) {
	c := NewCache(4)

	_, e1 := c.Compile("(", regex.FlagSet{}, regex.Options{})
	require.NotNil(t, e1)

	_, e2 := c.Compile("(", regex.FlagSet{}, regex.Options{})
	assert.Same(t, e1, e2)
	assert.Equal(t, 1, c.Len())

	p, perr := c.Compile("", regex.FlagSet{}, regex.Options{})
	assert.Nil(t, p)
	assert.Nil(t, perr)
	assert.Equal(t, 1, c.Len())
}

func TestCacheConcurrent(t *testing.T) {
	c := NewCache(8)

	var wg sync.WaitGroup
	for i := 0; i < 16; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()

			for j := 0; j < 50; j++ {
				p, perr := c.Compile(fmt.Sprintf("a{%d}", (i+j)%12), regex.FlagSet{}, regex.Options{})
				assert.Nil(t, perr)
				assert.NotNil(t, p)
			}
		}(i)
	}
	wg.Wait()

	assert.LessOrEqual(t, c.Len(), 8)
}

func TestEvaluatorPurge(t *testing.T) {
	ev := NewEvaluator(Config{CacheSize: 4})
	_, _ = ev.Compile("a", regex.FlagSet{})
	assert.Equal(t, 1, ev.cache.Len())

	ev.Purge()
	assert.Equal(t, 0, ev.cache.Len())

	// without cache
	ev = NewEvaluator(Config{})
	assert.Nil(t, ev.cache)
	ev.Purge()

	p, perr := ev.Compile("a", regex.FlagSet{})
	assert.Nil(t, perr)
	assert.NotNil(t, p)
}
