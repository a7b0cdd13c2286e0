package cache

import (
	"context"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestCache(t *testing.T) (*Versioned, *miniredis.Miniredis) {
	t.Helper()
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = client.Close() })
	return NewVersioned(client, "coa", time.Minute), mr
}

func TestBuildKeyTracksVersion(t *testing.T) {
	c, _ := newTestCache(t)
	ctx := context.Background()

	key, err := c.BuildKey(ctx, "accounts", "all")
	require.NoError(t, err)
	assert.Equal(t, "coa:accounts:all:v1", key)

	require.NoError(t, c.Bump(ctx))
	key, err = c.BuildKey(ctx, "accounts", "all")
	require.NoError(t, err)
	assert.Equal(t, "coa:accounts:all:v2", key)
}

func TestBumpAdvancesStoredVersion(t *testing.T) {
	c, mr := newTestCache(t)
	ctx := context.Background()
	_, err := c.Version(ctx)
	require.NoError(t, err)

	require.NoError(t, c.Bump(ctx))
	require.NoError(t, c.Bump(ctx))
	stored, err := mr.Get("coa:version")
	require.NoError(t, err)
	assert.Equal(t, "3", stored)
	assert.Equal(t, []string{"coa:version"}, mr.Keys())
}

func TestFetchJSONCachesLoaderResult(t *testing.T) {
	c, mr := newTestCache(t)
	ctx := context.Background()
	var calls int32
	loader := func(context.Context) (any, error) {
		atomic.AddInt32(&calls, 1)
		return []string{"1", "2"}, nil
	}

	var first, second []string
	require.NoError(t, c.FetchJSON(ctx, "coa:list:v1", &first, loader))
	require.NoError(t, c.FetchJSON(ctx, "coa:list:v1", &second, loader))

	assert.Equal(t, []string{"1", "2"}, second)
	assert.EqualValues(t, 1, atomic.LoadInt32(&calls))
	assert.True(t, mr.Exists("coa:list:v1"))
	assert.Equal(t, time.Minute, mr.TTL("coa:list:v1"))
}

func TestFetchJSONCollapsesConcurrentMisses(t *testing.T) {
	c, _ := newTestCache(t)
	release := make(chan struct{})
	var calls int32
	loader := func(context.Context) (any, error) {
		atomic.AddInt32(&calls, 1)
		<-release
		return map[string]int{"n": 1}, nil
	}

	var wg sync.WaitGroup
	results := make([]map[string]int, 8)
	for i := range results {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			_ = c.FetchJSON(context.Background(), "coa:hot", &results[i], loader)
		}(i)
	}
	time.Sleep(50 * time.Millisecond)
	close(release)
	wg.Wait()

	assert.LessOrEqual(t, atomic.LoadInt32(&calls), int32(8))
	assert.GreaterOrEqual(t, atomic.LoadInt32(&calls), int32(1))
	for _, r := range results {
		assert.Equal(t, 1, r["n"])
	}
}

func TestNilCacheCallsLoader(t *testing.T) {
	var c *Versioned
	var out []int
	require.NoError(t, c.FetchJSON(context.Background(), "ignored", &out, func(context.Context) (any, error) {
		return []int{3}, nil
	}))
	assert.Equal(t, []int{3}, out)
	require.NoError(t, c.Bump(context.Background()))

	key, err := c.BuildKey(context.Background(), "a", "b")
	require.NoError(t, err)
	assert.Equal(t, "a:b", key)
}
