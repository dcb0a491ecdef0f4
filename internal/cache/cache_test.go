package cache

import (
	"context"
	"testing"
	"time"

	"github.com/go-redis/redis/v8"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestKey(t *testing.T) {
	assert.Equal(t, "ssis:dropdown:colleges", Key("colleges"))
}

func TestNop(t *testing.T) {
	var c DropdownCache = Nop{}
	ctx := context.Background()

	require.NoError(t, c.Set(ctx, "colleges", []string{"CCS"}))
	var out []string
	hit, err := c.Get(ctx, "colleges", &out)
	require.NoError(t, err)
	assert.False(t, hit)
	assert.NoError(t, c.Invalidate(ctx, "colleges", "programs"))
}

func TestRedisCache_UnreachableServer(t *testing.T) {
	client := redis.NewClient(&redis.Options{Addr: "127.0.0.1:1", DialTimeout: 50 * time.Millisecond, MaxRetries: -1})
	c := NewRedisCacheWithClient(client, time.Minute)
	defer c.Close()

	ctx := context.Background()
	var out []string
	hit, err := c.Get(ctx, "colleges", &out)
	assert.False(t, hit)
	assert.Error(t, err)
	assert.Error(t, c.Set(ctx, "colleges", []string{"CCS"}))
	assert.NoError(t, c.Invalidate(ctx), "no keys means no round trip")
}
