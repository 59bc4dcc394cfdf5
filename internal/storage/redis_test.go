package storage

import (
	"context"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRedisClientRoundTrip(t *testing.T) {
	mr := miniredis.RunT(t)
	client, err := Connect(&redis.Options{Addr: mr.Addr()})
	require.NoError(t, err)
	defer client.Close()

	ctx := context.Background()
	require.NoError(t, client.Set(ctx, "k", "v", time.Minute))

	got, err := client.Get(ctx, "k")
	require.NoError(t, err)
	assert.Equal(t, "v", got)

	n, err := client.Incr(ctx, "counter")
	require.NoError(t, err)
	assert.Equal(t, int64(1), n)

	script := redis.NewScript(`return redis.call('GET', KEYS[1])`)
	res, err := client.Eval(ctx, script, []string{"k"})
	require.NoError(t, err)
	assert.Equal(t, "v", res)

	require.NoError(t, client.Del(ctx, "k"))
	count, err := client.Exists(ctx, "k")
	require.NoError(t, err)
	assert.Zero(t, count)
}

func TestConnectFailsWithoutServer(t *testing.T) {
	mr := miniredis.RunT(t)
	addr := mr.Addr()
	mr.Close()

	_, err := Connect(&redis.Options{Addr: addr, MaxRetries: -1})
	assert.Error(t, err)
}
