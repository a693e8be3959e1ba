package cache_test

import (
	"context"
	"os"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/require"

	"whatsstore/internal/cache"
)

func newCache(t *testing.T) *cache.CartCache {
	t.Helper()
	addr := os.Getenv("REDIS_ADDR")
	if addr == "" {
		t.Skip("REDIS_ADDR not set")
	}
	c := cache.NewCartCache(addr, "whatsstore-test")
	if err := c.Ping(context.Background()); err != nil {
		t.Skipf("redis not reachable: %v", err)
	}
	t.Cleanup(func() { _ = c.Close() })
	return c
}

func TestGenerateKey(t *testing.T) {
	c := cache.NewCartCache("127.0.0.1:0", "whatsstore")
	defer c.Close()
	require.Equal(t, "whatsstore:cart:abc", c.GenerateKey("cart", "abc"))
}

func TestCartRoundTrip(t *testing.T) {
	c := newCache(t)
	ctx := context.Background()
	sid := uuid.NewString()
	t.Cleanup(func() { _ = c.DeleteCart(ctx, sid) })

	got, err := c.LoadCart(ctx, sid)
	require.NoError(t, err)
	require.Nil(t, got)

	require.NoError(t, c.SaveCart(ctx, sid, []byte(`[{"id":"mug-01","quantity":2}]`)))
	got, err = c.LoadCart(ctx, sid)
	require.NoError(t, err)
	require.JSONEq(t, `[{"id":"mug-01","quantity":2}]`, string(got))
}
