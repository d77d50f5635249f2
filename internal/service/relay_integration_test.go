package service

import (
	"context"
	"encoding/json"
	"slices"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	redisrepo "github.com/freeeve/age-of-conquest/internal/repository/redis"
	"github.com/freeeve/age-of-conquest/internal/testutil"
)

// Two service instances share one Redis: commands on the first reach
// clients of the second through the relay.
func TestRelayAcrossInstances(t *testing.T) {
	rdb := testutil.SetupRedis(t)
	cache := redisrepo.NewClientFromPool(rdb, time.Minute)
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	remote := &mockBroadcaster{}
	go NewEventRelay(rdb, remote).Start(ctx)

	// Wait for the subscription to be live before creating anything.
	ready, err := json.Marshal(eventEnvelope{Type: "ready", Data: map[string]int{"n": 1}})
	require.NoError(t, err)
	require.Eventually(t, func() bool {
		_ = cache.PublishEvent(ctx, "ready", ready)
		return len(remote.types("ready")) > 0
	}, 5*time.Second, 50*time.Millisecond)

	local := &mockBroadcaster{}
	svc := NewMatchService(cache, local, testSettings())
	t.Cleanup(svc.Shutdown)
	id, _ := createMatch(t, svc)

	require.Eventually(t, func() bool {
		return slices.Contains(remote.types(id), "state")
	}, 5*time.Second, 50*time.Millisecond)
	assert.Empty(t, local.types(id), "published events should not also be broadcast locally")

	cached, err := cache.GetSnapshot(ctx, id)
	require.NoError(t, err)
	assert.NotEmpty(t, cached)

	require.NoError(t, svc.End(ctx, id))
	cached, err = cache.GetSnapshot(ctx, id)
	require.NoError(t, err)
	assert.Empty(t, cached)
}
