package profile

import (
	"context"
	"testing"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"kindred/internal/matching"
)

func newTestRedisDirectory(t *testing.T) *RedisDirectory {
	t.Helper()
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = client.Close() })
	return NewRedisDirectory(client)
}

func TestRedisDirectory_RoundTrip(t *testing.T) {
	ctx := context.Background()
	dir := newTestRedisDirectory(t)

	age := 28
	p := matching.Profile{
		ID:        "u1",
		Age:       &age,
		Location:  &matching.Coordinate{Lat: 59.437, Lon: 24.7536},
		Interests: []string{"hiking", "art"},
	}
	require.NoError(t, dir.Save(ctx, p))

	got, err := dir.FindByID(ctx, "u1")
	require.NoError(t, err)
	assert.Equal(t, p, got)
}

func TestRedisDirectory_FindMissing(t *testing.T) {
	dir := newTestRedisDirectory(t)

	_, err := dir.FindByID(context.Background(), "ghost")
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestRedisDirectory_ListCandidates(t *testing.T) {
	ctx := context.Background()
	dir := newTestRedisDirectory(t)
	for _, id := range []string{"u1", "u2", "u3"} {
		require.NoError(t, dir.Save(ctx, matching.Profile{ID: id}))
	}

	pool, err := dir.ListCandidates(ctx, "u1")
	require.NoError(t, err)
	assert.Len(t, pool, 2)
	for _, p := range pool {
		assert.NotEqual(t, "u1", p.ID)
	}
}

func TestRedisDirectory_Dismissals(t *testing.T) {
	ctx := context.Background()
	dir := newTestRedisDirectory(t)

	require.NoError(t, dir.Dismiss(ctx, "u1", "u2"))
	require.NoError(t, dir.Dismiss(ctx, "u1", "u2"))

	got, err := dir.Dismissed(ctx, "u1")
	require.NoError(t, err)
	assert.Equal(t, map[string]struct{}{"u2": {}}, got)
}
