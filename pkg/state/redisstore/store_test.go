package redisstore_test

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	params "github.com/goliatone/go-params"
	"github.com/goliatone/go-params/pkg/state/redisstore"
	"github.com/goliatone/go-params/pkg/state/statetest"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newStore(t *testing.T, opts ...redisstore.Option) (*redisstore.Store, *miniredis.Miniredis) {
	t.Helper()
	s := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: s.Addr()})
	t.Cleanup(func() { _ = client.Close() })
	store, err := redisstore.New(client, opts...)
	require.NoError(t, err)
	return store, s
}

func TestContract(t *testing.T) {
	statetest.Run(t, func(t *testing.T) params.Store {
		store, _ := newStore(t, redisstore.WithPrefix("params:"))
		return store
	})
}

func TestStoresJSONUnderPrefix(t *testing.T) {
	store, mr := newStore(t, redisstore.WithPrefix("params:"))
	ctx := context.Background()

	require.NoError(t, store.Set(ctx, "~robot/limits", []int{0, 50, 100}))

	raw, err := mr.Get("params:~robot/limits")
	require.NoError(t, err)
	assert.JSONEq(t, `[0,50,100]`, raw)

	got, err := store.Get(ctx, "~robot/limits")
	require.NoError(t, err)
	assert.Equal(t, []any{0.0, 50.0, 100.0}, got)
}

func TestMissingKeyMapsToNotFound(t *testing.T) {
	store, _ := newStore(t)
	_, err := store.Get(context.Background(), "~absent")
	assert.True(t, errors.Is(err, params.ErrNotFound))
}

func TestCorruptValueIsReported(t *testing.T) {
	store, mr := newStore(t)
	require.NoError(t, mr.Set("~rate", "{not json"))
	_, err := store.Get(context.Background(), "~rate")
	require.Error(t, err)
	assert.False(t, errors.Is(err, params.ErrNotFound))
}

func TestTransientFailuresAreRetriedThenSurfaced(t *testing.T) {
	store, mr := newStore(t, redisstore.WithRetry(2, time.Millisecond))
	mr.SetError("ERR backend unavailable")

	_, err := store.Get(context.Background(), "~rate")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "backend unavailable")

	mr.SetError("")
	require.NoError(t, store.Set(context.Background(), "~rate", 1.5))
}

func TestResolveAgainstRedis(t *testing.T) {
	store, mr := newStore(t, redisstore.WithPrefix("params:"))
	require.NoError(t, mr.Set("params:~limits", `[-5, 50, 200]`))

	set := params.MustDescriptorSet(
		params.Descriptor{Name: "limits", Kind: params.KindVector, Type: params.TypeInt, Min: params.Float(0), Max: params.Float(100), Default: []int{0}},
		params.Descriptor{Name: "rate", Type: params.TypeFloat, Default: 5.0},
	)
	host := params.NewMapRecord(set)
	report, err := params.New().Resolve(context.Background(), set, store, host)
	require.NoError(t, err)

	limits, _ := host.Get("limits")
	assert.Equal(t, []int{0, 50, 100}, limits)
	assert.Len(t, report.Warnings(), 2)

	raw, err := mr.Get("params:~rate")
	require.NoError(t, err)
	assert.Equal(t, "5", raw)

	keys, err := store.Keys(context.Background(), "~")
	require.NoError(t, err)
	assert.ElementsMatch(t, []string{"~limits", "~rate"}, keys)
}

func TestNewRejectsNilClient(t *testing.T) {
	_, err := redisstore.New(nil)
	require.Error(t, err)
}
