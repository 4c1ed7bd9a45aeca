package settings

import (
	"context"
	"testing"

	"github.com/alicebob/miniredis/v2"
	"github.com/go-redis/redis/v8"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/omimic12/proxy6-automator/pkg"
)

var saved = pkg.Saved{
	Profile: pkg.Profile{
		Version:     pkg.IPVersion6,
		Protocol:    pkg.HTTP,
		Country:     "us",
		Count:       5,
		Period:      7,
		Tag:         "scraper",
		AutoProlong: true,
	},
	UseRelay: true,
}

func newClient(t *testing.T) (*miniredis.Miniredis, *redis.Client) {
	t.Helper()

	s := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: s.Addr()})
	t.Cleanup(func() { client.Close() }) //nolint:errcheck

	return s, client
}

func TestFixed(t *testing.T) {
	f := NewFixed(pkg.Saved{Profile: pkg.Profile{Country: "br"}})

	got, err := f.Load(context.Background())
	require.NoError(t, err)
	assert.Equal(t, "br", got.Profile.Country)

	got.Profile.Country = "de"
	again, err := f.Load(context.Background())
	require.NoError(t, err)
	assert.Equal(t, "br", again.Profile.Country)

	require.NoError(t, f.Save(context.Background(), &saved))
	again, err = f.Load(context.Background())
	require.NoError(t, err)
	assert.Equal(t, saved, *again)
}

func TestRedis(t *testing.T) {
	s, client := newClient(t)
	r := NewRedis(client, "secret-key")

	_, err := r.Load(context.Background())
	assert.ErrorIs(t, err, pkg.ErrSettingsNotFound)

	require.NoError(t, r.Save(context.Background(), &saved))

	got, err := r.Load(context.Background())
	require.NoError(t, err)
	assert.Equal(t, saved, *got)

	keys := s.Keys()
	require.Len(t, keys, 1)
	assert.Equal(t, Key("secret-key"), keys[0])
	assert.NotContains(t, keys[0], "secret-key")
}

func TestRedis_KeysArePerAPIKey(t *testing.T) {
	_, client := newClient(t)

	require.NoError(t, NewRedis(client, "a").Save(context.Background(), &saved))

	_, err := NewRedis(client, "b").Load(context.Background())
	assert.ErrorIs(t, err, pkg.ErrSettingsNotFound)
	assert.NotEqual(t, Key("a"), Key("b"))
}

func TestRedis_Corrupt(t *testing.T) {
	s, client := newClient(t)
	require.NoError(t, s.Set(Key("k"), "{not json"))

	_, err := NewRedis(client, "k").Load(context.Background())
	require.Error(t, err)
	assert.NotErrorIs(t, err, pkg.ErrSettingsNotFound)
}

func TestFallback(t *testing.T) {
	_, client := newClient(t)
	defaults := pkg.Saved{Profile: pkg.Profile{Country: "br", Count: 1, Period: 30}}
	f := NewFallback(NewRedis(client, "k"), defaults)

	got, err := f.Load(context.Background())
	require.NoError(t, err)
	assert.Equal(t, defaults, *got)

	require.NoError(t, f.Save(context.Background(), &saved))
	got, err = f.Load(context.Background())
	require.NoError(t, err)
	assert.Equal(t, saved, *got)
}
