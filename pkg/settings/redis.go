package settings

import (
	"context"
	"encoding/json"
	"strconv"

	"github.com/cespare/xxhash/v2"
	"github.com/go-redis/redis/v8"
	"github.com/pkg/errors"

	"github.com/omimic12/proxy6-automator/pkg"
)

const keyPrefix = "px6:profile:"

// Redis stores one settings document per API key. The key itself never
// reaches Redis, only its hash.
type Redis struct {
	client *redis.Client
	key    string
}

func NewRedis(client *redis.Client, apiKey string) *Redis {
	return &Redis{
		client: client,
		key:    Key(apiKey),
	}
}

func Key(apiKey string) string {
	return keyPrefix + strconv.FormatUint(xxhash.Sum64String(apiKey), 16)
}

func (r *Redis) Load(ctx context.Context) (*pkg.Saved, error) {
	d, err := r.client.Get(ctx, r.key).Bytes()
	if err == redis.Nil {
		return nil, pkg.ErrSettingsNotFound
	}
	if err != nil {
		return nil, errors.Wrap(err, "failed to load settings")
	}

	var saved pkg.Saved
	if err := json.Unmarshal(d, &saved); err != nil {
		return nil, errors.Wrap(err, "failed to decode settings")
	}

	return &saved, nil
}

func (r *Redis) Save(ctx context.Context, saved *pkg.Saved) error {
	d, err := json.Marshal(saved)
	if err != nil {
		return errors.Wrap(err, "failed to encode settings")
	}

	return errors.Wrap(r.client.Set(ctx, r.key, d, 0).Err(), "failed to save settings")
}

// Fallback loads from the primary store and falls back to defaults when
// nothing was saved yet. Saves go to the primary store.
type Fallback struct {
	primary  pkg.Settings
	defaults pkg.Saved
}

func NewFallback(primary pkg.Settings, defaults pkg.Saved) *Fallback {
	return &Fallback{primary: primary, defaults: defaults}
}

func (f *Fallback) Load(ctx context.Context) (*pkg.Saved, error) {
	saved, err := f.primary.Load(ctx)
	if errors.Is(err, pkg.ErrSettingsNotFound) {
		defaults := f.defaults
		return &defaults, nil
	}
	return saved, err
}

func (f *Fallback) Save(ctx context.Context, saved *pkg.Saved) error {
	return f.primary.Save(ctx, saved)
}
