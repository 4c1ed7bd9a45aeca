package provider

import (
	"context"
	"strconv"
	"time"

	"github.com/bluele/gcache"

	"github.com/omimic12/proxy6-automator/pkg"
)

// Cached keeps price quotes and country lists for ttl. Inventory, balance and
// every mutating call go straight to the wrapped provider.
type Cached struct {
	pkg.Provider
	cache gcache.Cache
	ttl   time.Duration
}

func NewCached(provider pkg.Provider, size int, ttl time.Duration) *Cached {
	cache := gcache.New(size).
		LRU().
		Build()

	return &Cached{
		Provider: provider,
		cache:    cache,
		ttl:      ttl,
	}
}

func (c *Cached) WithRelay(enabled bool) pkg.Provider {
	return &Cached{
		Provider: c.Provider.WithRelay(enabled),
		cache:    c.cache,
		ttl:      c.ttl,
	}
}

func (c *Cached) Price(ctx context.Context, profile pkg.Profile, count int) (*pkg.Quote, error) {
	key := "price:" + string(profile.Version) + ":" + strconv.Itoa(profile.Period) + ":" + strconv.Itoa(count)
	if v, err := c.cache.Get(key); err == nil {
		quote := *v.(*pkg.Quote)
		return &quote, nil
	}

	quote, err := c.Provider.Price(ctx, profile, count)
	if err != nil {
		return nil, err
	}

	stored := *quote
	c.cache.SetWithExpire(key, &stored, c.ttl) //nolint:errcheck
	return quote, nil
}

func (c *Cached) Countries(ctx context.Context, version pkg.IPVersion) ([]string, error) {
	key := "countries:" + string(version)
	if v, err := c.cache.Get(key); err == nil {
		return append([]string(nil), v.([]string)...), nil
	}

	countries, err := c.Provider.Countries(ctx, version)
	if err != nil {
		return nil, err
	}

	c.cache.SetWithExpire(key, append([]string(nil), countries...), c.ttl) //nolint:errcheck
	return countries, nil
}

func (c *Cached) Purge() {
	c.cache.Purge()
}
