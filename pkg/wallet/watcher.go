package wallet

import (
	"context"
	"sync"
	"time"

	"go.uber.org/zap"
	"golang.org/x/sync/singleflight"

	"github.com/omimic12/proxy6-automator/pkg"
)

const unknown = "---"

// Watcher keeps the last known wallet balance. Refreshes may come from its own
// ticker and from callers at the same time; they share one provider call.
type Watcher struct {
	measure pkg.Measure
	period  time.Duration
	logger  *zap.Logger
	group   singleflight.Group

	mu       sync.RWMutex
	provider pkg.Provider
	balance  *pkg.Balance
	updated  time.Time
}

func NewWatcher(provider pkg.Provider, measure pkg.Measure, period time.Duration, logger *zap.Logger) *Watcher {
	return &Watcher{
		provider: provider,
		measure:  measure,
		period:   period,
		logger:   logger,
	}
}

// Run refreshes immediately and then every period until ctx is done.
func (w *Watcher) Run(ctx context.Context) error {
	ticker := time.NewTicker(w.period)
	defer ticker.Stop()

	for {
		if _, err := w.Refresh(ctx); err != nil {
			w.logger.Warn("failed to refresh balance", zap.Error(err))
		}

		select {
		case <-ctx.Done():
			return nil
		case <-ticker.C:
		}
	}
}

func (w *Watcher) Refresh(ctx context.Context) (*pkg.Balance, error) {
	v, err, _ := w.group.Do("balance", func() (interface{}, error) {
		return w.fetch(ctx)
	})
	if err != nil {
		return nil, err
	}

	balance := *v.(*pkg.Balance)
	return &balance, nil
}

func (w *Watcher) fetch(ctx context.Context) (*pkg.Balance, error) {
	w.mu.RLock()
	provider := w.provider
	w.mu.RUnlock()

	balance, err := provider.Balance(ctx)
	if pkg.IsTransport(err) && !provider.Relayed() {
		w.logger.Warn("balance unreachable, switching to relay", zap.Error(err))
		provider = provider.WithRelay(true)

		w.mu.Lock()
		w.provider = provider
		w.mu.Unlock()

		balance, err = provider.Balance(ctx)
	}

	if err != nil {
		if pkg.IsRejected(err) {
			w.clear()
		}
		return nil, err
	}

	w.Set(*balance)
	if err := w.measure.Balance(*balance); err != nil {
		w.logger.Warn("failed to measure balance", zap.Error(err))
	}

	w.logger.Debug("balance updated", zap.String("balance", balance.Display()))
	return balance, nil
}

// Set records a balance learned elsewhere, e.g. from a purchase response.
func (w *Watcher) Set(balance pkg.Balance) {
	w.mu.Lock()
	defer w.mu.Unlock()

	w.balance = &balance
	w.updated = time.Now()
}

func (w *Watcher) clear() {
	w.mu.Lock()
	defer w.mu.Unlock()

	w.balance = nil
}

func (w *Watcher) Current() (pkg.Balance, time.Time, bool) {
	w.mu.RLock()
	defer w.mu.RUnlock()

	if w.balance == nil {
		return pkg.Balance{}, w.updated, false
	}
	return *w.balance, w.updated, true
}

func (w *Watcher) Relayed() bool {
	w.mu.RLock()
	defer w.mu.RUnlock()

	return w.provider.Relayed()
}

// Display is "<amount> <currency>", or "---" until a balance is known.
func (w *Watcher) Display() string {
	balance, _, ok := w.Current()
	if !ok {
		return unknown
	}
	return balance.Display()
}
