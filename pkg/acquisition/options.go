package acquisition

import (
	"context"
	"time"

	"go.uber.org/zap"

	"github.com/omimic12/proxy6-automator/constants"
	"github.com/omimic12/proxy6-automator/pkg"
	"github.com/omimic12/proxy6-automator/pkg/measure"
)

// Wallet receives balances learned during a run.
type Wallet interface {
	Set(balance pkg.Balance)
}

type Options struct {
	Settings  pkg.Settings
	Journal   pkg.Journal
	Measure   pkg.Measure
	Clipboard pkg.Clipboard
	Wallet    Wallet
	// ReuseDelay is waited after every description update.
	ReuseDelay time.Duration
	Sleep      func(ctx context.Context, d time.Duration)
	Now        func() time.Time
	Logger     *zap.Logger
}

type Option func(*Options)

func defaultOptions() Options {
	return Options{
		Journal:    pkg.Journals{},
		Measure:    measure.Noop{},
		ReuseDelay: constants.ReuseDelay,
		Sleep:      sleep,
		Now:        time.Now,
		Logger:     zap.NewNop(),
	}
}

func WithSettings(settings pkg.Settings) Option {
	return func(options *Options) {
		options.Settings = settings
	}
}

func WithJournal(journal pkg.Journal) Option {
	return func(options *Options) {
		options.Journal = journal
	}
}

func WithMeasure(m pkg.Measure) Option {
	return func(options *Options) {
		options.Measure = m
	}
}

func WithClipboard(clipboard pkg.Clipboard) Option {
	return func(options *Options) {
		options.Clipboard = clipboard
	}
}

func WithWallet(wallet Wallet) Option {
	return func(options *Options) {
		options.Wallet = wallet
	}
}

func WithReuseDelay(delay time.Duration) Option {
	return func(options *Options) {
		options.ReuseDelay = delay
	}
}

func WithSleep(fn func(ctx context.Context, d time.Duration)) Option {
	return func(options *Options) {
		options.Sleep = fn
	}
}

func WithClock(now func() time.Time) Option {
	return func(options *Options) {
		options.Now = now
	}
}

func WithLogger(logger *zap.Logger) Option {
	return func(options *Options) {
		options.Logger = logger
	}
}

func sleep(ctx context.Context, d time.Duration) {
	if d <= 0 {
		return
	}

	timer := time.NewTimer(d)
	defer timer.Stop()

	select {
	case <-ctx.Done():
	case <-timer.C:
	}
}
