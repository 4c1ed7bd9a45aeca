package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/pkg/errors"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/omimic12/proxy6-automator/config"
	"github.com/omimic12/proxy6-automator/constants"
	"github.com/omimic12/proxy6-automator/pkg"
	"github.com/omimic12/proxy6-automator/pkg/acquisition"
	"github.com/omimic12/proxy6-automator/pkg/clipboard"
	"github.com/omimic12/proxy6-automator/pkg/journal"
	"github.com/omimic12/proxy6-automator/pkg/wallet"
)

var (
	ErrAcquisitionFailed = errors.New("acquisition failed")
	ErrRedisDisabled     = errors.New("redis is not enabled")
)

func withApp(cfg *config.Config, fn func(ctx context.Context, a *app) error) error {
	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer cancel()

	a, err := newApp(ctx, cfg)
	if err != nil {
		return err
	}
	defer a.Close()

	return fn(ctx, a)
}

type acquireCommand struct {
	cfg *config.Config

	Copy      bool `long:"copy" description:"copy the result to the clipboard even when several proxies were acquired"`
	FromFlags bool `long:"from-flags" description:"use the profile from flags and environment instead of the saved one"`
}

func (c *acquireCommand) Execute(_ []string) error {
	return withApp(c.cfg, func(ctx context.Context, a *app) error {
		if err := a.requireKey(); err != nil {
			return err
		}

		profile := c.cfg.DefaultProfile()
		if !c.FromFlags {
			saved, err := a.settings.Load(ctx)
			if err != nil {
				return errors.Wrap(err, "failed to load saved profile")
			}
			profile = saved.Profile
		}

		var clip pkg.Clipboard
		if !c.cfg.Clipboard.Disabled {
			clip = clipboard.NewOSC52(os.Stderr, c.cfg.Clipboard.Mux)
		}

		w := wallet.NewWatcher(a.provider, a.measure, c.cfg.Balance.Refresh, a.logger)
		o := acquisition.New(a.provider,
			acquisition.WithSettings(a.settings),
			acquisition.WithJournal(a.journal),
			acquisition.WithMeasure(a.measure),
			acquisition.WithClipboard(clip),
			acquisition.WithWallet(w),
			acquisition.WithReuseDelay(c.cfg.Reuse.Delay),
			acquisition.WithLogger(a.logger),
		)

		var result *acquisition.Result

		g, gctx := errgroup.WithContext(ctx)
		watchCtx, stopWatch := context.WithCancel(gctx)
		g.Go(func() error {
			return w.Run(watchCtx)
		})
		g.Go(func() error {
			defer stopWatch()

			res, err := o.Run(gctx, profile)
			if err != nil {
				return err
			}
			result = res
			return nil
		})
		if err := g.Wait(); err != nil {
			return err
		}

		if result.Text != "" {
			fmt.Println(result.Text)
		}
		if c.Copy && clip != nil && len(result.Items) > 1 {
			if err := clip.Copy(result.Text); err != nil {
				a.logger.Warn("failed to copy to clipboard", zap.Error(err))
			}
		}

		reused, purchased := result.Counts()
		a.logger.Info("acquisition finished",
			zap.Stringer("state", result.State),
			zap.Int("reused", reused),
			zap.Int("purchased", purchased),
			zap.Bool("relay", result.Relayed),
			zap.String("balance", w.Display()),
		)

		if result.State == acquisition.Failed {
			return ErrAcquisitionFailed
		}
		return nil
	})
}

type balanceCommand struct {
	cfg *config.Config
}

func (c *balanceCommand) Execute(_ []string) error {
	return withApp(c.cfg, func(ctx context.Context, a *app) error {
		if err := a.requireKey(); err != nil {
			return err
		}

		w := wallet.NewWatcher(a.provider, a.measure, c.cfg.Balance.Refresh, a.logger)
		if _, err := w.Refresh(ctx); err != nil {
			a.journal.Append(pkg.NewEntry(pkg.SeverityError, "Balance Check Failed: "+pkg.Reason(err), ""))
			return err
		}

		fmt.Println(w.Display())
		return nil
	})
}

type countriesCommand struct {
	cfg *config.Config
}

func (c *countriesCommand) Execute(_ []string) error {
	return withApp(c.cfg, func(ctx context.Context, a *app) error {
		countries := constants.Countries

		if c.cfg.API.Key != "" {
			list, err := a.provider.Countries(ctx, pkg.IPVersion(c.cfg.Profile.Version))
			if err != nil {
				a.logger.Warn("failed to fetch countries, using built-in list", zap.Error(err))
			} else {
				countries = list
			}
		}

		for _, country := range countries {
			fmt.Println(country)
		}
		return nil
	})
}

type watchCommand struct {
	cfg *config.Config
}

func (c *watchCommand) Execute(_ []string) error {
	return withApp(c.cfg, func(ctx context.Context, a *app) error {
		if err := a.requireKey(); err != nil {
			return err
		}

		w := wallet.NewWatcher(a.provider, a.measure, c.cfg.Balance.Refresh, a.logger)

		g, gctx := errgroup.WithContext(ctx)
		g.Go(func() error {
			return w.Run(gctx)
		})
		g.Go(func() error {
			ticker := time.NewTicker(time.Second)
			defer ticker.Stop()

			last := ""
			for {
				select {
				case <-gctx.Done():
					return nil
				case <-ticker.C:
					if d := w.Display(); d != last {
						fmt.Println(d)
						a.journal.Append(pkg.NewEntry(pkg.SeverityInfo, "Balance updated: "+d, ""))
						last = d
					}
				}
			}
		})

		return g.Wait()
	})
}

type saveCommand struct {
	cfg *config.Config
}

func (c *saveCommand) Execute(_ []string) error {
	return withApp(c.cfg, func(ctx context.Context, a *app) error {
		saved := &pkg.Saved{
			Profile:  c.cfg.DefaultProfile(),
			UseRelay: c.cfg.API.UseRelay,
		}
		if err := saved.Profile.Validate(); err != nil {
			return errors.Wrap(err, "invalid profile")
		}

		if a.redis == nil {
			a.logger.Warn("redis is not enabled, the profile only lives until exit")
		}

		if err := a.settings.Save(ctx, saved); err != nil {
			return err
		}

		a.journal.Append(pkg.NewEntry(pkg.SeverityInfo, "Configuration saved.", ""))
		return nil
	})
}

type historyCommand struct {
	cfg *config.Config

	Limit int64 `long:"limit" default:"50" description:"number of entries, 0 for all"`
}

func (c *historyCommand) Execute(_ []string) error {
	return withApp(c.cfg, func(ctx context.Context, a *app) error {
		if a.redis == nil {
			return ErrRedisDisabled
		}

		entries, err := journal.Read(ctx, a.redis, c.cfg.Redis.Key, c.Limit)
		if err != nil {
			return errors.Wrap(err, "failed to read journal")
		}

		for _, e := range entries {
			line := fmt.Sprintf("%s [%s] %s", e.Time.Format(time.RFC3339), e.Severity, e.Message)
			if e.Detail != "" {
				line += ": " + e.Detail
			}
			fmt.Println(line)
		}
		return nil
	})
}
