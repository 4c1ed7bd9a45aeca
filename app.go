package main

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"github.com/go-redis/redis/v8"
	influxdb2 "github.com/influxdata/influxdb-client-go/v2"
	"github.com/pkg/errors"
	"go.uber.org/zap"
	"golang.org/x/time/rate"

	"github.com/omimic12/proxy6-automator/config"
	"github.com/omimic12/proxy6-automator/database"
	"github.com/omimic12/proxy6-automator/pkg"
	"github.com/omimic12/proxy6-automator/pkg/journal"
	"github.com/omimic12/proxy6-automator/pkg/measure"
	"github.com/omimic12/proxy6-automator/pkg/provider"
	"github.com/omimic12/proxy6-automator/pkg/settings"
)

const (
	postgresWriteTimeout = 5 * time.Second
	measureBufferSize    = 100
)

var (
	ErrMissingKey = errors.New("API Key is missing. Please check settings.")
)

// app holds everything a command needs. Background sinks run on their own
// context so they can flush after the command's context is cancelled.
type app struct {
	cfg      *config.Config
	logger   *zap.Logger
	redis    *redis.Client
	provider pkg.Provider
	settings pkg.Settings
	journal  pkg.Journals
	measure  pkg.Measure

	stopSinks context.CancelFunc
	waiters   []func()
	closers   []func()
}

func newLogger(cfg *config.Config) (*zap.Logger, error) {
	lc := zap.NewProductionConfig()
	if cfg.Debug {
		lc = zap.NewDevelopmentConfig()
		lc.Development = true
	}

	return lc.Build()
}

func newApp(ctx context.Context, cfg *config.Config) (*app, error) {
	logger, err := newLogger(cfg)
	if err != nil {
		return nil, err
	}

	sinkCtx, stopSinks := context.WithCancel(context.Background())
	a := &app{
		cfg:       cfg,
		logger:    logger,
		stopSinks: stopSinks,
		journal:   pkg.Journals{journal.NewZap(logger)},
		measure:   measure.Noop{},
	}

	if err := a.connect(ctx, sinkCtx); err != nil {
		a.Close()
		return nil, err
	}

	defaults := pkg.Saved{Profile: cfg.DefaultProfile(), UseRelay: cfg.API.UseRelay}
	if a.redis != nil {
		a.settings = settings.NewFallback(settings.NewRedis(a.redis, cfg.API.Key), defaults)
	} else {
		a.settings = settings.NewFixed(defaults)
	}

	relay := cfg.API.UseRelay
	if saved, err := a.settings.Load(ctx); err == nil {
		relay = relay || saved.UseRelay
	}

	px6 := provider.NewPX6(
		cfg.API.Key,
		cfg.API.BaseURL,
		cfg.API.RelayPrefix,
		relay,
		&http.Client{Timeout: cfg.API.Timeout},
		rate.NewLimiter(rate.Limit(cfg.API.Rate), 1),
		logger,
	)
	a.provider = provider.NewCached(px6, cfg.Cache.Size, cfg.Cache.TTL)

	return a, nil
}

func (a *app) connect(ctx context.Context, sinkCtx context.Context) error {
	cfg := a.cfg

	if cfg.Redis.Enabled {
		options, err := redis.ParseURL(fmt.Sprintf("%s/%d", cfg.Redis.DSN, cfg.Redis.DB))
		if err != nil {
			return errors.Wrap(err, "failed to parse redis dsn")
		}

		a.redis = redis.NewClient(options)
		a.closers = append(a.closers, func() { a.redis.Close() }) //nolint:errcheck

		if err := a.redis.Ping(ctx).Err(); err != nil {
			return errors.Wrap(err, "failed to ping redis")
		}

		sink, err := journal.NewRedis(sinkCtx, cfg.Redis.Buffer, cfg.Redis.Key, cfg.Redis.Channel, a.redis, cfg.Redis.Flush, a.logger)
		if err != nil {
			return err
		}
		a.journal = append(a.journal, sink)
		a.waiters = append(a.waiters, sink.Wait)
	}

	if cfg.Postgres.Enabled {
		db, err := database.Connect(ctx, cfg)
		if err != nil {
			return err
		}
		a.closers = append(a.closers, func() { db.Close() }) //nolint:errcheck

		sink, err := journal.NewPostgres(ctx, db, postgresWriteTimeout, a.logger)
		if err != nil {
			return err
		}
		a.journal = append(a.journal, sink)
	}

	if cfg.InfluxDB.Enabled {
		client := influxdb2.NewClient(cfg.InfluxDB.URL, cfg.InfluxDB.Token)
		a.closers = append(a.closers, client.Close)

		m, err := measure.NewInfluxDB(
			sinkCtx,
			measureBufferSize,
			cfg.InfluxDB.Organization,
			cfg.InfluxDB.Bucket,
			pkg.ProviderPX6,
			client,
			cfg.InfluxDB.Period,
			a.logger,
		)
		if err != nil {
			return err
		}
		a.measure = m
		a.waiters = append(a.waiters, m.Wait)
	}

	return nil
}

func (a *app) requireKey() error {
	if a.cfg.API.Key == "" {
		a.journal.Append(pkg.NewEntry(pkg.SeverityError, ErrMissingKey.Error(), ""))
		return ErrMissingKey
	}
	return nil
}

// Close flushes the background sinks, then releases connections.
func (a *app) Close() {
	a.stopSinks()
	for _, wait := range a.waiters {
		wait()
	}
	for i := len(a.closers) - 1; i >= 0; i-- {
		a.closers[i]()
	}
	a.logger.Sync() //nolint:errcheck
}
