package journal

import (
	"context"
	"encoding/json"
	"sync"
	"time"

	"github.com/go-redis/redis/v8"
	"go.uber.org/zap"

	"github.com/omimic12/proxy6-automator/pkg"
)

// Redis batches entries and flushes them every period: each batch is pushed
// to the list at key and every entry is published on channel. Entries
// appended after the context is done are logged and dropped.
type Redis struct {
	data    chan []byte
	closing chan struct{}
	done    chan struct{}
	logger  *zap.Logger

	mu     sync.RWMutex
	closed bool
}

func NewRedis(
	ctx context.Context,
	bufferSize int,
	key string,
	channel string,
	client *redis.Client,
	period time.Duration,
	logger *zap.Logger,
) (*Redis, error) {
	r := &Redis{
		data:    make(chan []byte, bufferSize),
		closing: make(chan struct{}),
		done:    make(chan struct{}),
		logger:  logger,
	}

	go func() {
		defer close(r.done)

		ticker := time.NewTicker(period)
		defer ticker.Stop()

		var buf [][]byte
		flush := func() {
			if len(buf) == 0 {
				return
			}
			if err := publish(client, key, channel, buf); err != nil {
				logger.Error("failed to flush journal", zap.Int("entries", len(buf)), zap.Error(err))
			}
			buf = nil
		}

		for {
			select {
			case <-ctx.Done():
				// no sends once closed is set, so the drain below sees every entry
				close(r.closing)
				r.mu.Lock()
				r.closed = true
				r.mu.Unlock()

				for {
					select {
					case d := <-r.data:
						buf = append(buf, d)
					default:
						flush()
						return
					}
				}
			case <-ticker.C:
				flush()
			case d := <-r.data:
				buf = append(buf, d)
			}
		}
	}()

	return r, nil
}

func publish(client *redis.Client, key string, channel string, buf [][]byte) error {
	ctx := context.Background()

	values := make([]interface{}, 0, len(buf))
	for _, d := range buf {
		values = append(values, d)
	}

	pipe := client.Pipeline()
	pipe.RPush(ctx, key, values...)
	for _, d := range buf {
		pipe.Publish(ctx, channel, d)
	}

	_, err := pipe.Exec(ctx)
	return err
}

func (r *Redis) Append(entry pkg.Entry) {
	d, err := json.Marshal(entry)
	if err != nil {
		r.logger.Error("failed to encode journal entry", zap.Error(err))
		return
	}

	r.mu.RLock()
	defer r.mu.RUnlock()

	if r.closed {
		r.dropped(entry)
		return
	}

	select {
	case r.data <- d:
	case <-r.closing:
		r.dropped(entry)
	}
}

func (r *Redis) dropped(entry pkg.Entry) {
	r.logger.Warn("journal closed, entry dropped", zap.String("message", entry.Message))
}

// Wait blocks until the context given to NewRedis is done and the last batch
// has been flushed.
func (r *Redis) Wait() {
	<-r.done
}

// Read returns the entries stored at key, oldest first.
func Read(ctx context.Context, client *redis.Client, key string, limit int64) ([]pkg.Entry, error) {
	start := int64(0)
	if limit > 0 {
		start = -limit
	}

	raw, err := client.LRange(ctx, key, start, -1).Result()
	if err != nil {
		return nil, err
	}

	entries := make([]pkg.Entry, 0, len(raw))
	for _, d := range raw {
		var entry pkg.Entry
		if err := json.Unmarshal([]byte(d), &entry); err != nil {
			return nil, err
		}
		entries = append(entries, entry)
	}

	return entries, nil
}
