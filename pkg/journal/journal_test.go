package journal

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/go-redis/redis/v8"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"

	"github.com/omimic12/proxy6-automator/pkg"
)

func TestMemory(t *testing.T) {
	m := NewMemory()
	m.Append(pkg.NewEntry(pkg.SeverityInfo, "first", ""))

	snapshot := m.Entries()
	m.Append(pkg.NewEntry(pkg.SeverityError, "second", "boom"))

	require.Len(t, snapshot, 1)
	assert.Equal(t, 2, m.Len())

	entries := m.Entries()
	assert.Equal(t, "first", entries[0].Message)
	assert.Equal(t, "second", entries[1].Message)
	assert.Equal(t, "boom", entries[1].Detail)
	assert.NotEqual(t, entries[0].ID, entries[1].ID)
}

func TestJournals(t *testing.T) {
	a, b := NewMemory(), NewMemory()
	sinks := pkg.Journals{a, b}

	sinks.Append(pkg.NewEntry(pkg.SeveritySuccess, "done", ""))

	assert.Equal(t, 1, a.Len())
	assert.Equal(t, a.Entries(), b.Entries())
}

func TestZap(t *testing.T) {
	core, logs := observer.New(zapcore.DebugLevel)
	z := NewZap(zap.New(core))

	z.Append(pkg.NewEntry(pkg.SeverityInfo, "fetching", ""))
	z.Append(pkg.NewEntry(pkg.SeverityWarning, "low balance", "need 90"))
	z.Append(pkg.NewEntry(pkg.SeverityError, "buy failed", "Error no money"))
	z.Append(pkg.NewEntry(pkg.SeveritySuccess, "acquired", ""))

	entries := logs.AllUntimed()
	require.Len(t, entries, 4)
	assert.Equal(t, zapcore.InfoLevel, entries[0].Level)
	assert.Equal(t, zapcore.WarnLevel, entries[1].Level)
	assert.Equal(t, "need 90", entries[1].ContextMap()["details"])
	assert.Equal(t, zapcore.ErrorLevel, entries[2].Level)
	assert.Equal(t, zapcore.InfoLevel, entries[3].Level)
}

func TestRedis(t *testing.T) {
	s := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: s.Addr()})
	defer client.Close() //nolint:errcheck

	sub := client.Subscribe(context.Background(), "journal")
	defer sub.Close() //nolint:errcheck
	_, err := sub.Receive(context.Background())
	require.NoError(t, err)

	ctx, cancel := context.WithCancel(context.Background())
	r, err := NewRedis(ctx, 10, "journal:entries", "journal", client, time.Hour, zap.NewNop())
	require.NoError(t, err)

	r.Append(pkg.NewEntry(pkg.SeverityInfo, "fetching", ""))
	r.Append(pkg.NewEntry(pkg.SeverityError, "update failed", "Error proxy not found"))

	cancel()
	r.Wait()

	entries, err := Read(context.Background(), client, "journal:entries", 0)
	require.NoError(t, err)
	require.Len(t, entries, 2)
	assert.Equal(t, "fetching", entries[0].Message)
	assert.Equal(t, pkg.SeverityError, entries[1].Severity)
	assert.Equal(t, "Error proxy not found", entries[1].Detail)

	last, err := Read(context.Background(), client, "journal:entries", 1)
	require.NoError(t, err)
	require.Len(t, last, 1)
	assert.Equal(t, "update failed", last[0].Message)

	msg, err := sub.ReceiveMessage(context.Background())
	require.NoError(t, err)
	assert.Contains(t, msg.Payload, "fetching")
}

func TestRedis_AppendAfterShutdown(t *testing.T) {
	s := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: s.Addr()})
	defer client.Close() //nolint:errcheck

	core, logs := observer.New(zapcore.WarnLevel)

	ctx, cancel := context.WithCancel(context.Background())
	r, err := NewRedis(ctx, 10, "journal:entries", "journal", client, time.Hour, zap.New(core))
	require.NoError(t, err)

	r.Append(pkg.NewEntry(pkg.SeverityInfo, "before", ""))
	cancel()
	r.Wait()

	for i := 0; i < 20; i++ {
		r.Append(pkg.NewEntry(pkg.SeverityInfo, "late", ""))
	}

	entries, err := Read(context.Background(), client, "journal:entries", 0)
	require.NoError(t, err)
	require.Len(t, entries, 1)
	assert.Equal(t, "before", entries[0].Message)

	dropped := logs.FilterMessage("journal closed, entry dropped").AllUntimed()
	require.Len(t, dropped, 20)
	assert.Equal(t, "late", dropped[0].ContextMap()["message"])
}

func TestRedis_ConcurrentAppendDuringShutdown(t *testing.T) {
	s := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: s.Addr()})
	defer client.Close() //nolint:errcheck

	core, logs := observer.New(zapcore.WarnLevel)

	ctx, cancel := context.WithCancel(context.Background())
	r, err := NewRedis(ctx, 4, "journal:entries", "journal", client, time.Hour, zap.New(core))
	require.NoError(t, err)

	const writers, each = 8, 25

	var wg sync.WaitGroup
	for w := 0; w < writers; w++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for i := 0; i < each; i++ {
				r.Append(pkg.NewEntry(pkg.SeverityInfo, "entry", ""))
			}
		}()
	}

	cancel()
	wg.Wait()
	r.Wait()

	stored, err := client.LLen(context.Background(), "journal:entries").Result()
	require.NoError(t, err)

	dropped := logs.FilterMessage("journal closed, entry dropped").Len()
	assert.Equal(t, writers*each, int(stored)+dropped)
}

func TestRedis_FlushesOnTick(t *testing.T) {
	s := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: s.Addr()})
	defer client.Close() //nolint:errcheck

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	r, err := NewRedis(ctx, 10, "journal:entries", "journal", client, 10*time.Millisecond, zap.NewNop())
	require.NoError(t, err)

	r.Append(pkg.NewEntry(pkg.SeverityInfo, "tick", ""))

	assert.Eventually(t, func() bool {
		n, err := client.LLen(context.Background(), "journal:entries").Result()
		return err == nil && n == 1
	}, time.Second, 10*time.Millisecond)
}
