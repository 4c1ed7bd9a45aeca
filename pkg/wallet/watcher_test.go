package wallet

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/omimic12/proxy6-automator/pkg"
	"github.com/omimic12/proxy6-automator/pkg/measure"
	"github.com/omimic12/proxy6-automator/pkg/provider/providertest"
)

type recordingMeasure struct {
	measure.Noop
	mu       sync.Mutex
	balances []pkg.Balance
}

func (m *recordingMeasure) Balance(balance pkg.Balance) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.balances = append(m.balances, balance)
	return nil
}

func TestWatcher_Refresh(t *testing.T) {
	fake := providertest.New()
	m := &recordingMeasure{}
	w := NewWatcher(fake, m, time.Minute, zap.NewNop())

	assert.Equal(t, "---", w.Display())

	balance, err := w.Refresh(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 100.0, balance.Amount)
	assert.Equal(t, "100 RUB", w.Display())
	assert.Len(t, m.balances, 1)

	w.Set(pkg.Balance{Amount: 12.5, Currency: "RUB"})
	assert.Equal(t, "12.5 RUB", w.Display())
}

func TestWatcher_RejectedClears(t *testing.T) {
	fake := providertest.New()
	w := NewWatcher(fake, measure.Noop{}, time.Minute, zap.NewNop())
	w.Set(pkg.Balance{Amount: 1, Currency: "RUB"})

	fake.BalanceFunc = func(bool) (*pkg.Balance, error) {
		return nil, &pkg.RejectedError{Method: "balance", Message: "Error key"}
	}

	_, err := w.Refresh(context.Background())
	assert.True(t, pkg.IsRejected(err))
	assert.Equal(t, "---", w.Display())
	assert.Equal(t, 1, fake.Count("balance"))
}

func TestWatcher_FallsBackToRelay(t *testing.T) {
	fake := providertest.New()
	fake.BalanceFunc = func(relayed bool) (*pkg.Balance, error) {
		if !relayed {
			return nil, &pkg.TransportError{Method: "balance", Err: errors.New("connection refused")}
		}
		return &pkg.Balance{Amount: 7, Currency: "USD"}, nil
	}

	w := NewWatcher(fake, measure.Noop{}, time.Minute, zap.NewNop())

	_, err := w.Refresh(context.Background())
	require.NoError(t, err)
	assert.True(t, w.Relayed())
	assert.Equal(t, "7 USD", w.Display())

	_, err = w.Refresh(context.Background())
	require.NoError(t, err)

	calls := fake.Calls("balance")
	require.Len(t, calls, 3)
	assert.False(t, calls[0].Relayed)
	assert.True(t, calls[1].Relayed)
	assert.True(t, calls[2].Relayed)
}

func TestWatcher_ConcurrentRefreshShareOneCall(t *testing.T) {
	fake := providertest.New()
	fake.Block = make(chan struct{})
	w := NewWatcher(fake, measure.Noop{}, time.Minute, zap.NewNop())

	var (
		wg        sync.WaitGroup
		succeeded atomic.Int32
	)
	for i := 0; i < 5; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			if _, err := w.Refresh(context.Background()); err == nil {
				succeeded.Add(1)
			}
		}()
	}

	require.Eventually(t, func() bool { return fake.Count("balance") == 1 }, time.Second, time.Millisecond)
	time.Sleep(50 * time.Millisecond)
	close(fake.Block)
	wg.Wait()

	assert.Equal(t, int32(5), succeeded.Load())
	assert.Equal(t, 1, fake.Count("balance"))
}

func TestWatcher_Run(t *testing.T) {
	fake := providertest.New()
	w := NewWatcher(fake, measure.Noop{}, 5*time.Millisecond, zap.NewNop())

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error)
	go func() { done <- w.Run(ctx) }()

	require.Eventually(t, func() bool { return fake.Count("balance") >= 3 }, time.Second, time.Millisecond)
	cancel()

	select {
	case err := <-done:
		assert.NoError(t, err)
	case <-time.After(time.Second):
		t.Fatal("watcher did not stop")
	}
	assert.Equal(t, "100 RUB", w.Display())
}
