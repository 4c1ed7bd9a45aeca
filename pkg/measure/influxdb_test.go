package measure

import (
	"context"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	influxdb2 "github.com/influxdata/influxdb-client-go/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/omimic12/proxy6-automator/pkg"
)

func TestInfluxDB(t *testing.T) {
	var (
		mu    sync.Mutex
		lines []string
	)
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		body, _ := io.ReadAll(r.Body)
		mu.Lock()
		lines = append(lines, strings.TrimSpace(string(body)))
		mu.Unlock()
		w.WriteHeader(http.StatusNoContent)
	}))
	defer srv.Close()

	client := influxdb2.NewClient(srv.URL, "token")
	defer client.Close()

	ctx, cancel := context.WithCancel(context.Background())
	m, err := NewInfluxDB(ctx, 10, "org", "bucket", pkg.ProviderPX6, client, time.Hour, zap.NewNop())
	require.NoError(t, err)

	require.NoError(t, m.Balance(pkg.Balance{Amount: 48.8, Currency: "RUB"}))
	require.NoError(t, m.Acquired(1, 2))

	cancel()
	m.Wait()

	mu.Lock()
	defer mu.Unlock()
	require.Len(t, lines, 2)
	assert.True(t, strings.HasPrefix(lines[0], "wallet,currency=RUB,provider=px6 amount=48.8"))
	assert.True(t, strings.HasPrefix(lines[1], "acquisition,provider=px6 purchased=2i,reused=1i"))
}

func TestInfluxDB_SendAfterStop(t *testing.T) {
	client := influxdb2.NewClient("http://127.0.0.1:1", "token")
	defer client.Close()

	ctx, cancel := context.WithCancel(context.Background())
	m, err := NewInfluxDB(ctx, 0, "org", "bucket", pkg.ProviderPX6, client, time.Hour, zap.NewNop())
	require.NoError(t, err)

	cancel()
	m.Wait()

	assert.NoError(t, m.Acquired(1, 0))
}

func TestNoop(t *testing.T) {
	var m pkg.Measure = Noop{}
	assert.NoError(t, m.Balance(pkg.Balance{}))
	assert.NoError(t, m.Acquired(0, 0))
}
