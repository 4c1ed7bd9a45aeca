// Package providertest provides an in-memory pkg.Provider that records every
// call, for tests of code built on top of a provider.
package providertest

import (
	"context"
	"strconv"
	"sync"

	"github.com/omimic12/proxy6-automator/pkg"
)

type Call struct {
	Method  string
	Relayed bool
	ID      string
	Descr   string
	Count   int
}

// Fake answers from its fields. Nil funcs fall back to a successful answer.
// Copies made by WithRelay share the call log and the configuration.
type Fake struct {
	BalanceFunc        func(relayed bool) (*pkg.Balance, error)
	PriceFunc          func(profile pkg.Profile, count int) (*pkg.Quote, error)
	ActiveProxiesFunc  func() ([]pkg.Record, error)
	SetDescriptionFunc func(id string, descr string) error
	BuyFunc            func(profile pkg.Profile, count int, descr string) (*pkg.Order, error)
	CountriesFunc      func(version pkg.IPVersion) ([]string, error)

	// Block, when set, is waited on by Balance before answering.
	Block chan struct{}

	relay bool
	log   *callLog
}

type callLog struct {
	mu    sync.Mutex
	calls []Call
}

func New() *Fake {
	return &Fake{log: &callLog{}}
}

func (f *Fake) record(call Call) {
	call.Relayed = f.relay

	f.log.mu.Lock()
	defer f.log.mu.Unlock()
	f.log.calls = append(f.log.calls, call)
}

// Calls returns the calls made to method, in order. An empty method returns all calls.
func (f *Fake) Calls(method string) []Call {
	f.log.mu.Lock()
	defer f.log.mu.Unlock()

	out := []Call{}
	for _, c := range f.log.calls {
		if method == "" || c.Method == method {
			out = append(out, c)
		}
	}
	return out
}

func (f *Fake) Count(method string) int {
	return len(f.Calls(method))
}

func (f *Fake) Name() string {
	return "fake"
}

func (f *Fake) Balance(ctx context.Context) (*pkg.Balance, error) {
	f.record(Call{Method: "balance"})
	if f.Block != nil {
		select {
		case <-f.Block:
		case <-ctx.Done():
			return nil, &pkg.TransportError{Method: "balance", Err: ctx.Err()}
		}
	}
	if f.BalanceFunc != nil {
		return f.BalanceFunc(f.relay)
	}
	return &pkg.Balance{Amount: 100, Currency: "RUB"}, nil
}

func (f *Fake) Price(_ context.Context, profile pkg.Profile, count int) (*pkg.Quote, error) {
	f.record(Call{Method: "getprice", Count: count})
	if f.PriceFunc != nil {
		return f.PriceFunc(profile, count)
	}
	return &pkg.Quote{Price: 10 * float64(count), PriceSingle: 10, Period: profile.Period, Count: count}, nil
}

func (f *Fake) ActiveProxies(context.Context) ([]pkg.Record, error) {
	f.record(Call{Method: "getproxy"})
	if f.ActiveProxiesFunc != nil {
		return f.ActiveProxiesFunc()
	}
	return []pkg.Record{}, nil
}

func (f *Fake) Countries(_ context.Context, version pkg.IPVersion) ([]string, error) {
	f.record(Call{Method: "getcountry"})
	if f.CountriesFunc != nil {
		return f.CountriesFunc(version)
	}
	return []string{"br", "us"}, nil
}

func (f *Fake) SetDescription(_ context.Context, id string, descr string) error {
	f.record(Call{Method: "setdescr", ID: id, Descr: descr})
	if f.SetDescriptionFunc != nil {
		return f.SetDescriptionFunc(id, descr)
	}
	return nil
}

func (f *Fake) Buy(_ context.Context, profile pkg.Profile, count int, descr string) (*pkg.Order, error) {
	f.record(Call{Method: "buy", Descr: descr, Count: count})
	if f.BuyFunc != nil {
		return f.BuyFunc(profile, count, descr)
	}
	return Order(profile, count, descr), nil
}

func (f *Fake) WithRelay(enabled bool) pkg.Provider {
	c := *f
	c.relay = enabled
	return &c
}

func (f *Fake) Relayed() bool {
	return f.relay
}

// Order is what a successful purchase of count proxies looks like.
func Order(profile pkg.Profile, count int, descr string) *pkg.Order {
	records := make([]pkg.Record, 0, count)
	for i := 1; i <= count; i++ {
		n := strconv.Itoa(i)
		records = append(records, pkg.Record{
			ID:      "new-" + n,
			IP:      "10.9.0." + n,
			Host:    "10.9.0." + n,
			Port:    "900" + n,
			User:    "user" + n,
			Pass:    "pass" + n,
			Type:    string(profile.Protocol),
			Country: profile.Country,
			Version: string(profile.Version),
			Active:  true,
			Descr:   descr,
		})
	}

	return &pkg.Order{
		OrderID: 4242,
		Balance: &pkg.Balance{Amount: 50, Currency: "RUB"},
		Records: records,
		Count:   count,
		Period:  profile.Period,
		Country: profile.Country,
	}
}
