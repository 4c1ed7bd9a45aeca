package acquisition

import (
	"context"
	"fmt"
	"strconv"
	"sync/atomic"

	"github.com/pkg/errors"
	"go.uber.org/zap"

	"github.com/omimic12/proxy6-automator/pkg"
	"github.com/omimic12/proxy6-automator/pkg/matcher"
	"github.com/omimic12/proxy6-automator/pkg/quota"
	"github.com/omimic12/proxy6-automator/pkg/render"
)

var (
	ErrRunInProgress = errors.New("acquisition already in progress")
)

type Source string

const (
	SourceReused    Source = "reused"
	SourcePurchased Source = "purchased"
)

type Acquired struct {
	Record pkg.Record
	// Descr is the description the proxy carries after this run.
	Descr  string
	Source Source
}

type Result struct {
	Items   []Acquired
	Text    string
	State   State
	Balance *pkg.Balance
	OrderID int64
	Relayed bool
}

func (r *Result) Records() []pkg.Record {
	records := make([]pkg.Record, 0, len(r.Items))
	for _, item := range r.Items {
		records = append(records, item.Record)
	}
	return records
}

func (r *Result) Counts() (reused int, purchased int) {
	for _, item := range r.Items {
		if item.Source == SourceReused {
			reused++
		} else {
			purchased++
		}
	}
	return reused, purchased
}

// Orchestrator acquires proxies for a profile, reusing owned ones under their
// quota before buying the rest. One run at a time.
type Orchestrator struct {
	provider pkg.Provider
	opts     Options
	running  atomic.Bool
	state    atomic.Int32
}

func New(provider pkg.Provider, opts ...Option) *Orchestrator {
	options := defaultOptions()
	for _, opt := range opts {
		opt(&options)
	}

	return &Orchestrator{
		provider: provider,
		opts:     options,
	}
}

func (o *Orchestrator) State() State {
	return State(o.state.Load())
}

func (o *Orchestrator) Running() bool {
	return o.running.Load()
}

// Run executes one acquisition. Provider failures never surface as an error,
// they end up in the journal and in Result.State; only an invalid profile or
// a run already in progress is returned. Cancelling ctx does not stop a run.
func (o *Orchestrator) Run(ctx context.Context, profile pkg.Profile) (*Result, error) {
	if err := profile.Validate(); err != nil {
		return nil, errors.Wrap(err, "invalid profile")
	}

	if !o.running.CompareAndSwap(false, true) {
		return nil, ErrRunInProgress
	}
	defer o.running.Store(false)

	ctx = context.WithoutCancel(ctx)

	r := &run{
		o:        o,
		provider: o.provider,
		profile:  profile,
		result:   &Result{},
		logger:   o.opts.Logger.With(zap.String("country", profile.Country), zap.Int("count", profile.Count)),
	}

	r.execute(ctx)
	return r.result, nil
}

func (o *Orchestrator) transition(to State, logger *zap.Logger) {
	from := State(o.state.Swap(int32(to)))
	logger.Debug("acquisition state", zap.Stringer("from", from), zap.Stringer("to", to))
}

// run carries everything that belongs to a single invocation, including the
// provider it talks to, which may switch to the relay midway.
type run struct {
	o        *Orchestrator
	provider pkg.Provider
	profile  pkg.Profile
	result   *Result
	logger   *zap.Logger

	unitPrice float64
	needed    int
	failed    bool
}

func (r *run) execute(ctx context.Context) {
	r.o.transition(Idle, r.logger)
	r.needed = r.profile.Count
	r.useSavedRelay(ctx)

	r.info("Starting smart acquisition sequence...", "")

	r.o.transition(FetchingStatus, r.logger)
	r.fetchStatus(ctx)

	r.o.transition(Reusing, r.logger)
	if err := r.reuse(ctx); err != nil {
		r.failed = true
		r.fault("Process failed", err.Error())
		if pkg.IsTransport(err) && !r.provider.Relayed() {
			r.warning("Check internet or enable the relay in settings.", "")
		}
	} else if r.needed > 0 {
		r.o.transition(Purchasing, r.logger)
		if err := r.purchase(ctx); err != nil {
			r.failed = true
			r.fault("Purchase failed: "+pkg.Reason(err), err.Error())
		}
	}

	r.o.transition(Finalizing, r.logger)
	r.finalize()

	r.result.Relayed = r.provider.Relayed()
	r.result.State = Done
	if r.failed {
		r.result.State = Failed
	}
	r.o.transition(r.result.State, r.logger)
}

// useSavedRelay starts the run on the relay when an earlier run switched to it.
func (r *run) useSavedRelay(ctx context.Context) {
	if r.o.opts.Settings == nil || r.provider.Relayed() {
		return
	}

	saved, err := r.o.opts.Settings.Load(ctx)
	if err != nil {
		if !errors.Is(err, pkg.ErrSettingsNotFound) {
			r.logger.Warn("failed to load settings", zap.Error(err))
		}
		return
	}

	if saved.UseRelay {
		r.provider = r.provider.WithRelay(true)
	}
}

func (r *run) fetchStatus(ctx context.Context) {
	balance, err := r.provider.Balance(ctx)
	if pkg.IsTransport(err) && !r.provider.Relayed() {
		r.warning("Network error detected. Auto-enabling relay...", err.Error())
		r.enableRelay(ctx)
		balance, err = r.provider.Balance(ctx)
	}

	switch {
	case err == nil:
		r.observeBalance(*balance)
		r.info("Balance updated: "+balance.Display(), "")
	case pkg.IsRejected(err):
		r.fault("Balance Check Failed: "+pkg.Reason(err), "")
	default:
		r.fault("Balance Check Failed: "+err.Error(), "")
	}

	quote, err := r.provider.Price(ctx, r.profile, 1)
	if err != nil {
		r.warning("Could not fetch current pricing. Proceeding with caution.", err.Error())
		return
	}
	r.unitPrice = quote.Price
}

func (r *run) enableRelay(ctx context.Context) {
	r.provider = r.provider.WithRelay(true)

	settings := r.o.opts.Settings
	if settings == nil {
		return
	}

	saved, err := settings.Load(ctx)
	if err != nil {
		if !errors.Is(err, pkg.ErrSettingsNotFound) {
			r.logger.Warn("failed to load settings", zap.Error(err))
			return
		}
		saved = &pkg.Saved{Profile: r.profile}
	}

	saved.UseRelay = true
	if err := settings.Save(ctx, saved); err != nil {
		r.logger.Warn("failed to persist relay setting", zap.Error(err))
	}
}

func (r *run) reuse(ctx context.Context) error {
	r.info("Checking inventory for reusable proxies...", "")

	inventory, err := r.provider.ActiveProxies(ctx)
	if err != nil {
		return errors.Wrap(err, "failed to fetch inventory")
	}

	candidates := matcher.Match(inventory, r.profile, r.o.opts.Now())
	r.logger.Debug("inventory matched",
		zap.Int("inventory", len(inventory)),
		zap.Int("candidates", len(candidates)),
	)

	for _, candidate := range candidates {
		if r.needed <= 0 {
			break
		}

		record := candidate.Record
		descr, tag, err := quota.Bump(record.Descr, r.profile.Tag)
		if err != nil {
			r.logger.Warn("skipping candidate", zap.String("id", record.ID), zap.Error(err))
			continue
		}

		r.info(fmt.Sprintf("Reusing proxy %s:%s (%s)", record.Host, record.Port, tag), "")

		err = r.provider.SetDescription(ctx, record.ID, descr)
		if err != nil {
			r.fault("Tag update failed: "+pkg.Reason(err), record.ID)
		} else {
			record.Descr = descr
			r.result.Items = append(r.result.Items, Acquired{Record: record, Descr: descr, Source: SourceReused})
			r.needed--
		}

		r.o.opts.Sleep(ctx, r.o.opts.ReuseDelay)
	}

	return nil
}

func (r *run) purchase(ctx context.Context) error {
	estimated := float64(r.needed) * r.unitPrice
	if b := r.result.Balance; b != nil && b.Amount > 0 && b.Amount < estimated {
		r.warning(fmt.Sprintf("Low balance! Need ~%s, have %s. Attempting purchase anyway...",
			formatAmount(estimated), formatAmount(b.Amount)), "")
	}

	noun := "proxy"
	if r.needed > 1 {
		noun = "proxies"
	}
	r.info(fmt.Sprintf("Buying %d new %s...", r.needed, noun), "")

	descr := quota.Initial(r.profile.Tag)
	order, err := r.provider.Buy(ctx, r.profile, r.needed, descr)
	if err != nil {
		return err
	}
	// status yes without a list is a failed purchase, the provider gave no reason
	if len(order.Records) == 0 {
		return &pkg.RejectedError{Method: "buy"}
	}

	r.success(fmt.Sprintf("Bought %d new proxies. Order #%d", len(order.Records), order.OrderID), "")

	r.result.OrderID = order.OrderID
	for _, record := range order.Records {
		record.Descr = descr
		r.result.Items = append(r.result.Items, Acquired{Record: record, Descr: descr, Source: SourcePurchased})
	}
	r.needed -= len(order.Records)

	if order.Balance != nil {
		r.observeBalance(*order.Balance)
	}

	return nil
}

func (r *run) finalize() {
	defer func() {
		reused, purchased := r.result.Counts()
		if err := r.o.opts.Measure.Acquired(reused, purchased); err != nil {
			r.logger.Warn("failed to measure acquisition", zap.Error(err))
		}
	}()

	if len(r.result.Items) == 0 {
		r.warning("No proxies acquired.", "")
		return
	}

	r.result.Text = render.Lines(r.result.Records())

	if len(r.result.Items) == 1 && r.o.opts.Clipboard != nil {
		if err := r.o.opts.Clipboard.Copy(r.result.Text); err != nil {
			r.fault("Failed to copy to clipboard", err.Error())
			return
		}
		r.success("Proxy copied to clipboard automatically", "")
		return
	}

	r.success(fmt.Sprintf("Acquired %d proxies.", len(r.result.Items)), "")
}

func (r *run) observeBalance(balance pkg.Balance) {
	r.result.Balance = &balance

	if r.o.opts.Wallet != nil {
		r.o.opts.Wallet.Set(balance)
	}
	if err := r.o.opts.Measure.Balance(balance); err != nil {
		r.logger.Warn("failed to measure balance", zap.Error(err))
	}
}

func (r *run) info(message, detail string) {
	r.append(pkg.SeverityInfo, message, detail)
}

func (r *run) success(message, detail string) {
	r.append(pkg.SeveritySuccess, message, detail)
}

func (r *run) warning(message, detail string) {
	r.append(pkg.SeverityWarning, message, detail)
}

func (r *run) fault(message, detail string) {
	r.append(pkg.SeverityError, message, detail)
}

func (r *run) append(severity pkg.Severity, message, detail string) {
	entry := pkg.NewEntry(severity, message, detail)
	entry.Time = r.o.opts.Now()
	r.o.opts.Journal.Append(entry)
}

func formatAmount(v float64) string {
	return strconv.FormatFloat(v, 'f', -1, 64)
}
