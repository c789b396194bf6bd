package display

import (
	"context"
	"fmt"
	"strconv"
	"sync"
	"time"

	"github.com/aquamarinepk/aqm"

	"github.com/baristaclub/barista/internal/square"
)

const defaultPollIntervalSeconds = 30

// OrderSource fetches the raw upstream orders for the display session.
type OrderSource interface {
	SearchOrders(ctx context.Context) ([]square.Order, error)
}

// Poller drives the fetch-normalize-store cycle: once immediately on
// start, then on a fixed interval, plus out-of-band manual refreshes
// that leave the interval timer alone. Every fetch carries a monotonic
// issue number; a response that would land after a newer one has
// already been applied is discarded instead of overwriting fresher
// state.
type Poller struct {
	source     OrderSource
	normalizer *Normalizer
	store      *Store
	session    *Session
	interval   time.Duration
	logger     aqm.Logger
	nowFn      func() time.Time

	seqMu   sync.Mutex
	issued  uint64
	applied uint64

	cancel context.CancelFunc
	done   chan struct{}
}

func NewPoller(source OrderSource, normalizer *Normalizer, store *Store, session *Session, config *aqm.Config, logger aqm.Logger) *Poller {
	if logger == nil {
		logger = aqm.NewNoopLogger()
	}

	intervalSeconds := defaultPollIntervalSeconds
	if raw, _ := config.GetString("poll.interval.seconds"); raw != "" {
		if n, err := strconv.Atoi(raw); err == nil && n > 0 {
			intervalSeconds = n
		}
	}

	return &Poller{
		source:     source,
		normalizer: normalizer,
		store:      store,
		session:    session,
		interval:   time.Duration(intervalSeconds) * time.Second,
		logger:     logger,
		nowFn:      time.Now,
	}
}

func (p *Poller) Start(ctx context.Context) error {
	loopCtx, cancel := context.WithCancel(context.Background())
	p.cancel = cancel
	p.done = make(chan struct{})

	p.logger.Infof("Starting order poller, interval %s", p.interval)
	go p.loop(loopCtx)
	return nil
}

func (p *Poller) Stop(ctx context.Context) error {
	if p.cancel == nil {
		return nil
	}
	p.cancel()
	select {
	case <-p.done:
	case <-ctx.Done():
		return ctx.Err()
	}
	return nil
}

func (p *Poller) loop(ctx context.Context) {
	defer close(p.done)

	if err := p.Refresh(ctx); err != nil {
		p.logger.Errorf("Initial order fetch failed: %v", err)
	}

	ticker := time.NewTicker(p.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			if err := p.Refresh(ctx); err != nil {
				p.logger.Errorf("Order fetch failed: %v", err)
			}
		}
	}
}

// Refresh runs one fetch-normalize-store cycle. Safe to call from any
// goroutine; scheduled ticks and manual refreshes share the same path.
func (p *Poller) Refresh(ctx context.Context) error {
	seq := p.nextSeq()
	p.session.SetConnecting()

	rawOrders, err := p.source.SearchOrders(ctx)
	if err != nil {
		if p.apply(seq, func() {
			// Fail closed: possibly-stale orders must not stay on
			// screen next to an error indicator.
			p.store.Clear()
			p.session.SetError(fmt.Sprintf("Failed to fetch orders: %v", err))
		}) {
			return fmt.Errorf("fetch orders: %w", err)
		}
		return nil
	}

	orders := make([]Order, 0, len(rawOrders))
	for _, raw := range rawOrders {
		if ord, ok := p.normalizer.Normalize(raw); ok {
			orders = append(orders, ord)
		}
	}

	if p.apply(seq, func() {
		p.store.ReplaceAll(orders)
		p.session.SetConnected(p.nowFn())
	}) {
		p.logger.Debug("orders refreshed", "count", len(orders))
	}
	return nil
}

func (p *Poller) nextSeq() uint64 {
	p.seqMu.Lock()
	defer p.seqMu.Unlock()
	p.issued++
	return p.issued
}

// apply runs fn only if seq is newer than the last applied response,
// holding the sequence lock so applications happen in issue order. It
// reports whether the response was applied.
func (p *Poller) apply(seq uint64, fn func()) bool {
	p.seqMu.Lock()
	defer p.seqMu.Unlock()

	if seq <= p.applied {
		p.logger.Debug("discarding stale poll response", "seq", seq, "applied", p.applied)
		return false
	}
	p.applied = seq
	fn()
	return true
}

// Interval is exposed for wiring diagnostics and tests.
func (p *Poller) Interval() time.Duration {
	return p.interval
}
