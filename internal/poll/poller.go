// Package poll keeps the snapshot store in sync with the carrier API. A
// ticker drives the always-visible resources (stats, active calls) at a
// fixed cadence; navigation and mutations request on-demand refreshes.
// Fetch failures are silent: a counter bump and a debug line, never a
// store write, so the console keeps showing the last good snapshot.
package poll

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"github.com/nextgen-sip/console/internal/carrier"
	"github.com/nextgen-sip/console/internal/view"
)

// API is the slice of the carrier client the poller reads through.
type API interface {
	Stats(ctx context.Context) (*carrier.StatsSnapshot, error)
	Subscribers(ctx context.Context) ([]carrier.Subscriber, error)
	ActiveCalls(ctx context.Context) ([]carrier.CallSession, error)
	Config(ctx context.Context) (*carrier.PlatformConfig, error)
}

// Poller drives periodic and on-demand snapshot fetches.
type Poller struct {
	api    API
	snaps  *view.Snapshots
	log    *slog.Logger
	onSync func(view.Resource)

	mu       sync.Mutex
	interval time.Duration

	wg sync.WaitGroup
}

// New builds a poller. onSync runs after every successful store replace
// and may be nil; the console server uses it to push fragments.
func New(api API, snaps *view.Snapshots, interval time.Duration, log *slog.Logger, onSync func(view.Resource)) *Poller {
	if log == nil {
		log = slog.Default()
	}
	if onSync == nil {
		onSync = func(view.Resource) {}
	}
	return &Poller{api: api, snaps: snaps, log: log, onSync: onSync, interval: interval}
}

// SetInterval changes the tick cadence. Takes effect on the next tick,
// which is how config hot reloads reach a running poller.
func (p *Poller) SetInterval(d time.Duration) {
	if d <= 0 {
		return
	}
	p.mu.Lock()
	p.interval = d
	p.mu.Unlock()
}

func (p *Poller) currentInterval() time.Duration {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.interval
}

// Run ticks until ctx is cancelled, then waits for in-flight fetches.
// The first tick fires immediately so the console has data before the
// first interval elapses.
func (p *Poller) Run(ctx context.Context) {
	timer := time.NewTimer(0)
	defer timer.Stop()

	for {
		select {
		case <-ctx.Done():
			p.wg.Wait()
			return
		case <-timer.C:
			p.tick(ctx)
			timer.Reset(p.currentInterval())
		}
	}
}

// tick spawns the periodic fetches without waiting on them. A fetch that
// outlasts the interval overlaps the next one; responses apply to the
// store in completion order.
func (p *Poller) tick(ctx context.Context) {
	pollCycles.Inc()
	p.spawn(ctx, view.ResourceStats)
	p.spawn(ctx, view.ResourceCalls)
}

func (p *Poller) spawn(ctx context.Context, r view.Resource) {
	p.wg.Add(1)
	go func() {
		defer p.wg.Done()
		p.fetch(ctx, r)
	}()
}

// Refresh fetches the named resources and returns when they are all
// applied (or failed). Navigation and mutation handlers call it inline
// so the response they render reflects the refetched state.
func (p *Poller) Refresh(ctx context.Context, resources ...view.Resource) {
	for _, r := range resources {
		if r == view.ResourceNone {
			continue
		}
		p.fetch(ctx, r)
	}
}

func (p *Poller) fetch(ctx context.Context, r view.Resource) {
	var err error
	switch r {
	case view.ResourceStats:
		var stats *carrier.StatsSnapshot
		if stats, err = p.api.Stats(ctx); err == nil {
			p.snaps.SetStats(stats)
		}
	case view.ResourceSubscribers:
		var subs []carrier.Subscriber
		if subs, err = p.api.Subscribers(ctx); err == nil {
			if subs == nil {
				// A JSON null body decodes to a nil slice; the store
				// reserves nil for "never fetched".
				subs = []carrier.Subscriber{}
			}
			p.snaps.SetSubscribers(subs)
		}
	case view.ResourceCalls:
		var calls []carrier.CallSession
		if calls, err = p.api.ActiveCalls(ctx); err == nil {
			if calls == nil {
				calls = []carrier.CallSession{}
			}
			p.snaps.SetCalls(calls)
		}
	case view.ResourceConfig:
		var cfg *carrier.PlatformConfig
		if cfg, err = p.api.Config(ctx); err == nil {
			p.snaps.SetPlatform(cfg)
		}
	default:
		return
	}

	if err != nil {
		fetchFailures.WithLabelValues(string(r)).Inc()
		p.log.Debug("snapshot fetch failed", "resource", r, "error", err)
		return
	}
	fetchSuccesses.WithLabelValues(string(r)).Inc()
	p.onSync(r)
}
