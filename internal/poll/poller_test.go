package poll

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/nextgen-sip/console/internal/carrier"
	"github.com/nextgen-sip/console/internal/view"
)

type fakeAPI struct {
	stats func(context.Context) (*carrier.StatsSnapshot, error)
	subs  func(context.Context) ([]carrier.Subscriber, error)
	calls func(context.Context) ([]carrier.CallSession, error)
	cfg   func(context.Context) (*carrier.PlatformConfig, error)
}

func (f *fakeAPI) Stats(ctx context.Context) (*carrier.StatsSnapshot, error) {
	if f.stats == nil {
		return &carrier.StatsSnapshot{}, nil
	}
	return f.stats(ctx)
}

func (f *fakeAPI) Subscribers(ctx context.Context) ([]carrier.Subscriber, error) {
	if f.subs == nil {
		return []carrier.Subscriber{}, nil
	}
	return f.subs(ctx)
}

func (f *fakeAPI) ActiveCalls(ctx context.Context) ([]carrier.CallSession, error) {
	if f.calls == nil {
		return []carrier.CallSession{}, nil
	}
	return f.calls(ctx)
}

func (f *fakeAPI) Config(ctx context.Context) (*carrier.PlatformConfig, error) {
	if f.cfg == nil {
		return &carrier.PlatformConfig{}, nil
	}
	return f.cfg(ctx)
}

func TestRefresh_AppliesSnapshots(t *testing.T) {
	api := &fakeAPI{
		subs: func(context.Context) ([]carrier.Subscriber, error) {
			return []carrier.Subscriber{{ID: "1001", Username: "alice"}}, nil
		},
		cfg: func(context.Context) (*carrier.PlatformConfig, error) {
			return &carrier.PlatformConfig{SIPProtocol: "UDP"}, nil
		},
	}
	snaps := view.NewSnapshots()

	var mu sync.Mutex
	var synced []view.Resource
	p := New(api, snaps, time.Second, nil, func(r view.Resource) {
		mu.Lock()
		synced = append(synced, r)
		mu.Unlock()
	})

	p.Refresh(context.Background(), view.ResourceSubscribers, view.ResourceConfig)

	subs, ok := snaps.Subscribers()
	if !ok || len(subs) != 1 || subs[0].Username != "alice" {
		t.Errorf("subscribers snapshot = %+v fetched=%v", subs, ok)
	}
	if cfg := snaps.Platform(); cfg == nil || cfg.SIPProtocol != "UDP" {
		t.Errorf("platform snapshot = %+v", cfg)
	}

	mu.Lock()
	defer mu.Unlock()
	if len(synced) != 2 {
		t.Errorf("onSync calls = %v, want one per resource", synced)
	}
}

func TestRefresh_FailureLeavesStoreUntouched(t *testing.T) {
	failing := errors.New("connection refused")
	api := &fakeAPI{
		subs: func(context.Context) ([]carrier.Subscriber, error) { return nil, failing },
	}
	snaps := view.NewSnapshots()
	snaps.SetSubscribers([]carrier.Subscriber{{ID: "1001", Username: "alice"}})

	var syncs int
	p := New(api, snaps, time.Second, nil, func(view.Resource) { syncs++ })
	p.Refresh(context.Background(), view.ResourceSubscribers)

	subs, ok := snaps.Subscribers()
	if !ok || len(subs) != 1 || subs[0].Username != "alice" {
		t.Errorf("failed fetch must keep the stale snapshot, got %+v", subs)
	}
	if syncs != 0 {
		t.Errorf("failed fetch must not broadcast, got %d syncs", syncs)
	}
}

func TestRefresh_NormalizesNullBody(t *testing.T) {
	// A backend answering a JSON null decodes to a nil slice. The store
	// must still mark the resource as fetched.
	api := &fakeAPI{
		subs:  func(context.Context) ([]carrier.Subscriber, error) { return nil, nil },
		calls: func(context.Context) ([]carrier.CallSession, error) { return nil, nil },
	}
	snaps := view.NewSnapshots()

	p := New(api, snaps, time.Second, nil, nil)
	p.Refresh(context.Background(), view.ResourceSubscribers, view.ResourceCalls)

	if subs, ok := snaps.Subscribers(); !ok || subs == nil {
		t.Errorf("subscribers = %v fetched=%v, want empty non-nil", subs, ok)
	}
	if calls, ok := snaps.Calls(); !ok || calls == nil {
		t.Errorf("calls = %v fetched=%v, want empty non-nil", calls, ok)
	}
}

func TestRefresh_SkipsNone(t *testing.T) {
	var called atomic.Int64
	api := &fakeAPI{
		stats: func(context.Context) (*carrier.StatsSnapshot, error) {
			called.Add(1)
			return &carrier.StatsSnapshot{}, nil
		},
	}
	p := New(api, view.NewSnapshots(), time.Second, nil, nil)
	p.Refresh(context.Background(), view.ResourceNone)
	if called.Load() != 0 {
		t.Error("ResourceNone must not trigger a fetch")
	}
}

func TestRun_TicksUntilCancelled(t *testing.T) {
	var statsCalls, callCalls atomic.Int64
	api := &fakeAPI{
		stats: func(context.Context) (*carrier.StatsSnapshot, error) {
			statsCalls.Add(1)
			return &carrier.StatsSnapshot{ActiveCalls: 2}, nil
		},
		calls: func(context.Context) ([]carrier.CallSession, error) {
			callCalls.Add(1)
			return []carrier.CallSession{}, nil
		},
	}
	snaps := view.NewSnapshots()
	p := New(api, snaps, 5*time.Millisecond, nil, nil)

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})
	go func() {
		p.Run(ctx)
		close(done)
	}()

	time.Sleep(40 * time.Millisecond)
	cancel()
	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("Run did not stop after cancel")
	}

	if statsCalls.Load() < 2 || callCalls.Load() < 2 {
		t.Errorf("ticks fetched stats %d times, calls %d times, want several",
			statsCalls.Load(), callCalls.Load())
	}
	if stats := snaps.Stats(); stats == nil || stats.ActiveCalls != 2 {
		t.Errorf("stats snapshot = %+v", stats)
	}
}

func TestSetInterval(t *testing.T) {
	p := New(&fakeAPI{}, view.NewSnapshots(), 4*time.Second, nil, nil)
	p.SetInterval(time.Second)
	if got := p.currentInterval(); got != time.Second {
		t.Errorf("interval = %v", got)
	}
	p.SetInterval(0)
	if got := p.currentInterval(); got != time.Second {
		t.Errorf("non-positive interval must be ignored, got %v", got)
	}
}
