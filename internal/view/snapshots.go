package view

import (
	"sync"

	"github.com/nextgen-sip/console/internal/carrier"
)

// Snapshots holds the last successfully fetched copy of each carrier
// resource. Failed fetches never touch the store, so a table is always a
// pure function of the newest snapshot that actually arrived. Overlapping
// fetches for the same resource apply in completion order: the last
// writer wins and the next poll tick self-corrects.
type Snapshots struct {
	mu          sync.RWMutex
	stats       *carrier.StatsSnapshot
	subscribers []carrier.Subscriber
	calls       []carrier.CallSession
	platform    *carrier.PlatformConfig
}

func NewSnapshots() *Snapshots {
	return &Snapshots{}
}

func (s *Snapshots) SetStats(v *carrier.StatsSnapshot) {
	s.mu.Lock()
	s.stats = v
	s.mu.Unlock()
}

// Stats returns the last stats snapshot, or nil before the first fetch.
func (s *Snapshots) Stats() *carrier.StatsSnapshot {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.stats
}

func (s *Snapshots) SetSubscribers(v []carrier.Subscriber) {
	s.mu.Lock()
	s.subscribers = v
	s.mu.Unlock()
}

// Subscribers returns the last subscriber collection. The second value
// reports whether any snapshot has arrived yet, distinguishing "never
// fetched" from a genuinely empty collection.
func (s *Snapshots) Subscribers() ([]carrier.Subscriber, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.subscribers, s.subscribers != nil
}

func (s *Snapshots) SetCalls(v []carrier.CallSession) {
	s.mu.Lock()
	s.calls = v
	s.mu.Unlock()
}

func (s *Snapshots) Calls() ([]carrier.CallSession, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.calls, s.calls != nil
}

func (s *Snapshots) SetPlatform(v *carrier.PlatformConfig) {
	s.mu.Lock()
	s.platform = v
	s.mu.Unlock()
}

func (s *Snapshots) Platform() *carrier.PlatformConfig {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.platform
}
