package audit

import (
	"log/slog"
	"path/filepath"
	"testing"
	"time"
)

func openTestStore(t *testing.T, path string) *Store {
	t.Helper()
	s, err := NewStore(path, slog.Default())
	if err != nil {
		t.Fatalf("NewStore: %v", err)
	}
	return s
}

func TestStore_LogAndQuery(t *testing.T) {
	path := filepath.Join(t.TempDir(), "audit.db")

	s := openTestStore(t, path)
	s.Log(NewEntry(ActionCreateSubscriber, "1001", "alice", OutcomeOK))
	s.Log(NewEntry(ActionDeleteSubscriber, "1002", "", OutcomeOK))
	s.Log(NewEntry(ActionAdjustBalance, "1001", "25.00", OutcomeFailed))
	// Close drains the async write buffer.
	if err := s.Close(); err != nil {
		t.Fatalf("Close: %v", err)
	}

	s = openTestStore(t, path)
	defer func() { _ = s.Close() }()

	all, err := s.Query(QueryOpts{})
	if err != nil {
		t.Fatalf("Query: %v", err)
	}
	if len(all) != 3 {
		t.Fatalf("entries = %d, want 3", len(all))
	}

	creates, err := s.Query(QueryOpts{Action: ActionCreateSubscriber})
	if err != nil {
		t.Fatalf("Query by action: %v", err)
	}
	if len(creates) != 1 || creates[0].SubscriberID != "1001" || creates[0].Detail != "alice" {
		t.Errorf("creates = %+v", creates)
	}

	forSub, err := s.Query(QueryOpts{SubscriberID: "1001"})
	if err != nil {
		t.Fatalf("Query by subscriber: %v", err)
	}
	if len(forSub) != 2 {
		t.Errorf("entries for 1001 = %d, want 2", len(forSub))
	}

	failed, err := s.Query(QueryOpts{Failed: true})
	if err != nil {
		t.Fatalf("Query failed: %v", err)
	}
	if len(failed) != 1 || failed[0].Action != ActionAdjustBalance {
		t.Errorf("failed = %+v", failed)
	}
}

func TestStore_QueryLimitAndSince(t *testing.T) {
	path := filepath.Join(t.TempDir(), "audit.db")

	s := openTestStore(t, path)
	for i := 0; i < 5; i++ {
		s.Log(NewEntry(ActionAdjustBalance, "1001", "10.00", OutcomeOK))
	}
	if err := s.Close(); err != nil {
		t.Fatalf("Close: %v", err)
	}

	s = openTestStore(t, path)
	defer func() { _ = s.Close() }()

	limited, err := s.Query(QueryOpts{Limit: 2})
	if err != nil {
		t.Fatalf("Query: %v", err)
	}
	if len(limited) != 2 {
		t.Errorf("limited = %d, want 2", len(limited))
	}

	future := time.Now().UTC().Add(time.Hour).Format(time.RFC3339)
	none, err := s.Query(QueryOpts{Since: future})
	if err != nil {
		t.Fatalf("Query since: %v", err)
	}
	if len(none) != 0 {
		t.Errorf("entries since the future = %d, want 0", len(none))
	}
}

func TestNewEntry(t *testing.T) {
	e := NewEntry(ActionDeleteSubscriber, "1002", "", OutcomeOK)
	if e.ID == "" {
		t.Error("entry id should be assigned")
	}
	if _, err := time.Parse(time.RFC3339, e.Timestamp); err != nil {
		t.Errorf("timestamp %q not RFC3339: %v", e.Timestamp, err)
	}
}
