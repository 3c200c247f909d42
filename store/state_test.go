package store

import (
	"os"
	"path/filepath"
	"testing"
	"time"
)

func tempStore(t *testing.T) *Store {
	t.Helper()
	return NewStore(filepath.Join(t.TempDir(), "state.json"))
}

func TestDismissThenIsDismissed(t *testing.T) {
	s := tempStore(t)

	s.Dismiss("100", 2)

	if !s.IsDismissed("100", 2) {
		t.Error("Expected post to be dismissed at recorded reply count")
	}
}

func TestDismissalReopensOnNewActivity(t *testing.T) {
	s := tempStore(t)

	s.Dismiss("100", 2)

	if s.IsDismissed("100", 3) {
		t.Error("Expected increased reply count to reopen the conversation")
	}

	// A decreased count also invalidates; only the recorded count holds.
	if s.IsDismissed("100", 1) {
		t.Error("Expected changed reply count to invalidate the dismissal")
	}
}

func TestUndismissIsAbsolute(t *testing.T) {
	s := tempStore(t)

	s.Dismiss("100", 2)
	s.Undismiss("100")

	if s.IsDismissed("100", 2) {
		t.Error("Expected undismissed post to not be dismissed")
	}
}

func TestIsDismissedUnknownPost(t *testing.T) {
	s := tempStore(t)

	if s.IsDismissed("999", 0) {
		t.Error("Expected unknown post to not be dismissed")
	}
}

func TestDismissalExpiresAfterRetention(t *testing.T) {
	s := tempStore(t)

	base := time.Now()
	s.now = func() time.Time { return base }
	s.Dismiss("100", 2)

	s.now = func() time.Time { return base.Add(DismissalRetention - time.Minute) }
	if !s.IsDismissed("100", 2) {
		t.Error("Expected dismissal to hold inside the retention window")
	}

	s.now = func() time.Time { return base.Add(DismissalRetention + time.Minute) }
	if s.IsDismissed("100", 2) {
		t.Error("Expected dismissal to expire past the retention window")
	}
}

func TestPruneExpiredDismissals(t *testing.T) {
	s := tempStore(t)

	base := time.Now()
	s.now = func() time.Time { return base }
	s.Dismiss("old", 1)

	s.now = func() time.Time { return base.Add(DismissalRetention + time.Hour) }
	s.Dismiss("fresh", 1)

	removed := s.PruneExpiredDismissals()
	if removed != 1 {
		t.Errorf("Expected 1 pruned dismissal, got %d", removed)
	}

	if !s.IsDismissed("fresh", 1) {
		t.Error("Expected fresh dismissal to survive the sweep")
	}
}

func TestSetIdentityNormalizes(t *testing.T) {
	s := tempStore(t)

	s.SetIdentity("@Foo")
	first, ok := s.GetIdentity()
	if !ok {
		t.Fatal("Expected identity to be set")
	}

	s.SetIdentity("Foo")
	second, _ := s.GetIdentity()

	if first != second {
		t.Errorf("Expected equivalent inputs to store the same value: %s != %s", first, second)
	}

	if first != "foo" {
		t.Errorf("Expected normalized identity 'foo', got '%s'", first)
	}
}

func TestGetIdentityAbsent(t *testing.T) {
	s := tempStore(t)

	if _, ok := s.GetIdentity(); ok {
		t.Error("Expected no identity on a fresh store")
	}
}

func TestMarkRepliedAndIsRepliedTo(t *testing.T) {
	s := tempStore(t)

	s.MarkReplied("100")

	if !s.IsRepliedTo("100") {
		t.Error("Expected post to be marked as replied")
	}

	if s.IsRepliedTo("200") {
		t.Error("Expected unmarked post to not be replied")
	}
}

func TestPruneStaleReplies(t *testing.T) {
	s := tempStore(t)

	s.MarkReplied("100")
	s.MarkReplied("200")
	s.MarkReplied("300")

	removed := s.PruneStaleReplies(map[string]bool{"200": true})
	if removed != 2 {
		t.Errorf("Expected 2 stale replies pruned, got %d", removed)
	}

	if !s.IsRepliedTo("200") {
		t.Error("Expected reply present in the mention set to survive")
	}
	if s.IsRepliedTo("100") || s.IsRepliedTo("300") {
		t.Error("Expected stale replies to be gone")
	}
}

func TestRecordCheckTime(t *testing.T) {
	s := tempStore(t)

	if _, ok := s.LastCheckTime(); ok {
		t.Error("Expected no check time on a fresh store")
	}

	s.RecordCheckTime()

	ts, ok := s.LastCheckTime()
	if !ok {
		t.Fatal("Expected a check time after recording")
	}
	if time.Since(ts) > time.Minute {
		t.Errorf("Expected a recent check time, got %s", ts)
	}
}

func TestResetAll(t *testing.T) {
	s := tempStore(t)

	s.SetIdentity("alice")
	s.Dismiss("100", 2)
	s.MarkReplied("200")
	s.RecordCheckTime()

	s.ResetAll()

	if _, ok := s.GetIdentity(); ok {
		t.Error("Expected identity cleared after reset")
	}
	if s.IsDismissed("100", 2) {
		t.Error("Expected dismissals cleared after reset")
	}
	if s.IsRepliedTo("200") {
		t.Error("Expected replies cleared after reset")
	}
	if _, ok := s.LastCheckTime(); ok {
		t.Error("Expected check time cleared after reset")
	}
}

func TestStatePersistsAcrossInstances(t *testing.T) {
	path := filepath.Join(t.TempDir(), "state.json")

	s1 := NewStore(path)
	s1.SetIdentity("@Alice")
	s1.Dismiss("100", 2)
	s1.MarkReplied("200")

	s2 := NewStore(path)

	identity, ok := s2.GetIdentity()
	if !ok || identity != "alice" {
		t.Errorf("Expected persisted identity 'alice', got '%s'", identity)
	}
	if !s2.IsDismissed("100", 2) {
		t.Error("Expected persisted dismissal")
	}
	if !s2.IsRepliedTo("200") {
		t.Error("Expected persisted reply tracking")
	}
}

func TestCorruptStateFileIsEmptyStore(t *testing.T) {
	path := filepath.Join(t.TempDir(), "state.json")
	if err := os.WriteFile(path, []byte("{not json"), 0644); err != nil {
		t.Fatalf("Failed to write corrupt file: %v", err)
	}

	s := NewStore(path)

	if _, ok := s.GetIdentity(); ok {
		t.Error("Expected empty store from corrupt file")
	}

	// The store must still be usable afterwards.
	s.SetIdentity("alice")
	if identity, _ := s.GetIdentity(); identity != "alice" {
		t.Errorf("Expected store to work after corrupt load, got '%s'", identity)
	}
}
