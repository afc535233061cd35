package domain

import (
	"testing"
	"time"
)

func TestAppendHistory_Monotonic(t *testing.T) {
	base := time.Date(2026, 3, 1, 9, 0, 0, 0, time.UTC)

	var journal []HistoryEntry
	journal = AppendHistory(journal, base, ActionQuoteCreated, StatusNew, nil)
	journal = AppendHistory(journal, base.Add(time.Minute), ActionCallRequested, StatusAwaitingCall, nil)
	journal = AppendHistory(journal, base.Add(2*time.Minute), ActionScopeLocked, StatusScopeLocked, map[string]interface{}{"finalPrice": int64(1000)})

	if len(journal) != 3 {
		t.Fatalf("expected 3 entries, got %d", len(journal))
	}
	if journal[0].Action != ActionQuoteCreated || journal[2].Action != ActionScopeLocked {
		t.Errorf("expected entries in append order, got %s .. %s", journal[0].Action, journal[2].Action)
	}
}

func TestAppendHistory_DoesNotMutatePrior(t *testing.T) {
	base := time.Date(2026, 3, 1, 9, 0, 0, 0, time.UTC)

	first := AppendHistory(nil, base, ActionQuoteCreated, StatusNew, nil)
	second := AppendHistory(first, base.Add(time.Minute), ActionCallRequested, StatusAwaitingCall, nil)
	third := AppendHistory(first, base.Add(time.Minute), ActionScopeLocked, StatusScopeLocked, nil)

	if len(first) != 1 {
		t.Fatalf("expected original journal untouched, got %d entries", len(first))
	}
	if second[1].Action != ActionCallRequested {
		t.Errorf("expected call_requested in second journal, got %s", second[1].Action)
	}
	if third[1].Action != ActionScopeLocked {
		t.Errorf("expected scope_locked in third journal, got %s", third[1].Action)
	}
}
