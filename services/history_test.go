package services

import (
	"testing"
	"time"
)

func TestHistoryRecordAndRecent(t *testing.T) {
	h := NewHistoryService(time.Hour, 0)

	for _, q := range []string{"first", "second", "third"} {
		if err := h.Record("u1", q, []int64{1, 2}); err != nil {
			t.Fatalf("Record: %v", err)
		}
	}
	if err := h.Record("u2", "other tenant", nil); err != nil {
		t.Fatalf("Record: %v", err)
	}

	records := h.Recent("u1", 10)
	if len(records) != 3 {
		t.Fatalf("expected 3 records for u1, got %d", len(records))
	}
	for _, r := range records {
		if r.OwnerID != "u1" {
			t.Errorf("foreign record leaked: %v", r)
		}
		if r.ID == "" {
			t.Error("record missing ID")
		}
	}
	if records[0].Query != "third" {
		t.Errorf("expected newest first, got %q", records[0].Query)
	}
}

func TestHistoryRecentLimit(t *testing.T) {
	h := NewHistoryService(time.Hour, 0)
	for i := 0; i < 10; i++ {
		h.Record("u1", "q", nil)
	}
	if got := len(h.Recent("u1", 4)); got != 4 {
		t.Errorf("Recent limit: got %d, want 4", got)
	}
}

func TestHistoryPruneDropsExpiredRecords(t *testing.T) {
	h := NewHistoryService(50*time.Millisecond, 0)

	h.Record("u1", "old", nil)
	time.Sleep(80 * time.Millisecond)
	h.Record("u1", "fresh", nil)

	removed := h.Prune()
	if removed != 1 {
		t.Fatalf("pruned %d records, want 1", removed)
	}

	records := h.Recent("u1", 10)
	if len(records) != 1 || records[0].Query != "fresh" {
		t.Fatalf("wrong records survived: %v", records)
	}
}

func TestHistoryPruneEnforcesPerOwnerCap(t *testing.T) {
	h := NewHistoryService(time.Hour, 2)

	for _, q := range []string{"a", "b", "c", "d"} {
		h.Record("u1", q, nil)
	}
	h.Record("u2", "keep", nil)

	h.Prune()

	u1 := h.Recent("u1", 10)
	if len(u1) != 2 {
		t.Fatalf("cap not enforced: %d records", len(u1))
	}
	if u1[0].Query != "d" || u1[1].Query != "c" {
		t.Errorf("cap kept wrong records: %v", u1)
	}
	if len(h.Recent("u2", 10)) != 1 {
		t.Error("cap bled into another owner")
	}
}

func TestHistoryRecordCopiesDocumentIDs(t *testing.T) {
	h := NewHistoryService(time.Hour, 0)

	ids := []int64{1, 2, 3}
	h.Record("u1", "q", ids)
	ids[0] = 99

	records := h.Recent("u1", 1)
	if records[0].DocumentIDs[0] != 1 {
		t.Error("recorded IDs alias the caller's slice")
	}
}
