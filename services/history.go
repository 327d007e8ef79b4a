package services

import (
	"sort"
	"sync"
	"time"

	"github.com/go-co-op/gocron"
	"github.com/google/uuid"

	"document-search-platform/internal/logger"
	"document-search-platform/models"
)

// HistoryService keeps an append-only log of completed searches per owner.
// Records are held in memory and pruned on a schedule once they fall out of
// the retention window.
type HistoryService struct {
	mu          sync.RWMutex
	records     []models.SearchRecord
	retention   time.Duration
	maxPerOwner int
	scheduler   *gocron.Scheduler
}

// NewHistoryService creates a history log with the given retention window
// and per-owner record cap. A cap of 0 disables per-owner trimming.
func NewHistoryService(retention time.Duration, maxPerOwner int) *HistoryService {
	return &HistoryService{
		retention:   retention,
		maxPerOwner: maxPerOwner,
	}
}

// Record appends a completed search to the log.
func (h *HistoryService) Record(ownerID, query string, documentIDs []int64) error {
	h.mu.Lock()
	defer h.mu.Unlock()

	ids := make([]int64, len(documentIDs))
	copy(ids, documentIDs)

	h.records = append(h.records, models.SearchRecord{
		ID:          uuid.New().String(),
		OwnerID:     ownerID,
		Query:       query,
		DocumentIDs: ids,
		CreatedAt:   time.Now().UTC(),
	})
	return nil
}

// Recent returns up to limit of the owner's searches, newest first.
func (h *HistoryService) Recent(ownerID string, limit int) []models.SearchRecord {
	h.mu.RLock()
	defer h.mu.RUnlock()

	var out []models.SearchRecord
	for _, r := range h.records {
		if r.OwnerID == ownerID {
			out = append(out, r)
		}
	}
	sort.SliceStable(out, func(i, j int) bool {
		return out[i].CreatedAt.After(out[j].CreatedAt)
	})
	if limit > 0 && len(out) > limit {
		out = out[:limit]
	}
	return out
}

// Prune drops records older than the retention window, then trims each owner
// down to the per-owner cap, keeping the newest. Returns how many records
// were removed.
func (h *HistoryService) Prune() int {
	h.mu.Lock()
	defer h.mu.Unlock()

	before := len(h.records)
	cutoff := time.Now().UTC().Add(-h.retention)

	kept := h.records[:0]
	for _, r := range h.records {
		if r.CreatedAt.After(cutoff) {
			kept = append(kept, r)
		}
	}
	h.records = kept

	if h.maxPerOwner > 0 {
		perOwner := make(map[string]int)
		// Records are in insertion order; walk backwards so the newest per
		// owner survive the cap.
		trimmed := make([]models.SearchRecord, 0, len(h.records))
		for i := len(h.records) - 1; i >= 0; i-- {
			r := h.records[i]
			if perOwner[r.OwnerID] >= h.maxPerOwner {
				continue
			}
			perOwner[r.OwnerID]++
			trimmed = append(trimmed, r)
		}
		// Restore insertion order.
		for i, j := 0, len(trimmed)-1; i < j; i, j = i+1, j-1 {
			trimmed[i], trimmed[j] = trimmed[j], trimmed[i]
		}
		h.records = trimmed
	}

	return before - len(h.records)
}

// StartPruning schedules Prune at the given interval. Safe to call once;
// call StopPruning on shutdown.
func (h *HistoryService) StartPruning(interval time.Duration) error {
	h.mu.Lock()
	defer h.mu.Unlock()

	if h.scheduler != nil {
		return nil
	}
	s := gocron.NewScheduler(time.UTC)
	_, err := s.Every(interval).Tag("history-prune").Do(func() {
		if removed := h.Prune(); removed > 0 {
			logger.Info("pruned search history", "removed", removed)
		}
	})
	if err != nil {
		return err
	}
	s.StartAsync()
	h.scheduler = s
	return nil
}

// StopPruning stops the retention scheduler.
func (h *HistoryService) StopPruning() {
	h.mu.Lock()
	defer h.mu.Unlock()

	if h.scheduler != nil {
		h.scheduler.Stop()
		h.scheduler = nil
	}
}

// Count reports the number of retained records.
func (h *HistoryService) Count() int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.records)
}
