package repository

import (
	"context"
	"sync"

	"ChartCast/internal/domain/models"
	domrepo "ChartCast/internal/domain/repository"
)

// MemoryHistory keeps the cast log in process memory.
type MemoryHistory struct {
	mu    sync.RWMutex
	items []models.CastHistoryItem
	limit int
}

var _ domrepo.HistoryStore = (*MemoryHistory)(nil)

func NewMemoryHistory(limit int) *MemoryHistory {
	if limit <= 0 {
		limit = models.HistoryLimit
	}
	return &MemoryHistory{limit: limit}
}

func (h *MemoryHistory) Append(_ context.Context, item models.CastHistoryItem) error {
	h.mu.Lock()
	defer h.mu.Unlock()

	next := make([]models.CastHistoryItem, 0, min(len(h.items)+1, h.limit))
	next = append(next, item)
	next = append(next, h.items...)
	if len(next) > h.limit {
		next = next[:h.limit]
	}
	h.items = next
	return nil
}

func (h *MemoryHistory) List(_ context.Context) ([]models.CastHistoryItem, error) {
	h.mu.RLock()
	defer h.mu.RUnlock()

	out := make([]models.CastHistoryItem, len(h.items))
	copy(out, h.items)
	return out, nil
}

func (h *MemoryHistory) Clear(_ context.Context) error {
	h.mu.Lock()
	h.items = nil
	h.mu.Unlock()
	return nil
}
