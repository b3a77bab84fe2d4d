package repository

import (
	"context"
	"sort"
	"sync"
	"time"

	"skill-swap/internal/domain/swap"

	"github.com/google/uuid"
)

// MemorySwapRepository keeps swap records in process memory. Every
// check-and-write happens under one lock, which gives it the same
// duplicate and compare-and-set guarantees as the Postgres store for a
// single instance.
type MemorySwapRepository struct {
	mu    sync.RWMutex
	swaps map[uuid.UUID]swap.SwapRequest
}

func NewMemorySwapRepository() *MemorySwapRepository {
	return &MemorySwapRepository{swaps: make(map[uuid.UUID]swap.SwapRequest)}
}

func (r *MemorySwapRepository) Create(_ context.Context, s swap.SwapRequest) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if s.Status == swap.StatusPending {
		for _, existing := range r.swaps {
			if existing.Status == swap.StatusPending && existing.SamePair(s) {
				return ErrPendingSwapExists
			}
		}
	}
	r.swaps[s.ID] = cloneSwap(s)
	return nil
}

func (r *MemorySwapRepository) FindByID(_ context.Context, id uuid.UUID) (swap.SwapRequest, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	s, ok := r.swaps[id]
	if !ok {
		return swap.SwapRequest{}, ErrSwapRecordNotFound
	}
	return cloneSwap(s), nil
}

func (r *MemorySwapRepository) FindByUser(_ context.Context, userID uuid.UUID, status *swap.Status) ([]swap.SwapRequest, error) {
	r.mu.RLock()
	out := make([]swap.SwapRequest, 0)
	for _, s := range r.swaps {
		if !s.Involves(userID) {
			continue
		}
		if status != nil && s.Status != *status {
			continue
		}
		out = append(out, cloneSwap(s))
	}
	r.mu.RUnlock()

	sort.Slice(out, func(i, j int) bool {
		if !out[i].CreatedAt.Equal(out[j].CreatedAt) {
			return out[i].CreatedAt.After(out[j].CreatedAt)
		}
		return out[i].ID.String() < out[j].ID.String()
	})
	return out, nil
}

func (r *MemorySwapRepository) TransitionStatus(_ context.Context, id uuid.UUID, from, to swap.Status, at time.Time) (swap.SwapRequest, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	s, ok := r.swaps[id]
	if !ok {
		return swap.SwapRequest{}, ErrSwapRecordNotFound
	}
	if s.Status != from {
		return swap.SwapRequest{}, ErrSwapStatusConflict
	}

	s.Status = to
	updated := at
	s.UpdatedAt = &updated
	r.swaps[id] = s
	return cloneSwap(s), nil
}

func cloneSwap(s swap.SwapRequest) swap.SwapRequest {
	if s.UpdatedAt != nil {
		t := *s.UpdatedAt
		s.UpdatedAt = &t
	}
	return s
}
