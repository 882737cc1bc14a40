package bookings

import (
	"context"
	"sync"

	"github.com/dmitrijs2005/tripflow/internal/common"
	"github.com/dmitrijs2005/tripflow/internal/server/models"
)

// MemoryRepository keeps bookings in process memory. Safe for concurrent use.
type MemoryRepository struct {
	mu         sync.Mutex
	byToken    map[string]models.Booking
	references map[string]struct{}
}

func NewMemoryRepository() *MemoryRepository {
	return &MemoryRepository{
		byToken:    make(map[string]models.Booking),
		references: make(map[string]struct{}),
	}
}

func (r *MemoryRepository) GetByFlowToken(_ context.Context, flowToken string) (*models.Booking, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	b, ok := r.byToken[flowToken]
	if !ok {
		return nil, common.ErrorNotFound
	}
	return &b, nil
}

func (r *MemoryRepository) Create(_ context.Context, b *models.Booking) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, ok := r.byToken[b.FlowToken]; ok {
		return common.ErrAlreadyExists
	}
	if _, ok := r.references[b.Reference]; ok {
		return common.ErrAlreadyExists
	}
	r.byToken[b.FlowToken] = *b
	r.references[b.Reference] = struct{}{}
	return nil
}
