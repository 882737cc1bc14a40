package sessions

import (
	"context"
	"sync"

	"github.com/dmitrijs2005/tripflow/internal/common"
	"github.com/dmitrijs2005/tripflow/internal/server/models"
)

// MemoryRepository keeps sessions in process memory. It honours the same
// version contract as the Postgres implementation. Safe for concurrent use.
type MemoryRepository struct {
	mu   sync.Mutex
	rows map[string]models.FlowSession
}

func NewMemoryRepository() *MemoryRepository {
	return &MemoryRepository{rows: make(map[string]models.FlowSession)}
}

func (r *MemoryRepository) GetByFlowToken(_ context.Context, flowToken string) (*models.FlowSession, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	s, ok := r.rows[flowToken]
	if !ok {
		return nil, common.ErrorNotFound
	}
	out := clone(s)
	return &out, nil
}

func (r *MemoryRepository) Create(_ context.Context, s *models.FlowSession) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, ok := r.rows[s.FlowToken]; ok {
		return common.ErrAlreadyExists
	}
	s.Version = 1
	r.rows[s.FlowToken] = clone(*s)
	return nil
}

func (r *MemoryRepository) Update(_ context.Context, s *models.FlowSession) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	cur, ok := r.rows[s.FlowToken]
	if !ok || cur.ID != s.ID || cur.Version != s.Version {
		return common.ErrVersionConflict
	}
	s.Version++
	r.rows[s.FlowToken] = clone(*s)
	return nil
}

func clone(s models.FlowSession) models.FlowSession {
	s.Context = models.TripContext{}.Merge(s.Context)
	return s
}
