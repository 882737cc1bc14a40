// Package sessions persists flow sessions keyed by flow token.
package sessions

import (
	"context"

	"github.com/dmitrijs2005/tripflow/internal/server/models"
)

// Repository stores FlowSession rows.
//
// GetByFlowToken returns common.ErrorNotFound when no session exists.
// Create returns common.ErrAlreadyExists if the flow token is taken.
// Update applies only when s.Version matches the stored version, bumps
// s.Version on success and returns common.ErrVersionConflict otherwise.
type Repository interface {
	GetByFlowToken(ctx context.Context, flowToken string) (*models.FlowSession, error)
	Create(ctx context.Context, s *models.FlowSession) error
	Update(ctx context.Context, s *models.FlowSession) error
}
