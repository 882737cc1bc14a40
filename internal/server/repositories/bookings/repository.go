// Package bookings persists finalized bookings. A flow token owns at most
// one booking.
package bookings

import (
	"context"

	"github.com/dmitrijs2005/tripflow/internal/server/models"
)

type Repository interface {
	// GetByFlowToken returns common.ErrorNotFound when the session has not
	// been booked yet.
	GetByFlowToken(ctx context.Context, flowToken string) (*models.Booking, error)
	// Create returns common.ErrAlreadyExists if the flow token (or the
	// reference) is already booked.
	Create(ctx context.Context, b *models.Booking) error
}
