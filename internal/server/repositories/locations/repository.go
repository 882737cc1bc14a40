// Package locations reads the reference location bookings attach to.
package locations

import (
	"context"

	"github.com/dmitrijs2005/tripflow/internal/server/models"
)

type Repository interface {
	// GetDefault returns common.ErrorNotFound when no default is configured.
	GetDefault(ctx context.Context) (*models.Location, error)
}
