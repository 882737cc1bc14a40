package locations

import (
	"context"

	"github.com/dmitrijs2005/tripflow/internal/common"
	"github.com/dmitrijs2005/tripflow/internal/server/models"
)

// MemoryRepository serves a fixed set of locations.
type MemoryRepository struct {
	locations []models.Location
}

// NewMemoryRepository returns a repository over a copy of locations.
func NewMemoryRepository(locations ...models.Location) *MemoryRepository {
	return &MemoryRepository{locations: append([]models.Location(nil), locations...)}
}

// DefaultLocation matches the row seeded by the Postgres migrations.
func DefaultLocation() models.Location {
	return models.Location{
		ID:        "6f1c2a5e-3b7d-4c1e-9a8f-0d2b4e6a8c10",
		Code:      "HQ",
		Name:      "Head Office",
		IsDefault: true,
	}
}

func (r *MemoryRepository) GetDefault(_ context.Context) (*models.Location, error) {
	for _, l := range r.locations {
		if l.IsDefault {
			out := l
			return &out, nil
		}
	}
	return nil, common.ErrorNotFound
}
