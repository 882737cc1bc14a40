package repomanager

import (
	"context"
	"database/sql"

	"github.com/dmitrijs2005/tripflow/internal/dbx"
	"github.com/dmitrijs2005/tripflow/internal/server/models"
	"github.com/dmitrijs2005/tripflow/internal/server/repositories/bookings"
	"github.com/dmitrijs2005/tripflow/internal/server/repositories/locations"
	"github.com/dmitrijs2005/tripflow/internal/server/repositories/sessions"
)

// MemoryRepositoryManager hands out the same in-memory repositories for
// every DBTX, so transactions degrade to plain sequential calls.
type MemoryRepositoryManager struct {
	sessions  *sessions.MemoryRepository
	bookings  *bookings.MemoryRepository
	locations *locations.MemoryRepository
}

// NewMemoryRepositoryManager builds in-memory repositories. With no
// locations given, the default location seeded by the SQL migrations is used.
func NewMemoryRepositoryManager(locs ...models.Location) *MemoryRepositoryManager {
	if len(locs) == 0 {
		locs = []models.Location{locations.DefaultLocation()}
	}
	return &MemoryRepositoryManager{
		sessions:  sessions.NewMemoryRepository(),
		bookings:  bookings.NewMemoryRepository(),
		locations: locations.NewMemoryRepository(locs...),
	}
}

func (m *MemoryRepositoryManager) RunMigrations(context.Context, *sql.DB) error { return nil }

func (m *MemoryRepositoryManager) Sessions(dbx.DBTX) sessions.Repository { return m.sessions }

func (m *MemoryRepositoryManager) Bookings(dbx.DBTX) bookings.Repository { return m.bookings }

func (m *MemoryRepositoryManager) Locations(dbx.DBTX) locations.Repository { return m.locations }
