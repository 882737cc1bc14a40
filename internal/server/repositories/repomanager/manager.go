// Package repomanager vends repository implementations for the configured
// storage backend and runs schema migrations where the backend has a schema.
package repomanager

import (
	"context"
	"database/sql"

	"github.com/dmitrijs2005/tripflow/internal/dbx"
	"github.com/dmitrijs2005/tripflow/internal/server/repositories/bookings"
	"github.com/dmitrijs2005/tripflow/internal/server/repositories/locations"
	"github.com/dmitrijs2005/tripflow/internal/server/repositories/sessions"
)

type RepositoryManager interface {
	RunMigrations(context.Context, *sql.DB) error
	Sessions(db dbx.DBTX) sessions.Repository
	Bookings(db dbx.DBTX) bookings.Repository
	Locations(db dbx.DBTX) locations.Repository
}
