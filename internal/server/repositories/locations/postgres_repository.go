package locations

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/dmitrijs2005/tripflow/internal/common"
	"github.com/dmitrijs2005/tripflow/internal/dbx"
	"github.com/dmitrijs2005/tripflow/internal/server/models"
)

type PostgresRepository struct {
	db dbx.DBTX
}

func NewPostgresRepository(db dbx.DBTX) *PostgresRepository {
	return &PostgresRepository{db: db}
}

func (r *PostgresRepository) GetDefault(ctx context.Context) (*models.Location, error) {
	query := `SELECT id, code, name, is_default FROM locations WHERE is_default LIMIT 1`

	l := &models.Location{}
	err := r.db.QueryRowContext(ctx, query).Scan(&l.ID, &l.Code, &l.Name, &l.IsDefault)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, common.ErrorNotFound
		}
		return nil, fmt.Errorf("db error: %w", err)
	}
	return l, nil
}
