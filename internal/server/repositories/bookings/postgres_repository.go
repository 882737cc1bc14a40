package bookings

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/dmitrijs2005/tripflow/internal/common"
	"github.com/dmitrijs2005/tripflow/internal/dbx"
	"github.com/dmitrijs2005/tripflow/internal/server/models"
)

// PostgresRepository implements booking storage over a dbx.DBTX (*sql.DB or *sql.Tx).
type PostgresRepository struct {
	db dbx.DBTX
}

// NewPostgresRepository constructs a repository bound to the given DBTX.
func NewPostgresRepository(db dbx.DBTX) *PostgresRepository {
	return &PostgresRepository{db: db}
}

func (r *PostgresRepository) GetByFlowToken(ctx context.Context, flowToken string) (*models.Booking, error) {
	query := `SELECT id, reference, name, location_id, session_id, flow_token, remarks,
		summary, estimated_price, currency, status, created_at
		FROM bookings WHERE flow_token = $1`

	b := &models.Booking{}
	var raw []byte
	err := r.db.QueryRowContext(ctx, query, flowToken).Scan(
		&b.ID, &b.Reference, &b.Name, &b.LocationID, &b.SessionID, &b.FlowToken, &b.Remarks,
		&raw, &b.EstimatedPrice, &b.Currency, &b.Status, &b.CreatedAt,
	)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, common.ErrorNotFound
		}
		return nil, fmt.Errorf("db error: %w", err)
	}

	if len(raw) > 0 {
		if err := json.Unmarshal(raw, &b.Summary); err != nil {
			return nil, fmt.Errorf("decode summary: %w", err)
		}
	}

	return b, nil
}

// Create inserts b. A second booking for the same flow token is ignored by
// the database and reported as common.ErrAlreadyExists.
func (r *PostgresRepository) Create(ctx context.Context, b *models.Booking) error {
	raw, err := json.Marshal(b.Summary)
	if err != nil {
		return fmt.Errorf("encode summary: %w", err)
	}

	query := `INSERT INTO bookings (id, reference, name, location_id, session_id, flow_token,
		remarks, summary, estimated_price, currency, status, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12)
		ON CONFLICT (flow_token) DO NOTHING`

	res, err := r.db.ExecContext(ctx, query,
		b.ID, b.Reference, b.Name, b.LocationID, b.SessionID, b.FlowToken,
		b.Remarks, raw, b.EstimatedPrice, b.Currency, b.Status, b.CreatedAt)
	if err != nil {
		if dbx.IsUniqueViolation(err) {
			return common.ErrAlreadyExists
		}
		return fmt.Errorf("db error: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("rows affected error: %w", err)
	}
	if n == 0 {
		return common.ErrAlreadyExists
	}
	return nil
}
