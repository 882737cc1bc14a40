package sessions

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

// PostgresRepository implements session storage over a dbx.DBTX (*sql.DB or *sql.Tx).
type PostgresRepository struct {
	db dbx.DBTX
}

// NewPostgresRepository constructs a repository bound to the given DBTX.
func NewPostgresRepository(db dbx.DBTX) *PostgresRepository {
	return &PostgresRepository{db: db}
}

func (r *PostgresRepository) GetByFlowToken(ctx context.Context, flowToken string) (*models.FlowSession, error) {
	query := `SELECT id, flow_token, context, last_screen, last_action, last_interaction,
		channel_identity, is_archived, booking_id, version, created_at
		FROM flow_sessions WHERE flow_token = $1`

	s := &models.FlowSession{}
	var raw []byte
	err := r.db.QueryRowContext(ctx, query, flowToken).Scan(
		&s.ID, &s.FlowToken, &raw, &s.LastScreen, &s.LastAction, &s.LastInteraction,
		&s.ChannelIdentity, &s.IsArchived, &s.BookingID, &s.Version, &s.CreatedAt,
	)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, common.ErrorNotFound
		}
		return nil, fmt.Errorf("db error: %w", err)
	}

	if len(raw) > 0 {
		if err := json.Unmarshal(raw, &s.Context); err != nil {
			return nil, fmt.Errorf("decode context: %w", err)
		}
	}

	return s, nil
}

// Create inserts a new session with version 1.
func (r *PostgresRepository) Create(ctx context.Context, s *models.FlowSession) error {
	raw, err := json.Marshal(s.Context)
	if err != nil {
		return fmt.Errorf("encode context: %w", err)
	}

	query := `INSERT INTO flow_sessions (id, flow_token, context, last_screen, last_action,
		last_interaction, channel_identity, is_archived, booking_id, version, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, 1, $10)`

	_, err = r.db.ExecContext(ctx, query,
		s.ID, s.FlowToken, raw, s.LastScreen, s.LastAction,
		s.LastInteraction, s.ChannelIdentity, s.IsArchived, s.BookingID, s.CreatedAt)
	if err != nil {
		if dbx.IsUniqueViolation(err) {
			return common.ErrAlreadyExists
		}
		return fmt.Errorf("db error: %w", err)
	}

	s.Version = 1
	return nil
}

// Update writes s if the stored version still equals s.Version.
func (r *PostgresRepository) Update(ctx context.Context, s *models.FlowSession) error {
	raw, err := json.Marshal(s.Context)
	if err != nil {
		return fmt.Errorf("encode context: %w", err)
	}

	query := `UPDATE flow_sessions SET context = $1, last_screen = $2, last_action = $3,
		last_interaction = $4, channel_identity = $5, is_archived = $6, booking_id = $7,
		version = version + 1
		WHERE id = $8 AND version = $9`

	res, err := r.db.ExecContext(ctx, query,
		raw, s.LastScreen, s.LastAction, s.LastInteraction, s.ChannelIdentity,
		s.IsArchived, s.BookingID, s.ID, s.Version)
	if err != nil {
		return fmt.Errorf("db error: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("rows affected error: %w", err)
	}
	switch n {
	case 1:
		s.Version++
		return nil
	case 0:
		return common.ErrVersionConflict
	default:
		return fmt.Errorf("unexpected rows affected: %d", n)
	}
}
