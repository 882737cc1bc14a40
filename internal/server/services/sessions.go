package services

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/dmitrijs2005/tripflow/internal/common"
	"github.com/dmitrijs2005/tripflow/internal/logging"
	"github.com/dmitrijs2005/tripflow/internal/server/auth"
	sc "github.com/dmitrijs2005/tripflow/internal/server/config"
	"github.com/dmitrijs2005/tripflow/internal/server/models"
	"github.com/dmitrijs2005/tripflow/internal/server/repositories/repomanager"
	"github.com/google/uuid"
)

// SessionService is the flow session store: get-or-create by flow token,
// and merge-and-save with optimistic version checks.
type SessionService struct {
	db          *sql.DB
	repomanager repomanager.RepositoryManager
	config      *sc.Config
	log         logging.Logger
	now         func() time.Time
}

func NewSessionService(db *sql.DB, repomanager repomanager.RepositoryManager, config *sc.Config, l logging.Logger) *SessionService {
	return &SessionService{
		db:          db,
		repomanager: repomanager,
		config:      config,
		log:         l.With("module", "sessions"),
		now:         time.Now,
	}
}

// Load returns the session for flowToken, creating it on first contact.
// Concurrent first contacts converge on a single row.
func (s *SessionService) Load(ctx context.Context, flowToken string) (*models.FlowSession, error) {
	repo := s.repomanager.Sessions(s.db)

	sess, err := repo.GetByFlowToken(ctx, flowToken)
	if err == nil {
		return sess, nil
	}
	if !errors.Is(err, common.ErrorNotFound) {
		return nil, err
	}

	now := s.now().UTC()
	sess = &models.FlowSession{
		ID:              uuid.NewString(),
		FlowToken:       flowToken,
		ChannelIdentity: s.channelIdentity(ctx, flowToken),
		LastInteraction: now,
		CreatedAt:       now,
	}

	err = repo.Create(ctx, sess)
	switch {
	case err == nil:
		s.log.Info(ctx, "session created", "flow_token", flowToken, "has_identity", sess.ChannelIdentity != "")
		return sess, nil
	case errors.Is(err, common.ErrAlreadyExists):
		return repo.GetByFlowToken(ctx, flowToken)
	default:
		return nil, err
	}
}

// Save loads the session, applies patch and writes it back. A concurrent
// writer causes the whole cycle to be retried up to the configured number
// of times; patches are additive so replaying one is safe.
func (s *SessionService) Save(ctx context.Context, flowToken string, patch models.SessionPatch) (*models.FlowSession, error) {
	repo := s.repomanager.Sessions(s.db)

	attempts := s.config.VersionConflictRetries + 1
	if attempts < 1 {
		attempts = 1
	}

	for i := 0; i < attempts; i++ {
		sess, err := s.Load(ctx, flowToken)
		if err != nil {
			return nil, err
		}

		sess.Apply(patch, s.now().UTC())

		err = repo.Update(ctx, sess)
		if err == nil {
			return sess, nil
		}
		if !errors.Is(err, common.ErrVersionConflict) {
			return nil, err
		}
		s.log.Debug(ctx, "session version conflict, retrying", "flow_token", flowToken, "attempt", i+1)
	}

	return nil, fmt.Errorf("save session after %d attempts: %w", attempts, common.ErrVersionConflict)
}

func (s *SessionService) channelIdentity(ctx context.Context, flowToken string) string {
	if s.config.FlowTokenSecret == "" {
		return ""
	}
	phone, err := auth.ChannelIdentityFromToken(flowToken, []byte(s.config.FlowTokenSecret))
	if err != nil {
		s.log.Debug(ctx, "flow token carries no identity", "flow_token", flowToken, "reason", err)
		return ""
	}
	return phone
}
