package services

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/dmitrijs2005/tripflow/internal/common"
	"github.com/dmitrijs2005/tripflow/internal/dbx"
	"github.com/dmitrijs2005/tripflow/internal/logging"
	sc "github.com/dmitrijs2005/tripflow/internal/server/config"
	"github.com/dmitrijs2005/tripflow/internal/server/flow"
	"github.com/dmitrijs2005/tripflow/internal/server/models"
	"github.com/dmitrijs2005/tripflow/internal/server/repositories/repomanager"
	"github.com/dmitrijs2005/tripflow/internal/shared"
	"github.com/google/uuid"
)

// Notifier delivers a text message to a channel identity (phone number).
type Notifier interface {
	Send(ctx context.Context, to, text string) error
}

// EventNotificationFailed is emitted when a confirmation could not be sent.
const EventNotificationFailed = "notification.failed"

// BookingService turns completed sessions into bookings and sends one
// confirmation per booking.
type BookingService struct {
	db          *sql.DB
	repomanager repomanager.RepositoryManager
	config      *sc.Config
	notifier    Notifier
	events      flow.Emitter
	log         logging.Logger
	now         func() time.Time

	pending sync.WaitGroup
}

func NewBookingService(db *sql.DB, repomanager repomanager.RepositoryManager, config *sc.Config,
	notifier Notifier, events flow.Emitter, l logging.Logger) *BookingService {
	return &BookingService{
		db:          db,
		repomanager: repomanager,
		config:      config,
		notifier:    notifier,
		events:      events,
		log:         l.With("module", "bookings"),
		now:         time.Now,
	}
}

// NewReference returns a short human-friendly booking reference.
func NewReference() (string, error) {
	h, err := shared.MakeRandHexString(4)
	if err != nil {
		return "", err
	}
	return "TRV-" + strings.ToUpper(h), nil
}

// Finalize stores the booking for s, or returns the one already stored for
// its flow token. Only a newly created booking triggers a notification.
//
// A missing default location yields common.ErrMissingAnchor; storage
// failures wrap common.ErrBookingPersistence.
func (b *BookingService) Finalize(ctx context.Context, s *models.FlowSession, summary models.BookingSummary, price int64) (*models.Booking, error) {
	var booking *models.Booking
	created := false

	err := dbx.WithTx(ctx, b.db, nil, func(ctx context.Context, tx dbx.DBTX) error {
		repo := b.repomanager.Bookings(tx)

		existing, err := repo.GetByFlowToken(ctx, s.FlowToken)
		if err == nil {
			booking = existing
			return nil
		}
		if !errors.Is(err, common.ErrorNotFound) {
			return err
		}

		loc, err := b.repomanager.Locations(tx).GetDefault(ctx)
		if err != nil {
			if errors.Is(err, common.ErrorNotFound) {
				return common.ErrMissingAnchor
			}
			return err
		}

		ref, err := NewReference()
		if err != nil {
			return err
		}

		nb := &models.Booking{
			ID:             uuid.NewString(),
			Reference:      ref,
			Name:           flow.BookingName(s.Context),
			LocationID:     loc.ID,
			SessionID:      s.ID,
			FlowToken:      s.FlowToken,
			Remarks:        flow.Remarks(summary, s.FlowToken),
			Summary:        summary,
			EstimatedPrice: price,
			Currency:       "USD",
			Status:         models.BookingStatusConfirmed,
			CreatedAt:      b.now().UTC(),
		}

		if err := repo.Create(ctx, nb); err != nil {
			if !errors.Is(err, common.ErrAlreadyExists) {
				return err
			}
			existing, err := repo.GetByFlowToken(ctx, s.FlowToken)
			if err != nil {
				return err
			}
			booking = existing
			return nil
		}

		booking = nb
		created = true
		return nil
	})
	if err != nil {
		if errors.Is(err, common.ErrMissingAnchor) {
			b.log.Error(ctx, "no default location configured", "flow_token", s.FlowToken)
			return nil, err
		}
		return nil, fmt.Errorf("%w: %w", common.ErrBookingPersistence, err)
	}

	if created {
		b.log.Info(ctx, "booking created", "flow_token", s.FlowToken, "reference", booking.Reference)
		b.dispatch(ctx, s, booking)
	} else {
		b.log.Info(ctx, "booking already exists", "flow_token", s.FlowToken, "reference", booking.Reference)
	}

	return booking, nil
}

// dispatch sends the confirmation. In async mode it runs on a context
// detached from the request, bounded by the notify timeout.
func (b *BookingService) dispatch(ctx context.Context, s *models.FlowSession, booking *models.Booking) {
	if s.ChannelIdentity == "" {
		b.log.Warn(ctx, "no channel identity, confirmation not sent", "flow_token", s.FlowToken)
		return
	}

	text := flow.ConfirmationMessage(booking.Summary, booking.Reference)

	send := func(ctx context.Context) {
		if b.config.NotifyTimeout > 0 {
			var cancel context.CancelFunc
			ctx, cancel = context.WithTimeout(ctx, b.config.NotifyTimeout)
			defer cancel()
		}

		if err := b.notifier.Send(ctx, s.ChannelIdentity, text); err != nil {
			b.log.Error(ctx, "confirmation not delivered", "flow_token", s.FlowToken,
				"reference", booking.Reference, "error", fmt.Errorf("%w: %w", common.ErrNotification, err))
			b.events.Emit(ctx, models.Event{
				ID:         uuid.NewString(),
				Type:       EventNotificationFailed,
				FlowToken:  s.FlowToken,
				Attributes: map[string]string{"reference": booking.Reference},
				OccurredAt: b.now().UTC(),
			})
			return
		}
		b.log.Info(ctx, "confirmation sent", "flow_token", s.FlowToken, "reference", booking.Reference)
	}

	if !b.config.NotifyAsync {
		send(ctx)
		return
	}

	b.pending.Add(1)
	go func() {
		defer b.pending.Done()
		send(context.WithoutCancel(ctx))
	}()
}

// Wait blocks until in-flight asynchronous notifications finish.
func (b *BookingService) Wait() {
	b.pending.Wait()
}
