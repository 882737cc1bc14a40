package flow

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/dmitrijs2005/tripflow/internal/common"
	"github.com/dmitrijs2005/tripflow/internal/logging"
	"github.com/dmitrijs2005/tripflow/internal/server/models"
	"github.com/google/uuid"
)

// SessionStore is the narrow storage contract the processor needs.
//
// Load returns the session for flowToken, creating it on first use.
// Save merges patch into the stored session and returns the result; the
// implementation retries on concurrent modification.
type SessionStore interface {
	Load(ctx context.Context, flowToken string) (*models.FlowSession, error)
	Save(ctx context.Context, flowToken string, patch models.SessionPatch) (*models.FlowSession, error)
}

// Finalizer turns a completed session into a booking. It must be
// idempotent per flow token.
type Finalizer interface {
	Finalize(ctx context.Context, s *models.FlowSession, summary models.BookingSummary, price int64) (*models.Booking, error)
}

// Emitter records audit/analytics events. Emit must not fail the caller.
type Emitter interface {
	Emit(ctx context.Context, e models.Event)
}

// Event types.
const (
	EventInit               = "flow.init"
	EventBack               = "flow.back"
	EventScreenSubmitted    = "flow.screen_submitted"
	EventValidationFallback = "flow.validation_fallback"
	EventErrorNotification  = "flow.error_notification"
	EventBookingConfirmed   = "booking.confirmed"
	EventBookingFailed      = "booking.failed"
)

// LocalReferencePrefix marks references made up when the booking could
// not be stored.
const LocalReferencePrefix = "TRV-LOCAL-"

// Processor handles one decrypted request at a time.
type Processor struct {
	machine   *Machine
	sessions  SessionStore
	finalizer Finalizer
	events    Emitter
	log       logging.Logger
	now       func() time.Time
}

func NewProcessor(machine *Machine, sessions SessionStore, finalizer Finalizer, events Emitter, l logging.Logger) *Processor {
	return &Processor{
		machine:   machine,
		sessions:  sessions,
		finalizer: finalizer,
		events:    events,
		log:       l.With("module", "flow"),
		now:       time.Now,
	}
}

// Handle dispatches req by action. Errors wrap common.ErrUnknownAction,
// common.ErrUnknownScreen or common.ErrSessionPersistence.
func (p *Processor) Handle(ctx context.Context, req *Request) (*Response, error) {
	req.Normalize()
	if req.Action == ActionPing {
		return &Response{Data: map[string]any{"status": "active"}}, nil
	}

	if req.IsErrorNotification() {
		return p.acknowledge(ctx, req), nil
	}

	switch req.Action {
	case ActionInit:
		return p.init(ctx, req)
	case ActionBack:
		return p.back(ctx, req)
	case ActionDataExchange:
		return p.exchange(ctx, req)
	default:
		return nil, fmt.Errorf("%w: %q", common.ErrUnknownAction, req.Action)
	}
}

func (p *Processor) acknowledge(ctx context.Context, req *Request) *Response {
	msg := stringField(req.Data, "error_message")
	if msg == "" {
		msg = stringField(req.Data, "error")
	}
	p.log.Warn(ctx, "client reported an error", "flow_token", req.FlowToken, "screen", req.Screen, "error", msg)
	p.emit(ctx, EventErrorNotification, req, req.Screen, map[string]string{"error": msg})
	return &Response{Version: version(req), Data: map[string]any{"acknowledged": true}}
}

func (p *Processor) init(ctx context.Context, req *Request) (*Response, error) {
	if _, err := p.load(ctx, req.FlowToken); err != nil {
		return nil, err
	}

	s, err := p.save(ctx, req.FlowToken, models.SessionPatch{Screen: ScreenDestination, Action: ActionInit})
	if err != nil {
		return nil, err
	}

	data, err := p.machine.Render(ScreenDestination, s.Context, "")
	if err != nil {
		return nil, err
	}

	p.emit(ctx, EventInit, req, ScreenDestination, nil)
	p.log.Info(ctx, "flow started", "flow_token", req.FlowToken)

	return &Response{Version: version(req), Screen: ScreenDestination, Data: data}, nil
}

func (p *Processor) back(ctx context.Context, req *Request) (*Response, error) {
	s, err := p.load(ctx, req.FlowToken)
	if err != nil {
		return nil, err
	}

	screen := req.Screen
	if screen == "" {
		screen = s.LastScreen
	}
	if screen == "" {
		screen = ScreenDestination
	}

	data, err := p.machine.Render(screen, s.Context, s.BookingID)
	if err != nil {
		return nil, err
	}

	if _, err := p.save(ctx, req.FlowToken, models.SessionPatch{Screen: screen, Action: ActionBack}); err != nil {
		return nil, err
	}

	p.emit(ctx, EventBack, req, screen, nil)

	return &Response{Version: version(req), Screen: screen, Data: data}, nil
}

func (p *Processor) exchange(ctx context.Context, req *Request) (*Response, error) {
	if req.Screen == "" {
		return nil, fmt.Errorf("%w: missing screen", common.ErrUnknownScreen)
	}

	s, err := p.load(ctx, req.FlowToken)
	if err != nil {
		return nil, err
	}

	out, err := p.machine.Advance(req.Screen, s.Context, req.Data)
	if err != nil {
		return nil, err
	}

	for _, field := range out.Fallbacks {
		p.log.Warn(ctx, "invalid selection replaced with default",
			"flow_token", req.FlowToken, "screen", req.Screen, "field", field)
		p.emit(ctx, EventValidationFallback, req, req.Screen, map[string]string{"field": field})
	}

	if out.Terminal {
		return p.complete(ctx, req, s, out)
	}

	saved, err := p.save(ctx, req.FlowToken, models.SessionPatch{
		Context: out.Patch,
		Screen:  out.Next,
		Action:  ActionDataExchange,
	})
	if err != nil {
		return nil, err
	}

	data, err := p.machine.Render(out.Next, saved.Context, "")
	if err != nil {
		return nil, err
	}

	p.emit(ctx, EventScreenSubmitted, req, req.Screen, map[string]string{"next": out.Next})
	p.log.Info(ctx, "screen submitted", "flow_token", req.FlowToken, "screen", req.Screen, "next", out.Next)

	return &Response{Version: version(req), Screen: out.Next, Data: data}, nil
}

// complete finalizes the booking. A finalizer failure does not fail the
// request: the traveller gets a locally generated reference and the
// session stays open so a retry can still book.
func (p *Processor) complete(ctx context.Context, req *Request, s *models.FlowSession, out Outcome) (*Response, error) {
	final := *s
	final.Context = s.Context.Merge(out.Patch)

	summary, price := BuildSummary(final.Context, p.machine.Prices())

	patch := models.SessionPatch{Context: out.Patch, Screen: out.Next, Action: ActionDataExchange}

	var ref string
	booking, err := p.finalizer.Finalize(ctx, &final, summary, price)
	if err != nil {
		ref = LocalReferencePrefix + p.now().UTC().Format("20060102150405")
		p.log.Error(ctx, "booking failed, using local reference",
			"flow_token", req.FlowToken, "reference", ref, "error", err)
		p.emit(ctx, EventBookingFailed, req, req.Screen, map[string]string{
			"reference": ref,
			"reason":    reason(err),
		})
	} else {
		ref = booking.Reference
		patch.Archive = true
		patch.BookingID = booking.Reference
		p.emit(ctx, EventBookingConfirmed, req, req.Screen, map[string]string{
			"reference":   ref,
			"total_price": summary.TotalPrice,
		})
		p.log.Info(ctx, "booking confirmed", "flow_token", req.FlowToken, "reference", ref)
	}

	if _, err := p.save(ctx, req.FlowToken, patch); err != nil {
		return nil, err
	}

	return &Response{Version: version(req), Screen: out.Next, Data: confirmation(summary, ref)}, nil
}

func (p *Processor) load(ctx context.Context, flowToken string) (*models.FlowSession, error) {
	s, err := p.sessions.Load(ctx, flowToken)
	if err != nil {
		p.log.Error(ctx, "session load failed", "flow_token", flowToken, "error", err)
		return nil, fmt.Errorf("%w: %w", common.ErrSessionPersistence, err)
	}
	return s, nil
}

func (p *Processor) save(ctx context.Context, flowToken string, patch models.SessionPatch) (*models.FlowSession, error) {
	s, err := p.sessions.Save(ctx, flowToken, patch)
	if err != nil {
		p.log.Error(ctx, "session save failed", "flow_token", flowToken, "error", err)
		return nil, fmt.Errorf("%w: %w", common.ErrSessionPersistence, err)
	}
	return s, nil
}

func (p *Processor) emit(ctx context.Context, typ string, req *Request, screen string, attrs map[string]string) {
	p.events.Emit(ctx, models.Event{
		ID:         uuid.NewString(),
		Type:       typ,
		FlowToken:  req.FlowToken,
		Screen:     screen,
		Action:     req.Action,
		Attributes: attrs,
		OccurredAt: p.now().UTC(),
	})
}

func version(req *Request) string {
	if req.Version == "" {
		return DefaultVersion
	}
	return req.Version
}

func reason(err error) string {
	switch {
	case errors.Is(err, common.ErrMissingAnchor):
		return "missing_anchor"
	case errors.Is(err, common.ErrBookingPersistence):
		return "persistence"
	default:
		return strings.ReplaceAll(err.Error(), "\n", " ")
	}
}
