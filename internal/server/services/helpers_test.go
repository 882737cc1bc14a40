package services

import (
	"context"
	"sync"
	"time"

	"github.com/dmitrijs2005/tripflow/internal/common"
	"github.com/dmitrijs2005/tripflow/internal/dbx"
	"github.com/dmitrijs2005/tripflow/internal/server/config"
	"github.com/dmitrijs2005/tripflow/internal/server/models"
	"github.com/dmitrijs2005/tripflow/internal/server/repositories/bookings"
	"github.com/dmitrijs2005/tripflow/internal/server/repositories/repomanager"
	"github.com/dmitrijs2005/tripflow/internal/server/repositories/sessions"
)

func testConfig() *config.Config {
	cfg := &config.Config{}
	cfg.LoadDefaults()
	cfg.NotifyAsync = false
	cfg.NotifyTimeout = time.Second
	return cfg
}

// conflictingSessions fails the first n updates with a version conflict.
type conflictingSessions struct {
	sessions.Repository
	mu        sync.Mutex
	conflicts int
	updates   int
}

func (c *conflictingSessions) Update(ctx context.Context, s *models.FlowSession) error {
	c.mu.Lock()
	c.updates++
	if c.conflicts > 0 {
		c.conflicts--
		c.mu.Unlock()
		return common.ErrVersionConflict
	}
	c.mu.Unlock()
	return c.Repository.Update(ctx, s)
}

type brokenBookings struct {
	getErr    error
	createErr error
}

func (b *brokenBookings) GetByFlowToken(context.Context, string) (*models.Booking, error) {
	if b.getErr != nil {
		return nil, b.getErr
	}
	return nil, common.ErrorNotFound
}

func (b *brokenBookings) Create(context.Context, *models.Booking) error { return b.createErr }

// stubManager overrides selected repositories of an in-memory manager.
type stubManager struct {
	*repomanager.MemoryRepositoryManager
	sessions sessions.Repository
	bookings bookings.Repository
}

func (m *stubManager) Sessions(db dbx.DBTX) sessions.Repository {
	if m.sessions != nil {
		return m.sessions
	}
	return m.MemoryRepositoryManager.Sessions(db)
}

func (m *stubManager) Bookings(db dbx.DBTX) bookings.Repository {
	if m.bookings != nil {
		return m.bookings
	}
	return m.MemoryRepositoryManager.Bookings(db)
}

type fakeNotifier struct {
	mu   sync.Mutex
	err  error
	sent []string
	to   []string
}

func (f *fakeNotifier) Send(_ context.Context, to, text string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.to = append(f.to, to)
	f.sent = append(f.sent, text)
	return f.err
}

func (f *fakeNotifier) count() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.sent)
}

type recorder struct {
	mu     sync.Mutex
	events []models.Event
}

func (r *recorder) Emit(_ context.Context, e models.Event) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.events = append(r.events, e)
}
