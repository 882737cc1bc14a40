package events

import (
	"bytes"
	"context"
	"errors"
	"log/slog"
	"sync"
	"testing"
	"time"

	"github.com/dmitrijs2005/tripflow/internal/logging"
	"github.com/dmitrijs2005/tripflow/internal/server/models"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type memSink struct {
	name string
	err  error

	mu     sync.Mutex
	events []models.Event
	ctxErr error
}

func (m *memSink) Name() string { return m.name }

func (m *memSink) Write(ctx context.Context, e models.Event) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.events = append(m.events, e)
	m.ctxErr = ctx.Err()
	return m.err
}

func sampleEvent() models.Event {
	return models.Event{
		ID:         "4b0f0c52-5d7e-4a84-9a4e-0f1e2d3c4b5a",
		Type:       "flow.screen_submitted",
		FlowToken:  "abc123",
		Screen:     "DESTINATION_SELECTION",
		Action:     "data_exchange",
		OccurredAt: time.Date(2025, 3, 14, 9, 30, 0, 0, time.UTC),
	}
}

func TestEmitter_WritesToAllSinks(t *testing.T) {
	a := &memSink{name: "a"}
	b := &memSink{name: "b"}
	e := NewEmitter(logging.Nop(), time.Second, a, b)

	e.Emit(context.Background(), sampleEvent())

	require.Len(t, a.events, 1)
	require.Len(t, b.events, 1)
	assert.Equal(t, "abc123", a.events[0].FlowToken)
}

func TestEmitter_FailingSinkDoesNotStopOthers(t *testing.T) {
	reg := prometheus.NewRegistry()
	failures := prometheus.NewCounterVec(prometheus.CounterOpts{Name: "sink_failures"}, []string{"sink"})
	reg.MustRegister(failures)

	bad := &memSink{name: "bad", err: errors.New("unreachable")}
	good := &memSink{name: "good"}
	e := NewEmitter(logging.Nop(), time.Second, bad, good).CountFailures(failures)

	assert.NotPanics(t, func() { e.Emit(context.Background(), sampleEvent()) })

	assert.Len(t, good.events, 1)
	assert.Equal(t, 1.0, testutil.ToFloat64(failures.WithLabelValues("bad")))
	assert.Equal(t, 0.0, testutil.ToFloat64(failures.WithLabelValues("good")))
}

func TestEmitter_IgnoresCallerCancellation(t *testing.T) {
	s := &memSink{name: "s"}
	e := NewEmitter(logging.Nop(), time.Second, s)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	e.Emit(ctx, sampleEvent())

	require.Len(t, s.events, 1)
	assert.NoError(t, s.ctxErr)
}

func TestEmitter_NoSinks(t *testing.T) {
	e := NewEmitter(logging.Nop(), 0)
	assert.NotPanics(t, func() { e.Emit(context.Background(), sampleEvent()) })
}

func TestLogSink_Write(t *testing.T) {
	var buf bytes.Buffer
	l := logging.NewSlogLogger(slog.New(slog.NewJSONHandler(&buf, nil)))

	ev := sampleEvent()
	ev.Attributes = map[string]string{"reference": "TRV-1A2B3C4D"}

	require.NoError(t, NewLogSink(l).Write(context.Background(), ev))

	out := buf.String()
	assert.Contains(t, out, `"msg":"flow event"`)
	assert.Contains(t, out, `"type":"flow.screen_submitted"`)
	assert.Contains(t, out, `"screen":"DESTINATION_SELECTION"`)
	assert.Contains(t, out, `"reference":"TRV-1A2B3C4D"`)
}

func TestMetricsSink_CountsByType(t *testing.T) {
	c := prometheus.NewCounterVec(prometheus.CounterOpts{Name: "events"}, []string{"type"})
	s := NewMetricsSink(c)

	ev := sampleEvent()
	require.NoError(t, s.Write(context.Background(), ev))
	require.NoError(t, s.Write(context.Background(), ev))
	ev.Type = "booking.confirmed"
	require.NoError(t, s.Write(context.Background(), ev))

	assert.Equal(t, 2.0, testutil.ToFloat64(c.WithLabelValues("flow.screen_submitted")))
	assert.Equal(t, 1.0, testutil.ToFloat64(c.WithLabelValues("booking.confirmed")))
	assert.Equal(t, "metrics", s.Name())
}
