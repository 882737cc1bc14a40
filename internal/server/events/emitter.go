// Package events fans flow events out to the configured sinks: the
// structured log, a Redis stream and an S3 bucket.
package events

import (
	"context"
	"time"

	"github.com/dmitrijs2005/tripflow/internal/logging"
	"github.com/dmitrijs2005/tripflow/internal/server/models"
	"github.com/prometheus/client_golang/prometheus"
)

// Sink records a single event.
type Sink interface {
	Name() string
	Write(ctx context.Context, e models.Event) error
}

// Emitter writes each event to every sink. A failing sink is logged and
// counted but never reported to the caller.
type Emitter struct {
	sinks    []Sink
	timeout  time.Duration
	failures *prometheus.CounterVec
	log      logging.Logger
}

func NewEmitter(l logging.Logger, timeout time.Duration, sinks ...Sink) *Emitter {
	return &Emitter{
		sinks:   sinks,
		timeout: timeout,
		log:     l.With("module", "events"),
	}
}

// CountFailures makes the emitter increment c, labelled by sink name, on
// every failed write.
func (e *Emitter) CountFailures(c *prometheus.CounterVec) *Emitter {
	e.failures = c
	return e
}

// Emit writes ev to all sinks. The request context only contributes its
// values; cancellation of the request does not abort the writes.
func (e *Emitter) Emit(ctx context.Context, ev models.Event) {
	if len(e.sinks) == 0 {
		return
	}

	ctx = context.WithoutCancel(ctx)
	if e.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, e.timeout)
		defer cancel()
	}

	for _, s := range e.sinks {
		if err := s.Write(ctx, ev); err != nil {
			e.log.Warn(ctx, "event not recorded", "sink", s.Name(), "type", ev.Type,
				"flow_token", ev.FlowToken, "error", err)
			if e.failures != nil {
				e.failures.WithLabelValues(s.Name()).Inc()
			}
		}
	}
}

// LogSink writes events to the structured log.
type LogSink struct {
	log logging.Logger
}

func NewLogSink(l logging.Logger) *LogSink {
	return &LogSink{log: l}
}

func (s *LogSink) Name() string { return "log" }

func (s *LogSink) Write(ctx context.Context, e models.Event) error {
	args := []any{"event_id", e.ID, "type", e.Type, "flow_token", e.FlowToken}
	if e.Screen != "" {
		args = append(args, "screen", e.Screen)
	}
	if e.Action != "" {
		args = append(args, "action", e.Action)
	}
	for k, v := range e.Attributes {
		args = append(args, k, v)
	}
	s.log.Info(ctx, "flow event", args...)
	return nil
}

// MetricsSink counts events by type.
type MetricsSink struct {
	counter *prometheus.CounterVec
}

func NewMetricsSink(c *prometheus.CounterVec) *MetricsSink {
	return &MetricsSink{counter: c}
}

func (s *MetricsSink) Name() string { return "metrics" }

func (s *MetricsSink) Write(_ context.Context, e models.Event) error {
	s.counter.WithLabelValues(e.Type).Inc()
	return nil
}
