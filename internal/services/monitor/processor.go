package monitor

import (
	"context"
	"fmt"

	"github.com/NordCoder/Sentinel/internal/domain/check"
	"github.com/NordCoder/Sentinel/internal/domain/notification"
	"github.com/NordCoder/Sentinel/internal/domain/run"
	"github.com/NordCoder/Sentinel/internal/obs"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"
	"go.uber.org/multierr"
	"go.uber.org/zap"
)

// Evaluate is the state function: up only for an error-free outcome with an accepted code.
func Evaluate(c *check.Check, o run.Outcome) check.State {
	if !o.Failed() && o.ResponseCode > 0 && c.Accepts(o.ResponseCode) {
		return check.StateUp
	}
	return check.StateDown
}

// AlertWarranted reports a transition relative to an earlier observation. A check that
// has never been probed does not alert.
func AlertWarranted(c *check.Check, next check.State) bool {
	return c.HasBeenChecked() && c.State != next
}

type Result struct {
	Check *check.Check
	State check.State
	Alert bool
}

type Processor struct {
	Checks   check.Repo
	Journal  Journal
	Notifier notification.Notifier
	Clock    notification.Clock

	log *zap.Logger
	m   *metrics
}

// Process applies one outcome: log entry, persisted state, and an alert on a transition.
// Every side effect is attempted; their errors are combined.
func (p *Processor) Process(ctx context.Context, c *check.Check, o run.Outcome, cycleID string) (Result, error) {
	now := p.Clock.Now()
	state := Evaluate(c, o)
	alert := AlertWarranted(c, state)
	next := c.Observe(state, now)

	span := trace.SpanFromContext(ctx)
	span.SetAttributes(
		attribute.String("check.state", string(state)),
		attribute.Bool("check.alert", alert),
	)
	log := obs.WithTrace(ctx, p.log).With(zap.String("check_id", c.ID))

	p.m.results.WithLabelValues(string(state)).Inc()
	p.m.latency.Observe(float64(o.LatencyMS) / 1000)

	var errs error
	entry := run.Entry{Check: c, Outcome: o, State: state, Alert: alert, Time: now.UnixMilli(), CycleID: cycleID}
	if err := p.Journal.Write(ctx, entry); err != nil {
		p.m.errors.WithLabelValues("journal").Inc()
		errs = multierr.Append(errs, fmt.Errorf("%w %s: %w", ErrJournal, c.ID, err))
	}

	if err := p.Checks.Save(ctx, next); err != nil {
		p.m.errors.WithLabelValues("persist").Inc()
		errs = multierr.Append(errs, fmt.Errorf("%w %s: %w", ErrPersist, c.ID, err))
	}

	if alert {
		p.m.alerts.Inc()
		if err := p.Notifier.Notify(ctx, notification.NewAlert(c, next, now)); err != nil {
			p.m.errors.WithLabelValues("notify").Inc()
			errs = multierr.Append(errs, fmt.Errorf("%w %s: %w", ErrNotify, c.ID, err))
		} else {
			log.Info("alert sent", zap.String("state", string(state)))
		}
	} else {
		log.Debug("state unchanged or first probe, no alert", zap.String("state", string(state)))
	}

	if errs != nil {
		span.RecordError(errs)
	}
	return Result{Check: next, State: state, Alert: alert}, errs
}
