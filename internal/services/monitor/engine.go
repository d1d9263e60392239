package monitor

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"sync/atomic"
	"time"

	config "github.com/NordCoder/Sentinel/internal/config/monitor"
	"github.com/NordCoder/Sentinel/internal/domain/check"
	"github.com/NordCoder/Sentinel/internal/domain/notification"
	"github.com/NordCoder/Sentinel/internal/domain/run"
	"github.com/NordCoder/Sentinel/internal/obs"
	"github.com/google/uuid"
	"github.com/prometheus/client_golang/prometheus"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
)

const tracerName = "sentinel.monitor"

type Deps struct {
	Checks   check.Repo
	Prober   Prober
	Logs     run.LogStore
	Notifier notification.Notifier
	Clock    notification.Clock
}

// CycleStats counts what happened to each listed check.
// Total = Probed + Malformed + ReadFailed + Abandoned. SideEffectFailed is a subset of Probed.
type CycleStats struct {
	CycleID          string `json:"cycleId"`
	Total            int    `json:"total"`
	Probed           int    `json:"probed"`
	Malformed        int    `json:"malformed"`
	ReadFailed       int    `json:"readFailed"`
	Abandoned        int    `json:"abandoned"`
	SideEffectFailed int    `json:"sideEffectFailed"`
	Alerts           int    `json:"alerts"`
}

// Engine runs the probe cycle and the rotation cycle on independent tickers.
type Engine struct {
	checks  check.Repo
	prober  Prober
	proc    *Processor
	rotator *Rotator
	cfg     config.Sched
	log     *zap.Logger
	m       *metrics

	mu      sync.Mutex
	cancel  context.CancelFunc
	loops   sync.WaitGroup
	cycles  sync.WaitGroup
	running atomic.Bool
}

func NewEngine(d Deps, cfg config.Sched, reg prometheus.Registerer, log *zap.Logger) *Engine {
	if cfg.ProbeInterval <= 0 {
		cfg.ProbeInterval = time.Minute
	}
	if cfg.RotateInterval <= 0 {
		cfg.RotateInterval = 24 * time.Hour
	}
	log = obs.Component(log, "monitor")
	m := newMetrics(reg)
	return &Engine{
		checks: d.Checks,
		prober: d.Prober,
		proc: &Processor{
			Checks:   d.Checks,
			Journal:  Journal{Logs: d.Logs},
			Notifier: d.Notifier,
			Clock:    d.Clock,
			log:      log.Named("processor"),
			m:        m,
		},
		rotator: &Rotator{Logs: d.Logs, Clock: d.Clock, log: log.Named("rotator"), m: m},
		cfg:     cfg,
		log:     log,
		m:       m,
	}
}

// Start launches both loops; each fires once right away. Calling Start on a running
// engine is a no-op.
func (e *Engine) Start(ctx context.Context) {
	e.mu.Lock()
	defer e.mu.Unlock()
	if e.cancel != nil {
		return
	}
	ctx, e.cancel = context.WithCancel(ctx)
	e.running.Store(true)

	e.loops.Add(2)
	go e.every(ctx, e.cfg.ProbeInterval, func(ctx context.Context) {
		// cycles may overlap; a slow one is never awaited by the ticker
		e.cycles.Add(1)
		go func() {
			defer e.cycles.Done()
			if _, err := e.ProcessAllChecks(ctx); err != nil && !errors.Is(err, context.Canceled) {
				e.log.Warn("probe cycle failed", zap.Error(err))
			}
		}()
	})
	go e.every(ctx, e.cfg.RotateInterval, func(ctx context.Context) {
		if _, err := e.RotateLogs(ctx); err != nil && !errors.Is(err, context.Canceled) {
			e.log.Warn("rotation finished with errors", zap.Error(err))
		}
	})
	e.log.Info("engine started",
		zap.Duration("probe_interval", e.cfg.ProbeInterval),
		zap.Duration("rotate_interval", e.cfg.RotateInterval),
		zap.Int("concurrency", e.cfg.Concurrency),
	)
}

// Stop cancels both loops and waits for in-flight cycles.
func (e *Engine) Stop() {
	e.mu.Lock()
	cancel := e.cancel
	e.cancel = nil
	e.mu.Unlock()
	if cancel == nil {
		return
	}
	cancel()
	e.loops.Wait()
	e.cycles.Wait()
	e.running.Store(false)
	e.log.Info("engine stopped")
}

func (e *Engine) Running() bool { return e.running.Load() }

func (e *Engine) every(ctx context.Context, d time.Duration, fn func(context.Context)) {
	defer e.loops.Done()
	ticker := time.NewTicker(d)
	defer ticker.Stop()

	fn(ctx)
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			fn(ctx)
		}
	}
}

// ProcessAllChecks runs one probe cycle over every stored check. Only a failure to
// list the checks is returned; per-check problems are counted and logged.
func (e *Engine) ProcessAllChecks(ctx context.Context) (CycleStats, error) {
	stats := CycleStats{CycleID: uuid.NewString()}
	start := time.Now()
	e.m.cycles.Inc()
	defer func() { e.m.cycleDur.Observe(time.Since(start).Seconds()) }()

	ctx, span := otel.Tracer(tracerName).Start(ctx, "monitor.cycle",
		trace.WithAttributes(attribute.String("cycle.id", stats.CycleID)),
	)
	defer span.End()
	log := obs.WithTrace(ctx, e.log).With(zap.String("cycle_id", stats.CycleID))

	ids, err := e.checks.IDs(ctx)
	if err != nil {
		e.m.errors.WithLabelValues("list").Inc()
		span.RecordError(err)
		return stats, fmt.Errorf("list checks: %w", err)
	}
	stats.Total = len(ids)
	span.SetAttributes(attribute.Int("cycle.checks", len(ids)))

	var (
		g                                                        errgroup.Group
		probed, malformed, readFailed, abandoned, sideFx, alerts atomic.Int64
	)
	if e.cfg.Concurrency > 0 {
		g.SetLimit(e.cfg.Concurrency)
	}
	for _, id := range ids {
		g.Go(func() error {
			switch res, err := e.processOne(ctx, id, stats.CycleID); {
			case errors.Is(err, errMalformed):
				malformed.Add(1)
			case errors.Is(err, errAbandoned):
				abandoned.Add(1)
			case res == nil:
				readFailed.Add(1)
			default:
				probed.Add(1)
				if res.Alert {
					alerts.Add(1)
				}
				if err != nil {
					sideFx.Add(1)
				}
			}
			return nil
		})
	}
	_ = g.Wait()

	stats.Probed = int(probed.Load())
	stats.Malformed = int(malformed.Load())
	stats.ReadFailed = int(readFailed.Load())
	stats.Abandoned = int(abandoned.Load())
	stats.SideEffectFailed = int(sideFx.Load())
	stats.Alerts = int(alerts.Load())
	span.SetAttributes(
		attribute.Int("cycle.probed", stats.Probed),
		attribute.Int("cycle.malformed", stats.Malformed),
		attribute.Int("cycle.read_failed", stats.ReadFailed),
		attribute.Int("cycle.abandoned", stats.Abandoned),
	)
	log.Info("probe cycle done",
		zap.Int("total", stats.Total),
		zap.Int("probed", stats.Probed),
		zap.Int("malformed", stats.Malformed),
		zap.Int("read_failed", stats.ReadFailed),
		zap.Int("abandoned", stats.Abandoned),
		zap.Int("side_effect_failed", stats.SideEffectFailed),
		zap.Int("alerts", stats.Alerts),
		zap.Duration("elapsed", time.Since(start)),
	)
	return stats, nil
}

var (
	errMalformed = errors.New("malformed check")
	// the cycle was cancelled while the check was in flight
	errAbandoned = errors.New("check abandoned")
)

// processOne is the read, validate, probe, process pipeline of a single check.
// A nil result means the check never reached the processor.
func (e *Engine) processOne(ctx context.Context, id, cycleID string) (*Result, error) {
	ctx, span := otel.Tracer(tracerName).Start(ctx, "monitor.check",
		trace.WithAttributes(attribute.String("check.id", id)),
	)
	defer span.End()
	log := obs.WithTrace(ctx, e.log).With(zap.String("check_id", id), zap.String("cycle_id", cycleID))

	raw, err := e.checks.Load(ctx, id)
	if err != nil {
		e.m.errors.WithLabelValues("read").Inc()
		span.RecordError(err)
		log.Warn("read check failed", zap.Error(err))
		return nil, err
	}

	c, err := check.Parse(raw)
	if err != nil {
		e.m.malformed.Inc()
		log.Warn("skipping malformed check", zap.Error(err))
		return nil, fmt.Errorf("%w: %w", errMalformed, err)
	}

	e.m.checks.Inc()
	out := e.prober.Probe(ctx, c)
	if ctx.Err() != nil {
		// a shutdown says nothing about the endpoint; the check is picked up next cycle
		log.Debug("check abandoned", zap.Error(ctx.Err()))
		return nil, fmt.Errorf("%w: %w", errAbandoned, ctx.Err())
	}
	span.SetAttributes(
		attribute.Int("probe.code", out.ResponseCode),
		attribute.String("probe.error", out.Error),
		attribute.Int64("probe.latency_ms", out.LatencyMS),
	)

	res, err := e.proc.Process(ctx, c, out, cycleID)
	if err != nil {
		log.Warn("check processed with errors", zap.Error(err))
	}
	return &res, err
}

// RotateLogs runs one rotation pass over every live log.
func (e *Engine) RotateLogs(ctx context.Context) (RotateStats, error) {
	ctx, span := otel.Tracer(tracerName).Start(ctx, "monitor.rotate")
	defer span.End()

	stats, err := e.rotator.Rotate(ctx)
	span.SetAttributes(
		attribute.Int("rotate.rotated", stats.Rotated),
		attribute.Int("rotate.failed", stats.Failed),
	)
	if err != nil {
		span.RecordError(err)
	}
	obs.WithTrace(ctx, e.log).Info("rotation done",
		zap.Int("rotated", stats.Rotated), zap.Int("failed", stats.Failed))
	return stats, err
}
