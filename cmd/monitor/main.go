package main

import (
	"context"
	"flag"
	"log"
	"os"
	"os/signal"
	"syscall"
	"time"

	config "github.com/NordCoder/Sentinel/internal/config/monitor"
	"github.com/NordCoder/Sentinel/internal/obs"
	"github.com/NordCoder/Sentinel/internal/repository/logfile"
	"github.com/NordCoder/Sentinel/internal/services/monitor"
	"github.com/NordCoder/Sentinel/internal/services/monitor/repo"
	"github.com/prometheus/client_golang/prometheus"
	"go.uber.org/zap"
)

type systemClock struct{}

func (systemClock) Now() time.Time { return time.Now().UTC() }

func main() {
	cfgPath := flag.String("config", os.Getenv("SENTINEL_CONFIG"), "path to the YAML config")
	flag.Parse()

	// init
	root, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()
	cfg, err := config.Load(*cfgPath)
	if err != nil {
		log.Fatal(err)
	}

	// logger
	l, err := obs.NewLogger(cfg.AsLoggerConfig())
	if err != nil {
		log.Fatal(err)
	}
	defer func() { _ = l.Sync() }()

	// otel
	otelCloser, err := obs.SetupOTel(root, cfg.AsOTELConfig())
	if err != nil {
		l.Fatal("otel init", zap.Error(err))
	}
	defer func() { _ = otelCloser.Shutdown(context.Background()) }()

	// stores
	store, err := initStore(root, cfg.Store, l)
	if err != nil {
		l.Fatal("record store", zap.String("driver", cfg.Store.Driver), zap.Error(err))
	}
	defer store.close()

	logs, err := logfile.New(cfg.Logs.Dir)
	if err != nil {
		l.Fatal("log store", zap.Error(err))
	}

	// notifier
	notify, closeNotifier, err := initNotifier(root, cfg.Notifier, l)
	if err != nil {
		l.Fatal("notifier", zap.String("kind", cfg.Notifier.Kind), zap.Error(err))
	}
	defer closeNotifier()

	// wiring
	engine := monitor.NewEngine(monitor.Deps{
		Checks:   repo.CheckRepo{Store: store},
		Prober:   monitor.NewHTTPProber(cfg.HTTP),
		Logs:     logs,
		Notifier: notify,
		Clock:    systemClock{},
	}, cfg.Sched, prometheus.DefaultRegisterer, l)

	// ops
	ops := obs.BootstrapOpsServer(cfg.Server.MetricsAddr, prometheus.DefaultGatherer, func(ctx context.Context) error {
		if err := engine.Health(ctx); err != nil {
			return err
		}
		return store.ping(ctx)
	}, engine.Routes, l)

	var hs *obs.HealthServer
	if cfg.Server.GRPCAddr != "" {
		hs = obs.NewHealthServer(l)
		if err := hs.Serve(cfg.Server.GRPCAddr); err != nil {
			l.Fatal("grpc health", zap.Error(err))
		}
	}

	// start
	engine.Start(root)
	if hs != nil {
		hs.SetServing(true)
	}
	l.Info("sentinel started",
		zap.String("store", cfg.Store.Driver),
		zap.String("notifier", cfg.Notifier.Kind),
		zap.String("logs", cfg.Logs.Dir),
	)

	<-root.Done()
	l.Info("shutting down")

	if hs != nil {
		hs.SetServing(false)
	}
	engine.Stop()

	shCtx, cancel := context.WithTimeout(context.Background(), cfg.Server.GracefulTimeout)
	defer cancel()
	_ = ops.Shutdown(shCtx)
	if hs != nil {
		hs.Stop()
	}
	l.Info("bye")
}
