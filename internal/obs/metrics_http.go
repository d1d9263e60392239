package obs

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"
)

// BootstrapOpsServer starts the operational HTTP server (/metrics, /healthz and any
// routes added by mount) in the background.
func BootstrapOpsServer(addr string, gatherer prometheus.Gatherer, health func(context.Context) error, mount func(chi.Router), l *zap.Logger) *http.Server {
	srv := NewOpsServer(addr, gatherer, health, mount)

	go func() {
		l.Info("ops server listening", zap.String("addr", addr))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			l.Error("ops server error", zap.Error(err))
		}
	}()

	return srv
}

func NewOpsServer(addr string, gatherer prometheus.Gatherer, health func(context.Context) error, mount func(chi.Router)) *http.Server {
	return &http.Server{
		Addr:              addr,
		Handler:           OpsRouter(gatherer, health, mount),
		ReadTimeout:       3 * time.Second,
		ReadHeaderTimeout: 3 * time.Second,
		WriteTimeout:      30 * time.Second,
		IdleTimeout:       30 * time.Second,
	}
}

func OpsRouter(gatherer prometheus.Gatherer, health func(context.Context) error, mount func(chi.Router)) http.Handler {
	r := chi.NewRouter()
	r.Use(middleware.Recoverer)

	if gatherer == nil {
		gatherer = prometheus.DefaultGatherer
	}
	r.Handle("/metrics", promhttp.HandlerFor(gatherer, promhttp.HandlerOpts{}))
	r.Get("/healthz", func(w http.ResponseWriter, req *http.Request) {
		ctx, cancel := context.WithTimeout(req.Context(), 500*time.Millisecond)
		defer cancel()
		if health != nil {
			if err := health(ctx); err != nil {
				http.Error(w, "unhealthy", http.StatusServiceUnavailable)
				return
			}
		}
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("ok"))
	})
	if mount != nil {
		mount(r)
	}
	return r
}
