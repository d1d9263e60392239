package obs

import (
	"errors"
	"net"

	grpcprometheus "github.com/grpc-ecosystem/go-grpc-prometheus"
	"go.opentelemetry.io/contrib/instrumentation/google.golang.org/grpc/otelgrpc"
	"go.uber.org/zap"
	"google.golang.org/grpc"
	"google.golang.org/grpc/health"
	healthpb "google.golang.org/grpc/health/grpc_health_v1"
	"google.golang.org/grpc/reflection"
)

// HealthServer is a gRPC server exposing only grpc.health.v1, for orchestrator probes.
type HealthServer struct {
	srv    *grpc.Server
	health *health.Server
	log    *zap.Logger
}

// Server metrics go to the default prometheus registry, where go-grpc-prometheus keeps them.
func NewHealthServer(l *zap.Logger) *HealthServer {
	srv := grpc.NewServer(
		grpc.StatsHandler(otelgrpc.NewServerHandler()),
		grpc.ChainUnaryInterceptor(grpcprometheus.UnaryServerInterceptor),
		grpc.ChainStreamInterceptor(grpcprometheus.StreamServerInterceptor),
	)
	hs := health.NewServer()
	hs.SetServingStatus("", healthpb.HealthCheckResponse_NOT_SERVING)
	healthpb.RegisterHealthServer(srv, hs)
	reflection.Register(srv)
	grpcprometheus.Register(srv)

	return &HealthServer{srv: srv, health: hs, log: Component(l, "grpc.health")}
}

// Serve listens on addr in the background.
func (h *HealthServer) Serve(addr string) error {
	ln, err := net.Listen("tcp", addr)
	if err != nil {
		return err
	}
	h.ServeListener(ln)
	return nil
}

func (h *HealthServer) ServeListener(ln net.Listener) {
	go func() {
		h.log.Info("grpc health listening", zap.String("addr", ln.Addr().String()))
		if err := h.srv.Serve(ln); err != nil && !errors.Is(err, grpc.ErrServerStopped) {
			h.log.Error("grpc health server error", zap.Error(err))
		}
	}()
}

func (h *HealthServer) SetServing(ok bool) {
	st := healthpb.HealthCheckResponse_NOT_SERVING
	if ok {
		st = healthpb.HealthCheckResponse_SERVING
	}
	h.health.SetServingStatus("", st)
}

func (h *HealthServer) Stop() {
	h.health.Shutdown()
	h.srv.GracefulStop()
}
