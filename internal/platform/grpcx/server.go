// Package grpcx runs the gRPC health endpoint used by orchestrators to
// probe the service.
package grpcx

import (
	"context"
	"log/slog"
	"net"
	"time"

	"google.golang.org/grpc"
	"google.golang.org/grpc/health"
	healthpb "google.golang.org/grpc/health/grpc_health_v1"
	"google.golang.org/grpc/reflection"
)

// Server is a gRPC server exposing grpc.health.v1 for one service name.
type Server struct {
	log     *slog.Logger
	gs      *grpc.Server
	health  *health.Server
	service string
}

func NewServer(log *slog.Logger, service string) *Server {
	gs := grpc.NewServer()
	hs := health.NewServer()
	healthpb.RegisterHealthServer(gs, hs)
	reflection.Register(gs)
	hs.SetServingStatus(service, healthpb.HealthCheckResponse_NOT_SERVING)
	return &Server{log: log, gs: gs, health: hs, service: service}
}

// Serve blocks serving lis until Stop is called.
func (s *Server) Serve(lis net.Listener) error {
	return s.gs.Serve(lis)
}

func (s *Server) Run(addr string) error {
	lis, err := net.Listen("tcp", addr)
	if err != nil {
		return err
	}
	s.log.Info("grpc listening", "addr", addr)
	return s.Serve(lis)
}

func (s *Server) SetServing(ok bool) {
	status := healthpb.HealthCheckResponse_NOT_SERVING
	if ok {
		status = healthpb.HealthCheckResponse_SERVING
	}
	s.health.SetServingStatus(s.service, status)
	s.health.SetServingStatus("", status)
}

// Watch runs check every interval and reports the result as the serving
// status until ctx is done.
func (s *Server) Watch(ctx context.Context, interval time.Duration, check func(ctx context.Context) error) {
	t := time.NewTicker(interval)
	defer t.Stop()

	last := true
	for {
		cctx, cancel := context.WithTimeout(ctx, interval)
		err := check(cctx)
		cancel()
		if ok := err == nil; ok != last {
			s.log.Warn("health changed", "service", s.service, "serving", ok, "err", err)
			last = ok
		}
		s.SetServing(err == nil)

		select {
		case <-ctx.Done():
			return
		case <-t.C:
		}
	}
}

// Stop marks the service as not serving and drains in-flight calls.
func (s *Server) Stop() {
	s.health.Shutdown()
	s.gs.GracefulStop()
}
