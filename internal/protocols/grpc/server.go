// Package grpc exposes the standard gRPC health service, with reflection,
// for load balancers and operators. Serving status follows the health of the
// server's dependencies.
package grpc

import (
	"context"
	"fmt"
	"net"
	"sort"
	"sync"
	"time"

	grpc_middleware "github.com/grpc-ecosystem/go-grpc-middleware"
	grpc_logging "github.com/grpc-ecosystem/go-grpc-middleware/logging/logrus"
	grpc_recovery "github.com/grpc-ecosystem/go-grpc-middleware/recovery"
	"github.com/sirupsen/logrus"
	"google.golang.org/grpc"
	"google.golang.org/grpc/health"
	"google.golang.org/grpc/health/grpc_health_v1"
	"google.golang.org/grpc/reflection"

	"inkwell/pkg/logger"
)

// ServiceName is the health service name reporting the whole server
const ServiceName = "inkwell.v1.Inkwell"

// Check probes one dependency
type Check func(ctx context.Context) error

// Server represents the gRPC server
type Server struct {
	server   *grpc.Server
	addr     string
	health   *health.Server
	interval time.Duration

	mu     sync.Mutex
	checks map[string]Check

	stop     chan struct{}
	stopOnce sync.Once
	done     chan struct{}
}

// NewServer creates a gRPC server listening on addr. Dependencies are
// re-checked every interval once Start has been called.
func NewServer(addr string, interval time.Duration) *Server {
	if interval <= 0 {
		interval = 15 * time.Second
	}
	grpcLogger := logrus.NewEntry(logger.Logger())

	healthServer := health.NewServer()
	healthServer.SetServingStatus("", grpc_health_v1.HealthCheckResponse_NOT_SERVING)
	healthServer.SetServingStatus(ServiceName, grpc_health_v1.HealthCheckResponse_NOT_SERVING)

	server := grpc.NewServer(
		grpc.UnaryInterceptor(grpc_middleware.ChainUnaryServer(
			grpc_logging.UnaryServerInterceptor(grpcLogger),
			grpc_recovery.UnaryServerInterceptor(),
			latencyInterceptor,
		)),
		grpc.StreamInterceptor(grpc_middleware.ChainStreamServer(
			grpc_logging.StreamServerInterceptor(grpcLogger),
			grpc_recovery.StreamServerInterceptor(),
		)),
	)

	grpc_health_v1.RegisterHealthServer(server, healthServer)
	reflection.Register(server)

	return &Server{
		server:   server,
		addr:     addr,
		health:   healthServer,
		interval: interval,
		checks:   make(map[string]Check),
		stop:     make(chan struct{}),
		done:     make(chan struct{}),
	}
}

func latencyInterceptor(ctx context.Context, req interface{}, info *grpc.UnaryServerInfo, handler grpc.UnaryHandler) (interface{}, error) {
	start := time.Now()
	resp, err := handler(ctx, req)
	logger.GRPC(info.FullMethod, fmt.Sprintf("%T", req), int(time.Since(start).Milliseconds()))
	return resp, err
}

// AddCheck registers a dependency. Each dependency is also reported as its
// own health service, "inkwell.<name>".
func (s *Server) AddCheck(name string, check Check) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.checks[name] = check
}

// Refresh runs every check once and updates the serving status
func (s *Server) Refresh(ctx context.Context) bool {
	s.mu.Lock()
	names := make([]string, 0, len(s.checks))
	for name := range s.checks {
		names = append(names, name)
	}
	checks := make(map[string]Check, len(s.checks))
	for k, v := range s.checks {
		checks[k] = v
	}
	s.mu.Unlock()
	sort.Strings(names)

	healthy := true
	for _, name := range names {
		status := grpc_health_v1.HealthCheckResponse_SERVING
		if err := checks[name](ctx); err != nil {
			logrus.WithError(err).WithField("service", name).Warn("grpc health check failed")
			status = grpc_health_v1.HealthCheckResponse_NOT_SERVING
			healthy = false
		}
		s.health.SetServingStatus("inkwell."+name, status)
	}

	overall := grpc_health_v1.HealthCheckResponse_SERVING
	if !healthy {
		overall = grpc_health_v1.HealthCheckResponse_NOT_SERVING
	}
	s.health.SetServingStatus("", overall)
	s.health.SetServingStatus(ServiceName, overall)
	return healthy
}

// Serve serves on lis and keeps the health status current until Stop
func (s *Server) Serve(lis net.Listener) error {
	s.Refresh(context.Background())
	go s.watch()
	logrus.Infof("gRPC server listening on %s", lis.Addr())
	return s.server.Serve(lis)
}

// Start listens on the configured address and serves in the background
func (s *Server) Start() error {
	lis, err := net.Listen("tcp", s.addr)
	if err != nil {
		return fmt.Errorf("failed to listen on %s: %w", s.addr, err)
	}
	go func() {
		if err := s.Serve(lis); err != nil {
			logrus.Errorf("gRPC server stopped: %v", err)
		}
	}()
	return nil
}

func (s *Server) watch() {
	defer close(s.done)
	ticker := time.NewTicker(s.interval)
	defer ticker.Stop()
	for {
		select {
		case <-ticker.C:
			ctx, cancel := context.WithTimeout(context.Background(), s.interval/2)
			s.Refresh(ctx)
			cancel()
		case <-s.stop:
			return
		}
	}
}

// Stop gracefully shuts down the server
func (s *Server) Stop() {
	s.stopOnce.Do(func() {
		logrus.Info("gRPC server stopping")
		close(s.stop)
		s.health.Shutdown()
		s.server.GracefulStop()
		logrus.Info("gRPC server stopped")
	})
}

// WaitForShutdown blocks until ctx ends, then stops the server
func (s *Server) WaitForShutdown(ctx context.Context) {
	select {
	case <-ctx.Done():
		s.Stop()
	case <-s.stop:
	}
}
