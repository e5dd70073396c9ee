package server

import (
	"context"
	"errors"
	"fmt"
	"net"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/louisbranch/goldtoken/internal/platform/timeouts"
	"github.com/louisbranch/goldtoken/internal/services/ledger/api/grpc/auth"
	ledgergrpc "github.com/louisbranch/goldtoken/internal/services/ledger/api/grpc/ledger"
	grpcmeta "github.com/louisbranch/goldtoken/internal/services/ledger/api/grpc/metadata"
	ledgerdomain "github.com/louisbranch/goldtoken/internal/services/ledger/domain/ledger"
	"github.com/louisbranch/goldtoken/internal/services/ledger/storage/integrity"
	"github.com/louisbranch/goldtoken/internal/services/ledger/storage/sqlite"
	"go.opentelemetry.io/contrib/instrumentation/google.golang.org/grpc/otelgrpc"
	"go.opentelemetry.io/otel"
	"go.uber.org/zap"
	"google.golang.org/grpc"
	"google.golang.org/grpc/health"
	grpc_health_v1 "google.golang.org/grpc/health/grpc_health_v1"
)

// Config holds everything the ledger server needs to start.
type Config struct {
	// Addr is the TCP listen address, e.g. ":8090".
	Addr string
	// DBPath locates the sqlite journal. Parent directories are created.
	DBPath string
	// LedgerID scopes journal signatures to this ledger.
	LedgerID string
	// Bootstrap seeds an empty journal. A replayed journal ignores it.
	Bootstrap ledgerdomain.Bootstrap
	Keyring   *integrity.Keyring
	Auth      auth.Config
	Logger    *zap.Logger
	// Now overrides the event clock. Nil means time.Now.
	Now func() time.Time
}

// Server hosts the goldtoken ledger gRPC API.
type Server struct {
	listener   net.Listener
	grpcServer *grpc.Server
	health     *health.Server
	store      *sqlite.Store
	ledger     *ledgerdomain.Ledger
	logger     *zap.Logger
}

// New opens the journal, rebuilds the ledger and prepares a server
// listening on cfg.Addr.
func New(ctx context.Context, cfg Config) (*Server, error) {
	if ctx == nil {
		ctx = context.Background()
	}
	logger := cfg.Logger
	if logger == nil {
		logger = zap.NewNop()
	}
	if cfg.Keyring == nil {
		return nil, errors.New("event integrity keyring is required")
	}

	listener, err := net.Listen("tcp", cfg.Addr)
	if err != nil {
		return nil, fmt.Errorf("listen on %s: %w", cfg.Addr, err)
	}
	store, err := openJournal(ctx, cfg)
	if err != nil {
		_ = listener.Close()
		return nil, err
	}

	opts := []ledgerdomain.Option{
		ledgerdomain.WithLogger(logger.Named("ledger")),
		ledgerdomain.WithTracerProvider(otel.GetTracerProvider()),
	}
	if cfg.Now != nil {
		opts = append(opts, ledgerdomain.WithClock(cfg.Now))
	}
	l, err := ledgerdomain.New(ctx, store, cfg.Bootstrap, opts...)
	if err != nil {
		_ = listener.Close()
		_ = store.Close()
		return nil, fmt.Errorf("open ledger: %w", err)
	}

	grpcServer := grpc.NewServer(
		grpc.StatsHandler(otelgrpc.NewServerHandler()),
		grpc.ChainUnaryInterceptor(
			grpcmeta.UnaryServerInterceptor(nil),
			auth.UnaryServerInterceptor(cfg.Auth),
		),
	)
	service := ledgergrpc.NewService(l,
		ledgergrpc.WithTraceStore(store),
		ledgergrpc.WithIntegrityVerifier(store),
		ledgergrpc.WithLogger(logger.Named("grpc")),
	)
	ledgergrpc.RegisterLedgerServiceServer(grpcServer, service)

	healthServer := health.NewServer()
	grpc_health_v1.RegisterHealthServer(grpcServer, healthServer)
	healthServer.SetServingStatus("", grpc_health_v1.HealthCheckResponse_SERVING)
	healthServer.SetServingStatus(ledgergrpc.ServiceName, grpc_health_v1.HealthCheckResponse_SERVING)

	if !cfg.Auth.Enabled() {
		logger.Warn("caller token verification disabled; trusting caller header")
	}

	return &Server{
		listener:   listener,
		grpcServer: grpcServer,
		health:     healthServer,
		store:      store,
		ledger:     l,
		logger:     logger,
	}, nil
}

// Addr returns the listener address.
func (s *Server) Addr() string {
	if s == nil || s.listener == nil {
		return ""
	}
	return s.listener.Addr().String()
}

// Run creates a server and serves it until ctx ends.
func Run(ctx context.Context, cfg Config) error {
	srv, err := New(ctx, cfg)
	if err != nil {
		return err
	}
	return srv.Serve(ctx)
}

// Serve blocks until the server stops or ctx ends. On cancellation health
// reports NOT_SERVING, in-flight calls drain for up to timeouts.Shutdown,
// and the journal is closed.
func (s *Server) Serve(ctx context.Context) error {
	if ctx == nil {
		ctx = context.Background()
	}
	defer s.closeJournal()

	s.logger.Info("ledger server listening",
		zap.String("addr", s.Addr()),
		zap.Uint64("last_seq", s.ledger.LastSeq()))
	serveErr := make(chan error, 1)
	go func() {
		serveErr <- s.grpcServer.Serve(s.listener)
	}()

	handleErr := func(err error) error {
		if err == nil || errors.Is(err, grpc.ErrServerStopped) {
			return nil
		}
		return fmt.Errorf("serve gRPC: %w", err)
	}

	select {
	case <-ctx.Done():
		s.health.Shutdown()
		s.gracefulStop()
		err := <-serveErr
		s.logger.Info("ledger server stopped")
		return handleErr(err)
	case err := <-serveErr:
		return handleErr(err)
	}
}

func (s *Server) gracefulStop() {
	done := make(chan struct{})
	go func() {
		s.grpcServer.GracefulStop()
		close(done)
	}()
	timer := time.NewTimer(timeouts.Shutdown)
	defer timer.Stop()
	select {
	case <-done:
	case <-timer.C:
		s.logger.Warn("graceful stop timed out; closing open calls")
		s.grpcServer.Stop()
		<-done
	}
}

func (s *Server) closeJournal() {
	if err := s.store.Close(); err != nil {
		s.logger.Error("close journal", zap.Error(err))
	}
}

func openJournal(ctx context.Context, cfg Config) (*sqlite.Store, error) {
	path := strings.TrimSpace(cfg.DBPath)
	if path == "" {
		path = filepath.Join("data", "ledger.db")
	}
	if err := ensureDir(path); err != nil {
		return nil, err
	}
	store, err := sqlite.Open(ctx, path, cfg.Keyring, cfg.LedgerID)
	if err != nil {
		return nil, fmt.Errorf("open journal: %w", err)
	}
	return store, nil
}

func ensureDir(path string) error {
	dir := filepath.Dir(path)
	if dir == "." || dir == "" {
		return nil
	}
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("create storage dir: %w", err)
	}
	return nil
}
