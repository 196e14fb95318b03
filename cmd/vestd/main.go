// Command vestd runs the vesting engine: the gRPC API, the optional read-only
// HTTP API and the event relay.
package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"net"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
	"google.golang.org/grpc"
	"google.golang.org/grpc/credentials"

	"github.com/and161185/vesting-engine/internal/events"
	"github.com/and161185/vesting-engine/internal/limiter"
	"github.com/and161185/vesting-engine/internal/migrate"
	"github.com/and161185/vesting-engine/internal/repository"
	"github.com/and161185/vesting-engine/internal/repository/memory"
	"github.com/and161185/vesting-engine/internal/repository/postgres"
	grpcserver "github.com/and161185/vesting-engine/internal/server/grpc"
	httpserver "github.com/and161185/vesting-engine/internal/server/http"
	"github.com/and161185/vesting-engine/internal/service"
	"github.com/and161185/vesting-engine/internal/treasury"
)

var (
	version   = "dev"
	buildDate = "unknown"
)

func main() {
	cfg, err := parseConfig(os.Args[1:], os.Stderr)
	if err != nil {
		if !errors.Is(err, flag.ErrHelp) {
			fmt.Fprintln(os.Stderr, "vestd:", err)
		}
		os.Exit(2)
	}

	logger, _ := zap.NewProduction()
	if cfg.Dev {
		logger, _ = zap.NewDevelopment()
	}
	defer func() { _ = logger.Sync() }()
	logger.Info("starting",
		zap.String("version", version),
		zap.String("buildDate", buildDate),
		zap.String("addr", cfg.Addr),
		zap.Bool("revocation", !cfg.DisableRevocation),
	)

	// Context with OS signals
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if err := run(ctx, cfg, logger); err != nil {
		logger.Error("server error", zap.Error(err))
		os.Exit(1)
	}
	logger.Info("shutdown complete")
}

// storage opens the Postgres backend, or the in-memory one when no DSN is set.
func storage(ctx context.Context, cfg config, logger *zap.Logger) (repository.Set, repository.LedgerRepository, func(), error) {
	if cfg.DSN == "" {
		logger.Warn("no -dsn: state is kept in memory and lost on exit")
		store := memory.New()
		return store.Repos(), memory.NewLedgerRepo(store), func() {}, nil
	}
	v, err := migrate.Up(ctx, cfg.DSN, logger)
	if err != nil {
		return repository.Set{}, nil, nil, err
	}
	logger.Info("schema ready", zap.Int64("version", v))

	db, err := postgres.New(ctx, cfg.DSN)
	if err != nil {
		return repository.Set{}, nil, nil, err
	}
	return db.Repos(), postgres.NewLedgerRepo(db), db.Close, nil
}

func run(ctx context.Context, cfg config, logger *zap.Logger) error {
	repos, ledger, closeDB, err := storage(ctx, cfg, logger)
	if err != nil {
		return err
	}
	defer closeDB()

	// Redis backs login limits and the published event stream when configured.
	var (
		lim  limiter.Limiter = limiter.NewMemory(limiter.DefaultPolicy)
		sink events.Sink     = events.NewLogSink(logger)
	)
	if cfg.RedisAddr != "" {
		rdb := redis.NewClient(&redis.Options{Addr: cfg.RedisAddr})
		defer rdb.Close()
		if err := rdb.Ping(ctx).Err(); err != nil {
			return err
		}
		lim = limiter.NewRedis(rdb, limiter.DefaultPolicy)
		sink = events.NewRedisStream(rdb, cfg.Stream, cfg.StreamMaxLen)
	}

	keeper := treasury.NewKeeper(ledger)
	em := events.NewOutbox(repos.Events)

	svcs := grpcserver.Services{
		Identity:    service.NewIdentityService(repos.Accounts, []byte(cfg.JWTKey), cfg.AccessTTL, lim),
		Authorities: service.NewAuthorityService(repos, keeper, em),
		Schedules:   service.NewScheduleService(repos, em),
		Claims:      service.NewClaimEngine(repos, keeper, em),
	}
	if !cfg.DisableRevocation {
		svcs.Revocation = service.NewRevoker(repos, em)
	}

	relay := events.NewRelay(repos.Events, sink, cfg.RelayBatch, logger)
	stopRelay, err := relay.Start(cfg.RelayInterval)
	if err != nil {
		return err
	}

	var serverOpts []grpc.ServerOption
	if cfg.CertFile != "" {
		creds, err := credentials.NewServerTLSFromFile(cfg.CertFile, cfg.KeyFile)
		if err != nil {
			return err
		}
		serverOpts = append(serverOpts, grpc.Creds(creds))
	}
	gs, hs := grpcserver.NewGRPCServer(svcs, grpcserver.Options{
		SignKey:       []byte(cfg.JWTKey),
		Logger:        logger,
		ServerOptions: serverOpts,
	})

	lis, err := net.Listen("tcp", cfg.Addr)
	if err != nil {
		return err
	}

	errCh := make(chan error, 2)
	go func() {
		logger.Info("grpc listening", zap.String("addr", cfg.Addr), zap.Bool("tls", cfg.CertFile != ""))
		errCh <- gs.Serve(lis)
	}()

	var app *fiber.App
	if cfg.HTTPAddr != "" {
		app = httpserver.New(httpserver.Services{
			Authorities: svcs.Authorities,
			Schedules:   svcs.Schedules,
			Claims:      svcs.Claims,
		}, logger)
		go func() {
			logger.Info("http listening", zap.String("addr", cfg.HTTPAddr))
			errCh <- app.Listen(cfg.HTTPAddr)
		}()
	}

	// Wait for stop
	var serveErr error
	select {
	case <-ctx.Done():
	case serveErr = <-errCh:
	}

	hs.Shutdown()
	done := make(chan struct{})
	go func() {
		gs.GracefulStop()
		close(done)
	}()
	select {
	case <-done:
	case <-time.After(5 * time.Second):
		gs.Stop()
	}
	if app != nil {
		_ = app.ShutdownWithTimeout(5 * time.Second)
	}

	// forward what the last requests committed
	if err := stopRelay(); err != nil {
		logger.Warn("relay stop", zap.Error(err))
	}
	drainCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := relay.Drain(drainCtx); err != nil {
		logger.Warn("relay drain", zap.Error(err))
	}

	if serveErr != nil && !errors.Is(serveErr, grpc.ErrServerStopped) {
		return serveErr
	}
	return nil
}
