package main

import (
	"context"
	"database/sql"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	_ "github.com/lib/pq"
	"github.com/prometheus/client_golang/prometheus"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"kindred/internal/audit"
	jwttoken "kindred/internal/jwt_token"
	"kindred/internal/ledger"
	"kindred/internal/platform/config"
	"kindred/internal/platform/httpserver"
	"kindred/internal/platform/logger"
	"kindred/internal/platform/metrics"
	platformredis "kindred/internal/platform/redis"
	"kindred/internal/profile"
	"kindred/internal/protocol"
	httptransport "kindred/internal/transport/http"
	"kindred/pkg/clock"
)

// main wires high-level dependencies, exposes the HTTP router, and keeps the
// server lifecycle small. Business logic lives in internal services packages.
func main() {
	cfg, err := config.Load()
	if err != nil {
		zap.NewExample().Fatal("invalid configuration", zap.Error(err))
	}
	log := logger.New(cfg.LogLevel, cfg.LogFormat)
	defer func() { _ = log.Sync() }()

	if err := run(cfg, log); err != nil {
		log.Fatal("server exited", zap.Error(err))
	}
}

func run(cfg config.Config, log *zap.Logger) error {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	registry := prometheus.NewRegistry()
	m := metrics.New(registry)
	health := map[string]httptransport.HealthCheck{}

	var (
		ledgerStore ledger.Store = ledger.NewInMemoryStore()
		auditStore  audit.Store  = audit.NewInMemoryStore()
	)
	if cfg.PostgresDSN != "" {
		db, err := sql.Open("postgres", cfg.PostgresDSN)
		if err != nil {
			return err
		}
		defer db.Close()
		pingCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
		err = db.PingContext(pingCtx)
		cancel()
		if err != nil {
			return err
		}
		ledgerStore = ledger.NewPostgresStore(db)
		auditStore = audit.NewPostgresStore(db)
		health["postgres"] = db.PingContext
		log.Info("postgres stores enabled")
	} else {
		log.Warn("postgres not configured, using in-memory stores")
	}

	var profiles profile.Directory = profile.NewInMemoryDirectory()
	redisClient, err := platformredis.New(cfg.RedisURL)
	if err != nil {
		return err
	}
	if redisClient != nil {
		defer func() { _ = redisClient.Close() }()
		profiles = profile.NewRedisDirectory(redisClient.Client)
		health["redis"] = redisClient.Health
		log.Info("redis profile directory enabled")
	}

	g, gctx := errgroup.WithContext(ctx)

	var inbox chan audit.Event
	if len(cfg.KafkaBrokers) > 0 {
		sink, err := audit.NewKafkaSink(cfg.KafkaBrokers, cfg.AuditTopic)
		if err != nil {
			return err
		}
		defer sink.Close()
		inbox = make(chan audit.Event, 256)
		worker := audit.NewWorker(sink, inbox, log)
		g.Go(func() error {
			if err := worker.Run(gctx); !errors.Is(err, context.Canceled) {
				return err
			}
			return nil
		})
		log.Info("kafka audit sink enabled",
			zap.Strings("brokers", cfg.KafkaBrokers),
			zap.String("topic", cfg.AuditTopic))
	}
	auditPub := audit.NewPublisher(auditStore, inbox, log)

	clk := clock.System{}
	ledgerSvc := ledger.NewService(ledgerStore, clk, cfg.Cooldown, log)
	svc := protocol.NewService(
		profiles,
		ledgerSvc,
		auditPub,
		protocol.NewLoggedTransfers(log),
		clk,
		m,
		log,
		protocol.Options{
			Weights:            cfg.Weights,
			RequireActiveStake: cfg.RequireActiveStake,
			TreasuryAddress:    cfg.TreasuryAddress,
		},
	)

	tokens := jwttoken.NewService(cfg.JWTSigningKey, "kindred")
	handler := httptransport.NewHandler(svc, log, cfg.Weights, health)
	router := httptransport.NewRouter(handler, tokens, registry)
	srv := httpserver.New(cfg.Addr, router)

	g.Go(func() error {
		log.Info("starting kindred", zap.String("addr", cfg.Addr))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	})
	g.Go(func() error {
		<-gctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		return srv.Shutdown(shutdownCtx)
	})

	return g.Wait()
}
