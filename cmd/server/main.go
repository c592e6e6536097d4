// Command server runs the subsidy escrow tracker: HTTP API, reconciliation
// sweeper, and trail fan-out worker in one process.
package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"golang.org/x/sync/errgroup"

	decisionservice "subvene/internal/decision"
	decisionhandler "subvene/internal/decision/handler"
	"subvene/internal/escrow"
	escrowmetrics "subvene/internal/escrow/metrics"
	"subvene/internal/ledger"
	"subvene/internal/platform/config"
	"subvene/internal/platform/httpserver"
	"subvene/internal/platform/logger"
	"subvene/internal/platform/metrics"
	"subvene/internal/platform/middleware"
	"subvene/internal/platform/postgres"
	platformredis "subvene/internal/platform/redis"
	"subvene/internal/submission"
	submissionhandler "subvene/internal/submission/handler"
	submissionservice "subvene/internal/submission/service"
	"subvene/internal/subsidy"
	subsidyhandler "subvene/internal/subsidy/handler"
	subsidyservice "subvene/internal/subsidy/service"
	"subvene/internal/sweeper"
	trailhandler "subvene/internal/trail/handler"
	httptransport "subvene/internal/transport/http"
	"subvene/pkg/platform/audit"
	auditkafka "subvene/pkg/platform/audit/sink/kafka"
	auditmemory "subvene/pkg/platform/audit/store/memory"
	auditpostgres "subvene/pkg/platform/audit/store/postgres"
	auditworker "subvene/pkg/platform/audit/worker"
)

func main() {
	cfg := config.FromEnv()
	log := logger.New()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	// Record stores: Postgres when configured, in-memory otherwise.
	var (
		subsidyStore    subsidy.Store
		submissionStore submission.Store
		trailStore      audit.Store
	)
	if cfg.PostgresURL != "" {
		db, err := postgres.Open(ctx, cfg.PostgresURL)
		if err != nil {
			log.Error("postgres connection failed", "error", err.Error())
			os.Exit(1)
		}
		defer db.Close()
		if err := subsidy.EnsureSchema(ctx, db); err != nil {
			log.Error("subsidy schema migration failed", "error", err.Error())
			os.Exit(1)
		}
		if err := submission.EnsureSchema(ctx, db); err != nil {
			log.Error("submission schema migration failed", "error", err.Error())
			os.Exit(1)
		}
		if err := auditpostgres.EnsureSchema(ctx, db); err != nil {
			log.Error("trail schema migration failed", "error", err.Error())
			os.Exit(1)
		}
		subsidyStore = subsidy.NewPostgresStore(db)
		submissionStore = submission.NewPostgresStore(db)
		trailStore = auditpostgres.New(db)
		log.Info("using postgres record store")
	} else {
		subsidyStore = subsidy.NewInMemoryStore()
		submissionStore = submission.NewInMemoryStore()
		trailStore = auditmemory.New()
		log.Info("using in-memory record store")
	}

	// Release lock: Redis when configured, in-process keyed mutex otherwise.
	var locker escrow.Locker
	if cfg.RedisURL != "" {
		redisClient, err := platformredis.New(cfg.RedisURL)
		if err != nil {
			log.Error("redis connection failed", "error", err.Error())
			os.Exit(1)
		}
		defer redisClient.Close()
		locker = escrow.NewRedisLocker(redisClient.Client, 2*cfg.LedgerConfirmWait)
		log.Info("using redis release lock")
	} else {
		locker = escrow.NewKeyedMutex()
		log.Info("using in-process release lock")
	}

	// Trail: local store is authoritative; Kafka fan-out is optional.
	var (
		trail  *audit.Publisher
		sink   *auditkafka.Sink
		outbox chan audit.Event
	)
	if len(cfg.KafkaBrokers) > 0 {
		var err error
		sink, err = auditkafka.New(cfg.KafkaBrokers, cfg.KafkaTopic)
		if err != nil {
			log.Error("kafka sink setup failed", "error", err.Error())
			os.Exit(1)
		}
		defer sink.Close()
		outbox = make(chan audit.Event, 256)
		trail = audit.NewPublisher(trailStore, audit.WithOutbox(outbox))
		log.Info("trail fan-out enabled", "topic", cfg.KafkaTopic)
	} else {
		trail = audit.NewPublisher(trailStore)
	}

	// Ledger: real node when configured, in-memory fake otherwise.
	var gateway ledger.Gateway
	if cfg.LedgerRPCURL != "" {
		gateway = ledger.NewClient(cfg.LedgerRPCURL, cfg.LedgerRequestTimeout, cfg.LedgerConfirmWait)
		log.Info("using ledger node", "url", cfg.LedgerRPCURL)
	} else {
		gateway = ledger.NewFakeGateway()
		log.Warn("no ledger node configured; using in-memory fake ledger")
	}
	escrowMetrics := escrowmetrics.New()
	httpMetrics := metrics.New()

	coordinator := escrow.NewCoordinator(subsidyStore, submissionStore, gateway, locker, trail, escrowMetrics, log)
	subsidySvc := subsidyservice.New(subsidyStore, gateway, trail, log)
	submissionSvc := submissionservice.New(submissionStore, subsidySvc, log)
	decisionSvc := decisionservice.New(subsidyStore, submissionStore, coordinator, trail, log)
	sweep := sweeper.New(subsidyStore, submissionStore, gateway, trail, escrowMetrics, log, cfg.SweepInterval)

	requestTimeout := cfg.LedgerConfirmWait + 30*time.Second
	router := httptransport.NewRouter(httptransport.RouterConfig{
		Logger:         log,
		Metrics:        httpMetrics,
		Validator:      middleware.NewHMACValidator(cfg.JWTSigningKey),
		RequestTimeout: requestTimeout,
		Handlers: []httptransport.Registrar{
			subsidyhandler.New(subsidySvc, log),
			submissionhandler.New(submissionSvc, log),
			decisionhandler.New(decisionSvc, log),
			trailhandler.New(trail, log),
		},
	})
	srv := httpserver.New(cfg.Addr, router, requestTimeout+5*time.Second)

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		log.Info("server listening", "addr", cfg.Addr)
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
	g.Go(func() error {
		err := sweep.Run(gctx)
		if errors.Is(err, context.Canceled) {
			return nil
		}
		return err
	})
	if sink != nil {
		worker := auditworker.New(sink, outbox, log)
		g.Go(func() error {
			err := worker.Run(gctx)
			if errors.Is(err, context.Canceled) {
				return nil
			}
			return err
		})
	}

	if err := g.Wait(); err != nil {
		log.Error("server exited with error", "error", err.Error())
		os.Exit(1)
	}
	log.Info("server stopped")
}
