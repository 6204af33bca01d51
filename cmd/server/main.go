// main wires high-level dependencies, exposes the HTTP router, and keeps the
// server lifecycle small. Business logic lives in internal services packages.
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

	"circles/internal/audit"
	circleservice "circles/internal/circle/service"
	circlestore "circles/internal/circle/store"
	identityservice "circles/internal/identity/service"
	identitystore "circles/internal/identity/store"
	"circles/internal/identity/token"
	messageservice "circles/internal/message/service"
	messagestore "circles/internal/message/store"
	"circles/internal/platform/config"
	"circles/internal/platform/httpserver"
	"circles/internal/platform/logger"
	"circles/internal/platform/metrics"
	"circles/internal/platform/postgres"
	redisclient "circles/internal/platform/redis"
	"circles/internal/presence"
	realtimehandler "circles/internal/realtime/handler"
	"circles/internal/realtime/registry"
	"circles/internal/realtime/router"
	sudokuservice "circles/internal/sudoku/service"
	sudokustore "circles/internal/sudoku/store"
	taskservice "circles/internal/task/service"
	taskstore "circles/internal/task/store"
	httptransport "circles/internal/transport/http"
)

func main() {
	cfg := config.FromEnv()
	log := logger.New()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	// Storage. Empty URLs select the in-memory implementations.
	pool, err := postgres.New(ctx, cfg.PostgresURL)
	if err != nil {
		log.Error("postgres setup failed", "error", err)
		os.Exit(1)
	}
	if pool != nil {
		defer pool.Close()
		if err := postgres.Migrate(ctx, pool); err != nil {
			log.Error("schema migration failed", "error", err)
			os.Exit(1)
		}
	}

	rdb, err := redisclient.New(ctx, cfg.RedisURL)
	if err != nil {
		log.Error("redis setup failed", "error", err)
		os.Exit(1)
	}
	if rdb != nil {
		defer rdb.Close()
	}

	var userStore identitystore.UserStore = identitystore.NewMemory()
	var circleStore circlestore.CircleStore = circlestore.NewMemory()
	var messageStore messagestore.MessageStore = messagestore.NewMemory()
	var gameStore sudokustore.GameStore = sudokustore.NewMemory()
	var taskStore taskstore.TaskStore = taskstore.NewMemory()
	var presenceStore presence.Store = presence.NewMemoryStore()
	if pool != nil {
		userStore = identitystore.NewPostgres(pool)
		circleStore = circlestore.NewPostgres(pool)
		messageStore = messagestore.NewPostgres(pool)
		gameStore = sudokustore.NewPostgres(pool)
		taskStore = taskstore.NewPostgres(pool)
	}
	if rdb != nil {
		presenceStore = presence.NewRedisStore(rdb.Client)
	}

	m := metrics.New()

	// Audit pipeline. The Kafka sink is optional; events always land in
	// the local store.
	auditPub := audit.NewPublisher(1024, log)
	auditStore := audit.NewMemoryStore()
	var auditSink audit.Sink
	if len(cfg.KafkaBrokers) > 0 {
		kafkaSink, err := audit.NewKafkaSink(ctx, cfg.KafkaBrokers, cfg.AuditTopic)
		if err != nil {
			log.Error("kafka audit sink setup failed", "error", err)
			os.Exit(1)
		}
		defer kafkaSink.Close()
		auditSink = kafkaSink
	}
	auditWorker := audit.NewWorker(auditStore, auditSink, auditPub.Inbox(), log)

	// Realtime core.
	reg := registry.New(m, log)
	rt := router.New(reg, auditPub, m, log)

	// Domain services.
	tokens := token.NewService(cfg.JWTSigningKey, cfg.TokenTTL)
	identity := identityservice.New(userStore, tokens, m, log)
	circles := circleservice.New(circleStore, userStore, rt, auditPub, log)
	messages := messageservice.New(messageStore, m)
	games := sudokuservice.New(gameStore)
	tasks := taskservice.New(taskStore, circles, rt, log)
	tracker := presence.NewTracker(presenceStore, log)

	rt.Mount(
		router.NewChatFamily(messages, circles, reg, log),
		router.NewDMFamily(messages, reg, log),
		router.NewSudokuFamily(games, circles, reg, log),
		router.NewNotificationsFamily(reg, log),
		router.NewPresenceFamily(tracker, reg, log),
	)

	ws := realtimehandler.New(identity, rt, cfg.SendBuffer, m, log)

	handler := httptransport.NewRouter(httptransport.Deps{
		Identity:       identity,
		Circles:        circles,
		Tasks:          tasks,
		Messages:       messages,
		Realtime:       ws,
		TokenValidator: identity,
		Logger:         log,
	})

	srv := httpserver.New(cfg.Addr, handler)

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		err := auditWorker.Run(gctx)
		if errors.Is(err, context.Canceled) {
			return nil
		}
		return err
	})
	g.Go(func() error {
		log.Info("starting circles server", "addr", cfg.Addr)
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

	if err := g.Wait(); err != nil {
		log.Error("server exited", "error", err)
		os.Exit(1)
	}
	log.Info("server stopped")
}
