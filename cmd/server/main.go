// cmd/server/main.go
package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
	_ "github.com/joho/godotenv/autoload"
	"github.com/sirupsen/logrus"

	"github.com/yuvrajgitacc/study-verse/internal/ai"
	"github.com/yuvrajgitacc/study-verse/internal/auth"
	"github.com/yuvrajgitacc/study-verse/internal/battle"
	"github.com/yuvrajgitacc/study-verse/internal/config"
	"github.com/yuvrajgitacc/study-verse/internal/handlers"
	"github.com/yuvrajgitacc/study-verse/internal/history"
	"github.com/yuvrajgitacc/study-verse/internal/middleware"
	"github.com/yuvrajgitacc/study-verse/internal/rewards"
	"github.com/yuvrajgitacc/study-verse/internal/transport"
)

func main() {
	auth.Init()

	logger := logrus.New()
	logger.SetLevel(logrus.InfoLevel)

	cfg := config.Load()

	provider := ai.NewClient(cfg.AIBaseURL, cfg.AIAPIKey, cfg.AIModel, logger)

	judge := &battle.Judge{
		Provider: provider,
		Logger:   logger,
	}

	if cfg.DatabaseURL != "" {
		pool, err := pgxpool.New(context.Background(), cfg.DatabaseURL)
		if err != nil {
			logger.Fatalf("connect to postgres: %v", err)
		}
		defer pool.Close()
		judge.Rewards = rewards.NewStore(pool)
	} else {
		logger.Warn("DATABASE_URL not set; XP grants disabled")
	}

	if cfg.RedisAddr != "" {
		recorder, err := history.Connect(cfg.RedisAddr, cfg.RedisDB, cfg.RedisQueue, logger)
		if err != nil {
			logger.Fatalf("connect to redis: %v", err)
		}
		defer recorder.Close()
		judge.History = recorder
	} else {
		logger.Warn("REDIS_ADDR not set; battle history disabled")
	}

	hub := transport.NewHub(logger)
	registry := battle.NewRegistry(hub, provider, judge, logger)
	registry.BattleDuration = cfg.BattleDuration

	srv := handlers.NewBattleServer(registry, hub, logger)

	mux := http.NewServeMux()
	mux.Handle("/battle/create", middleware.LogMiddleware(logger)(http.HandlerFunc(
		handlers.CreateBattleHandler(srv),
	)))
	mux.Handle("/battle/snapshot/", middleware.LogMiddleware(logger)(http.HandlerFunc(
		handlers.SnapshotHandler(srv),
	)))
	mux.Handle("/battle/ws/", http.HandlerFunc(
		handlers.BattleWSHandler(logger, srv),
	))

	httpServer := &http.Server{
		Addr:    cfg.Addr,
		Handler: mux,
	}

	go func() {
		logger.Infof("battle service listening on %s", cfg.Addr)
		if err := httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Fatalf("server exited: %v", err)
		}
	}()

	stop := make(chan os.Signal, 1)
	signal.Notify(stop, syscall.SIGINT, syscall.SIGTERM)
	<-stop

	logger.Info("shutting down: draining rooms")
	registry.Drain("server shutting down")

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := httpServer.Shutdown(ctx); err != nil {
		logger.Warnf("http shutdown: %v", err)
	}
}
