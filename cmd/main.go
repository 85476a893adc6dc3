package main

import (
	"context"
	"errors"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"roomShare/internal/config"
	"roomShare/internal/contract"
	"roomShare/internal/handlers"
	"roomShare/internal/logger"
	"roomShare/internal/router"
	"roomShare/internal/storage"
	"roomShare/internal/storage/postgres"
	cache "roomShare/internal/storage/redis"

	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatal(err)
	}

	logs, err := logger.New(cfg.LogLevel, cfg.LogFormat, "roomshare")
	if err != nil {
		log.Fatal(err)
	}
	defer logs.Sync()

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	backend, err := contract.Dial(ctx, cfg.RPCURL)
	if err != nil {
		logs.Fatal("failed to dial node", zap.String("rpc", cfg.RPCURL), zap.Error(err))
	}
	defer backend.Close()

	gateway, err := contract.New(backend, config.ContractAddress, contract.Options{
		CallTimeout:   cfg.RPCTimeout,
		SubmitTimeout: cfg.SubmitTimeout,
	}, logs)
	if err != nil {
		logs.Fatal("failed to bind contract", zap.Error(err))
	}

	rooms, err := cache.New(ctx, &redis.Options{
		Addr:         cfg.RedisAddr,
		Password:     cfg.RedisPassword,
		DB:           cfg.RedisDB,
		PoolSize:     10,
		MinIdleConns: 5,
		MaxRetries:   3,
		DialTimeout:  5 * time.Second,
		ReadTimeout:  3 * time.Second,
		WriteTimeout: 3 * time.Second,
	}, cfg.RoomsCacheTTL, logs)
	if err != nil {
		logs.Fatal("failed to connect to redis", zap.String("addr", cfg.RedisAddr), zap.Error(err))
	}
	defer rooms.Client.Close()

	var journal storage.Journal = postgres.Nop{}
	if cfg.DatabaseURL != "" {
		database, err := postgres.New(ctx, cfg.DatabaseURL)
		if err != nil {
			logs.Fatal("failed to open submission journal", zap.Error(err))
		}
		defer database.Db.Close()

		journal = database
	} else {
		logs.Warn("DATABASE_URL not set, submissions are not journaled")
	}

	settings := handlers.Settings{
		JWTKey:          cfg.JWTKey,
		SessionTTL:      cfg.SessionTTL,
		SubmitLockTTL:   cfg.SubmitTimeout + cfg.RPCTimeout,
		ContractAddress: config.ContractAddress,
		ExchangeRate:    config.ExchangeRate,
		ReferenceYear:   config.ReferenceYear,
	}

	srv := &http.Server{
		Addr:              cfg.APIAddr,
		Handler:           router.New(gateway, rooms, journal, settings, cfg.AllowedOrigins, logs),
		ReadHeaderTimeout: 5 * time.Second,
	}

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, os.Interrupt, syscall.SIGTERM)

	go func() {
		logs.Info("listening", zap.String("addr", cfg.APIAddr))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logs.Fatal("server error", zap.Error(err))
		}
	}()

	<-sigChan
	logs.Info("shutting down")

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), cfg.SubmitTimeout)
	defer shutdownCancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		logs.Error("server shutdown error", zap.Error(err))
	}
}
