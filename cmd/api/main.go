package main

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/Yoyzhao/CampusIdle/internal/api"
	"github.com/Yoyzhao/CampusIdle/internal/config"
	cartsvc "github.com/Yoyzhao/CampusIdle/internal/service/cart"
	catalogsvc "github.com/Yoyzhao/CampusIdle/internal/service/catalog"
	txsvc "github.com/Yoyzhao/CampusIdle/internal/service/transaction"
	usersvc "github.com/Yoyzhao/CampusIdle/internal/service/user"
	"github.com/Yoyzhao/CampusIdle/internal/storage/postgres"
	"github.com/Yoyzhao/CampusIdle/internal/storage/rediscache"

	_ "github.com/lib/pq"
	"github.com/redis/go-redis/v9"
)

const (
	envLocal = "local"
	envDev   = "dev"
	envProd  = "prod"
)

func main() {
	cfg := config.MustLoad()

	log := setupLogger(cfg.Env)

	log.Info("Starting application",
		slog.String("env", cfg.Env),
		slog.String("host", cfg.ApiHost),
		slog.Int("port", cfg.ApiPort),
	)

	dbUrl := fmt.Sprintf("postgres://%s:%s@%s:%s/%s?sslmode=disable",
		cfg.Postgres.User,
		cfg.Postgres.Pass,
		cfg.Postgres.Host,
		cfg.Postgres.Port,
		cfg.Postgres.Db,
	)

	storage, err := postgres.New(dbUrl)
	if err != nil {
		log.Error("Failed to connect to database", "error", err)
		os.Exit(1)
	}

	redisClient := redis.NewClient(&redis.Options{Addr: cfg.Redis.Addr})
	listingCache := rediscache.New(redisClient, cfg.Redis.CacheTTL)

	catalog := catalogsvc.New(storage, listingCache, log)
	carts := cartsvc.New(storage, catalog, log)
	transactions := txsvc.New(storage, catalog, carts, log)
	users := usersvc.New(storage, log, cfg.Session.JwtSecret, cfg.Session.TTL)

	apiServer := api.New(cfg, log, users, catalog, carts, transactions)

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, os.Interrupt, syscall.SIGTERM)

	go func() {
		apiServer.MustStart()
	}()

	<-sigChan
	log.Info("Got signal to shutdown server")

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := apiServer.Stop(ctx); err != nil {
		log.Error("Stopping server error", "error", err)
	}
	if err := storage.Stop(); err != nil {
		log.Error("Closing database error", "error", err)
	}
}

func setupLogger(env string) *slog.Logger {
	var log *slog.Logger
	switch env {
	case envLocal:
		log = slog.New(
			slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{Level: slog.LevelDebug}),
		)
	case envDev:
		log = slog.New(
			slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{Level: slog.LevelDebug}),
		)
	case envProd:
		log = slog.New(
			slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{Level: slog.LevelInfo}),
		)
	}
	return log
}
