package main

import (
	"context"

	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"
	"github.com/redis/go-redis/v9"
	log "github.com/sirupsen/logrus"

	"lockscreen-todo/config"
	"lockscreen-todo/domain"
	"lockscreen-todo/handlers"
	"lockscreen-todo/publisher"
	"lockscreen-todo/storage"
)

var seed = []domain.TodoItem{
	{ID: "1", Title: "Check widget data sync", Completed: false},
	{ID: "2", Title: "Sync with the backend", Completed: true},
}

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("config: %v", err)
	}
	if cfg.Debug {
		log.SetLevel(log.DebugLevel)
	}
	logger := log.StandardLogger()

	store, err := storage.Open(cfg.Store, logger)
	if err != nil {
		log.Fatalf("storage: %v", err)
	}
	defer store.Close()
	ctx := context.Background()
	if err := store.Provision(ctx, cfg.Store.Namespace); err != nil {
		log.Fatalf("provision %s: %v", cfg.Store.Namespace, err)
	}

	pub := publisher.New(store, cfg.Store.Namespace, cfg.Store.Key, domain.NewTodoList(seed), publisher.WithLogger(logger))
	if pub.Restore(ctx) {
		log.WithField("items", len(pub.List().Items)).Info("restored todo list from snapshot")
	}

	var dedup handlers.Deduper
	if cfg.Store.RedisConn != "" {
		rc := redis.NewClient(config.RedisOptions(cfg.Store.RedisConn))
		defer rc.Close()
		dedup = handlers.NewRedisDeduper(rc, cfg.IdempotencyTTL)
	}
	var auth handlers.Authenticator
	if a := handlers.NewAuth(cfg.AuthSecret); a != nil {
		auth = a
	}

	e := echo.New()
	e.Use(middleware.CORSWithConfig(middleware.CORSConfig{
		AllowOrigins: []string{"*"},
		AllowHeaders: []string{echo.HeaderOrigin, echo.HeaderContentType, echo.HeaderAccept, echo.HeaderAuthorization, "Idempotency-Key"},
	}))
	handlers.Register(e, pub, auth, dedup, logger)

	if err := e.Start(cfg.ListenAddr); err != nil {
		log.WithError(err).Error("server stopped")
	}
}
