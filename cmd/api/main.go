package main

import (
	"context"
	"errors"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"github.com/accessgate/access-system/internal/api"
	"github.com/accessgate/access-system/internal/core/domain"
	"github.com/accessgate/access-system/internal/infrastructure/config"
	mongodb "github.com/accessgate/access-system/internal/infrastructure/db/mongo"
	redisdb "github.com/accessgate/access-system/internal/infrastructure/db/redis"
	"github.com/accessgate/access-system/pkg/logger"
)

const shutdownTimeout = 10 * time.Second

func main() {
	cfg := config.Load()

	log := logger.Init(logger.Options{
		Level:  cfg.LogLevel,
		Pretty: cfg.Env == "development",
	})

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	client, db, err := mongodb.Connect(ctx, mongodb.Config{
		URI:      cfg.Mongo.URI,
		Database: cfg.Mongo.Database,
	})
	if err != nil {
		log.Fatal().Err(err).Msg("failed to connect to mongodb")
	}
	defer func() {
		if err := client.Disconnect(context.Background()); err != nil {
			log.Error().Err(err).Msg("mongodb disconnect")
		}
	}()

	rbacRepo := mongodb.NewRBACRepository(db)
	if err := rbacRepo.EnsureIndexes(ctx); err != nil {
		log.Fatal().Err(err).Msg("failed to ensure rbac indexes")
	}
	if err := mongodb.NewSessionRepository(db).EnsureIndexes(ctx); err != nil {
		log.Fatal().Err(err).Msg("failed to ensure session indexes")
	}
	if err := mongodb.NewIdentityRepository(db).EnsureIndexes(ctx); err != nil {
		log.Fatal().Err(err).Msg("failed to ensure identity indexes")
	}

	// Seed the resource rows the routes are gated on. Grants stay empty; an
	// administrator opens access through the admin API.
	for name, description := range map[string]string{
		"access_rules": "administration of roles, resources and grants",
		"products":     "product catalog",
		"orders":       "customer orders",
		"users":        "registered identities",
		"dashboard":    "aggregate statistics",
	} {
		if _, err := rbacRepo.EnsureResource(ctx, name, description); err != nil {
			log.Fatal().Err(err).Str("resource", name).Msg("failed to seed resource")
		}
	}

	// Without a role holding rights on access_rules the admin API is
	// unreachable for everyone. Seed it; assigning the role to an identity is
	// an operational step.
	if err := seedAdminRole(ctx, rbacRepo); err != nil {
		log.Fatal().Err(err).Msg("failed to seed admin role")
	}

	rdb, err := redisdb.Connect(ctx, redisdb.Config{
		Addr: cfg.Redis.Addr,
		DB:   cfg.Redis.DB,
	})
	if err != nil {
		log.Fatal().Err(err).Msg("failed to connect to redis")
	}
	defer func() {
		if err := rdb.Close(); err != nil {
			log.Error().Err(err).Msg("redis close")
		}
	}()

	e := api.NewRouter(ctx, cfg, db, rdb, log)

	go func() {
		log.Info().Str("port", cfg.Port).Str("env", cfg.Env).Msg("starting http server")
		if err := e.Start(":" + cfg.Port); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatal().Err(err).Msg("http server stopped")
		}
	}()

	<-ctx.Done()
	log.Info().Msg("shutdown signal received")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	if err := e.Shutdown(shutdownCtx); err != nil {
		log.Error().Err(err).Msg("http server shutdown")
	}
}

func seedAdminRole(ctx context.Context, repo *mongodb.RBACRepository) error {
	role, err := repo.EnsureRole(ctx, "admin", "full access to the admin API")
	if err != nil {
		return err
	}
	resource, err := repo.FindResourceByName(ctx, "access_rules")
	if err != nil {
		return err
	}
	return repo.UpsertGrant(ctx, &domain.PermissionGrant{
		RoleID:     role.ID,
		ResourceID: resource.ID,
		Read:       true,
		ReadAll:    true,
		Create:     true,
		Update:     true,
		UpdateAll:  true,
		Delete:     true,
		DeleteAll:  true,
	})
}
