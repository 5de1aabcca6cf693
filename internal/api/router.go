package api

import (
	"context"

	"github.com/labstack/echo/v4"
	echomiddleware "github.com/labstack/echo/v4/middleware"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"
	"go.mongodb.org/mongo-driver/mongo"

	"github.com/accessgate/access-system/internal/api/handler"
	"github.com/accessgate/access-system/internal/api/metrics"
	"github.com/accessgate/access-system/internal/api/middleware"
	"github.com/accessgate/access-system/internal/core/domain"
	"github.com/accessgate/access-system/internal/core/service"
	"github.com/accessgate/access-system/internal/infrastructure/config"
	mongodb "github.com/accessgate/access-system/internal/infrastructure/db/mongo"
	redisdb "github.com/accessgate/access-system/internal/infrastructure/db/redis"
	"github.com/accessgate/access-system/internal/infrastructure/queue"
)

// Resource names the business endpoints are gated on. Grants reference these
// by name; an endpoint whose resource row does not exist denies everyone.
const (
	resourceAccessRules = "access_rules"
	resourceProducts    = "products"
	resourceOrders      = "orders"
	resourceUsers       = "users"
	resourceDashboard   = "dashboard"
)

// NewRouter wires repositories, services and handlers, and returns the Echo
// instance with all routes registered. The audit dispatcher's workers run
// until ctx is cancelled.
func NewRouter(ctx context.Context, cfg *config.Config, db *mongo.Database, rdb *redis.Client, log zerolog.Logger) *echo.Echo {
	e := echo.New()
	e.HideBanner = true
	e.Validator = handler.NewValidator()
	e.HTTPErrorHandler = NewHTTPErrorHandler(log)

	// --- Global middleware ---
	e.Use(echomiddleware.Recover())
	e.Use(echomiddleware.RequestID())
	e.Use(echomiddleware.Logger())

	// --- Repositories ---
	identityRepo := mongodb.NewIdentityRepository(db)
	rbacRepo := mongodb.NewRBACRepository(db)
	sessionRepo := mongodb.NewSessionRepository(db)
	auditRepo := mongodb.NewAuditRepository(db)
	limiter := redisdb.NewAttemptLimiter(rdb, cfg.Login.MaxAttempts, cfg.Login.AttemptWindow)

	// --- Services ---
	dispatcher := queue.NewAuditDispatcher(0, auditRepo, log)
	dispatcher.OnDepthChange(func(worker string, n int) {
		metrics.AuditQueueDepth.WithLabelValues(worker).Set(float64(n))
	})
	dispatcher.Start(ctx)

	codec := service.NewTokenCodec(cfg.JWTSecret)
	sessions := service.NewSessionService(sessionRepo, codec, cfg.TokenTTL)
	authService := service.NewAuthService(identityRepo, sessions, limiter, dispatcher, cfg.BcryptCost, log)
	access := service.NewAccessService(identityRepo, sessions, codec, rbacRepo, rbacRepo, rbacRepo)
	access.OnSessionReaped(metrics.SessionsReapedTotal.Inc)
	rbacAdmin := service.NewRBACService(identityRepo, rbacRepo, rbacRepo, rbacRepo, rbacRepo)

	// --- Handlers ---
	authHandler := handler.NewAuthHandler(authService)
	adminHandler := handler.NewAdminHandler(rbacAdmin)
	businessHandler := handler.NewBusinessHandler()

	resolve := middleware.Resolve(access)
	requireUser := middleware.RequireUser()

	// --- Auth routes ---
	e.POST("/api/register", authHandler.Register)
	e.POST("/api/login", authHandler.Login)
	e.POST("/api/logout", authHandler.Logout, resolve, requireUser)
	e.GET("/api/profile", authHandler.Profile, resolve, requireUser)
	e.PUT("/api/profile", authHandler.UpdateProfile, resolve, requireUser)
	e.DELETE("/api/delete-account", authHandler.DeleteAccount, resolve, requireUser)

	// --- Admin routes (gated on the access_rules resource) ---
	admin := e.Group("/api/admin", resolve, requireUser)
	admin.GET("/roles", adminHandler.ListRoles, middleware.Require(access, resourceAccessRules, string(domain.OpRead)))
	admin.POST("/roles", adminHandler.CreateRole, middleware.Require(access, resourceAccessRules, string(domain.OpCreate)))
	admin.PUT("/roles/:name", adminHandler.RenameRole, middleware.Require(access, resourceAccessRules, string(domain.OpUpdate), string(domain.OpUpdateAll)))
	admin.DELETE("/roles/:name", adminHandler.DeleteRole, middleware.Require(access, resourceAccessRules, string(domain.OpDelete), string(domain.OpDeleteAll)))
	admin.GET("/resources", adminHandler.ListResources, middleware.Require(access, resourceAccessRules, string(domain.OpRead)))
	admin.POST("/resources", adminHandler.CreateResource, middleware.Require(access, resourceAccessRules, string(domain.OpCreate)))
	admin.DELETE("/resources/:name", adminHandler.DeleteResource, middleware.Require(access, resourceAccessRules, string(domain.OpDelete), string(domain.OpDeleteAll)))
	admin.GET("/grants", adminHandler.ListGrants, middleware.Require(access, resourceAccessRules, string(domain.OpRead)))
	admin.PUT("/grants", adminHandler.ApplyGrant, middleware.Require(access, resourceAccessRules, string(domain.OpUpdate), string(domain.OpUpdateAll)))
	admin.DELETE("/grants/:role/:resource", adminHandler.RevokeGrant, middleware.Require(access, resourceAccessRules, string(domain.OpDelete), string(domain.OpDeleteAll)))
	admin.POST("/assignments", adminHandler.AssignRole, middleware.Require(access, resourceAccessRules, string(domain.OpCreate)))
	admin.DELETE("/assignments", adminHandler.UnassignRole, middleware.Require(access, resourceAccessRules, string(domain.OpDelete), string(domain.OpDeleteAll)))

	// --- Business routes (mock data behind real permission checks) ---
	api := e.Group("/api", resolve, requireUser)
	api.GET("/products", businessHandler.ListProducts, middleware.Require(access, resourceProducts, string(domain.OpRead), string(domain.OpReadAll)))
	api.GET("/products/:id", businessHandler.GetProduct, middleware.Require(access, resourceProducts, string(domain.OpRead), string(domain.OpReadAll)))
	api.POST("/products", businessHandler.CreateProduct, middleware.Require(access, resourceProducts, string(domain.OpCreate)))
	api.PUT("/products/:id", businessHandler.UpdateProduct, middleware.Require(access, resourceProducts, string(domain.OpUpdate), string(domain.OpUpdateAll)))
	api.DELETE("/products/:id", businessHandler.DeleteProduct, middleware.Require(access, resourceProducts, string(domain.OpDelete), string(domain.OpDeleteAll)))
	api.GET("/orders", businessHandler.ListOrders, middleware.Require(access, resourceOrders, string(domain.OpRead), string(domain.OpReadAll)))
	api.POST("/orders", businessHandler.CreateOrder, middleware.Require(access, resourceOrders, string(domain.OpCreate)))
	api.GET("/users", adminHandler.ListIdentities, middleware.Require(access, resourceUsers, string(domain.OpReadAll)))
	api.GET("/dashboard", businessHandler.Dashboard, middleware.Require(access, resourceDashboard, string(domain.OpRead)))

	// --- Health probes and metrics (no auth required) ---
	healthHandler := handler.NewHealthHandler(db, rdb)

	e.GET("/health", healthHandler.Liveness)
	e.GET("/health/ready", healthHandler.Readiness)
	e.GET("/metrics", echo.WrapHandler(promhttp.Handler()))

	return e
}
