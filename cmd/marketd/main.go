package main

import (
	"context"
	"net/http"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"

	"github.com/openride/marketplace/internal/archive"
	"github.com/openride/marketplace/internal/escrow"
	"github.com/openride/marketplace/internal/ledger"
	"github.com/openride/marketplace/internal/notifications"
	"github.com/openride/marketplace/internal/rating"
	"github.com/openride/marketplace/internal/registry"
	"github.com/openride/marketplace/internal/store"
	"github.com/openride/marketplace/pkg/common"
	"github.com/openride/marketplace/pkg/config"
	"github.com/openride/marketplace/pkg/eventbus"
	"github.com/openride/marketplace/pkg/logger"
	"github.com/openride/marketplace/pkg/middleware"
	"github.com/openride/marketplace/pkg/ratelimit"
)

const serviceName = "marketd"

func main() {
	cfg, err := config.Load(serviceName)
	if err != nil {
		panic("failed to load config: " + err.Error())
	}

	if err := logger.Init(cfg.Server.Environment); err != nil {
		panic("failed to init logger: " + err.Error())
	}
	defer func() { _ = logger.Sync() }()

	platformID := resolvePlatformID(cfg.Market.PlatformOwnerID)

	st := store.NewMemory()
	settlement := escrow.NewService(st, platformID, cfg.Market.DriverSharePct)
	if err := settlement.InitPlatformAccount(); err != nil {
		logger.Fatal("failed to init platform account", zap.Error(err))
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	var bus *eventbus.Bus
	var events eventbus.Publisher
	if cfg.NATS.Enabled {
		bus, err = eventbus.Connect(cfg.NATS.URL, serviceName)
		if err != nil {
			logger.Fatal("failed to connect to event bus", zap.Error(err))
		}
		defer bus.Close()
		events = bus

		handler := notifications.NewEventHandler(notifications.NewService(nil))
		if err := handler.RegisterSubscriptions(ctx, bus); err != nil {
			logger.Fatal("failed to subscribe notification handler", zap.Error(err))
		}
	}

	var archiver ledger.Archiver
	healthChecks := map[string]func() error{}
	if cfg.Archive.Enabled {
		db, err := archive.Open(cfg.Archive.DSN())
		if err != nil {
			logger.Fatal("failed to open ride archive", zap.Error(err))
		}
		defer func() { _ = db.Close() }()
		if err := archive.Migrate(db); err != nil {
			logger.Fatal("failed to migrate ride archive", zap.Error(err))
		}
		archiver = archive.NewRepository(db)
		healthChecks["archive"] = db.Ping
	}

	registrySvc := registry.NewService(st, events)
	ledgerSvc := ledger.NewService(st, settlement, events, archiver, cfg.Market.BaseFare, cfg.Market.FarePerUnit)
	ratingSvc := rating.NewService(st, events)

	router := buildRouter(cfg, healthChecks)
	v1 := router.Group("/api/v1")
	registry.NewHandler(registrySvc).RegisterRoutes(v1)
	ledger.NewHandler(ledgerSvc).RegisterRoutes(v1)
	escrow.NewHandler(settlement).RegisterRoutes(v1)
	rating.NewHandler(ratingSvc).RegisterRoutes(v1)

	srv := &http.Server{
		Addr:         ":" + cfg.Server.Port,
		Handler:      router,
		ReadTimeout:  time.Duration(cfg.Server.ReadTimeout) * time.Second,
		WriteTimeout: time.Duration(cfg.Server.WriteTimeout) * time.Second,
	}

	go func() {
		logger.Info("marketd listening",
			zap.String("port", cfg.Server.Port),
			zap.String("environment", cfg.Server.Environment),
			zap.String("platform_id", platformID.String()),
		)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Fatal("server failed", zap.Error(err))
		}
	}()

	<-ctx.Done()
	logger.Info("shutting down")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Error("forced shutdown", zap.Error(err))
	}
}

func buildRouter(cfg *config.Config, healthChecks map[string]func() error) *gin.Engine {
	if cfg.Server.Environment == "production" {
		gin.SetMode(gin.ReleaseMode)
	}

	router := gin.New()
	router.Use(middleware.Recovery())
	router.Use(middleware.CorrelationID())
	router.Use(middleware.RequestLogger())
	router.Use(middleware.Metrics(serviceName))
	router.Use(cors.New(cors.Config{
		AllowOrigins:     strings.Split(cfg.Server.CORSOrigins, ","),
		AllowMethods:     []string{"GET", "POST", "OPTIONS"},
		AllowHeaders:     []string{"Origin", "Content-Type", middleware.IdentityHeader, middleware.CorrelationIDHeader},
		AllowCredentials: true,
		MaxAge:           12 * time.Hour,
	}))

	if cfg.Redis.Enabled {
		client := redis.NewClient(&redis.Options{
			Addr:     cfg.Redis.Addr(),
			Password: cfg.Redis.Password,
			DB:       cfg.Redis.DB,
		})
		limiter := ratelimit.NewLimiter(client, 100, time.Minute)
		router.Use(ratelimit.Middleware(limiter))
	}

	router.GET("/health", common.HealthCheck(serviceName, healthChecks))
	router.GET("/metrics", gin.WrapH(promhttp.Handler()))
	return router
}

// resolvePlatformID parses the configured owner identity, minting an
// ephemeral one for development when none is set. Escrow sweeps are gated on
// this identity, so production must pin it.
func resolvePlatformID(raw string) uuid.UUID {
	if raw == "" {
		id := uuid.New()
		logger.Warn("no platform owner configured, using ephemeral identity",
			zap.String("platform_id", id.String()),
		)
		return id
	}
	id, err := uuid.Parse(raw)
	if err != nil {
		logger.Fatal("invalid platform owner identity", zap.String("value", raw), zap.Error(err))
	}
	return id
}
