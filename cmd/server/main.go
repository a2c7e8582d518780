package main

import (
	"context"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-contrib/gzip"
	"github.com/gin-gonic/gin"
	"github.com/joho/godotenv"
	"github.com/mkhaled501333/maintaince-management/internal/config"
	"github.com/mkhaled501333/maintaince-management/internal/maintenance/entity"
	"github.com/mkhaled501333/maintaince-management/internal/maintenance/handler"
	"github.com/mkhaled501333/maintaince-management/internal/maintenance/repository"
	"github.com/mkhaled501333/maintaince-management/internal/maintenance/service"
	"github.com/mkhaled501333/maintaince-management/internal/middleware"
	"github.com/mkhaled501333/maintaince-management/internal/shared/cache"
	"github.com/mkhaled501333/maintaince-management/internal/shared/events"
	"github.com/mkhaled501333/maintaince-management/internal/shared/metrics"
	"github.com/mkhaled501333/maintaince-management/internal/shared/sse"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

var (
	Version   = "dev"
	BuildTime = "unknown"
)

func main() {
	if err := godotenv.Load(); err != nil {
		log.Printf("Warning: .env file not found, using environment variables")
	}

	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("Failed to load config: %v", err)
	}

	zapLogger, err := initLogger(cfg.Log)
	if err != nil {
		log.Fatalf("Failed to init logger: %v", err)
	}
	defer zapLogger.Sync()

	zapLogger.Info("Starting maintenance service",
		zap.String("version", Version),
		zap.String("build_time", BuildTime),
	)

	if cfg.JWT.Secret == "" {
		zapLogger.Fatal("JWT secret is not configured (JWT_SECRET)")
	}

	db, err := initDatabase(cfg.Database, cfg.Server.Mode)
	if err != nil {
		zapLogger.Fatal("Failed to connect to database", zap.Error(err))
	}
	if cfg.Database.AutoMigrate {
		if err := db.AutoMigrate(entity.AllModels()...); err != nil {
			zapLogger.Fatal("AutoMigrate failed", zap.Error(err))
		}
	}

	var rdb *redis.Client
	if cfg.Redis.Enabled {
		rdb = initRedis(cfg.Redis)
		pingCtx, cancel := context.WithTimeout(context.Background(), 3*time.Second)
		if err := rdb.Ping(pingCtx).Err(); err != nil {
			zapLogger.Warn("Redis unavailable, report cache disabled", zap.Error(err))
			rdb.Close()
			rdb = nil
		}
		cancel()
	}

	hub := sse.NewHub(zapLogger)
	publisher := events.Fanout{hub}
	if cfg.RabbitMQ.Enabled {
		p, err := events.NewAMQPPublisher(cfg.RabbitMQ.URL(), cfg.RabbitMQ.Exchange, "maintenance-api")
		if err != nil {
			zapLogger.Warn("RabbitMQ unavailable, domain events stay in-process", zap.Error(err))
		} else {
			publisher = append(publisher, p)
		}
	}
	defer publisher.Close()

	m := metrics.New()
	repos := repository.NewRepositories(db)
	services := service.NewServices(db, repos, service.Dependencies{
		Cache:         cache.New(rdb, cfg.Redis.TTL, zapLogger),
		Metrics:       m,
		Publisher:     publisher,
		Logger:        zapLogger,
		ExportMaxRows: cfg.Report.ExportMaxRows,
	})
	handlers := handler.NewHandlers(services, hub)

	if cfg.Server.Mode == "release" {
		gin.SetMode(gin.ReleaseMode)
	}

	router := gin.New()
	router.Use(gin.Recovery())
	router.Use(middleware.RequestID())
	router.Use(middleware.Logger(zapLogger))
	router.Use(middleware.CORS())
	router.Use(middleware.Metrics(m))
	router.Use(gzip.Gzip(gzip.DefaultCompression, gzip.WithExcludedPaths([]string{"/api/v1/events"})))

	registerRoutes(router, handlers, db, rdb, m, cfg)

	srv := &http.Server{
		Addr:         fmt.Sprintf(":%d", cfg.Server.Port),
		Handler:      router,
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
	}

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	zapLogger.Info("Server starting", zap.Int("port", cfg.Server.Port))
	if err := serve(srv, quit); err != nil {
		zapLogger.Error("Failed to start server", zap.Error(err))
	} else {
		zapLogger.Info("Shutting down server...")
	}

	ctx, cancel := context.WithTimeout(context.Background(), cfg.Server.ShutdownTimeout)
	defer cancel()

	// release open event streams so Shutdown can drain
	hub.Close()
	if err := srv.Shutdown(ctx); err != nil {
		zapLogger.Error("Server forced to shutdown", zap.Error(err))
	}
	if rdb != nil {
		rdb.Close()
	}
	if sqlDB, err := db.DB(); err == nil {
		sqlDB.Close()
	}

	zapLogger.Info("Server exited")
}

// serve runs srv until a signal arrives on quit or the listener fails.
// A listener error is returned so the caller still shuts down cleanly.
func serve(srv *http.Server, quit <-chan os.Signal) error {
	serverErr := make(chan error, 1)
	go func() {
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			serverErr <- err
		}
	}()

	select {
	case <-quit:
		return nil
	case err := <-serverErr:
		return err
	}
}

func initLogger(cfg config.LogConfig) (*zap.Logger, error) {
	var zapCfg zap.Config

	if cfg.Format == "json" {
		zapCfg = zap.NewProductionConfig()
	} else {
		zapCfg = zap.NewDevelopmentConfig()
	}

	switch cfg.Level {
	case "debug":
		zapCfg.Level = zap.NewAtomicLevelAt(zap.DebugLevel)
	case "info":
		zapCfg.Level = zap.NewAtomicLevelAt(zap.InfoLevel)
	case "warn":
		zapCfg.Level = zap.NewAtomicLevelAt(zap.WarnLevel)
	case "error":
		zapCfg.Level = zap.NewAtomicLevelAt(zap.ErrorLevel)
	}

	return zapCfg.Build()
}

func initDatabase(cfg config.DatabaseConfig, mode string) (*gorm.DB, error) {
	level := logger.Warn
	if mode == "debug" {
		level = logger.Info
	}

	db, err := gorm.Open(postgres.Open(cfg.DSN()), &gorm.Config{
		Logger:         logger.Default.LogMode(level),
		TranslateError: true,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to connect to database: %w", err)
	}

	sqlDB, err := db.DB()
	if err != nil {
		return nil, fmt.Errorf("failed to get database instance: %w", err)
	}

	sqlDB.SetMaxOpenConns(cfg.MaxOpenConns)
	sqlDB.SetMaxIdleConns(cfg.MaxIdleConns)
	sqlDB.SetConnMaxLifetime(cfg.ConnMaxLifetime)
	sqlDB.SetConnMaxIdleTime(cfg.ConnMaxIdleTime)

	return db, nil
}

func initRedis(cfg config.RedisConfig) *redis.Client {
	return redis.NewClient(&redis.Options{
		Addr:     fmt.Sprintf("%s:%d", cfg.Host, cfg.Port),
		Password: cfg.Password,
		DB:       cfg.DB,
		PoolSize: cfg.PoolSize,
	})
}

func registerRoutes(r *gin.Engine, h *handler.Handlers, db *gorm.DB, rdb *redis.Client, m *metrics.Metrics, cfg *config.Config) {
	r.GET("/health/live", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})
	r.GET("/health/ready", func(c *gin.Context) {
		ctx, cancel := context.WithTimeout(c.Request.Context(), 2*time.Second)
		defer cancel()

		checks := gin.H{"database": "ok"}
		status := http.StatusOK
		if sqlDB, err := db.DB(); err != nil || sqlDB.PingContext(ctx) != nil {
			checks["database"] = "unavailable"
			status = http.StatusServiceUnavailable
		}
		if rdb != nil {
			checks["redis"] = "ok"
			if err := rdb.Ping(ctx).Err(); err != nil {
				checks["redis"] = "unavailable"
			}
		}
		c.JSON(status, gin.H{"status": http.StatusText(status), "checks": checks})
	})

	r.GET("/version", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{
			"version":    Version,
			"build_time": BuildTime,
		})
	})

	r.GET("/metrics", gin.WrapH(m.Handler()))

	api := r.Group("/api/v1", middleware.JWTAuth(cfg.JWT.Secret), middleware.AuditMeta())
	handler.RegisterRoutes(api, h)
}
