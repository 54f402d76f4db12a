// Package server holds the process wiring shared by the service binaries: configuration,
// logging, connections, the base router and graceful shutdown.
package server

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/jmoiron/sqlx"
	"github.com/redis/go-redis/v9"
	swaggerFiles "github.com/swaggo/files"
	ginSwagger "github.com/swaggo/gin-swagger"
	"go.uber.org/zap"

	"github.com/noah-isme/edustream-api/internal/handler"
	internalmiddleware "github.com/noah-isme/edustream-api/internal/middleware"
	"github.com/noah-isme/edustream-api/internal/service"
	"github.com/noah-isme/edustream-api/pkg/cache"
	"github.com/noah-isme/edustream-api/pkg/config"
	"github.com/noah-isme/edustream-api/pkg/database"
	"github.com/noah-isme/edustream-api/pkg/events"
	"github.com/noah-isme/edustream-api/pkg/jobs"
	"github.com/noah-isme/edustream-api/pkg/logger"
	corsmiddleware "github.com/noah-isme/edustream-api/pkg/middleware/cors"
	reqidmiddleware "github.com/noah-isme/edustream-api/pkg/middleware/requestid"
)

const shutdownTimeout = 15 * time.Second

// Runtime bundles the long lived resources of one service process.
type Runtime struct {
	Config  *config.Config
	Logger  *zap.Logger
	DB      *sqlx.DB
	Redis   *redis.Client
	Metrics *service.MetricsService

	limiter *internalmiddleware.RateLimiter
	queue   *jobs.Queue
}

// Setup loads configuration for the named service and opens its connections.
func Setup(serviceName string) (*Runtime, error) {
	cfg, err := config.Load(serviceName)
	if err != nil {
		return nil, fmt.Errorf("load config: %w", err)
	}

	logr, err := logger.New(cfg)
	if err != nil {
		return nil, fmt.Errorf("init logger: %w", err)
	}

	if cfg.Database.AutoMigrate {
		if err := database.RunMigrations(cfg.Database.DSN()); err != nil {
			return nil, err
		}
		logr.Info("database migrations applied")
	}

	db, err := database.NewPostgres(context.Background(), cfg.Database)
	if err != nil {
		return nil, fmt.Errorf("connect database: %w", err)
	}

	rdb, err := cache.NewRedis(context.Background(), cfg.Redis)
	if err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("connect redis: %w", err)
	}

	if cfg.Env == config.EnvProduction {
		gin.SetMode(gin.ReleaseMode)
	}

	return &Runtime{
		Config:  cfg,
		Logger:  logr,
		DB:      db,
		Redis:   rdb,
		Metrics: service.NewMetricsService(cfg.ServiceName),
	}, nil
}

// Router returns an engine with the common middleware chain, probes, metrics and docs.
// Rate limiting applies to every route except the exempt paths.
func (rt *Runtime) Router(exempt ...string) *gin.Engine {
	rt.limiter = internalmiddleware.NewRateLimiter(internalmiddleware.RateLimitConfig{
		Window:      rt.Config.RateLimit.Window,
		MaxRequests: rt.Config.RateLimit.MaxRequests,
	}, rt.Metrics, rt.Logger)

	r := gin.New()
	r.Use(gin.Recovery())
	r.Use(reqidmiddleware.Middleware())
	r.Use(logger.GinMiddleware(rt.Logger))
	r.Use(corsmiddleware.New(corsmiddleware.Options{
		AllowedOrigins: rt.Config.CORS.AllowedOrigins,
		ExposedHeaders: []string{reqidmiddleware.Header, "Content-Disposition"},
	}))
	r.Use(internalmiddleware.Metrics(rt.Metrics))
	r.Use(rt.limiter.Middleware(append([]string{"/health", "/ready", "/metrics"}, exempt...)...))

	probes := handler.NewMetricsHandler(rt.Config.ServiceName, rt.Metrics, map[string]handler.Pinger{
		"database": rt.DB.PingContext,
		"redis":    func(ctx context.Context) error { return rt.Redis.Ping(ctx).Err() },
	})
	r.GET("/health", probes.Health)
	r.GET("/ready", probes.Ready)
	r.GET("/metrics", probes.Prometheus)

	if rt.Config.Env != config.EnvProduction {
		r.GET("/docs/*any", ginSwagger.WrapHandler(swaggerFiles.Handler))
	}
	return r
}

// Events starts the background publisher and returns the notifier services emit through.
func (rt *Runtime) Events() *service.EventService {
	publisher := events.NewRedisPublisher(rt.Redis, rt.Config.Events.Channel)
	rt.queue = jobs.NewQueue("events", service.PublishHandler(publisher, rt.Metrics), jobs.QueueConfig{
		Workers:    rt.Config.Events.Workers,
		BufferSize: rt.Config.Events.BufferSize,
		MaxRetries: rt.Config.Events.MaxRetries,
		RetryDelay: rt.Config.Events.RetryDelay,
		OnFailure:  service.PublishFailureHook(rt.Metrics),
		Logger:     rt.Logger,
	})
	rt.queue.Start(context.Background())
	return service.NewEventService(rt.queue, rt.Metrics, rt.Logger)
}

// Serve runs the HTTP server until SIGINT or SIGTERM, then drains requests and background work.
func (rt *Runtime) Serve(h http.Handler) error {
	srv := &http.Server{
		Addr:              fmt.Sprintf(":%d", rt.Config.Port),
		Handler:           h,
		ReadHeaderTimeout: 10 * time.Second,
		ReadTimeout:       5 * time.Minute,
		WriteTimeout:      5 * time.Minute,
		IdleTimeout:       60 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		rt.Logger.Info("server starting", zap.String("addr", srv.Addr), zap.String("env", rt.Config.Env))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	stop := make(chan os.Signal, 1)
	signal.Notify(stop, syscall.SIGINT, syscall.SIGTERM)
	defer signal.Stop(stop)

	select {
	case err, ok := <-errCh:
		if ok {
			rt.Close()
			return fmt.Errorf("server failed: %w", err)
		}
	case sig := <-stop:
		rt.Logger.Info("shutting down", zap.String("signal", sig.String()))
	}

	ctx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	err := srv.Shutdown(ctx)
	rt.Close()
	if err != nil {
		return fmt.Errorf("server shutdown failed: %w", err)
	}
	rt.Logger.Info("server stopped")
	return nil
}

// Close stops background work and releases connections.
func (rt *Runtime) Close() {
	if rt.limiter != nil {
		rt.limiter.Stop()
	}
	if rt.queue != nil {
		rt.queue.Stop()
	}
	if rt.Redis != nil {
		_ = rt.Redis.Close()
	}
	if rt.DB != nil {
		_ = rt.DB.Close()
	}
	_ = rt.Logger.Sync()
}
