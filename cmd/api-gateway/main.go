package main

import (
	"context"
	"errors"
	"fmt"
	"log"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/go-playground/validator/v10"
	"github.com/robfig/cron/v3"
	swaggerFiles "github.com/swaggo/files"
	ginSwagger "github.com/swaggo/gin-swagger"
	"go.uber.org/zap"

	_ "github.com/tutorcal/tutorcal-api/api/swagger"
	"github.com/tutorcal/tutorcal-api/internal/handler"
	"github.com/tutorcal/tutorcal-api/internal/middleware"
	"github.com/tutorcal/tutorcal-api/internal/models"
	"github.com/tutorcal/tutorcal-api/internal/repository"
	"github.com/tutorcal/tutorcal-api/internal/service"
	"github.com/tutorcal/tutorcal-api/pkg/cache"
	"github.com/tutorcal/tutorcal-api/pkg/config"
	"github.com/tutorcal/tutorcal-api/pkg/database"
	"github.com/tutorcal/tutorcal-api/pkg/logger"
	corsmiddleware "github.com/tutorcal/tutorcal-api/pkg/middleware/cors"
	reqidmiddleware "github.com/tutorcal/tutorcal-api/pkg/middleware/requestid"
)

// @title Tutorcal API
// @version 1.0.0
// @description Schedule occurrence resolver for recurring tutoring classes
// @BasePath /api/v1
// @schemes http

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("failed to load config: %v", err)
	}

	logr, err := logger.New(cfg)
	if err != nil {
		log.Fatalf("failed to init logger: %v", err)
	}
	defer logr.Sync() //nolint:errcheck

	if cfg.Env == config.EnvProduction {
		gin.SetMode(gin.ReleaseMode)
	}

	db, err := database.NewPostgres(cfg.Database)
	if err != nil {
		logr.Fatal("failed to connect to postgres", zap.Error(err))
	}
	defer db.Close()

	redisClient, err := cache.NewRedis(cfg.Redis)
	if err != nil {
		logr.Warn("redis unavailable, caching disabled", zap.Error(err))
		redisClient = nil
	}

	validate := validator.New()
	metricsSvc := service.NewMetricsService()
	invalidation := service.NewInvalidationRegistry()

	var cacheSvc *service.CacheService
	if redisClient != nil {
		cacheRepo := repository.NewCacheRepository(redisClient, logr)
		cacheSvc = service.NewCacheService(cacheRepo, metricsSvc, cfg.Calendar.CacheTTL, logr, cfg.Calendar.CacheEnabled)
		defer cacheRepo.Close() //nolint:errcheck
	} else {
		cacheSvc = service.NewCacheService(nil, metricsSvc, cfg.Calendar.CacheTTL, logr, false)
	}

	classRepo := repository.NewClassRepository(db)
	exceptionRepo := repository.NewExceptionRepository(db)
	materialRepo := repository.NewMaterialRepository(db)
	paymentRepo := repository.NewPaymentRepository(db)

	var linkProvider service.PaymentLinkProvider
	if cfg.Payments.Enabled && cfg.Payments.MidtransServerKey != "" {
		linkProvider = service.NewSnapLinkProvider(cfg.Payments.MidtransServerKey, cfg.Payments.MidtransProduction)
	}

	calendarSvc := service.NewCalendarService(classRepo, exceptionRepo, materialRepo, paymentRepo, cacheSvc, invalidation, metricsSvc, nil, cfg.Calendar.DefaultViewerTZ, logr)
	classSvc := service.NewClassService(classRepo, invalidation, validate, logr)
	exceptionSvc := service.NewExceptionService(exceptionRepo, classRepo, invalidation, validate, logr)
	paymentSvc := service.NewPaymentService(paymentRepo, classRepo, linkProvider, invalidation, validate, logr)

	calendarHandler := handler.NewCalendarHandler(calendarSvc)
	classHandler := handler.NewClassHandler(classSvc)
	exceptionHandler := handler.NewExceptionHandler(exceptionSvc)
	paymentHandler := handler.NewPaymentHandler(paymentSvc)

	r := gin.New()
	r.Use(gin.Recovery())
	r.Use(reqidmiddleware.Middleware())
	r.Use(logger.GinMiddleware(logr))
	r.Use(corsmiddleware.New(cfg.CORS.AllowedOrigins))
	r.Use(middleware.Metrics(metricsSvc))

	r.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})
	r.GET("/ready", func(c *gin.Context) {
		if err := db.PingContext(c.Request.Context()); err != nil {
			c.JSON(http.StatusServiceUnavailable, gin.H{"status": "degraded"})
			return
		}
		c.JSON(http.StatusOK, gin.H{"status": "ready"})
	})
	r.GET("/metrics", gin.WrapH(metricsSvc.Handler()))

	if cfg.Env != config.EnvProduction {
		r.GET("/docs/*any", ginSwagger.WrapHandler(swaggerFiles.Handler))
	}

	api := r.Group(cfg.APIPrefix)
	api.Use(middleware.JWT(cfg.JWT.Secret))
	{
		api.GET("/calendar/:year/:month", calendarHandler.Month)
		api.GET("/calendar/:year/:month/export", calendarHandler.Export)

		api.GET("/classes", classHandler.List)
		api.GET("/classes/:id", classHandler.Get)
		api.GET("/classes/:id/exceptions", exceptionHandler.List)
		api.GET("/classes/:id/payment-config", paymentHandler.GetConfig)
		api.GET("/classes/:id/payment-dues", paymentHandler.DueDates)

		staff := api.Group("")
		staff.Use(middleware.RequireRoles(models.RoleAdmin, models.RoleTutor))
		{
			staff.POST("/classes", classHandler.Create)
			staff.PUT("/classes/:id", classHandler.Update)
			staff.DELETE("/classes/:id", classHandler.Delete)

			staff.POST("/classes/:id/exceptions", exceptionHandler.Create)
			staff.PUT("/classes/:id/exceptions/:exceptionId", exceptionHandler.Update)
			staff.DELETE("/classes/:id/exceptions/:exceptionId", exceptionHandler.Delete)

			staff.PUT("/classes/:id/payment-config", paymentHandler.SetConfig)
			staff.DELETE("/classes/:id/payment-config", paymentHandler.DeleteConfig)
		}

		admin := api.Group("")
		admin.Use(middleware.RequireRoles(models.RoleAdmin))
		{
			admin.POST("/cache/invalidate", calendarHandler.InvalidateCache)
		}
	}

	var scheduler *cron.Cron
	if cfg.Calendar.WarmupEnabled {
		scheduler = cron.New()
		_, err := scheduler.AddFunc(cfg.Calendar.WarmupCron, func() {
			ctx, cancel := context.WithTimeout(context.Background(), 2*time.Minute)
			defer cancel()
			if err := calendarSvc.Warmup(ctx, cfg.Calendar.DefaultViewerTZ); err != nil {
				logr.Warn("calendar warmup failed", zap.Error(err))
			}
		})
		if err != nil {
			logr.Fatal("invalid warmup cron expression", zap.String("cron", cfg.Calendar.WarmupCron), zap.Error(err))
		}
		scheduler.Start()
		defer scheduler.Stop()
	}

	srv := &http.Server{
		Addr:    fmt.Sprintf(":%d", cfg.Port),
		Handler: r,
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	go func() {
		logr.Sugar().Infow("server starting", "addr", srv.Addr, "env", cfg.Env)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logr.Sugar().Fatalw("server failed", "error", err)
		}
	}()

	<-ctx.Done()
	logr.Info("shutting down")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		logr.Warn("graceful shutdown failed", zap.Error(err))
	}
}
