package main

import (
	"context"
	"errors"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/go-playground/validator/v10"
	swaggerFiles "github.com/swaggo/files"
	ginSwagger "github.com/swaggo/gin-swagger"

	_ "github.com/rumahtahfidz/pesantren-api/api/swagger"
	"github.com/rumahtahfidz/pesantren-api/internal/handler"
	"github.com/rumahtahfidz/pesantren-api/internal/middleware"
	"github.com/rumahtahfidz/pesantren-api/internal/repository"
	"github.com/rumahtahfidz/pesantren-api/internal/service"
	"github.com/rumahtahfidz/pesantren-api/pkg/cache"
	"github.com/rumahtahfidz/pesantren-api/pkg/config"
	"github.com/rumahtahfidz/pesantren-api/pkg/database"
	"github.com/rumahtahfidz/pesantren-api/pkg/jobs"
	"github.com/rumahtahfidz/pesantren-api/pkg/logger"
	corsmiddleware "github.com/rumahtahfidz/pesantren-api/pkg/middleware/cors"
	reqidmiddleware "github.com/rumahtahfidz/pesantren-api/pkg/middleware/requestid"
	"github.com/rumahtahfidz/pesantren-api/pkg/payment"
	"github.com/rumahtahfidz/pesantren-api/pkg/storage"
)

// @title Pesantren Admin API
// @version 1.0.0
// @description REST API for rumah tahfidz administration
// @BasePath /api
// @schemes http

// urlSigner adapts the storage signer to the hafalan service, which
// only cares about the token.
type urlSigner struct {
	signer *storage.SignedURLSigner
}

func (s urlSigner) Generate(recordID, relPath string) (string, error) {
	token, _, err := s.signer.Generate(recordID, relPath)
	return token, err
}

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

	db, err := database.NewPostgres(cfg.Database)
	if err != nil {
		logr.Sugar().Fatalw("failed to connect to postgres", "error", err)
	}
	defer db.Close()

	redisClient, err := cache.NewRedis(cfg.Redis)
	if err != nil {
		logr.Sugar().Fatalw("failed to connect to redis", "error", err)
	}
	defer redisClient.Close()

	audioStore, err := storage.NewLocalStorage(cfg.Audio.StorageDir)
	if err != nil {
		logr.Sugar().Fatalw("failed to init audio storage", "error", err)
	}
	audioSigner := storage.NewSignedURLSigner(cfg.Audio.SignedURLSecret, cfg.Audio.SignedURLTTL)

	validate := validator.New()

	userRepo := repository.NewUserRepository(db)
	santriRepo := repository.NewSantriRepository(db)
	halaqahRepo := repository.NewHalaqahRepository(db)
	hafalanRepo := repository.NewHafalanRepository(db)
	donationRepo := repository.NewDonationRepository(db)
	notificationRepo := repository.NewNotificationRepository(db)
	gatewayRepo := repository.NewGatewayRepository(db)
	behaviorRepo := repository.NewBehaviorRepository(db)
	cacheRepo := repository.NewCacheRepository(redisClient, logr)

	dispatcher := service.NewNotificationDispatcher(jobs.QueueConfig{
		Workers:    cfg.Notifications.DispatchWorkers,
		BufferSize: cfg.Notifications.DispatchBufferSize,
		MaxRetries: cfg.Notifications.DispatchRetries,
		RetryDelay: cfg.Notifications.DispatchRetryDelay,
		Logger:     logr,
	}, logr)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()
	dispatcher.Start(ctx)
	defer dispatcher.Stop()

	metricsSvc := service.NewMetricsService()
	cacheSvc := service.NewCacheService(cacheRepo, metricsSvc, cfg.Notifications.StatsCacheTTL, logr, true)

	authSvc := service.NewAuthService(userRepo, validate, logr, service.AuthConfig{
		AccessTokenSecret:  cfg.JWT.Secret,
		AccessTokenExpiry:  cfg.JWT.Expiration,
		RefreshTokenExpiry: cfg.JWT.RefreshExpiration,
		Issuer:             "pesantren-api",
		Audience:           []string{"pesantren-dashboard"},
	})
	userSvc := service.NewUserService(userRepo, validate, logr)
	santriSvc := service.NewSantriService(santriRepo, halaqahRepo, userRepo, validate, logr)
	halaqahSvc := service.NewHalaqahService(halaqahRepo, userRepo, validate, logr)
	notificationSvc := service.NewNotificationService(notificationRepo, userRepo, cacheSvc, dispatcher, cfg.Notifications.StatsCacheTTL, validate, logr)
	hafalanSvc := service.NewHafalanService(hafalanRepo, santriRepo, halaqahRepo, userRepo, audioStore, urlSigner{audioSigner}, notificationSvc, cfg.Audio.MaxFileSize, validate, logr)
	snapGateway := payment.NewSnapGateway(cfg.Midtrans)
	donationSvc := service.NewDonationService(donationRepo, snapGateway, validate, logr)
	gatewaySvc := service.NewGatewayService(gatewayRepo, validate, logr)
	behaviorSvc := service.NewBehaviorService(behaviorRepo, santriRepo, validate, logr)

	if cfg.Env == config.EnvProduction {
		gin.SetMode(gin.ReleaseMode)
	}

	r := gin.New()
	r.Use(gin.Recovery())
	r.Use(reqidmiddleware.Middleware())
	r.Use(logger.GinMiddleware(logr))
	r.Use(corsmiddleware.New(cfg.CORS.AllowedOrigins))
	r.Use(middleware.Metrics(metricsSvc))

	handler.RegisterRoutes(r, cfg.APIPrefix, authSvc, userRepo, handler.Handlers{
		Auth:          handler.NewAuthHandler(authSvc),
		Users:         handler.NewUserHandler(userSvc),
		Santri:        handler.NewSantriHandler(santriSvc),
		Halaqah:       handler.NewHalaqahHandler(halaqahSvc),
		Hafalan:       handler.NewHafalanHandler(hafalanSvc),
		Audio:         handler.NewAudioHandler(audioSigner, audioStore),
		Notifications: handler.NewNotificationHandler(notificationSvc),
		Donations:     handler.NewDonationHandler(donationSvc),
		Gateways:      handler.NewGatewayHandler(gatewaySvc),
		Behavior:      handler.NewBehaviorHandler(behaviorSvc),
		Metrics: handler.NewMetricsHandler(metricsSvc,
			handler.ReadyCheck{Name: "postgres", Probe: db.PingContext},
			handler.ReadyCheck{Name: "redis", Probe: func(ctx context.Context) error {
				return redisClient.Ping(ctx).Err()
			}},
		),
	})

	if cfg.Env != config.EnvProduction {
		r.GET("/docs/*any", ginSwagger.WrapHandler(swaggerFiles.Handler))
	}

	srv := &http.Server{
		Addr:              fmt.Sprintf(":%d", cfg.Port),
		Handler:           r,
		ReadHeaderTimeout: 10 * time.Second,
	}

	go func() {
		logr.Sugar().Infow("server starting", "addr", srv.Addr, "env", cfg.Env)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logr.Sugar().Fatalw("server failed", "error", err)
		}
	}()

	<-ctx.Done()
	logr.Info("shutdown signal received")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		logr.Sugar().Errorw("graceful shutdown failed", "error", err)
	}
}
