package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	zlog "github.com/rs/zerolog/log"
	"golang.org/x/time/rate"

	"github.com/plms/lab-api/internal/config"
	"github.com/plms/lab-api/internal/handler"
	analyticsHandler "github.com/plms/lab-api/internal/handler/analytics"
	authHandler "github.com/plms/lab-api/internal/handler/auth"
	doctorHandler "github.com/plms/lab-api/internal/handler/doctor"
	orderHandler "github.com/plms/lab-api/internal/handler/order"
	patientHandler "github.com/plms/lab-api/internal/handler/patient"
	sampleHandler "github.com/plms/lab-api/internal/handler/sample"
	testHandler "github.com/plms/lab-api/internal/handler/test"
	userHandler "github.com/plms/lab-api/internal/handler/user"
	"github.com/plms/lab-api/internal/middleware"
	"github.com/plms/lab-api/internal/repository/postgres"
	"github.com/plms/lab-api/internal/router"
	analyticsService "github.com/plms/lab-api/internal/service/analytics"
	authService "github.com/plms/lab-api/internal/service/auth"
	catalogService "github.com/plms/lab-api/internal/service/catalog"
	doctorService "github.com/plms/lab-api/internal/service/doctor"
	orderService "github.com/plms/lab-api/internal/service/order"
	patientService "github.com/plms/lab-api/internal/service/patient"
	sampleService "github.com/plms/lab-api/internal/service/sample"
	userService "github.com/plms/lab-api/internal/service/user"
	"github.com/plms/lab-api/pkg/auth"
	"github.com/plms/lab-api/pkg/logger"
	"github.com/plms/lab-api/pkg/metrics"
	"github.com/plms/lab-api/pkg/security"
)

func main() {
	cfg, err := config.LoadConfig()
	if err != nil {
		zlog.Fatal().Err(err).Msg("failed to load configuration")
	}

	appLogger := logger.New(&logger.Config{
		Level:      logger.ParseLevel(cfg.Log.Level),
		TimeFormat: time.RFC3339,
		Output:     os.Stdout,
		Pretty:     cfg.Log.Pretty,
	})
	zlog.Logger = appLogger

	db, err := postgres.NewDB(cfg.Database)
	if err != nil {
		zlog.Fatal().Err(err).Msg("failed to connect to database")
	}
	defer db.Close()

	// Repositories
	userRepo := postgres.NewUserRepository(db)
	patientRepo := postgres.NewPatientRepository(db)
	doctorRepo := postgres.NewDoctorRepository(db)
	testRepo := postgres.NewTestRepository(db)
	orderRepo := postgres.NewOrderRepository(db)
	sampleRepo := postgres.NewSampleRepository(db)
	analyticsRepo := postgres.NewAnalyticsRepository(db)

	// Shared infrastructure
	hasher := security.NewBcryptHasher(0)
	jwtSvc := auth.NewJWTService(cfg.JWT.Secret, time.Duration(cfg.JWT.ExpiryHours)*time.Hour)

	// Services
	authSvc := authService.NewService(userRepo, jwtSvc, hasher)
	userSvc := userService.NewService(userRepo, hasher)
	patientSvc := patientService.NewService(patientRepo, doctorRepo, orderRepo)
	doctorSvc := doctorService.NewService(doctorRepo)
	catalogSvc := catalogService.NewService(testRepo)
	orderSvc := orderService.NewService(orderRepo, patientRepo, testRepo, doctorRepo)
	sampleSvc := sampleService.NewService(sampleRepo)
	analyticsSvc := analyticsService.NewService(analyticsRepo, orderRepo)

	authMiddleware := middleware.NewAuthMiddleware(authSvc)
	m := metrics.New("lab_api")

	handlers := router.Handlers{
		Auth:      authHandler.NewHandler(authSvc),
		Patient:   patientHandler.NewHandler(patientSvc),
		Doctor:    doctorHandler.NewHandler(doctorSvc),
		Test:      testHandler.NewHandler(catalogSvc),
		Order:     orderHandler.NewHandler(orderSvc),
		Sample:    sampleHandler.NewHandler(sampleSvc),
		User:      userHandler.NewHandler(userSvc),
		Analytics: analyticsHandler.NewHandler(analyticsSvc),
		Health:    handler.NewHealthHandler(db),
	}

	corsConfig := middleware.DefaultCORSConfig()
	if len(cfg.CORS.AllowedOrigins) > 0 {
		corsConfig.AllowOrigins = cfg.CORS.AllowedOrigins
	}

	engine := router.New(authMiddleware, handlers, router.Config{
		RateLimitEnabled: cfg.RateLimit.Enabled,
		RateLimit:        rate.Limit(cfg.RateLimit.RPS),
		RateBurst:        cfg.RateLimit.Burst,
		CORSConfig:       corsConfig,
		Logger:           appLogger,
		Metrics:          m,
	})

	srv := &http.Server{
		Addr:         fmt.Sprintf(":%d", cfg.Server.Port),
		Handler:      engine,
		ReadTimeout:  time.Duration(cfg.Server.TimeoutSeconds) * time.Second,
		WriteTimeout: time.Duration(cfg.Server.TimeoutSeconds) * time.Second,
	}

	go func() {
		zlog.Info().Int("port", cfg.Server.Port).Msg("starting server")
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			zlog.Fatal().Err(err).Msg("failed to start server")
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	zlog.Info().Msg("shutting down server...")

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := srv.Shutdown(ctx); err != nil {
		zlog.Fatal().Err(err).Msg("server forced to shutdown")
	}

	zlog.Info().Msg("server exited properly")
}
