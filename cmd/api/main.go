package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/rs/zerolog"
	zlog "github.com/rs/zerolog/log"

	"github.com/smilebright/booking-api/internal/config"
	appointmentHandler "github.com/smilebright/booking-api/internal/handler/appointment"
	authHandler "github.com/smilebright/booking-api/internal/handler/auth"
	healthHandler "github.com/smilebright/booking-api/internal/handler/health"
	notificationHandler "github.com/smilebright/booking-api/internal/handler/notification"
	profileHandler "github.com/smilebright/booking-api/internal/handler/profile"
	realtimeHandler "github.com/smilebright/booking-api/internal/handler/realtime"
	staffHandler "github.com/smilebright/booking-api/internal/handler/staff"
	"github.com/smilebright/booking-api/internal/email"
	"github.com/smilebright/booking-api/internal/middleware"
	"github.com/smilebright/booking-api/internal/realtime"
	"github.com/smilebright/booking-api/internal/repository/postgres"
	"github.com/smilebright/booking-api/internal/router"
	appointmentService "github.com/smilebright/booking-api/internal/service/appointment"
	authService "github.com/smilebright/booking-api/internal/service/auth"
	notificationService "github.com/smilebright/booking-api/internal/service/notification"
	userService "github.com/smilebright/booking-api/internal/service/user"
	"github.com/smilebright/booking-api/internal/worker"
	"github.com/smilebright/booking-api/pkg/auth"
	"github.com/smilebright/booking-api/pkg/logger"
	"github.com/smilebright/booking-api/pkg/messaging"
	"github.com/smilebright/booking-api/pkg/messaging/memory"
	redisbroker "github.com/smilebright/booking-api/pkg/messaging/redis"
	"github.com/smilebright/booking-api/pkg/metrics"
	"github.com/smilebright/booking-api/pkg/security"
	"github.com/smilebright/booking-api/pkg/validator"
)

func main() {
	cfg, err := config.LoadConfig()
	if err != nil {
		zlog.Fatal().Err(err).Msg("failed to load configuration")
	}

	level, err := zerolog.ParseLevel(cfg.App.LogLevel)
	if err != nil {
		level = zerolog.InfoLevel
	}
	log := logger.NewLogger(&logger.Config{
		Level:      level,
		TimeFormat: time.RFC3339,
		Output:     os.Stdout,
	})

	if err := validator.Register(); err != nil {
		zlog.Fatal().Err(err).Msg("failed to register validations")
	}

	db, err := postgres.NewDB(cfg.Database)
	if err != nil {
		zlog.Fatal().Err(err).Msg("failed to connect to database")
	}
	defer db.Close()

	base := postgres.NewBaseRepository(db)
	userRepo := postgres.NewUserRepository(base)
	appointmentRepo := postgres.NewAppointmentRepository(base)
	notificationRepo := postgres.NewNotificationRepository(base)

	var broker messaging.Broker
	if cfg.Redis.Enabled {
		rlog := zerolog.New(os.Stdout).With().Timestamp().Logger()
		broker, err = redisbroker.NewRedisBroker(redisbroker.Config{URL: cfg.Redis.URL}, &rlog)
		if err != nil {
			zlog.Fatal().Err(err).Msg("failed to connect to Redis")
		}
	} else {
		broker = memory.NewBroker()
	}
	defer broker.Close()

	m := metrics.NewMetrics(cfg.App.MetricsNamespace)

	hasher := security.NewBcryptHasher(0)
	tokens := auth.NewJWTService(cfg.JWT.Secret, time.Duration(cfg.JWT.ExpiryHours)*time.Hour)

	emailSvc := email.NewSMTPService(cfg.SMTP, cfg.App.FrontendURL, log, m)

	notificationSvc, err := notificationService.NewService(notificationRepo, broker, log, m)
	if err != nil {
		zlog.Fatal().Err(err).Msg("failed to initialize notification dispatcher")
	}
	authSvc := authService.NewService(userRepo, hasher, tokens, log)
	userSvc := userService.NewService(userRepo, hasher, log)
	appointmentSvc := appointmentService.NewService(appointmentRepo, userRepo, emailSvc, notificationSvc, log)

	authMiddleware := middleware.NewAuthMiddleware(tokens, userRepo)

	hub := realtime.NewHub(broker, log, m)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	if err := hub.Start(ctx); err != nil {
		zlog.Fatal().Err(err).Msg("failed to start realtime hub")
	}

	reminders := worker.NewReminderWorker(
		appointmentRepo,
		emailSvc,
		time.Duration(cfg.App.ReminderIntervalMins)*time.Minute,
		log,
		m,
	)
	go reminders.Start(ctx)

	r := router.NewRouter(
		router.Config{
			RateLimitPerSecond: cfg.App.RateLimitPerSecond,
			RateLimitBurst:     cfg.App.RateLimitBurst,
			CORSConfig:         middleware.DefaultCORSConfig(cfg.App.CORSOrigins),
			MetricsNamespace:   cfg.App.MetricsNamespace + "_http",
		},
		authHandler.NewHandler(authSvc, authMiddleware),
		staffHandler.NewHandler(userSvc, authMiddleware),
		profileHandler.NewHandler(userSvc, authMiddleware),
		appointmentHandler.NewHandler(appointmentSvc, authMiddleware),
		notificationHandler.NewHandler(notificationSvc, authMiddleware),
		realtimeHandler.NewHandler(hub, authMiddleware, log),
		healthHandler.NewHandler(db),
	)
	r.Setup()

	srv := &http.Server{
		Addr:         fmt.Sprintf(":%d", cfg.Server.Port),
		Handler:      r.Engine(),
		ReadTimeout:  time.Duration(cfg.Server.TimeoutSeconds) * time.Second,
		WriteTimeout: time.Duration(cfg.Server.TimeoutSeconds) * time.Second,
	}

	go func() {
		log.Info("server listening", "port", cfg.Server.Port)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			zlog.Fatal().Err(err).Msg("failed to start server")
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	log.Info("shutting down server")

	cancel()

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer shutdownCancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		zlog.Fatal().Err(err).Msg("server forced to shutdown")
	}

	log.Info("server exited properly")
}
