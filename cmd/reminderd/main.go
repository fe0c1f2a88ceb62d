// reminderd runs the appointment reminder worker on its own, for
// deployments that keep background email work off the API instances.
package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/rs/zerolog"
	zlog "github.com/rs/zerolog/log"

	"github.com/smilebright/booking-api/internal/config"
	"github.com/smilebright/booking-api/internal/email"
	"github.com/smilebright/booking-api/internal/repository/postgres"
	"github.com/smilebright/booking-api/internal/worker"
	"github.com/smilebright/booking-api/pkg/logger"
	"github.com/smilebright/booking-api/pkg/metrics"
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

	db, err := postgres.NewDB(cfg.Database)
	if err != nil {
		zlog.Fatal().Err(err).Msg("failed to connect to database")
	}
	defer db.Close()

	base := postgres.NewBaseRepository(db)
	appointmentRepo := postgres.NewAppointmentRepository(base)

	m := metrics.NewMetrics(cfg.App.MetricsNamespace)
	emailSvc := email.NewSMTPService(cfg.SMTP, cfg.App.FrontendURL, log, m)

	reminders := worker.NewReminderWorker(
		appointmentRepo,
		emailSvc,
		time.Duration(cfg.App.ReminderIntervalMins)*time.Minute,
		log,
		m,
	)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	go reminders.Start(ctx)

	mux := http.NewServeMux()
	mux.Handle("/metrics", promhttp.Handler())
	srv := &http.Server{
		Addr:    fmt.Sprintf(":%d", cfg.Server.Port),
		Handler: mux,
	}
	go func() {
		log.Info("metrics listening", "port", cfg.Server.Port)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			zlog.Fatal().Err(err).Msg("failed to start metrics server")
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	log.Info("shutting down reminder worker")

	cancel()

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer shutdownCancel()
	srv.Shutdown(shutdownCtx)
}
