// cmd/server/main.go
package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
	"golang.org/x/sync/errgroup"

	"github.com/codr1/campusbook/internal/api/auth"
	"github.com/codr1/campusbook/internal/booking"
	"github.com/codr1/campusbook/internal/catalog"
	"github.com/codr1/campusbook/internal/config"
	"github.com/codr1/campusbook/internal/db"
	"github.com/codr1/campusbook/internal/notify"
	"github.com/codr1/campusbook/internal/ratelimit"
	"github.com/codr1/campusbook/internal/scheduler"
)

const defaultConfigPath = "config/app.yaml"

func getEnv(key, fallback string) string {
	if value, ok := os.LookupEnv(key); ok {
		return value
	}
	return fallback
}

func setupLogger(environment string) {
	zerolog.TimeFieldFormat = zerolog.TimeFormatUnix
	if environment == "development" {
		log.Logger = log.Output(zerolog.ConsoleWriter{Out: os.Stderr})
	}
}

// notifiers builds the delivery channels the configuration enables. The
// returned publisher, when non-nil, must be closed on shutdown.
func notifiers(ctx context.Context, cfg *config.Config, database *db.DB) ([]notify.Notifier, *notify.Publisher, error) {
	var (
		out       []notify.Notifier
		publisher *notify.Publisher
	)
	if cfg.Notifications.InboxEnabled {
		out = append(out, notify.NewInbox(database.Queries))
	}
	if cfg.Notifications.Email.Enabled {
		ses, err := notify.NewSESClient(ctx,
			os.Getenv("AWS_ACCESS_KEY_ID"),
			os.Getenv("AWS_SECRET_ACCESS_KEY"),
			cfg.Notifications.Email.Region,
			cfg.Notifications.Email.Sender,
		)
		if err != nil {
			return nil, nil, fmt.Errorf("email notifier: %w", err)
		}
		out = append(out, notify.NewEmailNotifier(database.Queries, ses))
	}
	if cfg.Notifications.AMQP.URL != "" {
		var err error
		publisher, err = notify.NewPublisher(cfg.Notifications.AMQP.URL, cfg.Notifications.AMQP.Exchange)
		if err != nil {
			return nil, nil, fmt.Errorf("amqp publisher: %w", err)
		}
		out = append(out, publisher)
	}
	return out, publisher, nil
}

func main() {
	cfg, err := config.Load(getEnv("CONFIG_PATH", defaultConfigPath))
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to load configuration")
	}

	setupLogger(cfg.App.Environment)

	loc, err := cfg.Location()
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to resolve timezone")
	}

	database, err := db.NewFromConfig(cfg)
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to open database")
	}
	defer database.Close()

	// Setup graceful shutdown
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	channels, publisher, err := notifiers(ctx, cfg, database)
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to configure notifications")
	}
	dispatcher := notify.NewDispatcher(0, channels...)

	bookingService := booking.NewService(database, catalog.NewStore(database.Queries), dispatcher, booking.Options{
		ApprovalPolicy: booking.ApprovalPolicy(cfg.Bookings.ApprovalPolicy),
		MaxExtensions:  cfg.Bookings.MaxExtensions,
		ReminderLead:   cfg.Scheduler.ReminderLead,
		Location:       loc,
	})

	if err := scheduler.Init(); err != nil {
		log.Fatal().Err(err).Msg("Failed to initialize scheduler")
	}
	sched, err := scheduler.ServiceInstance()
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to load scheduler")
	}
	if err := scheduler.RegisterBookingJobs(sched, bookingService, cfg.Scheduler); err != nil {
		log.Fatal().Err(err).Msg("Failed to register booking jobs")
	}

	tokens, err := auth.NewTokens(cfg.App.SecretKey, cfg.App.Name)
	if err != nil {
		log.Fatal().Err(err).Msg("APP_SECRET_KEY must be set")
	}

	var limiter *ratelimit.Limiter
	if cfg.RateLimit.MaxPerUser > 0 {
		limiter = ratelimit.New(&ratelimit.Config{
			Window:     cfg.RateLimit.Window,
			MaxPerUser: cfg.RateLimit.MaxPerUser,
			MaxPerIP:   cfg.RateLimit.MaxPerIP,
		})
		defer limiter.Close()
	}

	server := newServer(cfg, serverDeps{
		DB:       database,
		Bookings: bookingService,
		Inbox:    notify.NewInbox(database.Queries),
		Tokens:   tokens,
		Limiter:  limiter,
	})

	if err := scheduler.Start(); err != nil {
		log.Fatal().Err(err).Msg("Failed to start scheduler")
	}

	g, ctx := errgroup.WithContext(ctx)

	// Run server
	g.Go(func() error {
		log.Info().Int("port", cfg.App.Port).Str("timezone", loc.String()).Msg("Starting server")
		if err := server.ListenAndServe(); err != http.ErrServerClosed {
			return fmt.Errorf("server error: %w", err)
		}
		return nil
	})

	// Wait for interrupt signal
	g.Go(func() error {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.App.ShutdownTimeout)
		defer cancel()

		log.Info().Msg("Shutting down server")
		if err := server.Shutdown(shutdownCtx); err != nil {
			return fmt.Errorf("shutdown error: %w", err)
		}
		if err := scheduler.Stop(); err != nil {
			log.Error().Err(err).Msg("Failed to stop scheduler")
		}
		dispatcher.Wait()
		if publisher != nil {
			if err := publisher.Close(); err != nil {
				log.Error().Err(err).Msg("Failed to close AMQP publisher")
			}
		}
		return nil
	})

	if err := g.Wait(); err != nil {
		log.Error().Err(err).Msg("Server terminated with error")
		os.Exit(1)
	}
}
