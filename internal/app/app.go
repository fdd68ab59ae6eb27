package app

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/sirupsen/logrus"

	"voicemail-relay-go/internal/auth"
	"voicemail-relay-go/internal/config"
	"voicemail-relay-go/internal/db"
	"voicemail-relay-go/internal/handlers"
	"voicemail-relay-go/internal/metrics"
	"voicemail-relay-go/internal/notifier"
	"voicemail-relay-go/internal/repository"
	"voicemail-relay-go/internal/ringcentral"
	"voicemail-relay-go/internal/scheduler"
	"voicemail-relay-go/internal/server"
	"voicemail-relay-go/internal/transcription"
)

const shutdownTimeout = 30 * time.Second

// Run initializes and starts the application
func Run() error {
	cfg, err := config.LoadConfig()
	if err != nil {
		return fmt.Errorf("failed to load configuration: %w", err)
	}
	if err := ConfigureLogging(cfg.Log); err != nil {
		return err
	}
	if err := cfg.Validate(); err != nil {
		return fmt.Errorf("configuration validation failed: %w", err)
	}

	logrus.WithField("extension_id", cfg.RingCentral.ExtensionID).Info("Starting Voicemail Relay Service")

	tokens := auth.NewProvider(auth.Config{
		Server:       cfg.RingCentral.Server,
		ClientID:     cfg.RingCentral.ClientID,
		ClientSecret: cfg.RingCentral.ClientSecret,
		Assertion:    cfg.RingCentral.JWT,
		Timeout:      cfg.RingCentral.Timeout(),
	})

	client := ringcentral.NewClient(ringcentral.Config{
		Server:      cfg.RingCentral.Server,
		AccountID:   cfg.RingCentral.AccountID,
		ExtensionID: cfg.RingCentral.ExtensionID,
		Timeout:     cfg.RingCentral.Timeout(),
	}, tokens)

	resolver := transcription.NewResolver(client, cfg.Transcription.Retries, cfg.Transcription.Delay())
	discord := notifier.NewDiscord(cfg.Discord.WebhookURL, cfg.RingCentral.ExtensionID, cfg.RingCentral.Timeout())
	m := metrics.NewMetrics(prometheus.DefaultRegisterer)

	var (
		repo     *repository.Repository
		recorder scheduler.DeliveryRecorder
	)
	if cfg.Database.Enabled {
		dbConn, err := db.Init(cfg.Database)
		if err != nil {
			return fmt.Errorf("failed to initialize database: %w", err)
		}
		repo = repository.New(dbConn)
		recorder = repo
		logrus.Info("Delivery log enabled")
	}

	sched := scheduler.New(scheduler.Options{
		PollInterval:    cfg.Scheduler.PollInterval(),
		PerPage:         cfg.Scheduler.PerPage,
		MaxPages:        cfg.Scheduler.MaxPages,
		Lookback:        cfg.Scheduler.Lookback(),
		ShutdownTimeout: shutdownTimeout,
	}, client, resolver, discord, recorder, m)

	var srv *http.Server
	if cfg.Server.Enabled {
		var store handlers.DeliveryStore
		if repo != nil {
			store = repo
		}
		h := handlers.NewHandlers(sched, store, prometheus.DefaultGatherer)
		srv = &http.Server{
			Addr:         ":" + cfg.Server.Port,
			Handler:      server.SetupRouter(h),
			ReadTimeout:  cfg.Server.ReadTimeout,
			WriteTimeout: cfg.Server.WriteTimeout,
		}
		go func() {
			logrus.Infof("Starting HTTP server on port %s", cfg.Server.Port)
			if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
				logrus.Errorf("HTTP server error, polling continues without the admin API: %v", err)
			}
		}()
	}

	if err := sched.Start(); err != nil {
		return fmt.Errorf("failed to start scheduler: %w", err)
	}

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	logrus.Info("Shutting down...")
	ctx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()

	if err := sched.Stop(); err != nil {
		logrus.Errorf("Failed to stop scheduler: %v", err)
	}
	sched.Wait()

	if srv != nil {
		if err := srv.Shutdown(ctx); err != nil {
			logrus.Errorf("HTTP server shutdown error: %v", err)
		}
	}

	logrus.Info("Voicemail relay stopped gracefully")
	return nil
}

// ConfigureLogging sets the global logrus output, level and format
func ConfigureLogging(cfg config.LogConfig) error {
	logrus.SetOutput(os.Stdout)

	level, err := logrus.ParseLevel(cfg.Level)
	if err != nil {
		return fmt.Errorf("invalid log level %q: %w", cfg.Level, err)
	}
	logrus.SetLevel(level)

	switch cfg.Format {
	case "json":
		logrus.SetFormatter(&logrus.JSONFormatter{})
	case "text", "":
		logrus.SetFormatter(&logrus.TextFormatter{FullTimestamp: true})
	default:
		return fmt.Errorf("invalid log format %q", cfg.Format)
	}
	return nil
}
