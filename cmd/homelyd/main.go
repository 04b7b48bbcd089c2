package main

import (
	"context"
	"flag"
	"fmt"
	"log"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/john-mcs/homely/config"
	"github.com/john-mcs/homely/internal/api"
	"github.com/john-mcs/homely/internal/coordinator"
	"github.com/john-mcs/homely/internal/homely"
	"github.com/john-mcs/homely/internal/logging"
	"github.com/john-mcs/homely/internal/mqtt"
)

const (
	shutdownTimeout   = 10 * time.Second
	defaultConfigPath = "config.json"
)

func main() {
	if err := run(); err != nil {
		log.Fatalf("Application error: %v", err)
	}
}

func run() error {
	// Parse command-line flags
	configPath := flag.String("config", defaultConfigPath, "Path to configuration file")
	useEnv := flag.Bool("env", false, "Load configuration from environment variables")
	logPath := flag.String("log-path", "", "Log file path (stdout if empty)")
	flag.Parse()

	// Load configuration
	var cfg *config.Config
	var err error

	if *useEnv {
		cfg, err = config.LoadFromEnv()
	} else {
		cfg, err = config.Load(*configPath)
	}

	if err != nil {
		return fmt.Errorf("failed to load config: %w", err)
	}

	logConfig := logging.LoggerConfig{
		Format: cfg.Logging.Format,
		Level:  logging.ParseLevel(cfg.Logging.Level),
	}

	var logger *slog.Logger
	if *logPath != "" {
		file, err := os.OpenFile(*logPath, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0644)
		if err != nil {
			return fmt.Errorf("failed to open log file: %w", err)
		}
		defer file.Close()
		logger = logging.NewLoggerTo(file, logConfig)
	} else {
		logger = logging.NewLogger(logConfig)
	}

	// Initialize the Homely client
	logger.Info("Initializing Homely client")
	client := homely.NewClient(homely.Config{
		Username:   cfg.Homely.Username,
		Password:   cfg.Homely.Password,
		LocationID: cfg.Homely.LocationID,
		BaseURL:    cfg.Homely.BaseURL,
	}, logger)

	if err := client.Login(context.Background()); err != nil {
		return fmt.Errorf("failed to authenticate with Homely: %w", err)
	}
	logger.Info("Authenticated with Homely cloud")

	// Start the polling coordinator
	pollInterval := time.Duration(cfg.Homely.PollIntervalSecs) * time.Second
	coord := coordinator.New(client, pollInterval, homely.RealClock{}, logger)

	// Optional MQTT republishing
	if cfg.MQTT.BrokerURL != "" {
		logger.Info("Connecting to MQTT broker", "broker_url", cfg.MQTT.BrokerURL)
		publisher := mqtt.NewPublisher(mqtt.Config{
			BrokerURL: cfg.MQTT.BrokerURL,
			ClientID:  cfg.MQTT.ClientID,
			TopicRoot: cfg.MQTT.TopicRoot,
		}, logger)

		if err := publisher.Connect(); err != nil {
			return fmt.Errorf("failed to connect to MQTT broker: %w", err)
		}
		defer publisher.Disconnect()

		coord.Subscribe(publisher)
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	go coord.Start(ctx)

	// Initialize REST API
	router := api.NewRouter(api.RouterConfig{
		Status: coord,
		Logger: logger,
	})

	server := &http.Server{
		Addr:         fmt.Sprintf("%s:%d", cfg.Server.Host, cfg.Server.Port),
		Handler:      router,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	// Start server in a goroutine
	serverErrors := make(chan error, 1)
	go func() {
		logger.Info("Starting HTTP server", "host", cfg.Server.Host, "port", cfg.Server.Port)
		serverErrors <- server.ListenAndServe()
	}()

	// Wait for interrupt signal or server error
	shutdown := make(chan os.Signal, 1)
	signal.Notify(shutdown, os.Interrupt, syscall.SIGTERM)

	select {
	case err := <-serverErrors:
		return fmt.Errorf("server error: %w", err)

	case sig := <-shutdown:
		logger.Info("Starting graceful shutdown", "signal", sig.String())

		coord.Stop()

		shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer shutdownCancel()

		if err := server.Shutdown(shutdownCtx); err != nil {
			return fmt.Errorf("server shutdown error: %w", err)
		}

		logger.Info("Graceful shutdown complete")
	}

	return nil
}
