package main

import (
	"flag"
	"os"
	"os/signal"
	"syscall"

	"github.com/clearpath-sec/cloudscan/api/handlers/http"
	"github.com/clearpath-sec/cloudscan/app"
	"github.com/clearpath-sec/cloudscan/config"
	"github.com/clearpath-sec/cloudscan/pkg/logger"
)

var configPath = flag.String("config", "config.yaml", "service configuration file")

func main() {
	flag.Parse()
	if v := os.Getenv("CONFIG_PATH"); len(v) > 0 {
		*configPath = v
	}
	cfg := config.MustReadConfig(*configPath)

	// Initialize global logger early
	if err := logger.InitGlobalLogger(cfg.Logger); err != nil {
		logger.Fatal("Failed to initialize logger: %v", err)
	}

	coreLogger, err := logger.NewCoreLogger(cfg.Logger)
	if err != nil {
		logger.Fatal("Failed to create core logger: %v", err)
	}

	coreLogger.Info("Starting cloud scan orchestration service")
	coreLogger.InfoWithFields("Configuration loaded", map[string]interface{}{
		"config_path": *configPath,
		"log_level":   cfg.Logger.Level,
		"log_output":  cfg.Logger.Output,
	})

	appContainer := app.NewMustApp(cfg)

	// Set up signal handling for graceful shutdown
	signalChan := make(chan os.Signal, 1)
	signal.Notify(signalChan, syscall.SIGINT, syscall.SIGTERM)

	coreLogger.Info("Starting queue dispatcher...")
	appContainer.StartQueue()

	coreLogger.Info("Starting schedule registry...")
	if err := appContainer.StartScheduler(); err != nil {
		coreLogger.Error("Failed to start schedule registry: %v", err)
	}

	// Handle shutdown signals in a separate goroutine
	go func() {
		sig := <-signalChan
		coreLogger.InfoWithFields("Received shutdown signal", map[string]interface{}{
			"signal": sig.String(),
		})

		coreLogger.Info("Stopping schedule registry...")
		appContainer.StopScheduler()

		coreLogger.Info("Stopping queue dispatcher...")
		appContainer.StopQueue()

		coreLogger.Info("Graceful shutdown completed")
		// Allow a clean exit if the HTTP server is still running
		os.Exit(0)
	}()

	// Start the HTTP server (this will block until the server exits)
	coreLogger.Info("Starting HTTP server")
	if err := http.Run(appContainer, cfg.Server); err != nil {
		coreLogger.Fatal("HTTP server failed: %v", err)
	}
}
