package main

import (
	"context"
	"flag"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/novastream/novastream-go/api"
	"github.com/novastream/novastream-go/api/handlers"
	"github.com/novastream/novastream-go/internal/app"
	"github.com/novastream/novastream-go/internal/bootstrap"
	"github.com/novastream/novastream-go/pkg/logger"
)

var configPath = flag.String("config", "", "Path to config.yaml (default: ./configs, ~/.novastream, /etc/novastream)")

func main() {
	flag.Parse()

	config, err := app.LoadConfig(*configPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to load config: %v\n", err)
		os.Exit(1)
	}

	log, err := logger.New(logger.Config{
		Level:      config.Logging.Level,
		Format:     config.Logging.Format,
		OutputPath: config.Logging.OutputPath,
	})
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to initialize logger: %v\n", err)
		os.Exit(1)
	}
	defer log.Sync()

	log.Info("Starting NovaStream server",
		zap.String("version", handlers.Version),
		zap.String("host", config.Server.Host),
		zap.Int("port", config.Server.Port),
		zap.String("engine", config.Engine.YTDLPBinary))

	services, err := bootstrap.Build(config, log)
	if err != nil {
		log.Fatal("Failed to initialize services", zap.Error(err))
	}

	gin.SetMode(gin.ReleaseMode)
	router := api.SetupRouter(services.Coordinator, api.RouterConfig{
		Repository:   services.History(),
		LogsDir:      config.Storage.LogsDir,
		EngineBinary: config.Engine.YTDLPBinary,
		Logger:       log,
	})

	addr := fmt.Sprintf("%s:%d", config.Server.Host, config.Server.Port)
	server := &http.Server{
		Addr:    addr,
		Handler: router,
	}

	go func() {
		log.Info("HTTP server listening", zap.String("addr", addr))
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatal("Failed to start server", zap.Error(err))
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Info("Shutting down server...")

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer shutdownCancel()

	if err := server.Shutdown(shutdownCtx); err != nil {
		log.Error("Server forced to shutdown", zap.Error(err))
	}

	// A running download is never cancelled; let it reach its terminal state.
	if state := services.Coordinator.State(); state.IsActive() {
		log.Info("Waiting for the running download to finish", zap.String("state", string(state)))
	}
	if err := services.Close(); err != nil {
		log.Error("Failed to close services", zap.Error(err))
	}

	log.Info("Server exited")
}
