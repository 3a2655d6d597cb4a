package cmd

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"potability/config"
	qhttp "potability/http"
	"potability/logging"
	"potability/monitoring"
)

func newServeCmd() *cobra.Command {
	serveCmd := &cobra.Command{
		Use:   "serve",
		Short: "Serve the web form and JSON API",
		RunE:  runServe,
	}
	serveCmd.Flags().Int("port", 0, "Listen port (overrides http.port)")
	return serveCmd
}

func runServe(cmd *cobra.Command, args []string) error {
	// 1. Load config
	cfg, path, err := loadConfig(cmd)
	if err != nil {
		return err
	}
	if port, _ := cmd.Flags().GetInt("port"); port != 0 {
		cfg.Http.Port = port
	}

	logger, level, err := newLogger(cfg)
	if err != nil {
		return err
	}
	defer logger.Sync()

	// 2. Load model
	model, err := loadClassifier(cfg)
	if err != nil {
		logger.Error("failed to load model", zap.Error(err))
		return err
	}
	logger.Info("model loaded", zap.String("model", model.Describe()))

	// 3. Start HTTP server
	metrics := monitoring.NewMetrics()
	sessions := qhttp.NewSessionStore(cfg.Session.Capacity, cfg.Session.TTL, func(id string) {
		metrics.SessionClosed()
		logger.Debug("session discarded", zap.String("session_id", id))
	})
	handlers, err := qhttp.NewHandlers(qhttp.HandlersConfig{
		Classifier:     model,
		Sessions:       sessions,
		Metrics:        metrics,
		Logger:         logger,
		AllowedOrigins: cfg.Http.AllowedOrigins,
	})
	if err != nil {
		return err
	}

	server := qhttp.NewServer(qhttp.ServerConfig{
		Port:           cfg.Http.Port,
		Timeout:        cfg.Http.Timeout,
		AllowedOrigins: cfg.Http.AllowedOrigins,
		MaxBodyBytes:   cfg.Http.MaxBodyBytes,
		RateLimitRPS:   cfg.Http.RateLimit.RPS,
		RateLimitBurst: cfg.Http.RateLimit.Burst,
	}, handlers, logger)

	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	// The model is fixed for the life of the process; only the log level follows the file.
	if err := config.Watch(ctx, path, logger, func(next *config.Config) {
		if err := logging.SetLevel(level, next.Log.Level); err != nil {
			logger.Warn("ignoring log level", zap.String("level", next.Log.Level), zap.Error(err))
			return
		}
		logger.Info("log level updated", zap.String("level", next.Log.Level))
	}); err != nil {
		logger.Warn("config watch disabled", zap.String("path", path), zap.Error(err))
	}

	errCh := make(chan error, 1)
	go func() {
		errCh <- server.Start()
	}()

	// 4. Handle graceful shutdown
	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
	}
	logger.Info("shutting down")
	return server.Stop(context.Background())
}
