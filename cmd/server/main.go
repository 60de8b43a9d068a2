package main

import (
	"context"
	"crypto/tls"
	"log/slog"
	"os"
	"os/signal"
	"strconv"
	"syscall"
	"time"

	"github.com/mcoot/rpsgame/internal/api"
	"github.com/mcoot/rpsgame/internal/factory"
	"github.com/mcoot/rpsgame/internal/protocol"
	"github.com/mcoot/rpsgame/internal/server"
	redisstorage "github.com/mcoot/rpsgame/internal/storage/redis"
)

func main() {
	// Set up logging with JSON output
	logger := slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{
		Level: logLevel(os.Getenv("LOG_LEVEL")),
	}))
	slog.SetDefault(logger)

	// Build factory config from environment
	cfg := factory.Config{
		Logger:      logger,
		StorageType: os.Getenv("STORAGE_TYPE"),
		DataDir:     getEnvOrDefault("RPS_DATA_DIR", "."),
	}

	// Configure Redis if storage type is redis
	if cfg.StorageType == factory.StorageTypeRedis {
		redisURL := os.Getenv("REDIS_URL")
		if redisURL == "" {
			logger.Error("REDIS_URL required when STORAGE_TYPE=redis")
			os.Exit(1)
		}
		redisCfg := redisstorage.DefaultConfig()
		redisCfg.URL = redisURL
		cfg.RedisConfig = &redisCfg
	}

	// Create application factory
	app, err := factory.New(cfg)
	if err != nil {
		logger.Error("failed to create application", slog.String("error", err.Error()))
		os.Exit(1)
	}

	serverConfig := server.DefaultConfig()
	serverConfig.Host = getEnvOrDefault("RPS_HOST", serverConfig.Host)
	serverConfig.Port = getEnvInt(logger, "RPS_PORT", serverConfig.Port)
	serverConfig.MaxSessions = getEnvInt(logger, "RPS_MAX_SESSIONS", 0)
	serverConfig.ReplyTimeout = getEnvDuration(logger, "RPS_REPLY_TIMEOUT", 0)

	serverConfig.TLS, err = loadTLS(logger, serverConfig.Host)
	if err != nil {
		logger.Error("failed to configure TLS", slog.String("error", err.Error()))
		os.Exit(1)
	}

	gameServer := server.New(serverConfig, app.SessionDependencies(), logger)
	if err := gameServer.Listen(); err != nil {
		logger.Error("failed to listen", slog.String("error", err.Error()))
		os.Exit(1)
	}

	// Read-only status API; an empty RPS_STATUS_ADDR disables it
	var statusServer *api.Server
	if statusAddr := getEnvOrDefault("RPS_STATUS_ADDR", api.DefaultServerConfig().Addr); statusAddr != "" {
		apiRouter := api.NewRouter(api.RouterConfig{
			Logger:      logger,
			Directory:   app.Directory,
			Rankings:    app.Rankings,
			Tournaments: app.Tournaments,
			Events:      app.Events,
		})
		apiConfig := api.DefaultServerConfig()
		apiConfig.Addr = statusAddr
		statusServer = api.NewServer(apiRouter, apiConfig, logger)
		statusServer.OnShutdown(app.Events.Close)
	}

	// Handle graceful shutdown
	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	errCh := make(chan error, 2)
	go func() {
		errCh <- gameServer.Serve()
	}()
	if statusServer != nil {
		go func() {
			errCh <- statusServer.Start()
		}()
	}

	logger.Info("server started", slog.String("addr", gameServer.Addr()))

	// Wait for shutdown or error
	exitCode := 0
	select {
	case err := <-errCh:
		if err != nil {
			logger.Error("server error", slog.String("error", err.Error()))
			exitCode = 1
		}
	case <-ctx.Done():
		logger.Info("shutdown signal received")
	}

	if err := gameServer.Shutdown(context.Background()); err != nil {
		logger.Error("shutdown error", slog.String("error", err.Error()))
		exitCode = 1
	}
	if statusServer != nil {
		if err := statusServer.Shutdown(context.Background()); err != nil {
			logger.Error("status API shutdown error", slog.String("error", err.Error()))
			exitCode = 1
		}
	}
	if err := app.Close(); err != nil {
		logger.Error("failed to close storage", slog.String("error", err.Error()))
		exitCode = 1
	}

	logger.Info("server stopped")
	if exitCode != 0 {
		os.Exit(exitCode)
	}
}

// loadTLS uses RPS_TLS_CERT / RPS_TLS_KEY when set, otherwise an
// ephemeral self-signed certificate
func loadTLS(logger *slog.Logger, host string) (*tls.Config, error) {
	certFile := os.Getenv("RPS_TLS_CERT")
	keyFile := os.Getenv("RPS_TLS_KEY")
	if certFile != "" && keyFile != "" {
		return protocol.ServerTLSConfig(certFile, keyFile)
	}

	logger.Warn("RPS_TLS_CERT/RPS_TLS_KEY not set, using an ephemeral self-signed certificate")
	tlsCfg, _, err := protocol.SelfSignedTLSConfig(host, "localhost")
	return tlsCfg, err
}

func logLevel(value string) slog.Level {
	var level slog.Level
	if err := level.UnmarshalText([]byte(value)); err != nil {
		return slog.LevelInfo
	}
	return level
}

func getEnvOrDefault(key, defaultVal string) string {
	if val, ok := os.LookupEnv(key); ok {
		return val
	}
	return defaultVal
}

func getEnvInt(logger *slog.Logger, key string, defaultVal int) int {
	val := os.Getenv(key)
	if val == "" {
		return defaultVal
	}
	n, err := strconv.Atoi(val)
	if err != nil {
		logger.Warn("ignoring invalid integer", slog.String("key", key), slog.String("value", val))
		return defaultVal
	}
	return n
}

func getEnvDuration(logger *slog.Logger, key string, defaultVal time.Duration) time.Duration {
	val := os.Getenv(key)
	if val == "" {
		return defaultVal
	}
	d, err := time.ParseDuration(val)
	if err != nil {
		logger.Warn("ignoring invalid duration", slog.String("key", key), slog.String("value", val))
		return defaultVal
	}
	return d
}
