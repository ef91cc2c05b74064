package main

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"path/filepath"
	"sync"
	"syscall"
	"time"

	"github.com/go-chi/chi/v5"
	sdkmcp "github.com/modelcontextprotocol/go-sdk/mcp"
	"github.com/rpggio/chronos/internal/config"
	"github.com/rpggio/chronos/internal/domain/activity"
	"github.com/rpggio/chronos/internal/domain/configuration"
	"github.com/rpggio/chronos/internal/domain/timeline"
	"github.com/rpggio/chronos/internal/events"
	"github.com/rpggio/chronos/internal/mcp"
	"github.com/rpggio/chronos/internal/postgres"
	"github.com/rpggio/chronos/internal/sqlite"
	"github.com/rpggio/chronos/internal/transport"
	"github.com/spf13/pflag"
)

func main() {
	configPath := pflag.String("config", "", "path to a YAML config file")
	transportMode := pflag.String("transport", "", "transport mode: http or stdio")
	seedPath := pflag.String("seed", "", "YAML seed file applied at startup")
	port := pflag.Int("port", 0, "HTTP listen port")
	sample := pflag.Bool("sample", false, "install the sample workstation configuration")
	pflag.Parse()

	if *configPath != "" {
		_ = os.Setenv("CHRONOS_CONFIG_PATH", *configPath)
	}
	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "config error: %v\n", err)
		os.Exit(1)
	}
	if *transportMode != "" {
		cfg.Transport.Mode = *transportMode
	}
	if *seedPath != "" {
		cfg.Timeline.SeedPath = *seedPath
	}
	if *port != 0 {
		cfg.Server.Port = *port
	}
	if *sample {
		cfg.Timeline.InstallSample = true
	}
	if err := cfg.Validate(); err != nil {
		fmt.Fprintf(os.Stderr, "config error: %v\n", err)
		os.Exit(1)
	}

	// stdout carries JSON-RPC in stdio mode.
	logWriter := io.Writer(os.Stdout)
	if cfg.Transport.Mode == "stdio" {
		logWriter = os.Stderr
	}
	if cfg.Log.Path != "" {
		fileWriter, file, err := newLogFileWriter(cfg.Log.Path)
		if err != nil {
			fmt.Fprintf(os.Stderr, "log file error: %v\n", err)
		} else {
			defer file.Close()
			logWriter = fileWriter
		}
	}
	logger := slog.New(slog.NewTextHandler(logWriter, &slog.HandlerOptions{
		Level: parseLogLevel(cfg.Log.Level),
	}))

	if err := ensureDBDir(cfg.DB.Path); err != nil {
		logger.Error("failed to prepare database path", "error", err)
		os.Exit(1)
	}

	db, err := sqlite.New(cfg.DB.Path)
	if err != nil {
		logger.Error("failed to open database", "error", err)
		os.Exit(1)
	}
	defer db.Close()

	if err := db.RunMigrations(); err != nil {
		logger.Error("failed to run migrations", "error", err)
		os.Exit(1)
	}

	ctx := context.Background()

	records, closeRecords, err := openRecordStore(ctx, cfg, db)
	if err != nil {
		logger.Error("failed to open record store", "driver", cfg.Records.Driver, "error", err)
		os.Exit(1)
	}
	defer closeRecords()

	var publisher activity.Publisher
	if cfg.Events.Addr != "" {
		client, err := events.NewClient(ctx, cfg.Events.Addr, cfg.Events.Password, cfg.Events.DB)
		if err != nil {
			logger.Warn("activity stream disabled", "addr", cfg.Events.Addr, "error", err)
		} else {
			defer client.Close()
			publisher = events.NewStreamPublisher(client, cfg.Events.Stream, cfg.Events.MaxLen)
		}
	}

	configRepo := sqlite.NewConfigurationRepository(db)
	fieldRepo := sqlite.NewFieldRepository(db)
	activityRepo := sqlite.NewActivityRepository(db)
	apiKeys := sqlite.NewAPIKeyRepository(db)

	configSvc := configuration.NewService(configRepo, fieldRepo, records, logger)
	activitySvc := activity.NewService(activityRepo, publisher, logger)
	timelineSvc := timeline.NewService(configSvc, records, fieldRepo, activitySvc, logger,
		timeline.WithWindowDays(cfg.Timeline.WindowDays))

	if cfg.Timeline.SeedPath != "" {
		seed, err := configuration.LoadSeed(cfg.Timeline.SeedPath)
		if err == nil {
			err = configSvc.ApplySeed(ctx, seed)
		}
		if err != nil {
			logger.Error("failed to apply seed", "path", cfg.Timeline.SeedPath, "error", err)
			os.Exit(1)
		}
	}
	if cfg.Timeline.InstallSample {
		if _, _, err := configSvc.InstallSample(ctx); err != nil {
			logger.Error("failed to install sample configuration", "error", err)
			os.Exit(1)
		}
	}

	handler := mcp.NewHandler(timelineSvc, configSvc, activitySvc, logger)
	mcpServer := mcp.NewServer(mcp.Config{
		Handler:       handler,
		Resolver:      apiKeys,
		AuthEnabled:   cfg.Auth.Enabled,
		TransportMode: cfg.Transport.Mode,
		Logger:        logger,
	})

	if cfg.Transport.Mode == "stdio" {
		runStdioMode(logger, mcpServer)
		return
	}

	var auth func(http.Handler) http.Handler
	if cfg.Auth.Enabled {
		auth = transport.AuthMiddleware(apiKeys)
	}
	runHTTPMode(logger, mcpServer, transport.NewServer(handler, auth), cfg.Server.Host, cfg.Server.Port)
}

// openRecordStore returns the configured record backend and its closer.
func openRecordStore(ctx context.Context, cfg config.Config, db *sqlite.DB) (timeline.RecordStore, func(), error) {
	if cfg.Records.Driver != config.DriverPostgres {
		return sqlite.NewRecordStore(db), func() {}, nil
	}
	pg, err := postgres.Open(cfg.Records.DSN, cfg.Records.MaxConns)
	if err != nil {
		return nil, nil, err
	}
	if err := postgres.Migrate(ctx, pg); err != nil {
		_ = pg.Close()
		return nil, nil, err
	}
	return postgres.NewRecordStore(pg), func() { _ = pg.Close() }, nil
}

func runStdioMode(logger *slog.Logger, mcpServer *sdkmcp.Server) {
	logger.Info("starting stdio transport")

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	stop := make(chan os.Signal, 1)
	signal.Notify(stop, syscall.SIGINT, syscall.SIGTERM)

	go func() {
		<-stop
		logger.Info("shutting down")
		cancel()
	}()

	// Run blocks until stdin closes or ctx is canceled.
	if err := mcpServer.Run(ctx, &sdkmcp.StdioTransport{}); err != nil {
		logger.Error("stdio server error", "error", err)
		os.Exit(1)
	}
}

func runHTTPMode(logger *slog.Logger, mcpServer *sdkmcp.Server, router *chi.Mux, host string, port int) {
	mcpHandler := sdkmcp.NewStreamableHTTPHandler(
		func(r *http.Request) *sdkmcp.Server { return mcpServer },
		&sdkmcp.StreamableHTTPOptions{
			SessionTimeout: 30 * time.Minute,
		},
	)
	router.Handle("/mcp", mcpHandler)
	router.Handle("/mcp/", mcpHandler)

	addr := fmt.Sprintf("%s:%d", host, port)
	httpServer := &http.Server{
		Addr:              addr,
		Handler:           router,
		ReadHeaderTimeout: 10 * time.Second,
	}

	go func() {
		logger.Info("server listening", "addr", addr)
		if err := httpServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Error("server error", "error", err)
		}
	}()

	waitForShutdown(logger, httpServer)
}

func ensureDBDir(path string) error {
	if path == ":memory:" || path == "" {
		return nil
	}
	dir := filepath.Dir(path)
	if dir == "." {
		return nil
	}
	return os.MkdirAll(dir, 0o755)
}

func waitForShutdown(logger *slog.Logger, server *http.Server) {
	stop := make(chan os.Signal, 1)
	signal.Notify(stop, syscall.SIGINT, syscall.SIGTERM)
	<-stop

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	logger.Info("shutting down")
	if err := server.Shutdown(ctx); err != nil {
		logger.Error("shutdown error", "error", err)
	}
}

func parseLogLevel(level string) slog.Level {
	switch level {
	case "debug":
		return slog.LevelDebug
	case "warn":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}

const (
	maxLogSizeBytes  = 6 * 1024 * 1024
	keepLogSizeBytes = 5 * 1024 * 1024
)

type logFileWriter struct {
	path string
	file *os.File
	mu   sync.Mutex
}

func newLogFileWriter(path string) (*logFileWriter, *os.File, error) {
	if err := ensureLogDir(path); err != nil {
		return nil, nil, err
	}
	file, err := os.OpenFile(path, os.O_CREATE|os.O_RDWR|os.O_APPEND, 0o644)
	if err != nil {
		return nil, nil, err
	}
	writer := &logFileWriter{path: path, file: file}
	if err := writer.truncateIfNeeded(); err != nil {
		return nil, nil, err
	}
	return writer, file, nil
}

func ensureLogDir(path string) error {
	dir := filepath.Dir(path)
	if dir == "." {
		return nil
	}
	return os.MkdirAll(dir, 0o755)
}

func (w *logFileWriter) Write(p []byte) (int, error) {
	w.mu.Lock()
	defer w.mu.Unlock()

	n, err := w.file.Write(p)
	if err != nil {
		return n, err
	}
	if err := w.truncateIfNeeded(); err != nil {
		return n, err
	}
	return n, nil
}

func (w *logFileWriter) truncateIfNeeded() error {
	info, err := w.file.Stat()
	if err != nil {
		return err
	}
	size := info.Size()
	if size <= maxLogSizeBytes {
		return nil
	}
	if size <= keepLogSizeBytes {
		return nil
	}

	buf := make([]byte, keepLogSizeBytes)
	if _, err := w.file.Seek(size-keepLogSizeBytes, io.SeekStart); err != nil {
		return err
	}
	n, err := w.file.Read(buf)
	if err != nil && err != io.EOF {
		return err
	}
	buf = buf[:n]

	if err := w.file.Truncate(0); err != nil {
		return err
	}
	if _, err := w.file.Seek(0, io.SeekStart); err != nil {
		return err
	}
	if _, err := w.file.Write(buf); err != nil {
		return err
	}
	_, err = w.file.Seek(0, io.SeekEnd)
	return err
}
