package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"strconv"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"go.uber.org/zap"

	"csvpub/internal/catalog"
	"csvpub/internal/discovery"
	mcpserver "csvpub/internal/mcp"
	"csvpub/internal/publish"
	"csvpub/internal/rpc"
	"csvpub/internal/service"
)

func main() {
	// .env is optional; a real environment variable wins over the file.
	_ = godotenv.Load()

	var (
		host        = flag.String("host", getEnv("CSVPUB_HOST", "127.0.0.1"), "Host or IP to bind the RPC listener on")
		port        = flag.Int("port", envInt("CSVPUB_PORT", 0), "Port for the RPC listener (0 picks a free port)")
		catalogPath = flag.String("catalog", getEnv("CSVPUB_CATALOG", "csvpub.db"), "Path to the catalog database (empty disables history)")
		sampleRows  = flag.Int("sample-rows", envInt("CSVPUB_SAMPLE_ROWS", discovery.DefaultSampleRows), "Rows sampled per file during type inference")
		glob        = flag.String("glob", getEnv("CSVPUB_GLOB", ""), "File glob for watch and cron triggered re-discovery")
		watch       = flag.Bool("watch", envBool("CSVPUB_WATCH", false), "Re-discover when files matching -glob change")
		refreshCron = flag.String("refresh-cron", getEnv("CSVPUB_REFRESH_CRON", ""), "Cron expression for scheduled re-discovery")
		debug       = flag.Bool("debug", envBool("CSVPUB_DEBUG", false), "Enable debug logging")
		mcpMode     = flag.Bool("mcp", false, "Serve MCP on stdin/stdout instead of the RPC listener")
	)
	flag.Parse()

	logger, err := newLogger(*debug)
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to initialize logger: %v\n", err)
		os.Exit(1)
	}
	defer logger.Sync()
	log := logger.Sugar()

	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer cancel()

	var store *catalog.Store
	if *catalogPath != "" {
		db, err := catalog.New(*catalogPath)
		if err != nil {
			log.Fatalw("failed to open catalog", "path", *catalogPath, "error", err)
		}
		defer db.Close()
		store = catalog.NewStore(db)
	} else {
		log.Warnw("catalog disabled, discovery and publish history will not be recorded")
	}

	svc := service.New(
		discovery.NewRunner(log, *sampleRows),
		publish.NewStreamer(log),
		store,
		log,
	)

	if *glob != "" && (*watch || *refreshCron != "") {
		cfg := service.TriggerConfig{Glob: *glob, Watch: *watch, CronExpr: *refreshCron}
		if err := svc.StartTriggers(ctx, cfg); err != nil {
			log.Fatalw("failed to start discovery triggers", "error", err)
		}
	}

	if *mcpMode {
		runMCP(ctx, log, svc)
		return
	}
	runRPC(ctx, log, svc, *host, *port)
}

// runRPC binds the listener, performs the port handshake and serves
// until a shutdown signal arrives.
func runRPC(ctx context.Context, log *zap.SugaredLogger, svc *service.ConnectorService, host string, port int) {
	srv := rpc.New(svc, log)

	l, boundPort, err := srv.Listen(host, port)
	if err != nil {
		log.Fatalw("failed to bind listener", "host", host, "port", port, "error", err)
	}

	// The parent process reads the bound port from stdout before it
	// sends any requests. Nothing else may be written there.
	fmt.Fprintf(os.Stdout, "%d\r", boundPort)

	errCh := make(chan error, 1)
	go func() { errCh <- srv.Serve(l) }()
	log.Infow("rpc listener ready", "host", host, "port", boundPort)

	select {
	case <-ctx.Done():
		log.Infow("shutdown signal received")
	case err := <-errCh:
		if err != nil {
			log.Fatalw("rpc server failed", "error", err)
		}
		return
	}

	shutdownCtx, cancelShutdown := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancelShutdown()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Warnw("rpc shutdown did not finish cleanly", "error", err)
	}

	drainRunning(log, svc)
	log.Infow("shutdown complete")
}

// runMCP serves MCP over stdio until stdin closes or a signal arrives.
func runMCP(ctx context.Context, log *zap.SugaredLogger, svc *service.ConnectorService) {
	srv := mcpserver.New(mcpserver.Deps{Connector: svc, Log: log})

	errCh := make(chan error, 1)
	go func() { errCh <- srv.ServeStdio() }()

	select {
	case <-ctx.Done():
		log.Infow("shutdown signal received")
	case err := <-errCh:
		if err != nil {
			log.Fatalw("mcp server error", "error", err)
		}
	}

	drainRunning(log, svc)
}

// drainRunning gives in-flight discovery and publish operations a
// bounded window to finish, then stops the trigger machinery.
func drainRunning(log *zap.SugaredLogger, svc *service.ConnectorService) {
	drainCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	svc.WaitRunning(drainCtx)
	svc.Stop()
}

// newLogger builds the process logger. All output goes to stderr:
// stdout carries the port handshake in RPC mode and the JSON-RPC
// transport in MCP mode.
func newLogger(debug bool) (*zap.Logger, error) {
	if debug {
		z := zap.NewDevelopmentConfig()
		z.OutputPaths = []string{"stderr"}
		return z.Build()
	}
	z := zap.NewProductionConfig()
	z.OutputPaths = []string{"stderr"}
	return z.Build()
}

// getEnv reads an environment variable with a fallback value.
func getEnv(key, fallback string) string {
	if value, exists := os.LookupEnv(key); exists {
		return value
	}
	return fallback
}

func envInt(key string, fallback int) int {
	if value, exists := os.LookupEnv(key); exists {
		if n, err := strconv.Atoi(value); err == nil {
			return n
		}
	}
	return fallback
}

func envBool(key string, fallback bool) bool {
	if value, exists := os.LookupEnv(key); exists {
		if b, err := strconv.ParseBool(value); err == nil {
			return b
		}
	}
	return fallback
}
