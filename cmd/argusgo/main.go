package main

import (
	"context"
	"flag"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"

	"argusgo/internal/api"
	"argusgo/pkg/config"
	"argusgo/pkg/db"
	"argusgo/pkg/db/maintenance"
	"argusgo/pkg/logging"
	"argusgo/pkg/notify"
	"argusgo/pkg/prefs"
	"argusgo/pkg/preset"
	"argusgo/pkg/store"
	"argusgo/pkg/version"
	"argusgo/pkg/watcher"
)

var (
	initConfig = flag.Bool("init-config", false, "Generate default config file and exit")
	configPath = flag.String("config", "configs/argus.yaml", "Path to the config file")
)

func main() {
	flag.Parse()

	// Handle --init-config flag
	if *initConfig {
		if err := config.GenerateDefault(*configPath); err != nil {
			fmt.Fprintf(os.Stderr, "Failed to generate config: %v\n", err)
			os.Exit(1)
		}
		fmt.Println("Config file generated:", *configPath)
		return
	}

	// Optional .env for ARGUS_* overrides; absence is not an error.
	_ = godotenv.Load()

	if err := run(context.Background(), *configPath); err != nil {
		fmt.Fprintf(os.Stderr, "CRITICAL ERROR: Application failed: %v\n", err)
		os.Exit(1)
	}
}

func run(ctx context.Context, configPath string) error {
	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	appCfg, err := config.Load(configPath)
	if err != nil {
		return fmt.Errorf("failed to load config: %w", err)
	}

	cleanupLogs, err := logging.Init(&appCfg.Log)
	if err != nil {
		return fmt.Errorf("failed to initialize logging: %w", err)
	}
	defer cleanupLogs()

	slog.Info("ArgusGo Started", "version", version.Version)

	dbConn, st, err := initDB(appCfg)
	if err != nil {
		return err
	}
	defer dbConn.Close()

	if err := maintenance.Run(ctx, st, dbConn, time.Duration(appCfg.Audit.Retention)); err != nil {
		slog.Error("Maintenance tasks failed", "error", err)
	}

	bus := notify.NewBus()

	ctrl := prefs.New(ctx, st, st, bus)
	defer ctrl.Close()
	slog.Info("Sensitivity restored", "preset", ctrl.Preset())

	// Mirror writes made by sibling processes into the bus.
	stateWatcher := watcher.NewService(st, bus, time.Duration(appCfg.Watch.Interval), preset.Key)
	go stateWatcher.Start(ctx)

	eventsH := api.NewEventsHandler(ctrl)
	go eventsH.Run(ctx)

	return runServer(ctx, appCfg, ctrl, st, eventsH)
}

func initDB(appCfg *config.Config) (*db.DB, store.Store, error) {
	dbConn, err := db.Init(appCfg.DB.Path)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to initialize database: %w", err)
	}
	return dbConn, store.NewSQLiteStore(dbConn), nil
}

func runServer(ctx context.Context, cfg *config.Config, ctrl *prefs.Controller, st store.Store, eventsH *api.EventsHandler) error {
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, os.Interrupt, syscall.SIGTERM)
	shutdownFunc := signalShutdown(quit)

	cfgProv := config.NewProvider(cfg, st)

	srv := api.NewServer(cfg.Server.Address,
		api.NewPrefsHandler(ctrl, st),
		api.NewCoverageHandler(ctrl, cfgProv),
		eventsH,
		shutdownFunc,
	)

	srv.Handler = loggingMiddleware(srv.Handler)
	return runServerLifecycle(ctx, srv, quit)
}

// signalShutdown returns a shutdown trigger that never blocks: once a
// shutdown is pending, further calls are dropped.
func signalShutdown(quit chan<- os.Signal) func() {
	return func() {
		select {
		case quit <- syscall.SIGTERM:
		default:
		}
	}
}

func runServerLifecycle(ctx context.Context, srv *http.Server, quit chan os.Signal) error {
	slog.Info("Starting server", "addr", srv.Addr)
	serverErrors := make(chan error, 1)
	go func() {
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			serverErrors <- err
		}
	}()
	select {
	case <-quit:
		slog.Info("Shutting down server...")
	case <-ctx.Done():
		slog.Info("Context cancelled, shutting down...")
	case err := <-serverErrors:
		return fmt.Errorf("server failed: %w", err)
	}
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	return srv.Shutdown(shutdownCtx)
}

func loggingMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		next.ServeHTTP(w, r)
		logging.RequestLogger.Info("Request Processed", "method", r.Method, "path", r.URL.Path, "duration", time.Since(start))
	})
}
