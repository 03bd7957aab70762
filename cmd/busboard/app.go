package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/klauspost/compress/gzhttp"
	"github.com/urfave/cli/v2"

	"busboard/internal/app"
	"busboard/internal/appconf"
	"busboard/internal/board"
	"busboard/internal/clock"
	"busboard/internal/logging"
	"busboard/internal/metrics"
	"busboard/internal/restapi"
	"busboard/internal/source"
	"busboard/internal/webui"
)

// pinnedClockEnv pins the board clock, e.g. BUSBOARD_NOW="2024-06-15 17:07".
const pinnedClockEnv = "BUSBOARD_NOW"

const snapshotAgeInterval = 15 * time.Second

// loadConfig resolves defaults, then the config file, then the environment,
// then command-line flags.
func loadConfig(c *cli.Context) (appconf.Config, error) {
	cfg := appconf.Default()

	if path := c.String("config"); path != "" {
		fc, err := appconf.LoadFromFile(path)
		if err != nil {
			return cfg, err
		}
		if cfg, err = fc.ToAppConfig(); err != nil {
			return cfg, err
		}
	}

	if err := appconf.ApplyEnv(&cfg, c.String("dotenv")); err != nil {
		return cfg, err
	}

	if c.IsSet("source") {
		cfg.Source = appconf.SourceKind(c.String("source"))
	}
	if c.IsSet("fixture") {
		cfg.Source = appconf.SourceFile
		cfg.FixturePath = c.String("fixture")
	}
	if c.IsSet("stop") {
		cfg.StopNo = c.String("stop")
	}
	if c.IsSet("env") {
		env, err := appconf.ParseEnvironment(c.String("env"))
		if err != nil {
			return cfg, err
		}
		cfg.Env = env
	}
	if c.IsSet("verbose") {
		cfg.Verbose = c.Bool("verbose")
	}

	if err := cfg.Validate(); err != nil {
		return cfg, fmt.Errorf("invalid configuration: %w", err)
	}
	return cfg, nil
}

// BuildApplication wires the logger, metrics, clock, schedule source and
// board shell for cfg. Logs go to logOut.
func BuildApplication(cfg appconf.Config, logOut io.Writer) (*app.Application, error) {
	logger := logging.NewLogger(logOut, cfg.Env == appconf.Production, cfg.Verbose)
	slog.SetDefault(logger)

	src, err := source.New(cfg, logger)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize schedule source: %w", err)
	}

	c := clock.NewPinnedClock(pinnedClockEnv, cfg.Location)
	m := metrics.NewWithLogger(logger)

	return app.New(cfg, logger, c, m, src), nil
}

// CreateServer builds the HTTP server. The returned RestAPI must be shut
// down by the caller.
func CreateServer(coreApp *app.Application, cfg appconf.Config) (*http.Server, *restapi.RestAPI) {
	mux := http.NewServeMux()

	api := restapi.NewRestAPI(coreApp)
	api.SetRoutes(mux)
	webui.NewWebUI(coreApp).SetWebUIRoutes(mux)

	var handler http.Handler = restapi.MetricsHandler(coreApp.Metrics)(mux)
	handler = gzhttp.GzipHandler(handler)
	handler = restapi.NewRequestLoggingMiddleware(coreApp.Logger)(handler)
	handler = restapi.RequestIDMiddleware(handler)

	srv := &http.Server{
		Addr:         fmt.Sprintf(":%d", cfg.Port),
		Handler:      handler,
		IdleTimeout:  time.Minute,
		ReadTimeout:  5 * time.Second,
		WriteTimeout: cfg.OCTranspo.Timeout + 10*time.Second,
		ErrorLog:     slog.NewLogLogger(coreApp.Logger.Handler(), slog.LevelError),
	}

	return srv, api
}

// Run serves until ctx is cancelled, then shuts down gracefully. The first
// fetch runs in the background so the placeholder is served meanwhile.
func Run(ctx context.Context, srv *http.Server, coreApp *app.Application, api *restapi.RestAPI) error {
	defer api.Shutdown()
	defer coreApp.Metrics.Shutdown()

	go func() {
		_ = coreApp.Shell.Mount(logging.WithLogger(context.Background(), coreApp.Logger))
	}()
	coreApp.Metrics.StartSnapshotAgeCollector(coreApp.Shell.SnapshotAge, snapshotAgeInterval)

	serveErr := make(chan error, 1)
	go func() {
		coreApp.Logger.Info("starting server",
			slog.String("addr", srv.Addr),
			slog.String("env", coreApp.Config.Env.String()),
			slog.String("source", coreApp.Source.Name()))
		serveErr <- srv.ListenAndServe()
	}()

	select {
	case err := <-serveErr:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return err
	case <-ctx.Done():
	}

	coreApp.Logger.Info("shutting down server")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("server shutdown failed: %w", err)
	}
	if err := <-serveErr; err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}

// Show fetches once and prints the board. A failed fetch still prints the
// fallback board before the error is returned.
func Show(ctx context.Context, coreApp *app.Application, w io.Writer, color bool) error {
	mountErr := coreApp.Shell.Mount(ctx)

	if err := board.WriteText(w, coreApp.Shell.Screen(), color); err != nil {
		return err
	}
	if mountErr != nil {
		return fmt.Errorf("schedule fetch failed: %w", mountErr)
	}
	return nil
}

func signalContext(parent context.Context) (context.Context, context.CancelFunc) {
	if parent == nil {
		parent = context.Background()
	}
	return signal.NotifyContext(parent, os.Interrupt, syscall.SIGTERM)
}

// isTerminal reports whether w is a character device.
func isTerminal(w io.Writer) bool {
	f, ok := w.(*os.File)
	if !ok {
		return false
	}
	stat, err := f.Stat()
	if err != nil {
		return false
	}
	return stat.Mode()&os.ModeCharDevice != 0
}
