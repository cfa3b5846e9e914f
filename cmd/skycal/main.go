package main

import (
	"context"
	"encoding/json"
	"errors"
	"flag"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"skycal/internal/app"
	"skycal/internal/config"
	"skycal/internal/ics"
	appLog "skycal/internal/log"
	"skycal/internal/source"
	"skycal/internal/web"
)

// flagConfig holds CLI flag values.
type flagConfig struct {
	configPath string
	listen     string
	once       bool
	ics        bool
}

func main() {
	flags := parseFlags()

	conf, err := config.Load(flags.configPath)
	if err != nil {
		appLog.Error("failed to load config", err, "config_path", flags.configPath)
		os.Exit(1)
	}

	// CLI --listen overrides config file listen if provided.
	if flags.listen != "" {
		conf.Listen = flags.listen
	}

	appLog.SetLevel(appLog.ParseLevel(conf.LogLevel))
	if err := appLog.OpenFile(conf.LogFile); err != nil {
		appLog.Error("failed to open log file", err, "path", conf.LogFile)
		os.Exit(1)
	}
	defer appLog.Close()

	appLog.Info("skycal starting", "version", "0.1.0")
	appLog.Info("effective config",
		"listen", conf.Listen,
		"refresh", conf.RefreshCron,
		"horizon_minutes", conf.HorizonMinutes,
		"max_window_minutes", conf.MaxWindowMinutes,
		"cache_dir", conf.CacheDir,
		"events_source", conf.Sources.Events,
		"elections_source", conf.Sources.Elections,
		"once", flags.once,
		"ics", flags.ics,
	)

	// Root context with cancellation on SIGINT/SIGTERM.
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	loader := source.NewLoader(source.NewFetcher(conf.CacheDir), conf.Sources.Events, conf.Sources.Elections)
	state := app.NewState(loader, conf.Horizon())

	if flags.once {
		if err := runOnce(ctx, state, flags.ics); err != nil {
			appLog.Error("generation failed", err)
			os.Exit(1)
		}
		return
	}

	if err := serve(ctx, conf, state); err != nil {
		appLog.Error("server failed", err)
		os.Exit(1)
	}
	appLog.Info("skycal exiting")
}

// runOnce generates the global calendar and prints it to stdout.
func runOnce(ctx context.Context, state *app.State, asICS bool) error {
	if err := state.Refresh(ctx); err != nil {
		return err
	}
	dir, err := state.Directory()
	if err != nil {
		return err
	}
	cal := dir.GlobalCalendar()

	if asICS {
		_, err := fmt.Fprint(os.Stdout, ics.Export(cal, state.Now()))
		return err
	}
	enc := json.NewEncoder(os.Stdout)
	enc.SetIndent("", "  ")
	return enc.Encode(cal)
}

// serve runs the HTTP API and the refresh scheduler until ctx is canceled.
func serve(ctx context.Context, conf *config.Config, state *app.State) error {
	// A failed initial load is not fatal: the scheduler or POST /api/refresh
	// can recover once the source is reachable.
	if err := state.Refresh(ctx); err != nil {
		appLog.Error("initial refresh failed", err)
	}

	if err := state.Start(ctx, conf.RefreshCron); err != nil {
		return err
	}
	defer state.Stop()

	srv := &http.Server{
		Addr:              conf.Listen,
		Handler:           web.NewServer(conf, state).Handler(),
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		appLog.Info("starting HTTP server", "listen", "http://"+conf.Listen)
		errCh <- srv.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return err
	case <-ctx.Done():
		appLog.Info("signal received, shutting down")
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	return srv.Shutdown(shutdownCtx)
}

func parseFlags() flagConfig {
	var cfg flagConfig

	flag.StringVar(&cfg.configPath, "config", "./config.yaml", "Path to config file")
	flag.StringVar(&cfg.listen, "listen", "", "HTTP listen address (overrides config if set)")
	flag.BoolVar(&cfg.once, "once", false, "Generate the global calendar once, print it and exit")
	flag.BoolVar(&cfg.ics, "ics", false, "With -once: print iCalendar instead of JSON")

	flag.Parse()

	return cfg
}
