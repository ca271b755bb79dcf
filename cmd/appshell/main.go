package main

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/alecthomas/kong"

	"git.home.luguber.info/inful/appshell/internal/config"
	derrors "git.home.luguber.info/inful/appshell/internal/foundation/errors"
	"git.home.luguber.info/inful/appshell/internal/launcher"
	"git.home.luguber.info/inful/appshell/internal/metrics"
	"git.home.luguber.info/inful/appshell/internal/version"
)

// CLI defines the flag surface. Running with no arguments is the whole
// contract; every flag is an optional override of the config file.
var CLI struct {
	Config        string        `short:"c" help:"Configuration file path" default:""`
	Port          int           `help:"Override server port"`
	Bind          string        `help:"Override bind host"`
	Assets        string        `help:"Override frontend asset directory"`
	Title         string        `help:"Override window title"`
	MaxWait       time.Duration `help:"Override readiness wait bound"`
	PollInterval  time.Duration `help:"Override readiness poll interval"`
	ShutdownGrace time.Duration `help:"Override teardown grace period"`
	Dev           bool          `help:"Enable dev mode (asset watching and live reload)"`
	Verbose       bool          `short:"v" help:"Enable verbose logging"`
	Version       bool          `help:"Print version and exit"`
}

func main() {
	kong.Parse(&CLI,
		kong.Name("appshell"),
		kong.Description("Desktop shell for a prebuilt web frontend: serves it on loopback and opens a window pointed at it."))

	if CLI.Version {
		fmt.Printf("appshell %s (commit %s, built %s)\n", version.Version, version.GitCommit, version.BuildTime)
		return
	}

	// Set up logging
	logLevel := slog.LevelInfo
	if CLI.Verbose {
		logLevel = slog.LevelDebug
	}
	logger := slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{
		Level: logLevel,
	}))
	slog.SetDefault(logger)

	errAdapter := derrors.NewCLIErrorAdapter(CLI.Verbose, logger)

	cfg, err := config.Load(CLI.Config)
	if err != nil {
		errAdapter.HandleError(derrors.WrapError(err, derrors.CategoryConfig, "failed to load configuration").Build())
	}
	applyOverrides(cfg)

	errAdapter.HandleError(run(cfg))
}

// run wires the coordinator and blocks until the launch ends.
func run(cfg *config.Config) error {
	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	registry := metrics.NewRegistry()
	recorder := metrics.NewPrometheusRecorder(registry)

	coord, err := launcher.New(cfg, launcher.Options{
		Recorder:       recorder,
		MetricsHandler: metrics.HTTPHandler(registry),
	})
	if err != nil {
		return err
	}

	return coord.Run(ctx)
}

// applyOverrides copies set flags over the loaded configuration.
func applyOverrides(cfg *config.Config) {
	if CLI.Port != 0 {
		cfg.Server.Port = CLI.Port
	}
	if CLI.Bind != "" {
		cfg.Server.Host = CLI.Bind
	}
	if CLI.Assets != "" {
		cfg.Assets.Dir = CLI.Assets
	}
	if CLI.Title != "" {
		cfg.Window.Title = CLI.Title
	}
	if CLI.MaxWait != 0 {
		cfg.Launch.MaxWait = CLI.MaxWait
	}
	if CLI.PollInterval != 0 {
		cfg.Launch.PollInterval = CLI.PollInterval
	}
	if CLI.ShutdownGrace != 0 {
		cfg.Launch.ShutdownGrace = CLI.ShutdownGrace
	}
	if CLI.Dev {
		cfg.Dev = true
	}
}
