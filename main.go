package main

import (
	"fmt"
	"os"
	"os/signal"
	"strings"
	"syscall"

	clts "tokendash/clients"
	"tokendash/config"
	"tokendash/internal/app"
	"tokendash/internal/metrics"

	"github.com/urfave/cli/v2"
	"go.uber.org/zap"
)

func main() {
	cliApp := &cli.App{
		Name:  "tokendash",
		Usage: "live dashboard for the crypto token monitor",
		Flags: []cli.Flag{
			&cli.StringSliceFlag{
				Name:  "env-file",
				Usage: "dotenv file(s) loaded before reading the environment",
				Value: cli.NewStringSlice(".env"),
			},
			&cli.StringFlag{
				Name:  "backend",
				Usage: "monitor backend base URL (overrides MONITOR_BASE_URL)",
			},
			&cli.IntFlag{
				Name:  "port",
				Usage: "status server port (overrides STATUS_SERVER_PORT)",
			},
			&cli.BoolFlag{
				Name:  "no-status-server",
				Usage: "disable the local status server",
			},
			&cli.BoolFlag{
				Name:  "no-terminal",
				Usage: "disable the terminal display",
			},
			&cli.BoolFlag{
				Name:  "no-commands",
				Usage: "do not read refresh commands from stdin",
			},
			&cli.StringFlag{
				Name:  "timezone",
				Usage: "IANA zone used for displayed times (overrides DASHBOARD_TIMEZONE)",
			},
			&cli.StringFlag{
				Name:  "log-level",
				Usage: "debug, info, warn or error (overrides LOG_LEVEL)",
			},
			&cli.StringFlag{
				Name:  "log-file",
				Usage: "write logs to this file instead of stderr (overrides LOG_FILE)",
			},
		},
		Action: run,
	}

	if err := cliApp.Run(os.Args); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func run(c *cli.Context) error {
	if err := config.LoadDotEnv(c.StringSlice("env-file")...); err != nil {
		return fmt.Errorf("load env file: %w", err)
	}

	// Load config from environment variables, then apply flags
	cfg := config.Load()
	applyFlags(c, cfg)

	if err := cfg.Validate().Err(); err != nil {
		return err
	}

	logger, err := newLogger(cfg.Log)
	if err != nil {
		return fmt.Errorf("build logger: %w", err)
	}
	defer logger.Sync()

	logger.Info("starting dashboard",
		zap.Bool("isProd", cfg.IsProd),
		zap.String("backend", cfg.Monitor.BaseURL),
	)

	logger.Info("instantiating clients")
	clients := clts.NewClients(logger, cfg)
	defer clients.Close()

	ctx, stop := signal.NotifyContext(
		c.Context,
		os.Interrupt,
		syscall.SIGINT,
		syscall.SIGTERM,
	)
	defer stop()

	runner := app.NewRunner(clients, cfg, metrics.NewMetrics(cfg.Metrics.Namespace))
	if err := runner.Run(ctx); err != nil {
		logger.Error("runner failed", zap.Error(err))
		return err
	}
	return nil
}

func applyFlags(c *cli.Context, cfg *config.Config) {
	if c.IsSet("backend") {
		cfg.Monitor.BaseURL = strings.TrimRight(c.String("backend"), "/")
	}
	if c.IsSet("port") {
		cfg.StatusServer.Port = c.Int("port")
	}
	if c.Bool("no-status-server") {
		cfg.StatusServer.Enabled = false
	}
	if c.Bool("no-terminal") {
		cfg.Terminal.Enabled = false
	}
	if c.Bool("no-commands") {
		cfg.Terminal.Commands = false
	}
	if c.IsSet("timezone") {
		cfg.Dashboard.Timezone = c.String("timezone")
	}
	if c.IsSet("log-level") {
		cfg.Log.Level = c.String("log-level")
	}
	if c.IsSet("log-file") {
		cfg.Log.File = c.String("log-file")
	}
}

func newLogger(lc config.LogConfig) (*zap.Logger, error) {
	zc := zap.NewProductionConfig()

	level, err := zap.ParseAtomicLevel(lc.Level)
	if err != nil {
		return nil, err
	}
	zc.Level = level

	if lc.File != "" {
		zc.OutputPaths = []string{lc.File}
		zc.ErrorOutputPaths = []string{lc.File}
	}
	return zc.Build()
}
