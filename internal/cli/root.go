package cli

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"

	"github.com/urfave/cli/v3"

	"github.com/bactopia/bactopia-parser/internal/config"
	"github.com/bactopia/bactopia-parser/internal/logging"
	"github.com/bactopia/bactopia-parser/internal/version"
)

const name = "bactopia"

// app carries state from the root Before hook to subcommand actions.
type app struct {
	stdout io.Writer
	stderr io.Writer
	cfg    *config.Config
	logs   *logging.Manager
	logger *slog.Logger
}

// NewCommand builds the root command. Reports go to stdout and logs to
// stderr; nil writers use the process streams.
func NewCommand(stdout, stderr io.Writer) *cli.Command {
	if stdout == nil {
		stdout = os.Stdout
	}
	if stderr == nil {
		stderr = os.Stderr
	}
	a := &app{stdout: stdout, stderr: stderr}

	return &cli.Command{
		Name:                  name,
		Usage:                 "Aggregate Bactopia run directories into structured reports",
		Version:               version.String(),
		EnableShellCompletion: true,
		Writer:                stdout,
		ErrWriter:             stderr,
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:    "config",
				Aliases: []string{"c"},
				Usage:   "Path to a YAML config file",
				Sources: cli.EnvVars("BACTOPIA_CONFIG"),
			},
			&cli.StringFlag{
				Name:  "log-level",
				Usage: "Log level: debug, info, warn, error",
			},
			&cli.StringFlag{
				Name:  "log-format",
				Usage: "Log format: auto, text, json",
			},
			&cli.StringFlag{
				Name:  "log-file",
				Usage: "Also write logs to this file, rotated by size",
			},
		},
		Before: a.before,
		After:  a.after,
		Commands: []*cli.Command{
			a.summaryCmd(),
			a.jsonifyCmd(),
			a.parseCmd(),
			a.watchCmd(),
			a.historyCmd(),
		},
	}
}

func (a *app) before(ctx context.Context, cmd *cli.Command) (context.Context, error) {
	cfg, err := config.Load(cmd.String("config"))
	if err != nil {
		return ctx, err
	}
	if cmd.IsSet("log-level") {
		cfg.Logging.Level = cmd.String("log-level")
	}
	if cmd.IsSet("log-format") {
		cfg.Logging.Format = cmd.String("log-format")
	}
	if cmd.IsSet("log-file") {
		cfg.Logging.FilePath = cmd.String("log-file")
	}
	if err := cfg.Validate(); err != nil {
		return ctx, fmt.Errorf("validating flags: %w", err)
	}

	if a.logs == nil {
		a.logs, a.logger = logging.NewManager(cfg.Logging, a.stderr)
	} else {
		a.logs.Reconfigure(cfg.Logging)
	}
	a.cfg = cfg
	a.logger.Debug("configuration loaded", "logging", cfg.Logging.String(), "version", version.Version)
	return ctx, nil
}

func (a *app) after(_ context.Context, _ *cli.Command) error {
	if a.logs == nil {
		return nil
	}
	return a.logs.Close()
}
