package cli

import (
	"fmt"
	"strings"

	"github.com/urfave/cli/v3"

	"github.com/bactopia/bactopia-parser/internal/config"
	"github.com/bactopia/bactopia-parser/internal/output"
)

// Flags keep parse state, so every command gets its own instances.

func outputFlag() cli.Flag {
	return &cli.StringFlag{
		Name:    "output",
		Aliases: []string{"o"},
		Usage:   "Write the report to this file instead of stdout (- for stdout)",
	}
}

func formatFlag() cli.Flag {
	return &cli.StringFlag{
		Name:    "format",
		Aliases: []string{"f"},
		Usage: fmt.Sprintf("Report format (%s). Defaults to the output file extension.",
			strings.Join(output.SupportedFormats(), ", ")),
	}
}

func dbFlag() cli.Flag {
	return &cli.StringFlag{
		Name:  "db",
		Usage: "SQLite database recording run history",
	}
}

func metricsFlag() cli.Flag {
	return &cli.StringFlag{
		Name:  "metrics-textfile",
		Usage: "Write run gauges to this node-exporter textfile (*.prom)",
	}
}

func ignoreFlag() cli.Flag {
	return &cli.StringSliceFlag{
		Name:  "ignore",
		Usage: "Directory names in the run directory that are not samples (replaces the configured list)",
	}
}

// settings returns a copy of the loaded config with command flags
// applied on top.
func (a *app) settings(cmd *cli.Command) (*config.Config, error) {
	cfg := *a.cfg
	cfg.Aggregate.IgnoreList = append([]string(nil), a.cfg.Aggregate.IgnoreList...)

	if cmd.IsSet("output") {
		cfg.Output.Path = cmd.String("output")
	}
	if cmd.IsSet("format") {
		cfg.Output.Format = cmd.String("format")
	}
	if cmd.IsSet("db") {
		cfg.Database.Path = cmd.String("db")
	}
	if cmd.IsSet("metrics-textfile") {
		cfg.Metrics.TextfilePath = cmd.String("metrics-textfile")
	}
	if cmd.IsSet("ignore") {
		cfg.Aggregate.IgnoreList = cmd.StringSlice("ignore")
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// reportFormat resolves the output format. An explicit --format wins,
// then the output file extension, then the configured format.
func reportFormat(cmd *cli.Command, cfg *config.Config) output.Format {
	f, err := output.ParseFormat(cfg.Output.Format)
	if err != nil {
		f = output.FormatJSON
	}
	if cmd.IsSet("format") {
		return f
	}
	return output.FormatFromPath(cfg.Output.Path, f)
}

// requireArgs checks the positional argument count.
func requireArgs(cmd *cli.Command, want int, usage string) error {
	if cmd.Args().Len() < want {
		return fmt.Errorf("usage: %s %s %s", name, cmd.Name, usage)
	}
	return nil
}
