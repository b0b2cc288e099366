package cli

import (
	"context"

	"github.com/urfave/cli/v3"
)

func (a *app) summaryCmd() *cli.Command {
	return &cli.Command{
		Name:      "summary",
		Usage:     "Aggregate every sample in a run directory",
		ArgsUsage: "RUN_DIR",
		Description: `Aggregate every sample directory under RUN_DIR into one report.

Samples the pipeline flagged as failed, samples with missing result files
and directories on the ignore list are listed in the report categories
and counted. Any other directory that is not Bactopia output aborts the
run.

Examples:
  bactopia summary bactopia-out/
  bactopia summary bactopia-out/ -o summary.yaml --db runs.db`,
		Flags: []cli.Flag{
			outputFlag(),
			formatFlag(),
			dbFlag(),
			metricsFlag(),
			ignoreFlag(),
		},
		Action: func(ctx context.Context, cmd *cli.Command) error {
			if err := requireArgs(cmd, 1, "RUN_DIR"); err != nil {
				return err
			}
			cfg, err := a.settings(cmd)
			if err != nil {
				return err
			}

			p, err := a.openPipeline(ctx, cfg, reportFormat(cmd, cfg), nil)
			if err != nil {
				return err
			}
			defer p.Close() //nolint:errcheck

			res, err := p.Run(ctx, cmd.Args().First())
			if err != nil {
				return err
			}
			a.logger.Info("summary written",
				"run_id", res.ID,
				"output", displayPath(cfg.Output.Path),
				"processed", res.Counts.Processed,
				"excluded", res.Counts.TotalExcluded)
			return nil
		},
	}
}

func displayPath(path string) string {
	if path == "" || path == "-" {
		return "stdout"
	}
	return path
}
