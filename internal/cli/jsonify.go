package cli

import (
	"context"
	"fmt"

	"github.com/urfave/cli/v3"

	"github.com/bactopia/bactopia-parser/internal/output"
)

func (a *app) jsonifyCmd() *cli.Command {
	return &cli.Command{
		Name:      "jsonify",
		Usage:     "Aggregate one sample of a run directory",
		ArgsUsage: "RUN_DIR SAMPLE",
		Flags: []cli.Flag{
			outputFlag(),
			formatFlag(),
			ignoreFlag(),
		},
		Action: func(_ context.Context, cmd *cli.Command) error {
			if err := requireArgs(cmd, 2, "RUN_DIR SAMPLE"); err != nil {
				return err
			}
			cfg, err := a.settings(cmd)
			if err != nil {
				return err
			}

			root, sampleName := cmd.Args().Get(0), cmd.Args().Get(1)
			res, err := newSampleAggregator(cfg, a.logger).Aggregate(root, sampleName)
			if err != nil {
				return err
			}
			if err := output.NewWriter(reportFormat(cmd, cfg), a.stdout).Write(cfg.Output.Path, res); err != nil {
				return fmt.Errorf("writing report: %w", err)
			}
			return nil
		},
	}
}
