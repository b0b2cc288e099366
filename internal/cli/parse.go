package cli

import (
	"context"
	"fmt"
	"strings"

	"github.com/urfave/cli/v3"

	"github.com/bactopia/bactopia-parser/internal/category"
	"github.com/bactopia/bactopia-parser/internal/output"
	"github.com/bactopia/bactopia-parser/internal/parser"
)

func (a *app) parseCmd() *cli.Command {
	return &cli.Command{
		Name:      "parse",
		Usage:     "Parse the result files of one category",
		ArgsUsage: "RESULT_TYPE FILE...",
		Description: fmt.Sprintf(`Parse one or more result files with the parser for RESULT_TYPE.

Result types: %s

Examples:
  bactopia parse qc sampleA-final.json
  bactopia parse ariba report.tsv summary.csv`, strings.Join(category.Names(), ", ")),
		Flags: []cli.Flag{
			outputFlag(),
			formatFlag(),
		},
		Action: func(_ context.Context, cmd *cli.Command) error {
			if err := requireArgs(cmd, 2, "RESULT_TYPE FILE..."); err != nil {
				return err
			}
			cfg, err := a.settings(cmd)
			if err != nil {
				return err
			}

			args := cmd.Args().Slice()
			registry := parser.NewDefaultRegistry(parser.WithMinmersLimit(cfg.Aggregate.MinmersLimit))
			rec, err := registry.Parse(args[0], args[1:]...)
			if err != nil {
				return err
			}
			if err := output.NewWriter(reportFormat(cmd, cfg), a.stdout).Write(cfg.Output.Path, rec); err != nil {
				return fmt.Errorf("writing result: %w", err)
			}
			return nil
		},
	}
}
