package cli

import (
	"context"
	"errors"
	"fmt"
	"strconv"

	"github.com/urfave/cli/v3"

	"github.com/bactopia/bactopia-parser/internal/backup"
	"github.com/bactopia/bactopia-parser/internal/database"
	"github.com/bactopia/bactopia-parser/internal/output"
	"github.com/bactopia/bactopia-parser/internal/report"
)

func (a *app) historyCmd() *cli.Command {
	return &cli.Command{
		Name:  "history",
		Usage: "List or show runs recorded with --db",
		Description: `Without --id, list recorded runs newest first. With --id, print
the stored report of that run, its per-sample outcomes (--samples) or
remove it (--delete). With --backup, snapshot the database and prune
old snapshots beyond --keep.`,
		Flags: []cli.Flag{
			outputFlag(),
			formatFlag(),
			dbFlag(),
			&cli.StringFlag{
				Name:  "root",
				Usage: "Only list runs of this run directory",
			},
			&cli.StringFlag{
				Name:  "id",
				Usage: "Run id to show",
			},
			&cli.StringFlag{
				Name:  "limit",
				Usage: "Maximum number of runs to list (0 for all)",
				Value: "20",
			},
			&cli.BoolFlag{
				Name:  "samples",
				Usage: "With --id, list per-sample outcomes instead of the report",
			},
			&cli.BoolFlag{
				Name:  "delete",
				Usage: "With --id, remove the run from the history",
			},
			&cli.StringFlag{
				Name:  "backup",
				Usage: "Write a snapshot of the history database to this directory",
			},
			&cli.StringFlag{
				Name:  "keep",
				Usage: "With --backup, number of snapshots to keep (0 for all)",
				Value: "5",
			},
		},
		Action: func(ctx context.Context, cmd *cli.Command) error {
			cfg, err := a.settings(cmd)
			if err != nil {
				return err
			}
			if cfg.Database.Path == "" {
				return errors.New("run history is disabled: set --db or database.path")
			}
			id := cmd.String("id")
			if id == "" && (cmd.Bool("samples") || cmd.Bool("delete")) {
				return errors.New("--samples and --delete need --id")
			}
			limit, err := strconv.Atoi(cmd.String("limit"))
			if err != nil || limit < 0 {
				return fmt.Errorf("invalid --limit %q: want a non-negative integer", cmd.String("limit"))
			}

			db, err := database.OpenAndMigrate(ctx, cfg.Database.Path)
			if err != nil {
				return err
			}
			defer db.Close() //nolint:errcheck
			store := report.NewStore(db)

			var v any
			switch {
			case cmd.String("backup") != "":
				keep, err := strconv.Atoi(cmd.String("keep"))
				if err != nil {
					return fmt.Errorf("invalid --keep %q: %w", cmd.String("keep"), err)
				}
				svc := backup.NewService(db, cmd.String("backup"), keep, a.logger)
				info, err := svc.Backup(ctx)
				if err != nil {
					return err
				}
				if _, err := svc.Prune(); err != nil {
					return err
				}
				v = info
			case id == "":
				runs, err := store.List(ctx, cmd.String("root"), limit)
				if err != nil {
					return err
				}
				if runs == nil {
					runs = []report.Summary{}
				}
				v = runs
			case cmd.Bool("delete"):
				if err := store.Delete(ctx, id); err != nil {
					return err
				}
				a.logger.Info("run removed from history", "run_id", id)
				return nil
			case cmd.Bool("samples"):
				if _, err := store.Get(ctx, id); err != nil {
					return err
				}
				statuses, err := store.Samples(ctx, id)
				if err != nil {
					return err
				}
				if statuses == nil {
					statuses = []report.SampleStatus{}
				}
				v = statuses
			default:
				res, err := store.Get(ctx, id)
				if err != nil {
					return err
				}
				v = res
			}

			if err := output.NewWriter(reportFormat(cmd, cfg), a.stdout).Write(cfg.Output.Path, v); err != nil {
				return fmt.Errorf("writing history: %w", err)
			}
			return nil
		},
	}
}
