package cli

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/urfave/cli/v3"
	"golang.org/x/sync/errgroup"

	"github.com/bactopia/bactopia-parser/internal/event"
	"github.com/bactopia/bactopia-parser/internal/watcher"
)

func (a *app) watchCmd() *cli.Command {
	return &cli.Command{
		Name:      "watch",
		Usage:     "Re-aggregate a run directory whenever it changes",
		ArgsUsage: "RUN_DIR",
		Description: `Aggregate RUN_DIR once, then watch it and its sample directories.

Bursts of changes are debounced into one scan and scans are rate limited
(watch.debounce and watch.max_scans_per_minute). The report file is
replaced atomically after each scan, so --output is required. A failed
scan is logged and the watch continues. Stop with Ctrl-C.`,
		Flags: []cli.Flag{
			outputFlag(),
			formatFlag(),
			dbFlag(),
			metricsFlag(),
			ignoreFlag(),
			&cli.DurationFlag{
				Name:  "debounce",
				Usage: "Quiet period before a change triggers a scan",
			},
		},
		Action: func(ctx context.Context, cmd *cli.Command) error {
			if err := requireArgs(cmd, 1, "RUN_DIR"); err != nil {
				return err
			}
			cfg, err := a.settings(cmd)
			if err != nil {
				return err
			}
			if cfg.Output.Path == "" || cfg.Output.Path == "-" {
				return errors.New("watch needs a report file: set --output or output.path")
			}
			if cmd.IsSet("debounce") {
				cfg.Watch.Debounce = cmd.Duration("debounce")
			}
			root := cmd.Args().First()

			bus := event.NewBus(a.logger, 0)
			bus.Subscribe(a.logEvent, event.SampleAdded, event.SampleRemoved, event.RunCompleted, event.RunFailed)

			p, err := a.openPipeline(ctx, cfg, reportFormat(cmd, cfg), bus)
			if err != nil {
				return err
			}
			defer p.Close() //nolint:errcheck

			// The first scan must succeed; later ones only log.
			if _, err := p.Run(ctx, root); err != nil {
				return err
			}

			scan := func(ctx context.Context) error {
				if _, err := p.Run(ctx, root); err != nil {
					bus.Publish(event.Event{Type: event.RunFailed, Root: root, Err: err.Error()})
					return err
				}
				return nil
			}
			svc := watcher.NewService(root, scan, bus, a.logger, watcher.Options{
				Debounce:          cfg.Watch.Debounce,
				MaxScansPerMinute: cfg.Watch.MaxScansPerMinute,
			})

			// The bus outlives ctx so events from the last scan are still
			// delivered after the watcher stops.
			busCtx, stopBus := context.WithCancel(context.WithoutCancel(ctx))
			g, gctx := errgroup.WithContext(ctx)
			g.Go(func() error {
				bus.Run(busCtx)
				return nil
			})
			g.Go(func() error {
				defer stopBus()
				return svc.Start(gctx)
			})
			if err := g.Wait(); err != nil && !errors.Is(err, context.Canceled) {
				return fmt.Errorf("watching %s: %w", root, err)
			}
			return nil
		},
	}
}

func (a *app) logEvent(e event.Event) {
	args := append(e.LogAttrs(), "at", e.Timestamp.Format(time.RFC3339))
	if e.Type == event.RunFailed {
		a.logger.Warn("run event", args...)
		return
	}
	a.logger.Info("run event", args...)
}
