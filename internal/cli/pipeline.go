package cli

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"

	"github.com/bactopia/bactopia-parser/internal/config"
	"github.com/bactopia/bactopia-parser/internal/database"
	"github.com/bactopia/bactopia-parser/internal/event"
	"github.com/bactopia/bactopia-parser/internal/metrics"
	"github.com/bactopia/bactopia-parser/internal/output"
	"github.com/bactopia/bactopia-parser/internal/parser"
	"github.com/bactopia/bactopia-parser/internal/report"
	"github.com/bactopia/bactopia-parser/internal/run"
	"github.com/bactopia/bactopia-parser/internal/sample"
)

// pipeline aggregates a run directory and hands the result to every
// configured sink: the report writer, the history store and the metrics
// textfile.
type pipeline struct {
	runs      *run.Aggregator
	writer    *output.Writer
	outPath   string
	db        *sql.DB
	store     *report.Store
	collector *metrics.Collector
	textfile  string
	logger    *slog.Logger
}

func newSampleAggregator(cfg *config.Config, logger *slog.Logger) *sample.Aggregator {
	registry := parser.NewDefaultRegistry(parser.WithMinmersLimit(cfg.Aggregate.MinmersLimit))
	return sample.NewAggregator(registry, cfg.Aggregate.IgnoreList, logger)
}

// openPipeline wires the sinks selected by cfg. bus may be nil.
func (a *app) openPipeline(ctx context.Context, cfg *config.Config, format output.Format, bus *event.Bus) (*pipeline, error) {
	runs := run.NewAggregator(newSampleAggregator(cfg, a.logger), a.logger)
	if bus != nil {
		runs.SetEventBus(bus)
	}

	p := &pipeline{
		runs:     runs,
		writer:   output.NewWriter(format, a.stdout),
		outPath:  cfg.Output.Path,
		textfile: cfg.Metrics.TextfilePath,
		logger:   a.logger.With("component", "pipeline"),
	}

	if cfg.Database.Path != "" {
		db, err := database.OpenAndMigrate(ctx, cfg.Database.Path)
		if err != nil {
			return nil, err
		}
		p.db = db
		p.store = report.NewStore(db)
	}
	if p.textfile != "" {
		p.collector = metrics.NewCollector()
	}
	return p, nil
}

// Run aggregates root once. Sink failures are returned after the report
// has been written.
func (p *pipeline) Run(ctx context.Context, root string) (*run.Result, error) {
	res, err := p.runs.Aggregate(ctx, root, nil)
	if err != nil {
		return nil, err
	}
	if err := p.writer.Write(p.outPath, res); err != nil {
		return nil, fmt.Errorf("writing report: %w", err)
	}

	if p.store != nil {
		if err := p.store.Save(ctx, res); err != nil {
			return res, fmt.Errorf("recording run history: %w", err)
		}
		p.logger.Debug("run recorded", "run_id", res.ID)
	}
	if p.collector != nil {
		p.collector.Observe(res)
		if err := p.collector.WriteTextfile(p.textfile); err != nil {
			return res, err
		}
		p.logger.Debug("metrics written", "path", p.textfile)
	}
	return res, nil
}

// Close releases the history database.
func (p *pipeline) Close() error {
	if p.db == nil {
		return nil
	}
	return p.db.Close()
}
