// Package cli implements the bactopia command line.
//
// # Commands
//
// summary - Aggregate a run directory:
//
//	bactopia summary RUN_DIR [--output FILE] [--format json|yaml] [--db FILE]
//
// Every sample directory is turned into a normalized report and run-wide
// counts are collected. With --db the run is recorded in the history
// database; with --metrics-textfile the counts are exported for the
// node-exporter textfile collector.
//
// jsonify - Aggregate a single sample:
//
//	bactopia jsonify RUN_DIR SAMPLE
//
// parse - Parse result files of one category:
//
//	bactopia parse RESULT_TYPE FILE...
//
// watch - Re-aggregate a run directory whenever it changes:
//
//	bactopia watch RUN_DIR --output FILE
//
// history - List or show runs stored with --db:
//
//	bactopia history [--root RUN_DIR] [--id RUN_ID] [--limit N]
//
// # Configuration
//
// Settings are read from the --config YAML file, then BACTOPIA_*
// environment variables, then command line flags. Logs are written to
// stderr so reports on stdout stay machine readable.
package cli
