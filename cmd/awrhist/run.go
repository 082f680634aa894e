package main

import (
	"context"
	"fmt"
	"io"
	"log"
	"os"
	"path/filepath"
	"time"

	"github.com/tinytelemetry/awrhist/internal/chart"
	"github.com/tinytelemetry/awrhist/internal/duckdb"
	"github.com/tinytelemetry/awrhist/internal/histogram"
	"github.com/tinytelemetry/awrhist/internal/httpserver"
	"github.com/tinytelemetry/awrhist/internal/ingest"
	"github.com/tinytelemetry/awrhist/internal/output"
	"github.com/tinytelemetry/awrhist/internal/report"
	"golang.org/x/sync/errgroup"
)

// runSummary is what the summary banner reports after a run.
type runSummary struct {
	RunID   string
	Loaded  int
	Skipped []*report.LoadError
	Stats   ingest.Stats
	Outputs []string
	Stored  int
	Pruned  int64
}

// run extracts the configured histogram from every report, writes the CSV
// summaries and stores the rows. With cfg.Serve set it then serves the HTTP
// API until ctx is cancelled.
func run(ctx context.Context, cfg appConfig, paths []string, stdout, stderr io.Writer) error {
	sum := runSummary{RunID: newRunID(time.Now())}

	reports, skipped, err := report.LoadAll(ctx, paths, report.LoadConfig{
		MaxLineSize: cfg.MaxLineSize,
		Workers:     cfg.LoadWorkers,
	})
	if err != nil {
		return fmt.Errorf("loading reports: %w", err)
	}
	for _, le := range skipped {
		if le.NotFound() {
			fmt.Fprintf(stderr, "File %s not found, skipping\n", le.Path)
		} else {
			fmt.Fprintf(stderr, "Skipping %s: %v\n", le.Path, le.Err)
		}
	}
	sum.Loaded = len(reports)
	sum.Skipped = skipped

	store, err := duckdb.NewStore(cfg.DBPath, cfg.QueryTimeout)
	if err != nil {
		return fmt.Errorf("failed to initialize DuckDB: %w", err)
	}
	defer store.Close()

	if sum.Pruned, err = store.Prune(duckdb.RetentionConfig{RetentionDays: cfg.RetentionDays}); err != nil {
		return fmt.Errorf("retention: %w", err)
	}

	insertBuffer := duckdb.NewInsertBuffer(store, duckdb.InsertBufferConfig{BatchSize: cfg.InsertBatchSize})
	writer := output.NewWriter(cfg.layout, output.Config{
		Mode:        cfg.outputMode,
		Dir:         cfg.OutDir,
		SkipMissing: cfg.SkipMissing,
	})
	sinks := ingest.MultiSink{writer, insertBuffer}

	var collected *ingest.Collector
	if cfg.Chart {
		collected = &ingest.Collector{}
		sinks = append(sinks, collected)
	}

	processor, err := ingest.NewProcessor(sinks, ingest.Config{
		Layout: cfg.layout,
		Events: cfg.WaitEvents,
		Options: histogram.Options{
			Match:   cfg.matchMode,
			Section: cfg.sectionMode,
		},
		RunID: sum.RunID,
	})
	if err != nil {
		writer.Close()
		return err
	}

	sum.Stats, err = processor.ProcessAll(reports)
	if closeErr := writer.Close(); closeErr != nil && err == nil {
		err = closeErr
	}
	if err != nil {
		return fmt.Errorf("extracting %s: %w", cfg.layout, err)
	}
	if err := insertBuffer.Flush(); err != nil {
		return fmt.Errorf("storing rows: %w", err)
	}
	sum.Outputs = writer.Paths()
	sum.Stored = insertBuffer.Written()
	log.Printf("run %s: %d reports, %d rows (%d found) written to %v", sum.RunID, sum.Stats.Reports, sum.Stats.Rows, sum.Stats.Found, sum.Outputs)

	printRunSummary(stdout, cfg, sum)

	if collected != nil {
		fmt.Fprintln(stdout, chart.RenderAll(collected.Rows, cfg.ChartWidth))
		fmt.Fprintln(stdout)
	}

	if cfg.Serve == "" {
		return nil
	}
	return serve(ctx, store, cfg.Serve, stdout)
}

// serve runs the HTTP API until ctx is cancelled, then shuts it down.
func serve(ctx context.Context, store httpserver.QueryStore, addr string, stdout io.Writer) error {
	apiServer := httpserver.NewServer(addr, store)
	if err := apiServer.Start(); err != nil {
		return fmt.Errorf("failed to start API server: %w", err)
	}
	log.Printf("httpserver: listening on %s", apiServer.Addr())
	printServeBanner(stdout, apiServer.Addr())

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		<-gctx.Done()
		fmt.Fprintln(stdout, "\nShutting down...")
		return apiServer.Stop()
	})
	return g.Wait()
}

func newRunID(now time.Time) string {
	return now.UTC().Format("20060102T150405.000000Z")
}

func configureRuntimeLogger() func() {
	log.SetFlags(log.LstdFlags | log.Lmicroseconds)

	home, err := os.UserHomeDir()
	if err != nil {
		log.SetOutput(os.Stderr)
		return func() {}
	}

	logDir := filepath.Join(home, ".local", "state", "awrhist")
	if err := os.MkdirAll(logDir, 0755); err != nil {
		log.SetOutput(os.Stderr)
		return func() {}
	}

	logPath := filepath.Join(logDir, "awrhist.log")
	f, err := os.OpenFile(logPath, os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0644)
	if err != nil {
		log.SetOutput(os.Stderr)
		return func() {}
	}

	log.SetOutput(f)
	return func() {
		_ = f.Close()
	}
}

// storeLabel describes where rows were stored.
func storeLabel(cfg appConfig) string {
	if cfg.DBPath == "" {
		return "in-memory"
	}
	return shortenPath(cfg.DBPath)
}
