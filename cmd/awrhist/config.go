package main

import (
	"time"

	"github.com/tinytelemetry/awrhist/internal/chart"
	"github.com/tinytelemetry/awrhist/internal/duckdb"
	"github.com/tinytelemetry/awrhist/internal/histogram"
	"github.com/tinytelemetry/awrhist/internal/model"
	"github.com/tinytelemetry/awrhist/internal/output"
	"github.com/tinytelemetry/awrhist/internal/report"
)

const (
	defaultMode            = model.DefaultLayout
	defaultMatch           = model.DefaultMatchMode
	defaultSection         = model.DefaultSectionMode
	defaultOutput          = model.DefaultOutputMode
	defaultLoadWorkers     = model.DefaultLoadWorkers
	defaultMaxLineSize     = report.DefaultMaxLineSize
	defaultQueryTimeout    = model.DefaultQueryTimeout
	defaultInsertBatchSize = duckdb.DefaultBatchSize
	defaultChartWidth      = chart.DefaultWidth
	defaultRetentionDays   = 0 // days, 0 = keep everything
)

// appConfig is internal runtime configuration.
// It is package-private to keep defaults and shape local to the CLI entrypoint.
type appConfig struct {
	Mode            string        `mapstructure:"mode"`
	WaitEvents      []string      `mapstructure:"wait-events"`
	EventsFile      string        `mapstructure:"events-file"`
	Match           string        `mapstructure:"match"`
	Section         string        `mapstructure:"section"`
	Output          string        `mapstructure:"output"`
	OutDir          string        `mapstructure:"out-dir"`
	SkipMissing     bool          `mapstructure:"skip-missing"`
	LoadWorkers     int           `mapstructure:"workers"`
	MaxLineSize     int           `mapstructure:"max-line-size"`
	DBPath          string        `mapstructure:"db-path"`
	QueryTimeout    time.Duration `mapstructure:"query-timeout"`
	InsertBatchSize int           `mapstructure:"insert-batch-size"`
	RetentionDays   int           `mapstructure:"retention-days"`
	Serve           string        `mapstructure:"serve"`
	Chart           bool          `mapstructure:"chart"`
	ChartWidth      int           `mapstructure:"chart-width"`
	ConfigPath      string        `mapstructure:"-"` // not from config file

	// Resolved from the string settings above by loadConfig.
	layout      histogram.Layout
	matchMode   histogram.MatchMode
	sectionMode histogram.SectionMode
	outputMode  output.Mode
}
