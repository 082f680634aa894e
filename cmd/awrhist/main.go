package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"os"
	"os/signal"
	"path/filepath"
	"strings"
	"syscall"

	"github.com/spf13/viper"
	"github.com/tinytelemetry/awrhist/internal/histogram"
	"github.com/tinytelemetry/awrhist/internal/output"
	"github.com/tinytelemetry/awrhist/internal/waitevents"
)

// Build variables - set by ldflags during build.
var (
	version   = "dev"
	commit    = "unknown"
	buildTime = "unknown"
	goVersion = "unknown"
)

// GetVersionInfo returns the current version and commit information.
func GetVersionInfo() (string, string) {
	return version, commit
}

// cliArgs is what the command line carries before config resolution.
type cliArgs struct {
	configPath  string
	showVersion bool
	overrides   map[string]string
	reports     []string
}

// flagKeys maps command line flags to config keys where the names differ.
var flagKeys = map[string]string{
	"events": "events-file",
}

func parseArgs(args []string, stderr io.Writer) (cliArgs, error) {
	var out cliArgs

	fs := flag.NewFlagSet("awrhist", flag.ContinueOnError)
	fs.SetOutput(stderr)
	fs.Usage = func() {
		fmt.Fprintf(stderr, "Usage: awrhist [flags] report...\n\n")
		fs.PrintDefaults()
	}

	fs.StringVar(&out.configPath, "config", "", "config file (default is $HOME/.config/awrhist/config.yml)")
	fs.BoolVar(&out.showVersion, "version", false, "print version information")
	fs.String("mode", defaultMode, "histogram section: total_waits or up_to_32ms")
	fs.String("events", "", "YAML or JSON file listing wait events")
	fs.String("match", defaultMatch, "event match mode: prefix, exact or regex")
	fs.String("section", defaultSection, "section tracking: sticky or contiguous")
	fs.String("output", defaultOutput, "output mode: combined or per-report")
	fs.String("out-dir", "", "directory for the combined summary (default: next to the first report)")
	fs.Bool("skip-missing", false, "omit rows for wait events that were not found")
	fs.Int("workers", defaultLoadWorkers, "reports read concurrently")
	fs.String("db-path", "", "DuckDB file for extracted rows (default: in-memory)")
	fs.Int("retention-days", defaultRetentionDays, "drop stored rows older than this many days (0 keeps all)")
	fs.String("serve", "", "serve the HTTP API on this address after extraction")
	fs.Bool("chart", false, "print a bar chart of each extracted row")
	fs.Int("chart-width", defaultChartWidth, "chart width in columns")

	if err := fs.Parse(args); err != nil {
		return out, err
	}

	// Only flags given explicitly override the config file and environment.
	out.overrides = make(map[string]string)
	fs.Visit(func(f *flag.Flag) {
		if f.Name == "config" || f.Name == "version" {
			return
		}
		key := f.Name
		if mapped, ok := flagKeys[key]; ok {
			key = mapped
		}
		out.overrides[key] = f.Value.String()
	})
	out.reports = fs.Args()
	return out, nil
}

func main() {
	args, err := parseArgs(os.Args[1:], os.Stderr)
	if err != nil {
		if errors.Is(err, flag.ErrHelp) {
			return
		}
		os.Exit(2)
	}

	if args.showVersion {
		fmt.Printf("awrhist - AWR wait event histogram extractor\n")
		fmt.Printf("  Version:    %s\n", version)
		fmt.Printf("  Commit:     %s\n", commit)
		fmt.Printf("  Built:      %s\n", buildTime)
		fmt.Printf("  Go version: %s\n", goVersion)
		return
	}

	if len(args.reports) == 0 {
		fmt.Fprintf(os.Stderr, "Error: no report files given\n")
		os.Exit(1)
	}

	cfg, err := loadConfig(args.configPath, args.overrides)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error loading config: %v\n", err)
		os.Exit(1)
	}

	cleanupLogger := configureRuntimeLogger()
	defer cleanupLogger()

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if err := run(ctx, cfg, args.reports, os.Stdout, os.Stderr); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		stop()
		cleanupLogger()
		os.Exit(1)
	}
}

func loadConfig(configPath string, overrides map[string]string) (appConfig, error) {
	var cfg appConfig

	home, err := os.UserHomeDir()
	if err != nil {
		return cfg, fmt.Errorf("finding home directory: %w", err)
	}

	v := viper.New()
	v.SetEnvPrefix("AWRHIST")
	v.AutomaticEnv()
	v.SetEnvKeyReplacer(strings.NewReplacer("-", "_"))

	v.SetDefault("mode", defaultMode)
	v.SetDefault("wait-events", []string{})
	v.SetDefault("events-file", "")
	v.SetDefault("match", defaultMatch)
	v.SetDefault("section", defaultSection)
	v.SetDefault("output", defaultOutput)
	v.SetDefault("out-dir", "")
	v.SetDefault("skip-missing", false)
	v.SetDefault("workers", defaultLoadWorkers)
	v.SetDefault("max-line-size", defaultMaxLineSize)
	v.SetDefault("db-path", "")
	v.SetDefault("query-timeout", defaultQueryTimeout)
	v.SetDefault("insert-batch-size", defaultInsertBatchSize)
	v.SetDefault("retention-days", defaultRetentionDays)
	v.SetDefault("serve", "")
	v.SetDefault("chart", false)
	v.SetDefault("chart-width", defaultChartWidth)

	explicit := configPath != ""
	if explicit {
		v.SetConfigFile(configPath)
	} else {
		v.SetConfigFile(filepath.Join(home, ".config", "awrhist", "config.yml"))
	}

	if err := v.ReadInConfig(); err != nil {
		var configFileNotFound viper.ConfigFileNotFoundError
		missing := errors.As(err, &configFileNotFound) || os.IsNotExist(err)
		if !missing || explicit {
			return cfg, err
		}
	}

	for key, value := range overrides {
		v.Set(key, value)
	}

	if err := v.Unmarshal(&cfg); err != nil {
		return cfg, err
	}
	if explicit || fileExists(v.ConfigFileUsed()) {
		cfg.ConfigPath = v.ConfigFileUsed()
	}

	if cfg.layout, err = histogram.ParseLayout(cfg.Mode); err != nil {
		return cfg, fmt.Errorf("invalid mode: %w", err)
	}
	if cfg.matchMode, err = histogram.ParseMatchMode(cfg.Match); err != nil {
		return cfg, fmt.Errorf("invalid match: %w", err)
	}
	if cfg.sectionMode, err = histogram.ParseSectionMode(cfg.Section); err != nil {
		return cfg, fmt.Errorf("invalid section: %w", err)
	}
	if cfg.outputMode, err = output.ParseMode(cfg.Output); err != nil {
		return cfg, fmt.Errorf("invalid output: %w", err)
	}
	if cfg.LoadWorkers <= 0 {
		return cfg, fmt.Errorf("invalid workers: %d", cfg.LoadWorkers)
	}
	if cfg.RetentionDays < 0 {
		return cfg, fmt.Errorf("invalid retention-days: %d", cfg.RetentionDays)
	}

	cfg.DBPath = expandHome(cfg.DBPath, home)
	cfg.OutDir = expandHome(cfg.OutDir, home)
	cfg.EventsFile = expandHome(cfg.EventsFile, home)

	_, envEvents := os.LookupEnv("AWRHIST_WAIT_EVENTS")
	if err := resolveWaitEvents(&cfg, v.InConfig("wait-events") || envEvents); err != nil {
		return cfg, err
	}
	return cfg, nil
}

// resolveWaitEvents picks the event list: an events file wins over an inline
// list, which wins over the built-in defaults. A named file that cannot be
// read is an error, and so is an inline list that is present but empty.
func resolveWaitEvents(cfg *appConfig, inline bool) error {
	events := cfg.WaitEvents
	if cfg.EventsFile != "" {
		loaded, err := waitevents.Load(cfg.EventsFile)
		if err != nil {
			return err
		}
		events = loaded
	} else if !inline {
		events = waitevents.Defaults()
	}

	normalized, err := waitevents.Normalize(events)
	if err != nil {
		return err
	}
	cfg.WaitEvents = normalized
	return nil
}

func expandHome(path, home string) string {
	if strings.HasPrefix(path, "~/") {
		return filepath.Join(home, path[2:])
	}
	return path
}

func fileExists(path string) bool {
	if path == "" {
		return false
	}
	_, err := os.Stat(path)
	return err == nil
}
