package report

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"log"
	"os"
	"strings"

	"golang.org/x/sync/errgroup"
)

const (
	// DefaultMaxLineSize is the default maximum size (in bytes) of a single report line.
	DefaultMaxLineSize = 1024 * 1024 // 1MB

	// DefaultWorkers bounds how many reports are read concurrently.
	DefaultWorkers = 4
)

// LoadConfig holds tunable parameters for reading reports.
type LoadConfig struct {
	MaxLineSize int
	Workers     int
}

// Report is one AWR text report held in memory. Lines are never modified
// after loading.
type Report struct {
	Path  string
	Lines []string
}

// LoadError records a report that could not be read.
type LoadError struct {
	Path string
	Err  error
}

func (e *LoadError) Error() string {
	return fmt.Sprintf("read report %s: %v", e.Path, e.Err)
}

func (e *LoadError) Unwrap() error { return e.Err }

// NotFound reports whether the report file does not exist.
func (e *LoadError) NotFound() bool { return errors.Is(e.Err, os.ErrNotExist) }

// Load reads the whole report at path.
func Load(path string, conf ...LoadConfig) (*Report, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, &LoadError{Path: path, Err: err}
	}
	defer f.Close()

	maxLineSize := DefaultMaxLineSize
	if len(conf) > 0 && conf[0].MaxLineSize > 0 {
		maxLineSize = conf[0].MaxLineSize
	}

	lines, err := ReadLines(f, maxLineSize)
	if err != nil {
		return nil, &LoadError{Path: path, Err: err}
	}
	return &Report{Path: path, Lines: lines}, nil
}

// ReadLines splits r into lines. Trailing carriage returns are dropped so
// reports saved with CRLF endings keep their column offsets.
func ReadLines(r io.Reader, maxLineSize int) ([]string, error) {
	if maxLineSize <= 0 {
		maxLineSize = DefaultMaxLineSize
	}
	scanner := bufio.NewScanner(r)
	scanner.Buffer(make([]byte, 0, min(64*1024, maxLineSize)), maxLineSize)

	var lines []string
	for scanner.Scan() {
		lines = append(lines, strings.TrimSuffix(scanner.Text(), "\r"))
	}
	if err := scanner.Err(); err != nil {
		if errors.Is(err, bufio.ErrTooLong) {
			return nil, fmt.Errorf("line exceeded max size (%d bytes): %w", maxLineSize, err)
		}
		return nil, err
	}
	return lines, nil
}

// LoadAll reads every path with bounded concurrency. Reports come back in
// the order of paths; unreadable files are logged, returned as LoadErrors and
// skipped. The only error returned is context cancellation.
func LoadAll(ctx context.Context, paths []string, conf ...LoadConfig) ([]*Report, []*LoadError, error) {
	workers := DefaultWorkers
	var cfg LoadConfig
	if len(conf) > 0 {
		cfg = conf[0]
		if cfg.Workers > 0 {
			workers = cfg.Workers
		}
	}

	loaded := make([]*Report, len(paths))
	failed := make([]*LoadError, len(paths))

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(workers)
	for i, path := range paths {
		g.Go(func() error {
			if err := gctx.Err(); err != nil {
				return err
			}
			rep, err := Load(path, cfg)
			if err != nil {
				var loadErr *LoadError
				if !errors.As(err, &loadErr) {
					loadErr = &LoadError{Path: path, Err: err}
				}
				log.Printf("report: skipping %s: %v", path, loadErr.Err)
				failed[i] = loadErr
				return nil
			}
			loaded[i] = rep
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, nil, err
	}

	reports := make([]*Report, 0, len(paths))
	var errs []*LoadError
	for i := range paths {
		if loaded[i] != nil {
			reports = append(reports, loaded[i])
		}
		if failed[i] != nil {
			errs = append(errs, failed[i])
		}
	}
	return reports, errs, nil
}
