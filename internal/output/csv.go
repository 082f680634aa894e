// Package output writes extracted histogram rows as CSV summaries.
package output

import (
	"encoding/csv"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync"

	"github.com/tinytelemetry/awrhist/internal/histogram"
	"github.com/tinytelemetry/awrhist/internal/model"
)

// FilenameColumn is appended to every header and carries the source report path.
const FilenameColumn = "Filename"

// Mode selects how rows are spread over output files.
type Mode int

const (
	// Combined writes one summary per run.
	Combined Mode = iota
	// PerReport writes a summary next to each input report. Reports sharing
	// a directory share that directory's summary file.
	PerReport
)

// ParseMode resolves "combined" or "per-report". Empty selects combined.
func ParseMode(name string) (Mode, error) {
	switch strings.ToLower(strings.TrimSpace(name)) {
	case "", "combined":
		return Combined, nil
	case "per-report", "per_report":
		return PerReport, nil
	default:
		return 0, fmt.Errorf("unknown output mode %q (want combined or per-report)", name)
	}
}

func (m Mode) String() string {
	if m == PerReport {
		return "per-report"
	}
	return "combined"
}

// Config controls a Writer.
type Config struct {
	Mode Mode
	// Dir overrides where the combined summary goes. Defaults to the
	// directory of the first report written.
	Dir string
	// SkipMissing drops rows whose wait event was not found.
	SkipMissing bool
}

// Writer is a RowSink that writes CSV summaries. The header is written once
// per output file, before its first row.
type Writer struct {
	mu     sync.Mutex
	layout histogram.Layout
	cfg    Config
	files  map[string]*csvFile
	order  []string
	rows   int
}

type csvFile struct {
	f *os.File
	w *csv.Writer
}

// NewWriter creates a writer for layout. Files are created lazily on the first row.
func NewWriter(layout histogram.Layout, cfg Config) *Writer {
	return &Writer{
		layout: layout,
		cfg:    cfg,
		files:  make(map[string]*csvFile),
	}
}

// Header returns the CSV header for the writer's layout.
func (w *Writer) Header() []string {
	return append(w.layout.Columns(), FilenameColumn)
}

// Add writes one row.
func (w *Writer) Add(row *model.HistogramRow) error {
	if w.cfg.SkipMissing && !row.Found {
		return nil
	}

	w.mu.Lock()
	defer w.mu.Unlock()

	out, err := w.fileFor(row.Filename)
	if err != nil {
		return err
	}

	record := make([]string, 0, histogram.ColumnCount+1)
	if len(row.Values) == histogram.ColumnCount {
		record = append(record, row.Values...)
	} else {
		record = append(record, make([]string, histogram.ColumnCount)...)
	}
	record = append(record, row.Filename)

	if err := out.w.Write(record); err != nil {
		return fmt.Errorf("write csv row: %w", err)
	}
	w.rows++
	return nil
}

// Rows returns the number of data rows written.
func (w *Writer) Rows() int {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.rows
}

// Paths returns the output files in creation order.
func (w *Writer) Paths() []string {
	w.mu.Lock()
	defer w.mu.Unlock()
	return append([]string(nil), w.order...)
}

// Close flushes and closes every output file.
func (w *Writer) Close() error {
	w.mu.Lock()
	defer w.mu.Unlock()

	var errs []error
	for _, path := range w.order {
		out := w.files[path]
		out.w.Flush()
		if err := out.w.Error(); err != nil {
			errs = append(errs, fmt.Errorf("flush %s: %w", path, err))
		}
		if err := out.f.Close(); err != nil {
			errs = append(errs, fmt.Errorf("close %s: %w", path, err))
		}
	}
	w.files = make(map[string]*csvFile)
	return errors.Join(errs...)
}

func (w *Writer) fileFor(reportPath string) (*csvFile, error) {
	path := w.pathFor(reportPath)
	if out, ok := w.files[path]; ok {
		return out, nil
	}

	f, err := os.Create(path)
	if err != nil {
		return nil, fmt.Errorf("create summary: %w", err)
	}
	out := &csvFile{f: f, w: csv.NewWriter(f)}
	if err := out.w.Write(w.Header()); err != nil {
		f.Close()
		return nil, fmt.Errorf("write csv header: %w", err)
	}

	w.files[path] = out
	w.order = append(w.order, path)
	return out, nil
}

func (w *Writer) pathFor(reportPath string) string {
	name := w.layout.OutputFileName()
	if w.cfg.Mode == PerReport {
		return filepath.Join(filepath.Dir(reportPath), name)
	}
	if len(w.order) > 0 {
		return w.order[0]
	}
	dir := w.cfg.Dir
	if dir == "" {
		dir = filepath.Dir(reportPath)
	}
	return filepath.Join(dir, name)
}
