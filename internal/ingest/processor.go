package ingest

import (
	"fmt"
	"log"
	"time"

	"github.com/tinytelemetry/awrhist/internal/histogram"
	"github.com/tinytelemetry/awrhist/internal/model"
	"github.com/tinytelemetry/awrhist/internal/report"
	"github.com/tinytelemetry/awrhist/internal/waitevents"
)

// Config selects what a Processor extracts.
type Config struct {
	Layout  histogram.Layout
	Events  []string
	Options histogram.Options
	RunID   string
	// Now stamps rows; defaults to time.Now.
	Now func() time.Time
}

// Processor scans reports for every configured wait event and routes the
// resulting rows to a sink.
type Processor struct {
	sink     RowSink
	layout   histogram.Layout
	scanners []*histogram.Scanner
	runID    string
	now      func() time.Time
}

// ProcessResult holds the rows extracted from one report.
type ProcessResult struct {
	Report string
	Rows   []*model.HistogramRow
	Found  int
}

// Stats summarizes a run over many reports.
type Stats struct {
	Reports int
	Rows    int
	Found   int
	Missing int
}

// NewProcessor builds one scanner per wait event. Events are normalized;
// an empty list is an error.
func NewProcessor(sink RowSink, cfg Config) (*Processor, error) {
	events, err := waitevents.Normalize(cfg.Events)
	if err != nil {
		return nil, err
	}

	scanners := make([]*histogram.Scanner, 0, len(events))
	for _, event := range events {
		s, err := histogram.NewScanner(cfg.Layout, event, cfg.Options)
		if err != nil {
			return nil, fmt.Errorf("wait event %q: %w", event, err)
		}
		scanners = append(scanners, s)
	}

	now := cfg.Now
	if now == nil {
		now = time.Now
	}

	return &Processor{
		sink:     sink,
		layout:   cfg.Layout,
		scanners: scanners,
		runID:    cfg.RunID,
		now:      now,
	}, nil
}

// Layout returns the layout being extracted.
func (p *Processor) Layout() histogram.Layout { return p.layout }

// Events returns the normalized wait events in scan order.
func (p *Processor) Events() []string {
	out := make([]string, len(p.scanners))
	for i, s := range p.scanners {
		out[i] = s.Event()
	}
	return out
}

// ProcessReport scans rep once per wait event. Each scan starts from a fresh
// state; nothing carries over between events or reports.
func (p *Processor) ProcessReport(rep *report.Report) (*ProcessResult, error) {
	res := &ProcessResult{Report: rep.Path, Rows: make([]*model.HistogramRow, 0, len(p.scanners))}
	extractedAt := p.now()

	for _, s := range p.scanners {
		result := s.Scan(rep.Lines)
		row := &model.HistogramRow{
			RunID:       p.runID,
			Layout:      p.layout.String(),
			WaitEvent:   s.Event(),
			Filename:    rep.Path,
			Found:       result.Found(),
			Columns:     result.Columns(),
			Values:      result.Values(),
			ExtractedAt: extractedAt,
		}
		if row.Found {
			res.Found++
		}
		res.Rows = append(res.Rows, row)

		if p.sink != nil {
			if err := p.sink.Add(row); err != nil {
				return res, fmt.Errorf("write row for %q in %s: %w", s.Event(), rep.Path, err)
			}
		}
	}
	return res, nil
}

// ProcessAll runs ProcessReport over reports in order and stops at the first sink error.
func (p *Processor) ProcessAll(reports []*report.Report) (Stats, error) {
	var stats Stats
	for _, rep := range reports {
		res, err := p.ProcessReport(rep)
		if res != nil {
			stats.Rows += len(res.Rows)
			stats.Found += res.Found
			stats.Missing += len(res.Rows) - res.Found
		}
		if err != nil {
			return stats, err
		}
		stats.Reports++
		if res.Found < len(res.Rows) {
			log.Printf("ingest: %s: %d/%d wait events not found in %s section", rep.Path, len(res.Rows)-res.Found, len(res.Rows), p.layout)
		}
	}
	return stats, nil
}
