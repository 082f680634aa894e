package model

import "time"

// HistogramRow is one extracted (report, wait event) row.
// It is the canonical type for CSV output, storage and the HTTP API.
type HistogramRow struct {
	RunID       string
	Layout      string    // total_waits / up_to_32ms
	WaitEvent   string    // configured event name that was searched for
	Filename    string    // source report path as given on the command line
	Found       bool      // false when the event row was not in the report
	Columns     []string  // layout columns, empty when no header was validated
	Values      []string  // values aligned with Columns
	ExtractedAt time.Time
}

// Value returns the value of column name, or "" when absent.
func (r *HistogramRow) Value(name string) string {
	for i, col := range r.Columns {
		if col == name && i < len(r.Values) {
			return r.Values[i]
		}
	}
	return ""
}

// RowFilter selects stored rows. Empty fields match everything.
type RowFilter struct {
	Layout    string
	WaitEvent string
	Filename  string
	RunID     string
	Limit     int
}

// EventSummary aggregates one wait event across reports.
type EventSummary struct {
	WaitEvent  string
	Reports    int64
	Found      int64
	TotalCount float64
}
