package ingest

import (
	"errors"

	"github.com/tinytelemetry/awrhist/internal/model"
)

// RowSink receives extracted rows in report order.
type RowSink interface {
	Add(row *model.HistogramRow) error
}

// MultiSink fans each row out to every sink. All sinks see the row even when
// an earlier one fails; the errors are joined.
type MultiSink []RowSink

// Add implements RowSink.
func (m MultiSink) Add(row *model.HistogramRow) error {
	var errs []error
	for _, sink := range m {
		if sink == nil {
			continue
		}
		if err := sink.Add(row); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}

// Collector is an in-memory sink, used by the chart renderer and tests.
type Collector struct {
	Rows []*model.HistogramRow
}

// Add implements RowSink.
func (c *Collector) Add(row *model.HistogramRow) error {
	c.Rows = append(c.Rows, row)
	return nil
}
