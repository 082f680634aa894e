package duckdb

import "github.com/tinytelemetry/awrhist/internal/model"

// Type aliases re-export model types so Store method signatures read naturally.
type HistogramRow = model.HistogramRow
type RowFilter = model.RowFilter
type EventSummary = model.EventSummary
