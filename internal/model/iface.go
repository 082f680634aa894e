package model

// RowWriter accepts extracted rows for persistence.
type RowWriter interface {
	InsertRows(rows []*HistogramRow) error
}

// RowQuerier provides read-only queries over stored rows.
type RowQuerier interface {
	RowCount(filter RowFilter) (int64, error)
	ListRows(filter RowFilter) ([]HistogramRow, error)
	EventSummaries(layout string) ([]EventSummary, error)
}

// SchemaQuerier provides schema introspection and arbitrary read-only queries.
type SchemaQuerier interface {
	ExecuteQuery(query string) ([]map[string]interface{}, error)
	TableRowCounts() (map[string]int64, error)
}

// ReadAPI is the unified read contract for the HTTP API.
type ReadAPI interface {
	RowQuerier
	SchemaQuerier
}
