package histogram

// Result is the extraction output for one (report, wait event) pair.
//
// It is either empty (no column header was validated) or carries all ten
// layout columns, with empty values when the event row was not found.
type Result struct {
	layout Layout
	header bool
	found  bool
	values [ColumnCount]string
}

func newResult(layout Layout) Result {
	return Result{layout: layout}
}

// Layout returns the layout the result was extracted with.
func (r Result) Layout() Layout { return r.layout }

// Empty reports whether no column header was ever validated.
func (r Result) Empty() bool { return !r.header }

// Found reports whether the wait event data row was extracted.
func (r Result) Found() bool { return r.found }

// Len returns the number of columns: zero or ten.
func (r Result) Len() int {
	if !r.header {
		return 0
	}
	return ColumnCount
}

// Columns returns the column names in order, or nil for an empty result.
func (r Result) Columns() []string {
	if !r.header {
		return nil
	}
	return r.layout.Columns()
}

// Values returns the column values in column order, or nil for an empty result.
func (r Result) Values() []string {
	if !r.header {
		return nil
	}
	out := make([]string, ColumnCount)
	copy(out, r.values[:])
	return out
}

// Get returns the value of column name and whether the column is present.
func (r Result) Get(name string) (string, bool) {
	if !r.header {
		return "", false
	}
	for i, col := range r.layout.columns() {
		if col == name {
			return r.values[i], true
		}
	}
	return "", false
}

// Event returns the extracted event column.
func (r Result) Event() string { return r.values[0] }

// Count returns the normalized count column ("Waits" or "32m").
func (r Result) Count() string { return r.values[1] }

// Buckets returns the eight bucket cells in column order.
func (r Result) Buckets() []string {
	out := make([]string, BucketCount)
	copy(out, r.values[2:])
	return out
}

// Map returns the result as a column -> value map. Column order is lost; use
// Columns and Values when order matters.
func (r Result) Map() map[string]string {
	out := make(map[string]string, r.Len())
	for i, col := range r.Columns() {
		out[col] = r.values[i]
	}
	return out
}
