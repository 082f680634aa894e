package duckdb

import (
	"database/sql"
	"encoding/json"
	"fmt"
	"log"
	"regexp"
	"strings"
)

// DefaultListLimit caps ListRows when the filter does not set a limit.
const DefaultListLimit = 1000

// maxQueryRows caps the result size of ExecuteQuery.
const maxQueryRows = 1000

// dangerousKeywordPattern matches write or side-effecting SQL keywords at
// word boundaries, so "RESET" does not trip on "SET".
var dangerousKeywordPattern = regexp.MustCompile(
	`(?i)\b(INSERT|UPDATE|DELETE|DROP|CREATE|ALTER|TRUNCATE|COPY|ATTACH|DETACH|LOAD|EXPORT|IMPORT|INSTALL|CALL|EXECUTE|PRAGMA|SET)\b`,
)

var blockCommentPattern = regexp.MustCompile(`/\*[\s\S]*?\*/`)

// stripSQLComments removes -- line comments and /* */ block comments.
func stripSQLComments(query string) string {
	cleaned := blockCommentPattern.ReplaceAllString(query, " ")
	var b strings.Builder
	for _, line := range strings.Split(cleaned, "\n") {
		if idx := strings.Index(line, "--"); idx >= 0 {
			line = line[:idx]
		}
		b.WriteString(line)
		b.WriteByte('\n')
	}
	return b.String()
}

// rowWhere builds a WHERE clause for filter. The clause is empty when the
// filter matches everything.
func rowWhere(filter RowFilter) (string, []any) {
	var conds []string
	var args []any
	add := func(col, val string) {
		if val == "" {
			return
		}
		conds = append(conds, col+" = ?")
		args = append(args, val)
	}
	add("layout", filter.Layout)
	add("wait_event", filter.WaitEvent)
	add("filename", filter.Filename)
	add("run_id", filter.RunID)

	if len(conds) == 0 {
		return "", nil
	}
	return " WHERE " + strings.Join(conds, " AND "), args
}

// RowCount returns the number of stored rows matching filter.
func (s *Store) RowCount(filter RowFilter) (int64, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	ctx, cancel := s.queryCtx()
	defer cancel()

	where, args := rowWhere(filter)
	var n int64
	if err := s.db.QueryRowContext(ctx, "SELECT COUNT(*) FROM histogram_rows"+where, args...).Scan(&n); err != nil {
		return 0, err
	}
	return n, nil
}

// ListRows returns stored rows matching filter in insertion order.
func (s *Store) ListRows(filter RowFilter) ([]HistogramRow, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	ctx, cancel := s.queryCtx()
	defer cancel()

	limit := filter.Limit
	if limit <= 0 {
		limit = DefaultListLimit
	}

	where, args := rowWhere(filter)
	args = append(args, limit)
	query := "SELECT run_id, layout, wait_event, filename, found, columns_json, values_json, extracted_at FROM histogram_rows" +
		where + " ORDER BY id LIMIT ?"

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []HistogramRow
	for rows.Next() {
		var r HistogramRow
		var columnsJSON, valuesJSON string
		if err := rows.Scan(&r.RunID, &r.Layout, &r.WaitEvent, &r.Filename, &r.Found, &columnsJSON, &valuesJSON, &r.ExtractedAt); err != nil {
			log.Printf("duckdb scan error (ListRows): %v", err)
			continue
		}
		r.Columns = unmarshalStrings(columnsJSON)
		r.Values = unmarshalStrings(valuesJSON)
		out = append(out, r)
	}
	return out, rows.Err()
}

// EventSummaries aggregates stored rows per wait event. An empty layout
// aggregates across both layouts.
func (s *Store) EventSummaries(layout string) ([]EventSummary, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	ctx, cancel := s.queryCtx()
	defer cancel()

	where, args := rowWhere(RowFilter{Layout: layout})
	query := `SELECT wait_event,
		COUNT(DISTINCT filename) AS reports,
		CAST(SUM(CASE WHEN found THEN 1 ELSE 0 END) AS BIGINT) AS found,
		COALESCE(SUM(wait_count_num), 0) AS total
		FROM histogram_rows` + where + `
		GROUP BY wait_event
		ORDER BY total DESC, wait_event`

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []EventSummary
	for rows.Next() {
		var es EventSummary
		if err := rows.Scan(&es.WaitEvent, &es.Reports, &es.Found, &es.TotalCount); err != nil {
			log.Printf("duckdb scan error (EventSummaries): %v", err)
			continue
		}
		out = append(out, es)
	}
	return out, rows.Err()
}

// ExecuteQuery runs a read-only SQL query and returns results as maps.
// Only SELECT/WITH queries are allowed.
func (s *Store) ExecuteQuery(query string) ([]map[string]interface{}, error) {
	trimmed := strings.TrimSpace(query)

	if strings.Contains(trimmed, ";") {
		return nil, fmt.Errorf("query must not contain semicolons")
	}

	stripped := strings.TrimSpace(stripSQLComments(trimmed))
	upper := strings.ToUpper(stripped)
	if !strings.HasPrefix(upper, "SELECT") && !strings.HasPrefix(upper, "WITH") {
		return nil, fmt.Errorf("only SELECT/WITH queries are allowed")
	}
	if match := dangerousKeywordPattern.FindString(stripped); match != "" {
		return nil, fmt.Errorf("query contains disallowed keyword: %s", strings.ToUpper(match))
	}

	s.mu.RLock()
	defer s.mu.RUnlock()

	ctx, cancel := s.queryCtx()
	defer cancel()
	rows, err := s.db.QueryContext(ctx, trimmed)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	columns, err := rows.Columns()
	if err != nil {
		return nil, err
	}

	var results []map[string]interface{}
	for rows.Next() && len(results) < maxQueryRows {
		values := make([]interface{}, len(columns))
		ptrs := make([]interface{}, len(columns))
		for i := range values {
			ptrs[i] = &values[i]
		}
		if err := rows.Scan(ptrs...); err != nil {
			log.Printf("duckdb scan error (ExecuteQuery): %v", err)
			continue
		}
		row := make(map[string]interface{}, len(columns))
		for i, col := range columns {
			row[col] = values[i]
		}
		results = append(results, row)
	}
	return results, rows.Err()
}

// TableRowCounts returns the row count of each known table.
func (s *Store) TableRowCounts() (map[string]int64, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	ctx, cancel := s.queryCtx()
	defer cancel()

	tables := []string{"histogram_rows", "schema_migrations"}
	counts := make(map[string]int64, len(tables))
	for _, table := range tables {
		var n int64
		// Table names are constants.
		if err := s.db.QueryRowContext(ctx, fmt.Sprintf("SELECT COUNT(*) FROM %s", table)).Scan(&n); err != nil {
			if err == sql.ErrNoRows {
				continue
			}
			return nil, fmt.Errorf("count %s: %w", table, err)
		}
		counts[table] = n
	}
	return counts, nil
}

// SchemaDescription describes the histogram table for API clients writing
// ad-hoc queries.
func (s *Store) SchemaDescription() string {
	return `Table 'histogram_rows': id (BIGINT), run_id (VARCHAR), layout (VARCHAR: total_waits/up_to_32ms), ` +
		`wait_event (VARCHAR), filename (VARCHAR), found (BOOLEAN), event_name (VARCHAR), ` +
		`wait_count (VARCHAR), wait_count_num (DOUBLE), columns_json (VARCHAR), values_json (VARCHAR), ` +
		`extracted_at (TIMESTAMP).`
}

func unmarshalStrings(s string) []string {
	if s == "" || s == "[]" {
		return nil
	}
	var out []string
	if err := json.Unmarshal([]byte(s), &out); err != nil {
		log.Printf("duckdb: bad json array %q: %v", s, err)
		return nil
	}
	return out
}
