package duckdb

import (
	"context"
	"encoding/json"
	"fmt"
	"log"
	"strconv"
	"sync"
	"time"

	"github.com/tinytelemetry/awrhist/internal/model"
)

// DefaultBatchSize is the number of rows buffered before a flush.
const DefaultBatchSize = 500

// InsertBuffer batches rows and writes them to the store in transactions.
// It implements the ingest row sink contract.
type InsertBuffer struct {
	writer   model.RowWriter
	mu       sync.Mutex
	pending  []*HistogramRow
	maxBatch int
	written  int
}

// InsertBufferConfig holds tunable parameters for the insert buffer.
type InsertBufferConfig struct {
	BatchSize int
}

// NewInsertBuffer creates a buffer that flushes to writer every BatchSize rows.
func NewInsertBuffer(writer model.RowWriter, conf ...InsertBufferConfig) *InsertBuffer {
	batchSize := DefaultBatchSize
	if len(conf) > 0 && conf[0].BatchSize > 0 {
		batchSize = conf[0].BatchSize
	}
	return &InsertBuffer{
		writer:   writer,
		pending:  make([]*HistogramRow, 0, batchSize),
		maxBatch: batchSize,
	}
}

// Add queues a row and flushes when the batch is full.
func (b *InsertBuffer) Add(row *HistogramRow) error {
	b.mu.Lock()
	b.pending = append(b.pending, row)
	full := len(b.pending) >= b.maxBatch
	b.mu.Unlock()

	if full {
		return b.Flush()
	}
	return nil
}

// Flush writes all pending rows.
func (b *InsertBuffer) Flush() error {
	b.mu.Lock()
	batch := b.pending
	b.pending = make([]*HistogramRow, 0, b.maxBatch)
	b.mu.Unlock()

	if len(batch) == 0 {
		return nil
	}
	if err := b.writer.InsertRows(batch); err != nil {
		return fmt.Errorf("flush %d rows: %w", len(batch), err)
	}

	b.mu.Lock()
	b.written += len(batch)
	b.mu.Unlock()
	return nil
}

// Written returns the number of rows flushed so far.
func (b *InsertBuffer) Written() int {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.written
}

// InsertRows appends rows in a single transaction. If the batch fails, it is
// retried row by row to salvage as many rows as possible.
func (s *Store) InsertRows(rows []*HistogramRow) error {
	if len(rows) == 0 {
		return nil
	}

	ctx, cancel := s.queryCtx()
	defer cancel()

	s.mu.Lock()
	defer s.mu.Unlock()

	err := s.insertRowsTx(ctx, rows)
	if err == nil {
		return nil
	}

	var failed int
	for _, r := range rows {
		if rerr := s.insertRowsTx(ctx, []*HistogramRow{r}); rerr != nil {
			failed++
			log.Printf("duckdb: dropping row (event=%s file=%s): %v", r.WaitEvent, r.Filename, rerr)
		}
	}
	if failed == len(rows) {
		return fmt.Errorf("insert rows: %w", err)
	}
	if failed > 0 {
		log.Printf("duckdb: batch partially failed: %d/%d rows dropped", failed, len(rows))
	}
	return nil
}

func (s *Store) insertRowsTx(ctx context.Context, rows []*HistogramRow) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	committed := false
	defer func() {
		if !committed {
			tx.Rollback()
		}
	}()

	stmt, err := tx.PrepareContext(ctx, `INSERT INTO histogram_rows (run_id, layout, wait_event, filename, found, event_name, wait_count, wait_count_num, columns_json, values_json, extracted_at) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`)
	if err != nil {
		return err
	}
	defer stmt.Close()

	for _, r := range rows {
		columnsJSON, err := marshalStrings(r.Columns)
		if err != nil {
			return err
		}
		valuesJSON, err := marshalStrings(r.Values)
		if err != nil {
			return err
		}

		var eventName, count string
		if len(r.Values) > 1 {
			eventName, count = r.Values[0], r.Values[1]
		}
		var countNum any
		if n, perr := strconv.ParseFloat(count, 64); perr == nil {
			countNum = n
		}

		extractedAt := r.ExtractedAt
		if extractedAt.IsZero() {
			extractedAt = time.Now()
		}

		if _, err := stmt.ExecContext(ctx,
			r.RunID, r.Layout, r.WaitEvent, r.Filename, r.Found,
			eventName, count, countNum, columnsJSON, valuesJSON, extractedAt,
		); err != nil {
			return fmt.Errorf("row insert: %w", err)
		}
	}

	if err := tx.Commit(); err != nil {
		return err
	}
	committed = true
	return nil
}

func marshalStrings(values []string) (string, error) {
	if values == nil {
		return "[]", nil
	}
	data, err := json.Marshal(values)
	if err != nil {
		return "", fmt.Errorf("marshal row values: %w", err)
	}
	return string(data), nil
}
