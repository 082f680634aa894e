package duckdb

import (
	"fmt"
	"log"
	"time"
)

// RetentionConfig controls pruning of old extraction runs.
type RetentionConfig struct {
	// RetentionDays drops rows extracted more than this many days ago.
	// Zero or negative disables pruning.
	RetentionDays int
	// Now overrides the clock in tests.
	Now func() time.Time
}

// DeleteBefore removes rows extracted before cutoff and returns the number deleted.
func (s *Store) DeleteBefore(cutoff time.Time) (int64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	ctx, cancel := s.queryCtx()
	defer cancel()

	res, err := s.db.ExecContext(ctx, "DELETE FROM histogram_rows WHERE extracted_at < ?", cutoff)
	if err != nil {
		return 0, fmt.Errorf("delete before %s: %w", cutoff.Format(time.RFC3339), err)
	}
	return res.RowsAffected()
}

// Prune applies the retention policy once. It is run before a new
// extraction so the persistent store does not grow without bound.
func (s *Store) Prune(conf RetentionConfig) (int64, error) {
	if conf.RetentionDays <= 0 {
		return 0, nil
	}
	now := time.Now
	if conf.Now != nil {
		now = conf.Now
	}
	cutoff := now().Add(-time.Duration(conf.RetentionDays) * 24 * time.Hour)

	n, err := s.DeleteBefore(cutoff)
	if err != nil {
		return 0, err
	}
	if n > 0 {
		log.Printf("duckdb: retention deleted %d rows (older than %d days)", n, conf.RetentionDays)
	}
	return n, nil
}
