package metrics

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/charmbracelet/log"
)

// store keeps lifetime counters in the metrics table.
type store struct {
	db *sql.DB
}

// New returns a MetricsStore backed by db.
func New(db *sql.DB) MetricsStore {
	return &store{db: db}
}

// Increment adds one to key, creating the counter on first use.
func (s *store) Increment(ctx context.Context, key string) error {
	_, err := s.db.ExecContext(ctx,
		`INSERT INTO metrics (key, value) VALUES (?, 1)
		ON CONFLICT(key) DO UPDATE SET value = value + 1`,
		key,
	)
	if err != nil {
		return fmt.Errorf("increment metric %s: %w", key, err)
	}
	log.Debug("Incremented metric", "key", key)
	return nil
}

// GetAll returns every stored counter by key.
func (s *store) GetAll(ctx context.Context) (map[string]int, error) {
	rows, err := s.db.QueryContext(ctx, `SELECT key, value FROM metrics`)
	if err != nil {
		return nil, fmt.Errorf("query metrics: %w", err)
	}
	defer rows.Close()

	totals := make(map[string]int)
	for rows.Next() {
		var key string
		var value int
		if err := rows.Scan(&key, &value); err != nil {
			return nil, fmt.Errorf("scan metric: %w", err)
		}
		totals[key] = value
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate metrics: %w", err)
	}
	return totals, nil
}
