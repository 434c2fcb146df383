package storage

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"slackpeek/internal/metrics"

	_ "github.com/lib/pq"
)

// PostgresStore persists fetched custom emoji per workspace so the
// emoji cache can warm-start without hitting the Slack API.
type PostgresStore struct {
	db *sql.DB
}

func NewPostgresStore(databaseURL string) (*PostgresStore, error) {
	db, err := sql.Open("postgres", databaseURL)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to ping database: %w", err)
	}

	store := &PostgresStore{db: db}
	if err := store.initSchema(); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to initialize schema: %w", err)
	}

	return store, nil
}

func (s *PostgresStore) initSchema() error {
	createTableSQL := `
		CREATE TABLE IF NOT EXISTS custom_emoji (
			workspace_id VARCHAR(255) NOT NULL,
			name VARCHAR(255) NOT NULL,
			image_url TEXT NOT NULL,
			fetched_at TIMESTAMPTZ NOT NULL,
			PRIMARY KEY (workspace_id, name)
		);`

	if _, err := s.db.Exec(createTableSQL); err != nil {
		return fmt.Errorf("failed to create custom_emoji table: %w", err)
	}

	indexSQL := `CREATE INDEX IF NOT EXISTS idx_custom_emoji_workspace ON custom_emoji (workspace_id);`
	if _, err := s.db.Exec(indexSQL); err != nil {
		return fmt.Errorf("failed to create workspace index: %w", err)
	}

	return nil
}

// SaveCustomEmoji replaces the persisted emoji set of one workspace
// with the given snapshot in a single transaction.
func (s *PostgresStore) SaveCustomEmoji(ctx context.Context, workspaceID string, custom map[string]string, fetchedAt time.Time) error {
	start := time.Now()
	defer func() {
		metrics.DatabaseOperationDuration.WithLabelValues("save_custom_emoji").Observe(time.Since(start).Seconds())
	}()

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		metrics.DatabaseOperations.WithLabelValues("save_custom_emoji", "error").Inc()
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	if _, err := tx.ExecContext(ctx, `DELETE FROM custom_emoji WHERE workspace_id = $1`, workspaceID); err != nil {
		metrics.DatabaseOperations.WithLabelValues("save_custom_emoji", "error").Inc()
		return fmt.Errorf("failed to clear workspace emoji: %w", err)
	}

	stmt, err := tx.PrepareContext(ctx,
		`INSERT INTO custom_emoji (workspace_id, name, image_url, fetched_at) VALUES ($1, $2, $3, $4)`)
	if err != nil {
		metrics.DatabaseOperations.WithLabelValues("save_custom_emoji", "error").Inc()
		return fmt.Errorf("failed to prepare insert: %w", err)
	}
	defer stmt.Close()

	for name, url := range custom {
		if _, err := stmt.ExecContext(ctx, workspaceID, name, url, fetchedAt); err != nil {
			metrics.DatabaseOperations.WithLabelValues("save_custom_emoji", "error").Inc()
			return fmt.Errorf("failed to insert emoji %q: %w", name, err)
		}
	}

	if err := tx.Commit(); err != nil {
		metrics.DatabaseOperations.WithLabelValues("save_custom_emoji", "error").Inc()
		return fmt.Errorf("failed to commit: %w", err)
	}

	metrics.DatabaseOperations.WithLabelValues("save_custom_emoji", "success").Inc()
	return nil
}

// LoadCustomEmoji returns the persisted emoji set of one workspace and
// when it was fetched. A workspace with nothing persisted returns an
// empty map and zero time.
func (s *PostgresStore) LoadCustomEmoji(ctx context.Context, workspaceID string) (map[string]string, time.Time, error) {
	start := time.Now()
	defer func() {
		metrics.DatabaseOperationDuration.WithLabelValues("load_custom_emoji").Observe(time.Since(start).Seconds())
	}()

	rows, err := s.db.QueryContext(ctx,
		`SELECT name, image_url, fetched_at FROM custom_emoji WHERE workspace_id = $1`, workspaceID)
	if err != nil {
		metrics.DatabaseOperations.WithLabelValues("load_custom_emoji", "error").Inc()
		return nil, time.Time{}, fmt.Errorf("failed to query workspace emoji: %w", err)
	}
	defer rows.Close()

	custom := make(map[string]string)
	var fetchedAt time.Time
	for rows.Next() {
		var name, url string
		var rowFetched time.Time
		if err := rows.Scan(&name, &url, &rowFetched); err != nil {
			metrics.DatabaseOperations.WithLabelValues("load_custom_emoji", "error").Inc()
			return nil, time.Time{}, fmt.Errorf("failed to scan emoji row: %w", err)
		}
		custom[name] = url
		if rowFetched.After(fetchedAt) {
			fetchedAt = rowFetched
		}
	}
	if err := rows.Err(); err != nil {
		metrics.DatabaseOperations.WithLabelValues("load_custom_emoji", "error").Inc()
		return nil, time.Time{}, fmt.Errorf("failed to iterate emoji rows: %w", err)
	}

	metrics.DatabaseOperations.WithLabelValues("load_custom_emoji", "success").Inc()
	return custom, fetchedAt, nil
}

// ListWorkspaces returns every workspace with persisted emoji.
func (s *PostgresStore) ListWorkspaces(ctx context.Context) ([]string, error) {
	rows, err := s.db.QueryContext(ctx, `SELECT DISTINCT workspace_id FROM custom_emoji`)
	if err != nil {
		metrics.DatabaseOperations.WithLabelValues("list_workspaces", "error").Inc()
		return nil, fmt.Errorf("failed to list workspaces: %w", err)
	}
	defer rows.Close()

	var ids []string
	for rows.Next() {
		var id string
		if err := rows.Scan(&id); err != nil {
			metrics.DatabaseOperations.WithLabelValues("list_workspaces", "error").Inc()
			return nil, fmt.Errorf("failed to scan workspace id: %w", err)
		}
		ids = append(ids, id)
	}
	if err := rows.Err(); err != nil {
		metrics.DatabaseOperations.WithLabelValues("list_workspaces", "error").Inc()
		return nil, fmt.Errorf("failed to iterate workspace ids: %w", err)
	}

	metrics.DatabaseOperations.WithLabelValues("list_workspaces", "success").Inc()
	return ids, nil
}

func (s *PostgresStore) Close() error {
	return s.db.Close()
}
