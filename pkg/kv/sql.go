package kv

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	_ "github.com/go-sql-driver/mysql"
	_ "modernc.org/sqlite"
)

var schema = map[string]string{
	"sqlite": `CREATE TABLE IF NOT EXISTS kv_entries (
    entry_key TEXT PRIMARY KEY,
    payload BLOB NOT NULL,
    updated_at INTEGER NOT NULL
)`,
	"mysql": `CREATE TABLE IF NOT EXISTS kv_entries (
    entry_key VARCHAR(255) PRIMARY KEY,
    payload LONGBLOB NOT NULL,
    updated_at BIGINT NOT NULL
)`,
}

var upsert = map[string]string{
	"sqlite": `INSERT INTO kv_entries (entry_key, payload, updated_at) VALUES (?, ?, ?)
    ON CONFLICT(entry_key) DO UPDATE SET
      payload = excluded.payload,
      updated_at = excluded.updated_at`,
	"mysql": `INSERT INTO kv_entries (entry_key, payload, updated_at) VALUES (?, ?, ?)
    ON DUPLICATE KEY UPDATE
      payload = VALUES(payload),
      updated_at = VALUES(updated_at)`,
}

// SQL stores slots in a kv_entries table of a SQLite or MySQL database.
type SQL struct {
	db      *sql.DB
	dialect string
}

func OpenSQL(driver, dsn string) (*SQL, error) {
	dialect := strings.ToLower(strings.TrimSpace(driver))
	if _, ok := schema[dialect]; !ok {
		return nil, fmt.Errorf("unsupported sql driver %q", driver)
	}
	if strings.TrimSpace(dsn) == "" {
		return nil, fmt.Errorf("%s dsn is required", dialect)
	}
	if dialect == "sqlite" && !strings.Contains(dsn, "?") {
		dsn += "?_pragma=journal_mode(WAL)&_pragma=busy_timeout(5000)"
	}

	db, err := sql.Open(dialect, dsn)
	if err != nil {
		return nil, fmt.Errorf("open %s db: %w", dialect, err)
	}
	if err := db.Ping(); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("ping %s db: %w", dialect, err)
	}

	s := &SQL{db: db, dialect: dialect}
	if err := s.migrate(context.Background()); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("run migrations: %w", err)
	}
	return s, nil
}

func (s *SQL) migrate(ctx context.Context) error {
	_, err := s.db.ExecContext(ctx, schema[s.dialect])
	return err
}

func (s *SQL) Get(ctx context.Context, key string) ([]byte, bool, error) {
	var payload []byte
	err := s.db.QueryRowContext(ctx, `SELECT payload FROM kv_entries WHERE entry_key = ?`, key).Scan(&payload)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, false, nil
		}
		return nil, false, fmt.Errorf("get %s: %w", key, err)
	}
	return payload, true, nil
}

func (s *SQL) Set(ctx context.Context, key string, value []byte) error {
	if _, err := s.db.ExecContext(ctx, upsert[s.dialect], key, value, time.Now().UTC().UnixMilli()); err != nil {
		return fmt.Errorf("set %s: %w", key, err)
	}
	return nil
}

func (s *SQL) Delete(ctx context.Context, key string) error {
	if _, err := s.db.ExecContext(ctx, `DELETE FROM kv_entries WHERE entry_key = ?`, key); err != nil {
		return fmt.Errorf("delete %s: %w", key, err)
	}
	return nil
}

func (s *SQL) Close() error {
	if s == nil || s.db == nil {
		return nil
	}
	return s.db.Close()
}
