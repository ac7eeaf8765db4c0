// Package sqlite provides a SQLite-backed session store.
package sqlite

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"path/filepath"
	"strings"
	"time"

	"github.com/aretw0/gamesession/pkg/domain"
	_ "modernc.org/sqlite"
)

const schema = `CREATE TABLE IF NOT EXISTS sessions (
	player     TEXT PRIMARY KEY,
	record     TEXT NOT NULL,
	updated_at INTEGER NOT NULL
)`

// Store persists one row per player.
type Store struct {
	sqlDB *sql.DB
}

// Open opens a SQLite session store at path and creates its table.
func Open(path string) (*Store, error) {
	if strings.TrimSpace(path) == "" {
		return nil, fmt.Errorf("storage path is required")
	}
	dsn := filepath.Clean(path) + "?_pragma=journal_mode(WAL)&_pragma=busy_timeout(5000)"
	sqlDB, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, fmt.Errorf("open sqlite db: %w", err)
	}
	if err := sqlDB.Ping(); err != nil {
		_ = sqlDB.Close()
		return nil, fmt.Errorf("ping sqlite db: %w", err)
	}
	if _, err := sqlDB.Exec(schema); err != nil {
		_ = sqlDB.Close()
		return nil, fmt.Errorf("create sessions table: %w", err)
	}
	return &Store{sqlDB: sqlDB}, nil
}

// Close closes the SQLite handle.
func (s *Store) Close() error {
	if s == nil || s.sqlDB == nil {
		return nil
	}
	return s.sqlDB.Close()
}

// Save upserts the player's record.
func (s *Store) Save(ctx context.Context, player domain.ActorID, rec *domain.SessionRecord) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	data, err := json.Marshal(rec)
	if err != nil {
		return fmt.Errorf("marshal session record: %w", err)
	}
	_, err = s.sqlDB.ExecContext(ctx,
		`INSERT INTO sessions (player, record, updated_at) VALUES (?, ?, ?)
		 ON CONFLICT(player) DO UPDATE SET record = excluded.record, updated_at = excluded.updated_at`,
		string(player), string(data), time.Now().UTC().UnixMilli(),
	)
	if err != nil {
		return fmt.Errorf("save session %s: %w", player, err)
	}
	return nil
}

// Load returns the player's record or domain.ErrSessionNotFound.
func (s *Store) Load(ctx context.Context, player domain.ActorID) (*domain.SessionRecord, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	var raw string
	err := s.sqlDB.QueryRowContext(ctx, `SELECT record FROM sessions WHERE player = ?`, string(player)).Scan(&raw)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, domain.ErrSessionNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("load session %s: %w", player, err)
	}

	var rec domain.SessionRecord
	if err := json.Unmarshal([]byte(raw), &rec); err != nil {
		return nil, fmt.Errorf("unmarshal session %s: %w", player, err)
	}
	return &rec, nil
}

// List returns all players ordered by id.
func (s *Store) List(ctx context.Context) ([]domain.ActorID, error) {
	rows, err := s.sqlDB.QueryContext(ctx, `SELECT player FROM sessions ORDER BY player`)
	if err != nil {
		return nil, fmt.Errorf("list sessions: %w", err)
	}
	defer rows.Close()

	players := make([]domain.ActorID, 0)
	for rows.Next() {
		var p string
		if err := rows.Scan(&p); err != nil {
			return nil, fmt.Errorf("scan session row: %w", err)
		}
		players = append(players, domain.ActorID(p))
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate session rows: %w", err)
	}
	return players, nil
}
