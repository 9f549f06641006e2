package repository

import (
	"context"
	"database/sql"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"time"

	_ "modernc.org/sqlite"

	"datagov-chat/internal/model"
)

// SQLiteTurnStore is the single-file session store backend. SQLite allows
// one writer at a time, so writes are additionally serialized with a
// process-local mutex; reads go through WAL and do not block.
type SQLiteTurnStore struct {
	writeMu sync.Mutex
	db      *sql.DB
}

func NewSQLiteTurnStore(path string) (*SQLiteTurnStore, error) {
	if dir := filepath.Dir(path); dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return nil, fmt.Errorf("create sqlite dir failed: %w", err)
		}
	}

	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("open sqlite failed: %w", err)
	}
	if _, err := db.Exec("PRAGMA journal_mode=WAL"); err != nil {
		db.Close()
		return nil, fmt.Errorf("set sqlite WAL mode failed: %w", err)
	}

	ddl := `
	CREATE TABLE IF NOT EXISTS turns (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		session_id TEXT NOT NULL,
		role TEXT NOT NULL,
		content TEXT NOT NULL,
		seq INTEGER NOT NULL,
		created_at TEXT NOT NULL
	);
	CREATE INDEX IF NOT EXISTS idx_turns_session_seq ON turns(session_id, seq);

	CREATE TABLE IF NOT EXISTS conversation_events (
		id TEXT PRIMARY KEY,
		session_id TEXT NOT NULL,
		kind TEXT NOT NULL,
		role TEXT,
		content TEXT,
		created_at TEXT NOT NULL
	);
	CREATE INDEX IF NOT EXISTS idx_events_session ON conversation_events(session_id);
	`
	if _, err := db.Exec(ddl); err != nil {
		db.Close()
		return nil, fmt.Errorf("create sqlite tables failed: %w", err)
	}

	return &SQLiteTurnStore{db: db}, nil
}

func (s *SQLiteTurnStore) Append(ctx context.Context, sessionID, role, content string) (model.Turn, error) {
	s.writeMu.Lock()
	defer s.writeMu.Unlock()

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return model.Turn{}, fmt.Errorf("begin sqlite tx failed: %w", err)
	}
	defer tx.Rollback()

	var maxSeq uint64
	if err := tx.QueryRowContext(ctx,
		"SELECT COALESCE(MAX(seq), 0) FROM turns WHERE session_id = ?", sessionID,
	).Scan(&maxSeq); err != nil {
		return model.Turn{}, fmt.Errorf("read max seq failed: %w", err)
	}

	now := time.Now().UTC()
	turn := model.Turn{
		SessionID: sessionID,
		Role:      role,
		Content:   content,
		Seq:       maxSeq + 1,
		CreatedAt: now,
	}
	res, err := tx.ExecContext(ctx,
		"INSERT INTO turns (session_id, role, content, seq, created_at) VALUES (?, ?, ?, ?, ?)",
		sessionID, role, content, turn.Seq, now.Format(time.RFC3339Nano),
	)
	if err != nil {
		return model.Turn{}, fmt.Errorf("insert turn failed: %w", err)
	}
	if id, err := res.LastInsertId(); err == nil {
		turn.ID = uint(id)
	}
	if err := tx.Commit(); err != nil {
		return model.Turn{}, fmt.Errorf("commit turn failed: %w", err)
	}
	return turn, nil
}

func (s *SQLiteTurnStore) Read(ctx context.Context, sessionID string) ([]model.Turn, error) {
	rows, err := s.db.QueryContext(ctx,
		"SELECT id, session_id, role, content, seq, created_at FROM turns WHERE session_id = ? ORDER BY seq ASC",
		sessionID,
	)
	if err != nil {
		return nil, fmt.Errorf("read turns failed: %w", err)
	}
	defer rows.Close()

	var turns []model.Turn
	for rows.Next() {
		var turn model.Turn
		var createdAt string
		if err := rows.Scan(&turn.ID, &turn.SessionID, &turn.Role, &turn.Content, &turn.Seq, &createdAt); err != nil {
			return nil, fmt.Errorf("scan turn failed: %w", err)
		}
		if ts, parseErr := time.Parse(time.RFC3339Nano, createdAt); parseErr == nil {
			turn.CreatedAt = ts
		}
		turns = append(turns, turn)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate turns failed: %w", err)
	}
	return turns, nil
}

func (s *SQLiteTurnStore) Clear(ctx context.Context, sessionID string) error {
	s.writeMu.Lock()
	defer s.writeMu.Unlock()

	if _, err := s.db.ExecContext(ctx, "DELETE FROM turns WHERE session_id = ?", sessionID); err != nil {
		return fmt.Errorf("clear session turns failed: %w", err)
	}
	return nil
}

// SaveEvent persists an audit event; it lets the event worker run against
// the sqlite backend without a second database.
func (s *SQLiteTurnStore) SaveEvent(ctx context.Context, event *model.ConversationEvent) error {
	s.writeMu.Lock()
	defer s.writeMu.Unlock()

	if _, err := s.db.ExecContext(ctx,
		"INSERT INTO conversation_events (id, session_id, kind, role, content, created_at) VALUES (?, ?, ?, ?, ?, ?)",
		event.ID, event.SessionID, event.Kind, event.Role, event.Content,
		event.CreatedAt.UTC().Format(time.RFC3339Nano),
	); err != nil {
		return fmt.Errorf("insert conversation event failed: %w", err)
	}
	return nil
}

func (s *SQLiteTurnStore) Close() error {
	return s.db.Close()
}
