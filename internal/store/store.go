// Package store persists user and voice records in SQLite.
package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/rs/zerolog/log"
	_ "modernc.org/sqlite"

	"github.com/danielavelez12/crosstalk/internal/domain"
)

var ErrNotFound = errors.New("not found")

type Store struct {
	db *sql.DB
}

// Open initializes the database file and schema.
func Open(ctx context.Context, path string) (*Store, error) {
	dir := filepath.Dir(path)
	if dir != "." && dir != "" {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return nil, fmt.Errorf("create data dir: %w", err)
		}
	}

	dsn := fmt.Sprintf("file:%s?_pragma=journal_mode(WAL)&_pragma=foreign_keys(ON)", path)
	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, fmt.Errorf("open sqlite: %w", err)
	}
	if err := db.PingContext(ctx); err != nil {
		db.Close()
		return nil, fmt.Errorf("ping sqlite: %w", err)
	}

	s := &Store{db: db}
	if err := s.initSchema(ctx); err != nil {
		db.Close()
		return nil, err
	}
	log.Info().Str("module", "store").Str("path", path).Msg("store opened")
	return s, nil
}

func (s *Store) initSchema(ctx context.Context) error {
	ddl := `
CREATE TABLE IF NOT EXISTS users (
    id TEXT PRIMARY KEY,
    username TEXT NOT NULL UNIQUE,
    language TEXT NOT NULL,
    created_at TIMESTAMP NOT NULL
);
CREATE TABLE IF NOT EXISTS voices (
    id TEXT PRIMARY KEY,
    engine_voice_id TEXT NOT NULL,
    user_id TEXT NOT NULL,
    name TEXT NOT NULL,
    created_at TIMESTAMP NOT NULL,
    FOREIGN KEY(user_id) REFERENCES users(id) ON DELETE CASCADE
);
CREATE INDEX IF NOT EXISTS idx_voices_user ON voices(user_id, created_at);
`
	_, err := s.db.ExecContext(ctx, ddl)
	return err
}

func (s *Store) Close() error {
	return s.db.Close()
}

func (s *Store) CreateUser(ctx context.Context, u *domain.User) error {
	_, err := s.db.ExecContext(ctx,
		`INSERT INTO users (id, username, language, created_at) VALUES (?, ?, ?, ?)`,
		string(u.ID), u.Username, u.Language, u.CreatedAt,
	)
	if err != nil {
		return fmt.Errorf("create user: %w", err)
	}
	return nil
}

func (s *Store) GetUser(ctx context.Context, id domain.UserID) (*domain.User, error) {
	row := s.db.QueryRowContext(ctx,
		`SELECT id, username, language, created_at FROM users WHERE id = ?`, string(id))
	return scanUser(row)
}

func (s *Store) GetUserByName(ctx context.Context, username string) (*domain.User, error) {
	row := s.db.QueryRowContext(ctx,
		`SELECT id, username, language, created_at FROM users WHERE username = ?`, username)
	return scanUser(row)
}

func scanUser(row *sql.Row) (*domain.User, error) {
	var u domain.User
	var id string
	var createdAt time.Time
	if err := row.Scan(&id, &u.Username, &u.Language, &createdAt); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("scan user: %w", err)
	}
	u.ID = domain.UserID(id)
	u.CreatedAt = createdAt
	return &u, nil
}

func (s *Store) UpdateLanguage(ctx context.Context, id domain.UserID, language string) error {
	res, err := s.db.ExecContext(ctx,
		`UPDATE users SET language = ? WHERE id = ?`, language, string(id))
	if err != nil {
		return fmt.Errorf("update language: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return ErrNotFound
	}
	return nil
}

func (s *Store) CreateVoice(ctx context.Context, v *domain.Voice) error {
	_, err := s.db.ExecContext(ctx,
		`INSERT INTO voices (id, engine_voice_id, user_id, name, created_at) VALUES (?, ?, ?, ?, ?)`,
		string(v.ID), v.EngineVoiceID, string(v.UserID), v.Name, v.CreatedAt,
	)
	if err != nil {
		return fmt.Errorf("create voice: %w", err)
	}
	return nil
}

// VoiceForUser returns the user's most recent voice.
func (s *Store) VoiceForUser(ctx context.Context, userID domain.UserID) (*domain.Voice, error) {
	row := s.db.QueryRowContext(ctx,
		`SELECT id, engine_voice_id, user_id, name, created_at FROM voices
		 WHERE user_id = ? ORDER BY created_at DESC LIMIT 1`, string(userID))
	var v domain.Voice
	var id, uid string
	var createdAt time.Time
	if err := row.Scan(&id, &v.EngineVoiceID, &uid, &v.Name, &createdAt); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("scan voice: %w", err)
	}
	v.ID = domain.VoiceID(id)
	v.UserID = domain.UserID(uid)
	v.CreatedAt = createdAt
	return &v, nil
}
