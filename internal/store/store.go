package store

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strconv"
	"time"

	_ "modernc.org/sqlite"

	"github.com/pedantalk/pedantalk/internal/config"
	"github.com/pedantalk/pedantalk/internal/podcast"
)

// Record is one persisted episode row.
type Record struct {
	ID              string
	Title           string
	Host            string
	Guest           string
	AudioPath       string
	TranscriptPath  string
	DurationSeconds float64
	TurnCount       int
	CreatedAt       time.Time
}

// Store keeps a history of generated episodes in SQLite. A disabled store
// is a valid nil-db store where every operation is a no-op.
type Store struct {
	db    *sql.DB
	cfg   config.StoreConfig
	log   *slog.Logger
	clock func() time.Time
}

// Open initializes the episode store according to config.
func Open(ctx context.Context, cfg config.StoreConfig, log *slog.Logger) (*Store, error) {
	if !cfg.Enabled {
		return &Store{cfg: cfg, log: log, clock: time.Now}, nil
	}

	dir := filepath.Dir(cfg.Path)
	if dir != "." && dir != "" {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return nil, fmt.Errorf("create store dir: %w", err)
		}
	}

	dsn := fmt.Sprintf("file:%s?_pragma=journal_mode(WAL)&_pragma=foreign_keys(ON)", cfg.Path)
	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, fmt.Errorf("open sqlite: %w", err)
	}
	if err := db.PingContext(ctx); err != nil {
		db.Close()
		return nil, fmt.Errorf("ping sqlite: %w", err)
	}

	s := &Store{db: db, cfg: cfg, log: log, clock: time.Now}
	if err := s.initSchema(ctx); err != nil {
		db.Close()
		return nil, err
	}
	if err := s.Prune(ctx); err != nil {
		log.Warn("episode store prune on open failed", slog.String("error", err.Error()))
	}
	return s, nil
}

func (s *Store) initSchema(ctx context.Context) error {
	ddl := `
CREATE TABLE IF NOT EXISTS episodes (
    episode_id TEXT PRIMARY KEY,
    title TEXT NOT NULL,
    host TEXT,
    guest TEXT,
    audio_path TEXT,
    transcript_path TEXT,
    duration_seconds REAL,
    turn_count INTEGER,
    created_at TIMESTAMP NOT NULL
);
CREATE TABLE IF NOT EXISTS turns (
    id INTEGER PRIMARY KEY AUTOINCREMENT,
    episode_id TEXT NOT NULL,
    position INTEGER NOT NULL,
    speaker TEXT NOT NULL,
    text TEXT NOT NULL,
    FOREIGN KEY(episode_id) REFERENCES episodes(episode_id) ON DELETE CASCADE
);
CREATE INDEX IF NOT EXISTS idx_turns_episode ON turns(episode_id, position);
`
	_, err := s.db.ExecContext(ctx, ddl)
	return err
}

// Close releases underlying resources.
func (s *Store) Close() error {
	if s.db == nil {
		return nil
	}
	return s.db.Close()
}

// SaveEpisode persists a finished episode and its turns.
func (s *Store) SaveEpisode(ctx context.Context, ep podcast.Episode) error {
	if s.db == nil {
		return nil
	}

	duration, _ := strconv.ParseFloat(ep.Metadata["duration"], 64)

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer func() {
		if err != nil {
			tx.Rollback()
		}
	}()

	_, err = tx.ExecContext(ctx,
		`INSERT INTO episodes(episode_id, title, host, guest, audio_path, transcript_path, duration_seconds, turn_count, created_at)
		 VALUES(?, ?, ?, ?, ?, ?, ?, ?, ?)
		 ON CONFLICT(episode_id) DO UPDATE SET
		   audio_path=excluded.audio_path,
		   transcript_path=excluded.transcript_path,
		   duration_seconds=excluded.duration_seconds,
		   turn_count=excluded.turn_count`,
		ep.ID, ep.Topic.Title, ep.Host.Name, ep.Guest.Name,
		ep.FinalAudioPath, ep.TranscriptPath, duration, len(ep.Turns), s.clock().UTC())
	if err != nil {
		return err
	}

	for i, turn := range ep.Turns {
		if _, err = tx.ExecContext(ctx,
			`INSERT INTO turns(episode_id, position, speaker, text) VALUES(?, ?, ?, ?)`,
			ep.ID, i, string(turn.Speaker), turn.Text); err != nil {
			return err
		}
	}

	err = tx.Commit()
	return err
}

// ListEpisodes returns up to limit episodes, newest first.
func (s *Store) ListEpisodes(ctx context.Context, limit int) ([]Record, error) {
	if s.db == nil {
		return nil, nil
	}
	if limit <= 0 {
		limit = 20
	}
	rows, err := s.db.QueryContext(ctx,
		`SELECT episode_id, title, host, guest, audio_path, transcript_path, duration_seconds, turn_count, created_at
		 FROM episodes ORDER BY created_at DESC LIMIT ?`, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var records []Record
	for rows.Next() {
		var r Record
		var created string
		if err := rows.Scan(&r.ID, &r.Title, &r.Host, &r.Guest, &r.AudioPath, &r.TranscriptPath,
			&r.DurationSeconds, &r.TurnCount, &created); err != nil {
			return nil, err
		}
		if ts, err := time.Parse(time.RFC3339Nano, created); err == nil {
			r.CreatedAt = ts
		}
		records = append(records, r)
	}
	return records, rows.Err()
}

// Prune drops the oldest episodes beyond the configured maximum.
func (s *Store) Prune(ctx context.Context) error {
	if s.db == nil || s.cfg.MaxEpisodes <= 0 {
		return nil
	}
	_, err := s.db.ExecContext(ctx, `DELETE FROM episodes WHERE episode_id IN (
		SELECT episode_id FROM episodes ORDER BY created_at DESC LIMIT -1 OFFSET ?
	)`, s.cfg.MaxEpisodes)
	return err
}
