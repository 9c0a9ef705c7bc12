package persist

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	_ "modernc.org/sqlite"

	"sandfall/internal/chunk"
)

// Store keeps encoded chunks in a SQLite database keyed by coordinate.
type Store struct {
	db *sql.DB
}

// OpenStore opens or creates the database at path.
func OpenStore(path string) (*Store, error) {
	if path == "" {
		return nil, fmt.Errorf("empty store path")
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return nil, err
	}
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, err
	}
	db.SetMaxOpenConns(1)
	db.SetMaxIdleConns(1)
	db.SetConnMaxLifetime(0)

	if err := initPragmas(db); err != nil {
		_ = db.Close()
		return nil, err
	}
	if err := initSchema(db); err != nil {
		_ = db.Close()
		return nil, err
	}
	return &Store{db: db}, nil
}

func initPragmas(db *sql.DB) error {
	pragmas := []string{
		"PRAGMA journal_mode=WAL;",
		"PRAGMA synchronous=NORMAL;",
		"PRAGMA busy_timeout=5000;",
	}
	for _, p := range pragmas {
		if _, err := db.Exec(p); err != nil {
			return err
		}
	}
	return nil
}

func initSchema(db *sql.DB) error {
	stmts := []string{
		`CREATE TABLE IF NOT EXISTS meta (
			key TEXT PRIMARY KEY,
			value TEXT NOT NULL
		);`,
		`CREATE TABLE IF NOT EXISTS chunks (
			cx INTEGER NOT NULL,
			cy INTEGER NOT NULL,
			data BLOB NOT NULL,
			saved_at TEXT NOT NULL,
			PRIMARY KEY (cx, cy)
		);`,
	}
	for _, s := range stmts {
		if _, err := db.Exec(s); err != nil {
			return err
		}
	}
	return nil
}

// Close releases the database.
func (s *Store) Close() error { return s.db.Close() }

// Save writes c, replacing any previous copy.
func (s *Store) Save(ctx context.Context, c *chunk.Chunk) error {
	data, err := MarshalChunk(c)
	if err != nil {
		return err
	}
	o := c.Origin()
	_, err = s.db.ExecContext(ctx,
		`INSERT INTO chunks (cx, cy, data, saved_at) VALUES (?, ?, ?, ?)
		 ON CONFLICT (cx, cy) DO UPDATE SET data = excluded.data, saved_at = excluded.saved_at`,
		o.X, o.Y, data, time.Now().UTC().Format(time.RFC3339))
	if err != nil {
		return fmt.Errorf("save chunk %v: %w", o, err)
	}
	return nil
}

// Load returns the stored chunk at coord. The boolean is false when no chunk
// is stored there.
func (s *Store) Load(ctx context.Context, coord chunk.Coord) (*chunk.Chunk, bool, error) {
	var data []byte
	err := s.db.QueryRowContext(ctx, `SELECT data FROM chunks WHERE cx = ? AND cy = ?`, coord.X, coord.Y).Scan(&data)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, fmt.Errorf("load chunk %v: %w", coord, err)
	}
	c, err := UnmarshalChunk(data)
	if err != nil {
		return nil, false, err
	}
	if c.Origin() != coord {
		return nil, false, fmt.Errorf("load chunk %v: stored origin %v", coord, c.Origin())
	}
	return c, true, nil
}

// Delete removes the chunk at coord if present.
func (s *Store) Delete(ctx context.Context, coord chunk.Coord) error {
	_, err := s.db.ExecContext(ctx, `DELETE FROM chunks WHERE cx = ? AND cy = ?`, coord.X, coord.Y)
	return err
}

// Reset drops every stored chunk. Meta entries are kept.
func (s *Store) Reset(ctx context.Context) error {
	if _, err := s.db.ExecContext(ctx, `DELETE FROM chunks`); err != nil {
		return fmt.Errorf("reset chunks: %w", err)
	}
	return nil
}

// Coords lists stored coordinates in row-major order.
func (s *Store) Coords(ctx context.Context) ([]chunk.Coord, error) {
	rows, err := s.db.QueryContext(ctx, `SELECT cx, cy FROM chunks ORDER BY cy, cx`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var out []chunk.Coord
	for rows.Next() {
		var c chunk.Coord
		if err := rows.Scan(&c.X, &c.Y); err != nil {
			return nil, err
		}
		out = append(out, c)
	}
	return out, rows.Err()
}

// SetMeta records a key/value pair such as the world seed.
func (s *Store) SetMeta(ctx context.Context, key, value string) error {
	_, err := s.db.ExecContext(ctx,
		`INSERT INTO meta (key, value) VALUES (?, ?) ON CONFLICT (key) DO UPDATE SET value = excluded.value`,
		key, value)
	return err
}

// Meta returns the value stored under key.
func (s *Store) Meta(ctx context.Context, key string) (string, bool, error) {
	var v string
	err := s.db.QueryRowContext(ctx, `SELECT value FROM meta WHERE key = ?`, key).Scan(&v)
	if errors.Is(err, sql.ErrNoRows) {
		return "", false, nil
	}
	if err != nil {
		return "", false, err
	}
	return v, true, nil
}
