// Package store provides SQLite persistence for completed ranking sessions.
package store

import (
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"
	_ "modernc.org/sqlite"

	"github.com/abelbrown/albumtier/internal/album"
	"github.com/abelbrown/albumtier/internal/pipeline"
	"github.com/abelbrown/albumtier/internal/ranking"
)

// ErrNotFound is returned when a session id does not exist.
var ErrNotFound = errors.New("session not found")

// Store handles SQLite persistence. NOT an interface - concrete type.
// All methods are safe for concurrent use.
type Store struct {
	db *sql.DB
	mu sync.RWMutex
}

// Session is the header row of a completed ranking.
type Session struct {
	ID          string
	Source      string // playlist id or csv path
	SourceName  string // playlist name, when known
	StartedAt   time.Time
	FinishedAt  time.Time
	Albums      int
	Comparisons int
	Estimated   int
	Thresholds  string // rendered threshold table used for scoring
}

// Verdict is one stored oracle answer.
type Verdict struct {
	Seq      int
	FirstID  string
	SecondID string
	WinnerID string
}

// Open creates a new Store with the given database path.
// Creates tables if they don't exist.
func Open(dbPath string) (*Store, error) {
	connStr := dbPath
	if dbPath == ":memory:" {
		// shared cache so every pooled connection sees the same database
		connStr = "file::memory:?cache=shared"
	}

	db, err := sql.Open("sqlite", connStr)
	if err != nil {
		return nil, fmt.Errorf("open database: %w", err)
	}
	if dbPath == ":memory:" {
		db.SetMaxOpenConns(1)
	}

	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("ping database: %w", err)
	}

	if dbPath != ":memory:" {
		if _, err := db.Exec("PRAGMA journal_mode=WAL"); err != nil {
			db.Close()
			return nil, fmt.Errorf("enable WAL mode: %w", err)
		}
	}

	s := &Store{db: db}
	if err := s.createTables(); err != nil {
		db.Close()
		return nil, fmt.Errorf("create tables: %w", err)
	}
	return s, nil
}

func (s *Store) createTables() error {
	schema := `
	CREATE TABLE IF NOT EXISTS sessions (
		id TEXT PRIMARY KEY,
		source TEXT NOT NULL,
		source_name TEXT,
		started_at DATETIME NOT NULL,
		finished_at DATETIME NOT NULL,
		albums INTEGER NOT NULL,
		comparisons INTEGER NOT NULL,
		estimated INTEGER NOT NULL,
		thresholds TEXT
	);

	CREATE TABLE IF NOT EXISTS results (
		session_id TEXT NOT NULL,
		rank INTEGER NOT NULL,
		score REAL NOT NULL,
		album_id TEXT,
		name TEXT NOT NULL,
		artists TEXT,
		url TEXT,
		image_url TEXT,
		tracks TEXT,
		PRIMARY KEY (session_id, rank)
	);

	CREATE TABLE IF NOT EXISTS verdicts (
		session_id TEXT NOT NULL,
		seq INTEGER NOT NULL,
		first_id TEXT NOT NULL,
		second_id TEXT NOT NULL,
		winner_id TEXT NOT NULL,
		PRIMARY KEY (session_id, seq)
	);

	CREATE INDEX IF NOT EXISTS idx_sessions_finished ON sessions(finished_at DESC);
	`
	if _, err := s.db.Exec(schema); err != nil {
		return fmt.Errorf("execute schema: %w", err)
	}
	return nil
}

// Close closes the database connection.
func (s *Store) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.db.Close()
}

// SaveSession writes a completed session with its results and verdicts in
// one transaction. An empty sess.ID gets a fresh UUID. Returns the id used.
func (s *Store) SaveSession(sess Session, results []pipeline.Result, verdicts []ranking.Judgment) (string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if sess.ID == "" {
		sess.ID = uuid.NewString()
	}

	tx, err := s.db.Begin()
	if err != nil {
		return "", fmt.Errorf("begin tx: %w", err)
	}
	defer tx.Rollback()

	_, err = tx.Exec(`
		INSERT INTO sessions (id, source, source_name, started_at, finished_at,
			albums, comparisons, estimated, thresholds)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		sess.ID, sess.Source, sess.SourceName, sess.StartedAt.UTC(), sess.FinishedAt.UTC(),
		len(results), sess.Comparisons, sess.Estimated, sess.Thresholds,
	)
	if err != nil {
		return "", fmt.Errorf("insert session: %w", err)
	}

	resStmt, err := tx.Prepare(`
		INSERT INTO results (session_id, rank, score, album_id, name, artists, url, image_url, tracks)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)`)
	if err != nil {
		return "", fmt.Errorf("prepare results: %w", err)
	}
	defer resStmt.Close()

	for _, r := range results {
		tracks, err := json.Marshal(r.Album.Tracks)
		if err != nil {
			return "", fmt.Errorf("encode tracks: %w", err)
		}
		_, err = resStmt.Exec(sess.ID, r.Rank, r.Score, r.Album.ID, r.Album.Name,
			r.Album.Artists, r.Album.URL, r.Album.ImageURL, string(tracks))
		if err != nil {
			return "", fmt.Errorf("insert result %d: %w", r.Rank, err)
		}
	}

	vStmt, err := tx.Prepare(`
		INSERT INTO verdicts (session_id, seq, first_id, second_id, winner_id)
		VALUES (?, ?, ?, ?, ?)`)
	if err != nil {
		return "", fmt.Errorf("prepare verdicts: %w", err)
	}
	defer vStmt.Close()

	for _, j := range verdicts {
		if _, err := vStmt.Exec(sess.ID, j.Seq, j.First.ID, j.Second.ID, j.WinnerID()); err != nil {
			return "", fmt.Errorf("insert verdict %d: %w", j.Seq, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return "", fmt.Errorf("commit session: %w", err)
	}
	return sess.ID, nil
}

const sessionColumns = `id, source, source_name, started_at, finished_at,
	albums, comparisons, estimated, thresholds`

// ListSessions returns up to limit sessions, most recently finished first.
func (s *Store) ListSessions(limit int) ([]Session, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	rows, err := s.db.Query(`SELECT `+sessionColumns+` FROM sessions
		ORDER BY finished_at DESC LIMIT ?`, limit)
	if err != nil {
		return nil, fmt.Errorf("query sessions: %w", err)
	}
	defer rows.Close()

	var out []Session
	for rows.Next() {
		sess, err := scanSession(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, sess)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate sessions: %w", err)
	}
	return out, nil
}

// GetSession returns the session with the given id, or ErrNotFound.
func (s *Store) GetSession(id string) (Session, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	row := s.db.QueryRow(`SELECT `+sessionColumns+` FROM sessions WHERE id = ?`, id)
	sess, err := scanSession(row)
	if errors.Is(err, sql.ErrNoRows) {
		return Session{}, fmt.Errorf("get session %s: %w", id, ErrNotFound)
	}
	return sess, err
}

// GetResults returns a session's stored tier list in rank order.
func (s *Store) GetResults(id string) ([]pipeline.Result, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	rows, err := s.db.Query(`
		SELECT rank, score, album_id, name, artists, url, image_url, tracks
		FROM results WHERE session_id = ? ORDER BY rank`, id)
	if err != nil {
		return nil, fmt.Errorf("query results: %w", err)
	}
	defer rows.Close()

	var out []pipeline.Result
	for rows.Next() {
		var (
			r                                   pipeline.Result
			albumID, artists, url, image, track sql.NullString
		)
		if err := rows.Scan(&r.Rank, &r.Score, &albumID, &r.Album.Name, &artists, &url, &image, &track); err != nil {
			return nil, fmt.Errorf("scan result: %w", err)
		}
		r.Album = album.Album{
			ID:       albumID.String,
			Name:     r.Album.Name,
			Artists:  artists.String,
			URL:      url.String,
			ImageURL: image.String,
		}
		if track.Valid && track.String != "" {
			if err := json.Unmarshal([]byte(track.String), &r.Album.Tracks); err != nil {
				return nil, fmt.Errorf("decode tracks for rank %d: %w", r.Rank, err)
			}
		}
		out = append(out, r)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate results: %w", err)
	}
	if len(out) == 0 {
		var exists int
		if err := s.db.QueryRow(`SELECT COUNT(*) FROM sessions WHERE id = ?`, id).Scan(&exists); err != nil {
			return nil, fmt.Errorf("check session: %w", err)
		}
		if exists == 0 {
			return nil, fmt.Errorf("get results %s: %w", id, ErrNotFound)
		}
	}
	return out, nil
}

// GetVerdicts returns a session's oracle answers in the order given.
func (s *Store) GetVerdicts(id string) ([]Verdict, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	rows, err := s.db.Query(`
		SELECT seq, first_id, second_id, winner_id
		FROM verdicts WHERE session_id = ? ORDER BY seq`, id)
	if err != nil {
		return nil, fmt.Errorf("query verdicts: %w", err)
	}
	defer rows.Close()

	var out []Verdict
	for rows.Next() {
		var v Verdict
		if err := rows.Scan(&v.Seq, &v.FirstID, &v.SecondID, &v.WinnerID); err != nil {
			return nil, fmt.Errorf("scan verdict: %w", err)
		}
		out = append(out, v)
	}
	return out, rows.Err()
}

// DeleteSession removes a session and everything stored with it.
func (s *Store) DeleteSession(id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	tx, err := s.db.Begin()
	if err != nil {
		return fmt.Errorf("begin tx: %w", err)
	}
	defer tx.Rollback()

	res, err := tx.Exec(`DELETE FROM sessions WHERE id = ?`, id)
	if err != nil {
		return fmt.Errorf("delete session: %w", err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return fmt.Errorf("delete session %s: %w", id, ErrNotFound)
	}
	for _, table := range []string{"results", "verdicts"} {
		if _, err := tx.Exec(`DELETE FROM `+table+` WHERE session_id = ?`, id); err != nil {
			return fmt.Errorf("delete %s: %w", table, err)
		}
	}
	return tx.Commit()
}

type scanner interface {
	Scan(dest ...any) error
}

func scanSession(sc scanner) (Session, error) {
	var (
		sess       Session
		name, thrs sql.NullString
	)
	err := sc.Scan(&sess.ID, &sess.Source, &name, &sess.StartedAt, &sess.FinishedAt,
		&sess.Albums, &sess.Comparisons, &sess.Estimated, &thrs)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return Session{}, err
		}
		return Session{}, fmt.Errorf("scan session: %w", err)
	}
	sess.SourceName = name.String
	sess.Thresholds = thrs.String
	return sess, nil
}
