// Package index maintains a local full-text search index over downloaded
// session content. The index is a derived artifact: it can always be rebuilt
// from the output tree and is never the source of truth.
package index

import (
	"database/sql"
	"fmt"
	"os"
	"path/filepath"
	"regexp"

	_ "modernc.org/sqlite"

	"github.com/wcwagner/wwdc-dl/pkg/cache"
)

const schema = `
PRAGMA journal_mode = WAL;
PRAGMA synchronous = NORMAL;
PRAGMA busy_timeout = 5000;

CREATE VIRTUAL TABLE IF NOT EXISTS sessions_fts USING fts5(
    session_id UNINDEXED,
    year UNINDEXED,
    topic UNINDEXED,
    dir UNINDEXED,
    title,
    description,
    content,
    tokenize='unicode61'
);
`

var sessionDirRe = regexp.MustCompile(`^(\d+)-`)

// DB is the search index handle.
type DB struct {
	db *sql.DB
}

// Open opens (or creates) the index database at dbPath.
func Open(dbPath string) (*DB, error) {
	if err := os.MkdirAll(filepath.Dir(dbPath), 0o755); err != nil {
		return nil, fmt.Errorf("failed to create db dir: %w", err)
	}

	db, err := sql.Open("sqlite", dbPath)
	if err != nil {
		return nil, fmt.Errorf("failed to open db: %w", err)
	}
	if _, err := db.Exec(schema); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to init schema: %w", err)
	}

	return &DB{db: db}, nil
}

// Close closes the database.
func (d *DB) Close() error {
	return d.db.Close()
}

// IndexYear replaces the index rows for one year from the downloaded output
// tree. Title, topic and description come from the metadata cache when
// available; the full content.md text is indexed as the session body.
func (d *DB) IndexYear(yearDir, year string) (int, error) {
	meta := cache.Load(cache.Path(filepath.Dir(yearDir), year))

	contentFiles, err := filepath.Glob(filepath.Join(yearDir, "*", "*", "content.md"))
	if err != nil {
		return 0, err
	}

	tx, err := d.db.Begin()
	if err != nil {
		return 0, err
	}
	defer tx.Rollback()

	if _, err := tx.Exec("DELETE FROM sessions_fts WHERE year = ?", year); err != nil {
		return 0, fmt.Errorf("failed to clear year: %w", err)
	}

	indexed := 0
	for _, contentFile := range contentFiles {
		sessionDir := filepath.Dir(contentFile)
		m := sessionDirRe.FindStringSubmatch(filepath.Base(sessionDir))
		if m == nil {
			continue
		}
		sessionID := m[1]

		body, err := os.ReadFile(contentFile)
		if err != nil {
			continue
		}

		title := filepath.Base(sessionDir)
		topic := filepath.Base(filepath.Dir(sessionDir))
		description := ""
		if s, ok := meta.Sessions[sessionID]; ok {
			if s.Title != "" {
				title = s.Title
			}
			if s.Topic != "" {
				topic = s.Topic
			}
			description = s.Description
		}

		_, err = tx.Exec(
			"INSERT INTO sessions_fts (session_id, year, topic, dir, title, description, content) VALUES (?, ?, ?, ?, ?, ?, ?)",
			sessionID, year, topic, sessionDir, title, description, string(body),
		)
		if err != nil {
			return 0, fmt.Errorf("failed to index session %s: %w", sessionID, err)
		}
		indexed++
	}

	if err := tx.Commit(); err != nil {
		return 0, err
	}
	return indexed, nil
}

// Hit is one search result.
type Hit struct {
	SessionID string
	Year      string
	Topic     string
	Title     string
	Dir       string
	Snippet   string
}

// Search runs a full-text query and returns the best matches.
func (d *DB) Search(query string, limit int) ([]Hit, error) {
	if limit <= 0 {
		limit = 20
	}

	rows, err := d.db.Query(`
        SELECT session_id, year, topic, title, dir,
               snippet(sessions_fts, 6, '[', ']', '…', 12)
        FROM sessions_fts
        WHERE sessions_fts MATCH ?
        ORDER BY rank
        LIMIT ?`, query, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to search: %w", err)
	}
	defer rows.Close()

	var hits []Hit
	for rows.Next() {
		var h Hit
		if err := rows.Scan(&h.SessionID, &h.Year, &h.Topic, &h.Title, &h.Dir, &h.Snippet); err != nil {
			return nil, err
		}
		hits = append(hits, h)
	}
	return hits, rows.Err()
}
