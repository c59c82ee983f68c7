package zeppapi

import (
	"database/sql"
	"fmt"
	"os"
	"path/filepath"

	_ "modernc.org/sqlite"
)

// Cache stores raw API responses for past days in a local SQLite file.
// Past-day band data is immutable upstream, so a hit never needs
// revalidation. The current day is never cached; callers enforce that by
// checking the range before consulting the cache.
type Cache struct {
	db *sql.DB
}

// OpenCache opens (or creates) the response cache at path, creating parent
// directories as needed.
func OpenCache(path string) (*Cache, error) {
	if dir := filepath.Dir(path); dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return nil, fmt.Errorf("creating cache dir %s: %w", dir, err)
		}
	}

	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("opening cache db: %w", err)
	}

	_, err = db.Exec(`CREATE TABLE IF NOT EXISTS responses (
		key        TEXT PRIMARY KEY,
		body       BLOB NOT NULL,
		fetched_at TIMESTAMP DEFAULT CURRENT_TIMESTAMP
	)`)
	if err != nil {
		db.Close()
		return nil, fmt.Errorf("creating cache table: %w", err)
	}

	return &Cache{db: db}, nil
}

// Get returns the cached response body for key, if present.
func (c *Cache) Get(key string) ([]byte, bool) {
	var body []byte
	err := c.db.QueryRow(`SELECT body FROM responses WHERE key = ?`, key).Scan(&body)
	if err != nil {
		return nil, false
	}
	return body, true
}

// Put stores a response body under key, replacing any previous entry.
func (c *Cache) Put(key string, body []byte) {
	// A failed write only costs a refetch next time.
	c.db.Exec(`INSERT OR REPLACE INTO responses (key, body) VALUES (?, ?)`, key, body)
}

// Close closes the cache database.
func (c *Cache) Close() error {
	return c.db.Close()
}
