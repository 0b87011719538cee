package media

import (
	"database/sql"
	"fmt"
	"time"

	_ "github.com/mattn/go-sqlite3"
)

const cacheSchema = `
CREATE TABLE IF NOT EXISTS media_cache (
	key        TEXT PRIMARY KEY,
	value      BLOB NOT NULL,
	expires_at INTEGER NOT NULL
);
CREATE INDEX IF NOT EXISTS idx_media_cache_expires ON media_cache (expires_at);
`

// SQLiteCache is a Cache persisted in a local sqlite file, so cached media
// survives restarts within its TTL window.
type SQLiteCache struct {
	db *sql.DB
}

var _ Cache = (*SQLiteCache)(nil)

func OpenSQLiteCache(path string) (*SQLiteCache, error) {
	db, err := sql.Open("sqlite3", path+"?_busy_timeout=5000&_journal_mode=WAL")
	if err != nil {
		return nil, fmt.Errorf("failed to open cache database: %w", err)
	}
	if _, err := db.Exec(cacheSchema); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to initialize cache schema: %w", err)
	}
	return &SQLiteCache{db: db}, nil
}

func (c *SQLiteCache) Get(key string) ([]byte, bool) {
	var value []byte
	var expiresAt int64
	err := c.db.QueryRow(
		`SELECT value, expires_at FROM media_cache WHERE key = ?`, key,
	).Scan(&value, &expiresAt)
	if err != nil {
		return nil, false
	}
	if time.Now().UnixMilli() >= expiresAt {
		// Expiry-on-read; no background eviction.
		_, _ = c.db.Exec(`DELETE FROM media_cache WHERE key = ?`, key)
		return nil, false
	}
	return value, true
}

func (c *SQLiteCache) Set(key string, value []byte, ttl time.Duration) error {
	_, err := c.db.Exec(
		`INSERT OR REPLACE INTO media_cache (key, value, expires_at) VALUES (?, ?, ?)`,
		key, value, time.Now().Add(ttl).UnixMilli(),
	)
	return err
}

func (c *SQLiteCache) Close() error {
	return c.db.Close()
}
