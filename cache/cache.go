package cache

import (
	"crypto/sha256"
	"database/sql"
	"encoding/binary"
	"encoding/hex"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/flanksource/commons/logger"
	_ "github.com/mattn/go-sqlite3"
)

var (
	// ErrCacheDisabled indicates caching is disabled
	ErrCacheDisabled = errors.New("caching is disabled")
	// ErrNotFound indicates the entry was not found in cache
	ErrNotFound = errors.New("cache entry not found")
)

// Config holds cache configuration
type Config struct {
	DBPath  string        // Database file path (default: ~/.cache/ogimage.db)
	TTL     time.Duration // 0 keeps entries forever
	NoCache bool
}

// Entry is one cached render
type Entry struct {
	Key        string
	Backend    string
	Width      int
	Height     int
	PNG        []byte
	CreatedAt  time.Time
	AccessedAt time.Time
	ExpiresAt  *time.Time
}

// Cache stores rendered images in SQLite so unchanged inputs skip the browser
type Cache struct {
	db     *sql.DB
	config Config
}

// DefaultDBPath returns ~/.cache/ogimage.db
func DefaultDBPath() (string, error) {
	homeDir, err := os.UserHomeDir()
	if err != nil {
		return "", fmt.Errorf("failed to get home directory: %w", err)
	}
	return filepath.Join(homeDir, ".cache", "ogimage.db"), nil
}

// New opens (creating if needed) the cache database
func New(config Config) (*Cache, error) {
	if config.NoCache {
		return &Cache{config: config}, nil
	}
	if config.DBPath == "" {
		path, err := DefaultDBPath()
		if err != nil {
			return nil, err
		}
		config.DBPath = path
	}

	if err := os.MkdirAll(filepath.Dir(config.DBPath), 0o750); err != nil {
		return nil, fmt.Errorf("failed to create cache directory: %w", err)
	}

	db, err := sql.Open("sqlite3", config.DBPath)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	pragmas := []string{
		"PRAGMA journal_mode = WAL",
		"PRAGMA synchronous = NORMAL",
		"PRAGMA busy_timeout = 5000",
	}
	for _, pragma := range pragmas {
		if _, err := db.Exec(pragma); err != nil {
			db.Close()
			return nil, fmt.Errorf("failed to set pragma %s: %w", pragma, err)
		}
	}

	if _, err := db.Exec(embeddedSchema); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to initialize schema: %w", err)
	}

	c := &Cache{db: db, config: config}
	if removed, err := c.Prune(); err != nil {
		logger.Warnf("failed to prune expired cache entries: %v", err)
	} else if removed > 0 {
		logger.Debugf("pruned %d expired cache entries", removed)
	}
	return c, nil
}

// Close closes the database connection
func (c *Cache) Close() error {
	if c.db == nil {
		return nil
	}
	if err := c.db.Close(); err != nil {
		return fmt.Errorf("failed to close database: %w", err)
	}
	return nil
}

// Key derives a cache key from every input that influences the rendered image.
// Parts are length prefixed so ("ab","c") and ("a","bc") never collide.
func Key(parts ...[]byte) string {
	h := sha256.New()
	var size [8]byte
	for _, part := range parts {
		binary.BigEndian.PutUint64(size[:], uint64(len(part)))
		h.Write(size[:])
		h.Write(part)
	}
	return hex.EncodeToString(h.Sum(nil))
}

// Get returns the cached render for key
func (c *Cache) Get(key string) (*Entry, error) {
	if c.config.NoCache {
		return nil, ErrCacheDisabled
	}

	entry := Entry{Key: key}
	var expiresAt sql.NullTime
	err := c.db.QueryRow(`
		SELECT backend, width, height, png, created_at, accessed_at, expires_at
		FROM render_cache
		WHERE cache_key = ?
		  AND (expires_at IS NULL OR expires_at > ?)
	`, key, time.Now().UTC()).Scan(
		&entry.Backend, &entry.Width, &entry.Height, &entry.PNG,
		&entry.CreatedAt, &entry.AccessedAt, &expiresAt,
	)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get cache entry: %w", err)
	}
	if expiresAt.Valid {
		entry.ExpiresAt = &expiresAt.Time
	}

	if _, err := c.db.Exec("UPDATE render_cache SET accessed_at = ? WHERE cache_key = ?", time.Now().UTC(), key); err != nil {
		logger.Debugf("failed to update cache access time: %v", err)
	}
	return &entry, nil
}

// Set stores or replaces the render for entry.Key
func (c *Cache) Set(entry *Entry) error {
	if c.config.NoCache {
		return ErrCacheDisabled
	}

	now := time.Now().UTC()
	var expiresAt interface{}
	if c.config.TTL > 0 {
		expiresAt = now.Add(c.config.TTL)
	}

	_, err := c.db.Exec(`
		INSERT INTO render_cache (cache_key, backend, width, height, png, created_at, accessed_at, expires_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(cache_key) DO UPDATE SET
			backend = excluded.backend,
			width = excluded.width,
			height = excluded.height,
			png = excluded.png,
			created_at = excluded.created_at,
			accessed_at = excluded.accessed_at,
			expires_at = excluded.expires_at
	`, entry.Key, entry.Backend, entry.Width, entry.Height, entry.PNG, now, now, expiresAt)
	if err != nil {
		return fmt.Errorf("failed to store cache entry: %w", err)
	}
	return nil
}

// Prune removes expired entries and returns how many were deleted
func (c *Cache) Prune() (int64, error) {
	if c.config.NoCache {
		return 0, ErrCacheDisabled
	}
	result, err := c.db.Exec("DELETE FROM render_cache WHERE expires_at IS NOT NULL AND expires_at <= ?", time.Now().UTC())
	if err != nil {
		return 0, fmt.Errorf("failed to prune cache: %w", err)
	}
	return result.RowsAffected()
}

// Clear removes every entry
func (c *Cache) Clear() error {
	if c.config.NoCache {
		return ErrCacheDisabled
	}
	if _, err := c.db.Exec("DELETE FROM render_cache"); err != nil {
		return fmt.Errorf("failed to clear cache: %w", err)
	}
	return nil
}
