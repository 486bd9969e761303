// Package scancache memoises reference scans in SQLite, keyed by a hash of
// the scanned content.
//
// Entries are never stale: changed content hashes differently and misses the
// cache. The schema version doubles as a scanner version so that grammar
// changes invalidate old entries.
package scancache

import (
	"database/sql"
	"encoding/hex"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"strconv"
	"sync/atomic"
	"time"

	"github.com/zeebo/xxh3"
	_ "modernc.org/sqlite"

	"github.com/aidanlsb/tendr/internal/wikirefs"
)

// DefaultPath is the cache location relative to the garden root.
const DefaultPath = ".tendr/cache.db"

// SchemaVersion is stored in PRAGMA user_version.
const SchemaVersion = 1

// Cache is a content-addressed store of scan results. It is safe for
// concurrent use.
type Cache struct {
	db     *sql.DB
	logger *slog.Logger

	hits   atomic.Int64
	misses atomic.Int64
}

// Stats reports cache effectiveness for the lifetime of a Cache.
type Stats struct {
	Hits    int64
	Misses  int64
	Entries int64
}

// Open opens or creates the cache database at path.
func Open(path string, logger *slog.Logger) (*Cache, error) {
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return nil, fmt.Errorf("failed to create cache directory: %w", err)
	}
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("failed to open cache: %w", err)
	}
	return newCache(db, logger)
}

// OpenInMemory opens a cache that lives only as long as the process (for testing).
func OpenInMemory(logger *slog.Logger) (*Cache, error) {
	db, err := sql.Open("sqlite", ":memory:")
	if err != nil {
		return nil, err
	}
	return newCache(db, logger)
}

func newCache(db *sql.DB, logger *slog.Logger) (*Cache, error) {
	// A single connection serialises writers; :memory: databases are also
	// per-connection.
	db.SetMaxOpenConns(1)
	if logger == nil {
		logger = slog.New(slog.NewTextHandler(io.Discard, nil))
	}
	c := &Cache{db: db, logger: logger}
	if err := c.initialize(); err != nil {
		db.Close()
		return nil, err
	}
	return c, nil
}

func (c *Cache) initialize() error {
	var version int
	if err := c.db.QueryRow("PRAGMA user_version").Scan(&version); err != nil {
		return fmt.Errorf("failed to read cache version: %w", err)
	}
	if version != SchemaVersion {
		if _, err := c.db.Exec("DROP TABLE IF EXISTS scans"); err != nil {
			return fmt.Errorf("failed to reset cache: %w", err)
		}
	}
	schema := `
		CREATE TABLE IF NOT EXISTS scans (
			hash TEXT PRIMARY KEY,
			refs TEXT NOT NULL,
			scanned_at INTEGER NOT NULL
		);
		PRAGMA user_version = ` + strconv.Itoa(SchemaVersion) + `;
	`
	if _, err := c.db.Exec(schema); err != nil {
		return fmt.Errorf("failed to create cache schema: %w", err)
	}
	return nil
}

// Close closes the database.
func (c *Cache) Close() error {
	return c.db.Close()
}

// Hash returns the cache key for content.
func Hash(content string) string {
	sum := xxh3.HashString128(content).Bytes()
	return hex.EncodeToString(sum[:])
}

// Scan returns the references in content, from the cache when possible.
// Storage errors are logged and fall back to scanning directly.
func (c *Cache) Scan(content string) []wikirefs.Ref {
	key := Hash(content)
	refs, err := c.lookup(key)
	switch {
	case err == nil:
		c.hits.Add(1)
		return refs
	case !errors.Is(err, sql.ErrNoRows):
		c.logger.Debug("scan cache lookup failed", "error", err)
	}

	c.misses.Add(1)
	refs = wikirefs.Scan(content)
	if err := c.store(key, refs); err != nil {
		c.logger.Debug("scan cache store failed", "error", err)
	}
	return refs
}

func (c *Cache) lookup(key string) ([]wikirefs.Ref, error) {
	var data string
	if err := c.db.QueryRow("SELECT refs FROM scans WHERE hash = ?", key).Scan(&data); err != nil {
		return nil, err
	}
	var refs []wikirefs.Ref
	if err := json.Unmarshal([]byte(data), &refs); err != nil {
		return nil, fmt.Errorf("decode cached scan: %w", err)
	}
	return refs, nil
}

func (c *Cache) store(key string, refs []wikirefs.Ref) error {
	data, err := json.Marshal(refs)
	if err != nil {
		return err
	}
	_, err = c.db.Exec(
		"INSERT OR REPLACE INTO scans (hash, refs, scanned_at) VALUES (?, ?, ?)",
		key, string(data), time.Now().Unix(),
	)
	return err
}

// Stats returns hit and miss counters along with the stored entry count.
func (c *Cache) Stats() (Stats, error) {
	s := Stats{Hits: c.hits.Load(), Misses: c.misses.Load()}
	if err := c.db.QueryRow("SELECT COUNT(*) FROM scans").Scan(&s.Entries); err != nil {
		return s, fmt.Errorf("failed to count cache entries: %w", err)
	}
	return s, nil
}

// Prune removes entries whose hash is not in live and returns how many were
// deleted.
func (c *Cache) Prune(live []string) (int64, error) {
	tx, err := c.db.Begin()
	if err != nil {
		return 0, err
	}
	defer tx.Rollback() //nolint:errcheck

	if _, err := tx.Exec("CREATE TEMP TABLE IF NOT EXISTS live (hash TEXT PRIMARY KEY)"); err != nil {
		return 0, fmt.Errorf("prune cache: %w", err)
	}
	if _, err := tx.Exec("DELETE FROM live"); err != nil {
		return 0, fmt.Errorf("prune cache: %w", err)
	}
	stmt, err := tx.Prepare("INSERT OR IGNORE INTO live (hash) VALUES (?)")
	if err != nil {
		return 0, fmt.Errorf("prune cache: %w", err)
	}
	defer stmt.Close()
	for _, h := range live {
		if _, err := stmt.Exec(h); err != nil {
			return 0, fmt.Errorf("prune cache: %w", err)
		}
	}
	res, err := tx.Exec("DELETE FROM scans WHERE hash NOT IN (SELECT hash FROM live)")
	if err != nil {
		return 0, fmt.Errorf("prune cache: %w", err)
	}
	if err := tx.Commit(); err != nil {
		return 0, err
	}
	return res.RowsAffected()
}
