package cache

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"sync"
	"time"

	"retroprofile-api/internal/logging"

	_ "github.com/go-sql-driver/mysql"
	_ "github.com/lib/pq"
	_ "modernc.org/sqlite" // Pure Go SQLite driver - no CGO required
)

// Dialect selects the SQL flavour used by SQLCache.
type Dialect string

const (
	DialectSQLite   Dialect = "sqlite"
	DialectPostgres Dialect = "postgres"
	DialectMySQL    Dialect = "mysql"
)

type sqlQueries struct {
	create []string
	get    string
	upsert string
	delete string
	sweep  string
}

var dialectQueries = map[Dialect]sqlQueries{
	DialectSQLite: {
		create: []string{`
	CREATE TABLE IF NOT EXISTS cache_entries (
		cache_key TEXT PRIMARY KEY,
		payload BLOB NOT NULL,
		expires_at INTEGER NOT NULL
	);
	CREATE INDEX IF NOT EXISTS idx_cache_expires ON cache_entries(expires_at);
	`},
		get: `SELECT payload, expires_at FROM cache_entries WHERE cache_key = ?`,
		upsert: `
		INSERT INTO cache_entries (cache_key, payload, expires_at)
		VALUES (?, ?, ?)
		ON CONFLICT(cache_key) DO UPDATE SET
			payload = excluded.payload,
			expires_at = excluded.expires_at`,
		delete: `DELETE FROM cache_entries WHERE cache_key = ?`,
		sweep:  `DELETE FROM cache_entries WHERE expires_at <= ?`,
	},
	DialectPostgres: {
		create: []string{
			`CREATE TABLE IF NOT EXISTS cache_entries (
		cache_key TEXT PRIMARY KEY,
		payload BYTEA NOT NULL,
		expires_at BIGINT NOT NULL
	)`,
			`CREATE INDEX IF NOT EXISTS idx_cache_expires ON cache_entries(expires_at)`,
		},
		get: `SELECT payload, expires_at FROM cache_entries WHERE cache_key = $1`,
		upsert: `
		INSERT INTO cache_entries (cache_key, payload, expires_at)
		VALUES ($1, $2, $3)
		ON CONFLICT (cache_key) DO UPDATE SET
			payload = EXCLUDED.payload,
			expires_at = EXCLUDED.expires_at`,
		delete: `DELETE FROM cache_entries WHERE cache_key = $1`,
		sweep:  `DELETE FROM cache_entries WHERE expires_at <= $1`,
	},
	DialectMySQL: {
		create: []string{`
	CREATE TABLE IF NOT EXISTS cache_entries (
		cache_key VARCHAR(255) NOT NULL PRIMARY KEY,
		payload LONGBLOB NOT NULL,
		expires_at BIGINT NOT NULL,
		INDEX idx_cache_expires (expires_at)
	) ENGINE=InnoDB`},
		get: `SELECT payload, expires_at FROM cache_entries WHERE cache_key = ?`,
		upsert: `
		INSERT INTO cache_entries (cache_key, payload, expires_at)
		VALUES (?, ?, ?)
		ON DUPLICATE KEY UPDATE
			payload = VALUES(payload),
			expires_at = VALUES(expires_at)`,
		delete: `DELETE FROM cache_entries WHERE cache_key = ?`,
		sweep:  `DELETE FROM cache_entries WHERE expires_at <= ?`,
	},
}

// SQLCache stores entries in a single cache_entries table. Expiry times are
// unix milliseconds; expired rows read as misses until swept.
type SQLCache struct {
	db      *sql.DB
	dialect Dialect
	q       sqlQueries
	// mu serialises writes for sqlite, which supports one writer.
	mu sync.Mutex
}

// NewSQLiteCache opens (or creates) a SQLite cache database at path.
func NewSQLiteCache(path string) (*SQLCache, error) {
	dsn := fmt.Sprintf("%s?_journal_mode=WAL&_synchronous=NORMAL&_busy_timeout=5000", path)

	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, fmt.Errorf("failed to open SQLite: %w", err)
	}

	db.SetMaxOpenConns(1) // SQLite only supports 1 writer
	db.SetMaxIdleConns(1)
	db.SetConnMaxLifetime(0)

	c, err := NewSQLCache(db, DialectSQLite)
	if err != nil {
		db.Close()
		return nil, err
	}
	logging.Info().Str("path", path).Msg("[SQLCache] SQLite cache initialized")
	return c, nil
}

// NewPostgresCache connects to PostgreSQL using lib/pq.
func NewPostgresCache(dsn string) (*SQLCache, error) {
	return openPooled("postgres", dsn, DialectPostgres)
}

// NewMySQLCache connects to MySQL.
func NewMySQLCache(dsn string) (*SQLCache, error) {
	return openPooled("mysql", dsn, DialectMySQL)
}

func openPooled(driver, dsn string, dialect Dialect) (*SQLCache, error) {
	db, err := sql.Open(driver, dsn)
	if err != nil {
		return nil, fmt.Errorf("failed to open %s: %w", dialect, err)
	}

	db.SetMaxOpenConns(10)
	db.SetMaxIdleConns(5)
	db.SetConnMaxLifetime(5 * time.Minute)

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := db.PingContext(ctx); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to ping %s: %w", dialect, err)
	}

	c, err := NewSQLCache(db, dialect)
	if err != nil {
		db.Close()
		return nil, err
	}
	logging.Info().Str("dialect", string(dialect)).Msg("[SQLCache] cache initialized")
	return c, nil
}

// NewSQLCache wraps an open database and ensures the cache table exists.
func NewSQLCache(db *sql.DB, dialect Dialect) (*SQLCache, error) {
	q, ok := dialectQueries[dialect]
	if !ok {
		return nil, fmt.Errorf("unsupported sql dialect %q", dialect)
	}

	for _, stmt := range q.create {
		if _, err := db.Exec(stmt); err != nil {
			return nil, fmt.Errorf("failed to create cache table: %w", err)
		}
	}

	return &SQLCache{db: db, dialect: dialect, q: q}, nil
}

func (c *SQLCache) lockWrite() func() {
	if c.dialect != DialectSQLite {
		return func() {}
	}
	c.mu.Lock()
	return c.mu.Unlock
}

// Get retrieves a value by key.
func (c *SQLCache) Get(ctx context.Context, key string) ([]byte, error) {
	var (
		payload   []byte
		expiresAt int64
	)
	err := c.db.QueryRowContext(ctx, c.q.get, key).Scan(&payload, &expiresAt)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrCacheMiss
	}
	if err != nil {
		return nil, fmt.Errorf("failed to read cache entry: %w", err)
	}
	if time.Now().UnixMilli() >= expiresAt {
		return nil, ErrCacheMiss
	}
	return payload, nil
}

// Set stores a value with the given TTL.
func (c *SQLCache) Set(ctx context.Context, key string, value []byte, ttl time.Duration) error {
	unlock := c.lockWrite()
	defer unlock()

	expiresAt := time.Now().Add(ttl).UnixMilli()
	if _, err := c.db.ExecContext(ctx, c.q.upsert, key, value, expiresAt); err != nil {
		return fmt.Errorf("failed to upsert cache entry: %w", err)
	}
	return nil
}

// Delete removes a value by key.
func (c *SQLCache) Delete(ctx context.Context, key string) error {
	unlock := c.lockWrite()
	defer unlock()

	if _, err := c.db.ExecContext(ctx, c.q.delete, key); err != nil {
		return fmt.Errorf("failed to delete cache entry: %w", err)
	}
	return nil
}

// RemoveExpired deletes expired rows and reports how many were removed.
func (c *SQLCache) RemoveExpired(ctx context.Context) (int64, error) {
	unlock := c.lockWrite()
	defer unlock()

	res, err := c.db.ExecContext(ctx, c.q.sweep, time.Now().UnixMilli())
	if err != nil {
		return 0, fmt.Errorf("failed to sweep cache entries: %w", err)
	}
	return res.RowsAffected()
}

// Close closes the database.
func (c *SQLCache) Close() error {
	return c.db.Close()
}
