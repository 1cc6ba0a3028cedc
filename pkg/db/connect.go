package db

import (
	"database/sql"
	"fmt"
	"net/url"
	"strings"

	_ "github.com/mattn/go-sqlite3" // SQLite driver
)

// validSyncModes lists the allowed values for the synchronous pragma.
var validSyncModes = map[string]bool{
	"OFF":    true,
	"NORMAL": true,
	"FULL":   true,
	"EXTRA":  true,
}

// Options tunes the SQLite connection.
type Options struct {
	// WAL sets journal_mode=WAL.
	WAL bool
	// Sync is the synchronous pragma (OFF, NORMAL, FULL, EXTRA). Empty keeps the SQLite default.
	Sync string
	// BusyTimeoutMs makes writers wait instead of failing with SQLITE_BUSY.
	BusyTimeoutMs int
}

// DefaultOptions is what the CLI uses when no flags are given.
func DefaultOptions() Options {
	return Options{WAL: false, Sync: "FULL", BusyTimeoutMs: 5000}
}

// Open establishes a connection to the SQLite database at path with the given options.
// Foreign keys are always enabled and transactions take the write lock at
// BEGIN, so read-modify-write cycles wait on the busy timeout instead of
// failing on upgrade. In-memory databases are pinned to a single connection
// so every query sees the same database.
func Open(path string, opts Options) (*sql.DB, error) {
	params := url.Values{}
	params.Add("_foreign_keys", "1")
	params.Add("_txlock", "immediate")

	if opts.WAL {
		params.Add("_journal_mode", "WAL")
	}

	if opts.Sync != "" {
		ucSync := strings.ToUpper(opts.Sync)
		if !validSyncModes[ucSync] {
			return nil, fmt.Errorf("invalid sync pragma value: %s. Must be one of OFF, NORMAL, FULL, EXTRA", opts.Sync)
		}
		params.Add("_synchronous", ucSync)
	}

	if opts.BusyTimeoutMs > 0 {
		params.Add("_busy_timeout", fmt.Sprintf("%d", opts.BusyTimeoutMs))
	}

	dsn := path
	if strings.Contains(path, "?") {
		dsn += "&" + params.Encode()
	} else {
		dsn += "?" + params.Encode()
	}

	conn, err := sql.Open("sqlite3", dsn)
	if err != nil {
		return nil, fmt.Errorf("failed to open database with DSN '%s': %w", dsn, err)
	}

	if isMemory(path) {
		conn.SetMaxOpenConns(1)
	}

	if err = conn.Ping(); err != nil {
		conn.Close()
		return nil, fmt.Errorf("failed to ping database with DSN '%s': %w", dsn, err)
	}

	return conn, nil
}

// OpenAndUpgrade opens the database and brings the schema to TargetSchemaVersion.
func OpenAndUpgrade(path string, opts Options) (*sql.DB, error) {
	conn, err := Open(path, opts)
	if err != nil {
		return nil, err
	}
	if err := UpgradeDB(conn, path, TargetSchemaVersion); err != nil {
		conn.Close()
		return nil, err
	}
	return conn, nil
}

func isMemory(path string) bool {
	return path == ":memory:" || strings.HasPrefix(path, "file::memory:") || strings.Contains(path, "mode=memory")
}
