package hostdb

import (
	"context"
	"database/sql"
	"sync"

	_ "modernc.org/sqlite"

	foundationerrors "git.home.luguber.info/inful/productbuilder/internal/foundation/errors"
)

// DB is a handle on the host database.
type DB struct {
	db *sql.DB
	mu sync.RWMutex
}

// Open opens the SQLite database at path, creating missing tables.
// Use ":memory:" for an in-memory database.
func Open(path string) (*DB, error) {
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, foundationerrors.DatabaseError("open host database").
			WithContext("path", path).
			WithCause(err).
			Build()
	}
	// One connection keeps ":memory:" databases shared across queries.
	db.SetMaxOpenConns(1)

	h := &DB{db: db}
	if err := h.initialize(); err != nil {
		_ = db.Close()
		return nil, foundationerrors.DatabaseError("initialize host schema").
			WithContext("path", path).
			WithCause(err).
			Build()
	}
	return h, nil
}

func (h *DB) initialize() error {
	schema := `
	CREATE TABLE IF NOT EXISTS product (
		productid TEXT PRIMARY KEY,
		title TEXT NOT NULL DEFAULT '',
		description TEXT NOT NULL DEFAULT '',
		version TEXT NOT NULL DEFAULT '',
		url TEXT NOT NULL DEFAULT '',
		versioncheckurl TEXT NOT NULL DEFAULT '',
		active INTEGER NOT NULL DEFAULT 1
	);
	CREATE TABLE IF NOT EXISTS productdependency (
		productdependencyid INTEGER PRIMARY KEY AUTOINCREMENT,
		productid TEXT NOT NULL,
		dependencytype TEXT NOT NULL,
		minversion TEXT NOT NULL DEFAULT '',
		maxversion TEXT NOT NULL DEFAULT ''
	);
	CREATE TABLE IF NOT EXISTS productcode (
		productcodeid INTEGER PRIMARY KEY AUTOINCREMENT,
		productid TEXT NOT NULL,
		version TEXT NOT NULL,
		installcode TEXT NOT NULL DEFAULT '',
		uninstallcode TEXT NOT NULL DEFAULT ''
	);
	CREATE TABLE IF NOT EXISTS plugin (
		pluginid INTEGER PRIMARY KEY AUTOINCREMENT,
		title TEXT NOT NULL DEFAULT '',
		hookname TEXT NOT NULL,
		phpcode TEXT NOT NULL DEFAULT '',
		product TEXT NOT NULL DEFAULT '',
		active INTEGER NOT NULL DEFAULT 1,
		executionorder INTEGER NOT NULL DEFAULT 5
	);
	CREATE TABLE IF NOT EXISTS template (
		templateid INTEGER PRIMARY KEY AUTOINCREMENT,
		title TEXT NOT NULL,
		templatetype TEXT NOT NULL DEFAULT 'template',
		template_un TEXT NOT NULL DEFAULT '',
		product TEXT NOT NULL DEFAULT '',
		version TEXT NOT NULL DEFAULT '',
		username TEXT NOT NULL DEFAULT ''
	);
	CREATE TABLE IF NOT EXISTS phrasetype (
		fieldname TEXT PRIMARY KEY,
		title TEXT NOT NULL DEFAULT '',
		product TEXT NOT NULL DEFAULT ''
	);
	CREATE TABLE IF NOT EXISTS phrase (
		phraseid INTEGER PRIMARY KEY AUTOINCREMENT,
		languageid INTEGER NOT NULL DEFAULT -1,
		varname TEXT NOT NULL,
		fieldname TEXT NOT NULL DEFAULT 'global',
		text TEXT NOT NULL DEFAULT '',
		product TEXT NOT NULL DEFAULT ''
	);
	CREATE TABLE IF NOT EXISTS settinggroup (
		grouptitle TEXT PRIMARY KEY,
		displayorder TEXT NOT NULL DEFAULT '',
		product TEXT NOT NULL DEFAULT ''
	);
	CREATE TABLE IF NOT EXISTS setting (
		varname TEXT PRIMARY KEY,
		grouptitle TEXT NOT NULL,
		value TEXT,
		defaultvalue TEXT,
		optioncode TEXT,
		displayorder TEXT NOT NULL DEFAULT '',
		advanced TEXT,
		volatile INTEGER NOT NULL DEFAULT 1,
		datatype TEXT,
		validationcode TEXT,
		blacklist TEXT,
		product TEXT NOT NULL DEFAULT ''
	);
	CREATE TABLE IF NOT EXISTS cron (
		cronid INTEGER PRIMARY KEY AUTOINCREMENT,
		varname TEXT NOT NULL,
		weekday TEXT NOT NULL DEFAULT '-1',
		day TEXT NOT NULL DEFAULT '-1',
		hour TEXT NOT NULL DEFAULT '-1',
		minute TEXT NOT NULL DEFAULT '',
		filename TEXT NOT NULL DEFAULT '',
		loglevel INTEGER NOT NULL DEFAULT 1,
		active INTEGER NOT NULL DEFAULT 1,
		volatile INTEGER NOT NULL DEFAULT 1,
		product TEXT NOT NULL DEFAULT ''
	);
	CREATE TABLE IF NOT EXISTS navigation (
		navid INTEGER PRIMARY KEY AUTOINCREMENT,
		name TEXT NOT NULL,
		productid TEXT NOT NULL DEFAULT '',
		navtype TEXT NOT NULL,
		displayorder TEXT NOT NULL DEFAULT '',
		parent TEXT NOT NULL DEFAULT '',
		url TEXT NOT NULL DEFAULT '',
		showperm TEXT NOT NULL DEFAULT '',
		scripts TEXT NOT NULL DEFAULT ''
	);
	CREATE TABLE IF NOT EXISTS build_history (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		build_id TEXT NOT NULL,
		product_id TEXT NOT NULL,
		status TEXT NOT NULL,
		started_at INTEGER NOT NULL,
		duration_ms INTEGER NOT NULL DEFAULT 0,
		revision TEXT NOT NULL DEFAULT '',
		document_path TEXT NOT NULL DEFAULT '',
		files_staged INTEGER NOT NULL DEFAULT 0,
		error TEXT NOT NULL DEFAULT ''
	);
	CREATE INDEX IF NOT EXISTS idx_phrase_product ON phrase(product);
	CREATE INDEX IF NOT EXISTS idx_build_history_product ON build_history(product_id);
	`
	_, err := h.db.Exec(schema)
	return err
}

// GlobalPhraseGroups returns the phrase groups that belong to the host
// rather than to any product.
func (h *DB) GlobalPhraseGroups(ctx context.Context) ([]string, error) {
	h.mu.RLock()
	defer h.mu.RUnlock()

	rows, err := h.db.QueryContext(ctx, "SELECT fieldname FROM phrasetype WHERE product = '' ORDER BY fieldname")
	if err != nil {
		return nil, dbErr("query phrase types", err)
	}
	defer func() { _ = rows.Close() }()

	var groups []string
	for rows.Next() {
		var name string
		if err := rows.Scan(&name); err != nil {
			return nil, dbErr("scan phrase type", err)
		}
		groups = append(groups, name)
	}
	if err := rows.Err(); err != nil {
		return nil, dbErr("iterate phrase types", err)
	}
	return groups, nil
}

// Close closes the database connection.
func (h *DB) Close() error {
	h.mu.Lock()
	defer h.mu.Unlock()
	return h.db.Close()
}

func dbErr(msg string, err error) error {
	return foundationerrors.DatabaseError(msg).WithCause(err).Build()
}
