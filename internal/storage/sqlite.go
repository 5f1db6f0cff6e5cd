package storage

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/dshills/apertium-stats-mcp/pkg/types"
)

// ErrNestedTx is returned when a transaction is opened inside another
var ErrNestedTx = errors.New("nested transactions not supported")

// timeLayout is fixed width so stored timestamps sort lexically
const timeLayout = "2006-01-02T15:04:05.000000000Z"

func formatTime(t time.Time) string {
	return t.UTC().Format(timeLayout)
}

func parseTime(s string) (time.Time, error) {
	t, err := time.Parse(timeLayout, s)
	if err != nil {
		return time.Time{}, fmt.Errorf("invalid stored timestamp %q: %w", s, err)
	}
	return t, nil
}

// SQLiteStorage implements the Storage interface using SQLite
type SQLiteStorage struct {
	db *sql.DB
}

// openDatabase opens a SQLite database with appropriate settings
func openDatabase(dbPath string) (*sql.DB, error) {
	db, err := sql.Open(DriverName, dbPath)
	if err != nil {
		return nil, err
	}

	// Enable WAL mode for better concurrency
	if _, err := db.Exec("PRAGMA journal_mode=WAL"); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("failed to enable WAL mode: %w", err)
	}

	// Set connection pool settings
	db.SetMaxOpenConns(1) // SQLite benefits from single writer
	db.SetMaxIdleConns(1)
	db.SetConnMaxLifetime(0)

	if _, err := db.Exec("PRAGMA busy_timeout=5000"); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("failed to set busy timeout: %w", err)
	}

	return db, nil
}

// NewSQLiteStorage creates a new SQLite storage instance
func NewSQLiteStorage(dbPath string) (*SQLiteStorage, error) {
	db, err := openDatabase(dbPath)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	// Apply migrations
	if err := ApplyMigrations(context.Background(), db); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("failed to apply migrations: %w", err)
	}

	return &SQLiteStorage{db: db}, nil
}

// Close closes the database connection
func (s *SQLiteStorage) Close() error {
	return s.db.Close()
}

// BeginTx starts a new transaction
func (s *SQLiteStorage) BeginTx(ctx context.Context) (Tx, error) {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return nil, err
	}
	return &sqliteTx{tx: tx, storage: s}, nil
}

// querier is an interface that both *sql.DB and *sql.Tx implement
type querier interface {
	ExecContext(ctx context.Context, query string, args ...interface{}) (sql.Result, error)
	QueryContext(ctx context.Context, query string, args ...interface{}) (*sql.Rows, error)
	QueryRowContext(ctx context.Context, query string, args ...interface{}) *sql.Row
}

// sqliteTx wraps a SQL transaction
type sqliteTx struct {
	tx      *sql.Tx
	storage *SQLiteStorage
}

func (t *sqliteTx) Commit() error {
	return t.tx.Commit()
}

func (t *sqliteTx) Rollback() error {
	return t.tx.Rollback()
}

// querier returns the transaction querier
func (t *sqliteTx) querier() querier {
	return t.tx
}

// querier returns the DB querier
func (s *SQLiteStorage) querier() querier {
	return s.db
}

// Entry operations

const insertEntrySQL = `
	INSERT INTO entries (
		package, path, file_kind, stat_kind, value,
		revision, sha, author, last_changed, size,
		requested, created
	) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
`

func insertEntriesWithQuerier(ctx context.Context, q querier, entries []types.Entry) error {
	for _, e := range entries {
		_, err := q.ExecContext(ctx, insertEntrySQL,
			e.Package, e.Path, string(e.FileKind), string(e.StatKind), e.Value,
			e.Revision, e.Hash, e.Author, formatTime(e.LastChanged), e.Size,
			formatTime(e.Requested), formatTime(e.Created))
		if err != nil {
			return fmt.Errorf("failed to insert entry %s/%s: %w", e.Path, e.StatKind, err)
		}
	}
	return nil
}

// InsertEntries appends entries atomically
func (s *SQLiteStorage) InsertEntries(ctx context.Context, entries []types.Entry) error {
	if len(entries) == 0 {
		return nil
	}

	tx, err := s.BeginTx(ctx)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer func() { _ = tx.Close() }()

	if err := tx.InsertEntries(ctx, entries); err != nil {
		return err
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit entries: %w", err)
	}
	return nil
}

func (t *sqliteTx) InsertEntries(ctx context.Context, entries []types.Entry) error {
	return insertEntriesWithQuerier(ctx, t.querier(), entries)
}

const latestEntriesSQL = `
	SELECT package, path, file_kind, stat_kind, value,
		revision, sha, author, last_changed, size,
		requested, created
	FROM (
		SELECT *, ROW_NUMBER() OVER (
			PARTITION BY path, file_kind, stat_kind
			ORDER BY created DESC, id DESC
		) AS rn
		FROM entries
		WHERE package = ? AND (? = '' OR file_kind = ?)
	)
	WHERE rn = 1
	ORDER BY path, stat_kind
`

func latestEntriesWithQuerier(ctx context.Context, q querier, pkg string, kind *types.FileKind) ([]types.Entry, error) {
	k := kindArg(kind)
	rows, err := q.QueryContext(ctx, latestEntriesSQL, pkg, k, k)
	if err != nil {
		return nil, fmt.Errorf("failed to query entries: %w", err)
	}
	defer func() { _ = rows.Close() }()

	var entries []types.Entry
	for rows.Next() {
		e, err := scanEntry(rows)
		if err != nil {
			return nil, err
		}
		entries = append(entries, e)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to read entries: %w", err)
	}
	return entries, nil
}

// LatestEntries returns the current value of every stat for pkg
func (s *SQLiteStorage) LatestEntries(ctx context.Context, pkg string, kind *types.FileKind) ([]types.Entry, error) {
	return latestEntriesWithQuerier(ctx, s.querier(), pkg, kind)
}

func (t *sqliteTx) LatestEntries(ctx context.Context, pkg string, kind *types.FileKind) ([]types.Entry, error) {
	return latestEntriesWithQuerier(ctx, t.querier(), pkg, kind)
}

func hasEntriesWithQuerier(ctx context.Context, q querier, pkg string, kind *types.FileKind) (bool, error) {
	k := kindArg(kind)
	var exists int
	err := q.QueryRowContext(ctx,
		`SELECT EXISTS (SELECT 1 FROM entries WHERE package = ? AND (? = '' OR file_kind = ?))`,
		pkg, k, k).Scan(&exists)
	if err != nil {
		return false, fmt.Errorf("failed to check entries: %w", err)
	}
	return exists == 1, nil
}

// HasEntries reports whether pkg has been computed before
func (s *SQLiteStorage) HasEntries(ctx context.Context, pkg string, kind *types.FileKind) (bool, error) {
	return hasEntriesWithQuerier(ctx, s.querier(), pkg, kind)
}

func (t *sqliteTx) HasEntries(ctx context.Context, pkg string, kind *types.FileKind) (bool, error) {
	return hasEntriesWithQuerier(ctx, t.querier(), pkg, kind)
}

func packagesWithQuerier(ctx context.Context, q querier) ([]string, error) {
	rows, err := q.QueryContext(ctx, `SELECT DISTINCT package FROM entries ORDER BY package`)
	if err != nil {
		return nil, fmt.Errorf("failed to query packages: %w", err)
	}
	defer func() { _ = rows.Close() }()

	var pkgs []string
	for rows.Next() {
		var p string
		if err := rows.Scan(&p); err != nil {
			return nil, fmt.Errorf("failed to scan package: %w", err)
		}
		pkgs = append(pkgs, p)
	}
	return pkgs, rows.Err()
}

// Packages lists every package with stored entries
func (s *SQLiteStorage) Packages(ctx context.Context) ([]string, error) {
	return packagesWithQuerier(ctx, s.querier())
}

func (t *sqliteTx) Packages(ctx context.Context) ([]string, error) {
	return packagesWithQuerier(ctx, t.querier())
}

// Close rolls back the transaction if it has not been committed
func (t *sqliteTx) Close() error {
	err := t.tx.Rollback()
	if errors.Is(err, sql.ErrTxDone) {
		return nil
	}
	return err
}

func (t *sqliteTx) BeginTx(_ context.Context) (Tx, error) {
	return nil, ErrNestedTx
}

func kindArg(kind *types.FileKind) string {
	if kind == nil {
		return ""
	}
	return string(*kind)
}

func scanEntry(rows *sql.Rows) (types.Entry, error) {
	var (
		e                            types.Entry
		fileKind, statKind           string
		lastChanged, requested, made string
	)
	err := rows.Scan(
		&e.Package, &e.Path, &fileKind, &statKind, &e.Value,
		&e.Revision, &e.Hash, &e.Author, &lastChanged, &e.Size,
		&requested, &made)
	if err != nil {
		return types.Entry{}, fmt.Errorf("failed to scan entry: %w", err)
	}
	e.FileKind = types.FileKind(fileKind)
	e.StatKind = types.StatKind(statKind)

	if e.LastChanged, err = parseTime(lastChanged); err != nil {
		return types.Entry{}, err
	}
	if e.Requested, err = parseTime(requested); err != nil {
		return types.Entry{}, err
	}
	if e.Created, err = parseTime(made); err != nil {
		return types.Entry{}, err
	}
	return e, nil
}

// Verify implementations
var (
	_ Storage = (*SQLiteStorage)(nil)
	_ Tx      = (*sqliteTx)(nil)
)
