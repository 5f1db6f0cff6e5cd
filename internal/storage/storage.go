package storage

import (
	"context"

	"github.com/dshills/apertium-stats-mcp/pkg/types"
)

// Storage defines the interface for persisting and querying stat entries
type Storage interface {
	// InsertEntries appends entries in a single transaction
	InsertEntries(ctx context.Context, entries []types.Entry) error

	// LatestEntries returns the newest entry per (path, stat kind) for pkg,
	// restricted to kind when non-nil
	LatestEntries(ctx context.Context, pkg string, kind *types.FileKind) ([]types.Entry, error)

	// HasEntries reports whether any entry exists for pkg (and kind when non-nil)
	HasEntries(ctx context.Context, pkg string, kind *types.FileKind) (bool, error)

	// Packages lists every package with at least one entry
	Packages(ctx context.Context) ([]string, error)

	// Database operations
	Close() error
	BeginTx(ctx context.Context) (Tx, error)
}

// Tx represents a database transaction
type Tx interface {
	Commit() error
	Rollback() error
	Storage // Embed Storage interface for transaction operations
}
