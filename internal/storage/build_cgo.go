//go:build sqlite_cgo

package storage

// Compiled with the sqlite_cgo tag (requires CGO_ENABLED=1):
//
//	CGO_ENABLED=1 go build -tags sqlite_cgo ./...

import (
	_ "github.com/mattn/go-sqlite3"
)

const (
	// DriverName is the database/sql driver registered by mattn/go-sqlite3
	DriverName = "sqlite3"
	// BuildMode is reported by the version command
	BuildMode = "cgo"
)
