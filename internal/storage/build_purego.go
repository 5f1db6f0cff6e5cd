//go:build !sqlite_cgo

package storage

// Default build: modernc.org/sqlite needs no C toolchain.
//
//	CGO_ENABLED=0 go build ./...

import (
	_ "modernc.org/sqlite"
)

const (
	// DriverName is the database/sql driver registered by modernc.org/sqlite
	DriverName = "sqlite"
	// BuildMode is reported by the version command
	BuildMode = "purego"
)
