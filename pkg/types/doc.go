// Package types provides shared type definitions for the apertium stats service.
//
// This package defines the domain vocabulary used across the classifier,
// parsers, listing client, coordinator, and storage layers.
//
// # Core Types
//
// FileKind is the recognized structural format of a resource file, and
// StatKind is a quantity measured from it. Each FileKind produces a fixed
// subset of StatKinds:
//
//	types.FileLexc.StatKinds() // [stems vanilla_stems]
//	types.FileLexd.StatKinds() // [lexicons lexicon_entries patterns pattern_entries]
//
// FileDescriptor is one file from a remote listing. Task is one unit of
// in-flight work, identified within its package by (Kind, Path):
//
//	task := types.Task{
//	    Created: time.Now(),
//	    File:    descriptor,
//	    Kind:    types.FileBidix,
//	}
//	key := task.Key()
//
// Entry is a persisted statistic row. Rows are never updated; the current
// value for a (package, path, stat kind) triple is the newest row.
//
// # Errors
//
// Typed errors wrap sentinels so callers can branch with errors.Is:
//
//	if errors.Is(err, types.ErrPackageNotFound) {
//	    // listing failed: unknown package
//	}
//
//	var perr *types.ParseError
//	if errors.As(err, &perr) {
//	    log.Printf("bad %s at offset %d", perr.Path, perr.Offset)
//	}
package types
