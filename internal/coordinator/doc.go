// Package coordinator deduplicates and runs stats computation tasks.
//
// A task is identified within its package by (FileKind, path) and moves
// through two states: in flight while registered, absent once its
// execution unit finishes, whether it succeeded or not. Completed results
// live only in the Sink.
//
// # Decision Phase
//
// BuildTasks lists the package, then holds a per-package lock while it reads
// the in-flight set, classifies and filters the listing, resolves content
// hashes for new files and registers the new tasks. Concurrent callers for
// the same package therefore never create the same task twice.
//
// # Execution
//
// Each new task runs fetch, parse, persist and notify on its own goroutine,
// bounded by a weighted semaphore shared across packages. Units are detached
// from the caller's context: once launched they run to completion, and a
// failure is logged and yields no entries.
//
//	created, inProgress, batch, err := c.BuildTasks(ctx, "apertium-kaz", nil, true)
//	if err != nil {
//	    return err
//	}
//	entries, err := batch.Wait(ctx)
package coordinator
