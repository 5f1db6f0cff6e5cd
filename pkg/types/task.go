package types

import "time"

// FileDescriptor describes one file from a remote listing.
// It is produced fresh on every listing call and only carried through to entries.
type FileDescriptor struct {
	Path        string    `json:"path"` // Relative to the package trunk
	Size        int64     `json:"size"`
	Revision    int64     `json:"revision"`
	Hash        string    `json:"sha,omitempty"` // Content-addressable identifier at Revision
	Author      string    `json:"last_author"`
	LastChanged time.Time `json:"last_changed"`
}

// Task is one unit of pending or in-flight fetch+parse+persist work
type Task struct {
	Created time.Time      `json:"created"`
	File    FileDescriptor `json:"file"`
	Kind    FileKind       `json:"kind"`
}

// TaskKey identifies a task within a package
type TaskKey struct {
	Kind FileKind
	Path string
}

// Key returns the (kind, path) identity of the task
func (t Task) Key() TaskKey {
	return TaskKey{Kind: t.Kind, Path: t.File.Path}
}

// Entry is one persisted statistic row. Rows are append-only; the current
// value for (package, path, stat kind) is the most recently created row.
type Entry struct {
	Requested   time.Time `json:"requested"`
	Created     time.Time `json:"created"`
	Package     string    `json:"name"`
	Revision    int64     `json:"revision"`
	Hash        string    `json:"sha"`
	Path        string    `json:"path"`
	Author      string    `json:"last_author"`
	LastChanged time.Time `json:"last_changed"`
	Size        int64     `json:"size"`
	FileKind    FileKind  `json:"file_kind"`
	StatKind    StatKind  `json:"stat_kind"`
	Value       int64     `json:"value"`
}

// NewEntries builds one Entry per stat for the file described by task
func NewEntries(pkg string, task Task, stats []Stat, created time.Time) []Entry {
	entries := make([]Entry, 0, len(stats))
	for _, s := range stats {
		entries = append(entries, Entry{
			Requested:   task.Created,
			Created:     created,
			Package:     pkg,
			Revision:    task.File.Revision,
			Hash:        task.File.Hash,
			Path:        task.File.Path,
			Author:      task.File.Author,
			LastChanged: task.File.LastChanged,
			Size:        task.File.Size,
			FileKind:    task.Kind,
			StatKind:    s.Kind,
			Value:       s.Value,
		})
	}
	return entries
}
