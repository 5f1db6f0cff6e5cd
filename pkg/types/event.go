package types

import "time"

// StatsComputedEvent announces that statistics for one file were persisted
type StatsComputedEvent struct {
	RequestID string    `json:"request_id"`
	Package   string    `json:"name"`
	Path      string    `json:"path"`
	FileKind  FileKind  `json:"file_kind"`
	Revision  int64     `json:"revision"`
	Hash      string    `json:"sha"`
	Stats     []Stat    `json:"stats"`
	Computed  time.Time `json:"computed"`
}

// NewStatsComputedEvent summarizes entries belonging to a single task
func NewStatsComputedEvent(requestID, pkg string, task Task, entries []Entry, computed time.Time) StatsComputedEvent {
	stats := make([]Stat, 0, len(entries))
	for _, e := range entries {
		stats = append(stats, Stat{Kind: e.StatKind, Value: e.Value})
	}
	return StatsComputedEvent{
		RequestID: requestID,
		Package:   pkg,
		Path:      task.File.Path,
		FileKind:  task.Kind,
		Revision:  task.File.Revision,
		Hash:      task.File.Hash,
		Stats:     stats,
		Computed:  computed,
	}
}
