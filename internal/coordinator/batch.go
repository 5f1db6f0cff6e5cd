package coordinator

import (
	"context"
	"sync"

	"github.com/dshills/apertium-stats-mcp/pkg/types"
)

// Batch aggregates the execution units launched by one BuildTasks call.
// Work continues whether or not anyone waits on it.
type Batch struct {
	tasks []types.Task
	done  chan struct{}

	mu      sync.Mutex
	entries []types.Entry
}

func newBatch(tasks []types.Task) *Batch {
	return &Batch{
		tasks: tasks,
		done:  make(chan struct{}),
	}
}

func (b *Batch) add(entries []types.Entry) {
	if len(entries) == 0 {
		return
	}
	b.mu.Lock()
	b.entries = append(b.entries, entries...)
	b.mu.Unlock()
}

// Tasks returns the tasks this batch executes
func (b *Batch) Tasks() []types.Task {
	out := make([]types.Task, len(b.tasks))
	copy(out, b.tasks)
	return out
}

// Done is closed once every task has completed
func (b *Batch) Done() <-chan struct{} {
	return b.done
}

// Wait blocks until the batch completes and returns the concatenated entries
// of all tasks that succeeded. Returning early on ctx does not stop the work.
func (b *Batch) Wait(ctx context.Context) ([]types.Entry, error) {
	select {
	case <-b.done:
	case <-ctx.Done():
		return nil, ctx.Err()
	}

	b.mu.Lock()
	defer b.mu.Unlock()
	out := make([]types.Entry, len(b.entries))
	copy(out, b.entries)
	return out, nil
}
