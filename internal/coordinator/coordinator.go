package coordinator

import (
	"context"
	"runtime"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
	"golang.org/x/sync/semaphore"

	"github.com/dshills/apertium-stats-mcp/internal/classifier"
	"github.com/dshills/apertium-stats-mcp/pkg/types"
)

// Lister enumerates package files and resolves their content hashes
type Lister interface {
	ListFiles(ctx context.Context, pkg string, recursive bool) ([]types.FileDescriptor, error)
	ResolveHashes(ctx context.Context, pkg string, files []types.FileDescriptor) []types.FileDescriptor
}

// Fetcher retrieves the content of one file
type Fetcher interface {
	Fetch(ctx context.Context, pkg string, file types.FileDescriptor) ([]byte, error)
}

// StatsParser extracts statistics from file content
type StatsParser interface {
	Parse(ctx context.Context, kind types.FileKind, path string, body []byte) ([]types.Stat, error)
}

// Sink persists computed entries
type Sink interface {
	InsertEntries(ctx context.Context, entries []types.Entry) error
}

// Notifier announces persisted statistics
type Notifier interface {
	Publish(ctx context.Context, event types.StatsComputedEvent) error
}

// Config wires a Coordinator to its collaborators
type Config struct {
	Lister     Lister
	Classifier *classifier.Classifier // Default: classifier.Default()
	Fetcher    Fetcher
	Parser     StatsParser
	Sink       Sink
	Notifier   Notifier // Optional
	Workers    int      // Concurrent execution units (default: runtime.NumCPU())
	Logger     *zap.Logger
	Now        func() time.Time // Default: time.Now
}

// Coordinator tracks in-flight tasks per package and runs their
// fetch, parse and persist units. For a given package, no (kind, path) pair
// is ever in flight twice.
type Coordinator struct {
	lister     Lister
	classifier *classifier.Classifier
	fetcher    Fetcher
	parser     StatsParser
	sink       Sink
	notifier   Notifier
	logger     *zap.Logger
	now        func() time.Time

	// Bounds running execution units across all packages
	sem *semaphore.Weighted

	// Decision phase lock per package
	locks *keyedLocks

	// mu guards inflight. A present package key always maps to a non-empty set.
	mu       sync.Mutex
	inflight map[string]map[types.TaskKey]types.Task
}

// New creates a Coordinator
func New(cfg Config) *Coordinator {
	c := &Coordinator{
		lister:     cfg.Lister,
		classifier: cfg.Classifier,
		fetcher:    cfg.Fetcher,
		parser:     cfg.Parser,
		sink:       cfg.Sink,
		notifier:   cfg.Notifier,
		logger:     cfg.Logger,
		now:        cfg.Now,
		locks:      newKeyedLocks(),
		inflight:   make(map[string]map[types.TaskKey]types.Task),
	}

	workers := cfg.Workers
	if workers <= 0 {
		workers = runtime.NumCPU()
	}
	c.sem = semaphore.NewWeighted(int64(workers))

	if c.classifier == nil {
		c.classifier = classifier.Default()
	}
	if c.logger == nil {
		c.logger = zap.NewNop()
	}
	if c.now == nil {
		c.now = time.Now
	}
	return c
}

// BuildTasks lists pkg and launches a task for every classified file that
// matches kind (all kinds when nil) and is not already in flight.
//
// It returns the tasks created by this call, every task currently in flight
// for pkg, and a Batch over the new tasks. Listing errors are returned
// unchanged and create no tasks. An empty listing is not an error.
func (c *Coordinator) BuildTasks(ctx context.Context, pkg string, kind *types.FileKind, recursive bool) ([]types.Task, []types.Task, *Batch, error) {
	requestID := uuid.NewString()
	logger := c.logger.With(zap.String("request_id", requestID), zap.String("package", pkg))

	files, err := c.lister.ListFiles(ctx, pkg, recursive)
	if err != nil {
		logger.Warn("package listing failed", zap.Error(err))
		return nil, nil, nil, err
	}

	release := c.locks.Acquire(pkg)
	defer release()

	inflight := c.inflightKeys(pkg)

	kinds := make(map[string]types.FileKind)
	var candidates []types.FileDescriptor
	for _, f := range files {
		fk, ok := c.classifier.Classify(f.Path)
		if !ok {
			continue
		}
		if kind != nil && fk != *kind {
			continue
		}
		if _, busy := inflight[types.TaskKey{Kind: fk, Path: f.Path}]; busy {
			continue
		}
		if _, dup := kinds[f.Path]; dup {
			continue
		}
		kinds[f.Path] = fk
		candidates = append(candidates, f)
	}

	var tasks []types.Task
	if len(candidates) > 0 {
		created := c.now()
		for _, f := range c.lister.ResolveHashes(ctx, pkg, candidates) {
			tasks = append(tasks, types.Task{Created: created, File: f, Kind: kinds[f.Path]})
		}
	}

	inProgress := c.register(pkg, tasks)
	batch := c.launch(ctx, logger, requestID, pkg, tasks)

	logger.Info("built tasks",
		zap.Int("listed", len(files)),
		zap.Int("new", len(tasks)),
		zap.Int("in_progress", len(inProgress)))

	return tasks, inProgress, batch, nil
}

// GetInProgress returns a snapshot of the tasks in flight for pkg.
// ok is false when nothing is in flight.
func (c *Coordinator) GetInProgress(pkg string) ([]types.Task, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()

	set, ok := c.inflight[pkg]
	if !ok {
		return nil, false
	}
	return sortedTasks(set), true
}

func (c *Coordinator) inflightKeys(pkg string) map[types.TaskKey]struct{} {
	c.mu.Lock()
	defer c.mu.Unlock()

	keys := make(map[types.TaskKey]struct{}, len(c.inflight[pkg]))
	for k := range c.inflight[pkg] {
		keys[k] = struct{}{}
	}
	return keys
}

// register merges tasks into the in-flight set and returns the full set
func (c *Coordinator) register(pkg string, tasks []types.Task) []types.Task {
	c.mu.Lock()
	defer c.mu.Unlock()

	set, ok := c.inflight[pkg]
	if !ok {
		if len(tasks) == 0 {
			return []types.Task{}
		}
		set = make(map[types.TaskKey]types.Task, len(tasks))
		c.inflight[pkg] = set
	}
	for _, t := range tasks {
		set[t.Key()] = t
	}
	return sortedTasks(set)
}

// complete removes one finished task. It takes the package lock so removal
// never interleaves with a decision phase.
func (c *Coordinator) complete(pkg string, key types.TaskKey) {
	release := c.locks.Acquire(pkg)
	defer release()

	c.mu.Lock()
	defer c.mu.Unlock()

	set, ok := c.inflight[pkg]
	if !ok {
		return
	}
	delete(set, key)
	if len(set) == 0 {
		delete(c.inflight, pkg)
	}
}

func (c *Coordinator) launch(ctx context.Context, logger *zap.Logger, requestID, pkg string, tasks []types.Task) *Batch {
	batch := newBatch(tasks)
	// Units outlive the request that created them
	ctx = context.WithoutCancel(ctx)

	var g errgroup.Group
	for _, task := range tasks {
		g.Go(func() error {
			if err := c.sem.Acquire(ctx, 1); err != nil {
				c.complete(pkg, task.Key())
				return nil
			}
			defer c.sem.Release(1)

			batch.add(c.run(ctx, logger, requestID, pkg, task))
			return nil
		})
	}

	go func() {
		_ = g.Wait()
		close(batch.done)
	}()
	return batch
}

// run executes one task. Failures are logged and yield no entries; the task
// always leaves the in-flight set.
func (c *Coordinator) run(ctx context.Context, logger *zap.Logger, requestID, pkg string, task types.Task) []types.Entry {
	defer c.complete(pkg, task.Key())

	logger = logger.With(
		zap.String("path", task.File.Path),
		zap.String("kind", string(task.Kind)),
		zap.Int64("revision", task.File.Revision))

	body, err := c.fetcher.Fetch(ctx, pkg, task.File)
	if err != nil {
		logger.Error("failed to fetch file", zap.Error(err))
		return nil
	}

	stats, err := c.parser.Parse(ctx, task.Kind, task.File.Path, body)
	if err != nil {
		logger.Error("failed to parse file", zap.Error(err))
		return nil
	}

	entries := types.NewEntries(pkg, task, stats, c.now())
	if len(entries) == 0 {
		return nil
	}

	if err := c.sink.InsertEntries(ctx, entries); err != nil {
		logger.Error("failed to persist entries",
			zap.Error(&types.PersistError{Package: pkg, Path: task.File.Path, Err: err}))
		return nil
	}

	if c.notifier != nil {
		event := types.NewStatsComputedEvent(requestID, pkg, task, entries, c.now())
		if err := c.notifier.Publish(ctx, event); err != nil {
			logger.Warn("failed to publish stats event", zap.Error(err))
		}
	}

	logger.Debug("computed file stats", zap.Int("entries", len(entries)))
	return entries
}

func sortedTasks(set map[types.TaskKey]types.Task) []types.Task {
	out := make([]types.Task, 0, len(set))
	for _, t := range set {
		out = append(out, t)
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].File.Path != out[j].File.Path {
			return out[i].File.Path < out[j].File.Path
		}
		return out[i].Kind < out[j].Kind
	})
	return out
}
