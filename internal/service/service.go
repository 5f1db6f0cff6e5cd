// Package service answers statistics requests for a package.
//
// Stored results are served when present. Otherwise the request either
// reports work already in flight or hands the package to the coordinator.
package service

import (
	"context"
	"fmt"
	"regexp"
	"sort"
	"strings"

	"go.uber.org/zap"

	"github.com/dshills/apertium-stats-mcp/internal/classifier"
	"github.com/dshills/apertium-stats-mcp/internal/coordinator"
	"github.com/dshills/apertium-stats-mcp/pkg/types"
)

// PackagePrefix is prepended to bare language codes
const PackagePrefix = "apertium-"

var packageNamePatterns = []*regexp.Regexp{
	regexp.MustCompile(`^` + PackagePrefix + `(` + classifier.LangCodePattern + `)$`),
	regexp.MustCompile(`^` + PackagePrefix + `(` + classifier.LangCodePattern + `)-(` + classifier.LangCodePattern + `)$`),
}

// NormalizeName adds the package prefix when missing and validates the
// result as a module ("apertium-kaz") or pair ("apertium-kaz-tat") name.
func NormalizeName(name string) (string, error) {
	name = strings.TrimSpace(name)
	if !strings.HasPrefix(name, PackagePrefix) {
		name = PackagePrefix + name
	}
	for _, re := range packageNamePatterns {
		if re.MatchString(name) {
			return name, nil
		}
	}
	return "", fmt.Errorf("%w: %q", types.ErrInvalidPackage, name)
}

// Status describes the state of a Result
type Status string

const (
	// StatusOK means Stats holds computed values
	StatusOK Status = "ok"
	// StatusInProgress means nothing is stored yet but matching work is in flight
	StatusInProgress Status = "in_progress"
	// StatusAccepted means tasks were launched and the caller did not wait
	StatusAccepted Status = "accepted"
)

// Result is the answer to a stats request
type Result struct {
	Name       string        `json:"name"`
	Status     Status        `json:"status"`
	Stats      []types.Entry `json:"stats"`
	InProgress []types.Task  `json:"in_progress"`
}

// Options modify how a package is listed and awaited
type Options struct {
	Recursive bool
	Async     bool
}

// Coordinator launches and tracks per-file tasks
type Coordinator interface {
	BuildTasks(ctx context.Context, pkg string, kind *types.FileKind, recursive bool) ([]types.Task, []types.Task, *coordinator.Batch, error)
	GetInProgress(pkg string) ([]types.Task, bool)
}

// Store reads persisted entries
type Store interface {
	LatestEntries(ctx context.Context, pkg string, kind *types.FileKind) ([]types.Entry, error)
	HasEntries(ctx context.Context, pkg string, kind *types.FileKind) (bool, error)
}

// Service combines the store and the coordinator
type Service struct {
	coordinator Coordinator
	store       Store
	logger      *zap.Logger
}

// New creates a Service
func New(c Coordinator, store Store, logger *zap.Logger) *Service {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Service{coordinator: c, store: store, logger: logger}
}

// GetStats returns stored statistics for pkg, restricted to kind when non-nil.
// With nothing stored it reports matching in-flight work, or calculates.
func (s *Service) GetStats(ctx context.Context, pkg string, kind *types.FileKind, opts Options) (*Result, error) {
	has, err := s.store.HasEntries(ctx, pkg, kind)
	if err != nil {
		return nil, fmt.Errorf("check stored entries: %w", err)
	}

	if has {
		entries, err := s.store.LatestEntries(ctx, pkg, kind)
		if err != nil {
			return nil, fmt.Errorf("load stored entries: %w", err)
		}
		inProgress, _ := s.coordinator.GetInProgress(pkg)
		return &Result{
			Name:       pkg,
			Status:     StatusOK,
			Stats:      nonNilEntries(entries),
			InProgress: nonNilTasks(inProgress),
		}, nil
	}

	if inProgress, ok := s.coordinator.GetInProgress(pkg); ok && hasKind(inProgress, kind) {
		return &Result{
			Name:       pkg,
			Status:     StatusInProgress,
			Stats:      []types.Entry{},
			InProgress: inProgress,
		}, nil
	}

	return s.CalculateStats(ctx, pkg, kind, opts)
}

// CalculateStats launches tasks for pkg. Unless opts.Async is set it waits
// for the new tasks and returns their entries.
func (s *Service) CalculateStats(ctx context.Context, pkg string, kind *types.FileKind, opts Options) (*Result, error) {
	newTasks, inProgress, batch, err := s.coordinator.BuildTasks(ctx, pkg, kind, opts.Recursive)
	if err != nil {
		return nil, err
	}

	if len(newTasks) == 0 && len(inProgress) == 0 {
		return nil, fmt.Errorf("%w: %s", types.ErrNoRecognizedFiles, pkg)
	}

	if opts.Async {
		return &Result{
			Name:       pkg,
			Status:     StatusAccepted,
			Stats:      []types.Entry{},
			InProgress: inProgress,
		}, nil
	}

	entries, err := batch.Wait(ctx)
	if err != nil {
		s.logger.Warn("stopped waiting for tasks",
			zap.String("package", pkg),
			zap.Int("tasks", len(newTasks)),
			zap.Error(err))
		return nil, err
	}
	sortEntries(entries)

	return &Result{
		Name:       pkg,
		Status:     StatusOK,
		Stats:      nonNilEntries(entries),
		InProgress: []types.Task{},
	}, nil
}

// InProgress returns the tasks in flight for pkg, never nil
func (s *Service) InProgress(pkg string) []types.Task {
	tasks, _ := s.coordinator.GetInProgress(pkg)
	return nonNilTasks(tasks)
}

func hasKind(tasks []types.Task, kind *types.FileKind) bool {
	if kind == nil {
		return len(tasks) > 0
	}
	for _, t := range tasks {
		if t.Kind == *kind {
			return true
		}
	}
	return false
}

func sortEntries(entries []types.Entry) {
	sort.Slice(entries, func(i, j int) bool {
		if entries[i].Path != entries[j].Path {
			return entries[i].Path < entries[j].Path
		}
		return entries[i].StatKind < entries[j].StatKind
	})
}

func nonNilEntries(entries []types.Entry) []types.Entry {
	if entries == nil {
		return []types.Entry{}
	}
	return entries
}

func nonNilTasks(tasks []types.Task) []types.Task {
	if tasks == nil {
		return []types.Task{}
	}
	return tasks
}
