package service

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dshills/apertium-stats-mcp/internal/coordinator"
	"github.com/dshills/apertium-stats-mcp/internal/storage"
	"github.com/dshills/apertium-stats-mcp/pkg/types"
)

const testPackage = "apertium-kaz"

type staticLister struct {
	files []types.FileDescriptor
	err   error
}

func (l *staticLister) ListFiles(_ context.Context, _ string, _ bool) ([]types.FileDescriptor, error) {
	return l.files, l.err
}

func (l *staticLister) ResolveHashes(_ context.Context, _ string, files []types.FileDescriptor) []types.FileDescriptor {
	out := make([]types.FileDescriptor, len(files))
	for i, f := range files {
		f.Hash = "abc123"
		out[i] = f
	}
	return out
}

// blockingFetcher holds fetches until release is called
type blockingFetcher struct {
	gate chan struct{}
	once sync.Once
}

func newBlockingFetcher(open bool) *blockingFetcher {
	f := &blockingFetcher{gate: make(chan struct{})}
	if open {
		f.release()
	}
	return f
}

func (f *blockingFetcher) release() {
	f.once.Do(func() { close(f.gate) })
}

func (f *blockingFetcher) Fetch(ctx context.Context, _ string, file types.FileDescriptor) ([]byte, error) {
	select {
	case <-f.gate:
		return []byte(file.Path), nil
	case <-ctx.Done():
		return nil, ctx.Err()
	}
}

type countingParser struct{}

func (countingParser) Parse(_ context.Context, kind types.FileKind, _ string, body []byte) ([]types.Stat, error) {
	stats := make([]types.Stat, 0)
	for _, sk := range kind.StatKinds() {
		stats = append(stats, types.Stat{Kind: sk, Value: int64(len(body))})
	}
	return stats, nil
}

type harness struct {
	svc     *Service
	coord   *coordinator.Coordinator
	store   *storage.SQLiteStorage
	fetcher *blockingFetcher
}

func newHarness(t *testing.T, lister *staticLister, open bool) *harness {
	t.Helper()
	store, err := storage.NewSQLiteStorage(":memory:")
	require.NoError(t, err)
	t.Cleanup(func() { _ = store.Close() })

	fetcher := newBlockingFetcher(open)
	t.Cleanup(fetcher.release)

	coord := coordinator.New(coordinator.Config{
		Lister:  lister,
		Fetcher: fetcher,
		Parser:  countingParser{},
		Sink:    store,
		Workers: 4,
	})
	return &harness{
		svc:     New(coord, store, nil),
		coord:   coord,
		store:   store,
		fetcher: fetcher,
	}
}

var kazFiles = []types.FileDescriptor{
	{Path: "apertium-kaz.kaz.lexc", Revision: 10, Size: 1},
	{Path: "apertium-kaz.kaz.twol", Revision: 10, Size: 2},
	{Path: "README.md", Revision: 10, Size: 3},
}

func waitIdle(t *testing.T, c *coordinator.Coordinator, pkg string) {
	t.Helper()
	require.Eventually(t, func() bool {
		_, busy := c.GetInProgress(pkg)
		return !busy
	}, 5*time.Second, 10*time.Millisecond)
}

func TestNormalizeName(t *testing.T) {
	tests := []struct {
		in      string
		want    string
		wantErr bool
	}{
		{"kaz", "apertium-kaz", false},
		{"apertium-kaz", "apertium-kaz", false},
		{"kaz-tat", "apertium-kaz-tat", false},
		{" apertium-por_BR ", "apertium-por_BR", false},
		{"apertium-kaz-tat-tur", "", true},
		{"k", "", true},
		{"", "", true},
		{"kaz/../tat", "", true},
	}
	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			got, err := NormalizeName(tt.in)
			if tt.wantErr {
				assert.ErrorIs(t, err, types.ErrInvalidPackage)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestCalculateStats_Sync(t *testing.T) {
	h := newHarness(t, &staticLister{files: kazFiles}, true)

	res, err := h.svc.CalculateStats(context.Background(), testPackage, nil, Options{})
	require.NoError(t, err)

	assert.Equal(t, StatusOK, res.Status)
	assert.Equal(t, testPackage, res.Name)
	assert.Empty(t, res.InProgress)
	// lexc yields two stats, twol one
	require.Len(t, res.Stats, 3)
	assert.Equal(t, "apertium-kaz.kaz.lexc", res.Stats[0].Path)
	assert.Equal(t, "apertium-kaz.kaz.twol", res.Stats[2].Path)

	waitIdle(t, h.coord, testPackage)
	stored, err := h.store.LatestEntries(context.Background(), testPackage, nil)
	require.NoError(t, err)
	assert.Len(t, stored, 3)
}

func TestCalculateStats_Async(t *testing.T) {
	h := newHarness(t, &staticLister{files: kazFiles}, false)

	res, err := h.svc.CalculateStats(context.Background(), testPackage, nil, Options{Async: true})
	require.NoError(t, err)
	assert.Equal(t, StatusAccepted, res.Status)
	assert.Len(t, res.InProgress, 2)
	assert.Empty(t, res.Stats)

	assert.Len(t, h.svc.InProgress(testPackage), 2)

	h.fetcher.release()
	waitIdle(t, h.coord, testPackage)
	assert.Empty(t, h.svc.InProgress(testPackage))
}

func TestCalculateStats_NoRecognizedFiles(t *testing.T) {
	h := newHarness(t, &staticLister{files: []types.FileDescriptor{{Path: "README.md"}}}, true)

	_, err := h.svc.CalculateStats(context.Background(), testPackage, nil, Options{})
	assert.ErrorIs(t, err, types.ErrNoRecognizedFiles)
	assert.NotErrorIs(t, err, types.ErrPackageNotFound)
}

func TestCalculateStats_PackageNotFound(t *testing.T) {
	listErr := &types.ListingError{Package: "apertium-xxx", Err: types.ErrPackageNotFound}
	h := newHarness(t, &staticLister{err: listErr}, true)

	_, err := h.svc.CalculateStats(context.Background(), "apertium-xxx", nil, Options{})
	assert.ErrorIs(t, err, types.ErrPackageNotFound)
	assert.NotErrorIs(t, err, types.ErrNoRecognizedFiles)
}

func TestCalculateStats_WaitCanceled(t *testing.T) {
	h := newHarness(t, &staticLister{files: kazFiles}, false)

	ctx, cancel := context.WithTimeout(context.Background(), 50*time.Millisecond)
	defer cancel()

	_, err := h.svc.CalculateStats(ctx, testPackage, nil, Options{})
	assert.True(t, errors.Is(err, context.DeadlineExceeded))

	// Tasks survive the abandoned wait
	assert.Len(t, h.svc.InProgress(testPackage), 2)
	h.fetcher.release()
	waitIdle(t, h.coord, testPackage)

	has, err := h.store.HasEntries(context.Background(), testPackage, nil)
	require.NoError(t, err)
	assert.True(t, has)
}

func TestGetStats_ComputesWhenEmpty(t *testing.T) {
	h := newHarness(t, &staticLister{files: kazFiles}, true)

	res, err := h.svc.GetStats(context.Background(), testPackage, nil, Options{})
	require.NoError(t, err)
	assert.Equal(t, StatusOK, res.Status)
	assert.Len(t, res.Stats, 3)
}

func TestGetStats_ServesStored(t *testing.T) {
	lister := &staticLister{files: kazFiles}
	h := newHarness(t, lister, true)
	ctx := context.Background()

	_, err := h.svc.CalculateStats(ctx, testPackage, nil, Options{})
	require.NoError(t, err)
	waitIdle(t, h.coord, testPackage)

	// A listing failure would surface if GetStats recalculated
	lister.err = errors.New("listing must not be called")

	res, err := h.svc.GetStats(ctx, testPackage, nil, Options{})
	require.NoError(t, err)
	assert.Equal(t, StatusOK, res.Status)
	assert.Len(t, res.Stats, 3)
	assert.NotNil(t, res.InProgress)

	twol := types.FileTwol
	res, err = h.svc.GetStats(ctx, testPackage, &twol, Options{})
	require.NoError(t, err)
	require.Len(t, res.Stats, 1)
	assert.Equal(t, types.StatRules, res.Stats[0].StatKind)
}

func TestGetStats_ReportsInProgress(t *testing.T) {
	h := newHarness(t, &staticLister{files: kazFiles}, false)
	ctx := context.Background()

	_, err := h.svc.CalculateStats(ctx, testPackage, nil, Options{Async: true})
	require.NoError(t, err)

	res, err := h.svc.GetStats(ctx, testPackage, nil, Options{})
	require.NoError(t, err)
	assert.Equal(t, StatusInProgress, res.Status)
	assert.Len(t, res.InProgress, 2)

	lexc := types.FileLexc
	res, err = h.svc.GetStats(ctx, testPackage, &lexc, Options{})
	require.NoError(t, err)
	assert.Equal(t, StatusInProgress, res.Status)

	h.fetcher.release()
	waitIdle(t, h.coord, testPackage)
}

func TestGetStats_OtherKindInProgress(t *testing.T) {
	lexcOnly := []types.FileDescriptor{kazFiles[0]}
	lister := &staticLister{files: lexcOnly}
	h := newHarness(t, lister, false)
	ctx := context.Background()

	_, err := h.svc.CalculateStats(ctx, testPackage, nil, Options{Async: true})
	require.NoError(t, err)

	// twol is not in flight, so the request calculates it
	lister.files = kazFiles
	twol := types.FileTwol
	res, err := h.svc.GetStats(ctx, testPackage, &twol, Options{Async: true})
	require.NoError(t, err)
	assert.Equal(t, StatusAccepted, res.Status)
	assert.Len(t, res.InProgress, 2)

	h.fetcher.release()
	waitIdle(t, h.coord, testPackage)
}
