package listing

import (
	"context"
	"fmt"
	"strconv"
	"strings"
	"sync"

	lru "github.com/hashicorp/golang-lru/v2"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/dshills/apertium-stats-mcp/pkg/types"
)

// hashCache maps (package, revision) to the content hash of that revision.
// Entries never go stale since a revision's hash is immutable.
type hashCache struct {
	cache *lru.Cache[string, string]
}

func newHashCache(size int) *hashCache {
	if size <= 0 {
		size = defaultHashCacheSize
	}
	cache, err := lru.New[string, string](size)
	if err != nil {
		cache, _ = lru.New[string, string](defaultHashCacheSize)
	}
	return &hashCache{cache: cache}
}

func hashKey(pkg string, revision int64) string {
	return pkg + "@" + strconv.FormatInt(revision, 10)
}

func (h *hashCache) get(pkg string, revision int64) (string, bool) {
	return h.cache.Get(hashKey(pkg, revision))
}

func (h *hashCache) add(pkg string, revision int64, hash string) {
	h.cache.Add(hashKey(pkg, revision), hash)
}

// ResolveHashes fills in the content hash of every file. Each distinct
// revision is looked up once. Files whose revision cannot be resolved are
// logged and dropped from the result.
func (c *Client) ResolveHashes(ctx context.Context, pkg string, files []types.FileDescriptor) []types.FileDescriptor {
	revisions := make(map[int64]struct{})
	for _, f := range files {
		revisions[f.Revision] = struct{}{}
	}

	var (
		mu       sync.Mutex
		resolved = make(map[int64]string, len(revisions))
		missing  = make([]int64, 0, len(revisions))
	)

	// Cache hits are recorded before any worker starts writing to resolved.
	for rev := range revisions {
		if hash, ok := c.hashes.get(pkg, rev); ok {
			resolved[rev] = hash
			continue
		}
		missing = append(missing, rev)
	}

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(c.workers)

	for _, rev := range missing {
		g.Go(func() error {
			hash, err := c.revisionHash(gctx, pkg, rev)
			if err != nil {
				c.logger.Warn("failed to resolve revision hash",
					zap.String("package", pkg),
					zap.Int64("revision", rev),
					zap.Error(err))
				return nil
			}
			c.hashes.add(pkg, rev, hash)

			mu.Lock()
			resolved[rev] = hash
			mu.Unlock()
			return nil
		})
	}
	_ = g.Wait()

	out := make([]types.FileDescriptor, 0, len(files))
	for _, f := range files {
		hash, ok := resolved[f.Revision]
		if !ok {
			continue
		}
		f.Hash = hash
		out = append(out, f)
	}
	return out
}

func (c *Client) revisionHash(ctx context.Context, pkg string, revision int64) (string, error) {
	res, err := c.runner.Run(ctx, c.svn,
		"propget", "git-commit", "--revprop",
		"-r", strconv.FormatInt(revision, 10),
		c.TrunkURL(pkg))
	if err != nil {
		return "", err
	}
	if !res.Success() {
		return "", fmt.Errorf("%s propget exited with status %d: %s",
			c.svn, res.ExitCode, strings.TrimSpace(string(res.Stderr)))
	}

	hash := strings.TrimSpace(string(res.Stdout))
	if hash == "" {
		return "", fmt.Errorf("revision %d has no git-commit property", revision)
	}
	return hash, nil
}
