package listing

import (
	"context"
	"fmt"
	"strings"

	"go.uber.org/zap"

	"github.com/dshills/apertium-stats-mcp/internal/command"
	"github.com/dshills/apertium-stats-mcp/pkg/types"
)

// DefaultOrganizationRoot is the Subversion bridge for the Apertium organization
const DefaultOrganizationRoot = "https://github.com/apertium"

const (
	defaultSVN             = "svn"
	defaultHashConcurrency = 4
	defaultHashCacheSize   = 4096
)

// Config configures a listing Client
type Config struct {
	OrganizationRoot string         // Repository root (default: DefaultOrganizationRoot)
	SVN              string         // Path to the svn binary (default: "svn")
	Runner           command.Runner // Process runner (default: command.ExecRunner)
	Logger           *zap.Logger    // Default: no-op
	HashConcurrency  int            // Concurrent revision lookups (default: 4)
	HashCacheSize    int            // Cached revision hashes (default: 4096)
}

// Client lists package files through svn and resolves their revisions to
// content hashes
type Client struct {
	root    string
	svn     string
	runner  command.Runner
	logger  *zap.Logger
	workers int
	hashes  *hashCache
}

// New creates a listing Client
func New(cfg Config) *Client {
	c := &Client{
		root:    strings.TrimRight(cfg.OrganizationRoot, "/"),
		svn:     cfg.SVN,
		runner:  cfg.Runner,
		logger:  cfg.Logger,
		workers: cfg.HashConcurrency,
	}
	if c.root == "" {
		c.root = DefaultOrganizationRoot
	}
	if c.svn == "" {
		c.svn = defaultSVN
	}
	if c.runner == nil {
		c.runner = &command.ExecRunner{}
	}
	if c.logger == nil {
		c.logger = zap.NewNop()
	}
	if c.workers <= 0 {
		c.workers = defaultHashConcurrency
	}
	c.hashes = newHashCache(cfg.HashCacheSize)
	return c
}

// TrunkURL returns the repository URL listed for pkg
func (c *Client) TrunkURL(pkg string) string {
	return fmt.Sprintf("%s/%s/trunk", c.root, pkg)
}

// ListFiles enumerates the files of pkg without resolving content hashes.
// Directories are skipped. A failed or missing svn process is reported as
// types.ErrPackageNotFound; undecodable output as types.ErrListingDecode.
func (c *Client) ListFiles(ctx context.Context, pkg string, recursive bool) ([]types.FileDescriptor, error) {
	args := []string{"list", "--xml"}
	if recursive {
		args = append(args, "-R")
	}
	args = append(args, c.TrunkURL(pkg))

	res, err := c.runner.Run(ctx, c.svn, args...)
	if err != nil {
		return nil, &types.ListingError{Package: pkg, Detail: err.Error(), Err: types.ErrPackageNotFound}
	}
	if !res.Success() {
		detail := strings.TrimSpace(string(res.Stderr))
		if detail == "" {
			detail = fmt.Sprintf("%s exited with status %d", c.svn, res.ExitCode)
		}
		return nil, &types.ListingError{Package: pkg, Detail: detail, Err: types.ErrPackageNotFound}
	}

	files, err := decodeListing(res.Stdout)
	if err != nil {
		return nil, &types.ListingError{Package: pkg, Detail: err.Error(), Err: types.ErrListingDecode}
	}

	c.logger.Debug("listed package files",
		zap.String("package", pkg),
		zap.Bool("recursive", recursive),
		zap.Int("files", len(files)))
	return files, nil
}

// List is ListFiles followed by ResolveHashes
func (c *Client) List(ctx context.Context, pkg string, recursive bool) ([]types.FileDescriptor, error) {
	files, err := c.ListFiles(ctx, pkg, recursive)
	if err != nil {
		return nil, err
	}
	return c.ResolveHashes(ctx, pkg, files), nil
}
