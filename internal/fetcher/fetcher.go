// Package fetcher downloads raw resource file content from the Git host.
package fetcher

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/dshills/apertium-stats-mcp/pkg/types"
)

// DefaultRawRoot serves raw file content for the Apertium organization
const DefaultRawRoot = "https://raw.githubusercontent.com/apertium"

// defaultRef is used when a file has no resolved content hash
const defaultRef = "master"

// Config configures a Fetcher
type Config struct {
	RawRoot string       // Default: DefaultRawRoot
	Token   string       // Sent as "Authorization: token <Token>" when non-empty
	Client  *http.Client // Default: 30s timeout client
	Retry   RetryConfig  // Zero fields take DefaultRetryConfig values
	Logger  *zap.Logger
}

// Fetcher retrieves file content over HTTP with retries
type Fetcher struct {
	root   string
	token  string
	client *http.Client
	retry  RetryConfig
	logger *zap.Logger
}

// New creates a Fetcher
func New(cfg Config) *Fetcher {
	f := &Fetcher{
		root:   strings.TrimRight(cfg.RawRoot, "/"),
		token:  cfg.Token,
		client: cfg.Client,
		retry:  cfg.Retry.withDefaults(),
		logger: cfg.Logger,
	}
	if f.root == "" {
		f.root = DefaultRawRoot
	}
	if f.client == nil {
		f.client = &http.Client{Timeout: 30 * time.Second}
	}
	if f.logger == nil {
		f.logger = zap.NewNop()
	}
	return f
}

// URL returns the raw content URL of file in pkg
func (f *Fetcher) URL(pkg string, file types.FileDescriptor) string {
	ref := file.Hash
	if ref == "" {
		ref = defaultRef
	}

	segments := strings.Split(file.Path, "/")
	for i, s := range segments {
		segments[i] = url.PathEscape(s)
	}
	return fmt.Sprintf("%s/%s/%s/%s", f.root, url.PathEscape(pkg), url.PathEscape(ref), strings.Join(segments, "/"))
}

// Fetch downloads the content of file at its resolved hash
func (f *Fetcher) Fetch(ctx context.Context, pkg string, file types.FileDescriptor) ([]byte, error) {
	target := f.URL(pkg, file)

	attempt := 0
	body, err := retryWithBackoff(ctx, f.retry, func() ([]byte, error) {
		attempt++
		body, err := f.get(ctx, target)
		if err != nil && isRetryable(err) && attempt < f.retry.MaxAttempts {
			f.logger.Debug("retrying fetch",
				zap.String("url", target),
				zap.Int("attempt", attempt),
				zap.Error(err))
		}
		return body, err
	})
	if err != nil {
		return nil, err
	}
	return body, nil
}

func (f *Fetcher) get(ctx context.Context, target string) ([]byte, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, target, nil)
	if err != nil {
		return nil, fmt.Errorf("%w: create request: %v", types.ErrFetch, err)
	}
	if f.token != "" {
		req.Header.Set("Authorization", "token "+f.token)
	}

	resp, err := f.client.Do(req)
	if err != nil {
		return nil, &types.FetchError{URL: target, Err: err}
	}
	defer func() {
		_ = resp.Body.Close()
	}()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		_, _ = io.Copy(io.Discard, resp.Body)
		return nil, &types.FetchError{URL: target, StatusCode: resp.StatusCode}
	}

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, &types.FetchError{URL: target, Err: fmt.Errorf("read body: %w", err)}
	}
	return body, nil
}
