// Package redis publishes stats-computed events over Redis pub/sub.
//
// Each persisted task produces one JSON message on the configured channel.
// Failed publishes are retried with exponential backoff.
package redis

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	goredis "github.com/redis/go-redis/v9"

	"github.com/dshills/apertium-stats-mcp/internal/coordinator"
	"github.com/dshills/apertium-stats-mcp/pkg/types"
)

const (
	// DefaultChannel is the default pub/sub channel name
	DefaultChannel = "apertium-stats:computed"
	// DefaultTimeout is the default per-publish timeout
	DefaultTimeout = 5 * time.Second
	// DefaultRetries is the default number of retry attempts
	DefaultRetries = 3
	// DefaultBackoff is the delay before the first retry
	DefaultBackoff = 200 * time.Millisecond
)

// Config configures the notifier
type Config struct {
	// URL is the Redis connection URL (required).
	// Format: redis://[:password@]host:port[/db]
	URL string
	// Channel is the pub/sub channel name (default: apertium-stats:computed)
	Channel string
	// Timeout bounds each PUBLISH (default 5s)
	Timeout time.Duration
	// Retries is the number of retry attempts after a failed publish
	Retries int
	// Backoff is doubled after every failed attempt (default 200ms)
	Backoff time.Duration
}

// Notifier publishes events via Redis PUBLISH
type Notifier struct {
	config Config
	client *goredis.Client
}

// New creates a notifier from cfg. The connection is established lazily.
func New(cfg Config) (*Notifier, error) {
	if cfg.URL == "" {
		return nil, errors.New("redis notifier requires a URL")
	}

	opts, err := goredis.ParseURL(cfg.URL)
	if err != nil {
		return nil, fmt.Errorf("redis notifier: invalid URL: %w", err)
	}

	if cfg.Channel == "" {
		cfg.Channel = DefaultChannel
	}
	if cfg.Timeout <= 0 {
		cfg.Timeout = DefaultTimeout
	}
	if cfg.Backoff <= 0 {
		cfg.Backoff = DefaultBackoff
	}
	if cfg.Retries < 0 {
		return nil, fmt.Errorf("retries must be >= 0, got %d", cfg.Retries)
	}

	return &Notifier{
		config: cfg,
		client: goredis.NewClient(opts),
	}, nil
}

// Channel returns the channel events are published on
func (n *Notifier) Channel() string {
	return n.config.Channel
}

// Publish sends event as JSON to the configured channel
func (n *Notifier) Publish(ctx context.Context, event types.StatsComputedEvent) error {
	body, err := json.Marshal(event)
	if err != nil {
		return fmt.Errorf("redis: marshal event: %w", err)
	}

	var lastErr error
	attempts := 1 + n.config.Retries
	backoff := n.config.Backoff

	for i := range attempts {
		if err := ctx.Err(); err != nil {
			return fmt.Errorf("redis: context canceled: %w", err)
		}

		if i > 0 {
			select {
			case <-ctx.Done():
				return fmt.Errorf("redis: context canceled during backoff: %w", ctx.Err())
			case <-time.After(backoff):
			}
			backoff *= 2
		}

		publishCtx, cancel := context.WithTimeout(ctx, n.config.Timeout)
		lastErr = n.client.Publish(publishCtx, n.config.Channel, body).Err()
		cancel()

		if lastErr == nil {
			return nil
		}
	}

	return fmt.Errorf("redis: failed after %d attempts: %w", attempts, lastErr)
}

// Close releases the client connection pool
func (n *Notifier) Close() error {
	return n.client.Close()
}

var _ coordinator.Notifier = (*Notifier)(nil)
