package fetcher

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dshills/apertium-stats-mcp/pkg/types"
)

func fastRetry() RetryConfig {
	return RetryConfig{
		MaxAttempts: 3,
		BaseDelay:   time.Millisecond,
		MaxDelay:    5 * time.Millisecond,
		Multiplier:  2.0,
	}
}

func TestURL(t *testing.T) {
	f := New(Config{})

	assert.Equal(t,
		"https://raw.githubusercontent.com/apertium/apertium-kaz/3f2a9c1/apertium-kaz.kaz.lexc",
		f.URL("apertium-kaz", types.FileDescriptor{Path: "apertium-kaz.kaz.lexc", Hash: "3f2a9c1"}))

	assert.Equal(t,
		"https://raw.githubusercontent.com/apertium/apertium-kaz/master/dev/apertium-kaz.kaz.rlx",
		f.URL("apertium-kaz", types.FileDescriptor{Path: "dev/apertium-kaz.kaz.rlx"}))
}

func TestFetch(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/apertium-kaz/3f2a9c1/apertium-kaz.kaz.twol", r.URL.Path)
		assert.Equal(t, "token secret", r.Header.Get("Authorization"))
		_, _ = fmt.Fprint(w, "\"rule\" a <=> _ ;\n")
	}))
	defer srv.Close()

	f := New(Config{RawRoot: srv.URL + "/", Token: "secret", Retry: fastRetry()})
	body, err := f.Fetch(context.Background(), "apertium-kaz", types.FileDescriptor{
		Path: "apertium-kaz.kaz.twol",
		Hash: "3f2a9c1",
	})
	require.NoError(t, err)
	assert.Equal(t, "\"rule\" a <=> _ ;\n", string(body))
}

func TestFetch_NoTokenNoHeader(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Empty(t, r.Header.Get("Authorization"))
		_, _ = fmt.Fprint(w, "ok")
	}))
	defer srv.Close()

	f := New(Config{RawRoot: srv.URL, Retry: fastRetry()})
	_, err := f.Fetch(context.Background(), "apertium-kaz", types.FileDescriptor{Path: "x"})
	require.NoError(t, err)
}

func TestFetch_RetriesServerErrors(t *testing.T) {
	var calls atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if calls.Add(1) < 3 {
			w.WriteHeader(http.StatusBadGateway)
			return
		}
		_, _ = fmt.Fprint(w, "ok")
	}))
	defer srv.Close()

	f := New(Config{RawRoot: srv.URL, Retry: fastRetry()})
	body, err := f.Fetch(context.Background(), "apertium-kaz", types.FileDescriptor{Path: "x"})
	require.NoError(t, err)
	assert.Equal(t, "ok", string(body))
	assert.Equal(t, int32(3), calls.Load())
}

func TestFetch_GivesUpAfterMaxAttempts(t *testing.T) {
	var calls atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls.Add(1)
		w.WriteHeader(http.StatusServiceUnavailable)
	}))
	defer srv.Close()

	f := New(Config{RawRoot: srv.URL, Retry: fastRetry()})
	_, err := f.Fetch(context.Background(), "apertium-kaz", types.FileDescriptor{Path: "x"})
	require.Error(t, err)
	assert.ErrorIs(t, err, types.ErrFetch)

	var fe *types.FetchError
	require.ErrorAs(t, err, &fe)
	assert.Equal(t, http.StatusServiceUnavailable, fe.StatusCode)
	assert.Equal(t, int32(3), calls.Load())
}

func TestFetch_ClientErrorsNotRetried(t *testing.T) {
	var calls atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls.Add(1)
		http.NotFound(w, r)
	}))
	defer srv.Close()

	f := New(Config{RawRoot: srv.URL, Retry: fastRetry()})
	_, err := f.Fetch(context.Background(), "apertium-kaz", types.FileDescriptor{Path: "missing.lexc"})

	var fe *types.FetchError
	require.ErrorAs(t, err, &fe)
	assert.Equal(t, http.StatusNotFound, fe.StatusCode)
	assert.False(t, fe.Retryable())
	assert.Equal(t, int32(1), calls.Load())
}

func TestRetryWithBackoff(t *testing.T) {
	t.Run("non-retryable error stops immediately", func(t *testing.T) {
		calls := 0
		_, err := retryWithBackoff(context.Background(), fastRetry(), func() (int, error) {
			calls++
			return 0, errors.New("permanent")
		})
		assert.EqualError(t, err, "permanent")
		assert.Equal(t, 1, calls)
	})

	t.Run("exponential backoff timing", func(t *testing.T) {
		config := RetryConfig{
			MaxAttempts: 3,
			BaseDelay:   10 * time.Millisecond,
			MaxDelay:    100 * time.Millisecond,
			Multiplier:  2.0,
		}

		calls := 0
		start := time.Now()
		_, err := retryWithBackoff(context.Background(), config, func() (int, error) {
			calls++
			return 0, &types.FetchError{URL: "u", Err: errors.New("connection reset")}
		})
		elapsed := time.Since(start)

		assert.Error(t, err)
		assert.Equal(t, 3, calls)
		// 10ms + 20ms between three attempts
		assert.GreaterOrEqual(t, elapsed.Milliseconds(), int64(30))
	})

	t.Run("context cancellation during retry", func(t *testing.T) {
		ctx, cancel := context.WithCancel(context.Background())
		config := RetryConfig{
			MaxAttempts: 5,
			BaseDelay:   50 * time.Millisecond,
			MaxDelay:    time.Second,
			Multiplier:  2.0,
		}

		calls := 0
		_, err := retryWithBackoff(ctx, config, func() (int, error) {
			calls++
			if calls == 1 {
				cancel()
			}
			return 0, &types.FetchError{URL: "u", StatusCode: 500}
		})
		assert.ErrorIs(t, err, context.Canceled)
		assert.Equal(t, 1, calls)
	})
}

func TestRetryConfig_Defaults(t *testing.T) {
	c := RetryConfig{}.withDefaults()
	assert.Equal(t, DefaultRetryConfig(), c)
	assert.Equal(t, 3, c.MaxAttempts)
	assert.Equal(t, 200*time.Millisecond, c.BaseDelay)
	assert.Equal(t, 2*time.Second, c.MaxDelay)
}
