package command

import (
	"context"
	"os/exec"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func requireShell(t *testing.T) {
	t.Helper()
	if _, err := exec.LookPath("sh"); err != nil {
		t.Skip("sh not available")
	}
}

func TestExecRunner_Success(t *testing.T) {
	requireShell(t)
	r := &ExecRunner{}

	res, err := r.Run(context.Background(), "sh", "-c", "printf out; printf err >&2")
	require.NoError(t, err)
	assert.True(t, res.Success())
	assert.Equal(t, "out", string(res.Stdout))
	assert.Equal(t, "err", string(res.Stderr))
}

func TestExecRunner_NonZeroExit(t *testing.T) {
	requireShell(t)
	r := &ExecRunner{}

	res, err := r.Run(context.Background(), "sh", "-c", "printf 'svn: E170000: not found' >&2; exit 1")
	require.NoError(t, err)
	assert.False(t, res.Success())
	assert.Equal(t, 1, res.ExitCode)
	assert.Contains(t, string(res.Stderr), "E170000")
}

func TestExecRunner_MissingBinary(t *testing.T) {
	r := &ExecRunner{}

	res, err := r.Run(context.Background(), "definitely-not-a-real-binary-7f3a")
	assert.Error(t, err)
	assert.Nil(t, res)
	assert.ErrorIs(t, err, exec.ErrNotFound)
}
