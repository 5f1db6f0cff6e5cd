package mcp

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"testing"
	"time"

	"github.com/mark3labs/mcp-go/mcp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dshills/apertium-stats-mcp/internal/service"
	"github.com/dshills/apertium-stats-mcp/pkg/types"
)

type statsCall struct {
	pkg  string
	kind *types.FileKind
	opts service.Options
}

type fakeStats struct {
	result     *service.Result
	err        error
	inProgress []types.Task
	calls      []statsCall
}

func (f *fakeStats) GetStats(_ context.Context, pkg string, kind *types.FileKind, opts service.Options) (*service.Result, error) {
	f.calls = append(f.calls, statsCall{pkg, kind, opts})
	return f.result, f.err
}

func (f *fakeStats) CalculateStats(_ context.Context, pkg string, kind *types.FileKind, opts service.Options) (*service.Result, error) {
	f.calls = append(f.calls, statsCall{pkg, kind, opts})
	return f.result, f.err
}

func (f *fakeStats) InProgress(_ string) []types.Task {
	return f.inProgress
}

func callRequest(name string, args map[string]interface{}) mcp.CallToolRequest {
	return mcp.CallToolRequest{
		Params: mcp.CallToolParams{
			Name:      name,
			Arguments: args,
		},
	}
}

func resultText(t *testing.T, res *mcp.CallToolResult) map[string]interface{} {
	t.Helper()
	require.NotNil(t, res)
	require.Len(t, res.Content, 1)
	text, ok := res.Content[0].(mcp.TextContent)
	require.True(t, ok, "expected text content")

	var out map[string]interface{}
	require.NoError(t, json.Unmarshal([]byte(text.Text), &out))
	return out
}

func requireCode(t *testing.T, err error, code int) *MCPError {
	t.Helper()
	var mcpErr *MCPError
	require.True(t, errors.As(err, &mcpErr), "expected MCPError, got %v", err)
	assert.Equal(t, code, mcpErr.Code)
	return mcpErr
}

var storedResult = &service.Result{
	Name:   "apertium-kaz",
	Status: service.StatusOK,
	Stats: []types.Entry{{
		Package:  "apertium-kaz",
		Path:     "apertium-kaz.kaz.twol",
		FileKind: types.FileTwol,
		StatKind: types.StatRules,
		Value:    42,
		Created:  time.Date(2026, 2, 1, 0, 0, 0, 0, time.UTC),
	}},
	InProgress: []types.Task{},
}

func TestNewServer(t *testing.T) {
	s := NewServer(&fakeStats{}, nil)
	assert.NotNil(t, s.mcp)
	assert.NotNil(t, s.logger)
}

func TestHandleGetStats(t *testing.T) {
	stats := &fakeStats{result: storedResult}
	s := NewServer(stats, nil)

	res, err := s.handleGetStats(context.Background(), callRequest("get_stats", map[string]interface{}{
		"package":   "kaz",
		"kind":      "twol",
		"recursive": true,
	}))
	require.NoError(t, err)

	body := resultText(t, res)
	assert.Equal(t, "apertium-kaz", body["name"])
	assert.Equal(t, "ok", body["status"])
	assert.Len(t, body["stats"], 1)
	assert.NotNil(t, body["in_progress"])

	require.Len(t, stats.calls, 1)
	call := stats.calls[0]
	assert.Equal(t, "apertium-kaz", call.pkg)
	require.NotNil(t, call.kind)
	assert.Equal(t, types.FileTwol, *call.kind)
	assert.True(t, call.opts.Recursive)
	assert.False(t, call.opts.Async)
}

func TestHandleGetStats_InProgress(t *testing.T) {
	stats := &fakeStats{result: &service.Result{
		Name:       "apertium-kaz",
		Status:     service.StatusInProgress,
		InProgress: []types.Task{{Kind: types.FileLexc, File: types.FileDescriptor{Path: "apertium-kaz.kaz.lexc"}}},
	}}
	s := NewServer(stats, nil)

	_, err := s.handleGetStats(context.Background(), callRequest("get_stats", map[string]interface{}{
		"package": "apertium-kaz",
	}))
	mcpErr := requireCode(t, err, ErrorCodeInProgress)
	assert.Contains(t, mcpErr.Message, "1 tasks in progress")
}

func TestHandleCalculateStats_Async(t *testing.T) {
	stats := &fakeStats{result: &service.Result{
		Name:       "apertium-kaz-tat",
		Status:     service.StatusAccepted,
		Stats:      []types.Entry{},
		InProgress: []types.Task{{Kind: types.FileBidix}},
	}}
	s := NewServer(stats, nil)

	res, err := s.handleCalculateStats(context.Background(), callRequest("calculate_stats", map[string]interface{}{
		"package": "kaz-tat",
		"async":   true,
	}))
	require.NoError(t, err)

	body := resultText(t, res)
	assert.Equal(t, "accepted", body["status"])
	assert.Len(t, body["in_progress"], 1)

	require.Len(t, stats.calls, 1)
	assert.Nil(t, stats.calls[0].kind)
	assert.True(t, stats.calls[0].opts.Async)
}

func TestHandlers_ParamValidation(t *testing.T) {
	s := NewServer(&fakeStats{result: storedResult}, nil)

	tests := []struct {
		name string
		args interface{}
	}{
		{"arguments not a map", "kaz"},
		{"missing package", map[string]interface{}{}},
		{"empty package", map[string]interface{}{"package": "  "}},
		{"invalid package", map[string]interface{}{"package": "kaz/tat"}},
		{"unknown kind", map[string]interface{}{"package": "kaz", "kind": "hfst"}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := mcp.CallToolRequest{Params: mcp.CallToolParams{Name: "get_stats", Arguments: tt.args}}

			_, err := s.handleGetStats(context.Background(), req)
			requireCode(t, err, ErrorCodeInvalidParams)

			_, err = s.handleCalculateStats(context.Background(), req)
			requireCode(t, err, ErrorCodeInvalidParams)
		})
	}
}

func TestHandlers_ErrorMapping(t *testing.T) {
	tests := []struct {
		name string
		err  error
		code int
	}{
		{
			"package not found",
			&types.ListingError{Package: "apertium-xxx", Err: types.ErrPackageNotFound},
			ErrorCodePackageNotFound,
		},
		{
			"no recognized files",
			fmt.Errorf("%w: apertium-xxx", types.ErrNoRecognizedFiles),
			ErrorCodeNoRecognizedFiles,
		},
		{
			"storage failure",
			errors.New("database is locked"),
			ErrorCodeInternalError,
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			s := NewServer(&fakeStats{err: tt.err}, nil)
			_, err := s.handleCalculateStats(context.Background(), callRequest("calculate_stats", map[string]interface{}{
				"package": "xxx",
			}))
			mcpErr := requireCode(t, err, tt.code)

			data, ok := mcpErr.Data.(map[string]interface{})
			require.True(t, ok)
			assert.Equal(t, "apertium-xxx", data["name"])
		})
	}
}

func TestHandleGetInProgress(t *testing.T) {
	stats := &fakeStats{inProgress: []types.Task{
		{Kind: types.FileLexc, File: types.FileDescriptor{Path: "apertium-kaz.kaz.lexc", Revision: 120}},
		{Kind: types.FileTwol, File: types.FileDescriptor{Path: "apertium-kaz.kaz.twol", Revision: 120}},
	}}
	s := NewServer(stats, nil)

	res, err := s.handleGetInProgress(context.Background(), callRequest("get_in_progress", map[string]interface{}{
		"package": "kaz",
	}))
	require.NoError(t, err)

	body := resultText(t, res)
	assert.Equal(t, "apertium-kaz", body["name"])
	tasks, ok := body["in_progress"].([]interface{})
	require.True(t, ok)
	require.Len(t, tasks, 2)
	first := tasks[0].(map[string]interface{})
	assert.Equal(t, "lexc", first["kind"])
}

func TestErrorCodes_Unique(t *testing.T) {
	codes := []int{
		ErrorCodeInvalidParams,
		ErrorCodeInternalError,
		ErrorCodePackageNotFound,
		ErrorCodeNoRecognizedFiles,
		ErrorCodeInProgress,
	}
	seen := make(map[int]bool)
	for _, c := range codes {
		assert.Less(t, c, 0)
		assert.False(t, seen[c], "duplicate code %d", c)
		seen[c] = true
	}
}

func TestMCPError(t *testing.T) {
	err := newMCPError(ErrorCodePackageNotFound, "package not found", nil)
	assert.Equal(t, "MCP error -32001: package not found", err.Error())
}

func TestToolSchemas(t *testing.T) {
	for _, tool := range []mcp.Tool{getStatsTool(), calculateStatsTool(), getInProgressTool()} {
		assert.NotEmpty(t, tool.Name)
		assert.Equal(t, "object", tool.InputSchema.Type)
		assert.Equal(t, []string{"package"}, tool.InputSchema.Required)
		assert.Contains(t, tool.InputSchema.Properties, "package")
	}
	assert.Contains(t, getStatsTool().InputSchema.Properties, "kind")
}
