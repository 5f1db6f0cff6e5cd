package mcp

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	"github.com/mark3labs/mcp-go/mcp"
	"go.uber.org/zap"

	"github.com/dshills/apertium-stats-mcp/internal/service"
	"github.com/dshills/apertium-stats-mcp/pkg/types"
)

// MCP error codes
const (
	ErrorCodeInvalidParams     = -32602 // Invalid method parameters
	ErrorCodeInternalError     = -32603 // Internal JSON-RPC error
	ErrorCodePackageNotFound   = -32001 // Package listing could not be produced
	ErrorCodeNoRecognizedFiles = -32002 // Package has no files of the requested kind
	ErrorCodeInProgress        = -32003 // Nothing stored yet, computation running
)

// handleGetStats handles the get_stats tool invocation
func (s *Server) handleGetStats(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	req, err := parseStatsRequest(request)
	if err != nil {
		return nil, err
	}

	res, err := s.stats.GetStats(ctx, req.name, req.kind, req.opts)
	if err != nil {
		return nil, s.toMCPError(req.name, err)
	}

	if res.Status == service.StatusInProgress {
		return nil, newMCPError(ErrorCodeInProgress,
			fmt.Sprintf("statistics for %s are being computed (%d tasks in progress)", res.Name, len(res.InProgress)),
			map[string]interface{}{
				"name":        res.Name,
				"in_progress": res.InProgress,
			})
	}

	return mcp.NewToolResultText(formatJSON(resultResponse(res))), nil
}

// handleCalculateStats handles the calculate_stats tool invocation
func (s *Server) handleCalculateStats(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	req, err := parseStatsRequest(request)
	if err != nil {
		return nil, err
	}

	res, err := s.stats.CalculateStats(ctx, req.name, req.kind, req.opts)
	if err != nil {
		return nil, s.toMCPError(req.name, err)
	}

	return mcp.NewToolResultText(formatJSON(resultResponse(res))), nil
}

// handleGetInProgress handles the get_in_progress tool invocation
func (s *Server) handleGetInProgress(_ context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	args, ok := request.Params.Arguments.(map[string]interface{})
	if !ok {
		return nil, newMCPError(ErrorCodeInvalidParams, "invalid arguments", nil)
	}

	name, err := packageParam(args)
	if err != nil {
		return nil, err
	}

	response := map[string]interface{}{
		"name":        name,
		"in_progress": s.stats.InProgress(name),
	}
	return mcp.NewToolResultText(formatJSON(response)), nil
}

// Helper functions

type statsRequest struct {
	name string
	kind *types.FileKind
	opts service.Options
}

func parseStatsRequest(request mcp.CallToolRequest) (*statsRequest, error) {
	args, ok := request.Params.Arguments.(map[string]interface{})
	if !ok {
		return nil, newMCPError(ErrorCodeInvalidParams, "invalid arguments", nil)
	}

	name, err := packageParam(args)
	if err != nil {
		return nil, err
	}

	req := &statsRequest{
		name: name,
		opts: service.Options{
			Recursive: getBoolDefault(args, "recursive", false),
			Async:     getBoolDefault(args, "async", false),
		},
	}

	if raw := getStringDefault(args, "kind", ""); raw != "" {
		kind, err := types.ParseFileKind(raw)
		if err != nil {
			return nil, newMCPError(ErrorCodeInvalidParams, "invalid kind", map[string]interface{}{
				"param":   "kind",
				"value":   raw,
				"allowed": fileKindNames(),
			})
		}
		req.kind = &kind
	}

	return req, nil
}

func packageParam(args map[string]interface{}) (string, error) {
	raw, ok := args["package"].(string)
	if !ok || strings.TrimSpace(raw) == "" {
		return "", newMCPError(ErrorCodeInvalidParams, "package parameter is required", map[string]interface{}{
			"param":  "package",
			"reason": "missing or empty",
		})
	}

	name, err := service.NormalizeName(raw)
	if err != nil {
		return "", newMCPError(ErrorCodeInvalidParams, "invalid package name", map[string]interface{}{
			"param":  "package",
			"value":  raw,
			"reason": err.Error(),
		})
	}
	return name, nil
}

// toMCPError maps service errors onto MCP error codes
func (s *Server) toMCPError(name string, err error) error {
	data := map[string]interface{}{
		"name":  name,
		"error": err.Error(),
	}

	switch {
	case errors.Is(err, types.ErrPackageNotFound):
		return newMCPError(ErrorCodePackageNotFound, "package not found", data)
	case errors.Is(err, types.ErrNoRecognizedFiles):
		return newMCPError(ErrorCodeNoRecognizedFiles, "no recognized files", data)
	case errors.Is(err, types.ErrInvalidPackage):
		return newMCPError(ErrorCodeInvalidParams, "invalid package name", data)
	}

	s.logger.Error("stats request failed", zap.String("package", name), zap.Error(err))
	return newMCPError(ErrorCodeInternalError, "stats request failed", data)
}

func resultResponse(res *service.Result) map[string]interface{} {
	return map[string]interface{}{
		"name":        res.Name,
		"status":      res.Status,
		"stats":       res.Stats,
		"in_progress": res.InProgress,
	}
}

func fileKindNames() []string {
	names := make([]string, 0, len(types.AllFileKinds))
	for _, k := range types.AllFileKinds {
		names = append(names, string(k))
	}
	return names
}

// newMCPError creates a properly formatted MCP error
func newMCPError(code int, message string, data interface{}) error {
	// MCP errors are returned as regular errors, the framework handles encoding
	return &MCPError{
		Code:    code,
		Message: message,
		Data:    data,
	}
}

// MCPError represents an MCP protocol error
type MCPError struct {
	Code    int
	Message string
	Data    interface{}
}

func (e *MCPError) Error() string {
	return fmt.Sprintf("MCP error %d: %s", e.Code, e.Message)
}

// formatJSON formats a map as indented JSON
func formatJSON(data map[string]interface{}) string {
	bytes, err := json.MarshalIndent(data, "", "  ")
	if err != nil {
		return fmt.Sprintf("%v", data)
	}
	return string(bytes)
}

// getBoolDefault extracts a boolean parameter with a default value
func getBoolDefault(args map[string]interface{}, key string, defaultValue bool) bool {
	if val, ok := args[key].(bool); ok {
		return val
	}
	return defaultValue
}

// getStringDefault extracts a string parameter with a default value
func getStringDefault(args map[string]interface{}, key string, defaultValue string) string {
	if val, ok := args[key].(string); ok {
		return val
	}
	return defaultValue
}
