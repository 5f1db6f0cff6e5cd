// Package mcp implements the Model Context Protocol (MCP) server for apertium-stats.
//
// The MCP server exposes three tools:
//   - get_stats: Stored statistics for a package, computed on first request
//   - calculate_stats: Recompute statistics for a package
//   - get_in_progress: Files of a package currently being computed
//
// # Protocol Overview
//
// MCP is a JSON-RPC 2.0 protocol over stdio transport:
//
//	Client → Server: {"method": "tools/call", "params": {...}}
//	Server → Client: {"result": {...}}
//
// # Basic Usage
//
// The MCP server is typically started via the serve command:
//
//	apertium-stats serve
//
// # Tool: get_stats
//
//	Request:
//	{
//	  "name": "get_stats",
//	  "arguments": {
//	    "package": "kaz",
//	    "kind": "lexc"
//	  }
//	}
//
//	Response:
//	{
//	  "name": "apertium-kaz",
//	  "status": "ok",
//	  "stats": [
//	    {"path": "apertium-kaz.kaz.lexc", "stat_kind": "stems", "value": 39218, ...},
//	    {"path": "apertium-kaz.kaz.lexc", "stat_kind": "vanilla_stems", "value": 37101, ...}
//	  ],
//	  "in_progress": []
//	}
//
// # Tool: calculate_stats
//
// Takes the same arguments as get_stats. With "async": true the response
// has status "accepted" and lists the tasks in progress; otherwise the call
// waits and returns the stats of the new tasks.
//
// # Tool: get_in_progress
//
//	Request:
//	{
//	  "name": "get_in_progress",
//	  "arguments": {"package": "apertium-kaz"}
//	}
//
// # Error Codes
//
//	-32602  Invalid params (missing or invalid package, unknown kind)
//	-32603  Internal error
//	-32001  Package not found
//	-32002  No recognized files
//	-32003  Statistics are being computed and nothing is stored yet
package mcp
