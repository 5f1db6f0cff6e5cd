package parser

import (
	"bytes"

	"github.com/dshills/apertium-stats-mcp/pkg/types"
)

// twolStats counts rule lines: lines whose first byte is a double quote
func twolStats(body []byte) []types.Stat {
	var rules int64
	for _, line := range bytes.Split(body, []byte("\n")) {
		if len(line) > 0 && line[0] == '"' {
			rules++
		}
	}
	return []types.Stat{{Kind: types.StatRules, Value: rules}}
}
