package parser

import (
	"context"
	"fmt"
	"os"
	"regexp"
	"strconv"
	"strings"

	"go.uber.org/zap"

	"github.com/dshills/apertium-stats-mcp/pkg/types"
)

// cg-comp prints one "Name: count" line per construct on stderr
var cgCompStatLine = regexp.MustCompile(`(\w+): (\d+)`)

// cgCompStats counts rules by compiling the grammar with cg-comp
func (p *Parser) cgCompStats(ctx context.Context, body []byte, path string) ([]types.Stat, error) {
	tmp, err := os.CreateTemp("", "apertium-stats-*.rlx")
	if err != nil {
		return nil, fmt.Errorf("failed to create temp grammar file: %w", err)
	}
	defer func() {
		_ = os.Remove(tmp.Name())
	}()

	if _, err := tmp.Write(body); err != nil {
		_ = tmp.Close()
		return nil, fmt.Errorf("failed to write temp grammar file: %w", err)
	}
	if err := tmp.Close(); err != nil {
		return nil, fmt.Errorf("failed to close temp grammar file: %w", err)
	}

	res, err := p.runner.Run(ctx, p.cgCompiler, tmp.Name(), os.DevNull)
	if err != nil {
		return nil, &types.ParseError{Kind: types.FileRlx, Path: path, Reason: fmt.Sprintf("running %s: %v", p.cgCompiler, err)}
	}

	stderr := string(res.Stderr)
	if !res.Success() {
		return nil, &types.ParseError{
			Kind:   types.FileRlx,
			Path:   path,
			Reason: fmt.Sprintf("%s exited with status %d: %s", p.cgCompiler, res.ExitCode, strings.TrimSpace(stderr)),
		}
	}

	rules, ok := cgCompRules(stderr)
	if !ok {
		p.logger.Debug("cg-comp output had no rule count", zap.String("path", path), zap.String("stderr", stderr))
		return nil, &types.ParseError{Kind: types.FileRlx, Path: path, Reason: "compiler output has no Rules line"}
	}

	return []types.Stat{{Kind: types.StatRules, Value: rules}}, nil
}

func cgCompRules(stderr string) (int64, bool) {
	for _, m := range cgCompStatLine.FindAllStringSubmatch(stderr, -1) {
		if m[1] != "Rules" {
			continue
		}
		n, err := strconv.ParseInt(m[2], 10, 64)
		if err != nil {
			return 0, false
		}
		return n, true
	}
	return 0, false
}
