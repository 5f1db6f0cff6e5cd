package parser

import (
	"context"
	"fmt"
	"unicode/utf8"

	"go.uber.org/zap"

	"github.com/dshills/apertium-stats-mcp/internal/command"
	"github.com/dshills/apertium-stats-mcp/pkg/types"
)

// Config configures optional parser behavior
type Config struct {
	// CGCompiler is the path to cg-comp. When set, rlx files are counted by
	// the compiler instead of the built-in grammar.
	CGCompiler string
	// Runner executes CGCompiler (default: command.ExecRunner)
	Runner command.Runner
	// Logger receives per-line diagnostics (default: no-op)
	Logger *zap.Logger
}

// Parser extracts statistics from resource file content
type Parser struct {
	cgCompiler string
	runner     command.Runner
	logger     *zap.Logger
}

// New creates a new Parser instance
func New(cfg Config) *Parser {
	p := &Parser{
		cgCompiler: cfg.CGCompiler,
		runner:     cfg.Runner,
		logger:     cfg.Logger,
	}
	if p.runner == nil {
		p.runner = &command.ExecRunner{}
	}
	if p.logger == nil {
		p.logger = zap.NewNop()
	}
	return p
}

// Parse dispatches body to the parser for kind and returns its statistics.
// path is used only for diagnostics.
func (p *Parser) Parse(ctx context.Context, kind types.FileKind, path string, body []byte) ([]types.Stat, error) {
	if !utf8.Valid(body) {
		return nil, &types.ParseError{Kind: kind, Path: path, Reason: "content is not valid UTF-8"}
	}

	switch kind {
	case types.FileMonodix, types.FileMetaMonodix:
		return monodixStats(body, kind, path)
	case types.FileBidix, types.FileMetaBidix, types.FilePostdix:
		return bidixStats(body, kind, path)
	case types.FileTransfer:
		return transferStats(body, path)
	case types.FileRlx:
		if p.cgCompiler != "" {
			return p.cgCompStats(ctx, body, path)
		}
		return rlxStats(body, path)
	case types.FileTwol:
		return twolStats(body), nil
	case types.FileLexc:
		return p.lexcStats(body, path)
	case types.FileLexd:
		return lexdStats(body, path)
	default:
		return nil, fmt.Errorf("%w: %q", types.ErrUnknownFileKind, kind)
	}
}
