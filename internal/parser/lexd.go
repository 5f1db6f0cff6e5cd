package parser

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/dshills/apertium-stats-mcp/pkg/types"
)

// Node kinds produced by parseLexd
const (
	LexdSourceFile     = "source_file"
	LexdPatternBlock   = "pattern_block"
	LexdPatternStart   = "pattern_start"
	LexdPatternKeyword = "pattern_keyword"
	LexdIdentifier     = "identifier"
	LexdPatternLine    = "pattern_line"
	LexdLexiconBlock   = "lexicon_block"
	LexdLexiconKeyword = "lexicon_keyword"
	LexdLexiconCount   = "lexicon_count"
	LexdLexiconLine    = "lexicon_line"
	LexdAliasLine      = "alias_line"
)

type span struct {
	start, end int
}

// lexdContent returns the length of line before an unescaped '#' and
// whether (), [] and {} are balanced in that prefix.
func lexdContent(line string) (int, bool) {
	var stack []byte
	closers := map[byte]byte{')': '(', ']': '[', '}': '{'}

	for i := 0; i < len(line); i++ {
		c := line[i]
		switch c {
		case '\\':
			i++
		case '#':
			return i, len(stack) == 0
		case '(', '[', '{':
			stack = append(stack, c)
		case ')', ']', '}':
			if len(stack) == 0 || stack[len(stack)-1] != closers[c] {
				return i, false
			}
			stack = stack[:len(stack)-1]
		}
	}
	return len(line), len(stack) == 0
}

// fieldSpans splits s on spaces and tabs, returning offsets relative to base
func fieldSpans(s string, base int) []span {
	var (
		out   []span
		start = -1
	)
	for i := 0; i < len(s); i++ {
		if s[i] == ' ' || s[i] == '\t' || s[i] == '\r' {
			if start >= 0 {
				out = append(out, span{base + start, base + i})
				start = -1
			}
			continue
		}
		if start < 0 {
			start = i
		}
	}
	if start >= 0 {
		out = append(out, span{base + start, base + len(s)})
	}
	return out
}

// parseLexd builds a concrete syntax tree for a lexd grammar. Any line the
// grammar does not admit fails the whole parse.
func parseLexd(src []byte, path string) (*Node, error) {
	root := &Node{Kind: LexdSourceFile}
	var block *Node

	fail := func(line int, format string, args ...any) error {
		return &types.ParseError{
			Kind:   types.FileLexd,
			Path:   path,
			Line:   line,
			Reason: fmt.Sprintf(format, args...),
		}
	}

	text := string(src)
	offset := 0
	for i, raw := range strings.Split(text, "\n") {
		lineNo := i + 1
		base := offset
		offset += len(raw) + 1

		n, balanced := lexdContent(raw)
		if !balanced {
			return nil, fail(lineNo, "unbalanced brackets")
		}
		fields := fieldSpans(raw[:n], base)
		if len(fields) == 0 {
			continue
		}
		word := func(j int) string { return text[fields[j].start:fields[j].end] }
		lineEnd := fields[len(fields)-1].end

		switch word(0) {
		case "PATTERNS":
			if len(fields) != 1 {
				return nil, fail(lineNo, "PATTERNS takes no arguments")
			}
			block = &Node{Kind: LexdPatternBlock, Start: base, End: lineEnd}
			block.add(&Node{Kind: LexdPatternStart, Start: fields[0].start, End: fields[0].end})
			root.add(block)

		case "PATTERN":
			if len(fields) != 2 {
				return nil, fail(lineNo, "PATTERN requires exactly one name")
			}
			block = &Node{Kind: LexdPatternBlock, Start: base, End: lineEnd}
			block.add(&Node{Kind: LexdPatternKeyword, Start: fields[0].start, End: fields[0].end})
			block.add(&Node{Kind: LexdIdentifier, Start: fields[1].start, End: fields[1].end})
			root.add(block)

		case "LEXICON":
			if len(fields) != 2 {
				return nil, fail(lineNo, "LEXICON requires exactly one name")
			}
			block = &Node{Kind: LexdLexiconBlock, Start: base, End: lineEnd}
			block.add(&Node{Kind: LexdLexiconKeyword, Start: fields[0].start, End: fields[0].end})
			if err := addLexiconName(block, text, fields[1]); err != nil {
				return nil, fail(lineNo, "%s", err)
			}
			root.add(block)

		case "ALIAS":
			if len(fields) != 3 {
				return nil, fail(lineNo, "ALIAS requires a name and a target")
			}
			alias := &Node{Kind: LexdAliasLine, Start: base, End: lineEnd}
			alias.add(&Node{Kind: LexdIdentifier, Start: fields[1].start, End: fields[1].end})
			alias.add(&Node{Kind: LexdIdentifier, Start: fields[2].start, End: fields[2].end})
			root.add(alias)
			block = nil

		default:
			if block == nil {
				return nil, fail(lineNo, "content outside of a PATTERNS, PATTERN or LEXICON block")
			}
			kind := LexdLexiconLine
			if block.Kind == LexdPatternBlock {
				kind = LexdPatternLine
			}
			block.add(&Node{Kind: kind, Start: fields[0].start, End: lineEnd})
			root.End = block.End
		}
	}

	return root, nil
}

// addLexiconName attaches the identifier and optional "(n)" count of a
// LEXICON header to block
func addLexiconName(block *Node, text string, s span) error {
	name := text[s.start:s.end]
	open := strings.IndexByte(name, '(')
	if open < 0 {
		block.add(&Node{Kind: LexdIdentifier, Start: s.start, End: s.end})
		return nil
	}
	if open == 0 {
		return fmt.Errorf("LEXICON name is empty")
	}
	if !strings.HasSuffix(name, ")") {
		return fmt.Errorf("malformed lexicon count in %q", name)
	}
	count := name[open+1 : len(name)-1]
	if n, err := strconv.Atoi(count); err != nil || n < 1 {
		return fmt.Errorf("lexicon count %q is not a positive integer", count)
	}
	block.add(&Node{Kind: LexdIdentifier, Start: s.start, End: s.start + open})
	block.add(&Node{Kind: LexdLexiconCount, Start: s.start + open + 1, End: s.end - 1})
	return nil
}

func lexdStats(body []byte, path string) ([]types.Stat, error) {
	tree, err := parseLexd(body, path)
	if err != nil {
		return nil, err
	}

	var (
		lexicons       = make(map[string]struct{})
		patterns       = make(map[string]struct{})
		lexiconEntries int64
		patternEntries int64
	)

	for _, child := range tree.Children {
		switch child.Kind {
		case LexdPatternBlock:
			if child.Child(0).Kind == LexdPatternStart {
				patterns[""] = struct{}{}
			} else if id := child.Child(1); id != nil {
				patterns[id.Text(body)] = struct{}{}
			}
			for _, line := range child.Children {
				if line.Kind == LexdPatternLine {
					patternEntries++
				}
			}
		case LexdLexiconBlock:
			if id := child.Child(1); id != nil {
				lexicons[id.Text(body)] = struct{}{}
			}
			for _, line := range child.Children {
				if line.Kind == LexdLexiconLine {
					lexiconEntries++
				}
			}
		}
	}

	return []types.Stat{
		{Kind: types.StatLexicons, Value: int64(len(lexicons))},
		{Kind: types.StatLexiconEntries, Value: lexiconEntries},
		{Kind: types.StatPatterns, Value: int64(len(patterns))},
		{Kind: types.StatPatternEntries, Value: patternEntries},
	}, nil
}
