package parser

import (
	"fmt"
	"sort"
	"strings"

	"go.uber.org/zap"

	"github.com/dshills/apertium-stats-mcp/pkg/types"
)

const (
	// lexcRoot is the lexicon every reachability pass starts from
	lexcRoot = "Root"
	// lexcEndOfWord is the continuation that terminates a word, never a lexicon
	lexcEndOfWord = "#"
	// NonVanillaMarker flags a lexc line as excluded from the vanilla stem count
	NonVanillaMarker = "Use/MT"
)

// LexcLineError describes a single malformed lexc line. Line errors are
// logged and the line is skipped.
type LexcLineError struct {
	Line   int
	Reason string
}

func (e *LexcLineError) Error() string {
	return fmt.Sprintf("lexc line %d: %s", e.Line, e.Reason)
}

// lexcToken is one whitespace-delimited token with escapes resolved.
// colon is the byte index of the first unescaped ':' or -1.
type lexcToken struct {
	text  string
	colon int
}

// lexcLine is a physical line after escape resolution and comment removal
type lexcLine struct {
	tokens    []lexcToken // Tokens before the terminating ';'
	semicolon bool
}

// scanLexcLine resolves %X escapes and strips comments in one left-to-right
// pass, so an escaped '!' or ';' is content rather than syntax.
func scanLexcLine(raw string) lexcLine {
	var (
		line  lexcLine
		cur   strings.Builder
		colon = -1
		open  bool
	)

	flush := func() {
		if open {
			line.tokens = append(line.tokens, lexcToken{text: cur.String(), colon: colon})
		}
		cur.Reset()
		colon = -1
		open = false
	}

	for i := 0; i < len(raw); i++ {
		c := raw[i]
		switch {
		case c == '%' && i+1 < len(raw):
			i++
			cur.WriteByte(raw[i])
			open = true
		case c == '!':
			flush()
			return line
		case c == ';':
			flush()
			line.semicolon = true
			return line
		case c == ' ' || c == '\t' || c == '\r':
			flush()
		default:
			if c == ':' && colon < 0 {
				colon = cur.Len()
			}
			cur.WriteByte(c)
			open = true
		}
	}
	flush()
	return line
}

// lexcEntry is a lemma with the set of lexicons it continues into
type lexcEntry struct {
	lemma         string
	continuations []string // Sorted and distinct
}

func (e lexcEntry) key() string {
	return e.lemma + "\x00" + strings.Join(e.continuations, "\x00")
}

// lexicon holds everything declared under one LEXICON name. The vanilla
// views contain only lines without NonVanillaMarker.
type lexicon struct {
	pointers        []string
	entries         map[string]lexcEntry
	vanillaPointers []string
	vanillaEntries  map[string]lexcEntry
}

func newLexicon() *lexicon {
	return &lexicon{
		entries:        make(map[string]lexcEntry),
		vanillaEntries: make(map[string]lexcEntry),
	}
}

// lexcGraph maps lexicon names to their contents
type lexcGraph map[string]*lexicon

func (g lexcGraph) get(name string) *lexicon {
	lex, ok := g[name]
	if !ok {
		lex = newLexicon()
		g[name] = lex
	}
	return lex
}

// parseLexc builds the lexicon graph. Malformed lines are reported to
// onLineError and skipped.
func parseLexc(body []byte, onLineError func(*LexcLineError)) lexcGraph {
	graph := make(lexcGraph)
	current := ""

	for i, raw := range strings.Split(string(body), "\n") {
		lineNo := i + 1
		line := scanLexcLine(raw)
		if len(line.tokens) == 0 && !line.semicolon {
			continue
		}

		if len(line.tokens) > 0 && line.tokens[0].text == "LEXICON" {
			if len(line.tokens) < 2 {
				onLineError(&LexcLineError{Line: lineNo, Reason: "LEXICON missing name"})
				current = ""
				continue
			}
			current = line.tokens[1].text
			graph.get(current)
			continue
		}

		// Content before the first LEXICON (Multichar_Symbols, Definitions)
		if current == "" {
			continue
		}

		if !line.semicolon {
			onLineError(&LexcLineError{Line: lineNo, Reason: "missing ';'"})
			continue
		}

		vanilla := !strings.Contains(raw, NonVanillaMarker)
		lex := graph.get(current)

		switch n := len(line.tokens); {
		case n >= 2:
			entry := newLexcEntry(line.tokens[0], line.tokens[1])
			lex.entries[entry.key()] = entry
			if vanilla {
				lex.vanillaEntries[entry.key()] = entry
			}
		case n == 1 && line.tokens[0].colon < 0:
			target := line.tokens[0].text
			lex.pointers = append(lex.pointers, target)
			if vanilla {
				lex.vanillaPointers = append(lex.vanillaPointers, target)
			}
		case n == 1:
			onLineError(&LexcLineError{Line: lineNo, Reason: "entry has no continuation lexicon"})
		default:
			onLineError(&LexcLineError{Line: lineNo, Reason: "empty entry"})
		}
	}

	return graph
}

func newLexcEntry(form, continuation lexcToken) lexcEntry {
	lemma := form.text
	if form.colon >= 0 {
		lemma = form.text[:form.colon]
	}

	set := make(map[string]struct{})
	for _, seg := range strings.Split(continuation.text, "-") {
		if seg != "" {
			set[seg] = struct{}{}
		}
	}
	conts := make([]string, 0, len(set))
	for seg := range set {
		conts = append(conts, seg)
	}
	sort.Strings(conts)

	return lexcEntry{lemma: lemma, continuations: conts}
}

// reachableEntries counts the distinct entries reachable from root through
// continuation pointers and entry continuations. The walk uses an explicit
// frontier with a visited set, so cyclic graphs terminate.
func (g lexcGraph) reachableEntries(root string, vanillaOnly bool) int64 {
	seen := make(map[string]struct{})
	visited := map[string]bool{root: true}
	frontier := []string{root}

	push := func(name string) {
		if name == lexcEndOfWord || visited[name] {
			return
		}
		visited[name] = true
		frontier = append(frontier, name)
	}

	for len(frontier) > 0 {
		name := frontier[len(frontier)-1]
		frontier = frontier[:len(frontier)-1]

		lex, ok := g[name]
		if !ok {
			continue
		}

		entries, pointers := lex.entries, lex.pointers
		if vanillaOnly {
			entries, pointers = lex.vanillaEntries, lex.vanillaPointers
		}

		for key, entry := range entries {
			seen[key] = struct{}{}
			for _, c := range entry.continuations {
				push(c)
			}
		}
		for _, p := range pointers {
			push(p)
		}
	}

	return int64(len(seen))
}

func (p *Parser) lexcStats(body []byte, path string) ([]types.Stat, error) {
	logger := p.logger.With(zap.String("path", path), zap.String("kind", string(types.FileLexc)))
	graph := parseLexc(body, func(le *LexcLineError) {
		logger.Warn("skipping malformed lexc line", zap.Int("line", le.Line), zap.String("reason", le.Reason))
	})

	if _, ok := graph[lexcRoot]; !ok {
		return nil, &types.ParseError{Kind: types.FileLexc, Path: path, Reason: "missing LEXICON Root"}
	}

	return []types.Stat{
		{Kind: types.StatStems, Value: graph.reachableEntries(lexcRoot, false)},
		{Kind: types.StatVanillaStems, Value: graph.reachableEntries(lexcRoot, true)},
	}, nil
}
