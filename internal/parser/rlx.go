package parser

import (
	"fmt"
	"strings"

	"github.com/dshills/apertium-stats-mcp/pkg/types"
)

// Node kinds produced by parseRlx
const (
	RlxSourceFile    = "source_file"
	RlxSectionHeader = "section_header"
	RlxDelimiters    = "delimiters"
	RlxSetDefinition = "set_definition"
	RlxTemplate      = "template"
	RlxInclude       = "include"
	RlxRule          = "rule"
	RlxStatement     = "statement"
)

var rlxSectionKeywords = map[string]bool{
	"SETS":            true,
	"SECTION":         true,
	"CONSTRAINTS":     true,
	"MAPPINGS":        true,
	"CORRECTIONS":     true,
	"BEFORE-SECTIONS": true,
	"AFTER-SECTIONS":  true,
	"NULL-SECTION":    true,
}

var rlxStatementKinds = map[string]string{
	"DELIMITERS":      RlxDelimiters,
	"SOFT-DELIMITERS": RlxDelimiters,
	"LIST":            RlxSetDefinition,
	"SET":             RlxSetDefinition,
	"TEMPLATE":        RlxTemplate,
	"INCLUDE":         RlxInclude,
}

var rlxRuleKeywords = map[string]bool{
	"SELECT": true, "REMOVE": true, "IFF": true,
	"MAP": true, "ADD": true, "REPLACE": true, "SUBSTITUTE": true,
	"APPEND": true, "COPY": true, "UNMAP": true,
	"SETPARENT": true, "SETCHILD": true,
	"ADDRELATION": true, "ADDRELATIONS": true,
	"SETRELATION": true, "SETRELATIONS": true,
	"REMRELATION": true, "REMRELATIONS": true,
	"SETVARIABLE": true, "REMVARIABLE": true,
	"ADDCOHORT": true, "REMCOHORT": true, "SPLITCOHORT": true, "MERGECOHORTS": true,
	"MOVE": true, "SWITCH": true, "DELIMIT": true, "EXTERNAL": true,
	"RESTORE": true, "PROTECT": true, "UNPROTECT": true,
	"JUMP": true, "REOPEN-MAPPINGS": true, "EXECUTE": true,
}

type rlxToken struct {
	text       string
	start, end int
	quoted     bool
}

// tokenizeRlx splits constraint grammar source into tokens. '#' opens a
// comment only at the start of a token; ';', '(' and ')' always stand alone.
func tokenizeRlx(src []byte, path string) ([]rlxToken, error) {
	var toks []rlxToken
	n := len(src)

	isBreak := func(c byte) bool {
		return c == ';' || c == '(' || c == ')' || c == ' ' || c == '\t' || c == '\n' || c == '\r'
	}

	for i := 0; i < n; {
		c := src[i]
		switch {
		case c == ' ' || c == '\t' || c == '\n' || c == '\r':
			i++
		case c == '#':
			for i < n && src[i] != '\n' {
				i++
			}
		case c == ';' || c == '(' || c == ')':
			toks = append(toks, rlxToken{text: string(c), start: i, end: i + 1})
			i++
		case c == '"':
			start := i
			i++
			for i < n && src[i] != '"' {
				if src[i] == '\\' {
					i++
				}
				i++
			}
			if i >= n {
				return nil, &types.ParseError{
					Kind:   types.FileRlx,
					Path:   path,
					Offset: int64(start),
					Reason: "unterminated string",
				}
			}
			i++
			// Tag suffixes such as "<word>"i or "x"r attach to the string
			for i < n && !isBreak(src[i]) {
				i++
			}
			toks = append(toks, rlxToken{text: string(src[start:i]), start: start, end: i, quoted: true})
		default:
			start := i
			for i < n && !isBreak(src[i]) {
				if src[i] == '\\' {
					i++
				}
				i++
			}
			if i > n {
				i = n
			}
			toks = append(toks, rlxToken{text: string(src[start:i]), start: start, end: i})
		}
	}

	return toks, nil
}

// rlxKeyword returns the upper-cased keyword of a statement, skipping a
// leading wordform string and dropping a ":label" suffix
func rlxKeyword(stmt []rlxToken) string {
	for _, t := range stmt {
		if t.quoted || t.text == "(" || t.text == ")" {
			continue
		}
		word := t.text
		if i := strings.IndexByte(word, ':'); i > 0 {
			word = word[:i]
		}
		return strings.ToUpper(word)
	}
	return ""
}

func isRlxHeader(t rlxToken) bool {
	if t.quoted {
		return false
	}
	word := t.text
	if i := strings.IndexByte(word, ':'); i > 0 {
		word = word[:i]
	}
	return rlxSectionKeywords[strings.ToUpper(word)]
}

// parseRlx builds a flat tree of top-level constraint grammar constructs
func parseRlx(src []byte, path string) (*Node, error) {
	toks, err := tokenizeRlx(src, path)
	if err != nil {
		return nil, err
	}

	root := &Node{Kind: RlxSourceFile, End: len(src)}
	var (
		stmt  []rlxToken
		depth int
	)

	fail := func(at int, format string, args ...any) error {
		return &types.ParseError{
			Kind:   types.FileRlx,
			Path:   path,
			Offset: int64(at),
			Reason: fmt.Sprintf(format, args...),
		}
	}

	for _, t := range toks {
		if len(stmt) == 0 && !t.quoted {
			if strings.EqualFold(t.text, "END") {
				return root, nil
			}
			if isRlxHeader(t) {
				root.Children = append(root.Children, &Node{Kind: RlxSectionHeader, Start: t.start, End: t.end})
				continue
			}
		}

		switch t.text {
		case "(":
			depth++
		case ")":
			depth--
			if depth < 0 {
				return nil, fail(t.start, "unbalanced ')'")
			}
		case ";":
			if depth != 0 {
				return nil, fail(t.start, "unbalanced '(' before ';'")
			}
			if len(stmt) == 0 {
				continue
			}
			root.Children = append(root.Children, &Node{
				Kind:  rlxStatementKind(rlxKeyword(stmt)),
				Start: stmt[0].start,
				End:   t.end,
			})
			stmt = stmt[:0]
			continue
		}
		stmt = append(stmt, t)
	}

	if len(stmt) > 0 {
		return nil, fail(stmt[0].start, "statement %q is not terminated by ';'", stmt[0].text)
	}
	return root, nil
}

func rlxStatementKind(keyword string) string {
	if kind, ok := rlxStatementKinds[keyword]; ok {
		return kind
	}
	if rlxRuleKeywords[keyword] {
		return RlxRule
	}
	return RlxStatement
}

func rlxStats(body []byte, path string) ([]types.Stat, error) {
	tree, err := parseRlx(body, path)
	if err != nil {
		return nil, err
	}

	var rules int64
	for _, child := range tree.Children {
		if child.Kind == RlxRule {
			rules++
		}
	}
	return []types.Stat{{Kind: types.StatRules, Value: rules}}, nil
}
