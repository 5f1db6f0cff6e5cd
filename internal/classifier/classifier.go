// Package classifier maps repository file names to resource formats.
//
// Rules are evaluated as a set: every rule is tested, and when several
// match, the last matching rule in declaration order decides the kind.
package classifier

import (
	"fmt"
	"regexp"
	"strings"

	"github.com/dshills/apertium-stats-mcp/pkg/types"
)

// LangCodePattern matches a language code such as "kaz", "en" or "por_BR"
const LangCodePattern = `\w{2,3}(_\w+)?`

// Rule pairs a file name pattern with the kind it identifies
type Rule struct {
	Pattern *regexp.Regexp
	Kind    types.FileKind
}

// Classifier resolves file names using an ordered rule list
type Classifier struct {
	rules []Rule
}

// New creates a Classifier from an ordered rule list
func New(rules []Rule) *Classifier {
	return &Classifier{rules: rules}
}

// Default returns a Classifier with the built-in Apertium naming rules
func Default() *Classifier {
	return New(DefaultRules())
}

// DefaultRules returns the built-in rule list in priority order
func DefaultRules() []Rule {
	specs := []struct {
		pattern string
		kind    types.FileKind
	}{
		{`apertium-{re}\.{re}\.dix$`, types.FileMonodix},
		{`apertium-{re}-{re}\.{re}-{re}\.dix$`, types.FileBidix},
		{`apertium-{re}\.{re}\.metadix$`, types.FileMetaMonodix},
		{`apertium-{re}-{re}\.{re}\.metadix$`, types.FileMetaMonodix},
		{`apertium-{re}-{re}\.{re}-{re}\.metadix$`, types.FileMetaBidix},
		{`apertium-{re}-{re}\.post-{re}\.dix$`, types.FilePostdix},
		{`apertium-{re}\.post-{re}\.dix$`, types.FilePostdix},
		{`apertium-{re}-{re}\.{re}-{re}\.rlx$`, types.FileRlx},
		{`apertium-{re}\.{re}\.rlx$`, types.FileRlx},
		{`apertium-{re}-{re}\.{re}-{re}\.t\dx$`, types.FileTransfer},
		{`apertium-{re}\.{re}\.lexc$`, types.FileLexc},
		{`apertium-{re}-{re}\.{re}\.twol$`, types.FileTwol},
		{`apertium-{re}\.{re}\.twol$`, types.FileTwol},
		{`apertium-{re}\.{re}\.lexd$`, types.FileLexd},
	}

	rules := make([]Rule, 0, len(specs))
	for _, s := range specs {
		expr := strings.ReplaceAll(s.pattern, "{re}", LangCodePattern)
		rules = append(rules, Rule{Pattern: regexp.MustCompile(expr), Kind: s.kind})
	}
	return rules
}

// MustRule compiles a pattern into a Rule, panicking on invalid syntax
func MustRule(pattern string, kind types.FileKind) Rule {
	return Rule{Pattern: regexp.MustCompile(pattern), Kind: kind}
}

// Classify returns the kind of the named file, or false if no rule matches.
// A trailing ".xml" is stripped before matching.
func (c *Classifier) Classify(fileName string) (types.FileKind, bool) {
	name := strings.TrimSuffix(fileName, ".xml")

	var (
		kind  types.FileKind
		found bool
	)
	for _, r := range c.rules {
		if r.Pattern.MatchString(name) {
			kind = r.Kind
			found = true
		}
	}
	return kind, found
}

// String describes the rule set for diagnostics
func (c *Classifier) String() string {
	return fmt.Sprintf("classifier(%d rules)", len(c.rules))
}
