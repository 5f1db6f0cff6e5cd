package parser

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dshills/apertium-stats-mcp/pkg/types"
)

const rlxFixture = `DELIMITERS = "<.>" "<!>" ;
LIST N = n ;
SET NOM = N + (nom) ;

SECTION
SELECT:r1 N IF (0 NOM) ;
"<word>" REMOVE (v) IF (-1 ("the")) ; # comment ; here
# full line comment
MAP (@SUBJ) TARGET N ;
TEMPLATE t = (1 N) ;
MAPPING-PREFIX = @ ;
SUBSTITUTE (x) (y) TARGET ("x\"y") ;
END
SELECT N ;
`

func TestParseRlx_Tree(t *testing.T) {
	tree, err := parseRlx([]byte(rlxFixture), "apertium-kaz.kaz.rlx")
	require.NoError(t, err)

	var kinds []string
	for _, c := range tree.Children {
		kinds = append(kinds, c.Kind)
	}
	assert.Equal(t, []string{
		RlxDelimiters,
		RlxSetDefinition,
		RlxSetDefinition,
		RlxSectionHeader,
		RlxRule,
		RlxRule,
		RlxRule,
		RlxTemplate,
		RlxStatement,
		RlxRule,
	}, kinds)
}

func TestRlxStats(t *testing.T) {
	stats, err := New(Config{}).Parse(context.Background(), types.FileRlx, "apertium-kaz.kaz.rlx", []byte(rlxFixture))
	require.NoError(t, err)
	assert.Equal(t, []types.Stat{{Kind: types.StatRules, Value: 4}}, stats)
}

func TestRlxStats_CaseInsensitiveKeywords(t *testing.T) {
	body := "list A = a ;\nselect A ;\nremove:x A ;\n"

	stats, err := rlxStats([]byte(body), "x.rlx")
	require.NoError(t, err)
	assert.Equal(t, int64(2), statMap(stats)[types.StatRules])
}

func TestParseRlx_Errors(t *testing.T) {
	tests := []struct {
		name string
		body string
	}{
		{"unterminated statement", "SELECT N ;\nREMOVE V"},
		{"unterminated string", `LIST X = "abc ;`},
		{"unclosed paren", "SELECT (N ;"},
		{"extra close paren", "SELECT N) ;"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			tree, err := parseRlx([]byte(tt.body), "bad.rlx")
			assert.Nil(t, tree)
			require.Error(t, err)
			assert.ErrorIs(t, err, types.ErrParse)

			var pe *types.ParseError
			require.ErrorAs(t, err, &pe)
			assert.Equal(t, types.FileRlx, pe.Kind)
			assert.Equal(t, "bad.rlx", pe.Path)
		})
	}
}
