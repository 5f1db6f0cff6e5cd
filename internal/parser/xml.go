package parser

import (
	"bytes"
	"encoding/xml"
	"errors"
	"io"

	"github.com/dshills/apertium-stats-mcp/pkg/types"
)

// walkXML streams every token of body to visit in a single forward pass.
// Malformed input stops the walk with a ParseError carrying the byte offset.
func walkXML(body []byte, kind types.FileKind, path string, visit func(xml.Token)) error {
	d := xml.NewDecoder(bytes.NewReader(body))
	d.Strict = true
	d.Entity = xml.HTMLEntity

	for {
		tok, err := d.Token()
		if errors.Is(err, io.EOF) {
			return nil
		}
		if err != nil {
			return &types.ParseError{
				Kind:   kind,
				Path:   path,
				Offset: d.InputOffset(),
				Reason: err.Error(),
			}
		}
		visit(tok)
	}
}

func hasAttr(el xml.StartElement, name string) bool {
	for _, a := range el.Attr {
		if a.Name.Local == name {
			return true
		}
	}
	return false
}

// monodixStats counts lemma-bearing entries inside <section> and
// paradigm definitions inside <pardefs>
func monodixStats(body []byte, kind types.FileKind, path string) ([]types.Stat, error) {
	var (
		stems, paradigms     int64
		inSection, inPardefs bool
	)

	err := walkXML(body, kind, path, func(tok xml.Token) {
		switch t := tok.(type) {
		case xml.StartElement:
			switch t.Name.Local {
			case "section":
				inSection = true
			case "pardefs":
				inPardefs = true
			case "e":
				if inSection && hasAttr(t, "lm") {
					stems++
				}
			case "pardef":
				if inPardefs {
					paradigms++
				}
			}
		case xml.EndElement:
			switch t.Name.Local {
			case "section":
				inSection = false
			case "pardefs":
				inPardefs = false
			}
		}
	})
	if err != nil {
		return nil, err
	}

	return []types.Stat{
		{Kind: types.StatStems, Value: stems},
		{Kind: types.StatParadigms, Value: paradigms},
	}, nil
}

// bidixStats counts entries inside <section>
func bidixStats(body []byte, kind types.FileKind, path string) ([]types.Stat, error) {
	var (
		entries   int64
		inSection bool
	)

	err := walkXML(body, kind, path, func(tok xml.Token) {
		switch t := tok.(type) {
		case xml.StartElement:
			switch t.Name.Local {
			case "section":
				inSection = true
			case "e":
				if inSection {
					entries++
				}
			}
		case xml.EndElement:
			if t.Name.Local == "section" {
				inSection = false
			}
		}
	})
	if err != nil {
		return nil, err
	}

	return []types.Stat{{Kind: types.StatEntries, Value: entries}}, nil
}

// transferStats counts <rule> and <def-macro> elements anywhere in the file
func transferStats(body []byte, path string) ([]types.Stat, error) {
	var rules, macros int64

	err := walkXML(body, types.FileTransfer, path, func(tok xml.Token) {
		t, ok := tok.(xml.StartElement)
		if !ok {
			return
		}
		switch t.Name.Local {
		case "rule":
			rules++
		case "def-macro":
			macros++
		}
	})
	if err != nil {
		return nil, err
	}

	return []types.Stat{
		{Kind: types.StatRules, Value: rules},
		{Kind: types.StatMacros, Value: macros},
	}, nil
}
