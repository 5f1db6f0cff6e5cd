// Package parser extracts statistics from Apertium linguistic resource files.
//
// Each FileKind has its own algorithm:
//   - Dictionaries (monodix, bidix, metadix, postdix) and transfer files are
//     reduced from a single forward pass over the XML token stream.
//   - twol rules are counted line by line.
//   - lexc files are parsed into a lexicon graph; stems are the distinct
//     entries reachable from LEXICON Root.
//   - lexd and rlx files are parsed into a concrete syntax tree whose
//     top-level nodes are counted.
//
// # Basic Usage
//
//	p := parser.New(parser.Config{Logger: logger})
//	stats, err := p.Parse(ctx, types.FileMonodix, "apertium-kaz.kaz.dix", body)
//	if err != nil {
//	    return err
//	}
//
// # Error Handling
//
// Failures return a *types.ParseError. A malformed lexc line is the only
// recoverable error: it is logged at warn level and skipped.
//
// # Compiler Mode
//
// When Config.CGCompiler is set, rlx grammars are compiled with cg-comp and
// the "Rules" count is read from its diagnostics instead of the built-in
// grammar.
package parser
