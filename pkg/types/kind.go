package types

import (
	"fmt"
	"strings"
)

// FileKind represents the recognized structural format of a resource file
type FileKind string

const (
	FileMonodix     FileKind = "monodix"
	FileBidix       FileKind = "bidix"
	FileMetaMonodix FileKind = "metamonodix"
	FileMetaBidix   FileKind = "metabidix"
	FilePostdix     FileKind = "postdix"
	FileRlx         FileKind = "rlx"
	FileTransfer    FileKind = "transfer"
	FileLexc        FileKind = "lexc"
	FileLexd        FileKind = "lexd"
	FileTwol        FileKind = "twol"
)

// AllFileKinds lists every FileKind in declaration order
var AllFileKinds = []FileKind{
	FileMonodix,
	FileBidix,
	FileMetaMonodix,
	FileMetaBidix,
	FilePostdix,
	FileRlx,
	FileTransfer,
	FileLexc,
	FileLexd,
	FileTwol,
}

// StatKind represents a named countable quantity extracted from a file
type StatKind string

const (
	StatEntries        StatKind = "entries"
	StatParadigms      StatKind = "paradigms"
	StatRules          StatKind = "rules"
	StatMacros         StatKind = "macros"
	StatStems          StatKind = "stems"
	StatVanillaStems   StatKind = "vanilla_stems"
	StatLexicons       StatKind = "lexicons"
	StatLexiconEntries StatKind = "lexicon_entries"
	StatPatterns       StatKind = "patterns"
	StatPatternEntries StatKind = "pattern_entries"
)

var fileKindStats = map[FileKind][]StatKind{
	FileMonodix:     {StatStems, StatParadigms},
	FileMetaMonodix: {StatStems, StatParadigms},
	FileBidix:       {StatEntries},
	FileMetaBidix:   {StatEntries},
	FilePostdix:     {StatEntries},
	FileTransfer:    {StatRules, StatMacros},
	FileRlx:         {StatRules},
	FileTwol:        {StatRules},
	FileLexc:        {StatStems, StatVanillaStems},
	FileLexd:        {StatLexicons, StatLexiconEntries, StatPatterns, StatPatternEntries},
}

// ParseFileKind converts a user-supplied name into a FileKind.
// Matching is case-insensitive; unknown names are rejected.
func ParseFileKind(s string) (FileKind, error) {
	k := FileKind(strings.ToLower(strings.TrimSpace(s)))
	if _, ok := fileKindStats[k]; !ok {
		return "", fmt.Errorf("%w: %q", ErrUnknownFileKind, s)
	}
	return k, nil
}

// Valid reports whether k is one of the declared kinds
func (k FileKind) Valid() bool {
	_, ok := fileKindStats[k]
	return ok
}

// StatKinds returns the fixed set of statistics a file of this kind produces
func (k FileKind) StatKinds() []StatKind {
	kinds := fileKindStats[k]
	out := make([]StatKind, len(kinds))
	copy(out, kinds)
	return out
}

// Stat is a single computed (StatKind, value) pair
type Stat struct {
	Kind  StatKind `json:"kind"`
	Value int64    `json:"value"`
}
