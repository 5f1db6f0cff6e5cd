package listing

import (
	"encoding/xml"
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/dshills/apertium-stats-mcp/pkg/types"
)

// svnLists mirrors the output of "svn list --xml"
type svnLists struct {
	XMLName xml.Name  `xml:"lists"`
	Lists   []svnList `xml:"list"`
}

type svnList struct {
	Path    string     `xml:"path,attr"`
	Entries []svnEntry `xml:"entry"`
}

type svnEntry struct {
	Kind   string    `xml:"kind,attr"`
	Name   string    `xml:"name"`
	Size   string    `xml:"size"`
	Commit svnCommit `xml:"commit"`
}

type svnCommit struct {
	Revision string `xml:"revision,attr"`
	Author   string `xml:"author"`
	Date     string `xml:"date"`
}

var errInvalidUTF8 = errors.New("output is not valid UTF-8")

// decodeListing converts svn XML output to file descriptors. Any field that
// fails to decode fails the whole listing.
func decodeListing(out []byte) ([]types.FileDescriptor, error) {
	if !utf8.Valid(out) {
		return nil, errInvalidUTF8
	}

	var doc svnLists
	if err := xml.Unmarshal(out, &doc); err != nil {
		return nil, fmt.Errorf("malformed listing xml: %w", err)
	}

	var files []types.FileDescriptor
	for _, list := range doc.Lists {
		for _, e := range list.Entries {
			if e.Kind != "file" {
				continue
			}
			fd, err := e.descriptor()
			if err != nil {
				return nil, err
			}
			files = append(files, fd)
		}
	}
	return files, nil
}

func (e svnEntry) descriptor() (types.FileDescriptor, error) {
	path := strings.TrimSpace(e.Name)
	if path == "" {
		return types.FileDescriptor{}, errors.New("entry has no name")
	}

	size, err := strconv.ParseInt(strings.TrimSpace(e.Size), 10, 64)
	if err != nil {
		return types.FileDescriptor{}, fmt.Errorf("%s: invalid size %q", path, e.Size)
	}

	revision, err := strconv.ParseInt(strings.TrimSpace(e.Commit.Revision), 10, 64)
	if err != nil {
		return types.FileDescriptor{}, fmt.Errorf("%s: invalid revision %q", path, e.Commit.Revision)
	}

	changed, err := time.Parse(time.RFC3339Nano, strings.TrimSpace(e.Commit.Date))
	if err != nil {
		return types.FileDescriptor{}, fmt.Errorf("%s: invalid date %q", path, e.Commit.Date)
	}

	return types.FileDescriptor{
		Path:        path,
		Size:        size,
		Revision:    revision,
		Author:      strings.TrimSpace(e.Commit.Author),
		LastChanged: changed.UTC(),
	}, nil
}
