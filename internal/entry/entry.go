package entry

import (
	"io/fs"
	"strings"
	"time"
)

// Kind is the type of filesystem object an Entry describes
type Kind uint8

const (
	File Kind = iota
	Directory
	Symlink
	BrokenLink
)

func (k Kind) String() string {
	switch k {
	case File:
		return "file"
	case Directory:
		return "dir"
	case Symlink:
		return "link"
	case BrokenLink:
		return "broken"
	}
	return "unknown"
}

// Entry represents a single object inside a directory listing.
// The path identifies it, the Fingerprint identifies its content version.
type Entry struct {
	Path    string
	Name    string
	Kind    Kind
	LinkDir bool // symlink whose target is a directory
	Size    int64
	ModTime time.Time
	Mode    fs.FileMode
	Marked  bool
}

// Fingerprint identifies one version of a file for caching
type Fingerprint struct {
	Path    string
	Size    int64
	ModTime int64
}

func (e Entry) Fingerprint() Fingerprint {
	return Fingerprint{
		Path:    e.Path,
		Size:    e.Size,
		ModTime: e.ModTime.UnixNano(),
	}
}

// IsDir reports whether the entry can be entered
func (e Entry) IsDir() bool {
	return e.Kind == Directory || (e.Kind == Symlink && e.LinkDir)
}

func (e Entry) IsHidden() bool {
	return strings.HasPrefix(e.Name, ".")
}

// DisplayName appends a kind indicator to the name
func (e Entry) DisplayName() string {
	switch {
	case e.IsDir():
		return e.Name + "/"
	case e.Kind == Symlink:
		return e.Name + "@"
	case e.Kind == BrokenLink:
		return e.Name + "!"
	}
	return e.Name
}

// rank orders directories before everything else
func (e Entry) rank() int {
	if e.IsDir() {
		return 0
	}
	return 1
}

// Compare is the total order of a Snapshot: kind, case-insensitive name, then path
func Compare(a, b Entry) int {
	if ra, rb := a.rank(), b.rank(); ra != rb {
		return ra - rb
	}
	if c := strings.Compare(strings.ToLower(a.Name), strings.ToLower(b.Name)); c != 0 {
		return c
	}
	return strings.Compare(a.Path, b.Path)
}
