package session

import (
	"strings"

	"github.com/babarot/tana/internal/entry"
	"github.com/gobwas/glob"
)

// Filter matches entry names case-insensitively. A pattern containing glob
// metacharacters is compiled as a glob, anything else is a substring.
type Filter struct {
	pattern string
	lower   string
	g       glob.Glob
}

// NewFilter compiles pattern. An invalid glob falls back to substring matching.
func NewFilter(pattern string) *Filter {
	f := &Filter{pattern: pattern, lower: strings.ToLower(pattern)}
	if strings.ContainsAny(pattern, "*?[{") {
		if g, err := glob.Compile(f.lower); err == nil {
			f.g = g
		}
	}
	return f
}

func (f *Filter) Pattern() string {
	if f == nil {
		return ""
	}
	return f.pattern
}

// Match reports whether e is visible under the filter. A nil or empty filter matches everything.
func (f *Filter) Match(e entry.Entry) bool {
	if f == nil || f.pattern == "" {
		return true
	}
	name := strings.ToLower(e.Name)
	if f.g != nil {
		return f.g.Match(name)
	}
	return strings.Contains(name, f.lower)
}
