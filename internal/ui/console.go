package ui

import (
	"fmt"
	"os"
	"path/filepath"
	"slices"
	"strings"

	"github.com/babarot/tana/internal/core/errs"
	"github.com/babarot/tana/internal/shell"
	"github.com/sahilm/fuzzy"
)

// maxCandidates caps the completion list shown under the console
const maxCandidates = 8

// consolePath turns console input into an absolute path
func consolePath(input, cwd string) (string, error) {
	input = strings.TrimSpace(input)
	if input == "" {
		return cwd, nil
	}
	expanded, err := shell.ExpandHome(input)
	if err != nil {
		return "", err
	}
	if !filepath.IsAbs(expanded) {
		expanded = filepath.Join(cwd, expanded)
	}
	return filepath.Clean(expanded), nil
}

// resolveDir checks that the console input names a directory
func resolveDir(input, cwd string) (string, error) {
	path, err := consolePath(input, cwd)
	if err != nil {
		return "", err
	}
	info, err := os.Stat(path)
	if err != nil {
		return "", errs.Wrap("cd", path, err)
	}
	if !info.IsDir() {
		return "", errs.New(errs.IoError, "cd", path, fmt.Errorf("not a directory"))
	}
	return path, nil
}

// completions ranks the directories next to the typed path by a fuzzy
// match on its last element. A trailing slash lists the directory itself.
func completions(input, cwd string, showHidden bool) []string {
	path, err := consolePath(input, cwd)
	if err != nil {
		return nil
	}
	dir, pattern := filepath.Dir(path), filepath.Base(path)
	if input == "" || strings.HasSuffix(input, "/") {
		dir, pattern = path, ""
	}

	dirents, err := os.ReadDir(dir)
	if err != nil {
		return nil
	}
	var names []string
	for _, d := range dirents {
		name := d.Name()
		if strings.HasPrefix(name, ".") && !showHidden && !strings.HasPrefix(pattern, ".") {
			continue
		}
		if !d.IsDir() {
			// follow links to directories
			info, err := os.Stat(filepath.Join(dir, name))
			if err != nil || !info.IsDir() {
				continue
			}
		}
		names = append(names, name)
	}

	var ranked []string
	if pattern == "" {
		slices.Sort(names)
		ranked = names
	} else {
		for _, m := range fuzzy.Find(pattern, names) {
			ranked = append(ranked, m.Str)
		}
	}
	if len(ranked) > maxCandidates {
		ranked = ranked[:maxCandidates]
	}
	out := make([]string, len(ranked))
	for i, name := range ranked {
		out[i] = filepath.Join(dir, name) + string(filepath.Separator)
	}
	return out
}
