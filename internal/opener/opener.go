package opener

import (
	"errors"
	"fmt"
	"log/slog"
	"os"
	"os/exec"
	"path/filepath"
	"strings"

	"github.com/babarot/tana/internal/config"
	"github.com/babarot/tana/internal/shell"
	"github.com/gabriel-vasile/mimetype"
	"github.com/gobwas/glob"
	"github.com/samber/lo"
)

// ErrNoRule is returned when no rule matches a file
var ErrNoRule = errors.New("no open rule matches")

type rule struct {
	config.OpenRule
	mime glob.Glob
	exts []string
}

// Opener picks the program for a file from an ordered rule list.
// The first matching rule wins.
type Opener struct {
	rules []rule
}

func New(rules []config.OpenRule) (*Opener, error) {
	o := &Opener{rules: make([]rule, 0, len(rules))}
	for _, r := range rules {
		cr := rule{OpenRule: r}
		if r.Mime != "" {
			g, err := glob.Compile(r.Mime)
			if err != nil {
				return nil, fmt.Errorf("open rule %q: %w", r.Mime, err)
			}
			cr.mime = g
		}
		if r.Ext != "" {
			cr.exts = lo.Map(strings.Split(r.Ext, ","), func(s string, _ int) string {
				return strings.ToLower(strings.TrimPrefix(strings.TrimSpace(s), "."))
			})
		}
		o.rules = append(o.rules, cr)
	}
	return o, nil
}

// Match returns the first rule for path. Extension rules are checked
// without reading the file; mime detection only happens when needed.
func (o *Opener) Match(path string) (config.OpenRule, error) {
	ext := strings.ToLower(strings.TrimPrefix(filepath.Ext(path), "."))

	var mimes []string
	detected := false
	for _, r := range o.rules {
		if len(r.exts) > 0 && ext != "" && lo.Contains(r.exts, ext) {
			return r.OpenRule, nil
		}
		if r.mime == nil {
			continue
		}
		if !detected {
			mimes = detect(path)
			detected = true
		}
		if lo.ContainsBy(mimes, r.mime.Match) {
			return r.OpenRule, nil
		}
	}
	return config.OpenRule{}, fmt.Errorf("%s: %w", filepath.Base(path), ErrNoRule)
}

// detect returns the mime type of path followed by its parents, without parameters
func detect(path string) []string {
	m, err := mimetype.DetectFile(path)
	if err != nil {
		slog.Debug("mime detection failed", "path", path, "error", err)
		return []string{"application/octet-stream"}
	}
	var out []string
	for p := m; p != nil; p = p.Parent() {
		s, _, _ := strings.Cut(p.String(), ";")
		out = append(out, strings.TrimSpace(s))
	}
	return out
}

// Command builds the process for path. Terminal reports whether it needs
// the terminal, in which case the caller must hand the tty over to it.
func (o *Opener) Command(path string) (cmd *exec.Cmd, terminal bool, err error) {
	r, err := o.Match(path)
	if err != nil {
		return nil, false, err
	}
	line := shell.Command(r.Command, path)
	slog.Debug("open", "path", path, "command", line, "terminal", r.Terminal)

	cmd = exec.Command("sh", "-c", line)
	cmd.Dir = filepath.Dir(path)
	if r.Terminal {
		cmd.Stdin, cmd.Stdout, cmd.Stderr = os.Stdin, os.Stdout, os.Stderr
	}
	return cmd, r.Terminal, nil
}

// Start launches a non-terminal command without waiting for it
func Start(cmd *exec.Cmd) error {
	detach(cmd)
	if err := cmd.Start(); err != nil {
		return err
	}
	go func() {
		if err := cmd.Wait(); err != nil {
			slog.Warn("opener exited with error", "command", cmd.String(), "error", err)
		}
	}()
	return nil
}
