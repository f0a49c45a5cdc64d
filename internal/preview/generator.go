package preview

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"
	"slices"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/alecthomas/chroma"
	"github.com/alecthomas/chroma/lexers"
	"github.com/alecthomas/chroma/quick"
	"github.com/alecthomas/chroma/styles"
	"github.com/babarot/tana/internal/core/errs"
	"github.com/babarot/tana/internal/entry"
	"github.com/babarot/tana/internal/shell"
	"github.com/dustin/go-humanize"
	"github.com/gabriel-vasile/mimetype"
	"github.com/muesli/termenv"
)

// Options configures a Generator
type Options struct {
	MaxTextSize     int64
	MaxLines        int
	DirLimit        int
	SyntaxHighlight bool
	Colorscheme     string
	ImageEnabled    bool
	// ImageWidth and ImageHeight bound decoded images in pixels
	ImageWidth      int
	ImageHeight     int
	ExternalCommand string
	ExternalTimeout time.Duration
}

// DefaultOptions returns the options used when none are configured
func DefaultOptions() Options {
	return Options{
		MaxTextSize:     1 << 20,
		MaxLines:        500,
		DirLimit:        200,
		SyntaxHighlight: true,
		Colorscheme:     "monokai",
		ImageEnabled:    true,
		ImageWidth:      160,
		ImageHeight:     96,
		ExternalCommand: "file -b --",
		ExternalTimeout: 3 * time.Second,
	}
}

// Generator produces artifacts for single entries. It holds no state
// between calls and is safe for concurrent use.
type Generator struct {
	opts      Options
	formatter string
}

func NewGenerator(opts Options) *Generator {
	return &Generator{
		opts:      opts,
		formatter: formatterFor(termenv.EnvColorProfile()),
	}
}

// formatterFor picks the chroma formatter matching the terminal
func formatterFor(p termenv.Profile) string {
	switch p {
	case termenv.TrueColor:
		return "terminal16m"
	case termenv.ANSI256:
		return "terminal256"
	case termenv.ANSI:
		return "terminal16"
	}
	return ""
}

// Generate builds the artifact for e. Failures are returned as Error
// artifacts so callers only need to check the kind.
func (g *Generator) Generate(ctx context.Context, e entry.Entry) *Artifact {
	fp := e.Fingerprint()

	switch {
	case e.Kind == entry.BrokenLink:
		target, _ := os.Readlink(e.Path)
		return newUnsupported(fp, "", "broken link -> "+target)
	case e.IsDir():
		return g.directory(ctx, e)
	}

	mtype, err := mimetype.DetectFile(e.Path)
	if err != nil {
		return newError(fp, "", errs.Wrap("detect", e.Path, err))
	}
	mime := mtype.String()

	switch {
	case isText(mtype) && e.Size <= g.opts.MaxTextSize:
		return g.text(e, mime)
	case g.opts.ImageEnabled && isDecodableImage(mtype):
		return g.image(ctx, e, mime)
	case g.opts.ExternalCommand != "":
		return g.external(ctx, e, mime)
	}
	return newUnsupported(fp, mime, "no preview for "+mime)
}

func isText(m *mimetype.MIME) bool {
	for p := m; p != nil; p = p.Parent() {
		if p.Is("text/plain") {
			return true
		}
	}
	return false
}

// directory lists names and kinds only, capped at DirLimit entries
func (g *Generator) directory(ctx context.Context, e entry.Entry) *Artifact {
	fp := e.Fingerprint()
	f, err := os.Open(e.Path)
	if err != nil {
		return newError(fp, "inode/directory", errs.Wrap("open", e.Path, err))
	}
	defer f.Close()

	limit := g.opts.DirLimit
	dirents, err := f.ReadDir(limit + 1)
	if err != nil && err != io.EOF {
		return newError(fp, "inode/directory", errs.Wrap("readdir", e.Path, err))
	}
	if err := ctx.Err(); err != nil {
		return newError(fp, "inode/directory", errs.Wrap("readdir", e.Path, err))
	}

	truncated := len(dirents) > limit
	if truncated {
		dirents = dirents[:limit]
	}
	slices.SortFunc(dirents, func(a, b os.DirEntry) int {
		if a.IsDir() != b.IsDir() {
			if a.IsDir() {
				return -1
			}
			return 1
		}
		return strings.Compare(strings.ToLower(a.Name()), strings.ToLower(b.Name()))
	})

	lines := make([]string, 0, len(dirents)+1)
	for _, d := range dirents {
		name := d.Name()
		switch {
		case d.IsDir():
			name += "/"
		case d.Type()&os.ModeSymlink != 0:
			name += "@"
		}
		lines = append(lines, name)
	}
	if len(lines) == 0 {
		lines = append(lines, "(empty)")
	}
	if truncated {
		lines = append(lines, fmt.Sprintf("… more than %d entries", limit))
	}
	return newText(fp, "inode/directory", lines, truncated)
}

func (g *Generator) text(e entry.Entry, mime string) *Artifact {
	fp := e.Fingerprint()
	data, err := os.ReadFile(e.Path)
	if err != nil {
		return newError(fp, mime, errs.Wrap("read", e.Path, err))
	}
	if !utf8.Valid(data) {
		return newError(fp, mime, errs.New(errs.DecodeError, "decode", e.Path, fmt.Errorf("not valid UTF-8")))
	}

	content := strings.ReplaceAll(string(data), "\t", "    ")
	lines := strings.Split(strings.TrimRight(content, "\n"), "\n")
	truncated := len(lines) > g.opts.MaxLines
	if truncated {
		lines = lines[:g.opts.MaxLines]
	}

	if g.opts.SyntaxHighlight && g.formatter != "" {
		highlighted, err := g.highlight(e.Name, strings.Join(lines, "\n"))
		if err != nil {
			slog.Debug("highlight failed", "path", e.Path, "error", err)
		} else {
			lines = strings.Split(highlighted, "\n")
		}
	}
	return newText(fp, mime, lines, truncated)
}

// highlight applies syntax highlighting to the content.
func (g *Generator) highlight(name, content string) (string, error) {
	var lexer chroma.Lexer
	lexer = lexers.Get(name)
	if lexer == nil {
		lexer = lexers.Analyse(content)
	}
	if lexer == nil {
		lexer = lexers.Fallback
	}

	style := styles.Get(g.opts.Colorscheme)
	if style == nil || style.Name == "swapoff" {
		style = styles.Get("monokai")
	}

	var buf strings.Builder
	if err := quick.Highlight(&buf, content, lexer.Config().Name, g.formatter, style.Name); err != nil {
		return "", err
	}
	return strings.TrimRight(buf.String(), "\n"), nil
}

// external delegates to the configured tool, killing it on timeout
func (g *Generator) external(ctx context.Context, e entry.Entry, mime string) *Artifact {
	fp := e.Fingerprint()
	if g.opts.ExternalTimeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, g.opts.ExternalTimeout)
		defer cancel()
	}

	out, code, err := shell.RunContext(ctx, shell.Command(g.opts.ExternalCommand, e.Path))
	if err != nil {
		return newError(fp, mime, errs.Wrap("preview tool", e.Path, err))
	}
	if code != 0 {
		return newError(fp, mime, errs.New(errs.IoError, "preview tool", e.Path, fmt.Errorf("exit status %d", code)))
	}

	if int64(len(out)) > g.opts.MaxTextSize {
		out = out[:g.opts.MaxTextSize]
	}
	header := fmt.Sprintf("%s, %s", mime, humanize.Bytes(uint64(e.Size)))
	return newExternal(fp, mime, header+"\n\n"+strings.TrimRight(out, "\n"))
}
