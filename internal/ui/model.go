package ui

import (
	"context"

	"github.com/babarot/tana/internal/config"
	"github.com/babarot/tana/internal/entry"
	"github.com/babarot/tana/internal/journal"
	"github.com/babarot/tana/internal/opener"
	"github.com/babarot/tana/internal/preview"
	"github.com/babarot/tana/internal/scheduler"
	"github.com/babarot/tana/internal/session"
	"github.com/babarot/tana/internal/ui/keys"
	"github.com/babarot/tana/internal/ui/styles"
	"github.com/babarot/tana/internal/utils/log"
	"github.com/charmbracelet/bubbles/help"
	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"
)

// Options wires the browser to the services it drives
type Options struct {
	Config    config.Config
	Dir       string
	Scheduler *scheduler.Scheduler
	Previews  *preview.Service
	Journal   *journal.Journal
	Opener    *opener.Opener
	// Ring feeds the log pane, may be nil
	Ring *log.Ring
}

// confirmation is a question waiting in CONFIRM_VIEW
type confirmation struct {
	prompt string
	yes    func() tea.Cmd
}

// renderedImage memoizes the ANSI rendering of the shown image
type renderedImage struct {
	fp   entry.Fingerprint
	w, h int
	out  string
}

// Model represents the main UI model following the Bubble Tea pattern
type Model struct {
	ctx context.Context
	cfg config.Config

	session  *session.Session
	sched    *scheduler.Scheduler
	loader   *session.Loader
	previews *preview.Service
	journal  *journal.Journal
	opener   *opener.Opener
	ring     *log.Ring

	state  *ViewState
	keyMap *keys.KeyMap
	styles *styles.Styles
	help   help.Model
	input  textinput.Model

	// parent is the listing shown in the left column
	parent *entry.Snapshot

	// pending is the outstanding request for the selected entry
	pending *preview.Pending
	// shown is the artifact on screen; it stays pinned until replaced
	shown      *preview.Handle
	shownFor   preview.Request
	previewErr string
	scroll     int
	previewSeq uint64
	image      renderedImage
	meta       fileMeta

	yanked     yanked
	confirm    *confirmation
	candidates []string
	candidate  int

	status    string
	statusErr bool
	logSeq    uint64

	width  int
	height int

	err error
}

func New(ctx context.Context, opts Options) *Model {
	cfg := opts.Config
	sched := opts.Scheduler
	loader := session.NewLoader(sched, entry.LoadOptions{Ignore: cfg.Core.IgnoreGlobs()})

	st := styles.New(cfg.UI)
	input := textinput.New()
	input.CharLimit = 4096
	input.PromptStyle = st.Prompt

	return &Model{
		ctx:      ctx,
		cfg:      cfg,
		session:  session.New(opts.Dir, cfg.Core.ShowHidden),
		sched:    sched,
		loader:   loader,
		previews: opts.Previews,
		journal:  opts.Journal,
		opener:   opts.Opener,
		ring:     opts.Ring,
		state:    NewViewState(cfg.UI.DateFormat),
		keyMap:   keys.NewKeyMap(),
		styles:   st,
		help:     help.New(),
		input:    input,
		width:    defaultWidth,
		height:   defaultHeight,
	}
}

// Dir is the directory shown when the model stopped
func (m *Model) Dir() string { return m.session.Dir() }

// Err is the error that ended the model, if any
func (m *Model) Err() error { return m.err }
