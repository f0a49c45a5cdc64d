package keys

import (
	"github.com/charmbracelet/bubbles/key"
)

// Common keys shared across modes
type Common struct {
	Quit key.Binding
	Help key.Binding
}

// Normal mode keys
type Normal struct {
	Up       key.Binding
	Down     key.Binding
	Left     key.Binding
	Right    key.Binding
	Top      key.Binding
	Bottom   key.Binding
	PageUp   key.Binding
	PageDown key.Binding

	Open       key.Binding
	Mark       key.Binding
	MarkAll    key.Binding
	ClearMarks key.Binding
	NextMarked key.Binding
	PrevMarked key.Binding

	Yank     key.Binding
	Cut      key.Binding
	Paste    key.Binding
	Delete   key.Binding
	Undo     key.Binding
	Rename   key.Binding
	Bulk     key.Binding
	NewFile  key.Binding
	NewDir   key.Binding
	CopyPath key.Binding

	Search  key.Binding
	Console key.Binding
	Back    key.Binding
	Home    key.Binding
	Trash   key.Binding
	Hidden  key.Binding
	Reload  key.Binding
	Log     key.Binding
	Date    key.Binding

	PreviewUp   key.Binding
	PreviewDown key.Binding
}

// Prompt keys apply while a text input has focus
type Prompt struct {
	Submit   key.Binding
	Cancel   key.Binding
	Complete key.Binding
	Next     key.Binding
	Prev     key.Binding
}

// Confirm keys answer a pending confirmation
type Confirm struct {
	Yes key.Binding
	No  key.Binding
}

// KeyMap holds all key bindings and help functions
type KeyMap struct {
	Common  Common
	Normal  Normal
	Prompt  Prompt
	Confirm Confirm

	shortHelp func() []key.Binding
	fullHelp  func() [][]key.Binding
}

func NewKeyMap() *KeyMap {
	km := &KeyMap{}

	km.Common = Common{
		Quit: key.NewBinding(
			key.WithKeys("q", "ctrl+c"),
			key.WithHelp("q", "quit"),
		),
		Help: key.NewBinding(
			key.WithKeys("?"),
			key.WithHelp("?", "help"),
		),
	}

	km.Normal = Normal{
		Up:       key.NewBinding(key.WithKeys("k", "up"), key.WithHelp("↑/k", "up")),
		Down:     key.NewBinding(key.WithKeys("j", "down"), key.WithHelp("↓/j", "down")),
		Left:     key.NewBinding(key.WithKeys("h", "left", "backspace"), key.WithHelp("←/h", "parent")),
		Right:    key.NewBinding(key.WithKeys("l", "right"), key.WithHelp("→/l", "enter")),
		Top:      key.NewBinding(key.WithKeys("g", "home"), key.WithHelp("g", "top")),
		Bottom:   key.NewBinding(key.WithKeys("G", "end"), key.WithHelp("G", "bottom")),
		PageUp:   key.NewBinding(key.WithKeys("ctrl+u", "pgup"), key.WithHelp("ctrl+u", "½ page up")),
		PageDown: key.NewBinding(key.WithKeys("ctrl+d", "pgdown"), key.WithHelp("ctrl+d", "½ page down")),

		Open:       key.NewBinding(key.WithKeys("enter", "o"), key.WithHelp("enter", "open")),
		Mark:       key.NewBinding(key.WithKeys(" ", "tab"), key.WithHelp("space", "mark")),
		MarkAll:    key.NewBinding(key.WithKeys("*"), key.WithHelp("*", "mark all")),
		ClearMarks: key.NewBinding(key.WithKeys("esc"), key.WithHelp("esc", "unmark")),
		NextMarked: key.NewBinding(key.WithKeys("n"), key.WithHelp("n", "next marked")),
		PrevMarked: key.NewBinding(key.WithKeys("N"), key.WithHelp("N", "prev marked")),

		Yank:     key.NewBinding(key.WithKeys("y"), key.WithHelp("y", "copy")),
		Cut:      key.NewBinding(key.WithKeys("d"), key.WithHelp("d", "cut")),
		Paste:    key.NewBinding(key.WithKeys("p"), key.WithHelp("p", "paste")),
		Delete:   key.NewBinding(key.WithKeys("D"), key.WithHelp("D", "trash")),
		Undo:     key.NewBinding(key.WithKeys("u"), key.WithHelp("u", "undo")),
		Rename:   key.NewBinding(key.WithKeys("r"), key.WithHelp("r", "rename")),
		Bulk:     key.NewBinding(key.WithKeys("B"), key.WithHelp("B", "bulk rename")),
		NewFile:  key.NewBinding(key.WithKeys("t"), key.WithHelp("t", "new file")),
		NewDir:   key.NewBinding(key.WithKeys("M"), key.WithHelp("M", "new dir")),
		CopyPath: key.NewBinding(key.WithKeys("Y"), key.WithHelp("Y", "copy path")),

		Search:  key.NewBinding(key.WithKeys("/"), key.WithHelp("/", "search")),
		Console: key.NewBinding(key.WithKeys(":"), key.WithHelp(":", "cd")),
		Back:    key.NewBinding(key.WithKeys("'"), key.WithHelp("'", "previous dir")),
		Home:    key.NewBinding(key.WithKeys("~"), key.WithHelp("~", "home")),
		Trash:   key.NewBinding(key.WithKeys("T"), key.WithHelp("T", "trash")),
		Hidden:  key.NewBinding(key.WithKeys("."), key.WithHelp(".", "hidden")),
		Reload:  key.NewBinding(key.WithKeys("ctrl+r"), key.WithHelp("ctrl+r", "reload")),
		Log:     key.NewBinding(key.WithKeys("L"), key.WithHelp("L", "log")),
		Date:    key.NewBinding(key.WithKeys("@"), key.WithHelp("@", "date format")),

		PreviewUp:   key.NewBinding(key.WithKeys("K", "shift+up"), key.WithHelp("K", "preview up")),
		PreviewDown: key.NewBinding(key.WithKeys("J", "shift+down"), key.WithHelp("J", "preview down")),
	}

	km.Prompt = Prompt{
		Submit:   key.NewBinding(key.WithKeys("enter"), key.WithHelp("enter", "ok")),
		Cancel:   key.NewBinding(key.WithKeys("esc", "ctrl+c"), key.WithHelp("esc", "cancel")),
		Complete: key.NewBinding(key.WithKeys("tab"), key.WithHelp("tab", "complete")),
		Next:     key.NewBinding(key.WithKeys("down", "ctrl+n")),
		Prev:     key.NewBinding(key.WithKeys("up", "ctrl+p")),
	}

	km.Confirm = Confirm{
		Yes: key.NewBinding(
			key.WithKeys("y", "Y"),
			key.WithHelp("y", "yes"),
		),
		No: key.NewBinding(
			key.WithKeys("n", "N", "esc"),
			key.WithHelp("n", "no"),
		),
	}

	km.shortHelp = km.normalShortHelp
	km.fullHelp = km.normalFullHelp
	return km
}

// ShortHelp returns condensed help view
func (k KeyMap) ShortHelp() []key.Binding {
	return k.shortHelp()
}

// FullHelp returns complete help view
func (k KeyMap) FullHelp() [][]key.Binding {
	return k.fullHelp()
}

func (k KeyMap) normalShortHelp() []key.Binding {
	return []key.Binding{
		k.Normal.Open, k.Normal.Mark, k.Normal.Search, k.Normal.Console,
		k.Normal.Delete, k.Normal.Undo, k.Common.Help, k.Common.Quit,
	}
}

func (k KeyMap) normalFullHelp() [][]key.Binding {
	n := k.Normal
	return [][]key.Binding{
		{n.Up, n.Down, n.Left, n.Right, n.Top, n.Bottom, n.PageUp, n.PageDown},
		{n.Open, n.Mark, n.MarkAll, n.ClearMarks, n.NextMarked, n.PrevMarked, n.Search},
		{n.Yank, n.Cut, n.Paste, n.Delete, n.Undo, n.Rename, n.Bulk, n.CopyPath},
		{n.NewFile, n.NewDir, n.Console, n.Back, n.Home, n.Trash, n.Hidden, n.Reload},
		{n.PreviewUp, n.PreviewDown, n.Log, n.Date, k.Common.Help, k.Common.Quit},
	}
}

// AsPromptKeyMap returns a KeyMap that only shows text input help
func (k KeyMap) AsPromptKeyMap(completion bool) KeyMap {
	newMap := k
	newMap.shortHelp = func() []key.Binding {
		if completion {
			return []key.Binding{k.Prompt.Submit, k.Prompt.Complete, k.Prompt.Cancel}
		}
		return []key.Binding{k.Prompt.Submit, k.Prompt.Cancel}
	}
	newMap.fullHelp = func() [][]key.Binding {
		return [][]key.Binding{newMap.shortHelp()}
	}
	return newMap
}

// AsConfirmKeyMap returns a KeyMap that only shows confirm help
func (k KeyMap) AsConfirmKeyMap() KeyMap {
	newMap := k
	newMap.shortHelp = func() []key.Binding {
		return []key.Binding{k.Confirm.Yes, k.Confirm.No}
	}
	newMap.fullHelp = func() [][]key.Binding {
		return [][]key.Binding{newMap.shortHelp()}
	}
	return newMap
}
