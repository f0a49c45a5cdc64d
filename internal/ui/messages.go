package ui

import (
	fsatomic "github.com/babarot/tana/internal/core/atomic"
	"github.com/babarot/tana/internal/journal"
	"github.com/babarot/tana/internal/preview"
	"github.com/babarot/tana/internal/session"
)

// loadedMsg carries a finished directory load
type loadedMsg session.Loaded

// previewMsg carries the result of one preview request
type previewMsg struct {
	pending *preview.Pending
	res     preview.Result
}

// previewTickMsg fires after the preview delay; stale sequence numbers are dropped
type previewTickMsg struct {
	seq uint64
}

// batchDoneMsg reports a finished journal batch
type batchDoneMsg struct {
	op       journal.Op
	outcomes []journal.Outcome
	// afterCut clears the clipboard when the whole batch succeeded
	afterCut bool
}

// opDoneMsg reports a single journal operation
type opDoneMsg struct {
	what string
	err  error
	// focus is selected once the reload shows it
	focus string
}

// editorDoneMsg is sent when the bulk rename editor exits
type editorDoneMsg struct {
	dir   string
	names []string
	file  *fsatomic.TempFile
	err   error
}

// openDoneMsg is sent when a terminal program returns
type openDoneMsg struct {
	err error
}

// logTickMsg refreshes the log pane
type logTickMsg struct{}

// errorMsg represents any error that occurred during UI operations
type errorMsg struct {
	err error
}

func (e errorMsg) Error() string { return e.err.Error() }
