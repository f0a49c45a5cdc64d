package ui

import (
	"time"

	"github.com/dustin/go-humanize"
)

// ViewType represents the current input mode
type ViewType uint8

const (
	NORMAL_VIEW ViewType = iota
	CONSOLE_VIEW
	CREATE_VIEW
	SEARCH_VIEW
	RENAME_VIEW
	CONFIRM_VIEW
	QUITTING
)

func (v ViewType) String() string {
	switch v {
	case NORMAL_VIEW:
		return "normal"
	case CONSOLE_VIEW:
		return "console"
	case CREATE_VIEW:
		return "create"
	case SEARCH_VIEW:
		return "search"
	case RENAME_VIEW:
		return "rename"
	case CONFIRM_VIEW:
		return "confirm"
	case QUITTING:
		return "quit"
	}
	return "unknown"
}

// DateFormat represents the date display format
type DateFormat string

const (
	DateFormatRelative DateFormat = "relative"
	DateFormatAbsolute DateFormat = "absolute"
)

type ViewState struct {
	current  ViewType
	previous ViewType

	dateFormat DateFormat
	layout     string
	// createDir selects what CREATE_VIEW makes
	createDir bool
	showLog   bool
}

// NewViewState creates a new ViewState with default values
func NewViewState(layout string) *ViewState {
	return &ViewState{
		current:    NORMAL_VIEW,
		previous:   NORMAL_VIEW,
		dateFormat: DateFormatAbsolute,
		layout:     layout,
	}
}

// SetView changes the current view and updates the previous view
func (v *ViewState) SetView(newView ViewType) {
	v.previous = v.current
	v.current = newView
}

// ToggleDateFormat switches between relative and absolute date formats
func (v *ViewState) ToggleDateFormat() {
	if v.dateFormat == DateFormatRelative {
		v.dateFormat = DateFormatAbsolute
	} else {
		v.dateFormat = DateFormatRelative
	}
}

// FormatDate formats the given time according to the current date format
func (v *ViewState) FormatDate(t time.Time) string {
	switch v.dateFormat {
	case DateFormatRelative:
		return humanize.Time(t)
	default:
		return t.Format(v.layout)
	}
}
