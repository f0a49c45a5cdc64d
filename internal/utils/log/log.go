package log

import (
	"log/slog"
	"strings"
	"sync"
	"sync/atomic"

	"github.com/charmbracelet/lipgloss"
	charmlog "github.com/charmbracelet/log"
)

var (
	// singleton instances
	defaultStylesOnce sync.Once
	defaultStyles     atomic.Pointer[Styles]
	defaultLoggerOnce sync.Once
	defaultLogger     atomic.Pointer[slog.Logger]
)

// levelColors pick the label color per level for light and dark terminals
var levelColors = map[Level]lipgloss.AdaptiveColor{
	DebugLevel:     {Light: "#8A8A8A", Dark: "#6C6C6C"},
	InfoLevel:      {Light: "#005F87", Dark: "#5FAFD7"},
	WarnLevel:      {Light: "#AF8700", Dark: "#FFD75F"},
	ImportantLevel: {Light: "#5F00AF", Dark: "#D7AFFF"},
	ErrorLevel:     {Light: "#AF0000", Dark: "#FF5F5F"},
	FatalLevel:     {Light: "#870000", Dark: "#FF0000"},
}

// labelWidth keeps messages aligned in the log pane
const labelWidth = 5

func initializeStyles() *Styles {
	styles := charmlog.DefaultStyles()
	for level, color := range levelColors {
		label := strings.ToUpper(LogLevelString(level))
		if n := labelWidth - len(label); n > 0 {
			label += strings.Repeat(" ", n)
		}
		style := lipgloss.NewStyle().Foreground(color)
		if level == ImportantLevel || level >= ErrorLevel {
			style = style.Bold(true)
		}
		styles.Levels[level] = style.SetString(label)
	}
	return styles
}

// DefaultStyles returns the initialized styles with all levels including Important
func DefaultStyles() *Styles {
	defaultStylesOnce.Do(func() {
		defaultStyles.Store(initializeStyles())
	})
	return defaultStyles.Load()
}

// New creates a new logger with the given options
func New(opts ...Option) *slog.Logger {
	o := DefaultOptions()
	o.Apply(opts...)

	if o.OutputFunc != nil {
		if w, err := o.OutputFunc(); err == nil {
			o.Writer = w
		}
	}

	handler := charmlog.NewWithOptions(o.Writer, o.Options)
	handler.SetStyles(o.Styles) // Always set styles to ensure level definitions

	var logger *slog.Logger
	if len(o.Attrs) > 0 {
		logger = slog.New(handler.With(o.Attrs...))
	} else {
		logger = slog.New(handler)
	}

	if o.Default {
		charmlog.SetDefault(handler)
		slog.SetDefault(logger)
		defaultLogger.Store(logger)
	}
	return logger
}

// Default returns the default logger instance
func Default() *slog.Logger {
	defaultLoggerOnce.Do(func() {
		if defaultLogger.Load() == nil {
			defaultLogger.Store(New(AsDefault()))
		}
	})
	return defaultLogger.Load()
}

// Reset resets all global state (useful for testing)
func Reset() {
	defaultStylesOnce = sync.Once{}
	defaultStyles.Store(nil)
	defaultLoggerOnce = sync.Once{}
	defaultLogger.Store(nil)
}

// ParseLevel converts a config level name, falling back to info
func ParseLevel(s string) Level {
	l, err := charmlog.ParseLevel(s)
	if err != nil {
		return InfoLevel
	}
	return l
}

func handler() *charmlog.Logger {
	return Default().Handler().(*charmlog.Logger)
}

func Important(msg string, args ...any) { handler().Log(ImportantLevel, msg, args...) }
