package output

import (
	"github.com/fatih/color"
)

// ColorScheme defines the colors used for different elements in the output
type ColorScheme struct {
	Step      *color.Color
	Path      *color.Color
	URL       *color.Color
	Success   *color.Color
	Warn      *color.Color
	Error     *color.Color
	Highlight *color.Color
	Faint     *color.Color
}

// DefaultColorScheme returns the default color scheme
func DefaultColorScheme() *ColorScheme {
	return &ColorScheme{
		Step:      color.New(color.FgBlue, color.Bold),
		Path:      color.New(color.FgCyan),
		URL:       color.New(color.FgCyan, color.Underline),
		Success:   color.New(color.FgGreen),
		Warn:      color.New(color.FgYellow),
		Error:     color.New(color.FgRed),
		Highlight: color.New(color.FgMagenta, color.Bold),
		Faint:     color.New(color.Faint),
	}
}

// NoColorScheme returns a color scheme with all colors disabled
func NoColorScheme() *ColorScheme {
	scheme := DefaultColorScheme()
	for _, c := range scheme.all() {
		c.DisableColor()
	}
	return scheme
}

// forceColor enables every color regardless of color.NoColor, which
// fatih/color derives from stdout alone.
func (s *ColorScheme) forceColor() *ColorScheme {
	for _, c := range s.all() {
		c.EnableColor()
	}
	return s
}

func (s *ColorScheme) all() []*color.Color {
	return []*color.Color{s.Step, s.Path, s.URL, s.Success, s.Warn, s.Error, s.Highlight, s.Faint}
}

// Icons used in front of step outcomes.
const (
	iconSuccess = "✓"
	iconError   = "✗"
	iconWarning = "⚠"
)
