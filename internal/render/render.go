// Package render holds the text helpers shared by the terminal plugins:
// colour painting per level and stack formatting.
package render

import (
	"strings"

	"github.com/Station-Manager/errors"
	"github.com/Station-Manager/logpipe"
	"github.com/fatih/color"
)

var colorNames = map[string]color.Attribute{
	"bold":      color.Bold,
	"faint":     color.Faint,
	"italic":    color.Italic,
	"underline": color.Underline,
	"black":     color.FgBlack,
	"red":       color.FgRed,
	"green":     color.FgGreen,
	"yellow":    color.FgYellow,
	"blue":      color.FgBlue,
	"magenta":   color.FgMagenta,
	"cyan":      color.FgCyan,
	"white":     color.FgWhite,
	"gray":      color.FgHiBlack,
}

// DefaultLevelColors is the colour of each level.
var DefaultLevelColors = map[logpipe.Level][]string{
	logpipe.LevelError:   {"red"},
	logpipe.LevelWarn:    {"yellow"},
	logpipe.LevelInfo:    {"green"},
	logpipe.LevelDebug:   {"blue"},
	logpipe.LevelVerbose: {"magenta"},
}

// ColorNames lists the names accepted by Attributes, for validation tags.
const ColorNames = "bold faint italic underline black red green yellow blue magenta cyan white gray"

// Attributes converts colour names into terminal attributes.
func Attributes(names []string) ([]color.Attribute, error) {
	const op errors.Op = "render.Attributes"
	attrs := make([]color.Attribute, 0, len(names))
	for _, n := range names {
		a, ok := colorNames[strings.ToLower(n)]
		if !ok {
			return nil, errors.New(op).Msg("Unknown color name: " + n)
		}
		attrs = append(attrs, a)
	}
	return attrs, nil
}

// Painter colours text, or passes it through when colour is off.
type Painter struct {
	c       *color.Color
	enabled bool
}

// NewPainter returns a painter for attrs. Unknown names are ignored.
func NewPainter(names []string, enabled bool) Painter {
	attrs := make([]color.Attribute, 0, len(names))
	for _, n := range names {
		if a, ok := colorNames[strings.ToLower(n)]; ok {
			attrs = append(attrs, a)
		}
	}
	c := color.New(attrs...)
	if enabled {
		c.EnableColor()
	} else {
		c.DisableColor()
	}
	return Painter{c: c, enabled: enabled && len(attrs) > 0}
}

// Paint returns s wrapped in the painter's escape sequences.
func (p Painter) Paint(s string) string {
	if !p.enabled || p.c == nil || s == "" {
		return s
	}
	return p.c.Sprint(s)
}

// LevelPainter picks the colour for level from overrides, falling back to
// DefaultLevelColors.
func LevelPainter(level logpipe.Level, overrides map[logpipe.Level][]string, enabled bool) Painter {
	if names, ok := overrides[level]; ok && len(names) > 0 {
		return NewPainter(names, enabled)
	}
	return NewPainter(DefaultLevelColors[level], enabled)
}

// FormatStack renders a captured stack below a message: the first line
// (the error text) is dropped, each remaining frame is trimmed, stripped of
// file:// and indented by two spaces.
func FormatStack(stack string) string {
	lines := strings.Split(stack, "\n")
	if len(lines) <= 1 {
		return ""
	}
	var b strings.Builder
	for _, l := range lines[1:] {
		l = strings.TrimSpace(strings.Replace(l, "file://", "", 1))
		if l == "" {
			continue
		}
		b.WriteString("\n  ")
		b.WriteString(l)
	}
	return b.String()
}
