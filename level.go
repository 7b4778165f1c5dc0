package logpipe

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/Station-Manager/errors"
	"github.com/sahilm/fuzzy"
)

// Level is a severity rank. Lower values are more severe; the numbering is
// fixed because thresholds are compared numerically.
type Level int

const (
	LevelError Level = iota
	LevelWarn
	LevelInfo
	LevelDebug
	LevelVerbose
)

var levelNames = [...]string{
	LevelError:   "Error",
	LevelWarn:    "Warn",
	LevelInfo:    "Info",
	LevelDebug:   "Debug",
	LevelVerbose: "Verbose",
}

// Levels returns every level from most to least severe.
func Levels() []Level {
	return []Level{LevelError, LevelWarn, LevelInfo, LevelDebug, LevelVerbose}
}

// LevelNames returns the lower-case names accepted by ParseLevel.
func LevelNames() []string {
	names := make([]string, 0, len(levelNames))
	for _, n := range levelNames {
		names = append(names, strings.ToLower(n))
	}
	return names
}

func (l Level) String() string {
	if !l.Valid() {
		return "Level(" + strconv.Itoa(int(l)) + ")"
	}
	return levelNames[l]
}

// Valid reports whether l is one of the five defined levels.
func (l Level) Valid() bool {
	return l >= LevelError && l <= LevelVerbose
}

// IsLoggable reports whether a sink configured with threshold accepts a
// call at level, i.e. the threshold is verbose enough to include it.
func IsLoggable(threshold, level Level) bool {
	return threshold >= level
}

// ParseLevel parses a level name (case-insensitive) or its numeric rank.
// Unknown names produce an error that suggests the closest known level.
func ParseLevel(s string) (Level, error) {
	const op errors.Op = "logpipe.ParseLevel"
	name := strings.ToLower(strings.TrimSpace(s))

	if n, err := strconv.Atoi(name); err == nil {
		if l := Level(n); l.Valid() {
			return l, nil
		}
		return LevelInfo, errors.New(op).Msg(fmt.Sprintf("%s %q is out of range", errMsgUnknownLevel, s))
	}

	switch name {
	case "warning":
		return LevelWarn, nil
	case "trace":
		return LevelVerbose, nil
	}
	for i, n := range levelNames {
		if strings.EqualFold(n, name) {
			return Level(i), nil
		}
	}

	msg := fmt.Sprintf("%s %q", errMsgUnknownLevel, s)
	if matches := fuzzy.Find(name, LevelNames()); name != emptyString && len(matches) > 0 {
		msg += fmt.Sprintf(" (did you mean %q?)", matches[0].Str)
	}
	return LevelInfo, errors.New(op).Msg(msg)
}

// MarshalText implements encoding.TextMarshaler.
func (l Level) MarshalText() ([]byte, error) {
	const op errors.Op = "logpipe.Level.MarshalText"
	if !l.Valid() {
		return nil, errors.New(op).Msg(fmt.Sprintf("%s %s", errMsgUnknownLevel, l))
	}
	return []byte(strings.ToLower(levelNames[l])), nil
}

// UnmarshalText implements encoding.TextUnmarshaler.
func (l *Level) UnmarshalText(text []byte) error {
	parsed, err := ParseLevel(string(text))
	if err != nil {
		return err
	}
	*l = parsed
	return nil
}
