package logger

import (
	"strings"

	"github.com/pkg/errors"
)

// Level orders log entries by severity. A logger drops entries below its
// level, and LevelOff silences it entirely.
type Level uint32

// Severities, from most to least verbose.
const (
	LevelTrace Level = iota
	LevelDebug
	LevelInfo
	LevelWarn
	LevelError
	LevelCritical
	LevelOff
)

// levelTags are the three-letter tags printed in every log line.
var levelTags = [...]string{"TRC", "DBG", "INF", "WRN", "ERR", "CRT", "OFF"}

var levelsByName = func() map[string]Level {
	names := map[string]Level{
		"trace":    LevelTrace,
		"debug":    LevelDebug,
		"info":     LevelInfo,
		"warn":     LevelWarn,
		"error":    LevelError,
		"critical": LevelCritical,
	}
	for level, tag := range levelTags {
		names[strings.ToLower(tag)] = Level(level)
	}
	return names
}()

// ParseLevel accepts either the full name of a level or its tag, in any
// letter case.
func ParseLevel(name string) (Level, error) {
	level, ok := levelsByName[strings.ToLower(name)]
	if !ok {
		return 0, errors.Errorf("invalid log level %q", name)
	}
	return level, nil
}

func (l Level) String() string {
	if int(l) >= len(levelTags) {
		return levelTags[LevelOff]
	}
	return levelTags[l]
}
