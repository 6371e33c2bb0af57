package logger

import "strings"

// Level is the minimal severity a logger or writer lets through.
type Level uint32

// Levels in ascending severity. LevelOff silences a logger.
const (
	LevelTrace Level = iota
	LevelDebug
	LevelInfo
	LevelWarn
	LevelError
	LevelCritical
	LevelOff
)

var levelTags = [...]string{"TRC", "DBG", "INF", "WRN", "ERR", "CRT", "OFF"}

// LevelFromString accepts both the long ("debug") and the tag ("DBG") form
// of a level, case-insensitively. Unknown input yields LevelInfo and false.
func LevelFromString(s string) (level Level, ok bool) {
	lower := strings.ToLower(s)
	for candidate := LevelTrace; candidate <= LevelOff; candidate++ {
		if lower == strings.ToLower(levelTags[candidate]) || lower == longLevelName(candidate) {
			return candidate, true
		}
	}
	return LevelInfo, false
}

func longLevelName(level Level) string {
	switch level {
	case LevelTrace:
		return "trace"
	case LevelDebug:
		return "debug"
	case LevelInfo:
		return "info"
	case LevelWarn:
		return "warn"
	case LevelError:
		return "error"
	case LevelCritical:
		return "critical"
	default:
		return "off"
	}
}

// String returns the three letter tag printed in log headers.
func (l Level) String() string {
	if l >= LevelOff {
		return "OFF"
	}
	return levelTags[l]
}
