package builder

import (
	"fmt"
	"strings"
)

// Log is the human-readable account of a build, one action per line.
type Log struct {
	lines []string
}

// Addf appends a formatted line.
func (l *Log) Addf(format string, args ...any) {
	l.lines = append(l.lines, fmt.Sprintf(format, args...))
}

// Lines returns a copy of the recorded lines.
func (l *Log) Lines() []string {
	out := make([]string, len(l.lines))
	copy(out, l.lines)
	return out
}

// Contains reports whether any line starts with prefix.
func (l *Log) Contains(prefix string) bool {
	for _, line := range l.lines {
		if strings.HasPrefix(line, prefix) {
			return true
		}
	}
	return false
}

// String joins the lines with a trailing newline each.
func (l *Log) String() string {
	if len(l.lines) == 0 {
		return ""
	}
	return strings.Join(l.lines, "\n") + "\n"
}
