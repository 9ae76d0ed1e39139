package tui

import (
	"strings"

	tea "github.com/charmbracelet/bubbletea"
)

// LogWriter is an io.Writer that sends each written line as a DebugLogMsg
// to a Bubble Tea program. Use it as the output for a log.Logger.
type LogWriter struct {
	program *tea.Program
}

// NewLogWriter creates a LogWriter that sends debug lines to the given program.
func NewLogWriter(p *tea.Program) *LogWriter {
	return &LogWriter{program: p}
}

// Write implements io.Writer. Each call parses the log line into structured
// fields and sends a DebugLogMsg. The send is done in a goroutine to avoid
// deadlocking when called from inside a Bubble Tea command function.
func (w *LogWriter) Write(b []byte) (int, error) {
	line := strings.TrimRight(string(b), "\n")
	entry := parseLine(line)
	go w.program.Send(DebugLogMsg{Entry: entry})
	return len(b), nil
}

// parseLine extracts time, category, and message from a log line.
// Expected format: "[DEBUG] HH:MM:SS.micros message text"
// Category is inferred from the first word of the message (e.g. "taphold",
// "chorded", "sticky", "capsword", "evdev", "chime", "splitcodec").
func parseLine(line string) DebugEntry {
	entry := DebugEntry{
		Time:     "",
		Category: "debug",
		Message:  line,
	}

	// Strip "[DEBUG] " prefix
	msg := strings.TrimPrefix(line, "[DEBUG] ")

	// Extract timestamp (HH:MM:SS.micros or HH:MM:SS)
	if len(msg) >= 8 && msg[2] == ':' && msg[5] == ':' {
		// Find the end of the timestamp (space after time)
		spaceIdx := strings.IndexByte(msg, ' ')
		if spaceIdx > 0 {
			entry.Time = msg[:spaceIdx]
			msg = msg[spaceIdx+1:]
		}
	}

	// Infer category from message prefix
	entry.Category, entry.Message = inferCategory(msg)

	return entry
}

// inferCategory determines the log category from the message content.
func inferCategory(msg string) (category, message string) {
	lower := strings.ToLower(msg)

	switch {
	case strings.HasPrefix(lower, "taphold"), strings.HasPrefix(lower, "tap-hold"):
		return "taphold", msg
	case strings.HasPrefix(lower, "chorded"), strings.HasPrefix(lower, "chord"):
		return "chorded", msg
	case strings.HasPrefix(lower, "sticky"):
		return "sticky", msg
	case strings.HasPrefix(lower, "capsword"), strings.HasPrefix(lower, "caps-word"):
		return "capsword", msg
	case strings.HasPrefix(lower, "evdev"), strings.HasPrefix(lower, "bridge"):
		return "evdev", msg
	case strings.HasPrefix(lower, "chime"):
		return "chime", msg
	case strings.HasPrefix(lower, "splitcodec"), strings.HasPrefix(lower, "codec"):
		return "splitcodec", msg
	default:
		return "debug", msg
	}
}
