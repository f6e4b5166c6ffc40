package buflog

/*
Package-wide constants, enums and helper utilities:
  - default sizes, intervals and well-known names
  - severity values and their name/color maps
  - normalization helpers
  - file line formatting
*/

import (
	"strings"
	"time"
)

const (
	// Severity values. The trailing _LVL_MAX_for_checks_only is used as an
	// exclusive upper bound for normalization checks. The order is for display
	// only, the engine never filters by level.
	LVL_UNKNOWN LogLevel = iota
	LVL_DEBUG
	LVL_INFO
	LVL_WARNING
	LVL_ERROR
	LVL_CRITICAL
	_LVL_MAX_for_checks_only
)

const (
	DEFAULT_LOG_DIR            = "logs"
	DEFAULT_FLUSH_INTERVAL     = 500 * time.Microsecond
	DEFAULT_CONSOLE_LINE_LIMIT = 1000
	DEFAULT_LOG_FILE_EXT       = ".log"
	GLOBAL_LOG_NAME            = "GlobalLog" // identity of the aggregate sink
	INTERNAL_TAG               = "buflog"    // console tag of the engine's own diagnostics
	FILE_TIME_LAYOUT           = "01-02 15:04:05.000"
)

const (
	// ANSI colored text fragments. For a colored piece of text the sequence is:
	// ANSI_COL_PRFX + colorSpec + ANSI_COL_SUFX + text + ANSI_COL_RESET
	ANSI_COL_PRFX  = "\033["
	ANSI_COL_SUFX  = "m"
	ANSI_COL_RESET = ANSI_COL_PRFX + "0" + ANSI_COL_SUFX
)

const (
	// Diagnostic texts written to the console (used by tests too).
	_ERROR_MESSAGE_OPEN_ON_FLUSH  = "Could not open file: %s when flushing buffer: %v"
	_ERROR_MESSAGE_WRITE_ON_FLUSH = "Could not write to file: %s, %d line(s) discarded: %v"
	_ERROR_MESSAGE_OPEN_ON_INIT   = "Could not open logger buffer file: %s: %v"
	_ERROR_MESSAGE_CLOSE_ON_FLUSH = "Could not close file: %s after flushing buffer: %v"
	_ERROR_MESSAGE_RESERVED_TAG   = "Tag %s is reserved for the global log, logger writes to console only"
	_ERROR_MESSAGE_CONSUMER_PANIC = "panic in flush pass"
	_ERROR_UNKNOWN_PANIC_TEXT     = "[no panic description]"
	_NOTE_FLUSHING_ALL            = "Flushing all buffers!"
	_NOTE_FLUSHED_ALL             = "All buffers flushed!"
	_NOTE_CLOSING_ALL             = "Closing all buffers!"
	_NOTE_CLOSED_ALL              = "All buffers closed!"
	_NOTE_CONSUMER_STARTED        = "Started consumer goroutine!"
	_NOTE_GLOBAL_CREATED          = "Created global log at path: %s"
	_NOTE_DIR_CREATED             = "Created logger buffer dir: %s"
)

/////////////////////////////////////////////////////////////////////////////////////////

// Level names used in file lines
var LevelFullNames = &LevelMap{
	"UNKNOWN",  //LVL_UNKNOWN
	"DEBUG",    //LVL_DEBUG
	"INFO",     //LVL_INFO
	"WARNING",  //LVL_WARNING
	"ERROR",    //LVL_ERROR
	"CRITICAL", //LVL_CRITICAL
}

// Level short names used as console prefixes
var LevelShortNames = &LevelMap{
	"?", //LVL_UNKNOWN
	"D", //LVL_DEBUG
	"I", //LVL_INFO
	"W", //LVL_WARNING
	"E", //LVL_ERROR
	"C", //LVL_CRITICAL
}

// Predefined ANSI color map for a dark terminal
var LevelColorOnBlackMap = &LevelMap{
	"9;90",     //LVL_UNKNOWN
	"0;90",     //LVL_DEBUG
	"0;97",     //LVL_INFO
	"0;33",     //LVL_WARNING
	"0;91",     //LVL_ERROR
	"101;1;33", //LVL_CRITICAL
}

// Generic byte normalization helper.
func norm_byte[T ~byte](val, overlimit, def T) T {
	if val < overlimit {
		return val
	} else {
		return def
	}
}

// Ensures a provided LogLevel is within the valid range
func normLevel(level LogLevel) LogLevel {
	return norm_byte(level, _LVL_MAX_for_checks_only, LVL_UNKNOWN)
}

// String returns the stable full name of the level ("UNKNOWN" if out of range).
func (level LogLevel) String() string {
	return LevelFullNames[normLevel(level)]
}

// ParseLevel is the reverse of String (case-insensitive, short names and
// "WARN" accepted). ok is false for unknown names.
func ParseLevel(s string) (level LogLevel, ok bool) {
	s = strings.ToUpper(strings.TrimSpace(s))
	if s == "WARN" {
		return LVL_WARNING, true
	}
	for i := LVL_DEBUG; i < _LVL_MAX_for_checks_only; i++ {
		if LevelFullNames[i] == s || LevelShortNames[i] == s {
			return i, true
		}
	}
	return LVL_UNKNOWN, false
}

// Converts a panic value into a compact readable string
func panicDesc(panic any) (errtext string) {
	switch v := panic.(type) {
	case string:
		errtext = ": `" + v + "`"
	case error:
		errtext = ": (error) `" + v.Error() + "`"
	default:
		errtext = " " + _ERROR_UNKNOWN_PANIC_TEXT
	}
	return errtext
}

// buildFileLine composes the on-disk record:
//
//	MM-DD HH:MM:SS.mmm <LEVEL> <tag>: <message>
//
// Embedded newlines are not escaped.
func buildFileLine(t time.Time, level LogLevel, tag, text string) string {
	var sb strings.Builder
	sb.Grow(len(FILE_TIME_LAYOUT) + len(tag) + len(text) + 16)
	sb.WriteString(t.Format(FILE_TIME_LAYOUT))
	sb.WriteByte(' ')
	sb.WriteString(level.String())
	sb.WriteByte(' ')
	sb.WriteString(tag)
	sb.WriteString(": ")
	sb.WriteString(text)
	return sb.String()
}
