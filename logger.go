package buflog

/*
Logger is the per-component facade. A message goes through two paths:

 1. console: written synchronously, split into chunks of at most
    ConsoleLineLimit bytes (see chunkConsoleText)
 2. file (only with LoggerOptions.ToFile): stamped with time, level and tag,
    queued into the logger's own buffer and into the global sink under the
    registry lock; the background consumer appends both to disk later

A silent logger skips both paths. A closed logger keeps the console path and
drops file lines.

All methods are safe for concurrent use.
*/

import (
	"fmt"
)

// Tag returns the component name the logger is bound to.
func (l *Logger) Tag() string { return l.tag }

// Version returns the component version given at creation.
func (l *Logger) Version() string { return l.version }

// Options returns the construction-time options.
func (l *Logger) Options() LoggerOptions { return l.options }

// Path returns the destination file of the logger's buffer.
func (l *Logger) Path() string { return l.buff.path }

// IsClosed reports whether the logger's buffer stopped accepting lines.
func (l *Logger) IsClosed() bool {
	l.registry.mu.Lock()
	defer l.registry.mu.Unlock()
	return l.buff.closed
}

// Init resets the logger's file: an existing file is deleted, the directory is
// created if absent and an empty file is created. If the file cannot be
// created the failure is reported on the console and the buffer is closed
// (console output continues). No-op without LoggerOptions.ToFile.
//
// Registry.Get runs Init once; calling it again truncates the file again.
func (l *Logger) Init() {
	l.registry.mu.Lock()
	defer l.registry.mu.Unlock()
	l.initLocked()
}

func (l *Logger) initLocked() {
	if !l.options.ToFile {
		return
	}
	if err := l.registry.resetFile(l.buff.path); err != nil {
		l.registry.cfg.Console.WriteLine(LVL_CRITICAL, l.tag, fmt.Sprintf(_ERROR_MESSAGE_OPEN_ON_INIT, l.buff.path, err))
		l.buff.closed = true
	}
}

// Log writes text at the given level: console first, then (with ToFile) the
// file buffers. Never fails; file persistence is best effort.
func (l *Logger) Log(level LogLevel, text string) {
	if l.options.Silent {
		return
	}
	level = normLevel(level)
	r := l.registry
	for _, chunk := range chunkConsoleText(text, r.cfg.ConsoleLineLimit) {
		r.cfg.Console.WriteLine(level, l.tag, chunk)
	}
	if !l.options.ToFile {
		return
	}
	line := buildFileLine(r.cfg.Now(), level, l.tag, text)
	r.mu.Lock()
	l.buff.addMessage(line)
	r.globalLocked().addMessage(line)
	r.mu.Unlock()
	r.startConsumer()
}

// Logf formats a message with fmt.Sprintf semantics and logs it at level.
func (l *Logger) Logf(level LogLevel, format string, args ...any) {
	if l.options.Silent {
		return
	}
	l.Log(level, fmt.Sprintf(format, args...))
}

// Critical logs a formatted message at CRITICAL level.
func (l *Logger) Critical(format string, args ...any) {
	l.Logf(LVL_CRITICAL, format, args...)
}

// Error logs a formatted message at ERROR level.
func (l *Logger) Error(format string, args ...any) {
	l.Logf(LVL_ERROR, format, args...)
}

// Warning logs a formatted message at WARNING level.
func (l *Logger) Warning(format string, args ...any) {
	l.Logf(LVL_WARNING, format, args...)
}

// Info logs a formatted message at INFO level.
func (l *Logger) Info(format string, args ...any) {
	l.Logf(LVL_INFO, format, args...)
}

// Debug logs a formatted message at DEBUG level.
func (l *Logger) Debug(format string, args ...any) {
	l.Logf(LVL_DEBUG, format, args...)
}

// LogErr logs an error value at ERROR level. Semantically equivalent to
//
//	Log(LVL_ERROR, e.Error())
//
// but clearer at call sites when you already have an error object. A nil
// error is ignored.
func (l *Logger) LogErr(e error) {
	if e == nil {
		return
	}
	l.Log(LVL_ERROR, e.Error())
}

// Flush synchronously writes the logger's pending lines and the global sink
// to disk. Use for deterministic checkpoints, e.g. before a crash handler.
func (l *Logger) Flush() {
	r := l.registry
	r.mu.Lock()
	defer r.mu.Unlock()
	l.buff.flush()
	if r.global != nil {
		r.global.flush()
	}
}

// Close flushes like Flush and then closes the logger's buffer. Later
// messages still reach the console (and the global sink) but not the
// logger's own file.
func (l *Logger) Close() {
	r := l.registry
	r.mu.Lock()
	defer r.mu.Unlock()
	l.buff.flush()
	if r.global != nil {
		r.global.flush()
	}
	l.buff.closed = true
}
