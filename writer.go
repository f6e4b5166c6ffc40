package buflog

/*
io.Writer adapter

Lvl(level) returns a writer that logs every Write at a fixed level, so a
Logger can back fmt.Fprintf or a standard library *log.Logger:

	fmt.Fprintf(logger.Lvl(LVL_WARNING), "disk low: %d%%", percent)
	std := log.New(logger.Lvl(LVL_INFO), "", 0)

Unlike a level stored on the Logger, the level travels with the returned
value, so concurrent writers at different levels never interfere.
*/

import "strings"

// LevelWriter is the io.Writer returned by Logger.Lvl.
type LevelWriter struct {
	logger *Logger
	level  LogLevel
}

// Lvl returns an io.Writer logging at level through l.
func (l *Logger) Lvl(level LogLevel) LevelWriter {
	return LevelWriter{logger: l, level: normLevel(level)}
}

// Write implements io.Writer. One trailing newline is trimmed (fmt.Fprintln
// and log.Logger add one) and the rest is logged as a single message. A nil
// or empty payload is a zero-length write. Always reports len(p) written.
func (w LevelWriter) Write(p []byte) (n int, err error) {
	if len(p) == 0 {
		return 0, nil
	}
	w.logger.Log(w.level, strings.TrimSuffix(string(p), "\n"))
	return len(p), nil
}
