package buflog

import (
	"io"
	"os"
	"strings"
	"sync"

	"github.com/mattn/go-isatty"
)

// Console is the synchronous "write one line to the platform console"
// primitive. Implementations must be safe for concurrent use and must not
// call back into the Registry.
type Console interface {
	WriteLine(level LogLevel, tag, text string)
}

// ColorMode selects ANSI coloring of a WriterConsole.
type ColorMode basetype

const (
	COLOR_AUTO   ColorMode = iota // colors only if the writer is a terminal
	COLOR_ALWAYS                  // always emit ANSI sequences
	COLOR_NEVER                   // plain text
)

// ParseColorMode converts "auto", "always" or "never" to a ColorMode.
func ParseColorMode(s string) (ColorMode, bool) {
	switch strings.ToLower(s) {
	case "", "auto":
		return COLOR_AUTO, true
	case "always":
		return COLOR_ALWAYS, true
	case "never":
		return COLOR_NEVER, true
	}
	return COLOR_AUTO, false
}

// WriterConsole writes console lines to an io.Writer as
//
//	<short level>/<tag>: <text>
//
// optionally wrapped in ANSI colors.
type WriterConsole struct {
	mtx       sync.Mutex
	out       io.Writer
	colormap  *LevelMap // nil for plain output
	prefixmap *LevelMap
	buf       []byte // reused line buffer, guarded by mtx
}

// NewConsole creates a console over w (os.Stderr when nil).
func NewConsole(w io.Writer, mode ColorMode) *WriterConsole {
	if w == nil {
		w = os.Stderr
	}
	c := &WriterConsole{out: w, prefixmap: LevelShortNames}
	if useColor(w, mode) {
		c.colormap = LevelColorOnBlackMap
	}
	return c
}

func useColor(w io.Writer, mode ColorMode) bool {
	switch mode {
	case COLOR_ALWAYS:
		return true
	case COLOR_NEVER:
		return false
	}
	f, ok := w.(*os.File)
	if !ok {
		return false
	}
	return isatty.IsTerminal(f.Fd()) || isatty.IsCygwinTerminal(f.Fd())
}

// WriteLine implements Console. Write errors are ignored: the console is the
// last resort for diagnostics and has nowhere to report to.
func (c *WriterConsole) WriteLine(level LogLevel, tag, text string) {
	level = normLevel(level)
	c.mtx.Lock()
	defer c.mtx.Unlock()
	b := c.buf[:0]
	if c.colormap != nil {
		b = append(b, ANSI_COL_PRFX...)
		b = append(b, c.colormap[level]...)
		b = append(b, ANSI_COL_SUFX...)
	}
	b = append(b, c.prefixmap[level]...)
	b = append(b, '/')
	b = append(b, tag...)
	b = append(b, ": "...)
	b = append(b, text...)
	if c.colormap != nil {
		b = append(b, ANSI_COL_RESET...)
	}
	b = append(b, '\n')
	c.out.Write(b)
	c.buf = b
}

// chunkConsoleText splits a message longer than limit into console lines.
// Each step takes the next limit bytes; if they contain a newline only the
// part before it is emitted and scanning resumes right after the newline,
// otherwise the whole chunk is emitted. Messages within the limit are
// returned as is.
func chunkConsoleText(s string, limit int) []string {
	if limit <= 0 || len(s) <= limit {
		return []string{s}
	}
	chunks := make([]string, 0, len(s)/limit+1)
	for i := 0; i < len(s); {
		sub := s[i:min(i+limit, len(s))]
		if nl := strings.IndexByte(sub, '\n'); nl >= 0 {
			sub = sub[:nl]
			i += nl + 1
		} else {
			i += limit
		}
		chunks = append(chunks, sub)
	}
	return chunks
}
