package buflog

/*
Defines the core data types of the buffered logger:
  - basetype and the LogLevel alias over it
  - messageBuffer: in-order queue of formatted lines bound to one file
  - Registry: the process-wide owner of every buffer, the global sink and
    the background consumer
  - Logger: per-component facade producing console output and file lines
  - LoggerOptions and Config: construction-time settings

Everything that mutates a buffer (lines, closed flag) or the list of buffers
happens with Registry.mu held. That single mutex is the only serialization
point of the engine.
*/

import (
	"sync"
	"sync/atomic"
	"time"
)

type basetype byte // basetype is the underlying byte-sized representation used for enums

type LogLevel basetype // Log severity (alias for byte)

// LevelMap is a fixed-size array with one entry per log level. Used for
// level names and colors.
type LevelMap [_LVL_MAX_for_checks_only]string

// messageBuffer holds fully formatted lines waiting to be appended to path.
// Lines leave the buffer only through flush(). A closed buffer accepts no new
// lines and reports zero length.
type messageBuffer struct {
	path   string   // destination file
	name   string   // short identity used in metrics and diagnostics
	lines  []string // FIFO of formatted lines
	closed bool     // set by Close/CloseAll or a failed Init
	owner  *Registry
}

// LoggerOptions are fixed at construction time, there is no runtime
// reconfiguration.
type LoggerOptions struct {
	ToFile bool // mirror messages to <LogDir>/<tag>.log and the global log
	Silent bool // mute the logger completely (console and file)
}

// Config holds the Registry settings. Zero values are replaced with defaults
// by New().
type Config struct {
	LogDir           string           // directory of all log files
	FlushInterval    time.Duration    // consumer sleep between flush passes
	ConsoleLineLimit int              // max bytes per console line before chunking
	Console          Console          // console sink (stderr with auto colors by default)
	FS               FileSystem       // filesystem collaborator (OS by default)
	Now              func() time.Time // clock used for file line timestamps
	ManualFlush      bool             // never start the consumer, FlushPass() is driven by the caller
}

// Registry is the process-wide collection of buffers. It is created once by
// the application entry point (New) and threaded to the code that needs
// loggers.
type Registry struct {
	mu       sync.Mutex         // guards buffers, loggers, global and every buffer content
	buffers  []*messageBuffer   // registered logger buffers, append-only
	loggers  map[string]*Logger // loggers by tag, process-lifetime
	global   *messageBuffer     // aggregate sink, nil until first use
	consumer sync.Once          // starts the background goroutine at most once
	started  atomic.Bool        // consumer goroutine launched
	cfg      Config             // normalized settings
	metrics  *metrics           // prometheus collectors owned by this registry
}

// Logger is the per-component facade. It owns exactly one messageBuffer and
// is never destroyed; Close() only makes it stop accepting file lines.
type Logger struct {
	registry *Registry
	buff     *messageBuffer
	tag      string
	version  string
	options  LoggerOptions
}
