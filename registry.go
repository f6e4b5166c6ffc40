// A buffered, asynchronous multi-source logging engine. Each named Logger
// writes synchronously to a console and queues timestamped lines that a single
// background goroutine appends to per-logger files and to one aggregate
// "GlobalLog" file.
package buflog

import (
	"fmt"
	"os"
	"path/filepath"
	"time"
)

// New creates a Registry with cfg, filling zero fields with defaults:
//   - LogDir: [DEFAULT_LOG_DIR]
//   - FlushInterval: [DEFAULT_FLUSH_INTERVAL]
//   - ConsoleLineLimit: [DEFAULT_CONSOLE_LINE_LIMIT]
//   - Console: [os.Stderr] with auto-detected colors
//   - FS: [OSFileSystem]
//   - Now: [time.Now]
//
// Preferred usage is one Registry per process, created by main():
//
//	func main() {
//	    logs := buflog.New(buflog.Config{LogDir: "/var/log/app"})
//	    defer logs.CloseAll()
//	    log := logs.Get("main", version, buflog.LoggerOptions{ToFile: true})
//	    ...
//	}
func New(cfg Config) *Registry {
	if cfg.LogDir == "" {
		cfg.LogDir = DEFAULT_LOG_DIR
	}
	if cfg.FlushInterval <= 0 {
		cfg.FlushInterval = DEFAULT_FLUSH_INTERVAL
	}
	if cfg.ConsoleLineLimit <= 0 {
		cfg.ConsoleLineLimit = DEFAULT_CONSOLE_LINE_LIMIT
	}
	if cfg.Console == nil {
		cfg.Console = NewConsole(os.Stderr, COLOR_AUTO)
	}
	if cfg.FS == nil {
		cfg.FS = OSFileSystem{}
	}
	if cfg.Now == nil {
		cfg.Now = time.Now
	}
	return &Registry{
		loggers: map[string]*Logger{},
		cfg:     cfg,
		metrics: newMetrics(),
	}
}

// Get returns the logger bound to tag, creating it on first call. The
// logger lives as long as the Registry; version and opts of later calls for
// the same tag are ignored.
//
// A new logger registers its buffer and runs Init() before it is returned.
// GLOBAL_LOG_NAME is reserved for the global sink: a logger with that tag is
// reported at CRITICAL and only writes to the console.
func (r *Registry) Get(tag, version string, opts LoggerOptions) *Logger {
	r.mu.Lock()
	defer r.mu.Unlock()
	if l, ok := r.loggers[tag]; ok {
		return l
	}
	l := &Logger{
		registry: r,
		tag:      tag,
		version:  version,
		options:  opts,
	}
	l.buff = newMessageBuffer(r, tag, r.LogPath(tag))
	r.loggers[tag] = l
	if tag == GLOBAL_LOG_NAME {
		r.internalf(LVL_CRITICAL, _ERROR_MESSAGE_RESERVED_TAG, tag)
		l.options.ToFile = false
		l.buff.closed = true
		return l
	}
	r.register(l.buff)
	l.initLocked()
	return l
}

// Lookup returns an existing logger without creating one.
func (r *Registry) Lookup(tag string) (*Logger, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	l, ok := r.loggers[tag]
	return l, ok
}

// LogPath is the file path used for the named buffer: <LogDir>/<name>.log
func (r *Registry) LogPath(name string) string {
	return filepath.Join(r.cfg.LogDir, name+DEFAULT_LOG_FILE_EXT)
}

// GlobalLogPath is the path of the aggregate log file.
func (r *Registry) GlobalLogPath() string {
	return r.LogPath(GLOBAL_LOG_NAME)
}

// Config returns the normalized settings of the registry.
func (r *Registry) Config() Config {
	return r.cfg
}

// register appends a buffer to the flush list. Append-only: buffers are never
// removed, only closed. Needs r.mu.
func (r *Registry) register(b *messageBuffer) {
	r.buffers = append(r.buffers, b)
}

// globalLocked returns the aggregate sink, creating it on first use. The
// file is reset exactly once, at creation. Needs r.mu.
func (r *Registry) globalLocked() *messageBuffer {
	if r.global != nil {
		return r.global
	}
	g := newMessageBuffer(r, GLOBAL_LOG_NAME, r.GlobalLogPath())
	if err := r.resetFile(g.path); err != nil {
		r.internalf(LVL_CRITICAL, _ERROR_MESSAGE_OPEN_ON_INIT, g.path, err)
		g.closed = true
	} else {
		r.internalf(LVL_INFO, _NOTE_GLOBAL_CREATED, g.path)
	}
	r.global = g
	return g
}

// resetFile deletes path if present, creates its directory if absent and
// creates an empty file.
func (r *Registry) resetFile(path string) error {
	fs := r.cfg.FS
	if fs.Exists(path) {
		if err := fs.Remove(path); err != nil {
			return fmt.Errorf("removing old log: %w", err)
		}
	}
	dir := filepath.Dir(path)
	if !fs.DirExists(dir) {
		if err := fs.MkdirAll(dir); err != nil {
			return fmt.Errorf("creating log dir: %w", err)
		}
		r.internalf(LVL_INFO, _NOTE_DIR_CREATED, dir)
	}
	f, err := fs.Create(path)
	if err != nil {
		return fmt.Errorf("creating log file: %w", err)
	}
	return f.Close()
}

// FlushAll synchronously writes every pending line of every buffer and of the
// global sink. Announced on the console at CRITICAL level, for use before
// crash handlers and at checkpoints.
func (r *Registry) FlushAll() {
	r.internalf(LVL_CRITICAL, _NOTE_FLUSHING_ALL)
	r.mu.Lock()
	r.flushLocked()
	r.mu.Unlock()
	r.internalf(LVL_CRITICAL, _NOTE_FLUSHED_ALL)
}

// CloseAll flushes and closes every buffer and the global sink (created
// closed if nothing was logged yet). Loggers keep writing to the console
// afterwards but no more lines reach the files.
func (r *Registry) CloseAll() {
	r.internalf(LVL_CRITICAL, _NOTE_CLOSING_ALL)
	r.mu.Lock()
	for _, b := range r.buffers {
		b.flush()
		b.closed = true
	}
	g := r.globalLocked()
	g.flush()
	g.closed = true
	r.mu.Unlock()
	r.internalf(LVL_CRITICAL, _NOTE_CLOSED_ALL)
}

// FlushPass performs exactly one consumer iteration: every registered buffer
// and then the global sink are flushed under the lock. The background
// goroutine calls it in a loop; with Config.ManualFlush the caller drives it.
func (r *Registry) FlushPass() {
	r.mu.Lock()
	defer r.mu.Unlock()
	started := time.Now()
	r.flushLocked()
	r.metrics.pass(started)
}

// flushLocked flushes every registered buffer, then the global sink if it
// exists. Needs r.mu.
func (r *Registry) flushLocked() {
	for _, b := range r.buffers {
		b.flush()
	}
	if r.global != nil {
		r.global.flush()
	}
}

// internalf reports an engine diagnostic on the console. Safe to call with
// r.mu held, it never touches buffers.
func (r *Registry) internalf(level LogLevel, format string, args ...any) {
	r.cfg.Console.WriteLine(level, INTERNAL_TAG, fmt.Sprintf(format, args...))
}
