package buflog

import (
	"errors"
	"fmt"
	"io"
	"path/filepath"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const testlogstr = "Test log АБВ こんにちは, 世界`'é\"\\\x5A и други глупости!"
const errorStr = "error generated in filesystem"
const testDir = "/logs"

// fixed clock: 2024-03-07 09:05:02.007 local time
var testNow = time.Date(2024, time.March, 7, 9, 5, 2, 7_000_000, time.Local)

func fixedNow() time.Time { return testNow }

/////////////////////////////////////////////////////////////////////////////////////////
// Fake console

type consoleLine struct {
	level LogLevel
	tag   string
	text  string
}

type FakeConsole struct {
	mtx   sync.Mutex
	lines []consoleLine
}

func (c *FakeConsole) WriteLine(level LogLevel, tag, text string) {
	c.mtx.Lock()
	defer c.mtx.Unlock()
	c.lines = append(c.lines, consoleLine{level, tag, text})
}

func (c *FakeConsole) Lines() []consoleLine {
	c.mtx.Lock()
	defer c.mtx.Unlock()
	return append([]consoleLine(nil), c.lines...)
}

// Texts returns the console texts written with the given tag.
func (c *FakeConsole) Texts(tag string) []string {
	res := []string{}
	for _, l := range c.Lines() {
		if l.tag == tag {
			res = append(res, l.text)
		}
	}
	return res
}

// Contains reports whether any line of the given level contains sub.
func (c *FakeConsole) Contains(level LogLevel, sub string) bool {
	for _, l := range c.Lines() {
		if l.level == level && strings.Contains(l.text, sub) {
			return true
		}
	}
	return false
}

/////////////////////////////////////////////////////////////////////////////////////////
// Fake filesystem

type FakeFS struct {
	mtx       sync.Mutex
	files     map[string]*strings.Builder
	dirs      map[string]bool
	opens     map[string]int  // OpenAppend calls per path
	failOpen  map[string]bool // OpenAppend and Create fail for these paths
	failMkdir bool
	failWrite map[string]int  // writes allowed per handle before an error
	failClose map[string]bool // Close of appended files fails
}

func NewFakeFS() *FakeFS {
	return &FakeFS{
		files:     map[string]*strings.Builder{},
		dirs:      map[string]bool{},
		opens:     map[string]int{},
		failOpen:  map[string]bool{},
		failWrite: map[string]int{},
		failClose: map[string]bool{},
	}
}

func (f *FakeFS) Exists(path string) bool {
	f.mtx.Lock()
	defer f.mtx.Unlock()
	_, ok := f.files[path]
	return ok
}

func (f *FakeFS) Remove(path string) error {
	f.mtx.Lock()
	defer f.mtx.Unlock()
	delete(f.files, path)
	return nil
}

func (f *FakeFS) DirExists(path string) bool {
	f.mtx.Lock()
	defer f.mtx.Unlock()
	return f.dirs[path]
}

func (f *FakeFS) MkdirAll(path string) error {
	f.mtx.Lock()
	defer f.mtx.Unlock()
	if f.failMkdir {
		return errors.New(errorStr)
	}
	f.dirs[path] = true
	return nil
}

func (f *FakeFS) OpenAppend(path string) (io.WriteCloser, error) {
	f.mtx.Lock()
	defer f.mtx.Unlock()
	f.opens[path]++
	if f.failOpen[path] {
		return nil, errors.New(errorStr)
	}
	if f.files[path] == nil {
		f.files[path] = &strings.Builder{}
	}
	limit, limited := f.failWrite[path]
	return &fakeFile{fs: f, path: path, limit: limit, limited: limited, failClose: f.failClose[path]}, nil
}

func (f *FakeFS) Create(path string) (io.WriteCloser, error) {
	f.mtx.Lock()
	defer f.mtx.Unlock()
	if f.failOpen[path] {
		return nil, errors.New(errorStr)
	}
	f.files[path] = &strings.Builder{}
	return &fakeFile{fs: f, path: path}, nil
}

func (f *FakeFS) Content(path string) string {
	f.mtx.Lock()
	defer f.mtx.Unlock()
	if b := f.files[path]; b != nil {
		return b.String()
	}
	return ""
}

// Lines returns the file content split into lines (without terminators).
func (f *FakeFS) Lines(path string) []string {
	s := f.Content(path)
	if s == "" {
		return nil
	}
	return strings.Split(strings.TrimSuffix(s, "\n"), "\n")
}

func (f *FakeFS) Opens(path string) int {
	f.mtx.Lock()
	defer f.mtx.Unlock()
	return f.opens[path]
}

type fakeFile struct {
	fs        *FakeFS
	path      string
	writes    int
	limit     int
	limited   bool
	failClose bool
}

func (ff *fakeFile) Write(p []byte) (int, error) {
	if ff.limited && ff.writes >= ff.limit {
		return 0, errors.New(errorStr)
	}
	ff.writes++
	ff.fs.mtx.Lock()
	defer ff.fs.mtx.Unlock()
	return ff.fs.files[ff.path].Write(p)
}

func (ff *fakeFile) Close() error {
	if ff.failClose {
		return errors.New(errorStr)
	}
	return nil
}

/////////////////////////////////////////////////////////////////////////////////////////

// newTestRegistry returns a registry in manual flush mode over fakes.
func newTestRegistry(t *testing.T) (*Registry, *FakeFS, *FakeConsole) {
	t.Helper()
	fs := NewFakeFS()
	con := &FakeConsole{}
	r := New(Config{
		LogDir:      testDir,
		Console:     con,
		FS:          fs,
		Now:         fixedNow,
		ManualFlush: true,
	})
	return r, fs, con
}

func fileLine(level LogLevel, tag, text string) string {
	return "03-07 09:05:02.007 " + LevelFullNames[level] + " " + tag + ": " + text
}

func Test_Registry_Get(t *testing.T) {
	t.Run("singleton_by_tag", func(t *testing.T) {
		r, _, _ := newTestRegistry(t)
		l1 := r.Get("A", "1.0.0", LoggerOptions{ToFile: true})
		l2 := r.Get("A", "2.0.0", LoggerOptions{Silent: true})
		assert.Same(t, l1, l2)
		assert.Equal(t, "1.0.0", l2.Version())
		assert.Equal(t, LoggerOptions{ToFile: true}, l2.Options())
		assert.Len(t, r.buffers, 1)
		found, ok := r.Lookup("A")
		assert.True(t, ok)
		assert.Same(t, l1, found)
		_, ok = r.Lookup("B")
		assert.False(t, ok)
	})
	t.Run("path", func(t *testing.T) {
		r, _, _ := newTestRegistry(t)
		l := r.Get("UtilsLogger", "", LoggerOptions{})
		assert.Equal(t, filepath.Join(testDir, "UtilsLogger.log"), l.Path())
		assert.Equal(t, "UtilsLogger", l.Tag())
		assert.Equal(t, filepath.Join(testDir, "GlobalLog.log"), r.GlobalLogPath())
	})
	t.Run("global_tag_reserved", func(t *testing.T) {
		r, fs, con := newTestRegistry(t)
		l := r.Get(GLOBAL_LOG_NAME, "", LoggerOptions{ToFile: true})
		assert.True(t, con.Contains(LVL_CRITICAL, "Tag GlobalLog is reserved"))
		assert.True(t, l.IsClosed())
		assert.False(t, l.Options().ToFile)
		assert.Empty(t, r.buffers)
		assert.Same(t, l, r.Get(GLOBAL_LOG_NAME, "", LoggerOptions{ToFile: true}))

		l.Info("once")
		other := r.Get("A", "", LoggerOptions{ToFile: true})
		other.Info("twice?")
		r.FlushPass()
		assert.Contains(t, con.Texts(GLOBAL_LOG_NAME), "once")
		assert.Equal(t, []string{fileLine(LVL_INFO, "A", "twice?")}, fs.Lines(r.GlobalLogPath()))
	})
	t.Run("registers_without_file", func(t *testing.T) {
		r, fs, _ := newTestRegistry(t)
		l := r.Get("nofile", "", LoggerOptions{})
		assert.Len(t, r.buffers, 1)
		assert.False(t, fs.Exists(l.Path()))
	})
}

func Test_Logger_Init(t *testing.T) {
	t.Run("resets_existing_file", func(t *testing.T) {
		r, fs, con := newTestRegistry(t)
		path := r.LogPath("A")
		fs.files[path] = &strings.Builder{}
		fs.files[path].WriteString("old content\n")
		l := r.Get("A", "", LoggerOptions{ToFile: true})
		assert.True(t, fs.Exists(path))
		assert.Empty(t, fs.Content(path))
		assert.True(t, fs.DirExists(testDir))
		assert.True(t, con.Contains(LVL_INFO, testDir))
		assert.False(t, l.IsClosed())

		l.Info("x")
		l.Flush()
		assert.Equal(t, []string{fileLine(LVL_INFO, "A", "x")}, fs.Lines(path))
		l.Init()
		assert.Empty(t, fs.Content(path), "repeated Init has to reset the file")
	})
	t.Run("open_failure_closes_buffer", func(t *testing.T) {
		r, fs, con := newTestRegistry(t)
		fs.failOpen[r.LogPath("A")] = true
		l := r.Get("A", "", LoggerOptions{ToFile: true})
		assert.True(t, l.IsClosed())
		assert.True(t, con.Contains(LVL_CRITICAL, "Could not open logger buffer file"))

		l.Warning("still on console")
		assert.Contains(t, con.Texts("A"), "still on console")
		r.FlushPass()
		assert.Zero(t, fs.Opens(r.LogPath("A")))
		// global sink is independent of the broken logger file
		assert.Equal(t, []string{fileLine(LVL_WARNING, "A", "still on console")}, fs.Lines(r.GlobalLogPath()))
	})
	t.Run("mkdir_failure_closes_buffer", func(t *testing.T) {
		r, fs, con := newTestRegistry(t)
		fs.failMkdir = true
		l := r.Get("A", "", LoggerOptions{ToFile: true})
		assert.True(t, l.IsClosed())
		assert.True(t, con.Contains(LVL_CRITICAL, errorStr))
	})
	t.Run("no_file_option", func(t *testing.T) {
		r, fs, _ := newTestRegistry(t)
		l := r.Get("A", "", LoggerOptions{})
		l.Init()
		assert.False(t, fs.Exists(l.Path()))
		assert.False(t, fs.DirExists(testDir))
	})
}

func Test_Logger_Log(t *testing.T) {
	t.Run("console_and_file", func(t *testing.T) {
		r, fs, con := newTestRegistry(t)
		l := r.Get("A", "", LoggerOptions{ToFile: true})
		l.Log(LVL_INFO, testlogstr)
		assert.Equal(t, []consoleLine{{LVL_INFO, "A", testlogstr}}, filterTag(con.Lines(), "A"))
		assert.Empty(t, fs.Content(l.Path()), "nothing is written before a flush")

		r.FlushPass()
		want := []string{fileLine(LVL_INFO, "A", testlogstr)}
		assert.Equal(t, want, fs.Lines(l.Path()))
		assert.Equal(t, want, fs.Lines(r.GlobalLogPath()))
	})
	t.Run("severity_helpers", func(t *testing.T) {
		r, fs, con := newTestRegistry(t)
		l := r.Get("A", "", LoggerOptions{ToFile: true})
		l.Critical("c %d", 1)
		l.Error("e %s", "two")
		l.Warning("w %v", 3.5)
		l.Info("i %q", "q")
		l.Debug("d %x", 255)
		l.Logf(LVL_INFO, "%05d", 42)
		l.LogErr(errors.New("boom"))
		l.LogErr(nil)
		l.Log(LogLevel(200), "out of range")
		l.Flush()
		want := []string{
			fileLine(LVL_CRITICAL, "A", "c 1"),
			fileLine(LVL_ERROR, "A", "e two"),
			fileLine(LVL_WARNING, "A", "w 3.5"),
			fileLine(LVL_INFO, "A", `i "q"`),
			fileLine(LVL_DEBUG, "A", "d ff"),
			fileLine(LVL_INFO, "A", "00042"),
			fileLine(LVL_ERROR, "A", "boom"),
			fileLine(LVL_UNKNOWN, "A", "out of range"),
		}
		assert.Equal(t, want, fs.Lines(l.Path()))
		lines := filterTag(con.Lines(), "A")
		require.Len(t, lines, len(want))
		assert.Equal(t, LVL_CRITICAL, lines[0].level)
		assert.Equal(t, LVL_DEBUG, lines[4].level)
		assert.Equal(t, LVL_UNKNOWN, lines[7].level)
	})
	t.Run("silent", func(t *testing.T) {
		r, fs, con := newTestRegistry(t)
		l := r.Get("A", "", LoggerOptions{ToFile: true, Silent: true})
		l.Info("hidden")
		l.Log(LVL_ERROR, "hidden")
		l.Flush()
		assert.Empty(t, con.Texts("A"))
		assert.Empty(t, fs.Content(l.Path()))
		assert.False(t, fs.Exists(r.GlobalLogPath()), "global sink is created on first file message only")
	})
	t.Run("console_only", func(t *testing.T) {
		r, fs, con := newTestRegistry(t)
		l := r.Get("A", "", LoggerOptions{})
		l.Info("console")
		r.FlushAll()
		assert.Equal(t, []string{"console"}, con.Texts("A"))
		assert.False(t, fs.Exists(l.Path()))
		assert.False(t, fs.Exists(r.GlobalLogPath()))
	})
	t.Run("long_message_chunked_on_console_whole_in_file", func(t *testing.T) {
		r, fs, con := newTestRegistry(t)
		l := r.Get("A", "", LoggerOptions{ToFile: true})
		msg := strings.Repeat("x", 2500)
		l.Info("%s", msg)
		assert.Equal(t, []string{msg[:1000], msg[1000:2000], msg[2000:]}, con.Texts("A"))
		l.Flush()
		assert.Equal(t, []string{fileLine(LVL_INFO, "A", msg)}, fs.Lines(l.Path()))
	})
	t.Run("multiline_not_escaped", func(t *testing.T) {
		r, fs, _ := newTestRegistry(t)
		l := r.Get("A", "", LoggerOptions{ToFile: true})
		l.Info("first\nsecond")
		l.Flush()
		assert.Equal(t, fileLine(LVL_INFO, "A", "first\nsecond")+"\n", fs.Content(l.Path()))
	})
}

func Test_Logger_Close(t *testing.T) {
	r, fs, con := newTestRegistry(t)
	a := r.Get("A", "", LoggerOptions{ToFile: true})
	b := r.Get("B", "", LoggerOptions{ToFile: true})
	a.Info("before")
	b.Info("b1")
	a.Close()
	assert.True(t, a.IsClosed())
	assert.Equal(t, []string{fileLine(LVL_INFO, "A", "before")}, fs.Lines(a.Path()))
	// Close flushes the global sink too, but not the other loggers
	assert.Equal(t, []string{fileLine(LVL_INFO, "A", "before"), fileLine(LVL_INFO, "B", "b1")}, fs.Lines(r.GlobalLogPath()))
	assert.Empty(t, fs.Content(b.Path()))

	a.Info("after")
	assert.Contains(t, con.Texts("A"), "after")
	r.FlushPass()
	assert.Equal(t, []string{fileLine(LVL_INFO, "A", "before")}, fs.Lines(a.Path()))
	assert.Equal(t, fileLine(LVL_INFO, "A", "after"), fs.Lines(r.GlobalLogPath())[2])
	assert.Equal(t, []string{fileLine(LVL_INFO, "B", "b1")}, fs.Lines(b.Path()))

	assert.NotPanics(t, func() { a.Close() })
}

func Test_GlobalSink(t *testing.T) {
	t.Run("reset_once", func(t *testing.T) {
		r, fs, con := newTestRegistry(t)
		fs.files[r.GlobalLogPath()] = &strings.Builder{}
		fs.files[r.GlobalLogPath()].WriteString("previous run\n")
		l := r.Get("A", "", LoggerOptions{ToFile: true})
		assert.Equal(t, "previous run\n", fs.Content(r.GlobalLogPath()), "global sink is lazy")
		l.Info("one")
		r.FlushPass()
		l.Info("two")
		r.FlushPass()
		assert.Equal(t, []string{fileLine(LVL_INFO, "A", "one"), fileLine(LVL_INFO, "A", "two")}, fs.Lines(r.GlobalLogPath()))
		assert.True(t, con.Contains(LVL_INFO, "Created global log at path"))
	})
	t.Run("union_in_enqueue_order", func(t *testing.T) {
		r, fs, _ := newTestRegistry(t)
		want := []string{}
		loggers := []*Logger{}
		for i := range 5 {
			loggers = append(loggers, r.Get(fmt.Sprintf("L%d", i), "", LoggerOptions{ToFile: true}))
		}
		for j := range 20 {
			l := loggers[(j*3)%len(loggers)]
			l.Info("msg %d", j)
			want = append(want, fileLine(LVL_INFO, l.Tag(), fmt.Sprintf("msg %d", j)))
			if j%7 == 0 {
				r.FlushPass()
			}
		}
		r.FlushPass()
		assert.Equal(t, want, fs.Lines(r.GlobalLogPath()))
		total := 0
		for _, l := range loggers {
			total += len(fs.Lines(l.Path()))
		}
		assert.Equal(t, len(want), total)
	})
	t.Run("open_failure_on_create", func(t *testing.T) {
		r, fs, con := newTestRegistry(t)
		fs.failOpen[r.GlobalLogPath()] = true
		l := r.Get("A", "", LoggerOptions{ToFile: true})
		l.Info("x")
		r.FlushPass()
		assert.True(t, con.Contains(LVL_CRITICAL, r.GlobalLogPath()))
		assert.Equal(t, []string{fileLine(LVL_INFO, "A", "x")}, fs.Lines(l.Path()))
		assert.Zero(t, fs.Opens(r.GlobalLogPath()))
	})
}

func filterTag(lines []consoleLine, tag string) []consoleLine {
	res := []consoleLine{}
	for _, l := range lines {
		if l.tag == tag {
			res = append(res, l)
		}
	}
	return res
}
