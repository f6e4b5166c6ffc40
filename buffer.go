package buflog

import (
	"fmt"
	"io"
)

// Every function here expects the owner's mutex to be held by the caller.

func newMessageBuffer(r *Registry, name, path string) *messageBuffer {
	return &messageBuffer{
		path:  path,
		name:  name,
		owner: r,
	}
}

// addMessage appends a line to the tail of the buffer. A closed buffer drops
// the line silently (it is only counted).
func (b *messageBuffer) addMessage(line string) {
	if b.closed {
		b.owner.metrics.dropped(b.name, _DROP_CLOSED, 1)
		return
	}
	b.lines = append(b.lines, line)
	b.owner.metrics.enqueued(b.name)
}

// length is zero for a closed buffer even if lines are still pending.
func (b *messageBuffer) length() int {
	if b.closed {
		return 0
	}
	return len(b.lines)
}

// flush appends every pending line to the destination file in FIFO order.
// Nothing is opened for an empty buffer. Lines are removed whether the write
// succeeds or not, failures are reported on the console and the remainder of
// this cycle is discarded. A failed close is reported too, as written lines
// may not have reached the disk.
func (b *messageBuffer) flush() {
	if b.length() == 0 {
		return
	}
	r := b.owner
	file, err := r.cfg.FS.OpenAppend(b.path)
	if err != nil {
		r.internalf(LVL_CRITICAL, _ERROR_MESSAGE_OPEN_ON_FLUSH, b.path, err)
		r.metrics.dropped(b.name, _DROP_OPEN_FAILED, len(b.lines))
		b.discard()
		return
	}
	written := 0
	for ; len(b.lines) > 0; b.lines = b.lines[1:] {
		if err = writeLine(file, b.lines[0]); err != nil {
			break
		}
		written++
	}
	r.metrics.flushed(b.name, written)
	if err != nil {
		// the failing line itself is still in b.lines
		r.internalf(LVL_CRITICAL, _ERROR_MESSAGE_WRITE_ON_FLUSH, b.path, len(b.lines), err)
		r.metrics.dropped(b.name, _DROP_WRITE_FAILED, len(b.lines))
	}
	b.discard()
	if err = file.Close(); err != nil {
		r.internalf(LVL_CRITICAL, _ERROR_MESSAGE_CLOSE_ON_FLUSH, b.path, err)
	}
}

// discard empties the buffer and releases the backing array.
func (b *messageBuffer) discard() {
	b.lines = nil
}

func writeLine(w io.Writer, line string) error {
	_, err := io.WriteString(w, line+"\n")
	if err != nil {
		return fmt.Errorf("writing line: %w", err)
	}
	return nil
}
