package logio

import (
	"bytes"
	"sync"
)

// Writer implements an io.Writer around a formatted logging function, such as
// testing.T.Logf, logging each line written to it, after any Prefix.
type Writer struct {
	Logf   func(string, ...interface{})
	Prefix string

	mu  sync.Mutex
	buf bytes.Buffer
}

// Write buffers p, and passes every completed line through Logf.
func (lw *Writer) Write(p []byte) (n int, err error) {
	lw.mu.Lock()
	defer lw.mu.Unlock()
	lw.buf.Write(p)
	lw.flushLines(false)
	return len(p), nil
}

// Close passes any final partial line through Logf.
func (lw *Writer) Close() error {
	lw.mu.Lock()
	defer lw.mu.Unlock()
	lw.flushLines(true)
	return nil
}

func (lw *Writer) flushLines(all bool) {
	for lw.buf.Len() > 0 {
		i := bytes.IndexByte(lw.buf.Bytes(), '\n')
		if i < 0 && !all {
			return
		}
		var line []byte
		if i < 0 {
			line = lw.buf.Next(lw.buf.Len())
		} else {
			line = lw.buf.Next(i + 1)
			line = line[:i]
		}
		lw.Logf("%s%s", lw.Prefix, line)
	}
}
