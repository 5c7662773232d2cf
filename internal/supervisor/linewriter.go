package supervisor

import (
	"bytes"
	"strings"
	"sync"
)

// lineWriter splits process output into lines and hands each non-empty line to
// emit. ffmpeg terminates progress updates with '\r', so both '\r' and '\n'
// end a line.
type lineWriter struct {
	mu   sync.Mutex
	buf  []byte
	emit func(string)
}

const maxLineBytes = 4096

func newLineWriter(emit func(string)) *lineWriter { return &lineWriter{emit: emit} }

func (w *lineWriter) Write(p []byte) (int, error) {
	w.mu.Lock()
	defer w.mu.Unlock()
	w.buf = append(w.buf, p...)
	for {
		idx := bytes.IndexAny(w.buf, "\r\n")
		if idx < 0 {
			break
		}
		w.emitLocked(w.buf[:idx])
		w.buf = w.buf[idx+1:]
	}
	if len(w.buf) > maxLineBytes {
		w.emitLocked(w.buf)
		w.buf = w.buf[:0]
	}
	return len(p), nil
}

// Flush emits any trailing partial line.
func (w *lineWriter) Flush() {
	w.mu.Lock()
	defer w.mu.Unlock()
	if len(w.buf) > 0 {
		w.emitLocked(w.buf)
		w.buf = nil
	}
}

func (w *lineWriter) emitLocked(b []byte) {
	line := strings.TrimSpace(string(b))
	if line != "" {
		w.emit(line)
	}
}

// isReadyMarker reports whether ffmpeg has wired its output, which means the
// input was opened and encoding is about to start.
func isReadyMarker(line string) bool {
	return strings.Contains(line, "Stream mapping:") || strings.HasPrefix(line, "Output #0")
}

func isProgressLine(line string) bool {
	return strings.Contains(line, "frame=") && strings.Contains(line, "fps=")
}
