package photoflat

import (
	"fmt"
	"io"
	"sync"

	"github.com/agusx1211/structphoto/internal/plog"
)

// Sink receives the human-readable progress stream of an operation: a start
// line, one line per visited entry, and a finish line.
type Sink interface {
	AppendLine(line string)
}

// SinkFunc adapts a function to a Sink.
type SinkFunc func(line string)

func (f SinkFunc) AppendLine(line string) { f(line) }

type discardSink struct{}

func (discardSink) AppendLine(string) {}

// Discard drops every line.
var Discard Sink = discardSink{}

// WriterSink writes each line to an io.Writer followed by a newline.
type WriterSink struct {
	mu sync.Mutex
	w  io.Writer
}

func NewWriterSink(w io.Writer) *WriterSink {
	return &WriterSink{w: w}
}

func (s *WriterSink) AppendLine(line string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	fmt.Fprintln(s.w, line)
}

// LogSink turns progress lines into structured log records.
type LogSink struct{}

func (LogSink) AppendLine(line string) {
	plog.Info("progress", "line", line)
}
