package log

import (
	"io"
	"os"
	"sync"

	"github.com/fxamacker/cbor/v2"
)

// FileLogger appends protocol events to a .klog capture file as a
// stream of self-contained CBOR records. Safe for concurrent use; the
// device and bridge services log from several connection goroutines.
type FileLogger struct {
	mu  sync.Mutex
	out io.WriteCloser
	enc *cbor.Encoder
}

// NewFileLogger opens path for appending, creating it with mode 0644
// if it does not exist. An existing capture grows; it is never
// truncated.
func NewFileLogger(path string) (*FileLogger, error) {
	f, err := os.OpenFile(path, os.O_CREATE|os.O_APPEND|os.O_WRONLY, 0o644)
	if err != nil {
		return nil, err
	}
	return &FileLogger{out: f, enc: NewEncoder(f)}, nil
}

// Log appends one event. Encoding errors are swallowed; a capture
// problem must not disturb the connection that emitted the event.
func (l *FileLogger) Log(event Event) {
	l.mu.Lock()
	defer l.mu.Unlock()

	if l.out == nil {
		return
	}
	_ = l.enc.Encode(event)
}

// Close closes the capture file. Close is idempotent, and events
// logged afterwards are dropped.
func (l *FileLogger) Close() error {
	l.mu.Lock()
	defer l.mu.Unlock()

	if l.out == nil {
		return nil
	}
	out := l.out
	l.out = nil
	return out.Close()
}

var _ Logger = (*FileLogger)(nil)
