package logger

import (
	"io"
	"sync"

	"github.com/sirupsen/logrus"
)

// AsyncHook buffers log entries on a channel and writes them to its writers
// from a dedicated goroutine, so request handling never blocks on disk I/O.
type AsyncHook struct {
	writers []io.Writer
	entries chan *logrus.Entry
	wg      sync.WaitGroup
	mu      sync.Mutex
	closed  bool
}

// NewAsyncHookWithWriters creates an async hook fanning out to writers.
// bufferSize <= 0 falls back to 1000 entries.
func NewAsyncHookWithWriters(writers []io.Writer, bufferSize int) *AsyncHook {
	if bufferSize <= 0 {
		bufferSize = 1000
	}
	h := &AsyncHook{
		writers: writers,
		entries: make(chan *logrus.Entry, bufferSize),
	}
	h.wg.Add(1)
	go h.processEntries()
	return h
}

// Levels reports that the hook handles every level.
func (h *AsyncHook) Levels() []logrus.Level {
	return logrus.AllLevels
}

// Fire enqueues the entry without blocking; when the buffer is full the entry
// is dropped rather than stalling the caller.
func (h *AsyncHook) Fire(entry *logrus.Entry) error {
	h.mu.Lock()
	closed := h.closed
	h.mu.Unlock()

	if closed {
		data, err := h.format(entry)
		if err != nil {
			return err
		}
		for _, w := range h.writers {
			_, _ = w.Write(data)
		}
		return nil
	}

	select {
	case h.entries <- entry:
	default:
		// Buffer full. Dropping here is preferable to blocking a handler;
		// logging the drop would recurse into this hook.
	}
	return nil
}

func (h *AsyncHook) format(entry *logrus.Entry) ([]byte, error) {
	if entry.Logger != nil && entry.Logger.Formatter != nil {
		return entry.Logger.Formatter.Format(entry)
	}
	line, err := entry.String()
	if err != nil {
		return nil, err
	}
	return []byte(line), nil
}

func (h *AsyncHook) processEntries() {
	defer h.wg.Done()
	for entry := range h.entries {
		data, err := h.format(entry)
		if err != nil {
			continue
		}
		for _, w := range h.writers {
			if _, err := w.Write(data); err != nil {
				continue
			}
		}
	}
}

// Close drains the buffer and stops the worker goroutine.
func (h *AsyncHook) Close() error {
	h.mu.Lock()
	if h.closed {
		h.mu.Unlock()
		return nil
	}
	h.closed = true
	h.mu.Unlock()

	close(h.entries)
	h.wg.Wait()
	return nil
}
