// Package persist writes whole JSON documents to the key-value store in the
// background. Callers mark a document dirty after each mutation; the writer
// coalesces bursts of marks into a single write of the latest snapshot.
package persist

import (
	"sync"
	"sync/atomic"

	"github.com/mudler/xlog"
)

// Documents is the durable key-value surface documents are written to.
type Documents interface {
	GetDocument(key string) ([]byte, bool, error)
	PutDocument(key string, value []byte) error
}

// SnapshotFunc serializes the owner's current state. It is called from the
// writer goroutine, so it must take whatever lock the owner needs.
type SnapshotFunc func() ([]byte, error)

// Writer owns the persistence of a single document key.
type Writer struct {
	docs     Documents
	key      string
	snapshot SnapshotFunc

	dirty   chan struct{}
	pending atomic.Bool
	writeMu sync.Mutex

	stopCh    chan struct{}
	done      chan struct{}
	closeOnce sync.Once
}

// NewWriter starts a background writer for key.
func NewWriter(docs Documents, key string, snapshot SnapshotFunc) *Writer {
	w := &Writer{
		docs:     docs,
		key:      key,
		snapshot: snapshot,
		dirty:    make(chan struct{}, 1),
		stopCh:   make(chan struct{}),
		done:     make(chan struct{}),
	}
	go w.loop()
	return w
}

// Kick marks the document dirty. It never blocks.
func (w *Writer) Kick() {
	w.pending.Store(true)
	select {
	case w.dirty <- struct{}{}:
	default:
	}
}

// Flush writes the current snapshot synchronously, regardless of whether a
// write is pending.
func (w *Writer) Flush() {
	w.write()
}

// Close stops the background goroutine and writes any pending snapshot.
func (w *Writer) Close() {
	w.closeOnce.Do(func() {
		close(w.stopCh)
		<-w.done
		if w.pending.Load() {
			w.write()
		}
	})
}

func (w *Writer) loop() {
	defer close(w.done)
	for {
		select {
		case <-w.dirty:
			w.write()
		case <-w.stopCh:
			return
		}
	}
}

// write is serialized so a Flush never interleaves with a background write
// and leaves an older snapshot on disk.
func (w *Writer) write() {
	w.writeMu.Lock()
	defer w.writeMu.Unlock()

	w.pending.Store(false)
	data, err := w.snapshot()
	if err != nil {
		xlog.Error("Failed to snapshot document", "key", w.key, "error", err)
		return
	}
	if data == nil {
		return
	}
	if err := w.docs.PutDocument(w.key, data); err != nil {
		xlog.Error("Failed to save document", "key", w.key, "error", err)
	}
}
