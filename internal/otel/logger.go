package otel

import (
	"bufio"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sync"
	"sync/atomic"
	"time"

	"github.com/google/uuid"
)

// queueSize bounds the events waiting for the writer. A ranking session
// emits a few events per comparison, so this only fills if the disk stalls.
const queueSize = 1024

// Logger appends events to a JSONL file from a single writer goroutine.
// Every event of one albumtier invocation carries the same session id,
// which is also the id a ranking is stored under.
//
// Emit never blocks: when the queue is full, or after Close, the event is
// counted as dropped.
type Logger struct {
	session string
	queue   chan Event
	done    chan struct{}

	// closing guards queue: Emit sends under the read lock and Close
	// closes the channel under the write lock.
	closing sync.RWMutex
	closed  bool

	out   *bufio.Writer
	owned io.Closer // file opened by OpenFile

	ring    atomic.Pointer[RingBuffer]
	trace   atomic.Bool
	emitted atomic.Uint64
	dropped atomic.Uint64
}

// NewLogger writes events to w until Close.
func NewLogger(w io.Writer) *Logger {
	l := &Logger{
		session: uuid.NewString(),
		queue:   make(chan Event, queueSize),
		done:    make(chan struct{}),
		out:     bufio.NewWriter(w),
	}
	go l.write()
	return l
}

// OpenFile appends to the event log at path, creating it and its directory.
func OpenFile(path string) (*Logger, error) {
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return nil, fmt.Errorf("create event log directory: %w", err)
	}
	f, err := os.OpenFile(path, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0644)
	if err != nil {
		return nil, fmt.Errorf("open event log: %w", err)
	}
	l := NewLogger(f)
	l.owned = f
	return l, nil
}

// NewNullLogger discards events. It still feeds an attached ring buffer.
func NewNullLogger() *Logger {
	return NewLogger(io.Discard)
}

// write encodes queued events and flushes whenever the queue runs dry.
func (l *Logger) write() {
	defer close(l.done)
	enc := json.NewEncoder(l.out)
	for e := range l.queue {
		if err := enc.Encode(e); err != nil {
			l.dropped.Add(1)
		}
		if rb := l.ring.Load(); rb != nil {
			rb.Push(e)
		}
		if len(l.queue) == 0 {
			if err := l.out.Flush(); err != nil {
				l.dropped.Add(1)
			}
		}
	}
	l.out.Flush()
}

// Emit queues e after stamping its time (if unset) and the session id.
func (l *Logger) Emit(e Event) {
	if e.Time.IsZero() {
		e.Time = time.Now()
	}
	e.SessionID = l.session

	l.closing.RLock()
	defer l.closing.RUnlock()
	if l.closed {
		l.dropped.Add(1)
		return
	}
	select {
	case l.queue <- e:
		l.emitted.Add(1)
	default:
		l.dropped.Add(1)
	}
}

// Scope returns an emitter that fills in comp and source on its events.
func (l *Logger) Scope(comp, source string) Scope {
	return Scope{l: l, comp: comp, source: source}
}

// SessionID is the id stamped on every event of this logger.
func (l *Logger) SessionID() string {
	return l.session
}

// SetRingBuffer mirrors written events into rb. Nil detaches.
func (l *Logger) SetRingBuffer(rb *RingBuffer) {
	l.ring.Store(rb)
}

// SetTrace turns message tracing on or off.
func (l *Logger) SetTrace(on bool) {
	l.trace.Store(on)
}

// Tracing reports whether Trace records anything.
func (l *Logger) Tracing() bool {
	return l.trace.Load()
}

// Trace records a received UI message when tracing is on.
func (l *Logger) Trace(comp, msg string) {
	if !l.trace.Load() {
		return
	}
	l.Emit(Event{Level: LevelDebug, Kind: KindMsgReceived, Comp: comp, Msg: msg})
}

// Emitted returns how many events were accepted for writing.
func (l *Logger) Emitted() uint64 {
	return l.emitted.Load()
}

// Dropped returns how many events were lost.
func (l *Logger) Dropped() uint64 {
	return l.dropped.Load()
}

// Close writes out queued events and closes a file opened by OpenFile.
// It is idempotent; later Emits are dropped.
func (l *Logger) Close() {
	l.closing.Lock()
	if l.closed {
		l.closing.Unlock()
		return
	}
	l.closed = true
	close(l.queue)
	l.closing.Unlock()

	<-l.done
	if l.owned != nil {
		l.owned.Close()
	}
	if d := l.dropped.Load(); d > 0 {
		fmt.Fprintf(os.Stderr, "albumtier: %d events dropped in session %s\n", d, l.session)
	}
}
