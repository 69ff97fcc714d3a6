package otel

import (
	"bufio"
	"encoding/json"
	"fmt"
	"io"
	"strings"
	"time"
)

// Filter selects events while reading a log back.
type Filter func(Event) bool

// ReadEvents decodes JSONL events from r into buf, keeping those accepted
// by every filter. Lines that are not valid events are counted in skipped.
func ReadEvents(r io.Reader, buf *RingBuffer, filters ...Filter) (skipped int, err error) {
	sc := bufio.NewScanner(r)
	sc.Buffer(make([]byte, 0, 64*1024), 1<<20)

	for sc.Scan() {
		line := sc.Bytes()
		if len(line) == 0 {
			continue
		}
		ev, ok := DecodeEvent(line)
		if !ok {
			skipped++
			continue
		}
		if accept(ev, filters) {
			buf.Push(ev)
		}
	}
	if err := sc.Err(); err != nil {
		return skipped, fmt.Errorf("scan events: %w", err)
	}
	return skipped, nil
}

// DecodeEvent parses one JSONL line. Dur is restored from dur_ms.
func DecodeEvent(line []byte) (Event, bool) {
	var ev Event
	if err := json.Unmarshal(line, &ev); err != nil || ev.Kind == "" {
		return Event{}, false
	}
	if ev.DurMs > 0 {
		ev.Dur = time.Duration(ev.DurMs * float64(time.Millisecond))
	}
	return ev, true
}

func accept(ev Event, filters []Filter) bool {
	for _, f := range filters {
		if !f(ev) {
			return false
		}
	}
	return true
}

// levelRank orders levels; unknown levels rank as info.
func levelRank(l Level) int {
	switch l {
	case LevelDebug:
		return 0
	case LevelWarn:
		return 2
	case LevelError:
		return 3
	default:
		return 1
	}
}

// MinLevel accepts events at or above level.
func MinLevel(level Level) Filter {
	min := levelRank(level)
	return func(e Event) bool { return levelRank(e.Level) >= min }
}

// KindPrefix accepts events whose kind starts with prefix, e.g. "rank".
func KindPrefix(prefix string) Filter {
	return func(e Event) bool {
		return strings.HasPrefix(string(e.Kind), prefix)
	}
}

// Session accepts events from one run.
func Session(id string) Filter {
	return func(e Event) bool { return e.SessionID == id }
}
