// Package otel records structured albumtier events.
//
// Events are typed structs serialized as JSONL lines. The Logger writes
// events asynchronously via a buffered channel and background drain goroutine.
// A RingBuffer keeps the most recent events in memory for tailing.
package otel

import (
	"encoding/json"
	"time"
)

// Level defines event severity for filtering.
type Level string

const (
	LevelDebug Level = "debug"
	LevelInfo  Level = "info"
	LevelWarn  Level = "warn"
	LevelError Level = "error"
)

// EventKind identifies the category of an event.
// Dot-delimited: "<subsystem>.<action>".
type EventKind string

const (
	// Ranking events
	KindRankStart    EventKind = "rank.start"
	KindRankCompare  EventKind = "rank.compare"
	KindRankInspect  EventKind = "rank.inspect"
	KindRankInsert   EventKind = "rank.insert"
	KindRankComplete EventKind = "rank.complete"
	KindRankAbort    EventKind = "rank.abort"

	// Scoring events
	KindScoreComplete EventKind = "score.complete"
	KindScoreFallback EventKind = "score.fallback"

	// Playlist fetch events
	KindFetchStart    EventKind = "fetch.start"
	KindFetchComplete EventKind = "fetch.complete"
	KindFetchError    EventKind = "fetch.error"

	// CSV events
	KindCSVWrite EventKind = "csv.write"
	KindCSVRead  EventKind = "csv.read"
	KindCSVSkip  EventKind = "csv.skip"

	// Store events
	KindStoreSave  EventKind = "store.save"
	KindStoreError EventKind = "store.error"

	// System events
	KindStartup  EventKind = "sys.startup"
	KindShutdown EventKind = "sys.shutdown"
	KindError    EventKind = "sys.error"

	// Trace events, only with ALBUMTIER_TRACE set
	KindMsgReceived EventKind = "trace.msg_received"
)

// Event is the universal record. Every field except Kind and Time is
// optional. Serialized as a single JSONL line.
type Event struct {
	Time      time.Time      `json:"t"`
	Level     Level          `json:"level,omitempty"`
	Kind      EventKind      `json:"kind"`
	Comp      string         `json:"comp,omitempty"`       // component: "rank", "ui", "spotify", "main"
	SessionID string         `json:"session_id,omitempty"` // same for an entire run
	Dur       time.Duration  `json:"-"`                    // not serialized directly
	DurMs     float64        `json:"dur_ms,omitempty"`     // computed from Dur at marshal time
	Count     int            `json:"count,omitempty"`
	Source    string         `json:"source,omitempty"` // playlist id or csv path
	Album     string         `json:"album,omitempty"`  // album label the event concerns
	Versus    string         `json:"versus,omitempty"` // the other album of a comparison
	Winner    string         `json:"winner,omitempty"`
	Compared  int            `json:"compared,omitempty"`
	Estimated int            `json:"estimated,omitempty"`
	Err       string         `json:"err,omitempty"`
	Msg       string         `json:"msg,omitempty"`
	Extra     map[string]any `json:"extra,omitempty"`
}

// MarshalJSON implements json.Marshaler, converting Dur to DurMs.
func (e Event) MarshalJSON() ([]byte, error) {
	type Alias Event
	a := struct {
		Alias
	}{Alias: Alias(e)}
	if e.Dur > 0 {
		a.DurMs = float64(e.Dur) / float64(time.Millisecond)
	}
	return json.Marshal(a)
}
