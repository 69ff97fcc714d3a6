package otel

import (
	"fmt"
	"time"

	"github.com/abelbrown/albumtier/internal/album"
	"github.com/abelbrown/albumtier/internal/ranking"
)

// Scope emits events on behalf of one component, optionally tied to a
// source (a playlist id or a CSV path).
type Scope struct {
	l      *Logger
	comp   string
	source string
}

// Emit fills in Comp and Source where e leaves them empty.
func (s Scope) Emit(e Event) {
	if e.Comp == "" {
		e.Comp = s.comp
	}
	if e.Source == "" {
		e.Source = s.source
	}
	s.l.Emit(e)
}

func (s Scope) Info(kind EventKind, msg string) {
	s.Emit(Event{Level: LevelInfo, Kind: kind, Msg: msg})
}

func (s Scope) Warn(kind EventKind, msg string) {
	s.Emit(Event{Level: LevelWarn, Kind: kind, Msg: msg})
}

// Error records err; a nil err is recorded with an empty message.
func (s Scope) Error(kind EventKind, err error) {
	e := Event{Level: LevelError, Kind: kind}
	if err != nil {
		e.Err = err.Error()
	}
	s.Emit(e)
}

// Ranking records one ranking session of a playlist. Its methods line up
// with the ranking.Engine hooks.
type Ranking struct {
	Scope
}

// Ranking returns the scope for ranking the albums of source.
func (l *Logger) Ranking(source string) Ranking {
	return Ranking{Scope: l.Scope("rank", source)}
}

func (r Ranking) Started(n int, s *ranking.Session) {
	r.Emit(Event{Level: LevelInfo, Kind: KindRankStart, Count: n, Estimated: s.Estimated})
}

// Judged records a verdict. Album and Versus are the pair in question order.
func (r Ranking) Judged(j ranking.Judgment) {
	winner := j.Second
	if j.Winner == ranking.PreferFirst {
		winner = j.First
	}
	r.Emit(Event{
		Level:    LevelDebug,
		Kind:     KindRankCompare,
		Album:    j.First.Label(),
		Versus:   j.Second.Label(),
		Winner:   winner.Label(),
		Compared: j.Seq,
	})
}

func (r Ranking) Inserted(ins ranking.Insertion) {
	r.Emit(Event{
		Level:     LevelDebug,
		Kind:      KindRankInsert,
		Album:     ins.Album.Label(),
		Count:     ins.Length,
		Compared:  ins.Progress.Compared,
		Estimated: ins.Progress.Estimated,
		Msg:       fmt.Sprintf("position %d of %d", ins.Position, ins.Length),
	})
}

func (r Ranking) Inspected(a, b album.Album) {
	r.Emit(Event{Level: LevelDebug, Kind: KindRankInspect, Album: a.Label(), Versus: b.Label()})
}

// Aborted records a session the user quit after compared answers.
func (r Ranking) Aborted(compared int) {
	r.Emit(Event{Level: LevelInfo, Kind: KindRankAbort, Compared: compared})
}

func (r Ranking) Completed(albums int, s *ranking.Session, took time.Duration) {
	r.Emit(Event{
		Level:     LevelInfo,
		Kind:      KindRankComplete,
		Count:     albums,
		Compared:  s.Compared,
		Estimated: s.Estimated,
		Dur:       took,
	})
}

// Scored records a scoring pass over albums with the given thresholds.
func (r Ranking) Scored(albums int, thresholds string) {
	r.Emit(Event{Level: LevelInfo, Kind: KindScoreComplete, Comp: "score", Count: albums, Msg: thresholds})
}
