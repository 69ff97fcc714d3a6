package ui

import (
	"context"
	"errors"
	"testing"
	"time"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/abelbrown/albumtier/internal/album"
	"github.com/abelbrown/albumtier/internal/ranking"
)

// fakeProgram answers every CompareRequest with a fixed reply.
type fakeProgram struct {
	reply *CompareReply // nil leaves requests unanswered
	seen  []CompareRequest
}

func (f *fakeProgram) Send(msg tea.Msg) {
	req, ok := msg.(CompareRequest)
	if !ok {
		return
	}
	f.seen = append(f.seen, req)
	if f.reply != nil {
		req.Reply <- *f.reply
	}
}

func TestOracleReturnsReply(t *testing.T) {
	p := &fakeProgram{reply: &CompareReply{Verdict: ranking.PreferSecond}}
	a, b := testAlbums()

	v, err := NewOracle(p).Prefer(context.Background(), a, b, ranking.Progress{Compared: 1, Estimated: 3})
	if err != nil {
		t.Fatalf("Prefer: %v", err)
	}
	if v != ranking.PreferSecond {
		t.Errorf("verdict = %v, want second", v)
	}
	if len(p.seen) != 1 || p.seen[0].A.ID != "a" || p.seen[0].Progress.Compared != 1 {
		t.Errorf("request = %+v", p.seen)
	}
}

func TestOracleCancelledReply(t *testing.T) {
	p := &fakeProgram{reply: &CompareReply{Err: ranking.ErrCancelled}}
	a, b := testAlbums()

	_, err := NewOracle(p).Prefer(context.Background(), a, b, ranking.Progress{})
	if !errors.Is(err, ranking.ErrCancelled) {
		t.Errorf("err = %v, want ErrCancelled", err)
	}
}

func TestOracleContextDone(t *testing.T) {
	p := &fakeProgram{}
	a, b := testAlbums()
	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancel()

	_, err := NewOracle(p).Prefer(ctx, a, b, ranking.Progress{})
	if !errors.Is(err, context.DeadlineExceeded) {
		t.Errorf("err = %v, want DeadlineExceeded", err)
	}
}

func TestOracleDrivesEngine(t *testing.T) {
	p := &fakeProgram{reply: &CompareReply{Verdict: ranking.PreferFirst}}
	items := []album.Album{{ID: "x"}, {ID: "y"}, {ID: "z"}}

	ranked, s, err := ranking.NewEngine(NewOracle(p)).Rank(context.Background(), items)
	if err != nil {
		t.Fatalf("Rank: %v", err)
	}
	if ranked[0].ID != "z" || ranked[1].ID != "y" || ranked[2].ID != "x" {
		t.Errorf("order = %v", ranked)
	}
	if s.Compared != len(p.seen) {
		t.Errorf("Compared = %d, requests = %d", s.Compared, len(p.seen))
	}
}
