package ui

import (
	"context"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/abelbrown/albumtier/internal/album"
	"github.com/abelbrown/albumtier/internal/ranking"
)

// Sender delivers messages into a running program. *tea.Program satisfies it.
type Sender interface {
	Send(msg tea.Msg)
}

// Oracle asks ranking questions through the TUI. It blocks the engine
// goroutine until the App replies or ctx is done. At most one question is
// in flight because the engine is sequential.
type Oracle struct {
	send Sender
}

// NewOracle creates an Oracle that posts CompareRequests to s.
func NewOracle(s Sender) *Oracle {
	return &Oracle{send: s}
}

// Prefer implements ranking.Oracle.
func (o *Oracle) Prefer(ctx context.Context, a, b album.Album, p ranking.Progress) (ranking.Verdict, error) {
	reply := make(chan CompareReply, 1)
	o.send.Send(CompareRequest{A: a, B: b, Progress: p, Reply: reply})

	select {
	case r := <-reply:
		return r.Verdict, r.Err
	case <-ctx.Done():
		return 0, ctx.Err()
	}
}
