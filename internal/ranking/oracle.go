// Package ranking orders albums by asking a human which of two is better.
//
// The engine performs binary insertion: each new album is placed by binary
// search over the albums already ranked, one Oracle question per probe.
// All progress state lives in a Session created per Rank call.
package ranking

import (
	"context"
	"errors"

	"github.com/abelbrown/albumtier/internal/album"
)

// ErrCancelled is returned by an Oracle when the operator aborts the session.
// It is an explicit user action, not a failure.
var ErrCancelled = errors.New("ranking cancelled")

// Verdict is the answer to "which of these two do you prefer?".
type Verdict int

const (
	PreferFirst Verdict = iota + 1
	PreferSecond
)

func (v Verdict) String() string {
	switch v {
	case PreferFirst:
		return "first"
	case PreferSecond:
		return "second"
	default:
		return "unknown"
	}
}

// Oracle asks for a preference between two albums. Implementations block
// until they have an answer. Inspecting track lists and re-prompting on bad
// input happen inside the oracle and never count as a comparison.
type Oracle interface {
	Prefer(ctx context.Context, a, b album.Album, p Progress) (Verdict, error)
}

// OracleFunc adapts a function to the Oracle interface.
type OracleFunc func(ctx context.Context, a, b album.Album, p Progress) (Verdict, error)

// Prefer calls f.
func (f OracleFunc) Prefer(ctx context.Context, a, b album.Album, p Progress) (Verdict, error) {
	return f(ctx, a, b, p)
}
