package ranking

import (
	"context"
	"fmt"

	"github.com/abelbrown/albumtier/internal/album"
)

// Engine ranks albums best-first by binary insertion under an Oracle.
// An Engine is not safe for concurrent Rank calls on the same oracle; each
// call owns its own Session.
type Engine struct {
	oracle Oracle

	// OnInsert, if set, is called after every insertion. Observational only.
	OnInsert func(Insertion)
	// OnJudgment, if set, is called after every verdict.
	OnJudgment func(Judgment)
	// OnStart, if set, is called once with the fresh session before the
	// first comparison.
	OnStart func(n int, s *Session)
}

// NewEngine creates an Engine that asks the given oracle.
func NewEngine(o Oracle) *Engine {
	return &Engine{oracle: o}
}

// Rank returns items ordered best-first. The input slice is not modified.
// Zero or one item never reaches the oracle.
//
// If the oracle returns an error (including ErrCancelled) or ctx is done,
// Rank stops immediately and returns no partial order.
func (e *Engine) Rank(ctx context.Context, items []album.Album) ([]album.Album, *Session, error) {
	s := &Session{Estimated: EstimateComparisons(len(items))}
	if e.OnStart != nil {
		e.OnStart(len(items), s)
	}
	if len(items) == 0 {
		return []album.Album{}, s, nil
	}

	ordered := make([]album.Album, 1, len(items))
	ordered[0] = items[0]

	for _, x := range items[1:] {
		pos, err := e.insertionPoint(ctx, s, ordered, x)
		if err != nil {
			return nil, s, err
		}

		ordered = append(ordered, album.Album{})
		copy(ordered[pos+1:], ordered[pos:])
		ordered[pos] = x

		if e.OnInsert != nil {
			e.OnInsert(Insertion{
				Album:    x,
				Position: pos + 1,
				Length:   len(ordered),
				Progress: s.Progress(),
			})
		}
	}

	return ordered, s, nil
}

// insertionPoint binary-searches [lo, hi) for the slot where x belongs.
func (e *Engine) insertionPoint(ctx context.Context, s *Session, ordered []album.Album, x album.Album) (int, error) {
	lo, hi := 0, len(ordered)
	for lo < hi {
		if err := ctx.Err(); err != nil {
			return 0, err
		}

		mid := (lo + hi) / 2
		v, err := e.oracle.Prefer(ctx, x, ordered[mid], s.Progress())
		if err != nil {
			return 0, err
		}
		s.Compared++

		if e.OnJudgment != nil {
			e.OnJudgment(Judgment{Seq: s.Compared, First: x, Second: ordered[mid], Winner: v})
		}

		switch v {
		case PreferFirst:
			hi = mid
		case PreferSecond:
			lo = mid + 1
		default:
			return 0, fmt.Errorf("oracle returned invalid verdict %d", v)
		}
	}
	return lo, nil
}
