// Package pipeline composes ranking and scoring into final tier list rows.
package pipeline

import (
	"context"

	"github.com/abelbrown/albumtier/internal/album"
	"github.com/abelbrown/albumtier/internal/ranking"
	"github.com/abelbrown/albumtier/internal/scoring"
)

// Result is one row of the final tier list.
type Result struct {
	Rank  int // 1-based
	Album album.Album
	Score float64
}

// Score assigns a score to every album of an already ranked list. The
// output keeps the input order; Rank is positional, never re-sorted by score.
func Score(ranked []album.Album, r scoring.Resolver) []Result {
	results := make([]Result, len(ranked))
	for i, a := range ranked {
		results[i] = Result{
			Rank:  i + 1,
			Album: a,
			Score: r.Resolve(scoring.Percentile(i, len(ranked))),
		}
	}
	return results
}

// Run ranks items with the engine, then scores the order.
// Any ranking error (including ranking.ErrCancelled) is returned as is,
// with no results.
func Run(ctx context.Context, e *ranking.Engine, items []album.Album, r scoring.Resolver) ([]Result, *ranking.Session, error) {
	ranked, session, err := e.Rank(ctx, items)
	if err != nil {
		return nil, session, err
	}
	return Score(ranked, r), session, nil
}

// Albums returns the albums of results in rank order.
func Albums(results []Result) []album.Album {
	out := make([]album.Album, len(results))
	for i, res := range results {
		out[i] = res.Album
	}
	return out
}
