package ui

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/abelbrown/albumtier/internal/album"
	"github.com/abelbrown/albumtier/internal/pipeline"
)

// RenderResults formats the final tier list, one album per entry:
//
//	 1. Name — Artists  |  Score: 10.0  |  In-playlist tracks: 7
//	    https://open.spotify.com/album/...
func RenderResults(results []pipeline.Result) string {
	var b strings.Builder
	for _, r := range results {
		rank := RankNumber.Render(fmt.Sprintf("%2d.", r.Rank))
		score := ScoreStyle.Render(fmt.Sprintf("%4s", FormatScore(r.Score)))
		fmt.Fprintf(&b, "%s %s  |  Score: %s  |  In-playlist tracks: %d\n",
			rank, r.Album.Label(), score, r.Album.Count())
		if r.Album.URL != "" {
			b.WriteString(URLStyle.Render(r.Album.URL) + "\n")
		}
	}
	return b.String()
}

// RenderOrder lists albums in their current order without scores.
func RenderOrder(albums []album.Album) string {
	var b strings.Builder
	for i, a := range albums {
		fmt.Fprintf(&b, "%s %s (tracks: %d)\n", RankNumber.Render(fmt.Sprintf("%2d.", i+1)), a.Label(), a.Count())
	}
	return b.String()
}

// FormatScore renders a score with at least one decimal: 10.0, 8.75, 7.5.
func FormatScore(s float64) string {
	out := strconv.FormatFloat(s, 'f', -1, 64)
	if !strings.ContainsAny(out, ".eEnN") {
		out += ".0"
	}
	return out
}
