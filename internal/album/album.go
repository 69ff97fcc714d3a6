// Package album defines the ranked entity shared by every albumtier stage.
package album

import "fmt"

// PreviewLimit is how many track titles an inspect action reveals.
const PreviewLimit = 10

// Album is one candidate in a ranking session. It is treated as immutable
// once handed to the ranking engine.
type Album struct {
	ID       string
	Name     string
	Artists  string // comma-joined artist names
	URL      string
	ImageURL string   // empty when the source had no artwork
	Tracks   []string // titles of this album's tracks in the playlist, in playlist order
}

// Count returns how many of the album's tracks appear in the playlist.
func (a Album) Count() int {
	return len(a.Tracks)
}

// Label renders "Name — Artists" for prompts and listings.
func (a Album) Label() string {
	if a.Artists == "" {
		return a.Name
	}
	return a.Name + " — " + a.Artists
}

// Preview returns at most limit track titles and how many were left out.
// A non-positive limit falls back to PreviewLimit.
func (a Album) Preview(limit int) (titles []string, more int) {
	if limit <= 0 {
		limit = PreviewLimit
	}
	if len(a.Tracks) <= limit {
		return a.Tracks, 0
	}
	return a.Tracks[:limit], len(a.Tracks) - limit
}

// PlaceholderTracks synthesizes n track titles for albums restored from a
// source that only kept the count.
func PlaceholderTracks(n int) []string {
	if n <= 0 {
		return nil
	}
	titles := make([]string, n)
	for i := range titles {
		titles[i] = fmt.Sprintf("Track %d", i+1)
	}
	return titles
}
