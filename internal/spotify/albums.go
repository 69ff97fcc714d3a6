package spotify

import (
	"context"
	"sort"
	"strings"

	"golang.org/x/text/cases"

	"github.com/abelbrown/albumtier/internal/album"
)

// ParsePlaylistID extracts the playlist id from a spotify: URI or an
// open.spotify.com link. Anything else is returned trimmed, as a raw id.
func ParsePlaylistID(link string) string {
	link = strings.TrimSpace(link)
	if rest, ok := strings.CutPrefix(link, "spotify:playlist:"); ok {
		return rest
	}
	if _, rest, ok := strings.Cut(link, "open.spotify.com/playlist/"); ok {
		rest, _, _ = strings.Cut(rest, "?")
		rest, _, _ = strings.Cut(rest, "/")
		return rest
	}
	return link
}

// Albums groups the playlist's tracks by album and keeps albums with at
// least minTracks tracks in the playlist. The result is ordered by track
// count descending, then artists and name case-insensitively.
// Entries without a track or album id (local files) are skipped.
func (c *Client) Albums(ctx context.Context, playlistID string, minTracks int) ([]album.Album, error) {
	byID := make(map[string]*album.Album)
	var order []string

	err := c.items(ctx, playlistID, func(items []playlistItem) {
		for _, it := range items {
			if it.Track == nil || it.Track.Album == nil || it.Track.Album.ID == "" {
				continue
			}
			src := it.Track.Album

			a, ok := byID[src.ID]
			if !ok {
				a = newAlbum(src)
				byID[src.ID] = a
				order = append(order, src.ID)
			}
			title := it.Track.Name
			if title == "" {
				title = "Unknown Track"
			}
			a.Tracks = append(a.Tracks, title)
		}
	})
	if err != nil {
		return nil, err
	}

	out := make([]album.Album, 0, len(order))
	for _, id := range order {
		if a := byID[id]; a.Count() >= minTracks {
			out = append(out, *a)
		}
	}
	SortAlbums(out)
	return out, nil
}

func newAlbum(src *albumObject) *album.Album {
	a := &album.Album{
		ID:   src.ID,
		Name: src.Name,
		URL:  src.ExternalURLs.Spotify,
	}
	if a.Name == "" {
		a.Name = "Unknown Album"
	}
	if a.URL == "" {
		a.URL = "https://open.spotify.com/album/" + src.ID
	}
	if len(src.Images) > 0 {
		a.ImageURL = src.Images[0].URL
	}
	names := make([]string, 0, len(src.Artists))
	for _, ar := range src.Artists {
		names = append(names, ar.Name)
	}
	a.Artists = strings.Join(names, ", ")
	return a
}

// SortAlbums orders albums by track count descending, then by case-folded
// artists, then case-folded name. The sort is stable.
func SortAlbums(albums []album.Album) {
	fold := cases.Fold()
	sort.SliceStable(albums, func(i, j int) bool {
		a, b := albums[i], albums[j]
		if a.Count() != b.Count() {
			return a.Count() > b.Count()
		}
		if fa, fb := fold.String(a.Artists), fold.String(b.Artists); fa != fb {
			return fa < fb
		}
		return fold.String(a.Name) < fold.String(b.Name)
	})
}
