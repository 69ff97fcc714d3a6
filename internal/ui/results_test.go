package ui

import (
	"strings"
	"testing"

	"github.com/abelbrown/albumtier/internal/album"
	"github.com/abelbrown/albumtier/internal/pipeline"
)

func TestFormatScore(t *testing.T) {
	tests := []struct {
		in   float64
		want string
	}{
		{10, "10.0"},
		{8.75, "8.75"},
		{7.5, "7.5"},
		{6, "6.0"},
		{9.25, "9.25"},
	}
	for _, tt := range tests {
		if got := FormatScore(tt.in); got != tt.want {
			t.Errorf("FormatScore(%v) = %q, want %q", tt.in, got, tt.want)
		}
	}
}

func TestRenderResults(t *testing.T) {
	results := []pipeline.Result{
		{Rank: 1, Score: 10, Album: album.Album{Name: "Blue", Artists: "Joni Mitchell", URL: "https://open.spotify.com/album/1", Tracks: album.PlaceholderTracks(7)}},
		{Rank: 2, Score: 8.75, Album: album.Album{Name: "Untitled", Tracks: album.PlaceholderTracks(4)}},
	}

	out := RenderResults(results)
	for _, want := range []string{
		"1.",
		"Blue — Joni Mitchell",
		"Score: 10.0",
		"In-playlist tracks: 7",
		"https://open.spotify.com/album/1",
		"2.",
		"Untitled  |  Score: 8.75",
		"In-playlist tracks: 4",
	} {
		if !strings.Contains(out, want) {
			t.Errorf("output missing %q:\n%s", want, out)
		}
	}
}

func TestRenderResultsEmpty(t *testing.T) {
	if out := RenderResults(nil); out != "" {
		t.Errorf("RenderResults(nil) = %q, want empty", out)
	}
}

func TestRenderOrder(t *testing.T) {
	out := RenderOrder([]album.Album{{Name: "A", Tracks: album.PlaceholderTracks(2)}, {Name: "B"}})
	if !strings.Contains(out, "A (tracks: 2)") || !strings.Contains(out, "B (tracks: 0)") {
		t.Errorf("unexpected output:\n%s", out)
	}
}
