package prompt

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"strings"
	"testing"

	"github.com/abelbrown/albumtier/internal/album"
	"github.com/abelbrown/albumtier/internal/ranking"
)

var (
	albumA = album.Album{ID: "a", Name: "Blue", Artists: "Joni Mitchell", URL: "https://open.spotify.com/album/a", Tracks: manyTracks(12)}
	albumB = album.Album{ID: "b", Name: "Hejira", Artists: "Joni Mitchell", Tracks: []string{"Coyote", "Amelia"}}
)

func manyTracks(n int) []string {
	out := make([]string, n)
	for i := range out {
		out[i] = fmt.Sprintf("Song %d", i+1)
	}
	return out
}

func ask(t *testing.T, input string) (ranking.Verdict, error, string) {
	t.Helper()
	var out bytes.Buffer
	o := NewOracle(strings.NewReader(input), &out)
	v, err := o.Prefer(context.Background(), albumA, albumB, ranking.Progress{Compared: 2, Estimated: 8})
	return v, err, out.String()
}

func TestPreferAnswers(t *testing.T) {
	tests := []struct {
		input string
		want  ranking.Verdict
	}{
		{"1\n", ranking.PreferFirst},
		{"2\n", ranking.PreferSecond},
		{"  2  \n", ranking.PreferSecond},
		{"1", ranking.PreferFirst}, // no trailing newline
	}
	for _, tt := range tests {
		v, err, _ := ask(t, tt.input)
		if err != nil {
			t.Fatalf("input %q: %v", tt.input, err)
		}
		if v != tt.want {
			t.Errorf("input %q: got %v, want %v", tt.input, v, tt.want)
		}
	}
}

func TestPreferShowsProgress(t *testing.T) {
	_, _, out := ask(t, "1\n")
	if !strings.Contains(out, "Comparison 3/8 (6 remaining)") {
		t.Errorf("missing progress header in %q", out)
	}
	if !strings.Contains(out, "Blue — Joni Mitchell  (tracks in playlist: 12)") {
		t.Errorf("missing album line in %q", out)
	}
}

func TestPreferInvalidInputReprompts(t *testing.T) {
	v, err, out := ask(t, "x\n3\n\n2\n")
	if err != nil {
		t.Fatal(err)
	}
	if v != ranking.PreferSecond {
		t.Errorf("got %v, want second", v)
	}
	if n := strings.Count(out, "Invalid input. Try again."); n != 3 {
		t.Errorf("expected 3 re-prompts, got %d", n)
	}
	if n := strings.Count(out, "=== Comparison 3/8"); n != 4 {
		t.Errorf("progress must not advance on re-prompt, header shown %d times", n)
	}
}

func TestPreferInspect(t *testing.T) {
	var out bytes.Buffer
	o := NewOracle(strings.NewReader("i\ni\n1\n"), &out)
	inspected := 0
	o.OnInspect = func(a, b album.Album) { inspected++ }

	v, err := o.Prefer(context.Background(), albumA, albumB, ranking.Progress{Estimated: 1})
	if err != nil {
		t.Fatal(err)
	}
	if v != ranking.PreferFirst {
		t.Errorf("got %v", v)
	}
	if inspected != 2 {
		t.Errorf("OnInspect called %d times, want 2", inspected)
	}
	s := out.String()
	if !strings.Contains(s, "   - Song 10\n") || strings.Contains(s, "Song 11") {
		t.Error("preview should show exactly the first 10 tracks")
	}
	if !strings.Contains(s, "...(+2 more)") {
		t.Error("preview should report the overflow count")
	}
	if !strings.Contains(s, "   - Amelia") {
		t.Error("preview should list the second album")
	}
}

func TestPreferQuit(t *testing.T) {
	for _, in := range []string{"q\n", "Q\n", ""} {
		_, err, _ := ask(t, in)
		if !errors.Is(err, ranking.ErrCancelled) {
			t.Errorf("input %q: expected ErrCancelled, got %v", in, err)
		}
	}
}

func TestPreferContextDone(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	o := NewOracle(strings.NewReader("1\n"), &bytes.Buffer{})
	if _, err := o.Prefer(ctx, albumA, albumB, ranking.Progress{}); !errors.Is(err, context.Canceled) {
		t.Fatalf("expected context.Canceled, got %v", err)
	}
}

func TestOracleDrivesEngine(t *testing.T) {
	items := []album.Album{{ID: "x", Name: "X"}, {ID: "y", Name: "Y"}, {ID: "z", Name: "Z"}}
	// y beats x, then z beats x and y: the newcomer always wins
	o := NewOracle(strings.NewReader("1\n1\n1\n"), &bytes.Buffer{})
	got, s, err := ranking.NewEngine(o).Rank(context.Background(), items)
	if err != nil {
		t.Fatal(err)
	}
	if got[0].ID != "z" || got[1].ID != "y" || got[2].ID != "x" {
		t.Errorf("unexpected order %v", []string{got[0].ID, got[1].ID, got[2].ID})
	}
	if s.Compared != 3 {
		t.Errorf("Compared = %d, want 3", s.Compared)
	}
}
