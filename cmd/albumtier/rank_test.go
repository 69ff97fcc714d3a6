package main

import (
	"bytes"
	"context"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/abelbrown/albumtier/internal/album"
	"github.com/abelbrown/albumtier/internal/config"
	"github.com/abelbrown/albumtier/internal/metrics"
	"github.com/abelbrown/albumtier/internal/otel"
	"github.com/abelbrown/albumtier/internal/pipeline"
	"github.com/abelbrown/albumtier/internal/ranking"
	"github.com/abelbrown/albumtier/internal/scoring"
	"github.com/abelbrown/albumtier/internal/spotify"
	"github.com/abelbrown/albumtier/internal/store"
)

func newTestRun(t *testing.T) *rankRun {
	t.Helper()
	dir := t.TempDir()
	cfg := config.DefaultConfig()
	cfg.DataDir = dir
	cfg.DBPath = filepath.Join(dir, "albumtier.db")
	cfg.MetricsFile = filepath.Join(dir, "albumtier.prom")

	events := otel.NewNullLogger()
	t.Cleanup(events.Close)

	return &rankRun{
		cfg:        cfg,
		events:     events,
		metrics:    metrics.New(),
		resolver:   scoring.DefaultResolver(),
		playlistID: "pl1",
		playlist:   spotify.Playlist{ID: "pl1", Name: "Road Trip"},
		started:    time.Now(),
	}
}

func threeAlbums() []album.Album {
	return []album.Album{
		{ID: "x", Name: "X", Tracks: album.PlaceholderTracks(4)},
		{ID: "y", Name: "Y", Tracks: album.PlaceholderTracks(5)},
		{ID: "z", Name: "Z", Tracks: album.PlaceholderTracks(6)},
	}
}

// fakeSource serves a fixed playlist.
type fakeSource struct {
	name   string
	albums []album.Album
	err    error
}

func (f fakeSource) Playlist(_ context.Context, id string) (spotify.Playlist, error) {
	return spotify.Playlist{ID: id, Name: f.name}, f.err
}

func (f fakeSource) Albums(context.Context, string, int) ([]album.Album, error) {
	return f.albums, f.err
}

func alwaysFirst(context.Context, album.Album, album.Album, ranking.Progress) (ranking.Verdict, error) {
	return ranking.PreferFirst, nil
}

func TestEngineHooksRecordVerdicts(t *testing.T) {
	r := newTestRun(t)
	var inserted []ranking.Insertion
	r.onInserted = func(ins ranking.Insertion) { inserted = append(inserted, ins) }

	results, sess, err := pipeline.Run(context.Background(), r.engine(ranking.OracleFunc(alwaysFirst)), threeAlbums(), r.resolver)
	if err != nil {
		t.Fatalf("Run: %v", err)
	}
	if len(results) != 3 || results[0].Album.ID != "z" {
		t.Fatalf("results = %+v", results)
	}
	if len(r.verdicts) != sess.Compared {
		t.Errorf("verdicts = %d, compared = %d", len(r.verdicts), sess.Compared)
	}
	if len(inserted) != 2 {
		t.Errorf("insertions = %d, want 2", len(inserted))
	}
}

func TestFinishSavesCompletedSession(t *testing.T) {
	r := newTestRun(t)
	results, sess, err := pipeline.Run(context.Background(), r.engine(ranking.OracleFunc(alwaysFirst)), threeAlbums(), r.resolver)
	if err != nil {
		t.Fatalf("Run: %v", err)
	}

	csvPath := filepath.Join(t.TempDir(), "tiers.csv")
	if err := r.finish(rankOutcome{results: results, session: sess}, csvPath, true); err != nil {
		t.Fatalf("finish: %v", err)
	}

	if _, err := os.Stat(csvPath); err != nil {
		t.Errorf("csv not written: %v", err)
	}

	st, err := store.Open(r.cfg.DBPath)
	if err != nil {
		t.Fatalf("Open: %v", err)
	}
	defer st.Close()

	saved, err := st.GetSession(r.events.SessionID())
	if err != nil {
		t.Fatalf("GetSession: %v", err)
	}
	if saved.SourceName != "Road Trip" || saved.Albums != 3 || saved.Comparisons != sess.Compared {
		t.Errorf("saved session = %+v", saved)
	}
	verdicts, err := st.GetVerdicts(saved.ID)
	if err != nil {
		t.Fatalf("GetVerdicts: %v", err)
	}
	if len(verdicts) != sess.Compared {
		t.Errorf("verdicts = %d, want %d", len(verdicts), sess.Compared)
	}

	prom, err := os.ReadFile(r.cfg.MetricsFile)
	if err != nil {
		t.Fatalf("metrics file: %v", err)
	}
	if !strings.Contains(string(prom), `albumtier_sessions_total{outcome="complete"} 1`) {
		t.Errorf("metrics missing completed session:\n%s", prom)
	}
}

func TestFinishAbortedSavesNothing(t *testing.T) {
	r := newTestRun(t)

	if err := r.finish(rankOutcome{err: ranking.ErrCancelled, session: &ranking.Session{Compared: 2}}, "", true); err != nil {
		t.Fatalf("finish: %v", err)
	}

	if _, err := os.Stat(r.cfg.DBPath); !os.IsNotExist(err) {
		t.Errorf("aborted session should not open the store, stat err = %v", err)
	}
	prom, err := os.ReadFile(r.cfg.MetricsFile)
	if err != nil {
		t.Fatalf("metrics file: %v", err)
	}
	if !strings.Contains(string(prom), `albumtier_sessions_total{outcome="aborted"} 1`) {
		t.Errorf("metrics missing aborted session:\n%s", prom)
	}
}

func TestFinishNoSave(t *testing.T) {
	r := newTestRun(t)
	results, sess, err := pipeline.Run(context.Background(), r.engine(ranking.OracleFunc(alwaysFirst)), threeAlbums(), r.resolver)
	if err != nil {
		t.Fatalf("Run: %v", err)
	}

	if err := r.finish(rankOutcome{results: results, session: sess}, "", false); err != nil {
		t.Fatalf("finish: %v", err)
	}
	if _, err := os.Stat(r.cfg.DBPath); !os.IsNotExist(err) {
		t.Errorf("--no-save should not create the store, stat err = %v", err)
	}
}

func TestPlainReportsEveryInsertion(t *testing.T) {
	r := newTestRun(t)
	r.source = fakeSource{name: "Road Trip", albums: threeAlbums()}

	var out bytes.Buffer
	res := r.plain(strings.NewReader("1\n1\n1\n"), &out)
	if res.err != nil {
		t.Fatalf("plain: %v", res.err)
	}
	if len(res.results) != 3 || res.session.Compared != 3 {
		t.Fatalf("results = %d, compared = %d", len(res.results), res.session.Compared)
	}

	got := out.String()
	for _, want := range []string{
		"Loaded 3 albums from Road Trip",
		"X (tracks: 4)",
		"Y (tracks: 5)",
		"Z (tracks: 6)",
		"Inserted: Y at position 1 of 2 | Progress: ",
		"Inserted: Z at position 1 of 3 | Progress: ",
	} {
		if !strings.Contains(got, want) {
			t.Errorf("output missing %q:\n%s", want, got)
		}
	}
	if n := strings.Count(got, "Inserted: "); n != 2 {
		t.Errorf("insertion reports = %d, want 2", n)
	}
	if strings.Index(got, "Z (tracks: 6)") > strings.Index(got, "=== Comparison") {
		t.Error("album list should come before the first question")
	}
}

func TestPlainFetchError(t *testing.T) {
	r := newTestRun(t)
	r.source = fakeSource{err: errors.New("401 unauthorized")}

	var out bytes.Buffer
	res := r.plain(strings.NewReader(""), &out)
	if res.err == nil || !strings.Contains(res.err.Error(), "401 unauthorized") {
		t.Fatalf("err = %v", res.err)
	}
	if out.Len() != 0 {
		t.Errorf("nothing should be printed before the fetch succeeds, got %q", out.String())
	}
}
