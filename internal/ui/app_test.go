package ui

import (
	"errors"
	"strings"
	"testing"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/abelbrown/albumtier/internal/album"
	"github.com/abelbrown/albumtier/internal/ranking"
)

func key(s string) tea.KeyMsg {
	return tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune(s)}
}

func testAlbums() (album.Album, album.Album) {
	a := album.Album{ID: "a", Name: "Blue", Artists: "Joni Mitchell", Tracks: album.PlaceholderTracks(12)}
	b := album.Album{ID: "b", Name: "Hejira", Artists: "Joni Mitchell", Tracks: album.PlaceholderTracks(3)}
	return a, b
}

// request builds a CompareRequest and returns the channel its answer lands on.
func request() (CompareRequest, chan CompareReply) {
	a, b := testAlbums()
	reply := make(chan CompareReply, 1)
	return CompareRequest{A: a, B: b, Progress: ranking.Progress{Compared: 2, Estimated: 8}, Reply: reply}, reply
}

func update(t *testing.T, a App, msg tea.Msg) (App, tea.Cmd) {
	t.Helper()
	m, cmd := a.Update(msg)
	app, ok := m.(App)
	if !ok {
		t.Fatalf("Update returned %T, want App", m)
	}
	return app, cmd
}

func isQuit(cmd tea.Cmd) bool {
	if cmd == nil {
		return false
	}
	_, ok := cmd().(tea.QuitMsg)
	return ok
}

func TestAppInit(t *testing.T) {
	app := NewApp("Fetching playlist...", nil, nil, nil)
	if app.Init() == nil {
		t.Fatal("Init should start the spinner")
	}
	if !strings.Contains(app.View(), "Fetching playlist...") {
		t.Error("View should show the loading status before ranking starts")
	}
}

func TestAppAnswers(t *testing.T) {
	tests := []struct {
		key  tea.KeyMsg
		want ranking.Verdict
	}{
		{key("1"), ranking.PreferFirst},
		{key("h"), ranking.PreferFirst},
		{tea.KeyMsg{Type: tea.KeyLeft}, ranking.PreferFirst},
		{key("2"), ranking.PreferSecond},
		{key("l"), ranking.PreferSecond},
		{tea.KeyMsg{Type: tea.KeyRight}, ranking.PreferSecond},
	}
	for _, tt := range tests {
		t.Run(tt.key.String(), func(t *testing.T) {
			app := NewApp("", nil, nil, nil)
			req, reply := request()
			app, _ = update(t, app, req)
			if !app.Pending() {
				t.Fatal("request should be pending")
			}

			app, cmd := update(t, app, tt.key)
			if cmd != nil {
				t.Error("answering should not issue a command")
			}
			if app.Pending() {
				t.Error("request should be cleared after answering")
			}
			select {
			case r := <-reply:
				if r.Err != nil || r.Verdict != tt.want {
					t.Errorf("reply = %+v, want verdict %v", r, tt.want)
				}
			default:
				t.Fatal("no reply sent")
			}
		})
	}
}

func TestAppIgnoresKeysWithoutRequest(t *testing.T) {
	app := NewApp("", nil, nil, nil)
	app, cmd := update(t, app, key("1"))
	if cmd != nil || app.Pending() {
		t.Error("keys without a pending request should be ignored")
	}
}

func TestAppInvalidKeyKeepsRequest(t *testing.T) {
	app := NewApp("", nil, nil, nil)
	req, reply := request()
	app, _ = update(t, app, req)
	app, _ = update(t, app, key("x"))

	if !app.Pending() {
		t.Error("unrelated key should leave the request pending")
	}
	if len(reply) != 0 {
		t.Error("unrelated key should not reply")
	}
}

func TestAppInspect(t *testing.T) {
	var inspected []string
	app := NewApp("", nil, nil, func(a, b album.Album) {
		inspected = append(inspected, a.ID+b.ID)
	})
	req, reply := request()
	app, _ = update(t, app, req)

	app, _ = update(t, app, key("i"))
	if !app.ShowingTracks() {
		t.Fatal("i should reveal track lists")
	}
	view := app.View()
	if !strings.Contains(view, "Track 10") || strings.Contains(view, "Track 11") {
		t.Errorf("view should preview the first 10 tracks:\n%s", view)
	}
	if !strings.Contains(view, "...(+2 more)") {
		t.Errorf("view should note hidden tracks:\n%s", view)
	}

	app, _ = update(t, app, key("i"))
	if app.ShowingTracks() {
		t.Error("second i should hide track lists")
	}
	if len(inspected) != 1 || inspected[0] != "ab" {
		t.Errorf("onInspect calls = %v, want [ab]", inspected)
	}
	if len(reply) != 0 || !app.Pending() {
		t.Error("inspecting should not answer the request")
	}

	app, _ = update(t, app, key("i"))
	app, _ = update(t, app, key("2"))
	<-reply
	if app.ShowingTracks() {
		t.Error("answering should reset the track view")
	}
}

func TestAppQuitCancelsPending(t *testing.T) {
	for _, k := range []tea.KeyMsg{key("q"), {Type: tea.KeyCtrlC}, {Type: tea.KeyEsc}} {
		t.Run(k.String(), func(t *testing.T) {
			app := NewApp("", nil, nil, nil)
			req, reply := request()
			app, _ = update(t, app, req)

			app, cmd := update(t, app, k)
			if !isQuit(cmd) {
				t.Error("quit key should return tea.Quit")
			}
			if !app.Aborted() {
				t.Error("app should be marked aborted")
			}
			r := <-reply
			if !errors.Is(r.Err, ranking.ErrCancelled) {
				t.Errorf("reply err = %v, want ErrCancelled", r.Err)
			}
		})
	}
}

func TestAppRequestAfterAbort(t *testing.T) {
	app := NewApp("", nil, nil, nil)
	app, _ = update(t, app, key("q"))

	req, reply := request()
	app, _ = update(t, app, req)
	if app.Pending() {
		t.Error("requests after abort should not be held")
	}
	r := <-reply
	if !errors.Is(r.Err, ranking.ErrCancelled) {
		t.Errorf("reply err = %v, want ErrCancelled", r.Err)
	}
}

func TestAppRankingDone(t *testing.T) {
	app := NewApp("", nil, nil, nil)
	app, cmd := update(t, app, RankingDone{})
	if !isQuit(cmd) {
		t.Error("RankingDone should quit")
	}
	if app.Err() != nil {
		t.Errorf("Err() = %v", app.Err())
	}

	boom := errors.New("fetch failed")
	app = NewApp("", nil, nil, nil)
	app, _ = update(t, app, RankingDone{Err: boom})
	if !errors.Is(app.Err(), boom) {
		t.Errorf("Err() = %v, want %v", app.Err(), boom)
	}
	if !strings.Contains(app.View(), "fetch failed") {
		t.Error("view should show the error")
	}
}

func TestAppViewComparison(t *testing.T) {
	app := NewApp("", nil, nil, nil)
	app, _ = update(t, app, RankingStarted{Source: "Road Trip", Albums: 5, Estimated: 8})
	req, _ := request()
	app, _ = update(t, app, req)
	a, _ := testAlbums()
	app, _ = update(t, app, AlbumInserted{Insertion: ranking.Insertion{
		Album: a, Position: 2, Length: 3,
		Progress: ranking.Progress{Compared: 2, Estimated: 8},
	}})

	view := app.View()
	for _, want := range []string{
		"Road Trip",
		"Comparison 3 of ~8 (6 remaining)",
		"Which album do you prefer?",
		"Blue",
		"Hejira",
		"12 tracks in playlist",
		"Placed Blue at 2 of 3 | 25% done",
		"5 albums",
	} {
		if !strings.Contains(view, want) {
			t.Errorf("view missing %q:\n%s", want, view)
		}
	}
}

func TestAppWindowResize(t *testing.T) {
	app := NewApp("", nil, nil, nil)
	app, _ = update(t, app, tea.WindowSizeMsg{Width: 120, Height: 40})
	if app.width != 120 || app.height != 40 {
		t.Errorf("size = %dx%d, want 120x40", app.width, app.height)
	}
	if app.progress.Width != 60 {
		t.Errorf("progress width = %d, want capped at 60", app.progress.Width)
	}
}
