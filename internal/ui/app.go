package ui

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/bubbles/progress"
	"github.com/charmbracelet/bubbles/spinner"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/abelbrown/albumtier/internal/album"
	"github.com/abelbrown/albumtier/internal/otel"
	"github.com/abelbrown/albumtier/internal/ranking"
)

// App is the root Bubble Tea model for a ranking session.
// IMPORTANT: App never calls the engine. Questions arrive as CompareRequest
// messages and answers leave on the request's reply channel.
type App struct {
	events    *otel.Logger      // nil disables tracing
	ring      *otel.RingBuffer  // nil disables the debug overlay
	onInspect func(a, b album.Album)

	spinner  spinner.Model
	progress progress.Model

	status     string // shown while loading
	source     string
	albums     int
	estimated  int
	started    bool
	pending    *CompareRequest
	showTracks bool
	showDebug  bool
	lastInsert *ranking.Insertion

	done    bool
	aborted bool
	err     error
	width   int
	height  int
}

// NewApp creates an App that shows status until RankingStarted arrives.
// events and ring may be nil. onInspect, if set, is called each time the
// track lists are revealed.
func NewApp(status string, events *otel.Logger, ring *otel.RingBuffer, onInspect func(a, b album.Album)) App {
	s := spinner.New()
	s.Spinner = spinner.Dot
	s.Style = lipgloss.NewStyle().Foreground(colorHighlight)

	return App{
		events:    events,
		ring:      ring,
		onInspect: onInspect,
		spinner:   s,
		progress:  progress.New(progress.WithDefaultGradient(), progress.WithoutPercentage(), progress.WithWidth(40)),
		status:    status,
		width:     80,
		height:    24,
	}
}

// Init starts the loading spinner.
func (a App) Init() tea.Cmd {
	return a.spinner.Tick
}

// Update handles messages and returns the updated model and any commands.
func (a App) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	if a.events != nil && a.events.Tracing() {
		a.events.Trace("ui", fmt.Sprintf("%T", msg))
	}

	switch msg := msg.(type) {
	case tea.KeyMsg:
		return a.handleKeyMsg(msg)

	case tea.WindowSizeMsg:
		a.width = msg.Width
		a.height = msg.Height
		w := msg.Width - 4
		if w > 60 {
			w = 60
		}
		if w < 10 {
			w = 10
		}
		a.progress.Width = w
		return a, nil

	case spinner.TickMsg:
		if a.started || a.done {
			return a, nil
		}
		var cmd tea.Cmd
		a.spinner, cmd = a.spinner.Update(msg)
		return a, cmd

	case RankingStarted:
		a.started = true
		a.source = msg.Source
		a.albums = msg.Albums
		a.estimated = msg.Estimated
		return a, nil

	case CompareRequest:
		if a.aborted {
			msg.Reply <- CompareReply{Err: ranking.ErrCancelled}
			return a, nil
		}
		a.started = true
		a.pending = &msg
		a.showTracks = false
		return a, nil

	case AlbumInserted:
		ins := msg.Insertion
		a.lastInsert = &ins
		return a, nil

	case RankingDone:
		a.done = true
		a.err = msg.Err
		return a, tea.Quit
	}

	return a, nil
}

// handleKeyMsg processes keyboard input.
func (a App) handleKeyMsg(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.String() {
	case "q", "ctrl+c", "esc":
		a.aborted = true
		a.answer(CompareReply{Err: ranking.ErrCancelled})
		return a, tea.Quit

	case "D":
		if a.ring != nil {
			a.showDebug = !a.showDebug
		}
		return a, nil
	}

	if a.pending == nil {
		return a, nil
	}

	switch msg.String() {
	case "1", "left", "h":
		a.answer(CompareReply{Verdict: ranking.PreferFirst})
	case "2", "right", "l":
		a.answer(CompareReply{Verdict: ranking.PreferSecond})
	case "i", "t":
		a.showTracks = !a.showTracks
		if a.showTracks && a.onInspect != nil {
			a.onInspect(a.pending.A, a.pending.B)
		}
	}
	return a, nil
}

// answer replies to the pending request, if any. The reply channel is
// buffered so this never blocks.
func (a *App) answer(r CompareReply) {
	if a.pending == nil {
		return
	}
	a.pending.Reply <- r
	a.pending = nil
	a.showTracks = false
}

// View renders the UI.
func (a App) View() string {
	if a.showDebug {
		return debugOverlay(a.ring, a.width, a.height) + "\n" + debugStatusBar(a.width)
	}

	var b strings.Builder
	header := Title.Render("albumtier")
	if a.source != "" {
		header += " " + AlbumMeta.Render(a.source)
	}
	b.WriteString(header + "\n\n")

	switch {
	case a.err != nil:
		b.WriteString(ErrorStyle.Render("Error: "+a.err.Error()) + "\n")
	case a.done:
		b.WriteString("Ranking complete.\n")
	case !a.started:
		b.WriteString(" " + a.spinner.View() + " " + a.status + "\n")
	case a.pending == nil:
		b.WriteString(AlbumMeta.Render(" Placing album...") + "\n")
	default:
		b.WriteString(a.renderComparison())
	}

	b.WriteString("\n" + a.renderStatusBar())
	return b.String()
}

func (a App) renderComparison() string {
	p := a.pending.Progress
	pct := p.Percent() / 100
	if pct > 1 {
		pct = 1
	}

	var b strings.Builder
	b.WriteString(" " + a.progress.ViewAs(pct) + " ")
	b.WriteString(ProgressCount.Render(fmt.Sprintf("Comparison %d of ~%d (%d remaining)", p.Compared+1, p.Estimated, p.Remaining())))
	b.WriteString("\n\n Which album do you prefer?\n\n")

	left := renderCard("1", a.pending.A, a.showTracks)
	right := renderCard("2", a.pending.B, a.showTracks)
	b.WriteString(lipgloss.JoinHorizontal(lipgloss.Top, left, " ", right))
	b.WriteString("\n")

	if ins := a.lastInsert; ins != nil {
		note := fmt.Sprintf(" Placed %s at %d of %d | %.0f%% done", ins.Album.Name, ins.Position, ins.Length, min(ins.Progress.Percent(), 100))
		b.WriteString(InsertNote.Render(note) + "\n")
	}
	return b.String()
}

// renderCard draws one album of the comparison.
func renderCard(key string, al album.Album, showTracks bool) string {
	lines := []string{
		CardKey.Render(key),
		AlbumName.Render(al.Name),
	}
	if al.Artists != "" {
		lines = append(lines, AlbumArtists.Render(al.Artists))
	}
	lines = append(lines, AlbumMeta.Render(fmt.Sprintf("%d tracks in playlist", al.Count())))
	if al.URL != "" {
		lines = append(lines, AlbumMeta.Render(al.URL))
	}

	if showTracks {
		lines = append(lines, "")
		titles, more := al.Preview(album.PreviewLimit)
		for _, t := range titles {
			lines = append(lines, TrackLine.Render("- "+t))
		}
		if more > 0 {
			lines = append(lines, TrackLine.Render(fmt.Sprintf("...(+%d more)", more)))
		}
	}
	return AlbumCard.Render(strings.Join(lines, "\n"))
}

// renderStatusBar shows the position on the left and key hints on the right.
func (a App) renderStatusBar() string {
	left := " Loading... "
	if a.started {
		left = fmt.Sprintf(" %d albums ", a.albums)
	}

	keys := []string{
		StatusBarKey.Render("1/2") + StatusBarText.Render(":choose"),
		StatusBarKey.Render("i") + StatusBarText.Render(":tracks"),
	}
	if a.ring != nil {
		keys = append(keys, StatusBarKey.Render("D")+StatusBarText.Render(":debug"))
	}
	keys = append(keys, StatusBarKey.Render("q")+StatusBarText.Render(":quit"))
	hints := strings.Join(keys, " ")

	padding := a.width - lipgloss.Width(left) - lipgloss.Width(hints) - 2
	if padding < 0 {
		padding = 0
	}
	return StatusBar.Width(a.width).Render(left + strings.Repeat(" ", padding) + hints)
}

// Pending reports whether a question is waiting for an answer (for testing).
func (a App) Pending() bool {
	return a.pending != nil
}

// ShowingTracks reports whether track previews are visible (for testing).
func (a App) ShowingTracks() bool {
	return a.showTracks
}

// Aborted reports whether the operator quit.
func (a App) Aborted() bool {
	return a.aborted
}

// Err returns the error the ranking finished with, if any.
func (a App) Err() error {
	return a.err
}
