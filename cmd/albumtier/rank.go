package main

import (
	"bufio"
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"os"
	"strings"
	"time"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/abelbrown/albumtier/internal/album"
	"github.com/abelbrown/albumtier/internal/config"
	"github.com/abelbrown/albumtier/internal/export"
	"github.com/abelbrown/albumtier/internal/logging"
	"github.com/abelbrown/albumtier/internal/metrics"
	"github.com/abelbrown/albumtier/internal/otel"
	"github.com/abelbrown/albumtier/internal/pipeline"
	"github.com/abelbrown/albumtier/internal/prompt"
	"github.com/abelbrown/albumtier/internal/ranking"
	"github.com/abelbrown/albumtier/internal/scoring"
	"github.com/abelbrown/albumtier/internal/spotify"
	"github.com/abelbrown/albumtier/internal/store"
	"github.com/abelbrown/albumtier/internal/ui"
)

func runRank() {
	fs := flag.NewFlagSet("rank", flag.ExitOnError)
	playlist := fs.String("playlist", "", "Spotify playlist link, URI or id (default: config playlist)")
	minTracks := fs.Int("min-tracks", 0, fmt.Sprintf("Minimum playlist tracks per album (default: config, %d)", config.DefaultMinTracks))
	plain := fs.Bool("plain", false, "Ask questions on stdin/stdout instead of the TUI")
	csvOut := fs.String("csv", "", "Also write the tier list to this CSV file")
	noSave := fs.Bool("no-save", false, "Do not record the session in the history database")
	verbose := fs.Bool("verbose", false, "Log to stderr instead of the log file (implies --plain)")
	sf := addScoringFlags(fs)
	fs.Parse(os.Args[1:])

	cfg := loadConfig()
	sf.apply(cfg)
	if *minTracks != 0 {
		cfg.MinTracks = *minTracks
		if errs := cfg.Validate(); len(errs) > 0 {
			fatalf("%v", errs[0])
		}
	}
	if *verbose {
		// stderr logging would tear the alt screen
		*plain = true
	}

	stdin := bufio.NewReader(os.Stdin)
	link := *playlist
	if link == "" {
		link = fs.Arg(0)
	}
	if link == "" {
		link = cfg.Playlist
	}
	if link == "" {
		fmt.Print("Spotify playlist link: ")
		line, _ := stdin.ReadString('\n')
		link = strings.TrimSpace(line)
	}
	id := spotify.ParsePlaylistID(link)
	if id == "" {
		fatalf("no playlist given (use --playlist or set playlist in %s)", config.DefaultPath())
	}

	events, stop := startLogging(cfg, *verbose)
	defer stop()

	m := metrics.New()
	client, err := spotify.NewClient(context.Background(), spotify.CredentialsFromEnv())
	if err != nil {
		stop()
		if errors.Is(err, spotify.ErrNoCredentials) {
			fatalf("%v\n  export SPOTIFY_CLIENT_ID and SPOTIFY_CLIENT_SECRET, or SPOTIFY_ACCESS_TOKEN", err)
		}
		fatalf("spotify client: %v", err)
	}
	client.OnResponse = m.ObserveSpotifyResponse

	run := &rankRun{
		cfg:        cfg,
		source:     client,
		events:     events,
		metrics:    m,
		resolver:   resolver(cfg, events),
		playlistID: id,
	}

	var out rankOutcome
	if *plain {
		out = run.plain(stdin, os.Stdout)
	} else {
		out = run.tui()
	}

	if err := run.finish(out, *csvOut, !*noSave); err != nil {
		stop()
		fatalf("%v", err)
	}
}

// playlistSource is the part of spotify.Client a ranking needs.
type playlistSource interface {
	Playlist(ctx context.Context, id string) (spotify.Playlist, error)
	Albums(ctx context.Context, playlistID string, minTracks int) ([]album.Album, error)
}

// rankRun carries the collaborators of one rank command.
type rankRun struct {
	cfg        *config.Config
	source     playlistSource
	events     *otel.Logger
	metrics    *metrics.Metrics
	resolver   scoring.Resolver
	playlistID string

	playlist spotify.Playlist
	started  time.Time
	verdicts []ranking.Judgment // appended on the engine goroutine only

	// Optional notifications for the active front end.
	onLoaded   func(albums []album.Album, estimated int)
	onInserted func(ranking.Insertion)
}

type rankOutcome struct {
	results []pipeline.Result
	session *ranking.Session
	aborted bool
	err     error
}

// tui runs the ranking behind the bubbletea screen. The engine runs on its
// own goroutine and talks to the App through ui.Oracle.
func (r *rankRun) tui() rankOutcome {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	ring := otel.NewRingBuffer(otel.DefaultRingSize)
	r.events.SetRingBuffer(ring)

	app := ui.NewApp("Fetching playlist...", r.events, ring, r.inspect)
	p := tea.NewProgram(app, tea.WithAltScreen())

	r.onLoaded = func(albums []album.Album, estimated int) {
		p.Send(ui.RankingStarted{Source: r.sourceName(), Albums: len(albums), Estimated: estimated})
	}
	r.onInserted = func(ins ranking.Insertion) {
		p.Send(ui.AlbumInserted{Insertion: ins})
	}

	done := make(chan rankOutcome, 1)
	go func() {
		out := r.rank(ctx, ui.NewOracle(p))
		p.Send(ui.RankingDone{Err: out.err})
		done <- out
	}()

	final, err := p.Run()
	// unblocks the engine if the screen went away mid-question
	cancel()
	out := <-done

	if err != nil {
		logging.Error("tui exited", "err", err)
		r.events.Scope("ui", "").Error(otel.KindError, err)
		if out.err == nil {
			out.err = fmt.Errorf("run tui: %w", err)
		}
	}
	if app, ok := final.(ui.App); ok && app.Aborted() {
		out.aborted = true
	}
	return out
}

// plain runs the ranking with the line-oriented prompt.
func (r *rankRun) plain(in io.Reader, w io.Writer) rankOutcome {
	o := prompt.NewOracle(in, w)
	o.OnInspect = r.inspect

	r.onLoaded = func(albums []album.Album, estimated int) {
		fmt.Fprintf(w, "Loaded %d albums from %s (about %d comparisons)\n\n", len(albums), r.sourceName(), estimated)
		fmt.Fprint(w, ui.RenderOrder(albums))
	}
	r.onInserted = func(ins ranking.Insertion) {
		fmt.Fprintf(w, "Inserted: %s at position %d of %d | Progress: %.0f%%\n",
			ins.Album.Label(), ins.Position, ins.Length, min(ins.Progress.Percent(), 100))
	}
	return r.rank(context.Background(), o)
}

// rank fetches the playlist and runs the engine under o.
func (r *rankRun) rank(ctx context.Context, o ranking.Oracle) rankOutcome {
	albums, err := r.fetch(ctx)
	if err != nil {
		return rankOutcome{err: err}
	}
	if r.onLoaded != nil {
		r.onLoaded(albums, ranking.EstimateComparisons(len(albums)))
	}

	r.started = time.Now()
	results, sess, err := pipeline.Run(ctx, r.engine(o), albums, r.resolver)
	return rankOutcome{results: results, session: sess, err: err}
}

func (r *rankRun) fetch(ctx context.Context) ([]album.Album, error) {
	start := time.Now()
	fetchEvents := r.events.Scope("spotify", r.playlistID)
	fetchEvents.Emit(otel.Event{Level: otel.LevelInfo, Kind: otel.KindFetchStart})
	logging.Info("fetching playlist", "id", r.playlistID, "min_tracks", r.cfg.MinTracks)

	pl, err := r.source.Playlist(ctx, r.playlistID)
	if err != nil {
		r.fetchFailed(err)
		return nil, fmt.Errorf("fetch playlist %s: %w", r.playlistID, err)
	}
	r.playlist = pl

	albums, err := r.source.Albums(ctx, r.playlistID, r.cfg.MinTracks)
	if err != nil {
		r.fetchFailed(err)
		return nil, fmt.Errorf("fetch playlist tracks: %w", err)
	}

	fetchEvents.Emit(otel.Event{
		Level: otel.LevelInfo,
		Kind:  otel.KindFetchComplete,
		Count: len(albums),
		Dur:   time.Since(start),
		Msg:   pl.Name,
	})
	logging.Info("playlist fetched", "name", pl.Name, "albums", len(albums), "dur", time.Since(start))
	return albums, nil
}

func (r *rankRun) fetchFailed(err error) {
	if errors.Is(err, context.Canceled) {
		return
	}
	r.events.Scope("spotify", r.playlistID).Error(otel.KindFetchError, err)
	logging.Error("fetch failed", "id", r.playlistID, "err", err)
}

// engine wires the ranking hooks into events, metrics and the verdict log.
func (r *rankRun) engine(o ranking.Oracle) *ranking.Engine {
	track := r.events.Ranking(r.playlistID)
	e := ranking.NewEngine(o)
	e.OnStart = track.Started
	e.OnJudgment = func(j ranking.Judgment) {
		r.verdicts = append(r.verdicts, j)
		r.metrics.IncComparisons()
		track.Judged(j)
	}
	e.OnInsert = func(ins ranking.Insertion) {
		track.Inserted(ins)
		if r.onInserted != nil {
			r.onInserted(ins)
		}
	}
	return e
}

// inspect records a track preview. Called from the front end's goroutine.
func (r *rankRun) inspect(a, b album.Album) {
	r.metrics.IncInspections()
	r.events.Ranking(r.playlistID).Inspected(a, b)
}

func (r *rankRun) sourceName() string {
	if r.playlist.Name != "" {
		return r.playlist.Name
	}
	return r.playlistID
}

// finish reports the outcome, then exports and records completed sessions.
func (r *rankRun) finish(out rankOutcome, csvPath string, save bool) error {
	elapsed := time.Since(r.started)
	track := r.events.Ranking(r.playlistID)
	defer writeMetrics(r.cfg, r.metrics)

	if out.aborted || errors.Is(out.err, ranking.ErrCancelled) || errors.Is(out.err, context.Canceled) {
		compared := 0
		if out.session != nil {
			compared = out.session.Compared
		}
		track.Aborted(compared)
		logging.Info("ranking aborted", "compared", compared)
		r.metrics.ObserveSession(metrics.OutcomeAborted, elapsed)
		fmt.Println("Aborted.")
		return nil
	}
	if out.err != nil {
		track.Error(otel.KindError, out.err)
		r.metrics.ObserveSession(metrics.OutcomeError, elapsed)
		return out.err
	}

	if len(out.results) == 0 {
		fmt.Printf("No albums with at least %d tracks in %s.\n", r.cfg.MinTracks, r.sourceName())
		return nil
	}

	track.Completed(len(out.results), out.session, elapsed)
	track.Scored(len(out.results), r.resolver.Thresholds.String())
	logging.Info("ranking complete", "albums", len(out.results), "compared", out.session.Compared, "dur", elapsed)

	fmt.Printf("\nFinal tier list: %s (%d comparisons)\n\n", r.sourceName(), out.session.Compared)
	fmt.Print(ui.RenderResults(out.results))

	if csvPath != "" {
		if err := export.WriteFile(csvPath, out.results); err != nil {
			r.metrics.ObserveSession(metrics.OutcomeError, elapsed)
			return fmt.Errorf("export csv: %w", err)
		}
		r.events.Scope("export", csvPath).Emit(otel.Event{Level: otel.LevelInfo, Kind: otel.KindCSVWrite, Count: len(out.results)})
		fmt.Printf("\nSaved %s\n", csvPath)
	}

	if save {
		r.save(out)
	}
	r.metrics.ObserveSession(metrics.OutcomeComplete, elapsed)
	return nil
}

// save records the session. A failure is reported but does not lose the
// printed or exported results.
func (r *rankRun) save(out rankOutcome) {
	st := openStore(r.cfg)
	defer st.Close()

	id, err := st.SaveSession(store.Session{
		ID:          r.events.SessionID(),
		Source:      r.playlistID,
		SourceName:  r.playlist.Name,
		StartedAt:   r.started,
		FinishedAt:  time.Now(),
		Albums:      len(out.results),
		Comparisons: out.session.Compared,
		Estimated:   out.session.Estimated,
		Thresholds:  r.resolver.Thresholds.String(),
	}, out.results, r.verdicts)
	if err != nil {
		r.events.Scope("store", "").Error(otel.KindStoreError, err)
		logging.Error("save session failed", "err", err)
		fmt.Fprintf(os.Stderr, "warning: session not saved: %v\n", err)
		return
	}
	r.events.Scope("store", r.playlistID).Emit(otel.Event{Level: otel.LevelInfo, Kind: otel.KindStoreSave, Count: len(out.results), Msg: id})
	fmt.Printf("Session %s saved.\n", id)
}
