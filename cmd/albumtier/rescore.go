package main

import (
	"errors"
	"flag"
	"fmt"
	"os"
	"strings"

	"github.com/abelbrown/albumtier/internal/album"
	"github.com/abelbrown/albumtier/internal/config"
	"github.com/abelbrown/albumtier/internal/export"
	"github.com/abelbrown/albumtier/internal/logging"
	"github.com/abelbrown/albumtier/internal/otel"
	"github.com/abelbrown/albumtier/internal/pipeline"
	"github.com/abelbrown/albumtier/internal/store"
	"github.com/abelbrown/albumtier/internal/ui"
)

func runRescore() {
	fs := flag.NewFlagSet("rescore", flag.ExitOnError)
	csvPath := fs.String("csv", "", "CSV file from an earlier ranking (default: the single *.csv here)")
	sessionID := fs.String("session", "", "Saved session id (see 'albumtier sessions')")
	outPath := fs.String("out", "", "Write the rescored tier list to this CSV file")
	verbose := fs.Bool("verbose", false, "Log to stderr instead of the log file")
	sf := addScoringFlags(fs)
	fs.Parse(os.Args[1:])

	if *csvPath != "" && *sessionID != "" {
		fatalf("use either --csv or --session, not both")
	}

	cfg := loadConfig()
	sf.apply(cfg)

	events, stop := startLogging(cfg, *verbose)
	defer stop()
	res := resolver(cfg, events)

	var albums []album.Album
	if *sessionID != "" {
		albums = loadSession(cfg, *sessionID, stop)
	} else {
		albums = loadCSV(*csvPath, events, stop)
	}

	if len(albums) == 0 {
		fmt.Println("Nothing to rescore.")
		return
	}

	fmt.Println("Current order:")
	fmt.Print(ui.RenderOrder(albums))

	results := pipeline.Score(albums, res)
	events.Scope("score", *sessionID).Emit(otel.Event{Level: otel.LevelInfo, Kind: otel.KindScoreComplete, Count: len(results), Msg: res.Thresholds.String()})
	logging.Info("rescored", "albums", len(results), "thresholds", res.Thresholds.String())

	fmt.Printf("\nRescored with %s:\n\n", res.Thresholds.String())
	fmt.Print(ui.RenderResults(results))

	if *outPath != "" {
		if err := export.WriteFile(*outPath, results); err != nil {
			stop()
			fatalf("export csv: %v", err)
		}
		events.Scope("export", *outPath).Emit(otel.Event{Level: otel.LevelInfo, Kind: otel.KindCSVWrite, Count: len(results)})
		fmt.Printf("\nSaved %s\n", *outPath)
	}
}

func loadSession(cfg *config.Config, id string, stop func()) []album.Album {
	st := openStore(cfg)
	defer st.Close()

	results, err := st.GetResults(id)
	if err != nil {
		stop()
		if errors.Is(err, store.ErrNotFound) {
			fatalf("no session %q (see 'albumtier sessions')", id)
		}
		fatalf("load session: %v", err)
	}
	return pipeline.Albums(results)
}

// loadCSV reads path, or picks the only CSV file in the working directory.
func loadCSV(path string, events *otel.Logger, stop func()) []album.Album {
	if path == "" {
		candidates, err := export.FindCSV(".")
		if err != nil {
			stop()
			fatalf("find csv files: %v", err)
		}
		switch len(candidates) {
		case 0:
			stop()
			fatalf("no CSV file found here; pass --csv or --session")
		case 1:
			path = candidates[0]
			fmt.Printf("Using: %s\n", path)
		default:
			stop()
			fatalf("several CSV files found (%s); pass one with --csv", strings.Join(candidates, ", "))
		}
	}

	albums, warnings, err := export.ReadFile(path)
	if err != nil {
		stop()
		fatalf("%v", err)
	}
	csvEvents := events.Scope("export", path)
	for _, w := range warnings {
		fmt.Fprintf(os.Stderr, "warning: %s: %v\n", path, w)
		csvEvents.Emit(otel.Event{Level: otel.LevelWarn, Kind: otel.KindCSVSkip, Err: w.Error()})
	}
	csvEvents.Emit(otel.Event{Level: otel.LevelInfo, Kind: otel.KindCSVRead, Count: len(albums)})
	fmt.Printf("Loaded %d albums from %s\n", len(albums), path)
	return albums
}
