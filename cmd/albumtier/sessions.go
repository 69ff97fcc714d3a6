package main

import (
	"errors"
	"flag"
	"fmt"
	"os"
	"time"

	"github.com/dustin/go-humanize"

	"github.com/abelbrown/albumtier/internal/store"
	"github.com/abelbrown/albumtier/internal/ui"
)

func runSessions() {
	fs := flag.NewFlagSet("sessions", flag.ExitOnError)
	limit := fs.Int("limit", 20, "Number of recent sessions to list")
	show := fs.String("show", "", "Print the tier list and verdicts of a session")
	del := fs.String("delete", "", "Delete a session and its results")
	fs.Parse(os.Args[1:])

	cfg := loadConfig()
	st := openStore(cfg)
	defer st.Close()

	switch {
	case *show != "":
		showSession(st, *show)
	case *del != "":
		if err := st.DeleteSession(*del); err != nil {
			sessionFatal(*del, err)
		}
		fmt.Printf("Deleted session %s\n", *del)
	default:
		listSessions(st, *limit)
	}
}

func listSessions(st *store.Store, limit int) {
	sessions, err := st.ListSessions(limit)
	if err != nil {
		fatalf("list sessions: %v", err)
	}
	if len(sessions) == 0 {
		fmt.Println("No saved sessions. Run 'albumtier rank' first.")
		return
	}

	for _, s := range sessions {
		name := s.SourceName
		if name == "" {
			name = s.Source
		}
		fmt.Printf("%-36s  %-30s  %3d albums  %4d comparisons  %s\n",
			s.ID, truncate(name, 30), s.Albums, s.Comparisons, humanize.Time(s.FinishedAt))
	}
}

func showSession(st *store.Store, id string) {
	sess, err := st.GetSession(id)
	if err != nil {
		sessionFatal(id, err)
	}
	results, err := st.GetResults(id)
	if err != nil {
		sessionFatal(id, err)
	}
	verdicts, err := st.GetVerdicts(id)
	if err != nil {
		sessionFatal(id, err)
	}

	name := sess.SourceName
	if name == "" {
		name = sess.Source
	}
	fmt.Printf("%s, finished %s (%s)\n", name, humanize.Time(sess.FinishedAt), sess.FinishedAt.Local().Format("2006-01-02 15:04"))
	fmt.Printf("%d albums, %d comparisons (estimated %d), took %s\n",
		sess.Albums, sess.Comparisons, sess.Estimated, sess.FinishedAt.Sub(sess.StartedAt).Round(time.Second))
	fmt.Printf("Thresholds: %s\n\n", sess.Thresholds)
	fmt.Print(ui.RenderResults(results))

	if len(verdicts) == 0 {
		return
	}
	labels := make(map[string]string, len(results))
	for _, r := range results {
		labels[r.Album.ID] = r.Album.Name
	}
	fmt.Println("\nVerdicts:")
	for _, v := range verdicts {
		fmt.Printf("  %3d. %s vs %s -> %s\n", v.Seq, labelOr(labels, v.FirstID), labelOr(labels, v.SecondID), labelOr(labels, v.WinnerID))
	}
}

func sessionFatal(id string, err error) {
	if errors.Is(err, store.ErrNotFound) {
		fatalf("no session %q", id)
	}
	fatalf("session %s: %v", id, err)
}

func labelOr(labels map[string]string, id string) string {
	if l, ok := labels[id]; ok {
		return l
	}
	return id
}

// truncate shortens a string to n runes, appending "..." if truncated.
// Below four runes there is no room for the ellipsis and s is cut short.
func truncate(s string, n int) string {
	runes := []rune(s)
	if len(runes) <= n {
		return s
	}
	if n < 4 {
		return string(runes[:max(n, 0)])
	}
	return string(runes[:n-3]) + "..."
}
