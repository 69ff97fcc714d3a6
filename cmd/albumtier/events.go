package main

import (
	"encoding/json"
	"flag"
	"fmt"
	"os"
	"strings"

	"github.com/abelbrown/albumtier/internal/otel"
)

func runEvents() {
	fs := flag.NewFlagSet("events", flag.ExitOnError)
	tail := fs.Int("tail", 50, "Number of recent lines to show")
	kind := fs.String("kind", "", "Filter by event kind prefix (e.g. 'rank')")
	level := fs.String("level", "", "Minimum level: debug, info, warn, error")
	session := fs.String("session", "", "Filter by session id")
	rawJSON := fs.Bool("json", false, "Output JSON lines")
	fs.Parse(os.Args[1:])

	cfg := loadConfig()
	logPath := cfg.EventsPath()

	f, err := os.Open(logPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		fmt.Fprintf(os.Stderr, "  Event log not found at %s\n", logPath)
		fmt.Fprintf(os.Stderr, "  Run 'albumtier rank' first to generate events.\n")
		os.Exit(1)
	}
	defer f.Close()

	var filters []otel.Filter
	if *kind != "" {
		filters = append(filters, otel.KindPrefix(*kind))
	}
	if *level != "" {
		filters = append(filters, otel.MinLevel(otel.Level(strings.ToLower(*level))))
	}
	if *session != "" {
		filters = append(filters, otel.Session(*session))
	}

	n := *tail
	if n < 1 {
		n = 1
	}
	ring := otel.NewRingBuffer(n)
	skipped, err := otel.ReadEvents(f, ring, filters...)
	if err != nil {
		fatalf("read %s: %v", logPath, err)
	}

	for _, ev := range ring.Last(n) {
		if *rawJSON {
			line, err := json.Marshal(ev)
			if err != nil {
				continue
			}
			fmt.Println(string(line))
			continue
		}
		fmt.Println(formatEvent(ev))
	}
	if skipped > 0 {
		fmt.Fprintf(os.Stderr, "(%d unreadable lines skipped)\n", skipped)
	}
}

func formatEvent(ev otel.Event) string {
	ts := ev.Time.Local().Format("15:04:05.000")
	lvl := strings.ToUpper(string(ev.Level))
	if lvl == "" {
		lvl = "?"
	}

	parts := []string{fmt.Sprintf("%s %-5s [%-7s] %-18s", ts, lvl, ev.Comp, ev.Kind)}

	if ev.Msg != "" {
		parts = append(parts, "- "+ev.Msg)
	}
	if ev.Album != "" {
		parts = append(parts, fmt.Sprintf("album=%q", ev.Album))
	}
	if ev.Versus != "" {
		parts = append(parts, fmt.Sprintf("vs=%q", ev.Versus))
	}
	if ev.Winner != "" {
		parts = append(parts, fmt.Sprintf("winner=%q", ev.Winner))
	}
	if ev.DurMs > 0 {
		parts = append(parts, fmt.Sprintf("(%.*fms)", durPrecision(ev.DurMs), ev.DurMs))
	}
	if ev.Count > 0 {
		parts = append(parts, fmt.Sprintf("n=%d", ev.Count))
	}
	if ev.Compared > 0 || ev.Estimated > 0 {
		parts = append(parts, fmt.Sprintf("cmp=%d/%d", ev.Compared, ev.Estimated))
	}
	if ev.Source != "" {
		parts = append(parts, "src="+ev.Source)
	}
	if ev.Err != "" {
		parts = append(parts, "err="+ev.Err)
	}

	return strings.Join(parts, " ")
}

func durPrecision(ms float64) int {
	if ms >= 100 {
		return 0
	}
	if ms >= 1 {
		return 1
	}
	return 2
}
