// Command albumtier ranks the albums of a playlist by pairwise preference
// and turns the order into review-style scores.
//
// Usage:
//
//	albumtier                 Show help
//	albumtier rank            Rank a Spotify playlist interactively
//	albumtier rescore         Re-score a saved ranking with new thresholds
//	albumtier sessions        List completed ranking sessions
//	albumtier events          JSONL event log viewer
package main

import (
	"fmt"
	"os"
)

const usage = `albumtier: rank albums by pairwise preference and score them

Usage:
  albumtier <command> [flags]

Commands:
  rank        Rank the albums of a Spotify playlist (TUI, or --plain prompt)
  rescore     Re-score a ranking from a CSV file or a saved session
  sessions    List completed ranking sessions
  events      JSONL event log viewer

Environment:
  SPOTIFY_CLIENT_ID       Spotify app client id (client-credentials auth)
  SPOTIFY_CLIENT_SECRET   Spotify app client secret
  SPOTIFY_ACCESS_TOKEN    User token, needed for private playlists
  ALBUMTIER_CONFIG        Config file (default: ~/.albumtier/config.yaml)
  ALBUMTIER_TRACE         Log every TUI message to the event log

Run 'albumtier <command> -h' for command-specific help.
`

func main() {
	if len(os.Args) < 2 {
		fmt.Print(usage)
		os.Exit(0)
	}

	cmd := os.Args[1]
	// Strip the program name + subcommand so flag sets see only their flags
	os.Args = os.Args[1:]

	switch cmd {
	case "rank":
		runRank()
	case "rescore":
		runRescore()
	case "sessions":
		runSessions()
	case "events":
		runEvents()
	case "-h", "--help", "help":
		fmt.Print(usage)
	default:
		fmt.Fprintf(os.Stderr, "albumtier: unknown command %q\n\n", cmd)
		fmt.Print(usage)
		os.Exit(1)
	}
}
