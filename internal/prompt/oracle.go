// Package prompt implements a line-based Oracle for terminals without the TUI.
package prompt

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"strings"

	"github.com/abelbrown/albumtier/internal/album"
	"github.com/abelbrown/albumtier/internal/ranking"
)

// Oracle asks preference questions on a plain reader/writer pair.
// Input "1" or "2" answers, "i" prints track previews, "q" cancels the
// session. Anything else re-prompts.
type Oracle struct {
	in  *bufio.Reader
	out io.Writer

	// OnInspect, if set, is called each time track previews are shown.
	OnInspect func(a, b album.Album)
}

// NewOracle creates an Oracle reading answers from r and writing prompts to w.
func NewOracle(r io.Reader, w io.Writer) *Oracle {
	return &Oracle{in: bufio.NewReader(r), out: w}
}

// Prefer implements ranking.Oracle. End of input cancels the session.
func (o *Oracle) Prefer(ctx context.Context, a, b album.Album, p ranking.Progress) (ranking.Verdict, error) {
	for {
		if err := ctx.Err(); err != nil {
			return 0, err
		}

		fmt.Fprintf(o.out, "\n=== Comparison %d/%d (%d remaining) ===\n", p.Compared+1, p.Estimated, p.Remaining())
		fmt.Fprintln(o.out, "Which album do you prefer?")
		fmt.Fprintln(o.out, " [1]")
		writeAlbum(o.out, a)
		fmt.Fprintln(o.out, " [2]")
		writeAlbum(o.out, b)
		fmt.Fprint(o.out, "Choose 1/2 (or 'i' for track list, 'q' to quit): ")

		line, err := o.in.ReadString('\n')
		if err != nil && line == "" {
			if err == io.EOF {
				return 0, ranking.ErrCancelled
			}
			return 0, fmt.Errorf("read answer: %w", err)
		}

		switch strings.ToLower(strings.TrimSpace(line)) {
		case "1":
			return ranking.PreferFirst, nil
		case "2":
			return ranking.PreferSecond, nil
		case "i":
			fmt.Fprintln(o.out, "\n--- Track snippets from this playlist ---")
			writePreview(o.out, a)
			fmt.Fprintln(o.out)
			writePreview(o.out, b)
			fmt.Fprintln(o.out, "-----------------------------------------")
			if o.OnInspect != nil {
				o.OnInspect(a, b)
			}
		case "q":
			return 0, ranking.ErrCancelled
		default:
			fmt.Fprintln(o.out, "Invalid input. Try again.")
		}
	}
}

func writeAlbum(w io.Writer, a album.Album) {
	fmt.Fprintf(w, "  %s  (tracks in playlist: %d)\n", a.Label(), a.Count())
	if a.URL != "" {
		fmt.Fprintf(w, "  %s\n", a.URL)
	}
}

func writePreview(w io.Writer, a album.Album) {
	fmt.Fprintf(w, "%s:\n", a.Name)
	titles, more := a.Preview(album.PreviewLimit)
	for _, t := range titles {
		fmt.Fprintf(w, "   - %s\n", t)
	}
	if more > 0 {
		fmt.Fprintf(w, "   ...(+%d more)\n", more)
	}
}
