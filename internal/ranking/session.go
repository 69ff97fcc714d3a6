package ranking

import (
	"math/bits"

	"github.com/abelbrown/albumtier/internal/album"
)

// EstimateComparisons returns the comparisons binary insertion needs for n
// items in the worst case: the sum of ceil(log2 i) for i = 2..n.
// Used for progress display only.
func EstimateComparisons(n int) int {
	if n <= 1 {
		return 0
	}
	total := 0
	for i := 2; i <= n; i++ {
		// ceil(log2 i) == bit length of i-1 for i >= 2
		total += bits.Len(uint(i - 1))
	}
	return total
}

// Session holds the counters of one ranking run.
type Session struct {
	Compared  int
	Estimated int
}

// Progress is a read-only snapshot of a Session handed to the Oracle.
type Progress struct {
	Compared  int
	Estimated int
}

// Progress returns a snapshot of the counters.
func (s *Session) Progress() Progress {
	return Progress{Compared: s.Compared, Estimated: s.Estimated}
}

// Remaining is the estimated number of questions left, never negative.
// Inconsistent answers can push Compared past the estimate.
func (p Progress) Remaining() int {
	if r := p.Estimated - p.Compared; r > 0 {
		return r
	}
	return 0
}

// Percent is Compared/Estimated as a percentage; 100 when nothing is estimated.
func (p Progress) Percent() float64 {
	if p.Estimated <= 0 {
		return 100
	}
	return float64(p.Compared) / float64(p.Estimated) * 100
}

// Insertion reports where an album landed after its binary search.
type Insertion struct {
	Album    album.Album
	Position int // 1-based position in the ranked list
	Length   int // ranked list length after the insertion
	Progress Progress
}

// Judgment records one verdict for the session audit log.
type Judgment struct {
	Seq    int // 1-based comparison number
	First  album.Album
	Second album.Album
	Winner Verdict
}

// WinnerID returns the id of the preferred album.
func (j Judgment) WinnerID() string {
	if j.Winner == PreferFirst {
		return j.First.ID
	}
	return j.Second.ID
}
