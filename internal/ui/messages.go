// Package ui provides the Bubble Tea TUI that asks the ranking questions.
package ui

import (
	"github.com/abelbrown/albumtier/internal/album"
	"github.com/abelbrown/albumtier/internal/ranking"
)

// CompareRequest is sent by the Oracle when the engine needs a verdict.
// The App answers exactly once on Reply.
type CompareRequest struct {
	A, B     album.Album
	Progress ranking.Progress
	Reply    chan<- CompareReply
}

// CompareReply carries the operator's answer back to the engine.
type CompareReply struct {
	Verdict ranking.Verdict
	Err     error // ranking.ErrCancelled when the operator quits
}

// AlbumInserted is sent after each insertion so the screen can show where
// the last album landed.
type AlbumInserted struct {
	Insertion ranking.Insertion
}

// RankingStarted is sent once the albums are loaded and ranking begins.
type RankingStarted struct {
	Source    string // playlist or file name for the header
	Albums    int
	Estimated int
}

// RankingDone is sent when the engine returns. The App quits on it.
type RankingDone struct {
	Err error
}
