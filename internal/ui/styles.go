package ui

import "github.com/charmbracelet/lipgloss"

// Colors used in the application.
var (
	colorPrimary   = lipgloss.Color("62")  // Purple
	colorSecondary = lipgloss.Color("241") // Gray
	colorMuted     = lipgloss.Color("240") // Darker gray
	colorHighlight = lipgloss.Color("212") // Pink
	colorSuccess   = lipgloss.Color("78")  // Green
	colorScore     = lipgloss.Color("220") // Gold
)

// Title style for the screen header.
var Title = lipgloss.NewStyle().
	Bold(true).
	Foreground(colorHighlight).
	Padding(0, 1)

// AlbumCard frames one side of a comparison.
var AlbumCard = lipgloss.NewStyle().
	Border(lipgloss.RoundedBorder()).
	BorderForeground(colorPrimary).
	Padding(0, 1).
	Width(38)

// CardKey renders the [1]/[2] badge on a card.
var CardKey = lipgloss.NewStyle().
	Bold(true).
	Foreground(lipgloss.Color("255")).
	Background(colorPrimary).
	Padding(0, 1)

// AlbumName style for album titles.
var AlbumName = lipgloss.NewStyle().
	Bold(true).
	Foreground(lipgloss.Color("255"))

// AlbumArtists style for the artist line.
var AlbumArtists = lipgloss.NewStyle().
	Foreground(colorSecondary)

// AlbumMeta style for counts and URLs.
var AlbumMeta = lipgloss.NewStyle().
	Foreground(colorMuted)

// TrackLine style for track previews.
var TrackLine = lipgloss.NewStyle().
	Foreground(colorSecondary)

// ProgressCount style for the comparison counter.
var ProgressCount = lipgloss.NewStyle().
	Foreground(colorMuted)

// InsertNote style for the "placed at" line after an insertion.
var InsertNote = lipgloss.NewStyle().
	Foreground(colorSuccess)

// StatusBar style for the bottom status bar.
var StatusBar = lipgloss.NewStyle().
	Foreground(lipgloss.Color("255")).
	Background(lipgloss.Color("236")).
	Padding(0, 1)

// StatusBarKey style for key hints in status bar.
var StatusBarKey = lipgloss.NewStyle().
	Foreground(colorHighlight).
	Bold(true)

// StatusBarText style for descriptive text in status bar.
var StatusBarText = lipgloss.NewStyle().
	Foreground(colorSecondary)

// ErrorStyle for displaying errors.
var ErrorStyle = lipgloss.NewStyle().
	Foreground(lipgloss.Color("196")).
	Bold(true).
	Padding(0, 1)

// RankNumber style for the rank column of the tier list.
var RankNumber = lipgloss.NewStyle().
	Bold(true).
	Foreground(colorHighlight).
	Width(5).
	Align(lipgloss.Right)

// ScoreStyle for scores in the tier list.
var ScoreStyle = lipgloss.NewStyle().
	Bold(true).
	Foreground(colorScore)

// URLStyle for album links in the tier list.
var URLStyle = lipgloss.NewStyle().
	Foreground(colorMuted).
	PaddingLeft(6)

// DebugPanel style for the debug overlay container.
var DebugPanel = lipgloss.NewStyle().
	Border(lipgloss.RoundedBorder()).
	BorderForeground(colorPrimary).
	Padding(1, 2)

// DebugHeaderStyle for section headers inside the debug overlay.
var DebugHeaderStyle = lipgloss.NewStyle().
	Bold(true).
	Foreground(colorHighlight)
