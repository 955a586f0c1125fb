package ui

import (
	tea "github.com/charmbracelet/bubbletea"
	"github.com/desertthunder/songdl/internal/models"
	"github.com/desertthunder/songdl/internal/tasks"
)

// MsgKind enumerates all message types in the application.
type MsgKind int

// Msg represents all possible messages in the TUI (Elm-style message union).
type Msg struct {
	kind MsgKind
	data any
}

var (
	_ tea.Msg = Msg{}
)

const (
	MsgSearchResults MsgKind = iota
	MsgProgressUpdate
	MsgDownloadComplete
	MsgQuotaLoaded
)

type searchResults struct {
	query string
	songs []models.Song
	err   error
}

type downloadComplete struct {
	song  models.Song
	state tasks.TransferState
	err   error
}

// searchResultsMsg is the constructor for [MsgSearchResults]
func searchResultsMsg(query string, songs []models.Song, err error) Msg {
	return Msg{kind: MsgSearchResults, data: searchResults{query, songs, err}}
}

// progressUpdateMsg is the constructor for [MsgProgressUpdate]
func progressUpdateMsg(update tasks.ProgressUpdate) Msg {
	return Msg{kind: MsgProgressUpdate, data: update}
}

// downloadCompleteMsg is the constructor for [MsgDownloadComplete]
func downloadCompleteMsg(song models.Song, st tasks.TransferState, err error) Msg {
	return Msg{kind: MsgDownloadComplete, data: downloadComplete{song, st, err}}
}

// quotaLoadedMsg is the constructor for [MsgQuotaLoaded]
func quotaLoadedMsg(err error) Msg {
	return Msg{kind: MsgQuotaLoaded, data: err}
}
