package ui

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/bubbles/list"
	"github.com/desertthunder/songdl/internal/models"
	"github.com/desertthunder/songdl/internal/session"
	"github.com/desertthunder/songdl/internal/tasks"
)

var (
	_ list.Item = songItem{}
)

// songItem wraps [models.Song] with its playback and transfer state to implement [list.Item].
type songItem struct {
	song     models.Song
	play     session.PlayState // Empty unless the song is the selection
	transfer tasks.TransferState
}

func (i songItem) FilterValue() string { return i.song.DisplayName() }
func (i songItem) Title() string {
	switch i.play {
	case session.Playing:
		return "▶ " + i.song.DisplayName()
	case session.Paused:
		return "⏸ " + i.song.DisplayName()
	default:
		return i.song.DisplayName()
	}
}

func (i songItem) Description() string {
	parts := []string{i.song.DurationString()}
	if i.song.Album != "" {
		parts = append(parts, i.song.Album)
	}
	if i.song.Platform != "" {
		parts = append(parts, i.song.Platform)
	}
	if s := transferLabel(i.transfer); s != "" {
		parts = append(parts, s)
	}
	return strings.Join(parts, " • ")
}

func transferLabel(st tasks.TransferState) string {
	switch st.Phase {
	case tasks.InFlight:
		return fmt.Sprintf("%s %d%%", progressBar(st.Progress, 10), st.Progress)
	case tasks.Succeeded:
		return "✓ downloaded"
	case tasks.Failed:
		return fmt.Sprintf("✗ %s (d to retry)", st.Message)
	default:
		return ""
	}
}

// progressBar renders percent as a fixed-width bar.
func progressBar(percent, width int) string {
	percent = min(max(percent, 0), 100)
	filled := percent * width / 100
	return "[" + strings.Repeat("█", filled) + strings.Repeat("░", width-filled) + "]"
}
