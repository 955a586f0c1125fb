package models

import (
	"fmt"
	"path"
	"strings"
)

// Song is a track hosted on an external platform and exposed by the backend.
type Song struct {
	ID         string `json:"id"`
	Title      string `json:"title"`
	Artist     string `json:"artist"`
	Album      string `json:"album,omitempty"`
	Duration   int    `json:"duration"` // seconds
	Platform   string `json:"platform"`
	ExternalID string `json:"external_id"` // identifier understood by the playback widget
	CoverURL   string `json:"cover_url,omitempty"`
	Format     string `json:"format,omitempty"` // mp3, m4a, ...
}

// DisplayName renders "Artist - Title", falling back to the title alone.
func (s Song) DisplayName() string {
	if s.Artist == "" {
		return s.Title
	}
	return fmt.Sprintf("%s - %s", s.Artist, s.Title)
}

// Extension returns the file extension for a downloaded copy, without the dot.
func (s Song) Extension() string {
	f := strings.TrimPrefix(strings.ToLower(s.Format), ".")
	if f == "" {
		return "mp3"
	}
	return f
}

// DurationString formats Duration as m:ss.
func (s Song) DurationString() string {
	if s.Duration <= 0 {
		return "--:--"
	}
	return fmt.Sprintf("%d:%02d", s.Duration/60, s.Duration%60)
}

// DownloadPath is the backend endpoint that streams the song file.
func (s Song) DownloadPath() string {
	return path.Join("/api/songs", s.ID, "download")
}

// Profile is the signed-in account.
type Profile struct {
	ID       string `json:"id"`
	Username string `json:"username"`
	Email    string `json:"email"`
	Tier     Tier   `json:"tier"`
}
