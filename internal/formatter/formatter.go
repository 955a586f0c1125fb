// package formatter renders song lists and download summaries (CSV, Markdown, JSON, plain text)
package formatter

import (
	"bytes"
	"encoding/csv"
	"encoding/json"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/desertthunder/songdl/internal/models"
	"github.com/desertthunder/songdl/internal/shared"
	"github.com/desertthunder/songdl/internal/tasks"
)

// Format is an output format.
type Format string

const (
	Text     Format = "txt"
	CSV      Format = "csv"
	Markdown Format = "markdown"
	JSON     Format = "json"
)

// ParseFormat accepts a format name or common alias ("md", "text").
func ParseFormat(s string) (Format, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "", "txt", "text":
		return Text, nil
	case "csv":
		return CSV, nil
	case "md", "markdown":
		return Markdown, nil
	case "json":
		return JSON, nil
	default:
		return "", fmt.Errorf("%w: unknown format %q", shared.ErrInvalidArgument, s)
	}
}

// RenderSongs renders songs in format f. Title is used as the Markdown heading.
func RenderSongs(f Format, title string, songs []models.Song) ([]byte, error) {
	switch f {
	case CSV:
		return SongsToCSV(songs)
	case Markdown:
		return SongsToMarkdown(title, songs)
	case JSON:
		return json.MarshalIndent(songs, "", "  ")
	default:
		return SongsToText(songs)
	}
}

// SongsToCSV converts songs to CSV with columns: ID, Title, Artist, Album, Duration, Platform, ExternalID
func SongsToCSV(songs []models.Song) ([]byte, error) {
	var buf bytes.Buffer
	writer := csv.NewWriter(&buf)

	headers := []string{"ID", "Title", "Artist", "Album", "Duration", "Platform", "ExternalID"}
	if err := writer.Write(headers); err != nil {
		return nil, fmt.Errorf("failed to write CSV headers: %w", err)
	}

	for _, song := range songs {
		record := []string{
			song.ID,
			song.Title,
			song.Artist,
			song.Album,
			strconv.Itoa(song.Duration),
			song.Platform,
			song.ExternalID,
		}
		if err := writer.Write(record); err != nil {
			return nil, fmt.Errorf("failed to write CSV record: %w", err)
		}
	}

	writer.Flush()
	if err := writer.Error(); err != nil {
		return nil, fmt.Errorf("CSV writer error: %w", err)
	}

	return buf.Bytes(), nil
}

// SongsToMarkdown converts songs to a Markdown list under title.
func SongsToMarkdown(title string, songs []models.Song) ([]byte, error) {
	var buf bytes.Buffer

	if title != "" {
		buf.WriteString(fmt.Sprintf("# %s\n\n", title))
	}
	buf.WriteString(fmt.Sprintf("**Songs**: %d\n\n", len(songs)))

	for i, song := range songs {
		albumPart := ""
		if song.Album != "" {
			albumPart = fmt.Sprintf(" (%s)", song.Album)
		}
		platformPart := ""
		if song.Platform != "" {
			platformPart = fmt.Sprintf(" `%s`", song.Platform)
		}
		buf.WriteString(fmt.Sprintf("%d. %s%s [%s]%s\n", i+1, song.DisplayName(), albumPart, song.DurationString(), platformPart))
	}

	return buf.Bytes(), nil
}

// SongsToText converts songs to numbered plain text lines with their ids.
func SongsToText(songs []models.Song) ([]byte, error) {
	var buf bytes.Buffer

	for i, song := range songs {
		buf.WriteString(fmt.Sprintf("%d. %s [%s] (id: %s)\n", i+1, song.DisplayName(), song.DurationString(), song.ID))
	}

	return buf.Bytes(), nil
}

// ManifestEntry is one line of a batch manifest.
type ManifestEntry struct {
	ID      string `json:"id"`
	Name    string `json:"name"`
	Status  string `json:"status"`
	File    string `json:"file,omitempty"`
	Message string `json:"message,omitempty"`
}

// Manifest summarizes a batch download.
type Manifest struct {
	CreatedAt time.Time       `json:"created_at"`
	Total     int             `json:"total"`
	Succeeded int             `json:"succeeded"`
	Failed    int             `json:"failed"`
	Skipped   int             `json:"skipped"`
	Entries   []ManifestEntry `json:"entries"`
}

// NewManifest builds a manifest from res.
func NewManifest(res *tasks.BatchResult) Manifest {
	m := Manifest{
		CreatedAt: time.Now().UTC(),
		Total:     res.Total,
		Succeeded: res.Succeeded,
		Failed:    res.Failed,
		Skipped:   res.Skipped,
		Entries:   make([]ManifestEntry, 0, len(res.Results)),
	}

	for _, r := range res.Results {
		e := ManifestEntry{ID: r.Job.ItemID, Name: r.Job.Song.DisplayName(), File: r.Location}
		if e.Name == "" {
			e.Name = e.ID
		}
		switch {
		case r.Skipped:
			e.Status = "skipped"
			e.Message = "already downloading"
		case r.Err != nil:
			e.Status = "failed"
			e.Message = r.Err.Error()
		default:
			e.Status = "succeeded"
		}
		m.Entries = append(m.Entries, e)
	}
	return m
}

// RenderManifest renders m as JSON, CSV, Markdown or text.
func RenderManifest(f Format, m Manifest) ([]byte, error) {
	switch f {
	case JSON:
		return json.MarshalIndent(m, "", "  ")
	case CSV:
		var buf bytes.Buffer
		writer := csv.NewWriter(&buf)
		writer.Write([]string{"ID", "Name", "Status", "File", "Message"})
		for _, e := range m.Entries {
			writer.Write([]string{e.ID, e.Name, e.Status, e.File, e.Message})
		}
		writer.Flush()
		if err := writer.Error(); err != nil {
			return nil, fmt.Errorf("CSV writer error: %w", err)
		}
		return buf.Bytes(), nil
	case Markdown:
		var buf bytes.Buffer
		buf.WriteString("# Downloads\n\n")
		buf.WriteString(fmt.Sprintf("**Succeeded**: %d / %d\n\n", m.Succeeded, m.Total))
		for _, e := range m.Entries {
			buf.WriteString(fmt.Sprintf("- %s %s%s\n", statusMark(e.Status), e.Name, entrySuffix(e)))
		}
		return buf.Bytes(), nil
	default:
		var buf bytes.Buffer
		for _, e := range m.Entries {
			buf.WriteString(fmt.Sprintf("%s %s%s\n", statusMark(e.Status), e.Name, entrySuffix(e)))
		}
		buf.WriteString(fmt.Sprintf("\n%d succeeded, %d failed, %d skipped\n", m.Succeeded, m.Failed, m.Skipped))
		return buf.Bytes(), nil
	}
}

// WriteManifest renders m to path.
func WriteManifest(f Format, m Manifest, path string) error {
	data, err := RenderManifest(f, m)
	if err != nil {
		return err
	}
	if err := os.WriteFile(path, data, 0644); err != nil {
		return fmt.Errorf("failed to write manifest: %w", err)
	}
	return nil
}

func statusMark(status string) string {
	switch status {
	case "succeeded":
		return "✓"
	case "skipped":
		return "…"
	default:
		return "✗"
	}
}

func entrySuffix(e ManifestEntry) string {
	switch {
	case e.Message != "":
		return ": " + e.Message
	case e.File != "":
		return " → " + e.File
	default:
		return ""
	}
}
