package tasks

import (
	"context"
	"fmt"
	"mime"
	"os"
	"path/filepath"
	"strings"

	"github.com/bogem/id3v2"
	"github.com/charmbracelet/log"
	"github.com/desertthunder/songdl/internal/services"
	"github.com/desertthunder/songdl/internal/shared"
)

// contentExtensions maps audio content types to file extensions.
var contentExtensions = map[string]string{
	"audio/mpeg":  "mp3",
	"audio/mp3":   "mp3",
	"audio/mp4":   "m4a",
	"audio/x-m4a": "m4a",
	"audio/aac":   "aac",
	"audio/ogg":   "ogg",
	"audio/opus":  "opus",
	"audio/flac":  "flac",
	"audio/wav":   "wav",
	"audio/x-wav": "wav",
}

// FileSink writes downloaded songs to "<Dir>/<artist> - <title>.<ext>" and tags MP3 files.
type FileSink struct {
	Dir    string
	TagMP3 bool
	Logger *log.Logger
}

// NewFileSink creates a FileSink writing into dir.
func NewFileSink(dir string, tagMP3 bool, logger *log.Logger) *FileSink {
	if logger == nil {
		logger = log.Default()
	}
	return &FileSink{Dir: dir, TagMP3: tagMP3, Logger: logger}
}

// Path returns the destination for job given the response content type.
func (s *FileSink) Path(job Job, contentType string) string {
	name := job.Song.DisplayName()
	if strings.TrimSpace(name) == "" {
		name = job.ItemID
	}
	return filepath.Join(s.Dir, shared.SanitizeFilename(name)+"."+extension(job, contentType))
}

// Save writes the body through a temporary file so a partial download never replaces
// an existing copy.
func (s *FileSink) Save(ctx context.Context, job Job, resp *services.Response) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}
	if err := os.MkdirAll(s.Dir, 0755); err != nil {
		return "", fmt.Errorf("failed to create output directory: %w", err)
	}

	dest := s.Path(job, resp.ContentType)
	tmp, err := os.CreateTemp(s.Dir, ".songdl-*")
	if err != nil {
		return "", fmt.Errorf("failed to create temp file: %w", err)
	}
	defer os.Remove(tmp.Name())

	if _, err := tmp.Write(resp.Body); err != nil {
		tmp.Close()
		return "", fmt.Errorf("failed to write %s: %w", dest, err)
	}
	if err := tmp.Close(); err != nil {
		return "", fmt.Errorf("failed to write %s: %w", dest, err)
	}
	if err := os.Rename(tmp.Name(), dest); err != nil {
		return "", fmt.Errorf("failed to move download into place: %w", err)
	}

	if s.TagMP3 && strings.EqualFold(filepath.Ext(dest), ".mp3") {
		if err := tagMP3(dest, job); err != nil {
			s.Logger.Warn("could not tag file", "path", dest, "error", err)
		}
	}

	return dest, nil
}

func tagMP3(path string, job Job) error {
	tag, err := id3v2.Open(path, id3v2.Options{Parse: true})
	if err != nil {
		return err
	}
	defer tag.Close()

	tag.SetDefaultEncoding(id3v2.EncodingUTF8)
	if job.Song.Title != "" {
		tag.SetTitle(job.Song.Title)
	}
	if job.Song.Artist != "" {
		tag.SetArtist(job.Song.Artist)
	}
	if job.Song.Album != "" {
		tag.SetAlbum(job.Song.Album)
	}
	return tag.Save()
}

// extension prefers the song's declared format, then the content type, then mp3.
func extension(job Job, contentType string) string {
	if job.Song.Format != "" {
		return job.Song.Extension()
	}
	if mt, _, err := mime.ParseMediaType(contentType); err == nil {
		if ext, ok := contentExtensions[strings.ToLower(mt)]; ok {
			return ext
		}
	}
	return "mp3"
}
