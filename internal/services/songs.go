package services

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"strings"

	"github.com/desertthunder/songdl/internal/models"
	"github.com/desertthunder/songdl/internal/shared"
)

// Sender is the part of [Gateway] used by API wrappers and the download tracker.
type Sender interface {
	Send(ctx context.Context, d RequestDescriptor) (*Response, error)
}

// SongService wraps the backend song and account endpoints. Gateway errors are returned unchanged.
type SongService struct {
	gw Sender
}

// NewSongService creates a SongService over gw.
func NewSongService(gw Sender) *SongService {
	return &SongService{gw: gw}
}

// Health calls GET /health.
func (s *SongService) Health(ctx context.Context) error {
	_, err := s.gw.Send(ctx, RequestDescriptor{Path: "/health"})
	return err
}

// Search calls GET /api/songs/search. The backend returns either a bare list or
// an object with a results list.
func (s *SongService) Search(ctx context.Context, query, platform string) ([]models.Song, error) {
	query = strings.TrimSpace(query)
	if query == "" {
		return nil, fmt.Errorf("%w: empty search query", shared.ErrInvalidInput)
	}

	params := url.Values{}
	params.Set("q", query)
	if platform != "" {
		params.Set("platform", platform)
	}

	resp, err := s.gw.Send(ctx, RequestDescriptor{Path: "/api/songs/search?" + params.Encode()})
	if err != nil {
		return nil, err
	}

	var songs []models.Song
	if err := resp.Decode(&songs); err == nil {
		return songs, nil
	}

	var wrapped struct {
		Results []models.Song `json:"results"`
	}
	if err := resp.Decode(&wrapped); err != nil {
		return nil, err
	}
	return wrapped.Results, nil
}

// Song calls GET /api/songs/{id}.
func (s *SongService) Song(ctx context.Context, id string) (*models.Song, error) {
	if id == "" {
		return nil, fmt.Errorf("%w: song id", shared.ErrMissingArgument)
	}

	resp, err := s.gw.Send(ctx, RequestDescriptor{Path: "/api/songs/" + url.PathEscape(id)})
	if err != nil {
		var se *ServiceError
		if errors.As(err, &se) && se.Status == http.StatusNotFound {
			return nil, fmt.Errorf("%w: %s: %w", shared.ErrSongNotFound, id, err)
		}
		return nil, err
	}

	var song models.Song
	if err := resp.Decode(&song); err != nil {
		return nil, err
	}
	if song.ID == "" {
		song.ID = id
	}
	return &song, nil
}

// DownloadRequest builds the descriptor for POST /api/songs/{id}/download.
func DownloadRequest(song models.Song) RequestDescriptor {
	return RequestDescriptor{
		Path:     song.DownloadPath(),
		Method:   http.MethodPost,
		Encoding: EncodingBlob,
	}
}

// Quota calls GET /api/user/quota.
func (s *SongService) Quota(ctx context.Context) (*models.QuotaResponse, error) {
	resp, err := s.gw.Send(ctx, RequestDescriptor{Path: "/api/user/quota"})
	if err != nil {
		return nil, err
	}

	var q models.QuotaResponse
	if err := resp.Decode(&q); err != nil {
		return nil, err
	}
	return &q, nil
}

// Me calls GET /api/user/me.
func (s *SongService) Me(ctx context.Context) (*models.Profile, error) {
	resp, err := s.gw.Send(ctx, RequestDescriptor{Path: "/api/user/me"})
	if err != nil {
		return nil, err
	}

	var p models.Profile
	if err := resp.Decode(&p); err != nil {
		return nil, err
	}
	return &p, nil
}
