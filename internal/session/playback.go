package session

import (
	"net/url"
	"strconv"
	"strings"
	"sync"

	"github.com/desertthunder/songdl/internal/models"
	"github.com/desertthunder/songdl/internal/shared"
)

// PlayState is the playback state machine.
type PlayState int

const (
	Empty PlayState = iota
	Paused
	Playing
)

func (s PlayState) String() string {
	switch s {
	case Empty:
		return "empty"
	case Paused:
		return "paused"
	case Playing:
		return "playing"
	default:
		return ""
	}
}

// Selection is a copy of the playback state.
//
// IsPlaying implies Track is set.
type Selection struct {
	Track        *models.Song
	IsPlaying    bool
	IsBarVisible bool
}

// State derives the machine state from the selection.
func (s Selection) State() PlayState {
	switch {
	case s.Track == nil:
		return Empty
	case s.IsPlaying:
		return Playing
	default:
		return Paused
	}
}

// WidgetState is what the embedded player last reported.
type WidgetState int

const (
	WidgetIdle WidgetState = iota
	WidgetLoading
	WidgetReady
	WidgetError
)

func (w WidgetState) String() string {
	switch w {
	case WidgetLoading:
		return "loading"
	case WidgetReady:
		return "ready"
	case WidgetError:
		return "error"
	default:
		return "idle"
	}
}

// EmbedParams is everything the host needs to load the third-party player.
type EmbedParams struct {
	ExternalID string
	Platform   string
	Autoplay   bool
	Dark       bool
}

// Playback holds the single selected track.
//
// Selecting a track replaces the current one. Audio itself is handled by the embedded
// widget; Playback only decides what it shows.
type Playback struct {
	mu        sync.Mutex
	track     *models.Song
	playing   bool
	visible   bool
	widget    WidgetState
	widgetErr error

	player shared.PlayerConfig
}

// NewPlayback creates an empty session.
func NewPlayback(player shared.PlayerConfig) *Playback {
	return &Playback{player: player}
}

// Select makes track the selection and starts playing it. The bar becomes visible.
func (p *Playback) Select(track models.Song) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.selectLocked(track)
}

func (p *Playback) selectLocked(track models.Song) {
	p.track = &track
	p.playing = true
	p.visible = true
	p.widget = WidgetLoading
	p.widgetErr = nil
}

// Toggle flips play/pause when track is the selection, otherwise selects it.
func (p *Playback) Toggle(track models.Song) {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.track != nil && sameTrack(*p.track, track) {
		p.playing = !p.playing
		return
	}
	p.selectLocked(track)
}

// Pause stops playback and keeps the selection. No-op when empty.
func (p *Playback) Pause() {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.track == nil {
		return
	}
	p.playing = false
}

// Close clears the selection and hides the bar.
func (p *Playback) Close() {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.track = nil
	p.playing = false
	p.visible = false
	p.widget = WidgetIdle
	p.widgetErr = nil
}

// Selection returns a copy of the current state.
func (p *Playback) Selection() Selection {
	p.mu.Lock()
	defer p.mu.Unlock()

	sel := Selection{IsPlaying: p.playing, IsBarVisible: p.visible}
	if p.track != nil {
		t := *p.track
		sel.Track = &t
	}
	return sel
}

// State returns the current machine state.
func (p *Playback) State() PlayState {
	return p.Selection().State()
}

// IsSelected reports whether track is the current selection.
func (p *Playback) IsSelected(track models.Song) bool {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.track != nil && sameTrack(*p.track, track)
}

// Embed returns the widget parameters for the selection. ok is false when empty.
func (p *Playback) Embed() (params EmbedParams, ok bool) {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.track == nil {
		return EmbedParams{}, false
	}

	id := p.track.ExternalID
	if id == "" {
		id = p.track.ID
	}
	return EmbedParams{
		ExternalID: id,
		Platform:   p.track.Platform,
		Autoplay:   p.player.Autoplay && p.playing,
		Dark:       p.player.DarkTheme,
	}, true
}

// WidgetURL renders the embed address for the selection.
func (p *Playback) WidgetURL() (string, bool) {
	params, ok := p.Embed()
	if !ok {
		return "", false
	}
	return EmbedURL(p.player.WidgetURL, params), true
}

// EmbedURL builds a player address. Bare identifiers are expanded to track URLs.
func EmbedURL(widget string, params EmbedParams) string {
	if widget == "" {
		widget = "https://w.soundcloud.com/player/"
	}

	target := params.ExternalID
	if !strings.HasPrefix(target, "http://") && !strings.HasPrefix(target, "https://") {
		target = "https://api.soundcloud.com/tracks/" + url.PathEscape(target)
	}

	theme := "light"
	if params.Dark {
		theme = "dark"
	}

	q := url.Values{}
	q.Set("url", target)
	q.Set("auto_play", strconv.FormatBool(params.Autoplay))
	q.Set("theme", theme)

	sep := "?"
	if strings.Contains(widget, "?") {
		sep = "&"
	}
	return widget + sep + q.Encode()
}

// WidgetLoaded records that the embedded player finished loading.
func (p *Playback) WidgetLoaded() {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.track != nil {
		p.widget = WidgetReady
		p.widgetErr = nil
	}
}

// WidgetFailed records a player error. The selection is kept so the user can retry or close.
func (p *Playback) WidgetFailed(err error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.track != nil {
		p.widget = WidgetError
		p.widgetErr = err
	}
}

// Widget returns the last reported widget state.
func (p *Playback) Widget() (WidgetState, error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.widget, p.widgetErr
}

func sameTrack(a, b models.Song) bool {
	if a.ID != "" || b.ID != "" {
		return a.ID == b.ID
	}
	return a.ExternalID == b.ExternalID && a.Platform == b.Platform
}
