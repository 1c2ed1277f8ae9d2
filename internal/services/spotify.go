package services

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/charmbracelet/log"
	"github.com/desertthunder/spotx/internal/shared"
	"golang.org/x/oauth2"
)

const (
	spotifyBaseURL = "https://api.spotify.com/v1"

	maxTracksPerRequest        = 50
	maxAudioFeaturesPerRequest = 100
	maxSearchLimit             = 50
	maxErrorBodySize           = 64 << 10
)

// SearchType selects which catalog a search covers.
type SearchType string

const (
	SearchTrack    SearchType = "track"
	SearchArtist   SearchType = "artist"
	SearchAlbum    SearchType = "album"
	SearchPlaylist SearchType = "playlist"
)

// APIError is a non-2xx response from the Web API.
type APIError struct {
	StatusCode int
	Message    string
}

func (e *APIError) Error() string {
	return fmt.Sprintf("%v: spotify API error (status %d): %s", shared.ErrAPIRequest, e.StatusCode, e.Message)
}

// Is matches [shared.ErrAPIRequest] for every status, and [shared.ErrNotAuthenticated] for 401.
func (e *APIError) Is(target error) bool {
	switch target {
	case shared.ErrAPIRequest:
		return true
	case shared.ErrNotAuthenticated:
		return e.StatusCode == http.StatusUnauthorized
	default:
		return false
	}
}

// errorBody is the Web API's regular error object.
type errorBody struct {
	Error struct {
		Status  int    `json:"status"`
		Message string `json:"message"`
	} `json:"error"`
}

func newAPIError(status int, body []byte) *APIError {
	var e errorBody
	if err := json.Unmarshal(body, &e); err == nil && e.Error.Message != "" {
		return &APIError{StatusCode: status, Message: e.Error.Message}
	}
	return &APIError{StatusCode: status, Message: http.StatusText(status)}
}

// SpotifyService calls the Spotify Web API with the token supplied by an [oauth2.TokenSource].
//
// The source is asked for a token on every request and its token is sent as is; renewing it is the caller's job.
// auth.Session.TokenSource is the usual source.
type SpotifyService struct {
	baseURL    string
	market     string
	timeout    time.Duration
	base       http.RoundTripper
	logger     *log.Logger
	httpClient *http.Client
}

// Option configures a [SpotifyService].
type Option func(*SpotifyService)

// WithBaseURL points the service at a different API root.
func WithBaseURL(u string) Option {
	return func(s *SpotifyService) { s.baseURL = strings.TrimRight(u, "/") }
}

// WithMarket adds market=<code> to every request. Use an ISO 3166-1 alpha-2 code or "from_token".
func WithMarket(market string) Option {
	return func(s *SpotifyService) { s.market = market }
}

// WithTimeout bounds each request. Non-positive values keep the default.
func WithTimeout(d time.Duration) Option {
	return func(s *SpotifyService) {
		if d > 0 {
			s.timeout = d
		}
	}
}

// WithTransport sets the transport the authorized requests are sent through.
func WithTransport(rt http.RoundTripper) Option {
	return func(s *SpotifyService) { s.base = rt }
}

// WithLogger sets the logger.
func WithLogger(l *log.Logger) Option {
	return func(s *SpotifyService) {
		if l != nil {
			s.logger = l
		}
	}
}

// NewSpotifyService creates a service that authorizes every request with a token from src.
func NewSpotifyService(src oauth2.TokenSource, opts ...Option) *SpotifyService {
	s := &SpotifyService{
		baseURL: spotifyBaseURL,
		timeout: 10 * time.Second,
		logger:  shared.NopLogger(),
	}
	for _, opt := range opts {
		opt(s)
	}

	s.httpClient = &http.Client{
		Transport: &oauth2.Transport{Source: src, Base: s.base},
		Timeout:   s.timeout,
	}
	return s
}

// Name returns the name of the service.
func (s *SpotifyService) Name() string {
	return "Spotify"
}

// doRequest performs an authorized request and decodes a JSON response into result when both are present.
func (s *SpotifyService) doRequest(ctx context.Context, method, endpoint string, query url.Values, body, result any) error {
	if query == nil {
		query = url.Values{}
	}
	if s.market != "" {
		query.Set("market", s.market)
	}

	apiURL := s.baseURL + endpoint
	if len(query) > 0 {
		apiURL += "?" + query.Encode()
	}

	var reader io.Reader
	if body != nil {
		data, err := json.Marshal(body)
		if err != nil {
			return fmt.Errorf("failed to encode request body: %w", err)
		}
		reader = bytes.NewReader(data)
	}

	req, err := http.NewRequestWithContext(ctx, method, apiURL, reader)
	if err != nil {
		return fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Accept", "application/json")
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := s.httpClient.Do(req)
	if err != nil {
		var urlErr *url.Error
		if errors.As(err, &urlErr) && errors.Is(urlErr.Err, shared.ErrNotAuthenticated) {
			return urlErr.Err
		}
		return fmt.Errorf("%w: %s %s: %w", shared.ErrAPIRequest, method, endpoint, err)
	}
	defer resp.Body.Close()

	s.logger.Debug("spotify request", "method", method, "endpoint", endpoint, "status", resp.StatusCode)

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		data, _ := io.ReadAll(io.LimitReader(resp.Body, maxErrorBodySize))
		apiErr := newAPIError(resp.StatusCode, data)
		s.logger.Warn("spotify request failed", "method", method, "endpoint", endpoint, "status", resp.StatusCode, "message", apiErr.Message)
		return apiErr
	}

	if result == nil || resp.StatusCode == http.StatusNoContent {
		return nil
	}

	if err := json.NewDecoder(resp.Body).Decode(result); err != nil {
		if errors.Is(err, io.EOF) {
			return nil
		}
		return fmt.Errorf("%w: failed to decode %s response: %v", shared.ErrMalformedResponse, endpoint, err)
	}

	return nil
}

// CurrentUser retrieves the profile of the user who authorized the token.
func (s *SpotifyService) CurrentUser(ctx context.Context) (*SpotifyUser, error) {
	var user SpotifyUser
	if err := s.doRequest(ctx, http.MethodGet, "/me", nil, nil, &user); err != nil {
		return nil, err
	}
	return &user, nil
}

// Track retrieves a single track by ID.
func (s *SpotifyService) Track(ctx context.Context, trackID string) (*SpotifyTrack, error) {
	if trackID == "" {
		return nil, fmt.Errorf("%w: track id", shared.ErrMissingArgument)
	}

	var track SpotifyTrack
	if err := s.doRequest(ctx, http.MethodGet, "/tracks/"+url.PathEscape(trackID), nil, nil, &track); err != nil {
		return nil, err
	}
	return &track, nil
}

// Tracks retrieves up to 50 tracks by ID. Unknown IDs come back as zero-valued entries in the same position.
func (s *SpotifyService) Tracks(ctx context.Context, trackIDs []string) ([]SpotifyTrack, error) {
	if len(trackIDs) == 0 {
		return nil, fmt.Errorf("%w: no track IDs provided", shared.ErrMissingArgument)
	}
	if len(trackIDs) > maxTracksPerRequest {
		return nil, fmt.Errorf("%w: maximum %d track IDs allowed", shared.ErrInvalidArgument, maxTracksPerRequest)
	}

	var response struct {
		Tracks []*SpotifyTrack `json:"tracks"`
	}

	query := url.Values{"ids": {strings.Join(trackIDs, ",")}}
	if err := s.doRequest(ctx, http.MethodGet, "/tracks", query, nil, &response); err != nil {
		return nil, err
	}

	tracks := make([]SpotifyTrack, len(response.Tracks))
	for i, t := range response.Tracks {
		if t != nil {
			tracks[i] = *t
		}
	}
	return tracks, nil
}

// Search queries the catalog. types defaults to tracks; limit is clamped to 1..50, with 0 leaving the API default.
func (s *SpotifyService) Search(ctx context.Context, q string, types []SearchType, limit, offset int) (*SearchResult, error) {
	if strings.TrimSpace(q) == "" {
		return nil, fmt.Errorf("%w: search query", shared.ErrMissingArgument)
	}
	if len(types) == 0 {
		types = []SearchType{SearchTrack}
	}

	names := make([]string, len(types))
	for i, t := range types {
		switch t {
		case SearchTrack, SearchArtist, SearchAlbum, SearchPlaylist:
			names[i] = string(t)
		default:
			return nil, fmt.Errorf("%w: search type %q", shared.ErrInvalidArgument, t)
		}
	}

	query := url.Values{"q": {q}, "type": {strings.Join(names, ",")}}
	if limit > 0 {
		query.Set("limit", strconv.Itoa(min(limit, maxSearchLimit)))
	}
	if offset > 0 {
		query.Set("offset", strconv.Itoa(offset))
	}

	var result SearchResult
	if err := s.doRequest(ctx, http.MethodGet, "/search", query, nil, &result); err != nil {
		return nil, err
	}
	return &result, nil
}

// Playlist retrieves a playlist with its first page of tracks.
func (s *SpotifyService) Playlist(ctx context.Context, playlistID string) (*SpotifyPlaylist, error) {
	if playlistID == "" {
		return nil, fmt.Errorf("%w: playlist id", shared.ErrMissingArgument)
	}

	var playlist SpotifyPlaylist
	if err := s.doRequest(ctx, http.MethodGet, "/playlists/"+url.PathEscape(playlistID), nil, nil, &playlist); err != nil {
		return nil, err
	}
	return &playlist, nil
}

// AddTracksToPlaylist adds track URIs to a playlist and returns the new snapshot ID. A nil position appends.
func (s *SpotifyService) AddTracksToPlaylist(ctx context.Context, playlistID string, uris []string, position *int) (string, error) {
	if playlistID == "" {
		return "", fmt.Errorf("%w: playlist id", shared.ErrMissingArgument)
	}
	if len(uris) == 0 {
		return "", fmt.Errorf("%w: no track URIs provided", shared.ErrMissingArgument)
	}

	payload := struct {
		URIs     []string `json:"uris"`
		Position *int     `json:"position,omitempty"`
	}{URIs: uris, Position: position}

	var response struct {
		SnapshotID string `json:"snapshot_id"`
	}

	endpoint := "/playlists/" + url.PathEscape(playlistID) + "/tracks"
	if err := s.doRequest(ctx, http.MethodPost, endpoint, nil, payload, &response); err != nil {
		return "", err
	}
	return response.SnapshotID, nil
}

// Devices lists the user's available Spotify Connect devices.
func (s *SpotifyService) Devices(ctx context.Context) ([]SpotifyDevice, error) {
	var response struct {
		Devices []SpotifyDevice `json:"devices"`
	}
	if err := s.doRequest(ctx, http.MethodGet, "/me/player/devices", nil, nil, &response); err != nil {
		return nil, err
	}
	return response.Devices, nil
}

// PausePlayback pauses playback on deviceID, or on the active device when deviceID is empty.
func (s *SpotifyService) PausePlayback(ctx context.Context, deviceID string) error {
	return s.doRequest(ctx, http.MethodPut, "/me/player/pause", deviceQuery(deviceID), nil, nil)
}

// ResumePlayback starts or resumes playback on deviceID, or on the active device when deviceID is empty.
func (s *SpotifyService) ResumePlayback(ctx context.Context, deviceID string, opts PlaybackOptions) error {
	var body any
	if opts.ContextURI != "" || len(opts.URIs) > 0 || opts.Offset != nil || opts.PositionMS != nil {
		body = opts
	}
	return s.doRequest(ctx, http.MethodPut, "/me/player/play", deviceQuery(deviceID), body, nil)
}

// NextTrack skips to the next item in the user's queue.
func (s *SpotifyService) NextTrack(ctx context.Context, deviceID string) error {
	return s.doRequest(ctx, http.MethodPost, "/me/player/next", deviceQuery(deviceID), nil, nil)
}

// PreviousTrack skips to the previous item in the user's queue.
func (s *SpotifyService) PreviousTrack(ctx context.Context, deviceID string) error {
	return s.doRequest(ctx, http.MethodPost, "/me/player/previous", deviceQuery(deviceID), nil, nil)
}

// SeekPlayback moves playback to positionMS milliseconds into the current item.
func (s *SpotifyService) SeekPlayback(ctx context.Context, positionMS int, deviceID string) error {
	if positionMS < 0 {
		return fmt.Errorf("%w: position must not be negative", shared.ErrInvalidArgument)
	}
	query := deviceQuery(deviceID)
	query.Set("position_ms", strconv.Itoa(positionMS))
	return s.doRequest(ctx, http.MethodPut, "/me/player/seek", query, nil, nil)
}

// AudioFeatures retrieves audio features for one or more tracks, in request order.
//
// A single ID uses the per-track endpoint. Unknown IDs in a batch come back as zero-valued entries.
func (s *SpotifyService) AudioFeatures(ctx context.Context, trackIDs ...string) ([]SpotifyAudioFeatures, error) {
	switch {
	case len(trackIDs) == 0:
		return nil, fmt.Errorf("%w: no track IDs provided", shared.ErrMissingArgument)
	case len(trackIDs) > maxAudioFeaturesPerRequest:
		return nil, fmt.Errorf("%w: maximum %d track IDs allowed", shared.ErrInvalidArgument, maxAudioFeaturesPerRequest)
	case len(trackIDs) == 1:
		if trackIDs[0] == "" {
			return nil, fmt.Errorf("%w: track id", shared.ErrMissingArgument)
		}
		var features SpotifyAudioFeatures
		if err := s.doRequest(ctx, http.MethodGet, "/audio-features/"+url.PathEscape(trackIDs[0]), nil, nil, &features); err != nil {
			return nil, err
		}
		return []SpotifyAudioFeatures{features}, nil
	}

	var response struct {
		AudioFeatures []*SpotifyAudioFeatures `json:"audio_features"`
	}

	query := url.Values{"ids": {strings.Join(trackIDs, ",")}}
	if err := s.doRequest(ctx, http.MethodGet, "/audio-features", query, nil, &response); err != nil {
		return nil, err
	}

	features := make([]SpotifyAudioFeatures, len(response.AudioFeatures))
	for i, f := range response.AudioFeatures {
		if f != nil {
			features[i] = *f
		}
	}
	return features, nil
}

func deviceQuery(deviceID string) url.Values {
	query := url.Values{}
	if deviceID != "" {
		query.Set("device_id", deviceID)
	}
	return query
}
