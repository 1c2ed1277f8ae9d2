// Spotify Web API response types based on https://developer.spotify.com/documentation/web-api/reference/
package services

type followers struct {
	Total int `json:"total"`
}

// SpotifyUser represents a Spotify user profile.
type SpotifyUser struct {
	ID          string         `json:"id"`
	DisplayName string         `json:"display_name"`
	Email       string         `json:"email"`
	Country     string         `json:"country"`
	Product     string         `json:"product"` // premium, free, etc.
	Followers   followers      `json:"followers"`
	Images      []SpotifyImage `json:"images"`
	URI         string         `json:"uri"`
}

// SpotifyImage represents an image resource.
type SpotifyImage struct {
	URL    string `json:"url"`
	Height int    `json:"height"`
	Width  int    `json:"width"`
}

type externalIDs struct {
	ISRC string `json:"isrc"`
}

// SpotifyTrack represents a Spotify track.
type SpotifyTrack struct {
	ID          string          `json:"id"`
	Name        string          `json:"name"`
	Artists     []SpotifyArtist `json:"artists"`
	Album       SpotifyAlbum    `json:"album"`
	DurationMS  int             `json:"duration_ms"`
	Explicit    bool            `json:"explicit"`
	ExternalIDs externalIDs     `json:"external_ids"`
	Popularity  int             `json:"popularity"`
	IsPlayable  *bool           `json:"is_playable,omitempty"` // only present when a market is requested
	URI         string          `json:"uri"`
}

// ArtistNames returns the names of the track's artists in credit order.
func (t SpotifyTrack) ArtistNames() []string {
	names := make([]string, 0, len(t.Artists))
	for _, a := range t.Artists {
		names = append(names, a.Name)
	}
	return names
}

// SpotifyArtist represents a Spotify artist.
type SpotifyArtist struct {
	ID     string         `json:"id"`
	Name   string         `json:"name"`
	Genres []string       `json:"genres"`
	Images []SpotifyImage `json:"images"`
	URI    string         `json:"uri"`
}

// SpotifyAlbum represents a Spotify album.
type SpotifyAlbum struct {
	ID          string          `json:"id"`
	Name        string          `json:"name"`
	Artists     []SpotifyArtist `json:"artists"`
	ReleaseDate string          `json:"release_date"`
	TotalTracks int             `json:"total_tracks"`
	Images      []SpotifyImage  `json:"images"`
	URI         string          `json:"uri"`
}

type Owner struct {
	ID          string `json:"id"`
	DisplayName string `json:"display_name"`
}

// Page is one page of a paginated Spotify collection.
type Page[T any] struct {
	Href     string  `json:"href"`
	Items    []T     `json:"items"`
	Total    int     `json:"total"`
	Limit    int     `json:"limit"`
	Offset   int     `json:"offset"`
	Next     *string `json:"next"`
	Previous *string `json:"previous"`
}

// SpotifyPlaylist represents a Spotify playlist.
type SpotifyPlaylist struct {
	ID          string                     `json:"id"`
	Name        string                     `json:"name"`
	Description string                     `json:"description"`
	Owner       Owner                      `json:"owner"`
	Public      bool                       `json:"public"`
	SnapshotID  string                     `json:"snapshot_id"`
	Tracks      Page[SpotifyPlaylistTrack] `json:"tracks"`
	Images      []SpotifyImage             `json:"images"`
	URI         string                     `json:"uri"`
}

// SpotifyPlaylistTrack represents a track within a playlist context.
type SpotifyPlaylistTrack struct {
	AddedAt string       `json:"added_at"`
	Track   SpotifyTrack `json:"track"`
}

// SpotifySimplePlaylist represents a simplified playlist object (used in lists and search results).
type SpotifySimplePlaylist struct {
	ID          string `json:"id"`
	Name        string `json:"name"`
	Description string `json:"description"`
	Owner       Owner  `json:"owner"`
	Public      bool   `json:"public"`
	URI         string `json:"uri"`
}

// SearchResult holds one page per requested [SearchType]; pages that were not requested are nil.
type SearchResult struct {
	Tracks    *Page[SpotifyTrack]          `json:"tracks,omitempty"`
	Artists   *Page[SpotifyArtist]         `json:"artists,omitempty"`
	Albums    *Page[SpotifyAlbum]          `json:"albums,omitempty"`
	Playlists *Page[SpotifySimplePlaylist] `json:"playlists,omitempty"`
}

// SpotifyDevice is a Spotify Connect device available for playback.
type SpotifyDevice struct {
	ID            string `json:"id"`
	Name          string `json:"name"`
	Type          string `json:"type"`
	IsActive      bool   `json:"is_active"`
	IsRestricted  bool   `json:"is_restricted"`
	VolumePercent *int   `json:"volume_percent"`
}

// SpotifyAudioFeatures holds the audio analysis summary for a track.
type SpotifyAudioFeatures struct {
	ID               string  `json:"id"`
	Acousticness     float64 `json:"acousticness"`
	Danceability     float64 `json:"danceability"`
	DurationMS       int     `json:"duration_ms"`
	Energy           float64 `json:"energy"`
	Instrumentalness float64 `json:"instrumentalness"`
	Key              int     `json:"key"`
	Liveness         float64 `json:"liveness"`
	Loudness         float64 `json:"loudness"`
	Mode             int     `json:"mode"`
	Speechiness      float64 `json:"speechiness"`
	Tempo            float64 `json:"tempo"`
	TimeSignature    int     `json:"time_signature"`
	Valence          float64 `json:"valence"`
}

// PlaybackOptions selects what [SpotifyService.ResumePlayback] starts. The zero value resumes the current context.
type PlaybackOptions struct {
	ContextURI string          `json:"context_uri,omitempty"`
	URIs       []string        `json:"uris,omitempty"`
	Offset     *PlaybackOffset `json:"offset,omitempty"`
	PositionMS *int            `json:"position_ms,omitempty"`
}

// PlaybackOffset picks the starting item within a context, by position or by URI.
type PlaybackOffset struct {
	Position *int  `json:"position,omitempty"`
	URI      string `json:"uri,omitempty"`
}
