// package formatter renders tokens and Web API results for the terminal (plain text, CSV, JSON)
package formatter

import (
	"bytes"
	"encoding/csv"
	"encoding/json"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/desertthunder/spotx/internal/auth"
	"github.com/desertthunder/spotx/internal/services"
)

// Format selects an output representation.
type Format string

const (
	FormatText Format = "text"
	FormatCSV  Format = "csv"
	FormatJSON Format = "json"
)

// ParseFormat maps a flag value to a [Format]. The empty string is text.
func ParseFormat(s string) (Format, error) {
	switch f := Format(strings.ToLower(strings.TrimSpace(s))); f {
	case "", FormatText:
		return FormatText, nil
	case FormatCSV, FormatJSON:
		return f, nil
	default:
		return "", fmt.Errorf("unknown output format %q (want text, csv or json)", s)
	}
}

// JSON encodes v, indented when pretty is set, with a trailing newline.
func JSON(v any, pretty bool) ([]byte, error) {
	var (
		data []byte
		err  error
	)
	if pretty {
		data, err = json.MarshalIndent(v, "", "  ")
	} else {
		data, err = json.Marshal(v)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to marshal JSON: %w", err)
	}
	return append(data, '\n'), nil
}

// Duration formats milliseconds as m:ss.
func Duration(ms int) string {
	total := ms / 1000
	return fmt.Sprintf("%d:%02d", total/60, total%60)
}

// TokenStatus is the JSON form of a cached token's status. It never contains token values.
type TokenStatus struct {
	ID          string    `json:"id"`
	Type        string    `json:"token_type"`
	IssuedAt    time.Time `json:"issued_at"`
	ExpiresAt   time.Time `json:"expires_at"`
	Expired     bool      `json:"expired"`
	Scope       []string  `json:"scope"`
	Refreshable bool      `json:"refreshable"`
}

// NewTokenStatus describes tok as of now.
func NewTokenStatus(id string, tok *auth.Token, now time.Time) TokenStatus {
	return TokenStatus{
		ID:          id,
		Type:        tok.Type(),
		IssuedAt:    tok.IssuedAt(),
		ExpiresAt:   tok.ExpiresAt(),
		Expired:     tok.ExpiredAt(now),
		Scope:       tok.Scope(),
		Refreshable: tok.HasRefreshToken(),
	}
}

// Text renders the status as aligned key/value lines.
func (s TokenStatus) Text(now time.Time) []byte {
	var buf bytes.Buffer

	state := "✓ valid"
	remaining := s.ExpiresAt.Sub(now).Round(time.Second)
	if s.Expired {
		state = "✗ expired"
		remaining = -remaining
	}

	scope := strings.Join(s.Scope, " ")
	if scope == "" {
		scope = "(none)"
	}

	fmt.Fprintf(&buf, "Credential:  %s\n", s.ID)
	fmt.Fprintf(&buf, "Status:      %s\n", state)
	fmt.Fprintf(&buf, "Type:        %s\n", s.Type)
	fmt.Fprintf(&buf, "Issued:      %s\n", s.IssuedAt.Local().Format(time.RFC1123))
	if s.Expired {
		fmt.Fprintf(&buf, "Expired:     %s (%s ago)\n", s.ExpiresAt.Local().Format(time.RFC1123), remaining)
	} else {
		fmt.Fprintf(&buf, "Expires:     %s (in %s)\n", s.ExpiresAt.Local().Format(time.RFC1123), remaining)
	}
	fmt.Fprintf(&buf, "Scope:       %s\n", scope)
	fmt.Fprintf(&buf, "Refreshable: %s\n", strconv.FormatBool(s.Refreshable))

	return buf.Bytes()
}

// TracksToCSV converts tracks to CSV with columns: ID, Title, Artist, Album, Duration, ISRC, URI
func TracksToCSV(tracks []services.SpotifyTrack) ([]byte, error) {
	var buf bytes.Buffer
	writer := csv.NewWriter(&buf)

	headers := []string{"ID", "Title", "Artist", "Album", "Duration", "ISRC", "URI"}
	if err := writer.Write(headers); err != nil {
		return nil, fmt.Errorf("failed to write CSV headers: %w", err)
	}

	for _, track := range tracks {
		record := []string{
			track.ID,
			track.Name,
			strings.Join(track.ArtistNames(), "; "),
			track.Album.Name,
			Duration(track.DurationMS),
			track.ExternalIDs.ISRC,
			track.URI,
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

// TracksToText renders tracks as a numbered list: "1. Artist - Title (Album) [3:00]"
func TracksToText(tracks []services.SpotifyTrack) []byte {
	var buf bytes.Buffer

	for i, track := range tracks {
		albumPart := ""
		if track.Album.Name != "" {
			albumPart = fmt.Sprintf(" (%s)", track.Album.Name)
		}
		fmt.Fprintf(&buf, "%d. %s - %s%s [%s]\n", i+1, strings.Join(track.ArtistNames(), ", "), track.Name, albumPart, Duration(track.DurationMS))
		if track.ID != "" {
			fmt.Fprintf(&buf, "   %s\n", track.ID)
		}
	}

	return buf.Bytes()
}

// UserToText renders a user profile.
func UserToText(user *services.SpotifyUser) []byte {
	var buf bytes.Buffer

	fmt.Fprintf(&buf, "User:      %s\n", user.DisplayName)
	fmt.Fprintf(&buf, "ID:        %s\n", user.ID)
	if user.Email != "" {
		fmt.Fprintf(&buf, "Email:     %s\n", user.Email)
	}
	if user.Country != "" {
		fmt.Fprintf(&buf, "Country:   %s\n", user.Country)
	}
	if user.Product != "" {
		fmt.Fprintf(&buf, "Product:   %s\n", user.Product)
	}
	fmt.Fprintf(&buf, "Followers: %d\n", user.Followers.Total)

	return buf.Bytes()
}

// PlaylistToText renders a playlist header followed by its tracks.
func PlaylistToText(playlist *services.SpotifyPlaylist) []byte {
	var buf bytes.Buffer

	fmt.Fprintf(&buf, "Playlist: %s\n", playlist.Name)
	if playlist.Description != "" {
		fmt.Fprintf(&buf, "Description: %s\n", playlist.Description)
	}
	if playlist.Owner.DisplayName != "" {
		fmt.Fprintf(&buf, "Owner: %s\n", playlist.Owner.DisplayName)
	}
	fmt.Fprintf(&buf, "Tracks: %d\n\n", playlist.Tracks.Total)

	tracks := make([]services.SpotifyTrack, 0, len(playlist.Tracks.Items))
	for _, item := range playlist.Tracks.Items {
		tracks = append(tracks, item.Track)
	}
	buf.Write(TracksToText(tracks))

	if n := len(playlist.Tracks.Items); n < playlist.Tracks.Total {
		fmt.Fprintf(&buf, "… and %d more\n", playlist.Tracks.Total-n)
	}

	return buf.Bytes()
}

// DevicesToText renders one line per device, marking the active one.
func DevicesToText(devices []services.SpotifyDevice) []byte {
	if len(devices) == 0 {
		return []byte("No available devices\n")
	}

	var buf bytes.Buffer
	for _, d := range devices {
		marker := " "
		if d.IsActive {
			marker = "▶"
		}

		volume := ""
		if d.VolumePercent != nil {
			volume = fmt.Sprintf(" %d%%", *d.VolumePercent)
		}

		fmt.Fprintf(&buf, "%s %s (%s)%s  %s\n", marker, d.Name, d.Type, volume, d.ID)
	}
	return buf.Bytes()
}

// AudioFeaturesToText writes one line per track. Tracks the API did not know are listed as unavailable.
func AudioFeaturesToText(ids []string, features []services.SpotifyAudioFeatures) []byte {
	var buf bytes.Buffer
	for i, f := range features {
		id := f.ID
		if id == "" {
			if i < len(ids) {
				id = ids[i]
			}
			fmt.Fprintf(&buf, "%s  unavailable\n", id)
			continue
		}
		fmt.Fprintf(&buf, "%s  tempo=%.1f key=%d mode=%d energy=%.2f danceability=%.2f valence=%.2f\n",
			id, f.Tempo, f.Key, f.Mode, f.Energy, f.Danceability, f.Valence)
	}
	return buf.Bytes()
}

// SearchResultToText renders each page that was requested under its own heading.
func SearchResultToText(result *services.SearchResult) []byte {
	var buf bytes.Buffer

	if p := result.Tracks; p != nil {
		fmt.Fprintf(&buf, "Tracks (%d of %d)\n", len(p.Items), p.Total)
		buf.Write(TracksToText(p.Items))
	}
	if p := result.Artists; p != nil {
		fmt.Fprintf(&buf, "Artists (%d of %d)\n", len(p.Items), p.Total)
		for i, a := range p.Items {
			fmt.Fprintf(&buf, "%d. %s  %s\n", i+1, a.Name, a.ID)
		}
	}
	if p := result.Albums; p != nil {
		fmt.Fprintf(&buf, "Albums (%d of %d)\n", len(p.Items), p.Total)
		for i, a := range p.Items {
			artists := make([]string, 0, len(a.Artists))
			for _, artist := range a.Artists {
				artists = append(artists, artist.Name)
			}
			fmt.Fprintf(&buf, "%d. %s - %s  %s\n", i+1, strings.Join(artists, ", "), a.Name, a.ID)
		}
	}
	if p := result.Playlists; p != nil {
		fmt.Fprintf(&buf, "Playlists (%d of %d)\n", len(p.Items), p.Total)
		for i, pl := range p.Items {
			fmt.Fprintf(&buf, "%d. %s by %s  %s\n", i+1, pl.Name, pl.Owner.DisplayName, pl.ID)
		}
	}

	if buf.Len() == 0 {
		return []byte("No results\n")
	}
	return buf.Bytes()
}
