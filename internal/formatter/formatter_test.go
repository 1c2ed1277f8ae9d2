package formatter

import (
	"encoding/csv"
	"encoding/json"
	"strings"
	"testing"
	"time"

	"github.com/desertthunder/spotx/internal/auth"
	"github.com/desertthunder/spotx/internal/services"
)

var testTracks = []services.SpotifyTrack{
	{
		ID:         "track1",
		Name:       "Song One",
		Artists:    []services.SpotifyArtist{{Name: "Artist One"}, {Name: "Guest"}},
		Album:      services.SpotifyAlbum{Name: "Album One"},
		DurationMS: 180000,
		URI:        "spotify:track:track1",
	},
	{
		ID:         "track2",
		Name:       "Song, Two",
		Artists:    []services.SpotifyArtist{{Name: "Artist Two"}},
		DurationMS: 245500,
	},
}

func TestParseFormat(t *testing.T) {
	tc := map[string]Format{"": FormatText, "text": FormatText, "CSV": FormatCSV, " json ": FormatJSON}
	for in, want := range tc {
		got, err := ParseFormat(in)
		if err != nil || got != want {
			t.Errorf("ParseFormat(%q) = (%q, %v), want %q", in, got, err, want)
		}
	}

	if _, err := ParseFormat("yaml"); err == nil {
		t.Error("expected error for unknown format")
	}
}

func TestDuration(t *testing.T) {
	tc := map[int]string{0: "0:00", 59999: "0:59", 180000: "3:00", 245500: "4:05", 3600000: "60:00"}
	for ms, want := range tc {
		if got := Duration(ms); got != want {
			t.Errorf("Duration(%d) = %q, want %q", ms, got, want)
		}
	}
}

func TestTokenStatus(t *testing.T) {
	issuedAt := time.Date(2026, 10, 17, 12, 0, 0, 0, time.UTC)
	tok := auth.NewToken("secret-value", "Bearer", 3600, issuedAt, []string{"user-read-private"}, "secret-refresh")

	t.Run("valid", func(t *testing.T) {
		now := issuedAt.Add(30 * time.Minute)
		status := NewTokenStatus("user", tok, now)

		if status.Expired || !status.Refreshable {
			t.Errorf("unexpected status %+v", status)
		}

		out := string(status.Text(now))
		if !strings.Contains(out, "✓ valid") || !strings.Contains(out, "in 30m0s") {
			t.Errorf("unexpected text %s", out)
		}
		if !strings.Contains(out, "user-read-private") {
			t.Errorf("expected scope in text, got %s", out)
		}
	})

	t.Run("expired", func(t *testing.T) {
		now := issuedAt.Add(2 * time.Hour)
		out := string(NewTokenStatus("user", tok, now).Text(now))
		if !strings.Contains(out, "✗ expired") || !strings.Contains(out, "1h0m0s ago") {
			t.Errorf("unexpected text %s", out)
		}
	})

	t.Run("no secrets", func(t *testing.T) {
		now := issuedAt
		status := NewTokenStatus("user", tok, now)
		data, err := JSON(status, false)
		if err != nil {
			t.Fatalf("JSON failed: %v", err)
		}
		for _, out := range []string{string(data), string(status.Text(now))} {
			if strings.Contains(out, "secret") {
				t.Errorf("token values leaked: %s", out)
			}
		}
	})

	t.Run("empty scope", func(t *testing.T) {
		app := auth.NewToken("v", "Bearer", 3600, issuedAt, nil, "")
		out := string(NewTokenStatus("app", app, issuedAt).Text(issuedAt))
		if !strings.Contains(out, "(none)") {
			t.Errorf("expected placeholder for empty scope, got %s", out)
		}
	})
}

func TestExporters(t *testing.T) {
	t.Run("TracksToCSV", func(t *testing.T) {
		data, err := TracksToCSV(testTracks)
		if err != nil {
			t.Fatalf("TracksToCSV failed: %v", err)
		}

		records, err := csv.NewReader(strings.NewReader(string(data))).ReadAll()
		if err != nil {
			t.Fatalf("invalid CSV: %v", err)
		}
		if len(records) != 3 {
			t.Fatalf("expected header and 2 rows, got %d", len(records))
		}
		if strings.Join(records[0], ",") != "ID,Title,Artist,Album,Duration,ISRC,URI" {
			t.Errorf("unexpected headers %v", records[0])
		}
		if records[1][2] != "Artist One; Guest" || records[1][4] != "3:00" {
			t.Errorf("unexpected first row %v", records[1])
		}
		if records[2][1] != "Song, Two" {
			t.Errorf("expected quoted title to round trip, got %q", records[2][1])
		}
	})

	t.Run("TracksToText", func(t *testing.T) {
		out := string(TracksToText(testTracks))
		if !strings.Contains(out, "1. Artist One, Guest - Song One (Album One) [3:00]") {
			t.Errorf("unexpected first line in %s", out)
		}
		if !strings.Contains(out, "2. Artist Two - Song, Two [4:05]") {
			t.Errorf("unexpected second line in %s", out)
		}
	})

	t.Run("UserToText", func(t *testing.T) {
		user := &services.SpotifyUser{ID: "u1", DisplayName: "Test User", Product: "premium"}
		out := string(UserToText(user))
		if !strings.Contains(out, "Test User") || !strings.Contains(out, "premium") {
			t.Errorf("unexpected text %s", out)
		}
		if strings.Contains(out, "Email") {
			t.Error("empty email should be omitted")
		}
	})

	t.Run("PlaylistToText", func(t *testing.T) {
		playlist := &services.SpotifyPlaylist{Name: "Mix", Description: "A test playlist"}
		playlist.Tracks.Total = 5
		playlist.Tracks.Items = []services.SpotifyPlaylistTrack{{Track: testTracks[0]}}

		out := string(PlaylistToText(playlist))
		if !strings.Contains(out, "Playlist: Mix") || !strings.Contains(out, "Tracks: 5") {
			t.Errorf("unexpected header in %s", out)
		}
		if !strings.Contains(out, "and 4 more") {
			t.Errorf("expected remaining count, got %s", out)
		}
	})

	t.Run("DevicesToText", func(t *testing.T) {
		volume := 40
		out := string(DevicesToText([]services.SpotifyDevice{
			{ID: "d1", Name: "Laptop", Type: "Computer", IsActive: true, VolumePercent: &volume},
			{ID: "d2", Name: "Phone", Type: "Smartphone"},
		}))
		if !strings.Contains(out, "▶ Laptop (Computer) 40%  d1") {
			t.Errorf("unexpected active device line in %s", out)
		}
		if !strings.Contains(out, "  Phone (Smartphone)  d2") {
			t.Errorf("unexpected inactive device line in %s", out)
		}

		if got := string(DevicesToText(nil)); got != "No available devices\n" {
			t.Errorf("unexpected empty output %q", got)
		}
	})

	t.Run("AudioFeaturesToText", func(t *testing.T) {
		out := string(AudioFeaturesToText([]string{"t1", "gone"}, []services.SpotifyAudioFeatures{
			{ID: "t1", Tempo: 120.5, Key: 5, Mode: 1, Energy: 0.8, Danceability: 0.5, Valence: 0.25},
			{},
		}))
		if !strings.Contains(out, "t1  tempo=120.5 key=5 mode=1 energy=0.80 danceability=0.50 valence=0.25") {
			t.Errorf("unexpected features line in %s", out)
		}
		if !strings.Contains(out, "gone  unavailable") {
			t.Errorf("expected unknown track to be listed, got %s", out)
		}
	})

	t.Run("SearchResultToText", func(t *testing.T) {
		result := &services.SearchResult{
			Tracks:  &services.Page[services.SpotifyTrack]{Items: testTracks[:1], Total: 12},
			Artists: &services.Page[services.SpotifyArtist]{Items: []services.SpotifyArtist{{ID: "a1", Name: "Artist One"}}, Total: 1},
		}

		out := string(SearchResultToText(result))
		for _, want := range []string{"Tracks (1 of 12)", "1. Artist One, Guest - Song One", "Artists (1 of 1)", "1. Artist One  a1"} {
			if !strings.Contains(out, want) {
				t.Errorf("expected %q in %s", want, out)
			}
		}
		if strings.Contains(out, "Albums") {
			t.Error("pages that were not requested should be omitted")
		}

		if got := string(SearchResultToText(&services.SearchResult{})); got != "No results\n" {
			t.Errorf("unexpected empty output %q", got)
		}
	})

	t.Run("JSON", func(t *testing.T) {
		data, err := JSON(map[string]string{"key": "value"}, true)
		if err != nil {
			t.Fatalf("JSON failed: %v", err)
		}
		if !strings.Contains(string(data), `"key": "value"`) || !strings.HasSuffix(string(data), "\n") {
			t.Errorf("unexpected output %q", data)
		}

		var m map[string]string
		compact, _ := JSON(map[string]string{"key": "value"}, false)
		if err := json.Unmarshal(compact, &m); err != nil || m["key"] != "value" {
			t.Errorf("compact output did not round trip: %q", compact)
		}
	})
}
