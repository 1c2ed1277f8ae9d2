package main

import (
	"context"
	"fmt"
	"strconv"
	"strings"

	"github.com/desertthunder/spotx/internal/auth"
	"github.com/desertthunder/spotx/internal/formatter"
	"github.com/desertthunder/spotx/internal/services"
	"github.com/desertthunder/spotx/internal/shared"
	"github.com/urfave/cli/v3"
)

// apiSession is a Web API client and the credential cache backing its session.
type apiSession struct {
	spotify *services.SpotifyService
	cache   *credentialCache
}

func (a *apiSession) Close() error {
	if a.cache == nil {
		return nil
	}
	return a.cache.Close()
}

// openAPI authorizes as the application when --app is set and as the user otherwise.
func (r *Runner) openAPI(ctx context.Context, cmd *cli.Command) (*apiSession, error) {
	var (
		session *auth.Session
		cache   *credentialCache
		err     error
	)

	if cmd.Bool("app") {
		session, err = r.appSession(ctx)
	} else {
		session, cache, err = r.userSession(ctx, "")
	}
	if err != nil {
		return nil, err
	}

	spotify, err := r.spotify(session, cmd.String("market"))
	if err != nil {
		if cache != nil {
			cache.Close()
		}
		return nil, err
	}
	return &apiSession{spotify: spotify, cache: cache}, nil
}

// APIMe shows the profile of the authorized user.
func (r *Runner) APIMe(ctx context.Context, cmd *cli.Command) error {
	a, err := r.openAPI(ctx, cmd)
	if err != nil {
		return err
	}
	defer a.Close()

	user, err := a.spotify.CurrentUser(ctx)
	if err != nil {
		return err
	}

	if cmd.Bool("json") {
		return r.writeJSON(user, cmd.Bool("pretty"))
	}
	return r.writeBytes(formatter.UserToText(user))
}

// APITrack shows a single track.
func (r *Runner) APITrack(ctx context.Context, cmd *cli.Command) error {
	id := cmd.StringArg("id")
	if id == "" {
		return fmt.Errorf("%w: track id", shared.ErrMissingArgument)
	}

	a, err := r.openAPI(ctx, cmd)
	if err != nil {
		return err
	}
	defer a.Close()

	track, err := a.spotify.Track(ctx, id)
	if err != nil {
		return err
	}

	if cmd.Bool("json") {
		return r.writeJSON(track, cmd.Bool("pretty"))
	}
	return r.writeBytes(formatter.TracksToText([]services.SpotifyTrack{*track}))
}

// APISearch searches the catalog for one or more item types.
func (r *Runner) APISearch(ctx context.Context, cmd *cli.Command) error {
	query := cmd.StringArg("query")
	if query == "" {
		return fmt.Errorf("%w: search query", shared.ErrMissingArgument)
	}

	format, err := r.format(cmd)
	if err != nil {
		return err
	}

	var types []services.SearchType
	for _, t := range strings.Split(cmd.String("type"), ",") {
		if t = strings.TrimSpace(t); t != "" {
			types = append(types, services.SearchType(t))
		}
	}

	a, err := r.openAPI(ctx, cmd)
	if err != nil {
		return err
	}
	defer a.Close()

	result, err := a.spotify.Search(ctx, query, types, cmd.Int("limit"), cmd.Int("offset"))
	if err != nil {
		return err
	}

	switch format {
	case formatter.FormatJSON:
		return r.writeJSON(result, cmd.Bool("pretty"))
	case formatter.FormatCSV:
		if result.Tracks == nil {
			return fmt.Errorf("%w: csv output requires --type track", shared.ErrInvalidArgument)
		}
		data, err := formatter.TracksToCSV(result.Tracks.Items)
		if err != nil {
			return err
		}
		return r.writeBytes(data)
	default:
		return r.writeBytes(formatter.SearchResultToText(result))
	}
}

// APIPlaylist shows a playlist with its first page of tracks.
func (r *Runner) APIPlaylist(ctx context.Context, cmd *cli.Command) error {
	id := cmd.StringArg("id")
	if id == "" {
		return fmt.Errorf("%w: playlist id", shared.ErrMissingArgument)
	}

	format, err := r.format(cmd)
	if err != nil {
		return err
	}

	a, err := r.openAPI(ctx, cmd)
	if err != nil {
		return err
	}
	defer a.Close()

	playlist, err := a.spotify.Playlist(ctx, id)
	if err != nil {
		return err
	}

	switch format {
	case formatter.FormatJSON:
		return r.writeJSON(playlist, cmd.Bool("pretty"))
	case formatter.FormatCSV:
		tracks := make([]services.SpotifyTrack, 0, len(playlist.Tracks.Items))
		for _, item := range playlist.Tracks.Items {
			tracks = append(tracks, item.Track)
		}
		data, err := formatter.TracksToCSV(tracks)
		if err != nil {
			return err
		}
		return r.writeBytes(data)
	default:
		return r.writeBytes(formatter.PlaylistToText(playlist))
	}
}

// APIAdd adds track URIs to a playlist owned or followed by the user.
func (r *Runner) APIAdd(ctx context.Context, cmd *cli.Command) error {
	args := cmd.Args().Slice()
	if len(args) < 2 {
		return fmt.Errorf("%w: playlist id and at least one track uri", shared.ErrMissingArgument)
	}
	playlistID, uris := args[0], args[1:]

	var position *int
	if p := cmd.Int("position"); p >= 0 {
		position = &p
	}

	a, err := r.openAPI(ctx, cmd)
	if err != nil {
		return err
	}
	defer a.Close()

	snapshot, err := a.spotify.AddTracksToPlaylist(ctx, playlistID, uris, position)
	if err != nil {
		return err
	}

	if cmd.Bool("json") {
		return r.writeJSON(map[string]any{"snapshot_id": snapshot, "added": len(uris)}, cmd.Bool("pretty"))
	}
	return r.writePlain("✓ Added %d track(s) to %s (snapshot %s)\n", len(uris), playlistID, snapshot)
}

// APIDevices lists the user's Spotify Connect devices.
func (r *Runner) APIDevices(ctx context.Context, cmd *cli.Command) error {
	a, err := r.openAPI(ctx, cmd)
	if err != nil {
		return err
	}
	defer a.Close()

	devices, err := a.spotify.Devices(ctx)
	if err != nil {
		return err
	}

	if cmd.Bool("json") {
		return r.writeJSON(devices, cmd.Bool("pretty"))
	}
	return r.writeBytes(formatter.DevicesToText(devices))
}

// APIPause pauses playback on the active or named device.
func (r *Runner) APIPause(ctx context.Context, cmd *cli.Command) error {
	a, err := r.openAPI(ctx, cmd)
	if err != nil {
		return err
	}
	defer a.Close()

	if err := a.spotify.PausePlayback(ctx, cmd.String("device")); err != nil {
		return err
	}

	return r.writePlain("✓ Playback paused\n")
}

// APIPlay starts or resumes playback, optionally from a context or a list of track URIs.
func (r *Runner) APIPlay(ctx context.Context, cmd *cli.Command) error {
	opts := services.PlaybackOptions{ContextURI: cmd.String("context"), URIs: cmd.Args().Slice()}
	if opts.ContextURI != "" && len(opts.URIs) > 0 {
		return fmt.Errorf("%w: use either --context or track uris", shared.ErrInvalidArgument)
	}

	return r.playback(ctx, cmd, "✓ Playback started\n", func(s *services.SpotifyService, device string) error {
		return s.ResumePlayback(ctx, device, opts)
	})
}

// APINext skips to the next track.
func (r *Runner) APINext(ctx context.Context, cmd *cli.Command) error {
	return r.playback(ctx, cmd, "✓ Skipped to next track\n", func(s *services.SpotifyService, device string) error {
		return s.NextTrack(ctx, device)
	})
}

// APIPrevious skips to the previous track.
func (r *Runner) APIPrevious(ctx context.Context, cmd *cli.Command) error {
	return r.playback(ctx, cmd, "✓ Skipped to previous track\n", func(s *services.SpotifyService, device string) error {
		return s.PreviousTrack(ctx, device)
	})
}

// APISeek moves playback to a position given in seconds.
func (r *Runner) APISeek(ctx context.Context, cmd *cli.Command) error {
	arg := cmd.Args().First()
	if arg == "" {
		return fmt.Errorf("%w: position in seconds", shared.ErrMissingArgument)
	}
	seconds, err := strconv.ParseFloat(arg, 64)
	if err != nil || seconds < 0 {
		return fmt.Errorf("%w: position %q", shared.ErrInvalidArgument, arg)
	}
	positionMS := int(seconds * 1000)

	return r.playback(ctx, cmd, fmt.Sprintf("✓ Seeked to %ss\n", arg), func(s *services.SpotifyService, device string) error {
		return s.SeekPlayback(ctx, positionMS, device)
	})
}

// playback runs a player control against the --device flag and prints done on success.
func (r *Runner) playback(ctx context.Context, cmd *cli.Command, done string, control func(*services.SpotifyService, string) error) error {
	a, err := r.openAPI(ctx, cmd)
	if err != nil {
		return err
	}
	defer a.Close()

	if err := control(a.spotify, cmd.String("device")); err != nil {
		return err
	}
	return r.writePlain("%s", done)
}

// APIFeatures shows audio features for one or more tracks.
func (r *Runner) APIFeatures(ctx context.Context, cmd *cli.Command) error {
	ids := cmd.Args().Slice()
	if len(ids) == 0 {
		return fmt.Errorf("%w: at least one track id", shared.ErrMissingArgument)
	}

	a, err := r.openAPI(ctx, cmd)
	if err != nil {
		return err
	}
	defer a.Close()

	features, err := a.spotify.AudioFeatures(ctx, ids...)
	if err != nil {
		return err
	}

	if cmd.Bool("json") {
		return r.writeJSON(features, cmd.Bool("pretty"))
	}
	return r.writeBytes(formatter.AudioFeaturesToText(ids, features))
}

// format reads --format, falling back to JSON when --json is set.
func (r *Runner) format(cmd *cli.Command) (formatter.Format, error) {
	if cmd.Bool("json") {
		return formatter.FormatJSON, nil
	}
	return formatter.ParseFormat(cmd.String("format"))
}
