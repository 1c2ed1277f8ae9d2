package shared

import (
	"errors"
	"testing"
)

func TestOpenBrowser(t *testing.T) {
	t.Run("unsupported platform", func(t *testing.T) {
		orig := getRuntime
		getRuntime = func() string { return "plan9" }
		defer func() { getRuntime = orig }()

		if err := OpenBrowser("https://accounts.spotify.com/authorize"); err == nil {
			t.Error("expected error for unsupported platform")
		}
	})

	t.Run("NoBrowser", func(t *testing.T) {
		if err := NoBrowser("https://example.com"); !errors.Is(err, ErrNotImplemented) {
			t.Errorf("expected ErrNotImplemented, got %v", err)
		}
	})
}
