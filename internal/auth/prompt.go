package auth

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"strings"

	"github.com/desertthunder/spotx/internal/shared"
)

// Prompter presents the authorization URL to the user and blocks until they supply the URL they were redirected to.
//
// This is the only step of the core that waits on a person. Implementations should return promptly once ctx is done.
type Prompter interface {
	Present(ctx context.Context, authorizeURL string) (redirectedURL string, err error)
}

// PrompterFunc adapts a function to [Prompter].
type PrompterFunc func(ctx context.Context, authorizeURL string) (string, error)

func (f PrompterFunc) Present(ctx context.Context, authorizeURL string) (string, error) {
	return f(ctx, authorizeURL)
}

// ReaderPrompter prints the authorization URL, tries to open it in a browser, and reads the redirect URL as one line
// from In.
type ReaderPrompter struct {
	In   io.Reader
	Out  io.Writer
	Open shared.BrowserOpener
}

// NewReaderPrompter creates a [ReaderPrompter] that opens URLs with [shared.OpenBrowser].
func NewReaderPrompter(in io.Reader, out io.Writer) *ReaderPrompter {
	return &ReaderPrompter{In: in, Out: out, Open: shared.OpenBrowser}
}

type readResult struct {
	line string
	err  error
}

// Present writes instructions to Out and waits for a line on In.
//
// If ctx ends first the read is abandoned; the goroutine blocked on In exits when In delivers data or closes.
func (p *ReaderPrompter) Present(ctx context.Context, authorizeURL string) (string, error) {
	if p.Open != nil {
		if err := p.Open(authorizeURL); err == nil {
			fmt.Fprintln(p.Out, "→ Opened the authorization page in your browser.")
		}
	}

	fmt.Fprintf(p.Out, "Open this URL to authorize:\n\n  %s\n\n", authorizeURL)
	fmt.Fprint(p.Out, "Paste the URL you were redirected to: ")

	lines := make(chan readResult, 1)
	go func() {
		line, err := bufio.NewReader(p.In).ReadString('\n')
		lines <- readResult{line: line, err: err}
	}()

	select {
	case <-ctx.Done():
		return "", ctx.Err()
	case res := <-lines:
		line := strings.TrimSpace(res.line)
		if line == "" {
			if res.err != nil && res.err != io.EOF {
				return "", fmt.Errorf("failed to read redirect url: %w", res.err)
			}
			return "", fmt.Errorf("%w: no redirect url entered", shared.ErrMissingArgument)
		}
		return line, nil
	}
}
