package ui

import (
	"context"
	"fmt"
	"io"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/desertthunder/spotx/internal/shared"
)

// Prompter implements auth.Prompter with a full-screen text input.
type Prompter struct {
	In   io.Reader
	Out  io.Writer
	Open shared.BrowserOpener
}

// NewPrompter creates a [Prompter] on the given terminal streams that opens URLs with [shared.OpenBrowser].
func NewPrompter(in io.Reader, out io.Writer) *Prompter {
	return &Prompter{In: in, Out: out, Open: shared.OpenBrowser}
}

// Present runs the prompt until the user submits a redirect URL, quits, or ctx ends.
func (p *Prompter) Present(ctx context.Context, authorizeURL string) (string, error) {
	model := NewModel(authorizeURL, p.Open)

	opts := []tea.ProgramOption{tea.WithContext(ctx)}
	if p.In != nil {
		opts = append(opts, tea.WithInput(p.In))
	}
	if p.Out != nil {
		opts = append(opts, tea.WithOutput(p.Out))
	}

	final, err := tea.NewProgram(model, opts...).Run()
	if ctxErr := ctx.Err(); ctxErr != nil {
		return "", ctxErr
	}
	if err != nil {
		return "", fmt.Errorf("error running prompt: %w", err)
	}

	m, ok := final.(*Model)
	if !ok || m.Cancelled() || m.Value() == "" {
		return "", fmt.Errorf("%w: authorization cancelled", shared.ErrMissingArgument)
	}
	return m.Value(), nil
}
