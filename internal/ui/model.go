package ui

import (
	"fmt"
	"net/url"
	"strings"

	"github.com/charmbracelet/bubbles/help"
	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/desertthunder/spotx/internal/shared"
)

// Model shows the authorization URL and collects the redirect URL the user pastes back.
type Model struct {
	authorizeURL string
	open         shared.BrowserOpener
	input        textinput.Model
	help         help.Model
	keys         keyMap

	opened    bool
	openErr   error
	invalid   string
	value     string
	cancelled bool
}

// NewModel creates a [Model] for authorizeURL. open may be nil to never launch a browser.
func NewModel(authorizeURL string, open shared.BrowserOpener) *Model {
	input := textinput.New()
	input.Placeholder = "http://127.0.0.1:3000/callback?code=…&state=…"
	input.Prompt = "› "
	input.CharLimit = 4096
	input.Width = 72
	input.Focus()

	return &Model{
		authorizeURL: authorizeURL,
		open:         open,
		input:        input,
		help:         help.New(),
		keys:         newKeyMap(),
	}
}

// Value returns the submitted redirect URL, or "" if nothing was submitted.
func (m *Model) Value() string {
	return m.value
}

// Cancelled reports whether the user quit without submitting.
func (m *Model) Cancelled() bool {
	return m.cancelled
}

func (m *Model) Init() tea.Cmd {
	return tea.Batch(textinput.Blink, openBrowser(m.open, m.authorizeURL))
}

func (m *Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		if msg.Width > 8 {
			m.input.Width = msg.Width - 8
		}
		m.help.Width = msg.Width
		return m, nil

	case browserOpenedMsg:
		m.opened = msg.err == nil
		m.openErr = msg.err
		return m, nil

	case tea.KeyMsg:
		switch {
		case key.Matches(msg, m.keys.quit):
			m.cancelled = true
			return m, tea.Quit
		case key.Matches(msg, m.keys.open):
			return m, openBrowser(m.open, m.authorizeURL)
		case key.Matches(msg, m.keys.submit):
			return m.submit()
		}
	}

	var cmd tea.Cmd
	m.input, cmd = m.input.Update(msg)
	return m, cmd
}

func (m *Model) submit() (tea.Model, tea.Cmd) {
	value := strings.TrimSpace(m.input.Value())
	if value == "" {
		m.invalid = "paste the URL from your browser's address bar"
		return m, nil
	}

	u, err := url.Parse(value)
	if err != nil || u.RawQuery == "" {
		m.invalid = "that does not look like a redirect URL"
		return m, nil
	}

	m.invalid = ""
	m.value = value
	return m, tea.Quit
}

func (m *Model) View() string {
	var b strings.Builder

	b.WriteString(styles.title.Render("Authorize spotx"))
	b.WriteString("\n")

	switch {
	case m.opened:
		b.WriteString(styles.ok.Render("✓ Opened the authorization page in your browser."))
		b.WriteString("\n\n")
	case m.openErr != nil:
		b.WriteString(styles.warn.Render(fmt.Sprintf("Could not open a browser: %v", m.openErr)))
		b.WriteString("\n\n")
	}

	b.WriteString("Open this URL to authorize:\n\n  ")
	b.WriteString(styles.link.Render(m.authorizeURL))
	b.WriteString("\n\nPaste the URL you were redirected to:\n\n")
	b.WriteString(m.input.View())
	b.WriteString("\n")

	if m.invalid != "" {
		b.WriteString("\n")
		b.WriteString(styles.err.Render(m.invalid))
		b.WriteString("\n")
	}

	b.WriteString("\n")
	b.WriteString(styles.help.Render(m.help.View(m.keys)))
	b.WriteString("\n")

	return b.String()
}
