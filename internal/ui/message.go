package ui

import (
	tea "github.com/charmbracelet/bubbletea"
	"github.com/desertthunder/spotx/internal/shared"
)

// browserOpenedMsg reports the outcome of launching the browser.
type browserOpenedMsg struct {
	err error
}

var _ tea.Msg = browserOpenedMsg{}

func openBrowser(open shared.BrowserOpener, url string) tea.Cmd {
	if open == nil {
		return nil
	}
	return func() tea.Msg {
		return browserOpenedMsg{err: open(url)}
	}
}
