// Package ui implements the terminal prompt used by `spotx auth login` when auth.prompt is "tui".
//
// [Model] follows bubbletea's Init/Update/View pattern. It tries to open the authorization page on start, shows the
// URL regardless, and collects the redirect URL in a text input. Enter submits, ctrl+o retries the browser,
// and esc cancels. [Prompter] runs the model as a program and adapts it to the auth package's prompter interface.
package ui
