// Package ui implements an interactive terminal interface using bubbletea's Elm architecture.
//
// The TUI is a search-and-download workflow over a [session.Session]:
//  1. [SearchView] : Enter a query
//  2. [ResultsView] : Browse results, play/pause them in the player bar and start downloads
//
// The (view) [Model] implements bubbletea/Elm's standard Init/Update/View pattern, receiving messages via the Msg union type.
// Download progress flows through the channel the session's tracker publishes on; the model re-subscribes after every update.
//
// Keyboard navigation uses vim-style bindings (j/k, enter, esc, d, space, x, q) with contextual help displayed via charmbracelet/bubbles/help.
package ui
