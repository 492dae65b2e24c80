// Package ui implements an interactive terminal interface using bubbletea's Elm architecture.
//
// The TUI is a thin observer over the session state machine:
//  1. [LoginView] : Shows authentication progress and starts the browser flow
//  2. [BrowseView] : Labeled shelves of playlists (featured + browse categories)
//  3. [PlaylistListView] : Playlists inside a selected shelf
//  4. [SearchView] : Incremental search with automatic cancellation of stale queries
//
// The [Model] implements bubbletea's standard Init/Update/View pattern. Session
// state changes and search results flow in through channels bridged to tea.Cmd,
// keeping the Update loop non-blocking. Browse content refreshes on a timer so
// the home screen stays current without restarting.
//
// Keyboard navigation uses vim-style bindings (j/k, enter, esc, /, q) with
// contextual help displayed via charmbracelet/bubbles/help.
package ui
