// Package ui implements an interactive terminal interface using bubbletea's Elm architecture.
//
// The TUI has three views:
//  1. [CurrentView] : The current bookings, refreshed by the poll loop
//  2. [ArchiveView] : Past bookings kept in the local archive
//  3. [ConfirmDeleteView] : Confirm deleting the selected booking
//
// The (view) [Model] implements bubbletea/Elm's standard Init/Update/View pattern, receiving messages via the Msg union type.
// Bookings arrive as notifications from the sync engine; the list is only rebuilt when their contents change.
// Terminal focus and blur map to the scheduler: blur stops polling, focus resumes it and syncs immediately.
//
// Keyboard navigation uses vim-style bindings (j/k, r, a, d, y/n, esc, q) with contextual help displayed via charmbracelet/bubbles/help.
package ui
