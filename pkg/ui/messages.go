package ui

import "github.com/fd1az/perpetual-pools/business/pools/app"

// Message types for TUI updates

// ViewMsg carries the result of one browse.
type ViewMsg struct {
	View *app.BrowseView
	Err  error
	// Seq discards results of browses that were superseded by a newer one.
	Seq uint64
}

// RefreshMsg asks for a new browse with the current state.
type RefreshMsg struct{}

// TickMsg is sent periodically for UI updates.
type TickMsg struct{}

// ErrorMsg is sent when an error occurs.
type ErrorMsg struct {
	Error error
}
