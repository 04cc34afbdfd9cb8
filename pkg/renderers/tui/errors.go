package tui

import "errors"

var (
	// ErrAborted signals the user aborted input (e.g., Ctrl+C).
	ErrAborted = errors.New("tui: aborted")
	// ErrDisabled is returned when the view is disabled or read-only.
	ErrDisabled = errors.New("tui: select is disabled")
	// ErrNoOptions is returned when there is nothing to choose from.
	ErrNoOptions = errors.New("tui: no options available")
)
