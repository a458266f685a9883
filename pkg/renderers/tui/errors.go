package tui

import "errors"

var (
	// ErrAborted signals the user aborted input (e.g., Ctrl+C).
	ErrAborted = errors.New("tui: aborted")
	// ErrNoParameters is returned when the store holds no schema to tune.
	ErrNoParameters = errors.New("tui: no parameters to tune")
)
