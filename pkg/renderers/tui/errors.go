package tui

import "errors"

var (
	// ErrAborted signals the user aborted input (e.g., Ctrl+C).
	ErrAborted = errors.New("tui: aborted")
	// ErrNoSession is returned when a prompt flow runs without a session.
	ErrNoSession = errors.New("tui: session is nil")
)
