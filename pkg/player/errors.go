package player

import "errors"

var (
	// ErrEmptyQueue reports a normal terminal state: nothing left to play.
	ErrEmptyQueue = errors.New("queue is empty")

	// ErrNoTransport means no voice transport is attached for the room.
	ErrNoTransport = errors.New("no transport attached for room")

	// ErrNothingPlaying is returned by operator actions that require an
	// active track (skip, seek, pause).
	ErrNothingPlaying = errors.New("nothing is playing")

	// ErrNoHistory is returned by Previous when no earlier track exists.
	ErrNoHistory = errors.New("no previous track in history")

	// ErrResolution wraps failures turning a request into a playable item.
	ErrResolution = errors.New("resolution failed")

	// ErrHandleConstruction wraps failures building a stream handle after
	// all retries.
	ErrHandleConstruction = errors.New("stream handle construction failed")

	// ErrTransport wraps play/stop failures from the voice transport.
	ErrTransport = errors.New("transport failure")
)
