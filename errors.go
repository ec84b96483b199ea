// Package tracks provides an in-memory editor for 16-bit mono PCM tracks built on
// segment chains, with structural sharing between tracks and correlation search.
package tracks

import (
	"errors"
	"fmt"
)

// Position errors
var (
	// ErrOutOfRange indicates that a position lies beyond the end of a track
	// where the operation does not clamp it.
	ErrOutOfRange = errors.New("position out of range")

	// ErrViewDepth indicates that an insert would create a view deeper than
	// the library's MaxViewDepth.
	ErrViewDepth = fmt.Errorf("%w: view depth limit exceeded", ErrOutOfRange)
)

// Sharing errors
var (
	// ErrLocked indicates that a delete touches samples another view still borrows.
	ErrLocked = errors.New("samples are referenced by a view")

	// ErrBusy indicates that a track cannot be closed while other tracks view it.
	ErrBusy = errors.New("track is viewed by another track")
)

// Resource errors
var (
	// ErrOutOfMemory indicates that an append would exceed the library's sample budget.
	ErrOutOfMemory = errors.New("sample budget exhausted")
)

// Handle errors
var (
	// ErrClosed indicates that the track has already been closed.
	ErrClosed = errors.New("track is closed")

	// ErrForeignTrack indicates that two tracks belong to different libraries.
	ErrForeignTrack = errors.New("track belongs to another library")

	// ErrTrackExists indicates that a live track already uses the requested name.
	ErrTrackExists = errors.New("track name already in use")
)
