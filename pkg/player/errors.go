// ABOUTME: Error taxonomy for the player state machine
// ABOUTME: Sentinels for operation outcomes, typed faults for Err()
package player

import (
	"errors"
	"fmt"
)

var (
	// ErrClosed reports that the player was closed while an operation
	// was in flight.
	ErrClosed = errors.New("player: closed")

	// ErrAckTimeout reports that the backend never acknowledged a
	// handshake step within AckTimeout. Playback proceeds best-effort.
	ErrAckTimeout = errors.New("player: backend acknowledgment timed out")

	// ErrNotAllowed reports that an operation's guard rejected it.
	ErrNotAllowed = errors.New("player: operation not allowed in current state")
)

// SourceUnreachableError records a source that failed its reachability
// probe within OpenTimeout. It is surfaced through Err(), never thrown
// across the public operation boundary.
type SourceUnreachableError struct {
	URI string
	Err error
}

func (e *SourceUnreachableError) Error() string {
	return fmt.Sprintf("player: source unreachable: %s: %v", e.URI, e.Err)
}

func (e *SourceUnreachableError) Unwrap() error { return e.Err }

// BackendError records an internal playback fault reported by the
// backend. Transport state is not forcibly reset; the backend decides
// what follow-up events occur.
type BackendError struct {
	Err error
}

func (e *BackendError) Error() string {
	return fmt.Sprintf("player: backend fault: %v", e.Err)
}

func (e *BackendError) Unwrap() error { return e.Err }
