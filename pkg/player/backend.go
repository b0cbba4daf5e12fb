// ABOUTME: Capability interface a native playback backend must expose
// ABOUTME: Commands in, asynchronous events out on a single channel
package player

// EventKind identifies a backend event.
type EventKind int

const (
	// EventMediaChanged fires when the backend swaps its current media.
	EventMediaChanged EventKind = iota
	// EventMediaEnded fires when playback reaches end of media.
	EventMediaEnded
	// EventPlaying acknowledges that playback started.
	EventPlaying
	// EventPaused acknowledges that playback paused.
	EventPaused
	// EventStopped acknowledges that playback stopped.
	EventStopped
	// EventPositionChanged reports the playhead; Fraction is valid.
	EventPositionChanged
	// EventLengthChanged reports media duration; Length is valid.
	EventLengthChanged
	// EventError reports an internal backend fault; Err is valid.
	EventError
)

func (k EventKind) String() string {
	switch k {
	case EventMediaChanged:
		return "media-changed"
	case EventMediaEnded:
		return "media-ended"
	case EventPlaying:
		return "playing"
	case EventPaused:
		return "paused"
	case EventStopped:
		return "stopped"
	case EventPositionChanged:
		return "position-changed"
	case EventLengthChanged:
		return "length-changed"
	case EventError:
		return "error"
	}
	return "unknown"
}

// Event is one asynchronous report from a backend. Backends emit events
// from their own goroutines; the Player consumes them in arrival order.
type Event struct {
	Kind     EventKind
	Fraction float64 // playhead as a fraction of duration, [0,1]
	Length   float64 // media duration, seconds
	Err      error
}

// Backend is the native player capability surface the state machine
// drives. Position is exchanged as a [0,1] fraction of duration and
// volume as an integer percent, matching what native players expose.
// Commands are fire-and-forget; their effects surface on Events().
type Backend interface {
	// Load opens the media at uri, replacing any current media.
	Load(uri string) error
	// Unload closes the current media, if any.
	Unload() error

	Play() error
	Pause() error
	Stop() error

	Position() float64
	SetPosition(fraction float64) error
	Volume() int
	SetVolume(percent int) error
	SetRate(rate float64) error

	// Events returns the backend's event stream. The channel is owned by
	// the backend and closed on Close.
	Events() <-chan Event

	Close() error
}

// Mixer is the optional system audio-endpoint balance capability.
// Backends that can steer left/right output implement it alongside
// Backend; the Player detects it with a type assertion.
type Mixer interface {
	Balance() float64
	SetBalance(balance float64) error
}
