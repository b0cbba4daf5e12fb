// ABOUTME: State-reconciliation engine over a native playback backend
// ABOUTME: Debounced observable transport, volume, rate, balance and looping
package player

import (
	"errors"
	"log"
	"math"
	"net/http"
	"net/url"
	"os"
	"sync"
	"time"
)

const (
	// AckTimeout bounds each wait for a backend acknowledgment during
	// the play handshake.
	AckTimeout = 1 * time.Second
	// OpenTimeout bounds the source reachability probe.
	OpenTimeout = 3 * time.Second

	MinRate  = 0.25
	MaxRate  = 4.0
	RateStep = 0.25

	VolumeEpsilon   = 0.005
	PositionEpsilon = 0.01 // seconds
	RateEpsilon     = 0.001
	BalanceEpsilon  = 0.001
)

// State is the transport state.
type State int

const (
	Stopped State = iota
	Playing
	Paused
)

func (s State) String() string {
	switch s {
	case Playing:
		return "playing"
	case Paused:
		return "paused"
	}
	return "stopped"
}

// Property names a piece of observable player state for change
// notifications.
type Property string

const (
	PropSource      Property = "Source"
	PropState       Property = "State"
	PropPosition    Property = "Position"
	PropDuration    Property = "Duration"
	PropVolume      Property = "Volume"
	PropRate        Property = "Rate"
	PropBalance     Property = "Balance"
	PropSelection   Property = "Selection"
	PropError       Property = "Error"
	PropIsPlaying   Property = "IsPlaying"
	PropIsPaused    Property = "IsPaused"
	PropIsStopped   Property = "IsStopped"
	PropIsMuted     Property = "IsMuted"
	PropIsLooping   Property = "IsLooping"
	PropHasDuration Property = "HasDuration"
	PropCanPlay     Property = "CanPlay"
	PropCanPause    Property = "CanPause"
	PropCanStop     Property = "CanStop"
	PropCanFaster   Property = "CanFaster"
	PropCanSlower   Property = "CanSlower"
	PropCanMute     Property = "CanMute"
	PropCanUnMute   Property = "CanUnMute"
	PropCanLoop     Property = "CanLoop"
)

// Config holds player configuration
type Config struct {
	// Backend is the native player to drive. Required.
	Backend Backend

	// OnChange receives property-change notifications in the order the
	// underlying events occurred. It may be invoked from backend
	// goroutines; consumers redispatch to their own context.
	OnChange func(Property)

	// OnError is called when a fault is recorded.
	OnError func(error)

	// AckTimeout and OpenTimeout override the package defaults when
	// non-zero.
	AckTimeout  time.Duration
	OpenTimeout time.Duration

	// Probe overrides the source reachability check. Defaults to a
	// filesystem stat for paths and an HTTP HEAD for http(s) URIs.
	Probe func(uri string) error
}

// Player reconciles asynchronous backend events into a consistent,
// observable model. All exported methods are safe for concurrent use;
// mutations surface through OnChange.
type Player struct {
	backend  Backend
	mixer    Mixer // nil when the backend has no balance capability
	onChange func(Property)
	onError  func(error)

	ackTimeout  time.Duration
	openTimeout time.Duration
	probe       func(string) error

	mu             sync.Mutex
	state          State
	source         string
	hasMedia       bool
	position       float64 // seconds
	duration       float64 // seconds, 0 = unknown
	rate           float64
	volume         float64 // normalized [0,1]
	heldVolume     float64 // volume recorded by Mute for UnMute to restore
	balance        float64
	balanceFetched bool
	selection      Selection
	looping        bool
	lastErr        error
	waiters        map[State][]chan struct{}

	done      chan struct{}
	closeOnce sync.Once
}

// New creates a player around backend. A nil backend is a construction
// fault and fails immediately.
func New(cfg Config) (*Player, error) {
	if cfg.Backend == nil {
		return nil, errors.New("player: nil backend")
	}
	if cfg.AckTimeout == 0 {
		cfg.AckTimeout = AckTimeout
	}
	if cfg.OpenTimeout == 0 {
		cfg.OpenTimeout = OpenTimeout
	}

	p := &Player{
		backend:     cfg.Backend,
		onChange:    cfg.OnChange,
		onError:     cfg.OnError,
		ackTimeout:  cfg.AckTimeout,
		openTimeout: cfg.OpenTimeout,
		probe:       cfg.Probe,
		state:       Stopped,
		rate:        1.0,
		volume:      float64(cfg.Backend.Volume()) / 100.0,
		waiters:     make(map[State][]chan struct{}),
		done:        make(chan struct{}),
	}
	if m, ok := cfg.Backend.(Mixer); ok {
		p.mixer = m
	}
	if p.probe == nil {
		p.probe = func(uri string) error {
			return probeSource(uri, p.openTimeout)
		}
	}

	go p.eventLoop()

	return p, nil
}

// eventLoop is the single consumer of backend events and the only
// goroutine that mutates state in response to them.
func (p *Player) eventLoop() {
	events := p.backend.Events()
	for {
		select {
		case <-p.done:
			return
		case ev, ok := <-events:
			if !ok {
				return
			}
			p.handleEvent(ev)
		}
	}
}

func (p *Player) handleEvent(ev Event) {
	switch ev.Kind {
	case EventPlaying:
		p.setState(Playing)
	case EventPaused:
		p.setState(Paused)
	case EventStopped:
		p.setState(Stopped)
	case EventMediaEnded, EventMediaChanged:
		// End of media behaves like a pause so the user can resume or loop.
		p.setState(Paused)
	case EventLengthChanged:
		p.mu.Lock()
		changed := math.Abs(ev.Length-p.duration) > PositionEpsilon
		if changed {
			p.duration = ev.Length
		}
		p.mu.Unlock()
		if changed {
			p.notify(PropDuration, PropHasDuration)
		}
	case EventPositionChanged:
		p.applyPosition(ev.Fraction)
	case EventError:
		p.recordError(&BackendError{Err: ev.Err})
	}
}

// applyPosition folds a backend position report into logical state and
// enforces the loop region.
func (p *Player) applyPosition(fraction float64) {
	p.mu.Lock()
	pos := fraction * p.duration
	changed := math.Abs(pos-p.position) > PositionEpsilon
	if changed {
		p.position = pos
	}
	sel := p.selection
	looping := p.looping
	p.mu.Unlock()

	if changed {
		p.notify(PropPosition, PropCanStop)
	}
	if looping && !sel.IsEmpty() && !sel.Contains(pos) {
		// The correction must not re-enter the backend from its own
		// event delivery path; run it as a separate unit of work.
		go p.SetPosition(sel.Start)
	}
}

// setState applies a transport transition reported by the backend and
// releases any handshake waiters for the new state.
func (p *Player) setState(s State) {
	p.mu.Lock()
	changed := p.state != s
	p.state = s
	if s == Stopped {
		p.position = 0
	}
	ws := p.waiters[s]
	delete(p.waiters, s)
	p.mu.Unlock()

	for _, w := range ws {
		close(w)
	}
	if changed {
		p.notify(PropState, PropIsPlaying, PropIsPaused, PropIsStopped,
			PropCanPlay, PropCanPause, PropCanStop, PropVolume)
	}
}

// awaitState registers for the next backend report of state s.
func (p *Player) awaitState(s State) <-chan struct{} {
	ch := make(chan struct{})
	p.mu.Lock()
	p.waiters[s] = append(p.waiters[s], ch)
	p.mu.Unlock()
	return ch
}

// Play runs the stop-then-play handshake on a worker goroutine and
// returns a future for its completion. The handshake compensates for
// backends that silently reset position when re-entering play: it stops,
// waits for the stop acknowledgment, plays, waits for the play
// acknowledgment, then re-applies the held logical position. Each wait
// is bounded by AckTimeout; on timeout the handshake proceeds and the
// future resolves with ErrAckTimeout so callers can tell.
func (p *Player) Play() <-chan error {
	result := make(chan error, 1)
	if !p.CanPlay() {
		result <- ErrNotAllowed
		return result
	}

	go func() {
		result <- p.playHandshake()
	}()
	return result
}

func (p *Player) playHandshake() error {
	p.mu.Lock()
	held := p.position
	p.mu.Unlock()

	timedOut := false

	if p.isClosed() {
		return ErrClosed
	}
	stopAck := p.awaitState(Stopped)
	if err := p.backend.Stop(); err != nil {
		log.Printf("player: handshake stop failed: %v", err)
	}
	select {
	case <-stopAck:
	case <-time.After(p.ackTimeout):
		timedOut = true
	case <-p.done:
		return ErrClosed
	}

	if p.isClosed() {
		return ErrClosed
	}
	playAck := p.awaitState(Playing)
	if err := p.backend.Play(); err != nil {
		log.Printf("player: handshake play failed: %v", err)
	}
	select {
	case <-playAck:
	case <-time.After(p.ackTimeout):
		timedOut = true
	case <-p.done:
		return ErrClosed
	}

	if held > PositionEpsilon {
		p.SetPosition(held)
	}

	if timedOut {
		return ErrAckTimeout
	}
	return nil
}

func (p *Player) isClosed() bool {
	select {
	case <-p.done:
		return true
	default:
		return false
	}
}

// Pause delegates to the backend. Guarded by CanPause.
func (p *Player) Pause() {
	if !p.CanPause() {
		return
	}
	if err := p.backend.Pause(); err != nil {
		log.Printf("player: pause failed: %v", err)
	}
}

// Stop delegates to the backend and forces the logical position to zero.
// Allowed whenever media is loaded.
func (p *Player) Stop() {
	if !p.HasAudio() {
		return
	}
	if err := p.backend.Stop(); err != nil {
		log.Printf("player: stop failed: %v", err)
	}

	p.mu.Lock()
	changed := p.position > PositionEpsilon
	p.position = 0
	p.mu.Unlock()
	if changed {
		p.notify(PropPosition, PropCanStop)
	}
}

// Faster raises the playback rate by one step, clamped to MaxRate.
func (p *Player) Faster() {
	if !p.CanFaster() {
		return
	}
	p.SetRate(p.Rate() + RateStep)
}

// Slower lowers the playback rate by one step, clamped to MinRate.
func (p *Player) Slower() {
	if !p.CanSlower() {
		return
	}
	p.SetRate(p.Rate() - RateStep)
}

// SetRate sets the playback rate, clamped to [MinRate, MaxRate].
func (p *Player) SetRate(rate float64) {
	rate = clamp(rate, MinRate, MaxRate)

	p.mu.Lock()
	if math.Abs(rate-p.rate) < RateEpsilon {
		p.mu.Unlock()
		return
	}
	p.rate = rate
	p.mu.Unlock()

	if err := p.backend.SetRate(rate); err != nil {
		log.Printf("player: set rate failed: %v", err)
	}
	p.notify(PropRate, PropCanFaster, PropCanSlower)
}

// Mute records the current volume and silences the output.
func (p *Player) Mute() {
	if !p.CanMute() {
		return
	}
	p.mu.Lock()
	p.heldVolume = p.volume
	p.mu.Unlock()
	p.SetVolume(0)
}

// UnMute restores the volume recorded by Mute. If nothing was recorded
// it restores full volume.
func (p *Player) UnMute() {
	if !p.CanUnMute() {
		return
	}
	p.mu.Lock()
	restore := p.heldVolume
	p.mu.Unlock()
	if restore < VolumeEpsilon {
		restore = 1.0
	}
	p.SetVolume(restore)
}

// SetVolume sets the normalized volume [0,1]. The backend write is
// skipped when the rounded percent already matches the backend's value.
func (p *Player) SetVolume(volume float64) {
	volume = clamp(volume, 0, 1)

	p.mu.Lock()
	if math.Abs(volume-p.volume) < VolumeEpsilon {
		p.mu.Unlock()
		return
	}
	p.volume = volume
	p.mu.Unlock()

	percent := int(math.Round(volume * 100))
	if percent != p.backend.Volume() {
		if err := p.backend.SetVolume(percent); err != nil {
			log.Printf("player: set volume failed: %v", err)
		}
	}
	p.notify(PropVolume, PropCanMute, PropCanUnMute, PropIsMuted)
}

// SetPosition seeks to a position in seconds, clamped to [0, duration].
func (p *Player) SetPosition(seconds float64) {
	p.mu.Lock()
	if p.duration > 0 {
		seconds = clamp(seconds, 0, p.duration)
	} else if seconds < 0 {
		seconds = 0
	}
	if math.Abs(seconds-p.position) < PositionEpsilon {
		p.mu.Unlock()
		return
	}
	p.position = seconds
	duration := p.duration
	p.mu.Unlock()

	if duration > 0 {
		if err := p.backend.SetPosition(seconds / duration); err != nil {
			log.Printf("player: set position failed: %v", err)
		}
	}
	p.notify(PropPosition, PropCanStop)
}

// SetBalance steers left/right output, clamped to [-1,1]. A no-op when
// the backend has no mixer capability.
func (p *Player) SetBalance(balance float64) {
	if p.mixer == nil {
		return
	}
	balance = clamp(balance, -1, 1)

	p.mu.Lock()
	if p.balanceFetched && math.Abs(balance-p.balance) < BalanceEpsilon {
		p.mu.Unlock()
		return
	}
	p.balance = balance
	p.balanceFetched = true
	p.mu.Unlock()

	if err := p.mixer.SetBalance(balance); err != nil {
		log.Printf("player: set balance failed: %v", err)
	}
	p.notify(PropBalance)
}

// Balance returns the current balance. The backend value is pulled once
// on first read and cached thereafter.
func (p *Player) Balance() float64 {
	p.mu.Lock()
	defer p.mu.Unlock()
	if !p.balanceFetched && p.mixer != nil {
		p.balance = p.mixer.Balance()
		p.balanceFetched = true
	}
	return p.balance
}

// SupportsBalance reports whether the backend has a mixer capability.
func (p *Player) SupportsBalance() bool {
	return p.mixer != nil
}

// SetSource opens a new source. The URI is probed for reachability
// within OpenTimeout before the backend sees it; on any failure the
// previous source value is retained and a fault is recorded in Err(),
// with no other observable change.
func (p *Player) SetSource(uri string) {
	p.mu.Lock()
	if uri == p.source {
		p.mu.Unlock()
		return
	}
	p.mu.Unlock()

	if err := p.probe(uri); err != nil {
		p.recordError(&SourceUnreachableError{URI: uri, Err: err})
		return
	}

	// The old media is released before the new one opens; two open media
	// is never a permitted state.
	if err := p.backend.Unload(); err != nil {
		log.Printf("player: unload failed: %v", err)
	}
	if err := p.backend.Load(uri); err != nil {
		p.mu.Lock()
		p.hasMedia = false
		p.mu.Unlock()
		p.recordError(&SourceUnreachableError{URI: uri, Err: err})
		return
	}

	p.mu.Lock()
	p.source = uri
	p.hasMedia = true
	p.position = 0
	p.rate = 1.0
	p.mu.Unlock()

	p.notify(PropSource, PropCanFaster, PropCanSlower, PropCanPlay,
		PropCanPause, PropCanStop, PropVolume, PropCanMute, PropCanUnMute)
}

// SetSelection replaces the loop region. Clearing the selection while
// looping also clears the loop flag.
func (p *Player) SetSelection(sel Selection) {
	p.mu.Lock()
	if math.Abs(sel.Start-p.selection.Start) < PositionEpsilon &&
		math.Abs(sel.End-p.selection.End) < PositionEpsilon {
		p.mu.Unlock()
		return
	}
	p.selection = sel
	if sel.IsEmpty() && p.looping {
		p.looping = false
	}
	p.mu.Unlock()

	p.notify(PropSelection, PropCanLoop, PropIsLooping)
}

// ToggleLoop flips looped-selection playback. Enabling the loop snaps
// the position into the selection and starts playback if stopped or
// paused. A no-op while no selection exists.
func (p *Player) ToggleLoop() {
	if !p.CanLoop() {
		return
	}

	p.mu.Lock()
	p.looping = !p.looping
	enabled := p.looping
	sel := p.selection
	pos := p.position
	playing := p.state == Playing
	p.mu.Unlock()

	p.notify(PropIsLooping)

	if enabled && !sel.Contains(pos) {
		p.SetPosition(sel.Start)
	}
	if enabled && !playing {
		p.Play()
	}
}

// recordError captures a runtime fault for the UI to react to. Faults
// never propagate as errors across the public operation surface.
func (p *Player) recordError(err error) {
	p.mu.Lock()
	p.lastErr = err
	p.mu.Unlock()

	p.notify(PropError)
	if p.onError != nil {
		p.onError(err)
	}
}

// Close releases the current media, then the backend. Safe to call more
// than once; an in-flight play handshake aborts with ErrClosed.
func (p *Player) Close() error {
	p.closeOnce.Do(func() {
		close(p.done)
		if err := p.backend.Unload(); err != nil {
			log.Printf("player: unload on close failed: %v", err)
		}
		if err := p.backend.Close(); err != nil {
			log.Printf("player: backend close failed: %v", err)
		}
	})
	return nil
}

func (p *Player) notify(props ...Property) {
	if p.onChange == nil {
		return
	}
	for _, prop := range props {
		p.onChange(prop)
	}
}

// State accessors. Each takes the lock so readers observe a consistent
// snapshot of the single field they ask for.

func (p *Player) State() State {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.state
}

func (p *Player) Source() string {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.source
}

func (p *Player) Position() float64 {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.position
}

func (p *Player) Duration() float64 {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.duration
}

func (p *Player) Rate() float64 {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.rate
}

func (p *Player) Volume() float64 {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.volume
}

func (p *Player) Selection() Selection {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.selection
}

func (p *Player) Err() error {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.lastErr
}

func (p *Player) HasAudio() bool {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.hasMedia
}

func (p *Player) HasDuration() bool {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.duration > 0
}

func (p *Player) IsPlaying() bool { return p.State() == Playing }
func (p *Player) IsPaused() bool  { return p.State() == Paused }
func (p *Player) IsStopped() bool { return p.State() == Stopped }

func (p *Player) IsLooping() bool {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.looping
}

func (p *Player) IsMuted() bool {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.volume < VolumeEpsilon
}

// Guards.

func (p *Player) CanPlay() bool {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.hasMedia && p.state != Playing
}

func (p *Player) CanPause() bool {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.hasMedia && p.state == Playing
}

// CanStop is false only when already stopped at position zero.
func (p *Player) CanStop() bool {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.hasMedia && (p.state != Stopped || p.position > PositionEpsilon)
}

func (p *Player) CanFaster() bool {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.hasMedia && p.rate < MaxRate-RateEpsilon
}

func (p *Player) CanSlower() bool {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.hasMedia && p.rate > MinRate+RateEpsilon
}

func (p *Player) CanMute() bool {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.volume > VolumeEpsilon
}

func (p *Player) CanUnMute() bool {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.volume < VolumeEpsilon
}

func (p *Player) CanLoop() bool {
	p.mu.Lock()
	defer p.mu.Unlock()
	return !p.selection.IsEmpty()
}

func clamp(v, lo, hi float64) float64 {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}

// probeSource resolves a URI's reachability without involving the
// backend, so unreachable sources fail fast instead of waiting out the
// backend's own timeout.
func probeSource(uri string, timeout time.Duration) error {
	u, err := url.Parse(uri)
	if err != nil {
		return err
	}

	switch u.Scheme {
	case "http", "https":
		client := &http.Client{Timeout: timeout}
		resp, err := client.Head(uri)
		if err != nil {
			return err
		}
		resp.Body.Close()
		if resp.StatusCode >= 400 {
			return errors.New(resp.Status)
		}
		return nil
	case "file":
		_, err := os.Stat(u.Path)
		return err
	default:
		// Plain filesystem path.
		_, err := os.Stat(uri)
		return err
	}
}
