// ABOUTME: Websocket fan-out of peak events and player state snapshots
// ABOUTME: Serves external waveform renderers over a local socket
package remote

import (
	"log"
	"net/http"
	"sync"

	"github.com/gorilla/websocket"

	"github.com/waveplay-audio/waveplay-go/pkg/bus"
	"github.com/waveplay-audio/waveplay-go/pkg/player"
	"github.com/waveplay-audio/waveplay-go/pkg/waveform"
)

var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 4096,
	// Renderers connect from local tooling only.
	CheckOrigin: func(r *http.Request) bool { return true },
}

// peakFrame is the wire form of one PeaksReceived event.
type peakFrame struct {
	Type      string          `json:"type"`
	Source    string          `json:"source"`
	Start     float64         `json:"start"`
	End       float64         `json:"end"`
	Peaks     []waveform.Peak `json:"peaks"`
	AudioTime float64         `json:"audioTime"`
}

// stateFrame is the wire form of a player state snapshot.
type stateFrame struct {
	Type     string  `json:"type"`
	State    string  `json:"state"`
	Source   string  `json:"source"`
	Position float64 `json:"position"`
	Duration float64 `json:"duration"`
	Volume   float64 `json:"volume"`
	Rate     float64 `json:"rate"`
	Looping  bool    `json:"looping"`
}

// Server broadcasts peak and state frames to every connected websocket
// client. It subscribes to the bus at construction and stays subscribed
// for its lifetime.
type Server struct {
	mu      sync.Mutex
	clients map[*websocket.Conn]struct{}

	// wmu serializes frame writes; gorilla permits one writer per conn.
	wmu sync.Mutex
}

// NewServer wires a broadcast server onto b.
func NewServer(b *bus.Bus) *Server {
	s := &Server{clients: make(map[*websocket.Conn]struct{})}
	bus.Subscribe(b, s.handlePeaks)
	return s
}

// ServeHTTP upgrades the request and registers the client.
func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		log.Printf("remote: upgrade failed: %v", err)
		return
	}

	s.mu.Lock()
	s.clients[conn] = struct{}{}
	s.mu.Unlock()

	// Drain the reader so close frames are processed; renderers only
	// listen.
	go func() {
		for {
			if _, _, err := conn.ReadMessage(); err != nil {
				s.drop(conn)
				return
			}
		}
	}()
}

// ClientCount returns the number of connected renderers.
func (s *Server) ClientCount() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.clients)
}

// PublishState pushes a snapshot of p to all clients.
func (s *Server) PublishState(p *player.Player) {
	s.broadcast(stateFrame{
		Type:     "state",
		State:    p.State().String(),
		Source:   p.Source(),
		Position: p.Position(),
		Duration: p.Duration(),
		Volume:   p.Volume(),
		Rate:     p.Rate(),
		Looping:  p.IsLooping(),
	})
}

func (s *Server) handlePeaks(ev waveform.PeaksReceived) {
	s.broadcast(peakFrame{
		Type:      "peaks",
		Source:    ev.Source.String(),
		Start:     ev.Start,
		End:       ev.End,
		Peaks:     ev.Peaks,
		AudioTime: ev.AudioTime,
	})
}

func (s *Server) broadcast(frame any) {
	s.mu.Lock()
	conns := make([]*websocket.Conn, 0, len(s.clients))
	for c := range s.clients {
		conns = append(conns, c)
	}
	s.mu.Unlock()

	s.wmu.Lock()
	defer s.wmu.Unlock()
	for _, c := range conns {
		if err := c.WriteJSON(frame); err != nil {
			s.drop(c)
		}
	}
}

func (s *Server) drop(conn *websocket.Conn) {
	s.mu.Lock()
	_, ok := s.clients[conn]
	delete(s.clients, conn)
	s.mu.Unlock()
	if ok {
		conn.Close()
	}
}

// Close disconnects all clients.
func (s *Server) Close() error {
	s.mu.Lock()
	conns := make([]*websocket.Conn, 0, len(s.clients))
	for c := range s.clients {
		conns = append(conns, c)
	}
	s.clients = make(map[*websocket.Conn]struct{})
	s.mu.Unlock()

	for _, c := range conns {
		c.Close()
	}
	return nil
}
