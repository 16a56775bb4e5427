// Package realtime pushes live sensor updates to dashboards over websockets.
package realtime

import (
	"encoding/json"
	"net/http"
	"sync"
	"time"

	"github.com/benbjohnson/clock"
	"github.com/gorilla/websocket"
	"github.com/yash2595/DAM-AI-GUARDIAN-sub001/services/httpd"
	"github.com/yash2595/DAM-AI-GUARDIAN-sub001/services/telemetry"
)

type Diagnostic interface {
	Error(msg string, err error)
	ClientConnected(remote string, clients int)
	ClientDisconnected(remote string, clients int)
	SlowClient(remote string)
}

// peer is a connected dashboard.
type peer struct {
	ws     *websocket.Conn
	remote string
	send   chan []byte
}

// Hub accepts websocket clients and broadcasts sensor updates to all of them.
// Clients that cannot keep up are disconnected.
type Hub struct {
	c        Config
	diag     Diagnostic
	upgrader websocket.Upgrader

	mu      sync.Mutex
	peers   map[*peer]struct{}
	closing chan struct{}
	opened  bool
	wg      sync.WaitGroup

	Clock clock.Clock

	HTTPDService interface {
		AddRawRoutes([]httpd.Route) error
	}
	TelemetryService interface {
		Generator() *telemetry.Generator
	}
}

func NewHub(c Config, d Diagnostic) *Hub {
	return &Hub{
		c:    c,
		diag: d,
		upgrader: websocket.Upgrader{
			// Dashboards are served from other origins.
			CheckOrigin: func(*http.Request) bool { return true },
		},
		peers: make(map[*peer]struct{}),
		Clock: clock.New(),
	}
}

func (h *Hub) Open() error {
	h.mu.Lock()
	defer h.mu.Unlock()
	if h.opened {
		return nil
	}
	if h.HTTPDService != nil {
		err := h.HTTPDService.AddRawRoutes([]httpd.Route{{
			Name:        "websocket",
			Method:      "GET",
			Pattern:     Path,
			HandlerFunc: h.handleConnect,
			NoJSON:      true,
		}})
		if err != nil {
			return err
		}
	}
	h.opened = true
	h.closing = make(chan struct{})

	ticker := h.Clock.Ticker(time.Duration(h.c.BroadcastInterval))
	h.wg.Add(1)
	go func() {
		defer h.wg.Done()
		defer ticker.Stop()
		h.run(ticker.C)
	}()
	return nil
}

func (h *Hub) Close() error {
	h.mu.Lock()
	if !h.opened {
		h.mu.Unlock()
		return nil
	}
	h.opened = false
	close(h.closing)
	for p := range h.peers {
		h.removeLocked(p)
	}
	h.mu.Unlock()

	h.wg.Wait()
	return nil
}

// Clients returns the number of connected clients.
func (h *Hub) Clients() int {
	h.mu.Lock()
	defer h.mu.Unlock()
	return len(h.peers)
}

func (h *Hub) run(tick <-chan time.Time) {
	for {
		select {
		case <-h.closing:
			return
		case <-tick:
			if msg, ok := h.sensorUpdate(); ok {
				h.Broadcast(msg)
			}
		}
	}
}

// Broadcast queues msg for every client.
func (h *Hub) Broadcast(msg []byte) {
	h.mu.Lock()
	defer h.mu.Unlock()
	for p := range h.peers {
		h.queueLocked(p, msg)
	}
}

// queueLocked drops p when its buffer is full.
func (h *Hub) queueLocked(p *peer, msg []byte) {
	select {
	case p.send <- msg:
	default:
		h.diag.SlowClient(p.remote)
		h.removeLocked(p)
	}
}

func (h *Hub) sensorUpdate() ([]byte, bool) {
	if h.TelemetryService == nil {
		return nil, false
	}
	gen := h.TelemetryService.Generator()
	if gen == nil {
		return nil, false
	}
	msg, err := encode(EventSensorUpdate, gen.Sensors())
	if err != nil {
		h.diag.Error("failed to encode sensor update", err)
		return nil, false
	}
	return msg, true
}

func (h *Hub) handleConnect(w http.ResponseWriter, r *http.Request) {
	ws, err := h.upgrader.Upgrade(w, r, nil)
	if err != nil {
		// The upgrader has already replied to the client.
		h.diag.Error("failed to upgrade websocket connection", err)
		return
	}
	p := &peer{
		ws:     ws,
		remote: r.RemoteAddr,
		send:   make(chan []byte, h.c.SendBuffer),
	}

	h.mu.Lock()
	if !h.opened {
		h.mu.Unlock()
		ws.Close()
		return
	}
	h.peers[p] = struct{}{}
	clients := len(h.peers)
	h.wg.Add(1)
	h.mu.Unlock()
	h.diag.ClientConnected(p.remote, clients)

	go func() {
		defer h.wg.Done()
		h.writePump(p)
	}()
	if msg, ok := h.sensorUpdate(); ok {
		h.queue(p, msg)
	}
	h.readPump(p)
}

func (h *Hub) queue(p *peer, msg []byte) {
	h.mu.Lock()
	defer h.mu.Unlock()
	if _, ok := h.peers[p]; ok {
		h.queueLocked(p, msg)
	}
}

func (h *Hub) remove(p *peer) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.removeLocked(p)
}

func (h *Hub) removeLocked(p *peer) {
	if _, ok := h.peers[p]; !ok {
		return
	}
	delete(h.peers, p)
	close(p.send)
	h.diag.ClientDisconnected(p.remote, len(h.peers))
}

// readPump handles client events until the connection fails.
func (h *Hub) readPump(p *peer) {
	defer func() {
		h.remove(p)
		p.ws.Close()
	}()
	for {
		_, data, err := p.ws.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseNormalClosure, websocket.CloseAbnormalClosure) {
				h.diag.Error("websocket read failed", err)
			}
			return
		}
		var m Message
		if err := json.Unmarshal(data, &m); err != nil {
			h.diag.Error("invalid websocket message", err)
			continue
		}
		if m.Event == EventRequestUpdate {
			if msg, ok := h.sensorUpdate(); ok {
				h.queue(p, msg)
			}
		}
	}
}

// writePump is the only writer of p.ws.
func (h *Hub) writePump(p *peer) {
	timeout := time.Duration(h.c.WriteTimeout)
	defer p.ws.Close()
	for msg := range p.send {
		p.ws.SetWriteDeadline(time.Now().Add(timeout))
		if err := p.ws.WriteMessage(websocket.TextMessage, msg); err != nil {
			h.remove(p)
			// drain until removal closes the channel
			for range p.send {
			}
			return
		}
	}
	p.ws.SetWriteDeadline(time.Now().Add(timeout))
	p.ws.WriteMessage(websocket.CloseMessage, websocket.FormatCloseMessage(websocket.CloseNormalClosure, ""))
}
