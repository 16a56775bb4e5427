package realtime

import (
	"context"
	"encoding/json"
	"sync"
	"time"

	"github.com/gorilla/websocket"
	"github.com/pkg/errors"
)

var ErrNotConnected = errors.New("realtime client is not connected")

type ClientDiagnostic interface {
	Error(msg string, err error)
	Connected(url string)
	Disconnected(url string)
}

// Client is a connection to a hub. Handlers registered with On are called
// from the client's read goroutine, one event at a time.
type Client struct {
	c    Config
	diag ClientDiagnostic

	mu       sync.Mutex
	ws       *websocket.Conn
	done     chan struct{}
	handlers map[string][]func(json.RawMessage)

	// serializes writes, websocket connections allow one concurrent writer
	writeMu sync.Mutex
}

func NewClient(c Config, d ClientDiagnostic) *Client {
	return &Client{
		c:        c,
		diag:     d,
		handlers: make(map[string][]func(json.RawMessage)),
	}
}

// Connect dials the hub. Connecting an already connected client does nothing.
func (c *Client) Connect(ctx context.Context) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.ws != nil {
		return nil
	}
	ws, _, err := websocket.DefaultDialer.DialContext(ctx, c.c.URL, nil)
	if err != nil {
		return errors.Wrapf(err, "failed to connect to %s", c.c.URL)
	}
	c.ws = ws
	c.done = make(chan struct{})
	go c.readLoop(ws, c.done)
	c.diag.Connected(c.c.URL)
	return nil
}

// Disconnect closes the connection and waits for the read goroutine to finish.
func (c *Client) Disconnect() {
	c.mu.Lock()
	ws, done := c.ws, c.done
	c.mu.Unlock()
	if ws == nil {
		return
	}

	c.writeMu.Lock()
	ws.WriteControl(
		websocket.CloseMessage,
		websocket.FormatCloseMessage(websocket.CloseNormalClosure, ""),
		time.Now().Add(c.writeTimeout()),
	)
	c.writeMu.Unlock()
	ws.Close()
	<-done
}

func (c *Client) Connected() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.ws != nil
}

// On registers fn to be called with the data of every event named event.
func (c *Client) On(event string, fn func(json.RawMessage)) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.handlers[event] = append(c.handlers[event], fn)
}

// Emit sends an event to the hub.
func (c *Client) Emit(event string, data interface{}) error {
	c.mu.Lock()
	ws := c.ws
	c.mu.Unlock()
	if ws == nil {
		return ErrNotConnected
	}
	msg, err := encode(event, data)
	if err != nil {
		return errors.Wrapf(err, "failed to encode %s event", event)
	}

	c.writeMu.Lock()
	defer c.writeMu.Unlock()
	ws.SetWriteDeadline(time.Now().Add(c.writeTimeout()))
	return ws.WriteMessage(websocket.TextMessage, msg)
}

func (c *Client) writeTimeout() time.Duration {
	if t := time.Duration(c.c.WriteTimeout); t > 0 {
		return t
	}
	return DefaultWriteTimeout
}

func (c *Client) readLoop(ws *websocket.Conn, done chan struct{}) {
	defer close(done)
	for {
		_, data, err := ws.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseNormalClosure, websocket.CloseGoingAway) {
				c.diag.Error("websocket read failed", err)
			}
			break
		}
		var m Message
		if err := json.Unmarshal(data, &m); err != nil {
			c.diag.Error("invalid websocket message", err)
			continue
		}
		c.dispatch(m.Event, m.Data)
	}

	ws.Close()
	c.mu.Lock()
	if c.ws == ws {
		c.ws = nil
	}
	c.mu.Unlock()
	c.diag.Disconnected(c.c.URL)
	c.dispatch(EventDisconnect, nil)
}

func (c *Client) dispatch(event string, data json.RawMessage) {
	c.mu.Lock()
	handlers := append([]func(json.RawMessage){}, c.handlers[event]...)
	c.mu.Unlock()
	for _, fn := range handlers {
		fn(data)
	}
}
