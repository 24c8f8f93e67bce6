// Package wsconn adapts gorilla/websocket to the radio.Transmitter and
// radio.Receiver interfaces, grounded on the teacher's ws.Connection
// wrapper and enriched with the frame-diagnostics behavior of the
// original's custom WebSocket draft.
package wsconn

import (
	"net/http"
	"net/url"
	"sync"
	"time"

	"github.com/apex/log"
	"github.com/chargetime/ocpp-core/radio"
	"github.com/gorilla/websocket"
)

// Client is a radio.Transmitter over a client-initiated WebSocket
// connection.
type Client struct {
	cfg Config
	log *log.Entry

	mu     sync.Mutex
	conn   *websocket.Conn
	ping   *pinger
	closed bool
}

var _ radio.Transmitter = (*Client)(nil)

// NewClient builds a Client with the given transport configuration.
func NewClient(cfg Config) *Client {
	return &Client{cfg: cfg, closed: true, log: log.WithField("context", "wsconn.client")}
}

// Connect dials uri, requesting the ocpp1.6 subprotocol, and starts the
// read pump that delivers inbound frames to events.
func (c *Client) Connect(uri string, events radio.Events) error {
	if _, err := url.Parse(uri); err != nil {
		return err
	}

	dialer := &websocket.Dialer{
		Subprotocols:     []string{"ocpp1.6"},
		HandshakeTimeout: c.cfg.HandshakeTimeout,
		ReadBufferSize:   c.cfg.ReadBufferSize,
		WriteBufferSize:  c.cfg.WriteBufferSize,
	}

	conn, _, err := dialer.Dial(uri, http.Header{})
	if err != nil {
		return err
	}

	if c.cfg.MaxMessageSize > 0 {
		conn.SetReadLimit(c.cfg.MaxMessageSize)
	}

	ping := newPinger(conn, c.cfg.PingInterval, c.cfg.WriteTimeout)
	ping.arm()

	c.mu.Lock()
	c.conn = conn
	c.ping = ping
	c.closed = false
	c.mu.Unlock()

	events.Connected()
	go c.readPump(conn, events)

	return nil
}

func (c *Client) readPump(conn *websocket.Conn, events radio.Events) {
	for {
		_, msg, err := conn.ReadMessage()
		if err != nil {
			c.log.Debugf("read failed, closing: %v", err)
			c.mu.Lock()
			ping := c.ping
			c.closed = true
			c.mu.Unlock()
			if ping != nil {
				ping.stop()
			}
			events.Disconnected()
			return
		}
		events.ReceivedMessage(msg)
	}
}

// Send writes a single text frame.
func (c *Client) Send(wire []byte) error {
	c.mu.Lock()
	conn := c.conn
	closed := c.closed
	c.mu.Unlock()

	if closed || conn == nil {
		return radio.ErrNotConnected
	}

	if c.cfg.WriteTimeout > 0 {
		_ = conn.SetWriteDeadline(time.Now().Add(c.cfg.WriteTimeout))
	}
	return conn.WriteMessage(websocket.TextMessage, wire)
}

// Disconnect closes the underlying connection.
func (c *Client) Disconnect() {
	c.mu.Lock()
	conn := c.conn
	ping := c.ping
	c.closed = true
	c.mu.Unlock()

	if ping != nil {
		ping.stop()
	}
	if conn != nil {
		_ = conn.Close()
	}
}

// IsClosed reports whether the connection is currently closed.
func (c *Client) IsClosed() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.closed
}
