package wsconn

import (
	"net/http"
	"sync"
	"time"

	"github.com/apex/log"
	"github.com/chargetime/ocpp-core/radio"
	"github.com/gorilla/websocket"
)

// Server is a radio.Receiver over a WebSocket connection already accepted
// by a Listener's HTTP upgrade. One Server exists per session.
type Server struct {
	conn *websocket.Conn
	tap  *TappingConn
	cfg  Config
	log  *log.Entry
	ping *pinger

	mu     sync.Mutex
	closed bool
}

var _ radio.Receiver = (*Server)(nil)

// NewServer wraps an upgraded connection. tap may be nil if the connection
// wasn't established through a HijackTap (e.g. in tests).
func NewServer(conn *websocket.Conn, tap *TappingConn, cfg Config) *Server {
	return &Server{
		conn: conn, tap: tap, cfg: cfg,
		log:  log.WithField("context", "wsconn.server"),
		ping: newPinger(conn, cfg.PingInterval, cfg.WriteTimeout),
	}
}

// Accept starts the read pump, delivering Connected immediately since the
// transport is already open by construction.
func (s *Server) Accept(events radio.Events) {
	if s.cfg.MaxMessageSize > 0 {
		s.conn.SetReadLimit(s.cfg.MaxMessageSize)
	}
	s.ping.arm()
	events.Connected()
	go s.readPump(events)
}

func (s *Server) readPump(events radio.Events) {
	for {
		_, msg, err := s.conn.ReadMessage()
		if err != nil {
			if s.tap != nil {
				s.log.WithField("last_bytes_hex", s.tap.LastBytesHex()).
					Debugf("frame read failed: %v", err)
			} else {
				s.log.Debugf("frame read failed: %v", err)
			}
			s.ping.stop()
			s.mu.Lock()
			s.closed = true
			s.mu.Unlock()
			events.Disconnected()
			return
		}
		events.ReceivedMessage(msg)
	}
}

// Send writes a single text frame.
func (s *Server) Send(wire []byte) error {
	s.mu.Lock()
	closed := s.closed
	s.mu.Unlock()

	if closed {
		return radio.ErrNotConnected
	}

	if s.cfg.WriteTimeout > 0 {
		_ = s.conn.SetWriteDeadline(time.Now().Add(s.cfg.WriteTimeout))
	}
	return s.conn.WriteMessage(websocket.TextMessage, wire)
}

// Disconnect sends a close frame and closes the connection.
func (s *Server) Disconnect() {
	s.ping.stop()
	s.mu.Lock()
	s.closed = true
	s.mu.Unlock()
	CloseWithReason(s.conn, websocket.CloseNormalClosure, "")
}

// IsClosed reports whether the connection is currently closed.
func (s *Server) IsClosed() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.closed
}

// CloseWithReason sends a close control frame with the given code and
// reason, then closes the socket. Mirrors the teacher's ws.CloseWithReason.
func CloseWithReason(conn *websocket.Conn, code int, reason string) {
	deadline := time.Now().Add(time.Second)
	msg := websocket.FormatCloseMessage(code, reason)
	_ = conn.WriteControl(websocket.CloseMessage, msg, deadline)
	_ = conn.Close()
}

// NewUpgrader builds a gorilla/websocket upgrader configured from cfg,
// negotiating the ocpp1.6 subprotocol.
func NewUpgrader(cfg Config, checkOrigin func(r *http.Request) bool) websocket.Upgrader {
	return websocket.Upgrader{
		CheckOrigin:       checkOrigin,
		Subprotocols:      []string{"ocpp1.6"},
		ReadBufferSize:    cfg.ReadBufferSize,
		WriteBufferSize:   cfg.WriteBufferSize,
		EnableCompression: cfg.EnableCompression,
		HandshakeTimeout:  cfg.HandshakeTimeout,
	}
}
