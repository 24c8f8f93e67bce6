package wsconn

import (
	"bufio"
	"encoding/hex"
	"net"
	"net/http"
	"sync"
)

// TappingConn wraps a net.Conn and remembers the bytes most recently handed
// to Read, so a caller can hex-dump whatever the peer last sent if the
// framing turns out to be malformed. gorilla/websocket doesn't expose the
// raw pre-parse bytes itself (unlike the original's Draft_6455.translateFrame,
// which could inspect the ByteBuffer before decoding it), so this taps one
// layer below: the socket read, not the frame parse.
type TappingConn struct {
	net.Conn

	mu   sync.Mutex
	last []byte
}

func newTappingConn(c net.Conn) *TappingConn {
	return &TappingConn{Conn: c}
}

func (t *TappingConn) Read(b []byte) (int, error) {
	n, err := t.Conn.Read(b)
	if n > 0 {
		t.mu.Lock()
		cp := make([]byte, n)
		copy(cp, b[:n])
		t.last = cp
		t.mu.Unlock()
	}
	return n, err
}

// LastBytesHex returns the hex dump of the most recent socket read, for
// logging alongside a frame-parse failure.
func (t *TappingConn) LastBytesHex() string {
	t.mu.Lock()
	defer t.mu.Unlock()
	return hex.EncodeToString(t.last)
}

// HijackTap wraps an http.ResponseWriter so that when the websocket
// upgrader hijacks the connection, the net.Conn it receives is a
// TappingConn. The tap is retrieved afterward via Tapped.
type HijackTap struct {
	http.ResponseWriter
	tapped *TappingConn
}

// WrapHijack wraps w so that the connection the WebSocket upgrader hijacks
// from it is tapped for frame diagnostics.
func WrapHijack(w http.ResponseWriter) *HijackTap {
	return &HijackTap{ResponseWriter: w}
}

// Tapped returns the TappingConn captured during Hijack, or nil if Hijack
// hasn't been called yet (e.g. the upgrade failed before hijacking).
func (h *HijackTap) Tapped() *TappingConn {
	return h.tapped
}

func (h *HijackTap) Hijack() (net.Conn, *bufio.ReadWriter, error) {
	hj, ok := h.ResponseWriter.(http.Hijacker)
	if !ok {
		return nil, nil, http.ErrNotSupported
	}
	conn, rw, err := hj.Hijack()
	if err != nil {
		return nil, nil, err
	}
	h.tapped = newTappingConn(conn)
	return h.tapped, rw, nil
}
