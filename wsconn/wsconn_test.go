package wsconn

import (
	"net"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/chargetime/ocpp-core/radio"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type recordingEvents struct {
	connected    chan struct{}
	disconnected chan struct{}
	received     chan []byte
}

func newRecordingEvents() *recordingEvents {
	return &recordingEvents{
		connected:    make(chan struct{}, 1),
		disconnected: make(chan struct{}, 1),
		received:     make(chan []byte, 8),
	}
}

func (r *recordingEvents) Connected()    { r.connected <- struct{}{} }
func (r *recordingEvents) Disconnected() { r.disconnected <- struct{}{} }
func (r *recordingEvents) ReceivedMessage(wire []byte) {
	cp := make([]byte, len(wire))
	copy(cp, wire)
	r.received <- cp
}

var _ radio.Events = (*recordingEvents)(nil)

func TestClientServerRoundtrip(t *testing.T) {
	cfg := NewConfig()
	upgrader := NewUpgrader(cfg, func(r *http.Request) bool { return true })

	var srv *Server
	srvEvents := newRecordingEvents()

	mux := http.NewServeMux()
	mux.HandleFunc("/ocpp/cp1", func(w http.ResponseWriter, r *http.Request) {
		tap := WrapHijack(w)
		conn, err := upgrader.Upgrade(tap, r, nil)
		require.NoError(t, err)
		srv = NewServer(conn, tap.Tapped(), cfg)
		srv.Accept(srvEvents)
	})

	ts := httptest.NewServer(mux)
	defer ts.Close()

	clientEvents := newRecordingEvents()
	client := NewClient(cfg)
	uri := "ws" + strings.TrimPrefix(ts.URL, "http") + "/ocpp/cp1"
	require.NoError(t, client.Connect(uri, clientEvents))
	defer client.Disconnect()

	select {
	case <-clientEvents.connected:
	case <-time.After(time.Second):
		t.Fatal("client never observed Connected")
	}
	select {
	case <-srvEvents.connected:
	case <-time.After(time.Second):
		t.Fatal("server never observed Connected")
	}

	require.NoError(t, client.Send([]byte(`[2,"1","Heartbeat",{}]`)))

	select {
	case msg := <-srvEvents.received:
		assert.Equal(t, `[2,"1","Heartbeat",{}]`, string(msg))
	case <-time.After(time.Second):
		t.Fatal("server never received message")
	}

	require.NoError(t, srv.Send([]byte(`[3,"1",{}]`)))

	select {
	case msg := <-clientEvents.received:
		assert.Equal(t, `[3,"1",{}]`, string(msg))
	case <-time.After(time.Second):
		t.Fatal("client never received message")
	}

	client.Disconnect()

	select {
	case <-clientEvents.disconnected:
	case <-time.After(time.Second):
		t.Fatal("client never observed Disconnected")
	}
}

func TestSendBeforeConnectFails(t *testing.T) {
	c := NewClient(NewConfig())
	err := c.Send([]byte("hi"))
	assert.ErrorIs(t, err, radio.ErrNotConnected)
}

func TestTappingConnRecordsLastRead(t *testing.T) {
	a, b := net.Pipe()
	defer a.Close()
	defer b.Close()

	tap := newTappingConn(a)

	go func() {
		_, _ = b.Write([]byte("deadbeef"))
	}()

	buf := make([]byte, 8)
	n, err := tap.Read(buf)
	require.NoError(t, err)
	require.Equal(t, 8, n)
	assert.Equal(t, "6465616462656566", tap.LastBytesHex())
}
