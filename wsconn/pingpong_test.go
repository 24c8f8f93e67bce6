package wsconn

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

// TestPingIntervalKeepsConnectionAlive exercises cfg.PingInterval end to
// end: with a short interval, several ping/pong round trips should happen
// well within the read deadline, and the client should not observe a
// Disconnected in that window.
func TestPingIntervalKeepsConnectionAlive(t *testing.T) {
	cfg := NewConfig()
	cfg.PingInterval = 50 * time.Millisecond
	upgrader := NewUpgrader(cfg, func(r *http.Request) bool { return true })

	srvEvents := newRecordingEvents()
	mux := http.NewServeMux()
	mux.HandleFunc("/ocpp/cp1", func(w http.ResponseWriter, r *http.Request) {
		tap := WrapHijack(w)
		conn, err := upgrader.Upgrade(tap, r, nil)
		require.NoError(t, err)
		srv := NewServer(conn, tap.Tapped(), cfg)
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

	// Outlive several ping intervals; the pong handler resetting the read
	// deadline on both ends should keep the connection up the whole time.
	select {
	case <-clientEvents.disconnected:
		t.Fatal("client observed an unexpected Disconnected while peer was alive")
	case <-time.After(10 * cfg.PingInterval):
	}
	require.False(t, client.IsClosed())
}

func TestPingerStopIsIdempotent(t *testing.T) {
	cfg := NewConfig()
	upgrader := NewUpgrader(cfg, func(r *http.Request) bool { return true })

	mux := http.NewServeMux()
	mux.HandleFunc("/ocpp/cp1", func(w http.ResponseWriter, r *http.Request) {
		tap := WrapHijack(w)
		conn, err := upgrader.Upgrade(tap, r, nil)
		require.NoError(t, err)
		NewServer(conn, tap.Tapped(), cfg).Accept(newRecordingEvents())
	})

	ts := httptest.NewServer(mux)
	defer ts.Close()

	client := NewClient(cfg)
	uri := "ws" + strings.TrimPrefix(ts.URL, "http") + "/ocpp/cp1"
	require.NoError(t, client.Connect(uri, newRecordingEvents()))

	client.mu.Lock()
	p := client.ping
	client.mu.Unlock()
	require.NotNil(t, p)

	p.stop()
	require.NotPanics(t, p.stop)

	client.Disconnect()
}

func TestPingerArmWithNonPositiveIntervalSendsNoPings(t *testing.T) {
	cfg := NewConfig()
	cfg.PingInterval = 0
	upgrader := NewUpgrader(cfg, func(r *http.Request) bool { return true })

	srvEvents := newRecordingEvents()
	mux := http.NewServeMux()
	mux.HandleFunc("/ocpp/cp1", func(w http.ResponseWriter, r *http.Request) {
		tap := WrapHijack(w)
		conn, err := upgrader.Upgrade(tap, r, nil)
		require.NoError(t, err)
		srv := NewServer(conn, tap.Tapped(), cfg)
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

	pings := 0
	client.mu.Lock()
	client.conn.SetPingHandler(func(string) error { pings++; return nil })
	client.mu.Unlock()

	time.Sleep(150 * time.Millisecond)
	require.Zero(t, pings, "no ping frames should be sent when PingInterval is non-positive")
}
