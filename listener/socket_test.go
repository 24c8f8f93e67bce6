package listener

import (
	"net"
	"testing"

	"github.com/chargetime/ocpp-core/wsconn"
	"github.com/stretchr/testify/require"
)

// TestListenAppliesReuseAddrAndNoDelay exercises Listener.listen directly:
// Port 0 picks an ephemeral port, and the returned listener must be a
// noDelayListener wrapping a *net.TCPListener so accepted connections get
// cfg.TCPNoDelay applied (spec.md §4.F "configure()": REUSE_ADDRESS,
// TCP_NODELAY).
func TestListenAppliesReuseAddrAndNoDelay(t *testing.T) {
	cfg := NewConfig()
	cfg.Port = 0
	cfg.ReuseAddr = true
	cfg.TCPNoDelay = true

	l := New(cfg, wsconn.NewConfig(), newRecordingHandler(), testFactory())
	l.httpServer.Addr = net.JoinHostPort(cfg.Host, "0")

	ln, err := l.listen()
	require.NoError(t, err)
	defer ln.Close()

	ndl, ok := ln.(*noDelayListener)
	require.True(t, ok, "listen() must return a *noDelayListener")
	require.True(t, ndl.noDelay)

	_, ok = ndl.Listener.(*net.TCPListener)
	require.True(t, ok, "underlying listener must be a *net.TCPListener")

	addr := ln.Addr().String()
	client, err := net.Dial("tcp", addr)
	require.NoError(t, err)
	defer client.Close()

	conn, err := ln.Accept()
	require.NoError(t, err)
	defer conn.Close()

	_, ok = conn.(*net.TCPConn)
	require.True(t, ok, "accepted connection must be a *net.TCPConn")
}

func TestListenWithoutReuseAddrStillWrapsListener(t *testing.T) {
	cfg := NewConfig()
	cfg.Port = 0
	cfg.ReuseAddr = false

	l := New(cfg, wsconn.NewConfig(), newRecordingHandler(), testFactory())
	l.httpServer.Addr = net.JoinHostPort(cfg.Host, "0")

	ln, err := l.listen()
	require.NoError(t, err)
	defer ln.Close()

	ndl, ok := ln.(*noDelayListener)
	require.True(t, ok)
	require.False(t, ndl.noDelay)
}
