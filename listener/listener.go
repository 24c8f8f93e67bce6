// Package listener implements the server-side session multiplexer: it
// terminates incoming WebSocket connections, isolates plain HTTP health
// probes from real handshakes, enforces HTTP Basic auth and password-length
// policy, and hands each accepted connection to the application as a new
// Session (spec.md §4.E). It never interprets OCPP messages itself.
package listener

import (
	"context"
	"crypto/tls"
	"errors"
	"fmt"
	"net"
	"net/http"
	"strconv"
	"strings"
	"sync"

	"github.com/apex/log"
	"github.com/chargetime/ocpp-core/common"
	"github.com/chargetime/ocpp-core/internal/workerpool"
	"github.com/chargetime/ocpp-core/metrics"
	"github.com/chargetime/ocpp-core/ocppj"
	"github.com/chargetime/ocpp-core/session"
	"github.com/chargetime/ocpp-core/wsconn"
	"github.com/gorilla/websocket"
)

// Handler is the application-facing collaborator: it decides whether a
// handshake is allowed, and takes ownership of a Session once accepted.
type Handler interface {
	// AuthenticateSession validates the credentials parsed from the
	// handshake's Basic auth header (both empty if none was present).
	// Returning an error rejects the handshake; an *AuthenticationError
	// controls the HTTP status returned to the peer.
	AuthenticateSession(info common.SessionInformation, username, password string) error
	// NewSession is called once a connection is accepted. The handler owns
	// wiring session.CommunicatorEvents and calling sess.Communicator.Accept.
	NewSession(sess *session.Session, info common.SessionInformation)
}

// SessionFactory carries the schema-level collaborators needed to build a
// Session's Communicator: the codec and transaction classifier are external
// concerns the core never decides on its own (spec.md §1).
type SessionFactory struct {
	Codec              *ocppj.Codec
	TransactionRelated session.TransactionRelated
	EnableQueue        bool
}

// Listener owns the HTTP server, the WebSocket upgrader, and the
// disconnection bookkeeping for every session it has accepted.
type Listener struct {
	cfg      Config
	wsCfg    wsconn.Config
	handler  Handler
	factory  SessionFactory
	upgrader websocket.Upgrader

	httpServer *http.Server
	tlsEnabled bool

	asyncHandshake bool

	mu      sync.Mutex
	closed  bool
	started bool

	dmu               sync.Mutex
	disconnectionInfo map[session.ID]common.DisconnectionInformation

	metrics *metrics.Registry
	pool    *workerpool.Pool

	log *log.Entry
}

// New builds a Listener. wsCfg configures the underlying WebSocket
// transport (buffer sizes, message size limit); cfg configures the
// listener's own HTTP and auth policy.
func New(cfg Config, wsCfg wsconn.Config, handler Handler, factory SessionFactory) *Listener {
	wsCfg.PingInterval = cfg.PingInterval

	l := &Listener{
		cfg:               cfg,
		wsCfg:             wsCfg,
		handler:           handler,
		factory:           factory,
		closed:            true,
		disconnectionInfo: make(map[session.ID]common.DisconnectionInformation),
		metrics:           metrics.NewRegistry(),
		pool:              workerpool.New(cfg.WorkerCount),
		log:               log.WithField("context", "listener"),
	}

	l.upgrader = wsconn.NewUpgrader(wsCfg, checkOrigin(cfg.AllowedOrigins))

	mux := http.NewServeMux()
	mux.HandleFunc(cfg.HealthPath, l.healthHandler)
	mux.HandleFunc(cfg.WSPath, l.wsHandler)

	l.httpServer = &http.Server{
		Addr:    net.JoinHostPort(cfg.Host, strconv.Itoa(cfg.Port)),
		Handler: mux,
	}

	return l
}

// EnableTLS loads an X.509 key pair and serves subsequent connections over
// wss:// once Open is called. Must be called before Open.
func (l *Listener) EnableTLS(certPath, keyPath string) error {
	cert, err := tls.LoadX509KeyPair(certPath, keyPath)
	if err != nil {
		return fmt.Errorf("listener: failed to load TLS certificate: %w", err)
	}

	return l.UseTLSConfig(&tls.Config{Certificates: []tls.Certificate{cert}})
}

// UseTLSConfig installs a caller-built *tls.Config directly, for setups
// that need more than a single certificate/key pair (client auth, a
// custom GetCertificate callback). Returns an error instead of panicking
// if the listener has already started, since swapping TLS config under a
// running server has no well-defined effect.
func (l *Listener) UseTLSConfig(cfg *tls.Config) error {
	l.mu.Lock()
	defer l.mu.Unlock()

	if l.started {
		return errors.New("listener: cannot change TLS configuration after Open")
	}

	l.httpServer.TLSConfig = cfg
	l.tlsEnabled = true
	return nil
}

// SetAsyncHandshake toggles whether AuthenticateSession runs on the
// worker pool instead of inline on the HTTP goroutine handling the
// upgrade. Off by default; useful when authentication does its own
// blocking I/O (a remote auth service) and handshakes should not queue
// behind each other.
func (l *Listener) SetAsyncHandshake(async bool) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.asyncHandshake = async
}

// Open starts accepting connections. It blocks until the server stops or
// fails to start; run it in its own goroutine.
func (l *Listener) Open() error {
	l.mu.Lock()
	l.closed = false
	l.started = true
	l.mu.Unlock()

	ln, err := l.listen()
	if err != nil {
		return fmt.Errorf("listener: failed to open socket: %w", err)
	}

	l.log.Infof("listening on %s", l.httpServer.Addr)

	if l.tlsEnabled {
		err = l.httpServer.ServeTLS(ln, "", "")
	} else {
		err = l.httpServer.Serve(ln)
	}
	if errors.Is(err, http.ErrServerClosed) {
		return nil
	}
	return err
}

// listen opens the listening socket with cfg.ReuseAddr applied (SO_REUSEADDR,
// spec.md §4.F "configure()"), then wraps it so every accepted connection
// gets cfg.TCPNoDelay applied (TCP_NODELAY is a per-connection option, not a
// listening-socket one, so it can't be set via net.ListenConfig.Control).
func (l *Listener) listen() (net.Listener, error) {
	lc := net.ListenConfig{}
	if l.cfg.ReuseAddr {
		lc.Control = reuseAddrControl
	}

	ln, err := lc.Listen(context.Background(), "tcp", l.httpServer.Addr)
	if err != nil {
		return nil, err
	}

	return &noDelayListener{Listener: ln, noDelay: l.cfg.TCPNoDelay}, nil
}

// noDelayListener applies cfg.TCPNoDelay to every accepted *net.TCPConn.
type noDelayListener struct {
	net.Listener
	noDelay bool
}

func (n *noDelayListener) Accept() (net.Conn, error) {
	conn, err := n.Listener.Accept()
	if err != nil {
		return nil, err
	}
	if tc, ok := conn.(*net.TCPConn); ok {
		_ = tc.SetNoDelay(n.noDelay)
	}
	return conn, nil
}

// Close stops the listener, first attempting a graceful shutdown bounded by
// cfg.GracefulTimeout, then forcing closed connections if that times out
// (spec.md §4.E, mirroring the original's stop(timeout)-then-stop()
// fallback). Idempotent.
func (l *Listener) Close() {
	l.mu.Lock()
	if l.closed {
		l.mu.Unlock()
		return
	}
	l.closed = true
	started := l.started
	l.mu.Unlock()

	if !started {
		return
	}

	ctx, cancel := context.WithTimeout(context.Background(), l.cfg.GracefulTimeout)
	defer cancel()

	if err := l.httpServer.Shutdown(ctx); err != nil {
		l.log.Errorf("graceful shutdown timed out, forcing close: %v", err)
		_ = l.httpServer.Close()
	}
}

// Metrics returns the listener's metrics registry, for wiring into a
// metrics.StatsdWriter or a debug dump.
func (l *Listener) Metrics() *metrics.Registry {
	return l.metrics
}

// IsClosed reports whether the listener has been closed.
func (l *Listener) IsClosed() bool {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.closed
}

func (l *Listener) healthHandler(w http.ResponseWriter, _ *http.Request) {
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write([]byte("ok"))
}

func checkOrigin(allowed string) func(r *http.Request) bool {
	if allowed == "" {
		return func(r *http.Request) bool { return true }
	}

	hosts := strings.Split(strings.ToLower(allowed), ",")
	return func(r *http.Request) bool {
		origin := strings.ToLower(r.Header.Get("Origin"))
		if origin == "" {
			return true
		}
		for _, host := range hosts {
			if strings.HasSuffix(origin, host) {
				return true
			}
		}
		return false
	}
}
