package listener

import (
	"net/http"
	"strings"
	"sync"
	"time"

	"github.com/chargetime/ocpp-core/common"
	"github.com/chargetime/ocpp-core/metrics"
	"github.com/chargetime/ocpp-core/radio"
	"github.com/chargetime/ocpp-core/session"
	"github.com/chargetime/ocpp-core/wsconn"
	"github.com/gorilla/websocket"
)

const proxiedAddressHeader = "X-Forwarded-For"

// wsHandler terminates one incoming connection on the WebSocket path. A
// plain HTTP probe (no Upgrade header) is answered and returned immediately,
// never touching auth or session creation (spec.md §4.E, testable property
// "Health-check isolation").
func (l *Listener) wsHandler(w http.ResponseWriter, r *http.Request) {
	if isHealthCheckProbe(r) {
		l.metrics.CounterIncrement(metrics.HealthCheckCloses)
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("ok"))
		return
	}

	info := common.SessionInformation{
		Identifier:      r.URL.Path,
		InternetAddress: r.RemoteAddr,
		ProxiedAddress:  r.Header.Get(proxiedAddressHeader),
	}

	username, password, hasAuth := r.BasicAuth()
	if hasAuth && (len(password) < l.cfg.MinPasswordLength || len(password) > l.cfg.MaxPasswordLength) {
		l.rejectAuth(w, ErrInvalidPasswordLength)
		return
	}

	l.mu.Lock()
	async := l.asyncHandshake
	l.mu.Unlock()

	if !async {
		l.completeHandshake(w, r, info, username, password)
		return
	}

	// Dispatch onto the worker pool, but still wait for it: the upgrade
	// hijacks w's connection, and an error response writes through w
	// directly, so the HTTP goroutine must not return until one of those
	// has happened. SetAsyncHandshake decouples handshake processing from
	// this particular accepting goroutine (so a slow AuthenticateSession
	// can't starve the pool of other accepts), it doesn't make wsHandler
	// itself non-blocking.
	done := make(chan struct{})
	l.pool.Schedule(func() {
		defer close(done)
		l.completeHandshake(w, r, info, username, password)
	})
	<-done
}

// completeHandshake runs authentication, the WebSocket upgrade, and
// session creation. Split out of wsHandler so SetAsyncHandshake can run it
// on the worker pool instead of inline on the accepting goroutine. Either
// way wsHandler does not return until this has finished, since the upgrade
// hijacks w's connection and a rejection writes through w.
func (l *Listener) completeHandshake(w http.ResponseWriter, r *http.Request, info common.SessionInformation, username, password string) {
	if err := l.handler.AuthenticateSession(info, username, password); err != nil {
		l.rejectAuth(w, err)
		return
	}

	tap := wsconn.WrapHijack(w)
	conn, err := l.upgrader.Upgrade(tap, r, nil)
	if err != nil {
		l.log.Debugf("websocket upgrade failed: %v", err)
		return
	}

	sess := session.NewSession(nil, l.factory.Codec, l.factory.TransactionRelated, l.factory.EnableQueue, info)

	tracker := &disconnectTracker{listener: l, sessionID: sess.ID}
	conn.SetCloseHandler(func(code int, text string) error {
		tracker.record(code, true, text)
		msg := websocket.FormatCloseMessage(code, "")
		_ = conn.WriteControl(websocket.CloseMessage, msg, time.Now().Add(time.Second))
		return nil
	})

	srv := wsconn.NewServer(conn, tap.Tapped(), l.wsCfg)
	sess.Communicator.SetRadio(&trackingRadio{Receiver: srv, tracker: tracker})
	sess.Communicator.SetMetrics(l.metrics)

	l.metrics.CounterIncrement(metrics.SessionsAccepted)

	l.pool.Schedule(func() {
		l.handler.NewSession(sess, info)
	})
}

func (l *Listener) rejectAuth(w http.ResponseWriter, err error) {
	l.metrics.CounterIncrement(metrics.AuthFailures)

	code := http.StatusUnauthorized
	message := err.Error()
	if ae, ok := err.(*AuthenticationError); ok {
		code = ae.Code
		message = ae.Message
	}
	http.Error(w, message, code)
}

// isHealthCheckProbe reports whether r is a plain HTTP request hitting the
// WebSocket path rather than a genuine upgrade handshake, mirroring
// Draft_HttpHealthCheck.isHttp: a load balancer probe that must never reach
// auth or create a session.
func isHealthCheckProbe(r *http.Request) bool {
	return !strings.EqualFold(r.Header.Get("Upgrade"), "websocket")
}

// disconnectTracker records exactly one DisconnectionInformation per
// session, whichever of a remote close frame or a local Disconnect()
// observes it first (spec.md §4.E, testable property "Disconnection
// bookkeeping").
type disconnectTracker struct {
	listener  *Listener
	sessionID session.ID
	once      sync.Once
}

func (t *disconnectTracker) record(code int, remote bool, reason string) {
	t.once.Do(func() {
		t.listener.dmu.Lock()
		t.listener.disconnectionInfo[t.sessionID] = common.DisconnectionInformation{
			Code: code, Remote: remote, Reason: reason,
		}
		t.listener.dmu.Unlock()
	})
}

// trackingRadio wraps a radio.Receiver to guarantee a disconnection record
// exists even when the close is locally initiated rather than signaled by
// a peer close frame.
type trackingRadio struct {
	radio.Receiver
	tracker *disconnectTracker
}

func (t *trackingRadio) Disconnect() {
	t.tracker.record(1006, false, "")
	t.Receiver.Disconnect()
}

// RemoveDisconnectionInformation retrieves and clears the recorded
// disconnection details for sid, if any. Exactly-once: a second call
// returns false.
func (l *Listener) RemoveDisconnectionInformation(sid session.ID) (common.DisconnectionInformation, bool) {
	l.dmu.Lock()
	defer l.dmu.Unlock()
	info, ok := l.disconnectionInfo[sid]
	if ok {
		delete(l.disconnectionInfo, sid)
	}
	return info, ok
}
