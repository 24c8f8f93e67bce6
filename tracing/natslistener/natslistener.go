// Package natslistener implements an optional session.MessageListener that
// publishes every sent and received wire frame to NATS, for out-of-process
// tracing. It never feeds back into the engine: publish failures are logged
// and dropped, matching spec.md §9's rule that a MessageListener exists for
// tracing only and must never affect core behavior.
package natslistener

import (
	"fmt"
	"time"

	"github.com/apex/log"
	"github.com/chargetime/ocpp-core/ocppj"
	"github.com/chargetime/ocpp-core/session"
	"github.com/nats-io/nats.go"
)

// Config controls subject naming and the underlying connection.
type Config struct {
	URL             string
	Name            string
	SentSubject     string
	ReceivedSubject string
}

// NewConfig returns the defaults.
func NewConfig() Config {
	return Config{
		URL:             nats.DefaultURL,
		Name:            "ocpp-core",
		SentSubject:     "ocpp.frames.sent",
		ReceivedSubject: "ocpp.frames.received",
	}
}

// publisher is the subset of *nats.Conn this package depends on, narrow
// enough to substitute a fake in tests without a running broker.
type publisher interface {
	PublishMsg(*nats.Msg) error
}

var _ session.MessageListener = (*Listener)(nil)

// Listener publishes wire frames to NATS subjects, one per direction.
type Listener struct {
	nc  *nats.Conn
	pub publisher
	cfg Config
	log *log.Entry
}

// Connect dials NATS with the reconnect policy the rest of the pack uses
// for long-lived broker connections.
func Connect(cfg Config) (*Listener, error) {
	logger := log.WithField("context", "natslistener")

	nc, err := nats.Connect(cfg.URL,
		nats.Name(cfg.Name),
		nats.Timeout(10*time.Second),
		nats.ReconnectWait(2*time.Second),
		nats.MaxReconnects(60),
		nats.DisconnectErrHandler(func(_ *nats.Conn, err error) {
			logger.Warnf("nats disconnected: %v", err)
		}),
		nats.ReconnectHandler(func(nc *nats.Conn) {
			logger.Infof("nats reconnected to %s", nc.ConnectedUrl())
		}),
	)
	if err != nil {
		return nil, fmt.Errorf("natslistener: failed to connect: %w", err)
	}

	return &Listener{nc: nc, pub: nc, cfg: cfg, log: logger}, nil
}

// Close drains and closes the underlying NATS connection.
func (l *Listener) Close() {
	_ = l.nc.Drain()
}

// OnSendMessage publishes an outgoing frame. Implements session.MessageListener.
func (l *Listener) OnSendMessage(sessionID string, wire []byte, parsed *ocppj.Message) {
	l.publish(l.cfg.SentSubject, sessionID, wire)
}

// OnReceivedMessage publishes an incoming frame. Implements session.MessageListener.
func (l *Listener) OnReceivedMessage(sessionID string, wire []byte, parsed *ocppj.Message) {
	l.publish(l.cfg.ReceivedSubject, sessionID, wire)
}

func (l *Listener) publish(subject, sessionID string, wire []byte) {
	msg := &nats.Msg{
		Subject: subject,
		Data:    wire,
		Header:  nats.Header{"Session-Id": []string{sessionID}},
	}
	if err := l.pub.PublishMsg(msg); err != nil {
		l.log.Debugf("failed to publish trace frame: %v", err)
	}
}
