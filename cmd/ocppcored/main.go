// Command ocppcored wires the engine's default collaborators together into
// a runnable OCPP-J endpoint: a listener accepting charge point connections,
// a statsd metrics pusher, and optional NATS frame tracing. It accepts every
// charge point and logs inbound Calls; real deployments are expected to
// supply their own session.CommunicatorEvents and listener.Handler.
package main

import (
	"context"
	"os"
	"time"

	"github.com/apex/log"
	"github.com/chargetime/ocpp-core/common"
	"github.com/chargetime/ocpp-core/config"
	"github.com/chargetime/ocpp-core/internal/graceful"
	"github.com/chargetime/ocpp-core/internal/logging"
	"github.com/chargetime/ocpp-core/listener"
	"github.com/chargetime/ocpp-core/metrics"
	"github.com/chargetime/ocpp-core/ocppj"
	"github.com/chargetime/ocpp-core/session"
	"github.com/chargetime/ocpp-core/tracing/natslistener"
)

func main() {
	cfg := config.New()
	if err := cfg.Validate(); err != nil {
		log.Fatalf("invalid configuration: %v", err)
	}

	if err := logging.Init(cfg.LogFormat, cfg.LogLevel); err != nil {
		log.Fatalf("%v", err)
	}

	logger := log.WithField("context", "main")

	registry := metrics.NewRegistry()
	writer := metrics.NewStatsdWriter(cfg.Statsd, registry)
	writer.Start()
	defer writer.Stop()

	if trace, err := natslistener.Connect(cfg.Tracing); err != nil {
		logger.Warnf("frame tracing disabled, nats connect failed: %v", err)
	} else {
		session.SetMessageListener(trace)
		defer trace.Close()
	}

	factory := listener.SessionFactory{
		Codec:              ocppj.NewCodec(ocppj.IdentityCodec{}),
		TransactionRelated: defaultTransactionRelated,
		EnableQueue:        true,
	}

	l := listener.New(cfg.Listener, cfg.WS, acceptAllHandler{logger: logger, metrics: registry}, factory)

	if cfg.SSL.Available() {
		if err := l.EnableTLS(cfg.SSL.CertPath, cfg.SSL.KeyPath); err != nil {
			log.Fatalf("%v", err)
		}
	}

	signals := graceful.New(cfg.Listener.GracefulTimeout + 2*time.Second)
	signals.Handle(func(ctx context.Context) error {
		l.Close()
		return nil
	})
	signals.Listen()

	errCh := make(chan error, 1)
	go func() { errCh <- l.Open() }()

	if err := <-errCh; err != nil {
		logger.Errorf("listener stopped: %v", err)
		os.Exit(1)
	}
}

// defaultTransactionRelated matches the OCPP 1.6 actions whose loss while
// offline would corrupt billing state.
func defaultTransactionRelated(action string) bool {
	switch action {
	case "StartTransaction", "StopTransaction", "MeterValues":
		return true
	default:
		return false
	}
}

type acceptAllHandler struct {
	logger  *log.Entry
	metrics *metrics.Registry
}

func (h acceptAllHandler) AuthenticateSession(info common.SessionInformation, username, password string) error {
	return nil
}

func (h acceptAllHandler) NewSession(sess *session.Session, info common.SessionInformation) {
	h.logger.Infof("session accepted: %s (%s)", sess.ID, info.Identifier)
	sess.Communicator.Accept(loggingEvents{logger: h.logger.WithField("sid", sess.ID.String())})
}

type loggingEvents struct {
	logger *log.Entry
}

func (e loggingEvents) OnConnected()    { e.logger.Info("connected") }
func (e loggingEvents) OnDisconnected() { e.logger.Info("disconnected") }
func (e loggingEvents) OnCall(id, action string, payload interface{}) {
	e.logger.Infof("call %s %s", id, action)
}
func (e loggingEvents) OnCallResult(id, action string, payload interface{}) {
	e.logger.Infof("call result %s", id)
}
func (e loggingEvents) OnError(id, code, description string, context interface{}) {
	e.logger.Errorf("error %s %s: %s", id, code, description)
}
