// Package session implements the Communicator: the per-session message
// pump that packs outgoing calls, parses incoming frames, routes them to
// the application event sink, and runs the offline-queue retry loop
// (spec.md §4.C, §4.D).
package session

import (
	"fmt"
	"sync"

	"github.com/apex/log"
	"github.com/chargetime/ocpp-core/metrics"
	"github.com/chargetime/ocpp-core/ocppj"
	"github.com/chargetime/ocpp-core/radio"
)

// TransactionRelated classifies an OCPP action as one whose loss would
// corrupt billing or session state. It is supplied externally, per
// spec.md §1 ("a transactionRelated(action) predicate").
type TransactionRelated func(action string) bool

// Communicator is the per-session message pump described in spec.md §4.C.
// Exactly one exists per Session, and it exclusively owns its offline
// queue and retry runner.
type Communicator struct {
	radio  radio.Radio
	codec  *ocppj.Codec
	events CommunicatorEvents

	transactionRelated TransactionRelated

	queue *offlineQueue
	retry *retryRunner

	sessionID string

	// mu serializes outgoing sends per session (spec.md §5: "Outbound
	// sends from a single caller observe FIFO ordering").
	mu sync.Mutex

	// pmu guards pending, the map of in-flight call ids to the action
	// they were sent with, needed to unpack+label a CallResult/CallError
	// reply (the wire form carries no action, spec.md §3).
	pmu     sync.Mutex
	pending map[string]string

	metrics *metrics.Registry

	log *log.Entry
}

// NewCommunicator builds a Communicator bound to the given transport and
// codec. enableQueue controls whether transaction-related calls are
// queued while offline (spec.md §4.D); disable it for a side that never
// wants offline buffering.
func NewCommunicator(r radio.Radio, codec *ocppj.Codec, transactionRelated TransactionRelated, enableQueue bool) *Communicator {
	c := &Communicator{
		radio:              r,
		codec:              codec,
		transactionRelated: transactionRelated,
		pending:            make(map[string]string),
		log:                log.WithField("context", "communicator"),
	}

	if enableQueue {
		c.queue = newOfflineQueue()
		c.retry = newRetryRunner(c.queue, c.transmit, c.onRetryAttempt, c.log)
		c.retry.onQueueDepth = c.gaugeQueueDepth
	}

	return c
}

// SetMetrics wires a metrics.Registry for frame and retry counters. Safe to
// leave unset: every counter increment is a no-op against a nil registry.
func (c *Communicator) SetMetrics(m *metrics.Registry) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.metrics = m
}

func (c *Communicator) counterIncrement(name string) {
	if c.metrics != nil {
		c.metrics.CounterIncrement(name)
	}
}

func (c *Communicator) onRetryAttempt(wire []byte) {
	c.notifySend(wire)
	c.counterIncrement(metrics.RetryAttempts)
}

func (c *Communicator) gaugeQueueDepth(depth int) {
	if c.metrics != nil {
		c.metrics.GaugeSet(metrics.QueueDepth, int64(depth))
	}
}

// SetRadio rebinds the transport a Communicator sends over. Used by the
// listener package, which must wrap the raw transport in a disconnection
// tracker after NewSession already built the Communicator but before
// Accept starts the read pump; not meant to be called once traffic is
// flowing.
func (c *Communicator) SetRadio(r radio.Radio) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.radio = r
}

// SetSessionID binds the SessionID used when notifying the process-wide
// MessageListener. Idempotent: safe to call repeatedly, e.g. if the
// Listener re-confirms the id after session creation.
func (c *Communicator) SetSessionID(id string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.sessionID = id
	c.log = c.log.WithField("sid", id)
}

// Connect binds events and opens the transport client-side.
func (c *Communicator) Connect(uri string, events CommunicatorEvents) error {
	c.events = events
	t, ok := c.radio.(radio.Transmitter)
	if !ok {
		return fmt.Errorf("radio does not support Connect")
	}
	return t.Connect(uri, &transportAdapter{c: c})
}

// Accept binds events and accepts the transport server-side.
func (c *Communicator) Accept(events CommunicatorEvents) {
	c.events = events
	if rcv, ok := c.radio.(radio.Receiver); ok {
		rcv.Accept(&transportAdapter{c: c})
	}
}

// SendCall packs and sends a Call, applying the offline-queue and retry
// rules of spec.md §4.C.
func (c *Communicator) SendCall(id, action string, request interface{}) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if id == "" {
		generated, err := ocppj.NewMessageID()
		if err != nil {
			c.events.OnError(id, ocppj.FormationViolationError, err.Error(), request)
			return
		}
		id = generated
	}

	packed, err := c.codec.Payload.Pack(request)
	if err != nil {
		c.events.OnError(id, ocppj.FormationViolationError, err.Error(), request)
		return
	}

	wire, err := ocppj.Pack(c.codec.MakeCall(id, action, packed))
	if err != nil {
		c.events.OnError(id, ocppj.FormationViolationError, err.Error(), request)
		return
	}

	c.log.Debugf("send call: %s %s", id, action)

	transactional := c.transactionRelated != nil && c.transactionRelated(action)

	if c.radio.IsClosed() {
		if transactional && c.queue != nil {
			c.trackPending(id, action)
			c.queue.Enqueue(wire)
			c.gaugeQueueDepth(c.queue.Len())
			return
		}
		c.events.OnError(id, "Not connected", "The request can't be sent due to the lack of connection", request)
		return
	}

	if transactional && c.queue != nil && !c.queue.Empty() {
		c.trackPending(id, action)
		c.queue.Enqueue(wire)
		c.gaugeQueueDepth(c.queue.Len())
		c.retry.Trigger()
		return
	}

	if err := c.radio.Send(wire); err != nil {
		if transactional && c.queue != nil {
			c.trackPending(id, action)
			c.queue.Enqueue(wire)
			c.gaugeQueueDepth(c.queue.Len())
			return
		}
		c.events.OnError(id, "Not connected", "The request can't be sent due to the lack of connection", request)
		return
	}

	c.trackPending(id, action)
	c.notifySend(wire)
}

// SendCallResult packs and sends the positive reply to a Call. Never
// enqueued: a reply sent while offline is dropped with OnError (spec.md
// §4.C).
func (c *Communicator) SendCallResult(id, action string, confirmation Confirmation) {
	packed, err := c.codec.Payload.Pack(confirmation.Payload)
	if err != nil {
		c.events.OnError(id, ocppj.FormationViolationError, err.Error(), confirmation)
		return
	}

	wire, err := ocppj.Pack(c.codec.MakeCallResult(id, packed))
	if err != nil {
		c.events.OnError(id, ocppj.FormationViolationError, err.Error(), confirmation)
		return
	}

	c.log.Debugf("send call result: %s %s", id, action)

	if err := c.radio.Send(wire); err != nil {
		c.events.OnError(id, "Not connected", "The confirmation couldn't be sent due to the lack of connection", confirmation)
		return
	}

	c.notifySend(wire)

	if confirmation.Completed != nil {
		c.runCompletedHandler(id, confirmation)
	}
}

func (c *Communicator) runCompletedHandler(id string, confirmation Confirmation) {
	defer func() {
		if r := recover(); r != nil {
			c.events.OnError(id, "ConfirmationCompletedHandlerFailed",
				fmt.Sprintf("the confirmation completed callback handler failed with: %v", r), confirmation)
		}
	}()
	confirmation.Completed()
}

// SendCallError packs and sends a CallError. Never enqueued.
func (c *Communicator) SendCallError(id, action, errorCode, errorDescription string) {
	c.log.Errorf("sending error: id=%s action=%s code=%s description=%s", id, action, errorCode, errorDescription)

	wire, err := ocppj.Pack(c.codec.MakeCallError(id, errorCode, errorDescription))
	if err != nil {
		c.events.OnError(id, "Not connected", "The error couldn't be sent due to the lack of connection", errorCode)
		return
	}

	if err := c.radio.Send(wire); err != nil {
		c.events.OnError(id, "Not connected", "The error couldn't be sent due to the lack of connection", errorCode)
		return
	}

	c.notifySend(wire)
}

// Disconnect closes the underlying transport and stops the retry worker.
func (c *Communicator) Disconnect() {
	c.radio.Disconnect()
	if c.retry != nil {
		c.retry.Shutdown()
	}
}

func (c *Communicator) trackPending(id, action string) {
	c.pmu.Lock()
	defer c.pmu.Unlock()
	c.pending[id] = action
}

func (c *Communicator) resolvePending(id string) string {
	c.pmu.Lock()
	defer c.pmu.Unlock()
	action := c.pending[id]
	delete(c.pending, id)
	return action
}

// transmit is the retryRunner's send path: the same radio.Send as a direct
// send. The MessageListener notification follows separately, through the
// runner's notify hook (onRetryAttempt). It never touches the offline queue
// itself (the runner owns queue mutation).
func (c *Communicator) transmit(wire []byte) error {
	return c.radio.Send(wire)
}

func (c *Communicator) notifySend(wire []byte) {
	c.counterIncrement(metrics.FramesSent)
	if l := currentMessageListener(); l != nil {
		l.OnSendMessage(c.sessionID, wire, c.codec.Parse(wire))
	}
}

func (c *Communicator) notifyReceive(wire []byte, parsed *ocppj.Message) {
	c.counterIncrement(metrics.FramesReceived)
	if parsed.Kind == ocppj.KindUnparseable {
		c.counterIncrement(metrics.FramesMalformed)
	}
	if l := currentMessageListener(); l != nil {
		l.OnReceivedMessage(c.sessionID, wire, parsed)
	}
}

// dispatch handles one inbound wire frame, per spec.md §4.C "Inbound
// dispatch".
func (c *Communicator) dispatch(wire []byte) {
	msg := c.codec.Parse(wire)
	c.notifyReceive(wire, msg)

	switch msg.Kind {
	case ocppj.KindCall:
		payload, err := c.codec.Payload.Unpack(msg.Call.Payload, msg.Call.Action, ocppj.KindCall)
		if err != nil {
			c.SendCallError(msg.Call.ID, msg.Call.Action, ocppj.FormationViolationError, err.Error())
			return
		}
		c.events.OnCall(msg.Call.ID, msg.Call.Action, payload)

	case ocppj.KindCallResult:
		action := c.resolvePending(msg.CallResult.ID)
		payload, err := c.codec.Payload.Unpack(msg.CallResult.Payload, action, ocppj.KindCallResult)
		if err != nil {
			payload = msg.CallResult.Payload
		}
		c.events.OnCallResult(msg.CallResult.ID, action, payload)

	case ocppj.KindCallError:
		c.resolvePending(msg.CallError.ID)
		if c.retry != nil {
			c.retry.Fail()
		}
		c.events.OnError(msg.CallError.ID, msg.CallError.ErrorCode, msg.CallError.ErrorDescription, msg.CallError.RawPayload)

	case ocppj.KindUnparseable:
		c.log.Debug("received unparseable frame")
	}
}

// transportAdapter bridges radio.Events into the Communicator (spec.md
// §4.E). It is a thin, session-scoped reference rather than a shared
// mutable back-pointer, per spec.md REDESIGN FLAGS.
type transportAdapter struct {
	c *Communicator
}

func (a *transportAdapter) Connected() {
	a.c.events.OnConnected()
	if a.c.retry != nil {
		a.c.retry.Trigger()
	}
}

func (a *transportAdapter) Disconnected() {
	a.c.events.OnDisconnected()
}

func (a *transportAdapter) ReceivedMessage(wire []byte) {
	a.c.dispatch(wire)
}
