// Package radio defines the transport abstraction the Communicator runs
// over, uniform for both the client (Transmitter) and server (Receiver)
// side of a WebSocket connection (spec.md §4.A).
package radio

import "errors"

// ErrNotConnected is returned by Send when the underlying transport is not
// open. The Communicator treats it the same as observing IsClosed() before
// the send: enqueue (transaction-related calls) or report via onError.
var ErrNotConnected = errors.New("not connected")

// Radio is the minimal surface the Communicator needs, oblivious to
// whether it runs client or server side.
type Radio interface {
	// Send transmits an already-packed wire fragment. Returns
	// ErrNotConnected if the transport is closed.
	Send(wire []byte) error
	// Disconnect closes the underlying transport.
	Disconnect()
	// IsClosed reports whether the transport currently has no open
	// connection.
	IsClosed() bool
}

// Events are the callbacks a Radio invokes as transport state changes.
// The Communicator's transport-events adapter (spec.md §4.E) implements
// this to bridge into CommunicatorEvents.
type Events interface {
	Connected()
	Disconnected()
	ReceivedMessage(wire []byte)
}

// Transmitter is the client-side specialization of Radio: it originates
// the connection.
type Transmitter interface {
	Radio
	Connect(uri string, events Events) error
}

// Receiver is the server-side specialization of Radio: it accepts an
// already-established connection (e.g. handed to it after a Listener
// completes a WebSocket handshake).
type Receiver interface {
	Radio
	Accept(events Events)
}
