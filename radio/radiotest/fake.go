// Package radiotest provides a fake radio.Radio for exercising the
// session package without a real socket, the way the teacher's
// node_mocks package gives the node package a mockable AppNode.
package radiotest

import (
	"sync"

	"github.com/chargetime/ocpp-core/radio"
)

// Fake is an in-memory radio.Radio. Sent frames accumulate in Sent; Closed
// toggles what IsClosed reports; FailNext makes the next Send return
// radio.ErrNotConnected once.
type Fake struct {
	mu       sync.Mutex
	events   radio.Events
	Closed   bool
	Sent     [][]byte
	FailNext bool
}

var _ radio.Receiver = (*Fake)(nil)
var _ radio.Transmitter = (*Fake)(nil)

func New() *Fake {
	return &Fake{Closed: true}
}

func (f *Fake) Accept(events radio.Events) {
	f.mu.Lock()
	f.events = events
	f.mu.Unlock()
}

func (f *Fake) Connect(uri string, events radio.Events) error {
	f.Accept(events)
	return nil
}

func (f *Fake) Send(wire []byte) error {
	f.mu.Lock()
	defer f.mu.Unlock()

	if f.Closed {
		return radio.ErrNotConnected
	}

	if f.FailNext {
		f.FailNext = false
		return radio.ErrNotConnected
	}

	cp := make([]byte, len(wire))
	copy(cp, wire)
	f.Sent = append(f.Sent, cp)
	return nil
}

func (f *Fake) Disconnect() {
	f.SetClosed(true)
}

func (f *Fake) IsClosed() bool {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.Closed
}

// SetClosed flips the connected state and fires the matching Events
// callback, the way a real radio.Radio would on transport transitions.
func (f *Fake) SetClosed(closed bool) {
	f.mu.Lock()
	f.Closed = closed
	events := f.events
	f.mu.Unlock()

	if events == nil {
		return
	}

	if closed {
		events.Disconnected()
	} else {
		events.Connected()
	}
}

// Deliver simulates an inbound wire frame from the peer.
func (f *Fake) Deliver(wire []byte) {
	f.mu.Lock()
	events := f.events
	f.mu.Unlock()

	if events != nil {
		events.ReceivedMessage(wire)
	}
}

// SentCount returns the number of frames sent so far.
func (f *Fake) SentCount() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.Sent)
}
