package session

import (
	"github.com/chargetime/ocpp-core/common"
	"github.com/chargetime/ocpp-core/ocppj"
	"github.com/chargetime/ocpp-core/radio"
	"github.com/google/uuid"
)

// ID is an opaque 128-bit session identifier, unique per process (spec.md
// §3). It is a UUID in practice but the core never parses it, only
// compares and logs it.
type ID = uuid.UUID

// NewID generates a fresh session identifier.
func NewID() ID {
	return uuid.New()
}

// Session is a single connected peer: an identity, its bound transport
// (via Communicator), and observable metadata captured at handshake time
// (spec.md §3). Created on a successful WebSocket open, destroyed on
// close.
type Session struct {
	ID           ID
	Communicator *Communicator
	Info         common.SessionInformation
}

// NewSession builds a Session bound to a fresh Communicator over r. codec
// and transactionRelated are the external feature-schema collaborators
// (spec.md §1); enableQueue controls offline transaction buffering.
func NewSession(r radio.Radio, codec *ocppj.Codec, transactionRelated TransactionRelated, enableQueue bool, info common.SessionInformation) *Session {
	s := &Session{
		ID:           NewID(),
		Communicator: NewCommunicator(r, codec, transactionRelated, enableQueue),
		Info:         info,
	}
	s.Communicator.SetSessionID(s.ID.String())
	return s
}
