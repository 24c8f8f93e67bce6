// Package ocppj implements the OCPP-J wire format: the four message
// shapes exchanged over a WebSocket text frame, and the pack/unpack
// boundary with the (external) feature schema.
package ocppj

// Message type tags, first element of every OCPP-J wire array.
const (
	CallType       = 2
	CallResultType = 3
	CallErrorType  = 4
)

// Message is the discriminated union of the four OCPP-J wire shapes. Only
// one of the typed accessors below is meaningful for a given Kind.
type Message struct {
	Kind Kind
	Call *Call
	CallResult *CallResult
	CallError  *CallError
}

// Kind identifies which variant a parsed Message holds.
type Kind int

const (
	KindUnparseable Kind = iota
	KindCall
	KindCallResult
	KindCallError
)

// Call is a request, originated by either peer.
type Call struct {
	ID      string
	Action  string
	Payload interface{}
}

// CallResult is the positive reply to a Call, correlated by ID.
type CallResult struct {
	ID      string
	Payload interface{}
}

// CallError is the negative reply to a Call, correlated by ID.
type CallError struct {
	ID               string
	ErrorCode        string
	ErrorDescription string
	RawPayload       interface{}
}

// Envelope error codes, per spec.md §7.
const (
	FormationViolationError = "FormationViolation"
	NotSupportedError       = "NotSupported"
	SecurityError           = "SecurityError"
	InternalError           = "InternalError"
	ProtocolError           = "ProtocolError"
)
