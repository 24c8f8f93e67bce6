package ocppj

import (
	"encoding/json"
	"fmt"

	"github.com/joomcode/errorx"
)

// NewConversionError wraps a pack/unpack failure against the external
// feature schema with the payload that failed to convert, for diagnostics.
// The Communicator reports it through OnError with code
// FormationViolationError rather than letting it propagate.
func NewConversionError(err error, payload interface{}) error {
	return errorx.Decorate(err, "failed to convert payload: %v", payload)
}

// PayloadCodec packs/unpacks feature payloads to/from their wire
// representation. It is the one piece of the OCPP action schema this
// package depends on; the schema itself (message shapes, validation) is an
// external collaborator, per spec.md §1.
type PayloadCodec interface {
	// Pack converts a typed Request/Confirmation into a wire-ready fragment.
	Pack(payload interface{}) (interface{}, error)
	// Unpack converts a wire fragment into the Go type named by action,
	// given the message Kind it arrived as (a Call unpacks against the
	// request type for Action, a CallResult against the response type).
	Unpack(raw interface{}, action string, kind Kind) (interface{}, error)
}

// Codec builds and parses OCPP-J envelopes. It is pure and side-effect
// free (spec.md §4.B: "Envelope builders must be pure ... so they are
// safely reusable for logging").
type Codec struct {
	Payload PayloadCodec
}

// NewCodec builds a Codec bound to the given PayloadCodec.
func NewCodec(payload PayloadCodec) *Codec {
	return &Codec{Payload: payload}
}

// MakeCall builds the wire fragment for a Call, having already packed
// request via Payload.Pack.
func (c *Codec) MakeCall(id, action string, packed interface{}) interface{} {
	return [4]interface{}{CallType, id, action, packed}
}

// MakeCallResult builds the wire fragment for a CallResult.
func (c *Codec) MakeCallResult(id string, packed interface{}) interface{} {
	return [3]interface{}{CallResultType, id, packed}
}

// MakeCallError builds the wire fragment for a CallError.
func (c *Codec) MakeCallError(id, errorCode, errorDescription string) interface{} {
	return [5]interface{}{CallErrorType, id, errorCode, errorDescription, struct{}{}}
}

// Pack marshals a wire fragment (as built by the Make* functions above) to
// bytes ready to hand to a Radio.
func Pack(fragment interface{}) ([]byte, error) {
	b, err := json.Marshal(fragment)
	if err != nil {
		return nil, NewConversionError(err, fragment)
	}
	return b, nil
}

// Parse decodes raw wire bytes into a Message. It never returns an error:
// malformed input yields a Message with Kind == KindUnparseable, per
// spec.md §4.B ("parse ... never throws").
func (c *Codec) Parse(raw []byte) *Message {
	var arr []json.RawMessage
	if err := json.Unmarshal(raw, &arr); err != nil || len(arr) < 3 {
		return &Message{Kind: KindUnparseable}
	}

	var typ int
	if err := json.Unmarshal(arr[0], &typ); err != nil {
		return &Message{Kind: KindUnparseable}
	}

	var id string
	if err := json.Unmarshal(arr[1], &id); err != nil {
		return &Message{Kind: KindUnparseable}
	}

	switch typ {
	case CallType:
		if len(arr) < 4 {
			return &Message{Kind: KindUnparseable}
		}
		var action string
		if err := json.Unmarshal(arr[2], &action); err != nil {
			return &Message{Kind: KindUnparseable}
		}
		var payload interface{}
		_ = json.Unmarshal(arr[3], &payload)
		return &Message{Kind: KindCall, Call: &Call{ID: id, Action: action, Payload: payload}}
	case CallResultType:
		var payload interface{}
		_ = json.Unmarshal(arr[2], &payload)
		return &Message{Kind: KindCallResult, CallResult: &CallResult{ID: id, Payload: payload}}
	case CallErrorType:
		ce := &CallError{ID: id}
		if len(arr) > 2 {
			_ = json.Unmarshal(arr[2], &ce.ErrorCode)
		}
		if len(arr) > 3 {
			_ = json.Unmarshal(arr[3], &ce.ErrorDescription)
		}
		if len(arr) > 4 {
			var raw interface{}
			_ = json.Unmarshal(arr[4], &raw)
			ce.RawPayload = raw
		}
		return &Message{Kind: KindCallError, CallError: ce}
	default:
		return &Message{Kind: KindUnparseable}
	}
}

// String renders a Message for trace logging, mirroring the teacher's
// `logger.trace("Send a message: {}", call)` lines — never used for
// anything but diagnostics.
func (m *Message) String() string {
	switch m.Kind {
	case KindCall:
		return fmt.Sprintf("Call{id=%s action=%s}", m.Call.ID, m.Call.Action)
	case KindCallResult:
		return fmt.Sprintf("CallResult{id=%s}", m.CallResult.ID)
	case KindCallError:
		return fmt.Sprintf("CallError{id=%s code=%s}", m.CallError.ID, m.CallError.ErrorCode)
	default:
		return "Unparseable"
	}
}
