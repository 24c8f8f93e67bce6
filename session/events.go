package session

// CommunicatorEvents is the application-facing event sink for a single
// session (spec.md §6). Implementations are supplied by the upstream
// application; the core never decides what to do with a message, only how
// to frame, correlate and retry it.
type CommunicatorEvents interface {
	OnConnected()
	OnDisconnected()
	OnCall(id, action string, payload interface{})
	OnCallResult(id, action string, payload interface{})
	OnError(id, code, description string, context interface{})
}

// Confirmation is the reply to a Call, passed to SendCallResult. Completed
// is an optional hook run after the reply has been transmitted (spec.md
// §4.C); a panic inside it is recovered and surfaced via OnError with code
// "ConfirmationCompletedHandlerFailed", never rethrown.
type Confirmation struct {
	Payload   interface{}
	Completed func()
}
