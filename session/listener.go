package session

import (
	"sync/atomic"

	"github.com/chargetime/ocpp-core/ocppj"
)

// MessageListener is a process-wide tracing hook invoked for every wire
// send and receive across all sessions (spec.md §9: "model as an atomic
// optional reference installed at process start, documented as immutable
// after first use"). Implementations must tolerate concurrent invocation
// from any session and must not be relied on by core logic — it exists
// for tracing only.
type MessageListener interface {
	OnReceivedMessage(sessionID string, wire []byte, parsed *ocppj.Message)
	OnSendMessage(sessionID string, wire []byte, parsed *ocppj.Message)
}

var messageListener atomic.Value // holds MessageListener

// SetMessageListener installs the process-wide MessageListener. Intended
// to be called once, at startup; later calls replace it, but the core
// never assumes a particular listener is installed, so doing so mid-flight
// is safe, just not the documented usage.
func SetMessageListener(l MessageListener) {
	messageListener.Store(&l)
}

func currentMessageListener() MessageListener {
	v := messageListener.Load()
	if v == nil {
		return nil
	}
	return *(v.(*MessageListener))
}
