// Package common contains structs shared between the session, listener and
// tracing packages.
package common

// SessionInformation describes a newly-opened session as observed at the
// WebSocket handshake: where the resource descriptor (conventionally the
// charge point identity) came from, and the addresses involved.
type SessionInformation struct {
	// Identifier is the HTTP request-line resource descriptor, e.g. "/CP001".
	Identifier string
	// InternetAddress is the remote socket address of the connection.
	InternetAddress string
	// ProxiedAddress is the value of the X-Forwarded-For header, if any.
	ProxiedAddress string
}

// DisconnectionInformation is recorded once per session at close and may be
// retrieved exactly once by the application via
// Listener.RemoveDisconnectionInformation.
type DisconnectionInformation struct {
	Code   int
	Remote bool
	Reason string
}
