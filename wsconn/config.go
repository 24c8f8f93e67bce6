package wsconn

import "time"

// Config controls the gorilla/websocket transport shared by the client and
// server sides of the radio abstraction.
type Config struct {
	ReadBufferSize    int
	WriteBufferSize   int
	MaxMessageSize    int64
	EnableCompression bool
	AllowedOrigins    string
	HandshakeTimeout  time.Duration
	WriteTimeout      time.Duration
	PingInterval      time.Duration
}

// NewConfig returns the defaults used when a caller doesn't override them.
func NewConfig() Config {
	return Config{
		ReadBufferSize:   1024,
		WriteBufferSize:  1024,
		MaxMessageSize:   65536,
		HandshakeTimeout: 10 * time.Second,
		WriteTimeout:     10 * time.Second,
		PingInterval:     60 * time.Second,
	}
}
