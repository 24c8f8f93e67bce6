package listener

import "time"

// Config controls the server-side session multiplexer: the HTTP endpoint,
// its WebSocket worker pool, and the password-length policy enforced at
// handshake time (spec.md §4.E, grounded on WebSocketListener's
// JSONConfiguration parameters).
type Config struct {
	Host string
	Port int

	WorkerCount int
	ReuseAddr   bool
	TCPNoDelay  bool

	PingInterval time.Duration

	MinPasswordLength int
	MaxPasswordLength int

	HealthPath     string
	WSPath         string
	AllowedOrigins string

	GracefulTimeout time.Duration
}

// NewConfig returns the defaults mirroring the original listener's.
func NewConfig() Config {
	return Config{
		Host:              "0.0.0.0",
		Port:              8887,
		WorkerCount:       4,
		ReuseAddr:         true,
		TCPNoDelay:        false,
		PingInterval:      60 * time.Second,
		MinPasswordLength: 16,
		MaxPasswordLength: 40,
		HealthPath:        "/health",
		WSPath:            "/ocpp",
		GracefulTimeout:   10 * time.Second,
	}
}
