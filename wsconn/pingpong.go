package wsconn

import (
	"sync"
	"time"

	"github.com/gorilla/websocket"
)

// pinger drives the ping/pong half of cfg.PingInterval (spec.md §4.F
// "configure()": PING_INTERVAL, default 60s). It sets an initial read
// deadline, extends it on every pong, and sends a ping control frame
// shortly before the deadline would otherwise expire. If the peer stops
// responding, the next blocking read times out and the owning pump treats
// it as a disconnect — the same connection-lost behavior
// WebSocketListener.java gets from setConnectionLostTimeout.
type pinger struct {
	conn         *websocket.Conn
	interval     time.Duration
	writeTimeout time.Duration

	once sync.Once
	done chan struct{}
}

func newPinger(conn *websocket.Conn, interval, writeTimeout time.Duration) *pinger {
	return &pinger{conn: conn, interval: interval, writeTimeout: writeTimeout, done: make(chan struct{})}
}

// arm installs the deadline/pong-handler pair and starts the ping ticker.
// A non-positive interval disables the mechanism: no deadline is set and
// reads block indefinitely, as before this was wired in.
func (p *pinger) arm() {
	if p.interval <= 0 {
		return
	}

	_ = p.conn.SetReadDeadline(time.Now().Add(p.interval))
	p.conn.SetPongHandler(func(string) error {
		return p.conn.SetReadDeadline(time.Now().Add(p.interval))
	})

	go p.loop()
}

func (p *pinger) loop() {
	period := p.interval * 9 / 10
	ticker := time.NewTicker(period)
	defer ticker.Stop()

	writeTimeout := p.writeTimeout
	if writeTimeout <= 0 {
		writeTimeout = time.Second
	}

	for {
		select {
		case <-ticker.C:
			if err := p.conn.WriteControl(websocket.PingMessage, nil, time.Now().Add(writeTimeout)); err != nil {
				return
			}
		case <-p.done:
			return
		}
	}
}

// stop halts the ping ticker. Idempotent and safe to call from multiple
// goroutines (a read-error path and an explicit Disconnect can both race
// to call it).
func (p *pinger) stop() {
	p.once.Do(func() { close(p.done) })
}
