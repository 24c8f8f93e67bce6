package logging

import (
	"fmt"
	"io"
	"sync"
	"time"

	"github.com/apex/log"
)

const (
	none   = 0
	red    = 31
	green  = 32
	yellow = 33
	blue   = 34
	gray   = 37
)

var colors = [...]int{
	log.DebugLevel: gray,
	log.InfoLevel:  blue,
	log.WarnLevel:  yellow,
	log.ErrorLevel: red,
	log.FatalLevel: red,
}

var levelChars = [...]string{
	log.DebugLevel: "D",
	log.InfoLevel:  "I",
	log.WarnLevel:  "W",
	log.ErrorLevel: "E",
	log.FatalLevel: "F",
}

var levelNames = [...]string{
	log.DebugLevel: "DEBUG",
	log.InfoLevel:  "INFO",
	log.WarnLevel:  "WARN",
	log.ErrorLevel: "ERROR",
	log.FatalLevel: "FATAL",
}

const timeFormat = "2006-01-02T15:04:05.000Z"

// Handler is a TTY-aware apex/log handler: colorized key=value pairs on a
// terminal, plain single-letter level prefixes when piped.
type Handler struct {
	mu     sync.Mutex
	writer io.Writer
	tty    bool
}

// HandleLog implements log.Handler.
func (h *Handler) HandleLog(e *log.Entry) error {
	names := e.Fields.Names()
	ts := time.Now().UTC().Format(timeFormat)

	h.mu.Lock()
	defer h.mu.Unlock()

	if h.tty {
		color := colors[e.Level]
		level := levelNames[e.Level]

		fmt.Fprintf(h.writer, "\033[%dm%6s\033[0m %s", color, level, ts)
		for _, name := range names {
			fmt.Fprintf(h.writer, " \033[%dm%s\033[0m=%v", color, name, e.Fields.Get(name))
		}
		fmt.Fprintf(h.writer, " \033[%dm%-25s\033[0m\n", color, e.Message)
	} else {
		level := levelChars[e.Level]

		fmt.Fprintf(h.writer, "%s %s", level, ts)
		for _, name := range names {
			fmt.Fprintf(h.writer, " %s=%v", name, e.Fields.Get(name))
		}
		fmt.Fprintf(h.writer, " %-25s\n", e.Message)
	}

	return nil
}
