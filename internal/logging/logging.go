// Package logging wires apex/log, the structured logger the rest of this
// module logs through, to either a TTY-aware text handler or JSON output.
package logging

import (
	"errors"
	"fmt"
	"os"

	"github.com/apex/log"
	"github.com/apex/log/handlers/json"
	"github.com/mattn/go-isatty"
)

// Init sets the global log level, format and output. format is "text" or
// "json"; level is any apex/log level name (debug, info, warn, error, fatal).
func Init(format string, level string) error {
	logLevel, err := log.ParseLevel(level)
	if err != nil {
		return fmt.Errorf("unknown log level: %s (available: debug, info, warn, error, fatal)", level)
	}

	log.SetLevel(logLevel)

	switch format {
	case "text":
		log.SetHandler(&Handler{writer: os.Stdout, tty: isatty.IsTerminal(os.Stdout.Fd())})
	case "json":
		log.SetHandler(json.New(os.Stdout))
	default:
		return errors.New("unknown log format: " + format + " (available: text, json)")
	}

	return nil
}
