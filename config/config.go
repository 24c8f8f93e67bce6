// Package config unifies the per-package configuration structs (listener,
// transport, metrics) into the one object an embedding application
// constructs and validates before calling listener.New.
package config

import (
	"fmt"

	"github.com/chargetime/ocpp-core/listener"
	"github.com/chargetime/ocpp-core/metrics"
	"github.com/chargetime/ocpp-core/tracing/natslistener"
	"github.com/chargetime/ocpp-core/wsconn"
	"github.com/go-playground/validator/v10"
)

// Config is the top-level configuration for an embedding OCPP endpoint.
type Config struct {
	Listener listener.Config   `validate:"required"`
	WS       wsconn.Config     `validate:"required"`
	Statsd   metrics.StatsdConfig
	Tracing  natslistener.Config
	SSL      SSLConfig

	// LogLevel is one of debug, info, warn, error, fatal.
	LogLevel string `validate:"required,oneof=debug info warn error fatal"`
	// LogFormat is one of text, json.
	LogFormat string `validate:"required,oneof=text json"`
}

// New returns a Config populated with every sub-package's defaults.
func New() Config {
	return Config{
		Listener:  listener.NewConfig(),
		WS:        wsconn.NewConfig(),
		Statsd:    metrics.NewStatsdConfig(),
		Tracing:   natslistener.NewConfig(),
		SSL:       NewSSLConfig(),
		LogLevel:  "info",
		LogFormat: "text",
	}
}

// Validate checks struct tags and the cross-field rules too fiddly for a
// tag, such as Listener password bounds and SSL cert/key pairing.
func (c *Config) Validate() error {
	v := validator.New()
	if err := v.Struct(c); err != nil {
		return fmt.Errorf("config: %w", err)
	}

	if c.Listener.MinPasswordLength > c.Listener.MaxPasswordLength {
		return fmt.Errorf("config: listener.min_password_length (%d) exceeds max_password_length (%d)",
			c.Listener.MinPasswordLength, c.Listener.MaxPasswordLength)
	}

	if (c.SSL.CertPath == "") != (c.SSL.KeyPath == "") {
		return fmt.Errorf("config: ssl.cert_path and ssl.key_path must be set together")
	}

	return nil
}
