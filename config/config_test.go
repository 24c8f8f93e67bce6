package config

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDefaultConfigValidates(t *testing.T) {
	c := New()
	require.NoError(t, c.Validate())
}

func TestValidateRejectsBadLogLevel(t *testing.T) {
	c := New()
	c.LogLevel = "verbose"
	assert.Error(t, c.Validate())
}

func TestValidateRejectsInvertedPasswordBounds(t *testing.T) {
	c := New()
	c.Listener.MinPasswordLength = 40
	c.Listener.MaxPasswordLength = 16
	assert.Error(t, c.Validate())
}

func TestValidateRejectsPartialSSLConfig(t *testing.T) {
	c := New()
	c.SSL.CertPath = "cert.pem"
	assert.Error(t, c.Validate())
}
