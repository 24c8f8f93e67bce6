package config

// SSLConfig names the certificate and private key used to serve the
// listener's WebSocket endpoint over wss://.
type SSLConfig struct {
	CertPath string
	KeyPath  string
}

// NewSSLConfig returns an empty (disabled) SSLConfig.
func NewSSLConfig() SSLConfig {
	return SSLConfig{}
}

// Available reports whether both a certificate and a private key path are set.
func (s *SSLConfig) Available() bool {
	return s.CertPath != "" && s.KeyPath != ""
}
