package cli

import (
	"net"
	"os"
)

// Config holds CLI configuration
type Config struct {
	// ServerAddr is the host:port of the TLS game server
	ServerAddr string
	// APIURL is the base URL of the HTTP status API
	APIURL string
	// CAFile verifies the game server certificate; empty skips verification
	CAFile string
	Output string
}

// DefaultConfig returns a Config with default values
func DefaultConfig() *Config {
	return &Config{
		ServerAddr: getEnvOrDefault("RPS_SERVER", "127.0.0.1:12345"),
		APIURL:     getEnvOrDefault("RPS_API", "http://127.0.0.1:8080"),
		CAFile:     os.Getenv("RPS_CA_FILE"),
		Output:     "text",
	}
}

// ServerName is the host part of ServerAddr, used for certificate verification
func (c *Config) ServerName() string {
	host, _, err := net.SplitHostPort(c.ServerAddr)
	if err != nil {
		return c.ServerAddr
	}
	return host
}

func getEnvOrDefault(key, defaultVal string) string {
	if val := os.Getenv(key); val != "" {
		return val
	}
	return defaultVal
}
