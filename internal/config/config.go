// Package config loads server configuration from the environment,
// with a best-effort .env file for development.
package config

import (
	"net"
	"os"

	"github.com/joho/godotenv"
)

// Config holds everything tapejamd reads from the environment.
type Config struct {
	// Host and Port form the listen address.
	Host string
	Port string

	// AllowedOrigin is the public-facing origin allowed by CORS and
	// websocket upgrades. Empty allows any origin.
	AllowedOrigin string

	// PublicURL is the relay URL advertised to clients.
	PublicURL string

	// BridgeURL, when set, enables the cross-instance event bridge
	// (a valkey connection URL). BridgeChannel is the pub/sub channel
	// shared by all instances.
	BridgeURL     string
	BridgeChannel string

	// SampleBaseURL is where clients fetch sound bank samples from.
	SampleBaseURL string

	LogLevel string
}

// Load reads the environment. A missing .env file is not an error.
func Load() Config {
	godotenv.Load()

	return Config{
		Host:          getenv("TAPEJAM_HOST", ""),
		Port:          getenv("TAPEJAM_PORT", "8080"),
		AllowedOrigin: getenv("TAPEJAM_ALLOWED_ORIGIN", ""),
		PublicURL:     getenv("TAPEJAM_PUBLIC_URL", "ws://localhost:8080/ws"),
		BridgeURL:     getenv("TAPEJAM_BRIDGE_URL", ""),
		BridgeChannel: getenv("TAPEJAM_BRIDGE_CHANNEL", "tapejam:events"),
		SampleBaseURL: getenv("TAPEJAM_SAMPLE_BASE_URL", "/samples"),
		LogLevel:      getenv("TAPEJAM_LOG_LEVEL", "info"),
	}
}

// Addr returns the listen address.
func (c Config) Addr() string {
	return net.JoinHostPort(c.Host, c.Port)
}

func getenv(key, fallback string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return fallback
}
