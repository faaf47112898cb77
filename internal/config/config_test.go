package config

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestLoadDefaults(t *testing.T) {
	cfg := Load()

	assert.Equal(t, "8080", cfg.Port)
	assert.Equal(t, "ws://localhost:8080/ws", cfg.PublicURL)
	assert.Equal(t, "tapejam:events", cfg.BridgeChannel)
	assert.Equal(t, "info", cfg.LogLevel)
	assert.Empty(t, cfg.BridgeURL)
	assert.Equal(t, ":8080", cfg.Addr())
}

func TestLoadFromEnvironment(t *testing.T) {
	t.Setenv("TAPEJAM_HOST", "10.0.0.5")
	t.Setenv("TAPEJAM_PORT", "9000")
	t.Setenv("TAPEJAM_ALLOWED_ORIGIN", "https://play.example.com")
	t.Setenv("TAPEJAM_BRIDGE_URL", "redis://localhost:6379")
	t.Setenv("TAPEJAM_LOG_LEVEL", "debug")

	cfg := Load()

	assert.Equal(t, "10.0.0.5:9000", cfg.Addr())
	assert.Equal(t, "https://play.example.com", cfg.AllowedOrigin)
	assert.Equal(t, "redis://localhost:6379", cfg.BridgeURL)
	assert.Equal(t, "debug", cfg.LogLevel)
}
