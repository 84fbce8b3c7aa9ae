// Package config loads server settings from an optional YAML file with
// ${VAR} environment expansion, fills defaults, applies environment overrides
// and validates the result.
package config

import "time"

type Config struct {
	Server    ServerConfig    `yaml:"server"`
	WebSocket WebSocketConfig `yaml:"websocket"`
	Presence  PresenceConfig  `yaml:"presence"`
	Broadcast BroadcastConfig `yaml:"broadcast"`
	Log       LogConfig       `yaml:"log"`
}

type ServerConfig struct {
	Addr              string        `yaml:"addr"`
	ReadHeaderTimeout time.Duration `yaml:"read_header_timeout"`
	ShutdownTimeout   time.Duration `yaml:"shutdown_timeout"`
}

// WebSocketConfig holds transport and per-connection queue settings.
type WebSocketConfig struct {
	ReadBufferSize  int           `yaml:"read_buffer_size"`
	WriteBufferSize int           `yaml:"write_buffer_size"`
	MaxMessageSize  int64         `yaml:"max_message_size"`
	WriteWait       time.Duration `yaml:"write_wait"`
	PongWait        time.Duration `yaml:"pong_wait"`
	SendQueueSize   int           `yaml:"send_queue_size"`
	OverflowPolicy  string        `yaml:"overflow_policy"` // drop-oldest or disconnect
	AllowedOrigins  []string      `yaml:"allowed_origins"` // empty allows any origin
}

type PresenceConfig struct {
	InitialViewerCount   *int `yaml:"initial_viewer_count"`
	WithholdInitialCount bool `yaml:"withhold_initial_count"`
}

// BroadcastConfig controls who receives purchase notifications.
type BroadcastConfig struct {
	PurchaseScope string `yaml:"purchase_scope"` // all or others
}

type LogConfig struct {
	Level  string `yaml:"level"`
	Format string `yaml:"format"`
}

// InitialCount returns the configured placeholder count.
func (p PresenceConfig) InitialCount() int {
	if p.InitialViewerCount == nil {
		return DefaultInitialViewerCount
	}
	return *p.InitialViewerCount
}
