package config

import (
	"os"
	"strings"
	"time"
)

const (
	DefaultAddr               = ":8080"
	DefaultReadHeaderTimeout  = 5 * time.Second
	DefaultShutdownTimeout    = 10 * time.Second
	DefaultReadBufferSize     = 1024
	DefaultWriteBufferSize    = 1024
	DefaultMaxMessageSize     = 4096
	DefaultWriteWait          = 10 * time.Second
	DefaultPongWait           = 60 * time.Second
	DefaultSendQueueSize      = 256
	DefaultOverflowPolicy     = "drop-oldest"
	DefaultInitialViewerCount = 99
	DefaultPurchaseScope      = "all"
	DefaultLogLevel           = "info"
	DefaultLogFormat          = "text"
)

func (c *Config) applyDefaults() {
	if c.Server.Addr == "" {
		c.Server.Addr = DefaultAddr
	}
	if c.Server.ReadHeaderTimeout == 0 {
		c.Server.ReadHeaderTimeout = DefaultReadHeaderTimeout
	}
	if c.Server.ShutdownTimeout == 0 {
		c.Server.ShutdownTimeout = DefaultShutdownTimeout
	}

	if c.WebSocket.ReadBufferSize == 0 {
		c.WebSocket.ReadBufferSize = DefaultReadBufferSize
	}
	if c.WebSocket.WriteBufferSize == 0 {
		c.WebSocket.WriteBufferSize = DefaultWriteBufferSize
	}
	if c.WebSocket.MaxMessageSize == 0 {
		c.WebSocket.MaxMessageSize = DefaultMaxMessageSize
	}
	if c.WebSocket.WriteWait == 0 {
		c.WebSocket.WriteWait = DefaultWriteWait
	}
	if c.WebSocket.PongWait == 0 {
		c.WebSocket.PongWait = DefaultPongWait
	}
	if c.WebSocket.SendQueueSize == 0 {
		c.WebSocket.SendQueueSize = DefaultSendQueueSize
	}
	if c.WebSocket.OverflowPolicy == "" {
		c.WebSocket.OverflowPolicy = DefaultOverflowPolicy
	}

	if c.Presence.InitialViewerCount == nil {
		n := DefaultInitialViewerCount
		c.Presence.InitialViewerCount = &n
	}
	if c.Broadcast.PurchaseScope == "" {
		c.Broadcast.PurchaseScope = DefaultPurchaseScope
	}

	if c.Log.Level == "" {
		c.Log.Level = DefaultLogLevel
	}
	if c.Log.Format == "" {
		c.Log.Format = DefaultLogFormat
	}
}

// applyEnv lets the deployment environment override the file.
func (c *Config) applyEnv() {
	if port := strings.TrimSpace(os.Getenv("PORT")); port != "" {
		c.Server.Addr = ":" + port
	}
	if level := os.Getenv("LOG_LEVEL"); level != "" {
		c.Log.Level = level
	}
	if format := os.Getenv("LOG_FORMAT"); format != "" {
		c.Log.Format = format
	}
}
