package config

import (
	"errors"
	"fmt"
)

// Validate checks that values are in range and enums are known.
func (c *Config) Validate() error {
	if c.Server.Addr == "" {
		return errors.New("server.addr is required")
	}

	if c.WebSocket.MaxMessageSize < 1 {
		return errors.New("websocket.max_message_size must be >= 1")
	}
	if c.WebSocket.SendQueueSize < 1 {
		return errors.New("websocket.send_queue_size must be >= 1")
	}
	if c.WebSocket.PongWait <= 0 || c.WebSocket.WriteWait <= 0 {
		return errors.New("websocket.pong_wait and websocket.write_wait must be positive")
	}
	switch c.WebSocket.OverflowPolicy {
	case "drop-oldest", "disconnect":
	default:
		return fmt.Errorf("websocket.overflow_policy must be drop-oldest or disconnect, got %q", c.WebSocket.OverflowPolicy)
	}

	if c.Presence.InitialCount() < 0 {
		return errors.New("presence.initial_viewer_count must be >= 0")
	}

	switch c.Broadcast.PurchaseScope {
	case "all", "others":
	default:
		return fmt.Errorf("broadcast.purchase_scope must be all or others, got %q", c.Broadcast.PurchaseScope)
	}

	switch c.Log.Level {
	case "debug", "info", "warn", "error":
	default:
		return fmt.Errorf("log.level must be debug, info, warn or error, got %q", c.Log.Level)
	}
	switch c.Log.Format {
	case "text", "json":
	default:
		return fmt.Errorf("log.format must be text or json, got %q", c.Log.Format)
	}

	return nil
}
