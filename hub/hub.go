package hub

import (
	"log/slog"
	"sync/atomic"

	"storefront-realtime/domain"
)

// Hub fans outbound frames out to connections. Every send is independent:
// a failing connection is logged and skipped, the rest still receive the frame.
type Hub struct {
	logger *slog.Logger

	delivered atomic.Int64
	failed    atomic.Int64
}

func New(logger *slog.Logger) *Hub {
	if logger == nil {
		logger = slog.Default()
	}
	return &Hub{logger: logger}
}

// SendTo delivers data to a single connection.
func (h *Hub) SendTo(conn domain.Connection, event string, data []byte) bool {
	if err := conn.Send(data); err != nil {
		h.failed.Add(1)
		h.logger.Warn("delivery failed", "clientId", conn.ID(), "event", event, "error", err)
		return false
	}
	h.delivered.Add(1)
	return true
}

// Targeted delivers data to every entry on page. Entries on other pages are skipped.
func (h *Hub) Targeted(page string, entries []domain.Entry, event string, data []byte) int {
	sent := 0
	for _, e := range entries {
		if e.Page != page {
			continue
		}
		if h.SendTo(e.Conn, event, data) {
			sent++
		}
	}
	return sent
}

// Broadcast delivers data to every entry except the one whose id equals exclude.
// An empty exclude reaches everyone.
func (h *Hub) Broadcast(entries []domain.Entry, exclude string, event string, data []byte) int {
	sent := 0
	for _, e := range entries {
		if exclude != "" && e.ID == exclude {
			continue
		}
		if h.SendTo(e.Conn, event, data) {
			sent++
		}
	}
	return sent
}

// Stats returns the number of successful and failed sends since start.
func (h *Hub) Stats() (delivered, failed int64) {
	return h.delivered.Load(), h.failed.Load()
}
