package lifecycle

import (
	"log/slog"
	"time"

	"github.com/Arceliar/phony"

	"storefront-realtime/domain"
	"storefront-realtime/hub"
	"storefront-realtime/presence"
)

const timestampLayout = "2006-01-02T15:04:05.000Z07:00"

type Options struct {
	// InitialViewerCount is sent to a connection as soon as it connects,
	// before it has reported any page.
	InitialViewerCount int
	// WithholdInitialCount suppresses the connect-time count entirely.
	WithholdInitialCount bool
	// ExcludePurchaser keeps a purchase broadcast from echoing back to the buyer.
	ExcludePurchaser bool
}

// Manager owns the connection registry. All registry mutation, recount and
// dispatch for one event runs inside the actor before the next event starts.
type Manager struct {
	phony.Inbox

	registry *presence.Registry
	router   domain.EventRouter
	hub      *hub.Hub
	opts     Options
	logger   *slog.Logger
	now      func() time.Time
}

func New(router domain.EventRouter, h *hub.Hub, opts Options, logger *slog.Logger) *Manager {
	if logger == nil {
		logger = slog.Default()
	}
	return &Manager{
		registry: presence.NewRegistry(),
		router:   router,
		hub:      h,
		opts:     opts,
		logger:   logger,
		now:      time.Now,
	}
}

// Connect registers conn. It blocks until the registration has been applied and
// returns presence.ErrDuplicateID if the id is already live.
func (m *Manager) Connect(conn domain.Connection) error {
	var err error
	phony.Block(m, func() {
		err = m.connect(conn)
	})
	return err
}

// Handle classifies one inbound frame and queues it for the actor.
// Frames that fail validation are logged and dropped.
func (m *Manager) Handle(conn domain.Connection, data []byte) {
	intent, err := m.router.Route(data)
	if err != nil {
		m.logger.Warn("dropping inbound event", "clientId", conn.ID(), "error", err)
		return
	}

	m.Act(nil, func() {
		switch in := intent.(type) {
		case domain.PageChanged:
			m.changePage(conn, in.Page)
		case domain.PurchaseRequested:
			m.purchase(conn, in)
		case domain.Disconnected:
			m.disconnect(conn)
			conn.Close()
		}
	})
}

// Disconnect queues removal of conn. Calling it for an unknown connection is a no-op.
func (m *Manager) Disconnect(conn domain.Connection) {
	m.Act(nil, func() {
		m.disconnect(conn)
	})
}

// Presence returns the number of open connections and the viewer count per page.
func (m *Manager) Presence() (connections int, pages map[string]int) {
	phony.Block(m, func() {
		snap := m.registry.Snapshot()
		connections = len(snap)
		pages = presence.ComputeCounts(snap)
	})
	return connections, pages
}

func (m *Manager) connect(conn domain.Connection) error {
	if err := m.registry.Register(conn); err != nil {
		m.logger.Error("connection id collision", "clientId", conn.ID(), "error", err)
		return err
	}
	m.logger.Info("client connected", "clientId", conn.ID(), "clients", m.registry.Len())

	if m.opts.WithholdInitialCount {
		return nil
	}
	data, err := domain.Encode(domain.EventViewerCount, domain.ViewerCount{Count: m.opts.InitialViewerCount})
	if err != nil {
		m.logger.Warn("marshal error", "clientId", conn.ID(), "error", err)
		return nil
	}
	m.hub.SendTo(conn, domain.EventViewerCount, data)
	return nil
}

func (m *Manager) changePage(conn domain.Connection, page string) {
	previous, ok := m.registry.SetPage(conn.ID(), page)
	if !ok {
		m.logger.Debug("page change for unknown connection", "clientId", conn.ID(), "page", page)
		return
	}
	m.logger.Info("page changed", "clientId", conn.ID(), "from", previous, "to", page)

	if previous != "" && previous != page {
		m.publishCount(previous)
	}
	m.publishCount(page)
}

func (m *Manager) purchase(conn domain.Connection, req domain.PurchaseRequested) {
	event := domain.PurchaseEvent{
		Nickname:  req.Nickname,
		GoodsID:   req.GoodsID,
		GoodsName: req.GoodsName,
		Timestamp: m.now().UTC().Format(timestampLayout),
	}
	data, err := domain.Encode(domain.EventPurchaseBroadcast, event)
	if err != nil {
		m.logger.Warn("marshal error", "clientId", conn.ID(), "error", err)
		return
	}

	var exclude string
	if m.opts.ExcludePurchaser {
		exclude = conn.ID()
	}
	sent := m.hub.Broadcast(m.registry.Snapshot(), exclude, domain.EventPurchaseBroadcast, data)
	m.logger.Info("purchase broadcast",
		"clientId", conn.ID(),
		"nickname", event.Nickname,
		"goodsId", event.GoodsID,
		"recipients", sent,
	)
}

func (m *Manager) disconnect(conn domain.Connection) {
	e, ok := m.registry.Unregister(conn.ID())
	if !ok {
		return
	}
	m.logger.Info("client disconnected", "clientId", conn.ID(), "clients", m.registry.Len())

	if e.Page != "" {
		m.publishCount(e.Page)
	}
}

// publishCount sends the current count for page to each of its viewers.
func (m *Manager) publishCount(page string) {
	viewers := m.registry.Viewers(page)
	if len(viewers) == 0 {
		return
	}
	count := presence.CountFor(viewers, page)
	data, err := domain.Encode(domain.EventViewerCount, domain.ViewerCount{Count: count, Page: page})
	if err != nil {
		m.logger.Warn("marshal error", "page", page, "error", err)
		return
	}
	m.hub.Targeted(page, viewers, domain.EventViewerCount, data)
}
