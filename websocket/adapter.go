package websocket

import (
	"errors"
	"log/slog"
	"sync"
	"time"

	"github.com/gorilla/websocket"

	"storefront-realtime/domain"
)

var (
	ErrQueueFull  = errors.New("outbound queue full")
	ErrConnClosed = errors.New("connection closed")
)

// OverflowPolicy decides what Send does when a connection's outbound queue is full.
type OverflowPolicy string

const (
	// DropOldest discards the oldest queued frame to make room.
	DropOldest OverflowPolicy = "drop-oldest"
	// Disconnect closes the slow connection.
	Disconnect OverflowPolicy = "disconnect"
)

type Options struct {
	WriteWait      time.Duration
	PongWait       time.Duration
	MaxMessageSize int64
	QueueSize      int
	Overflow       OverflowPolicy
}

func DefaultOptions() Options {
	return Options{
		WriteWait:      10 * time.Second,
		PongWait:       60 * time.Second,
		MaxMessageSize: 4096,
		QueueSize:      256,
		Overflow:       DropOldest,
	}
}

type Conn struct {
	id        string
	ws        *websocket.Conn
	send      chan []byte
	done      chan struct{}
	lifecycle domain.Lifecycle
	opts      Options
	logger    *slog.Logger

	mu      sync.Mutex
	closed  bool
	dropped int
}

func NewConn(id string, ws *websocket.Conn, lc domain.Lifecycle, opts Options, logger *slog.Logger) *Conn {
	if logger == nil {
		logger = slog.Default()
	}
	if opts.QueueSize < 1 {
		opts.QueueSize = 1
	}
	return &Conn{
		id:        id,
		ws:        ws,
		send:      make(chan []byte, opts.QueueSize),
		done:      make(chan struct{}),
		lifecycle: lc,
		opts:      opts,
		logger:    logger,
	}
}

func (c *Conn) ID() string { return c.id }

// Send queues data for the write pump without blocking.
func (c *Conn) Send(data []byte) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.closed {
		return ErrConnClosed
	}
	select {
	case c.send <- data:
		return nil
	default:
	}

	if c.opts.Overflow == Disconnect {
		c.logger.Warn("outbound queue full, disconnecting", "clientId", c.id, "queued", len(c.send))
		c.closeLocked()
		return ErrQueueFull
	}

	select {
	case <-c.send:
		c.dropped++
		c.logger.Warn("outbound queue full, dropped oldest frame", "clientId", c.id, "dropped", c.dropped)
	default:
	}
	select {
	case c.send <- data:
		return nil
	default:
		return ErrQueueFull
	}
}

func (c *Conn) Close() error {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.closeLocked()
}

func (c *Conn) closeLocked() error {
	if c.closed {
		return nil
	}
	c.closed = true
	close(c.done)
	return c.ws.Close()
}

// Start registers the connection and launches its pumps. If registration fails
// the socket is closed and the error returned.
func (c *Conn) Start() error {
	if err := c.lifecycle.Connect(c); err != nil {
		c.Close()
		return err
	}
	go c.writePump()
	go c.readPump()
	return nil
}

func (c *Conn) readPump() {
	defer func() {
		c.lifecycle.Disconnect(c)
		c.Close()
	}()

	c.ws.SetReadLimit(c.opts.MaxMessageSize)
	c.ws.SetReadDeadline(time.Now().Add(c.opts.PongWait))
	c.ws.SetPongHandler(func(string) error {
		c.ws.SetReadDeadline(time.Now().Add(c.opts.PongWait))
		return nil
	})

	for {
		_, data, err := c.ws.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseAbnormalClosure, websocket.CloseNormalClosure) {
				c.logger.Error("read error", "clientId", c.id, "error", err)
			}
			return
		}

		c.lifecycle.Handle(c, data)
	}
}

func (c *Conn) writePump() {
	ticker := time.NewTicker(c.opts.PongWait * 9 / 10)
	defer func() {
		ticker.Stop()
		c.Close()
	}()

	for {
		select {
		case message := <-c.send:
			c.ws.SetWriteDeadline(time.Now().Add(c.opts.WriteWait))
			if err := c.ws.WriteMessage(websocket.TextMessage, message); err != nil {
				return
			}
		case <-ticker.C:
			c.ws.SetWriteDeadline(time.Now().Add(c.opts.WriteWait))
			if err := c.ws.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		case <-c.done:
			c.ws.SetWriteDeadline(time.Now().Add(c.opts.WriteWait))
			c.ws.WriteMessage(websocket.CloseMessage, []byte{})
			return
		}
	}
}
