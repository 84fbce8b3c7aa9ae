package main

import (
	"encoding/json"
	"log/slog"
	"net/http"
	"slices"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/google/uuid"
	"github.com/gorilla/websocket"

	"storefront-realtime/config"
	"storefront-realtime/hub"
	"storefront-realtime/lifecycle"
	ws "storefront-realtime/websocket"
)

type server struct {
	manager  *lifecycle.Manager
	hub      *hub.Hub
	upgrader websocket.Upgrader
	connOpts ws.Options
}

func newServer(cfg *config.Config, manager *lifecycle.Manager, h *hub.Hub) *server {
	origins := cfg.WebSocket.AllowedOrigins
	return &server{
		manager: manager,
		hub:     h,
		upgrader: websocket.Upgrader{
			ReadBufferSize:  cfg.WebSocket.ReadBufferSize,
			WriteBufferSize: cfg.WebSocket.WriteBufferSize,
			CheckOrigin: func(r *http.Request) bool {
				origin := r.Header.Get("Origin")
				return len(origins) == 0 || origin == "" || slices.Contains(origins, origin)
			},
		},
		connOpts: ws.Options{
			WriteWait:      cfg.WebSocket.WriteWait,
			PongWait:       cfg.WebSocket.PongWait,
			MaxMessageSize: cfg.WebSocket.MaxMessageSize,
			QueueSize:      cfg.WebSocket.SendQueueSize,
			Overflow:       ws.OverflowPolicy(cfg.WebSocket.OverflowPolicy),
		},
	}
}

func (s *server) routes() http.Handler {
	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(middleware.Recoverer)

	r.Get("/ws", s.handleWS)
	r.Get("/health", handleHealth)
	r.Get("/stats", s.handleStats)
	return r
}

func (s *server) handleWS(w http.ResponseWriter, r *http.Request) {
	conn, err := s.upgrader.Upgrade(w, r, nil)
	if err != nil {
		slog.Error("upgrade error", "error", err, "requestId", middleware.GetReqID(r.Context()))
		return
	}

	wsConn := ws.NewConn(uuid.New().String(), conn, s.manager, s.connOpts, slog.Default())
	if err := wsConn.Start(); err != nil {
		slog.Error("connection rejected", "clientId", wsConn.ID(), "error", err)
	}
}

func handleHealth(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(map[string]string{"status": "ok"})
}

type statsResponse struct {
	Connections int            `json:"connections"`
	Pages       map[string]int `json:"pages"`
	Delivered   int64          `json:"delivered"`
	Failed      int64          `json:"failed"`
}

func (s *server) handleStats(w http.ResponseWriter, r *http.Request) {
	connections, pages := s.manager.Presence()
	delivered, failed := s.hub.Stats()

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(statsResponse{
		Connections: connections,
		Pages:       pages,
		Delivered:   delivered,
		Failed:      failed,
	})
}
