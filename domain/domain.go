package domain

import "encoding/json"

// Inbound event types.
const (
	EventPageChanged = "page-changed"
	EventBuy         = "buy"
	EventDisconnect  = "disconnect"
)

// Outbound event types.
const (
	EventViewerCount       = "viewer-count"
	EventPurchaseBroadcast = "purchase-broadcast"
)

// Envelope is the wire frame for every message in both directions.
type Envelope struct {
	Type string          `json:"type"`
	Data json.RawMessage `json:"data,omitempty"`
}

type ViewerCount struct {
	Count int    `json:"count"`
	Page  string `json:"page,omitempty"`
}

// PurchaseEvent exists only for the duration of a broadcast.
type PurchaseEvent struct {
	Nickname  string `json:"nickname"`
	GoodsID   string `json:"goodsId"`
	GoodsName string `json:"goodsName"`
	Timestamp string `json:"timestamp"`
}

// Entry is the registry's record of one open connection and the page it views.
// An empty Page means the client has not reported one yet.
type Entry struct {
	ID   string
	Page string
	Conn Connection
}

type Connection interface {
	ID() string
	Send(data []byte) error
	Close() error
}

// Intent is a classified inbound event.
type Intent interface {
	intent()
}

type PageChanged struct {
	Page string
}

type PurchaseRequested struct {
	Nickname  string
	GoodsID   string
	GoodsName string
}

type Disconnected struct{}

func (PageChanged) intent()       {}
func (PurchaseRequested) intent() {}
func (Disconnected) intent()      {}

type EventRouter interface {
	Route(data []byte) (Intent, error)
}

// Lifecycle receives transport signals for a connection.
type Lifecycle interface {
	Connect(conn Connection) error
	Handle(conn Connection, data []byte)
	Disconnect(conn Connection)
}

// Encode wraps payload into an Envelope of the given type.
func Encode(eventType string, payload any) ([]byte, error) {
	env := Envelope{Type: eventType}
	if payload != nil {
		data, err := json.Marshal(payload)
		if err != nil {
			return nil, err
		}
		env.Data = data
	}
	return json.Marshal(env)
}
