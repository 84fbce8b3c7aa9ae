package websocket

import (
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/gorilla/websocket"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"storefront-realtime/domain"
)

type echoLifecycle struct {
	connectErr   error
	mu           sync.Mutex
	handled      [][]byte
	disconnected chan string
}

func newEchoLifecycle() *echoLifecycle {
	return &echoLifecycle{disconnected: make(chan string, 1)}
}

func (l *echoLifecycle) Connect(conn domain.Connection) error {
	if l.connectErr != nil {
		return l.connectErr
	}
	return conn.Send([]byte("welcome"))
}

func (l *echoLifecycle) Handle(conn domain.Connection, data []byte) {
	l.mu.Lock()
	l.handled = append(l.handled, data)
	l.mu.Unlock()
	conn.Send(append([]byte("echo:"), data...))
}

func (l *echoLifecycle) Disconnect(conn domain.Connection) {
	l.disconnected <- conn.ID()
}

// serverPair starts a websocket server and returns the dialed client and the
// server-side socket.
func serverPair(t *testing.T) (*websocket.Conn, *websocket.Conn) {
	t.Helper()
	upgrader := websocket.Upgrader{CheckOrigin: func(r *http.Request) bool { return true }}
	serverSide := make(chan *websocket.Conn, 1)

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		ws, err := upgrader.Upgrade(w, r, nil)
		if err != nil {
			t.Logf("upgrade error: %v", err)
			return
		}
		serverSide <- ws
	}))
	t.Cleanup(server.Close)

	client, _, err := websocket.DefaultDialer.Dial("ws"+strings.TrimPrefix(server.URL, "http"), nil)
	require.NoError(t, err)
	t.Cleanup(func() { client.Close() })

	select {
	case ws := <-serverSide:
		return client, ws
	case <-time.After(2 * time.Second):
		t.Fatal("server never accepted the connection")
		return nil, nil
	}
}

func readText(t *testing.T, ws *websocket.Conn) string {
	t.Helper()
	ws.SetReadDeadline(time.Now().Add(2 * time.Second))
	_, data, err := ws.ReadMessage()
	require.NoError(t, err)
	return string(data)
}

func TestConn_RoundTrip(t *testing.T) {
	client, serverWS := serverPair(t)
	lc := newEchoLifecycle()
	conn := NewConn("c1", serverWS, lc, DefaultOptions(), nil)
	require.NoError(t, conn.Start())

	assert.Equal(t, "welcome", readText(t, client))

	require.NoError(t, client.WriteMessage(websocket.TextMessage, []byte("hi")))
	assert.Equal(t, "echo:hi", readText(t, client))

	client.WriteMessage(websocket.CloseMessage, websocket.FormatCloseMessage(websocket.CloseNormalClosure, ""))
	select {
	case id := <-lc.disconnected:
		assert.Equal(t, "c1", id)
	case <-time.After(2 * time.Second):
		t.Fatal("disconnect was not reported")
	}

	assert.Eventually(t, func() bool {
		return errors.Is(conn.Send([]byte("late")), ErrConnClosed)
	}, 2*time.Second, 10*time.Millisecond)
}

func TestConn_StartRejected(t *testing.T) {
	_, serverWS := serverPair(t)
	lc := newEchoLifecycle()
	lc.connectErr = errors.New("duplicate")

	conn := NewConn("c1", serverWS, lc, DefaultOptions(), nil)
	err := conn.Start()

	assert.ErrorIs(t, err, lc.connectErr)
	assert.ErrorIs(t, conn.Send([]byte("x")), ErrConnClosed)
}

func TestConn_Overflow(t *testing.T) {
	tests := []struct {
		name       string
		policy     OverflowPolicy
		wantErr    error
		wantQueued []string
		wantClosed bool
	}{
		{
			name:       "drop oldest",
			policy:     DropOldest,
			wantErr:    nil,
			wantQueued: []string{"b", "c"},
		},
		{
			name:       "disconnect",
			policy:     Disconnect,
			wantErr:    ErrQueueFull,
			wantQueued: []string{"a", "b"},
			wantClosed: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, serverWS := serverPair(t)
			opts := DefaultOptions()
			opts.QueueSize = 2
			opts.Overflow = tt.policy
			conn := NewConn("c1", serverWS, newEchoLifecycle(), opts, nil)
			defer conn.Close()

			require.NoError(t, conn.Send([]byte("a")))
			require.NoError(t, conn.Send([]byte("b")))
			err := conn.Send([]byte("c"))
			if tt.wantErr != nil {
				assert.ErrorIs(t, err, tt.wantErr)
			} else {
				assert.NoError(t, err)
			}

			var queued []string
			for len(conn.send) > 0 {
				queued = append(queued, string(<-conn.send))
			}
			assert.Equal(t, tt.wantQueued, queued)

			if tt.wantClosed {
				assert.ErrorIs(t, conn.Send([]byte("d")), ErrConnClosed)
			}
		})
	}
}
