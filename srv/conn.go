package srv

import (
	"sync"

	"github.com/goccy/go-json"
	"github.com/gorilla/websocket"

	"github.com/42-Cursus-Ft-transcendence/Ft-transcendence-sub000/protocol"
)

// Conn is one gateway-authenticated connection. The gateway hands it to the
// hub already bound to a verified identity; the hub never sees credentials.
type Conn struct {
	ws *websocket.Conn

	mu     sync.Mutex // guards send against enqueue-after-close
	send   chan []byte
	closed bool

	ID      int64
	Name    string
	Address string // external ledger address, may be empty
}

func NewConn(ws *websocket.Conn, id int64, name, address string) *Conn {
	return &Conn{
		ws:      ws,
		send:    make(chan []byte, 64),
		ID:      id,
		Name:    name,
		Address: address,
	}
}

func (c *Conn) writer() {
	defer c.ws.Close()
	for msg := range c.send {
		if err := c.ws.WriteMessage(websocket.TextMessage, msg); err != nil {
			return
		}
	}
}

// closeSend releases the writer goroutine once the read loop is done.
// Idempotent; later sendJSON calls become no-ops.
func (c *Conn) closeSend() {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.closed {
		return
	}
	c.closed = true
	close(c.send)
}

// sendJSON queues a typed notification; a full buffer drops the frame
// rather than blocking a tick loop on a slow client.
func sendJSON(c *Conn, typ string, v any) {
	if c == nil {
		return
	}
	b, _ := json.Marshal(v)
	out, _ := json.Marshal(protocol.MsgEnvelope{Type: typ, Data: b})
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.closed {
		return
	}
	select {
	case c.send <- out:
	default:
	}
}
