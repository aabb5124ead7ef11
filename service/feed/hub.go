// Package feed pushes committed market events to websocket subscribers.
package feed

import (
	"encoding/json"
	"net/http"
	"time"

	"github.com/gorilla/websocket"
	"golang.org/x/xerrors"

	"github.com/etherbay/goapi/base/ctx"
	"github.com/etherbay/goapi/base/log"
	"github.com/etherbay/goapi/domain/market"
)

const (
	// writeWait is the maximum time to wait for a write to complete
	writeWait = 10 * time.Second

	// pongWait is the maximum time to wait for a pong from the client
	pongWait = 60 * time.Second

	// pingPeriod must be less than pongWait
	pingPeriod = (pongWait * 9) / 10

	// sendBufferSize is the channel buffer for outgoing events per client
	sendBufferSize = 64
)

var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
	CheckOrigin: func(r *http.Request) bool {
		return true
	},
}

type client struct {
	conn *websocket.Conn
	send chan []byte
}

// Hub fans committed events out to every connected client. Publish never
// blocks the caller, slow clients get dropped instead.
type Hub struct {
	clients    map[*client]bool
	broadcast  chan []byte
	register   chan *client
	unregister chan *client
	done       chan struct{}
}

func NewHub() *Hub {
	return &Hub{
		clients:    map[*client]bool{},
		broadcast:  make(chan []byte, 256),
		register:   make(chan *client),
		unregister: make(chan *client),
		done:       make(chan struct{}),
	}
}

// Run owns the client set. Call it once in its own goroutine.
func (h *Hub) Run() {
	for {
		select {
		case c := <-h.register:
			h.clients[c] = true
		case c := <-h.unregister:
			if _, ok := h.clients[c]; ok {
				delete(h.clients, c)
				close(c.send)
			}
		case msg := <-h.broadcast:
			for c := range h.clients {
				select {
				case c.send <- msg:
				default:
					delete(h.clients, c)
					close(c.send)
				}
			}
		case <-h.done:
			for c := range h.clients {
				delete(h.clients, c)
				close(c.send)
			}
			return
		}
	}
}

func (h *Hub) Close() {
	close(h.done)
}

// Publish implements market.Publisher
func (h *Hub) Publish(c ctx.Ctx, ev *market.Event) {
	msg, err := json.Marshal(ev)
	if err != nil {
		c.WithFields(log.Fields{"err": err}).Error("marshal event failed")
		return
	}
	select {
	case h.broadcast <- msg:
	default:
		c.WithFields(log.Fields{"listingId": ev.ListingId}).Warn("feed backlog full, event not broadcast")
	}
}

// ServeWs upgrades the request and attaches the connection to the hub
func (h *Hub) ServeWs(c ctx.Ctx, w http.ResponseWriter, r *http.Request) error {
	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		return xerrors.Errorf("upgrade failed: %w", err)
	}

	cl := &client{conn: conn, send: make(chan []byte, sendBufferSize)}
	h.register <- cl

	go cl.writePump()
	go cl.readPump(h)

	return nil
}

func (cl *client) writePump() {
	ticker := time.NewTicker(pingPeriod)
	defer func() {
		ticker.Stop()
		cl.conn.Close()
	}()

	for {
		select {
		case msg, ok := <-cl.send:
			cl.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if !ok {
				cl.conn.WriteMessage(websocket.CloseMessage, []byte{})
				return
			}
			if err := cl.conn.WriteMessage(websocket.TextMessage, msg); err != nil {
				return
			}
		case <-ticker.C:
			cl.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := cl.conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		}
	}
}

// readPump discards inbound frames, the feed is one-way. It exists to
// notice closed connections and answer pings.
func (cl *client) readPump(h *Hub) {
	defer func() {
		h.unregister <- cl
		cl.conn.Close()
	}()

	cl.conn.SetReadLimit(512)
	cl.conn.SetReadDeadline(time.Now().Add(pongWait))
	cl.conn.SetPongHandler(func(string) error {
		cl.conn.SetReadDeadline(time.Now().Add(pongWait))
		return nil
	})

	for {
		if _, _, err := cl.conn.ReadMessage(); err != nil {
			return
		}
	}
}
