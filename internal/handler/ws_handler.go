package handler

import (
	"encoding/json"
	"net/http"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"
	"github.com/rs/zerolog/log"

	"github.com/freeeve/palmietopia/server/internal/hub"
	"github.com/freeeve/palmietopia/server/internal/service"
)

const (
	writeWait      = 10 * time.Second
	pongWait       = 60 * time.Second
	pingPeriod     = 54 * time.Second // Must be less than pongWait
	maxMsgSize     = 4096
	defaultSendBuf = 256
)

// client is one WebSocket connection's state. Everything here is owned
// by the connection's read loop; the send queue is the only part other
// goroutines touch.
type client struct {
	conn *websocket.Conn
	send chan []byte

	playerID string
	lobbyID  string
	gameID   string
	channel  *hub.Channel
}

// subscribe moves the client's single subscription to ch. The queue is
// shared between broadcasts and direct replies, so one write pump
// drains everything in order.
func (c *client) subscribe(ch *hub.Channel) {
	if c.channel != nil {
		c.channel.Unsubscribe(c.send)
	}
	c.channel = ch
	ch.Subscribe(c.send)
}

// enqueue adds a frame to the send queue, shedding the oldest frame
// when the client has fallen behind. Never blocks.
func (c *client) enqueue(data []byte) {
	select {
	case c.send <- data:
		return
	default:
	}
	select {
	case <-c.send:
	default:
	}
	select {
	case c.send <- data:
	default:
		log.Warn().Str("playerId", c.playerID).Msg("Dropping frame for slow client")
	}
}

// WSHandler upgrades connections and runs the per-connection loops.
type WSHandler struct {
	hub      *hub.Hub
	lobbies  *service.LobbyService
	games    *service.GameService
	sendBuf  int
	upgrader websocket.Upgrader
}

// NewWSHandler creates a WSHandler. allowedOrigins is "*" or a
// comma-separated whitelist; sendBuf sizes each client's queue.
func NewWSHandler(h *hub.Hub, lobbies *service.LobbyService, games *service.GameService, allowedOrigins string, sendBuf int) *WSHandler {
	if sendBuf <= 0 {
		sendBuf = defaultSendBuf
	}
	return &WSHandler{
		hub:     h,
		lobbies: lobbies,
		games:   games,
		sendBuf: sendBuf,
		upgrader: websocket.Upgrader{
			ReadBufferSize:  1024,
			WriteBufferSize: 1024,
			CheckOrigin:     originChecker(allowedOrigins),
		},
	}
}

// originChecker builds the Upgrader origin policy. Requests without an
// Origin header (non-browser clients) are always allowed.
func originChecker(allowedOrigins string) func(*http.Request) bool {
	if allowedOrigins == "" || allowedOrigins == "*" {
		return func(*http.Request) bool { return true }
	}
	allowed := make(map[string]bool)
	for _, o := range strings.Split(allowedOrigins, ",") {
		allowed[strings.TrimSpace(o)] = true
	}
	return func(r *http.Request) bool {
		origin := r.Header.Get("Origin")
		return origin == "" || allowed[origin]
	}
}

// ServeWS handles GET /ws. Each connection gets a fresh player id; the
// client learns it from the first lobby reply and keeps it across
// reconnects to rejoin games.
func (h *WSHandler) ServeWS(w http.ResponseWriter, r *http.Request) {
	conn, err := h.upgrader.Upgrade(w, r, nil)
	if err != nil {
		log.Error().Err(err).Msg("WebSocket upgrade failed")
		return
	}

	c := &client{
		conn:     conn,
		send:     make(chan []byte, h.sendBuf),
		playerID: uuid.NewString(),
	}

	go h.writePump(c)
	go h.readPump(c)

	log.Info().Str("playerId", c.playerID).Msg("WebSocket client connected")
}

// readPump reads commands off the connection and dispatches them.
func (h *WSHandler) readPump(c *client) {
	defer func() {
		h.disconnect(c)
		c.conn.Close()
		log.Info().Str("playerId", c.playerID).Msg("WebSocket client disconnected")
	}()

	c.conn.SetReadLimit(maxMsgSize)
	c.conn.SetReadDeadline(time.Now().Add(pongWait))
	c.conn.SetPongHandler(func(string) error {
		c.conn.SetReadDeadline(time.Now().Add(pongWait))
		return nil
	})

	for {
		_, message, err := c.conn.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseNormalClosure) {
				log.Warn().Err(err).Str("playerId", c.playerID).Msg("WebSocket unexpected close")
			}
			break
		}

		if reply := h.dispatch(c, message); reply != nil {
			h.reply(c, reply)
		}
	}
}

// reply marshals an event and queues it for this client only.
func (h *WSHandler) reply(c *client, event any) {
	data, err := json.Marshal(event)
	if err != nil {
		log.Error().Err(err).Str("playerId", c.playerID).Msg("Failed to marshal reply")
		return
	}
	c.enqueue(data)
}

// writePump writes queued frames and keeps the connection alive with
// pings. One frame per message; clients parse each as a JSON object.
func (h *WSHandler) writePump(c *client) {
	ticker := time.NewTicker(pingPeriod)
	defer func() {
		ticker.Stop()
		c.conn.Close()
	}()

	for {
		select {
		case message, ok := <-c.send:
			c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if !ok {
				c.conn.WriteMessage(websocket.CloseMessage, []byte{})
				return
			}
			if err := c.conn.WriteMessage(websocket.TextMessage, message); err != nil {
				return
			}
		case <-ticker.C:
			c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := c.conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		}
	}
}
