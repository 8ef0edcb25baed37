package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"

	"github.com/ShakaTry/DiceBot/internal/models"
	"github.com/ShakaTry/DiceBot/internal/sink"
)

var upgrader = websocket.Upgrader{
	CheckOrigin: func(r *http.Request) bool {
		return true
	},
}

// WebSocketHandler streams simulation events to connected clients.
type WebSocketHandler struct {
	hub *WebSocketHub
	log *zap.Logger
}

type WebSocketHub struct {
	clients    map[*websocket.Conn]bool
	register   chan *websocket.Conn
	unregister chan *websocket.Conn
	broadcast  chan *Message
}

type Message struct {
	Type      string      `json:"type"`
	SessionID string      `json:"session_id,omitempty"`
	Data      interface{} `json:"data"`
}

func NewWebSocketHandler(log *zap.Logger) *WebSocketHandler {
	hub := &WebSocketHub{
		clients:    make(map[*websocket.Conn]bool),
		register:   make(chan *websocket.Conn),
		unregister: make(chan *websocket.Conn),
		broadcast:  make(chan *Message, 256),
	}

	go hub.run()

	return &WebSocketHandler{hub: hub, log: log}
}

func (hub *WebSocketHub) run() {
	for {
		select {
		case conn := <-hub.register:
			hub.clients[conn] = true

		case conn := <-hub.unregister:
			if hub.clients[conn] {
				delete(hub.clients, conn)
				conn.Close()
			}

		case msg := <-hub.broadcast:
			for conn := range hub.clients {
				if err := conn.WriteJSON(msg); err != nil {
					delete(hub.clients, conn)
					conn.Close()
				}
			}
		}
	}
}

// HandleWebSocket upgrades the connection and keeps it registered until
// the client goes away. Clients are read-only; inbound messages are
// discarded.
func (h *WebSocketHandler) HandleWebSocket(c *gin.Context) {
	conn, err := upgrader.Upgrade(c.Writer, c.Request, nil)
	if err != nil {
		h.log.Warn("websocket upgrade failed", zap.Error(err))
		return
	}

	h.hub.register <- conn

	defer func() {
		h.hub.unregister <- conn
	}()

	for {
		if _, _, err := conn.ReadMessage(); err != nil {
			break
		}
	}
}

// Sink returns an event sink that broadcasts to all connected clients.
// The hub channel is buffered; a slow consumer drops messages instead
// of stalling the simulation.
func (h *WebSocketHandler) Sink() sink.EventSink {
	return &broadcastSink{hub: h.hub}
}

type broadcastSink struct {
	hub *WebSocketHub
}

func (b *broadcastSink) send(msg *Message) {
	select {
	case b.hub.broadcast <- msg:
	default:
	}
}

func (b *broadcastSink) BetDecision(id string, i int, d models.BetDecision) {
	b.send(&Message{Type: "bet_decision", SessionID: id, Data: gin.H{"bet_index": i, "decision": d}})
}

func (b *broadcastSink) BetResult(id string, i int, o models.Outcome) {
	b.send(&Message{Type: "bet_result", SessionID: id, Data: gin.H{"bet_index": i, "outcome": o}})
}

func (b *broadcastSink) SessionStart(id, strategy string, bankroll decimal.Decimal) {
	b.send(&Message{Type: "session_start", SessionID: id, Data: gin.H{"strategy": strategy, "bankroll": bankroll}})
}

func (b *broadcastSink) SessionEnd(id, reason string, state *models.GameState) {
	b.send(&Message{Type: "session_end", SessionID: id, Data: gin.H{"stop_reason": reason, "state": state}})
}

func (b *broadcastSink) StrategyEvent(id, strategy, message string) {
	b.send(&Message{Type: "strategy_event", SessionID: id, Data: gin.H{"strategy": strategy, "message": message}})
}

func (b *broadcastSink) Error(id string, err error) {
	b.send(&Message{Type: "error", SessionID: id, Data: gin.H{"error": err.Error()}})
}
