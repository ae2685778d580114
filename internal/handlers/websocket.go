package handlers

import (
	"log"
	"net/http"
	"time"

	"github.com/ethereum/go-ethereum/common"
	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"

	"coinflip-backend/internal/middleware"
	"coinflip-backend/internal/models"
)

var upgrader = websocket.Upgrader{
	CheckOrigin: func(r *http.Request) bool {
		return true
	},
}

// WebSocketHandler pushes ledger events to connected clients. It is the
// live side of the GameCreated/GamePlayed records and implements
// services.Broadcaster.
type WebSocketHandler struct {
	hub *WebSocketHub
}

type WebSocketHub struct {
	clients    map[*websocket.Conn]common.Address
	register   chan *Client
	unregister chan *Client
	broadcast  chan *Message
}

type Client struct {
	Address common.Address
	Conn    *websocket.Conn
}

type Message struct {
	Type string      `json:"type"`
	Data interface{} `json:"data"`
}

func NewWebSocketHandler() *WebSocketHandler {
	hub := &WebSocketHub{
		clients:    make(map[*websocket.Conn]common.Address),
		register:   make(chan *Client),
		unregister: make(chan *Client),
		broadcast:  make(chan *Message, 100),
	}

	go hub.run()

	return &WebSocketHandler{hub: hub}
}

func (h *WebSocketHandler) HandleWebSocket(c *gin.Context) {
	addr, ok := middleware.CallerAddress(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "Not authenticated"})
		return
	}

	conn, err := upgrader.Upgrade(c.Writer, c.Request, nil)
	if err != nil {
		log.Printf("Failed to upgrade to WebSocket: %v", err)
		return
	}

	client := &Client{
		Address: addr,
		Conn:    conn,
	}

	h.hub.register <- client

	defer func() {
		h.hub.unregister <- client
		conn.Close()
	}()

	for {
		var msg Message
		err := conn.ReadJSON(&msg)
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseAbnormalClosure) {
				log.Printf("WebSocket error: %v", err)
			}
			break
		}

		if msg.Type == "PING" {
			conn.WriteJSON(Message{
				Type: "PONG",
				Data: gin.H{"timestamp": time.Now().Unix()},
			})
		}
	}
}

func (hub *WebSocketHub) run() {
	for {
		select {
		case client := <-hub.register:
			hub.clients[client.Conn] = client.Address
			log.Printf("Client registered: %s", client.Address.Hex())

		case client := <-hub.unregister:
			if _, ok := hub.clients[client.Conn]; ok {
				delete(hub.clients, client.Conn)
				log.Printf("Client unregistered: %s", client.Address.Hex())
			}

		case message := <-hub.broadcast:
			for conn := range hub.clients {
				conn.WriteJSON(message)
			}
		}
	}
}

func (h *WebSocketHandler) BroadcastGameCreated(event *models.GameCreatedEvent) {
	h.hub.broadcast <- &Message{
		Type: "GAME_CREATED",
		Data: event,
	}
}

func (h *WebSocketHandler) BroadcastGamePlayed(event *models.GamePlayedEvent) {
	h.hub.broadcast <- &Message{
		Type: "GAME_PLAYED",
		Data: event,
	}
}
