package websocket

import (
	"encoding/json"
	"net/http"
	"sync"
	"time"

	"arguesurvey/internal/survey"
	"arguesurvey/services"

	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"
	"go.uber.org/zap"
)

const (
	writeWait  = 10 * time.Second
	pongWait   = 60 * time.Second
	pingPeriod = 54 * time.Second
	sendBuffer = 64
)

var upgrader = websocket.Upgrader{
	CheckOrigin: func(r *http.Request) bool {
		return true
	},
}

// Client is one browser tab listening to a survey session.
type Client struct {
	conn     *websocket.Conn
	clientID string
	send     chan []byte
}

// Hub fans session events out to the sockets opened for that client id.
// It implements survey.Notifier.
type Hub struct {
	clients map[string]map[*Client]bool
	mutex   sync.RWMutex
	logger  *zap.Logger
}

func NewHub(logger *zap.Logger) *Hub {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Hub{clients: make(map[string]map[*Client]bool), logger: logger}
}

// ViewMessage is sent once when a socket connects.
type ViewMessage struct {
	Type string      `json:"type"`
	View survey.View `json:"view"`
}

// Notify never blocks: a client whose buffer is full misses the event.
func (h *Hub) Notify(ev survey.Event) {
	data, err := json.Marshal(ev)
	if err != nil {
		h.logger.Warn("failed to encode event", zap.String("type", string(ev.Type)), zap.Error(err))
		return
	}

	h.mutex.RLock()
	defer h.mutex.RUnlock()
	for client := range h.clients[ev.ClientID] {
		select {
		case client.send <- data:
		default:
			h.logger.Debug("dropping event for slow client", zap.String("client", ev.ClientID))
		}
	}
}

func (h *Hub) register(c *Client) {
	h.mutex.Lock()
	defer h.mutex.Unlock()
	if h.clients[c.clientID] == nil {
		h.clients[c.clientID] = make(map[*Client]bool)
	}
	h.clients[c.clientID][c] = true
}

func (h *Hub) unregister(c *Client) {
	h.mutex.Lock()
	defer h.mutex.Unlock()
	if set, ok := h.clients[c.clientID]; ok && set[c] {
		delete(set, c)
		close(c.send)
		if len(set) == 0 {
			delete(h.clients, c.clientID)
		}
	}
}

// Count returns the number of sockets open for a client id.
func (h *Hub) Count(clientID string) int {
	h.mutex.RLock()
	defer h.mutex.RUnlock()
	return len(h.clients[clientID])
}

// Handler upgrades GET /ws/:clientId for a live session and starts pushing
// its events.
func (h *Hub) Handler(c *gin.Context) {
	clientID := c.Param("clientId")
	svc := services.GetSurveyService()
	if svc == nil {
		c.JSON(http.StatusServiceUnavailable, gin.H{"error": "survey service not initialized"})
		return
	}
	sess, err := svc.Get(clientID)
	if err != nil {
		c.JSON(http.StatusNotFound, gin.H{"error": err.Error()})
		return
	}

	conn, err := upgrader.Upgrade(c.Writer, c.Request, nil)
	if err != nil {
		h.logger.Warn("websocket upgrade failed", zap.String("client", clientID), zap.Error(err))
		return
	}

	client := &Client{conn: conn, clientID: clientID, send: make(chan []byte, sendBuffer)}
	h.register(client)

	if data, err := json.Marshal(ViewMessage{Type: "view", View: sess.View()}); err == nil {
		select {
		case client.send <- data:
		default:
		}
	}

	go client.writePump()
	go client.readPump(h)
}

// readPump only drains control frames; the socket is one-way.
func (c *Client) readPump(h *Hub) {
	defer func() {
		h.unregister(c)
		c.conn.Close()
	}()

	c.conn.SetReadLimit(512)
	c.conn.SetReadDeadline(time.Now().Add(pongWait))
	c.conn.SetPongHandler(func(string) error {
		c.conn.SetReadDeadline(time.Now().Add(pongWait))
		return nil
	})

	for {
		if _, _, err := c.conn.ReadMessage(); err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseAbnormalClosure) {
				h.logger.Debug("websocket closed", zap.String("client", c.clientID), zap.Error(err))
			}
			return
		}
	}
}

func (c *Client) writePump() {
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
