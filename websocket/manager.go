package websocket

import (
	"encoding/json"
	"net/http"
	"sync"
	"time"

	"aiinspire/metrics"

	"github.com/gorilla/websocket"
	"go.uber.org/zap"
)

const (
	writeWait  = 10 * time.Second
	pongWait   = 60 * time.Second
	pingPeriod = 30 * time.Second
	readLimit  = 4096
	sendBuffer = 64
)

// Event is the envelope for every frame sent to a client.
type Event struct {
	Type    string      `json:"type"`
	Payload interface{} `json:"payload,omitempty"`
	Time    int64       `json:"time"`
}

// Authenticator resolves a token to a user id.
type Authenticator func(token string) (string, error)

// Manager tracks open connections per user.
type Manager struct {
	mu      sync.RWMutex
	clients map[string]map[*Client]bool
	log     *zap.Logger
}

type Client struct {
	conn    *websocket.Conn
	userID  string
	send    chan []byte
	manager *Manager
	once    sync.Once
}

func NewManager(log *zap.Logger) *Manager {
	return &Manager{
		clients: make(map[string]map[*Client]bool),
		log:     log,
	}
}

func (m *Manager) register(c *Client) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.clients[c.userID] == nil {
		m.clients[c.userID] = make(map[*Client]bool)
	}
	m.clients[c.userID][c] = true
	metrics.WebSocketClients.Inc()
}

func (m *Manager) unregister(c *Client) {
	m.mu.Lock()
	defer m.mu.Unlock()
	set := m.clients[c.userID]
	if !set[c] {
		return
	}
	delete(set, c)
	if len(set) == 0 {
		delete(m.clients, c.userID)
	}
	c.once.Do(func() { close(c.send) })
	metrics.WebSocketClients.Dec()
}

// SendToUser delivers an event to every connection of userID and returns the
// number of connections it was queued on. Slow clients drop the event.
func (m *Manager) SendToUser(userID, eventType string, payload interface{}) int {
	msg, err := json.Marshal(Event{Type: eventType, Payload: payload, Time: time.Now().Unix()})
	if err != nil {
		m.log.Error("marshal websocket event", zap.String("type", eventType), zap.Error(err))
		return 0
	}

	m.mu.RLock()
	defer m.mu.RUnlock()
	n := 0
	for c := range m.clients[userID] {
		select {
		case c.send <- msg:
			n++
		default:
			m.log.Warn("websocket send buffer full", zap.String("userId", userID), zap.String("type", eventType))
		}
	}
	return n
}

func (m *Manager) IsOnline(userID string) bool {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return len(m.clients[userID]) > 0
}

func (m *Manager) Connections() int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	n := 0
	for _, set := range m.clients {
		n += len(set)
	}
	return n
}

// Close disconnects every client.
func (m *Manager) Close() {
	m.mu.RLock()
	var all []*Client
	for _, set := range m.clients {
		for c := range set {
			all = append(all, c)
		}
	}
	m.mu.RUnlock()
	for _, c := range all {
		c.conn.Close()
	}
}

var upgrader = websocket.Upgrader{
	CheckOrigin: func(r *http.Request) bool {
		return true
	},
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
}

// Handler upgrades requests carrying a valid ?token= and registers them.
func (m *Manager) Handler(auth Authenticator) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		token := r.URL.Query().Get("token")
		if token == "" {
			http.Error(w, `{"error":"token required"}`, http.StatusUnauthorized)
			return
		}
		userID, err := auth(token)
		if err != nil {
			http.Error(w, `{"error":"invalid token"}`, http.StatusUnauthorized)
			return
		}

		conn, err := upgrader.Upgrade(w, r, nil)
		if err != nil {
			m.log.Warn("websocket upgrade failed", zap.Error(err))
			return
		}

		c := &Client{
			conn:    conn,
			userID:  userID,
			send:    make(chan []byte, sendBuffer),
			manager: m,
		}
		m.register(c)
		c.queue("connected", map[string]string{"userId": userID})

		go c.writePump()
		go c.readPump()
	}
}

func (c *Client) queue(eventType string, payload interface{}) {
	msg, err := json.Marshal(Event{Type: eventType, Payload: payload, Time: time.Now().Unix()})
	if err != nil {
		return
	}
	select {
	case c.send <- msg:
	default:
	}
}

func (c *Client) readPump() {
	defer func() {
		c.manager.unregister(c)
		c.conn.Close()
	}()

	c.conn.SetReadLimit(readLimit)
	c.conn.SetReadDeadline(time.Now().Add(pongWait))
	c.conn.SetPongHandler(func(string) error {
		return c.conn.SetReadDeadline(time.Now().Add(pongWait))
	})

	for {
		_, message, err := c.conn.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseAbnormalClosure) {
				c.manager.log.Debug("websocket read", zap.String("userId", c.userID), zap.Error(err))
			}
			return
		}

		var in struct {
			Type string `json:"type"`
		}
		if err := json.Unmarshal(message, &in); err != nil {
			continue
		}
		switch in.Type {
		case "ping":
			c.queue("pong", nil)
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
