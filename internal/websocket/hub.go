package websocket

import (
	"encoding/json"
	"net/http"
	"sync"
	"time"

	"github.com/gorilla/websocket"
	"go.uber.org/zap"
)

const (
	writeWait      = 10 * time.Second
	pongWait       = 60 * time.Second
	pingPeriod     = (pongWait * 9) / 10
	maxMessageSize = 512
	sendBuffer     = 16
)

// Event 推送给客户端的事件。
type Event struct {
	Type string      `json:"type"`
	Data interface{} `json:"data,omitempty"`
}

// NewMailEvent 构造新邮件到达事件。
func NewMailEvent(emailID, recipient, from, subject string) Event {
	return Event{
		Type: "new_mail",
		Data: map[string]string{
			"id":        emailID,
			"recipient": recipient,
			"from":      from,
			"subject":   subject,
		},
	}
}

// client 单个 WebSocket 连接。
type client struct {
	hub    *Hub
	userID string
	conn   *websocket.Conn
	send   chan []byte
}

// Hub 按用户维护 WebSocket 连接，向指定用户推送事件。
type Hub struct {
	mu      sync.RWMutex
	clients map[string]map[*client]struct{} // userID -> 该用户的连接集合
	logger  *zap.Logger

	upgrader websocket.Upgrader
}

// NewHub 创建连接中心。
func NewHub(logger *zap.Logger, allowedOrigins []string) *Hub {
	allowAll := len(allowedOrigins) == 1 && allowedOrigins[0] == "*"
	originSet := make(map[string]struct{}, len(allowedOrigins))
	for _, o := range allowedOrigins {
		originSet[o] = struct{}{}
	}

	return &Hub{
		clients: make(map[string]map[*client]struct{}),
		logger:  logger,
		upgrader: websocket.Upgrader{
			ReadBufferSize:  1024,
			WriteBufferSize: 1024,
			CheckOrigin: func(r *http.Request) bool {
				if allowAll {
					return true
				}
				_, ok := originSet[r.Header.Get("Origin")]
				return ok
			},
		},
	}
}

// Serve 将认证后的 HTTP 请求升级为 WebSocket 连接并注册到中心。
func (h *Hub) Serve(w http.ResponseWriter, r *http.Request, userID string) error {
	conn, err := h.upgrader.Upgrade(w, r, nil)
	if err != nil {
		return err
	}

	c := &client{
		hub:    h,
		userID: userID,
		conn:   conn,
		send:   make(chan []byte, sendBuffer),
	}
	h.register(c)

	go c.writeLoop()
	go c.readLoop()

	h.logger.Debug("WebSocket 连接建立", zap.String("user_id", userID))
	return nil
}

// NotifyUser 向指定用户的所有在线连接推送事件。
// 发送缓冲满的慢连接直接丢弃该事件，不阻塞投递路径。
func (h *Hub) NotifyUser(userID string, event Event) {
	data, err := json.Marshal(event)
	if err != nil {
		h.logger.Error("事件序列化失败", zap.Error(err))
		return
	}

	h.mu.RLock()
	defer h.mu.RUnlock()
	for c := range h.clients[userID] {
		select {
		case c.send <- data:
		default:
		}
	}
}

// ConnectionCount 当前在线连接总数。
func (h *Hub) ConnectionCount() int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	n := 0
	for _, conns := range h.clients {
		n += len(conns)
	}
	return n
}

// Shutdown 关闭所有连接。
func (h *Hub) Shutdown() {
	h.mu.Lock()
	defer h.mu.Unlock()
	for _, conns := range h.clients {
		for c := range conns {
			c.conn.Close()
		}
	}
	h.clients = make(map[string]map[*client]struct{})
}

func (h *Hub) register(c *client) {
	h.mu.Lock()
	defer h.mu.Unlock()
	if h.clients[c.userID] == nil {
		h.clients[c.userID] = make(map[*client]struct{})
	}
	h.clients[c.userID][c] = struct{}{}
}

func (h *Hub) unregister(c *client) {
	h.mu.Lock()
	defer h.mu.Unlock()
	if conns, ok := h.clients[c.userID]; ok {
		if _, ok := conns[c]; ok {
			delete(conns, c)
			close(c.send)
			if len(conns) == 0 {
				delete(h.clients, c.userID)
			}
		}
	}
}

// readLoop 消费客户端消息（仅用于保活与感知断开）。
func (c *client) readLoop() {
	defer func() {
		c.hub.unregister(c)
		c.conn.Close()
	}()

	c.conn.SetReadLimit(maxMessageSize)
	c.conn.SetReadDeadline(time.Now().Add(pongWait))
	c.conn.SetPongHandler(func(string) error {
		return c.conn.SetReadDeadline(time.Now().Add(pongWait))
	})

	for {
		if _, _, err := c.conn.ReadMessage(); err != nil {
			return
		}
	}
}

// writeLoop 将事件写入连接，周期性发送 ping 保活。
func (c *client) writeLoop() {
	ticker := time.NewTicker(pingPeriod)
	defer func() {
		ticker.Stop()
		c.conn.Close()
	}()

	for {
		select {
		case data, ok := <-c.send:
			c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if !ok {
				c.conn.WriteMessage(websocket.CloseMessage, []byte{})
				return
			}
			if err := c.conn.WriteMessage(websocket.TextMessage, data); err != nil {
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
