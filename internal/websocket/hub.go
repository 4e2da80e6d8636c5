package websocket

import (
	"context"
	"encoding/json"
	"net/http"
	"strings"
	"sync"
	"time"

	"bakerypos/internal/auth"
	"bakerypos/internal/logger"

	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"
	"github.com/sirupsen/logrus"
)

// Topics
const (
	TopicStock  = "stock"
	TopicOrders = "orders"
	TopicShifts = "shifts"
)

var knownTopics = map[string]bool{TopicStock: true, TopicOrders: true, TopicShifts: true}

const (
	writeWait  = 10 * time.Second
	pongWait   = 60 * time.Second
	pingPeriod = (pongWait * 9) / 10
)

var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
	CheckOrigin: func(r *http.Request) bool {
		return true
	},
}

// Event is the envelope pushed to subscribers.
type Event struct {
	Topic string      `json:"topic"`
	Event string      `json:"event"`
	Data  interface{} `json:"data"`
}

// clientMessage is what a client may send: {"action":"subscribe","topics":["stock"]}.
type clientMessage struct {
	Action string   `json:"action"`
	Topics []string `json:"topics"`
}

// Client represents a single connected WebSocket client
type Client struct {
	hub     *Hub
	conn    *websocket.Conn
	send    chan []byte
	staffID string
	closed  bool
}

type subscription struct {
	client *Client
	topics []string
}

type publication struct {
	topic   string
	message []byte
}

// Hub owns the topic subscriptions of every connected client. All mutation
// happens on the Run goroutine; Subscribers is safe to call from anywhere.
type Hub struct {
	topics      map[string]map[*Client]bool
	clients     map[*Client][]string
	register    chan subscription
	unregister  chan *Client
	publish     chan publication
	done        chan struct{}
	mu          sync.RWMutex
	subscribers map[string]int
}

// NewHub initializes a new WS Hub instance
func NewHub() *Hub {
	return &Hub{
		topics:      make(map[string]map[*Client]bool),
		clients:     make(map[*Client][]string),
		register:    make(chan subscription),
		unregister:  make(chan *Client),
		publish:     make(chan publication, 256),
		done:        make(chan struct{}),
		subscribers: make(map[string]int),
	}
}

// Run dispatches hub events until ctx is cancelled, then closes every client.
// Registrations attempted after Run returns are refused.
func (h *Hub) Run(ctx context.Context) {
	defer close(h.done)
	for {
		select {
		case <-ctx.Done():
			for client := range h.clients {
				h.drop(client)
			}
			return
		case sub := <-h.register:
			h.subscribe(sub.client, sub.topics)
		case client := <-h.unregister:
			if _, ok := h.clients[client]; ok {
				h.drop(client)
				logger.Get().WithField("staff_id", client.staffID).Debug("websocket client disconnected")
			}
		case pub := <-h.publish:
			for client := range h.topics[pub.topic] {
				select {
				case client.send <- pub.message:
				default:
					h.drop(client)
				}
			}
		}
	}
}

// join hands a subscription to Run. It reports false once the hub has stopped.
func (h *Hub) join(sub subscription) bool {
	select {
	case h.register <- sub:
		return true
	case <-h.done:
		return false
	}
}

func (h *Hub) leave(client *Client) {
	select {
	case h.unregister <- client:
	case <-h.done:
	}
}

// subscribe replaces the client's previous topic set.
func (h *Hub) subscribe(client *Client, topics []string) {
	if client.closed {
		return
	}
	h.detach(client)
	h.clients[client] = topics
	for _, t := range topics {
		if h.topics[t] == nil {
			h.topics[t] = make(map[*Client]bool)
		}
		h.topics[t][client] = true
	}
	h.recount()
}

func (h *Hub) detach(client *Client) {
	for _, t := range h.clients[client] {
		delete(h.topics[t], client)
		if len(h.topics[t]) == 0 {
			delete(h.topics, t)
		}
	}
}

func (h *Hub) drop(client *Client) {
	h.detach(client)
	delete(h.clients, client)
	client.closed = true
	close(client.send)
	h.recount()
}

func (h *Hub) recount() {
	counts := make(map[string]int, len(h.topics))
	for t, members := range h.topics {
		counts[t] = len(members)
	}
	h.mu.Lock()
	h.subscribers = counts
	h.mu.Unlock()
}

// Subscribers returns the number of clients listening on topic.
func (h *Hub) Subscribers(topic string) int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return h.subscribers[topic]
}

// Publish pushes an event to every subscriber of topic. It never blocks the caller;
// when the queue is full the event is dropped and logged.
func (h *Hub) Publish(topic, event string, data interface{}) {
	message, err := json.Marshal(Event{Topic: topic, Event: event, Data: data})
	if err != nil {
		logger.LogError("websocket", "Publish", "marshal event", event, err)
		return
	}
	select {
	case h.publish <- publication{topic: topic, message: message}:
	default:
		logger.Get().WithFields(logrus.Fields{"topic": topic, "event": event}).Warn("websocket publish queue full, event dropped")
	}
}

// writePump handles writing messages from the Hub to the WebSocket connection
func (c *Client) writePump() {
	ticker := time.NewTicker(pingPeriod)
	defer func() {
		ticker.Stop()
		_ = c.conn.Close()
	}()
	for {
		select {
		case message, ok := <-c.send:
			_ = c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if !ok {
				_ = c.conn.WriteMessage(websocket.CloseMessage, []byte{})
				return
			}
			if err := c.conn.WriteMessage(websocket.TextMessage, message); err != nil {
				return
			}
		case <-ticker.C:
			_ = c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := c.conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		}
	}
}

// readPump reads subscription changes until the connection closes, then
// unregisters the client so none of its subscriptions outlive it.
func (c *Client) readPump() {
	defer func() {
		c.hub.leave(c)
		_ = c.conn.Close()
	}()
	_ = c.conn.SetReadDeadline(time.Now().Add(pongWait))
	c.conn.SetPongHandler(func(string) error {
		return c.conn.SetReadDeadline(time.Now().Add(pongWait))
	})
	for {
		_, data, err := c.conn.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseAbnormalClosure) {
				logger.LogError("websocket", "readPump", "unexpected close", c.staffID, err)
			}
			return
		}
		var msg clientMessage
		if err := json.Unmarshal(data, &msg); err != nil || msg.Action != "subscribe" {
			continue
		}
		if !c.hub.join(subscription{client: c, topics: ParseTopics(msg.Topics)}) {
			return
		}
	}
}

// ParseTopics keeps known topics, de-duplicated, in the given order.
func ParseTopics(raw []string) []string {
	seen := make(map[string]bool)
	var topics []string
	for _, r := range raw {
		for _, t := range strings.Split(r, ",") {
			t = strings.TrimSpace(t)
			if knownTopics[t] && !seen[t] {
				seen[t] = true
				topics = append(topics, t)
			}
		}
	}
	return topics
}

// ServeWs authenticates via the token query param and subscribes the client to
// the topics listed in the topics query param.
func ServeWs(hub *Hub, issuer *auth.TokenIssuer, c *gin.Context) {
	tokenString := c.Query("token")
	if tokenString == "" {
		c.AbortWithStatus(http.StatusUnauthorized)
		return
	}
	claims, err := issuer.Parse(tokenString)
	if err != nil {
		logger.Get().WithError(err).Info("websocket connection rejected")
		c.AbortWithStatus(http.StatusUnauthorized)
		return
	}

	conn, err := upgrader.Upgrade(c.Writer, c.Request, nil)
	if err != nil {
		logger.LogError("websocket", "ServeWs", "upgrade failed", claims.StaffID(), err)
		return
	}
	client := &Client{hub: hub, conn: conn, send: make(chan []byte, 256), staffID: claims.StaffID()}
	if !hub.join(subscription{client: client, topics: ParseTopics(c.QueryArray("topics"))}) {
		_ = conn.Close()
		return
	}

	go client.writePump()
	go client.readPump()
}
