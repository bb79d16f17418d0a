package devserver

import (
	"encoding/json"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"
	"github.com/sirupsen/logrus"

	"flowdash/internal/model"
)

// client is one accepted push connection.
type client struct {
	id   uuid.UUID
	conn *websocket.Conn
	mu   sync.Mutex // serializes writes
}

func (c *client) write(data []byte) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.conn.SetWriteDeadline(time.Now().Add(5 * time.Second))
	return c.conn.WriteMessage(websocket.TextMessage, data)
}

// Hub tracks push connections and their channel subscriptions.
type Hub struct {
	mu     sync.RWMutex
	conns  map[*client]bool
	topics map[string]map[*client]bool
	log    *logrus.Entry
}

// NewHub returns an empty hub.
func NewHub() *Hub {
	return &Hub{
		conns:  make(map[*client]bool),
		topics: make(map[string]map[*client]bool),
		log:    logrus.WithField("component", "devserver.hub"),
	}
}

// register adds a connection.
func (h *Hub) register(conn *websocket.Conn) *client {
	c := &client{id: uuid.New(), conn: conn}
	h.mu.Lock()
	h.conns[c] = true
	total := len(h.conns)
	h.mu.Unlock()

	h.log.WithFields(logrus.Fields{"client": c.id, "total": total}).Info("Client connected")
	return c
}

// unregister removes a connection and all of its subscriptions.
func (h *Hub) unregister(c *client) {
	h.mu.Lock()
	delete(h.conns, c)
	for ch, subs := range h.topics {
		delete(subs, c)
		if len(subs) == 0 {
			delete(h.topics, ch)
		}
	}
	total := len(h.conns)
	h.mu.Unlock()

	h.log.WithFields(logrus.Fields{"client": c.id, "total": total}).Info("Client disconnected")
}

func (h *Hub) subscribe(c *client, channel string) {
	h.mu.Lock()
	subs, ok := h.topics[channel]
	if !ok {
		subs = make(map[*client]bool)
		h.topics[channel] = subs
	}
	subs[c] = true
	h.mu.Unlock()

	h.log.WithFields(logrus.Fields{"client": c.id, "channel": channel}).Debug("Subscribed")
}

func (h *Hub) unsubscribe(c *client, channel string) {
	h.mu.Lock()
	if subs, ok := h.topics[channel]; ok {
		delete(subs, c)
		if len(subs) == 0 {
			delete(h.topics, channel)
		}
	}
	h.mu.Unlock()

	h.log.WithFields(logrus.Fields{"client": c.id, "channel": channel}).Debug("Unsubscribed")
}

// Broadcast sends env to the subscribers of channel. When the channel has
// no subscribers, or channel is empty, every connection receives it.
// It returns the number of clients written to.
func (h *Hub) Broadcast(env *model.Envelope, channel string) int {
	data, err := json.Marshal(env)
	if err != nil {
		h.log.WithError(err).Error("Failed to encode envelope")
		return 0
	}

	h.mu.RLock()
	var targets []*client
	if subs, ok := h.topics[channel]; ok && channel != "" {
		for c := range subs {
			targets = append(targets, c)
		}
	} else {
		for c := range h.conns {
			targets = append(targets, c)
		}
	}
	h.mu.RUnlock()

	sent := 0
	for _, c := range targets {
		if err := c.write(data); err != nil {
			h.log.WithField("client", c.id).WithError(err).Warn("Error sending message")
			continue
		}
		sent++
	}
	return sent
}

// Subscribers returns how many connections subscribe to channel.
func (h *Hub) Subscribers(channel string) int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.topics[channel])
}

// Connections returns the number of open connections.
func (h *Hub) Connections() int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.conns)
}

// CloseAll closes every connection with a going-away frame.
func (h *Hub) CloseAll() {
	h.mu.RLock()
	var all []*client
	for c := range h.conns {
		all = append(all, c)
	}
	h.mu.RUnlock()

	msg := websocket.FormatCloseMessage(websocket.CloseGoingAway, "server shutting down")
	for _, c := range all {
		c.conn.WriteControl(websocket.CloseMessage, msg, time.Now().Add(time.Second))
		c.conn.Close()
	}
}

// ChannelFor maps an envelope type to the channel it is published on.
func ChannelFor(t model.MessageType) string {
	switch {
	case t == model.MsgWorkflowUpdate:
		return "workflows"
	case t == model.MsgTaskUpdate:
		return "tasks"
	case t == model.MsgAgentStatus:
		return "agents"
	case t.IsSuggestion():
		return "suggestions"
	}
	return ""
}
