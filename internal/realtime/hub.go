package realtime

import (
	"encoding/json"
	"strings"
	"sync"
	"time"

	"birshibpur/pkg/logger"
	"birshibpur/pkg/metrics"
)

const (
	sendBufferSize      = 64
	broadcastBufferSize = 256
)

type broadcastMsg struct {
	room   string
	prefix bool
	data   []byte
}

// Hub tracks connected clients by room. Delivery is fire-and-forget:
// a client whose send queue is full is dropped.
type Hub struct {
	log     *logger.Logger
	metrics *metrics.Metrics
	now     func() time.Time

	mu    sync.RWMutex
	rooms map[string]map[*Client]struct{}

	broadcast chan broadcastMsg
	done      chan struct{}
	stopOnce  sync.Once
}

func NewHub(log *logger.Logger, m *metrics.Metrics) *Hub {
	h := &Hub{
		log:       log,
		metrics:   m,
		now:       time.Now,
		rooms:     make(map[string]map[*Client]struct{}),
		broadcast: make(chan broadcastMsg, broadcastBufferSize),
		done:      make(chan struct{}),
	}
	go h.run()
	return h
}

func (h *Hub) run() {
	for {
		select {
		case msg := <-h.broadcast:
			h.deliver(msg)
		case <-h.done:
			return
		}
	}
}

func (h *Hub) deliver(msg broadcastMsg) {
	h.mu.Lock()
	defer h.mu.Unlock()

	for room, members := range h.rooms {
		if msg.prefix {
			if !strings.HasPrefix(room, msg.room) {
				continue
			}
		} else if room != msg.room {
			continue
		}
		for c := range members {
			if c.closed {
				continue
			}
			select {
			case c.send <- msg.data:
			default:
				h.log.Warn("Dropping slow realtime client", "user_id", c.identity.UserID, "room", room)
				h.removeLocked(c)
			}
		}
	}
}

// Register adds c to rooms.
func (h *Hub) Register(c *Client, rooms ...string) {
	h.mu.Lock()
	defer h.mu.Unlock()

	for _, room := range rooms {
		h.joinLocked(c, room)
	}
	h.metrics.AddConnection(string(c.identity.Role), 1)
}

func (h *Hub) Join(c *Client, room string) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.joinLocked(c, room)
}

func (h *Hub) Leave(c *Client, room string) {
	h.mu.Lock()
	defer h.mu.Unlock()

	if members, ok := h.rooms[room]; ok {
		delete(members, c)
		if len(members) == 0 {
			delete(h.rooms, room)
		}
	}
	delete(c.rooms, room)
}

func (h *Hub) Unregister(c *Client) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.removeLocked(c)
}

func (h *Hub) joinLocked(c *Client, room string) {
	if c.closed {
		return
	}
	members, ok := h.rooms[room]
	if !ok {
		members = make(map[*Client]struct{})
		h.rooms[room] = members
	}
	members[c] = struct{}{}
	c.rooms[room] = struct{}{}
}

func (h *Hub) removeLocked(c *Client) {
	if c.closed {
		return
	}
	for room := range c.rooms {
		if members, ok := h.rooms[room]; ok {
			delete(members, c)
			if len(members) == 0 {
				delete(h.rooms, room)
			}
		}
	}
	c.rooms = map[string]struct{}{}
	c.closed = true
	close(c.send)
	h.metrics.AddConnection(string(c.identity.Role), -1)
}

// Emit queues event for every client in room.
func (h *Hub) Emit(room, event string, data any) {
	h.enqueue(room, false, event, data)
}

// EmitPrefix queues event for every room whose name starts with prefix.
func (h *Hub) EmitPrefix(prefix, event string, data any) {
	h.enqueue(prefix, true, event, data)
}

func (h *Hub) enqueue(room string, prefix bool, event string, data any) {
	payload, err := h.encode(event, data)
	if err != nil {
		h.log.Error("Failed to encode realtime event", "event", event, logger.Err(err))
		return
	}

	select {
	case h.broadcast <- broadcastMsg{room: room, prefix: prefix, data: payload}:
	case <-h.done:
	default:
		h.log.Warn("Realtime broadcast queue full, event dropped", "event", event, "room", room)
	}
}

func (h *Hub) encode(event string, data any) ([]byte, error) {
	return json.Marshal(Envelope{Event: event, Data: data, Timestamp: h.now().UTC()})
}

// RoomSize reports how many clients are in room.
func (h *Hub) RoomSize(room string) int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.rooms[room])
}

// CountRoomsWithPrefix reports how many non-empty rooms start with prefix.
func (h *Hub) CountRoomsWithPrefix(prefix string) int {
	h.mu.RLock()
	defer h.mu.RUnlock()

	n := 0
	for room := range h.rooms {
		if strings.HasPrefix(room, prefix) {
			n++
		}
	}
	return n
}

// Stop ends the broadcast loop and disconnects every client.
func (h *Hub) Stop() {
	h.stopOnce.Do(func() {
		close(h.done)

		h.mu.Lock()
		defer h.mu.Unlock()
		for _, members := range h.rooms {
			for c := range members {
				h.removeLocked(c)
			}
		}
	})
}
