package realtime

import (
	"context"
	"encoding/json"
	"strings"
	"time"

	"birshibpur/pkg/identity"
	"birshibpur/pkg/logger"

	"github.com/gorilla/websocket"
)

const (
	writeWait      = 10 * time.Second
	pongWait       = 60 * time.Second
	pingPeriod     = (pongWait * 9) / 10
	maxMessageSize = 1024
)

// Client is one websocket connection. rooms and closed are guarded by
// the hub's mutex.
type Client struct {
	hub      *Hub
	conn     *websocket.Conn
	send     chan []byte
	identity *identity.Identity

	rooms  map[string]struct{}
	closed bool
}

func NewClient(hub *Hub, conn *websocket.Conn, id *identity.Identity) *Client {
	return &Client{
		hub:      hub,
		conn:     conn,
		send:     make(chan []byte, sendBufferSize),
		identity: id,
		rooms:    make(map[string]struct{}),
	}
}

// DefaultRooms are the rooms a client joins on connect.
func DefaultRooms(id *identity.Identity) []string {
	if id.IsAdmin() {
		return []string{AdminRoom}
	}
	return []string{UserRoom(id.UserID)}
}

// BookingAccess decides whether a client may follow a booking's room.
type BookingAccess interface {
	CanWatchBooking(ctx context.Context, id *identity.Identity, bookingID string) bool
}

func (c *Client) readPump(access BookingAccess, log *logger.Logger) {
	defer func() {
		c.hub.Unregister(c)
		_ = c.conn.Close()
	}()

	c.conn.SetReadLimit(maxMessageSize)
	_ = c.conn.SetReadDeadline(time.Now().Add(pongWait))
	c.conn.SetPongHandler(func(string) error {
		return c.conn.SetReadDeadline(time.Now().Add(pongWait))
	})

	for {
		_, raw, err := c.conn.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseNormalClosure) {
				log.Debug("Realtime connection closed unexpectedly", "user_id", c.identity.UserID, logger.Err(err))
			}
			return
		}

		var msg inbound
		if err := json.Unmarshal(raw, &msg); err != nil {
			c.reply(EventError, map[string]string{"message": "invalid message"})
			continue
		}
		c.handle(msg, access)
	}
}

func (c *Client) handle(msg inbound, access BookingAccess) {
	switch msg.Action {
	case "subscribe":
		bookingID, ok := strings.CutPrefix(msg.Room, BookingRoomPrefix)
		if !ok || bookingID == "" {
			c.reply(EventError, map[string]string{"message": "only booking rooms can be joined"})
			return
		}
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if !access.CanWatchBooking(ctx, c.identity, bookingID) {
			c.reply(EventError, map[string]string{"message": "booking not available"})
			return
		}
		c.hub.Join(c, msg.Room)
	case "unsubscribe":
		if strings.HasPrefix(msg.Room, BookingRoomPrefix) {
			c.hub.Leave(c, msg.Room)
		}
	default:
		c.reply(EventError, map[string]string{"message": "unknown action"})
	}
}

// reply writes directly to this client's queue, skipping the hub loop.
func (c *Client) reply(event string, data any) {
	payload, err := c.hub.encode(event, data)
	if err != nil {
		return
	}

	c.hub.mu.RLock()
	defer c.hub.mu.RUnlock()
	if c.closed {
		return
	}
	select {
	case c.send <- payload:
	default:
	}
}

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
