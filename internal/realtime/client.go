package realtime

import (
	"context"
	"encoding/json"
	"log"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"
	nanoid "github.com/jaevor/go-nanoid"
)

const (
	// Time allowed to write a message to the peer
	writeWait = 10 * time.Second

	// Time allowed to read the next pong message from the peer
	pongWait = 60 * time.Second

	// Send pings to peer with this period. Must be less than pongWait
	pingPeriod = (pongWait * 9) / 10

	maxMessageSize = 64 * 1024

	sendBuffer = 64
)

const (
	MsgJoinBoard  = "joinBoard"
	MsgLeaveBoard = "leaveBoard"
	MsgJoinTask   = "joinTask"
	MsgLeaveTask  = "leaveTask"
	MsgPing       = "ping"
)

// Authorizer decides whether userID may watch the board or task behind a
// join request. kind is "board" or "task".
type Authorizer func(ctx context.Context, userID uuid.UUID, kind string, id uuid.UUID) error

var newClientID = func() func() string {
	gen, err := nanoid.Standard(21)
	if err != nil {
		panic(err)
	}
	return gen
}()

// Message is what clients send. ID names the board or task for join and
// leave requests.
type Message struct {
	Type string `json:"type"`
	ID   string `json:"id,omitempty"`
}

type reply struct {
	Type  string `json:"type"`
	Room  string `json:"room,omitempty"`
	Error string `json:"error,omitempty"`
	Time  string `json:"time,omitempty"`
}

// Client is one websocket connection.
type Client struct {
	id        string
	userID    uuid.UUID
	hub       *Hub
	conn      *websocket.Conn
	send      chan []byte
	done      chan struct{}
	authorize Authorizer
}

func NewClient(hub *Hub, conn *websocket.Conn, userID uuid.UUID, authorize Authorizer) *Client {
	return &Client{
		id:        newClientID(),
		userID:    userID,
		hub:       hub,
		conn:      conn,
		send:      make(chan []byte, sendBuffer),
		done:      make(chan struct{}),
		authorize: authorize,
	}
}

func (c *Client) ID() string {
	return c.id
}

// Deliver queues frame without blocking. A full queue drops it.
func (c *Client) Deliver(frame []byte) bool {
	select {
	case c.send <- frame:
		return true
	default:
		return false
	}
}

// Run starts both pumps and blocks until the connection is gone.
func (c *Client) Run() {
	go c.WritePump()
	c.ReadPump()
}

// ReadPump handles room requests until the peer goes away.
func (c *Client) ReadPump() {
	defer func() {
		c.hub.Drop(c)
		close(c.done)
		c.conn.Close()
	}()

	c.conn.SetReadLimit(maxMessageSize)
	c.conn.SetReadDeadline(time.Now().Add(pongWait))
	c.conn.SetPongHandler(func(string) error {
		c.conn.SetReadDeadline(time.Now().Add(pongWait))
		return nil
	})

	for {
		_, raw, err := c.conn.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseAbnormalClosure) {
				log.Printf("[realtime] client %s: %v", c.id, err)
			}
			return
		}

		var msg Message
		if err := json.Unmarshal(raw, &msg); err != nil {
			c.reply(reply{Type: "error", Error: "malformed message"})
			continue
		}
		c.handle(msg)
	}
}

func (c *Client) handle(msg Message) {
	switch msg.Type {
	case MsgPing:
		c.reply(reply{Type: "pong", Time: time.Now().UTC().Format(time.RFC3339)})
	case MsgJoinBoard, MsgJoinTask:
		kind, room, ok := c.room(msg)
		if !ok {
			return
		}
		id, _ := uuid.Parse(msg.ID)
		if c.authorize != nil {
			ctx, cancel := context.WithTimeout(context.Background(), writeWait)
			err := c.authorize(ctx, c.userID, kind, id)
			cancel()
			if err != nil {
				c.reply(reply{Type: "error", Room: room, Error: "not allowed to join"})
				return
			}
		}
		c.hub.Join(c, room)
		c.reply(reply{Type: "joined", Room: room})
	case MsgLeaveBoard, MsgLeaveTask:
		_, room, ok := c.room(msg)
		if !ok {
			return
		}
		c.hub.Leave(c, room)
		c.reply(reply{Type: "left", Room: room})
	default:
		c.reply(reply{Type: "error", Error: "unknown message type"})
	}
}

func (c *Client) room(msg Message) (kind, room string, ok bool) {
	id, err := uuid.Parse(msg.ID)
	if err != nil {
		c.reply(reply{Type: "error", Error: "invalid id"})
		return "", "", false
	}
	if msg.Type == MsgJoinBoard || msg.Type == MsgLeaveBoard {
		return "board", BoardRoom(id), true
	}
	return "task", TaskRoom(id), true
}

func (c *Client) reply(r reply) {
	frame, err := json.Marshal(r)
	if err != nil {
		return
	}
	c.Deliver(frame)
}

// WritePump writes queued frames one message each and keeps the
// connection alive with pings.
func (c *Client) WritePump() {
	ticker := time.NewTicker(pingPeriod)
	defer func() {
		ticker.Stop()
		c.conn.Close()
	}()

	for {
		select {
		case frame := <-c.send:
			c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := c.conn.WriteMessage(websocket.TextMessage, frame); err != nil {
				return
			}
		case <-ticker.C:
			c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := c.conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		case <-c.done:
			c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			c.conn.WriteMessage(websocket.CloseMessage, []byte{})
			return
		}
	}
}
