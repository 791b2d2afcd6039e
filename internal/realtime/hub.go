// Package realtime fans task events out to websocket clients grouped in
// rooms named board_<id> and task_<id>.
package realtime

import (
	"encoding/json"
	"log"
	"sync"

	"github.com/google/uuid"
)

const (
	EventTaskCreated = "taskCreated"
	EventTaskUpdated = "taskUpdated"
	EventTaskDeleted = "taskDeleted"
)

func BoardRoom(id uuid.UUID) string {
	return "board_" + id.String()
}

func TaskRoom(id uuid.UUID) string {
	return "task_" + id.String()
}

// Event is the frame written to subscribers.
type Event struct {
	Type    string          `json:"type"`
	Room    string          `json:"room"`
	Payload json.RawMessage `json:"payload"`
}

// Subscriber is anything that can sit in a room. Deliver must not block.
type Subscriber interface {
	ID() string
	Deliver(frame []byte) bool
}

// Hub tracks room membership. The zero value is not usable; build one with
// NewHub and pass it to whoever needs to emit.
type Hub struct {
	mu      sync.RWMutex
	rooms   map[string]map[string]Subscriber // room -> subscriber id -> subscriber
	members map[string]map[string]struct{} // subscriber id -> rooms
}

func NewHub() *Hub {
	return &Hub{
		rooms:   make(map[string]map[string]Subscriber),
		members: make(map[string]map[string]struct{}),
	}
}

func (h *Hub) Join(s Subscriber, room string) {
	h.mu.Lock()
	defer h.mu.Unlock()

	if h.rooms[room] == nil {
		h.rooms[room] = make(map[string]Subscriber)
	}
	h.rooms[room][s.ID()] = s
	if h.members[s.ID()] == nil {
		h.members[s.ID()] = make(map[string]struct{})
	}
	h.members[s.ID()][room] = struct{}{}
}

func (h *Hub) Leave(s Subscriber, room string) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.leave(s.ID(), room)
}

// Drop removes s from every room it joined.
func (h *Hub) Drop(s Subscriber) {
	h.mu.Lock()
	defer h.mu.Unlock()

	for room := range h.members[s.ID()] {
		h.leave(s.ID(), room)
	}
	delete(h.members, s.ID())
}

func (h *Hub) leave(id, room string) {
	if subs, ok := h.rooms[room]; ok {
		delete(subs, id)
		if len(subs) == 0 {
			delete(h.rooms, room)
		}
	}
	if rooms, ok := h.members[id]; ok {
		delete(rooms, room)
	}
}

func (h *Hub) RoomSize(room string) int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.rooms[room])
}

// Emit delivers event to the current members of room. Members that are
// disconnected or whose queue is full miss it. Emitting on a nil Hub is a
// wiring bug and panics.
func (h *Hub) Emit(room, event string, payload any) {
	if h == nil {
		panic("realtime: Emit called on a nil Hub")
	}
	frame, err := Encode(room, event, payload)
	if err != nil {
		log.Printf("[realtime] failed to encode %s for %s: %v", event, room, err)
		return
	}
	h.Broadcast(room, frame)
}

// Broadcast hands an encoded frame to every member of room and returns how
// many accepted it.
func (h *Hub) Broadcast(room string, frame []byte) int {
	h.mu.RLock()
	defer h.mu.RUnlock()

	delivered := 0
	for id, s := range h.rooms[room] {
		if s.Deliver(frame) {
			delivered++
			continue
		}
		log.Printf("[realtime] dropped frame for %s in %s: queue full", id, room)
	}
	return delivered
}

func Encode(room, event string, payload any) ([]byte, error) {
	raw, err := json.Marshal(payload)
	if err != nil {
		return nil, err
	}
	return json.Marshal(Event{Type: event, Room: room, Payload: raw})
}
