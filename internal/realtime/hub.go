package realtime

import (
	"sync"

	"github.com/Eroo144/instaclone/internal/domain"
)

// Event is one frame pushed to a live session.
type Event struct {
	Kind    string `json:"event"`
	Payload any    `json:"data,omitempty"`
}

// Session is a live delivery handle belonging to exactly one user.
// Deliver must not block; a session that cannot keep up drops frames.
type Session interface {
	ID() string
	Deliver(evt Event)
}

// Hub is the subscription table for real-time fan-out: userID -> set of
// open sessions. It is decoupled from any transport; the websocket
// adapter registers its connections here.
type Hub struct {
	mu     sync.RWMutex
	rooms  map[string]map[string]Session
	owners map[string]string // sessionID -> userID
}

func NewHub() *Hub {
	return &Hub{
		rooms:  make(map[string]map[string]Session),
		owners: make(map[string]string),
	}
}

// Join registers the session under userID's room. Re-joining the same
// session is a no-op.
func (h *Hub) Join(userID string, s Session) {
	h.mu.Lock()
	defer h.mu.Unlock()

	if _, ok := h.owners[s.ID()]; ok {
		return
	}
	room, ok := h.rooms[userID]
	if !ok {
		room = make(map[string]Session)
		h.rooms[userID] = room
	}
	room[s.ID()] = s
	h.owners[s.ID()] = userID
}

// Leave removes the session from whichever room holds it. Safe to call
// for a session that was never joined or already left.
func (h *Hub) Leave(s Session) {
	h.mu.Lock()
	defer h.mu.Unlock()

	userID, ok := h.owners[s.ID()]
	if !ok {
		return
	}
	delete(h.owners, s.ID())
	room := h.rooms[userID]
	delete(room, s.ID())
	if len(room) == 0 {
		delete(h.rooms, userID)
	}
}

// DeliverToUser pushes the event to every open session of userID. With
// no sessions registered the event is dropped: at-most-once, no queue.
func (h *Hub) DeliverToUser(userID, kind string, payload any) {
	h.mu.RLock()
	targets := make([]Session, 0, len(h.rooms[userID]))
	for _, s := range h.rooms[userID] {
		targets = append(targets, s)
	}
	h.mu.RUnlock()

	evt := Event{Kind: kind, Payload: payload}
	for _, s := range targets {
		s.Deliver(evt)
	}
}

// Broadcast pushes the event to every registered session.
func (h *Hub) Broadcast(kind string, payload any) {
	h.mu.RLock()
	targets := make([]Session, 0, len(h.owners))
	for _, room := range h.rooms {
		for _, s := range room {
			targets = append(targets, s)
		}
	}
	h.mu.RUnlock()

	evt := Event{Kind: kind, Payload: payload}
	for _, s := range targets {
		s.Deliver(evt)
	}
}

// SessionCount reports how many sessions are open for userID.
func (h *Hub) SessionCount(userID string) int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.rooms[userID])
}

var _ domain.EventBroker = (*Hub)(nil)
