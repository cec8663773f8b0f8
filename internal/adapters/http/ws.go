package http

import (
	"context"
	"encoding/json"
	"log"
	"net/http"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"

	"github.com/Eroo144/instaclone/internal/realtime"
)

const (
	wsWriteWait  = 10 * time.Second
	wsPongWait   = 60 * time.Second
	wsPingPeriod = 50 * time.Second
	wsSendBuffer = 64
)

var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
	CheckOrigin:     func(r *http.Request) bool { return true },
}

// wsSession adapts one websocket connection to the hub's Session
// interface. Outbound events go through a buffered channel; a session
// whose buffer is full drops the frame rather than stall the hub.
type wsSession struct {
	id   string
	conn *websocket.Conn

	mu     sync.Mutex
	closed bool
	send   chan realtime.Event
}

func (s *wsSession) ID() string { return s.id }

// Deliver may race with teardown: the hub snapshots sessions before
// delivering, so a frame can arrive after Leave. The closed flag keeps
// it off the closed channel.
func (s *wsSession) Deliver(evt realtime.Event) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return
	}
	select {
	case s.send <- evt:
	default:
		log.Printf("ws: session %s slow, dropping %s", s.id, evt.Kind)
	}
}

func (s *wsSession) close() {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return
	}
	s.closed = true
	close(s.send)
}

// handleWebsocket upgrades the connection, authenticates it and joins
// the user's room. The token comes from the Authorization header or,
// for browser clients that cannot set headers on a websocket dial, the
// token query parameter.
func (s *Server) handleWebsocket(w http.ResponseWriter, r *http.Request) {
	token := bearerToken(r)
	if token == "" {
		token = r.URL.Query().Get("token")
	}
	ident, err := s.svc.Authenticate(r.Context(), token)
	if err != nil {
		writeError(w, http.StatusUnauthorized, "invalid or expired token")
		return
	}

	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		log.Printf("ws: upgrade: %v", err)
		return
	}

	sess := &wsSession{
		id:   uuid.NewString(),
		conn: conn,
		send: make(chan realtime.Event, wsSendBuffer),
	}
	s.hub.Join(ident.User.ID, sess)

	go s.writePump(sess)
	go s.readPump(sess, ident.User.ID)
}

// inboundFrame is what clients send over the socket. Only sendMessage
// is understood; unknown events are ignored.
type inboundFrame struct {
	Event string `json:"event"`
	Data  struct {
		ReceiverID string `json:"receiver_id"`
		Text       string `json:"text"`
	} `json:"data"`
}

func (s *Server) readPump(sess *wsSession, userID string) {
	defer func() {
		s.hub.Leave(sess)
		sess.close()
		sess.conn.Close()
	}()

	sess.conn.SetReadLimit(64 << 10)
	_ = sess.conn.SetReadDeadline(time.Now().Add(wsPongWait))
	sess.conn.SetPongHandler(func(string) error {
		return sess.conn.SetReadDeadline(time.Now().Add(wsPongWait))
	})

	for {
		_, raw, err := sess.conn.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseNormalClosure) {
				log.Printf("ws: session %s read: %v", sess.id, err)
			}
			return
		}

		var frame inboundFrame
		if err := json.Unmarshal(raw, &frame); err != nil {
			continue
		}
		if frame.Event != "sendMessage" {
			continue
		}
		if _, err := s.svc.SendMessage(context.Background(), userID, frame.Data.ReceiverID, frame.Data.Text); err != nil {
			sess.Deliver(realtime.Event{Kind: "error", Payload: map[string]string{"error": err.Error()}})
		}
	}
}

func (s *Server) writePump(sess *wsSession) {
	ticker := time.NewTicker(wsPingPeriod)
	defer func() {
		ticker.Stop()
		sess.conn.Close()
	}()

	for {
		select {
		case evt, ok := <-sess.send:
			_ = sess.conn.SetWriteDeadline(time.Now().Add(wsWriteWait))
			if !ok {
				_ = sess.conn.WriteMessage(websocket.CloseMessage, nil)
				return
			}
			if err := sess.conn.WriteJSON(evt); err != nil {
				return
			}
		case <-ticker.C:
			_ = sess.conn.SetWriteDeadline(time.Now().Add(wsWriteWait))
			if err := sess.conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		}
	}
}
