package testutil

import (
	"context"
	"encoding/json"
	"net/http"
	"sort"
	"sync"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/roomsync/roomsync-client/internal/realtime"
	"github.com/roomsync/roomsync-client/logger"
	"github.com/roomsync/roomsync-client/types"
	"go.uber.org/zap"
	"nhooyr.io/websocket"
	"nhooyr.io/websocket/wsjson"
)

const (
	sendBuffer   = 64
	writeTimeout = 5 * time.Second
)

// Hub is the server side of the notification channel. Each user holds at
// most one connection; a newer one replaces the older.
type Hub struct {
	log     *zap.SugaredLogger
	backend *Backend

	mu          sync.RWMutex
	connections map[string]*connection
	shutdown    bool
}

type connection struct {
	userID string
	conn   *websocket.Conn
	sendCh chan realtime.Frame

	mu     sync.Mutex
	rooms  map[string]struct{}
	closed bool
}

func NewHub(b *Backend) *Hub {
	return &Hub{
		log:         logger.GetLogger().Named("test_hub"),
		backend:     b,
		connections: make(map[string]*connection),
	}
}

// HandleWebSocket authenticates the bearer header, upgrades and serves the
// connection until either side closes it.
func (h *Hub) HandleWebSocket(c *gin.Context) {
	userID, ok := h.backend.authenticate(c.GetHeader("Authorization"))
	if !ok {
		fail(c, http.StatusUnauthorized, "Unauthorized")
		return
	}

	conn, err := websocket.Accept(c.Writer, c.Request, &websocket.AcceptOptions{InsecureSkipVerify: true})
	if err != nil {
		h.log.Errorw("Failed to accept WebSocket connection", "userID", userID, "error", err)
		return
	}

	ctx, cancel := context.WithCancel(c.Request.Context())
	defer cancel()

	cn := h.register(userID, conn)
	if cn == nil {
		_ = conn.Close(websocket.StatusGoingAway, "server shutdown")
		return
	}
	defer h.unregister(cn, "client gone")

	go h.writeLoop(ctx, cn)
	h.send(cn, realtime.Frame{Type: realtime.TypeConnected})
	h.readLoop(ctx, cn)
}

func (h *Hub) register(userID string, conn *websocket.Conn) *connection {
	cn := &connection{
		userID: userID,
		conn:   conn,
		sendCh: make(chan realtime.Frame, sendBuffer),
		rooms:  make(map[string]struct{}),
	}

	h.mu.Lock()
	if h.shutdown {
		h.mu.Unlock()
		return nil
	}
	existing := h.connections[userID]
	h.connections[userID] = cn
	h.mu.Unlock()

	if existing != nil {
		h.closeConnection(existing, websocket.StatusNormalClosure, "replaced by new connection")
	}
	h.log.Debugw("WebSocket connection registered", "userID", userID)
	return cn
}

func (h *Hub) unregister(cn *connection, reason string) {
	h.mu.Lock()
	if h.connections[cn.userID] == cn {
		delete(h.connections, cn.userID)
	}
	h.mu.Unlock()
	h.closeConnection(cn, websocket.StatusNormalClosure, reason)
}

func (h *Hub) closeConnection(cn *connection, code websocket.StatusCode, reason string) {
	cn.mu.Lock()
	if cn.closed {
		cn.mu.Unlock()
		return
	}
	cn.closed = true
	close(cn.sendCh)
	cn.mu.Unlock()

	_ = cn.conn.Close(code, reason)
}

func (h *Hub) readLoop(ctx context.Context, cn *connection) {
	for {
		var frame realtime.Frame
		if err := wsjson.Read(ctx, cn.conn, &frame); err != nil {
			if websocket.CloseStatus(err) == -1 {
				h.log.Debugw("WebSocket read ended", "userID", cn.userID, "error", err)
			}
			return
		}
		h.handleFrame(cn, frame)
	}
}

func (h *Hub) handleFrame(cn *connection, frame realtime.Frame) {
	switch frame.Type {
	case realtime.TypeAuth:
		var p realtime.AuthPayload
		if err := json.Unmarshal(frame.Payload, &p); err != nil {
			h.send(cn, realtime.Frame{Type: realtime.TypeError, Error: "invalid auth payload"})
			return
		}
		if userID, ok := h.backend.authenticate("Bearer " + p.Token); !ok || userID != cn.userID {
			h.send(cn, realtime.Frame{Type: realtime.TypeError, Error: "authentication failed"})
		}
	case realtime.TypeJoinGroup, realtime.TypeLeaveGroup:
		var p realtime.GroupPayload
		if err := json.Unmarshal(frame.Payload, &p); err != nil || p.GroupID == "" {
			h.send(cn, realtime.Frame{Type: realtime.TypeError, Error: "groupId is required"})
			return
		}
		if frame.Type == realtime.TypeLeaveGroup {
			cn.mu.Lock()
			delete(cn.rooms, p.GroupID)
			cn.mu.Unlock()
			return
		}
		if !h.backend.IsGroupMember(p.GroupID, cn.userID) {
			h.send(cn, realtime.Frame{Type: realtime.TypeError, Error: "not a member of group " + p.GroupID})
			return
		}
		cn.mu.Lock()
		cn.rooms[p.GroupID] = struct{}{}
		cn.mu.Unlock()
	case realtime.TypePing:
		h.send(cn, realtime.Frame{Type: realtime.TypePong})
	default:
		h.send(cn, realtime.Frame{Type: realtime.TypeError, Error: "unknown frame type " + frame.Type})
	}
}

func (h *Hub) writeLoop(ctx context.Context, cn *connection) {
	for frame := range cn.sendCh {
		wctx, cancel := context.WithTimeout(ctx, writeTimeout)
		err := wsjson.Write(wctx, cn.conn, frame)
		cancel()
		if err != nil {
			h.log.Debugw("WebSocket write failed", "userID", cn.userID, "error", err)
			return
		}
	}
}

func (h *Hub) send(cn *connection, frame realtime.Frame) {
	cn.mu.Lock()
	defer cn.mu.Unlock()
	if cn.closed {
		return
	}
	select {
	case cn.sendCh <- frame:
	default:
		h.log.Warnw("Connection send buffer full, dropping frame", "userID", cn.userID, "type", frame.Type)
	}
}

func notificationFrame(typ string, n types.Notification) realtime.Frame {
	raw, err := json.Marshal(n)
	if err != nil {
		panic(err)
	}
	return realtime.Frame{Type: typ, ID: n.ID, Payload: raw}
}

// Push sends a personal notification frame to userID if connected.
func (h *Hub) Push(userID string, n types.Notification) bool {
	return h.PushFrame(userID, notificationFrame(realtime.TypeNotification, n))
}

// PushFrame sends frame verbatim to userID if connected.
func (h *Hub) PushFrame(userID string, frame realtime.Frame) bool {
	h.mu.RLock()
	cn, ok := h.connections[userID]
	h.mu.RUnlock()
	if !ok {
		return false
	}
	h.send(cn, frame)
	return true
}

// PushGroup sends a group notification to every connection in the room.
func (h *Hub) PushGroup(groupID string, n types.Notification) int {
	frame := notificationFrame(realtime.TypeGroupNotification, n)
	sent := 0
	for _, cn := range h.snapshot() {
		cn.mu.Lock()
		_, in := cn.rooms[groupID]
		cn.mu.Unlock()
		if in {
			h.send(cn, frame)
			sent++
		}
	}
	return sent
}

// Broadcast sends n to every connection.
func (h *Hub) Broadcast(n types.Notification) {
	frame := notificationFrame(realtime.TypeBroadcastNotification, n)
	for _, cn := range h.snapshot() {
		h.send(cn, frame)
	}
}

func (h *Hub) snapshot() []*connection {
	h.mu.RLock()
	defer h.mu.RUnlock()
	out := make([]*connection, 0, len(h.connections))
	for _, cn := range h.connections {
		out = append(out, cn)
	}
	return out
}

// Connected reports whether userID holds an open connection.
func (h *Hub) Connected(userID string) bool {
	h.mu.RLock()
	defer h.mu.RUnlock()
	_, ok := h.connections[userID]
	return ok
}

// Rooms lists the groups userID's connection has joined, sorted.
func (h *Hub) Rooms(userID string) []string {
	h.mu.RLock()
	cn, ok := h.connections[userID]
	h.mu.RUnlock()
	if !ok {
		return nil
	}
	cn.mu.Lock()
	defer cn.mu.Unlock()
	out := make([]string, 0, len(cn.rooms))
	for id := range cn.rooms {
		out = append(out, id)
	}
	sort.Strings(out)
	return out
}

// Drop closes userID's connection abnormally so the client reconnects.
func (h *Hub) Drop(userID string) {
	h.mu.Lock()
	cn, ok := h.connections[userID]
	if ok {
		delete(h.connections, userID)
	}
	h.mu.Unlock()
	if ok {
		h.closeConnection(cn, websocket.StatusGoingAway, "dropped")
	}
}

// Shutdown closes every connection and refuses new ones.
func (h *Hub) Shutdown() {
	h.mu.Lock()
	h.shutdown = true
	conns := make([]*connection, 0, len(h.connections))
	for _, cn := range h.connections {
		conns = append(conns, cn)
	}
	h.connections = make(map[string]*connection)
	h.mu.Unlock()

	for _, cn := range conns {
		h.closeConnection(cn, websocket.StatusGoingAway, "server shutdown")
	}
}
