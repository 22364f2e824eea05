package realtime

import (
	"context"
	"errors"
	"sync"
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.uber.org/zap"

	"github.com/gu-collab/gucollab/internal/models"
	"github.com/gu-collab/gucollab/internal/services"
	"github.com/gu-collab/gucollab/internal/store/chat"
	"github.com/gu-collab/gucollab/internal/store/projects"
)

const handlerTimeout = 10 * time.Second

// Hub owns the authoritative room map. Clients join rooms keyed by project
// id and receive every message broadcast to those rooms. All room membership
// mutations go through the hub; connections never touch the map directly.
type Hub struct {
	mu    sync.RWMutex
	rooms map[string]map[*Client]bool

	projects *projects.Store
	chats    *chat.Store
	notifier *services.Notifier
	log      *zap.Logger
}

// NewHub creates a Hub.
func NewHub(projectStore *projects.Store, chatStore *chat.Store, notifier *services.Notifier, log *zap.Logger) *Hub {
	return &Hub{
		rooms:    make(map[string]map[*Client]bool),
		projects: projectStore,
		chats:    chatStore,
		notifier: notifier,
		log:      log,
	}
}

// join subscribes a client to a room. There is no membership check at join
// time; authorization happens on send. A non-member who joins can therefore
// still receive broadcasts, which mirrors the pre-existing surface.
func (h *Hub) join(c *Client, room string) {
	h.mu.Lock()
	defer h.mu.Unlock()

	if h.rooms[room] == nil {
		h.rooms[room] = make(map[*Client]bool)
	}
	h.rooms[room][c] = true
	c.rooms[room] = true
}

// remove drops a client from every room it joined and prunes empty rooms.
func (h *Hub) remove(c *Client) {
	h.mu.Lock()
	defer h.mu.Unlock()

	for room := range c.rooms {
		if clients, ok := h.rooms[room]; ok {
			delete(clients, c)
			if len(clients) == 0 {
				delete(h.rooms, room)
			}
		}
	}
	c.rooms = make(map[string]bool)
}

// roomSize reports how many clients a room currently holds.
func (h *Hub) roomSize(room string) int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.rooms[room])
}

// broadcast queues payload to every client in the room, the originator
// included. A client whose send buffer is full is dropped rather than
// allowed to stall the rest of the room.
func (h *Hub) broadcast(room string, payload []byte) {
	h.mu.RLock()
	clients := make([]*Client, 0, len(h.rooms[room]))
	for c := range h.rooms[room] {
		clients = append(clients, c)
	}
	h.mu.RUnlock()

	for _, c := range clients {
		c.trySend(payload)
	}
}

// handleSendMessage runs the chat pipeline: validate, authorize, persist,
// fan out notifications, broadcast. Failures surface to the sender as an
// error event; the connection stays up.
func (h *Hub) handleSendMessage(c *Client, p SendMessagePayload) {
	if p.ProjectID == "" || p.Message == "" || p.UserID == "" || p.UserName == "" {
		c.sendError("Missing required fields")
		return
	}

	projectID, err := primitive.ObjectIDFromHex(p.ProjectID)
	if err != nil {
		c.sendError("Project not found")
		return
	}
	userID, err := primitive.ObjectIDFromHex(p.UserID)
	if err != nil {
		c.sendError("Invalid user ID")
		return
	}

	ctx, cancel := context.WithTimeout(context.Background(), handlerTimeout)
	defer cancel()

	project, err := h.projects.FindByID(ctx, projectID)
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			c.sendError("Project not found")
		} else {
			h.log.Error("project lookup failed", zap.String("project_id", p.ProjectID), zap.Error(err))
			c.sendError("Failed to send message")
		}
		return
	}

	if !project.IsMember(userID) {
		c.sendError("Only project members can send messages")
		return
	}

	msg := &models.ChatMessage{
		ProjectID: projectID,
		UserID:    userID,
		UserName:  p.UserName,
		Message:   p.Message,
	}
	if err := h.chats.Insert(ctx, msg); err != nil {
		h.log.Error("chat message insert failed", zap.String("project_id", p.ProjectID), zap.Error(err))
		c.sendError("Failed to send message")
		return
	}

	h.notifier.NewMessage(ctx, project, userID, p.UserName)

	room := RoomKey(p.ProjectID)
	h.broadcast(room, marshalEvent(EventNewMessage, msg))
	// Nudge clients in the room to refresh their notification badges.
	h.broadcast(room, marshalEvent(EventNotification, NotificationPayload{
		Type:      models.NotificationNewMessage,
		ProjectID: p.ProjectID,
	}))
}
