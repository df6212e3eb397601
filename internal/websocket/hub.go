package chatws

import (
	"log"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/arman-s/GymAppBack/internal/models"
	"github.com/arman-s/GymAppBack/internal/services"
)

// Hub fans events out to live sessions. Its two addressing modes are
// "all of a user's sessions" and "all sessions joined to a conversation
// room"; the only global broadcast is the presence change.
type Hub struct {
	mu       sync.Mutex
	sessions map[*Client]struct{}
	users    map[int64]map[*Client]struct{}
	rooms    map[int64]map[*Client]struct{}
}

func NewHub() *Hub {
	return &Hub{
		sessions: make(map[*Client]struct{}),
		users:    make(map[int64]map[*Client]struct{}),
		rooms:    make(map[int64]map[*Client]struct{}),
	}
}

// Register tracks a freshly upgraded connection before it has an
// identity, so presence broadcasts reach it.
func (h *Hub) Register(client *Client) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.sessions[client] = struct{}{}
}

// Bind joins an authenticated connection to its user group.
func (h *Hub) Bind(client *Client) {
	h.mu.Lock()
	defer h.mu.Unlock()

	set, ok := h.users[client.userID]
	if !ok {
		set = make(map[*Client]struct{})
		h.users[client.userID] = set
	}
	set[client] = struct{}{}
}

func (h *Hub) Unregister(client *Client) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.removeLocked(client)
}

func (h *Hub) JoinConversation(conversationID int64, client *Client) {
	h.mu.Lock()
	defer h.mu.Unlock()

	room, ok := h.rooms[conversationID]
	if !ok {
		room = make(map[*Client]struct{})
		h.rooms[conversationID] = room
	}
	room[client] = struct{}{}
}

func (h *Hub) LeaveConversation(conversationID int64, client *Client) {
	h.mu.Lock()
	defer h.mu.Unlock()

	room, ok := h.rooms[conversationID]
	if !ok {
		return
	}
	delete(room, client)
	if len(room) == 0 {
		delete(h.rooms, conversationID)
	}
}

func (h *Hub) SendToUser(userID int64, event string, data any) {
	payload, err := encodeEvent(event, data)
	if err != nil {
		log.Printf("chat hub encode %s: %v", event, err)
		return
	}

	h.mu.Lock()
	defer h.mu.Unlock()
	h.sendToUserLocked(userID, payload)
}

func (h *Hub) SendToConversation(conversationID int64, except *Client, event string, data any) {
	payload, err := encodeEvent(event, data)
	if err != nil {
		log.Printf("chat hub encode %s: %v", event, err)
		return
	}

	h.mu.Lock()
	defer h.mu.Unlock()

	for client := range h.rooms[conversationID] {
		if client == except {
			continue
		}
		h.sendLocked(client, payload)
	}
}

func (h *Hub) BroadcastAll(except *Client, event string, data any) {
	payload, err := encodeEvent(event, data)
	if err != nil {
		log.Printf("chat hub encode %s: %v", event, err)
		return
	}

	h.mu.Lock()
	defer h.mu.Unlock()

	for client := range h.sessions {
		if client == except {
			continue
		}
		h.sendLocked(client, payload)
	}
}

// MessageCreated implements services.RealtimeNotifier. Each side's
// sessions receive the push with the *other* party's id as clientId.
func (h *Hub) MessageCreated(conversationID int64, message *models.ChatMessage, trainerID int64, clientID int64) {
	h.SendToUser(trainerID, EventNewMessage, NewMessagePayload{
		ConversationID: conversationID,
		Message:        message,
		ClientID:       clientID,
	})
	h.SendToUser(clientID, EventNewMessage, NewMessagePayload{
		ConversationID: conversationID,
		Message:        message,
		ClientID:       trainerID,
	})
}

func (h *Hub) MessagesRead(conversationID int64, readerID int64, readerType string, trainerID int64, clientID int64) {
	payload := MessagesReadPayload{
		ConversationID: conversationID,
		ReadBy:         readerType,
		UserID:         readerID,
	}
	h.SendToUser(trainerID, EventMessagesRead, payload)
	h.SendToUser(clientID, EventMessagesRead, payload)
}

func (h *Hub) MessageReadReceipt(conversationID int64, messageID uuid.UUID, readBy int64) {
	h.SendToConversation(conversationID, nil, EventMessageReadReceipt, MessageReadReceiptPayload{
		MessageID: messageID,
		ReadBy:    readBy,
	})
}

// ConversationDeleted tells each side which counterpart the dead
// conversation belonged to, never echoing a party's own id back.
func (h *Hub) ConversationDeleted(conversationID int64, trainerID int64, clientID int64, reason string) {
	h.SendToUser(trainerID, EventConversationDeleted, ConversationDeletedPayload{
		ConversationID: conversationID,
		ClientID:       clientID,
		Reason:         reason,
	})
	h.SendToUser(clientID, EventConversationDeleted, ConversationDeletedPayload{
		ConversationID: conversationID,
		TrainerID:      trainerID,
		Reason:         reason,
	})
}

func (h *Hub) ConversationUpdated(trainerID int64, clientID int64) {
	h.SendToUser(trainerID, EventConversationUpdate, nil)
	h.SendToUser(clientID, EventConversationUpdate, nil)
}

func (h *Hub) BroadcastStatusChange(except *Client, userID int64, userType string, isOnline bool) {
	h.BroadcastAll(except, EventUserStatusChanged, UserStatusChangedPayload{
		UserID:    userID,
		UserType:  userType,
		IsOnline:  isOnline,
		Timestamp: services.FormatChatTimestamp(time.Now()),
	})
}

// sendTo queues a payload on one session if the hub still tracks it.
// All writes to a client's send channel go through the hub mutex; the
// channel is closed under the same mutex, so a session dropped by a
// concurrent fan-out is skipped here instead of hitting a closed
// channel.
func (h *Hub) sendTo(client *Client, payload []byte) {
	h.mu.Lock()
	defer h.mu.Unlock()

	if _, ok := h.sessions[client]; !ok {
		return
	}
	h.sendLocked(client, payload)
}

func (h *Hub) sendToUserLocked(userID int64, payload []byte) {
	for client := range h.users[userID] {
		h.sendLocked(client, payload)
	}
}

// sendLocked never blocks: a session that cannot drain its buffer is
// dropped rather than stalling fan-out for everyone else.
func (h *Hub) sendLocked(client *Client, payload []byte) {
	select {
	case client.send <- payload:
	default:
		h.removeLocked(client)
	}
}

// removeLocked detaches a client from every map and closes its send
// channel exactly once.
func (h *Hub) removeLocked(client *Client) {
	if _, ok := h.sessions[client]; !ok {
		return
	}
	delete(h.sessions, client)

	if set, ok := h.users[client.userID]; ok {
		delete(set, client)
		if len(set) == 0 {
			delete(h.users, client.userID)
		}
	}
	for conversationID, room := range h.rooms {
		delete(room, client)
		if len(room) == 0 {
			delete(h.rooms, conversationID)
		}
	}

	close(client.send)
}
