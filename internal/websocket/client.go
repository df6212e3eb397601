package chatws

import (
	"context"
	"encoding/json"
	"strconv"
	"time"

	websocket "github.com/gofiber/contrib/websocket"
	"github.com/google/uuid"

	"github.com/arman-s/GymAppBack/internal/models"
	"github.com/arman-s/GymAppBack/pkg/utils"
)

type nameResolver interface {
	GetByID(ctx context.Context, id int64) (*models.User, error)
}

type readMarker interface {
	MarkMessageRead(ctx context.Context, messageID uuid.UUID, readerType string) (bool, error)
}

type conversationGuard interface {
	GetByIDForParticipant(ctx context.Context, conversationID int64, participantID int64) (*models.Conversation, error)
}

// Gateway owns the realtime channel: it upgrades connections, runs the
// per-connection authenticate state machine and keeps the presence
// registry in step with session lifecycles.
type Gateway struct {
	hub           *Hub
	registry      *Registry
	jwtSecret     string
	users         nameResolver
	messages      readMarker
	conversations conversationGuard
}

func NewGateway(
	hub *Hub,
	registry *Registry,
	jwtSecret string,
	users nameResolver,
	messages readMarker,
	conversations conversationGuard,
) *Gateway {
	return &Gateway{
		hub:           hub,
		registry:      registry,
		jwtSecret:     jwtSecret,
		users:         users,
		messages:      messages,
		conversations: conversations,
	}
}

// Client is one live connection. A connection starts without an
// identity and gains one through the authenticate event; all identity
// fields are written from the read loop only.
type Client struct {
	hub           *Hub
	conn          *websocket.Conn
	send          chan []byte
	sessionID     string
	userID        int64
	userType      string
	name          string
	authenticated bool
}

func newClient(hub *Hub, conn *websocket.Conn) *Client {
	return &Client{
		hub:       hub,
		conn:      conn,
		send:      make(chan []byte, 32),
		sessionID: uuid.NewString(),
	}
}

// HandleConnection runs a connection to completion. Blocks until the
// transport closes.
func (g *Gateway) HandleConnection(conn *websocket.Conn) {
	client := newClient(g.hub, conn)
	g.hub.Register(client)

	// Pong replies to the keepalive ping extend the read deadline and
	// refresh the persisted last_seen. A peer that stops answering is
	// torn down by the deadline instead of lingering online.
	_ = conn.SetReadDeadline(time.Now().Add(pongWait))
	conn.SetPongHandler(func(string) error {
		_ = conn.SetReadDeadline(time.Now().Add(pongWait))
		g.registry.Refresh(context.Background(), client.sessionID)
		return nil
	})

	go client.writePump()
	g.readPump(client)
}

func (g *Gateway) readPump(client *Client) {
	defer g.disconnect(client)

	for {
		_, payload, err := client.conn.ReadMessage()
		if err != nil {
			return
		}

		var envelope Envelope
		if err := json.Unmarshal(payload, &envelope); err != nil {
			client.sendEvent(EventAuthenticationError, AuthErrorPayload{Error: "invalid event payload"})
			continue
		}

		if !client.authenticated {
			if envelope.Event != EventAuthenticate {
				client.sendEvent(EventAuthenticationError, AuthErrorPayload{Error: "not authenticated"})
				continue
			}
			g.authenticate(client, envelope.Data)
			continue
		}

		switch envelope.Event {
		case EventAuthenticate:
			// Re-authentication keeps the existing session binding.
			client.sendEvent(EventAuthenticated, AuthenticatedPayload{Success: true})
		case EventJoinConversation:
			if conversationID, ok := decodeConversationID(envelope.Data); ok {
				g.joinConversation(client, conversationID)
			}
		case EventLeaveConversation:
			if conversationID, ok := decodeConversationID(envelope.Data); ok {
				g.hub.LeaveConversation(conversationID, client)
			}
		case EventTypingStart:
			g.relayTyping(client, envelope.Data, true)
		case EventTypingStop:
			g.relayTyping(client, envelope.Data, false)
		case EventMessageRead:
			g.markRead(client, envelope.Data)
		}
	}
}

// authenticate verifies the token with the same validator the REST layer
// uses, binds the session and announces the presence change. A failed
// attempt leaves the connection open and unauthenticated.
func (g *Gateway) authenticate(client *Client, data json.RawMessage) {
	var token string
	if err := json.Unmarshal(data, &token); err != nil || token == "" {
		client.sendEvent(EventAuthenticationError, AuthErrorPayload{Error: "missing token"})
		return
	}

	claims, err := utils.ValidateToken(token, g.jwtSecret)
	if err != nil {
		client.sendEvent(EventAuthenticationError, AuthErrorPayload{Error: "invalid or expired token"})
		return
	}

	userID, err := strconv.ParseInt(claims.UserID, 10, 64)
	if err != nil {
		client.sendEvent(EventAuthenticationError, AuthErrorPayload{Error: "invalid token subject"})
		return
	}
	if _, ok := models.StorageSenderType(claims.Role); !ok {
		client.sendEvent(EventAuthenticationError, AuthErrorPayload{Error: "invalid role"})
		return
	}

	ctx := context.Background()
	user, err := g.users.GetByID(ctx, userID)
	if err != nil {
		client.sendEvent(EventAuthenticationError, AuthErrorPayload{Error: "unknown user"})
		return
	}

	client.userID = userID
	client.userType = claims.Role
	client.name = user.DisplayName()
	client.authenticated = true

	g.registry.MarkOnline(ctx, userID, claims.Role, client.name, client.sessionID)
	g.hub.Bind(client)

	client.sendEvent(EventAuthenticated, AuthenticatedPayload{Success: true})
	g.hub.BroadcastStatusChange(client, userID, claims.Role, true)
}

// disconnect tears the session down. The persisted presence record goes
// offline before the status broadcast so no listener observes a stale
// online flag.
func (g *Gateway) disconnect(client *Client) {
	g.hub.Unregister(client)
	_ = client.conn.Close()

	if !client.authenticated {
		return
	}

	userID, userType, last := g.registry.Remove(client.sessionID)
	if !last {
		return
	}

	if !g.registry.MarkOffline(context.Background(), userID, userType) {
		return
	}
	g.hub.BroadcastStatusChange(client, userID, userType, false)
}

// joinConversation admits a session to a room only when the identity is
// a participant of that conversation. Read receipts and typing traffic
// stay between the two parties.
func (g *Gateway) joinConversation(client *Client, conversationID int64) {
	if _, err := g.conversations.GetByIDForParticipant(context.Background(), conversationID, client.userID); err != nil {
		return
	}
	g.hub.JoinConversation(conversationID, client)
}

func (g *Gateway) relayTyping(client *Client, data json.RawMessage, typing bool) {
	var payload TypingPayload
	if err := json.Unmarshal(data, &payload); err != nil || payload.ConversationID <= 0 {
		return
	}

	g.hub.SendToConversation(payload.ConversationID, client, EventUserTyping, UserTypingPayload{
		UserID:   client.userID,
		UserName: client.name,
		Typing:   typing,
	})
}

func (g *Gateway) markRead(client *Client, data json.RawMessage) {
	var payload MessageReadPayload
	if err := json.Unmarshal(data, &payload); err != nil || payload.ConversationID <= 0 {
		return
	}
	if _, err := g.conversations.GetByIDForParticipant(context.Background(), payload.ConversationID, client.userID); err != nil {
		return
	}

	readerType, _ := models.StorageSenderType(client.userType)
	marked, err := g.messages.MarkMessageRead(context.Background(), payload.MessageID, readerType)
	if err != nil || !marked {
		return
	}

	g.hub.SendToConversation(payload.ConversationID, nil, EventMessageReadReceipt, MessageReadReceiptPayload{
		MessageID: payload.MessageID,
		ReadBy:    client.userID,
	})
}

const (
	pingInterval = 25 * time.Second
	pongWait     = 60 * time.Second
)

func (c *Client) writePump() {
	ticker := time.NewTicker(pingInterval)
	defer func() {
		ticker.Stop()
		_ = c.conn.Close()
	}()

	for {
		select {
		case payload, ok := <-c.send:
			if !ok {
				return
			}
			if err := c.conn.WriteMessage(websocket.TextMessage, payload); err != nil {
				return
			}
		case <-ticker.C:
			if err := c.conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		}
	}
}

// sendEvent queues an event on this connection only, dropping it if the
// client cannot keep up or has already been removed from the hub.
func (c *Client) sendEvent(event string, data any) {
	payload, err := encodeEvent(event, data)
	if err != nil {
		return
	}
	c.hub.sendTo(c, payload)
}

func decodeConversationID(data json.RawMessage) (int64, bool) {
	var conversationID int64
	if err := json.Unmarshal(data, &conversationID); err != nil || conversationID <= 0 {
		return 0, false
	}
	return conversationID, true
}
