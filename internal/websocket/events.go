package chatws

import (
	"encoding/json"

	"github.com/google/uuid"

	"github.com/arman-s/GymAppBack/internal/models"
)

// Wire event names. The set and payload shapes are shared with the
// mobile clients; changing either breaks deployed apps.
const (
	EventAuthenticate        = "authenticate"
	EventAuthenticated       = "authenticated"
	EventAuthenticationError = "authentication_error"
	EventJoinConversation    = "join_conversation"
	EventLeaveConversation   = "leave_conversation"
	EventTypingStart         = "typing_start"
	EventTypingStop          = "typing_stop"
	EventUserTyping          = "user_typing"
	EventMessageRead         = "message_read"
	EventMessageReadReceipt  = "message_read_receipt"
	EventNewMessage          = "new_message"
	EventConversationUpdate  = "conversation_update"
	EventConversationDeleted = "conversation_deleted"
	EventMessagesRead        = "messages_read"
	EventUserStatusChanged   = "user_status_changed"
)

type Envelope struct {
	Event string          `json:"event"`
	Data  json.RawMessage `json:"data,omitempty"`
}

type AuthenticatedPayload struct {
	Success bool `json:"success"`
}

type AuthErrorPayload struct {
	Error string `json:"error"`
}

type TypingPayload struct {
	ConversationID int64 `json:"conversationId"`
}

type UserTypingPayload struct {
	UserID   int64  `json:"userId"`
	UserName string `json:"userName"`
	Typing   bool   `json:"typing"`
}

type MessageReadPayload struct {
	MessageID      uuid.UUID `json:"messageId"`
	ConversationID int64     `json:"conversationId"`
}

type MessageReadReceiptPayload struct {
	MessageID uuid.UUID `json:"messageId"`
	ReadBy    int64     `json:"readBy"`
}

// NewMessagePayload carries the other party's id as clientId so the
// receiver can route the push to the right open thread regardless of
// its own role.
type NewMessagePayload struct {
	ConversationID int64               `json:"conversationId"`
	Message        *models.ChatMessage `json:"message"`
	ClientID       int64               `json:"clientId"`
}

type ConversationDeletedPayload struct {
	ConversationID int64  `json:"conversationId"`
	ClientID       int64  `json:"clientId,omitempty"`
	TrainerID      int64  `json:"trainerId,omitempty"`
	Reason         string `json:"reason"`
}

type MessagesReadPayload struct {
	ConversationID int64  `json:"conversationId"`
	ReadBy         string `json:"readBy"`
	UserID         int64  `json:"userId"`
}

type UserStatusChangedPayload struct {
	UserID    int64  `json:"userId"`
	UserType  string `json:"userType"`
	IsOnline  bool   `json:"isOnline"`
	Timestamp string `json:"timestamp"`
}

func encodeEvent(event string, data any) ([]byte, error) {
	envelope := Envelope{Event: event}
	if data != nil {
		raw, err := json.Marshal(data)
		if err != nil {
			return nil, err
		}
		envelope.Data = raw
	}
	return json.Marshal(envelope)
}
