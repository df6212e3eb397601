package models

import (
	"time"

	"github.com/google/uuid"
)

type Conversation struct {
	ID        int64     `json:"id"`
	TrainerID int64     `json:"trainer_id"`
	ClientID  int64     `json:"client_id"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

type ChatMessage struct {
	ID             uuid.UUID `json:"id"`
	ConversationID int64     `json:"conversation_id"`
	SenderID       int64     `json:"sender_id"`
	SenderName     string    `json:"sender_name"`
	SenderType     string    `json:"sender_type"`
	Content        string    `json:"content"`
	IsRead         bool      `json:"is_read"`
	CreatedAt      time.Time `json:"created_at"`
}

type ConversationSummary struct {
	Conversation
	PeerID      int64        `json:"peer_id"`
	PeerName    string       `json:"peer_name"`
	PeerOnline  bool         `json:"peer_online"`
	LastMessage *ChatMessage `json:"last_message,omitempty"`
	UnreadCount int          `json:"unread_count"`
}
