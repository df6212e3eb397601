package services

import (
	"github.com/google/uuid"

	"github.com/arman-s/GymAppBack/internal/models"
)

// RealtimeNotifier is the push side of the messaging API. The websocket
// gateway implements it; services stay ignorant of the transport.
type RealtimeNotifier interface {
	MessageCreated(conversationID int64, message *models.ChatMessage, trainerID int64, clientID int64)
	MessagesRead(conversationID int64, readerID int64, readerType string, trainerID int64, clientID int64)
	MessageReadReceipt(conversationID int64, messageID uuid.UUID, readBy int64)
	ConversationDeleted(conversationID int64, trainerID int64, clientID int64, reason string)
	ConversationUpdated(trainerID int64, clientID int64)
}

// NopNotifier satisfies RealtimeNotifier for callers that have no live
// gateway, such as tests.
type NopNotifier struct{}

func (NopNotifier) MessageCreated(int64, *models.ChatMessage, int64, int64) {}
func (NopNotifier) MessagesRead(int64, int64, string, int64, int64)         {}
func (NopNotifier) MessageReadReceipt(int64, uuid.UUID, int64)              {}
func (NopNotifier) ConversationDeleted(int64, int64, int64, string)         {}
func (NopNotifier) ConversationUpdated(int64, int64)                        {}
