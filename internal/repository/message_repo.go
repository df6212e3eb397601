package repository

import (
	"context"

	"github.com/google/uuid"

	"github.com/arman-s/GymAppBack/internal/models"
)

type MessageRepository struct {
	db DBTX
}

func NewMessageRepository(db DBTX) *MessageRepository {
	return &MessageRepository{db: db}
}

type CreateMessageInput struct {
	ConversationID int64
	SenderID       int64
	SenderName     string
	SenderType     string
	Content        string
}

// Create persists a message under a fresh UUID with a server-assigned
// timestamp.
func (r *MessageRepository) Create(ctx context.Context, input CreateMessageInput) (*models.ChatMessage, error) {
	query := `
		INSERT INTO messages (id, conversation_id, sender_id, sender_name, sender_type, content, is_read)
		VALUES ($1, $2, $3, $4, $5, $6, FALSE)
		RETURNING id, conversation_id, sender_id, sender_name, sender_type, content, is_read, created_at
	`

	var message models.ChatMessage
	err := r.db.QueryRow(
		ctx,
		query,
		uuid.New(),
		input.ConversationID,
		input.SenderID,
		input.SenderName,
		input.SenderType,
		input.Content,
	).Scan(
		&message.ID,
		&message.ConversationID,
		&message.SenderID,
		&message.SenderName,
		&message.SenderType,
		&message.Content,
		&message.IsRead,
		&message.CreatedAt,
	)
	if err != nil {
		return nil, err
	}

	return &message, nil
}

func (r *MessageRepository) ListByConversation(
	ctx context.Context,
	conversationID int64,
) ([]models.ChatMessage, error) {
	query := `
		SELECT id, conversation_id, sender_id, sender_name, sender_type, content, is_read, created_at
		FROM messages
		WHERE conversation_id = $1
		ORDER BY created_at ASC, id ASC
	`

	rows, err := r.db.Query(ctx, query, conversationID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	messages := make([]models.ChatMessage, 0)
	for rows.Next() {
		var message models.ChatMessage
		if err := rows.Scan(
			&message.ID,
			&message.ConversationID,
			&message.SenderID,
			&message.SenderName,
			&message.SenderType,
			&message.Content,
			&message.IsRead,
			&message.CreatedAt,
		); err != nil {
			return nil, err
		}

		messages = append(messages, message)
	}

	if err := rows.Err(); err != nil {
		return nil, err
	}

	return messages, nil
}

// MarkConversationRead flips every unread message sent by the other
// party. The sender-type predicate keeps the read flag one-way and
// never applies it to the reader's own messages.
func (r *MessageRepository) MarkConversationRead(
	ctx context.Context,
	conversationID int64,
	readerType string,
) (int64, error) {
	tag, err := r.db.Exec(ctx, `
		UPDATE messages
		SET is_read = TRUE
		WHERE conversation_id = $1
		  AND sender_type <> $2
		  AND is_read = FALSE
	`, conversationID, readerType)
	if err != nil {
		return 0, err
	}
	return tag.RowsAffected(), nil
}

func (r *MessageRepository) MarkMessageRead(
	ctx context.Context,
	messageID uuid.UUID,
	readerType string,
) (bool, error) {
	tag, err := r.db.Exec(ctx, `
		UPDATE messages
		SET is_read = TRUE
		WHERE id = $1
		  AND sender_type <> $2
		  AND is_read = FALSE
	`, messageID, readerType)
	if err != nil {
		return false, err
	}
	return tag.RowsAffected() > 0, nil
}
