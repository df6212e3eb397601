package repository

import (
	"context"
	"database/sql"

	"github.com/google/uuid"

	"github.com/arman-s/GymAppBack/internal/models"
)

type ConversationRepository struct {
	db DBTX
}

func NewConversationRepository(db DBTX) *ConversationRepository {
	return &ConversationRepository{db: db}
}

// CreateOrGet resolves the single conversation for a trainer/client pair,
// creating it when absent. The upsert rides the (trainer_id, client_id)
// unique constraint so concurrent first-contact sends from both ends
// converge on one row instead of duplicating it.
func (r *ConversationRepository) CreateOrGet(
	ctx context.Context,
	trainerID int64,
	clientID int64,
) (*models.Conversation, error) {
	query := `
		INSERT INTO conversations (trainer_id, client_id)
		VALUES ($1, $2)
		ON CONFLICT (trainer_id, client_id)
		DO UPDATE SET updated_at = conversations.updated_at
		RETURNING id, trainer_id, client_id, created_at, updated_at
	`

	var conversation models.Conversation
	err := r.db.QueryRow(ctx, query, trainerID, clientID).Scan(
		&conversation.ID,
		&conversation.TrainerID,
		&conversation.ClientID,
		&conversation.CreatedAt,
		&conversation.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}

	return &conversation, nil
}

func (r *ConversationRepository) GetByID(ctx context.Context, conversationID int64) (*models.Conversation, error) {
	query := `
		SELECT id, trainer_id, client_id, created_at, updated_at
		FROM conversations
		WHERE id = $1
	`

	var conversation models.Conversation
	err := r.db.QueryRow(ctx, query, conversationID).Scan(
		&conversation.ID,
		&conversation.TrainerID,
		&conversation.ClientID,
		&conversation.CreatedAt,
		&conversation.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}

	return &conversation, nil
}

func (r *ConversationRepository) GetByIDForParticipant(
	ctx context.Context,
	conversationID int64,
	participantID int64,
) (*models.Conversation, error) {
	query := `
		SELECT id, trainer_id, client_id, created_at, updated_at
		FROM conversations
		WHERE id = $1 AND (trainer_id = $2 OR client_id = $2)
	`

	var conversation models.Conversation
	err := r.db.QueryRow(ctx, query, conversationID, participantID).Scan(
		&conversation.ID,
		&conversation.TrainerID,
		&conversation.ClientID,
		&conversation.CreatedAt,
		&conversation.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}

	return &conversation, nil
}

// ListSummariesForParticipant returns one summary per conversation the
// participant belongs to: peer identity, last message, unread count and
// the peer's persisted online flag, most recently active first.
func (r *ConversationRepository) ListSummariesForParticipant(
	ctx context.Context,
	participantID int64,
) ([]models.ConversationSummary, error) {
	query := `
		SELECT
			c.id,
			c.trainer_id,
			c.client_id,
			c.created_at,
			c.updated_at,
			peer.id,
			TRIM(peer.first_name || ' ' || peer.last_name),
			COALESCE(p.is_online, FALSE),
			lm.id,
			lm.sender_id,
			lm.sender_name,
			lm.sender_type,
			lm.content,
			lm.is_read,
			lm.created_at,
			COALESCE(uc.unread_count, 0)
		FROM conversations c
		JOIN users peer
			ON peer.id = CASE WHEN c.trainer_id = $1 THEN c.client_id ELSE c.trainer_id END
		LEFT JOIN presence_records p
			ON p.user_id = peer.id
		LEFT JOIN LATERAL (
			SELECT id, sender_id, sender_name, sender_type, content, is_read, created_at
			FROM messages
			WHERE conversation_id = c.id
			ORDER BY created_at DESC, id DESC
			LIMIT 1
		) lm ON TRUE
		LEFT JOIN LATERAL (
			SELECT COUNT(*) AS unread_count
			FROM messages
			WHERE conversation_id = c.id
			  AND sender_id <> $1
			  AND is_read = FALSE
		) uc ON TRUE
		WHERE c.trainer_id = $1 OR c.client_id = $1
		ORDER BY COALESCE(lm.created_at, c.updated_at, c.created_at) DESC, c.id DESC
	`

	rows, err := r.db.Query(ctx, query, participantID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	summaries := make([]models.ConversationSummary, 0)
	for rows.Next() {
		var summary models.ConversationSummary
		var messageID uuid.NullUUID
		var messageSenderID sql.NullInt64
		var messageSenderName sql.NullString
		var messageSenderType sql.NullString
		var messageContent sql.NullString
		var messageIsRead sql.NullBool
		var messageCreatedAt sql.NullTime

		if err := rows.Scan(
			&summary.ID,
			&summary.TrainerID,
			&summary.ClientID,
			&summary.CreatedAt,
			&summary.UpdatedAt,
			&summary.PeerID,
			&summary.PeerName,
			&summary.PeerOnline,
			&messageID,
			&messageSenderID,
			&messageSenderName,
			&messageSenderType,
			&messageContent,
			&messageIsRead,
			&messageCreatedAt,
			&summary.UnreadCount,
		); err != nil {
			return nil, err
		}

		if messageID.Valid {
			summary.LastMessage = &models.ChatMessage{
				ID:             messageID.UUID,
				ConversationID: summary.ID,
				SenderID:       messageSenderID.Int64,
				SenderName:     messageSenderName.String,
				SenderType:     messageSenderType.String,
				Content:        messageContent.String,
				IsRead:         messageIsRead.Bool,
				CreatedAt:      messageCreatedAt.Time,
			}
		}

		summaries = append(summaries, summary)
	}

	if err := rows.Err(); err != nil {
		return nil, err
	}

	return summaries, nil
}

type IneligibleConversation struct {
	ConversationID int64
	TrainerID      int64
	ClientID       int64
	Status         string
}

// ListIneligible finds conversations whose client side holds a billing
// status that revokes messaging. Zero scope values mean "any".
func (r *ConversationRepository) ListIneligible(
	ctx context.Context,
	memberID int64,
	trainerID int64,
) ([]IneligibleConversation, error) {
	query := `
		SELECT c.id, c.trainer_id, c.client_id, m.status
		FROM conversations c
		JOIN memberships m ON m.member_id = c.client_id
		WHERE m.status IN ('Expired', 'Cancelled', 'Freezed')
		  AND ($1 = 0 OR c.client_id = $1)
		  AND ($2 = 0 OR c.trainer_id = $2)
		ORDER BY c.id
	`

	rows, err := r.db.Query(ctx, query, memberID, trainerID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	found := make([]IneligibleConversation, 0)
	for rows.Next() {
		var item IneligibleConversation
		if err := rows.Scan(&item.ConversationID, &item.TrainerID, &item.ClientID, &item.Status); err != nil {
			return nil, err
		}
		found = append(found, item)
	}

	if err := rows.Err(); err != nil {
		return nil, err
	}

	return found, nil
}

// Delete removes a conversation and its messages. Messages go first;
// the FK cascade is not relied on.
func (r *ConversationRepository) Delete(ctx context.Context, conversationID int64) error {
	if _, err := r.db.Exec(ctx, `DELETE FROM messages WHERE conversation_id = $1`, conversationID); err != nil {
		return err
	}
	_, err := r.db.Exec(ctx, `DELETE FROM conversations WHERE id = $1`, conversationID)
	return err
}

func (r *ConversationRepository) Touch(ctx context.Context, conversationID int64) error {
	_, err := r.db.Exec(ctx, `
		UPDATE conversations
		SET updated_at = NOW()
		WHERE id = $1
	`, conversationID)
	return err
}
