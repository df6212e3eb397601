package services

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/arman-s/GymAppBack/internal/models"
	"github.com/arman-s/GymAppBack/internal/repository"
)

type userReader interface {
	GetByID(ctx context.Context, id int64) (*models.User, error)
}

type presenceReader interface {
	GetByUserID(ctx context.Context, userID int64) (*models.PresenceRecord, error)
}

type eligibilityPolicy interface {
	CheckMessagingEligibility(ctx context.Context, memberID int64) (Eligibility, error)
	SweepInactive(ctx context.Context, memberID int64, trainerID int64) ([]DeletedConversation, error)
}

type ChatService struct {
	db               *pgxpool.Pool
	conversationRepo *repository.ConversationRepository
	messageRepo      *repository.MessageRepository
	userRepo         userReader
	presenceRepo     presenceReader
	policy           eligibilityPolicy
	notifier         RealtimeNotifier
}

// PeerInfo is the header line of a chat screen: who the peer is and a
// presence-derived status string.
type PeerInfo struct {
	ID     int64  `json:"id"`
	Name   string `json:"name"`
	Status string `json:"status"`
}

func NewChatService(
	db *pgxpool.Pool,
	conversationRepo *repository.ConversationRepository,
	messageRepo *repository.MessageRepository,
	userRepo userReader,
	presenceRepo presenceReader,
	policy eligibilityPolicy,
	notifier RealtimeNotifier,
) *ChatService {
	return &ChatService{
		db:               db,
		conversationRepo: conversationRepo,
		messageRepo:      messageRepo,
		userRepo:         userRepo,
		presenceRepo:     presenceRepo,
		policy:           policy,
		notifier:         notifier,
	}
}

// ListConversations answers the conversation-list screen. Before
// querying it runs the eligibility sweep: a trainer's list is purged of
// lapsed clients, and a lapsed member gets an empty list without the
// join query ever running.
func (s *ChatService) ListConversations(
	ctx context.Context,
	actorID int64,
	role string,
) ([]models.ConversationSummary, error) {
	if _, ok := models.StorageSenderType(role); !ok {
		return nil, ErrForbidden
	}

	if role == models.RoleMember {
		eligibility, err := s.policy.CheckMessagingEligibility(ctx, actorID)
		if err != nil {
			return nil, err
		}
		if !eligibility.CanMessage {
			deleted, err := s.policy.SweepInactive(ctx, actorID, 0)
			if err != nil {
				return nil, err
			}
			s.notifySweep(deleted)
			return []models.ConversationSummary{}, nil
		}
	} else {
		deleted, err := s.policy.SweepInactive(ctx, 0, actorID)
		if err != nil {
			return nil, err
		}
		s.notifySweep(deleted)
	}

	return s.conversationRepo.ListSummariesForParticipant(ctx, actorID)
}

// GetMessages returns the full thread with the peer, lazily creating the
// conversation, and marks the peer's messages read. A member whose own
// membership lapsed gets an explicit denial; a trainer asking about a
// lapsed client gets a silent empty thread so the client's billing state
// never leaks across roles.
func (s *ChatService) GetMessages(
	ctx context.Context,
	actorID int64,
	role string,
	peerID int64,
) ([]models.ChatMessage, error) {
	trainerID, clientID, _, err := s.resolvePair(ctx, actorID, role, peerID)
	if err != nil {
		return nil, err
	}

	if role == models.RoleMember {
		eligibility, err := s.policy.CheckMessagingEligibility(ctx, actorID)
		if err != nil {
			return nil, err
		}
		if !eligibility.CanMessage {
			deleted, err := s.policy.SweepInactive(ctx, actorID, 0)
			if err != nil {
				return nil, err
			}
			s.notifySweep(deleted)
			return nil, &AccessDeniedError{Status: eligibility.Status, Reason: eligibility.Reason}
		}
	} else {
		eligibility, err := s.policy.CheckMessagingEligibility(ctx, clientID)
		if err != nil {
			return nil, err
		}
		if !eligibility.CanMessage {
			deleted, err := s.policy.SweepInactive(ctx, clientID, actorID)
			if err != nil {
				return nil, err
			}
			s.notifySweep(deleted)
			return []models.ChatMessage{}, nil
		}
	}

	conversation, err := s.conversationRepo.CreateOrGet(ctx, trainerID, clientID)
	if err != nil {
		return nil, err
	}

	readerType, _ := models.StorageSenderType(role)

	tx, err := s.db.Begin(ctx)
	if err != nil {
		return nil, err
	}
	defer func() {
		_ = tx.Rollback(ctx)
	}()

	txMessageRepo := repository.NewMessageRepository(tx)

	messages, err := txMessageRepo.ListByConversation(ctx, conversation.ID)
	if err != nil {
		return nil, err
	}

	marked, err := txMessageRepo.MarkConversationRead(ctx, conversation.ID, readerType)
	if err != nil {
		return nil, err
	}

	if err := tx.Commit(ctx); err != nil {
		return nil, err
	}

	for i := range messages {
		if messages[i].SenderType != readerType {
			messages[i].IsRead = true
		}
	}

	if marked > 0 {
		s.notifier.MessagesRead(conversation.ID, actorID, readerType, trainerID, clientID)
	}

	return messages, nil
}

// SendMessage validates, gate-checks both sides, persists and fans out.
// The persisted message is returned so the sender's UI can reconcile its
// optimistic echo by id.
func (s *ChatService) SendMessage(
	ctx context.Context,
	actorID int64,
	role string,
	recipientID int64,
	content string,
) (*models.ChatMessage, error) {
	senderType, ok := models.StorageSenderType(role)
	if !ok {
		return nil, ErrForbidden
	}

	trimmed := strings.TrimSpace(content)
	if trimmed == "" {
		return nil, ErrEmptyContent
	}

	sender, err := s.userRepo.GetByID(ctx, actorID)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrForbidden
		}
		return nil, err
	}
	senderName := sender.DisplayName()
	if senderName == "" {
		return nil, ErrInvalidInput
	}

	trainerID, clientID, _, err := s.resolvePair(ctx, actorID, role, recipientID)
	if err != nil {
		return nil, err
	}

	// The client side carries the membership; check it whichever end of
	// the pair is sending.
	eligibility, err := s.policy.CheckMessagingEligibility(ctx, clientID)
	if err != nil {
		return nil, err
	}
	if !eligibility.CanMessage {
		return nil, &AccessDeniedError{Status: eligibility.Status, Reason: eligibility.Reason}
	}

	conversation, err := s.conversationRepo.CreateOrGet(ctx, trainerID, clientID)
	if err != nil {
		return nil, err
	}

	tx, err := s.db.Begin(ctx)
	if err != nil {
		return nil, err
	}
	defer func() {
		_ = tx.Rollback(ctx)
	}()

	txMessageRepo := repository.NewMessageRepository(tx)
	txConversationRepo := repository.NewConversationRepository(tx)

	message, err := txMessageRepo.Create(ctx, repository.CreateMessageInput{
		ConversationID: conversation.ID,
		SenderID:       actorID,
		SenderName:     senderName,
		SenderType:     senderType,
		Content:        trimmed,
	})
	if err != nil {
		return nil, err
	}

	if err := txConversationRepo.Touch(ctx, conversation.ID); err != nil {
		return nil, err
	}

	if err := tx.Commit(ctx); err != nil {
		return nil, err
	}

	s.notifier.MessageCreated(conversation.ID, message, trainerID, clientID)
	s.notifier.ConversationUpdated(trainerID, clientID)

	return message, nil
}

// GetPeerInfo returns the peer's display name and a presence status:
// "Online", "Last seen <ts>" when a record exists, else "Offline".
func (s *ChatService) GetPeerInfo(
	ctx context.Context,
	actorID int64,
	role string,
	peerID int64,
) (*PeerInfo, error) {
	_, _, peer, err := s.resolvePair(ctx, actorID, role, peerID)
	if err != nil {
		return nil, err
	}

	status := "Offline"
	record, err := s.presenceRepo.GetByUserID(ctx, peerID)
	if err != nil && !errors.Is(err, pgx.ErrNoRows) {
		return nil, err
	}
	if record != nil {
		if record.IsOnline {
			status = "Online"
		} else {
			status = "Last seen " + FormatLastSeen(record.LastSeen)
		}
	}

	return &PeerInfo{
		ID:     peer.ID,
		Name:   peer.DisplayName(),
		Status: status,
	}, nil
}

// MarkMessageRead persists a single read flag on behalf of the REST
// mark-read endpoint and relays the receipt to the conversation room.
func (s *ChatService) MarkMessageRead(
	ctx context.Context,
	actorID int64,
	role string,
	conversationID int64,
	messageID uuid.UUID,
) error {
	readerType, ok := models.StorageSenderType(role)
	if !ok {
		return ErrForbidden
	}

	if _, err := s.conversationRepo.GetByIDForParticipant(ctx, conversationID, actorID); err != nil {
		return err
	}

	marked, err := s.messageRepo.MarkMessageRead(ctx, messageID, readerType)
	if err != nil {
		return err
	}
	if marked {
		s.notifier.MessageReadReceipt(conversationID, messageID, actorID)
	}

	return nil
}

// CleanupSweep runs the unscoped maintenance sweep. Invoked from the
// admin endpoint and the cron schedule.
func (s *ChatService) CleanupSweep(ctx context.Context) ([]DeletedConversation, error) {
	deleted, err := s.policy.SweepInactive(ctx, 0, 0)
	if err != nil {
		return nil, err
	}
	s.notifySweep(deleted)
	return deleted, nil
}

func (s *ChatService) notifySweep(deleted []DeletedConversation) {
	for _, d := range deleted {
		s.notifier.ConversationDeleted(d.ConversationID, d.TrainerID, d.ClientID, d.Reason)
		s.notifier.ConversationUpdated(d.TrainerID, d.ClientID)
	}
}

// resolvePair validates that the peer exists and holds the complementary
// role, then orients the pair into its (trainer, client) form.
func (s *ChatService) resolvePair(
	ctx context.Context,
	actorID int64,
	role string,
	peerID int64,
) (int64, int64, *models.User, error) {
	if _, ok := models.StorageSenderType(role); !ok {
		return 0, 0, nil, ErrForbidden
	}
	if peerID <= 0 || peerID == actorID {
		return 0, 0, nil, ErrInvalidInput
	}

	peer, err := s.userRepo.GetByID(ctx, peerID)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return 0, 0, nil, ErrPeerNotFound
		}
		return 0, 0, nil, err
	}

	switch role {
	case models.RoleMember:
		if peer.Role != models.RoleTrainer {
			return 0, 0, nil, ErrInvalidInput
		}
		return peer.ID, actorID, peer, nil
	default:
		if peer.Role != models.RoleMember {
			return 0, 0, nil, ErrInvalidInput
		}
		return actorID, peer.ID, peer, nil
	}
}

func FormatChatTimestamp(ts time.Time) string {
	return ts.UTC().Format(time.RFC3339)
}

func FormatLastSeen(ts time.Time) string {
	return ts.UTC().Format("Jan 2, 2006 3:04 PM")
}
