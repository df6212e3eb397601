package services

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/arman-s/GymAppBack/internal/models"
	"github.com/arman-s/GymAppBack/internal/repository"
)

type membershipStatusReader interface {
	GetStatusByMemberID(ctx context.Context, memberID int64) (string, error)
}

// Eligibility is the answer to "may this member use messaging right now".
type Eligibility struct {
	CanMessage bool
	Status     string
	Reason     string
}

// DeletedConversation describes one conversation removed by a sweep,
// with enough detail for the caller to notify both live parties.
type DeletedConversation struct {
	ConversationID int64
	TrainerID      int64
	ClientID       int64
	Status         string
	Reason         string
}

// PolicyService enforces the membership gate in front of every messaging
// operation and owns the purge of conversations whose client side lost
// its billing standing.
type PolicyService struct {
	db               *pgxpool.Pool
	conversationRepo *repository.ConversationRepository
	membershipRepo   membershipStatusReader
}

func NewPolicyService(
	db *pgxpool.Pool,
	conversationRepo *repository.ConversationRepository,
	membershipRepo membershipStatusReader,
) *PolicyService {
	return &PolicyService{
		db:               db,
		conversationRepo: conversationRepo,
		membershipRepo:   membershipRepo,
	}
}

func (s *PolicyService) CheckMessagingEligibility(ctx context.Context, memberID int64) (Eligibility, error) {
	status, err := s.membershipRepo.GetStatusByMemberID(ctx, memberID)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return Eligibility{Status: "Unknown", Reason: "no membership on file"}, nil
		}
		return Eligibility{}, err
	}

	if models.StatusBlocksMessaging(status) {
		return Eligibility{
			Status: status,
			Reason: fmt.Sprintf("membership is %s", status),
		}, nil
	}

	return Eligibility{CanMessage: true, Status: status}, nil
}

// SweepInactive deletes every conversation whose client fails the
// eligibility check, optionally scoped to one member or one trainer
// (zero means any). Each conversation is removed in its own transaction
// so a failure mid-sweep leaves earlier deletions intact.
func (s *PolicyService) SweepInactive(
	ctx context.Context,
	memberID int64,
	trainerID int64,
) ([]DeletedConversation, error) {
	found, err := s.conversationRepo.ListIneligible(ctx, memberID, trainerID)
	if err != nil {
		return nil, err
	}

	deleted := make([]DeletedConversation, 0, len(found))
	for _, item := range found {
		tx, err := s.db.Begin(ctx)
		if err != nil {
			return deleted, err
		}

		txConversationRepo := repository.NewConversationRepository(tx)
		if err := txConversationRepo.Delete(ctx, item.ConversationID); err != nil {
			_ = tx.Rollback(ctx)
			return deleted, err
		}
		if err := tx.Commit(ctx); err != nil {
			return deleted, err
		}

		deleted = append(deleted, DeletedConversation{
			ConversationID: item.ConversationID,
			TrainerID:      item.TrainerID,
			ClientID:       item.ClientID,
			Status:         item.Status,
			Reason:         fmt.Sprintf("Membership is %s", item.Status),
		})
	}

	return deleted, nil
}
