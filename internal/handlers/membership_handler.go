package handlers

import (
	"errors"

	"github.com/gofiber/fiber/v2"
	"github.com/jackc/pgx/v5"

	"github.com/arman-s/GymAppBack/internal/models"
	"github.com/arman-s/GymAppBack/internal/repository"
)

type MembershipHandler struct {
	membershipRepo *repository.MembershipRepository
}

func NewMembershipHandler(membershipRepo *repository.MembershipRepository) *MembershipHandler {
	return &MembershipHandler{membershipRepo: membershipRepo}
}

// GetOwn returns the caller's membership. This is the self-diagnostic
// surface behind the access-denied reason: a member can always see
// their own billing status even when messaging is revoked.
func (h *MembershipHandler) GetOwn(c *fiber.Ctx) error {
	role, ok := c.Locals("role").(string)
	if !ok || role != models.RoleMember {
		return c.Status(fiber.StatusForbidden).JSON(fiber.Map{"error": "Forbidden"})
	}

	memberID, err := parseActorID(c)
	if err != nil {
		return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{"error": "Invalid token"})
	}

	membership, err := h.membershipRepo.GetByMemberID(c.Context(), memberID)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return c.Status(fiber.StatusNotFound).JSON(fiber.Map{"error": "Membership not found"})
		}
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "Failed to fetch membership"})
	}

	return c.JSON(fiber.Map{
		"membership":  membership,
		"can_message": !models.StatusBlocksMessaging(membership.Status),
	})
}
