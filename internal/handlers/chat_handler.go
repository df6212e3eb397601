package handlers

import (
	"context"
	"errors"
	"strconv"

	websocket "github.com/gofiber/contrib/websocket"
	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"

	"github.com/arman-s/GymAppBack/internal/models"
	"github.com/arman-s/GymAppBack/internal/services"
	chatws "github.com/arman-s/GymAppBack/internal/websocket"
)

type chatApplicationService interface {
	ListConversations(ctx context.Context, actorID int64, role string) ([]models.ConversationSummary, error)
	GetMessages(ctx context.Context, actorID int64, role string, peerID int64) ([]models.ChatMessage, error)
	SendMessage(ctx context.Context, actorID int64, role string, recipientID int64, content string) (*models.ChatMessage, error)
	GetPeerInfo(ctx context.Context, actorID int64, role string, peerID int64) (*services.PeerInfo, error)
	MarkMessageRead(ctx context.Context, actorID int64, role string, conversationID int64, messageID uuid.UUID) error
	CleanupSweep(ctx context.Context) ([]services.DeletedConversation, error)
}

type ChatHandler struct {
	service chatApplicationService
	gateway *chatws.Gateway
}

type sendMessageRequest struct {
	RecipientID int64  `json:"recipient_id"`
	Content     string `json:"content"`
}

type markReadRequest struct {
	ConversationID int64  `json:"conversation_id"`
	MessageID      string `json:"message_id"`
}

func NewChatHandler(service chatApplicationService, gateway *chatws.Gateway) *ChatHandler {
	return &ChatHandler{
		service: service,
		gateway: gateway,
	}
}

func (h *ChatHandler) ListConversations(c *fiber.Ctx) error {
	actorID, role, ok := chatActor(c)
	if !ok {
		return nil
	}

	conversations, err := h.service.ListConversations(c.Context(), actorID, role)
	if err != nil {
		return mapChatError(c, err)
	}

	return c.JSON(fiber.Map{"conversations": conversations})
}

func (h *ChatHandler) GetMessages(c *fiber.Ctx) error {
	actorID, role, ok := chatActor(c)
	if !ok {
		return nil
	}

	peerID, err := strconv.ParseInt(c.Params("peerId"), 10, 64)
	if err != nil || peerID <= 0 {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "Invalid peer id"})
	}

	messages, err := h.service.GetMessages(c.Context(), actorID, role, peerID)
	if err != nil {
		return mapChatError(c, err)
	}

	return c.JSON(fiber.Map{"messages": messages})
}

func (h *ChatHandler) SendMessage(c *fiber.Ctx) error {
	actorID, role, ok := chatActor(c)
	if !ok {
		return nil
	}

	var req sendMessageRequest
	if err := c.BodyParser(&req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "Invalid request body"})
	}
	if req.RecipientID <= 0 {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "Recipient is required"})
	}

	message, err := h.service.SendMessage(c.Context(), actorID, role, req.RecipientID, req.Content)
	if err != nil {
		return mapChatError(c, err)
	}

	return c.Status(fiber.StatusCreated).JSON(fiber.Map{"message": message})
}

func (h *ChatHandler) GetPeerInfo(c *fiber.Ctx) error {
	actorID, role, ok := chatActor(c)
	if !ok {
		return nil
	}

	peerID, err := strconv.ParseInt(c.Params("peerId"), 10, 64)
	if err != nil || peerID <= 0 {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "Invalid peer id"})
	}

	info, err := h.service.GetPeerInfo(c.Context(), actorID, role, peerID)
	if err != nil {
		return mapChatError(c, err)
	}

	return c.JSON(fiber.Map{"peer": info})
}

func (h *ChatHandler) MarkMessageRead(c *fiber.Ctx) error {
	actorID, role, ok := chatActor(c)
	if !ok {
		return nil
	}

	var req markReadRequest
	if err := c.BodyParser(&req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "Invalid request body"})
	}
	if req.ConversationID <= 0 {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "Invalid conversation id"})
	}
	messageID, err := uuid.Parse(req.MessageID)
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "Invalid message id"})
	}

	if err := h.service.MarkMessageRead(c.Context(), actorID, role, req.ConversationID, messageID); err != nil {
		return mapChatError(c, err)
	}

	return c.JSON(fiber.Map{"success": true})
}

// CleanupSweep runs the unscoped eligibility sweep on demand. Trainer
// only; the cron schedule covers the unattended case.
func (h *ChatHandler) CleanupSweep(c *fiber.Ctx) error {
	_, role, ok := chatActor(c)
	if !ok {
		return nil
	}
	if role != models.RoleTrainer {
		return c.Status(fiber.StatusForbidden).JSON(fiber.Map{"error": "Forbidden"})
	}

	deleted, err := h.service.CleanupSweep(c.Context())
	if err != nil {
		return mapChatError(c, err)
	}

	return c.JSON(fiber.Map{"deleted": len(deleted)})
}

// HandleWebSocket hands the upgraded connection to the gateway. The
// connection authenticates over the socket, not at upgrade time.
func (h *ChatHandler) HandleWebSocket(conn *websocket.Conn) {
	h.gateway.HandleConnection(conn)
}

func (h *ChatHandler) RequireWebSocketUpgrade(c *fiber.Ctx) error {
	if !websocket.IsWebSocketUpgrade(c) {
		return c.Status(fiber.StatusUpgradeRequired).JSON(fiber.Map{"error": "WebSocket upgrade required"})
	}
	return c.Next()
}

// chatActor pulls the authenticated identity out of the request. When
// it returns false the response has already been written.
func chatActor(c *fiber.Ctx) (int64, string, bool) {
	role, ok := c.Locals("role").(string)
	if !ok {
		_ = c.Status(fiber.StatusForbidden).JSON(fiber.Map{"error": "Forbidden"})
		return 0, "", false
	}
	if _, valid := models.StorageSenderType(role); !valid {
		_ = c.Status(fiber.StatusForbidden).JSON(fiber.Map{"error": "Forbidden"})
		return 0, "", false
	}

	actorID, err := parseActorID(c)
	if err != nil {
		_ = c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{"error": "Invalid token"})
		return 0, "", false
	}

	return actorID, role, true
}

func parseActorID(c *fiber.Ctx) (int64, error) {
	userIDValue := c.Locals("user_id")
	userIDStr, ok := userIDValue.(string)
	if !ok {
		return 0, strconv.ErrSyntax
	}
	return strconv.ParseInt(userIDStr, 10, 64)
}

func mapChatError(c *fiber.Ctx, err error) error {
	var denied *services.AccessDeniedError
	switch {
	case errors.As(err, &denied):
		return c.Status(fiber.StatusForbidden).JSON(fiber.Map{
			"error":  "Access denied",
			"status": denied.Status,
			"reason": denied.Reason,
		})
	case errors.Is(err, services.ErrForbidden):
		return c.Status(fiber.StatusForbidden).JSON(fiber.Map{"error": "Forbidden"})
	case errors.Is(err, services.ErrEmptyContent):
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "Message content is required"})
	case errors.Is(err, services.ErrInvalidInput):
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "Invalid request"})
	case errors.Is(err, services.ErrPeerNotFound):
		return c.Status(fiber.StatusNotFound).JSON(fiber.Map{"error": "Peer not found"})
	case errors.Is(err, pgx.ErrNoRows):
		return c.Status(fiber.StatusNotFound).JSON(fiber.Map{"error": "Conversation not found"})
	default:
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "Failed to process chat request"})
	}
}
