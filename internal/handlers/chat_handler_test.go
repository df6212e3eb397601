package handlers

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"

	"github.com/arman-s/GymAppBack/internal/models"
	"github.com/arman-s/GymAppBack/internal/services"
)

type stubChatService struct {
	conversationsResult []models.ConversationSummary
	conversationsErr    error
	messagesResult      []models.ChatMessage
	messagesErr         error
	sendResult          *models.ChatMessage
	sendErr             error
	peerResult          *services.PeerInfo
	peerErr             error
	markReadErr         error
	sweepResult         []services.DeletedConversation
	sweepErr            error
	lastActorID         int64
	lastRole            string
	lastPeerID          int64
	lastRecipientID     int64
	lastContent         string
	lastConversationID  int64
	lastMessageID       uuid.UUID
	sweepCalls          int
}

func (s *stubChatService) ListConversations(_ context.Context, actorID int64, role string) ([]models.ConversationSummary, error) {
	s.lastActorID = actorID
	s.lastRole = role
	return s.conversationsResult, s.conversationsErr
}

func (s *stubChatService) GetMessages(_ context.Context, actorID int64, role string, peerID int64) ([]models.ChatMessage, error) {
	s.lastActorID = actorID
	s.lastRole = role
	s.lastPeerID = peerID
	return s.messagesResult, s.messagesErr
}

func (s *stubChatService) SendMessage(_ context.Context, actorID int64, role string, recipientID int64, content string) (*models.ChatMessage, error) {
	s.lastActorID = actorID
	s.lastRole = role
	s.lastRecipientID = recipientID
	s.lastContent = content
	return s.sendResult, s.sendErr
}

func (s *stubChatService) GetPeerInfo(_ context.Context, actorID int64, role string, peerID int64) (*services.PeerInfo, error) {
	s.lastActorID = actorID
	s.lastRole = role
	s.lastPeerID = peerID
	return s.peerResult, s.peerErr
}

func (s *stubChatService) MarkMessageRead(_ context.Context, actorID int64, role string, conversationID int64, messageID uuid.UUID) error {
	s.lastActorID = actorID
	s.lastRole = role
	s.lastConversationID = conversationID
	s.lastMessageID = messageID
	return s.markReadErr
}

func (s *stubChatService) CleanupSweep(_ context.Context) ([]services.DeletedConversation, error) {
	s.sweepCalls++
	return s.sweepResult, s.sweepErr
}

func chatTestApp(service *stubChatService, role string, userID string) (*fiber.App, *ChatHandler) {
	handler := NewChatHandler(service, nil)
	app := fiber.New()
	app.Use(func(c *fiber.Ctx) error {
		c.Locals("role", role)
		c.Locals("user_id", userID)
		return c.Next()
	})
	return app, handler
}

func TestListConversationsReturnsSummaries(t *testing.T) {
	service := &stubChatService{
		conversationsResult: []models.ConversationSummary{
			{
				Conversation: models.Conversation{ID: 17, TrainerID: 8, ClientID: 42},
				PeerID:       8,
				PeerName:     "Sam Cole",
				PeerOnline:   true,
				LastMessage: &models.ChatMessage{
					ID:             uuid.New(),
					ConversationID: 17,
					SenderID:       8,
					Content:        "See you tomorrow",
					CreatedAt:      time.Date(2026, 3, 1, 9, 0, 0, 0, time.UTC),
				},
				UnreadCount: 2,
			},
		},
	}
	app, handler := chatTestApp(service, models.RoleMember, "42")
	app.Get("/api/v1/conversations", handler.ListConversations)

	req := httptest.NewRequest(http.MethodGet, "/api/v1/conversations", nil)
	resp, err := app.Test(req)
	if err != nil {
		t.Fatalf("app.Test: %v", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		t.Fatalf("expected 200, got %d", resp.StatusCode)
	}
	if service.lastActorID != 42 || service.lastRole != models.RoleMember {
		t.Fatalf("unexpected actor context: %d %q", service.lastActorID, service.lastRole)
	}

	var body struct {
		Conversations []models.ConversationSummary `json:"conversations"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&body); err != nil {
		t.Fatalf("Decode: %v", err)
	}
	if len(body.Conversations) != 1 || body.Conversations[0].UnreadCount != 2 {
		t.Fatalf("unexpected response: %+v", body.Conversations)
	}
	if body.Conversations[0].PeerName != "Sam Cole" {
		t.Fatalf("unexpected peer name: %q", body.Conversations[0].PeerName)
	}
}

func TestSendMessageReturnsCreatedMessage(t *testing.T) {
	service := &stubChatService{
		sendResult: &models.ChatMessage{
			ID:             uuid.New(),
			ConversationID: 17,
			SenderID:       42,
			SenderName:     "Dana Reed",
			SenderType:     models.SenderTypeClient,
			Content:        "Hi coach",
		},
	}
	app, handler := chatTestApp(service, models.RoleMember, "42")
	app.Post("/api/v1/chat/messages", handler.SendMessage)

	req := httptest.NewRequest(http.MethodPost, "/api/v1/chat/messages", strings.NewReader(`{"recipient_id":8,"content":"Hi coach"}`))
	req.Header.Set("Content-Type", "application/json")

	resp, err := app.Test(req)
	if err != nil {
		t.Fatalf("app.Test: %v", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusCreated {
		t.Fatalf("expected 201, got %d", resp.StatusCode)
	}
	if service.lastRecipientID != 8 || service.lastContent != "Hi coach" {
		t.Fatalf("unexpected forwarded request: recipient=%d content=%q", service.lastRecipientID, service.lastContent)
	}
}

func TestSendMessageRejectsEmptyContent(t *testing.T) {
	service := &stubChatService{sendErr: services.ErrEmptyContent}
	app, handler := chatTestApp(service, models.RoleMember, "42")
	app.Post("/api/v1/chat/messages", handler.SendMessage)

	req := httptest.NewRequest(http.MethodPost, "/api/v1/chat/messages", strings.NewReader(`{"recipient_id":8,"content":"  "}`))
	req.Header.Set("Content-Type", "application/json")

	resp, err := app.Test(req)
	if err != nil {
		t.Fatalf("app.Test: %v", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusBadRequest {
		t.Fatalf("expected 400, got %d", resp.StatusCode)
	}
}

func TestSendMessageMapsAccessDenied(t *testing.T) {
	service := &stubChatService{
		sendErr: &services.AccessDeniedError{Status: models.MembershipExpired, Reason: "membership is Expired"},
	}
	app, handler := chatTestApp(service, models.RoleMember, "42")
	app.Post("/api/v1/chat/messages", handler.SendMessage)

	req := httptest.NewRequest(http.MethodPost, "/api/v1/chat/messages", strings.NewReader(`{"recipient_id":8,"content":"Hi"}`))
	req.Header.Set("Content-Type", "application/json")

	resp, err := app.Test(req)
	if err != nil {
		t.Fatalf("app.Test: %v", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusForbidden {
		t.Fatalf("expected 403, got %d", resp.StatusCode)
	}

	var body struct {
		Error  string `json:"error"`
		Status string `json:"status"`
		Reason string `json:"reason"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&body); err != nil {
		t.Fatalf("Decode: %v", err)
	}
	if body.Status != models.MembershipExpired || body.Reason != "membership is Expired" {
		t.Fatalf("unexpected denial body: %+v", body)
	}
}

func TestGetMessagesReturnsNotFoundForUnknownPeer(t *testing.T) {
	service := &stubChatService{messagesErr: services.ErrPeerNotFound}
	app, handler := chatTestApp(service, models.RoleTrainer, "8")
	app.Get("/api/v1/conversations/:peerId/messages", handler.GetMessages)

	req := httptest.NewRequest(http.MethodGet, "/api/v1/conversations/99/messages", nil)
	resp, err := app.Test(req)
	if err != nil {
		t.Fatalf("app.Test: %v", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusNotFound {
		t.Fatalf("expected 404, got %d", resp.StatusCode)
	}
	if service.lastPeerID != 99 {
		t.Fatalf("expected peer id 99, got %d", service.lastPeerID)
	}
}

func TestMarkMessageReadParsesMessageID(t *testing.T) {
	service := &stubChatService{}
	app, handler := chatTestApp(service, models.RoleTrainer, "8")
	app.Post("/api/v1/chat/messages/read", handler.MarkMessageRead)

	messageID := uuid.New()
	body := `{"conversation_id":17,"message_id":"` + messageID.String() + `"}`
	req := httptest.NewRequest(http.MethodPost, "/api/v1/chat/messages/read", strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")

	resp, err := app.Test(req)
	if err != nil {
		t.Fatalf("app.Test: %v", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		t.Fatalf("expected 200, got %d", resp.StatusCode)
	}
	if service.lastConversationID != 17 || service.lastMessageID != messageID {
		t.Fatalf("unexpected forwarded read: conversation=%d message=%s", service.lastConversationID, service.lastMessageID)
	}

	req = httptest.NewRequest(http.MethodPost, "/api/v1/chat/messages/read", strings.NewReader(`{"conversation_id":17,"message_id":"not-a-uuid"}`))
	req.Header.Set("Content-Type", "application/json")

	resp, err = app.Test(req)
	if err != nil {
		t.Fatalf("app.Test: %v", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusBadRequest {
		t.Fatalf("expected 400 for malformed message id, got %d", resp.StatusCode)
	}
}

func TestGetMessagesRejectsMissingConversationAsNotFound(t *testing.T) {
	service := &stubChatService{messagesErr: pgx.ErrNoRows}
	app, handler := chatTestApp(service, models.RoleMember, "42")
	app.Get("/api/v1/conversations/:peerId/messages", handler.GetMessages)

	req := httptest.NewRequest(http.MethodGet, "/api/v1/conversations/8/messages", nil)
	resp, err := app.Test(req)
	if err != nil {
		t.Fatalf("app.Test: %v", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusNotFound {
		t.Fatalf("expected 404, got %d", resp.StatusCode)
	}
}

func TestCleanupSweepIsTrainerOnly(t *testing.T) {
	service := &stubChatService{
		sweepResult: []services.DeletedConversation{{ConversationID: 17, TrainerID: 8, ClientID: 42}},
	}
	app, handler := chatTestApp(service, models.RoleTrainer, "8")
	app.Post("/api/v1/chat/cleanup", handler.CleanupSweep)

	req := httptest.NewRequest(http.MethodPost, "/api/v1/chat/cleanup", nil)
	resp, err := app.Test(req)
	if err != nil {
		t.Fatalf("app.Test: %v", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		t.Fatalf("expected 200, got %d", resp.StatusCode)
	}
	var body struct {
		Deleted int `json:"deleted"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&body); err != nil {
		t.Fatalf("Decode: %v", err)
	}
	if body.Deleted != 1 || service.sweepCalls != 1 {
		t.Fatalf("unexpected sweep result: deleted=%d calls=%d", body.Deleted, service.sweepCalls)
	}

	memberApp, memberHandler := chatTestApp(service, models.RoleMember, "42")
	memberApp.Post("/api/v1/chat/cleanup", memberHandler.CleanupSweep)

	req = httptest.NewRequest(http.MethodPost, "/api/v1/chat/cleanup", nil)
	resp, err = memberApp.Test(req)
	if err != nil {
		t.Fatalf("app.Test: %v", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusForbidden {
		t.Fatalf("expected 403 for member, got %d", resp.StatusCode)
	}
	if service.sweepCalls != 1 {
		t.Fatalf("expected sweep not to run for member, calls=%d", service.sweepCalls)
	}
}

func TestChatActorRejectsUnknownRole(t *testing.T) {
	service := &stubChatService{}
	app, handler := chatTestApp(service, "admin", "1")
	app.Get("/api/v1/conversations", handler.ListConversations)

	req := httptest.NewRequest(http.MethodGet, "/api/v1/conversations", nil)
	resp, err := app.Test(req)
	if err != nil {
		t.Fatalf("app.Test: %v", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusForbidden {
		t.Fatalf("expected 403, got %d", resp.StatusCode)
	}
}
