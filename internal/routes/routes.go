package routes

import (
	websocket "github.com/gofiber/contrib/websocket"
	"github.com/gofiber/fiber/v2"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/arman-s/GymAppBack/internal/config"
	"github.com/arman-s/GymAppBack/internal/handlers"
	"github.com/arman-s/GymAppBack/internal/middleware"
	"github.com/arman-s/GymAppBack/internal/repository"
	"github.com/arman-s/GymAppBack/internal/services"
	chatws "github.com/arman-s/GymAppBack/internal/websocket"
)

// RegisterRoutes wires repositories, services, the realtime gateway and
// the HTTP surface. The chat service is returned so the caller can hook
// it to the maintenance schedule.
func RegisterRoutes(app *fiber.App, cfg *config.Config, db *pgxpool.Pool) *services.ChatService {
	userRepo := repository.NewUserRepository(db)
	membershipRepo := repository.NewMembershipRepository(db)
	conversationRepo := repository.NewConversationRepository(db)
	messageRepo := repository.NewMessageRepository(db)
	presenceRepo := repository.NewPresenceRepository(db)

	hub := chatws.NewHub()
	registry := chatws.NewRegistry(presenceRepo)
	gateway := chatws.NewGateway(hub, registry, cfg.JWTSecret, userRepo, messageRepo, conversationRepo)

	policyService := services.NewPolicyService(db, conversationRepo, membershipRepo)
	chatService := services.NewChatService(
		db,
		conversationRepo,
		messageRepo,
		userRepo,
		presenceRepo,
		policyService,
		hub,
	)

	authHandler := handlers.NewAuthHandler(db, userRepo, cfg.JWTSecret)
	membershipHandler := handlers.NewMembershipHandler(membershipRepo)
	chatHandler := handlers.NewChatHandler(chatService, gateway)

	api := app.Group("/api")

	auth := api.Group("/auth")
	auth.Post("/register", authHandler.Register)
	auth.Post("/login", authHandler.Login)
	auth.Get("/me", middleware.AuthRequired(cfg.JWTSecret), authHandler.Me)

	authProtected := api.Group("/v1", middleware.AuthRequired(cfg.JWTSecret))

	authProtected.Get("/membership", membershipHandler.GetOwn)

	conversations := authProtected.Group("/conversations")
	conversations.Get("", chatHandler.ListConversations)
	conversations.Get("/:peerId/messages", chatHandler.GetMessages)
	conversations.Get("/:peerId/info", chatHandler.GetPeerInfo)

	chat := authProtected.Group("/chat")
	chat.Post("/messages", chatHandler.SendMessage)
	chat.Post("/messages/read", chatHandler.MarkMessageRead)
	chat.Post("/cleanup", chatHandler.CleanupSweep)

	// The socket upgrades unauthenticated; identity is established by
	// the authenticate event over the channel.
	api.Use("/v1/ws", chatHandler.RequireWebSocketUpgrade)
	api.Get("/v1/ws", websocket.New(chatHandler.HandleWebSocket))

	return chatService
}
