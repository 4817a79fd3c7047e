package handlers

import (
	"log"
	"time"

	"github.com/gofiber/fiber/v2"

	"noxy/internal/agent"
	"noxy/internal/logging"
	"noxy/internal/models"
	"noxy/internal/services"
)

// ChatHandler handles the conversational endpoints
type ChatHandler struct {
	conversations *services.ConversationService
	onboarding    *services.OnboardingClient
	router        *agent.Router
	metrics       *services.Metrics
}

// NewChatHandler creates a new chat handler
func NewChatHandler(conversations *services.ConversationService, onboarding *services.OnboardingClient, router *agent.Router, metrics *services.Metrics) *ChatHandler {
	return &ChatHandler{
		conversations: conversations,
		onboarding:    onboarding,
		router:        router,
		metrics:       metrics,
	}
}

// Chat runs one message through the assistant pipeline
// POST /chat
func (h *ChatHandler) Chat(c *fiber.Ctx) error {
	started := time.Now()

	var req models.ChatRequest
	if err := c.BodyParser(&req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": "Invalid request body",
		})
	}

	if req.Username == "" && req.UserID == "" {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": "Either 'username' or 'userId' must be provided",
		})
	}
	if req.Message == "" {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": "Message must not be empty",
		})
	}

	if h.metrics != nil {
		h.metrics.ChatRequests.Inc()
		defer func() {
			h.metrics.ChatRequestLatency.Observe(time.Since(started).Seconds())
		}()
	}

	ctx := c.Context()

	user, err := h.conversations.FindUser(ctx, req.UserID, req.Username)
	if err != nil {
		log.Printf("❌ [CHAT] User lookup failed: %v", err)
		h.countError("user_lookup")
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"error": "Failed to look up user",
		})
	}
	if user == nil {
		return c.Status(fiber.StatusNotFound).JSON(fiber.Map{
			"error": "User not found",
		})
	}

	convo, err := h.conversations.LatestOrCreateConversation(ctx, user.UserID)
	if err != nil {
		log.Printf("❌ [CHAT] Conversation lookup failed: %v", err)
		h.countError("conversation")
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"error": "Failed to open conversation",
		})
	}

	history, err := h.conversations.History(ctx, convo)
	if err != nil {
		log.Printf("⚠️  [CHAT] History load failed, continuing without it: %v", err)
		history = nil
	}

	if err := h.conversations.AppendMessage(ctx, convo, services.SenderUser, req.Message); err != nil {
		log.Printf("⚠️  [CHAT] Failed to persist user message: %v", err)
	}

	reply := h.router.Respond(ctx, req.Message, user.UserID, services.HistoryAsTurns(history))

	if err := h.conversations.AppendMessage(ctx, convo, services.SenderAssistant, reply); err != nil {
		log.Printf("⚠️  [CHAT] Failed to persist assistant message: %v", err)
	}

	logging.WithConversation(convo.ID.Hex(), user.UserID).Info("chat turn completed",
		"latency_ms", time.Since(started).Milliseconds())

	return c.JSON(fiber.Map{
		"User": req.Message,
		"Noxy": reply,
	})
}

// History returns the full message history of a user's latest conversation
// GET /history/:username
func (h *ChatHandler) History(c *fiber.Ctx) error {
	username := c.Params("username")
	if username == "" {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": "Username is required",
		})
	}

	ctx := c.Context()

	user, err := h.conversations.FindUser(ctx, "", username)
	if err != nil {
		log.Printf("❌ [HISTORY] User lookup failed: %v", err)
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"error": "Failed to look up user",
		})
	}
	if user == nil {
		return c.Status(fiber.StatusNotFound).JSON(fiber.Map{
			"error": "User not found",
		})
	}

	convo, err := h.conversations.LatestOrCreateConversation(ctx, user.UserID)
	if err != nil {
		log.Printf("❌ [HISTORY] Conversation lookup failed: %v", err)
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"error": "Failed to open conversation",
		})
	}

	history, err := h.conversations.History(ctx, convo)
	if err != nil {
		log.Printf("❌ [HISTORY] History load failed: %v", err)
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"error": "Failed to load history",
		})
	}

	entries := make([]models.HistoryEntry, 0, len(history))
	for _, msg := range history {
		entries = append(entries, models.HistoryEntry{Sender: msg.Sender, Message: msg.Message})
	}

	return c.JSON(fiber.Map{
		"username": username,
		"history":  entries,
	})
}

// TaskProgress proxies the onboarding backend's task records for a user
// GET /user-task-progress/:user_id
func (h *ChatHandler) TaskProgress(c *fiber.Ctx) error {
	userID := c.Params("user_id")
	if userID == "" {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": "User ID is required",
		})
	}

	tasks := h.onboarding.FetchTasks(c.Context(), userID)
	if tasks == nil {
		tasks = []models.TaskRecord{}
	}

	return c.JSON(tasks)
}

func (h *ChatHandler) countError(errorType string) {
	if h.metrics != nil {
		h.metrics.ChatErrors.WithLabelValues(errorType).Inc()
	}
}
