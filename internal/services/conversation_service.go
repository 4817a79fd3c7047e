package services

import (
	"context"
	"fmt"
	"time"

	cache "github.com/patrickmn/go-cache"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"noxy/internal/database"
	"noxy/internal/models"
)

// SenderUser and SenderAssistant are the two persisted message senders
const (
	SenderUser      = "User"
	SenderAssistant = "Noxy"
)

// ConversationService handles user, conversation and message persistence
// with MongoDB. Recent histories are kept in a TTL cache to cut reads on
// consecutive turns of the same conversation.
type ConversationService struct {
	users         *mongo.Collection
	conversations *mongo.Collection
	messages      *mongo.Collection
	historyCache  *cache.Cache
}

// NewConversationService creates a new conversation service
func NewConversationService(db *database.MongoDB) *ConversationService {
	return &ConversationService{
		users:         db.Collection(database.CollectionUsers),
		conversations: db.Collection(database.CollectionConversations),
		messages:      db.Collection(database.CollectionChatMessages),
		historyCache:  cache.New(30*time.Minute, 10*time.Minute),
	}
}

// FindUser looks a user up by portal user ID first, then by username.
// Returns nil when no user matches.
func (s *ConversationService) FindUser(ctx context.Context, userID, username string) (*models.ApplicationUser, error) {
	var filter bson.M
	switch {
	case userID != "":
		filter = bson.M{"userId": userID}
	case username != "":
		filter = bson.M{"username": username}
	default:
		return nil, fmt.Errorf("either userId or username is required")
	}

	var user models.ApplicationUser
	err := s.users.FindOne(ctx, filter).Decode(&user)
	if err == mongo.ErrNoDocuments {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to look up user: %w", err)
	}

	return &user, nil
}

// LatestOrCreateConversation returns the user's most recent conversation,
// creating one when none exists yet.
func (s *ConversationService) LatestOrCreateConversation(ctx context.Context, userID string) (*models.Conversation, error) {
	var convo models.Conversation
	err := s.conversations.FindOne(
		ctx,
		bson.M{"userId": userID},
		options.FindOne().SetSort(bson.D{{Key: "startedAt", Value: -1}}),
	).Decode(&convo)

	if err == nil {
		return &convo, nil
	}
	if err != mongo.ErrNoDocuments {
		return nil, fmt.Errorf("failed to look up conversation: %w", err)
	}

	convo = models.Conversation{
		UserID:    userID,
		StartedAt: time.Now(),
	}
	result, err := s.conversations.InsertOne(ctx, convo)
	if err != nil {
		return nil, fmt.Errorf("failed to create conversation: %w", err)
	}
	convo.ID = result.InsertedID.(primitive.ObjectID)

	return &convo, nil
}

// AppendMessage persists one turn and invalidates the cached history
func (s *ConversationService) AppendMessage(ctx context.Context, convo *models.Conversation, sender, message string) error {
	msg := models.ChatMessage{
		ConvoID: convo.ID,
		Sender:  sender,
		Message: message,
		SentAt:  time.Now(),
	}

	if _, err := s.messages.InsertOne(ctx, msg); err != nil {
		return fmt.Errorf("failed to append message: %w", err)
	}

	s.historyCache.Delete(convo.ID.Hex())
	return nil
}

// History returns the chronological messages of a conversation
func (s *ConversationService) History(ctx context.Context, convo *models.Conversation) ([]models.ChatMessage, error) {
	key := convo.ID.Hex()
	if cached, found := s.historyCache.Get(key); found {
		return cached.([]models.ChatMessage), nil
	}

	cursor, err := s.messages.Find(
		ctx,
		bson.M{"convoId": convo.ID},
		options.Find().SetSort(bson.D{{Key: "sentAt", Value: 1}}),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to load history: %w", err)
	}
	defer cursor.Close(ctx)

	var history []models.ChatMessage
	if err := cursor.All(ctx, &history); err != nil {
		return nil, fmt.Errorf("failed to decode history: %w", err)
	}

	s.historyCache.Set(key, history, cache.DefaultExpiration)
	return history, nil
}

// HistoryAsTurns converts persisted messages into conversation turns for
// the language model. "User" maps to the user role, everything else to the
// assistant role.
func HistoryAsTurns(history []models.ChatMessage) []models.ConversationTurn {
	turns := make([]models.ConversationTurn, 0, len(history))
	for _, msg := range history {
		role := "assistant"
		if msg.Sender == SenderUser {
			role = "user"
		}
		turns = append(turns, models.ConversationTurn{Role: role, Content: msg.Message})
	}
	return turns
}
