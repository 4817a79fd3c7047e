package models

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// ApplicationUser mirrors the account record shared with the onboarding portal
type ApplicationUser struct {
	ID        primitive.ObjectID `bson:"_id,omitempty" json:"id"`
	UserID    string             `bson:"userId" json:"user_id"` // Portal user ID (GUID string)
	Username  string             `bson:"username" json:"username"`
	CreatedAt time.Time          `bson:"createdAt" json:"created_at"`
}

// Conversation groups the chat messages of one user session
type Conversation struct {
	ID        primitive.ObjectID `bson:"_id,omitempty" json:"id"`
	UserID    string             `bson:"userId" json:"user_id"`
	StartedAt time.Time          `bson:"startedAt" json:"started_at"`
}

// ChatMessage is a single persisted turn. Sender is "User" or "Noxy".
type ChatMessage struct {
	ID      primitive.ObjectID `bson:"_id,omitempty" json:"id"`
	ConvoID primitive.ObjectID `bson:"convoId" json:"convo_id"`
	Sender  string             `bson:"sender" json:"sender"`
	Message string             `bson:"message" json:"message"`
	SentAt  time.Time          `bson:"sentAt" json:"sent_at"`
}

// ConversationTurn is the in-memory shape handed to the language model.
// The ordered slice is chronological; after truncation the system prompt
// is always turn 0.
type ConversationTurn struct {
	Role    string `json:"role"` // "system", "user" or "assistant"
	Content string `json:"content"`
}

// ChatRequest is the body of POST /chat. At least one of Username and
// UserID must be present.
type ChatRequest struct {
	Username string `json:"username"`
	UserID   string `json:"userId"`
	Message  string `json:"message"`
}

// HistoryEntry is one turn in the GET /history response
type HistoryEntry struct {
	Sender  string `json:"sender"`
	Message string `json:"message"`
}

// TaskRecord is owned by the onboarding backend; the assistant only groups
// and formats these, never mutates them.
type TaskRecord struct {
	TaskID          string `json:"taskId"`
	TaskTitle       string `json:"taskTitle"`
	TaskDescription string `json:"taskDescription"`
	Status          string `json:"status"` // pending | in_progress | completed
	UpdatedAt       string `json:"updatedAt"`
}

// FileCandidate is a downloadable onboarding form built fresh from the
// backend blob listing. URL is derived from the blob name and the storage
// account template; it is never fabricated.
type FileCandidate struct {
	Name string `json:"name"`
	URL  string `json:"url"`
}
