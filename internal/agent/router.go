package agent

import (
	"context"
	"log"

	"noxy/internal/models"
	"noxy/internal/services"
)

const hrContactBlock = "HR Email: hr.department@n-pax.com. " +
	"Cebu HR: (032) 123-4567. " +
	"Manila HR: (02) 987-6543. " +
	"Office hours are Monday to Friday, 8AM to 6PM."

const (
	greetingInstruction = "The user greeted you. Reply warmly, brief and friendly, within HR onboarding scope. " +
		"Maximum 3 simple sentences, no em-dash, no line breaks. Vary your phrasing."
	vagueInstruction = "The user asked for help but was unclear. Ask naturally which HR or onboarding topic they mean, " +
		"without naming a specific topic yourself. Keep it short, maximum 3 simple sentences, no em-dash."
)

// Router inspects each message and dispatches it to the resolver for its
// intent, falling through to retrieval plus the general LLM path. It is the
// layer that guarantees no resolver error ever reaches the caller raw.
type Router struct {
	llm       Generator
	retriever *Retriever
	files     *FileResolver
	tasks     *TaskStatusResolver
	composer  *Composer
	metrics   *services.Metrics
}

// NewRouter wires the resolvers behind the intent classifier
func NewRouter(llm Generator, retriever *Retriever, files *FileResolver, tasks *TaskStatusResolver, composer *Composer, metrics *services.Metrics) *Router {
	return &Router{
		llm:       llm,
		retriever: retriever,
		files:     files,
		tasks:     tasks,
		composer:  composer,
		metrics:   metrics,
	}
}

// Respond produces the assistant reply for one inbound message. Every
// intent is a compile-time-checked case; adding a label without handling
// it here falls through to the general path rather than silently no-oping.
func (r *Router) Respond(ctx context.Context, message, userID string, history []models.ConversationTurn) string {
	intent := Classify(message, userID)
	if r.metrics != nil {
		r.metrics.IntentTotal.WithLabelValues(intent.String()).Inc()
	}

	switch intent {
	case IntentGreeting:
		reply, err := r.llm.GenerateInstruction(ctx, greetingInstruction)
		if err != nil {
			log.Printf("⚠️  [ROUTER] Greeting generation failed: %v", err)
			return "Hello! How can I assist you with your HR or onboarding questions today?"
		}
		return reply

	case IntentVague:
		reply, err := r.llm.GenerateInstruction(ctx, vagueInstruction)
		if err != nil {
			log.Printf("⚠️  [ROUTER] Clarification generation failed: %v", err)
			return "Can you tell me which part of onboarding or HR you need help with?"
		}
		return reply

	case IntentPendingStatus:
		return r.tasks.Resolve(ctx, userID)

	case IntentFileRequest:
		if reply := r.files.Resolve(ctx, message); reply != "" {
			return reply
		}
		// Sentinel: the resolver saw no file request after all

	case IntentHRContact:
		return hrContactBlock
	}

	knowledge := r.retriever.Retrieve(ctx, message)
	return r.composer.Compose(ctx, message, knowledge, history)
}
