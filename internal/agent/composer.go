package agent

import (
	"context"
	"errors"
	"log"

	"noxy/internal/models"
	"noxy/internal/services"
)

// Generator is the language-model contract the agent depends on. Satisfied
// by services.LLMService; tests inject a fake.
type Generator interface {
	Generate(ctx context.Context, turns []models.ConversationTurn) (string, error)
	GenerateInstruction(ctx context.Context, instruction string) (string, error)
}

// systemPrompt pins the assistant persona, scope and style. The style
// contract (at most 3 simple sentences, no em-dash, no line breaks) is what
// the reply-shape tests assert against.
const systemPrompt = `You are Noxy, an HR onboarding assistant.
Your purpose is to answer only within this scope:
- HR policies
- employee onboarding
- company information
- government requirements (SSS, Pag-IBIG, PhilHealth, BIR)
- IDs and documents
- HR contact info
- basic greetings
- pending requirements

Forbidden:
- Do NOT give directions, routes, navigation, or "how to go there".
- Do NOT book appointments or perform actions.
- Do NOT say you can connect the user to HR.
- Do NOT invent information.

Rules:
1. If the provided knowledge is empty and the question is HR-related, say you cannot find the information.
2. Maximum 3 simple sentences per answer.
3. Do not use an em-dash or special formatting, and do not use literal line breaks.
4. If the user writes in Tagalog, reply in Tagalog; otherwise reply in English.
5. Use a supportive and helpful tone. Be happy to assist.

HR CONTACT INFORMATION:
Email: hr.department@n-pax.com
Cebu HR: (032) 123-4567
Manila HR: (02) 987-6543
Hours: Monday to Friday, 8:00 AM to 6:00 PM`

const (
	policyApology = "I'm sorry, I cannot provide that type of response. I'm here to help with HR onboarding topics like policies, documents, and requirements. How can I assist you with your onboarding?"
	retryApology  = "I'm sorry, I encountered an error processing your request. Please try rephrasing your question about HR or onboarding topics."
)

// Composer assembles the final prompt and calls the language model
type Composer struct {
	llm    Generator
	window int
}

// NewComposer creates a response composer. The window bounds how many of
// the most recent conversation turns survive truncation.
func NewComposer(llm Generator, window int) *Composer {
	return &Composer{llm: llm, window: window}
}

// Compose builds the prompt from persona, retrieved knowledge and bounded
// history, and returns the model reply. Model failures never escape: a
// content-policy rejection maps to the fixed policy apology and anything
// else to the generic retry apology, with no partial output either way.
func (c *Composer) Compose(ctx context.Context, message, knowledge string, history []models.ConversationTurn) string {
	turns := make([]models.ConversationTurn, 0, len(history)+3)
	turns = append(turns, models.ConversationTurn{Role: "system", Content: systemPrompt})
	turns = append(turns, truncateHistory(history, c.window)...)

	if knowledge != "" {
		turns = append(turns, models.ConversationTurn{
			Role:    "system",
			Content: "Use this verified knowledge to answer:\n" + knowledge,
		})
	}

	turns = append(turns, models.ConversationTurn{Role: "user", Content: message})

	reply, err := c.llm.Generate(ctx, turns)
	if err != nil {
		if errors.Is(err, services.ErrContentFiltered) {
			return policyApology
		}
		log.Printf("❌ [COMPOSER] Model call failed: %v", err)
		return retryApology
	}

	return reply
}

// truncateHistory keeps the most recent window turns. The system prompt is
// prepended after truncation, so it is always turn 0.
func truncateHistory(history []models.ConversationTurn, window int) []models.ConversationTurn {
	if window <= 0 || len(history) <= window {
		return history
	}
	return history[len(history)-window:]
}
