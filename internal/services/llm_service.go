package services

import (
	"context"
	"errors"
	"fmt"
	"io"
	"strings"

	openai "github.com/sashabaranov/go-openai"

	"noxy/internal/config"
	"noxy/internal/models"
)

// ErrContentFiltered signals that the model provider rejected the request
// on content-policy grounds (Azure content filter, jailbreak detection).
// Callers map this to a fixed scope-redirecting apology.
var ErrContentFiltered = errors.New("response blocked by content filter")

// LLMService wraps the chat-completion model behind a small contract:
// a list of conversation turns in, generated text out.
type LLMService struct {
	client     *openai.Client
	deployment string
	stream     bool
}

// NewLLMService creates an LLM service from configuration. When an Azure
// endpoint is configured the client speaks the Azure OpenAI dialect,
// otherwise it talks to the public OpenAI API.
func NewLLMService(cfg *config.Config) *LLMService {
	var clientConfig openai.ClientConfig
	if cfg.OpenAIEndpoint != "" {
		clientConfig = openai.DefaultAzureConfig(cfg.OpenAIAPIKey, cfg.OpenAIEndpoint)
		clientConfig.AzureModelMapperFunc = func(model string) string {
			return cfg.ChatDeployment
		}
	} else {
		clientConfig = openai.DefaultConfig(cfg.OpenAIAPIKey)
	}

	return &LLMService{
		client:     openai.NewClientWithConfig(clientConfig),
		deployment: cfg.ChatDeployment,
		stream:     cfg.StreamResponses,
	}
}

// Generate runs one chat completion over the given turns and returns the
// full reply text. With streaming enabled, fragments are concatenated in
// arrival order before returning; no partial output is surfaced on error.
func (s *LLMService) Generate(ctx context.Context, turns []models.ConversationTurn) (string, error) {
	messages := make([]openai.ChatCompletionMessage, 0, len(turns))
	for _, turn := range turns {
		messages = append(messages, openai.ChatCompletionMessage{
			Role:    turn.Role,
			Content: turn.Content,
		})
	}

	request := openai.ChatCompletionRequest{
		Model:       s.deployment,
		Messages:    messages,
		Temperature: 0.2,
	}

	if s.stream {
		return s.generateStreaming(ctx, request)
	}

	response, err := s.client.CreateChatCompletion(ctx, request)
	if err != nil {
		return "", classifyModelError(err)
	}
	if len(response.Choices) == 0 {
		return "", fmt.Errorf("model returned no choices")
	}

	return response.Choices[0].Message.Content, nil
}

// GenerateInstruction is a convenience for one-shot constrained instructions
// (greeting variations, clarifying questions, follow-up sentences).
func (s *LLMService) GenerateInstruction(ctx context.Context, instruction string) (string, error) {
	reply, err := s.Generate(ctx, []models.ConversationTurn{
		{Role: openai.ChatMessageRoleUser, Content: instruction},
	})
	if err != nil {
		return "", err
	}
	return strings.TrimSpace(reply), nil
}

func (s *LLMService) generateStreaming(ctx context.Context, request openai.ChatCompletionRequest) (string, error) {
	stream, err := s.client.CreateChatCompletionStream(ctx, request)
	if err != nil {
		return "", classifyModelError(err)
	}
	defer stream.Close()

	var builder strings.Builder
	for {
		chunk, err := stream.Recv()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return "", classifyModelError(err)
		}
		if len(chunk.Choices) > 0 {
			builder.WriteString(chunk.Choices[0].Delta.Content)
		}
	}

	return builder.String(), nil
}

// classifyModelError separates content-policy rejections from transport and
// service errors so callers can branch on semantics.
func classifyModelError(err error) error {
	var apiErr *openai.APIError
	if errors.As(err, &apiErr) {
		code := fmt.Sprintf("%v", apiErr.Code)
		if strings.Contains(code, "content_filter") ||
			strings.Contains(apiErr.Message, "content_filter") ||
			strings.Contains(apiErr.Message, "jailbreak") {
			return ErrContentFiltered
		}
	}
	return fmt.Errorf("model request failed: %w", err)
}
