package services

import (
	"context"
	"fmt"
	"math"

	openai "github.com/sashabaranov/go-openai"

	"noxy/internal/config"
)

// EmbeddingService wraps the text-embedding model
type EmbeddingService struct {
	client     *openai.Client
	deployment string
}

// NewEmbeddingService creates an embedding service from configuration
func NewEmbeddingService(cfg *config.Config) *EmbeddingService {
	var clientConfig openai.ClientConfig
	if cfg.OpenAIEndpoint != "" {
		clientConfig = openai.DefaultAzureConfig(cfg.OpenAIAPIKey, cfg.OpenAIEndpoint)
		clientConfig.AzureModelMapperFunc = func(model string) string {
			return cfg.EmbeddingDeployment
		}
	} else {
		clientConfig = openai.DefaultConfig(cfg.OpenAIAPIKey)
	}

	return &EmbeddingService{
		client:     openai.NewClientWithConfig(clientConfig),
		deployment: cfg.EmbeddingDeployment,
	}
}

// Embed generates an embedding vector for the given text
func (s *EmbeddingService) Embed(ctx context.Context, text string) ([]float32, error) {
	response, err := s.client.CreateEmbeddings(ctx, openai.EmbeddingRequestStrings{
		Input: []string{text},
		Model: openai.EmbeddingModel(s.deployment),
	})
	if err != nil {
		return nil, fmt.Errorf("embedding request failed: %w", err)
	}
	if len(response.Data) == 0 {
		return nil, fmt.Errorf("embedding response contained no data")
	}

	return response.Data[0].Embedding, nil
}

// EmbedBatch generates embeddings for multiple texts in one call,
// preserving input order.
func (s *EmbeddingService) EmbedBatch(ctx context.Context, texts []string) ([][]float32, error) {
	if len(texts) == 0 {
		return nil, nil
	}

	response, err := s.client.CreateEmbeddings(ctx, openai.EmbeddingRequestStrings{
		Input: texts,
		Model: openai.EmbeddingModel(s.deployment),
	})
	if err != nil {
		return nil, fmt.Errorf("embedding request failed: %w", err)
	}
	if len(response.Data) != len(texts) {
		return nil, fmt.Errorf("embedding response size mismatch: want %d, got %d", len(texts), len(response.Data))
	}

	vectors := make([][]float32, len(texts))
	for _, item := range response.Data {
		vectors[item.Index] = item.Embedding
	}
	return vectors, nil
}

// CosineSimilarity calculates cosine similarity between two vectors.
// Mismatched or zero-length vectors score 0.
func CosineSimilarity(a, b []float32) float64 {
	if len(a) != len(b) || len(a) == 0 {
		return 0.0
	}

	var dotProduct, normA, normB float64
	for i := range a {
		dotProduct += float64(a[i]) * float64(b[i])
		normA += float64(a[i]) * float64(a[i])
		normB += float64(b[i]) * float64(b[i])
	}

	if normA == 0 || normB == 0 {
		return 0.0
	}

	return dotProduct / (math.Sqrt(normA) * math.Sqrt(normB))
}
