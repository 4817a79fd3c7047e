package agent

import (
	"context"
	"log"
	"strings"

	"noxy/internal/models"
)

// retrievalK is how many chunks a knowledge lookup pulls from the index
const retrievalK = 3

// Searcher is the slice of the vector index the retriever needs
type Searcher interface {
	Search(ctx context.Context, query string, k int) ([]models.ScoredChunk, error)
}

// Retriever supplies verified knowledge context for the general response
// path. It never raises: a missing or failing index degrades to no context.
type Retriever struct {
	index Searcher
}

// NewRetriever creates a knowledge retriever over the given index
func NewRetriever(index Searcher) *Retriever {
	return &Retriever{index: index}
}

// Retrieve returns the joined texts of the best-matching chunks in rank
// order, or the empty string. Messages of three tokens or fewer skip
// retrieval entirely; they are greeting-adjacent and only produce noise.
func (r *Retriever) Retrieve(ctx context.Context, query string) string {
	if len(strings.Fields(query)) <= 3 {
		return ""
	}

	results, err := r.index.Search(ctx, query, retrievalK)
	if err != nil {
		log.Printf("⚠️  [RETRIEVER] Search failed, continuing without context: %v", err)
		return ""
	}

	texts := make([]string, 0, len(results))
	for _, result := range results {
		texts = append(texts, result.Chunk.Text)
	}
	return strings.Join(texts, "\n")
}
