package vectorstore

import (
	"context"
	"database/sql"
	"encoding/binary"
	"fmt"
	"log"
	"math"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	_ "modernc.org/sqlite"

	"noxy/internal/models"
)

// Embedder is the embedding contract the store needs. Satisfied by
// services.EmbeddingService; tests inject a fake.
type Embedder interface {
	Embed(ctx context.Context, text string) ([]float32, error)
	EmbedBatch(ctx context.Context, texts []string) ([][]float32, error)
}

// Store is a persistent nearest-neighbor index over document chunks,
// backed by SQLite with embeddings stored as little-endian float32 blobs.
// Writes are serialized; a delete-then-insert update is two operations and
// a concurrent search may transiently see neither version.
type Store struct {
	db       *sql.DB
	embedder Embedder
	writeMu  sync.Mutex
}

var (
	defaultStore *Store
	defaultOnce  sync.Once
	defaultErr   error
)

const schema = `
CREATE TABLE IF NOT EXISTS chunks (
	id          TEXT PRIMARY KEY,
	source      TEXT NOT NULL,
	chunk_index INTEGER NOT NULL,
	content     TEXT NOT NULL,
	doc_type    TEXT NOT NULL DEFAULT '',
	category    TEXT NOT NULL DEFAULT '',
	keywords    TEXT NOT NULL DEFAULT '',
	embedding   BLOB NOT NULL,
	created_at  TIMESTAMP NOT NULL,
	UNIQUE(source, chunk_index)
);
CREATE INDEX IF NOT EXISTS idx_chunks_source ON chunks(source);
`

// Open opens (or creates) a vector store at the given path
func Open(path string, embedder Embedder) (*Store, error) {
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("failed to open vector database: %w", err)
	}

	if _, err := db.Exec(schema); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to initialize vector schema: %w", err)
	}

	return &Store{db: db, embedder: embedder}, nil
}

// Default returns the process-wide store handle, opening it on first use.
// Repeated calls return the existing handle without reinitializing.
func Default(path string, embedder Embedder) (*Store, error) {
	defaultOnce.Do(func() {
		defaultStore, defaultErr = Open(path, embedder)
		if defaultErr == nil {
			log.Printf("✅ Vector index loaded once (%s)", path)
		}
	})
	return defaultStore, defaultErr
}

// Close closes the underlying database
func (s *Store) Close() error {
	return s.db.Close()
}

// Upsert embeds and stores the given chunks. Chunk identity is
// (source, chunkIndex); re-upserting replaces the previous row.
func (s *Store) Upsert(ctx context.Context, chunks []models.DocumentChunk) (int, error) {
	if len(chunks) == 0 {
		return 0, nil
	}

	texts := make([]string, len(chunks))
	for i, chunk := range chunks {
		texts[i] = chunk.Text
	}

	vectors, err := s.embedder.EmbedBatch(ctx, texts)
	if err != nil {
		return 0, fmt.Errorf("failed to embed chunks: %w", err)
	}

	s.writeMu.Lock()
	defer s.writeMu.Unlock()

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return 0, fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	stmt, err := tx.PrepareContext(ctx, `
		INSERT INTO chunks (id, source, chunk_index, content, doc_type, category, keywords, embedding, created_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(source, chunk_index) DO UPDATE SET
			content   = excluded.content,
			doc_type  = excluded.doc_type,
			category  = excluded.category,
			keywords  = excluded.keywords,
			embedding = excluded.embedding
	`)
	if err != nil {
		return 0, fmt.Errorf("failed to prepare upsert: %w", err)
	}
	defer stmt.Close()

	now := time.Now()
	for i, chunk := range chunks {
		_, err := stmt.ExecContext(ctx,
			uuid.New().String(),
			chunk.Metadata.Source,
			chunk.ChunkIndex,
			chunk.Text,
			chunk.Metadata.Type,
			chunk.Metadata.Category,
			strings.Join(chunk.Metadata.Keywords, ","),
			vectorToBlob(vectors[i]),
			now,
		)
		if err != nil {
			return 0, fmt.Errorf("failed to upsert chunk %d of %s: %w", chunk.ChunkIndex, chunk.Metadata.Source, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return 0, fmt.Errorf("failed to commit upsert: %w", err)
	}

	return len(chunks), nil
}

// Search embeds the query and returns the top-k chunks ranked by cosine
// similarity. An empty index yields an empty result, never an error.
func (s *Store) Search(ctx context.Context, query string, k int) ([]models.ScoredChunk, error) {
	queryVector, err := s.embedder.Embed(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("failed to embed query: %w", err)
	}

	rows, err := s.db.QueryContext(ctx, `
		SELECT source, chunk_index, content, doc_type, category, keywords, embedding
		FROM chunks
	`)
	if err != nil {
		return nil, fmt.Errorf("failed to scan chunks: %w", err)
	}
	defer rows.Close()

	var results []models.ScoredChunk
	for rows.Next() {
		var (
			chunk    models.DocumentChunk
			keywords string
			blob     []byte
		)
		if err := rows.Scan(
			&chunk.Metadata.Source,
			&chunk.ChunkIndex,
			&chunk.Text,
			&chunk.Metadata.Type,
			&chunk.Metadata.Category,
			&keywords,
			&blob,
		); err != nil {
			return nil, fmt.Errorf("failed to read chunk row: %w", err)
		}
		if keywords != "" {
			chunk.Metadata.Keywords = strings.Split(keywords, ",")
		}

		results = append(results, models.ScoredChunk{
			Chunk: chunk,
			Score: cosineSimilarity(queryVector, blobToVector(blob)),
		})
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("chunk scan failed: %w", err)
	}

	sort.SliceStable(results, func(i, j int) bool {
		return results[i].Score > results[j].Score
	})

	if len(results) > k {
		results = results[:k]
	}
	return results, nil
}

// DeleteBySource removes every chunk ingested from the given source URL and
// returns how many rows were deleted. Zero means the source was never
// indexed; callers branch on the count rather than on an error.
func (s *Store) DeleteBySource(ctx context.Context, source string) (int, error) {
	s.writeMu.Lock()
	defer s.writeMu.Unlock()

	result, err := s.db.ExecContext(ctx, `DELETE FROM chunks WHERE source = ?`, source)
	if err != nil {
		return 0, fmt.Errorf("failed to delete chunks for %s: %w", source, err)
	}

	deleted, err := result.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("failed to count deleted chunks: %w", err)
	}

	return int(deleted), nil
}

// Count returns the number of indexed chunks
func (s *Store) Count(ctx context.Context) (int, error) {
	var count int
	if err := s.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM chunks`).Scan(&count); err != nil {
		return 0, fmt.Errorf("failed to count chunks: %w", err)
	}
	return count, nil
}

func vectorToBlob(vector []float32) []byte {
	blob := make([]byte, 4*len(vector))
	for i, v := range vector {
		binary.LittleEndian.PutUint32(blob[i*4:], math.Float32bits(v))
	}
	return blob
}

func blobToVector(blob []byte) []float32 {
	vector := make([]float32, len(blob)/4)
	for i := range vector {
		vector[i] = math.Float32frombits(binary.LittleEndian.Uint32(blob[i*4:]))
	}
	return vector
}

func cosineSimilarity(a, b []float32) float64 {
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
