package models

// Knowledge chunk types produced by the ingestion loaders
const (
	ChunkTypeEntry              = "entry"
	ChunkTypeRequirementItem    = "requirement_item"
	ChunkTypeMarkdown           = "markdown"
	ChunkTypePDF                = "pdf"
	ChunkTypeDepartmentFAQ      = "department_faq"
	ChunkTypeCrossDepartmentFAQ = "cross_department_faq"
)

// ChunkMetadata travels with every chunk into the vector index. Source is
// the original upload URL and is what delete-by-source keys on.
type ChunkMetadata struct {
	Source   string   `json:"source"`
	Type     string   `json:"type"`
	Category string   `json:"category,omitempty"`
	Keywords []string `json:"keywords,omitempty"`
}

// DocumentChunk is the unit stored in and retrieved from the vector index.
// Immutable once indexed; identified by (Source, ChunkIndex).
type DocumentChunk struct {
	Text       string        `json:"text"`
	ChunkIndex int           `json:"chunk_index"`
	Metadata   ChunkMetadata `json:"metadata"`
}

// ScoredChunk is a search hit with its cosine similarity score
type ScoredChunk struct {
	Chunk DocumentChunk `json:"chunk"`
	Score float64       `json:"score"`
}
