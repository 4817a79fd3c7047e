package document

import (
	"context"
	"fmt"
	"io"
	"log"
	"net/http"
	"net/url"
	"path"
	"strings"
	"time"

	"noxy/internal/models"
	"noxy/internal/vectorstore"
)

const maxDownloadSize = 10 * 1024 * 1024 // 10MB

// Injector downloads knowledge documents and moves them in and out of the
// vector index. Every failure is reported through the result structs; the
// injector never panics a request.
type Injector struct {
	store      *vectorstore.Store
	httpClient *http.Client
}

// NewInjector creates a document injector backed by the given store
func NewInjector(store *vectorstore.Store) *Injector {
	return &Injector{
		store:      store,
		httpClient: &http.Client{Timeout: 30 * time.Second},
	}
}

// Inject downloads the document at the given URL, parses and chunks it, and
// adds the chunks to the vector index with the URL recorded as source.
func (inj *Injector) Inject(ctx context.Context, rawURL string) models.InjectResult {
	fileType, err := fileTypeFromURL(rawURL)
	if err != nil {
		return models.InjectResult{Success: false, Message: err.Error()}
	}

	data, err := inj.download(ctx, rawURL)
	if err != nil {
		return models.InjectResult{
			Success:  false,
			FileType: fileType,
			Message:  fmt.Sprintf("Failed to download file: %v", err),
		}
	}

	docs, err := ParseKnowledgeDocument(data, rawURL, fileType)
	if err != nil {
		return models.InjectResult{
			Success:  false,
			FileType: fileType,
			Message:  fmt.Sprintf("Failed to parse document: %v", err),
		}
	}
	if len(docs) == 0 {
		return models.InjectResult{
			Success:  false,
			FileType: fileType,
			Message:  "No content extracted from file",
		}
	}

	chunks := ChunkDocuments(docs)
	if len(chunks) == 0 {
		return models.InjectResult{
			Success:  false,
			FileType: fileType,
			Message:  "No chunks created from document",
		}
	}

	added, err := inj.store.Upsert(ctx, chunks)
	if err != nil {
		return models.InjectResult{
			Success:  false,
			FileType: fileType,
			Message:  fmt.Sprintf("Failed to index document: %v", err),
		}
	}

	log.Printf("📚 [INGEST] Injected %d chunks from %s file %s", added, strings.ToUpper(fileType), rawURL)

	return models.InjectResult{
		Success:        true,
		DocumentsAdded: added,
		FileType:       fileType,
		Message:        fmt.Sprintf("Successfully injected %d chunks from %s file", added, strings.ToUpper(fileType)),
	}
}

// Delete removes all chunks previously ingested from the given URL. A URL
// that was never ingested is a "not found" failure, not an error.
func (inj *Injector) Delete(ctx context.Context, rawURL string) models.DeleteResult {
	deleted, err := inj.store.DeleteBySource(ctx, rawURL)
	if err != nil {
		return models.DeleteResult{
			Success: false,
			Message: fmt.Sprintf("Failed to delete document: %v", err),
		}
	}
	if deleted == 0 {
		return models.DeleteResult{
			Success: false,
			Message: fmt.Sprintf("No documents found for URL: %s", rawURL),
		}
	}

	log.Printf("🗑️  [INGEST] Deleted %d chunks for %s", deleted, rawURL)

	return models.DeleteResult{
		Success:          true,
		DocumentsDeleted: deleted,
		Message:          fmt.Sprintf("Successfully deleted %d chunks from vector database", deleted),
	}
}

// Update replaces the document at oldURL with the one at newURL. Deletion
// and injection outcomes are reported independently: a missing oldURL stops
// before any injection, and a failed injection after a successful deletion
// is reported as partial success.
func (inj *Injector) Update(ctx context.Context, oldURL, newURL string) models.UpdateResult {
	deletion := inj.Delete(ctx, oldURL)
	if !deletion.Success {
		return models.UpdateResult{
			Success: false,
			Message: fmt.Sprintf("Document at old_url not found: %s", deletion.Message),
		}
	}

	injection := inj.Inject(ctx, newURL)
	if !injection.Success {
		return models.UpdateResult{
			Success:          false,
			DocumentsDeleted: deletion.DocumentsDeleted,
			Message: fmt.Sprintf("Deletion succeeded (%d chunks removed) but injection failed: %s",
				deletion.DocumentsDeleted, injection.Message),
		}
	}

	return models.UpdateResult{
		Success:          true,
		DocumentsDeleted: deletion.DocumentsDeleted,
		DocumentsAdded:   injection.DocumentsAdded,
		FileType:         injection.FileType,
		Message: fmt.Sprintf("Successfully updated document: deleted %d chunks, added %d chunks",
			deletion.DocumentsDeleted, injection.DocumentsAdded),
	}
}

// fileTypeFromURL validates the URL and derives the ingestion format from
// its extension.
func fileTypeFromURL(rawURL string) (string, error) {
	parsed, err := url.Parse(rawURL)
	if err != nil || (parsed.Scheme != "http" && parsed.Scheme != "https") {
		return "", fmt.Errorf("URL must start with http:// or https://")
	}

	switch strings.ToLower(path.Ext(parsed.Path)) {
	case ".json":
		return FileTypeJSON, nil
	case ".md":
		return FileTypeMarkdown, nil
	case ".pdf":
		return FileTypePDF, nil
	default:
		return "", fmt.Errorf("unsupported file type: %s. Only .json, .pdf, and .md are supported", path.Ext(parsed.Path))
	}
}

func (inj *Injector) download(ctx context.Context, rawURL string) ([]byte, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, rawURL, nil)
	if err != nil {
		return nil, fmt.Errorf("invalid URL: %w", err)
	}

	resp, err := inj.httpClient.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("download returned status %d", resp.StatusCode)
	}
	if resp.ContentLength > maxDownloadSize {
		return nil, fmt.Errorf("file size exceeds 10MB limit")
	}

	data, err := io.ReadAll(io.LimitReader(resp.Body, maxDownloadSize+1))
	if err != nil {
		return nil, err
	}
	if len(data) > maxDownloadSize {
		return nil, fmt.Errorf("file size exceeds 10MB limit")
	}

	return data, nil
}
