package handlers

import (
	"bytes"
	"context"
	"encoding/json"
	"math"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"strings"
	"testing"

	"github.com/gofiber/fiber/v2"

	"noxy/internal/document"
	"noxy/internal/models"
	"noxy/internal/vectorstore"
)

type staticEmbedder struct{}

func (staticEmbedder) Embed(ctx context.Context, text string) ([]float32, error) {
	vector := make([]float32, 8)
	for i, r := range text {
		vector[i%8] += float32(r%13) + 1
	}
	var norm float64
	for _, v := range vector {
		norm += float64(v) * float64(v)
	}
	norm = math.Sqrt(norm)
	for i := range vector {
		vector[i] = float32(float64(vector[i]) / norm)
	}
	return vector, nil
}

func (e staticEmbedder) EmbedBatch(ctx context.Context, texts []string) ([][]float32, error) {
	vectors := make([][]float32, len(texts))
	for i, text := range texts {
		v, err := e.Embed(ctx, text)
		if err != nil {
			return nil, err
		}
		vectors[i] = v
	}
	return vectors, nil
}

func setupDocumentApp(t *testing.T) (*fiber.App, *vectorstore.Store) {
	t.Helper()

	store, err := vectorstore.Open(filepath.Join(t.TempDir(), "vectors.db"), staticEmbedder{})
	if err != nil {
		t.Fatalf("Failed to open test store: %v", err)
	}
	t.Cleanup(func() { store.Close() })

	handler := NewDocumentHandler(document.NewInjector(store), nil)

	app := fiber.New()
	app.Post("/upload-document", handler.Upload)
	app.Post("/delete-document", handler.Delete)
	app.Post("/update-document", handler.Update)
	return app, store
}

func postJSON(t *testing.T, app *fiber.App, path string, body any) *http.Response {
	t.Helper()
	payload, err := json.Marshal(body)
	if err != nil {
		t.Fatalf("Failed to marshal request: %v", err)
	}

	req := httptest.NewRequest(http.MethodPost, path, bytes.NewReader(payload))
	req.Header.Set("Content-Type", "application/json")

	resp, err := app.Test(req, -1)
	if err != nil {
		t.Fatalf("Request failed: %v", err)
	}
	return resp
}

func decodeInto(t *testing.T, resp *http.Response, out any) {
	t.Helper()
	defer resp.Body.Close()
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		t.Fatalf("Failed to decode response: %v", err)
	}
}

const handbookMarkdown = `# Leave Policy

Employees are entitled to fifteen days of paid vacation leave every year.
`

func TestDocumentHandler_UploadLifecycle(t *testing.T) {
	app, store := setupDocumentApp(t)

	mux := http.NewServeMux()
	mux.HandleFunc("/handbook.md", func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(handbookMarkdown))
	})
	fileServer := httptest.NewServer(mux)
	t.Cleanup(fileServer.Close)
	url := fileServer.URL + "/handbook.md"

	var uploaded models.InjectResult
	decodeInto(t, postJSON(t, app, "/upload-document", models.UploadDocumentRequest{URL: url}), &uploaded)
	if !uploaded.Success {
		t.Fatalf("upload failed: %s", uploaded.Message)
	}
	if uploaded.DocumentsAdded < 1 {
		t.Errorf("DocumentsAdded = %d", uploaded.DocumentsAdded)
	}

	count, err := store.Count(context.Background())
	if err != nil {
		t.Fatalf("Count failed: %v", err)
	}
	if count != uploaded.DocumentsAdded {
		t.Errorf("store has %d chunks, response reported %d", count, uploaded.DocumentsAdded)
	}

	var deleted models.DeleteResult
	decodeInto(t, postJSON(t, app, "/delete-document", models.DeleteDocumentRequest{URL: url}), &deleted)
	if !deleted.Success {
		t.Fatalf("delete failed: %s", deleted.Message)
	}

	// Second delete reports not-found, still HTTP 200
	var again models.DeleteResult
	decodeInto(t, postJSON(t, app, "/delete-document", models.DeleteDocumentRequest{URL: url}), &again)
	if again.Success {
		t.Error("second delete succeeded, want not-found")
	}
	if !strings.Contains(again.Message, "No documents found for URL") {
		t.Errorf("Message = %q", again.Message)
	}
}

func TestDocumentHandler_UploadValidation(t *testing.T) {
	app, _ := setupDocumentApp(t)

	var result models.InjectResult
	decodeInto(t, postJSON(t, app, "/upload-document", fiber.Map{}), &result)
	if result.Success {
		t.Error("upload with no url succeeded")
	}
	if result.Message != "Invalid request: 'url' must be a non-empty string" {
		t.Errorf("Message = %q", result.Message)
	}
}

func TestDocumentHandler_UpdateValidation(t *testing.T) {
	app, _ := setupDocumentApp(t)

	var missingOld models.UpdateResult
	decodeInto(t, postJSON(t, app, "/update-document", fiber.Map{"new_url": "https://cdn.test/new.md"}), &missingOld)
	if missingOld.Success || !strings.Contains(missingOld.Message, "'old_url'") {
		t.Errorf("missing old_url result = %+v", missingOld)
	}

	var missingNew models.UpdateResult
	decodeInto(t, postJSON(t, app, "/update-document", fiber.Map{"old_url": "https://cdn.test/old.md"}), &missingNew)
	if missingNew.Success || !strings.Contains(missingNew.Message, "'new_url'") {
		t.Errorf("missing new_url result = %+v", missingNew)
	}
}

func TestHealthHandler(t *testing.T) {
	store, err := vectorstore.Open(filepath.Join(t.TempDir(), "vectors.db"), staticEmbedder{})
	if err != nil {
		t.Fatalf("Failed to open test store: %v", err)
	}
	t.Cleanup(func() { store.Close() })

	handler := NewHealthHandler(store)
	app := fiber.New()
	app.Get("/", handler.Home)
	app.Get("/health", handler.Handle)

	resp, err := app.Test(httptest.NewRequest(http.MethodGet, "/", nil), -1)
	if err != nil {
		t.Fatalf("Request failed: %v", err)
	}
	var banner map[string]string
	decodeInto(t, resp, &banner)
	if banner["message"] != "Noxy API is running" {
		t.Errorf("banner = %v", banner)
	}

	resp, err = app.Test(httptest.NewRequest(http.MethodGet, "/health", nil), -1)
	if err != nil {
		t.Fatalf("Request failed: %v", err)
	}
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("health status = %d", resp.StatusCode)
	}
	var health struct {
		Status        string `json:"status"`
		IndexedChunks int    `json:"indexed_chunks"`
	}
	decodeInto(t, resp, &health)
	if health.Status != "ok" || health.IndexedChunks != 0 {
		t.Errorf("health = %+v", health)
	}
}
