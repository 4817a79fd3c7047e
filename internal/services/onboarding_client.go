package services

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log"
	"net/http"
	"strings"
	"time"

	cache "github.com/patrickmn/go-cache"

	"noxy/internal/config"
	"noxy/internal/models"
)

const blobCacheKey = "onboarding-blobs"

// OnboardingClient talks to the onboarding portal backend. Both endpoints
// are read-only; failures degrade to empty results rather than surfacing
// errors to the user.
type OnboardingClient struct {
	baseURL        string
	storageAccount string
	httpClient     *http.Client
	blobCache      *cache.Cache
}

// NewOnboardingClient creates a client for the onboarding portal backend
func NewOnboardingClient(cfg *config.Config) *OnboardingClient {
	return &OnboardingClient{
		baseURL:        strings.TrimRight(cfg.OnboardingBackendURL, "/"),
		storageAccount: cfg.StorageAccountName,
		httpClient:     &http.Client{Timeout: 5 * time.Second},
		blobCache:      cache.New(cfg.BlobCacheTTL, 2*cfg.BlobCacheTTL),
	}
}

// FetchTasks fetches the onboarding task records for a user. A non-200
// response or network error is treated as "no tasks" (fail open).
func (c *OnboardingClient) FetchTasks(ctx context.Context, userID string) []models.TaskRecord {
	url := fmt.Sprintf("%s/user-tasks/%s", c.baseURL, userID)

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		log.Printf("⚠️  [ONBOARDING] Failed to build task request: %v", err)
		return nil
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		log.Printf("⚠️  [ONBOARDING] Task fetch failed for user %s: %v", userID, err)
		return nil
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		log.Printf("⚠️  [ONBOARDING] Task fetch returned status %d for user %s", resp.StatusCode, userID)
		return nil
	}

	var tasks []models.TaskRecord
	if err := json.NewDecoder(resp.Body).Decode(&tasks); err != nil {
		log.Printf("⚠️  [ONBOARDING] Failed to decode task response: %v", err)
		return nil
	}

	return tasks
}

// FetchFileCandidates fetches the current blob listing and normalizes each
// entry into a FileCandidate with a URL built from the storage template.
// Results are cached briefly to avoid hammering the backend when a user
// asks for several forms in a row.
func (c *OnboardingClient) FetchFileCandidates(ctx context.Context) ([]models.FileCandidate, error) {
	if cached, found := c.blobCache.Get(blobCacheKey); found {
		return cached.([]models.FileCandidate), nil
	}

	url := c.baseURL + "/blobs"

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to build blob request: %w", err)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("blob fetch failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("blob fetch returned status %d", resp.StatusCode)
	}

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("failed to read blob response: %w", err)
	}

	blobs, err := parseBlobListing(body)
	if err != nil {
		return nil, err
	}

	candidates := c.normalizeBlobs(blobs)
	c.blobCache.Set(blobCacheKey, candidates, cache.DefaultExpiration)

	return candidates, nil
}

// parseBlobListing accepts both observed response shapes: a bare JSON array
// of blob names, or an object with a "blobs" array.
func parseBlobListing(body []byte) ([]string, error) {
	var asList []string
	if err := json.Unmarshal(body, &asList); err == nil {
		return asList, nil
	}

	var asObject struct {
		Blobs []string `json:"blobs"`
	}
	if err := json.Unmarshal(body, &asObject); err == nil {
		return asObject.Blobs, nil
	}

	return nil, fmt.Errorf("unrecognized blob listing format")
}

// normalizeBlobs keeps PDF entries and derives name and download URL from
// the blob path. URLs are always built from the fixed storage template,
// never invented.
func (c *OnboardingClient) normalizeBlobs(blobs []string) []models.FileCandidate {
	candidates := make([]models.FileCandidate, 0, len(blobs))
	for _, blob := range blobs {
		if !strings.HasSuffix(strings.ToLower(blob), ".pdf") {
			continue
		}

		name := blob
		if idx := strings.LastIndex(blob, "/"); idx >= 0 {
			name = blob[idx+1:]
		}

		candidates = append(candidates, models.FileCandidate{
			Name: name,
			URL:  fmt.Sprintf("https://%s.blob.core.windows.net/onboarding-materials/%s", c.storageAccount, blob),
		})
	}
	return candidates
}
