package agent

import (
	"context"
	"errors"
	"strings"
	"testing"

	"noxy/internal/models"
)

type fakeFileLister struct {
	files   []models.FileCandidate
	err     error
	fetches int
}

func (f *fakeFileLister) FetchFileCandidates(ctx context.Context) ([]models.FileCandidate, error) {
	f.fetches++
	return f.files, f.err
}

// fakeEmbedder returns canned vectors per exact input text; unknown inputs
// get an orthogonal default so they never match anything.
type fakeEmbedder struct {
	vectors map[string][]float32
	calls   int
}

func (f *fakeEmbedder) Embed(ctx context.Context, text string) ([]float32, error) {
	f.calls++
	if v, ok := f.vectors[text]; ok {
		return v, nil
	}
	return []float32{0, 0, 1}, nil
}

type fakeGenerator struct {
	reply            string
	instructionReply string
	err              error
}

func (f *fakeGenerator) Generate(ctx context.Context, turns []models.ConversationTurn) (string, error) {
	return f.reply, f.err
}

func (f *fakeGenerator) GenerateInstruction(ctx context.Context, instruction string) (string, error) {
	return f.instructionReply, f.err
}

func onboardingForms() []models.FileCandidate {
	return []models.FileCandidate{
		{Name: "BIR-1905-Form.pdf", URL: "https://npaxstorage.blob.core.windows.net/onboarding-materials/BIR-1905-Form.pdf"},
		{Name: "SSS-E1-Form.pdf", URL: "https://npaxstorage.blob.core.windows.net/onboarding-materials/SSS-E1-Form.pdf"},
		{Name: "PhilHealth-Member-Registration.pdf", URL: "https://npaxstorage.blob.core.windows.net/onboarding-materials/PhilHealth-Member-Registration.pdf"},
	}
}

func newTestResolver(backend *fakeFileLister, embedder *fakeEmbedder) *FileResolver {
	return NewFileResolver(backend, embedder, &fakeGenerator{err: errors.New("model down")}, 0.55)
}

func TestFileResolver_NoFileKeywords(t *testing.T) {
	backend := &fakeFileLister{files: onboardingForms()}
	resolver := newTestResolver(backend, &fakeEmbedder{})

	got := resolver.Resolve(context.Background(), "what is the leave policy")
	if got != "" {
		t.Errorf("Resolve = %q, want empty sentinel", got)
	}
	if backend.fetches != 0 {
		t.Errorf("backend fetched %d times, want 0", backend.fetches)
	}
}

func TestFileResolver_AmbiguousBIRRequest(t *testing.T) {
	backend := &fakeFileLister{files: onboardingForms()}
	resolver := newTestResolver(backend, &fakeEmbedder{})

	got := resolver.Resolve(context.Background(), "i need a bir form")
	if got != birClarificationMessage {
		t.Errorf("Resolve = %q, want clarification message", got)
	}
	// Clarification is decided before any backend call
	if backend.fetches != 0 {
		t.Errorf("backend fetched %d times, want 0", backend.fetches)
	}
}

func TestFileResolver_FormCodeDirectMatch(t *testing.T) {
	backend := &fakeFileLister{files: onboardingForms()}
	embedder := &fakeEmbedder{}
	resolver := newTestResolver(backend, embedder)

	got := resolver.Resolve(context.Background(), "can i download the bir 1905 form")
	want := "Here is the file you need: https://npaxstorage.blob.core.windows.net/onboarding-materials/BIR-1905-Form.pdf"
	if got != want {
		t.Errorf("Resolve = %q, want %q", got, want)
	}
	// A numeric code resolves by substring scan, never by embeddings
	if embedder.calls != 0 {
		t.Errorf("embedder called %d times, want 0", embedder.calls)
	}
}

func TestFileResolver_SeparatorAdjacentFormCode(t *testing.T) {
	tests := []struct {
		name    string
		message string
	}{
		{"hyphenated code", "can i download the BIR-1905 form"},
		{"underscored code", "i need the form_1905 document"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			backend := &fakeFileLister{files: onboardingForms()}
			embedder := &fakeEmbedder{}
			resolver := newTestResolver(backend, embedder)

			got := resolver.Resolve(context.Background(), tt.message)
			want := "Here is the file you need: https://npaxstorage.blob.core.windows.net/onboarding-materials/BIR-1905-Form.pdf"
			if got != want {
				t.Errorf("Resolve(%q) = %q, want %q", tt.message, got, want)
			}
			// A code next to a separator still resolves by substring scan
			if embedder.calls != 0 {
				t.Errorf("embedder called %d times, want 0", embedder.calls)
			}
		})
	}
}

func TestFileResolver_EmbeddingMatch(t *testing.T) {
	backend := &fakeFileLister{files: onboardingForms()}
	embedder := &fakeEmbedder{vectors: map[string][]float32{
		"philhealth registration document":                       {1, 0, 0},
		normalizeFileQuery("PhilHealth-Member-Registration.pdf"): {1, 0, 0},
		normalizeFileQuery("BIR-1905-Form.pdf"):                  {0, 1, 0},
		normalizeFileQuery("SSS-E1-Form.pdf"):                    {0, 1, 0},
	}}
	resolver := newTestResolver(backend, embedder)

	got := resolver.Resolve(context.Background(), "philhealth registration document")
	if !strings.Contains(got, "PhilHealth-Member-Registration.pdf") {
		t.Errorf("Resolve = %q, want PhilHealth link", got)
	}
}

func TestFileResolver_BelowThresholdRejected(t *testing.T) {
	backend := &fakeFileLister{files: onboardingForms()}
	// Every candidate is orthogonal to the query, so the best score is 0
	embedder := &fakeEmbedder{vectors: map[string][]float32{
		"vacation leave document": {1, 0, 0},
	}}
	resolver := newTestResolver(backend, embedder)

	got := resolver.Resolve(context.Background(), "vacation leave document")
	if got != noFileMatchMessage {
		t.Errorf("Resolve = %q, want no-match message", got)
	}
}

func TestFileResolver_BackendUnavailable(t *testing.T) {
	backend := &fakeFileLister{err: errors.New("listing failed")}
	resolver := newTestResolver(backend, &fakeEmbedder{})

	got := resolver.Resolve(context.Background(), "send me the sss form")
	if got != filesUnavailableMessage {
		t.Errorf("Resolve = %q, want unavailable message", got)
	}
}

func TestFileResolver_EmptyListing(t *testing.T) {
	backend := &fakeFileLister{}
	resolver := newTestResolver(backend, &fakeEmbedder{})

	got := resolver.Resolve(context.Background(), "send me the sss form")
	if got != filesUnavailableMessage {
		t.Errorf("Resolve = %q, want unavailable message", got)
	}
}

func TestFileResolver_MultiItemByFormCodes(t *testing.T) {
	backend := &fakeFileLister{files: onboardingForms()}
	resolver := newTestResolver(backend, &fakeEmbedder{})

	got := resolver.Resolve(context.Background(), "i need the 1905 file and the 9999 file")
	if !strings.HasPrefix(got, "Here are the files you need:") {
		t.Fatalf("Resolve = %q, want multi-file header", got)
	}
	if !strings.Contains(got, "BIR-1905-Form.pdf") {
		t.Errorf("Resolve = %q, missing 1905 match", got)
	}
	if !strings.Contains(got, "I could not find a match for:") {
		t.Errorf("Resolve = %q, missing unresolved note", got)
	}
}

func TestFileResolver_MultiItemDeduplicates(t *testing.T) {
	backend := &fakeFileLister{files: onboardingForms()}
	resolver := newTestResolver(backend, &fakeEmbedder{})

	got := resolver.Resolve(context.Background(), "the 1905 form, the 1905 copy")
	count := strings.Count(got, "BIR-1905-Form.pdf: ")
	if count != 1 {
		t.Errorf("Resolve listed the same file %d times: %q", count, got)
	}
}

func TestFileResolver_FollowUpAppended(t *testing.T) {
	backend := &fakeFileLister{files: onboardingForms()}
	resolver := NewFileResolver(backend, &fakeEmbedder{},
		&fakeGenerator{instructionReply: "Happy to help with anything else you need."}, 0.55)

	got := resolver.Resolve(context.Background(), "download the 1905 form")
	wantSuffix := "\nHappy to help with anything else you need."
	if !strings.HasSuffix(got, wantSuffix) {
		t.Errorf("Resolve = %q, want follow-up suffix %q", got, wantSuffix)
	}
}

func TestNormalizeFileQuery(t *testing.T) {
	tests := []struct {
		in   string
		want string
	}{
		{"Pag-IBIG form", "hdmf form"},
		{"tin application", "bir application"},
		{"SSS_E1", "sss sss"},
		{"tax form", "bir form"},
		{"BIR-1905 copy", "bir 1905 copy"},
		// Aliases rewrite whole tokens only, never word interiors
		{"printing the form", "printing the form"},
		{"martini glass", "martini glass"},
	}

	for _, tt := range tests {
		if got := normalizeFileQuery(tt.in); got != tt.want {
			t.Errorf("normalizeFileQuery(%q) = %q, want %q", tt.in, got, tt.want)
		}
	}
}

func TestSplitRequestSegments(t *testing.T) {
	tests := []struct {
		name string
		in   string
		want int
	}{
		{"single request", "the philhealth form", 1},
		{"and separator", "the sss form and the philhealth form", 2},
		{"comma separator", "1905, 1904, 2316", 3},
		{"two categories no separator", "sss philhealth forms", 2},
		{"repeated code collapses", "the 1905 1905 form", 1},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := splitRequestSegments(tt.in)
			if len(got) != tt.want {
				t.Errorf("splitRequestSegments(%q) = %v, want %d segments", tt.in, got, tt.want)
			}
		})
	}
}
