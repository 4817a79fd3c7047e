package agent

import (
	"context"
	"fmt"
	"log"
	"regexp"
	"strings"

	"noxy/internal/models"
	"noxy/internal/services"
)

const (
	filesUnavailableMessage = "I'm having trouble retrieving the files right now. Please try again later."
	noFileMatchMessage      = "I couldn't find a matching onboarding form for that request. Could you give me the exact form name or number?"
	birClarificationMessage = "There are several BIR form types, like 1904, 1905, and 2316. Which form number do you need?"
)

// formCodePattern matches the 3-4 digit numeric codes used by government
// forms (1904, 1905, 2316).
var formCodePattern = regexp.MustCompile(`\b[0-9]{3,4}\b`)

var birWordPattern = regexp.MustCompile(`\bbir\b`)

var segmentSplitPattern = regexp.MustCompile(`,|\band\b`)

// separatorReplacer turns hyphens and underscores into spaces so codes
// like "bir-1905" and "form_1905" keep their digit boundaries.
var separatorReplacer = strings.NewReplacer("-", " ", "_", " ")

// fileSynonyms maps regional agency aliases onto the canonical names used
// in the stored file names. Matched against whole tokens only; partial
// matches inside unrelated words never rewrite.
var fileSynonyms = []struct{ alias, canonical string }{
	{"pagibig", "hdmf"},
	{"mdf", "hdmf"},
	{"philhealth", "philhealth"},
	{"tin", "bir"},
	{"tax", "bir"},
	{"e1", "sss"},
}

// fileCategories are the distinct form families used for multi-item
// detection, matched against the normalized (canonical-alias) query.
var fileCategories = []string{"bir", "sss", "philhealth", "hdmf"}

// FileLister is the slice of the onboarding backend the resolver needs
type FileLister interface {
	FetchFileCandidates(ctx context.Context) ([]models.FileCandidate, error)
}

// Embedder scores file name candidates against the query
type Embedder interface {
	Embed(ctx context.Context, text string) ([]float32, error)
}

// MatchResult is the outcome of matching one request segment. A nil File
// means no confident match; that propagates as a clarification request,
// never as a guess.
type MatchResult struct {
	File  *models.FileCandidate
	Score float64
}

// FileResolver resolves document requests against the live blob listing of
// the onboarding backend. It never fabricates a filename or URL.
type FileResolver struct {
	backend   FileLister
	embedder  Embedder
	llm       Generator
	threshold float64
}

// NewFileResolver creates a file resolver. The threshold is the minimum
// cosine similarity an embedding match must reach to be trusted.
func NewFileResolver(backend FileLister, embedder Embedder, llm Generator, threshold float64) *FileResolver {
	return &FileResolver{
		backend:   backend,
		embedder:  embedder,
		llm:       llm,
		threshold: threshold,
	}
}

// Resolve handles a document request end to end. The empty string is the
// "no file request detected" sentinel for the caller.
func (r *FileResolver) Resolve(ctx context.Context, query string) string {
	q := strings.ToLower(query)

	if !containsAny(q, fileRequestKeywords) {
		return ""
	}

	// A bare agency category with no form code cannot be resolved to one
	// file; ask before fetching anything.
	if isAmbiguousCategoryRequest(q) {
		return birClarificationMessage
	}

	files, err := r.backend.FetchFileCandidates(ctx)
	if err != nil {
		log.Printf("⚠️  [FILES] Blob listing unavailable: %v", err)
		return filesUnavailableMessage
	}
	if len(files) == 0 {
		return filesUnavailableMessage
	}

	segments := splitRequestSegments(q)
	if len(segments) == 1 {
		return r.resolveSingle(ctx, segments[0], files)
	}
	return r.resolveMulti(ctx, segments, files)
}

func (r *FileResolver) resolveSingle(ctx context.Context, segment string, files []models.FileCandidate) string {
	match := r.matchSegment(ctx, segment, files)
	if match.File == nil {
		return noFileMatchMessage
	}

	reply := "Here is the file you need: " + match.File.URL
	if followUp := r.followUpSentence(ctx); followUp != "" {
		reply += "\n" + followUp
	}
	return reply
}

func (r *FileResolver) resolveMulti(ctx context.Context, segments []string, files []models.FileCandidate) string {
	var lines []string
	var unresolved []string
	seen := make(map[string]bool)

	for _, segment := range segments {
		match := r.matchSegment(ctx, segment, files)
		if match.File == nil {
			unresolved = append(unresolved, strings.TrimSpace(segment))
			continue
		}
		if seen[match.File.URL] {
			continue
		}
		seen[match.File.URL] = true
		lines = append(lines, fmt.Sprintf("%s: %s", match.File.Name, match.File.URL))
	}

	if len(lines) == 0 {
		return noFileMatchMessage
	}

	reply := "Here are the files you need:\n" + strings.Join(lines, "\n")
	if len(unresolved) > 0 {
		reply += "\nI could not find a match for: " + strings.Join(unresolved, ", ") + "."
	}
	return reply
}

// matchSegment resolves one request segment. The numeric form code is
// extracted before any alias rewriting and short-circuits to a direct
// substring scan in listing order; only codeless requests pay for
// embedding comparisons.
func (r *FileResolver) matchSegment(ctx context.Context, segment string, files []models.FileCandidate) MatchResult {
	if code := formCodePattern.FindString(separatorReplacer.Replace(segment)); code != "" {
		for i := range files {
			if strings.Contains(files[i].Name, code) {
				return MatchResult{File: &files[i], Score: 1.0}
			}
		}
		return MatchResult{}
	}

	queryVector, err := r.embedder.Embed(ctx, normalizeFileQuery(segment))
	if err != nil {
		log.Printf("⚠️  [FILES] Failed to embed query: %v", err)
		return MatchResult{}
	}

	best := MatchResult{Score: -1}
	for i := range files {
		nameVector, err := r.embedder.Embed(ctx, normalizeFileQuery(files[i].Name))
		if err != nil {
			continue
		}
		score := services.CosineSimilarity(queryVector, nameVector)
		if score > best.Score {
			best = MatchResult{File: &files[i], Score: score}
		}
	}

	// Below the confidence threshold we do not guess
	if best.File == nil || best.Score < r.threshold {
		return MatchResult{Score: best.Score}
	}
	return best
}

// followUpSentence asks the model for one short friendly closing line. A
// model failure just drops the nicety; the link already answered the user.
func (r *FileResolver) followUpSentence(ctx context.Context) string {
	sentence, err := r.llm.GenerateInstruction(ctx,
		"Write one short friendly sentence telling the user you are happy to help with anything else they need. "+
			"Do not ask a question. Do not include a link. Maximum 1 sentence.")
	if err != nil {
		return ""
	}
	return sentence
}

// normalizeFileQuery lower-cases, turns hyphens and underscores into
// spaces, and maps whole-token agency aliases onto the canonical names
// used in stored file names.
func normalizeFileQuery(query string) string {
	normalized := separatorReplacer.Replace(strings.ToLower(query))
	// "pag-ibig" arrives as two tokens after separator replacement
	normalized = strings.ReplaceAll(normalized, "pag ibig", "pagibig")

	fields := strings.Fields(normalized)
	for i, field := range fields {
		for _, synonym := range fileSynonyms {
			if field == synonym.alias {
				fields[i] = synonym.canonical
				break
			}
		}
	}
	return strings.Join(fields, " ")
}

// isAmbiguousCategoryRequest is true for generic agency requests ("bir",
// "tax form") that carry no numeric form code to disambiguate.
func isAmbiguousCategoryRequest(q string) bool {
	spaced := separatorReplacer.Replace(q)
	if formCodePattern.MatchString(spaced) {
		return false
	}
	return birWordPattern.MatchString(spaced) || strings.Contains(q, "tax form")
}

// splitRequestSegments breaks a multi-item request into independently
// resolvable segments: explicit separators first ("and", commas), then two
// or more distinct form codes, then two or more distinct form categories.
func splitRequestSegments(q string) []string {
	var segments []string
	for _, part := range segmentSplitPattern.Split(q, -1) {
		if trimmed := strings.TrimSpace(part); trimmed != "" {
			segments = append(segments, trimmed)
		}
	}
	if len(segments) > 1 {
		return segments
	}

	if codes := distinctFormCodes(q); len(codes) >= 2 {
		return codes
	}

	normalized := normalizeFileQuery(q)
	var categories []string
	for _, category := range fileCategories {
		if strings.Contains(normalized, category) {
			categories = append(categories, category)
		}
	}
	if dedup := dedupeStrings(categories); len(dedup) >= 2 {
		return dedup
	}

	if len(segments) == 0 {
		return []string{q}
	}
	return segments
}

func distinctFormCodes(q string) []string {
	return dedupeStrings(formCodePattern.FindAllString(separatorReplacer.Replace(q), -1))
}

func dedupeStrings(values []string) []string {
	seen := make(map[string]bool, len(values))
	var out []string
	for _, v := range values {
		if !seen[v] {
			seen[v] = true
			out = append(out, v)
		}
	}
	return out
}
