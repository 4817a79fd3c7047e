package document

import (
	"strings"

	"noxy/internal/models"
)

const (
	chunkSize    = 500
	chunkOverlap = 50
)

// splitSeparators are tried in order, coarsest first
var splitSeparators = []string{"\n\n", "\n", " ", ""}

// ExpandBulletPoints rewrites markdown bullet items into full sentences so
// they carry enough context to be retrieved on their own.
func ExpandBulletPoints(text string) string {
	lines := strings.Split(text, "\n")
	expanded := make([]string, 0, len(lines))

	for _, line := range lines {
		trimmed := strings.TrimSpace(line)
		if strings.HasPrefix(trimmed, "- ") {
			expanded = append(expanded, strings.TrimPrefix(trimmed, "- ")+" is required as part of onboarding.")
		} else {
			expanded = append(expanded, line)
		}
	}

	return strings.Join(expanded, "\n")
}

// ChunkDocuments splits loaded documents into bounded chunks, assigning a
// running chunk index per source so (source, chunkIndex) stays unique.
func ChunkDocuments(docs []models.DocumentChunk) []models.DocumentChunk {
	var chunks []models.DocumentChunk
	index := 0

	for _, doc := range docs {
		for _, piece := range SplitText(doc.Text, chunkSize, chunkOverlap) {
			chunks = append(chunks, models.DocumentChunk{
				Text:       piece,
				ChunkIndex: index,
				Metadata:   doc.Metadata,
			})
			index++
		}
	}

	return chunks
}

// SplitText recursively splits text into pieces of at most size bytes,
// overlapping consecutive pieces by up to overlap bytes. Splits prefer
// paragraph breaks, then lines, then words.
func SplitText(text string, size, overlap int) []string {
	text = strings.TrimSpace(text)
	if text == "" {
		return nil
	}
	if len(text) <= size {
		return []string{text}
	}

	parts := splitBySeparator(text, size)

	// Merge parts into chunks up to size, carrying overlap between chunks
	var chunks []string
	var current string
	for _, part := range parts {
		if current == "" {
			current = part
			continue
		}
		if len(current)+len(part) <= size {
			current += part
			continue
		}

		chunks = append(chunks, strings.TrimSpace(current))
		tail := current
		if len(tail) > overlap {
			tail = tail[len(tail)-overlap:]
		}
		// Drop the overlap rather than exceed the size bound
		if len(tail)+len(part) > size {
			tail = ""
		}
		current = tail + part
	}
	if trimmed := strings.TrimSpace(current); trimmed != "" {
		chunks = append(chunks, trimmed)
	}

	return chunks
}

// splitBySeparator breaks text on the coarsest separator that yields pieces
// no larger than size, recursing on oversized pieces.
func splitBySeparator(text string, size int) []string {
	for _, sep := range splitSeparators {
		if sep == "" {
			return splitEvery(text, size)
		}
		if !strings.Contains(text, sep) {
			continue
		}

		raw := strings.SplitAfter(text, sep)
		var parts []string
		for _, piece := range raw {
			if piece == "" {
				continue
			}
			if len(piece) > size {
				parts = append(parts, splitBySeparator(piece, size)...)
			} else {
				parts = append(parts, piece)
			}
		}
		return parts
	}
	return splitEvery(text, size)
}

func splitEvery(text string, size int) []string {
	var parts []string
	for len(text) > size {
		parts = append(parts, text[:size])
		text = text[size:]
	}
	if text != "" {
		parts = append(parts, text)
	}
	return parts
}
