package document

import (
	"encoding/json"
	"fmt"
	"strings"

	"github.com/yuin/goldmark"
	"github.com/yuin/goldmark/ast"
	"github.com/yuin/goldmark/text"

	"noxy/internal/models"
	"noxy/internal/utils"
)

// File types accepted by the ingestion pipeline
const (
	FileTypeJSON     = "json"
	FileTypeMarkdown = "md"
	FileTypePDF      = "pdf"
)

// knowledge base JSON shapes observed in the wild; parsing is a closed set
// of format variants behind one entry point
type departmentKnowledgeBase struct {
	DepartmentKnowledgeBase *struct {
		Departments []struct {
			DepartmentName string `json:"departmentName"`
			FAQs           []struct {
				ID       string `json:"id"`
				Question string `json:"question"`
				Answer   string `json:"answer"`
			} `json:"faqs"`
		} `json:"departments"`
		CrossDepartmentFAQs []struct {
			ID                 string   `json:"id"`
			Question           string   `json:"question"`
			Answer             string   `json:"answer"`
			RelatedDepartments []string `json:"relatedDepartments"`
		} `json:"crossDepartmentFAQs"`
	} `json:"departmentKnowledgeBase"`
}

type categoryKnowledgeBase struct {
	KnowledgeBase *categoryRoot `json:"knowledgeBase"`
	categoryRoot
}

type categoryRoot struct {
	Categories []struct {
		CategoryName string `json:"categoryName"`
		Name         string `json:"name"`
		Entries      []struct {
			ID       string   `json:"id"`
			Question string   `json:"question"`
			Answer   string   `json:"answer"`
			Keywords []string `json:"keywords"`
		} `json:"entries"`
		Items []struct {
			ID      string `json:"id"`
			Title   string `json:"title"`
			Content string `json:"content"`
		} `json:"items"`
	} `json:"categories"`
}

// ParseKnowledgeDocument turns a raw downloaded file into loadable
// documents. The returned documents are unchunked; ChunkDocuments bounds
// them before indexing.
func ParseKnowledgeDocument(raw []byte, source, fileType string) ([]models.DocumentChunk, error) {
	switch fileType {
	case FileTypeJSON:
		return parseJSONKnowledge(raw, source)
	case FileTypeMarkdown:
		return parseMarkdownKnowledge(raw, source), nil
	case FileTypePDF:
		return parsePDFKnowledge(raw, source)
	default:
		return nil, fmt.Errorf("unsupported file type: %s", fileType)
	}
}

func parseJSONKnowledge(raw []byte, source string) ([]models.DocumentChunk, error) {
	// Format 1: departmentKnowledgeBase
	var departmental departmentKnowledgeBase
	if err := json.Unmarshal(raw, &departmental); err != nil {
		return nil, fmt.Errorf("invalid knowledge base JSON: %w", err)
	}

	if root := departmental.DepartmentKnowledgeBase; root != nil {
		var docs []models.DocumentChunk
		for _, dept := range root.Departments {
			for _, faq := range dept.FAQs {
				docs = append(docs, models.DocumentChunk{
					Text: fmt.Sprintf("QUESTION: %s\nANSWER: %s", faq.Question, faq.Answer),
					Metadata: models.ChunkMetadata{
						Source:   source,
						Type:     models.ChunkTypeDepartmentFAQ,
						Category: dept.DepartmentName,
					},
				})
			}
		}
		for _, faq := range root.CrossDepartmentFAQs {
			docs = append(docs, models.DocumentChunk{
				Text: fmt.Sprintf("%s\n%s", faq.Question, faq.Answer),
				Metadata: models.ChunkMetadata{
					Source:   source,
					Type:     models.ChunkTypeCrossDepartmentFAQ,
					Keywords: faq.RelatedDepartments,
				},
			})
		}
		return docs, nil
	}

	// Format 2: knowledgeBase.categories (or bare categories at the root)
	var categorized categoryKnowledgeBase
	if err := json.Unmarshal(raw, &categorized); err != nil {
		return nil, fmt.Errorf("invalid knowledge base JSON: %w", err)
	}

	root := categorized.categoryRoot
	if categorized.KnowledgeBase != nil {
		root = *categorized.KnowledgeBase
	}

	var docs []models.DocumentChunk
	for _, category := range root.Categories {
		for _, entry := range category.Entries {
			docs = append(docs, models.DocumentChunk{
				Text: fmt.Sprintf("Q: %s\nA: %s", entry.Question, entry.Answer),
				Metadata: models.ChunkMetadata{
					Source:   source,
					Type:     models.ChunkTypeEntry,
					Category: category.CategoryName,
					Keywords: entry.Keywords,
				},
			})
		}
		for _, item := range category.Items {
			docs = append(docs, models.DocumentChunk{
				Text: fmt.Sprintf("%s\n%s", item.Title, item.Content),
				Metadata: models.ChunkMetadata{
					Source:   source,
					Type:     models.ChunkTypeRequirementItem,
					Category: category.Name,
				},
			})
		}
	}

	return docs, nil
}

// parseMarkdownKnowledge expands bullet points into standalone sentences,
// then splits the document at headings. Sections shorter than 40 characters
// carry too little signal to index.
func parseMarkdownKnowledge(raw []byte, source string) []models.DocumentChunk {
	expanded := []byte(ExpandBulletPoints(string(raw)))

	var docs []models.DocumentChunk
	for _, section := range markdownSections(expanded) {
		if len(section) <= 40 {
			continue
		}
		docs = append(docs, models.DocumentChunk{
			Text: section,
			Metadata: models.ChunkMetadata{
				Source: source,
				Type:   models.ChunkTypeMarkdown,
			},
		})
	}
	return docs
}

// markdownSections walks the goldmark AST and gathers the source text of
// each heading-delimited section.
func markdownSections(src []byte) []string {
	parser := goldmark.New().Parser()
	root := parser.Parse(text.NewReader(src))

	var sections []string
	var current strings.Builder

	flush := func() {
		if section := strings.TrimSpace(current.String()); section != "" {
			sections = append(sections, section)
		}
		current.Reset()
	}

	for node := root.FirstChild(); node != nil; node = node.NextSibling() {
		if node.Kind() == ast.KindHeading {
			flush()
		}
		collectLines(node, src, &current)
		current.WriteString("\n")
	}
	flush()

	return sections
}

// collectLines writes the raw source text of a block node, descending into
// container blocks (lists, quotes) that carry no lines themselves.
func collectLines(node ast.Node, src []byte, out *strings.Builder) {
	lines := node.Lines()
	if lines.Len() == 0 {
		for child := node.FirstChild(); child != nil; child = child.NextSibling() {
			collectLines(child, src, out)
		}
		return
	}
	for i := 0; i < lines.Len(); i++ {
		segment := lines.At(i)
		out.Write(segment.Value(src))
	}
}

func parsePDFKnowledge(raw []byte, source string) ([]models.DocumentChunk, error) {
	extracted, err := utils.ExtractPDFText(raw)
	if err != nil {
		return nil, fmt.Errorf("failed to extract PDF text: %w", err)
	}
	if extracted == "" {
		return nil, nil
	}

	filename := source
	if idx := strings.LastIndex(source, "/"); idx >= 0 {
		filename = source[idx+1:]
	}

	return []models.DocumentChunk{{
		Text: fmt.Sprintf("PDF FILE: %s\n%s", filename, extracted),
		Metadata: models.ChunkMetadata{
			Source: source,
			Type:   models.ChunkTypePDF,
		},
	}}, nil
}
