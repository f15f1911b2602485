package pipeline

import (
	"path/filepath"
	"strings"

	"github.com/paperbase/semsearch/internal/domain"
)

// MinTextLength is the shortest enriched text worth embedding. Anything
// shorter falls back to a trivial one-liner so providers never receive
// near-empty input.
const MinTextLength = 20

// ExpansionTable maps trigger substrings (matched case-insensitively against
// filename, description, and category) to fixed blocks of related terms.
// The table covers the document classes observed to need recall help; it is
// intentionally not configurable.
var ExpansionTable = []struct {
	Triggers []string
	Terms    string
}{
	{
		Triggers: []string{"dni", "passport", "id card", "identity", "license", "licence"},
		Terms:    "identity document national identification card personal id official document",
	},
	{
		Triggers: []string{"census", "censo", "electoral", "voting", "voter", "ballot"},
		Terms:    "electoral roll voter registration census record voting certificate",
	},
}

// BuildEmbeddingText assembles the enriched text a document is embedded from:
// labeled name, description, category, and type, plus keyword expansion for
// known document classes.
func BuildEmbeddingText(doc *domain.Document) string {
	var b strings.Builder

	name := normalizeFilename(doc.Name)
	if name != "" {
		b.WriteString("Filename: ")
		b.WriteString(name)
		b.WriteString(". ")
	}
	if doc.Description != "" {
		b.WriteString("Description: ")
		b.WriteString(doc.Description)
		b.WriteString(". ")
	}
	if doc.Category != "" {
		b.WriteString("Category: ")
		b.WriteString(doc.Category)
		b.WriteString(". ")
	}
	if doc.DocType != "" {
		b.WriteString("Type: ")
		b.WriteString(doc.DocType)
		b.WriteString(". ")
	}

	if terms := expandKeywords(doc); terms != "" {
		b.WriteString("Related: ")
		b.WriteString(terms)
		b.WriteString(".")
	}

	text := strings.TrimSpace(b.String())
	if len(text) < MinTextLength {
		return fallbackText(doc)
	}
	return text
}

// normalizeFilename strips the extension and turns separators into spaces.
func normalizeFilename(name string) string {
	base := strings.TrimSuffix(name, filepath.Ext(name))
	base = strings.NewReplacer("_", " ", "-", " ", ".", " ").Replace(base)
	return strings.Join(strings.Fields(base), " ")
}

func expandKeywords(doc *domain.Document) string {
	haystack := strings.ToLower(doc.Name + " " + doc.Description + " " + doc.Category)

	var blocks []string
	for _, entry := range ExpansionTable {
		for _, trigger := range entry.Triggers {
			if strings.Contains(haystack, trigger) {
				blocks = append(blocks, entry.Terms)
				break
			}
		}
	}
	return strings.Join(blocks, " ")
}

func fallbackText(doc *domain.Document) string {
	name := normalizeFilename(doc.Name)
	if name == "" {
		name = "untitled"
	}
	return "Document: " + name
}
