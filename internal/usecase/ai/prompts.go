package ai

import (
	"fmt"
	"strings"

	"github.com/kailas-cloud/kbase/internal/domain"
)

func summaryPrompt(content string) string {
	return fmt.Sprintf(`Please provide a concise summary of the following document content in 2-3 sentences:

%s

Summary:`, content)
}

func tagsPrompt(content string) string {
	return fmt.Sprintf(`Analyze the following document content and generate 3-5 relevant tags. `+
		`Return only the tags separated by commas, no additional text:

%s

Tags:`, content)
}

func answerPrompt(question string, corpus []domain.CorpusEntry) string {
	var b strings.Builder
	for i, e := range corpus {
		if i > 0 {
			b.WriteByte('\n')
		}
		fmt.Fprintf(&b, "Title: %s\nContent: %s\nTags: %s\n---", e.Title, e.Content, strings.Join(e.Tags, ", "))
	}

	return fmt.Sprintf(`Based on the following knowledge base documents, please answer the question. `+
		`If the answer cannot be found in the documents, please say so.

Knowledge Base:
%s

Question: %s

Answer:`, b.String(), question)
}

// parseTags splits a comma-separated reply, trimming entries and dropping
// empties and duplicates.
func parseTags(reply string) []string {
	seen := make(map[string]struct{})
	var out []string
	for _, t := range strings.Split(reply, ",") {
		t = strings.TrimSpace(t)
		if t == "" {
			continue
		}
		if _, ok := seen[t]; ok {
			continue
		}
		seen[t] = struct{}{}
		out = append(out, t)
	}
	return out
}
