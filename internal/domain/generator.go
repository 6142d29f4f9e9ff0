package domain

import "context"

// Generator produces text completions from a prompt. The provider adapter
// owns the transport; prompt construction lives in the AI gateway.
type Generator interface {
	Generate(ctx context.Context, prompt string) (GenerationResult, error)
}

// GenerationResult carries a completion and its token usage.
type GenerationResult struct {
	Text             string
	PromptTokens     int
	CompletionTokens int
}

// CorpusEntry is one knowledge-base document handed to the answer prompt.
type CorpusEntry struct {
	Title   string
	Content string
	Tags    []string
}
