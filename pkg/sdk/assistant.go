package kbase

import (
	"context"
	"fmt"
	"time"

	"github.com/kailas-cloud/kbase/internal/domain"
	enrichmentuc "github.com/kailas-cloud/kbase/internal/usecase/enrichment"
)

// AssistantService runs AI operations on behalf of one user.
type AssistantService struct {
	user domain.User
	svc  *enrichmentuc.Service
	obs  *observer
}

// Summarize generates a summary for a stored document and saves it.
func (s *AssistantService) Summarize(ctx context.Context, id string) (_ Document, err error) {
	start := time.Now()
	defer func() { s.obs.observe("ai_summarize", start, err) }()

	d, err := s.svc.SummarizeAndStore(ctx, id, s.user)
	if err != nil {
		return Document{}, fmt.Errorf("summarize: %w", err)
	}
	return fromInternalDocument(d), nil
}

// Tag suggests tags for a stored document and merges them in.
func (s *AssistantService) Tag(ctx context.Context, id string) (_ Document, err error) {
	start := time.Now()
	defer func() { s.obs.observe("ai_tag", start, err) }()

	d, err := s.svc.TagAndStore(ctx, id, s.user)
	if err != nil {
		return Document{}, fmt.Errorf("tag: %w", err)
	}
	return fromInternalDocument(d), nil
}

// SuggestSummary summarizes arbitrary content without storing anything.
func (s *AssistantService) SuggestSummary(ctx context.Context, content string) (_ string, err error) {
	start := time.Now()
	defer func() { s.obs.observe("ai_suggest_summary", start, err) }()

	summary, err := s.svc.Summarize(ctx, content)
	if err != nil {
		return "", fmt.Errorf("suggest summary: %w", err)
	}
	return summary, nil
}

// SuggestTags proposes tags for arbitrary content without storing anything.
func (s *AssistantService) SuggestTags(ctx context.Context, content string) (_ []string, err error) {
	start := time.Now()
	defer func() { s.obs.observe("ai_suggest_tags", start, err) }()

	tags, err := s.svc.SuggestTags(ctx, content)
	if err != nil {
		return nil, fmt.Errorf("suggest tags: %w", err)
	}
	return tags, nil
}

// Ask answers a question using every stored document as context.
func (s *AssistantService) Ask(ctx context.Context, question string) (_ string, err error) {
	start := time.Now()
	defer func() { s.obs.observe("ai_ask", start, err) }()

	answer, err := s.svc.Ask(ctx, question)
	if err != nil {
		return "", fmt.Errorf("ask: %w", err)
	}
	return answer, nil
}
