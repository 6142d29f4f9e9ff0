package ai

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"go.uber.org/zap"

	"github.com/kailas-cloud/kbase/internal/domain"
)

// DefaultTimeout bounds a single provider call when none is configured.
const DefaultTimeout = 30 * time.Second

// Gateway is the single entry point to the AI provider. Every call is
// bounded by a timeout and every failure surfaces as domain.ErrAIService,
// except EmbedBestEffort which degrades to an empty vector.
type Gateway struct {
	gen      domain.Generator
	emb      domain.Embedder
	timeout  time.Duration
	fallback prometheus.Counter
	logger   *zap.Logger
}

// New creates a Gateway. fallback may be nil.
func New(
	gen domain.Generator,
	emb domain.Embedder,
	timeout time.Duration,
	fallback prometheus.Counter,
	logger *zap.Logger,
) *Gateway {
	if timeout <= 0 {
		timeout = DefaultTimeout
	}
	return &Gateway{gen: gen, emb: emb, timeout: timeout, fallback: fallback, logger: logger}
}

// Summarize returns a 2-3 sentence synopsis of content.
func (g *Gateway) Summarize(ctx context.Context, content string) (string, error) {
	text, err := g.generate(ctx, summaryPrompt(content))
	if err != nil {
		return "", fmt.Errorf("generate summary: %w", err)
	}
	if text == "" {
		return "", fmt.Errorf("generate summary: empty reply: %w", domain.ErrAIService)
	}
	return text, nil
}

// ExtractTags returns 3-5 suggested tags for content.
func (g *Gateway) ExtractTags(ctx context.Context, content string) ([]string, error) {
	text, err := g.generate(ctx, tagsPrompt(content))
	if err != nil {
		return nil, fmt.Errorf("generate tags: %w", err)
	}
	tags := parseTags(text)
	if len(tags) == 0 {
		return nil, fmt.Errorf("generate tags: no tags in reply: %w", domain.ErrAIService)
	}
	return tags, nil
}

// Answer answers question using corpus as the only context.
func (g *Gateway) Answer(ctx context.Context, question string, corpus []domain.CorpusEntry) (string, error) {
	text, err := g.generate(ctx, answerPrompt(question, corpus))
	if err != nil {
		return "", fmt.Errorf("answer question: %w", err)
	}
	if text == "" {
		return "", fmt.Errorf("answer question: empty reply: %w", domain.ErrAIService)
	}
	return text, nil
}

// Embed returns the embedding of text. Failures are returned.
func (g *Gateway) Embed(ctx context.Context, text string) ([]float32, error) {
	ctx, cancel := context.WithTimeout(ctx, g.timeout)
	defer cancel()

	res, err := g.emb.Embed(ctx, text)
	if err != nil {
		return nil, fmt.Errorf("embed: %w", asAIError(err))
	}
	if len(res.Embedding) == 0 {
		return nil, fmt.Errorf("embed: empty vector: %w", domain.ErrAIService)
	}
	return res.Embedding, nil
}

// EmbedBestEffort returns the embedding of text, or an empty vector when
// the provider fails. Mutations must not fail because of embeddings.
func (g *Gateway) EmbedBestEffort(ctx context.Context, text string) []float32 {
	vec, err := g.Embed(ctx, text)
	if err != nil {
		g.logger.Warn("Embedding unavailable, continuing without it", zap.Error(err))
		if g.fallback != nil {
			g.fallback.Inc()
		}
		return nil
	}
	return vec
}

func (g *Gateway) generate(ctx context.Context, prompt string) (string, error) {
	ctx, cancel := context.WithTimeout(ctx, g.timeout)
	defer cancel()

	res, err := g.gen.Generate(ctx, prompt)
	if err != nil {
		return "", asAIError(err)
	}
	return strings.TrimSpace(res.Text), nil
}

// asAIError makes sure provider failures, timeouts included, carry ErrAIService.
func asAIError(err error) error {
	if errors.Is(err, domain.ErrAIService) {
		return err
	}
	return fmt.Errorf("%w: %w", domain.ErrAIService, err)
}
