package kbase

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/kailas-cloud/kbase/internal/db/postgres"
	dbRedis "github.com/kailas-cloud/kbase/internal/db/redis"
	"github.com/kailas-cloud/kbase/internal/domain"
	documentrepo "github.com/kailas-cloud/kbase/internal/repository/document"
	openaiTransport "github.com/kailas-cloud/kbase/internal/transport/openai"
	aiuc "github.com/kailas-cloud/kbase/internal/usecase/ai"
	documentuc "github.com/kailas-cloud/kbase/internal/usecase/document"
	enrichmentuc "github.com/kailas-cloud/kbase/internal/usecase/enrichment"
	healthuc "github.com/kailas-cloud/kbase/internal/usecase/health"
	searchuc "github.com/kailas-cloud/kbase/internal/usecase/search"
)

const (
	defaultReadinessTimeout = 10 * time.Second
	defaultKeyPrefix        = "kbase:"
)

// Client is the kbase SDK entry point.
type Client struct {
	pinger    healthuc.Pinger
	closeFn   func()
	docSvc    *documentuc.Service
	searchSvc *searchuc.Service
	enrichSvc *enrichmentuc.Service
	healthSvc *healthuc.Service
	obs       *observer
}

// backing is an opened document store.
type backing struct {
	repo   documentuc.Repository
	pinger healthuc.Pinger
	close  func()
}

// New creates a kbase Client and connects to the configured store.
// The provided context is used for the initial readiness check.
func New(ctx context.Context, opts ...Option) (*Client, error) {
	cfg := &clientConfig{keyPrefix: defaultKeyPrefix}
	for _, o := range opts {
		o.apply(cfg)
	}

	if cfg.driver == "" {
		return nil, errors.New("kbase: storage required (use WithRedis, WithPostgres or WithMemory)")
	}

	obs, err := newObserver(cfg.logger, cfg.metricsReg)
	if err != nil {
		return nil, err
	}

	b, err := openBacking(ctx, cfg)
	if err != nil {
		return nil, err
	}
	return wireClient(b, cfg, obs), nil
}

func openBacking(ctx context.Context, cfg *clientConfig) (*backing, error) {
	switch cfg.driver {
	case "redis":
		s, err := dbRedis.NewStore(dbRedis.Config{
			Addrs:    cfg.addrs,
			Password: cfg.password,
		})
		if err != nil {
			return nil, fmt.Errorf("kbase: create redis store: %w", err)
		}
		if err := s.WaitForReady(ctx, defaultReadinessTimeout); err != nil {
			s.Close()
			return nil, fmt.Errorf("kbase: database not ready: %w", err)
		}
		return &backing{repo: documentrepo.New(s, cfg.keyPrefix), pinger: s, close: s.Close}, nil
	case "postgres":
		pool, err := postgres.Connect(ctx, postgres.Config{DSN: cfg.dsn})
		if err != nil {
			return nil, fmt.Errorf("kbase: connect postgres: %w", err)
		}
		if err := postgres.WaitForReady(ctx, pool, defaultReadinessTimeout); err != nil {
			pool.Close()
			return nil, fmt.Errorf("kbase: database not ready: %w", err)
		}
		tables := postgres.NewTables(tablePrefix(cfg.keyPrefix))
		if err := postgres.Migrate(ctx, pool, tables); err != nil {
			pool.Close()
			return nil, fmt.Errorf("kbase: migrate: %w", err)
		}
		return &backing{repo: documentrepo.NewPostgres(pool, tables), pinger: pool, close: pool.Close}, nil
	case "memory":
		return &backing{repo: documentrepo.NewMemory(), pinger: healthuc.NopPinger{}, close: func() {}}, nil
	default:
		return nil, fmt.Errorf("kbase: unknown driver %q", cfg.driver)
	}
}

// tablePrefix turns a key prefix such as "kbase:" into "kbase_".
func tablePrefix(keyPrefix string) string {
	if n := len(keyPrefix); n > 0 && keyPrefix[n-1] == ':' {
		return keyPrefix[:n-1] + "_"
	}
	return keyPrefix
}

func wireClient(b *backing, cfg *clientConfig, obs *observer) *Client {
	var (
		emb     domain.Embedder  = noopEmbedder{}
		gen     domain.Generator = noopGenerator{}
		checker healthuc.ProviderChecker
	)
	if cfg.openAI != nil {
		oa := &openaiTransport.Config{
			APIKey:         cfg.openAI.apiKey,
			BaseURL:        cfg.openAI.baseURL,
			Provider:       "openai",
			ChatModel:      withDefault(cfg.openAI.chatModel, "gpt-4o-mini"),
			EmbeddingModel: withDefault(cfg.openAI.embeddingModel, "text-embedding-3-small"),
		}
		e := openaiTransport.NewEmbedder(oa)
		emb, gen, checker = e, openaiTransport.NewGenerator(oa), e
	}
	if cfg.embedder != nil {
		emb = &embedderAdapter{inner: cfg.embedder}
		checker = nil
		if hc, ok := cfg.embedder.(domain.HealthChecker); ok {
			checker = hc
		}
	}
	if cfg.generator != nil {
		gen = &generatorAdapter{inner: cfg.generator}
	}

	gateway := aiuc.New(gen, emb, cfg.aiTimeout, obs.fallbackCounter(), zap.NewNop())

	docSvc := documentuc.New(b.repo, gateway)
	if cfg.defaultPageSize > 0 && cfg.maxPageSize >= cfg.defaultPageSize {
		docSvc = docSvc.WithPagination(cfg.defaultPageSize, cfg.maxPageSize)
	}

	return &Client{
		pinger:    b.pinger,
		closeFn:   b.close,
		docSvc:    docSvc,
		searchSvc: searchuc.New(b.repo, gateway),
		enrichSvc: enrichmentuc.New(gateway, docSvc, b.repo),
		healthSvc: healthuc.New(b.pinger, checker, 0),
		obs:       obs,
	}
}

func withDefault(v, def string) string {
	if v == "" {
		return def
	}
	return v
}

// Close releases all resources.
func (c *Client) Close() {
	if c.closeFn != nil {
		c.closeFn()
	}
}

// Ping checks database connectivity.
func (c *Client) Ping(ctx context.Context) (err error) {
	start := time.Now()
	defer func() { c.obs.observe("ping", start, err) }()

	if err = c.pinger.Ping(ctx); err != nil {
		return fmt.Errorf("ping: %w", err)
	}
	return nil
}

// Health checks the health of all system components.
func (c *Client) Health(ctx context.Context) HealthStatus {
	report := c.healthSvc.Check(ctx)
	checks := make(map[string]string, len(report.Checks))
	for k, v := range report.Checks {
		checks[k] = string(v)
	}
	return HealthStatus{
		Status: string(report.Status),
		Checks: checks,
	}
}

// Documents returns the document service acting as user.
func (c *Client) Documents(user User) *DocumentService {
	return &DocumentService{user: toDomainUser(user), svc: c.docSvc, obs: c.obs}
}

// Search returns the search service. Searching needs no identity.
func (c *Client) Search() *SearchService {
	return &SearchService{svc: c.searchSvc, obs: c.obs}
}

// Assistant returns the AI service acting as user.
func (c *Client) Assistant(user User) *AssistantService {
	return &AssistantService{user: toDomainUser(user), svc: c.enrichSvc, obs: c.obs}
}

// embedderAdapter wraps public Embedder to satisfy internal domain.Embedder.
type embedderAdapter struct {
	inner Embedder
}

func (a *embedderAdapter) Embed(ctx context.Context, text string) (domain.EmbeddingResult, error) {
	r, err := a.inner.Embed(ctx, text)
	if err != nil {
		return domain.EmbeddingResult{}, fmt.Errorf("embed: %w", err)
	}
	return domain.EmbeddingResult{
		Embedding:    r.Embedding,
		PromptTokens: r.PromptTokens,
		TotalTokens:  r.TotalTokens,
	}, nil
}

// generatorAdapter wraps public Generator to satisfy internal domain.Generator.
type generatorAdapter struct {
	inner Generator
}

func (a *generatorAdapter) Generate(ctx context.Context, prompt string) (domain.GenerationResult, error) {
	text, err := a.inner.Generate(ctx, prompt)
	if err != nil {
		return domain.GenerationResult{}, fmt.Errorf("generate: %w", err)
	}
	return domain.GenerationResult{Text: text}, nil
}

var errNoProvider = errors.New("kbase: AI provider not configured (use WithOpenAI, WithEmbedder or WithGenerator)")

// noopEmbedder fails every call; documents are then stored without embeddings.
type noopEmbedder struct{}

func (noopEmbedder) Embed(context.Context, string) (domain.EmbeddingResult, error) {
	return domain.EmbeddingResult{}, errNoProvider
}

type noopGenerator struct{}

func (noopGenerator) Generate(context.Context, string) (domain.GenerationResult, error) {
	return domain.GenerationResult{}, errNoProvider
}
