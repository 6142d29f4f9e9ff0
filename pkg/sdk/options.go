package kbase

import (
	"log/slog"
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

// Option configures the Client.
type Option interface {
	apply(*clientConfig)
}

// optionFunc adapts a function to the Option interface.
type optionFunc func(*clientConfig)

func (f optionFunc) apply(c *clientConfig) { f(c) }

type openAIConfig struct {
	apiKey         string
	baseURL        string
	chatModel      string
	embeddingModel string
}

type clientConfig struct {
	driver    string // "redis", "postgres" or "memory"
	addrs     []string
	password  string
	dsn       string
	keyPrefix string

	embedder  Embedder
	generator Generator
	openAI    *openAIConfig
	aiTimeout time.Duration

	defaultPageSize int
	maxPageSize     int

	logger     *slog.Logger
	metricsReg prometheus.Registerer
}

// WithRedis stores documents as JSON in a Redis instance.
func WithRedis(addr, password string) Option {
	return optionFunc(func(c *clientConfig) {
		c.driver = "redis"
		c.addrs = []string{addr}
		c.password = password
	})
}

// WithPostgres stores documents in Postgres. The schema is created on connect.
func WithPostgres(dsn string) Option {
	return optionFunc(func(c *clientConfig) {
		c.driver = "postgres"
		c.dsn = dsn
	})
}

// WithMemory keeps documents in process memory. Useful for tests.
func WithMemory() Option {
	return optionFunc(func(c *clientConfig) {
		c.driver = "memory"
	})
}

// WithKeyPrefix namespaces Redis keys and Postgres tables. Default: "kbase:".
func WithKeyPrefix(prefix string) Option {
	return optionFunc(func(c *clientConfig) {
		c.keyPrefix = prefix
	})
}

// WithOpenAI uses an OpenAI-compatible API for completions and embeddings.
// An empty baseURL means api.openai.com.
func WithOpenAI(apiKey, baseURL string) Option {
	return optionFunc(func(c *clientConfig) {
		if c.openAI == nil {
			c.openAI = &openAIConfig{}
		}
		c.openAI.apiKey = apiKey
		c.openAI.baseURL = baseURL
	})
}

// WithModels overrides the OpenAI chat and embedding models.
// Defaults: gpt-4o-mini and text-embedding-3-small.
func WithModels(chat, embedding string) Option {
	return optionFunc(func(c *clientConfig) {
		if c.openAI == nil {
			c.openAI = &openAIConfig{}
		}
		c.openAI.chatModel = chat
		c.openAI.embeddingModel = embedding
	})
}

// WithEmbedder sets a custom embedding provider. Takes precedence over WithOpenAI.
func WithEmbedder(e Embedder) Option {
	return optionFunc(func(c *clientConfig) {
		c.embedder = e
	})
}

// WithGenerator sets a custom completion provider. Takes precedence over WithOpenAI.
func WithGenerator(g Generator) Option {
	return optionFunc(func(c *clientConfig) {
		c.generator = g
	})
}

// WithAITimeout bounds every AI call. Default: 30s.
func WithAITimeout(d time.Duration) Option {
	return optionFunc(func(c *clientConfig) {
		c.aiTimeout = d
	})
}

// WithPagination sets the default and maximum page sizes for List.
// Defaults: 10 and 100.
func WithPagination(defaultSize, maxSize int) Option {
	return optionFunc(func(c *clientConfig) {
		c.defaultPageSize = defaultSize
		c.maxPageSize = maxSize
	})
}

// WithLogger enables structured logging for SDK operations.
// Pass nil to disable (default). Uses standard library slog.
func WithLogger(l *slog.Logger) Option {
	return optionFunc(func(c *clientConfig) {
		c.logger = l
	})
}

// WithPrometheus registers SDK metrics (operation counts and durations)
// on the given registerer. Pass nil to disable (default).
func WithPrometheus(reg prometheus.Registerer) Option {
	return optionFunc(func(c *clientConfig) {
		c.metricsReg = reg
	})
}
