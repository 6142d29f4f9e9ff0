package openai

import (
	"encoding/json"
	"errors"
	"fmt"
	"time"

	openai "github.com/sashabaranov/go-openai"

	"github.com/kailas-cloud/kbase/internal/domain"
	"github.com/kailas-cloud/kbase/internal/metrics"
)

// Config holds the OpenAI-compatible provider settings shared by the
// embedder and the chat generator.
type Config struct {
	APIKey         string
	BaseURL        string
	Provider       string
	ChatModel      string
	EmbeddingModel string
	Dimensions     int
	MaxTokens      int
	Temperature    float32
	User           string
}

func newClient(cfg *Config) *openai.Client {
	clientCfg := openai.DefaultConfig(cfg.APIKey)
	if cfg.BaseURL != "" {
		clientCfg.BaseURL = cfg.BaseURL
	}
	return openai.NewClientWithConfig(clientCfg)
}

// observe records request count and latency for one provider call.
func observe(provider, model, op string, start time.Time, err error) {
	status := "success"
	if err != nil {
		status = "error"
	}
	metrics.AIRequestsTotal.WithLabelValues(provider, model, op, status).Inc()
	metrics.AIRequestDuration.WithLabelValues(provider, model, op).Observe(time.Since(start).Seconds())
}

func countTokens(provider, model string, prompt, completion, total int) {
	if total <= 0 {
		return
	}
	metrics.AITokensTotal.WithLabelValues(provider, model, "prompt").Add(float64(prompt))
	if completion > 0 {
		metrics.AITokensTotal.WithLabelValues(provider, model, "completion").Add(float64(completion))
	}
	metrics.AITokensTotal.WithLabelValues(provider, model, "total").Add(float64(total))
}

// parseAPIError extracts a human-readable error from the API response.
// All errors are wrapped with domain.ErrAIService for correct 502 mapping.
func parseAPIError(op string, err error) error {
	wrap := domain.ErrAIService

	var reqErr *openai.RequestError
	if errors.As(err, &reqErr) {
		detail := extractDetail(reqErr.Body)
		if detail == "" {
			detail = string(reqErr.Body)
		}
		return fmt.Errorf("%s API error %d: %s: %w", op, reqErr.HTTPStatusCode, detail, wrap)
	}

	var apiErr *openai.APIError
	if errors.As(err, &apiErr) {
		return fmt.Errorf("%s API error %d: %s: %w", op, apiErr.HTTPStatusCode, apiErr.Message, wrap)
	}

	return fmt.Errorf("%s request failed: %w: %w", op, wrap, err)
}

// extractDetail extracts the "detail" field from a JSON error body (Nebius error format).
func extractDetail(body []byte) string {
	var parsed struct {
		Detail string `json:"detail"`
	}
	if json.Unmarshal(body, &parsed) == nil && parsed.Detail != "" {
		return parsed.Detail
	}
	return ""
}
