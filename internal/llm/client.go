package llm

import (
	"context"
	"fmt"
	"time"

	openai "github.com/sashabaranov/go-openai"
	"go.uber.org/zap"

	"github.com/devpulse/backend/internal/metrics"
	"github.com/devpulse/backend/pkg/circuitbreaker"
	"github.com/devpulse/backend/pkg/logger"
	"github.com/devpulse/backend/pkg/retry"
	"github.com/devpulse/backend/pkg/utils"
)

const embedBatchSize = 100

// EmbeddingCache stores embeddings keyed by a text hash. Implementations must
// treat a miss as (nil, false, nil), not an error.
type EmbeddingCache interface {
	GetEmbedding(ctx context.Context, textHash string) ([]float32, bool, error)
	SetEmbedding(ctx context.Context, textHash string, embedding []float32, ttl time.Duration) error
}

// Client wraps the OpenAI embeddings API with a timeout, retry, and a circuit
// breaker. It is the only component that talks to the external provider.
type Client struct {
	client      *openai.Client
	model       string
	timeout     time.Duration
	cache       EmbeddingCache
	cacheTTL    time.Duration
	cb          *circuitbreaker.CircuitBreaker
	retryConfig retry.Config
}

func NewClient(apiKey, model string, timeout time.Duration) *Client {
	cb := circuitbreaker.NewCircuitBreaker("embedding", circuitbreaker.Config{
		MaxRequests:      5,
		Timeout:          30 * time.Second,
		FailureThreshold: 5,
		SuccessThreshold: 2,
		Logger:           logger.GetLogger(),
	})

	retryConfig := retry.Config{
		MaxAttempts:    3,
		InitialDelay:   500 * time.Millisecond,
		MaxDelay:       5 * time.Second,
		Multiplier:     2.0,
		JitterFraction: 0.1,
		Logger:         logger.GetLogger(),
	}

	logger.Info("Embedding client initialized", zap.String("model", model))

	return &Client{
		client:      openai.NewClient(apiKey),
		model:       model,
		timeout:     timeout,
		cb:          cb,
		retryConfig: retryConfig,
	}
}

// WithCache attaches an embedding cache. A nil cache is a no-op.
func (c *Client) WithCache(cache EmbeddingCache, ttl time.Duration) *Client {
	c.cache = cache
	c.cacheTTL = ttl
	return c
}

// EmbedBatch returns one vector per input text, in input order. Cached texts
// are served locally; the rest go out in bounded sub-batches. Any provider
// failure surfaces as an error so callers can fall back.
func (c *Client) EmbedBatch(ctx context.Context, texts []string) ([][]float32, error) {
	if len(texts) == 0 {
		return nil, nil
	}

	ctx, cancel := context.WithTimeout(ctx, c.timeout)
	defer cancel()

	vectors := make([][]float32, len(texts))
	var missing []int

	for i, text := range texts {
		if cached, ok := c.fromCache(ctx, text); ok {
			vectors[i] = cached
			continue
		}
		missing = append(missing, i)
	}

	for start := 0; start < len(missing); start += embedBatchSize {
		end := start + embedBatchSize
		if end > len(missing) {
			end = len(missing)
		}
		idx := missing[start:end]

		batch := make([]string, len(idx))
		for j, i := range idx {
			batch[j] = texts[i]
		}

		embedded, err := c.embed(ctx, batch)
		if err != nil {
			return nil, err
		}
		if len(embedded) != len(idx) {
			return nil, fmt.Errorf("embedding count mismatch: got %d, expected %d", len(embedded), len(idx))
		}

		for j, i := range idx {
			vectors[i] = embedded[j]
			c.toCache(ctx, texts[i], embedded[j])
		}
	}

	logger.Debug("Batch embeddings resolved",
		zap.Int("total", len(texts)),
		zap.Int("fetched", len(missing)),
	)

	return vectors, nil
}

func (c *Client) embed(ctx context.Context, batch []string) ([][]float32, error) {
	return retry.DoWithResult(ctx, c.retryConfig, func() ([][]float32, error) {
		var out [][]float32

		err := c.cb.Execute(ctx, func() error {
			resp, err := c.client.CreateEmbeddings(
				ctx,
				openai.EmbeddingRequest{
					Input: batch,
					Model: openai.EmbeddingModel(c.model),
				},
			)
			if err != nil {
				return fmt.Errorf("failed to generate embeddings: %w", err)
			}

			metrics.EmbeddingTokensUsed.WithLabelValues(c.model).Add(float64(resp.Usage.TotalTokens))

			out = make([][]float32, 0, len(resp.Data))
			for _, data := range resp.Data {
				vec := make([]float32, len(data.Embedding))
				copy(vec, data.Embedding)
				out = append(out, vec)
			}
			return nil
		})

		return out, err
	})
}

func (c *Client) fromCache(ctx context.Context, text string) ([]float32, bool) {
	if c.cache == nil {
		return nil, false
	}
	vec, ok, err := c.cache.GetEmbedding(ctx, utils.HashString(text))
	if err != nil {
		logger.Warn("Embedding cache read failed", zap.Error(err))
		return nil, false
	}
	if ok {
		metrics.CacheHits.WithLabelValues("embedding").Inc()
	} else {
		metrics.CacheMisses.WithLabelValues("embedding").Inc()
	}
	return vec, ok
}

func (c *Client) toCache(ctx context.Context, text string, vec []float32) {
	if c.cache == nil {
		return
	}
	if err := c.cache.SetEmbedding(ctx, utils.HashString(text), vec, c.cacheTTL); err != nil {
		logger.Warn("Embedding cache write failed", zap.Error(err))
	}
}
