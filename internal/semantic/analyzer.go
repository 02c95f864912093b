// Package semantic scores content records for technical complexity, AI-assistance
// likelihood, and topic signal, with an embedding-backed strategy and a lexical
// fallback that share one contract.
package semantic

import (
	"context"

	"go.uber.org/zap"

	"github.com/devpulse/backend/internal/model"
	"github.com/devpulse/backend/pkg/logger"
)

// Analyzer is the common contract of both strategies. Switching strategies
// changes result values, never result shape.
type Analyzer interface {
	Name() string
	AnalyzeBatch(ctx context.Context, records []model.ContentRecord) ([]model.SemanticResult, error)
	Similarity(ctx context.Context, a, b model.ContentRecord) (float64, error)
}

// RunAnalyzer binds a primary strategy to the lexical fallback for the
// lifetime of one run. The first primary failure permanently downgrades the
// run: the whole batch is re-analyzed lexically so no mixed-strategy results
// ever appear in one output, and the run is flagged degraded.
type RunAnalyzer struct {
	active   Analyzer
	fallback *LexicalAnalyzer
	degraded bool
}

// NewForRun builds the analyzer for a single run. embeddingAvailable is the
// capability-probe result supplied by the caller; when false, or when no
// embedder is configured, the run starts on the lexical strategy outright
// (that is selection, not degradation).
func NewForRun(embedder Embedder, embeddingAvailable bool) *RunAnalyzer {
	fallback := NewLexicalAnalyzer()

	var active Analyzer = fallback
	if embeddingAvailable && embedder != nil {
		active = NewEmbeddingAnalyzer(embedder)
	}

	return &RunAnalyzer{active: active, fallback: fallback}
}

func (r *RunAnalyzer) Strategy() string { return r.active.Name() }

// Degraded reports whether the embedding strategy failed mid-run.
func (r *RunAnalyzer) Degraded() bool { return r.degraded }

func (r *RunAnalyzer) AnalyzeBatch(ctx context.Context, records []model.ContentRecord) ([]model.SemanticResult, error) {
	results, err := r.active.AnalyzeBatch(ctx, records)
	if err == nil {
		return results, nil
	}
	if ctx.Err() != nil {
		return nil, ctx.Err()
	}

	r.downgrade(err)
	return r.active.AnalyzeBatch(ctx, records)
}

func (r *RunAnalyzer) Similarity(ctx context.Context, a, b model.ContentRecord) (float64, error) {
	sim, err := r.active.Similarity(ctx, a, b)
	if err == nil {
		return sim, nil
	}
	if ctx.Err() != nil {
		return 0, ctx.Err()
	}

	r.downgrade(err)
	return r.active.Similarity(ctx, a, b)
}

func (r *RunAnalyzer) downgrade(cause error) {
	if _, lexical := r.active.(*LexicalAnalyzer); lexical {
		return
	}

	logger.Warn("Embedding strategy failed, downgrading run to lexical analysis",
		zap.Error(cause),
	)
	r.active = r.fallback
	r.degraded = true
}
