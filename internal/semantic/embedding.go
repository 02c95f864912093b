package semantic

import (
	"context"
	"fmt"
	"math"
	"sort"

	"github.com/devpulse/backend/internal/model"
)

// Embedder produces one dense vector per input text. Satisfied by the
// llm.Client; tests inject stubs.
type Embedder interface {
	EmbedBatch(ctx context.Context, texts []string) ([][]float32, error)
}

// Complexity is read off the cosine neighborhood of the complex-exemplar
// corpus: similarity at or below the floor maps to 0, at or above the
// ceiling to 100.
const (
	exemplarTopK      = 3
	similarityFloor   = 0.15
	similarityCeiling = 0.75
)

// EmbeddingAnalyzer represents texts as vectors from an external embedding
// provider. It embeds the whole batch (plus the exemplar corpus) in a single
// provider round trip; any provider error surfaces so the caller can fall
// back to the lexical strategy. Instances are run-scoped.
type EmbeddingAnalyzer struct {
	embedder  Embedder
	vectors   map[string][]float32
	exemplars [][]float32
}

func NewEmbeddingAnalyzer(embedder Embedder) *EmbeddingAnalyzer {
	return &EmbeddingAnalyzer{
		embedder: embedder,
		vectors:  map[string][]float32{},
	}
}

func (a *EmbeddingAnalyzer) Name() string { return "embedding" }

func (a *EmbeddingAnalyzer) AnalyzeBatch(ctx context.Context, records []model.ContentRecord) ([]model.SemanticResult, error) {
	texts := make([]string, 0, len(records)+len(complexExemplars))
	for _, rec := range records {
		texts = append(texts, recordText(rec))
	}
	texts = append(texts, complexExemplars...)

	vectors, err := a.embedder.EmbedBatch(ctx, texts)
	if err != nil {
		return nil, fmt.Errorf("embedding batch failed: %w", err)
	}
	if len(vectors) != len(texts) {
		return nil, fmt.Errorf("embedding count mismatch: got %d, expected %d", len(vectors), len(texts))
	}

	a.exemplars = vectors[len(records):]
	for i, rec := range records {
		a.vectors[rec.ID] = vectors[i]
	}

	results := make([]model.SemanticResult, len(records))
	for i, rec := range records {
		tokens, sentenceLens := tokenize(recordText(rec))
		results[i] = model.SemanticResult{
			RecordID:        rec.ID,
			ComplexityScore: a.exemplarComplexity(vectors[i], recordText(rec)),
			AILikelihood:    aiLikelihood(recordText(rec), sentenceLens),
			TopicTags:       topicTags(tokens),
		}
	}

	return results, nil
}

func (a *EmbeddingAnalyzer) Similarity(ctx context.Context, x, y model.ContentRecord) (float64, error) {
	vx, err := a.vectorFor(ctx, x)
	if err != nil {
		return 0, err
	}
	vy, err := a.vectorFor(ctx, y)
	if err != nil {
		return 0, err
	}
	return cosineVectors(vx, vy), nil
}

func (a *EmbeddingAnalyzer) vectorFor(ctx context.Context, rec model.ContentRecord) ([]float32, error) {
	if vec, ok := a.vectors[rec.ID]; ok {
		return vec, nil
	}

	vectors, err := a.embedder.EmbedBatch(ctx, []string{recordText(rec)})
	if err != nil {
		return nil, fmt.Errorf("embedding record %s failed: %w", rec.ID, err)
	}
	if len(vectors) != 1 {
		return nil, fmt.Errorf("embedding count mismatch: got %d, expected 1", len(vectors))
	}

	a.vectors[rec.ID] = vectors[0]
	return vectors[0], nil
}

// exemplarComplexity maps the mean similarity of the top-k exemplar
// neighbors to [0,100]. Empty text is zero regardless of its vector.
func (a *EmbeddingAnalyzer) exemplarComplexity(vec []float32, text string) float64 {
	if text == "" || len(a.exemplars) == 0 {
		return 0
	}

	sims := make([]float64, 0, len(a.exemplars))
	for _, ex := range a.exemplars {
		sims = append(sims, cosineVectors(vec, ex))
	}
	sort.Sort(sort.Reverse(sort.Float64Slice(sims)))

	k := exemplarTopK
	if k > len(sims) {
		k = len(sims)
	}
	var sum float64
	for _, s := range sims[:k] {
		sum += s
	}
	mean := sum / float64(k)

	score := (mean - similarityFloor) / (similarityCeiling - similarityFloor) * 100
	return math.Max(0, math.Min(100, score))
}

func cosineVectors(a, b []float32) float64 {
	if len(a) != len(b) {
		return 0
	}

	var dot, normA, normB float64
	for i := range a {
		dot += float64(a[i]) * float64(b[i])
		normA += float64(a[i]) * float64(a[i])
		normB += float64(b[i]) * float64(b[i])
	}

	if normA == 0 || normB == 0 {
		return 0
	}
	return dot / (math.Sqrt(normA) * math.Sqrt(normB))
}
