// Package engine orchestrates one analysis run end to end: normalize the raw
// batch into snapshots, analyze the authored content, score the peer set, and
// aggregate the team summary. A run either completes fully or fails; no
// partial result is ever returned or persisted.
package engine

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/devpulse/backend/internal/insight"
	"github.com/devpulse/backend/internal/metrics"
	"github.com/devpulse/backend/internal/model"
	"github.com/devpulse/backend/internal/normalize"
	"github.com/devpulse/backend/internal/scoring"
	"github.com/devpulse/backend/internal/semantic"
	"github.com/devpulse/backend/pkg/logger"
)

var (
	ErrNoEngineers   = errors.New("batch yields no engineers to score")
	ErrInvalidWindow = errors.New("window start must precede window end")
)

// RunStore persists completed runs and serves the prior summary for trend
// comparison. A nil store disables persistence and trend deltas.
type RunStore interface {
	InsertRun(result *model.RunResult) error
	LatestSummary() (*model.InsightSummary, error)
}

// Progress reports one scored engineer while a run is underway, in final
// rank order. Position is 1-based.
type Progress struct {
	RunID    string
	Engineer string
	Score    float64
	Position int
	Total    int
}

type Options struct {
	Normalizer *normalize.Normalizer
	Embedder   semantic.Embedder
	Scoring    scoring.Config
	Store      RunStore

	// OnProgress, when set, is called synchronously for each scored
	// engineer before the summary is assembled.
	OnProgress func(Progress)
}

type Engine struct {
	normalizer *normalize.Normalizer
	embedder   semantic.Embedder
	scorer     *scoring.Scorer
	aggregator *insight.Aggregator
	store      RunStore
	onProgress func(Progress)
}

// New validates the scoring configuration up front; a broken weight table
// fails engine construction, not the first run.
func New(opts Options) (*Engine, error) {
	scorer, err := scoring.NewScorer(opts.Scoring)
	if err != nil {
		return nil, fmt.Errorf("invalid scoring config: %w", err)
	}

	normalizer := opts.Normalizer
	if normalizer == nil {
		normalizer = normalize.NewNormalizer(0)
	}

	return &Engine{
		normalizer: normalizer,
		embedder:   opts.Embedder,
		scorer:     scorer,
		aggregator: insight.NewAggregator(),
		store:      opts.Store,
		onProgress: opts.OnProgress,
	}, nil
}

// RunRequest is one run's complete input: the analysis window and the raw
// activity batch collected for it.
type RunRequest struct {
	Window model.Window
	Batch  normalize.Batch
}

// Run executes one full analysis pass. Each run gets a fresh analyzer, so a
// mid-run embedding failure degrades only this run and the whole batch is
// re-analyzed with the lexical fallback before scoring.
func (e *Engine) Run(ctx context.Context, req RunRequest) (*model.RunResult, error) {
	started := time.Now()

	result, err := e.run(ctx, req)
	if err != nil {
		metrics.RunsTotal.WithLabelValues("error").Inc()
		return nil, err
	}

	metrics.RunsTotal.WithLabelValues("success").Inc()
	metrics.RunDuration.WithLabelValues(result.Strategy).Observe(time.Since(started).Seconds())
	metrics.EngineersScored.Observe(float64(len(result.Scores)))
	metrics.TeamMeanScore.Set(result.Summary.MeanScore)
	if result.Degraded {
		metrics.DegradedRuns.Inc()
	}

	logger.Info("Run completed",
		zap.String("run_id", result.RunID),
		zap.String("strategy", result.Strategy),
		zap.Bool("degraded", result.Degraded),
		zap.Int("engineers", len(result.Scores)),
		zap.Duration("elapsed", time.Since(started)),
	)

	return result, nil
}

func (e *Engine) run(ctx context.Context, req RunRequest) (*model.RunResult, error) {
	if !req.Window.Start.Before(req.Window.End) {
		return nil, ErrInvalidWindow
	}

	runID := uuid.NewString()

	snapshots := e.normalizer.BuildSnapshots(req.Batch, req.Window)
	if len(snapshots) == 0 {
		return nil, ErrNoEngineers
	}

	if err := ctx.Err(); err != nil {
		return nil, err
	}

	records := collectRecords(snapshots)
	analyzer := semantic.NewForRun(e.embedder, e.embedder != nil)

	semanticResults, err := analyzer.AnalyzeBatch(ctx, records)
	if err != nil {
		return nil, fmt.Errorf("semantic analysis failed: %w", err)
	}
	metrics.RecordsAnalyzed.Add(float64(len(records)))

	byRecord := make(map[string]model.SemanticResult, len(semanticResults))
	for _, res := range semanticResults {
		byRecord[res.RecordID] = res
	}

	scores, err := e.scorer.ScoreAll(snapshots, byRecord)
	if err != nil {
		return nil, fmt.Errorf("scoring failed: %w", err)
	}

	if err := ctx.Err(); err != nil {
		return nil, err
	}

	e.emitProgress(runID, scores)

	prior := e.priorSummary()
	summary := e.aggregator.Summarize(runID, req.Window, scores, semanticResults, prior, analyzer.Degraded())

	result := &model.RunResult{
		RunID:    runID,
		Window:   req.Window,
		Degraded: analyzer.Degraded(),
		Strategy: analyzer.Strategy(),
		Scores:   scores,
		Summary:  summary,
	}

	if e.store != nil {
		if err := e.store.InsertRun(result); err != nil {
			return nil, fmt.Errorf("failed to persist run: %w", err)
		}
	}

	return result, nil
}

func (e *Engine) emitProgress(runID string, scores []model.ScoreBreakdown) {
	if e.onProgress == nil {
		return
	}
	for i, score := range scores {
		e.onProgress(Progress{
			RunID:    runID,
			Engineer: score.Engineer,
			Score:    score.TotalScore,
			Position: i + 1,
			Total:    len(scores),
		})
	}
}

func (e *Engine) priorSummary() *model.InsightSummary {
	if e.store == nil {
		return nil
	}
	prior, err := e.store.LatestSummary()
	if err != nil {
		logger.Warn("Failed to load prior summary; trend disabled for this run", zap.Error(err))
		return nil
	}
	return prior
}

func collectRecords(snapshots []model.EngineerActivitySnapshot) []model.ContentRecord {
	var records []model.ContentRecord
	for _, snap := range snapshots {
		records = append(records, snap.Records...)
	}
	return records
}
