// Package scoring turns engineer activity snapshots and semantic results into
// weighted, peer-relative score breakdowns.
package scoring

import (
	"errors"
	"fmt"
	"math"
	"sort"

	"go.uber.org/zap"

	"github.com/devpulse/backend/internal/model"
	"github.com/devpulse/backend/pkg/logger"
)

var (
	ErrEmptyPeerSet   = errors.New("peer set is empty")
	ErrInvalidWeights = errors.New("sub-score weights must be non-negative and sum to 1")
	ErrInvalidBand    = errors.New("ai optimum band must satisfy 0 <= low < high <= 1")
)

const weightSumTolerance = 0.01

// Weights is the top-level weight table over the four sub-scores.
type Weights struct {
	Source        float64 `json:"source"`
	Delivery      float64 `json:"delivery"`
	Collaboration float64 `json:"collaboration"`
	Quality       float64 `json:"quality"`
}

// Config is run-scoped and immutable: every run gets its own value and no
// run ever reads ambient process state.
type Config struct {
	Weights       Weights `json:"weights"`
	AIOptimumLow  float64 `json:"ai_optimum_low"`
	AIOptimumHigh float64 `json:"ai_optimum_high"`
}

func DefaultConfig() Config {
	return Config{
		Weights: Weights{
			Source:        0.35,
			Delivery:      0.30,
			Collaboration: 0.20,
			Quality:       0.15,
		},
		AIOptimumLow:  0.25,
		AIOptimumHigh: 0.45,
	}
}

// Validate fails fast on configuration defects; nothing is scored against a
// broken weight table.
func (c Config) Validate() error {
	w := c.Weights
	if w.Source < 0 || w.Delivery < 0 || w.Collaboration < 0 || w.Quality < 0 {
		return ErrInvalidWeights
	}
	sum := w.Source + w.Delivery + w.Collaboration + w.Quality
	if math.Abs(sum-1.0) > weightSumTolerance {
		return fmt.Errorf("%w: got sum %.4f", ErrInvalidWeights, sum)
	}
	if c.AIOptimumLow < 0 || c.AIOptimumHigh > 1 || c.AIOptimumLow >= c.AIOptimumHigh {
		return ErrInvalidBand
	}
	return nil
}

// Sub-weights within source activity and delivery, mirroring the default
// weight split of the scoring model.
const (
	srcPRWeight     = 0.45
	srcReviewWeight = 0.25
	srcCommitWeight = 0.15
	srcLinesWeight  = 0.10
	srcIssuesWeight = 0.05

	delCompletedWeight = 0.40
	delPointsWeight    = 0.25
	delVelocityWeight  = 0.15
	delCreatedWeight   = 0.10
	delCommentsWeight  = 0.10

	colReviewWeight  = 0.40
	colCommentWeight = 0.35
	colCrossWeight   = 0.25

	qualComplexityWeight   = 0.70
	qualCompletenessWeight = 0.30

	minDescriptionChars = 30
)

// AI-usage adjustment curve. Usage inside the optimum band earns a capped
// bonus; under-use is mildly discounted and over-use is discounted on an
// increasing curve. The reward is bell-shaped, not monotonic.
const (
	aiOptimumBonus = 1.15
	aiUnderFloor   = 0.85
	aiOverFloor    = 0.45
)

type Scorer struct {
	cfg Config
}

func NewScorer(cfg Config) (*Scorer, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &Scorer{cfg: cfg}, nil
}

// ScoreAll computes one breakdown per snapshot, normalizing every raw metric
// against the full peer set, and returns them ordered by descending total
// score. The result is deterministic for a given (snapshot set, semantics,
// config).
func (s *Scorer) ScoreAll(snapshots []model.EngineerActivitySnapshot, semantics map[string]model.SemanticResult) ([]model.ScoreBreakdown, error) {
	if len(snapshots) == 0 {
		return nil, ErrEmptyPeerSet
	}

	n := len(snapshots)

	prMass := make([]float64, n)
	reviewMass := make([]float64, n)
	commits := make([]float64, n)
	lines := make([]float64, n)
	issues := make([]float64, n)
	completed := make([]float64, n)
	points := make([]float64, n)
	created := make([]float64, n)
	ticketComments := make([]float64, n)
	reviewed := make([]float64, n)
	commentMass := make([]float64, n)
	cross := make([]float64, n)
	complexity := make([]float64, n)

	aiMean := make([]float64, n)
	descRatio := make([]float64, n)

	for i, snap := range snapshots {
		src, del := snap.Source, snap.Delivery

		prMass[i] = float64(src.PRsCreated + src.PRsMerged)
		reviewMass[i] = float64(src.PRsReviewed + src.ReviewComments)
		commits[i] = float64(src.CommitsMade)
		lines[i] = math.Log1p(float64(src.LinesAdded + src.LinesDeleted))
		issues[i] = float64(src.IssuesCreated + src.IssuesClosed)

		completed[i] = float64(del.TicketsCompleted)
		points[i] = del.StoryPoints
		created[i] = float64(del.TicketsCreated)
		ticketComments[i] = float64(del.CommentsMade)

		reviewed[i] = float64(src.PRsReviewed)
		commentMass[i] = float64(src.ReviewComments + del.CommentsMade + del.DeepComments)
		cross[i] = float64(len(snap.Projects))

		complexity[i], aiMean[i], descRatio[i] = semanticAggregates(snap, semantics)
	}

	normPR := minMaxNormalize(prMass)
	normReviewMass := minMaxNormalize(reviewMass)
	normCommits := minMaxNormalize(commits)
	normLines := minMaxNormalize(lines)
	normIssues := minMaxNormalize(issues)
	normCompleted := minMaxNormalize(completed)
	normPoints := minMaxNormalize(points)
	normCreated := minMaxNormalize(created)
	normTicketComments := minMaxNormalize(ticketComments)
	normReviewed := minMaxNormalize(reviewed)
	normCommentMass := minMaxNormalize(commentMass)
	normCross := minMaxNormalize(cross)
	normComplexity := minMaxNormalize(complexity)

	breakdowns := make([]model.ScoreBreakdown, n)
	for i, snap := range snapshots {
		if !snap.HasActivity() && len(snap.Records) == 0 {
			breakdowns[i] = model.ScoreBreakdown{Engineer: snap.Engineer}
			continue
		}

		source := srcPRWeight*normPR[i] +
			srcReviewWeight*normReviewMass[i] +
			srcCommitWeight*normCommits[i] +
			srcLinesWeight*normLines[i] +
			srcIssuesWeight*normIssues[i]

		velocity := completionRatio(snap.Delivery)
		delivery := delCompletedWeight*normCompleted[i] +
			delPointsWeight*normPoints[i] +
			delVelocityWeight*velocity*100 +
			delCreatedWeight*normCreated[i] +
			delCommentsWeight*normTicketComments[i]

		collaboration := colReviewWeight*normReviewed[i] +
			colCommentWeight*normCommentMass[i] +
			colCrossWeight*normCross[i]

		adjusted := normComplexity[i] * s.aiAdjustment(aiMean[i])
		quality := qualComplexityWeight*adjusted + qualCompletenessWeight*descRatio[i]*100

		breakdowns[i] = model.ScoreBreakdown{
			Engineer:            snap.Engineer,
			SourceActivityScore: clampScore(source),
			DeliveryScore:       clampScore(delivery),
			CollaborationScore:  clampScore(collaboration),
			QualityScore:        clampScore(quality),
		}

		w := s.cfg.Weights
		total := w.Source*breakdowns[i].SourceActivityScore +
			w.Delivery*breakdowns[i].DeliveryScore +
			w.Collaboration*breakdowns[i].CollaborationScore +
			w.Quality*breakdowns[i].QualityScore
		breakdowns[i].TotalScore = clampScore(total)
	}

	assignPercentiles(breakdowns)

	sort.SliceStable(breakdowns, func(i, j int) bool {
		if breakdowns[i].TotalScore != breakdowns[j].TotalScore {
			return breakdowns[i].TotalScore > breakdowns[j].TotalScore
		}
		return breakdowns[i].Engineer < breakdowns[j].Engineer
	})

	logger.Debug("Peer set scored", zap.Int("engineers", n))

	return breakdowns, nil
}

// aiAdjustment is the bell-shaped multiplier over mean AI likelihood: flat
// bonus inside [low, high], linear discount toward the under-use floor below
// it, quadratic discount toward the over-use floor above it.
func (s *Scorer) aiAdjustment(likelihood float64) float64 {
	low, high := s.cfg.AIOptimumLow, s.cfg.AIOptimumHigh

	switch {
	case likelihood >= low && likelihood <= high:
		return aiOptimumBonus
	case likelihood < low:
		if low == 0 {
			return aiOptimumBonus
		}
		t := likelihood / low
		return aiUnderFloor + t*(aiOptimumBonus-aiUnderFloor)
	default:
		t := (likelihood - high) / (1 - high)
		if t > 1 {
			t = 1
		}
		return aiOptimumBonus - (aiOptimumBonus-aiOverFloor)*t*t
	}
}

func semanticAggregates(snap model.EngineerActivitySnapshot, semantics map[string]model.SemanticResult) (meanComplexity, meanAI, descriptive float64) {
	if len(snap.Records) == 0 {
		return 0, 0, 0
	}

	var complexitySum, aiSum float64
	var described int
	for _, rec := range snap.Records {
		if res, ok := semantics[rec.ID]; ok {
			complexitySum += res.ComplexityScore
			aiSum += res.AILikelihood
		}
		if len(rec.Body) >= minDescriptionChars {
			described++
		}
	}

	n := float64(len(snap.Records))
	return complexitySum / n, aiSum / n, float64(described) / n
}

func completionRatio(del model.DeliveryStats) float64 {
	denom := del.TicketsCompleted + del.TicketsInProgress
	if denom == 0 {
		return 0
	}
	return float64(del.TicketsCompleted) / float64(denom)
}

// minMaxNormalize scales values to [0,100] relative to the peer set. When
// every peer carries the same positive value, everyone sits at the peer
// maximum; an all-zero metric stays zero.
func minMaxNormalize(values []float64) []float64 {
	lo, hi := values[0], values[0]
	for _, v := range values[1:] {
		if v < lo {
			lo = v
		}
		if v > hi {
			hi = v
		}
	}

	out := make([]float64, len(values))
	if hi == lo {
		if hi > 0 {
			for i := range out {
				out[i] = 100
			}
		}
		return out
	}

	for i, v := range values {
		out[i] = (v - lo) / (hi - lo) * 100
	}
	return out
}

// assignPercentiles sets each breakdown's rank as the share of the peer set
// with a total score at or below its own, scaled to [0,100]. Tied scores
// share one percentile, and a peer set of one yields 100.
func assignPercentiles(breakdowns []model.ScoreBreakdown) {
	n := float64(len(breakdowns))
	for i := range breakdowns {
		var atOrBelow int
		for j := range breakdowns {
			if breakdowns[j].TotalScore <= breakdowns[i].TotalScore {
				atOrBelow++
			}
		}
		breakdowns[i].PercentileRank = float64(atOrBelow) / n * 100
	}
}

func clampScore(v float64) float64 {
	return math.Max(0, math.Min(100, v))
}
