// Package insight aggregates per-engineer score breakdowns into team-level
// summaries: central tendency, score distribution, dominant topics, AI
// adoption trend and rule-based recommendations.
package insight

import (
	"sort"
	"time"

	"go.uber.org/zap"

	"github.com/devpulse/backend/internal/model"
	"github.com/devpulse/backend/pkg/logger"
)

// Score buckets for the team distribution.
const (
	distributionHighFloor   = 70.0
	distributionMediumFloor = 40.0
)

// Band thresholds over the team mean.
const (
	BandHigh   = "HIGH"
	BandMedium = "MEDIUM"
	BandLow    = "LOW"

	bandHighFloor   = 75.0
	bandMediumFloor = 50.0
)

const (
	TrendRising  = "rising"
	TrendFalling = "falling"
	TrendStable  = "stable"

	trendThreshold = 0.03
)

const (
	activeScoreFloor  = 10.0
	maxDominantTopics = 5
	maxAreas          = 2

	areaStrongFloor = 55.0
	areaWeakCeiling = 45.0
)

type Aggregator struct{}

func NewAggregator() *Aggregator {
	return &Aggregator{}
}

// Summarize builds the team summary for one run. Scores are expected in
// descending total-score order as produced by the scorer; prior may be nil
// when no earlier run exists for trend comparison.
func (a *Aggregator) Summarize(runID string, window model.Window, scores []model.ScoreBreakdown, semantics []model.SemanticResult, prior *model.InsightSummary, degraded bool) model.InsightSummary {
	summary := model.InsightSummary{
		RunID:          runID,
		Window:         window,
		GeneratedAt:    time.Now().UTC(),
		TotalEngineers: len(scores),
		Degraded:       degraded,
	}

	if len(scores) == 0 {
		summary.AIAdoptionTrend = TrendStable
		summary.PerformanceBand = BandLow
		return summary
	}

	totals := make([]float64, len(scores))
	var sum float64
	for i, sc := range scores {
		totals[i] = sc.TotalScore
		sum += sc.TotalScore

		if sc.TotalScore > activeScoreFloor {
			summary.ActiveEngineers++
		}
		switch {
		case sc.TotalScore >= distributionHighFloor:
			summary.Distribution.High++
		case sc.TotalScore >= distributionMediumFloor:
			summary.Distribution.Medium++
		default:
			summary.Distribution.Low++
		}
	}

	summary.MeanScore = sum / float64(len(scores))
	summary.MedianScore = median(totals)
	summary.PerformanceBand = performanceBand(summary.MeanScore)
	summary.TopPerformer = topPerformer(scores)
	summary.DominantTopics = dominantTopics(semantics)
	summary.AIAdoptionMean = aiAdoptionMean(semantics)

	if prior != nil {
		summary.AIAdoptionDelta = summary.AIAdoptionMean - prior.AIAdoptionMean
	}
	summary.AIAdoptionTrend = trend(summary.AIAdoptionDelta, prior != nil)

	summary.TopAreas, summary.ImprovementAreas = areaSplit(scores)
	summary.Recommendations = recommendations(summary)

	logger.Debug("Run summarized",
		zap.String("run_id", runID),
		zap.Float64("mean_score", summary.MeanScore),
		zap.String("band", summary.PerformanceBand))

	return summary
}

func median(values []float64) float64 {
	sorted := make([]float64, len(values))
	copy(sorted, values)
	sort.Float64s(sorted)

	mid := len(sorted) / 2
	if len(sorted)%2 == 1 {
		return sorted[mid]
	}
	return (sorted[mid-1] + sorted[mid]) / 2
}

func performanceBand(mean float64) string {
	switch {
	case mean >= bandHighFloor:
		return BandHigh
	case mean >= bandMediumFloor:
		return BandMedium
	default:
		return BandLow
	}
}

// topPerformer breaks total-score ties by delivery score, then by engineer
// name, so the pick is stable across runs over identical inputs.
func topPerformer(scores []model.ScoreBreakdown) string {
	best := scores[0]
	for _, sc := range scores[1:] {
		if sc.TotalScore != best.TotalScore {
			continue
		}
		if sc.DeliveryScore > best.DeliveryScore ||
			(sc.DeliveryScore == best.DeliveryScore && sc.Engineer < best.Engineer) {
			best = sc
		}
	}
	return best.Engineer
}

func dominantTopics(semantics []model.SemanticResult) []string {
	counts := make(map[string]int)
	for _, res := range semantics {
		for _, tag := range res.TopicTags {
			counts[tag]++
		}
	}
	if len(counts) == 0 {
		return nil
	}

	topics := make([]string, 0, len(counts))
	for tag := range counts {
		topics = append(topics, tag)
	}
	sort.Slice(topics, func(i, j int) bool {
		if counts[topics[i]] != counts[topics[j]] {
			return counts[topics[i]] > counts[topics[j]]
		}
		return topics[i] < topics[j]
	})

	if len(topics) > maxDominantTopics {
		topics = topics[:maxDominantTopics]
	}
	return topics
}

func aiAdoptionMean(semantics []model.SemanticResult) float64 {
	if len(semantics) == 0 {
		return 0
	}
	var sum float64
	for _, res := range semantics {
		sum += res.AILikelihood
	}
	return sum / float64(len(semantics))
}

func trend(delta float64, hasPrior bool) string {
	if !hasPrior {
		return TrendStable
	}
	switch {
	case delta > trendThreshold:
		return TrendRising
	case delta < -trendThreshold:
		return TrendFalling
	default:
		return TrendStable
	}
}

// areaSplit ranks the four sub-score dimensions by their team mean and
// reports the strong and weak ends.
func areaSplit(scores []model.ScoreBreakdown) (top, improvement []string) {
	n := float64(len(scores))
	means := map[string]float64{}
	for _, sc := range scores {
		means["source_activity"] += sc.SourceActivityScore / n
		means["delivery"] += sc.DeliveryScore / n
		means["collaboration"] += sc.CollaborationScore / n
		means["quality"] += sc.QualityScore / n
	}

	areas := []string{"collaboration", "delivery", "quality", "source_activity"}
	sort.SliceStable(areas, func(i, j int) bool {
		return means[areas[i]] > means[areas[j]]
	})

	for _, area := range areas {
		if means[area] >= areaStrongFloor && len(top) < maxAreas {
			top = append(top, area)
		}
		if means[area] < areaWeakCeiling {
			improvement = append(improvement, area)
		}
	}
	if len(improvement) > maxAreas {
		improvement = improvement[len(improvement)-maxAreas:]
	}
	return top, improvement
}

func recommendations(summary model.InsightSummary) []string {
	var recs []string

	if summary.Degraded {
		recs = append(recs, "Semantic analysis fell back to lexical scoring this run; complexity estimates are coarser than usual.")
	}
	if inactive := summary.TotalEngineers - summary.ActiveEngineers; inactive > 0 {
		recs = append(recs, "Some engineers show little tracked activity this window; confirm their work is captured in the connected sources.")
	}
	if summary.Distribution.Low > summary.Distribution.High {
		recs = append(recs, "More engineers sit in the low score bucket than the high one; consider pairing or redistributing work.")
	}
	for _, area := range summary.ImprovementAreas {
		switch area {
		case "collaboration":
			recs = append(recs, "Review participation is low across the team; encourage broader code review involvement.")
		case "delivery":
			recs = append(recs, "Ticket throughput lags the rest of the team profile; check for blocked or oversized work items.")
		case "quality":
			recs = append(recs, "Authored content scores low on depth; push for richer descriptions on changes and tickets.")
		case "source_activity":
			recs = append(recs, "Repository activity is thin this window; verify commit and pull-request flow is healthy.")
		}
	}
	if summary.AIAdoptionMean > 0.6 {
		recs = append(recs, "AI-assisted output dominates authored content; tighten review of generated changes.")
	} else if summary.AIAdoptionMean < 0.1 && summary.TotalEngineers > 0 {
		recs = append(recs, "AI tooling adoption is minimal; evaluate whether assisted workflows could lift throughput.")
	}

	return recs
}
