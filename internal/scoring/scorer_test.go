package scoring_test

import (
	"strings"
	"testing"

	. "github.com/smartystreets/goconvey/convey"

	"github.com/devpulse/backend/internal/model"
	"github.com/devpulse/backend/internal/scoring"
)

func snapshotFor(engineer string, src model.SourceStats, del model.DeliveryStats) model.EngineerActivitySnapshot {
	return model.EngineerActivitySnapshot{
		Engineer: engineer,
		Source:   src,
		Delivery: del,
	}
}

func TestConfigValidate(t *testing.T) {
	Convey("Given the default config", t, func() {
		cfg := scoring.DefaultConfig()

		Convey("Then it validates", func() {
			So(cfg.Validate(), ShouldBeNil)
		})
	})

	Convey("Given defective configs", t, func() {
		Convey("When a weight is negative", func() {
			cfg := scoring.DefaultConfig()
			cfg.Weights.Source = -0.1
			So(cfg.Validate(), ShouldNotBeNil)
		})

		Convey("When the weights do not sum to one", func() {
			cfg := scoring.DefaultConfig()
			cfg.Weights.Quality = 0.5
			So(cfg.Validate(), ShouldNotBeNil)
		})

		Convey("When the optimum band is inverted", func() {
			cfg := scoring.DefaultConfig()
			cfg.AIOptimumLow = 0.6
			cfg.AIOptimumHigh = 0.3
			So(cfg.Validate(), ShouldNotBeNil)
		})

		Convey("Then the scorer refuses to build", func() {
			cfg := scoring.DefaultConfig()
			cfg.Weights.Delivery = 2
			_, err := scoring.NewScorer(cfg)
			So(err, ShouldNotBeNil)
		})
	})
}

func TestScoreAllEdgeCases(t *testing.T) {
	scorer, err := scoring.NewScorer(scoring.DefaultConfig())
	if err != nil {
		t.Fatal(err)
	}

	Convey("Given an empty peer set", t, func() {
		_, err := scorer.ScoreAll(nil, nil)

		Convey("Then scoring fails fast", func() {
			So(err, ShouldEqual, scoring.ErrEmptyPeerSet)
		})
	})

	Convey("Given a single engineer", t, func() {
		snaps := []model.EngineerActivitySnapshot{
			snapshotFor("solo", model.SourceStats{PRsCreated: 3, CommitsMade: 10}, model.DeliveryStats{}),
		}
		scores, err := scorer.ScoreAll(snaps, nil)

		Convey("Then they rank at the 100th percentile of a peer set of one", func() {
			So(err, ShouldBeNil)
			So(len(scores), ShouldEqual, 1)
			So(scores[0].PercentileRank, ShouldEqual, 100)
		})
	})

	Convey("Given an engineer with zero activity among active peers", t, func() {
		snaps := []model.EngineerActivitySnapshot{
			snapshotFor("busy", model.SourceStats{PRsCreated: 5, PRsMerged: 4, CommitsMade: 30}, model.DeliveryStats{TicketsCompleted: 6}),
			snapshotFor("idle", model.SourceStats{}, model.DeliveryStats{}),
		}
		scores, err := scorer.ScoreAll(snaps, nil)

		Convey("Then the idle engineer gets a valid all-zero breakdown", func() {
			So(err, ShouldBeNil)
			So(len(scores), ShouldEqual, 2)
			So(scores[1].Engineer, ShouldEqual, "idle")
			So(scores[1].TotalScore, ShouldEqual, 0)
			So(scores[1].SourceActivityScore, ShouldEqual, 0)
			So(scores[1].PercentileRank, ShouldBeGreaterThan, 0)
		})
	})
}

func TestScoreAllPeerRelative(t *testing.T) {
	scorer, err := scoring.NewScorer(scoring.DefaultConfig())
	if err != nil {
		t.Fatal(err)
	}

	Convey("Given a five-person team with one clear leader", t, func() {
		snaps := []model.EngineerActivitySnapshot{
			snapshotFor("lead", model.SourceStats{PRsCreated: 10, PRsMerged: 9, PRsReviewed: 8, CommitsMade: 40, LinesAdded: 5000, IssuesCreated: 2, IssuesClosed: 1, ReviewComments: 12}, model.DeliveryStats{TicketsCreated: 8, TicketsCompleted: 7, StoryPoints: 21}),
			snapshotFor("mid1", model.SourceStats{PRsCreated: 4, PRsMerged: 3, PRsReviewed: 2, CommitsMade: 15, LinesAdded: 900}, model.DeliveryStats{TicketsCreated: 4, TicketsCompleted: 2, StoryPoints: 5, TicketsInProgress: 2}),
			snapshotFor("mid2", model.SourceStats{PRsCreated: 3, PRsMerged: 3, PRsReviewed: 4, CommitsMade: 12, LinesAdded: 600, ReviewComments: 3}, model.DeliveryStats{TicketsCreated: 3, TicketsCompleted: 3, StoryPoints: 8}),
			snapshotFor("low1", model.SourceStats{PRsCreated: 1, CommitsMade: 3, LinesAdded: 50}, model.DeliveryStats{TicketsCreated: 1, TicketsInProgress: 1}),
			snapshotFor("low2", model.SourceStats{CommitsMade: 1, LinesAdded: 10}, model.DeliveryStats{}),
		}

		scores, err := scorer.ScoreAll(snaps, nil)
		So(err, ShouldBeNil)

		Convey("Then output is ordered by descending total score", func() {
			for i := 1; i < len(scores); i++ {
				So(scores[i-1].TotalScore, ShouldBeGreaterThanOrEqualTo, scores[i].TotalScore)
			}
		})

		Convey("Then the leader tops the board with a maxed source score", func() {
			So(scores[0].Engineer, ShouldEqual, "lead")
			So(scores[0].SourceActivityScore, ShouldAlmostEqual, 100, 0.5)
			So(scores[0].PercentileRank, ShouldEqual, 100)
		})

		Convey("Then all values stay within bounds", func() {
			for _, sc := range scores {
				So(sc.TotalScore, ShouldBeBetweenOrEqual, 0, 100)
				So(sc.SourceActivityScore, ShouldBeBetweenOrEqual, 0, 100)
				So(sc.DeliveryScore, ShouldBeBetweenOrEqual, 0, 100)
				So(sc.CollaborationScore, ShouldBeBetweenOrEqual, 0, 100)
				So(sc.QualityScore, ShouldBeBetweenOrEqual, 0, 100)
				So(sc.PercentileRank, ShouldBeBetweenOrEqual, 0, 100)
			}
		})

		Convey("Then percentiles fall with rank", func() {
			for i := 1; i < len(scores); i++ {
				So(scores[i].PercentileRank, ShouldBeLessThanOrEqualTo, scores[i-1].PercentileRank)
			}
		})

		Convey("Then scoring is deterministic", func() {
			again, err := scorer.ScoreAll(snaps, nil)
			So(err, ShouldBeNil)
			So(again, ShouldResemble, scores)
		})
	})
}

func TestAIUsageAdjustment(t *testing.T) {
	scorer, err := scoring.NewScorer(scoring.DefaultConfig())
	if err != nil {
		t.Fatal(err)
	}

	// Identical activity and complexity; only the AI likelihood differs.
	semanticsFor := func(likelihood float64, id string) map[string]model.SemanticResult {
		return map[string]model.SemanticResult{
			id: {RecordID: id, ComplexityScore: 60, AILikelihood: likelihood},
		}
	}

	qualityAt := func(likelihood float64) float64 {
		rec := model.ContentRecord{ID: "rec", Body: strings.Repeat("describes the change in detail ", 3)}
		snap := model.EngineerActivitySnapshot{
			Engineer: "dev",
			Source:   model.SourceStats{PRsCreated: 2, CommitsMade: 5},
			Records:  []model.ContentRecord{rec},
		}
		scores, err := scorer.ScoreAll([]model.EngineerActivitySnapshot{snap}, semanticsFor(likelihood, "rec"))
		So(err, ShouldBeNil)
		return scores[0].QualityScore
	}

	Convey("Given identical work at different AI usage levels", t, func() {
		inBand := qualityAt(0.35)
		under := qualityAt(0.05)
		over := qualityAt(0.90)

		Convey("Then usage inside the optimum band beats both extremes", func() {
			So(inBand, ShouldBeGreaterThan, under)
			So(inBand, ShouldBeGreaterThan, over)
		})

		Convey("Then heavy over-use is penalized harder than light use", func() {
			So(over, ShouldBeLessThan, under)
		})

		Convey("Then the in-band bonus never escapes the score bounds", func() {
			So(inBand, ShouldBeLessThanOrEqualTo, 100)
		})
	})
}
