package semantic_test

import (
	"context"
	"testing"

	. "github.com/smartystreets/goconvey/convey"

	"github.com/devpulse/backend/internal/model"
	"github.com/devpulse/backend/internal/semantic"
)

func record(id, title, body string) model.ContentRecord {
	return model.ContentRecord{ID: id, Kind: model.KindPullRequest, Author: "dev", Title: title, Body: body}
}

func TestLexicalAnalyzer(t *testing.T) {
	Convey("Given a lexical analyzer and a mixed batch", t, func() {
		a := semantic.NewLexicalAnalyzer()
		records := []model.ContentRecord{
			record("r1", "Fix typo", "fixed a typo"),
			record("r2", "Rework sharding",
				"Reworked the distributed sharding layer to rebalance partitions during failover. "+
					"The consensus protocol now handles concurrency across replica sets and the migration "+
					"path keeps the database index consistent under load."),
			record("r3", "", ""),
		}

		results, err := a.AnalyzeBatch(context.Background(), records)

		Convey("Then it returns one result per record with bounded values", func() {
			So(err, ShouldBeNil)
			So(len(results), ShouldEqual, 3)
			for i, res := range results {
				So(res.RecordID, ShouldEqual, records[i].ID)
				So(res.ComplexityScore, ShouldBeBetweenOrEqual, 0, 100)
				So(res.AILikelihood, ShouldBeBetweenOrEqual, 0, 1)
			}
		})

		Convey("Then dense technical text outscores a trivial change", func() {
			So(results[1].ComplexityScore, ShouldBeGreaterThan, results[0].ComplexityScore)
		})

		Convey("Then empty text yields zero complexity and no tags", func() {
			So(results[2].ComplexityScore, ShouldEqual, 0)
			So(results[2].TopicTags, ShouldBeEmpty)
		})

		Convey("Then the backend-heavy record picks up topic tags", func() {
			So(results[1].TopicTags, ShouldNotBeEmpty)
		})
	})
}

func TestLexicalSimilarity(t *testing.T) {
	Convey("Given a fitted lexical analyzer", t, func() {
		a := semantic.NewLexicalAnalyzer()
		x := record("x", "Optimize database index", "optimize the slow database index rebuild")
		y := record("y", "Speed up index rebuild", "the database index rebuild is slow, optimize it")
		z := record("z", "Update readme badges", "swap the readme badges for new ones")

		_, err := a.AnalyzeBatch(context.Background(), []model.ContentRecord{x, y, z})
		So(err, ShouldBeNil)

		Convey("When comparing records", func() {
			sxy, err := a.Similarity(context.Background(), x, y)
			So(err, ShouldBeNil)
			sxz, err := a.Similarity(context.Background(), x, z)
			So(err, ShouldBeNil)
			sxx, err := a.Similarity(context.Background(), x, x)
			So(err, ShouldBeNil)

			Convey("Then similarity stays within [0,1]", func() {
				So(sxy, ShouldBeBetweenOrEqual, 0, 1)
				So(sxz, ShouldBeBetweenOrEqual, 0, 1)
			})

			Convey("Then related records score above unrelated ones", func() {
				So(sxy, ShouldBeGreaterThan, sxz)
			})

			Convey("Then a record is maximally similar to itself", func() {
				So(sxx, ShouldAlmostEqual, 1, 1e-9)
			})
		})
	})
}

func TestAILikelihoodSignals(t *testing.T) {
	Convey("Given records with and without AI authorship markers", t, func() {
		a := semantic.NewLexicalAnalyzer()
		records := []model.ContentRecord{
			record("plain", "Fix cache eviction", "evict stale entries when the ttl lapses"),
			record("marked", "Add pagination",
				"Generated with Copilot. This pull request introduces a comprehensive and robust "+
					"pagination layer in order to seamlessly streamline list endpoints."),
		}

		results, err := a.AnalyzeBatch(context.Background(), records)
		So(err, ShouldBeNil)

		Convey("Then marker-laden boilerplate scores far higher", func() {
			So(results[1].AILikelihood, ShouldBeGreaterThan, results[0].AILikelihood)
			So(results[1].AILikelihood, ShouldBeGreaterThan, 0.5)
			So(results[0].AILikelihood, ShouldBeLessThan, 0.3)
		})
	})
}
