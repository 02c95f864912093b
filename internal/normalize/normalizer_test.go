package normalize_test

import (
	"strings"
	"testing"
	"time"
	"unicode/utf8"

	. "github.com/smartystreets/goconvey/convey"

	"github.com/devpulse/backend/internal/model"
	"github.com/devpulse/backend/internal/normalize"
)

func TestCleanText(t *testing.T) {
	Convey("Given a normalizer with a small length cap", t, func() {
		n := normalize.NewNormalizer(40)

		Convey("When the text contains HTML markup", func() {
			out := n.CleanText("<p>Fix the <b>cache</b> layer</p>")

			Convey("Then the markup is stripped and text preserved", func() {
				So(out, ShouldEqual, "Fix the cache layer")
			})
		})

		Convey("When the text contains control characters and messy whitespace", func() {
			out := n.CleanText("fix\x00 the \t\t parser\n\n  now")

			Convey("Then it collapses to single spaces", func() {
				So(out, ShouldEqual, "fix the parser now")
			})
		})

		Convey("When the text exceeds the cap", func() {
			out := n.CleanText("update the billing reconciliation worker configuration")

			Convey("Then it truncates at a word boundary", func() {
				So(len(out), ShouldBeLessThanOrEqualTo, 40)
				So(strings.HasSuffix(out, " "), ShouldBeFalse)
				So(strings.Contains("update the billing reconciliation worker configuration", out), ShouldBeTrue)
			})
		})

		Convey("When multi-byte text has no space inside the cap", func() {
			short := normalize.NewNormalizer(10)
			out := short.CleanText("日本語のコミットメッセージ")

			Convey("Then it truncates on a rune boundary", func() {
				So(utf8.ValidString(out), ShouldBeTrue)
				So(out, ShouldEqual, "日本語")
			})

			Convey("Then a second pass is a no-op", func() {
				So(short.CleanText(out), ShouldEqual, out)
			})
		})

		Convey("When cleaning is applied twice", func() {
			once := n.CleanText("<div>Refactor   the \n queue consumer</div>")
			twice := n.CleanText(once)

			Convey("Then the second pass is a no-op", func() {
				So(twice, ShouldEqual, once)
			})
		})

		Convey("When the text is empty or whitespace", func() {
			So(n.CleanText(""), ShouldEqual, "")
			So(n.CleanText("   \n\t  "), ShouldEqual, "")
		})
	})
}

func TestRecordDefaults(t *testing.T) {
	Convey("Given a normalizer", t, func() {
		n := normalize.NewNormalizer(0)

		Convey("When a pull request has no author and no timestamp", func() {
			rec := n.FromPullRequest(normalize.PullRequest{
				ID:    "pr-1",
				Title: "Add retries to the fetcher",
			})

			Convey("Then the author falls back to unknown", func() {
				So(rec.Author, ShouldEqual, "unknown")
			})

			Convey("And the timestamp is filled in", func() {
				So(rec.Timestamp.IsZero(), ShouldBeFalse)
			})

			Convey("And the kind is set", func() {
				So(rec.Kind, ShouldEqual, model.KindPullRequest)
			})
		})

		Convey("When a ticket carries story points and a status", func() {
			rec := n.FromTicket(normalize.Ticket{
				Key:         "PROJ-7",
				Summary:     "Migrate sessions table",
				Assignee:    "dana",
				Status:      "Done",
				StoryPoints: 5,
				CreatedAt:   time.Date(2026, 3, 1, 10, 0, 0, 0, time.UTC),
			})

			Convey("Then the metadata keeps the raw fields", func() {
				So(rec.Metadata["status"], ShouldEqual, "Done")
				So(rec.Metadata["story_points"], ShouldEqual, "5")
			})

			So(rec.Author, ShouldEqual, "dana")
			So(rec.Kind, ShouldEqual, model.KindTicket)
		})
	})
}

func TestBuildSnapshots(t *testing.T) {
	Convey("Given a batch spanning two engineers", t, func() {
		n := normalize.NewNormalizer(0)
		window := model.Window{
			Start: time.Date(2026, 3, 1, 0, 0, 0, 0, time.UTC),
			End:   time.Date(2026, 3, 8, 0, 0, 0, 0, time.UTC),
		}
		merged := time.Date(2026, 3, 2, 12, 0, 0, 0, time.UTC)

		batch := normalize.Batch{
			PullRequests: []normalize.PullRequest{
				{ID: "pr-1", Title: "Fix index scan", Author: "alice", Repository: "core", MergedAt: &merged, Additions: 120, Deletions: 30},
				{ID: "pr-2", Title: "Draft importer", Author: "alice", Repository: "importer"},
			},
			Commits: []normalize.Commit{
				{SHA: "c1", Message: "tighten parser bounds", Author: "bob", Repository: "core", Additions: 15, Deletions: 4},
			},
			Reviews: []normalize.Review{
				{PullRequestID: "pr-1", Reviewer: "bob", Body: strings.Repeat("solid reasoning on the locking order here ", 3)},
				{PullRequestID: "pr-1", Reviewer: "bob", Body: "lgtm"},
				{PullRequestID: "pr-2", Reviewer: "bob", Body: "ok"},
			},
			Tickets: []normalize.Ticket{
				{Key: "T-1", Summary: "Ship importer", Assignee: "alice", Project: "importer", Status: "done", StoryPoints: 3},
				{Key: "T-2", Summary: "Spike cache", Assignee: "alice", Project: "importer", Status: "In Progress"},
			},
		}

		snapshots := n.BuildSnapshots(batch, window)

		Convey("Then one snapshot per engineer comes back, sorted by name", func() {
			So(len(snapshots), ShouldEqual, 2)
			So(snapshots[0].Engineer, ShouldEqual, "alice")
			So(snapshots[1].Engineer, ShouldEqual, "bob")
		})

		Convey("Then alice's source and delivery counters line up", func() {
			alice := snapshots[0]
			So(alice.Source.PRsCreated, ShouldEqual, 2)
			So(alice.Source.PRsMerged, ShouldEqual, 1)
			So(alice.Source.LinesAdded, ShouldEqual, 120)
			So(alice.Delivery.TicketsCompleted, ShouldEqual, 1)
			So(alice.Delivery.TicketsInProgress, ShouldEqual, 1)
			So(alice.Delivery.StoryPoints, ShouldEqual, 3)
			So(alice.Projects, ShouldResemble, []string{"core", "importer"})
		})

		Convey("Then bob's reviews count unique pull requests and deep comments", func() {
			bob := snapshots[1]
			So(bob.Source.PRsReviewed, ShouldEqual, 2)
			So(bob.Source.ReviewComments, ShouldEqual, 1)
			So(bob.Source.CommitsMade, ShouldEqual, 1)
		})

		Convey("Then records carry normalized text for every authored item", func() {
			alice := snapshots[0]
			So(len(alice.Records), ShouldEqual, 4)
			for _, rec := range alice.Records {
				So(rec.Author, ShouldEqual, "alice")
				So(rec.Timestamp.IsZero(), ShouldBeFalse)
			}
		})
	})

	Convey("Given an empty batch", t, func() {
		n := normalize.NewNormalizer(0)
		snapshots := n.BuildSnapshots(normalize.Batch{}, model.Window{})

		Convey("Then no snapshots are produced", func() {
			So(snapshots, ShouldBeEmpty)
		})
	})
}
