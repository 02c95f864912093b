package model_test

import (
	"testing"

	. "github.com/smartystreets/goconvey/convey"

	"github.com/devpulse/backend/internal/model"
)

func TestHasActivity(t *testing.T) {
	Convey("Given an empty snapshot", t, func() {
		var snap model.EngineerActivitySnapshot

		Convey("Then it reports no activity", func() {
			So(snap.HasActivity(), ShouldBeFalse)
		})
	})

	Convey("Given snapshots with a single non-zero counter", t, func() {
		cases := map[string]model.EngineerActivitySnapshot{
			"files changed":  {Source: model.SourceStats{FilesChanged: 3}},
			"prs created":    {Source: model.SourceStats{PRsCreated: 1}},
			"issues closed":  {Source: model.SourceStats{IssuesClosed: 1}},
			"deep comments":  {Delivery: model.DeliveryStats{DeepComments: 1}},
			"story points":   {Delivery: model.DeliveryStats{StoryPoints: 0.5}},
			"tickets closed": {Delivery: model.DeliveryStats{TicketsCompleted: 2}},
		}

		for name, snap := range cases {
			snap := snap
			Convey("Then "+name+" counts as activity", func() {
				So(snap.HasActivity(), ShouldBeTrue)
			})
		}
	})
}
