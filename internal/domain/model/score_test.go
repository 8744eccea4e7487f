package model_test

import (
	"encoding/json"
	"testing"
	"time"

	model "github.com/okian/pscore/internal/domain/model"
	"github.com/smartystreets/goconvey/convey"
)

func TestHistoryEntry(t *testing.T) {
	convey.Convey("Given a completed report", t, func() {
		score := model.ProductivityScore{RunHash: "abc", UtilizationScore: 84}
		at := time.Date(2026, 3, 4, 5, 6, 7, 891_000_000, time.FixedZone("X", 3600))

		convey.Convey("When stamping it", func() {
			entry := model.NewHistoryEntry(score, at)

			convey.Convey("Then the timestamp is UTC ISO-8601 with milliseconds", func() {
				convey.So(entry.Timestamp, convey.ShouldEqual, "2026-03-04T04:06:07.891Z")
				convey.So(entry.Time().Equal(at), convey.ShouldBeTrue)
			})
		})

		convey.Convey("When the timestamp is malformed", func() {
			entry := model.ScoreHistoryEntry{ScoreData: score, Timestamp: "yesterday"}

			convey.Convey("Then Time is zero", func() {
				convey.So(entry.Time().IsZero(), convey.ShouldBeTrue)
			})
		})
	})
}

func TestEntryFromScore(t *testing.T) {
	convey.Convey("Given a report and a padded username", t, func() {
		score := model.ProductivityScore{RunHash: "deadbeef", UtilizationScore: 77.5}
		entry := model.EntryFromScore(score, "  neo_1 ")

		convey.Convey("Then the entry is unverified and keyed by the run hash", func() {
			convey.So(entry, convey.ShouldResemble, model.LeaderboardEntry{
				RunHash:    "deadbeef",
				Username:   "neo_1",
				Score:      77.5,
				IsVerified: false,
			})
		})
	})
}

func TestWireNames(t *testing.T) {
	convey.Convey("Given a leaderboard entry stored by an older client", t, func() {
		raw := `{"runHash":"h1","username":"ana","score":90,"isVerified":true}`
		var entry model.LeaderboardEntry

		convey.Convey("Then it decodes with camelCase keys", func() {
			convey.So(json.Unmarshal([]byte(raw), &entry), convey.ShouldBeNil)
			convey.So(entry.RunHash, convey.ShouldEqual, "h1")
			convey.So(entry.IsVerified, convey.ShouldBeTrue)
		})
	})

	convey.Convey("Given empty leaderboards", t, func() {
		out, err := json.Marshal(model.EmptyLeaderboards())

		convey.Convey("Then both lists encode as empty arrays", func() {
			convey.So(err, convey.ShouldBeNil)
			convey.So(string(out), convey.ShouldEqual, `{"verified":[],"unverified":[]}`)
		})
	})
}
