package repository_test

import (
	"context"
	"errors"
	"math"
	"sync"
	"testing"
	"time"

	"github.com/okian/leaguelearn/internal/adapters/repository"
	"github.com/okian/leaguelearn/internal/domain/model"
	. "github.com/smartystreets/goconvey/convey"
)

var t0 = time.Date(2024, 9, 1, 0, 0, 0, 0, time.UTC)

func TestMemoryStore_Evolution(t *testing.T) {
	ctx := context.Background()

	Convey("Given a store seeded out of order", t, func() {
		s := repository.NewMemoryStore(repository.WithEvolution(
			model.WeightEvolutionRecord{ID: "b", LeagueClass: "dynasty_sf", Season: 2023, Weights: model.WeightVector{"x": 2}, CreatedAt: t0},
			model.WeightEvolutionRecord{ID: "a", LeagueClass: "dynasty_sf", Season: 2022, Weights: model.WeightVector{"x": 1}, CreatedAt: t0.Add(time.Hour)},
		))

		Convey("When reading the history", func() {
			recs, err := s.Evolution(ctx, "dynasty_sf")
			So(err, ShouldBeNil)

			Convey("Then it is ordered oldest season first", func() {
				So(len(recs), ShouldEqual, 2)
				So(recs[0].ID, ShouldEqual, "a")
				So(recs[1].ID, ShouldEqual, "b")
			})

			Convey("Then callers get copies", func() {
				recs[0].Weights["x"] = 100
				again, _ := s.Evolution(ctx, "dynasty_sf")
				So(again[0].Weights["x"], ShouldEqual, 1)
			})
		})

		Convey("When appending a record", func() {
			So(s.AppendEvolution(ctx, model.WeightEvolutionRecord{ID: "c", LeagueClass: "dynasty_sf", Season: 2023, Weights: model.WeightVector{"x": 3}, CreatedAt: t0.Add(time.Minute)}), ShouldBeNil)
			recs, _ := s.Evolution(ctx, "dynasty_sf")
			So(len(recs), ShouldEqual, 3)
			So(recs[2].ID, ShouldEqual, "c")
		})

		Convey("When appending an invalid record", func() {
			err := s.AppendEvolution(ctx, model.WeightEvolutionRecord{LeagueClass: "dynasty_sf", Season: 2024, Weights: model.WeightVector{"x": math.NaN()}})
			So(errors.Is(err, repository.ErrInvalidRecord), ShouldBeTrue)
			So(errors.Is(err, model.ErrNonFiniteWeight), ShouldBeTrue)
		})

		Convey("When reading an unknown class", func() {
			recs, err := s.Evolution(ctx, "keeper_1qb")
			So(err, ShouldBeNil)
			So(recs, ShouldBeEmpty)
		})
	})
}

func TestMemoryStore_Feedback(t *testing.T) {
	ctx := context.Background()

	Convey("Given feedback for two seasons", t, func() {
		s := repository.NewMemoryStore()
		So(s.AddFeedback(ctx, model.Feedback{ID: "1", LeagueClass: "redraft_1qb", Season: 2024, Outcome: 1}), ShouldBeNil)
		So(s.AddFeedback(ctx, model.Feedback{ID: "2", LeagueClass: "redraft_1qb", Season: 2023, Outcome: -1}), ShouldBeNil)

		items, err := s.Feedback(ctx, "redraft_1qb", 2024)
		So(err, ShouldBeNil)
		So(len(items), ShouldEqual, 1)
		So(items[0].ID, ShouldEqual, "1")

		So(errors.Is(s.AddFeedback(ctx, model.Feedback{LeagueClass: "redraft_1qb", Season: 2024}), repository.ErrInvalidRecord), ShouldBeTrue)

		Convey("A repeated id counts once, even under another season", func() {
			So(s.AddFeedback(ctx, model.Feedback{ID: "1", LeagueClass: "redraft_1qb", Season: 2024, Outcome: -1}), ShouldBeNil)
			So(s.AddFeedback(ctx, model.Feedback{ID: "1", LeagueClass: "redraft_1qb", Season: 2025, Outcome: 1}), ShouldBeNil)

			items, err := s.Feedback(ctx, "redraft_1qb", 2024)
			So(err, ShouldBeNil)
			So(len(items), ShouldEqual, 1)
			So(items[0].Outcome, ShouldEqual, 1.0)

			later, err := s.Feedback(ctx, "redraft_1qb", 2025)
			So(err, ShouldBeNil)
			So(later, ShouldBeEmpty)
		})
	})
}

func TestMemoryStore_Snapshots(t *testing.T) {
	ctx := context.Background()
	week5 := "week5"

	Convey("Given snapshots for one key tuple", t, func() {
		s := repository.NewMemoryStore()
		key := model.SnapshotKey{LeagueID: "L", Username: "alice", Type: model.SnapshotLeagueAnalyze}
		So(s.Insert(ctx, model.SnapshotRecord{ID: "old", LeagueID: "L", Username: "alice", SnapshotType: model.SnapshotLeagueAnalyze, CreatedAt: t0}), ShouldBeNil)
		So(s.Insert(ctx, model.SnapshotRecord{ID: "new", LeagueID: "L", Username: "alice", SnapshotType: model.SnapshotLeagueAnalyze, CreatedAt: t0.Add(time.Hour)}), ShouldBeNil)
		So(s.Insert(ctx, model.SnapshotRecord{ID: "ctx", LeagueID: "L", Username: "alice", SnapshotType: model.SnapshotLeagueAnalyze, ContextKey: &week5, CreatedAt: t0.Add(2 * time.Hour)}), ShouldBeNil)

		Convey("Then the newest exact match is returned", func() {
			rec, ok, err := s.Latest(ctx, key)
			So(err, ShouldBeNil)
			So(ok, ShouldBeTrue)
			So(rec.ID, ShouldEqual, "new")
		})

		Convey("Then context keys are separate lines", func() {
			key.ContextKey = &week5
			rec, ok, _ := s.Latest(ctx, key)
			So(ok, ShouldBeTrue)
			So(rec.ID, ShouldEqual, "ctx")
		})

		Convey("Then other users miss", func() {
			key.Username = "bob"
			_, ok, _ := s.Latest(ctx, key)
			So(ok, ShouldBeFalse)
		})
	})

	Convey("Given concurrent writers for one key", t, func() {
		s := repository.NewMemoryStore()
		var wg sync.WaitGroup
		for i := 0; i < 20; i++ {
			wg.Add(1)
			go func(i int) {
				defer wg.Done()
				_ = s.Insert(ctx, model.SnapshotRecord{ID: string(rune('a' + i)), LeagueID: "L", Username: "u", SnapshotType: model.SnapshotOTBPackages, CreatedAt: t0.Add(time.Duration(i) * time.Second)})
			}(i)
		}
		wg.Wait()
		rec, ok, _ := s.Latest(ctx, model.SnapshotKey{LeagueID: "L", Username: "u", Type: model.SnapshotOTBPackages})
		So(ok, ShouldBeTrue)
		So(rec.ID, ShouldEqual, string(rune('a'+19)))
	})
}

func TestMemoryStore_TendencyAndListings(t *testing.T) {
	ctx := context.Background()

	Convey("Given an empty store", t, func() {
		s := repository.NewMemoryStore()

		Convey("When a tendency is missing", func() {
			_, err := s.Tendency(ctx, "m1")
			So(errors.Is(err, repository.ErrNotFound), ShouldBeTrue)
		})

		Convey("When a tendency is saved twice", func() {
			So(s.SaveTendency(ctx, model.ManagerTendency{ManagerID: "m1", TradesSent: 1}), ShouldBeNil)
			So(s.SaveTendency(ctx, model.ManagerTendency{ManagerID: "m1", TradesSent: 2}), ShouldBeNil)
			got, err := s.Tendency(ctx, "m1")
			So(err, ShouldBeNil)
			So(got.TradesSent, ShouldEqual, 2)
		})

		Convey("When listings are saved", func() {
			So(s.SaveListing(ctx, model.OTBListing{LeagueID: "L", RosterID: 2, PlayerID: "p9", Active: true}), ShouldBeNil)
			So(s.SaveListing(ctx, model.OTBListing{LeagueID: "L", RosterID: 1, PlayerID: "p1", Active: true}), ShouldBeNil)
			So(s.SaveListing(ctx, model.OTBListing{LeagueID: "L", RosterID: 1, PlayerID: "p1", Active: false}), ShouldBeNil)
			So(s.SaveListing(ctx, model.OTBListing{LeagueID: "M", RosterID: 1, PlayerID: "p1", Active: true}), ShouldBeNil)

			got, err := s.Listings(ctx, "L")
			So(err, ShouldBeNil)
			So(len(got), ShouldEqual, 2)
			So(got[0].RosterID, ShouldEqual, 1)
			So(got[0].Active, ShouldBeFalse)
			So(got[1].PlayerID, ShouldEqual, "p9")
		})
	})
}
