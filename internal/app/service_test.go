package service_test

import (
	"context"
	"errors"
	"testing"
	"time"

	. "github.com/smartystreets/goconvey/convey"

	"github.com/okian/leaguelearn/internal/adapters/leagueimport"
	"github.com/okian/leaguelearn/internal/adapters/mq/queue"
	"github.com/okian/leaguelearn/internal/adapters/repository"
	service "github.com/okian/leaguelearn/internal/app"
	"github.com/okian/leaguelearn/internal/config"
	"github.com/okian/leaguelearn/internal/domain/jobstatus"
	"github.com/okian/leaguelearn/internal/domain/liquidity"
	"github.com/okian/leaguelearn/internal/domain/model"
	"github.com/okian/leaguelearn/internal/domain/tendency"
	"github.com/okian/leaguelearn/internal/domain/weights"
)

var fixedNow = time.Date(2024, time.October, 15, 12, 0, 0, 0, time.UTC)

func clock() time.Time { return fixedNow }

type stubActivity struct {
	act *leagueimport.Activity
	err error
}

func (s stubActivity) Activity(context.Context, string) (*leagueimport.Activity, error) {
	return s.act, s.err
}

func player(id string, production float64, tags ...string) model.Asset {
	return model.Asset{
		Kind:    model.AssetPlayer,
		ID:      id,
		Name:    "Player " + id,
		Factors: map[string]float64{weights.FactorProduction: production},
		Tags:    tags,
	}
}

func TestService_Classify(t *testing.T) {
	Convey("Classify delegates to the classifier", t, func() {
		svc := service.New(nil)
		So(svc.Classify("Dynasty", "TEP", true), ShouldEqual, model.LeagueClass("dynasty_sf_te_premium"))
		So(svc.Classify("unknown", "", false), ShouldEqual, model.LeagueClass("redraft_1qb"))
	})
}

func TestService_Weights(t *testing.T) {
	Convey("Given a service without history", t, func() {
		svc := service.New(nil)

		Convey("Weights resolve to the baseline", func() {
			res := svc.Weights(context.Background(), "dynasty_sf")
			So(res.Source, ShouldEqual, weights.SourceBaseline)
			So(res.Weights, ShouldResemble, weights.Baseline("dynasty_sf"))
		})
	})
}

func TestService_EvaluateTrade(t *testing.T) {
	Convey("Given a service with one known counterparty", t, func() {
		store := repository.NewMemoryStore()
		ctx := context.Background()
		So(store.SaveTendency(ctx, model.ManagerTendency{ManagerID: "cautious", TradesSent: 1, AvgOverpayRatio: 0.8}), ShouldBeNil)
		svc := service.New(nil, service.WithTendencyStore(store), service.WithClock(clock))

		give := []model.Asset{player("a", 10)}
		receive := []model.Asset{player("b", 10)}

		Convey("an even trade is Strong", func() {
			c, err := svc.EvaluateTrade(ctx, "redraft_1qb", give, receive, "")
			So(err, ShouldBeNil)
			So(c.FairnessScore, ShouldEqual, 1.0)
			So(c.AcceptanceLabel, ShouldEqual, model.LabelStrong)
		})

		Convey("a low risk counterparty lowers the label one tier", func() {
			c, err := svc.EvaluateTrade(ctx, "redraft_1qb", give, receive, "cautious")
			So(err, ShouldBeNil)
			So(c.AcceptanceLabel, ShouldEqual, model.LabelAggressive)
		})

		Convey("an unknown counterparty is ignored", func() {
			c, err := svc.EvaluateTrade(ctx, "redraft_1qb", give, receive, "stranger")
			So(err, ShouldBeNil)
			So(c.AcceptanceLabel, ShouldEqual, model.LabelStrong)
		})

		Convey("invalid assets are rejected", func() {
			_, err := svc.EvaluateTrade(ctx, "redraft_1qb", []model.Asset{{Kind: "COACH", ID: "x"}}, receive, "")
			So(errors.Is(err, service.ErrInvalidRequest), ShouldBeTrue)

			_, err = svc.EvaluateTrade(ctx, "redraft_1qb", nil, nil, "")
			So(errors.Is(err, service.ErrInvalidRequest), ShouldBeTrue)
		})
	})
}

func TestService_RecordOutcome(t *testing.T) {
	Convey("Given a manager with no history", t, func() {
		svc := service.New(nil, service.WithClock(clock))
		ctx := context.Background()

		Convey("outcomes accumulate into a profile", func() {
			var p tendency.Profile
			var err error
			for i := 0; i < 8; i++ {
				p, err = svc.RecordOutcome(ctx, "m1", tendency.Outcome{Accepted: i%2 == 0, OverpayRatio: 1.2})
				So(err, ShouldBeNil)
			}
			So(p.Aggression, ShouldEqual, tendency.High)
			So(p.RiskTolerance, ShouldEqual, tendency.High)

			got, err := svc.ManagerProfile(ctx, "m1")
			So(err, ShouldBeNil)
			So(got, ShouldResemble, p)
		})

		Convey("an unknown manager profile is not found", func() {
			_, err := svc.ManagerProfile(ctx, "nobody")
			So(errors.Is(err, repository.ErrNotFound), ShouldBeTrue)
		})

		Convey("a blank manager id is rejected", func() {
			_, err := svc.RecordOutcome(ctx, " ", tendency.Outcome{})
			So(errors.Is(err, service.ErrInvalidRequest), ShouldBeTrue)
		})
	})
}

func TestService_LeagueLiquidity(t *testing.T) {
	Convey("Given league activity", t, func() {
		ctx := context.Background()

		Convey("without a feed the score is neutral", func() {
			svc := service.New(nil)
			So(svc.LeagueLiquidity(ctx, "L1"), ShouldResemble, liquidity.Neutral())
		})

		Convey("a failing feed is neutral", func() {
			svc := service.New(nil, service.WithActivitySource(stubActivity{err: leagueimport.ErrNoData}))
			So(svc.LeagueLiquidity(ctx, "L1"), ShouldResemble, liquidity.Neutral())
		})

		Convey("recent trades are scored", func() {
			trades := make([]model.TradeActivity, 0, 20)
			for i := 0; i < 20; i++ {
				trades = append(trades, model.TradeActivity{
					ID:          "t",
					ManagerIDs:  []string{"a", "b", "c", "d", "e", "f", "g", "h", "i", "j"}[i%10 : i%10+1],
					AssetCount:  5,
					CompletedAt: fixedNow.Add(-time.Duration(i+1) * time.Hour),
				})
			}
			svc := service.New(nil,
				service.WithClock(clock),
				service.WithActivitySource(stubActivity{act: &leagueimport.Activity{TotalManagers: 10, Trades: trades}}))

			liq := svc.LeagueLiquidity(ctx, "L1")
			So(liq.Score, ShouldEqual, 100)
			So(liq.Confidence, ShouldEqual, liquidity.Moderate)
		})
	})
}

func TestService_OTBPackages(t *testing.T) {
	Convey("Given a league with one listed player", t, func() {
		ctx := context.Background()
		svc := service.New(nil, service.WithClock(clock))
		So(svc.SaveListing(ctx, model.OTBListing{LeagueID: "L1", RosterID: 2, PlayerID: "star", Active: true}), ShouldBeNil)

		q := model.PackageQuery{
			LeagueID: "L1",
			Username: "Alice",
			Class:    "redraft_1qb",
			RosterID: 1,
			Rosters: map[int][]model.Asset{
				1: {player("mine1", 6), player("mine2", 4)},
				2: {player("star", 10), player("bench", 2)},
			},
			Limit: 5,
		}

		Convey("packages target only the listed player and are cached", func() {
			first, err := svc.OTBPackages(ctx, q)
			So(err, ShouldBeNil)
			So(first.Cached, ShouldBeFalse)
			So(first.Packages, ShouldNotBeEmpty)
			for _, p := range first.Packages {
				So(p.Receive, ShouldHaveLength, 1)
				So(p.Receive[0].ID, ShouldEqual, "star")
			}
			So(first.Packages[0].Give, ShouldHaveLength, 2)
			So(first.Packages[0].AcceptanceLabel, ShouldEqual, model.LabelStrong)

			second, err := svc.OTBPackages(ctx, q)
			So(err, ShouldBeNil)
			So(second.Cached, ShouldBeTrue)
			So(second.SnapshotID, ShouldEqual, first.SnapshotID)
			So(len(second.Packages), ShouldEqual, len(first.Packages))
		})

		Convey("changing the inputs misses the cache", func() {
			_, err := svc.OTBPackages(ctx, q)
			So(err, ShouldBeNil)
			q.Limit = 1
			res, err := svc.OTBPackages(ctx, q)
			So(err, ShouldBeNil)
			So(res.Cached, ShouldBeFalse)
			So(res.Packages, ShouldHaveLength, 1)
		})

		Convey("an unknown roster is rejected", func() {
			q.RosterID = 9
			_, err := svc.OTBPackages(ctx, q)
			So(errors.Is(err, service.ErrInvalidRequest), ShouldBeTrue)
		})
	})
}

func TestService_Recalibration(t *testing.T) {
	Convey("Given feedback for one class", t, func() {
		ctx := context.Background()
		cfg := config.New()
		cfg.MinFeedback = 1
		svc := service.New(cfg, service.WithClock(clock))
		So(svc.AddFeedback(ctx, model.Feedback{
			ID: "f1", LeagueClass: "keeper_sf", Season: 2024,
			Factors: map[string]float64{weights.FactorProduction: 1}, Outcome: 1,
		}), ShouldBeNil)

		Convey("a synchronous run updates only that class", func() {
			report, err := svc.RunRecalibration(ctx, 2024)
			So(err, ShouldBeNil)
			So(report.ClassesProcessed, ShouldEqual, 1)
			So(report.ClassesSkipped, ShouldEqual, 31)

			res := svc.Weights(ctx, "keeper_sf")
			So(res.Source, ShouldEqual, weights.SourceBlended)
			base := weights.Baseline("keeper_sf")[weights.FactorProduction]
			So(res.Weights[weights.FactorProduction], ShouldAlmostEqual, base*1.25, 1e-9)
		})

		Convey("a queued run completes in the background", func() {
			So(svc.Start(ctx), ShouldBeNil)
			defer func() { _ = svc.Stop(ctx) }()

			st, err := svc.RequestRecalibration(ctx, 2024, queue.TriggerAdmin)
			So(err, ShouldBeNil)
			So(st.State, ShouldEqual, jobstatus.StateQueued)

			deadline := time.Now().Add(2 * time.Second)
			var got jobstatus.Status
			for time.Now().Before(deadline) {
				got, _ = svc.RecalibrationStatus(st.ID)
				if got.State.Finished() {
					break
				}
				time.Sleep(5 * time.Millisecond)
			}
			So(got.State, ShouldEqual, jobstatus.StateSucceeded)
			So(got.Report.ClassesProcessed, ShouldEqual, 1)
		})

		Convey("invalid seasons and feedback are rejected", func() {
			_, err := svc.RequestRecalibration(ctx, 0, queue.TriggerAdmin)
			So(errors.Is(err, service.ErrInvalidRequest), ShouldBeTrue)

			err = svc.AddFeedback(ctx, model.Feedback{ID: "f2", LeagueClass: "keeper_sf", Season: 2024, Outcome: 2})
			So(errors.Is(err, service.ErrInvalidRequest), ShouldBeTrue)
		})

		Convey("feedback without a class or with an unknown class is rejected", func() {
			err := svc.AddFeedback(ctx, model.Feedback{ID: "f3", Season: 2024, Outcome: 0.5})
			So(errors.Is(err, service.ErrInvalidRequest), ShouldBeTrue)

			err = svc.AddFeedback(ctx, model.Feedback{ID: "f4", LeagueClass: "salary_cap_sf", Season: 2024, Outcome: 0.5})
			So(errors.Is(err, service.ErrInvalidRequest), ShouldBeTrue)

			err = svc.AddFeedback(ctx, model.Feedback{ID: "f5", LeagueClass: "dynasty_2qb", Season: 2024, Outcome: 0.5})
			So(errors.Is(err, service.ErrInvalidRequest), ShouldBeTrue)
		})

		Convey("a mixed-case class is normalised and recalibrated", func() {
			So(svc.AddFeedback(ctx, model.Feedback{
				ID: "f6", LeagueClass: " Dynasty_SF ", Season: 2024,
				Factors: map[string]float64{weights.FactorProduction: 1}, Outcome: 1,
			}), ShouldBeNil)

			report, err := svc.RunRecalibration(ctx, 2024)
			So(err, ShouldBeNil)
			So(report.ClassesProcessed, ShouldEqual, 2)
			So(svc.Weights(ctx, "dynasty_sf").Source, ShouldEqual, weights.SourceBlended)
		})

		Convey("a retried feedback post counts once", func() {
			cfg.MinFeedback = 2
			strict := service.New(cfg, service.WithClock(clock))
			fb := model.Feedback{
				ID: "dup", LeagueClass: "redraft_1qb", Season: 2024,
				Factors: map[string]float64{weights.FactorProduction: 1}, Outcome: 1,
			}
			So(strict.AddFeedback(ctx, fb), ShouldBeNil)
			So(strict.AddFeedback(ctx, fb), ShouldBeNil)

			report, err := strict.RunRecalibration(ctx, 2024)
			So(err, ShouldBeNil)
			So(report.ClassesProcessed, ShouldEqual, 0)
		})
	})
}

func TestService_Backpressure(t *testing.T) {
	Convey("A full queue rejects recalibration requests", t, func() {
		cfg := config.New()
		cfg.RecalibrationQueueSize = 1
		svc := service.New(cfg)
		ctx := context.Background()

		_, err := svc.RequestRecalibration(ctx, 2024, queue.TriggerAdmin)
		So(err, ShouldBeNil)
		_, err = svc.RequestRecalibration(ctx, 2024, queue.TriggerAdmin)
		So(errors.Is(err, service.ErrBackpressure), ShouldBeTrue)

		stats := svc.GetStats()
		So(stats["queueLength"], ShouldEqual, 1)
		So(stats["started"], ShouldEqual, false)
	})
}

func TestService_StartStop(t *testing.T) {
	Convey("Start and Stop are idempotent", t, func() {
		closed := 0
		svc := service.New(nil, service.WithCloser(func() error { closed++; return nil }))
		ctx := context.Background()

		So(svc.Start(ctx), ShouldBeNil)
		So(svc.Start(ctx), ShouldBeNil)
		So(svc.GetStats()["started"], ShouldEqual, true)
		So(svc.Stop(ctx), ShouldBeNil)
		So(svc.Stop(ctx), ShouldBeNil)
		So(closed, ShouldEqual, 1)

		Convey("and a stopped service refuses to start again", func() {
			So(errors.Is(svc.Start(ctx), service.ErrStopped), ShouldBeTrue)
			time.Sleep(20 * time.Millisecond)
			So(svc.GetStats()["started"], ShouldEqual, false)
		})
	})

	Convey("A service stopped before starting cannot start", t, func() {
		svc := service.New(nil)
		ctx := context.Background()

		So(svc.Stop(ctx), ShouldBeNil)
		So(errors.Is(svc.Start(ctx), service.ErrStopped), ShouldBeTrue)
	})
}
