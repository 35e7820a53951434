package scoring_test

import (
	"math"
	"testing"

	"github.com/okian/leaguelearn/internal/domain/model"
	"github.com/okian/leaguelearn/internal/domain/scoring"
	. "github.com/smartystreets/goconvey/convey"
)

func TestWeightedScorer_Value(t *testing.T) {
	Convey("Given a new weighted scorer", t, func() {
		scorer := scoring.NewWeightedScorer()
		w := model.WeightVector{"production": 1.0, "upside": 0.5, "age_curve": 0.8}

		Convey("When scoring a player with every factor", func() {
			a := model.Asset{Kind: model.AssetPlayer, ID: "p1", Factors: map[string]float64{"production": 10, "upside": 4, "age_curve": 5}}

			Convey("Then it should apply weight-based scoring", func() {
				So(scorer.Value(a, w), ShouldAlmostEqual, 10+2+4)
			})
		})

		Convey("When the asset lacks a factor", func() {
			a := model.Asset{Kind: model.AssetPlayer, ID: "p2", Factors: map[string]float64{"production": 10}}

			Convey("Then the missing factor contributes nothing", func() {
				So(scorer.Value(a, w), ShouldEqual, 10)
			})
		})

		Convey("When the asset has factors outside the vector", func() {
			a := model.Asset{Kind: model.AssetPlayer, ID: "p3", Factors: map[string]float64{"vibes": 100}}

			Convey("Then they are ignored", func() {
				So(scorer.Value(a, w), ShouldEqual, 0)
			})
		})

		Convey("When scoring with extreme values", func() {
			Convey("And the total is negative", func() {
				a := model.Asset{Kind: model.AssetPlayer, ID: "p4", Factors: map[string]float64{"production": -5}}
				So(scorer.Value(a, w), ShouldEqual, 0)
			})

			Convey("And a factor is NaN", func() {
				a := model.Asset{Kind: model.AssetPlayer, ID: "p5", Factors: map[string]float64{"production": math.NaN(), "upside": 2}}
				So(scorer.Value(a, w), ShouldEqual, 1)
			})

			Convey("And a factor is infinite", func() {
				a := model.Asset{Kind: model.AssetPlayer, ID: "p6", Factors: map[string]float64{"production": math.Inf(1)}}
				So(scorer.Value(a, w), ShouldEqual, 0)
			})
		})
	})

	Convey("Given a scorer with custom options", t, func() {
		scorer := scoring.NewWeightedScorer(
			scoring.WithKindMultiplier(model.AssetPick, 0.5),
			scoring.WithMaxValue(15),
		)
		w := model.WeightVector{"production": 1}

		Convey("When scoring a pick", func() {
			a := model.Asset{Kind: model.AssetPick, ID: "2026-1", Factors: map[string]float64{"production": 10}}
			So(scorer.Value(a, w), ShouldEqual, 5)
		})

		Convey("When a value exceeds the cap", func() {
			a := model.Asset{Kind: model.AssetPlayer, ID: "p1", Factors: map[string]float64{"production": 40}}
			So(scorer.Value(a, w), ShouldEqual, 15)
		})

		Convey("When summing a side", func() {
			assets := []model.Asset{
				{Kind: model.AssetPlayer, ID: "p1", Factors: map[string]float64{"production": 4}},
				{Kind: model.AssetPick, ID: "k1", Factors: map[string]float64{"production": 4}},
			}
			So(scoring.Total(scorer, assets, w), ShouldEqual, 6)
			So(scoring.Total(scorer, nil, w), ShouldEqual, 0)
		})
	})

	Convey("Given the same inputs twice", t, func() {
		scorer := scoring.NewWeightedScorer()
		a := model.Asset{Kind: model.AssetPlayer, ID: "p1", Factors: map[string]float64{"production": 0.1, "upside": 0.2, "age_curve": 0.3}}
		w := model.WeightVector{"production": 0.7, "upside": 0.11, "age_curve": 1.3}
		So(math.Float64bits(scorer.Value(a, w)), ShouldEqual, math.Float64bits(scorer.Value(a, w)))
	})
}
