package classify_test

import (
	"testing"

	"github.com/okian/leaguelearn/internal/domain/classify"
	"github.com/okian/leaguelearn/internal/domain/model"
	. "github.com/smartystreets/goconvey/convey"
)

func TestClassify(t *testing.T) {
	Convey("Given raw league attributes", t, func() {
		Convey("When the type is known", func() {
			So(classify.Classify("dynasty", "", true), ShouldEqual, model.LeagueClass("dynasty_sf"))
			So(classify.Classify("keeper", "", false), ShouldEqual, model.LeagueClass("keeper_1qb"))
		})

		Convey("When input differs only by case and whitespace", func() {
			So(classify.Classify("  Dynasty ", "IDP", false), ShouldEqual, classify.Classify("dynasty", "idp", false))
		})

		Convey("When aliases are used", func() {
			So(classify.Classify("bestball", "tep", true), ShouldEqual, model.LeagueClass("best_ball_sf_te_premium"))
			So(classify.Classify("best-ball", "te_premium", true), ShouldEqual, classify.Classify("best_ball", "TEP", true))
		})

		Convey("When the type is unknown", func() {
			So(classify.Classify("guillotine", "", false), ShouldEqual, classify.DefaultClass)
			So(classify.Classify("", "", false), ShouldEqual, classify.DefaultClass)
		})

		Convey("When the specialty is unknown it is dropped", func() {
			So(classify.Classify("dynasty", "superflex-ppr", false), ShouldEqual, model.LeagueClass("dynasty_1qb"))
		})

		Convey("Then repeated calls are stable", func() {
			a := classify.Classify("Keeper", "devy", true)
			b := classify.Classify("Keeper", "devy", true)
			So(a, ShouldEqual, b)
		})
	})
}

func TestAllClasses(t *testing.T) {
	Convey("Given the class enumeration", t, func() {
		all := classify.AllClasses()

		Convey("Then it is stable and unique", func() {
			So(all, ShouldResemble, classify.AllClasses())
			seen := map[model.LeagueClass]bool{}
			for _, c := range all {
				So(seen[c], ShouldBeFalse)
				seen[c] = true
			}
			So(len(all), ShouldEqual, 32)
			So(all[0], ShouldEqual, classify.DefaultClass)
		})

		Convey("Then every classified league is enumerated", func() {
			seen := map[model.LeagueClass]bool{}
			for _, c := range all {
				seen[c] = true
			}
			So(seen[classify.Classify("best-ball", "devy", true)], ShouldBeTrue)
			So(seen[classify.Classify("DYNASTY", "tep", false)], ShouldBeTrue)
		})

		Convey("Then every class parses back", func() {
			for _, c := range all {
				lt, sf, sp, ok := classify.Parts(c)
				So(ok, ShouldBeTrue)
				So(classify.Classify(lt, sp, sf), ShouldEqual, c)
			}
			_, _, _, ok := classify.Parts("dynasty_2qb")
			So(ok, ShouldBeFalse)
		})
	})
}
