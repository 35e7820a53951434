package inflight_test

import (
	"context"
	"sync"
	"sync/atomic"
	"testing"

	"github.com/okian/leaguelearn/internal/domain/inflight"
	. "github.com/smartystreets/goconvey/convey"
)

func TestInMemoryGuard(t *testing.T) {
	ctx := context.Background()

	Convey("Given a new in-memory guard", t, func() {
		g := inflight.NewInMemoryGuard()
		So(g.Size(), ShouldEqual, 0)

		Convey("When a unit is acquired", func() {
			So(g.TryAcquire(ctx, "dynasty_sf", 2024), ShouldBeTrue)

			Convey("Then the same unit is refused", func() {
				So(g.TryAcquire(ctx, "dynasty_sf", 2024), ShouldBeFalse)
				So(g.Size(), ShouldEqual, 1)
			})

			Convey("Then other seasons and classes are independent", func() {
				So(g.TryAcquire(ctx, "dynasty_sf", 2025), ShouldBeTrue)
				So(g.TryAcquire(ctx, "keeper_sf", 2024), ShouldBeTrue)
				So(g.Size(), ShouldEqual, 3)
			})

			Convey("And released", func() {
				g.Release(ctx, "dynasty_sf", 2024)

				Convey("Then it can be acquired again", func() {
					So(g.Size(), ShouldEqual, 0)
					So(g.TryAcquire(ctx, "dynasty_sf", 2024), ShouldBeTrue)
				})
			})
		})

		Convey("When releasing a unit that was never held", func() {
			g.Release(ctx, "redraft_1qb", 2024)
			So(g.Size(), ShouldEqual, 0)
		})
	})

	Convey("Given a bounded guard", t, func() {
		g := inflight.NewInMemoryGuard(inflight.WithMaxSize(1))
		So(g.TryAcquire(ctx, "a", 1), ShouldBeTrue)
		So(g.TryAcquire(ctx, "b", 1), ShouldBeFalse)
		g.Release(ctx, "a", 1)
		So(g.TryAcquire(ctx, "b", 1), ShouldBeTrue)
	})

	Convey("Given concurrent callers for one unit", t, func() {
		g := inflight.NewInMemoryGuard()
		var wins atomic.Int32
		var wg sync.WaitGroup
		for i := 0; i < 50; i++ {
			wg.Add(1)
			go func() {
				defer wg.Done()
				if g.TryAcquire(ctx, "dynasty_sf", 2024) {
					wins.Add(1)
				}
			}()
		}
		wg.Wait()
		So(wins.Load(), ShouldEqual, 1)
	})
}
