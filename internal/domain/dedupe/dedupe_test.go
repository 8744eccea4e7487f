package dedupe_test

import (
	"context"
	"fmt"
	"sync"
	"testing"

	dedupe "github.com/okian/pscore/internal/domain/dedupe"
	. "github.com/smartystreets/goconvey/convey"
)

func TestInMemoryDeduper(t *testing.T) {
	ctx := context.Background()

	Convey("Given a new deduper", t, func() {
		d := dedupe.NewInMemoryDeduper()
		So(d.Size(), ShouldEqual, 0)

		Convey("When a run hash is recorded twice", func() {
			first := d.SeenAndRecord(ctx, "h1")
			second := d.SeenAndRecord(ctx, "h1")

			Convey("Then only the first call records it", func() {
				So(first, ShouldBeFalse)
				So(second, ShouldBeTrue)
				So(d.Size(), ShouldEqual, 1)
			})
		})

		Convey("When a recorded hash is unrecorded", func() {
			d.SeenAndRecord(ctx, "h1")
			d.Unrecord(ctx, "h1")
			d.Unrecord(ctx, "missing")

			Convey("Then it can be recorded again", func() {
				So(d.Size(), ShouldEqual, 0)
				So(d.SeenAndRecord(ctx, "h1"), ShouldBeFalse)
			})
		})
	})
}

func TestDedupeConcurrency(t *testing.T) {
	Convey("Given a deduper shared by goroutines", t, func() {
		d := dedupe.NewInMemoryDeduper()
		const workers = 10
		const perWorker = 100

		var wg sync.WaitGroup
		for i := 0; i < workers; i++ {
			wg.Add(1)
			go func(w int) {
				defer wg.Done()
				for j := 0; j < perWorker; j++ {
					d.SeenAndRecord(context.Background(), fmt.Sprintf("h-%d-%d", w, j))
				}
			}(i)
		}
		wg.Wait()

		Convey("Then every id is recorded once", func() {
			So(d.Size(), ShouldEqual, int64(workers*perWorker))
		})
	})
}
