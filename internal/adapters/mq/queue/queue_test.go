package queue

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/mooot/league/internal/domain/model"
	. "github.com/smartystreets/goconvey/convey"
)

func rec(id int64) Record {
	return model.GameRecord{ChatID: 1, Player: model.Human(id), PlayerName: "p", Points: 3, RecordedAt: time.Unix(0, 0)}
}

func TestInMemoryQueue(t *testing.T) {
	Convey("Given a queue of capacity two", t, func() {
		ctx := context.Background()
		q := NewInMemoryQueue(WithCapacity(2))
		So(q.Cap(), ShouldEqual, 2)
		So(q.Len(ctx), ShouldEqual, 0)

		Convey("When records are enqueued and dequeued", func() {
			So(q.Enqueue(ctx, rec(1)), ShouldBeTrue)
			So(q.Len(ctx), ShouldEqual, 1)
			got := <-q.Dequeue(ctx)
			So(got.Player, ShouldResemble, model.Human(1))
			So(q.Len(ctx), ShouldEqual, 0)
		})

		Convey("When the queue is full", func() {
			So(q.Enqueue(ctx, rec(1)), ShouldBeTrue)
			So(q.Enqueue(ctx, rec(2)), ShouldBeTrue)

			Convey("Then further records are refused without blocking", func() {
				So(q.Enqueue(ctx, rec(3)), ShouldBeFalse)
				So(q.Len(ctx), ShouldEqual, 2)
			})
		})

		Convey("When the queue is closed with records buffered", func() {
			So(q.Enqueue(ctx, rec(1)), ShouldBeTrue)
			So(q.Close(), ShouldBeNil)
			So(q.Close(), ShouldBeNil)

			Convey("Then nothing new is accepted but buffered records drain", func() {
				So(q.IsClosed(), ShouldBeTrue)
				So(q.Enqueue(ctx, rec(2)), ShouldBeFalse)
				var drained []Record
				for r := range q.Dequeue(ctx) {
					drained = append(drained, r)
				}
				So(drained, ShouldHaveLength, 1)
			})
		})

		Convey("When the context is already cancelled", func() {
			cctx, cancel := context.WithCancel(ctx)
			cancel()
			So(q.Enqueue(cctx, rec(1)), ShouldBeFalse)
		})
	})
}

func TestInMemoryQueueConcurrency(t *testing.T) {
	Convey("Given producers racing against a consumer", t, func() {
		ctx := context.Background()
		q := NewInMemoryQueue(WithCapacity(10000))

		var wg sync.WaitGroup
		for p := 0; p < 10; p++ {
			wg.Add(1)
			go func(p int) {
				defer wg.Done()
				for i := 0; i < 100; i++ {
					q.Enqueue(ctx, rec(int64(p*100+i+1)))
				}
			}(p)
		}
		wg.Wait()
		So(q.Close(), ShouldBeNil)

		count := 0
		for range q.Dequeue(ctx) {
			count++
		}
		So(count, ShouldEqual, 1000)
	})
}
