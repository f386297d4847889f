package service_test

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/jonboulle/clockwork"

	service "github.com/okian/bainoculars/internal/app"
	"github.com/okian/bainoculars/internal/domain/model"
	. "github.com/smartystreets/goconvey/convey"
)

func TestLoop(t *testing.T) {
	Convey("Given a running loop on a fake clock", t, func() {
		clock := clockwork.NewFakeClock()
		loop := service.NewLoop(clock)
		commands := make(chan model.Command, 4)
		handled := make(chan model.Command, 4)
		ctx, cancel := context.WithCancel(context.Background())
		defer cancel()
		go loop.Run(ctx, commands, func(c model.Command) { handled <- c })

		Convey("When a task is scheduled for later", func() {
			fired := make(chan time.Time, 1)
			loop.After(time.Second, func() { fired <- loop.Now() })
			clock.BlockUntil(1)

			Convey("Then it should not run before the delay", func() {
				clock.Advance(999 * time.Millisecond)
				select {
				case <-fired:
					So("fired early", ShouldBeEmpty)
				case <-time.After(50 * time.Millisecond):
				}
			})

			Convey("Then it should run on the loop once the delay passes", func() {
				start := clock.Now()
				clock.Advance(time.Second)
				select {
				case at := <-fired:
					So(at.Sub(start), ShouldEqual, time.Second)
				case <-time.After(time.Second):
					So("timer did not fire", ShouldBeEmpty)
				}
			})
		})

		Convey("When commands arrive", func() {
			commands <- model.Command{Kind: model.CommandCapture}
			commands <- model.Command{Kind: model.CommandBack}

			Convey("Then they should be handled in order", func() {
				So((<-handled).Kind, ShouldEqual, model.CommandCapture)
				So((<-handled).Kind, ShouldEqual, model.CommandBack)
			})
		})

		Convey("When Call runs a function", func() {
			value := 0
			err := loop.Call(ctx, func() { value = 42 })

			Convey("Then it should wait for the result", func() {
				So(err, ShouldBeNil)
				So(value, ShouldEqual, 42)
			})
		})

		Convey("When the loop stops", func() {
			cancel()
			<-loop.Done()

			Convey("Then Post and Call should report it", func() {
				So(loop.Post(func() {}), ShouldBeFalse)
				err := loop.Call(context.Background(), func() {})
				So(errors.Is(err, service.ErrNotRunning), ShouldBeTrue)
			})
		})
	})
}
