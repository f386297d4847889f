package trigger_test

import (
	"context"
	"errors"
	"testing"

	"periph.io/x/conn/v3/gpio"
	"periph.io/x/conn/v3/gpio/gpioreg"
	"periph.io/x/conn/v3/gpio/gpiotest"

	"github.com/okian/bainoculars/internal/adapters/trigger"
	"github.com/okian/bainoculars/pkg/logger"
	. "github.com/smartystreets/goconvey/convey"
)

func init() {
	logger.Init()
}

func TestButton(t *testing.T) {
	Convey("Given a fake pin registered as TEST_BTN", t, func() {
		pin := &gpiotest.Pin{N: "TEST_BTN", Num: 900, L: gpio.High}
		_ = gpioreg.Register(pin)
		defer func() { _ = gpioreg.Unregister("TEST_BTN") }()

		b, err := trigger.OpenPin(context.Background(), "TEST_BTN")
		So(err, ShouldBeNil)

		Convey("Then it should be configured with a pull-up", func() {
			So(pin.P, ShouldEqual, gpio.PullUp)
		})

		Convey("When the line is high", func() {
			Convey("Then the button should read released", func() {
				So(b.Pressed(), ShouldBeFalse)
			})
		})

		Convey("When the line is pulled low", func() {
			pin.L = gpio.Low
			Convey("Then the button should read pressed", func() {
				So(b.Pressed(), ShouldBeTrue)
			})
		})

		Convey("When closed", func() {
			pin.L = gpio.Low
			So(b.Close(), ShouldBeNil)
			Convey("Then it should never report pressed", func() {
				So(b.Pressed(), ShouldBeFalse)
				So(b.Close(), ShouldBeNil)
			})
		})
	})

	Convey("Given an unknown pin", t, func() {
		_, err := trigger.OpenPin(context.Background(), "NO_SUCH_PIN")
		So(errors.Is(err, trigger.ErrPinNotFound), ShouldBeTrue)
	})
}
