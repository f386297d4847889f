package framebuffer_test

import (
	"sync"
	"testing"

	"github.com/okian/bainoculars/internal/domain/framebuffer"
	"github.com/okian/bainoculars/internal/domain/model"
	"github.com/smartystreets/goconvey/convey"
)

func frameOf(seq uint64, fill byte) model.Frame {
	data := make([]byte, 4*4*model.BytesPerPixel)
	for i := range data {
		data[i] = fill
	}
	return model.Frame{Data: data, Width: 4, Height: 4, Seq: seq}
}

func TestBuffer(t *testing.T) {
	convey.Convey("Given an empty buffer", t, func() {
		b := framebuffer.New()

		convey.Convey("Then snapshot should report no frame", func() {
			_, ok := b.Snapshot()
			convey.So(ok, convey.ShouldBeFalse)
			convey.So(b.Seq(), convey.ShouldEqual, 0)
		})

		convey.Convey("When an empty frame is published", func() {
			b.Publish(model.Frame{})

			convey.Convey("Then the buffer should stay empty", func() {
				_, ok := b.Snapshot()
				convey.So(ok, convey.ShouldBeFalse)
			})
		})

		convey.Convey("When a frame is published", func() {
			src := frameOf(1, 10)
			b.Publish(src)

			convey.Convey("Then mutating the source should not change the buffer", func() {
				src.Data[0] = 99
				got, ok := b.Snapshot()
				convey.So(ok, convey.ShouldBeTrue)
				convey.So(got.Data[0], convey.ShouldEqual, 10)
			})

			convey.Convey("Then two snapshots should not share memory", func() {
				a, _ := b.Snapshot()
				c, _ := b.Snapshot()
				a.Data[0] = 77
				convey.So(c.Data[0], convey.ShouldEqual, 10)
			})

			convey.Convey("Then a later publish should replace it", func() {
				b.Publish(frameOf(2, 20))
				got, _ := b.Snapshot()
				convey.So(got.Seq, convey.ShouldEqual, 2)
				convey.So(got.Data[5], convey.ShouldEqual, 20)
			})
		})

		convey.Convey("When one writer and many readers run concurrently", func() {
			var wg sync.WaitGroup
			wg.Add(1)
			go func() {
				defer wg.Done()
				for i := 1; i <= 200; i++ {
					b.Publish(frameOf(uint64(i), byte(i)))
				}
			}()

			torn := make(chan bool, 8)
			for r := 0; r < 8; r++ {
				wg.Add(1)
				go func() {
					defer wg.Done()
					for i := 0; i < 200; i++ {
						f, ok := b.Snapshot()
						if !ok {
							continue
						}
						for _, v := range f.Data {
							if v != f.Data[0] || uint64(v) != f.Seq%256 {
								torn <- true
								return
							}
						}
					}
				}()
			}
			wg.Wait()
			close(torn)

			convey.Convey("Then no reader should observe a torn frame", func() {
				_, saw := <-torn
				convey.So(saw, convey.ShouldBeFalse)
			})
		})
	})
}
