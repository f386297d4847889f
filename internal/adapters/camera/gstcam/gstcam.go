// Package gstcam reads frames from a V4L2 camera through a GStreamer
// pipeline:
//
//	v4l2src -> videoconvert -> videoscale -> capsfilter(RGB) -> appsink
//
// The appsink keeps a single buffer and drops stale ones; the newest sample
// is copied out in the callback and handed to TryRead.
package gstcam

import (
	"context"
	"fmt"
	"sync"
	"sync/atomic"
	"time"

	"github.com/tinyzimmer/go-gst/gst"
	"github.com/tinyzimmer/go-gst/gst/app"

	"github.com/okian/bainoculars/internal/domain/model"
	"github.com/okian/bainoculars/pkg/logger"
)

const (
	stateChangeTimeout = 5 * time.Second
	busPollInterval    = 50 * time.Millisecond
)

// Config describes the capture device.
type Config struct {
	Device string
	Width  int
	Height int
}

// Camera is a frame source backed by GStreamer.
type Camera struct {
	cfg      Config
	pipeline *gst.Pipeline
	sink     *app.Sink
	logger   logger.Logger

	mu      sync.Mutex
	latest  model.Frame
	fresh   bool
	samples atomic.Uint64
	dropped atomic.Uint64

	cancel context.CancelFunc
	wg     sync.WaitGroup
	closed atomic.Bool
}

// Open builds the pipeline and sets it to PLAYING.
func Open(ctx context.Context, cfg Config) (*Camera, error) {
	gst.Init(nil)

	c := &Camera{cfg: cfg, logger: logger.Get().Named("camera")}
	if err := c.build(); err != nil {
		return nil, err
	}

	c.sink.SetCallbacks(&app.SinkCallbacks{
		NewSampleFunc: c.onNewSample,
	})

	if err := c.pipeline.SetState(gst.StatePlaying); err != nil {
		_ = c.pipeline.SetState(gst.StateNull)
		return nil, fmt.Errorf("%w: failed to start pipeline: %w", ErrPipeline, err)
	}

	bus := c.pipeline.GetPipelineBus()
	if msg := bus.TimedPop(stateChangeTimeout); msg != nil && msg.Type() == gst.MessageError {
		gerr := msg.ParseError()
		_ = c.pipeline.SetState(gst.StateNull)
		return nil, fmt.Errorf("%w: %s", ErrPipeline, gerr.Error())
	}

	monitorCtx, cancel := context.WithCancel(ctx)
	c.cancel = cancel
	c.wg.Add(1)
	go c.monitor(monitorCtx, bus)

	c.logger.Info(ctx, "camera started",
		logger.String("device", cfg.Device),
		logger.Int("width", cfg.Width),
		logger.Int("height", cfg.Height),
	)
	return c, nil
}

func (c *Camera) build() error {
	pipeline, err := gst.NewPipeline("bainoculars")
	if err != nil {
		return fmt.Errorf("%w: failed to create pipeline: %w", ErrPipeline, err)
	}

	src, err := gst.NewElement("v4l2src")
	if err != nil {
		return fmt.Errorf("%w: failed to create v4l2src: %w", ErrPipeline, err)
	}
	if c.cfg.Device != "" {
		src.SetProperty("device", c.cfg.Device)
	}

	convert, err := gst.NewElement("videoconvert")
	if err != nil {
		return fmt.Errorf("%w: failed to create videoconvert: %w", ErrPipeline, err)
	}
	scale, err := gst.NewElement("videoscale")
	if err != nil {
		return fmt.Errorf("%w: failed to create videoscale: %w", ErrPipeline, err)
	}
	caps, err := gst.NewElement("capsfilter")
	if err != nil {
		return fmt.Errorf("%w: failed to create capsfilter: %w", ErrPipeline, err)
	}
	caps.SetProperty("caps", gst.NewCapsFromString(
		fmt.Sprintf("video/x-raw,format=RGB,width=%d,height=%d", c.cfg.Width, c.cfg.Height),
	))

	sink, err := app.NewAppSink()
	if err != nil {
		return fmt.Errorf("%w: failed to create appsink: %w", ErrPipeline, err)
	}
	sink.SetProperty("sync", false)
	sink.SetProperty("max-buffers", 1)
	sink.SetProperty("drop", true)

	if err := pipeline.AddMany(src, convert, scale, caps, sink.Element); err != nil {
		return fmt.Errorf("%w: failed to add elements: %w", ErrPipeline, err)
	}
	if err := gst.ElementLinkMany(src, convert, scale, caps, sink.Element); err != nil {
		return fmt.Errorf("%w: failed to link elements: %w", ErrPipeline, err)
	}

	c.pipeline = pipeline
	c.sink = sink
	return nil
}

// onNewSample copies the newest buffer out of GStreamer; the buffer is
// reused once the callback returns.
func (c *Camera) onNewSample(sink *app.Sink) gst.FlowReturn {
	sample := sink.PullSample()
	if sample == nil {
		return gst.FlowOK
	}
	buffer := sample.GetBuffer()
	if buffer == nil {
		return gst.FlowOK
	}

	mapInfo := buffer.Map(gst.MapRead)
	data := mapInfo.Bytes()
	if len(data) == 0 {
		buffer.Unmap()
		return gst.FlowOK
	}
	frameData := make([]byte, len(data))
	copy(frameData, data)
	buffer.Unmap()

	c.samples.Add(1)
	c.mu.Lock()
	if c.fresh {
		c.dropped.Add(1)
	}
	c.latest = model.Frame{
		Data:      frameData,
		Width:     c.cfg.Width,
		Height:    c.cfg.Height,
		Timestamp: time.Now(),
	}
	c.fresh = true
	c.mu.Unlock()
	return gst.FlowOK
}

// TryRead returns the newest sample not yet handed out.
func (c *Camera) TryRead() (model.Frame, bool) {
	if c.closed.Load() {
		return model.Frame{}, false
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	if !c.fresh {
		return model.Frame{}, false
	}
	c.fresh = false
	f := c.latest
	c.latest = model.Frame{}
	return f, true
}

func (c *Camera) monitor(ctx context.Context, bus *gst.Bus) {
	defer c.wg.Done()
	for {
		select {
		case <-ctx.Done():
			return
		default:
		}
		msg := bus.TimedPop(busPollInterval)
		if msg == nil {
			continue
		}
		switch msg.Type() {
		case gst.MessageEOS:
			c.logger.Warn(ctx, "camera end of stream")
			return
		case gst.MessageError:
			gerr := msg.ParseError()
			c.logger.Error(ctx, "camera pipeline error",
				logger.String("error", gerr.Error()),
				logger.String("debug", gerr.DebugString()),
			)
		}
	}
}

// Close stops the pipeline and releases the device.
func (c *Camera) Close() error {
	if !c.closed.CompareAndSwap(false, true) {
		return nil
	}
	if c.cancel != nil {
		c.cancel()
	}
	c.wg.Wait()
	if err := c.pipeline.SetState(gst.StateNull); err != nil {
		return fmt.Errorf("%w: failed to set pipeline to NULL: %w", ErrPipeline, err)
	}
	c.logger.Info(context.Background(), "camera released",
		logger.Uint64("samples", c.samples.Load()),
		logger.Uint64("dropped", c.dropped.Load()),
	)
	return nil
}
