// Package model contains domain models passed between layers.
package model

import (
	"image"
	"time"
)

// BytesPerPixel is the packed RGB stride of a Frame.
const BytesPerPixel = 3

// Frame is a single packed RGB image from the camera.
type Frame struct {
	Data      []byte    // packed RGB, row-major, 3 bytes per pixel
	Width     int       // pixels
	Height    int       // pixels
	Timestamp time.Time // acquisition time
	Seq       uint64    // acquisition sequence number, starting at 1
}

// Empty reports whether f carries no pixels.
func (f Frame) Empty() bool {
	return len(f.Data) == 0 || f.Width <= 0 || f.Height <= 0
}

// Clone returns a deep copy of f.
func (f Frame) Clone() Frame {
	out := f
	if f.Data != nil {
		out.Data = make([]byte, len(f.Data))
		copy(out.Data, f.Data)
	}
	return out
}

// Image converts f into an RGBA image suitable for encoding or drawing.
// Missing trailing bytes are left black.
func (f Frame) Image() *image.RGBA {
	img := image.NewRGBA(image.Rect(0, 0, f.Width, f.Height))
	px := f.Width * f.Height
	for i := 0; i < px; i++ {
		src := i * BytesPerPixel
		if src+2 >= len(f.Data) {
			break
		}
		dst := i * 4
		img.Pix[dst] = f.Data[src]
		img.Pix[dst+1] = f.Data[src+1]
		img.Pix[dst+2] = f.Data[src+2]
		img.Pix[dst+3] = 0xff
	}
	return img
}

// FrameFromImage packs any image into an RGB Frame.
func FrameFromImage(img image.Image, ts time.Time, seq uint64) Frame {
	b := img.Bounds()
	w, h := b.Dx(), b.Dy()
	data := make([]byte, 0, w*h*BytesPerPixel)
	for y := b.Min.Y; y < b.Max.Y; y++ {
		for x := b.Min.X; x < b.Max.X; x++ {
			r, g, bl, _ := img.At(x, y).RGBA()
			data = append(data, byte(r>>8), byte(g>>8), byte(bl>>8))
		}
	}
	return Frame{Data: data, Width: w, Height: h, Timestamp: ts, Seq: seq}
}
