package display

import (
	"image"
	"image/color"

	"golang.org/x/image/draw"
	"golang.org/x/image/font"
	"golang.org/x/image/font/basicfont"
	"golang.org/x/image/math/fixed"
)

var (
	outlineColor = color.RGBA{R: 180, G: 105, B: 255, A: 255}
	textColor    = color.RGBA{R: 255, G: 255, B: 255, A: 255}
	menuColor    = color.RGBA{R: 24, G: 32, B: 40, A: 255}
	face         = basicfont.Face7x13
)

const (
	margin     = 12
	lineHeight = 18
)

// canvas returns a w x h image with src scaled onto it, or filled with bg.
func canvas(src image.Image, w, h int, bg color.Color) *image.RGBA {
	dst := image.NewRGBA(image.Rect(0, 0, w, h))
	if src == nil {
		draw.Draw(dst, dst.Bounds(), image.NewUniform(bg), image.Point{}, draw.Src)
		return dst
	}
	if src.Bounds().Dx() == w && src.Bounds().Dy() == h {
		draw.Draw(dst, dst.Bounds(), src, src.Bounds().Min, draw.Src)
		return dst
	}
	draw.ApproxBiLinear.Scale(dst, dst.Bounds(), src, src.Bounds(), draw.Src, nil)
	return dst
}

// outlined draws s with its baseline at (x, y), pink outline and white fill.
func outlined(dst draw.Image, s string, x, y int) {
	d := &font.Drawer{Dst: dst, Face: face}
	d.Src = image.NewUniform(outlineColor)
	for _, off := range [][2]int{{-1, -1}, {0, -1}, {1, -1}, {-1, 0}, {1, 0}, {-1, 1}, {0, 1}, {1, 1}} {
		d.Dot = fixed.P(x+off[0], y+off[1])
		d.DrawString(s)
	}
	d.Src = image.NewUniform(textColor)
	d.Dot = fixed.P(x, y)
	d.DrawString(s)
}

// centered draws s horizontally centred with its baseline at y.
func centered(dst *image.RGBA, s string, y int) {
	w := font.MeasureString(face, s).Round()
	x := (dst.Bounds().Dx() - w) / 2
	if x < margin {
		x = margin
	}
	outlined(dst, s, x, y)
}
