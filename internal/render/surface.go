// SPDX-License-Identifier: MIT
package render

import (
	"fmt"
	"image"
	"image/color"
	"image/draw"

	"github.com/tdewolff/canvas"
	"github.com/tdewolff/canvas/renderers/rasterizer"
)

// Surface is an addressable RGBA canvas with device-pixel-ratio scaling.
// Callers work in logical coordinates with a screen-style orientation
// (origin top-left, y growing downward); the backing image holds
// logical × scale physical pixels. Vector strokes are rasterized through
// tdewolff/canvas into the persistent backing image, so successive draw
// calls composite over whatever is already there.
type Surface struct {
	logicalW int
	logicalH int
	scale    float64
	img      *image.RGBA
}

// NewSurface allocates a surface. This is the one place in the render
// path allowed to hard-fail: a visualizer without a valid surface can
// never recover later.
func NewSurface(width, height int, scale float64) (*Surface, error) {
	s := &Surface{}
	if err := s.Resize(width, height, scale); err != nil {
		return nil, err
	}
	return s, nil
}

// Resize reallocates the backing image at logical × scale physical
// pixels. It is idempotent: the physical size is always recomputed from
// the arguments, never from the previous backing store, so repeated
// calls cannot accumulate scale. Contents are discarded.
func (s *Surface) Resize(width, height int, scale float64) error {
	if width <= 0 || height <= 0 {
		return fmt.Errorf("surface dimensions must be positive, got %dx%d", width, height)
	}
	if scale <= 0 {
		return fmt.Errorf("surface scale must be positive, got %f", scale)
	}

	s.logicalW = width
	s.logicalH = height
	s.scale = scale
	s.img = image.NewRGBA(image.Rect(0, 0, physicalSize(width, scale), physicalSize(height, scale)))
	return nil
}

func physicalSize(logical int, scale float64) int {
	p := int(float64(logical)*scale + 0.5)
	if p < 1 {
		p = 1
	}
	return p
}

// Width returns the logical width.
func (s *Surface) Width() int { return s.logicalW }

// Height returns the logical height.
func (s *Surface) Height() int { return s.logicalH }

// Scale returns the device pixel ratio.
func (s *Surface) Scale() float64 { return s.scale }

// Image exposes the backing store for blitting and pixel-level work.
func (s *Surface) Image() *image.RGBA { return s.img }

// Fill overwrites every pixel with an opaque color (a hard clear).
func (s *Surface) Fill(c color.RGBA) {
	pix := s.img.Pix
	if len(pix) == 0 {
		return
	}
	pix[0], pix[1], pix[2], pix[3] = c.R, c.G, c.B, c.A
	// Double the filled prefix until the buffer is covered.
	for filled := 4; filled < len(pix); filled *= 2 {
		copy(pix[filled:], pix[:filled])
	}
}

// FillOver composites a translucent color over the whole surface. Used
// for motion-trail fades where a hard clear would erase the history.
// The color is alpha-premultiplied, per stdlib draw semantics.
func (s *Surface) FillOver(c color.RGBA) {
	draw.Draw(s.img, s.img.Bounds(), image.NewUniform(c), image.Point{}, draw.Over)
}

// StrokePolyline strokes an open polyline through the given logical
// coordinates. Fewer than two points is a no-op.
func (s *Surface) StrokePolyline(points [][2]float64, col color.Color, width float64) {
	s.strokePath(points, col, width, false)
}

// StrokeLoop strokes a closed curve through the given logical
// coordinates.
func (s *Surface) StrokeLoop(points [][2]float64, col color.Color, width float64) {
	s.strokePath(points, col, width, true)
}

func (s *Surface) strokePath(points [][2]float64, col color.Color, width float64, closed bool) {
	if len(points) < 2 {
		return
	}

	p := &canvas.Path{}
	p.MoveTo(points[0][0], s.flipY(points[0][1]))
	for _, pt := range points[1:] {
		p.LineTo(pt[0], s.flipY(pt[1]))
	}
	if closed {
		p.Close()
	}

	c := canvas.New(float64(s.logicalW), float64(s.logicalH))
	ctx := canvas.NewContext(c)
	ctx.SetFillColor(canvas.Transparent)
	ctx.SetStrokeColor(col)
	ctx.SetStrokeWidth(width)
	ctx.DrawPath(0, 0, p)

	// Rasterize over the persistent backing image; scale maps logical
	// canvas units onto physical pixels.
	c.RenderTo(rasterizer.FromImage(s.img, canvas.Resolution(s.scale), canvas.DefaultColorSpace))
}

// flipY converts screen-oriented logical y (down) to the canvas
// coordinate system (up).
func (s *Surface) flipY(y float64) float64 {
	return float64(s.logicalH) - y
}
