package compose

import (
	"image"
	"math"
	"strconv"

	"github.com/fogleman/gg"
	"golang.org/x/image/font/basicfont"

	"github.com/pixelbooth/montage/pkg/template"
)

// Preview renders a wireframe of the layout for template authors: the canvas
// in its background color, one outlined box per placement (rotated as it
// will be at composite time) and the placement's 1-based index at its
// center. No photo or art files are loaded.
func Preview(l *template.Layout) (image.Image, error) {
	dc := gg.NewContext(l.CanvasWidth, l.CanvasHeight)

	bg := RGB{R: 238, G: 238, B: 238}
	if l.BackgroundColor != "" {
		c, err := ParseHex(l.BackgroundColor)
		if err != nil {
			return nil, err
		}
		bg = c
	}
	dc.SetColor(bg.NRGBA())
	dc.Clear()

	dc.SetFontFace(basicfont.Face7x13)
	for i, p := range l.Placements {
		drawPlacement(dc, p, strconv.Itoa(i+1))
	}
	return dc.Image(), nil
}

// drawPlacement outlines one placement box. The placement's (x, y) is the
// top-left of the post-rotation bounding box, so the pre-rotation rectangle
// is drawn rotated about the bounding box center.
func drawPlacement(dc *gg.Context, p template.Placement, label string) {
	w, h := float64(p.Width), float64(p.Height)
	bw, bh := rotatedBounds(w, h, p.Rotation)
	cx := float64(p.X) + bw/2
	cy := float64(p.Y) + bh/2

	dc.Push()
	if p.Rotation != 0 {
		// Screen coordinates grow downward, so a counter-clockwise visual
		// rotation is a negative angle.
		dc.RotateAbout(-gg.Radians(float64(p.Rotation)), cx, cy)
	}
	dc.SetRGBA255(40, 40, 40, 255)
	dc.SetLineWidth(2)
	dc.DrawRectangle(cx-w/2, cy-h/2, w, h)
	dc.Stroke()
	dc.Pop()

	dc.SetRGBA255(40, 40, 40, 255)
	dc.DrawStringAnchored(label, cx, cy, 0.5, 0.5)
}

// rotatedBounds returns the axis-aligned bounding box of a w x h rectangle
// rotated by deg degrees.
func rotatedBounds(w, h float64, deg int) (float64, float64) {
	if deg == 0 {
		return w, h
	}
	rad := float64(deg) * math.Pi / 180
	sin, cos := math.Abs(math.Sin(rad)), math.Abs(math.Cos(rad))
	return w*cos + h*sin, w*sin + h*cos
}
