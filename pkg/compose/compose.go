// Package compose renders a validated template layout plus an ordered list
// of captured photos into one composite raster image.
//
// Rendering is a pure function of (layout, photos): it performs no side
// effects on its inputs, shares no state across invocations and produces
// byte-identical output for identical input. Referenced art files are loaded
// at render time; any missing or corrupt file fails the whole composite and
// no partial canvas is returned.
package compose

import (
	"errors"
	"fmt"
	"image"
	"image/color"

	"github.com/disintegration/imaging"

	"github.com/pixelbooth/montage/pkg/template"
)

// ErrShortImageList reports fewer input photos than layout placements.
var ErrShortImageList = errors.New("fewer images than placements")

// Render executes the layout's compositing pipeline:
//
//  1. Allocate a canvas filled with the layout's background color, or fully
//     transparent when no color is set.
//  2. Paste the background image, if any, at the origin. This paste is an
//     opaque overwrite - the background is meant to fully occupy the canvas,
//     so its alpha channel is deliberately not used as a mask.
//  3. For each placement in document order, paired by index with photos:
//     shrink the photo proportionally so neither dimension exceeds the
//     placement bounds (never upscaling), rotate it counter-clockwise with
//     an expanding bounding box when rotation is set, then paste it at
//     (x, y) using its own alpha as a mask. (x, y) is the top-left of the
//     post-rotation bounding box.
//  4. Paste the foreground image, if any, at the origin using its alpha as
//     a mask, so overlay cutouts show the layers beneath.
//
// Photos beyond the placement count are ignored; fewer photos than
// placements fails with ErrShortImageList before any work is done.
func Render(l *template.Layout, photos []image.Image) (*image.NRGBA, error) {
	if len(photos) < len(l.Placements) {
		return nil, fmt.Errorf("%w: have %d, need %d", ErrShortImageList, len(photos), len(l.Placements))
	}

	bg := color.NRGBA{}
	if l.BackgroundColor != "" {
		c, err := ParseHex(l.BackgroundColor)
		if err != nil {
			return nil, err
		}
		bg = c.NRGBA()
	}
	canvas := imaging.New(l.CanvasWidth, l.CanvasHeight, bg)

	if l.BackgroundImagePath != "" {
		img, err := imaging.Open(l.BackgroundImagePath)
		if err != nil {
			return nil, fmt.Errorf("open background image: %w", err)
		}
		canvas = imaging.Paste(canvas, img, image.Pt(0, 0))
	}

	for i, p := range l.Placements {
		photo := imaging.Fit(photos[i], p.Width, p.Height, imaging.Lanczos)
		if p.Rotation != 0 {
			photo = imaging.Rotate(photo, float64(p.Rotation), color.NRGBA{})
		}
		canvas = imaging.Overlay(canvas, photo, image.Pt(p.X, p.Y), 1.0)
	}

	if l.ForegroundImagePath != "" {
		img, err := imaging.Open(l.ForegroundImagePath)
		if err != nil {
			return nil, fmt.Errorf("open foreground image: %w", err)
		}
		canvas = imaging.Overlay(canvas, img, image.Pt(0, 0), 1.0)
	}

	return canvas, nil
}

// LoadImages opens the photo files in order for use with Render.
func LoadImages(paths []string) ([]image.Image, error) {
	images := make([]image.Image, 0, len(paths))
	for _, p := range paths {
		img, err := imaging.Open(p)
		if err != nil {
			return nil, fmt.Errorf("open image %s: %w", p, err)
		}
		images = append(images, img)
	}
	return images, nil
}
