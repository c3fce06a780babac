package compose

import (
	"image"
	"testing"

	"github.com/pixelbooth/montage/pkg/template"
)

func TestPreview(t *testing.T) {
	l := &template.Layout{
		CanvasWidth:     120,
		CanvasHeight:    80,
		BackgroundColor: "#336699",
		Placements: []template.Placement{
			{X: 10, Y: 10, Width: 40, Height: 30},
			{X: 60, Y: 10, Width: 40, Height: 30, Rotation: 15},
		},
	}

	img, err := Preview(l)
	if err != nil {
		t.Fatalf("Preview: %v", err)
	}
	if got := img.Bounds().Size(); got != image.Pt(120, 80) {
		t.Errorf("preview size = %v, want (120, 80)", got)
	}
}

func TestPreviewBadColor(t *testing.T) {
	l := &template.Layout{CanvasWidth: 10, CanvasHeight: 10, BackgroundColor: "zz"}
	if _, err := Preview(l); err == nil {
		t.Error("Preview should fail on a malformed background color")
	}
}

func TestRotatedBounds(t *testing.T) {
	tests := []struct {
		w, h  float64
		deg   int
		wantW float64
		wantH float64
	}{
		{w: 10, h: 30, deg: 0, wantW: 10, wantH: 30},
		{w: 10, h: 30, deg: 90, wantW: 30, wantH: 10},
		{w: 10, h: 30, deg: 180, wantW: 10, wantH: 30},
		{w: 20, h: 20, deg: 45, wantW: 28.284, wantH: 28.284},
	}

	for _, tt := range tests {
		w, h := rotatedBounds(tt.w, tt.h, tt.deg)
		if diff := w - tt.wantW; diff < -0.01 || diff > 0.01 {
			t.Errorf("rotatedBounds(%v, %v, %d) width = %v, want ~%v", tt.w, tt.h, tt.deg, w, tt.wantW)
		}
		if diff := h - tt.wantH; diff < -0.01 || diff > 0.01 {
			t.Errorf("rotatedBounds(%v, %v, %d) height = %v, want ~%v", tt.w, tt.h, tt.deg, h, tt.wantH)
		}
	}
}
