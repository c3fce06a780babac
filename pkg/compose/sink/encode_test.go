package sink

import (
	"bytes"
	"image"
	"image/color"
	"image/jpeg"
	"image/png"
	"testing"

	"github.com/disintegration/imaging"
)

func testImage() image.Image {
	return imaging.New(8, 6, color.NRGBA{R: 200, G: 100, B: 50, A: 255})
}

func TestEncodePNG(t *testing.T) {
	data, err := Encode(testImage(), FormatPNG)
	if err != nil {
		t.Fatalf("Encode: %v", err)
	}

	decoded, err := png.Decode(bytes.NewReader(data))
	if err != nil {
		t.Fatalf("output is not valid PNG: %v", err)
	}
	if got := decoded.Bounds().Size(); got != image.Pt(8, 6) {
		t.Errorf("decoded size = %v, want (8, 6)", got)
	}
}

func TestEncodeJPEG(t *testing.T) {
	data, err := Encode(testImage(), FormatJPEG)
	if err != nil {
		t.Fatalf("Encode: %v", err)
	}

	decoded, err := jpeg.Decode(bytes.NewReader(data))
	if err != nil {
		t.Fatalf("output is not valid JPEG: %v", err)
	}
	if got := decoded.Bounds().Size(); got != image.Pt(8, 6) {
		t.Errorf("decoded size = %v, want (8, 6)", got)
	}
}

func TestEncodeUnsupportedFormat(t *testing.T) {
	if _, err := Encode(testImage(), "webp"); err == nil {
		t.Error("Encode should reject unsupported formats")
	}
}

func TestValidFormats(t *testing.T) {
	if !ValidFormats[FormatPNG] || !ValidFormats[FormatJPEG] {
		t.Error("png and jpeg should be valid formats")
	}
	if ValidFormats["gif"] {
		t.Error("gif should not be a valid format")
	}
}
