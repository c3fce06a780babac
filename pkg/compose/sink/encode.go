// Package sink encodes composite images into output byte formats.
package sink

import (
	"bytes"
	"fmt"
	"image"

	"github.com/disintegration/imaging"
)

// Supported output formats.
const (
	FormatPNG  = "png"
	FormatJPEG = "jpeg"
)

// ValidFormats is the set of supported output formats.
var ValidFormats = map[string]bool{
	FormatPNG:  true,
	FormatJPEG: true,
}

// jpegQuality is the encoder quality used for JPEG output.
const jpegQuality = 92

// Encode serializes img in the given format.
func Encode(img image.Image, format string) ([]byte, error) {
	var buf bytes.Buffer
	var err error

	switch format {
	case FormatPNG:
		err = imaging.Encode(&buf, img, imaging.PNG)
	case FormatJPEG:
		err = imaging.Encode(&buf, img, imaging.JPEG, imaging.JPEGQuality(jpegQuality))
	default:
		return nil, fmt.Errorf("unsupported format: %q (must be png or jpeg)", format)
	}

	if err != nil {
		return nil, fmt.Errorf("encode %s: %w", format, err)
	}
	return buf.Bytes(), nil
}
