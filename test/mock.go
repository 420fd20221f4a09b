package test

import (
	"bytes"
	"fmt"
	"image"
	"image/color"
	"image/gif"
	"image/jpeg"
	"image/png"

	"github.com/chai2010/webp"
	"golang.org/x/image/bmp"
	"golang.org/x/image/tiff"
)

// Formats lists the sample formats MockImageGenerator can encode.
var Formats = []string{"jpeg", "png", "gif", "bmp", "tiff", "webp", "jfif"}

// MockImageGenerator creates deterministic test images and their encodings.
//
// Arguments:
// - None.
//
// Returns:
// - A generator for creating test images with a fixed gradient pattern.
//
// @example
// gen := NewMockImageGenerator(640, 480)
// data, err := gen.Encode("webp")
type MockImageGenerator struct {
	width  int
	height int
}

// NewMockImageGenerator creates a new image generator with specified dimensions.
//
// Arguments:
// - width: Image width in pixels.
// - height: Image height in pixels.
//
// Returns:
// - A configured MockImageGenerator instance.
func NewMockImageGenerator(width, height int) *MockImageGenerator {
	return &MockImageGenerator{width: width, height: height}
}

// Image returns an opaque gradient with a dark diagonal band.
func (g *MockImageGenerator) Image() *image.NRGBA {
	img := image.NewNRGBA(image.Rect(0, 0, g.width, g.height))
	for y := 0; y < g.height; y++ {
		for x := 0; x < g.width; x++ {
			c := color.NRGBA{
				R: uint8(x * 255 / g.width),
				G: uint8(y * 255 / g.height),
				B: 128,
				A: 255,
			}
			if (x+y)%40 < 6 {
				c = color.NRGBA{R: 20, G: 20, B: 20, A: 255}
			}
			img.SetNRGBA(x, y, c)
		}
	}
	return img
}

// Encode returns the generator's image encoded as format. "jfif" yields the same
// baseline JPEG stream as "jpeg"; only the file suffix differs.
func (g *MockImageGenerator) Encode(format string) ([]byte, error) {
	img := g.Image()
	var buf bytes.Buffer
	var err error

	switch format {
	case "jpeg", "jpg", "jfif":
		err = jpeg.Encode(&buf, img, &jpeg.Options{Quality: 90})
	case "png":
		err = png.Encode(&buf, img)
	case "gif":
		err = gif.Encode(&buf, img, &gif.Options{NumColors: 256})
	case "bmp":
		err = bmp.Encode(&buf, img)
	case "tiff":
		err = tiff.Encode(&buf, img, &tiff.Options{Compression: tiff.Deflate})
	case "webp":
		err = webp.Encode(&buf, img, &webp.Options{Lossless: true})
	default:
		return nil, fmt.Errorf("unsupported mock format %q", format)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to encode %s: %w", format, err)
	}

	return buf.Bytes(), nil
}

// Extension returns the conventional file suffix, with dot, for format.
func Extension(format string) string {
	switch format {
	case "jpeg":
		return ".jpg"
	default:
		return "." + format
	}
}
