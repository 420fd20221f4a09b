// Package images - Format detection and quality resizing for thumbnail conversion.
package images

import (
	"image"
)

// TargetSpec describes the canvas a thumbnail is rendered onto.
type TargetSpec struct {
	// The width of the output canvas.
	Width int `json:"width" yaml:"width"`
	// The height of the output canvas.
	Height int `json:"height" yaml:"height"`
	// PreserveRatio scales content uniformly and pads the rest with transparency.
	PreserveRatio bool `json:"preserve_ratio" yaml:"preserve_ratio"`
}

// Valid reports whether both dimensions are positive.
func (t TargetSpec) Valid() bool {
	return t.Width > 0 && t.Height > 0
}

// Size is a width and height pair, used for content sizes and resize steps.
type Size struct {
	Width  int `json:"width" yaml:"width"`
	Height int `json:"height" yaml:"height"`
}

// SizeOf returns the dimensions of img.
func SizeOf(img image.Image) Size {
	b := img.Bounds()
	return Size{Width: b.Dx(), Height: b.Dy()}
}
