package images

import (
	"fmt"
	"image"
	"math"

	"github.com/nfnt/resize"
	"github.com/rs/zerolog"
	"golang.org/x/image/draw"

	"github.com/yuew620/imageConvertFunction/images/kernels"
)

const (
	// StepFactor is the approximate linear reduction applied by each downscale step.
	StepFactor = 0.75
	// MinSteps is the fewest passes a multi-step downscale makes.
	MinSteps = 2
)

// Interpolator performs one smooth, antialiased scaling pass.
type Interpolator interface {
	// Name identifies the interpolation in logs and configuration.
	Name() string
	// Scale resamples src to exactly width x height.
	Scale(src image.Image, width, height int) *image.NRGBA
}

// BicubicInterpolator scales with nfnt/resize's bicubic filter, which widens its
// support when minifying.
type BicubicInterpolator struct{}

// Name implements Interpolator.
func (BicubicInterpolator) Name() string { return "bicubic" }

// Scale implements Interpolator.
func (BicubicInterpolator) Scale(src image.Image, width, height int) *image.NRGBA {
	return kernels.ToNRGBA(resize.Resize(uint(width), uint(height), src, resize.Bicubic))
}

// CatmullRomInterpolator scales with golang.org/x/image/draw's Catmull-Rom kernel.
type CatmullRomInterpolator struct{}

// Name implements Interpolator.
func (CatmullRomInterpolator) Name() string { return "catmullrom" }

// Scale implements Interpolator.
func (CatmullRomInterpolator) Scale(src image.Image, width, height int) *image.NRGBA {
	dst := image.NewNRGBA(image.Rect(0, 0, width, height))
	draw.CatmullRom.Scale(dst, dst.Rect, src, src.Bounds(), draw.Src, nil)
	return dst
}

// InterpolatorByName returns the interpolator registered under name.
func InterpolatorByName(name string) (Interpolator, error) {
	switch name {
	case "", "bicubic":
		return BicubicInterpolator{}, nil
	case "catmullrom":
		return CatmullRomInterpolator{}, nil
	default:
		return nil, fmt.Errorf("unknown interpolation %q", name)
	}
}

// ContentSize computes the size of the scaled content within the target canvas.
//
// Without PreserveRatio the content is stretched to fill the canvas. With it, both
// axes are scaled by min(targetW/origW, targetH/origH) and rounded to the nearest
// pixel. The result is never smaller than 1x1.
func ContentSize(orig Size, spec TargetSpec) Size {
	if !spec.PreserveRatio {
		return Size{Width: spec.Width, Height: spec.Height}
	}

	ratio := math.Min(
		float64(spec.Width)/float64(orig.Width),
		float64(spec.Height)/float64(orig.Height),
	)

	return Size{
		Width:  atLeastOne(int(math.Round(float64(orig.Width) * ratio))),
		Height: atLeastOne(int(math.Round(float64(orig.Height) * ratio))),
	}
}

// UseMultiStep reports whether shrinking orig to content is large enough, more than
// 2x on either axis, to warrant a multi-step downscale.
func UseMultiStep(orig, content Size) bool {
	return orig.Width > 2*content.Width || orig.Height > 2*content.Height
}

// ResizeSteps returns the sequence of sizes a multi-step downscale passes through.
//
// Each intermediate step scales the original uniformly by minRatio^(i/n), where
// minRatio is the smaller of the two axis ratios and n = ceil(log(minRatio)/log(0.75)),
// at least MinSteps. The last step is always exactly content.
//
// Arguments:
//   - orig: The size of the source image.
//   - content: The size the final step must land on.
//
// Returns:
//   - []Size: At least MinSteps sizes, the last equal to content.
func ResizeSteps(orig, content Size) []Size {
	minRatio := math.Min(
		float64(content.Width)/float64(orig.Width),
		float64(content.Height)/float64(orig.Height),
	)

	n := MinSteps
	if minRatio > 0 && minRatio < 1 {
		if s := int(math.Ceil(math.Log(minRatio) / math.Log(StepFactor))); s > n {
			n = s
		}
	}

	steps := make([]Size, 0, n)
	for i := 1; i < n; i++ {
		r := math.Pow(minRatio, float64(i)/float64(n))
		steps = append(steps, Size{
			Width:  atLeastOne(int(float64(orig.Width) * r)),
			Height: atLeastOne(int(float64(orig.Height) * r)),
		})
	}

	return append(steps, content)
}

// Resizer renders decoded images onto fixed-size transparent canvases.
type Resizer struct {
	interpolator Interpolator
	logger       zerolog.Logger
}

// NewResizer creates a Resizer. A nil interpolator selects BicubicInterpolator.
//
// Arguments:
//   - interpolator: The scaling pass used for every step.
//   - logger: Receives debug output describing the chosen strategy and steps.
//
// Returns:
//   - *Resizer: A resizer that holds no per-call state and is safe for concurrent use.
func NewResizer(interpolator Interpolator, logger zerolog.Logger) *Resizer {
	if interpolator == nil {
		interpolator = BicubicInterpolator{}
	}
	return &Resizer{interpolator: interpolator, logger: logger}
}

// Resize scales src into a spec.Width x spec.Height canvas.
//
// Content is centred at ((W-w)/2, (H-h)/2) using integer division, and any area
// it does not cover is fully transparent. src must have non-zero dimensions and
// spec must be valid.
func (r *Resizer) Resize(src image.Image, spec TargetSpec) *image.NRGBA {
	orig := SizeOf(src)
	content := ContentSize(orig, spec)

	var scaled *image.NRGBA
	if UseMultiStep(orig, content) {
		scaled = r.multiStep(src, orig, content)
	} else {
		r.logger.Debug().
			Str("strategy", "single-step").
			Int("from_width", orig.Width).
			Int("from_height", orig.Height).
			Int("to_width", content.Width).
			Int("to_height", content.Height).
			Msg("resizing image")
		scaled = r.interpolator.Scale(src, content.Width, content.Height)
	}

	canvas := image.NewNRGBA(image.Rect(0, 0, spec.Width, spec.Height))
	offset := image.Pt((spec.Width-content.Width)/2, (spec.Height-content.Height)/2)
	draw.Draw(canvas, scaled.Rect.Add(offset), scaled, image.Point{}, draw.Src)

	return canvas
}

// multiStep downscales through ResizeSteps, sharpening after every step but the last.
func (r *Resizer) multiStep(src image.Image, orig, content Size) *image.NRGBA {
	steps := ResizeSteps(orig, content)
	r.logger.Debug().
		Str("strategy", "multi-step").
		Int("from_width", orig.Width).
		Int("from_height", orig.Height).
		Int("to_width", content.Width).
		Int("to_height", content.Height).
		Int("steps", len(steps)).
		Msg("resizing image")

	current := src
	var out *image.NRGBA
	for i, step := range steps {
		out = r.interpolator.Scale(current, step.Width, step.Height)
		sharpen := i < len(steps)-1
		if sharpen {
			out = kernels.Sharpen(out)
		}
		r.logger.Debug().
			Int("step", i+1).
			Int("width", step.Width).
			Int("height", step.Height).
			Bool("sharpened", sharpen).
			Msg("resize step")
		current = out
	}

	return out
}

func atLeastOne(v int) int {
	if v < 1 {
		return 1
	}
	return v
}
