package kernels

import (
	"image"

	"github.com/chewxy/math32"
	"golang.org/x/image/draw"
)

// Kernel3 is a 3x3 convolution kernel stored row-major, centre at index 4.
type Kernel3 [9]float32

// SharpenKernel boosts the centre against its four edge neighbours. Corners are zero
// and the weights sum to 1, so flat regions pass through unchanged.
var SharpenKernel = Kernel3{
	0, -0.2, 0,
	-0.2, 1.8, -0.2,
	0, -0.2, 0,
}

// Identity leaves every pixel unchanged.
var Identity = Kernel3{
	0, 0, 0,
	0, 1, 0,
	0, 0, 0,
}

// Sharpen applies SharpenKernel to src. See Convolve for edge behaviour.
func Sharpen(src image.Image) *image.NRGBA {
	return Convolve(src, SharpenKernel)
}

// Convolve applies k to every channel of src, alpha included, working on
// non-premultiplied 8-bit samples.
//
// The outermost 1-pixel ring is copied through unmodified so the kernel never
// samples outside the image. Images narrower or shorter than 3 pixels are
// returned as a plain copy.
//
// Arguments:
//   - src: The image to filter. It is never modified.
//   - k: The kernel to apply.
//
// Returns:
//   - *image.NRGBA: A new image with bounds starting at (0, 0).
func Convolve(src image.Image, k Kernel3) *image.NRGBA {
	in := ToNRGBA(src)
	w, h := in.Rect.Dx(), in.Rect.Dy()

	out := image.NewNRGBA(image.Rect(0, 0, w, h))
	copy(out.Pix, in.Pix)
	if w < 3 || h < 3 {
		return out
	}

	for y := 1; y < h-1; y++ {
		for x := 1; x < w-1; x++ {
			dstOff := y*out.Stride + x*4
			for c := 0; c < 4; c++ {
				var sum float32
				for ky := -1; ky <= 1; ky++ {
					row := (y + ky) * in.Stride
					for kx := -1; kx <= 1; kx++ {
						weight := k[(ky+1)*3+(kx+1)]
						if weight == 0 {
							continue
						}
						sum += weight * float32(in.Pix[row+(x+kx)*4+c])
					}
				}
				out.Pix[dstOff+c] = clamp8(sum)
			}
		}
	}

	return out
}

// ToNRGBA returns src as a tightly packed *image.NRGBA whose bounds start at (0, 0).
// If src already is such an image it is returned directly; otherwise it is copied.
// Sub-images sharing a wider parent buffer are always copied.
func ToNRGBA(src image.Image) *image.NRGBA {
	if n, ok := src.(*image.NRGBA); ok && isPacked(n) {
		return n
	}
	b := src.Bounds()
	dst := image.NewNRGBA(image.Rect(0, 0, b.Dx(), b.Dy()))
	draw.Draw(dst, dst.Rect, src, b.Min, draw.Src)
	return dst
}

// isPacked reports whether Pix holds exactly the rows of Rect, starting at (0, 0).
func isPacked(n *image.NRGBA) bool {
	w, h := n.Rect.Dx(), n.Rect.Dy()
	return n.Rect.Min == (image.Point{}) && n.Stride == 4*w && len(n.Pix) == n.Stride*h
}

// clamp8 rounds v to the nearest integer in [0, 255].
func clamp8(v float32) uint8 {
	v = math32.Floor(v + 0.5)
	if v <= 0 {
		return 0
	}
	if v >= 255 {
		return 255
	}
	return uint8(v)
}
