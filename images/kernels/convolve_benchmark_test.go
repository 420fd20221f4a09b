package kernels

import (
	"image"
	"math/rand"
	"testing"
)

func genRGBA(w, h int, alpha bool) *image.RGBA {
	img := image.NewRGBA(image.Rect(0, 0, w, h))
	rng := rand.New(rand.NewSource(1))
	for y := 0; y < h; y++ {
		row := y * img.Stride
		for x := 0; x < w; x++ {
			i := row + x*4
			img.Pix[i+0] = uint8(rng.Intn(256))
			img.Pix[i+1] = uint8(rng.Intn(256))
			img.Pix[i+2] = uint8(rng.Intn(256))
			if alpha {
				img.Pix[i+3] = uint8(rng.Intn(256))
			} else {
				img.Pix[i+3] = 255
			}
		}
	}
	return img
}

func BenchmarkSharpen_160(b *testing.B) {
	img := ToNRGBA(genRGBA(160, 160, false))
	b.ReportAllocs()
	for i := 0; i < b.N; i++ {
		_ = Sharpen(img)
	}
}

func BenchmarkSharpen_640(b *testing.B) {
	img := ToNRGBA(genRGBA(640, 640, false))
	b.ReportAllocs()
	for i := 0; i < b.N; i++ {
		_ = Sharpen(img)
	}
}

func BenchmarkSharpen_640_Convert(b *testing.B) {
	img := genRGBA(640, 640, true)
	b.ReportAllocs()
	for i := 0; i < b.N; i++ {
		_ = Sharpen(img)
	}
}
